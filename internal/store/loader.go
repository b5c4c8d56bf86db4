package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"marquee/internal/logging"
	"marquee/internal/reconcile"
)

// LoadReport summarizes write outcomes for a load call. Anomalies are rows
// rejected before reaching the transaction; they never cause a rollback.
type LoadReport struct {
	Inserted  int
	Skipped   int
	Replaced  int
	Anomalies int
}

// Add accumulates another report into this one.
func (r *LoadReport) Add(other LoadReport) {
	r.Inserted += other.Inserted
	r.Skipped += other.Skipped
	r.Replaced += other.Replaced
	r.Anomalies += other.Anomalies
}

// Loader commits reconciled records into the five-table schema with
// insert-if-absent semantics for reference data and insert-or-replace for
// enrichment snapshots. Each batch is one transaction: a storage failure
// rolls the whole batch back and propagates as fatal.
type Loader struct {
	store  *Store
	logger *slog.Logger
}

// NewLoader creates a Loader bound to an open store.
func NewLoader(store *Store, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Loader{
		store:  store,
		logger: logging.WithComponent(logger, "loader"),
	}
}

// LoadMovieBatch writes one batch of composite records inside a single
// transaction, ordered so referential integrity holds at every step: genres
// first, then movies, then genre edges, then enrichment snapshots. Re-running
// the same batch inserts nothing new except refreshed snapshots.
func (l *Loader) LoadMovieBatch(ctx context.Context, records []reconcile.Record) (LoadReport, error) {
	var report LoadReport
	if len(records) == 0 {
		return report, nil
	}

	tx, err := l.store.db.BeginTx(ctx, nil)
	if err != nil {
		return report, fmt.Errorf("begin load tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	genreIDs, err := l.upsertGenres(ctx, tx, records, &report)
	if err != nil {
		return LoadReport{}, err
	}
	if err := l.insertMovies(ctx, tx, records, &report); err != nil {
		return LoadReport{}, err
	}
	if err := l.insertMovieGenres(ctx, tx, records, genreIDs, &report); err != nil {
		return LoadReport{}, err
	}
	if err := l.upsertDetails(ctx, tx, records, &report); err != nil {
		return LoadReport{}, err
	}

	if err := tx.Commit(); err != nil {
		return LoadReport{}, fmt.Errorf("commit load tx: %w", err)
	}

	l.logger.Debug("movie batch committed",
		logging.Int("records", len(records)),
		logging.Int("inserted", report.Inserted),
		logging.Int("skipped", report.Skipped),
		logging.Int("replaced", report.Replaced))
	return report, nil
}

// upsertGenres inserts each distinct genre name if absent and resolves the
// surrogate id for every name in the batch.
func (l *Loader) upsertGenres(ctx context.Context, tx *sql.Tx, records []reconcile.Record, report *LoadReport) (map[string]int64, error) {
	names := make([]string, 0, 8)
	seen := make(map[string]struct{})
	for _, record := range records {
		for _, genre := range record.Genres {
			if _, dup := seen[genre]; dup {
				continue
			}
			seen[genre] = struct{}{}
			names = append(names, genre)
		}
	}

	for _, name := range names {
		res, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO genres (genreName) VALUES (?)", name)
		if err != nil {
			return nil, fmt.Errorf("insert genre %q: %w", name, err)
		}
		countWrite(res, report)
	}

	if len(names) == 0 {
		return map[string]int64{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(names)), ",")
	args := make([]any, len(names))
	for i, name := range names {
		args[i] = name
	}
	rows, err := tx.QueryContext(ctx, "SELECT genreId, genreName FROM genres WHERE genreName IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("resolve genre ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]int64, len(names))
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan genre id: %w", err)
		}
		ids[name] = id
	}
	return ids, rows.Err()
}

// insertMovies writes catalog rows with insert-if-absent semantics: catalog
// identity is stable once assigned, so an existing row is never overwritten.
func (l *Loader) insertMovies(ctx context.Context, tx *sql.Tx, records []reconcile.Record, report *LoadReport) error {
	for _, record := range records {
		res, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO movies (movieId, title, year, imdbId) VALUES (?, ?, ?, ?)",
			record.MovieID,
			record.Title,
			nullableInt(record.Year),
			nullableString(record.IMDbID),
		)
		if err != nil {
			return fmt.Errorf("insert movie %d: %w", record.MovieID, err)
		}
		countWrite(res, report)
	}
	return nil
}

func (l *Loader) insertMovieGenres(ctx context.Context, tx *sql.Tx, records []reconcile.Record, genreIDs map[string]int64, report *LoadReport) error {
	for _, record := range records {
		for _, genre := range record.Genres {
			genreID, ok := genreIDs[genre]
			if !ok {
				// Unresolvable genre means the edge cannot be written;
				// reject the edge, keep the batch.
				report.Anomalies++
				l.logger.Warn("genre id missing for edge",
					logging.Bool(logging.FieldAnomaly, true),
					logging.Int64(logging.FieldMovieID, record.MovieID),
					logging.String("genre", genre))
				continue
			}
			res, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO movie_genres (movieId, genreId) VALUES (?, ?)",
				record.MovieID, genreID,
			)
			if err != nil {
				return fmt.Errorf("insert movie_genre (%d, %d): %w", record.MovieID, genreID, err)
			}
			countWrite(res, report)
		}
	}
	return nil
}

// upsertDetails replaces the enrichment snapshot for records that carry one.
// Records without enrichment are left alone, so a prior run's snapshot
// survives a later run where the lookup failed.
func (l *Loader) upsertDetails(ctx context.Context, tx *sql.Tx, records []reconcile.Record, report *LoadReport) error {
	for _, record := range records {
		if record.Detail == nil {
			continue
		}
		var exists int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM movie_details WHERE movieId = ?", record.MovieID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check movie_details %d: %w", record.MovieID, err)
		}

		detail := record.Detail
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO movie_details (
                movieId, director, plot, boxOffice, imdbRating,
                runtime, actors, country, language, awards, apiResponseJson
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.MovieID,
			nullableString(detail.Director),
			nullableString(detail.Plot),
			nullableString(detail.BoxOffice),
			nullableString(detail.IMDbRating),
			nullableString(detail.Runtime),
			nullableString(detail.Actors),
			nullableString(detail.Country),
			nullableString(detail.Language),
			nullableString(detail.Awards),
			nullableString(detail.RawJSON),
		)
		if err != nil {
			return fmt.Errorf("upsert movie_details %d: %w", record.MovieID, err)
		}
		if exists > 0 {
			report.Replaced++
		} else {
			report.Inserted++
		}
	}
	return nil
}

// LoadRatingBatch writes one batch of validated rating rows inside a single
// transaction. Rows referencing a movie absent from knownMovies are rejected
// as anomalies before the transaction ever sees them. The unique
// (userId, movieId, timestamp) constraint makes re-runs insert nothing.
func (l *Loader) LoadRatingBatch(ctx context.Context, ratings []reconcile.Rating, knownMovies map[int64]struct{}) (LoadReport, error) {
	var report LoadReport
	if len(ratings) == 0 {
		return report, nil
	}

	accepted := make([]reconcile.Rating, 0, len(ratings))
	for _, rating := range ratings {
		if _, ok := knownMovies[rating.MovieID]; !ok {
			report.Anomalies++
			l.logger.Warn("rating references missing movie",
				logging.Bool(logging.FieldAnomaly, true),
				logging.Int64(logging.FieldMovieID, rating.MovieID),
				logging.Int64("user_id", rating.UserID))
			continue
		}
		accepted = append(accepted, rating)
	}
	if len(accepted) == 0 {
		return report, nil
	}

	tx, err := l.store.db.BeginTx(ctx, nil)
	if err != nil {
		return report, fmt.Errorf("begin ratings tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, rating := range accepted {
		res, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO ratings (userId, movieId, rating, timestamp) VALUES (?, ?, ?, ?)",
			rating.UserID, rating.MovieID, rating.Rating, rating.Timestamp,
		)
		if err != nil {
			return LoadReport{}, fmt.Errorf("insert rating (%d, %d, %d): %w", rating.UserID, rating.MovieID, rating.Timestamp, err)
		}
		countWrite(res, &report)
	}

	if err := tx.Commit(); err != nil {
		return LoadReport{}, fmt.Errorf("commit ratings tx: %w", err)
	}

	l.logger.Debug("rating batch committed",
		logging.Int("records", len(accepted)),
		logging.Int("inserted", report.Inserted),
		logging.Int("skipped", report.Skipped))
	return report, nil
}

// countWrite classifies an insert-if-absent outcome. When the driver cannot
// report affected rows the write counts as skipped, never as inserted.
func countWrite(res sql.Result, report *LoadReport) {
	affected, err := res.RowsAffected()
	if err == nil && affected > 0 {
		report.Inserted++
		return
	}
	report.Skipped++
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}
