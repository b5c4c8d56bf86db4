package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"marquee/internal/dataset"
	"marquee/internal/logging"
	"marquee/internal/omdb"
)

// Detail holds the enrichment fields persisted for a movie, plus the raw
// response for columns not yet modeled.
type Detail struct {
	Director   string
	Plot       string
	BoxOffice  string
	IMDbRating string
	Runtime    string
	Actors     string
	Country    string
	Language   string
	Awards     string
	RawJSON    string
}

// Record is a reconciled composite row ready for loading: normalized catalog
// fields, the derived genre set, and optional enrichment. Detail is nil when
// the movie has no external id, the service had no data, or the lookup failed
// transiently; the row still loads either way.
type Record struct {
	MovieID int64
	Title   string
	Year    *int
	IMDbID  string
	Genres  []string
	Detail  *Detail
}

// Rating is a validated rating row ready for loading.
type Rating struct {
	UserID    int64
	MovieID   int64
	Rating    float64
	Timestamp int64
}

// Enricher fetches metadata for an external id. *omdb.Client satisfies it;
// tests substitute fakes.
type Enricher interface {
	Fetch(ctx context.Context, imdbID string) (omdb.Result, error)
}

// Reconciler merges catalog rows with enrichment results and validates
// rating rows. Anomalies are counted and logged, never escalated.
type Reconciler struct {
	enricher  Enricher
	logger    *slog.Logger
	anomalies int
}

// New creates a Reconciler. A nil enricher disables enrichment entirely
// (the skip-enrichment run mode); records then load with null enrichment.
func New(enricher Enricher, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reconciler{
		enricher: enricher,
		logger:   logging.WithComponent(logger, "reconcile"),
	}
}

// Reconcile produces the composite record for one catalog row. The external
// id, not the title, keys the enrichment lookup; rows without one load with
// null enrichment. Only context cancellation propagates as an error.
func (r *Reconciler) Reconcile(ctx context.Context, row dataset.MovieRow, imdbID string) (Record, error) {
	record := Record{
		MovieID: row.MovieID,
		Title:   CleanTitle(row.Title),
		IMDbID:  imdbID,
		Genres:  SplitGenres(row.Genres),
	}
	if year, ok := dataset.ParseYear(row.Title); ok {
		record.Year = &year
	}

	if r.enricher == nil || imdbID == "" {
		return record, nil
	}

	result, err := r.enricher.Fetch(ctx, imdbID)
	if err != nil {
		return Record{}, fmt.Errorf("enrich %s: %w", imdbID, err)
	}
	if result.Status == omdb.StatusFound && result.Payload != nil {
		record.Detail = detailFromPayload(result.Payload, result.Raw)
	}
	return record, nil
}

// ValidateRating checks one rating row against the load constraints. Invalid
// rows are recorded as anomalies and reported false; the batch continues.
func (r *Reconciler) ValidateRating(row dataset.RatingRow) (Rating, bool) {
	if row.Rating < 0.5 || row.Rating > 5.0 {
		r.RecordAnomaly("ratings", row.Line, fmt.Sprintf("rating %.2f outside [0.5, 5.0]", row.Rating))
		return Rating{}, false
	}
	if row.UserID <= 0 || row.MovieID <= 0 {
		r.RecordAnomaly("ratings", row.Line, fmt.Sprintf("non-positive id (user=%d movie=%d)", row.UserID, row.MovieID))
		return Rating{}, false
	}
	if row.Timestamp < 0 {
		r.RecordAnomaly("ratings", row.Line, fmt.Sprintf("negative timestamp %d", row.Timestamp))
		return Rating{}, false
	}
	return Rating{
		UserID:    row.UserID,
		MovieID:   row.MovieID,
		Rating:    row.Rating,
		Timestamp: row.Timestamp,
	}, true
}

// RecordAnomaly counts and logs a rejected row with enough context to locate it.
func (r *Reconciler) RecordAnomaly(source string, line int, reason string) {
	r.anomalies++
	r.logger.Warn("row rejected",
		logging.Bool(logging.FieldAnomaly, true),
		logging.String("source", source),
		logging.Int("line", line),
		logging.String("reason", reason))
}

// Anomalies returns the number of rows rejected so far.
func (r *Reconciler) Anomalies() int {
	return r.anomalies
}

func detailFromPayload(payload *omdb.Payload, raw []byte) *Detail {
	return &Detail{
		Director:   payload.Director,
		Plot:       payload.Plot,
		BoxOffice:  payload.BoxOffice,
		IMDbRating: payload.IMDbRating,
		Runtime:    payload.Runtime,
		Actors:     payload.Actors,
		Country:    payload.Country,
		Language:   payload.Language,
		Awards:     payload.Awards,
		RawJSON:    string(raw),
	}
}
