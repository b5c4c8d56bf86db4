package etl

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"marquee/internal/config"
	"marquee/internal/dataset"
	"marquee/internal/logging"
	"marquee/internal/omdb"
	"marquee/internal/reconcile"
	"marquee/internal/store"
)

// Options selects a run mode. The zero value is a full run with enrichment.
type Options struct {
	// SampleLimit caps the number of movie and rating rows processed.
	// Zero means no cap.
	SampleLimit int
	// SkipEnrichment loads the catalog without contacting the lookup
	// service. No snapshots are written; prior snapshots survive.
	SkipEnrichment bool
	// Fresh clears every table before loading.
	Fresh bool
}

// RunReport is the outcome of one pipeline run.
type RunReport struct {
	RunID      string
	Duration   time.Duration
	Movies     store.LoadReport
	Ratings    store.LoadReport
	Anomalies  int
	Enrichment omdb.Stats
	Counts     map[string]int64
	Violations []string
}

// Pipeline runs the extract, reconcile, and load phases against an open
// store. A nil client disables enrichment regardless of Options.
type Pipeline struct {
	cfg    *config.Config
	store  *store.Store
	client *omdb.Client
	logger *slog.Logger
}

func New(cfg *config.Config, st *store.Store, client *omdb.Client, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		cfg:    cfg,
		store:  st,
		client: client,
		logger: logging.WithComponent(logger, "etl"),
	}
}

// Run executes one full pass over the dataset. Malformed or invalid rows are
// counted and skipped; only storage failures and context cancellation abort
// the run.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*RunReport, error) {
	started := time.Now()
	report := &RunReport{RunID: uuid.NewString()}
	logger := p.logger.With(logging.String(logging.FieldRunID, report.RunID))

	logger.Info("run starting",
		logging.Bool("fresh", opts.Fresh),
		logging.Bool("skip_enrichment", opts.SkipEnrichment),
		logging.Int("sample_limit", opts.SampleLimit))

	if opts.Fresh {
		if err := p.store.ClearAll(ctx); err != nil {
			return nil, fmt.Errorf("clear tables: %w", err)
		}
		logger.Info("tables cleared")
	}

	var enricher reconcile.Enricher
	if p.client != nil && !opts.SkipEnrichment {
		enricher = p.client
	}
	reconciler := reconcile.New(enricher, logger)
	loader := store.NewLoader(p.store, logger)

	links, err := dataset.ReadLinks(p.cfg.LinksCSV())
	if err != nil {
		// No cross-reference means no external ids; the catalog still
		// loads, just without enrichment.
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read links: %w", err)
		}
		logger.Warn("links file missing; loading without enrichment",
			logging.String("path", p.cfg.LinksCSV()))
		links = map[int64]string{}
	}
	logger.Info("links indexed", logging.Int("count", len(links)))

	if err := p.loadMovies(ctx, logger, reconciler, loader, links, opts, report); err != nil {
		return nil, err
	}
	if err := p.loadRatings(ctx, logger, reconciler, loader, opts, report); err != nil {
		return nil, err
	}

	report.Anomalies = reconciler.Anomalies() + report.Movies.Anomalies + report.Ratings.Anomalies
	if p.client != nil {
		report.Enrichment = p.client.Stats()
	}

	report.Counts, err = p.store.TableCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("table counts: %w", err)
	}
	report.Violations, err = p.store.ForeignKeyViolations(ctx)
	if err != nil {
		return nil, fmt.Errorf("integrity check: %w", err)
	}
	for _, violation := range report.Violations {
		logger.Warn("referential integrity violation", logging.String("detail", violation))
	}

	report.Duration = time.Since(started)
	logger.Info("run complete",
		logging.Duration("duration", report.Duration),
		logging.Int("movies_inserted", report.Movies.Inserted),
		logging.Int("ratings_inserted", report.Ratings.Inserted),
		logging.Int("anomalies", report.Anomalies))
	return report, nil
}

func (p *Pipeline) loadMovies(
	ctx context.Context,
	logger *slog.Logger,
	reconciler *reconcile.Reconciler,
	loader *store.Loader,
	links map[int64]string,
	opts Options,
	report *RunReport,
) error {
	batch := make([]reconcile.Record, 0, p.cfg.ETL.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		loaded, err := loader.LoadMovieBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("load movie batch: %w", err)
		}
		report.Movies.Add(loaded)
		batch = batch[:0]
		return nil
	}

	processed := 0
	err := dataset.ReadMovies(p.cfg.MoviesCSV(), func(row dataset.MovieRow) error {
		if opts.SampleLimit > 0 && processed >= opts.SampleLimit {
			return dataset.ErrStop
		}
		processed++

		var imdbID string
		if raw, ok := links[row.MovieID]; ok {
			imdbID, _ = dataset.FormatIMDbID(raw)
		}
		record, err := reconciler.Reconcile(ctx, row, imdbID)
		if err != nil {
			return err
		}
		batch = append(batch, record)
		if len(batch) >= p.cfg.ETL.BatchSize {
			return flush()
		}
		return nil
	}, func(line int, err error) {
		reconciler.RecordAnomaly("movies.csv", line, err.Error())
	})
	if err != nil {
		return fmt.Errorf("read movies: %w", err)
	}
	if err := flush(); err != nil {
		return err
	}

	logger.Info("movies loaded",
		logging.Int("processed", processed),
		logging.Int("inserted", report.Movies.Inserted),
		logging.Int("skipped", report.Movies.Skipped))
	return nil
}

func (p *Pipeline) loadRatings(
	ctx context.Context,
	logger *slog.Logger,
	reconciler *reconcile.Reconciler,
	loader *store.Loader,
	opts Options,
	report *RunReport,
) error {
	known, err := p.store.MovieIDs(ctx)
	if err != nil {
		return fmt.Errorf("index movie ids: %w", err)
	}

	batch := make([]reconcile.Rating, 0, p.cfg.ETL.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		loaded, err := loader.LoadRatingBatch(ctx, batch, known)
		if err != nil {
			return fmt.Errorf("load rating batch: %w", err)
		}
		report.Ratings.Add(loaded)
		batch = batch[:0]
		return nil
	}

	processed := 0
	err = dataset.ReadRatings(p.cfg.RatingsCSV(), func(row dataset.RatingRow) error {
		if opts.SampleLimit > 0 && processed >= opts.SampleLimit {
			return dataset.ErrStop
		}
		processed++

		rating, ok := reconciler.ValidateRating(row)
		if !ok {
			return nil
		}
		batch = append(batch, rating)
		if len(batch) >= p.cfg.ETL.BatchSize {
			return flush()
		}
		return nil
	}, func(line int, err error) {
		reconciler.RecordAnomaly("ratings.csv", line, err.Error())
	})
	if err != nil {
		return fmt.Errorf("read ratings: %w", err)
	}
	if err := flush(); err != nil {
		return err
	}

	logger.Info("ratings loaded",
		logging.Int("processed", processed),
		logging.Int("inserted", report.Ratings.Inserted),
		logging.Int("skipped", report.Ratings.Skipped))
	return nil
}
