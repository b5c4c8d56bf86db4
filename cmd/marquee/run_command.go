package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"marquee/internal/etl"
	"marquee/internal/logging"
	"marquee/internal/preflight"
	"marquee/internal/store"
)

const timeRounding = 10 * time.Millisecond

func newRunCommand(ctx *commandContext) *cobra.Command {
	var sample bool
	var sampleLimit int
	var skipEnrichment bool
	var fresh bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the ETL pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := newCommandLogger(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			for _, check := range preflight.RunAll(signalCtx, cfg) {
				if !check.Passed && check.Name != "OMDb API" {
					return fmt.Errorf("preflight: %s: %s", check.Name, check.Detail)
				}
				if !check.Passed {
					logger.Warn("preflight check failed", logging.String("check", check.Name), logging.String("detail", check.Detail))
				}
			}

			// One writer per database. A second concurrent run fails fast
			// instead of stalling on SQLite's busy timeout.
			lock := flock.New(filepath.Join(cfg.Paths.DatabaseDir, "marquee.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another run holds %s", lock.Path())
			}
			defer func() { _ = lock.Unlock() }()

			st, err := store.Open(cfg.DatabasePath())
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer st.Close()

			client, err := ctx.newLookupClient(cfg, logger)
			if err != nil {
				return fmt.Errorf("init lookup client: %w", err)
			}
			if client == nil {
				logger.Warn("no OMDb api key configured; loading without enrichment")
			}

			limit := 0
			if sample || sampleLimit > 0 {
				limit = sampleLimit
				if limit <= 0 {
					limit = cfg.ETL.SampleLimit
				}
			}

			pipeline := etl.New(cfg, st, client, logger)
			report, err := pipeline.Run(signalCtx, etl.Options{
				SampleLimit:    limit,
				SkipEnrichment: skipEnrichment,
				Fresh:          fresh,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s finished in %s\n\n", report.RunID, report.Duration.Round(timeRounding))
			fmt.Fprintln(out, renderRunReport(report))
			if len(report.Violations) > 0 {
				fmt.Fprintf(out, "\nWARNING: %d referential integrity violations; see the log\n", len(report.Violations))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&sample, "sample", false, "Process only a sample of rows (cap from config)")
	cmd.Flags().IntVar(&sampleLimit, "limit", 0, "Process at most N movie and rating rows")
	cmd.Flags().BoolVar(&skipEnrichment, "skip-enrichment", false, "Load the catalog without calling the OMDb API")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "Clear all tables before loading")
	return cmd
}

func renderRunReport(report *etl.RunReport) string {
	rows := [][]string{
		{"movies", formatLoad(report.Movies)},
		{"ratings", formatLoad(report.Ratings)},
	}
	for _, table := range []string{"movies", "genres", "movie_genres", "ratings", "movie_details"} {
		rows = append(rows, []string{table + " total", strconv.FormatInt(report.Counts[table], 10)})
	}
	rows = append(rows,
		[]string{"anomalies", strconv.Itoa(report.Anomalies)},
		[]string{"cache hits", strconv.Itoa(report.Enrichment.CacheHits)},
		[]string{"api fetched", strconv.Itoa(report.Enrichment.Fetched)},
		[]string{"api not found", strconv.Itoa(report.Enrichment.NotFound)},
		[]string{"api transient", strconv.Itoa(report.Enrichment.Transient)},
	)
	return renderMetrics(rows)
}

func formatLoad(load store.LoadReport) string {
	return fmt.Sprintf("%d inserted, %d skipped, %d replaced", load.Inserted, load.Skipped, load.Replaced)
}
