package preflight

import (
	"context"

	"marquee/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks that need a feature to be configured are skipped when it is not.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Database directory", cfg.Paths.DatabaseDir),
		CheckDatasetFiles(cfg),
		CheckDiskSpace("Database disk space", cfg.Paths.DatabaseDir),
	}

	if cfg.OMDb.APIKey == "" {
		results = append(results, Result{
			Name:   "OMDb API",
			Detail: "api key missing (runs load without enrichment)",
		})
	} else {
		results = append(results, CheckLookupAPI(ctx, cfg.OMDb.BaseURL, cfg.OMDb.APIKey))
	}

	return results
}
