package main

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"marquee/internal/config"
	"marquee/internal/logging"
	"marquee/internal/lookupcache"
	"marquee/internal/omdb"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// newLookupClient builds the OMDb client with the durable cache attached.
// A missing API key returns nil; the pipeline then runs without enrichment.
func (c *commandContext) newLookupClient(cfg *config.Config, logger *slog.Logger) (*omdb.Client, error) {
	if cfg.OMDb.APIKey == "" {
		return nil, nil
	}
	cache := lookupcache.New(cfg.Paths.CachePath, logger)
	return omdb.New(cfg.OMDb.APIKey, cfg.OMDb.BaseURL,
		omdb.WithRateLimit(time.Duration(cfg.OMDb.RateLimitSeconds*float64(time.Second))),
		omdb.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.OMDb.TimeoutSeconds) * time.Second}),
		omdb.WithCache(cache),
		omdb.WithLogger(logger),
	)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func newCommandLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.NewFromConfig(cfg)
}
