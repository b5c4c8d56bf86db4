package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. It does not require an OMDb
// API key because enrichment-skipped runs are a supported mode; the key is
// checked where enrichment is actually requested.
func (c *Config) Validate() error {
	if err := c.validateOMDb(); err != nil {
		return err
	}
	if err := c.validateETL(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateOMDb() error {
	if c.OMDb.BaseURL == "" {
		return errors.New("omdb.base_url must be set")
	}
	if c.OMDb.RateLimitSeconds < 0 {
		return errors.New("omdb.rate_limit_seconds must not be negative")
	}
	if c.OMDb.TimeoutSeconds <= 0 {
		return errors.New("omdb.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateETL() error {
	if c.ETL.BatchSize <= 0 {
		return errors.New("etl.batch_size must be positive")
	}
	if c.ETL.SampleLimit <= 0 {
		return errors.New("etl.sample_limit must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
