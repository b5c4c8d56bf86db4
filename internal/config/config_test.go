package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"marquee/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing config file")
	}
	if cfg.ETL.BatchSize != 1000 {
		t.Fatalf("expected default batch size, got %d", cfg.ETL.BatchSize)
	}
	if cfg.OMDb.RateLimitSeconds != 0.25 {
		t.Fatalf("expected default rate limit, got %v", cfg.OMDb.RateLimitSeconds)
	}
}

func TestLoadParsesFileAndExpandsPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
database_dir = "` + filepath.Join(dir, "db") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"
cache_path = "` + filepath.Join(dir, "cache", "omdb.json") + `"

[omdb]
api_key = "abc123"
rate_limit_seconds = 1.5

[etl]
batch_size = 50
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %s to be used, got %s exists=%v", path, resolved, exists)
	}
	if cfg.OMDb.APIKey != "abc123" {
		t.Fatalf("api key not parsed: %q", cfg.OMDb.APIKey)
	}
	if cfg.OMDb.RateLimitSeconds != 1.5 {
		t.Fatalf("rate limit not parsed: %v", cfg.OMDb.RateLimitSeconds)
	}
	if cfg.ETL.BatchSize != 50 {
		t.Fatalf("batch size not parsed: %d", cfg.ETL.BatchSize)
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) {
		t.Fatalf("expected absolute data dir, got %q", cfg.Paths.DataDir)
	}
	if cfg.DatabasePath() != filepath.Join(dir, "db", "movies.db") {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath())
	}
}

func TestLoadUsesEnvAPIKey(t *testing.T) {
	t.Setenv("OMDB_API_KEY", "env-key")
	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.OMDb.APIKey != "env-key" {
		t.Fatalf("expected env API key, got %q", cfg.OMDb.APIKey)
	}
}

func TestLoadRejectsInvalidLogFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[logging]\nformat = \"xml\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unsupported log format")
	} else if !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if _, err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	if _, err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when config already exists")
	}
}
