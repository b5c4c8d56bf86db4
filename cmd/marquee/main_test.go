package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T, base string) string {
	t.Helper()

	// Keep a developer's real key out of the test run.
	t.Setenv("OMDB_API_KEY", "")

	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
database_dir = %q
log_dir = %q
cache_path = %q

[omdb]
api_key = ""

[logging]
level = "error"
`,
		filepath.Join(base, "data"),
		filepath.Join(base, "db"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "cache", "omdb_cache.json"),
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func writeTestDataset(t *testing.T, base string) {
	t.Helper()

	dataDir := filepath.Join(base, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatalf("mkdir data: %v", err)
	}
	files := map[string]string{
		"movies.csv":  "movieId,title,genres\n1,Toy Story (1995),Adventure|Comedy\n",
		"ratings.csv": "userId,movieId,rating,timestamp\n1,1,4.0,964982703\n",
		"links.csv":   "movieId,imdbId,tmdbId\n1,0114709,862\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dataDir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	output, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(output, target) {
		t.Errorf("output does not mention target path: %s", output)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(target, []byte("# existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error for existing config file")
	}
}

func TestRunSkipEnrichmentLoadsDataset(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)
	writeTestDataset(t, base)

	output, err := runCLI(t, "--config", configPath, "run", "--skip-enrichment")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, output)
	}
	if !strings.Contains(output, "finished in") {
		t.Errorf("missing run summary: %s", output)
	}

	if _, err := os.Stat(filepath.Join(base, "db", "movies.db")); err != nil {
		t.Fatalf("database not created: %v", err)
	}
}

func TestRunFailsWithoutDataset(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	if _, err := runCLI(t, "--config", configPath, "run"); err == nil {
		t.Fatal("expected preflight failure with no dataset files")
	}
}

func TestStatusWithoutDatabase(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)
	writeTestDataset(t, base)

	output, err := runCLI(t, "--config", configPath, "status")
	if err != nil {
		t.Fatalf("status: %v\n%s", err, output)
	}
	if !strings.Contains(output, "No database yet") {
		t.Errorf("missing no-database notice: %s", output)
	}
}

func TestCacheStatsEmpty(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	output, err := runCLI(t, "--config", configPath, "cache", "stats")
	if err != nil {
		t.Fatalf("cache stats: %v\n%s", err, output)
	}
	if !strings.Contains(output, "entries") {
		t.Errorf("missing entries row: %s", output)
	}
}
