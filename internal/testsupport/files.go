package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"marquee/internal/config"
)

// WriteFile creates the target path with the given content, creating parent
// directories as needed.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteDataset drops the three dataset files into the config's data
// directory. Each argument is full file content including the header line.
func WriteDataset(t testing.TB, cfg *config.Config, movies, ratings, links string) {
	t.Helper()

	WriteFile(t, cfg.MoviesCSV(), movies)
	WriteFile(t, cfg.RatingsCSV(), ratings)
	WriteFile(t, cfg.LinksCSV(), links)
}
