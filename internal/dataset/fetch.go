package dataset

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"marquee/internal/logging"
)

// Fetcher downloads and unpacks the MovieLens archive into the data directory.
type Fetcher struct {
	url     string
	dataDir string
	client  *http.Client
	logger  *slog.Logger
}

// NewFetcher creates a dataset fetcher. The timeout bounds the whole download.
func NewFetcher(url, dataDir string, timeout time.Duration, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Fetcher{
		url:     strings.TrimSpace(url),
		dataDir: dataDir,
		client:  &http.Client{Timeout: timeout},
		logger:  logging.WithComponent(logger, "dataset"),
	}
}

// Present reports whether the CSV files the pipeline needs already exist.
func (f *Fetcher) Present() bool {
	for _, name := range []string{"movies.csv", "ratings.csv", "links.csv"} {
		if _, err := os.Stat(filepath.Join(f.dataDir, name)); err != nil {
			return false
		}
	}
	return true
}

// Fetch downloads the archive and extracts its CSV files into the data
// directory. Files are written via temp files so a failed download never
// leaves a truncated CSV behind. When force is false and the files already
// exist, Fetch is a no-op.
func (f *Fetcher) Fetch(ctx context.Context, force bool) error {
	if !force && f.Present() {
		f.logger.Info("dataset already present", logging.String("dir", f.dataDir))
		return nil
	}

	f.logger.Info("downloading dataset", logging.String("url", f.url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("download dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download dataset: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("download dataset: %w", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open dataset archive: %w", err)
	}

	if err := os.MkdirAll(f.dataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	extracted := 0
	for _, file := range zr.File {
		if file.FileInfo().IsDir() || !strings.HasSuffix(file.Name, ".csv") {
			continue
		}
		// Archive entries live under ml-latest-small/; flatten into dataDir.
		target := filepath.Join(f.dataDir, filepath.Base(file.Name))
		if err := extractFile(file, target); err != nil {
			return err
		}
		extracted++
	}
	if extracted == 0 {
		return fmt.Errorf("dataset archive from %s contained no csv files", f.url)
	}

	f.logger.Info("dataset extracted",
		logging.Int("files", extracted),
		logging.String("dir", f.dataDir))
	return nil
}

func extractFile(file *zip.File, target string) error {
	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("open archive entry %s: %w", file.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read archive entry %s: %w", file.Name, err)
	}

	tempPath := target + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tempPath, target); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("replace %s: %w", target, err)
	}
	return nil
}
