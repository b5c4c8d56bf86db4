package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"marquee/internal/config"
)

// minFreeBytes is the least free space worth starting a load with. The full
// rating set plus WAL overhead fits comfortably under this.
const minFreeBytes = 512 * 1024 * 1024

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDatasetFiles verifies that the dataset files are present. Movies and
// ratings are required; a missing links file only costs enrichment, so it is
// noted without failing the check.
func CheckDatasetFiles(cfg *config.Config) Result {
	const name = "Dataset files"

	var missing []string
	for _, path := range []string{cfg.MoviesCSV(), cfg.RatingsCSV()} {
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		return Result{Name: name, Detail: fmt.Sprintf("missing: %s (run 'marquee fetch')", strings.Join(missing, ", "))}
	}
	if _, err := os.Stat(cfg.LinksCSV()); err != nil {
		return Result{Name: name, Passed: true, Detail: "links.csv missing; catalog loads without enrichment"}
	}
	return Result{Name: name, Passed: true, Detail: "movies, ratings, and links present"}
}

// CheckDiskSpace verifies that the filesystem holding path has room for a load.
func CheckDiskSpace(name, path string) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minFreeBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%d MB free, need %d MB", free/(1024*1024), minFreeBytes/(1024*1024))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d MB free", free/(1024*1024))}
}

// CheckLookupAPI verifies that the OMDb endpoint is reachable and the key is
// accepted. One request, no retries.
func CheckLookupAPI(ctx context.Context, baseURL, apiKey string) Result {
	const name = "OMDb API"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := url.Values{}
	query.Set("apikey", apiKey)
	query.Set("i", "tt0114709")

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/?"+query.Encode(), nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("probe failed (%v)", err)}
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetError(err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid api key)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("probe failed (%d)", resp.StatusCode)}
	}
}

func summarizeNetError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "probe timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "probe timed out (API unreachable)"
	}
	return err.Error()
}
