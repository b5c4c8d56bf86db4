package lookupcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"marquee/internal/logging"
)

// Entry represents a cached OMDb response for one IMDb id. Found reports
// whether the service returned data; a false value is a negative entry that
// suppresses repeat lookups for titles the service does not know.
type Entry struct {
	IMDbID   string          `json:"imdb_id"`
	Found    bool            `json:"found"`
	Reason   string          `json:"reason,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	CachedAt time.Time       `json:"cached_at"`
}

// Cache provides durable access to previously fetched OMDb responses. If the
// path is empty the cache is non-functional and every operation is a no-op,
// which callers experience as a permanent miss.
type Cache struct {
	path    string
	logger  *slog.Logger
	entries map[string]Entry
}

// New creates a cache instance backed by the JSON file at path. An unreadable
// or corrupt file degrades to an empty cache rather than failing the run.
func New(path string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.WithComponent(logger, "lookupcache")

	c := &Cache{
		path:    path,
		logger:  logger,
		entries: make(map[string]Entry),
	}

	if path == "" {
		return c
	}

	if err := c.load(); err != nil {
		logger.Warn("failed to load lookup cache; starting empty",
			logging.Error(err),
			logging.String("path", path))
	}

	return c
}

// Lookup returns the cache entry for the given IMDb id if present.
func (c *Cache) Lookup(imdbID string) (Entry, bool) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" || c.path == "" {
		return Entry{}, false
	}
	entry, found := c.entries[imdbID]
	return entry, found
}

// Store adds or replaces an entry and persists the cache to disk.
func (c *Cache) Store(entry Entry) error {
	entry.IMDbID = strings.TrimSpace(entry.IMDbID)
	if entry.IMDbID == "" {
		return errors.New("imdb id cannot be empty")
	}
	if c.path == "" {
		return nil
	}
	if entry.CachedAt.IsZero() {
		entry.CachedAt = time.Now().UTC()
	}

	c.entries[entry.IMDbID] = entry

	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}

	c.logger.Debug("cached omdb response",
		logging.String(logging.FieldIMDbID, entry.IMDbID),
		logging.Bool("found", entry.Found))
	return nil
}

// List returns all cache entries sorted by CachedAt descending (newest first).
func (c *Cache) List() []Entry {
	if c.path == "" {
		return nil
	}
	entries := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CachedAt.After(entries[j].CachedAt)
	})
	return entries
}

// Remove deletes an entry by IMDb id and persists the change.
func (c *Cache) Remove(imdbID string) error {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return errors.New("imdb id cannot be empty")
	}
	if c.path == "" {
		return nil
	}
	if _, exists := c.entries[imdbID]; !exists {
		return fmt.Errorf("imdb id %q not found in cache", imdbID)
	}
	delete(c.entries, imdbID)
	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	return nil
}

// Clear removes all entries and persists the empty cache.
func (c *Cache) Clear() error {
	if c.path == "" {
		return nil
	}
	c.entries = make(map[string]Entry)
	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	c.logger.Debug("cleared lookup cache")
	return nil
}

// Count returns the number of cached entries.
func (c *Cache) Count() int {
	if c.path == "" {
		return 0
	}
	return len(c.entries)
}

// Stats summarizes cached entries by outcome.
func (c *Cache) Stats() (found, notFound int) {
	for _, entry := range c.entries {
		if entry.Found {
			found++
		} else {
			notFound++
		}
	}
	return found, notFound
}

func (c *Cache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // fresh start
		}
		return fmt.Errorf("read cache file: %w", err)
	}

	if len(data) == 0 {
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse cache file: %w", err)
	}

	c.entries = make(map[string]Entry, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.IMDbID) != "" {
			c.entries[entry.IMDbID] = entry
		}
	}

	c.logger.Debug("loaded lookup cache",
		logging.Int("entry_count", len(c.entries)),
		logging.String("path", c.path))
	return nil
}

// save writes the cache to disk atomically.
func (c *Cache) save() error {
	entries := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}

	// Sort for deterministic output
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CachedAt.After(entries[j].CachedAt)
	})

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath) // cleanup on failure
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
