package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"marquee/internal/logging"
	"marquee/internal/lookupcache"
)

// Payload models the OMDb title response fields the pipeline persists. Fields
// not listed here survive in the raw response bytes carried alongside.
type Payload struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Director   string `json:"Director"`
	Plot       string `json:"Plot"`
	BoxOffice  string `json:"BoxOffice"`
	IMDbRating string `json:"imdbRating"`
	Runtime    string `json:"Runtime"`
	Actors     string `json:"Actors"`
	Country    string `json:"Country"`
	Language   string `json:"Language"`
	Awards     string `json:"Awards"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

// Status classifies the outcome of a lookup.
type Status string

const (
	// StatusFound means OMDb returned metadata for the id.
	StatusFound Status = "found"
	// StatusNotFound means OMDb explicitly reported no data for the id.
	// Terminal per id: the outcome is cached and not retried.
	StatusNotFound Status = "not_found"
	// StatusTransient means the lookup failed in a way that may succeed on a
	// later run (network fault, non-200 status, malformed body). Never cached.
	StatusTransient Status = "transient_error"
)

// Result is the tagged outcome of a single lookup. Payload and Raw are set
// only when Status is StatusFound; Reason carries the not-found or transient
// failure detail.
type Result struct {
	Status    Status
	Payload   *Payload
	Raw       json.RawMessage
	Reason    string
	FromCache bool
}

// Stats counts lookup outcomes over the client's lifetime.
type Stats struct {
	CacheHits int
	Fetched   int
	NotFound  int
	Transient int
}

// Client fetches title metadata from OMDb, throttled to a minimum interval
// between network calls and fronted by the durable lookup cache. It is not
// safe for concurrent use; callers issue lookups from a single goroutine.
type Client struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	minInterval time.Duration
	cache       *lookupcache.Cache
	logger      *slog.Logger
	lastCall    time.Time
	stats       Stats
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRateLimit sets the minimum elapsed time between network calls.
func WithRateLimit(interval time.Duration) Option {
	return func(c *Client) {
		c.minInterval = interval
	}
}

// WithCache attaches a durable lookup cache. Without one every call goes to
// the network.
func WithCache(cache *lookupcache.Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithLogger attaches a logger for cache and failure diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.WithComponent(logger, "omdb")
		}
	}
}

// New creates an OMDb client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("omdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("omdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Fetch looks up one IMDb id. The cache is consulted first; on a miss the
// call waits out the rate-limit interval before going to the network.
// Successful and not-found responses are written back to the cache; transient
// failures are returned uncached so a later run can retry. The returned error
// is non-nil only for caller mistakes and context cancellation.
func (c *Client) Fetch(ctx context.Context, imdbID string) (Result, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return Result{}, errors.New("imdb id must not be empty")
	}

	if c.cache != nil {
		if entry, ok := c.cache.Lookup(imdbID); ok {
			c.stats.CacheHits++
			return resultFromEntry(entry), nil
		}
	}

	if err := c.throttle(ctx); err != nil {
		return Result{}, err
	}

	result, err := c.fetchRemote(ctx, imdbID)
	if err != nil {
		return Result{}, err
	}

	switch result.Status {
	case StatusFound:
		c.stats.Fetched++
		c.cachePut(lookupcache.Entry{IMDbID: imdbID, Found: true, Payload: result.Raw})
	case StatusNotFound:
		c.stats.NotFound++
		c.cachePut(lookupcache.Entry{IMDbID: imdbID, Found: false, Reason: result.Reason})
	case StatusTransient:
		c.stats.Transient++
		c.logger.Warn("omdb lookup failed; will retry on a later run",
			logging.String(logging.FieldIMDbID, imdbID),
			logging.String("reason", result.Reason))
	}

	return result, nil
}

// Stats returns outcome counters accumulated since the client was created.
func (c *Client) Stats() Stats {
	return c.stats
}

func (c *Client) throttle(ctx context.Context) error {
	if c.minInterval <= 0 {
		return nil
	}
	wait := c.minInterval - time.Since(c.lastCall)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) fetchRemote(ctx context.Context, imdbID string) (Result, error) {
	endpoint, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return Result{}, fmt.Errorf("parse omdb url: %w", err)
	}
	params := url.Values{}
	params.Set("i", imdbID)
	params.Set("apikey", c.apiKey)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	c.lastCall = time.Now()
	latency := time.Since(requestStart)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{Status: StatusTransient, Reason: fmt.Sprintf("execute request (latency=%v): %v", latency, err)}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{Status: StatusTransient, Reason: fmt.Sprintf("omdb returned %d (latency=%v)", resp.StatusCode, latency)}, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Status: StatusTransient, Reason: fmt.Sprintf("read response: %v", err)}, nil
	}

	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Result{Status: StatusTransient, Reason: fmt.Sprintf("decode response: %v", err)}, nil
	}

	// OMDb signals not-found inside a 200 response.
	if strings.EqualFold(payload.Response, "False") {
		reason := payload.Error
		if reason == "" {
			reason = "unknown error"
		}
		return Result{Status: StatusNotFound, Reason: reason}, nil
	}

	return Result{Status: StatusFound, Payload: &payload, Raw: raw}, nil
}

func (c *Client) cachePut(entry lookupcache.Entry) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Store(entry); err != nil {
		// A broken cache degrades to repeat lookups, never to a failed run.
		c.logger.Warn("failed to persist cache entry",
			logging.String(logging.FieldIMDbID, entry.IMDbID),
			logging.Error(err))
	}
}

func resultFromEntry(entry lookupcache.Entry) Result {
	if !entry.Found {
		return Result{Status: StatusNotFound, Reason: entry.Reason, FromCache: true}
	}
	var payload Payload
	if err := json.Unmarshal(entry.Payload, &payload); err != nil {
		// A mangled cached payload behaves like a miss that cannot be
		// refreshed this run; treat it as transient so it is retried later.
		return Result{Status: StatusTransient, Reason: fmt.Sprintf("decode cached payload: %v", err), FromCache: true}
	}
	return Result{Status: StatusFound, Payload: &payload, Raw: entry.Payload, FromCache: true}
}
