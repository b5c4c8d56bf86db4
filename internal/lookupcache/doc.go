// Package lookupcache provides a durable cache of OMDb responses keyed by
// IMDb id, so the pipeline never pays for the same lookup twice across runs.
//
// Not-found responses are cached as negative entries: a title OMDb does not
// know stays unenriched on later runs instead of being retried every time.
// Transient failures are never cached, leaving those titles eligible for
// enrichment on the next full run.
//
// # Storage
//
// The cache is a single JSON file at a configurable path (default:
// ~/.cache/marquee/omdb_cache.json), written atomically via a temp file.
// A corrupt or unreadable file is logged and treated as an empty cache.
//
// CLI commands for inspection and management:
//
//	marquee cache list    # List cached responses, newest first
//	marquee cache stats   # Counts of positive and negative entries
//	marquee cache clear   # Remove all entries
package lookupcache
