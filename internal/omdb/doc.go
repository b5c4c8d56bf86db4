// Package omdb implements the rate-limited OMDb lookup client.
//
// Lookups key on IMDb id rather than title text because the catalog and OMDb
// disagree on title formatting (articles, punctuation, year suffixes);
// id-based joining removes that whole class of mismatches. Each uncached call
// waits out a configurable minimum interval since the previous call, the only
// intentional stall in the pipeline, to respect OMDb's request-rate ceiling.
//
// Outcomes are a tagged variant: Found carries the decoded payload plus the
// raw response bytes for forward compatibility, NotFound is terminal and
// cached, TransientError is logged and left uncached so a later run retries.
// The client never retries within a single call.
package omdb
