// Package store owns the SQLite catalog: schema creation, idempotent batch
// loading of movies, genres, ratings, and enrichment snapshots, and the
// integrity queries the pipeline reports on after a run.
package store
