// Package etl orchestrates the pipeline: it streams the dataset files,
// reconciles rows against the lookup service, and commits batches to the
// store, producing a run report at the end.
package etl
