// Package reconcile merges catalog rows with enrichment results into load-
// ready composite records and validates rating rows.
//
// Validation follows a failure-isolation policy: a malformed row is counted
// and logged as an anomaly and excluded from the load set, and the batch
// continues. Enrichment association is by external identifier only, never by
// title text.
package reconcile
