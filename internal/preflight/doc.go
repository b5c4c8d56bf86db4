// Package preflight provides readiness checks for the filesystem paths and
// the external lookup service that a pipeline run depends on.
//
// These checks run in two contexts:
//   - The run command calls RunAll before loading anything, so a doomed run
//     fails in seconds instead of partway through the rating set.
//   - The CLI "marquee status" command displays the same results as a table.
//
// A missing API key is reported but does not fail the run; the pipeline then
// loads the catalog without enrichment.
package preflight
