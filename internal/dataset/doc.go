// Package dataset reads the MovieLens CSV sources row by row so memory use
// stays bounded regardless of dataset size, and bootstraps the dataset by
// downloading and unpacking the upstream archive.
//
// Readers deliver typed rows through callbacks; a malformed row is reported
// to the caller's invalid-row hook and skipped rather than aborting the read.
package dataset
