package reconcile

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const noGenresSentinel = "(no genres listed)"

var (
	yearSuffixPattern = regexp.MustCompile(`\s*\(\d{4}\)\s*$`)
	multiSpacePattern = regexp.MustCompile(`\s{2,}`)

	genreCaser = cases.Title(language.Und)
)

// CleanTitle strips the trailing "(YYYY)" release suffix and collapses
// repeated whitespace.
func CleanTitle(title string) string {
	normalized := yearSuffixPattern.ReplaceAllString(title, "")
	normalized = multiSpacePattern.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}

// SplitGenres splits a pipe-delimited genre list into distinct tokens.
// Empty tokens and the "(no genres listed)" sentinel are dropped, duplicates
// differing only by case collapse to the first spelling seen, and all-lower
// tokens are repaired to title case. Mixed-case spellings like "Sci-Fi" or
// "IMAX" pass through untouched.
func SplitGenres(genres string) []string {
	if strings.EqualFold(strings.TrimSpace(genres), noGenresSentinel) {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	for _, token := range strings.Split(genres, "|") {
		token = strings.TrimSpace(token)
		if token == "" || strings.EqualFold(token, noGenresSentinel) {
			continue
		}
		if token == strings.ToLower(token) {
			token = genreCaser.String(token)
		}
		key := strings.ToLower(token)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, token)
	}
	return out
}
