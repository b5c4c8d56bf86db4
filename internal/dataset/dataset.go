package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// ErrStop signals early termination of a read loop without error, used by
// sample-limited runs.
var ErrStop = errors.New("stop iteration")

// MovieRow is one catalog row from movies.csv.
type MovieRow struct {
	MovieID int64
	Title   string
	Genres  string
}

// RatingRow is one row from ratings.csv.
type RatingRow struct {
	Line      int
	UserID    int64
	MovieID   int64
	Rating    float64
	Timestamp int64
}

// InvalidRowFunc receives rows that fail structural parsing. The read
// continues; one malformed row never aborts the batch.
type InvalidRowFunc func(line int, err error)

// rowError marks a per-row parse failure, as opposed to a fatal error
// returned by the caller's fn (which aborts the read).
type rowError struct{ err error }

func (e rowError) Error() string { return e.err.Error() }
func (e rowError) Unwrap() error { return e.err }

// ReadMovies streams catalog rows from the movies CSV, invoking fn per row.
// Returning ErrStop from fn ends the read early without error.
func ReadMovies(path string, fn func(MovieRow) error, onInvalid InvalidRowFunc) error {
	return readCSV(path, 3, onInvalid, func(line int, record []string) error {
		movieID, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
		if err != nil {
			return rowError{fmt.Errorf("movieId: %w", err)}
		}
		return fn(MovieRow{
			MovieID: movieID,
			Title:   record[1],
			Genres:  record[2],
		})
	})
}

// ReadRatings streams rating rows from the ratings CSV, invoking fn per row.
func ReadRatings(path string, fn func(RatingRow) error, onInvalid InvalidRowFunc) error {
	return readCSV(path, 4, onInvalid, func(line int, record []string) error {
		userID, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
		if err != nil {
			return rowError{fmt.Errorf("userId: %w", err)}
		}
		movieID, err := strconv.ParseInt(strings.TrimSpace(record[1]), 10, 64)
		if err != nil {
			return rowError{fmt.Errorf("movieId: %w", err)}
		}
		rating, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return rowError{fmt.Errorf("rating: %w", err)}
		}
		timestamp, err := strconv.ParseInt(strings.TrimSpace(record[3]), 10, 64)
		if err != nil {
			return rowError{fmt.Errorf("timestamp: %w", err)}
		}
		return fn(RatingRow{
			Line:      line,
			UserID:    userID,
			MovieID:   movieID,
			Rating:    rating,
			Timestamp: timestamp,
		})
	})
}

// ReadLinks loads the movieId to IMDb id cross-reference. Rows without a
// usable imdb id are skipped: a catalog row with no external identifier
// simply loads unenriched.
func ReadLinks(path string) (map[int64]string, error) {
	links := make(map[int64]string)
	err := readCSV(path, 2, nil, func(line int, record []string) error {
		movieID, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
		if err != nil {
			return rowError{fmt.Errorf("movieId: %w", err)}
		}
		imdbID, ok := FormatIMDbID(record[1])
		if !ok {
			return nil
		}
		links[movieID] = imdbID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return links, nil
}

// readCSV iterates the file row by row, skipping the header line. Structural
// problems in a single row go to onInvalid and the read continues; any other
// fn error aborts the read.
func readCSV(path string, minFields int, onInvalid InvalidRowFunc, fn func(line int, record []string) error) error {
	file, err := os.Open(path)
	if err != nil {
		// The *PathError already names the file.
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	line := 0
	for {
		record, err := reader.Read()
		line++
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if onInvalid != nil {
				onInvalid(line, err)
			}
			continue
		}
		if line == 1 {
			continue // header
		}
		if len(record) < minFields {
			if onInvalid != nil {
				onInvalid(line, fmt.Errorf("expected %d fields, got %d", minFields, len(record)))
			}
			continue
		}
		if err := fn(line, record); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			var invalid rowError
			if errors.As(err, &invalid) {
				if onInvalid != nil {
					onInvalid(line, invalid.err)
				}
				continue
			}
			return err
		}
	}
}

var yearSuffixPattern = regexp.MustCompile(`\((\d{4})\)\s*$`)

// ParseYear extracts the release year from a trailing "(YYYY)" title suffix.
func ParseYear(title string) (int, bool) {
	match := yearSuffixPattern.FindStringSubmatch(strings.TrimSpace(title))
	if match == nil {
		return 0, false
	}
	year, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return year, true
}

// FormatIMDbID converts a raw numeric link value into the canonical
// zero-padded "tt" form OMDb expects (e.g. "114709" -> "tt0114709").
func FormatIMDbID(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	if strings.HasPrefix(trimmed, "tt") {
		return trimmed, true
	}
	if _, err := strconv.ParseUint(trimmed, 10, 64); err != nil {
		return "", false
	}
	for len(trimmed) < 7 {
		trimmed = "0" + trimmed
	}
	return "tt" + trimmed, true
}
