package dataset_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"marquee/internal/dataset"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestReadMovies(t *testing.T) {
	path := writeFile(t, "movies.csv",
		"movieId,title,genres\n"+
			"1,Toy Story (1995),Adventure|Animation\n"+
			"2,Jumanji (1995),Adventure|Children|Fantasy\n")

	var rows []dataset.MovieRow
	err := dataset.ReadMovies(path, func(row dataset.MovieRow) error {
		rows = append(rows, row)
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("ReadMovies returned error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].MovieID != 1 || rows[0].Title != "Toy Story (1995)" || rows[0].Genres != "Adventure|Animation" {
		t.Fatalf("unexpected first row: %#v", rows[0])
	}
}

func TestReadMoviesSkipsMalformedRows(t *testing.T) {
	path := writeFile(t, "movies.csv",
		"movieId,title,genres\n"+
			"not-a-number,Broken,Drama\n"+
			"2,Jumanji (1995),Adventure\n")

	var rows []dataset.MovieRow
	var invalid int
	err := dataset.ReadMovies(path, func(row dataset.MovieRow) error {
		rows = append(rows, row)
		return nil
	}, func(line int, err error) {
		invalid++
	})
	if err != nil {
		t.Fatalf("ReadMovies returned error: %v", err)
	}
	if len(rows) != 1 || rows[0].MovieID != 2 {
		t.Fatalf("unexpected rows: %#v", rows)
	}
	if invalid != 1 {
		t.Fatalf("invalid count = %d, want 1", invalid)
	}
}

func TestReadMoviesStop(t *testing.T) {
	path := writeFile(t, "movies.csv",
		"movieId,title,genres\n1,A,Drama\n2,B,Drama\n3,C,Drama\n")

	var count int
	err := dataset.ReadMovies(path, func(row dataset.MovieRow) error {
		count++
		if count == 2 {
			return dataset.ErrStop
		}
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("ReadMovies returned error: %v", err)
	}
	if count != 2 {
		t.Fatalf("read %d rows, want 2", count)
	}
}

func TestReadMoviesPropagatesCallbackError(t *testing.T) {
	path := writeFile(t, "movies.csv",
		"movieId,title,genres\n1,A,Drama\n2,B,Drama\n")

	wantErr := errors.New("batch write failed")
	var invalid int
	err := dataset.ReadMovies(path, func(dataset.MovieRow) error {
		return wantErr
	}, func(line int, err error) {
		invalid++
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("ReadMovies error = %v, want %v", err, wantErr)
	}
	if invalid != 0 {
		t.Fatalf("callback errors must not be reported as invalid rows (got %d)", invalid)
	}
}

func TestReadMoviesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.csv")
	err := dataset.ReadMovies(path, func(dataset.MovieRow) error {
		return nil
	}, nil)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("error should report not-exist, got: %v", err)
	}
	if strings.Count(err.Error(), path) != 1 {
		t.Fatalf("error should name the path exactly once, got: %v", err)
	}
}

func TestReadRatings(t *testing.T) {
	path := writeFile(t, "ratings.csv",
		"userId,movieId,rating,timestamp\n"+
			"5,1,4.5,1000\n"+
			"7,2,3.0,2000\n")

	var rows []dataset.RatingRow
	err := dataset.ReadRatings(path, func(row dataset.RatingRow) error {
		rows = append(rows, row)
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("ReadRatings returned error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].UserID != 5 || rows[0].MovieID != 1 || rows[0].Rating != 4.5 || rows[0].Timestamp != 1000 {
		t.Fatalf("unexpected first row: %#v", rows[0])
	}
}

func TestReadRatingsReportsMalformed(t *testing.T) {
	path := writeFile(t, "ratings.csv",
		"userId,movieId,rating,timestamp\n"+
			"5,1,not-a-rating,1000\n"+
			"5,2,4.0\n"+
			"6,3,2.5,3000\n")

	var rows []dataset.RatingRow
	var invalid int
	err := dataset.ReadRatings(path, func(row dataset.RatingRow) error {
		rows = append(rows, row)
		return nil
	}, func(line int, err error) {
		invalid++
	})
	if err != nil {
		t.Fatalf("ReadRatings returned error: %v", err)
	}
	if len(rows) != 1 || rows[0].MovieID != 3 {
		t.Fatalf("unexpected rows: %#v", rows)
	}
	if invalid != 2 {
		t.Fatalf("invalid count = %d, want 2", invalid)
	}
}

func TestReadLinks(t *testing.T) {
	path := writeFile(t, "links.csv",
		"movieId,imdbId,tmdbId\n"+
			"1,0114709,862\n"+
			"2,0113497,8844\n"+
			"3,,15602\n")

	links, err := dataset.ReadLinks(path)
	if err != nil {
		t.Fatalf("ReadLinks returned error: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("got %d links, want 2", len(links))
	}
	if links[1] != "tt0114709" {
		t.Fatalf("links[1] = %q, want tt0114709", links[1])
	}
	if _, ok := links[3]; ok {
		t.Fatal("movie without imdb id should be absent")
	}
}

func TestParseYear(t *testing.T) {
	cases := []struct {
		title string
		year  int
		ok    bool
	}{
		{"Toy Story (1995)", 1995, true},
		{"Toy Story (1995) ", 1995, true},
		{"Blade Runner (Director's Cut)", 0, false},
		{"1984 (1956)", 1956, true},
		{"Untitled", 0, false},
	}
	for _, tc := range cases {
		year, ok := dataset.ParseYear(tc.title)
		if year != tc.year || ok != tc.ok {
			t.Errorf("ParseYear(%q) = (%d, %v), want (%d, %v)", tc.title, year, ok, tc.year, tc.ok)
		}
	}
}

func TestFormatIMDbID(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"114709", "tt0114709", true},
		{"0114709", "tt0114709", true},
		{"tt0114709", "tt0114709", true},
		{"12345678", "tt12345678", true},
		{"", "", false},
		{"abc", "", false},
	}
	for _, tc := range cases {
		got, ok := dataset.FormatIMDbID(tc.raw)
		if got != tc.want || ok != tc.ok {
			t.Errorf("FormatIMDbID(%q) = (%q, %v), want (%q, %v)", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}
