package reconcile_test

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"

	"marquee/internal/dataset"
	"marquee/internal/omdb"
	"marquee/internal/reconcile"
)

type fakeEnricher struct {
	results map[string]omdb.Result
	calls   []string
}

func (f *fakeEnricher) Fetch(_ context.Context, imdbID string) (omdb.Result, error) {
	f.calls = append(f.calls, imdbID)
	if result, ok := f.results[imdbID]; ok {
		return result, nil
	}
	return omdb.Result{Status: omdb.StatusNotFound, Reason: "Movie not found!"}, nil
}

func TestCleanTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Toy Story (1995)", "Toy Story"},
		{"Seven (a.k.a. Se7en) (1995)", "Seven (a.k.a. Se7en)"},
		{"  Heat   (1995) ", "Heat"},
		{"Persona", "Persona"},
	}
	for _, tc := range cases {
		if got := reconcile.CleanTitle(tc.in); got != tc.want {
			t.Errorf("CleanTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplitGenres(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"Adventure|Animation", []string{"Adventure", "Animation"}},
		{"Adventure||Animation|", []string{"Adventure", "Animation"}},
		{"Drama|drama|DRAMA", []string{"Drama"}},
		{"comedy", []string{"Comedy"}},
		{"Sci-Fi|IMAX", []string{"Sci-Fi", "IMAX"}},
		{"(no genres listed)", nil},
		{"", nil},
	}
	for _, tc := range cases {
		if got := reconcile.SplitGenres(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("SplitGenres(%q) = %#v, want %#v", tc.in, got, tc.want)
		}
	}
}

func TestReconcileWithEnrichment(t *testing.T) {
	raw := `{"Title":"Toy Story","Director":"John Lasseter","Response":"True"}`
	var payload omdb.Payload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	enricher := &fakeEnricher{results: map[string]omdb.Result{
		"tt0114709": {Status: omdb.StatusFound, Payload: &payload, Raw: json.RawMessage(raw)},
	}}

	r := reconcile.New(enricher, nil)
	record, err := r.Reconcile(context.Background(), dataset.MovieRow{
		MovieID: 1,
		Title:   "Toy Story (1995)",
		Genres:  "Adventure|Animation",
	}, "tt0114709")
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}

	if record.Title != "Toy Story" {
		t.Errorf("Title = %q, want Toy Story", record.Title)
	}
	if record.Year == nil || *record.Year != 1995 {
		t.Errorf("Year = %v, want 1995", record.Year)
	}
	if len(record.Genres) != 2 {
		t.Errorf("Genres = %#v, want two entries", record.Genres)
	}
	if record.Detail == nil || record.Detail.Director != "John Lasseter" {
		t.Fatalf("unexpected detail: %#v", record.Detail)
	}
	if record.Detail.RawJSON != raw {
		t.Errorf("RawJSON not preserved: %q", record.Detail.RawJSON)
	}
}

func TestReconcileNotFoundLeavesDetailNil(t *testing.T) {
	enricher := &fakeEnricher{}
	r := reconcile.New(enricher, nil)

	record, err := r.Reconcile(context.Background(), dataset.MovieRow{
		MovieID: 9,
		Title:   "Obscure Film (2001)",
		Genres:  "Drama",
	}, "tt9999999")
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if record.Detail != nil {
		t.Fatalf("expected nil detail, got %#v", record.Detail)
	}
	if len(enricher.calls) != 1 {
		t.Fatalf("enricher called %d times, want 1", len(enricher.calls))
	}
}

func TestReconcileSkipsEnrichmentWithoutID(t *testing.T) {
	enricher := &fakeEnricher{}
	r := reconcile.New(enricher, nil)

	record, err := r.Reconcile(context.Background(), dataset.MovieRow{
		MovieID: 3,
		Title:   "No Links Here (1999)",
		Genres:  "Comedy",
	}, "")
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if record.Detail != nil {
		t.Fatal("expected nil detail for row without external id")
	}
	if len(enricher.calls) != 0 {
		t.Fatalf("enricher called %d times, want 0", len(enricher.calls))
	}
}

func TestReconcileNilEnricher(t *testing.T) {
	r := reconcile.New(nil, nil)
	record, err := r.Reconcile(context.Background(), dataset.MovieRow{
		MovieID: 4,
		Title:   "Skipped (2000)",
		Genres:  "Drama",
	}, "tt0000004")
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if record.Detail != nil {
		t.Fatal("expected nil detail when enrichment is disabled")
	}
}

func TestValidateRating(t *testing.T) {
	r := reconcile.New(nil, nil)

	valid, ok := r.ValidateRating(dataset.RatingRow{Line: 2, UserID: 5, MovieID: 1, Rating: 4.5, Timestamp: 1000})
	if !ok {
		t.Fatal("expected valid rating to pass")
	}
	if valid.Rating != 4.5 || valid.UserID != 5 {
		t.Fatalf("unexpected rating: %#v", valid)
	}

	if _, ok := r.ValidateRating(dataset.RatingRow{Line: 3, UserID: 5, MovieID: 1, Rating: 7.0, Timestamp: 1000}); ok {
		t.Fatal("rating above 5.0 should be rejected")
	}
	if _, ok := r.ValidateRating(dataset.RatingRow{Line: 4, UserID: 5, MovieID: 1, Rating: 0.0, Timestamp: 1000}); ok {
		t.Fatal("rating below 0.5 should be rejected")
	}
	if _, ok := r.ValidateRating(dataset.RatingRow{Line: 5, UserID: 0, MovieID: 1, Rating: 3.0, Timestamp: 1000}); ok {
		t.Fatal("missing user id should be rejected")
	}

	if got := r.Anomalies(); got != 3 {
		t.Fatalf("Anomalies = %d, want 3", got)
	}
}
