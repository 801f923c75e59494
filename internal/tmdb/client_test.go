package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"svomo/internal/domain"
)

func newTestServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status_message":"Invalid API key"}`))
			return
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status_message":"not found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestClientGetConfiguration(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/configuration": `{"images":{"secure_base_url":"https://image.tmdb.org/t/p/","poster_sizes":["w92","w154","w185","w342","w500","original"]}}`,
	})
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Token: "token-1"}, zap.NewNop())
	cfg, err := c.GetConfiguration(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Images.SecureBaseURL != "https://image.tmdb.org/t/p/" || len(cfg.Images.PosterSizes) != 6 {
		t.Fatalf("unexpected configuration %+v", cfg)
	}
}

func TestClientSearchSendsQuery(t *testing.T) {
	var gotQuery, gotAdult string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/tv" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("query")
		gotAdult = r.URL.Query().Get("include_adult")
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":1429,"name":"Attack on Titan","first_air_date":"2013-04-07","genre_ids":[16,10759],"original_language":"ja","origin_country":["JP"]}]}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Token: "t"}, nil)
	results, err := c.Search(context.Background(), "Attack on Titan", domain.MediaKindTV)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotQuery != "Attack on Titan" || gotAdult != "false" {
		t.Fatalf("unexpected query params query=%q adult=%q", gotQuery, gotAdult)
	}
	if len(results) != 1 || results[0].ID != 1429 || results[0].DisplayTitle() != "Attack on Titan" {
		t.Fatalf("unexpected results %+v", results)
	}
	if results[0].Date() != "2013-04-07" {
		t.Fatalf("expected air date, got %q", results[0].Date())
	}
}

func TestClientGetDetails(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/movie/27205": `{"id":27205,"title":"Inception","overview":"A thief...","poster_path":"/inc.jpg","release_date":"2010-07-15","genres":[{"id":28,"name":"Action"},{"id":878,"name":"Science Fiction"}]}`,
	})
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Token: "token-1"}, zap.NewNop())
	d, err := c.GetDetails(context.Background(), 27205, domain.MediaKindMovie)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if d.DisplayTitle() != "Inception" || d.Date() != "2010-07-15" {
		t.Fatalf("unexpected details %+v", d)
	}
	names := d.GenreNames()
	if len(names) != 2 || names[1] != "Science Fiction" {
		t.Fatalf("unexpected genres %v", names)
	}
}

func TestClientNon200IsStatusError(t *testing.T) {
	srv := newTestServer(t, map[string]string{})
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Token: "wrong"}, zap.NewNop())
	_, err := c.GetDetails(context.Background(), 1, domain.MediaKindMovie)
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 StatusError, got %v", err)
	}
}

func TestClientRejectsUnknownKind(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://127.0.0.1:1", Token: "t"}, zap.NewNop())
	if _, err := c.Search(context.Background(), "x", domain.MediaKind("anime")); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}
