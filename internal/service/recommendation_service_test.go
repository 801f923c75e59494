package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"svomo/internal/domain"
	"svomo/internal/llm"
	"svomo/internal/tmdb"
)

type fakeCatalog struct {
	mu sync.Mutex

	config     *tmdb.Configuration
	configErrs []error
	results    map[string][]tmdb.SearchResult
	searchErr  error
	details    map[int]*tmdb.Details
	detailsErr error

	configCalls int
	searches    []string
}

func searchKey(kind domain.MediaKind, title string) string {
	return string(kind) + ":" + title
}

func (f *fakeCatalog) GetConfiguration(ctx context.Context) (*tmdb.Configuration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configCalls++
	if len(f.configErrs) > 0 {
		err := f.configErrs[0]
		f.configErrs = f.configErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if f.config == nil {
		return nil, errors.New("no config")
	}
	return f.config, nil
}

func (f *fakeCatalog) Search(ctx context.Context, title string, kind domain.MediaKind) ([]tmdb.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, searchKey(kind, title))
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results[searchKey(kind, title)], nil
}

func (f *fakeCatalog) GetDetails(ctx context.Context, id int, kind domain.MediaKind) (*tmdb.Details, error) {
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	d, ok := f.details[id]
	if !ok {
		return nil, fmt.Errorf("details %d not found", id)
	}
	return d, nil
}

var testConfig = &tmdb.Configuration{Images: tmdb.ImagesConfig{
	SecureBaseURL: "https://img.example/t/p/",
	PosterSizes:   []string{"w92", "w154", "w185", "w342", "w500", "original"},
}}

func TestRecommend_FallbackWithEverythingDown(t *testing.T) {
	catalog := &fakeCatalog{searchErr: errors.New("catalog down")}
	svc := NewRecommendationService(nil, catalog, nil)

	recs := svc.Recommend(context.Background(), domain.AnswerSet{"content_type": "Movies"}, domain.AnswerSet{})
	if len(recs) != 3 {
		t.Fatalf("expected 3 recommendations, got %d", len(recs))
	}
	wantTitles := []string{"Inception", "The Grand Budapest Hotel", "Breaking Bad"}
	for i, r := range recs {
		if r.Title != wantTitles[i] {
			t.Fatalf("rec %d: expected %q, got %q", i, wantTitles[i], r.Title)
		}
		if r.Resolution != domain.ResolutionCandidate || r.Resolved() {
			t.Fatalf("rec %d: expected candidate tier, got %+v", i, r)
		}
		if r.PosterURL != PlaceholderPosterURL || r.Overview != CandidateOverview {
			t.Fatalf("rec %d: expected placeholder data, got %+v", i, r)
		}
		if len(r.Genres) != 1 || r.Genres[0] != GenreUnknown {
			t.Fatalf("rec %d: expected N/A genres, got %v", i, r.Genres)
		}
	}
	if recs[2].MediaKind != domain.MediaKindTV || recs[0].MediaKind != domain.MediaKindMovie {
		t.Fatalf("unexpected media kinds: %s %s", recs[0].MediaKind, recs[2].MediaKind)
	}
}

func TestRecommend_AnimeFallbackTrio(t *testing.T) {
	svc := NewRecommendationService(&llm.MockClient{Err: errors.New("offline")}, nil, nil)

	recs := svc.Recommend(context.Background(), domain.AnswerSet{"content_type": "Anime"}, nil)
	if len(recs) != 3 {
		t.Fatalf("expected 3 recommendations, got %d", len(recs))
	}
	if recs[0].Title != "My Hero Academia" || recs[1].Title != "Your Name" || recs[2].Title != "Attack on Titan" {
		t.Fatalf("unexpected anime trio: %s, %s, %s", recs[0].Title, recs[1].Title, recs[2].Title)
	}
	for _, r := range recs {
		if r.MediaKind != domain.MediaKindTV {
			t.Fatalf("anime candidates map to tv, got %s for %s", r.MediaKind, r.Title)
		}
	}
}

func TestRecommend_ResolvesWithDetails(t *testing.T) {
	mock := &llm.MockClient{Response: `Here are my picks: {"recommendations": [
		{"title": "Paddington 2", "year": 2017, "type": "movie", "explanation": "Warm and funny."}
	]}`}
	catalog := &fakeCatalog{
		config: testConfig,
		results: map[string][]tmdb.SearchResult{
			searchKey(domain.MediaKindMovie, "Paddington 2"): {{ID: 346648, Title: "Paddington 2", ReleaseDate: "2017-11-09", PosterPath: "/search.jpg"}},
		},
		details: map[int]*tmdb.Details{
			346648: {
				ID:          346648,
				Title:       "Paddington 2",
				ReleaseDate: "2017-11-09",
				Overview:    "Paddington gets a job.",
				PosterPath:  "/details.jpg",
				Genres:      []tmdb.Genre{{ID: 35, Name: "Comedy"}, {ID: 10751, Name: "Family"}},
			},
		},
	}
	svc := NewRecommendationService(mock, catalog, nil)

	recs := svc.Recommend(context.Background(), domain.AnswerSet{}, domain.AnswerSet{})
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}
	r := recs[0]
	if r.Resolution != domain.ResolutionDetails || r.CatalogID != 346648 {
		t.Fatalf("expected details tier, got %+v", r)
	}
	if r.PosterURL != "https://img.example/t/p/w342/details.jpg" {
		t.Fatalf("unexpected poster url %s", r.PosterURL)
	}
	if r.Year != "2017" || r.Overview != "Paddington gets a job." || r.Rationale != "Warm and funny." {
		t.Fatalf("unexpected fields: %+v", r)
	}
	if strings.Join(r.Genres, ",") != "Comedy,Family" {
		t.Fatalf("unexpected genres %v", r.Genres)
	}
}

func TestRecommend_DetailsFailureUsesSearchResult(t *testing.T) {
	mock := &llm.MockClient{Response: `{"recommendations": [{"title": "Dark", "year": "2017", "type": "series", "explanation": "Twisty."}]}`}
	catalog := &fakeCatalog{
		results: map[string][]tmdb.SearchResult{
			searchKey(domain.MediaKindTV, "Dark"): {{ID: 70523, Name: "Dark", FirstAirDate: "2017-12-01", PosterPath: "/dark.jpg"}},
		},
		detailsErr: errors.New("timeout"),
	}
	svc := NewRecommendationService(mock, catalog, nil)

	recs := svc.Recommend(context.Background(), nil, nil)
	r := recs[0]
	if r.Resolution != domain.ResolutionSearch || r.CatalogID != 70523 {
		t.Fatalf("expected search tier, got %+v", r)
	}
	if r.MediaKind != domain.MediaKindTV {
		t.Fatalf("expected tv, got %s", r.MediaKind)
	}
	if r.Overview != OverviewUnavailable {
		t.Fatalf("expected default overview, got %q", r.Overview)
	}
	if r.PosterURL != "https://image.tmdb.org/t/p/w342/dark.jpg" {
		t.Fatalf("expected default image base when configuration is missing, got %s", r.PosterURL)
	}
	if len(r.Genres) != 1 || r.Genres[0] != GenreUnknown {
		t.Fatalf("expected N/A genres, got %v", r.Genres)
	}
}

func TestRecommend_RetriesTVAsMovie(t *testing.T) {
	mock := &llm.MockClient{Response: `{"recommendations": [{"title": "K-On!", "year": null, "type": "anime", "explanation": "Cozy."}]}`}
	catalog := &fakeCatalog{
		config: testConfig,
		results: map[string][]tmdb.SearchResult{
			searchKey(domain.MediaKindMovie, "K-On!"): {{ID: 81, Title: "K-On! The Movie", ReleaseDate: "2011-12-03", GenreIDs: []int{16}}},
		},
		details: map[int]*tmdb.Details{81: {ID: 81, Title: "K-On! The Movie", ReleaseDate: "2011-12-03"}},
	}
	svc := NewRecommendationService(mock, catalog, nil)

	recs := svc.Recommend(context.Background(), nil, nil)
	r := recs[0]
	if r.MediaKind != domain.MediaKindMovie || r.CatalogID != 81 {
		t.Fatalf("expected movie retry hit, got %+v", r)
	}
	if r.PosterURL != PlaceholderPosterURL {
		t.Fatalf("expected placeholder for missing poster path, got %s", r.PosterURL)
	}
	if strings.Join(catalog.searches, "|") != "tv:K-On!|movie:K-On!" {
		t.Fatalf("unexpected searches %v", catalog.searches)
	}
}

func TestRecommend_NoRetryForMovies(t *testing.T) {
	mock := &llm.MockClient{Response: `{"recommendations": [{"title": "Unknown Film", "type": "movie"}]}`}
	catalog := &fakeCatalog{config: testConfig}
	svc := NewRecommendationService(mock, catalog, nil)

	recs := svc.Recommend(context.Background(), nil, nil)
	if recs[0].Resolution != domain.ResolutionCandidate || recs[0].Year != "" {
		t.Fatalf("expected candidate tier without year, got %+v", recs[0])
	}
	if len(catalog.searches) != 1 {
		t.Fatalf("expected a single search, got %v", catalog.searches)
	}
}

func TestPickResult(t *testing.T) {
	results := []tmdb.SearchResult{
		{ID: 1, Title: "Your Name", ReleaseDate: "2009-01-01"},
		{ID: 2, Title: "Your Name.", ReleaseDate: "2016-08-26", GenreIDs: []int{16, 10749}},
		{ID: 3, Title: "Your Name", ReleaseDate: "2016-01-01"},
	}

	cases := []struct {
		name string
		c    domain.Candidate
		want int
	}{
		{name: "top result without year", c: domain.Candidate{Title: "Your Name", Kind: "movie"}, want: 1},
		{name: "year match", c: domain.Candidate{Title: "Your Name", Year: "2016", Kind: "movie"}, want: 2},
		{name: "anime prefers animation", c: domain.Candidate{Title: "Your Name", Kind: "anime"}, want: 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := pickResult(results, tc.c); got.ID != tc.want {
				t.Fatalf("expected id %d, got %d", tc.want, got.ID)
			}
		})
	}
}

func TestRecommend_AnimePrefersAnimatedMovieOverLiveActionShow(t *testing.T) {
	mock := &llm.MockClient{Response: `{"recommendations": [{"title": "Your Name", "year": "2016", "type": "anime"}]}`}
	catalog := &fakeCatalog{
		config: testConfig,
		results: map[string][]tmdb.SearchResult{
			searchKey(domain.MediaKindTV, "Your Name"):    {{ID: 10, Name: "Your Name", FirstAirDate: "2020-01-01", OriginalLanguage: "en"}},
			searchKey(domain.MediaKindMovie, "Your Name"): {{ID: 372058, Title: "Your Name.", ReleaseDate: "2016-08-26", GenreIDs: []int{16}, PosterPath: "/yn.jpg"}},
		},
	}
	svc := NewRecommendationService(mock, catalog, nil)

	r := svc.Recommend(context.Background(), nil, nil)[0]
	if r.CatalogID != 372058 || r.MediaKind != domain.MediaKindMovie {
		t.Fatalf("expected the animated movie, got %+v", r)
	}
	if r.Resolution != domain.ResolutionSearch {
		t.Fatalf("expected search tier without details, got %s", r.Resolution)
	}
}

func TestRecommend_ConfigurationMemoizedOnlyOnSuccess(t *testing.T) {
	catalog := &fakeCatalog{
		config:     &tmdb.Configuration{Images: tmdb.ImagesConfig{SecureBaseURL: "https://img.example/", PosterSizes: []string{"w92", "w154"}}},
		configErrs: []error{errors.New("first call fails")},
	}
	svc := NewRecommendationService(nil, catalog, nil)

	first := svc.posterConfig(context.Background())
	if first.baseURL != defaultImageBaseURL || first.size != defaultPosterSize {
		t.Fatalf("expected default poster config, got %+v", first)
	}
	second := svc.posterConfig(context.Background())
	if second.baseURL != "https://img.example/" || second.size != "w154" {
		t.Fatalf("expected fetched config with last size, got %+v", second)
	}
	svc.posterConfig(context.Background())
	if catalog.configCalls != 2 {
		t.Fatalf("expected 2 configuration calls, got %d", catalog.configCalls)
	}
}

func TestParseCandidates(t *testing.T) {
	raw := `{"recommendations": [
		{"title": " Spirited Away ", "year": 2001, "type": "anime", "explanation": "Magic."},
		{"title": "", "year": "2000", "type": "movie"},
		{"title": "Heat", "year": null, "type": "movie"},
		{"title": "Ran", "year": "1985 ", "type": "movie"}
	]}`
	got, err := parseCandidates(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected blank title dropped, got %d", len(got))
	}
	if got[0].Title != "Spirited Away" || got[0].Year != "2001" {
		t.Fatalf("unexpected first candidate %+v", got[0])
	}
	if got[1].Year != "" || got[2].Year != "1985" {
		t.Fatalf("unexpected years %q %q", got[1].Year, got[2].Year)
	}

	if _, err := parseCandidates(`{"recommendations": [{"title": "  "}]}`); !errors.Is(err, errCandidatesMissing) {
		t.Fatalf("expected errCandidatesMissing, got %v", err)
	}
}

func TestRecommend_BlankTitlesKeepFallback(t *testing.T) {
	mock := &llm.MockClient{Response: `{"recommendations": [{"title": ""}]}`}
	svc := NewRecommendationService(mock, nil, nil)

	recs := svc.Recommend(context.Background(), nil, nil)
	if len(recs) != 3 || recs[0].Title != "Inception" {
		t.Fatalf("expected default fallback, got %+v", recs)
	}
}

func TestMediaKindFor(t *testing.T) {
	cases := map[string]domain.MediaKind{
		"show":    domain.MediaKindTV,
		"TV Show": domain.MediaKindTV,
		"tv":      domain.MediaKindTV,
		"Series":  domain.MediaKindTV,
		"ANIME":   domain.MediaKindTV,
		"movie":   domain.MediaKindMovie,
		"film":    domain.MediaKindMovie,
		"":        domain.MediaKindMovie,
	}
	for in, want := range cases {
		if got := MediaKindFor(in); got != want {
			t.Fatalf("MediaKindFor(%q) = %s, want %s", in, got, want)
		}
	}
}
