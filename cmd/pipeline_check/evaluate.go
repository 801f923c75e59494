package main

import (
	"fmt"
	"strings"

	"svomo/internal/domain"
	"svomo/internal/service"
)

// Report es el resultado de evaluar un escenario.
type Report struct {
	Scenario string
	Results  int
	Resolved int
	Failures []string
}

func (r Report) Passed() bool {
	return len(r.Failures) == 0
}

var animeFallbackTitles = map[string]bool{
	"my hero academia": true,
	"your name":        true,
	"attack on titan":  true,
}

// evaluate revisa las recomendaciones contra lo esperado; no hace I/O.
func evaluate(sc Scenario, recs []domain.Recommendation) Report {
	rep := Report{Scenario: sc.Name, Results: len(recs)}

	if len(recs) > 3 {
		rep.Failures = append(rep.Failures, fmt.Sprintf("expected at most 3 results, got %d", len(recs)))
	}
	if sc.Expect.MinResults > 0 && len(recs) < sc.Expect.MinResults {
		rep.Failures = append(rep.Failures, fmt.Sprintf("expected at least %d results, got %d", sc.Expect.MinResults, len(recs)))
	}

	animeHits := 0
	for i, r := range recs {
		if r.Resolved() {
			rep.Resolved++
		}
		if strings.TrimSpace(r.Title) == "" {
			rep.Failures = append(rep.Failures, fmt.Sprintf("result %d has no title", i+1))
		}
		if r.PosterURL == "" {
			rep.Failures = append(rep.Failures, fmt.Sprintf("%q has an empty poster url", r.Title))
		}
		if sc.Expect.RequirePosters && r.PosterURL == service.PlaceholderPosterURL {
			rep.Failures = append(rep.Failures, fmt.Sprintf("%q uses the placeholder poster", r.Title))
		}
		if len(r.Genres) == 0 {
			rep.Failures = append(rep.Failures, fmt.Sprintf("%q has no genres", r.Title))
		}
		if r.MediaKind != domain.MediaKindMovie && r.MediaKind != domain.MediaKindTV {
			rep.Failures = append(rep.Failures, fmt.Sprintf("%q has unknown media kind %q", r.Title, r.MediaKind))
		}
		if looksAnime(r) {
			animeHits++
		}
	}

	if sc.Expect.RequireCatalog && rep.Resolved < len(recs) {
		rep.Failures = append(rep.Failures, fmt.Sprintf("only %d/%d results resolved in the catalog", rep.Resolved, len(recs)))
	}
	if sc.Expect.Anime && len(recs) > 0 && animeHits == 0 {
		rep.Failures = append(rep.Failures, "expected anime-flavored results")
	}
	return rep
}

func looksAnime(r domain.Recommendation) bool {
	if animeFallbackTitles[strings.ToLower(strings.TrimRight(r.Title, "."))] {
		return true
	}
	for _, g := range r.Genres {
		if strings.EqualFold(g, "Animation") {
			return true
		}
	}
	return strings.Contains(strings.ToLower(r.Rationale), "anime")
}
