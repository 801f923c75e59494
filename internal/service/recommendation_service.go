package service

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"svomo/internal/domain"
	"svomo/internal/llm"
	"svomo/internal/metrics"
	"svomo/internal/tmdb"
)

const (
	PlaceholderPosterURL = "https://via.placeholder.com/300x450?text=No+Image+Available"
	OverviewUnavailable  = "Overview not available."
	CandidateOverview    = "Overview not available, but this looks like a great match for you."
	GenreUnknown         = "N/A"

	defaultImageBaseURL = "https://image.tmdb.org/t/p/"
	defaultPosterSize   = "w342"
	mediumPosterIndex   = 3
)

var errCandidatesMissing = errors.New("recommendations key missing or empty")

var yearPattern = regexp.MustCompile(`\d{4}`)

var defaultFallbackCandidates = []domain.Candidate{
	{
		Title:     "Inception",
		Year:      "2010",
		Kind:      "movie",
		Rationale: "A mind-bending heist thriller with big ideas and spectacular action, easy to enjoy in one sitting.",
	},
	{
		Title:     "The Grand Budapest Hotel",
		Year:      "2014",
		Kind:      "movie",
		Rationale: "A witty, colorful comedy-adventure that works for almost any mood or company.",
	},
	{
		Title:     "Breaking Bad",
		Year:      "2008",
		Kind:      "show",
		Rationale: "A gripping crime drama to get hooked on if you have time for a series.",
	},
}

var animeFallbackCandidates = []domain.Candidate{
	{
		Title:     "My Hero Academia",
		Year:      "2016",
		Kind:      "anime",
		Rationale: "High-energy superhero action with a big heart, perfect to binge.",
	},
	{
		Title:     "Your Name",
		Year:      "2016",
		Kind:      "anime",
		Rationale: "A beautiful, emotional anime film about connection across time and distance.",
	},
	{
		Title:     "Attack on Titan",
		Year:      "2013",
		Kind:      "anime",
		Rationale: "Intense, twisty dark fantasy with some of the most thrilling action in anime.",
	},
}

// MetadataCatalog es el contrato del catalogo de metadatos. Un error equivale a "sin resultado".
type MetadataCatalog interface {
	GetConfiguration(ctx context.Context) (*tmdb.Configuration, error)
	Search(ctx context.Context, title string, kind domain.MediaKind) ([]tmdb.SearchResult, error)
	GetDetails(ctx context.Context, id int, kind domain.MediaKind) (*tmdb.Details, error)
}

// RecommendationService propone 3 titulos con el LLM y los resuelve contra el catalogo.
type RecommendationService struct {
	llmClient llm.LLMClient
	catalog   MetadataCatalog
	prompts   PromptBuilder
	logger    *zap.Logger

	mu     sync.Mutex
	poster *posterConfig
}

type posterConfig struct {
	baseURL string
	size    string
}

func NewRecommendationService(llmClient llm.LLMClient, catalog MetadataCatalog, logger *zap.Logger) *RecommendationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecommendationService{
		llmClient: llmClient,
		catalog:   catalog,
		prompts:   DefaultPromptBuilder,
		logger:    logger,
	}
}

// Recommend devuelve las recomendaciones resueltas en el orden de los candidatos.
// Las fallas externas degradan cada item, nunca abortan el lote.
func (s *RecommendationService) Recommend(ctx context.Context, persona, mood domain.AnswerSet) []domain.Recommendation {
	candidates := s.Candidates(ctx, persona, mood)
	if len(candidates) == 0 {
		return []domain.Recommendation{}
	}

	poster := s.posterConfig(ctx)
	out := make([]domain.Recommendation, 0, len(candidates))
	for _, c := range candidates {
		rec := s.resolve(ctx, c, poster)
		metrics.RecommendationsResolved.WithLabelValues(string(rec.Resolution)).Inc()
		out = append(out, rec)
	}
	return out
}

// Candidates devuelve los candidatos del modelo o, si falla, el trio de fallback.
func (s *RecommendationService) Candidates(ctx context.Context, persona, mood domain.AnswerSet) []domain.Candidate {
	result := FallbackCandidates(persona)

	if s.llmClient == nil {
		metrics.LLMGenerations.WithLabelValues("recommendations", metrics.OutcomeUnavailable).Inc()
		return result
	}

	raw, err := s.llmClient.Generate(ctx, s.prompts.Recommendations(persona, mood))
	if err != nil || strings.TrimSpace(raw) == "" {
		metrics.LLMGenerations.WithLabelValues("recommendations", metrics.OutcomeUnavailable).Inc()
		s.logger.Warn("recommendation generation unavailable, using fallback", zap.Error(err))
		return result
	}

	parsed, err := parseCandidates(raw)
	if err != nil {
		metrics.LLMGenerations.WithLabelValues("recommendations", metrics.OutcomeInvalid).Inc()
		s.logger.Warn("generated recommendations rejected, using fallback", zap.Error(err))
		return result
	}
	metrics.LLMGenerations.WithLabelValues("recommendations", metrics.OutcomeOK).Inc()
	return parsed
}

// FallbackCandidates elige el trio fijo segun la preferencia anime de la persona.
func FallbackCandidates(persona domain.AnswerSet) []domain.Candidate {
	src := defaultFallbackCandidates
	if PrefersAnime(persona) {
		src = animeFallbackCandidates
	}
	return append([]domain.Candidate(nil), src...)
}

// PrefersAnime indica si la respuesta de tipo de contenido menciona anime.
func PrefersAnime(persona domain.AnswerSet) bool {
	v, ok := contentTypeAnswer(persona)
	return ok && strings.Contains(strings.ToLower(v), "anime")
}

// MediaKindFor mapea el type del modelo al tipo del catalogo.
func MediaKindFor(kind string) domain.MediaKind {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "show", "tv show", "tv", "series", "anime":
		return domain.MediaKindTV
	default:
		return domain.MediaKindMovie
	}
}

type candidatesEnvelope struct {
	Recommendations []generatedCandidate `json:"recommendations"`
}

type generatedCandidate struct {
	Title       string          `json:"title"`
	Year        json.RawMessage `json:"year"`
	Type        string          `json:"type"`
	Explanation string          `json:"explanation"`
}

func parseCandidates(raw string) ([]domain.Candidate, error) {
	var env candidatesEnvelope
	if err := decodeJSONObject(raw, &env); err != nil {
		return nil, err
	}
	out := make([]domain.Candidate, 0, len(env.Recommendations))
	for _, g := range env.Recommendations {
		title := strings.TrimSpace(g.Title)
		if title == "" {
			continue
		}
		out = append(out, domain.Candidate{
			Title:     title,
			Year:      normalizeYear(g.Year),
			Kind:      strings.TrimSpace(g.Type),
			Rationale: strings.TrimSpace(g.Explanation),
		})
	}
	if len(out) == 0 {
		return nil, errCandidatesMissing
	}
	return out, nil
}

// normalizeYear acepta "2016", 2016 o null.
func normalizeYear(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if strings.EqualFold(s, "null") || strings.EqualFold(s, "unknown") || strings.EqualFold(s, "n/a") {
			return ""
		}
		return s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil && n > 0 {
		return strconv.Itoa(int(n))
	}
	return ""
}

func (s *RecommendationService) resolve(ctx context.Context, c domain.Candidate, poster posterConfig) domain.Recommendation {
	kind := MediaKindFor(c.Kind)
	if s.catalog == nil {
		return candidateRecommendation(c, kind)
	}

	hit, hitKind, ok := s.search(ctx, c, kind)
	if !ok {
		s.logger.Warn("title not found in catalog", zap.String("title", c.Title), zap.String("kind", string(kind)))
		return candidateRecommendation(c, kind)
	}

	details, err := s.catalog.GetDetails(ctx, hit.ID, hitKind)
	if err != nil || details == nil {
		s.logger.Warn("catalog details unavailable, using search result",
			zap.String("title", c.Title), zap.Int("catalog_id", hit.ID), zap.Error(err))
		return searchRecommendation(c, hit, hitKind, poster)
	}
	return detailsRecommendation(c, hit.ID, details, hitKind, poster)
}

// search hace la busqueda con un unico reintento tv -> movie. Para anime tambien reintenta
// cuando tv solo trae live-action, y se queda con movie solo si ahi aparece animacion.
func (s *RecommendationService) search(ctx context.Context, c domain.Candidate, kind domain.MediaKind) (tmdb.SearchResult, domain.MediaKind, bool) {
	anime := isAnimeCandidate(c)

	results, err := s.catalog.Search(ctx, c.Title, kind)
	if err != nil {
		s.logger.Warn("catalog search failed", zap.String("title", c.Title), zap.String("kind", string(kind)), zap.Error(err))
	}

	if kind == domain.MediaKindTV && (len(results) == 0 || (anime && !hasAnimeResult(results))) {
		movieResults, err := s.catalog.Search(ctx, c.Title, domain.MediaKindMovie)
		if err != nil {
			s.logger.Warn("catalog movie retry failed", zap.String("title", c.Title), zap.Error(err))
		}
		if len(movieResults) > 0 && (len(results) == 0 || hasAnimeResult(movieResults)) {
			return pickResult(movieResults, c), domain.MediaKindMovie, true
		}
	}

	if len(results) == 0 {
		return tmdb.SearchResult{}, "", false
	}
	return pickResult(results, c), kind, true
}

// pickResult desambigua entre resultados: anime primero (si aplica) y luego año.
func pickResult(results []tmdb.SearchResult, c domain.Candidate) tmdb.SearchResult {
	pool := results
	if isAnimeCandidate(c) {
		var animated []tmdb.SearchResult
		for _, r := range results {
			if looksLikeAnime(r) {
				animated = append(animated, r)
			}
		}
		if len(animated) > 0 {
			pool = animated
		}
	}
	if y := yearOf(c.Year); y != "" {
		for _, r := range pool {
			if strings.HasPrefix(r.Date(), y) {
				return r
			}
		}
	}
	return pool[0]
}

func isAnimeCandidate(c domain.Candidate) bool {
	return strings.EqualFold(strings.TrimSpace(c.Kind), "anime")
}

func looksLikeAnime(r tmdb.SearchResult) bool {
	for _, g := range r.GenreIDs {
		if g == tmdb.GenreAnimation {
			return true
		}
	}
	return r.OriginalLanguage == "ja"
}

func hasAnimeResult(results []tmdb.SearchResult) bool {
	for _, r := range results {
		if looksLikeAnime(r) {
			return true
		}
	}
	return false
}

func detailsRecommendation(c domain.Candidate, id int, d *tmdb.Details, kind domain.MediaKind, poster posterConfig) domain.Recommendation {
	genres := d.GenreNames()
	if len(genres) == 0 {
		genres = []string{GenreUnknown}
	}
	return domain.Recommendation{
		CatalogID:  id,
		Title:      firstNonEmpty(d.Title, d.Name, c.Title),
		Year:       yearOf(firstNonEmpty(d.Date(), c.Year)),
		Overview:   firstNonEmpty(strings.TrimSpace(d.Overview), OverviewUnavailable),
		PosterURL:  poster.url(d.PosterPath),
		Rationale:  c.Rationale,
		MediaKind:  kind,
		Genres:     genres,
		Resolution: domain.ResolutionDetails,
	}
}

func searchRecommendation(c domain.Candidate, r tmdb.SearchResult, kind domain.MediaKind, poster posterConfig) domain.Recommendation {
	return domain.Recommendation{
		CatalogID:  r.ID,
		Title:      firstNonEmpty(r.Title, r.Name, c.Title),
		Year:       yearOf(firstNonEmpty(r.Date(), c.Year)),
		Overview:   firstNonEmpty(strings.TrimSpace(r.Overview), OverviewUnavailable),
		PosterURL:  poster.url(r.PosterPath),
		Rationale:  c.Rationale,
		MediaKind:  kind,
		Genres:     []string{GenreUnknown},
		Resolution: domain.ResolutionSearch,
	}
}

func candidateRecommendation(c domain.Candidate, kind domain.MediaKind) domain.Recommendation {
	return domain.Recommendation{
		CatalogID:  0,
		Title:      c.Title,
		Year:       yearOf(c.Year),
		Overview:   CandidateOverview,
		PosterURL:  PlaceholderPosterURL,
		Rationale:  c.Rationale,
		MediaKind:  kind,
		Genres:     []string{GenreUnknown},
		Resolution: domain.ResolutionCandidate,
	}
}

// posterConfig se pide una vez y se memoriza solo si la respuesta sirve.
func (s *RecommendationService) posterConfig(ctx context.Context) posterConfig {
	def := posterConfig{baseURL: defaultImageBaseURL, size: defaultPosterSize}
	if s.catalog == nil {
		return def
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poster != nil {
		return *s.poster
	}

	cfg, err := s.catalog.GetConfiguration(ctx)
	if err != nil || cfg == nil || cfg.Images.SecureBaseURL == "" {
		s.logger.Warn("catalog configuration unavailable, using default image base", zap.Error(err))
		return def
	}
	pc := posterConfig{baseURL: cfg.Images.SecureBaseURL, size: pickPosterSize(cfg.Images.PosterSizes)}
	s.poster = &pc
	return pc
}

func pickPosterSize(sizes []string) string {
	if len(sizes) > mediumPosterIndex {
		return sizes[mediumPosterIndex]
	}
	if len(sizes) > 0 {
		return sizes[len(sizes)-1]
	}
	return defaultPosterSize
}

func (p posterConfig) url(path string) string {
	if strings.TrimSpace(path) == "" {
		return PlaceholderPosterURL
	}
	return p.baseURL + p.size + path
}

func yearOf(s string) string {
	return yearPattern.FindString(s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
