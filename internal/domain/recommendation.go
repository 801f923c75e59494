package domain

// MediaKind es el tipo de medio en el catalogo.
type MediaKind string

const (
	MediaKindMovie MediaKind = "movie"
	MediaKindTV    MediaKind = "tv"
)

// Resolution indica con que fidelidad se resolvio un candidato contra el catalogo.
type Resolution string

const (
	ResolutionDetails   Resolution = "details"
	ResolutionSearch    Resolution = "search"
	ResolutionCandidate Resolution = "candidate"
)

// Candidate es un titulo propuesto por el modelo, todavia sin resolver.
type Candidate struct {
	Title     string `json:"title"`
	Year      string `json:"year,omitempty"`
	Kind      string `json:"type"`
	Rationale string `json:"explanation"`
}

// Recommendation es un candidato enriquecido con datos del catalogo (o degradado).
type Recommendation struct {
	CatalogID  int        `json:"catalog_id"`
	Title      string     `json:"title"`
	Year       string     `json:"year"`
	Overview   string     `json:"overview"`
	PosterURL  string     `json:"poster_url"`
	Rationale  string     `json:"explanation"`
	MediaKind  MediaKind  `json:"media_type"`
	Genres     []string   `json:"genres"`
	Resolution Resolution `json:"resolution"`
}

// Resolved indica si la recomendacion quedo vinculada a un titulo del catalogo.
func (r Recommendation) Resolved() bool {
	return r.CatalogID != 0
}
