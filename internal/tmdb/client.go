package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"svomo/internal/domain"
	"svomo/internal/metrics"
)

const DefaultBaseURL = "https://api.themoviedb.org/3"

// StatusError representa una respuesta no-200 del catalogo.
type StatusError struct {
	Operation  string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb %s: status=%d", e.Operation, e.StatusCode)
}

var ErrInvalidKind = errors.New("tmdb: invalid media kind")

// Client habla con la API v3 de TMDB usando un token de lectura (Bearer).
type Client struct {
	baseURL  string
	token    string
	language string
	http     *http.Client
	limiter  *rate.Limiter
	logger   *zap.Logger
}

type Options struct {
	BaseURL           string
	Token             string
	Language          string
	Timeout           time.Duration
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

func NewClient(opts Options, logger *zap.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Language == "" {
		opts.Language = "en-US"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		token:    opts.Token,
		language: opts.Language,
		http:     httpClient,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
	}
}

// GetConfiguration obtiene la base de imagenes y los tamaños de poster.
func (c *Client) GetConfiguration(ctx context.Context) (*Configuration, error) {
	var cfg Configuration
	if err := c.get(ctx, "configuration", "/configuration", nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Search busca titulos por nombre en movie o tv.
func (c *Client) Search(ctx context.Context, title string, kind domain.MediaKind) ([]SearchResult, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("query", title)
	params.Set("include_adult", "false")
	params.Set("language", c.language)
	params.Set("page", "1")

	var resp searchResponse
	if err := c.get(ctx, "search", "/search/"+string(kind), params, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// GetDetails obtiene el detalle completo de un titulo.
func (c *Client) GetDetails(ctx context.Context, id int, kind domain.MediaKind) (*Details, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("language", c.language)

	var d Details
	if err := c.get(ctx, "details", "/"+string(kind)+"/"+strconv.Itoa(id), params, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) get(ctx context.Context, op, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		metrics.CatalogRequests.WithLabelValues(op, metrics.OutcomeError).Inc()
		return fmt.Errorf("tmdb %s: rate limit wait: %w", op, err)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("tmdb %s: create request: %w", op, err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.CatalogRequests.WithLabelValues(op, metrics.OutcomeError).Inc()
		return fmt.Errorf("tmdb %s: do request: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.CatalogRequests.WithLabelValues(op, metrics.OutcomeError).Inc()
		return fmt.Errorf("tmdb %s: read response: %w", op, err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.CatalogRequests.WithLabelValues(op, metrics.OutcomeError).Inc()
		c.logger.Warn("tmdb request failed",
			zap.String("operation", op),
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(body), 256)),
		)
		return &StatusError{Operation: op, StatusCode: resp.StatusCode}
	}

	if err := json.Unmarshal(body, out); err != nil {
		metrics.CatalogRequests.WithLabelValues(op, metrics.OutcomeInvalid).Inc()
		return fmt.Errorf("tmdb %s: decode response: %w", op, err)
	}
	metrics.CatalogRequests.WithLabelValues(op, metrics.OutcomeOK).Inc()
	return nil
}

func validKind(kind domain.MediaKind) error {
	switch kind {
	case domain.MediaKindMovie, domain.MediaKindTV:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
