package tmdb

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"svomo/internal/domain"
	"svomo/internal/metrics"
)

// BreakerClient envuelve Client con un circuit breaker: si el catalogo esta caido
// las llamadas fallan rapido y el motor degrada a datos del candidato.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[any]
	logger *zap.Logger
}

// NewBreakerClient:
// - 1 minuto de ventana en estado cerrado
// - abre con >= 60% de fallos sobre al menos 10 requests
// - 30s abierto antes de pasar a half-open
func NewBreakerClient(client *Client, logger *zap.Logger) *BreakerClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.CatalogBreakerState.Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "tmdb-api",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// un 404 es una respuesta valida del catalogo, no una caida
			var se *StatusError
			if errors.As(err, &se) && se.StatusCode < 500 && se.StatusCode != 429 {
				return true
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("catalog breaker state change", zap.String("from", from.String()), zap.String("to", to.String()))
			metrics.CatalogBreakerState.Set(stateToFloat(to))
		},
	})

	return &BreakerClient{client: client, cb: cb, logger: logger}
}

func (b *BreakerClient) GetConfiguration(ctx context.Context) (*Configuration, error) {
	return execute[Configuration](b, "configuration", func() (any, error) {
		return b.client.GetConfiguration(ctx)
	})
}

func (b *BreakerClient) Search(ctx context.Context, title string, kind domain.MediaKind) ([]SearchResult, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.client.Search(ctx, title, kind)
	})
	if err != nil {
		b.observeRejection("search", err)
		return nil, err
	}
	results, _ := res.([]SearchResult)
	return results, nil
}

func (b *BreakerClient) GetDetails(ctx context.Context, id int, kind domain.MediaKind) (*Details, error) {
	return execute[Details](b, "details", func() (any, error) {
		return b.client.GetDetails(ctx, id, kind)
	})
}

// State expone el estado del breaker (para health checks).
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}

func execute[T any](b *BreakerClient, op string, fn func() (any, error)) (*T, error) {
	res, err := b.cb.Execute(fn)
	if err != nil {
		b.observeRejection(op, err)
		return nil, err
	}
	typed, ok := res.(*T)
	if !ok || typed == nil {
		return nil, errors.New("tmdb breaker: unexpected result type")
	}
	return typed, nil
}

func (b *BreakerClient) observeRejection(op string, err error) {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.CatalogRequests.WithLabelValues(op, metrics.OutcomeRejected).Inc()
		b.logger.Warn("catalog request rejected by breaker", zap.String("operation", op), zap.Error(err))
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
