package crossencoder

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/retrievalworks/bankgraph/pkg/config"
)

// BreakerClient wraps a Client with circuit breaking. Once the underlying
// model fails often enough the breaker opens and calls fail immediately,
// which keeps reranking degradation (callers substitute NeutralScore) cheap
// instead of waiting out timeouts on every request.
type BreakerClient struct {
	client Client
	cb     *gobreaker.CircuitBreaker
	logger *slog.Logger
}

// NewBreakerClient creates a circuit-breaking cross-encoder wrapper.
func NewBreakerClient(client Client, cfg config.CircuitBreakerConfig, logger *slog.Logger, name string) *BreakerClient {
	if logger == nil {
		logger = slog.Default()
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.ReadyToTripRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("cross-encoder circuit breaker state change",
				"name", name, "from", from.String(), "to", to.String())
		},
	}

	return &BreakerClient{
		client: client,
		cb:     gobreaker.NewCircuitBreaker(st),
		logger: logger,
	}
}

// Score implements Client.
func (c *BreakerClient) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.Score(ctx, query, passages)
	})
	if err != nil {
		return nil, err
	}
	return result.([]float64), nil
}

// Close implements Client.
func (c *BreakerClient) Close() error {
	return c.client.Close()
}
