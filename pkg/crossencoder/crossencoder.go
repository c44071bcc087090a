// Package crossencoder provides pairwise relevance scoring between a query
// and candidate passages.
//
// Cross-encoders process (query, passage) pairs jointly, which ranks better
// than bi-encoder similarity at higher inference cost. Scores are a relative
// ranking signal, not probabilities: the engine must not assume a fixed
// range. When scoring fails, callers substitute NeutralScore for every
// candidate so retrieval results are still returned and reranking degrades
// to a no-op on the cross-encoder component.
package crossencoder

import (
	"context"
	"fmt"
)

// NeutralScore is substituted for every candidate when the cross-encoder is
// unavailable or fails mid-request.
const NeutralScore = 0.5

// Client scores candidate passages against a query.
type Client interface {
	// Score returns one relevance score per passage, in input order.
	Score(ctx context.Context, query string, passages []string) ([]float64, error)

	// Close cleans up any resources used by the client.
	Close() error
}

// Config holds common cross-encoder configuration.
type Config struct {
	Model          string `json:"model"`
	BatchSize      int    `json:"batch_size"`
	MaxConcurrency int    `json:"max_concurrency"`
	APIKey         string `json:"-"`
	BaseURL        string `json:"base_url,omitempty"`
}

// Provider represents the type of cross-encoder provider.
type Provider string

const (
	// ProviderEmbedEverything runs a local ONNX reranker model.
	ProviderEmbedEverything Provider = "embedeverything"

	// ProviderOpenAI scores passages with a boolean relevance prompt.
	ProviderOpenAI Provider = "openai"

	// ProviderMock is a deterministic implementation for testing.
	ProviderMock Provider = "mock"
)

// NewClient creates a cross-encoder client for the given provider.
func NewClient(provider Provider, config Config) (Client, error) {
	switch provider {
	case ProviderEmbedEverything:
		return NewEmbedEverythingClient(config)
	case ProviderOpenAI:
		return NewOpenAIClient(config)
	case ProviderMock:
		return NewMockClient(config), nil
	default:
		return nil, fmt.Errorf("unsupported cross-encoder provider: %s", provider)
	}
}

// DefaultConfig returns a default configuration for the given provider.
func DefaultConfig(provider Provider) Config {
	switch provider {
	case ProviderEmbedEverything:
		return Config{
			Model:          "BAAI/bge-reranker-base",
			BatchSize:      100,
			MaxConcurrency: 1, // local inference is single-threaded
		}
	case ProviderOpenAI:
		return Config{
			Model:          "gpt-4o-mini",
			BatchSize:      10,
			MaxConcurrency: 5,
		}
	case ProviderMock:
		return Config{BatchSize: 100}
	default:
		return Config{}
	}
}
