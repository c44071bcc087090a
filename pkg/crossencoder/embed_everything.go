package crossencoder

import (
	"context"
	"fmt"

	"github.com/soundprediction/go-embedeverything/pkg/embedder"
)

// EmbedEverythingClient implements the Client interface with a local
// EmbedEverything reranker model. The model is loaded once at construction
// and safe for concurrent calls.
type EmbedEverythingClient struct {
	reranker *embedder.Reranker
	config   Config
}

// NewEmbedEverythingClient creates a new EmbedEverything reranker client.
func NewEmbedEverythingClient(config Config) (*EmbedEverythingClient, error) {
	if config.Model == "" {
		config.Model = DefaultConfig(ProviderEmbedEverything).Model
	}

	reranker, err := embedder.NewReranker(config.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to create reranker: %w", err)
	}

	return &EmbedEverythingClient{
		reranker: reranker,
		config:   config,
	}, nil
}

// Score returns one relevance score per passage, in input order.
func (e *EmbedEverythingClient) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return []float64{}, nil
	}

	// go-embedeverything does not support context yet
	results, err := e.reranker.Rerank(query, passages)
	if err != nil {
		return nil, fmt.Errorf("failed to rerank passages: %w", err)
	}
	if len(results) != len(passages) {
		return nil, fmt.Errorf("expected %d scores, got %d", len(passages), len(results))
	}

	scores := make([]float64, len(results))
	for i, result := range results {
		scores[i] = float64(result.Score)
	}
	return scores, nil
}

// Close cleans up any resources.
func (e *EmbedEverythingClient) Close() error {
	e.reranker.Close()
	return nil
}
