// Package embedder provides text embedding clients for vector representations.
//
// The engine requires unit-length vectors so that dot product equals cosine
// similarity; the Normalized wrapper enforces this regardless of provider.
// If the underlying model cannot be loaded this is a fatal startup error;
// there is no fallback, and vector, hybrid and community searches cannot run
// without it. Full-text search has no embedding dependency.
package embedder

import (
	"context"
	"fmt"
	"math"
)

// Client generates dense vector embeddings for text.
type Client interface {
	// Embed generates embeddings for the given texts, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle generates an embedding for a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding dimensionality.
	Dimensions() int

	// Close cleans up any resources used by the client.
	Close() error
}

// Config holds common embedder configuration.
type Config struct {
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions"`
	BatchSize  int    `json:"batch_size"`
	APIKey     string `json:"-"`
	BaseURL    string `json:"base_url,omitempty"`
}

// Provider represents the type of embedding provider.
type Provider string

const (
	// ProviderEmbedEverything runs a local ONNX sentence model.
	ProviderEmbedEverything Provider = "embedeverything"

	// ProviderOpenAI uses the OpenAI embeddings API.
	ProviderOpenAI Provider = "openai"
)

// NewClient creates an embedding client for the given provider and wraps it
// so every returned vector is L2-normalized.
func NewClient(provider Provider, config Config) (Client, error) {
	var (
		inner Client
		err   error
	)

	switch provider {
	case ProviderEmbedEverything:
		inner, err = NewEmbedEverythingClient(config)
	case ProviderOpenAI:
		inner, err = NewOpenAIClient(config)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
	if err != nil {
		return nil, err
	}

	return NewNormalized(inner), nil
}

// Normalized wraps a Client and L2-normalizes every vector it returns.
type Normalized struct {
	inner Client
}

// NewNormalized wraps an embedding client with unit-length normalization.
func NewNormalized(inner Client) *Normalized {
	return &Normalized{inner: inner}
}

// Embed implements Client.
func (n *Normalized) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := n.inner.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	for _, v := range vectors {
		NormalizeInPlace(v)
	}
	return vectors, nil
}

// EmbedSingle implements Client.
func (n *Normalized) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vector, err := n.inner.EmbedSingle(ctx, text)
	if err != nil {
		return nil, err
	}
	NormalizeInPlace(vector)
	return vector, nil
}

// Dimensions implements Client.
func (n *Normalized) Dimensions() int { return n.inner.Dimensions() }

// Close implements Client.
func (n *Normalized) Close() error { return n.inner.Close() }

// NormalizeInPlace scales the vector to unit length. Zero vectors are left
// untouched.
func NormalizeInPlace(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}
