package crossencoder

import (
	"context"
	"hash/fnv"
	"strings"
)

// MockClient is a deterministic cross-encoder for testing. Scores blend word
// overlap with a content hash so results are consistent but varied.
type MockClient struct {
	config Config

	// FailAll makes every Score call return an error, for exercising the
	// neutral-score degradation path.
	FailAll bool

	// FixedScores, when non-nil, is returned verbatim (truncated or padded
	// with NeutralScore to the passage count).
	FixedScores []float64
}

// NewMockClient creates a deterministic mock cross-encoder.
func NewMockClient(config Config) *MockClient {
	return &MockClient{config: config}
}

// Score returns one deterministic score per passage, in input order.
func (m *MockClient) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	if m.FailAll {
		return nil, context.DeadlineExceeded
	}

	scores := make([]float64, len(passages))
	if m.FixedScores != nil {
		for i := range scores {
			if i < len(m.FixedScores) {
				scores[i] = m.FixedScores[i]
			} else {
				scores[i] = NeutralScore
			}
		}
		return scores, nil
	}

	queryWords := strings.Fields(strings.ToLower(query))
	for i, passage := range passages {
		text := strings.ToLower(passage)
		overlap := 0
		for _, w := range queryWords {
			if strings.Contains(text, w) {
				overlap++
			}
		}

		base := 0.0
		if len(queryWords) > 0 {
			base = float64(overlap) / float64(len(queryWords))
		}

		// Small hash jitter keeps equal-overlap passages distinguishable
		// without breaking determinism.
		h := fnv.New32a()
		h.Write([]byte(passage))
		jitter := float64(h.Sum32()%100) / 1000.0

		scores[i] = 0.1 + base*0.8 + jitter
	}
	return scores, nil
}

// Close cleans up any resources.
func (m *MockClient) Close() error {
	return nil
}
