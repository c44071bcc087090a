package search

import (
	"context"
	"fmt"

	"github.com/retrievalworks/bankgraph/pkg/types"
)

// vectorSearch ranks chunks by cosine similarity against the query embedding.
// The store returns results already sorted descending; ties keep scan order.
func (s *Searcher) vectorSearch(ctx context.Context, embedding []float32, limit int) ([]*types.CandidateResult, error) {
	scored, err := s.store.SearchChunksByVector(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	candidates := make([]*types.CandidateResult, 0, len(scored))
	for _, sc := range scored {
		candidates = append(candidates, newCandidate(sc.Chunk, sc.Score, types.SearchTypeVector))
	}
	return candidates, nil
}
