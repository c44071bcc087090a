package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/retrievalworks/bankgraph/pkg/types"
)

const (
	fullPhraseScore = 2.0
	wordMatchScore  = 1.0
)

// fullTextSearch finds chunks by literal text match. A full-phrase hit scores
// 2.0, any word hit 1.0; ties keep the store's scan order. This path never
// touches the embedder so it stays usable when the embedding model is down.
func (s *Searcher) fullTextSearch(ctx context.Context, query string, limit int) ([]*types.CandidateResult, error) {
	phrase := strings.ToLower(strings.TrimSpace(query))
	words := queryWords(query)

	chunks, err := s.store.ChunksByText(ctx, phrase, words, limit)
	if err != nil {
		return nil, fmt.Errorf("full-text search: %w", err)
	}

	candidates := make([]*types.CandidateResult, 0, len(chunks))
	for _, chunk := range chunks {
		score := wordMatchScore
		if strings.Contains(strings.ToLower(chunk.Text), phrase) {
			score = fullPhraseScore
		}
		candidates = append(candidates, newCandidate(chunk, score, types.SearchTypeFullText))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}
