package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/retrievalworks/bankgraph/pkg/types"
)

// entityCountWeight credits chunks that are entity-dense beyond the direct
// term matches.
const entityCountWeight = 0.1

// graphSearch extracts entity terms from the query and scores chunks by how
// many of their entities match. Results from all terms are pooled, sorted and
// deduplicated by chunk id keeping the best-scoring occurrence.
func (s *Searcher) graphSearch(ctx context.Context, query string, limit int) ([]*types.CandidateResult, error) {
	terms, err := s.extractor.ExtractTerms(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("entity extraction: %w", err)
	}
	if len(terms) == 0 {
		return nil, nil
	}

	pooled := make([]*types.CandidateResult, 0)
	for _, term := range terms {
		matches, err := s.store.ChunksByEntityTerm(ctx, term, limit)
		if err != nil {
			return nil, fmt.Errorf("entity term %q: %w", term, err)
		}
		needle := strings.ToLower(term)
		for _, cwe := range matches {
			matched := 0
			for _, e := range cwe.Entities {
				if strings.Contains(strings.ToLower(e.Text), needle) {
					matched++
				}
			}
			score := float64(matched) + entityCountWeight*float64(len(cwe.Entities))
			c := newCandidate(cwe.Chunk, score, types.SearchTypeGraph)
			c.Entities = cwe.Entities
			c.Hydrated = true
			pooled = append(pooled, c)
		}
	}

	// Full descending sort first so dedup keeps each chunk's best score.
	sort.SliceStable(pooled, func(i, j int) bool { return pooled[i].Score > pooled[j].Score })

	seen := make(map[string]struct{}, len(pooled))
	deduped := make([]*types.CandidateResult, 0, len(pooled))
	for _, c := range pooled {
		if _, ok := seen[c.ChunkID]; ok {
			continue
		}
		seen[c.ChunkID] = struct{}{}
		deduped = append(deduped, c)
	}

	if len(deduped) > limit {
		deduped = deduped[:limit]
	}
	return deduped, nil
}
