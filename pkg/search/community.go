package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/retrievalworks/bankgraph/pkg/types"
	"github.com/retrievalworks/bankgraph/pkg/utils"
)

// communitySearch blends cosine similarity with community-structure signals.
// When no query term maps to a known community it degrades to plain vector
// search, byte for byte.
func (s *Searcher) communitySearch(ctx context.Context, query string, embedding []float32, weightOverride *float64, limit int) ([]*types.CandidateResult, error) {
	weight := s.scoring.CommunityWeight
	if weightOverride != nil {
		weight = *weightOverride
	}
	weight = clamp01(weight)

	communityIDs, err := s.matchedCommunities(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(communityIDs) == 0 {
		return s.vectorSearch(ctx, embedding, limit)
	}

	matches, err := s.store.ChunksByCommunities(ctx, communityIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("community search: %w", err)
	}

	matched := make(map[int]struct{}, len(communityIDs))
	for _, id := range communityIDs {
		matched[id] = struct{}{}
	}

	candidates := make([]*types.CandidateResult, 0, len(matches))
	for _, cwe := range matches {
		cos := utils.CosineSimilarity(embedding, cwe.Chunk.Embedding)

		communities := make(map[int]struct{})
		var centralitySum float64
		var centralityCount int
		for _, e := range cwe.Entities {
			if e.CommunityID == nil {
				continue
			}
			if _, ok := matched[*e.CommunityID]; !ok {
				continue
			}
			communities[*e.CommunityID] = struct{}{}
			if e.DegreeCentrality != nil {
				centralitySum += *e.DegreeCentrality
				centralityCount++
			}
		}

		coverage := float64(len(communities)) / float64(len(communityIDs))
		var avgCentrality float64
		if centralityCount > 0 {
			avgCentrality = centralitySum / float64(centralityCount)
		}

		score := cos*(1-weight) + (coverage*0.5+avgCentrality*0.5)*weight
		c := newCandidate(cwe.Chunk, score, types.SearchTypeCommunity)
		c.Entities = cwe.Entities
		c.Hydrated = true
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// matchedCommunities collects the community ids of entities whose surface form
// matches a query term.
func (s *Searcher) matchedCommunities(ctx context.Context, query string) ([]int, error) {
	terms, err := s.extractor.ExtractTerms(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("entity extraction: %w", err)
	}

	seen := make(map[int]struct{})
	ids := make([]int, 0)
	for _, term := range terms {
		entities, err := s.store.EntitiesMatchingTerm(ctx, term)
		if err != nil {
			return nil, fmt.Errorf("entity lookup %q: %w", term, err)
		}
		for _, e := range entities {
			if e.CommunityID == nil {
				continue
			}
			if _, ok := seen[*e.CommunityID]; ok {
				continue
			}
			seen[*e.CommunityID] = struct{}{}
			ids = append(ids, *e.CommunityID)
		}
	}
	return ids, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
