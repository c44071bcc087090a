package search

import (
	"context"
	"sort"
	"strings"

	"github.com/retrievalworks/bankgraph/pkg/types"
	"github.com/retrievalworks/bankgraph/pkg/utils"
)

// polarityWords are the answer-bearing words a question boost looks for.
var polarityWords = []string{"yes", "no", "can", "will", "must"}

// hybridSearch fans out to the vector, graph and full-text retrievers
// concurrently, fuses their lists by rank-based weighting and applies the
// rule boosts. A failed sub-strategy contributes zero results; only all three
// failing fails the search.
func (s *Searcher) hybridSearch(ctx context.Context, query string, embedding []float32, weights *Weights, limit int) ([]*types.CandidateResult, error) {
	w := Weights{
		Vector:   s.scoring.VectorWeight,
		Graph:    s.scoring.GraphWeight,
		FullText: s.scoring.FullTextWeight,
	}
	if weights != nil {
		w = *weights
	}

	lists, errs := utils.ExecuteWithResults(ctx, s.maxConcurrency,
		func() ([]*types.CandidateResult, error) { return s.vectorSearch(ctx, embedding, limit) },
		func() ([]*types.CandidateResult, error) { return s.graphSearch(ctx, query, limit) },
		func() ([]*types.CandidateResult, error) { return s.fullTextSearch(ctx, query, limit) },
	)

	names := []string{"vector", "graph", "full_text"}
	failures := 0
	for i, err := range errs {
		if err != nil {
			failures++
			lists[i] = nil
			s.logger.Warn("hybrid sub-strategy failed", "strategy", names[i], "error", err)
		}
	}
	if failures == len(errs) {
		return nil, ErrAllStrategiesFailed
	}

	combined := s.combine(lists[0], lists[1], lists[2], w)
	s.applyBoosts(query, combined)

	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].Score > combined[j].Score
	})
	if len(combined) > limit {
		combined = combined[:limit]
	}
	return combined, nil
}

// combine fuses the three lists by rank position, not raw score, since raw
// scales are incomparable across strategies. A chunk at 0-based rank i in a
// list of n contributes (1 - i/n) * weight; contributions sum across lists.
func (s *Searcher) combine(vector, graph, fullText []*types.CandidateResult, w Weights) []*types.CandidateResult {
	scores := make(map[string]float64)
	merged := make(map[string]*types.CandidateResult)
	order := make([]string, 0)

	accumulate := func(list []*types.CandidateResult, weight float64) {
		n := float64(len(list))
		for i, c := range list {
			rankScore := (1 - float64(i)/n) * weight
			scores[c.ChunkID] += rankScore
			if existing, ok := merged[c.ChunkID]; ok {
				// Keep the richest representative.
				if !existing.Hydrated && c.Hydrated {
					existing.Entities = c.Entities
					existing.Hydrated = true
				}
				continue
			}
			merged[c.ChunkID] = c
			order = append(order, c.ChunkID)
		}
	}

	accumulate(vector, w.Vector)
	accumulate(graph, w.Graph)
	accumulate(fullText, w.FullText)

	combined := make([]*types.CandidateResult, 0, len(order))
	for _, id := range order {
		c := merged[id]
		c.Score = scores[id]
		c.SearchType = types.SearchTypeHybrid
		combined = append(combined, c)
	}
	return combined
}

// applyBoosts multiplies fused scores by the rule boosts, in order: exact
// query substring, question polarity, then shared domain terms.
func (s *Searcher) applyBoosts(query string, candidates []*types.CandidateResult) {
	lowerQuery := strings.ToLower(query)
	isQuestion := strings.Contains(query, "?")
	queryTerms := s.analyzer.Lexicon().MatchFinancialTerms(lowerQuery)

	for _, c := range candidates {
		lowerText := strings.ToLower(c.Text)

		if strings.Contains(lowerText, lowerQuery) {
			c.Score *= s.scoring.ExactMatchBoost
		}

		if isQuestion {
			for _, word := range polarityWords {
				if strings.Contains(lowerText, word) {
					c.Score *= s.scoring.QuestionBoost
					break
				}
			}
		}

		shared := 0
		for _, term := range queryTerms {
			if strings.Contains(lowerText, term) {
				shared++
			}
		}
		if shared > 0 {
			c.Score *= 1 + s.scoring.DomainTermBoost*float64(shared)
		}
	}
}
