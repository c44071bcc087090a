package search

import (
	"sort"

	"github.com/retrievalworks/bankgraph/pkg/types"
)

// diversify spreads results across documents for queries that span multiple
// documents, where three chunks of the same PDF would crowd out the second
// document entirely. The first round takes each document's best candidate in
// descending score order; later rounds take each document's next-best in the
// same document order until topK is reached.
func diversify(candidates []*types.CandidateResult, topK int) []*types.CandidateResult {
	if len(candidates) <= 1 {
		return candidates
	}

	ordered := make([]*types.CandidateResult, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].BestScore() > ordered[j].BestScore()
	})

	// Group per document; candidates within a group stay score-ordered and
	// documents are ordered by their best candidate.
	byDoc := make(map[string][]*types.CandidateResult)
	docOrder := make([]string, 0)
	for _, c := range ordered {
		if _, ok := byDoc[c.DocumentID]; !ok {
			docOrder = append(docOrder, c.DocumentID)
		}
		byDoc[c.DocumentID] = append(byDoc[c.DocumentID], c)
	}

	picked := make([]*types.CandidateResult, 0, topK)
	for round := 0; len(picked) < topK; round++ {
		progressed := false
		for _, doc := range docOrder {
			group := byDoc[doc]
			if round >= len(group) {
				continue
			}
			progressed = true
			picked = append(picked, group[round])
			if len(picked) == topK {
				return picked
			}
		}
		if !progressed {
			break
		}
	}
	return picked
}
