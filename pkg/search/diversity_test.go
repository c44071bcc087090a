package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrievalworks/bankgraph/pkg/types"
)

func scored(id, docID string, score float64) *types.CandidateResult {
	return &types.CandidateResult{ChunkID: id, DocumentID: docID, Score: score}
}

func TestDiversifyOnePerDocumentThenBackfill(t *testing.T) {
	candidates := []*types.CandidateResult{
		scored("a1", "docA", 0.9),
		scored("a2", "docA", 0.8),
		scored("b1", "docB", 0.95),
		scored("b2", "docB", 0.7),
		scored("b3", "docB", 0.6),
	}

	out := diversify(candidates, 3)
	require.Len(t, out, 3)

	// Best per document first, then each document's next-best in the same
	// document order.
	assert.Equal(t, "b1", out[0].ChunkID)
	assert.Equal(t, "a1", out[1].ChunkID)
	assert.Equal(t, "b2", out[2].ChunkID)
}

func TestDiversifyAtMostOnePerDocumentUntilExhausted(t *testing.T) {
	candidates := []*types.CandidateResult{
		scored("a1", "docA", 0.9),
		scored("b1", "docB", 0.8),
		scored("c1", "docC", 0.7),
		scored("a2", "docA", 0.95),
	}

	out := diversify(candidates, 3)
	require.Len(t, out, 3)

	docs := map[string]int{}
	for _, c := range out {
		docs[c.DocumentID]++
	}
	for doc, n := range docs {
		assert.Equal(t, 1, n, "document %s", doc)
	}
}

func TestDiversifyUsesFinalScoreWhenReranked(t *testing.T) {
	low := 0.1
	high := 0.9

	a := scored("a1", "docA", 0.99)
	a.FinalScore = &low
	b := scored("b1", "docB", 0.01)
	b.FinalScore = &high

	out := diversify([]*types.CandidateResult{a, b}, 2)
	require.Len(t, out, 2)
	assert.Equal(t, "b1", out[0].ChunkID)
}

func TestDiversifyShortList(t *testing.T) {
	single := []*types.CandidateResult{scored("a1", "docA", 0.5)}
	assert.Equal(t, single, diversify(single, 3))
	assert.Empty(t, diversify(nil, 3))
}
