package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrievalworks/bankgraph/pkg/graphstore"
	"github.com/retrievalworks/bankgraph/pkg/types"
)

func TestGraphSearchScoresEntityMatches(t *testing.T) {
	store := graphstore.NewMemoryStore()
	store.AddDocument(&types.Document{ID: "doc1", Filename: "deposits.pdf"})
	store.AddChunk(&types.Chunk{
		ID:         "c1",
		DocumentID: "doc1",
		Text:       "Term deposit maturity rules.",
		PageNum:    1,
	},
		types.Entity{Text: "term deposit", Type: "PRODUCT"},
		types.Entity{Text: "maturity date", Type: "CONCEPT"},
	)

	searcher := newTestSearcher(store, nil, nil)
	req := NewRequest("term deposit rules", types.SearchTypeGraph, 5)
	req.UseReranking = false

	resp, err := searcher.Search(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)

	// One matched entity plus 0.1 per entity in the chunk.
	assert.InDelta(t, 1.2, resp.Results[0].Score, 1e-9)
	assert.Len(t, resp.Results[0].Entities, 2)
}

func TestGraphSearchDeduplicatesByBestScore(t *testing.T) {
	store := graphstore.NewMemoryStore()
	store.AddDocument(&types.Document{ID: "doc1", Filename: "deposits.pdf"})

	// Found via "term deposit" (two entity matches) and via "fca" (one),
	// so the pooled list contains the chunk twice with different scores.
	store.AddChunk(&types.Chunk{
		ID:         "dup",
		DocumentID: "doc1",
		Text:       "Term deposit and FCA interplay.",
		PageNum:    1,
	},
		types.Entity{Text: "term deposit", Type: "PRODUCT"},
		types.Entity{Text: "term deposit penalty", Type: "CONCEPT"},
		types.Entity{Text: "fca", Type: "PRODUCT"},
	)

	searcher := newTestSearcher(store, nil, nil)
	req := NewRequest("term deposit or FCA", types.SearchTypeGraph, 5)
	req.UseReranking = false

	resp, err := searcher.Search(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1, "chunk must appear exactly once after dedup")

	// Best occurrence wins: 2 matches + 0.1*3 entities.
	assert.InDelta(t, 2.3, resp.Results[0].Score, 1e-9)
}

func TestGraphSearchNoTermsReturnsEmpty(t *testing.T) {
	searcher := newTestSearcher(seedCorpus(), nil, nil)

	req := NewRequest("ephemeral notions", types.SearchTypeGraph, 5)
	req.UseReranking = false

	resp, err := searcher.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}
