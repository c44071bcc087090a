package search

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrievalworks/bankgraph/pkg/config"
	"github.com/retrievalworks/bankgraph/pkg/crossencoder"
	"github.com/retrievalworks/bankgraph/pkg/types"
)

func newTestReranker(scorer crossencoder.Client) *Reranker {
	return NewReranker(scorer, nil, config.DefaultScoring(), slog.Default())
}

func candidateFixture(id, text string, score float64) *types.CandidateResult {
	return &types.CandidateResult{
		ChunkID:    id,
		Text:       text,
		Score:      score,
		DocumentID: "doc-" + id,
		SearchType: types.SearchTypeVector,
	}
}

func TestRerankSetsCompositeScore(t *testing.T) {
	scorer := crossencoder.NewMockClient(crossencoder.Config{})
	scorer.FixedScores = []float64{0.9}
	reranker := newTestReranker(scorer)

	c := candidateFixture("c1", "The interest rate is fixed.", 0.8)
	out := reranker.Rerank(context.Background(), "interest rate", []*types.CandidateResult{c}, nil)

	require.Len(t, out, 1)
	require.NotNil(t, out[0].RerankScore)
	require.NotNil(t, out[0].FinalScore)
	assert.Equal(t, 0.9, *out[0].RerankScore)

	// Two keyword matches (interest, rate) -> 0.10; no filename, density 0,
	// general intent, no product pair -> metadata 0.
	expected := 0.9*0.4 + 0.8*0.25 + 0.10*0.15 + 0.0*0.2
	assert.InDelta(t, expected, *out[0].FinalScore, 1e-9)
	assert.ElementsMatch(t, []string{"interest", "rate"}, out[0].KeywordMatches)
}

func TestRerankNeutralScoresOnCrossEncoderFailure(t *testing.T) {
	scorer := crossencoder.NewMockClient(crossencoder.Config{})
	scorer.FailAll = true
	reranker := newTestReranker(scorer)

	candidates := []*types.CandidateResult{
		candidateFixture("c1", "alpha", 0.9),
		candidateFixture("c2", "bravo", 0.1),
	}
	out := reranker.Rerank(context.Background(), "query words", candidates, nil)

	require.Len(t, out, 2)
	for _, c := range out {
		require.NotNil(t, c.RerankScore)
		assert.Equal(t, crossencoder.NeutralScore, *c.RerankScore)
		require.NotNil(t, c.FinalScore)
	}
	// With the cross-encoder neutralized, original score decides.
	assert.Equal(t, "c1", out[0].ChunkID)
}

func TestRerankNilScorerUsesNeutral(t *testing.T) {
	reranker := newTestReranker(nil)

	out := reranker.Rerank(context.Background(), "q",
		[]*types.CandidateResult{candidateFixture("c1", "text", 0.5)}, nil)
	require.Len(t, out, 1)
	assert.Equal(t, crossencoder.NeutralScore, *out[0].RerankScore)
}

func TestRerankDeterministicForSameInputs(t *testing.T) {
	scorer := crossencoder.NewMockClient(crossencoder.Config{})
	reranker := newTestReranker(scorer)

	run := func() []float64 {
		candidates := []*types.CandidateResult{
			candidateFixture("c1", "interest rate details", 0.8),
			candidateFixture("c2", "fee schedule", 0.6),
		}
		out := reranker.Rerank(context.Background(), "interest rate", candidates, nil)
		scores := make([]float64, len(out))
		for i, c := range out {
			scores[i] = *c.FinalScore
		}
		return scores
	}

	assert.Equal(t, run(), run())
}

func TestKeywordBoostCapAndFilename(t *testing.T) {
	reranker := newTestReranker(nil)

	c := candidateFixture("c1", "alpha bravo charlie delta echo foxtrot", 0)
	words := []string{"alpha", "bravo", "charlie", "delta", "echo"}

	boost, matches := reranker.keywordBoost(words, c)
	assert.Len(t, matches, 5)
	assert.Equal(t, 0.2, boost) // capped despite 5 matches

	c.Metadata.Filename = "alpha_guide.pdf"
	boost, _ = reranker.keywordBoost(words, c)
	assert.InDelta(t, 0.35, boost, 1e-9)
}

func TestMetadataBoostTypeMatch(t *testing.T) {
	reranker := newTestReranker(nil)
	intent := &types.QueryIntent{QueryType: types.QueryTypeDefinition}

	exact := candidateFixture("c1", "a term deposit is", 0)
	exact.Metadata.ChunkType = types.ChunkTypeDefinition
	assert.InDelta(t, 0.2, reranker.metadataBoost("what is x", exact, intent), 1e-9)

	near := candidateFixture("c2", "contains definitions", 0)
	near.Metadata.ChunkType = types.ChunkTypeContent
	near.Metadata.HasDefinitions = true
	assert.InDelta(t, 0.15, reranker.metadataBoost("what is x", near, intent), 1e-9)
}

func TestMetadataBoostDensityTiers(t *testing.T) {
	reranker := newTestReranker(nil)
	intent := types.GeneralIntent()

	dense := candidateFixture("c1", "x", 0)
	dense.Metadata.SemanticDensity = 0.6
	assert.InDelta(t, 0.1, reranker.metadataBoost("q", dense, intent), 1e-9)

	mid := candidateFixture("c2", "x", 0)
	mid.Metadata.SemanticDensity = 0.4
	assert.InDelta(t, 0.05, reranker.metadataBoost("q", mid, intent), 1e-9)

	sparse := candidateFixture("c3", "x", 0)
	sparse.Metadata.SemanticDensity = 0.2
	assert.InDelta(t, 0.0, reranker.metadataBoost("q", sparse, intent), 1e-9)
}

func TestMetadataBoostProductPair(t *testing.T) {
	reranker := newTestReranker(nil)
	intent := types.GeneralIntent()

	c := candidateFixture("c1", "Your FCA balance is held in USD.", 0)
	boost := reranker.metadataBoost("foreign currency account fees", c, intent)
	assert.InDelta(t, productPairBoost, boost, 1e-9)

	// Abbreviations only match on word boundaries.
	noPair := candidateFixture("c2", "the scarf canvas", 0)
	assert.InDelta(t, 0.0, reranker.metadataBoost("foreign currency account fees", noPair, intent), 1e-9)
}
