package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrievalworks/bankgraph/pkg/types"
)

func TestValidateDefaults(t *testing.T) {
	q := &SearchQuery{Query: "term deposit"}

	req, err := q.Validate()
	require.NoError(t, err)
	assert.Equal(t, types.SearchTypeHybrid, req.SearchType)
	assert.Equal(t, DefaultTopK, req.TopK)
	assert.True(t, req.UseReranking)
}

func TestValidateRejectsBlankQuery(t *testing.T) {
	q := &SearchQuery{Query: "   "}
	_, err := q.Validate()
	assert.ErrorIs(t, err, types.ErrEmptyQuery)
}

func TestValidateRejectsUnknownSearchType(t *testing.T) {
	q := &SearchQuery{Query: "x", SearchType: "fuzzy"}
	_, err := q.Validate()
	assert.ErrorIs(t, err, types.ErrInvalidSearchType)
}

func TestValidateTopKBounds(t *testing.T) {
	q := &SearchQuery{Query: "x", TopK: -1}
	_, err := q.Validate()
	assert.ErrorIs(t, err, types.ErrInvalidTopK)

	q = &SearchQuery{Query: "x", TopK: MaxTopK + 1}
	_, err = q.Validate()
	assert.Error(t, err)
}

func TestValidateWeights(t *testing.T) {
	q := &SearchQuery{
		Query:      "x",
		SearchType: "hybrid",
		Weights:    map[string]float64{"vector": 0.6, "graph": 0.3, "full_text": 0.1},
	}
	req, err := q.Validate()
	require.NoError(t, err)
	require.NotNil(t, req.Weights)
	assert.Equal(t, 0.6, req.Weights.Vector)

	q.Weights = map[string]float64{"vector": 0.9}
	_, err = q.Validate()
	assert.Error(t, err, "weights must sum to 1.0")
}

func TestValidateRerankingOverride(t *testing.T) {
	off := false
	q := &SearchQuery{Query: "x", UseReranking: &off}
	req, err := q.Validate()
	require.NoError(t, err)
	assert.False(t, req.UseReranking)
}
