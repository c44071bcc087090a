package ner

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPatterns() *PatternExtractor {
	return NewPatternExtractor([]string{
		"td", "term deposit",
		"fca", "foreign currency account",
	})
}

// stubModel is a model-backed extractor substitute.
type stubModel struct {
	terms []string
	err   error
}

func (s *stubModel) ExtractTerms(ctx context.Context, query string) ([]string, error) {
	return s.terms, s.err
}

func TestPatternExtractorLexiconTerms(t *testing.T) {
	p := testPatterns()

	terms, err := p.ExtractTerms(context.Background(), "what is the rate on a term deposit")
	require.NoError(t, err)

	assert.Equal(t, []string{"term deposit"}, terms)
}

func TestPatternExtractorAcronymsAndPhrases(t *testing.T) {
	p := testPatterns()

	terms, err := p.ExtractTerms(context.Background(), "Does the FCA support a Foreign Currency Account?")
	require.NoError(t, err)

	// Lexicon hits come first, then acronyms and capitalized phrases, all
	// lowercased with duplicates removed.
	assert.Equal(t, []string{"fca", "foreign currency account"}, terms)
}

func TestPatternExtractorWordBoundary(t *testing.T) {
	p := testPatterns()

	terms, err := p.ExtractTerms(context.Background(), "stdout noise should not match")
	require.NoError(t, err)

	assert.Empty(t, terms)
}

func TestCombinedMergesModelAndPatternTerms(t *testing.T) {
	model := &stubModel{terms: []string{"Acme Bank", "term deposit"}}
	c := NewCombined(model, testPatterns(), slog.Default())

	terms, err := c.ExtractTerms(context.Background(), "term deposit rates at Acme Bank")
	require.NoError(t, err)

	// Model terms first, pattern terms appended, deduplicated after
	// lowercasing.
	assert.Equal(t, []string{"acme bank", "term deposit"}, terms)
}

func TestCombinedDegradesWhenModelFails(t *testing.T) {
	model := &stubModel{err: errors.New("model not loaded")}
	c := NewCombined(model, testPatterns(), slog.Default())

	terms, err := c.ExtractTerms(context.Background(), "early withdrawal from a term deposit")
	require.NoError(t, err)

	assert.Equal(t, []string{"term deposit"}, terms)
}

func TestCombinedWithoutModel(t *testing.T) {
	c := NewCombined(nil, testPatterns(), nil)

	terms, err := c.ExtractTerms(context.Background(), "TD maturity date")
	require.NoError(t, err)

	assert.Equal(t, []string{"td"}, terms)
}
