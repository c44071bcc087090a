package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrievalworks/bankgraph/pkg/types"
)

func TestAnalyzeDefinitionQuery(t *testing.T) {
	a := New(nil)

	intent := a.Analyze("What is a Term Deposit?")

	assert.Equal(t, types.QueryTypeDefinition, intent.QueryType)
	assert.Equal(t, []string{"term deposit"}, intent.TargetProducts)
	assert.Equal(t, []string{"term", "deposit", "term deposit"}, intent.KeyTerms)
	assert.False(t, intent.RequiresMultipleDocs)
	assert.InDelta(t, 0.5, intent.ComplexityScore, 1e-9)
}

func TestAnalyzeFirstRuleWins(t *testing.T) {
	a := New(nil)

	// "what is" appears before the comparison phrasing, so the definition
	// rule matches first.
	intent := a.Analyze("what is the difference between a term deposit and a fixed deposit")

	assert.Equal(t, types.QueryTypeDefinition, intent.QueryType)
}

func TestAnalyzeClassification(t *testing.T) {
	a := New(nil)

	cases := map[string]types.QueryType{
		"compare savings account and current account": types.QueryTypeComparison,
		"how to open a savings account":                types.QueryTypeProcedure,
		"documents needed for kyc":                     types.QueryTypeRequirement,
		"penalty on early withdrawal":                  types.QueryTypeRisk,
		"advantages of a recurring deposit":            types.QueryTypeBenefit,
		"give me an example of compounding":            types.QueryTypeExample,
		"branch opening hours on saturday":             types.QueryTypeGeneral,
	}
	for query, want := range cases {
		assert.Equal(t, want, a.Analyze(query).QueryType, "query %q", query)
	}
}

func TestAnalyzeMultipleProductsRequireMultipleDocs(t *testing.T) {
	a := New(nil)

	intent := a.Analyze("compare savings account and term deposit rates")

	require.Len(t, intent.TargetProducts, 2)
	assert.Contains(t, intent.TargetProducts, "savings account")
	assert.Contains(t, intent.TargetProducts, "term deposit")
	assert.True(t, intent.RequiresMultipleDocs)
}

func TestAnalyzeComplexityClampedToOne(t *testing.T) {
	a := New(nil)

	intent := a.Analyze("compare savings account and term deposit interest rates and penalties")

	assert.Equal(t, 1.0, intent.ComplexityScore)
}

func TestJoinsProducts(t *testing.T) {
	a := New(nil)

	assert.True(t, a.joinsProducts("overdraft and credit card fees"))
	assert.False(t, a.joinsProducts("overdraft and my balance"))
	assert.False(t, a.joinsProducts("fees and charges"))
}

func TestMatchProductsAbbreviationNeedsWordBoundary(t *testing.T) {
	lex := DefaultLexicon()

	// "ca" inside "can" and "sa" inside "disallowed" are not matches.
	assert.Empty(t, lex.MatchProducts("can i withdraw early"))
	assert.Equal(t, []string{"current account"}, lex.MatchProducts("fees on my ca"))
}

func TestMatchFinancialTerms(t *testing.T) {
	lex := DefaultLexicon()

	matched := lex.MatchFinancialTerms("interest rate on early withdrawal")

	assert.Equal(t, []string{"interest", "rate", "withdrawal"}, matched)
}

func TestContainsWord(t *testing.T) {
	assert.True(t, ContainsWord("open a td today", "td"))
	assert.False(t, ContainsWord("stdout is noisy", "td"))
	assert.True(t, ContainsWord("td rates", "td"))
	assert.False(t, ContainsWord("rated", "rate"))
}
