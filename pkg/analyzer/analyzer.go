// Package analyzer classifies raw queries into an intent the orchestrator
// and reranker can bias scoring with: a query type, target products, key
// terms, and a complexity estimate.
package analyzer

import (
	"regexp"
	"strings"

	"github.com/retrievalworks/bankgraph/pkg/types"
)

// typeRule maps a pattern to a query type. Rules are evaluated in order and
// the first match wins, so more specific patterns must come before generic
// ones. Exactly one category is ever assigned.
type typeRule struct {
	queryType types.QueryType
	pattern   *regexp.Regexp
}

var typeRules = []typeRule{
	{types.QueryTypeDefinition, regexp.MustCompile(`\b(what is|what are|define|definition of|meaning of|means)\b`)},
	{types.QueryTypeExample, regexp.MustCompile(`\b(examples?|for instance|such as|samples?|illustrate)\b`)},
	{types.QueryTypeComparison, regexp.MustCompile(`\b(compare|comparison|difference between|differences|versus|vs\.?|better than)\b`)},
	{types.QueryTypeRequirement, regexp.MustCompile(`\b(require|required|requirement|eligib|criteria|documents? needed|minimum|must have)\b`)},
	{types.QueryTypeProcedure, regexp.MustCompile(`\b(how to|how do i|how can i|steps?|process|procedure|apply for|open an?)\b`)},
	{types.QueryTypeRisk, regexp.MustCompile(`\b(risk|risks|risky|danger|penalt|downside|loss|losses)\b`)},
	{types.QueryTypeBenefit, regexp.MustCompile(`\b(benefits?|advantages?|perks?|why should|gains?|rewards?)\b`)},
}

// stopwords excluded from key terms.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "can": {}, "do": {}, "does": {}, "for": {}, "from": {},
	"how": {}, "i": {}, "in": {}, "is": {}, "it": {}, "my": {}, "of": {},
	"on": {}, "or": {}, "the": {}, "to": {}, "what": {}, "when": {},
	"where": {}, "which": {}, "who": {}, "why": {}, "will": {}, "with": {},
	"you": {}, "your": {},
}

var nonWord = regexp.MustCompile(`[^a-z0-9]+`)

// Complexity score contributions. Final value is clamped to [0,1].
const (
	keyTermWeight   = 0.1
	productWeight   = 0.2
	multiDocWeight  = 0.3
	queryTypeWeight = 0.2
)

// Analyzer classifies queries against a domain lexicon. It is stateless and
// safe for concurrent use.
type Analyzer struct {
	lexicon *Lexicon
}

// New creates an Analyzer. A nil lexicon uses the default banking lexicon.
func New(lexicon *Lexicon) *Analyzer {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	return &Analyzer{lexicon: lexicon}
}

// Lexicon returns the analyzer's domain vocabulary.
func (a *Analyzer) Lexicon() *Lexicon {
	return a.lexicon
}

// Analyze classifies a raw query string.
func (a *Analyzer) Analyze(query string) *types.QueryIntent {
	lower := strings.ToLower(query)

	intent := &types.QueryIntent{
		QueryType:      a.classify(lower),
		TargetProducts: a.lexicon.MatchProducts(lower),
		KeyTerms:       a.keyTerms(lower),
	}

	intent.RequiresMultipleDocs = intent.QueryType == types.QueryTypeComparison ||
		len(intent.TargetProducts) > 1 ||
		a.joinsProducts(lower)

	intent.ComplexityScore = a.complexity(intent)

	return intent
}

// classify returns the first matching query type; general is the fallback.
func (a *Analyzer) classify(lowerQuery string) types.QueryType {
	for _, rule := range typeRules {
		if rule.pattern.MatchString(lowerQuery) {
			return rule.queryType
		}
	}
	return types.QueryTypeGeneral
}

// keyTerms extracts deduplicated content words and detected product names.
func (a *Analyzer) keyTerms(lowerQuery string) []string {
	seen := make(map[string]struct{})
	var terms []string

	for _, word := range nonWord.Split(lowerQuery, -1) {
		if len(word) < 3 {
			continue
		}
		if _, stop := stopwords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		terms = append(terms, word)
	}

	// Multi-word product names count as single terms.
	for _, product := range a.lexicon.MatchProducts(lowerQuery) {
		if _, dup := seen[product]; dup {
			continue
		}
		seen[product] = struct{}{}
		terms = append(terms, product)
	}

	return terms
}

// joinsProducts reports whether the query textually joins two known product
// names with "and".
func (a *Analyzer) joinsProducts(lowerQuery string) bool {
	idx := strings.Index(lowerQuery, " and ")
	for idx >= 0 {
		left := lowerQuery[:idx]
		right := lowerQuery[idx+len(" and "):]
		if len(a.lexicon.MatchProducts(left)) > 0 && len(a.lexicon.MatchProducts(right)) > 0 {
			return true
		}
		next := strings.Index(lowerQuery[idx+1:], " and ")
		if next < 0 {
			break
		}
		idx = idx + 1 + next
	}
	return false
}

// complexity is a weighted sum clamped to [0,1].
func (a *Analyzer) complexity(intent *types.QueryIntent) float64 {
	score := keyTermWeight*float64(len(intent.KeyTerms)) +
		productWeight*float64(len(intent.TargetProducts))

	if intent.RequiresMultipleDocs {
		score += multiDocWeight
	}
	if intent.QueryType == types.QueryTypeComparison || intent.QueryType == types.QueryTypeProcedure {
		score += queryTypeWeight
	}

	if score > 1 {
		return 1
	}
	if score < 0 {
		return 0
	}
	return score
}
