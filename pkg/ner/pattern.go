package ner

import (
	"context"
	"regexp"
	"strings"
)

// acronymPattern matches product-style abbreviations (FCA, TD, KYC).
var acronymPattern = regexp.MustCompile(`\b[A-Z]{2,6}\b`)

// capitalizedPhrase matches runs of capitalized words ("Term Deposit",
// "Foreign Currency Account") that are likely named products or concepts.
var capitalizedPhrase = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`)

// PatternExtractor finds entity candidates without a model: domain lexicon
// terms present in the query, acronyms, and capitalized noun phrases.
type PatternExtractor struct {
	lexiconTerms []string // known product surface forms, lowercased
}

// NewPatternExtractor creates a pattern extractor over the given lexicon
// surface forms (abbreviations and full names).
func NewPatternExtractor(lexiconTerms []string) *PatternExtractor {
	terms := make([]string, 0, len(lexiconTerms))
	for _, t := range lexiconTerms {
		terms = append(terms, strings.ToLower(t))
	}
	return &PatternExtractor{lexiconTerms: terms}
}

// ExtractTerms implements Extractor.
func (p *PatternExtractor) ExtractTerms(ctx context.Context, query string) ([]string, error) {
	var terms []string

	lower := strings.ToLower(query)
	for _, t := range p.lexiconTerms {
		if containsWord(lower, t) {
			terms = append(terms, t)
		}
	}

	terms = append(terms, acronymPattern.FindAllString(query, -1)...)
	terms = append(terms, capitalizedPhrase.FindAllString(query, -1)...)

	return dedupTerms(terms), nil
}

// containsWord reports whether term occurs in text on word boundaries, so
// "td" does not match inside "stdout".
func containsWord(text, term string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], term)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(term)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
