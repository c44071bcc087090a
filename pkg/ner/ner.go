// Package ner extracts candidate entity surface forms from query text for
// the graph retriever: named-entity recognition via a local rust-bert model,
// backed by pattern matching (acronyms, product names, capitalized nouns)
// when the model is unavailable.
package ner

import (
	"context"
	"log/slog"
	"strings"
)

// Extractor produces candidate entity terms from a query string. Terms are
// lowercased and deduplicated; order follows first appearance.
type Extractor interface {
	ExtractTerms(ctx context.Context, query string) ([]string, error)
}

// Combined pools a model-backed extractor with the pattern extractor. Model
// failure degrades to patterns only; it never fails the whole extraction.
type Combined struct {
	model    Extractor // may be nil
	patterns *PatternExtractor
	logger   *slog.Logger
}

// NewCombined creates the standard query-side extractor. model may be nil.
func NewCombined(model Extractor, patterns *PatternExtractor, logger *slog.Logger) *Combined {
	if logger == nil {
		logger = slog.Default()
	}
	return &Combined{model: model, patterns: patterns, logger: logger}
}

// ExtractTerms implements Extractor.
func (c *Combined) ExtractTerms(ctx context.Context, query string) ([]string, error) {
	var terms []string

	if c.model != nil {
		modelTerms, err := c.model.ExtractTerms(ctx, query)
		if err != nil {
			c.logger.Warn("NER model extraction failed, using patterns only", "error", err)
		} else {
			terms = append(terms, modelTerms...)
		}
	}

	patternTerms, err := c.patterns.ExtractTerms(ctx, query)
	if err != nil {
		return nil, err
	}
	terms = append(terms, patternTerms...)

	return dedupTerms(terms), nil
}

// dedupTerms lowercases and deduplicates, keeping first-appearance order.
func dedupTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
