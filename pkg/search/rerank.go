package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/retrievalworks/bankgraph/pkg/analyzer"
	"github.com/retrievalworks/bankgraph/pkg/config"
	"github.com/retrievalworks/bankgraph/pkg/crossencoder"
	"github.com/retrievalworks/bankgraph/pkg/types"
)

const (
	keywordMatchStep = 0.05
	keywordMatchCap  = 0.2
	filenameBoost    = 0.15

	highDensityBoost = 0.1
	midDensityBoost  = 0.05
	typeMatchBoost   = 0.2
	nearTypeBoost    = 0.15
	productPairBoost = 0.1
)

// Reranker re-scores a candidate list with a cross-encoder blended with
// keyword overlap and chunk metadata. Candidates are scored independently;
// ties keep retrieval order.
type Reranker struct {
	scorer  crossencoder.Client
	lexicon *analyzer.Lexicon
	scoring config.ScoringConfig
	logger  *slog.Logger
}

// NewReranker creates a reranker. scorer may be nil, in which case the
// cross-encoder component is the neutral constant for every candidate.
func NewReranker(scorer crossencoder.Client, lexicon *analyzer.Lexicon, scoring config.ScoringConfig, logger *slog.Logger) *Reranker {
	if lexicon == nil {
		lexicon = analyzer.DefaultLexicon()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reranker{scorer: scorer, lexicon: lexicon, scoring: scoring, logger: logger}
}

// Rerank computes a composite final score per candidate and stable-sorts
// descending. A cross-encoder failure degrades to a neutral score for every
// candidate instead of failing the search; ranking then moves only on the
// keyword and metadata components. intent may be nil.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []*types.CandidateResult, intent *types.QueryIntent) []*types.CandidateResult {
	if len(candidates) == 0 {
		return candidates
	}
	if intent == nil {
		intent = types.GeneralIntent()
	}

	ceScores := r.crossEncoderScores(ctx, query, candidates)
	words := queryWords(query)
	lowerQuery := strings.ToLower(query)

	for i, c := range candidates {
		keywordBoost, matches := r.keywordBoost(words, c)
		metadataBoost := r.metadataBoost(lowerQuery, c, intent)

		final := ceScores[i]*r.scoring.CrossEncoderWeight +
			c.Score*r.scoring.OriginalWeight +
			keywordBoost*r.scoring.KeywordWeight +
			metadataBoost*r.scoring.MetadataWeight

		rerank := ceScores[i]
		c.RerankScore = &rerank
		c.KeywordMatches = matches
		c.FinalScore = &final
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return *candidates[i].FinalScore > *candidates[j].FinalScore
	})
	return candidates
}

func (r *Reranker) crossEncoderScores(ctx context.Context, query string, candidates []*types.CandidateResult) []float64 {
	neutral := func() []float64 {
		scores := make([]float64, len(candidates))
		for i := range scores {
			scores[i] = crossencoder.NeutralScore
		}
		return scores
	}

	if r.scorer == nil {
		return neutral()
	}

	passages := make([]string, len(candidates))
	for i, c := range candidates {
		passages[i] = c.Text
	}

	scores, err := r.scorer.Score(ctx, query, passages)
	if err != nil || len(scores) != len(candidates) {
		r.logger.Warn("cross-encoder scoring failed, using neutral scores",
			"candidates", len(candidates), "error", err)
		return neutral()
	}
	return scores
}

// keywordBoost rewards token overlap between query and chunk text, capped,
// plus a flat boost when a query word appears in the source filename.
func (r *Reranker) keywordBoost(words []string, c *types.CandidateResult) (float64, []string) {
	lowerText := strings.ToLower(c.Text)
	lowerFilename := strings.ToLower(c.Metadata.Filename)

	var matches []string
	for _, w := range words {
		if strings.Contains(lowerText, w) {
			matches = append(matches, w)
		}
	}

	boost := float64(len(matches)) * keywordMatchStep
	if boost > keywordMatchCap {
		boost = keywordMatchCap
	}

	if lowerFilename != "" {
		for _, w := range words {
			if strings.Contains(lowerFilename, w) {
				boost += filenameBoost
				break
			}
		}
	}
	return boost, matches
}

// metadataBoost rewards dense chunks, chunk types matching the query intent
// and passages that resolve a product abbreviation used in the query.
func (r *Reranker) metadataBoost(lowerQuery string, c *types.CandidateResult, intent *types.QueryIntent) float64 {
	var boost float64

	if c.Metadata.SemanticDensity > 0.5 {
		boost += highDensityBoost
	} else if c.Metadata.SemanticDensity > 0.3 {
		boost += midDensityBoost
	}

	switch intent.QueryType {
	case types.QueryTypeDefinition:
		if c.Metadata.ChunkType == types.ChunkTypeDefinition {
			boost += typeMatchBoost
		} else if c.Metadata.HasDefinitions {
			boost += nearTypeBoost
		}
	case types.QueryTypeExample:
		if c.Metadata.ChunkType == types.ChunkTypeExample {
			boost += typeMatchBoost
		} else if c.Metadata.HasExamples {
			boost += nearTypeBoost
		}
	}

	lowerText := strings.ToLower(c.Text)
	for _, p := range r.lexicon.Products {
		queryHasFull := strings.Contains(lowerQuery, p.FullName)
		queryHasAbbr := analyzer.ContainsWord(lowerQuery, p.Abbreviation)
		textHasFull := strings.Contains(lowerText, p.FullName)
		textHasAbbr := analyzer.ContainsWord(lowerText, p.Abbreviation)
		if (queryHasFull && textHasAbbr) || (queryHasAbbr && textHasFull) {
			boost += productPairBoost
			break
		}
	}

	return boost
}
