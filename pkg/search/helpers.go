package search

import (
	"fmt"
	"strings"

	"github.com/retrievalworks/bankgraph/pkg/types"
)

// newCandidate builds a candidate from a chunk, copying the metadata the
// reranker scores against. Entities are left for hydration.
func newCandidate(chunk *types.Chunk, score float64, searchType types.SearchType) *types.CandidateResult {
	c := &types.CandidateResult{
		ChunkID:    chunk.ID,
		Text:       chunk.Text,
		Score:      score,
		DocumentID: chunk.DocumentID,
		PageNum:    chunk.PageNum,
		SearchType: searchType,
	}
	fillMetadata(c, chunk)
	return c
}

func fillMetadata(c *types.CandidateResult, chunk *types.Chunk) {
	c.Metadata.ChunkType = chunk.ChunkType
	c.Metadata.SemanticDensity = chunk.SemanticDensity
	c.Metadata.HasDefinitions = chunk.HasDefinitions
	c.Metadata.HasExamples = chunk.HasExamples
	c.Metadata.Keywords = chunk.Keywords
}

// queryWords splits a lowercased query into words of at least three letters,
// deduplicated in first-appearance order.
func queryWords(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	seen := make(map[string]struct{}, len(fields))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.Trim(f, ".,;:!?()[]\"'")
		if len(w) < 3 {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	return words
}

// explain builds the per-candidate explanation string returned to callers.
func explain(c *types.CandidateResult) string {
	var sb strings.Builder

	switch c.SearchType {
	case types.SearchTypeVector:
		fmt.Fprintf(&sb, "vector similarity %.3f", c.Score)
	case types.SearchTypeGraph:
		fmt.Fprintf(&sb, "entity match score %.2f across %d entities", c.Score, len(c.Entities))
	case types.SearchTypeFullText:
		if c.Score >= fullPhraseScore {
			sb.WriteString("full phrase match")
		} else {
			sb.WriteString("word match")
		}
	case types.SearchTypeHybrid:
		fmt.Fprintf(&sb, "hybrid fusion score %.3f", c.Score)
	case types.SearchTypeCommunity:
		fmt.Fprintf(&sb, "community-aware score %.3f", c.Score)
	}

	if c.FinalScore != nil {
		fmt.Fprintf(&sb, "; reranked to %.3f", *c.FinalScore)
		if len(c.KeywordMatches) > 0 {
			fmt.Fprintf(&sb, " (keywords: %s)", strings.Join(c.KeywordMatches, ", "))
		}
	}
	return sb.String()
}
