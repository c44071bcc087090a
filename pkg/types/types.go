package types

import (
	"errors"
	"fmt"
)

// Validation errors
var (
	ErrEmptyQuery        = errors.New("query cannot be empty")
	ErrEmptyChunkID      = errors.New("chunk id cannot be empty")
	ErrEmptyDocumentID   = errors.New("document id cannot be empty")
	ErrInvalidTopK       = errors.New("top_k must be positive")
	ErrInvalidSearchType = errors.New("invalid search type")
)

// ContextKey is the type for values this module stores in a context.
type ContextKey string

const (
	// ContextKeyRequestID carries the per-request id assigned by the HTTP
	// layer, surfaced in error telemetry.
	ContextKeyRequestID ContextKey = "request_id"

	// ContextKeyRequestSource names the surface a request came in on.
	ContextKeyRequestSource ContextKey = "request_source"
)

// SearchType identifies a retrieval strategy. The set is closed: the
// orchestrator switches exhaustively over these values, so adding a new
// strategy means adding a constant here and a case there.
type SearchType string

const (
	// SearchTypeVector ranks chunks by cosine similarity between the query
	// embedding and chunk embeddings.
	SearchTypeVector SearchType = "vector"

	// SearchTypeGraph ranks chunks by matches between query entity terms
	// and the entities contained in each chunk.
	SearchTypeGraph SearchType = "graph"

	// SearchTypeFullText ranks chunks by literal phrase and word matches.
	// It has no embedding dependency.
	SearchTypeFullText SearchType = "full_text"

	// SearchTypeHybrid fuses vector, graph and full-text results with
	// rank-based weighting.
	SearchTypeHybrid SearchType = "hybrid"

	// SearchTypeCommunity blends cosine similarity with community-structure
	// signals from the entity graph.
	SearchTypeCommunity SearchType = "community"
)

// ParseSearchType validates a raw search type string.
func ParseSearchType(s string) (SearchType, error) {
	switch SearchType(s) {
	case SearchTypeVector, SearchTypeGraph, SearchTypeFullText, SearchTypeHybrid, SearchTypeCommunity:
		return SearchType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSearchType, s)
	}
}

// NeedsEmbedding reports whether the strategy requires a query embedding.
// Full-text and graph searches must stay usable when the embedding model is
// unavailable.
func (s SearchType) NeedsEmbedding() bool {
	switch s {
	case SearchTypeVector, SearchTypeHybrid, SearchTypeCommunity:
		return true
	default:
		return false
	}
}

// ChunkType classifies the structural role of a chunk within its document.
type ChunkType string

const (
	ChunkTypeContent    ChunkType = "content"
	ChunkTypeDefinition ChunkType = "definition"
	ChunkTypeExample    ChunkType = "example"
	ChunkTypeList       ChunkType = "list"
	ChunkTypeTable      ChunkType = "table"
	ChunkTypeTitle      ChunkType = "title"
)

// Document is a source file in the corpus. Documents are created by the
// ingestion pipeline and are read-only during search.
type Document struct {
	ID           string   `json:"id" mapstructure:"id"`
	Filename     string   `json:"filename" mapstructure:"filename"`
	TotalPages   int      `json:"total_pages" mapstructure:"total_pages"`
	Division     string   `json:"division,omitempty" mapstructure:"division"`
	Category     string   `json:"category,omitempty" mapstructure:"category"`
	ProductScope []string `json:"product_scope,omitempty" mapstructure:"product_scope"`
	Title        string   `json:"title,omitempty" mapstructure:"title"`
	Keywords     []string `json:"keywords,omitempty" mapstructure:"keywords"`
}

// Chunk is a contiguous span of document text, the atomic unit of retrieval.
// Every chunk belongs to exactly one document. Embedding length is fixed per
// deployment and must match across all chunks for similarity math to hold.
type Chunk struct {
	ID              string    `json:"id" mapstructure:"id"`
	DocumentID      string    `json:"document_id" mapstructure:"document_id"`
	Text            string    `json:"text" mapstructure:"text"`
	PageNum         int       `json:"page_num" mapstructure:"page_num"`
	Embedding       []float32 `json:"embedding,omitempty" mapstructure:"embedding"`
	ChunkType       ChunkType `json:"chunk_type" mapstructure:"chunk_type"`
	SemanticDensity float64   `json:"semantic_density" mapstructure:"semantic_density"`
	HasDefinitions  bool      `json:"has_definitions" mapstructure:"has_definitions"`
	HasExamples     bool      `json:"has_examples" mapstructure:"has_examples"`
	Keywords        []string  `json:"keywords,omitempty" mapstructure:"keywords"`
}

// Validate checks the fields search depends on.
func (c *Chunk) Validate() error {
	if c.ID == "" {
		return ErrEmptyChunkID
	}
	if c.DocumentID == "" {
		return ErrEmptyDocumentID
	}
	return nil
}

// Entity is a named concept extracted from chunk text. Entity identity is the
// (text, type) pair; many chunks may reference the same entity. Community and
// centrality fields are assigned by an offline clustering job and only read
// here.
type Entity struct {
	Text             string   `json:"text" mapstructure:"text"`
	Type             string   `json:"type" mapstructure:"type"`
	CommunityID      *int     `json:"community_id,omitempty" mapstructure:"community_id"`
	DegreeCentrality *float64 `json:"degree_centrality,omitempty" mapstructure:"degree_centrality"`
	IsBridgeNode     bool     `json:"is_bridge_node,omitempty" mapstructure:"is_bridge_node"`
}

// ResultMetadata carries the chunk and document attributes the reranker
// scores against.
type ResultMetadata struct {
	ChunkType       ChunkType `json:"chunk_type,omitempty"`
	SemanticDensity float64   `json:"semantic_density,omitempty"`
	HasDefinitions  bool      `json:"has_definitions,omitempty"`
	HasExamples     bool      `json:"has_examples,omitempty"`
	Keywords        []string  `json:"keywords,omitempty"`
	Filename        string    `json:"filename,omitempty"`
}

// CandidateResult is one retrieval candidate for a single query. It is
// transient: produced per request, never persisted. Score semantics depend on
// SearchType (cosine similarity, match count, hybrid blend). RerankScore and
// FinalScore are set only after reranking; they are pointers so "not yet
// reranked" is distinguishable from a zero score.
type CandidateResult struct {
	ChunkID    string         `json:"chunk_id"`
	Text       string         `json:"text"`
	Score      float64        `json:"score"`
	DocumentID string         `json:"document_id"`
	PageNum    int            `json:"page_num"`
	Entities   []Entity       `json:"entities,omitempty"`
	SearchType SearchType     `json:"search_type"`
	Metadata   ResultMetadata `json:"metadata"`

	// Set by the reranker.
	RerankScore    *float64 `json:"rerank_score,omitempty"`
	KeywordMatches []string `json:"keyword_matches,omitempty"`
	FinalScore     *float64 `json:"final_score,omitempty"`
	Explanation    string   `json:"explanation,omitempty"`

	// Hydrated marks candidates whose entities and metadata have been
	// loaded from the graph store. Fast paths (full-text) leave it false
	// so the orchestrator knows to hydrate before reranking.
	Hydrated bool `json:"-"`
}

// BestScore returns the final score when reranked, otherwise the raw
// retrieval score.
func (r *CandidateResult) BestScore() float64 {
	if r.FinalScore != nil {
		return *r.FinalScore
	}
	return r.Score
}

// QueryType is a coarse classification of what kind of answer a query seeks.
type QueryType string

const (
	QueryTypeDefinition  QueryType = "definition"
	QueryTypeExample     QueryType = "example"
	QueryTypeComparison  QueryType = "comparison"
	QueryTypeRequirement QueryType = "requirement"
	QueryTypeProcedure   QueryType = "procedure"
	QueryTypeRisk        QueryType = "risk"
	QueryTypeBenefit     QueryType = "benefit"
	QueryTypeGeneral     QueryType = "general"
)

// QueryIntent is the analyzer's view of a raw query.
type QueryIntent struct {
	QueryType            QueryType `json:"query_type"`
	TargetProducts       []string  `json:"target_products,omitempty"`
	KeyTerms             []string  `json:"key_terms,omitempty"`
	RequiresMultipleDocs bool      `json:"requires_multiple_docs"`
	ComplexityScore      float64   `json:"complexity_score"`
}

// GeneralIntent is the intent used when no analyzer ran: no product or
// chunk-type boosts apply.
func GeneralIntent() *QueryIntent {
	return &QueryIntent{QueryType: QueryTypeGeneral}
}
