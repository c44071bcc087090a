// Package search implements the retrieval and ranking engine: single-strategy
// retrievers over the graph store, rank-based hybrid fusion, cross-encoder
// reranking and diversity post-processing. Each search call is independent and
// holds no state across requests, so results are reproducible for the same
// graph snapshot, query and weights.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/retrievalworks/bankgraph/pkg/analyzer"
	"github.com/retrievalworks/bankgraph/pkg/config"
	"github.com/retrievalworks/bankgraph/pkg/crossencoder"
	"github.com/retrievalworks/bankgraph/pkg/embedder"
	"github.com/retrievalworks/bankgraph/pkg/graphstore"
	"github.com/retrievalworks/bankgraph/pkg/ner"
	"github.com/retrievalworks/bankgraph/pkg/types"
)

// ErrEmbeddingUnavailable is returned when a strategy needs a query embedding
// and no embedding client is configured or the model call failed. Full-text
// and graph searches never return it.
var ErrEmbeddingUnavailable = errors.New("embedding unavailable")

// ErrAllStrategiesFailed is returned by hybrid search when every sub-strategy
// failed and there is nothing to combine.
var ErrAllStrategiesFailed = errors.New("all hybrid sub-strategies failed")

// Weights are the hybrid fusion weights. They should sum to 1.0.
type Weights struct {
	Vector   float64 `json:"vector"`
	Graph    float64 `json:"graph"`
	FullText float64 `json:"full_text"`
}

// Request describes one search call.
type Request struct {
	Query      string
	SearchType types.SearchType
	TopK       int

	// Weights overrides the configured hybrid fusion weights when non-nil.
	Weights *Weights

	// CommunityWeight overrides the configured community blend weight when
	// non-nil. Clamped to [0,1] at use.
	CommunityWeight *float64

	// UseReranking applies the cross-encoder rerank pass. NewRequest
	// defaults it to true.
	UseReranking bool

	// Diversify forces the one-result-per-document pass even when the
	// analyzer does not detect a multi-document query.
	Diversify bool
}

// NewRequest builds a request with default options.
func NewRequest(query string, searchType types.SearchType, topK int) *Request {
	return &Request{
		Query:        query,
		SearchType:   searchType,
		TopK:         topK,
		UseReranking: true,
	}
}

// Response is the result of one search call.
type Response struct {
	Query            string                   `json:"query"`
	SearchType       types.SearchType         `json:"search_type"`
	Results          []*types.CandidateResult `json:"results"`
	TotalResults     int                      `json:"total_results"`
	RerankingApplied bool                     `json:"reranking_applied"`
	Intent           *types.QueryIntent       `json:"intent,omitempty"`
	TookMS           int64                    `json:"took_ms"`
}

// Searcher is the top-level entry point. It owns no mutable state beyond its
// injected dependencies, all of which are safe for concurrent use.
type Searcher struct {
	store     graphstore.GraphStore
	embedder  embedder.Client // nil is allowed: full_text and graph stay usable
	extractor ner.Extractor
	analyzer  *analyzer.Analyzer
	reranker  *Reranker
	scoring   config.ScoringConfig
	logger    *slog.Logger

	maxConcurrency int
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithScoring overrides the default ranking constants.
func WithScoring(scoring config.ScoringConfig) Option {
	return func(s *Searcher) { s.scoring = scoring }
}

// WithMaxConcurrency bounds the hybrid fan-out.
func WithMaxConcurrency(n int) Option {
	return func(s *Searcher) { s.maxConcurrency = n }
}

// NewSearcher creates a searcher. embedClient may be nil, in which case
// strategies that need a query embedding fail with ErrEmbeddingUnavailable.
func NewSearcher(
	store graphstore.GraphStore,
	embedClient embedder.Client,
	scorer crossencoder.Client,
	extractor ner.Extractor,
	queryAnalyzer *analyzer.Analyzer,
	logger *slog.Logger,
	opts ...Option,
) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	if queryAnalyzer == nil {
		queryAnalyzer = analyzer.New(nil)
	}
	s := &Searcher{
		store:          store,
		embedder:       embedClient,
		extractor:      extractor,
		analyzer:       queryAnalyzer,
		scoring:        config.DefaultScoring(),
		logger:         logger,
		maxConcurrency: 3,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reranker = NewReranker(scorer, queryAnalyzer.Lexicon(), s.scoring, logger)
	return s
}

// Search runs one request through intake, retrieval, hydration, reranking and
// diversity post-processing.
func (s *Searcher) Search(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	if req.Query == "" {
		return nil, types.ErrEmptyQuery
	}
	if req.TopK <= 0 {
		return nil, types.ErrInvalidTopK
	}
	if _, err := types.ParseSearchType(string(req.SearchType)); err != nil {
		return nil, err
	}

	intent := s.analyzer.Analyze(req.Query)

	overfetch := s.scoring.OverfetchFactor
	if overfetch < 1 {
		overfetch = 1
	}
	internalK := req.TopK * overfetch

	candidates, err := s.retrieve(ctx, req, internalK)
	if err != nil {
		return nil, err
	}

	s.hydrate(ctx, candidates)

	reranked := false
	if req.UseReranking && len(candidates) > 0 {
		candidates = s.reranker.Rerank(ctx, req.Query, candidates, intent)
		reranked = true
	}

	if req.Diversify || intent.RequiresMultipleDocs {
		candidates = diversify(candidates, req.TopK)
	}

	if len(candidates) > req.TopK {
		candidates = candidates[:req.TopK]
	}

	for _, c := range candidates {
		c.Explanation = explain(c)
	}

	elapsed := time.Since(start)
	s.logger.Debug("search completed",
		"search_type", req.SearchType,
		"top_k", req.TopK,
		"results", len(candidates),
		"reranked", reranked,
		"took", elapsed,
	)

	return &Response{
		Query:            req.Query,
		SearchType:       req.SearchType,
		Results:          candidates,
		TotalResults:     len(candidates),
		RerankingApplied: reranked,
		Intent:           intent,
		TookMS:           elapsed.Milliseconds(),
	}, nil
}

// retrieve dispatches to the strategy implementations. The switch is
// exhaustive over the SearchType constants.
func (s *Searcher) retrieve(ctx context.Context, req *Request, limit int) ([]*types.CandidateResult, error) {
	switch req.SearchType {
	case types.SearchTypeVector:
		embedding, err := s.queryEmbedding(ctx, req.Query)
		if err != nil {
			return nil, err
		}
		return s.vectorSearch(ctx, embedding, limit)

	case types.SearchTypeGraph:
		return s.graphSearch(ctx, req.Query, limit)

	case types.SearchTypeFullText:
		return s.fullTextSearch(ctx, req.Query, limit)

	case types.SearchTypeHybrid:
		embedding, err := s.queryEmbedding(ctx, req.Query)
		if err != nil {
			return nil, err
		}
		return s.hybridSearch(ctx, req.Query, embedding, req.Weights, limit)

	case types.SearchTypeCommunity:
		embedding, err := s.queryEmbedding(ctx, req.Query)
		if err != nil {
			return nil, err
		}
		return s.communitySearch(ctx, req.Query, embedding, req.CommunityWeight, limit)

	default:
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidSearchType, req.SearchType)
	}
}

// queryEmbedding embeds the query, failing fast when no embedder is wired.
func (s *Searcher) queryEmbedding(ctx context.Context, query string) ([]float32, error) {
	if s.embedder == nil {
		return nil, ErrEmbeddingUnavailable
	}
	embedding, err := s.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	return embedding, nil
}

// hydrate loads entities and document metadata for candidates produced by
// fast paths. Hydration failures degrade that candidate, not the search.
func (s *Searcher) hydrate(ctx context.Context, candidates []*types.CandidateResult) {
	for _, c := range candidates {
		if !c.Hydrated {
			cwe, err := s.store.HydrateChunk(ctx, c.ChunkID)
			if err != nil {
				s.logger.Warn("chunk hydration failed", "chunk_id", c.ChunkID, "error", err)
			} else {
				c.Entities = cwe.Entities
				fillMetadata(c, cwe.Chunk)
				c.Hydrated = true
			}
		}
		if c.Metadata.Filename == "" && c.DocumentID != "" {
			doc, err := s.store.GetDocument(ctx, c.DocumentID)
			if err != nil {
				s.logger.Debug("document lookup failed", "document_id", c.DocumentID, "error", err)
				continue
			}
			c.Metadata.Filename = doc.Filename
		}
	}
}
