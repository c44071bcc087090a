package bankgraph

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/retrievalworks/bankgraph/pkg/analyzer"
	"github.com/retrievalworks/bankgraph/pkg/config"
	"github.com/retrievalworks/bankgraph/pkg/crossencoder"
	"github.com/retrievalworks/bankgraph/pkg/embedder"
	"github.com/retrievalworks/bankgraph/pkg/graphstore"
	"github.com/retrievalworks/bankgraph/pkg/logger"
	"github.com/retrievalworks/bankgraph/pkg/ner"
	"github.com/retrievalworks/bankgraph/pkg/search"
)

// Client wires the graph store, embedding and cross-encoder providers, the
// entity extractor and the query analyzer into a ready-to-use search engine.
// It owns every resource it opens and releases them all in Close.
type Client struct {
	config    *config.Config
	logger    *slog.Logger
	store     graphstore.GraphStore
	neo4j     *graphstore.Neo4jStore
	embedder  embedder.Client
	scorer    crossencoder.Client
	model     *ner.RustBertExtractor
	extractor ner.Extractor
	analyzer  *analyzer.Analyzer
	searcher  *search.Searcher
}

// NewClient builds a client from configuration. A nil cfg loads configuration
// from file and environment, a nil logger gets one built from cfg.Log.
func NewClient(cfg *config.Config, log *slog.Logger) (*Client, error) {
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	if log == nil {
		log = logger.New(cfg.Log)
	}

	timeout := time.Duration(cfg.Database.QueryTimeoutMS) * time.Millisecond
	neo4jStore, err := graphstore.NewNeo4jStore(
		cfg.Database.URI,
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Database,
		timeout,
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to graph database: %w", err)
	}

	store, err := graphstore.NewCachedStore(neo4jStore, cfg.Cache.DocumentCapacity, cfg.Cache.HydrationCapacity)
	if err != nil {
		neo4jStore.Close()
		return nil, fmt.Errorf("building store cache: %w", err)
	}

	embedClient, err := embedder.NewClient(
		embedder.Provider(cfg.Embedding.Provider),
		embedder.Config{
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
		},
	)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("building embedding client: %w", err)
	}

	scorer, err := newScorer(cfg, log)
	if err != nil {
		embedClient.Close()
		store.Close()
		return nil, fmt.Errorf("building cross-encoder client: %w", err)
	}

	lexicon := analyzer.DefaultLexicon()
	queryAnalyzer := analyzer.New(lexicon)

	var (
		model          *ner.RustBertExtractor
		modelExtractor ner.Extractor
	)
	if cfg.NER.Enabled {
		model = ner.NewRustBertExtractor(cfg.NER.ModelID)
		modelExtractor = model
	}
	patterns := ner.NewPatternExtractor(lexicon.SurfaceForms())
	extractor := ner.NewCombined(modelExtractor, patterns, log)

	searcher := search.NewSearcher(
		store,
		embedClient,
		scorer,
		extractor,
		queryAnalyzer,
		log,
		search.WithScoring(cfg.Scoring),
	)

	return &Client{
		config:    cfg,
		logger:    log,
		store:     store,
		neo4j:     neo4jStore,
		embedder:  embedClient,
		scorer:    scorer,
		model:     model,
		extractor: extractor,
		analyzer:  queryAnalyzer,
		searcher:  searcher,
	}, nil
}

// newScorer builds the configured cross-encoder, optionally wrapped in a
// circuit breaker.
func newScorer(cfg *config.Config, log *slog.Logger) (crossencoder.Client, error) {
	provider := crossencoder.Provider(cfg.CrossEncoder.Provider)
	ceCfg := crossencoder.DefaultConfig(provider)
	if cfg.CrossEncoder.Model != "" {
		ceCfg.Model = cfg.CrossEncoder.Model
	}
	ceCfg.APIKey = cfg.CrossEncoder.APIKey
	if cfg.CrossEncoder.BaseURL != "" {
		ceCfg.BaseURL = cfg.CrossEncoder.BaseURL
	}

	scorer, err := crossencoder.NewClient(provider, ceCfg)
	if err != nil {
		return nil, err
	}
	if cfg.CircuitBreaker.Enabled {
		return crossencoder.NewBreakerClient(scorer, cfg.CircuitBreaker, log, "cross-encoder"), nil
	}
	return scorer, nil
}

// Search runs one retrieval request end to end.
func (c *Client) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	return c.searcher.Search(ctx, req)
}

// Searcher returns the underlying search engine, for callers that want to
// mount it behind their own transport.
func (c *Client) Searcher() *search.Searcher {
	return c.searcher
}

// Store returns the graph store, including its caching layer.
func (c *Client) Store() graphstore.GraphStore {
	return c.store
}

// Ping verifies connectivity to the graph database.
func (c *Client) Ping(ctx context.Context) error {
	return c.neo4j.Ping(ctx)
}

// Close releases the database driver, the inference models and the caches.
// It reports the first error encountered but attempts every release.
func (c *Client) Close() error {
	var firstErr error
	if c.model != nil {
		c.model.Close()
	}
	if err := c.scorer.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := c.embedder.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := c.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
