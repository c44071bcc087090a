// Package graphstore provides read-only access to the property graph of
// documents, chunks and entities. The graph is owned and mutated by the
// ingestion pipeline; this engine only reads, so no locking or transaction
// discipline is needed beyond what the graph engine provides natively.
package graphstore

import (
	"context"
	"errors"

	"github.com/retrievalworks/bankgraph/pkg/types"
)

// Not-found errors. Missing records are expected during hydration of stale
// candidates and are not infrastructure failures.
var (
	ErrChunkNotFound    = errors.New("chunk not found")
	ErrDocumentNotFound = errors.New("document not found")
)

// ScoredChunk is a chunk with a store-assigned retrieval score (for vector
// search, the cosine similarity).
type ScoredChunk struct {
	Chunk *types.Chunk
	Score float64
}

// ChunkWithEntities bundles a chunk with the entities it mentions.
type ChunkWithEntities struct {
	Chunk    *types.Chunk
	Entities []types.Entity
}

// GraphStore executes read queries against the property graph and returns
// typed records. Implementations must be safe for concurrent use; every
// method must respect context cancellation and deadlines.
type GraphStore interface {
	// SearchChunksByVector returns the topK chunks most similar to the
	// query embedding, descending by cosine similarity, ties in scan order.
	SearchChunksByVector(ctx context.Context, embedding []float32, topK int) ([]*ScoredChunk, error)

	// ChunksByEntityTerm returns chunks mentioning an entity whose surface
	// form matches the term (case-insensitive substring), with their full
	// entity lists, in scan order.
	ChunksByEntityTerm(ctx context.Context, term string, limit int) ([]*ChunkWithEntities, error)

	// ChunksByText returns chunks whose lowercased text contains the
	// lowercased phrase or any of the words. Phrase hits come before
	// word-only hits, each group in scan order, so truncation to limit
	// keeps the strongest matches. Scoring is the caller's job.
	ChunksByText(ctx context.Context, phrase string, words []string, limit int) ([]*types.Chunk, error)

	// EntitiesMatchingTerm returns entities whose surface form matches the
	// term (case-insensitive substring).
	EntitiesMatchingTerm(ctx context.Context, term string) ([]types.Entity, error)

	// ChunksByCommunities returns chunks (with entities) that mention at
	// least one entity in any of the given communities, in scan order.
	ChunksByCommunities(ctx context.Context, communityIDs []int, limit int) ([]*ChunkWithEntities, error)

	// GetDocument retrieves a document by id.
	GetDocument(ctx context.Context, documentID string) (*types.Document, error)

	// HydrateChunk returns the chunk with its entities, for candidates
	// produced by fast paths that skip metadata.
	HydrateChunk(ctx context.Context, chunkID string) (*ChunkWithEntities, error)

	// Close releases all resources held by the store.
	Close() error
}
