package graphstore

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/retrievalworks/bankgraph/pkg/types"
)

// CachedStore wraps a GraphStore with LRU caches for the point lookups that
// repeat across requests: document metadata and chunk hydration. Search
// queries are never cached since their result sets depend on query text.
// Each CachedStore owns its caches, so two stores never share state.
type CachedStore struct {
	inner     GraphStore
	documents *lru.Cache[string, *types.Document]
	chunks    *lru.Cache[string, *ChunkWithEntities]
}

// NewCachedStore wraps inner with bounded caches: documentCap entries for
// document metadata and chunkCap for hydrated chunks.
func NewCachedStore(inner GraphStore, documentCap, chunkCap int) (*CachedStore, error) {
	documents, err := lru.New[string, *types.Document](documentCap)
	if err != nil {
		return nil, err
	}
	chunks, err := lru.New[string, *ChunkWithEntities](chunkCap)
	if err != nil {
		return nil, err
	}
	return &CachedStore{inner: inner, documents: documents, chunks: chunks}, nil
}

func (s *CachedStore) SearchChunksByVector(ctx context.Context, embedding []float32, topK int) ([]*ScoredChunk, error) {
	return s.inner.SearchChunksByVector(ctx, embedding, topK)
}

func (s *CachedStore) ChunksByEntityTerm(ctx context.Context, term string, limit int) ([]*ChunkWithEntities, error) {
	return s.inner.ChunksByEntityTerm(ctx, term, limit)
}

func (s *CachedStore) ChunksByText(ctx context.Context, phrase string, words []string, limit int) ([]*types.Chunk, error) {
	return s.inner.ChunksByText(ctx, phrase, words, limit)
}

func (s *CachedStore) EntitiesMatchingTerm(ctx context.Context, term string) ([]types.Entity, error) {
	return s.inner.EntitiesMatchingTerm(ctx, term)
}

func (s *CachedStore) ChunksByCommunities(ctx context.Context, communityIDs []int, limit int) ([]*ChunkWithEntities, error) {
	return s.inner.ChunksByCommunities(ctx, communityIDs, limit)
}

func (s *CachedStore) GetDocument(ctx context.Context, documentID string) (*types.Document, error) {
	if doc, ok := s.documents.Get(documentID); ok {
		return doc, nil
	}
	doc, err := s.inner.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	s.documents.Add(documentID, doc)
	return doc, nil
}

func (s *CachedStore) HydrateChunk(ctx context.Context, chunkID string) (*ChunkWithEntities, error) {
	if cwe, ok := s.chunks.Get(chunkID); ok {
		return cwe, nil
	}
	cwe, err := s.inner.HydrateChunk(ctx, chunkID)
	if err != nil {
		return nil, err
	}
	s.chunks.Add(chunkID, cwe)
	return cwe, nil
}

func (s *CachedStore) Close() error {
	s.documents.Purge()
	s.chunks.Purge()
	return s.inner.Close()
}
