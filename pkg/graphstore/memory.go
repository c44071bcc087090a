package graphstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/retrievalworks/bankgraph/pkg/types"
	"github.com/retrievalworks/bankgraph/pkg/utils"
)

// MemoryStore is an in-memory GraphStore for tests and local development. Scans
// follow insertion order so results are deterministic.
type MemoryStore struct {
	mu        sync.RWMutex
	documents map[string]*types.Document
	chunks    []*types.Chunk
	chunkIdx  map[string]int
	mentions  map[string][]types.Entity
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents: make(map[string]*types.Document),
		chunkIdx:  make(map[string]int),
		mentions:  make(map[string][]types.Entity),
	}
}

// AddDocument registers a document.
func (s *MemoryStore) AddDocument(doc *types.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = doc
}

// AddChunk registers a chunk and the entities it mentions.
func (s *MemoryStore) AddChunk(chunk *types.Chunk, entities ...types.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.chunkIdx[chunk.ID]; ok {
		s.chunks[idx] = chunk
	} else {
		s.chunkIdx[chunk.ID] = len(s.chunks)
		s.chunks = append(s.chunks, chunk)
	}
	s.mentions[chunk.ID] = entities
}

// SearchChunksByVector ranks chunks by cosine similarity.
func (s *MemoryStore) SearchChunksByVector(_ context.Context, embedding []float32, topK int) ([]*ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]*ScoredChunk, 0, len(s.chunks))
	for _, chunk := range s.chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		scored = append(scored, &ScoredChunk{
			Chunk: chunk,
			Score: utils.CosineSimilarity(embedding, chunk.Embedding),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// ChunksByEntityTerm finds chunks mentioning entities matching the term.
func (s *MemoryStore) ChunksByEntityTerm(_ context.Context, term string, limit int) ([]*ChunkWithEntities, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(term)
	results := make([]*ChunkWithEntities, 0)
	for _, chunk := range s.chunks {
		entities := s.mentions[chunk.ID]
		matched := false
		for _, e := range entities {
			if strings.Contains(strings.ToLower(e.Text), needle) {
				matched = true
				break
			}
		}
		if matched {
			results = append(results, &ChunkWithEntities{Chunk: chunk, Entities: entities})
			if len(results) >= limit {
				break
			}
		}
	}
	return results, nil
}

// ChunksByText finds chunks containing the phrase or any of the words. Phrase
// hits come before word-only hits so truncation to limit never drops a phrase
// match in favor of a weaker one.
func (s *MemoryStore) ChunksByText(_ context.Context, phrase string, words []string, limit int) ([]*types.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	phraseHits := make([]*types.Chunk, 0)
	wordHits := make([]*types.Chunk, 0)
	for _, chunk := range s.chunks {
		text := strings.ToLower(chunk.Text)
		if phrase != "" && strings.Contains(text, phrase) {
			phraseHits = append(phraseHits, chunk)
			continue
		}
		for _, w := range words {
			if strings.Contains(text, w) {
				wordHits = append(wordHits, chunk)
				break
			}
		}
	}

	results := append(phraseHits, wordHits...)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// EntitiesMatchingTerm finds entities whose surface form matches the term.
func (s *MemoryStore) EntitiesMatchingTerm(_ context.Context, term string) ([]types.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(term)
	seen := make(map[string]bool)
	entities := make([]types.Entity, 0)
	for _, chunk := range s.chunks {
		for _, e := range s.mentions[chunk.ID] {
			key := strings.ToLower(e.Text) + "\x00" + e.Type
			if seen[key] {
				continue
			}
			if strings.Contains(strings.ToLower(e.Text), needle) {
				seen[key] = true
				entities = append(entities, e)
			}
		}
	}
	return entities, nil
}

// ChunksByCommunities finds chunks mentioning entities in the communities.
func (s *MemoryStore) ChunksByCommunities(_ context.Context, communityIDs []int, limit int) ([]*ChunkWithEntities, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[int]bool, len(communityIDs))
	for _, id := range communityIDs {
		wanted[id] = true
	}

	results := make([]*ChunkWithEntities, 0)
	for _, chunk := range s.chunks {
		entities := s.mentions[chunk.ID]
		matched := false
		for _, e := range entities {
			if e.CommunityID != nil && wanted[*e.CommunityID] {
				matched = true
				break
			}
		}
		if matched {
			results = append(results, &ChunkWithEntities{Chunk: chunk, Entities: entities})
			if len(results) >= limit {
				break
			}
		}
	}
	return results, nil
}

// GetDocument retrieves a document by id.
func (s *MemoryStore) GetDocument(_ context.Context, documentID string) (*types.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[documentID]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// HydrateChunk returns a chunk with its entities.
func (s *MemoryStore) HydrateChunk(_ context.Context, chunkID string) (*ChunkWithEntities, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.chunkIdx[chunkID]
	if !ok {
		return nil, ErrChunkNotFound
	}
	chunk := s.chunks[idx]
	return &ChunkWithEntities{Chunk: chunk, Entities: s.mentions[chunkID]}, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
