package graphstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrievalworks/bankgraph/pkg/types"
)

func intPtr(v int) *int { return &v }

func seedStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()

	store.AddDocument(&types.Document{ID: "doc-1", Filename: "term_deposit_guide.pdf", TotalPages: 12})
	store.AddDocument(&types.Document{ID: "doc-2", Filename: "fca_handbook.pdf", TotalPages: 30})

	store.AddChunk(&types.Chunk{
		ID:         "chunk-1",
		DocumentID: "doc-1",
		Text:       "A term deposit is a fixed-term investment with a guaranteed interest rate.",
		PageNum:    2,
		Embedding:  []float32{1, 0, 0},
		ChunkType:  types.ChunkTypeDefinition,
	},
		types.Entity{Text: "term deposit", Type: "PRODUCT", CommunityID: intPtr(1)},
	)
	store.AddChunk(&types.Chunk{
		ID:         "chunk-2",
		DocumentID: "doc-2",
		Text:       "Foreign currency accounts carry exchange rate risk.",
		PageNum:    5,
		Embedding:  []float32{0, 1, 0},
		ChunkType:  types.ChunkTypeContent,
	},
		types.Entity{Text: "foreign currency account", Type: "PRODUCT", CommunityID: intPtr(2)},
		types.Entity{Text: "exchange rate risk", Type: "CONCEPT", CommunityID: intPtr(2)},
	)
	return store
}

func TestMemoryStoreVectorSearch(t *testing.T) {
	store := seedStore(t)

	results, err := store.SearchChunksByVector(context.Background(), []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "chunk-1", results[0].Chunk.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.InDelta(t, 0.0, results[1].Score, 1e-9)
}

func TestMemoryStoreVectorSearchRespectsTopK(t *testing.T) {
	store := seedStore(t)

	results, err := store.SearchChunksByVector(context.Background(), []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "chunk-1", results[0].Chunk.ID)
}

func TestMemoryStoreChunksByEntityTerm(t *testing.T) {
	store := seedStore(t)

	results, err := store.ChunksByEntityTerm(context.Background(), "Term Deposit", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "chunk-1", results[0].Chunk.ID)
	require.Len(t, results[0].Entities, 1)
	assert.Equal(t, "term deposit", results[0].Entities[0].Text)
}

func TestMemoryStoreChunksByText(t *testing.T) {
	store := seedStore(t)

	results, err := store.ChunksByText(context.Background(), "exchange rate risk", nil, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "chunk-2", results[0].ID)

	results, err = store.ChunksByText(context.Background(), "no such phrase", []string{"deposit"}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "chunk-1", results[0].ID)
}

func TestMemoryStoreChunksByTextPhraseHitsSurviveLimit(t *testing.T) {
	store := NewMemoryStore()
	store.AddChunk(&types.Chunk{ID: "c1", DocumentID: "d1", Text: "rate card applies"})
	store.AddChunk(&types.Chunk{ID: "c2", DocumentID: "d1", Text: "rate list updated"})
	store.AddChunk(&types.Chunk{ID: "c3", DocumentID: "d1", Text: "The interest rate is 4.5%"})

	results, err := store.ChunksByText(context.Background(), "interest rate", []string{"interest", "rate"}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c3", results[0].ID)

	// With room for all three, the phrase hit still leads.
	results, err = store.ChunksByText(context.Background(), "interest rate", []string{"interest", "rate"}, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "c3", results[0].ID)
}

func TestMemoryStoreChunksByCommunities(t *testing.T) {
	store := seedStore(t)

	results, err := store.ChunksByCommunities(context.Background(), []int{2}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "chunk-2", results[0].Chunk.ID)

	results, err = store.ChunksByCommunities(context.Background(), []int{99}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryStoreEntitiesMatchingTerm(t *testing.T) {
	store := seedStore(t)

	entities, err := store.EntitiesMatchingTerm(context.Background(), "risk")
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "exchange rate risk", entities[0].Text)
}

func TestMemoryStoreNotFound(t *testing.T) {
	store := seedStore(t)

	_, err := store.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	_, err = store.HydrateChunk(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrChunkNotFound)
}

// countingStore counts calls so cache hits are observable.
type countingStore struct {
	*MemoryStore
	documentCalls int
	hydrateCalls  int
}

func (s *countingStore) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	s.documentCalls++
	return s.MemoryStore.GetDocument(ctx, id)
}

func (s *countingStore) HydrateChunk(ctx context.Context, id string) (*ChunkWithEntities, error) {
	s.hydrateCalls++
	return s.MemoryStore.HydrateChunk(ctx, id)
}

func TestCachedStoreCachesLookups(t *testing.T) {
	inner := &countingStore{MemoryStore: seedStore(t)}
	cached, err := NewCachedStore(inner, 16, 16)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		doc, err := cached.GetDocument(context.Background(), "doc-1")
		require.NoError(t, err)
		assert.Equal(t, "term_deposit_guide.pdf", doc.Filename)

		cwe, err := cached.HydrateChunk(context.Background(), "chunk-2")
		require.NoError(t, err)
		assert.Len(t, cwe.Entities, 2)
	}

	assert.Equal(t, 1, inner.documentCalls)
	assert.Equal(t, 1, inner.hydrateCalls)
}

func TestCachedStoreDoesNotCacheErrors(t *testing.T) {
	inner := &countingStore{MemoryStore: seedStore(t)}
	cached, err := NewCachedStore(inner, 16, 16)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := cached.GetDocument(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrDocumentNotFound)
	}
	assert.Equal(t, 2, inner.documentCalls)
}
