package graphstore

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/retrievalworks/bankgraph/pkg/types"
)

// chunkVectorIndex is the Neo4j vector index over Chunk.embedding created at
// ingestion time.
const chunkVectorIndex = "chunk_embedding"

// Neo4jStore implements GraphStore against a Neo4j database. Each call opens
// its own session and carries a query timeout so a slow query fails that
// sub-step instead of hanging the whole request.
type Neo4jStore struct {
	client   neo4j.DriverWithContext
	database string
	timeout  time.Duration
}

// NewNeo4jStore creates a Neo4j-backed graph store.
func NewNeo4jStore(uri, username, password, database string, timeout time.Duration) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if database == "" {
		database = "neo4j"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Neo4jStore{
		client:   driver,
		database: database,
		timeout:  timeout,
	}, nil
}

// read runs a query in a read transaction and returns all records.
func (s *Neo4jStore) read(ctx context.Context, query string, params map[string]any) ([]*db.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	session := s.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*db.Record), nil
}

// SearchChunksByVector queries the chunk vector index.
func (s *Neo4jStore) SearchChunksByVector(ctx context.Context, embedding []float32, topK int) ([]*ScoredChunk, error) {
	query := `
		CALL db.index.vector.queryNodes($indexName, $topK, $embedding)
		YIELD node, score
		RETURN node, score
		ORDER BY score DESC
	`
	records, err := s.read(ctx, query, map[string]any{
		"indexName": chunkVectorIndex,
		"topK":      topK,
		"embedding": embedding,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results := make([]*ScoredChunk, 0, len(records))
	for _, record := range records {
		nodeValue, found := record.Get("node")
		if !found {
			continue
		}
		node, ok := nodeValue.(dbtype.Node)
		if !ok {
			return nil, fmt.Errorf("unexpected type for chunk node: %T", nodeValue)
		}
		score, _ := record.Get("score")
		results = append(results, &ScoredChunk{
			Chunk: chunkFromNode(node),
			Score: asFloat(score),
		})
	}
	return results, nil
}

// ChunksByEntityTerm finds chunks mentioning entities matching the term.
func (s *Neo4jStore) ChunksByEntityTerm(ctx context.Context, term string, limit int) ([]*ChunkWithEntities, error) {
	query := `
		MATCH (c:Chunk)-[:MENTIONS]->(e:Entity)
		WHERE toLower(e.text) CONTAINS toLower($term)
		WITH DISTINCT c
		LIMIT $limit
		MATCH (c)-[:MENTIONS]->(all:Entity)
		RETURN c, collect(all) AS entities
	`
	records, err := s.read(ctx, query, map[string]any{"term": term, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("entity term search failed: %w", err)
	}
	return chunksWithEntitiesFromRecords(records)
}

// ChunksByText finds chunks containing the phrase or any of the words. Phrase
// hits order before word-only hits so the LIMIT never cuts a phrase match
// while keeping a weaker one.
func (s *Neo4jStore) ChunksByText(ctx context.Context, phrase string, words []string, limit int) ([]*types.Chunk, error) {
	query := `
		MATCH (c:Chunk)
		WHERE toLower(c.text) CONTAINS $phrase
		   OR any(w IN $words WHERE toLower(c.text) CONTAINS w)
		RETURN c
		ORDER BY toLower(c.text) CONTAINS $phrase DESC
		LIMIT $limit
	`
	records, err := s.read(ctx, query, map[string]any{
		"phrase": phrase,
		"words":  words,
		"limit":  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("text search failed: %w", err)
	}

	chunks := make([]*types.Chunk, 0, len(records))
	for _, record := range records {
		nodeValue, found := record.Get("c")
		if !found {
			continue
		}
		node, ok := nodeValue.(dbtype.Node)
		if !ok {
			return nil, fmt.Errorf("unexpected type for chunk node: %T", nodeValue)
		}
		chunks = append(chunks, chunkFromNode(node))
	}
	return chunks, nil
}

// EntitiesMatchingTerm finds entities whose surface form matches the term.
func (s *Neo4jStore) EntitiesMatchingTerm(ctx context.Context, term string) ([]types.Entity, error) {
	query := `
		MATCH (e:Entity)
		WHERE toLower(e.text) CONTAINS toLower($term)
		RETURN e
	`
	records, err := s.read(ctx, query, map[string]any{"term": term})
	if err != nil {
		return nil, fmt.Errorf("entity search failed: %w", err)
	}

	entities := make([]types.Entity, 0, len(records))
	for _, record := range records {
		nodeValue, found := record.Get("e")
		if !found {
			continue
		}
		node, ok := nodeValue.(dbtype.Node)
		if !ok {
			return nil, fmt.Errorf("unexpected type for entity node: %T", nodeValue)
		}
		entities = append(entities, entityFromNode(node))
	}
	return entities, nil
}

// ChunksByCommunities finds chunks mentioning entities in the communities.
func (s *Neo4jStore) ChunksByCommunities(ctx context.Context, communityIDs []int, limit int) ([]*ChunkWithEntities, error) {
	query := `
		MATCH (c:Chunk)-[:MENTIONS]->(e:Entity)
		WHERE e.community_id IN $ids
		WITH DISTINCT c
		LIMIT $limit
		MATCH (c)-[:MENTIONS]->(all:Entity)
		RETURN c, collect(all) AS entities
	`
	records, err := s.read(ctx, query, map[string]any{"ids": communityIDs, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("community search failed: %w", err)
	}
	return chunksWithEntitiesFromRecords(records)
}

// GetDocument retrieves a document by id.
func (s *Neo4jStore) GetDocument(ctx context.Context, documentID string) (*types.Document, error) {
	query := `
		MATCH (d:Document {id: $id})
		RETURN d
		LIMIT 1
	`
	records, err := s.read(ctx, query, map[string]any{"id": documentID})
	if err != nil {
		return nil, fmt.Errorf("document lookup failed: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrDocumentNotFound
	}

	nodeValue, found := records[0].Get("d")
	if !found {
		return nil, ErrDocumentNotFound
	}
	node, ok := nodeValue.(dbtype.Node)
	if !ok {
		return nil, fmt.Errorf("unexpected type for document node: %T", nodeValue)
	}
	return documentFromNode(node), nil
}

// HydrateChunk returns a chunk with its entities.
func (s *Neo4jStore) HydrateChunk(ctx context.Context, chunkID string) (*ChunkWithEntities, error) {
	query := `
		MATCH (c:Chunk {id: $id})
		OPTIONAL MATCH (c)-[:MENTIONS]->(e:Entity)
		RETURN c, collect(e) AS entities
	`
	records, err := s.read(ctx, query, map[string]any{"id": chunkID})
	if err != nil {
		return nil, fmt.Errorf("chunk hydration failed: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrChunkNotFound
	}

	results, err := chunksWithEntitiesFromRecords(records)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrChunkNotFound
	}
	return results[0], nil
}

// Ping verifies database connectivity, for readiness probes.
func (s *Neo4jStore) Ping(ctx context.Context) error {
	return s.client.VerifyConnectivity(ctx)
}

// Close releases the underlying driver.
func (s *Neo4jStore) Close() error {
	return s.client.Close(context.Background())
}

// chunksWithEntitiesFromRecords parses (c, entities) rows.
func chunksWithEntitiesFromRecords(records []*db.Record) ([]*ChunkWithEntities, error) {
	results := make([]*ChunkWithEntities, 0, len(records))
	for _, record := range records {
		nodeValue, found := record.Get("c")
		if !found {
			continue
		}
		node, ok := nodeValue.(dbtype.Node)
		if !ok {
			return nil, fmt.Errorf("unexpected type for chunk node: %T", nodeValue)
		}

		cwe := &ChunkWithEntities{Chunk: chunkFromNode(node)}

		if listValue, found := record.Get("entities"); found {
			if list, ok := listValue.([]any); ok {
				for _, item := range list {
					entityNode, ok := item.(dbtype.Node)
					if !ok {
						continue
					}
					cwe.Entities = append(cwe.Entities, entityFromNode(entityNode))
				}
			}
		}

		results = append(results, cwe)
	}
	return results, nil
}
