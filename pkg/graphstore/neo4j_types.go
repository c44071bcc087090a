package graphstore

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/retrievalworks/bankgraph/pkg/types"
)

// Property extraction helpers. Neo4j stores integers as int64 and lists as
// []any regardless of how they were written, so everything narrows here.

func getString(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func getInt(props map[string]any, key string) int {
	switch v := props[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func getFloat(props map[string]any, key string) float64 {
	switch v := props[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

func getBool(props map[string]any, key string) bool {
	if v, ok := props[key].(bool); ok {
		return v
	}
	return false
}

func getStringSlice(props map[string]any, key string) []string {
	list, ok := props[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func getFloat32Slice(props map[string]any, key string) []float32 {
	list, ok := props[key].([]any)
	if !ok {
		return nil
	}
	out := make([]float32, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case float64:
			out = append(out, float32(v))
		case float32:
			out = append(out, v)
		case int64:
			out = append(out, float32(v))
		}
	}
	return out
}

func asFloat(v any) float64 {
	switch f := v.(type) {
	case float64:
		return f
	case float32:
		return float64(f)
	case int64:
		return float64(f)
	}
	return 0
}

func chunkFromNode(node dbtype.Node) *types.Chunk {
	props := node.Props
	return &types.Chunk{
		ID:              getString(props, "id"),
		DocumentID:      getString(props, "document_id"),
		Text:            getString(props, "text"),
		PageNum:         getInt(props, "page_num"),
		Embedding:       getFloat32Slice(props, "embedding"),
		ChunkType:       types.ChunkType(getString(props, "chunk_type")),
		SemanticDensity: getFloat(props, "semantic_density"),
		HasDefinitions:  getBool(props, "has_definitions"),
		HasExamples:     getBool(props, "has_examples"),
		Keywords:        getStringSlice(props, "keywords"),
	}
}

func entityFromNode(node dbtype.Node) types.Entity {
	props := node.Props
	entity := types.Entity{
		Text:         getString(props, "text"),
		Type:         getString(props, "type"),
		IsBridgeNode: getBool(props, "is_bridge_node"),
	}
	if _, ok := props["community_id"]; ok {
		id := getInt(props, "community_id")
		entity.CommunityID = &id
	}
	if _, ok := props["degree_centrality"]; ok {
		dc := getFloat(props, "degree_centrality")
		entity.DegreeCentrality = &dc
	}
	return entity
}

func documentFromNode(node dbtype.Node) *types.Document {
	props := node.Props
	return &types.Document{
		ID:           getString(props, "id"),
		Filename:     getString(props, "filename"),
		TotalPages:   getInt(props, "total_pages"),
		Division:     getString(props, "division"),
		Category:     getString(props, "category"),
		ProductScope: getStringSlice(props, "product_scope"),
		Title:        getString(props, "title"),
		Keywords:     getStringSlice(props, "keywords"),
	}
}
