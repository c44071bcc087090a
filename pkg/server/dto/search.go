package dto

import (
	"errors"
	"strings"

	"github.com/retrievalworks/bankgraph/pkg/search"
	"github.com/retrievalworks/bankgraph/pkg/types"
)

// MaxTopK caps how many results a single request may ask for.
const MaxTopK = 100

// DefaultTopK applies when the request omits top_k.
const DefaultTopK = 10

// SearchQuery is the POST /search request body.
type SearchQuery struct {
	Query           string             `json:"query"`
	SearchType      string             `json:"search_type"`
	TopK            int                `json:"top_k"`
	Weights         map[string]float64 `json:"weights,omitempty"`
	CommunityWeight *float64           `json:"community_weight,omitempty"`
	UseReranking    *bool              `json:"use_reranking,omitempty"`
	Diversify       bool               `json:"diversify,omitempty"`
}

// Validate checks the request and converts it to a search request. Validation
// happens entirely before any graph or model call.
func (q *SearchQuery) Validate() (*search.Request, error) {
	if strings.TrimSpace(q.Query) == "" {
		return nil, types.ErrEmptyQuery
	}

	if q.SearchType == "" {
		q.SearchType = string(types.SearchTypeHybrid)
	}
	searchType, err := types.ParseSearchType(q.SearchType)
	if err != nil {
		return nil, err
	}

	if q.TopK == 0 {
		q.TopK = DefaultTopK
	}
	if q.TopK < 0 {
		return nil, types.ErrInvalidTopK
	}
	if q.TopK > MaxTopK {
		return nil, errors.New("top_k exceeds maximum of 100")
	}

	req := search.NewRequest(q.Query, searchType, q.TopK)
	req.Diversify = q.Diversify
	req.CommunityWeight = q.CommunityWeight
	if q.UseReranking != nil {
		req.UseReranking = *q.UseReranking
	}

	if len(q.Weights) > 0 {
		w := &search.Weights{
			Vector:   q.Weights["vector"],
			Graph:    q.Weights["graph"],
			FullText: q.Weights["full_text"],
		}
		sum := w.Vector + w.Graph + w.FullText
		if sum < 0.99 || sum > 1.01 {
			return nil, errors.New("weights must sum to 1.0")
		}
		req.Weights = w
	}

	return req, nil
}

// ErrorResponse is the error body for all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
