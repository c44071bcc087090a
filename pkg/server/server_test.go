package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrievalworks/bankgraph/pkg/analyzer"
	"github.com/retrievalworks/bankgraph/pkg/config"
	"github.com/retrievalworks/bankgraph/pkg/graphstore"
	"github.com/retrievalworks/bankgraph/pkg/ner"
	"github.com/retrievalworks/bankgraph/pkg/search"
	"github.com/retrievalworks/bankgraph/pkg/types"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host: "localhost",
			Port: 8080,
			Mode: "test",
		},
	}
}

func testServer(t *testing.T) *Server {
	t.Helper()

	store := graphstore.NewMemoryStore()
	store.AddDocument(&types.Document{ID: "doc1", Filename: "rates.pdf"})
	store.AddChunk(&types.Chunk{
		ID:         "c1",
		DocumentID: "doc1",
		Text:       "The interest rate is 4.5%",
		PageNum:    1,
	})

	lexicon := analyzer.DefaultLexicon()
	extractor := ner.NewCombined(nil, ner.NewPatternExtractor(lexicon.SurfaceForms()), slog.Default())
	searcher := search.NewSearcher(store, nil, nil, extractor, analyzer.New(lexicon), slog.Default())

	srv := New(testConfig(), searcher, nil, nil, slog.Default())
	srv.Setup()
	return srv
}

func postSearch(t *testing.T, srv *Server, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestSetupInitializesServer(t *testing.T) {
	srv := New(testConfig(), nil, nil, nil, slog.Default())
	srv.Setup()

	require.NotNil(t, srv.Router())
	assert.Equal(t, "localhost:8080", srv.server.Addr)
}

func TestHealthEndpoints(t *testing.T) {
	srv := testServer(t)

	for _, path := range []string{"/health", "/ready", "/live"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "path %s", path)
	}
}

func TestSearchEndpoint(t *testing.T) {
	srv := testServer(t)

	w := postSearch(t, srv, map[string]any{
		"query":         "interest rate",
		"search_type":   "full_text",
		"top_k":         5,
		"use_reranking": false,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp search.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.TotalResults)
	assert.Equal(t, "c1", resp.Results[0].ChunkID)
	assert.False(t, resp.RerankingApplied)
}

func TestSearchEndpointRejectsInvalidSearchType(t *testing.T) {
	srv := testServer(t)

	w := postSearch(t, srv, map[string]any{
		"query":       "interest rate",
		"search_type": "fuzzy",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchEndpointRejectsEmptyQuery(t *testing.T) {
	srv := testServer(t)

	w := postSearch(t, srv, map[string]any{
		"query":       "",
		"search_type": "full_text",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchEndpointEmbeddingUnavailable(t *testing.T) {
	srv := testServer(t)

	// No embedder is wired, so vector mode must fail with 503 while the
	// full-text route above keeps working.
	w := postSearch(t, srv, map[string]any{
		"query":       "interest rate",
		"search_type": "vector",
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequestIDHeaderAssigned(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestStopWithoutStart(t *testing.T) {
	srv := testServer(t)
	assert.NoError(t, srv.Stop(context.Background()))
}
