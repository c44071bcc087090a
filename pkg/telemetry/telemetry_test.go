package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrievalworks/bankgraph/pkg/search"
	"github.com/retrievalworks/bankgraph/pkg/types"
)

func parquetFiles(t *testing.T, dir, pattern string) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(dir, pattern))
	require.NoError(t, err)
	return files
}

func TestEventRecorderFlushWritesParquet(t *testing.T) {
	dir := t.TempDir()
	r, err := NewEventRecorder(dir)
	require.NoError(t, err)

	req := search.NewRequest("term deposit rates", types.SearchTypeHybrid, 5)
	resp := &search.Response{
		Query:        req.Query,
		SearchType:   req.SearchType,
		TotalResults: 1,
		TookMS:       12,
		Results: []*types.CandidateResult{
			{ChunkID: "c1", Score: 0.8},
		},
	}
	require.NoError(t, r.Record(req, resp))

	// Below the batch size nothing is written until Flush.
	assert.Empty(t, parquetFiles(t, dir, "search_events_*.parquet"))
	require.NoError(t, r.Flush())

	files := parquetFiles(t, dir, "search_events_*.parquet")
	require.Len(t, files, 1)

	rows, err := parquet.ReadFile[SearchEvent](files[0])
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "term deposit rates", rows[0].Query)
	assert.Equal(t, "hybrid", rows[0].SearchType)
	assert.Equal(t, "c1", rows[0].TopChunkID)
	assert.Equal(t, 0.8, rows[0].TopScore)
}

func TestEventRecorderFlushEmptyBufferIsNoop(t *testing.T) {
	dir := t.TempDir()
	r, err := NewEventRecorder(dir)
	require.NoError(t, err)

	require.NoError(t, r.Flush())
	assert.Empty(t, parquetFiles(t, dir, "search_events_*.parquet"))
}

func TestParquetHandlerFlushPersistsBufferedErrors(t *testing.T) {
	dir := t.TempDir()
	h, err := NewParquetHandler(slog.NewTextHandler(os.Stderr, nil), dir)
	require.NoError(t, err)

	log := slog.New(h)
	log.Error("graph query timed out")

	// Below the batch size errors stay in memory, so shutdown paths must
	// flush the handler or buffered rows are lost.
	assert.Empty(t, parquetFiles(t, dir, "search_errors_*.parquet"))
	require.NoError(t, h.Flush())
	assert.Len(t, parquetFiles(t, dir, "search_errors_*.parquet"), 1)
}

func TestParquetHandlerMirrorsErrorsOnly(t *testing.T) {
	dir := t.TempDir()
	next := slog.NewTextHandler(os.Stderr, nil)
	h, err := NewParquetHandler(next, dir)
	require.NoError(t, err)

	ctx := context.WithValue(context.Background(), types.ContextKeyRequestID, "req-42")
	log := slog.New(h)

	log.InfoContext(ctx, "routine message")
	log.ErrorContext(ctx, "search failed", "error", errors.New("boom"))
	require.NoError(t, h.Flush())

	files := parquetFiles(t, dir, "search_errors_*.parquet")
	require.Len(t, files, 1)

	rows, err := parquet.ReadFile[LogRecord](files[0])
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "ERROR", rows[0].Level)
	assert.Equal(t, "search failed", rows[0].Message)
	assert.Equal(t, "req-42", rows[0].RequestID)
	assert.Contains(t, rows[0].Attributes, "boom")
}
