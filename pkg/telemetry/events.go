package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"

	"github.com/retrievalworks/bankgraph/pkg/search"
)

// SearchEvent is one completed search call, recorded for offline ranking
// analysis. Query text is stored verbatim; the corpus is internal policy
// documents, not end-user data.
type SearchEvent struct {
	ID               string    `parquet:"id"`
	Timestamp        time.Time `parquet:"timestamp"`
	Query            string    `parquet:"query"`
	SearchType       string    `parquet:"search_type"`
	TopK             int       `parquet:"top_k"`
	TotalResults     int       `parquet:"total_results"`
	RerankingApplied bool      `parquet:"reranking_applied"`
	TookMS           int64     `parquet:"took_ms"`
	TopChunkID       string    `parquet:"top_chunk_id"`
	TopScore         float64   `parquet:"top_score"`
}

// EventRecorder buffers search events and writes them to Parquet files in
// batches. Safe for concurrent use.
type EventRecorder struct {
	outputDir string
	batchSize int

	mu     sync.Mutex
	buffer []SearchEvent
}

// NewEventRecorder creates a recorder writing under outputDir.
func NewEventRecorder(outputDir string) (*EventRecorder, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}
	return &EventRecorder{
		outputDir: outputDir,
		batchSize: 256,
		buffer:    make([]SearchEvent, 0, 256),
	}, nil
}

// Record buffers one search response.
func (r *EventRecorder) Record(req *search.Request, resp *search.Response) error {
	event := SearchEvent{
		ID:               uuid.New().String(),
		Timestamp:        time.Now().UTC(),
		Query:            req.Query,
		SearchType:       string(req.SearchType),
		TopK:             req.TopK,
		TotalResults:     resp.TotalResults,
		RerankingApplied: resp.RerankingApplied,
		TookMS:           resp.TookMS,
	}
	if len(resp.Results) > 0 {
		event.TopChunkID = resp.Results[0].ChunkID
		event.TopScore = resp.Results[0].BestScore()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.buffer = append(r.buffer, event)
	if len(r.buffer) >= r.batchSize {
		return r.flush()
	}
	return nil
}

// Flush writes buffered events out. Call on shutdown.
func (r *EventRecorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flush()
}

// flush writes the buffer to a new Parquet file. Caller must hold the lock.
func (r *EventRecorder) flush() error {
	if len(r.buffer) == 0 {
		return nil
	}

	filename := fmt.Sprintf("search_events_%s_%d.parquet", time.Now().Format("20060102_150405"), time.Now().UnixNano())
	path := filepath.Join(r.outputDir, filename)

	if err := parquet.WriteFile(path, r.buffer); err != nil {
		return fmt.Errorf("failed to write search events: %w", err)
	}

	r.buffer = r.buffer[:0]
	return nil
}
