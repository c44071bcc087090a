package ner

import (
	"context"
	"fmt"
	"sync"

	"github.com/soundprediction/go-rust-bert/pkg/rustbert"
)

// RustBertExtractor wraps a go-rust-bert NER model. The model loads lazily on
// first use and is shared; Predict is serialized behind a mutex because the
// underlying runtime is not safe for concurrent single calls.
type RustBertExtractor struct {
	modelID string
	model   *rustbert.NERModel
	mu      sync.Mutex
}

// NewRustBertExtractor creates a lazy-loading NER extractor. modelID empty
// means the default BERT NER model.
func NewRustBertExtractor(modelID string) *RustBertExtractor {
	return &RustBertExtractor{modelID: modelID}
}

// load loads the NER model. Callers must hold the mutex.
func (r *RustBertExtractor) load() error {
	if r.model != nil {
		return nil
	}

	if r.modelID != "" {
		modelPath, configPath, vocabPath, mergesPath, err := rustbert.DownloadArtifacts(r.modelID, "")
		if err != nil {
			return fmt.Errorf("failed to download artifacts for %s: %w", r.modelID, err)
		}
		m, err := rustbert.NewNERModelFromFiles(modelPath, configPath, vocabPath, mergesPath, rustbert.ModelTypeBert)
		if err != nil {
			return fmt.Errorf("failed to create custom NER model: %w", err)
		}
		r.model = m
		return nil
	}

	m, err := rustbert.NewNERModel()
	if err != nil {
		return fmt.Errorf("failed to create NER model: %w", err)
	}
	r.model = m
	return nil
}

// ExtractTerms implements Extractor.
func (r *RustBertExtractor) ExtractTerms(ctx context.Context, query string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(); err != nil {
		return nil, err
	}

	results, err := r.model.Predict(query)
	if err != nil {
		return nil, fmt.Errorf("NER prediction failed: %w", err)
	}

	terms := make([]string, 0, len(results))
	for _, res := range results {
		terms = append(terms, res.Word)
	}
	return dedupTerms(terms), nil
}

// Close releases the loaded model.
func (r *RustBertExtractor) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.model != nil {
		r.model.Close()
		r.model = nil
	}
}
