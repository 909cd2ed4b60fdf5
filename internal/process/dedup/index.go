package dedup

import (
	"context"
	"fmt"
)

// Loader bulk-reads every processed pair for the given watch items as
// composite keys.
type Loader interface {
	LoadProcessedKeys(ctx context.Context, watchItemIDs []string) ([]string, error)
}

// ProcessedIndex is the cross-run dedup gate, loaded once per run.
// It is not safe for concurrent use; the pipeline owns it from one goroutine.
type ProcessedIndex struct {
	keys map[string]struct{}
}

// NewProcessedIndex returns an empty index.
func NewProcessedIndex() *ProcessedIndex {
	return &ProcessedIndex{keys: make(map[string]struct{})}
}

// LoadProcessedIndex builds the index with a single bulk read. No read is
// issued when there are no items.
func LoadProcessedIndex(ctx context.Context, loader Loader, watchItemIDs []string) (*ProcessedIndex, error) {
	idx := NewProcessedIndex()
	if len(watchItemIDs) == 0 {
		return idx, nil
	}

	keys, err := loader.LoadProcessedKeys(ctx, watchItemIDs)
	if err != nil {
		return nil, fmt.Errorf("load processed headlines: %w", err)
	}

	for _, k := range keys {
		idx.keys[k] = struct{}{}
	}

	return idx, nil
}

// Seen reports whether the pair was already evaluated.
func (p *ProcessedIndex) Seen(fingerprint, watchItemID string) bool {
	_, ok := p.keys[Key(fingerprint, watchItemID)]
	return ok
}

// Add records a pair evaluated during the current run.
func (p *ProcessedIndex) Add(fingerprint, watchItemID string) {
	p.keys[Key(fingerprint, watchItemID)] = struct{}{}
}

func (p *ProcessedIndex) Len() int {
	return len(p.keys)
}
