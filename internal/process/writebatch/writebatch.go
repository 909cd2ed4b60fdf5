// Package writebatch accumulates a run's database writes so they can be
// persisted in one transaction at the end of the run.
package writebatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/snoopa/firehose/internal/core/domain"
	"github.com/snoopa/firehose/internal/core/ports"
	"github.com/snoopa/firehose/internal/platform/observability"
)

// Row kinds for metrics.
const (
	rowKindProcessed = "processed"
	rowKindLog       = "log"
	rowKindChecked   = "last_checked"
)

// Batch is safe for concurrent use.
type Batch struct {
	mu        sync.Mutex
	processed []domain.ProcessedHeadline
	seenPairs map[string]struct{}
	logs      []domain.LogEntry
	touched   []string
	seenItems map[string]struct{}
}

func New() *Batch {
	return &Batch{
		seenPairs: make(map[string]struct{}),
		seenItems: make(map[string]struct{}),
	}
}

// MarkProcessed stages a processed row. Repeated pairs are staged once.
func (b *Batch) MarkProcessed(fingerprint, watchItemID string, at time.Time) {
	key := domain.PairKey(fingerprint, watchItemID)

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.seenPairs[key]; ok {
		return
	}

	b.seenPairs[key] = struct{}{}
	b.processed = append(b.processed, domain.ProcessedHeadline{
		Fingerprint: fingerprint,
		WatchItemID: watchItemID,
		CreatedAt:   at,
	})
}

// AddLog stages a scent log entry.
func (b *Batch) AddLog(entry domain.LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.logs = append(b.logs, entry)
}

// Touch stages a last_checked update for the item.
func (b *Batch) Touch(watchItemID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.seenItems[watchItemID]; ok {
		return
	}

	b.seenItems[watchItemID] = struct{}{}
	b.touched = append(b.touched, watchItemID)
}

// Writes snapshots the staged rows. Touched items get checkedAt.
func (b *Batch) Writes(checkedAt time.Time) domain.BatchWrites {
	b.mu.Lock()
	defer b.mu.Unlock()

	return domain.BatchWrites{
		Processed:      append([]domain.ProcessedHeadline(nil), b.processed...),
		Logs:           append([]domain.LogEntry(nil), b.logs...),
		CheckedItemIDs: append([]string(nil), b.touched...),
		CheckedAt:      checkedAt,
	}
}

// Flush writes the staged rows through w and reports which processed pairs
// were inserted. An empty batch performs no write.
func (b *Batch) Flush(ctx context.Context, w ports.BatchWriter, checkedAt time.Time) (domain.FlushResult, error) {
	writes := b.Writes(checkedAt)
	if writes.IsEmpty() {
		return domain.FlushResult{}, nil
	}

	start := time.Now()

	res, err := w.FlushBatch(ctx, writes)
	if err != nil {
		return domain.FlushResult{}, fmt.Errorf("flush write batch: %w", err)
	}

	observability.BatchFlushDuration.Observe(time.Since(start).Seconds())
	observability.BatchRows.WithLabelValues(rowKindProcessed).Add(float64(len(res.Inserted)))
	observability.BatchRows.WithLabelValues(rowKindLog).Add(float64(res.Logs))
	observability.BatchRows.WithLabelValues(rowKindChecked).Add(float64(len(writes.CheckedItemIDs)))

	return res, nil
}
