package writebatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snoopa/firehose/internal/core/domain"
	"github.com/snoopa/firehose/internal/core/ports/mocks"
)

func TestBatch_DedupesPairsAndItems(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b := New()

	b.MarkProcessed("fp1", "w1", now)
	b.MarkProcessed("fp1", "w1", now)
	b.MarkProcessed("fp1", "w2", now)
	b.Touch("w1")
	b.Touch("w1")
	b.AddLog(domain.LogEntry{WatchItemID: "w1", Action: "hit", Verified: true})

	w := b.Writes(now)

	assert.Len(t, w.Processed, 2)
	assert.Equal(t, []string{"w1"}, w.CheckedItemIDs)
	assert.Len(t, w.Logs, 1)
	assert.Equal(t, now, w.CheckedAt)
}

func TestBatch_FlushEmptySkipsWrite(t *testing.T) {
	store := mocks.NewStore()

	_, err := New().Flush(context.Background(), store, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 0, store.Flushes)
}

func TestBatch_FlushWritesOnce(t *testing.T) {
	now := time.Now().UTC()
	store := mocks.NewStore()
	store.AddWatchItem(domain.WatchItem{ID: "w1", Status: domain.WatchStatusActive})

	b := New()
	b.MarkProcessed("fp1", "w1", now)
	b.Touch("w1")

	res, err := b.Flush(context.Background(), store, now)
	require.NoError(t, err)

	assert.Len(t, res.Inserted, 1)
	assert.Equal(t, 1, store.Flushes)
	assert.Len(t, store.ProcessedPairs(), 1)

	item, ok := store.WatchItem("w1")
	require.True(t, ok)
	assert.Equal(t, now, item.LastChecked)
}

func TestBatch_FlushError(t *testing.T) {
	store := mocks.NewStore()
	store.FlushBatchFn = func(context.Context, domain.BatchWrites) (domain.FlushResult, error) {
		return domain.FlushResult{}, mocks.ErrFlushFailed
	}

	b := New()
	b.Touch("w1")

	_, err := b.Flush(context.Background(), store, time.Now())
	assert.ErrorIs(t, err, mocks.ErrFlushFailed)
}

func TestBatch_FlushSkipsLogsOfClaimedPairs(t *testing.T) {
	now := time.Now().UTC()
	store := mocks.NewStore()

	earlier := New()
	earlier.MarkProcessed("fp1", "w1", now)

	_, err := earlier.Flush(context.Background(), store, now)
	require.NoError(t, err)

	b := New()
	b.MarkProcessed("fp1", "w1", now)
	b.AddLog(domain.LogEntry{WatchItemID: "w1", Fingerprint: "fp1", Action: "old", Verified: true})
	b.MarkProcessed("fp2", "w1", now)
	b.AddLog(domain.LogEntry{WatchItemID: "w1", Fingerprint: "fp2", Action: "new", Verified: true})

	res, err := b.Flush(context.Background(), store, now)
	require.NoError(t, err)

	require.Len(t, res.Inserted, 1)
	assert.Equal(t, "fp2", res.Inserted[0].Fingerprint)
	assert.Equal(t, 1, res.Logs)

	logs := store.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, "new", logs[0].Action)
}
