package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/snoopa/firehose/internal/core/domain"
)

// RunRecord is a run audit row captured by Store.RecordRun.
type RunRecord struct {
	Stats  domain.RunStats
	Status string
	Err    error
}

// Store is a thread-safe in-memory implementation of ports.FirehoseStore.
type Store struct {
	mu            sync.RWMutex
	items         map[string]domain.WatchItem
	itemOrder     []string
	processed     map[string]domain.ProcessedHeadline
	logs          []domain.LogEntry
	notifications []domain.Notification
	tokens        []domain.PushToken
	runs          []RunRecord
	locked        bool

	// Call counters.
	ProcessedReads int
	Flushes        int
	TokenReads     int

	// ListActiveWatchItemsFn allows overriding ListActiveWatchItems behavior.
	ListActiveWatchItemsFn func(ctx context.Context) ([]domain.WatchItem, error)

	// FlushBatchFn allows overriding FlushBatch behavior.
	FlushBatchFn func(ctx context.Context, w domain.BatchWrites) (domain.FlushResult, error)

	// InsertNotificationsFn allows overriding InsertNotifications behavior.
	InsertNotificationsFn func(ctx context.Context, n []domain.Notification) error
}

// NewStore creates a new mock store.
func NewStore() *Store {
	return &Store{
		items:     make(map[string]domain.WatchItem),
		processed: make(map[string]domain.ProcessedHeadline),
	}
}

// AddWatchItem seeds a watch item.
func (s *Store) AddWatchItem(item domain.WatchItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[item.ID]; !ok {
		s.itemOrder = append(s.itemOrder, item.ID)
	}

	s.items[item.ID] = item
}

// AddPushToken seeds a device token.
func (s *Store) AddPushToken(userID, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = append(s.tokens, domain.PushToken{UserID: userID, Token: token})
}

// WatchItem returns the stored item.
func (s *Store) WatchItem(id string) (domain.WatchItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]

	return item, ok
}

// ListActiveWatchItems returns active items in insertion order.
func (s *Store) ListActiveWatchItems(ctx context.Context) ([]domain.WatchItem, error) {
	if s.ListActiveWatchItemsFn != nil {
		return s.ListActiveWatchItemsFn(ctx)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.WatchItem, 0, len(s.items))

	for _, id := range s.itemOrder {
		if item := s.items[id]; item.IsActive() {
			out = append(out, item)
		}
	}

	return out, nil
}

// LoadProcessedKeys returns composite keys for the given items.
func (s *Store) LoadProcessedKeys(_ context.Context, watchItemIDs []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ProcessedReads++

	wanted := make(map[string]bool, len(watchItemIDs))
	for _, id := range watchItemIDs {
		wanted[id] = true
	}

	var keys []string

	for key, p := range s.processed {
		if wanted[p.WatchItemID] {
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)

	return keys, nil
}

// FlushBatch applies the writes atomically. Processed pairs that already
// exist are ignored, like ON CONFLICT DO NOTHING, and so are their logs.
func (s *Store) FlushBatch(ctx context.Context, w domain.BatchWrites) (domain.FlushResult, error) {
	if s.FlushBatchFn != nil {
		return s.FlushBatchFn(ctx, w)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.Flushes++

	var res domain.FlushResult

	for _, p := range w.Processed {
		key := domain.PairKey(p.Fingerprint, p.WatchItemID)
		if _, exists := s.processed[key]; exists {
			continue
		}

		s.processed[key] = p
		res.Inserted = append(res.Inserted, p)
	}

	logs := w.ClaimedLogs(res.InsertedKeys())
	s.logs = append(s.logs, logs...)
	res.Logs = len(logs)

	for _, id := range w.CheckedItemIDs {
		if item, ok := s.items[id]; ok {
			item.LastChecked = w.CheckedAt
			s.items[id] = item
		}
	}

	return res, nil
}

// InsertNotifications stores notifications.
func (s *Store) InsertNotifications(ctx context.Context, n []domain.Notification) error {
	if s.InsertNotificationsFn != nil {
		return s.InsertNotificationsFn(ctx, n)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = append(s.notifications, n...)

	return nil
}

// ListPushTokens returns tokens for the users.
func (s *Store) ListPushTokens(_ context.Context, userIDs []string) ([]domain.PushToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TokenReads++

	wanted := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}

	var out []domain.PushToken

	for _, t := range s.tokens {
		if wanted[t.UserID] {
			out = append(out, t)
		}
	}

	return out, nil
}

// RecordRun captures the run audit row.
func (s *Store) RecordRun(_ context.Context, stats domain.RunStats, status string, runErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = append(s.runs, RunRecord{Stats: stats, Status: status, Err: runErr})

	return nil
}

// TryRunLock emulates a session advisory lock.
func (s *Store) TryRunLock(_ context.Context) (func(), bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locked {
		return nil, false, nil
	}

	s.locked = true

	return func() {
		s.mu.Lock()
		s.locked = false
		s.mu.Unlock()
	}, true, nil
}

// ProcessedPairs returns every stored processed row.
func (s *Store) ProcessedPairs() []domain.ProcessedHeadline {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ProcessedHeadline, 0, len(s.processed))
	for _, p := range s.processed {
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].WatchItemID != out[j].WatchItemID {
			return out[i].WatchItemID < out[j].WatchItemID
		}

		return out[i].Fingerprint < out[j].Fingerprint
	})

	return out
}

// Logs returns stored log entries.
func (s *Store) Logs() []domain.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.LogEntry(nil), s.logs...)
}

// Notifications returns stored notifications.
func (s *Store) Notifications() []domain.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.Notification(nil), s.notifications...)
}

// Runs returns recorded run rows.
func (s *Store) Runs() []RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]RunRecord(nil), s.runs...)
}
