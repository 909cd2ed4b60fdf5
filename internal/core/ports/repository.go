// Package ports provides domain-centric interfaces for external dependencies.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern,
// allowing the firehose pipeline to remain independent of infrastructure concerns.
package ports

import (
	"context"

	"github.com/snoopa/firehose/internal/core/domain"
)

// WatchItemReader lists the watch items a run evaluates.
type WatchItemReader interface {
	ListActiveWatchItems(ctx context.Context) ([]domain.WatchItem, error)
}

// ProcessedReader bulk-loads processed pairs as "fingerprint::watch_item_id" keys.
type ProcessedReader interface {
	LoadProcessedKeys(ctx context.Context, watchItemIDs []string) ([]string, error)
}

// BatchWriter persists a run's accumulated writes in one transaction. Only
// processed pairs this call inserted are reported, and only their log
// entries are written.
type BatchWriter interface {
	FlushBatch(ctx context.Context, w domain.BatchWrites) (domain.FlushResult, error)
}

// NotificationRepository stores alert rows and reads device tokens.
type NotificationRepository interface {
	InsertNotifications(ctx context.Context, notifications []domain.Notification) error
	ListPushTokens(ctx context.Context, userIDs []string) ([]domain.PushToken, error)
}

// RunRecorder writes the per-run audit row.
type RunRecorder interface {
	RecordRun(ctx context.Context, stats domain.RunStats, status string, runErr error) error
}

// RunLocker guards a run against concurrent instances. acquired is false when
// another instance holds the lock; release must be called when acquired.
type RunLocker interface {
	TryRunLock(ctx context.Context) (release func(), acquired bool, err error)
}

// FirehoseStore is everything the pipeline needs from persistence.
type FirehoseStore interface {
	WatchItemReader
	ProcessedReader
	BatchWriter
	NotificationRepository
	RunRecorder
}

// PushSender delivers one alert to a set of device tokens.
type PushSender interface {
	Send(ctx context.Context, msg domain.PushMessage) error
}

// RunReporter publishes a run summary to operators.
type RunReporter interface {
	ReportRun(ctx context.Context, stats domain.RunStats, runErr error) error
}
