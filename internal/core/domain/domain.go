// Package domain holds the entities shared by the firehose pipeline, its
// storage layer and its notification fan-out.
package domain

import "time"

// Watch item lifecycle states.
const (
	WatchStatusActive    = "active"
	WatchStatusCompleted = "completed"
)

// Notification types.
const (
	NotificationTypeSystem = "system"
	NotificationTypeAlert  = "alert"
	NotificationTypeInfo   = "info"
)

// WatchItem is a user's standing request to be alerted when a condition
// becomes true.
type WatchItem struct {
	ID             string
	UserID         string
	Title          string
	Keywords       []string
	Condition      string
	CanonicalTopic string
	Status         string
	LastChecked    time.Time
	Sources        []string
	CreatedAt      time.Time
}

// IsActive reports whether the item takes part in firehose runs.
func (w WatchItem) IsActive() bool {
	return w.Status == WatchStatusActive
}

// Headline is a candidate returned by a news source for one topic query.
// It lives only for the duration of a run.
type Headline struct {
	Title       string
	Snippet     string
	Source      string
	Link        string
	PublishedAt time.Time
	Topic       string
	Fingerprint string
}

// Text returns the title and snippet joined for keyword matching.
func (h Headline) Text() string {
	if h.Snippet == "" {
		return h.Title
	}

	return h.Title + " " + h.Snippet
}

// ProcessedHeadline records that a headline was evaluated for a watch item.
type ProcessedHeadline struct {
	Fingerprint string
	WatchItemID string
	CreatedAt   time.Time
}

// PairKey is the composite "fingerprint::watch_item_id" key of a processed pair.
func PairKey(fingerprint, watchItemID string) string {
	return fingerprint + pairKeySeparator + watchItemID
}

const pairKeySeparator = "::"

// LogEntry is one verified match, shown to the user as the scent log.
// Fingerprint ties the entry to its processed pair and is not persisted.
type LogEntry struct {
	WatchItemID string
	Fingerprint string
	CreatedAt   time.Time
	Action      string
	Verified    bool
}

// Notification is an alert row delivered to a user.
type Notification struct {
	ID          string
	UserID      string
	Type        string
	Title       string
	Message     string
	Seen        bool
	Read        bool
	WatchItemID string
	CreatedAt   time.Time
}

// PushToken is a registered device token for a user.
type PushToken struct {
	UserID string
	Token  string
}

// Hit is a verified (headline, watch item) match produced by a run.
type Hit struct {
	Item     WatchItem
	Headline Headline
}

// RunStats summarizes a single firehose run.
type RunStats struct {
	RunID          string
	StartedAt      time.Time
	FinishedAt     time.Time
	ActiveItems    int
	Topics         int
	Headlines      int
	UniqueHeadline int
	KeywordMatches int
	Verified       int
	Rejected       int
	VerifyErrors   int
	Notifications  int
	PushFailures   int
	Skipped        bool
}

// BatchWrites is everything a run persists in its single end-of-run transaction.
type BatchWrites struct {
	Processed []ProcessedHeadline
	Logs      []LogEntry
	// CheckedItemIDs get last_checked = CheckedAt.
	CheckedItemIDs []string
	CheckedAt      time.Time
}

// IsEmpty reports whether flushing would write nothing.
func (b BatchWrites) IsEmpty() bool {
	return len(b.Processed) == 0 && len(b.Logs) == 0 && len(b.CheckedItemIDs) == 0
}

// FlushResult reports what a batch flush actually inserted. Processed pairs
// already stored by an overlapping run are absent from Inserted, and their
// log entries are not written.
type FlushResult struct {
	Inserted []ProcessedHeadline
	Logs     int
}

// InsertedKeys returns the PairKey set of the inserted pairs.
func (r FlushResult) InsertedKeys() map[string]struct{} {
	keys := make(map[string]struct{}, len(r.Inserted))
	for _, p := range r.Inserted {
		keys[PairKey(p.Fingerprint, p.WatchItemID)] = struct{}{}
	}

	return keys
}

// ClaimedLogs keeps the log entries whose pair is in inserted. Entries without
// a fingerprint are not tied to a pair and are always kept.
func (b BatchWrites) ClaimedLogs(inserted map[string]struct{}) []LogEntry {
	out := make([]LogEntry, 0, len(b.Logs))

	for _, l := range b.Logs {
		if l.Fingerprint != "" {
			if _, ok := inserted[PairKey(l.Fingerprint, l.WatchItemID)]; !ok {
				continue
			}
		}

		out = append(out, l)
	}

	return out
}

// Run statuses recorded in the run audit table.
const (
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
	RunStatusSkipped   = "skipped"
)

// PushMessage is one alert addressed to every device of a user.
type PushMessage struct {
	Tokens      []string
	Title       string
	Body        string
	WatchItemID string
}
