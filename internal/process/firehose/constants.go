package firehose

import "time"

const (
	defaultVerifyConcurrency = 2
	defaultCommitTimeout     = 30 * time.Second

	dedupScopeInRun    = "in_run"
	dedupScopeCrossRun = "cross_run"

	logActionSourceSep = " — "

	logKeyRunID       = "run_id"
	logKeyTopic       = "topic"
	logKeyWatchItemID = "watch_item_id"
	logKeyHeadline    = "headline"
	logKeyItems       = "items"
	logKeyTopics      = "topics"
	logKeyHeadlines   = "headlines"
	logKeyUnique      = "unique"
	logKeyCandidates  = "candidates"
	logKeyVerified    = "verified"
	logKeyDuration    = "duration"
	logKeyLost        = "lost"
)
