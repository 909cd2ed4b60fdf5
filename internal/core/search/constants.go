package search

import (
	"errors"
	"time"
)

const (
	secondsPerMinute    = 60.0
	responseTruncateLen = 200
	defaultTimeout      = 20 * time.Second
	defaultFreshness    = 24 * time.Hour

	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
	headerUserAgent   = "User-Agent"
	userAgent         = "snoopa-firehose/1.0"

	errWrapFmtWithCode = "%w: %d"
	fmtErrWrapStr      = "%w: %s"
)

// Log field keys
const (
	logKeyProvider = "provider"
	logKeyTopic    = "topic"
	logKeyPage     = "page"
)

// Metric status labels.
const (
	statusSuccess = "success"
	statusError   = "error"
)

var (
	errProviderDisabled = errors.New("search provider disabled")
	errNoSources        = errors.New("no search sources available")
)

func truncateBody(body []byte) string {
	msg := string(body)
	if len(msg) > responseTruncateLen {
		msg = msg[:responseTruncateLen] + "..."
	}

	return msg
}
