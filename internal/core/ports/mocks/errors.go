package mocks

import "errors"

var (
	// ErrFlushFailed is a canned failure for FlushBatchFn overrides.
	ErrFlushFailed = errors.New("flush failed")

	// ErrPushFailed is a canned failure for SendFn overrides.
	ErrPushFailed = errors.New("push failed")
)
