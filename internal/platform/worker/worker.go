// Package worker provides the scheduling loop and bounded fan-out helpers used
// by the firehose: the interval trigger, context-aware waits, and a worker
// pool that caps concurrent calls to rate-limited upstreams.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var errNonPositiveInterval = errors.New("interval must be positive")

// Wait blocks until duration elapses or context is canceled.
// Returns a wrapped context error if context is canceled.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("wait interrupted: %w", ctx.Err())
	case <-time.After(d):
		return nil
	}
}

// RunWithTimeout runs fn with a timeout derived from the parent context.
// The function receives a context that will be canceled after timeout.
func RunWithTimeout(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return fn(timeoutCtx)
}

// ForEach calls fn for every index in [0, n) with at most limit calls in
// flight. Tasks not yet started when ctx is canceled are skipped. fn owns its
// own error handling; ForEach only returns the context error, if any.
func ForEach(ctx context.Context, n, limit int, fn func(ctx context.Context, i int)) error {
	if n == 0 {
		return nil
	}

	if limit <= 0 {
		limit = 1
	}

	var g errgroup.Group

	g.SetLimit(limit)

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			fn(ctx, i)

			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // tasks never return errors

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("worker pool: %w", err)
	}

	return nil
}

// RecoverPanic recovers from panics and logs them.
// Use as: defer worker.RecoverPanic(logger, "operation name")
func RecoverPanic(logger *zerolog.Logger, operation string) {
	if r := recover(); r != nil {
		logger.Error().
			Interface("panic", r).
			Str("operation", operation).
			Msg("recovered from panic")
	}
}
