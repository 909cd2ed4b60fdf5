package db

import (
	"context"
	"fmt"
)

// TryRunLock takes a session advisory lock on a dedicated connection so only
// one firehose instance runs at a time. The returned release unlocks and
// returns the connection to the pool.
func (db *DB) TryRunLock(ctx context.Context) (func(), bool, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", firehoseRunLockID).Scan(&acquired); err != nil {
		conn.Release()

		return nil, false, fmt.Errorf("try acquire advisory lock: %w", err)
	}

	if !acquired {
		conn.Release()

		return nil, false, nil
	}

	release := func() {
		//nolint:errcheck,contextcheck // unlock is best-effort, lock is released on connection close anyway
		_, _ = conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", firehoseRunLockID)
		conn.Release()
	}

	return release, true, nil
}
