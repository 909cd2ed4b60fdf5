package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/snoopa/firehose/internal/core/domain"
)

// RecordRun writes the run audit row.
func (db *DB) RecordRun(ctx context.Context, stats domain.RunStats, status string, runErr error) error {
	var errText pgtype.Text
	if runErr != nil {
		errText = toText(runErr.Error())
	}

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO firehose_runs (
			id, started_at, finished_at, status, active_items, topics,
			headlines, unique_headlines, keyword_matches, verified, rejected,
			verify_errors, notifications, push_failures, error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO NOTHING
	`,
		toUUID(stats.RunID), toTimestamptz(stats.StartedAt), toTimestamptz(stats.FinishedAt), status,
		stats.ActiveItems, stats.Topics, stats.Headlines, stats.UniqueHeadline, stats.KeywordMatches,
		stats.Verified, stats.Rejected, stats.VerifyErrors, stats.Notifications, stats.PushFailures,
		errText,
	)
	if err != nil {
		return fmt.Errorf("insert firehose run: %w", err)
	}

	return nil
}
