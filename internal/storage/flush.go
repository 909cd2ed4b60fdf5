package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/snoopa/firehose/internal/core/domain"
)

// FlushBatch persists processed pairs, scent logs and last_checked updates in
// one transaction. Processed pairs that already exist are ignored, and log
// entries are written only for pairs this transaction inserted.
func (db *DB) FlushBatch(ctx context.Context, w domain.BatchWrites) (domain.FlushResult, error) {
	var res domain.FlushResult

	if w.IsEmpty() {
		return res, nil
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf(errBeginTx, err)
	}

	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // rollback after commit returns error, this is best-effort cleanup
	}()

	if len(w.Processed) > 0 {
		res.Inserted, err = insertProcessed(ctx, tx, w.Processed)
		if err != nil {
			return domain.FlushResult{}, err
		}
	}

	logs := w.ClaimedLogs(res.InsertedKeys())

	if len(logs) > 0 {
		ids, created, actions, verified := logColumns(logs)

		if _, err := tx.Exec(ctx, `
			INSERT INTO watch_logs (watch_item_id, created_at, action, verified)
			SELECT * FROM unnest($1::uuid[], $2::timestamptz[], $3::text[], $4::bool[])
		`, ids, created, actions, verified); err != nil {
			return domain.FlushResult{}, fmt.Errorf("insert watch logs: %w", err)
		}

		res.Logs = len(ids)
	}

	if len(w.CheckedItemIDs) > 0 {
		if _, err := tx.Exec(ctx, `
			UPDATE watch_items SET last_checked = $2
			WHERE id = ANY($1)
		`, toUUIDs(w.CheckedItemIDs), toTimestamptz(w.CheckedAt)); err != nil {
			return domain.FlushResult{}, fmt.Errorf("update last_checked: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.FlushResult{}, fmt.Errorf(errCommitTx, err)
	}

	return res, nil
}

// insertProcessed inserts the pairs and returns the staged rows that were
// actually inserted. A pair committed concurrently by another run is not
// returned.
func insertProcessed(ctx context.Context, tx pgx.Tx, rows []domain.ProcessedHeadline) ([]domain.ProcessedHeadline, error) {
	fps, ids, created := processedColumns(rows)

	staged := make(map[string]domain.ProcessedHeadline, len(rows))
	for _, r := range rows {
		staged[domain.PairKey(r.Fingerprint, fromUUID(toUUID(r.WatchItemID)))] = r
	}

	result, err := tx.Query(ctx, `
		INSERT INTO processed_headlines (fingerprint, watch_item_id, created_at)
		SELECT * FROM unnest($1::text[], $2::uuid[], $3::timestamptz[])
		ON CONFLICT (fingerprint, watch_item_id) DO NOTHING
		RETURNING fingerprint, watch_item_id
	`, fps, ids, created)
	if err != nil {
		return nil, fmt.Errorf("insert processed headlines: %w", err)
	}
	defer result.Close()

	var inserted []domain.ProcessedHeadline

	for result.Next() {
		var (
			fp string
			id pgtype.UUID
		)

		if err := result.Scan(&fp, &id); err != nil {
			return nil, fmt.Errorf("scan processed headline: %w", err)
		}

		if r, ok := staged[domain.PairKey(fp, fromUUID(id))]; ok {
			inserted = append(inserted, r)
		}
	}

	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("insert processed headlines: %w", err)
	}

	return inserted, nil
}

func processedColumns(rows []domain.ProcessedHeadline) ([]string, []pgtype.UUID, []time.Time) {
	fps := make([]string, 0, len(rows))
	ids := make([]pgtype.UUID, 0, len(rows))
	created := make([]time.Time, 0, len(rows))

	for _, r := range rows {
		id := toUUID(r.WatchItemID)
		if !id.Valid {
			continue
		}

		fps = append(fps, r.Fingerprint)
		ids = append(ids, id)
		created = append(created, r.CreatedAt)
	}

	return fps, ids, created
}

func logColumns(rows []domain.LogEntry) ([]pgtype.UUID, []time.Time, []string, []bool) {
	ids := make([]pgtype.UUID, 0, len(rows))
	created := make([]time.Time, 0, len(rows))
	actions := make([]string, 0, len(rows))
	verified := make([]bool, 0, len(rows))

	for _, r := range rows {
		id := toUUID(r.WatchItemID)
		if !id.Valid {
			continue
		}

		ids = append(ids, id)
		created = append(created, r.CreatedAt)
		actions = append(actions, SanitizeUTF8(r.Action))
		verified = append(verified, r.Verified)
	}

	return ids, created, actions, verified
}
