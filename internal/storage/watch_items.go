package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/snoopa/firehose/internal/core/domain"
)

// ListActiveWatchItems returns every active watch item in creation order.
func (db *DB) ListActiveWatchItems(ctx context.Context) ([]domain.WatchItem, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, title, keywords, condition, canonical_topic,
		       status, last_checked, sources, created_at
		FROM watch_items
		WHERE status = $1
		ORDER BY created_at, id
	`, domain.WatchStatusActive)
	if err != nil {
		return nil, fmt.Errorf("query active watch items: %w", err)
	}
	defer rows.Close()

	var items []domain.WatchItem

	for rows.Next() {
		var (
			id, userID      pgtype.UUID
			title, cond     string
			topic           pgtype.Text
			status          string
			keywords, srcs  []string
			lastChecked, ca pgtype.Timestamptz
		)

		if err := rows.Scan(&id, &userID, &title, &keywords, &cond, &topic, &status, &lastChecked, &srcs, &ca); err != nil {
			return nil, fmt.Errorf("scan watch item: %w", err)
		}

		items = append(items, domain.WatchItem{
			ID:             fromUUID(id),
			UserID:         fromUUID(userID),
			Title:          title,
			Keywords:       keywords,
			Condition:      cond,
			CanonicalTopic: fromText(topic),
			Status:         status,
			LastChecked:    fromTimestamptz(lastChecked),
			Sources:        srcs,
			CreatedAt:      fromTimestamptz(ca),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch items: %w", err)
	}

	return items, nil
}
