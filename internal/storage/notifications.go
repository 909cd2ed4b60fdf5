package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/snoopa/firehose/internal/core/domain"
)

// InsertNotifications stores alert rows with a single statement.
func (db *DB) InsertNotifications(ctx context.Context, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	var (
		ids, userIDs, itemIDs  []pgtype.UUID
		types, titles, message []string
		created                []time.Time
	)

	for _, n := range notifications {
		userID := toUUID(n.UserID)
		if !userID.Valid {
			continue
		}

		ids = append(ids, toUUID(n.ID))
		userIDs = append(userIDs, userID)
		itemIDs = append(itemIDs, toUUID(n.WatchItemID))
		types = append(types, n.Type)
		titles = append(titles, SanitizeUTF8(n.Title))
		message = append(message, SanitizeUTF8(n.Message))
		created = append(created, n.CreatedAt)
	}

	if len(ids) == 0 {
		return nil
	}

	if _, err := db.Pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, watch_item_id, created_at)
		SELECT * FROM unnest($1::uuid[], $2::uuid[], $3::text[], $4::text[], $5::text[], $6::uuid[], $7::timestamptz[])
	`, ids, userIDs, types, titles, message, itemIDs, created); err != nil {
		return fmt.Errorf("insert notifications: %w", err)
	}

	return nil
}

// ListPushTokens returns device tokens for the users in a single query.
func (db *DB) ListPushTokens(ctx context.Context, userIDs []string) ([]domain.PushToken, error) {
	ids := toUUIDs(userIDs)
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT user_id, token
		FROM user_push_tokens
		WHERE user_id = ANY($1)
		ORDER BY user_id, created_at
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("query push tokens: %w", err)
	}
	defer rows.Close()

	var tokens []domain.PushToken

	for rows.Next() {
		var (
			userID pgtype.UUID
			token  string
		)

		if err := rows.Scan(&userID, &token); err != nil {
			return nil, fmt.Errorf("scan push token: %w", err)
		}

		tokens = append(tokens, domain.PushToken{UserID: fromUUID(userID), Token: token})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate push tokens: %w", err)
	}

	return tokens, nil
}
