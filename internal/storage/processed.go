package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/snoopa/firehose/internal/core/domain"
)

// LoadProcessedKeys returns "fingerprint::watch_item_id" for every processed
// pair belonging to the given items, in a single query.
func (db *DB) LoadProcessedKeys(ctx context.Context, watchItemIDs []string) ([]string, error) {
	ids := toUUIDs(watchItemIDs)
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT fingerprint, watch_item_id
		FROM processed_headlines
		WHERE watch_item_id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("query processed headlines: %w", err)
	}
	defer rows.Close()

	var keys []string

	for rows.Next() {
		var (
			fp     string
			itemID pgtype.UUID
		)

		if err := rows.Scan(&fp, &itemID); err != nil {
			return nil, fmt.Errorf("scan processed headline: %w", err)
		}

		keys = append(keys, domain.PairKey(fp, fromUUID(itemID)))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processed headlines: %w", err)
	}

	return keys, nil
}
