package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/liftsync/internal/common"
	"github.com/dmitrijs2005/liftsync/internal/models"
)

// Enqueue stores item, or replaces the item already queued for
// (item.Collection, item.ItemID). The replacement takes item.ID, so an
// acknowledgement of the older version by its id no longer touches it. A
// replaced item starts its retry schedule over.
func (s *Store) Enqueue(ctx context.Context, item models.QueueItem) error {
	var payload any
	if item.Payload != nil {
		payload = string(item.Payload)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_queue (id, collection, operation, item_id, payload, created_at, retry_count, next_retry_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, NULL)
		ON CONFLICT(collection, item_id) DO UPDATE SET
			id = excluded.id,
			operation = excluded.operation,
			payload = excluded.payload,
			created_at = excluded.created_at,
			retry_count = 0,
			next_retry_at = NULL
	`, item.ID, string(item.Collection), string(item.Operation), item.ItemID, payload, item.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to enqueue %s[%s]: %w", item.Collection, item.ItemID, err)
	}
	return nil
}

const queueColumns = `id, collection, operation, item_id, payload, created_at, retry_count, next_retry_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanQueueItem(row scanner) (models.QueueItem, error) {
	var (
		item      models.QueueItem
		coll, op  string
		payload   sql.NullString
		createdAt int64
		nextRetry sql.NullInt64
	)
	if err := row.Scan(&item.ID, &coll, &op, &item.ItemID, &payload, &createdAt, &item.RetryCount, &nextRetry); err != nil {
		return item, err
	}

	item.Collection = models.Collection(coll)
	item.Operation = models.Operation(op)
	if payload.Valid {
		item.Payload = []byte(payload.String)
	}
	item.CreatedAt = time.Unix(0, createdAt).UTC()
	if nextRetry.Valid {
		t := time.Unix(0, nextRetry.Int64).UTC()
		item.NextRetryAt = &t
	}
	return item, nil
}

// QueueItems returns every queued item, oldest created_at first.
func (s *Store) QueueItems(ctx context.Context) ([]models.QueueItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+queueColumns+` FROM sync_queue ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to select queue: %w", err)
	}
	defer rows.Close()

	var result []models.QueueItem
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan queue row: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queue rows: %w", err)
	}
	return result, nil
}

// QueuedItem returns the item queued for (c, itemID), or common.ErrorNotFound.
func (s *Store) QueuedItem(ctx context.Context, c models.Collection, itemID string) (models.QueueItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+queueColumns+` FROM sync_queue WHERE collection = ? AND item_id = ?`, string(c), itemID)
	item, err := scanQueueItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return item, common.ErrorNotFound
	}
	if err != nil {
		return item, fmt.Errorf("failed to get queue item %s[%s]: %w", c, itemID, err)
	}
	return item, nil
}

// DeleteQueueItem removes a queued item by its queue id.
func (s *Store) DeleteQueueItem(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete queue item %s: %w", id, err)
	}
	return nil
}

// UpdateRetry records a failed attempt.
func (s *Store) UpdateRetry(ctx context.Context, id string, retryCount int, nextRetryAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE sync_queue SET retry_count = ?, next_retry_at = ? WHERE id = ?`,
		retryCount, nextRetryAt.UnixNano(), id)
	if err != nil {
		return fmt.Errorf("failed to update queue item %s: %w", id, err)
	}
	return nil
}

// CountQueue returns the number of queued items.
func (s *Store) CountQueue(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count queue: %w", err)
	}
	return n, nil
}
