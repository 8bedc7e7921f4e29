// Package queue implements the durable retry queue of mutations that could
// not be delivered to the remote store. Items are keyed by (collection,
// item id), replayed oldest first and retried with capped exponential
// backoff until they succeed or exhaust their attempts.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/liftsync/internal/common"
	"github.com/dmitrijs2005/liftsync/internal/connectivity"
	"github.com/dmitrijs2005/liftsync/internal/logging"
	"github.com/dmitrijs2005/liftsync/internal/models"
	"github.com/dmitrijs2005/liftsync/internal/timex"
)

// Store persists queue items.
type Store interface {
	Enqueue(ctx context.Context, item models.QueueItem) error
	QueueItems(ctx context.Context) ([]models.QueueItem, error)
	DeleteQueueItem(ctx context.Context, id string) error
	UpdateRetry(ctx context.Context, id string, retryCount int, nextRetryAt time.Time) error
	CountQueue(ctx context.Context) (int, error)
}

// Target replays queued mutations against the remote store.
type Target interface {
	// Configured reports whether a remote store is set up at all.
	Configured() bool
	Replay(ctx context.Context, item models.QueueItem, userID string) error
}

// Result summarizes one ProcessQueue pass.
type Result struct {
	Processed int
	Failed    int
	Skipped   int
}

// Queue is the retry queue.
type Queue struct {
	store  Store
	target Target
	conn   connectivity.Checker
	logger logging.Logger
	now    timex.Clock
}

// Option configures a Queue.
type Option func(*Queue)

// WithClock overrides the time source.
func WithClock(c timex.Clock) Option {
	return func(q *Queue) { q.now = c }
}

// New constructs a Queue.
func New(store Store, target Target, conn connectivity.Checker, l logging.Logger, opts ...Option) *Queue {
	q := &Queue{
		store:  store,
		target: target,
		conn:   conn,
		logger: l.With("module", "queue"),
	}
	for _, o := range opts {
		o(q)
	}
	return q
}

// Backoff returns the delay before the next attempt of an item that has
// failed retryCount times: 1s, 2s, 4s, ... capped at 30s.
func Backoff(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	d := common.BaseRetryDelay
	for i := 1; i < retryCount; i++ {
		d *= 2
		if d >= common.MaxRetryDelay {
			return common.MaxRetryDelay
		}
	}
	return d
}

// QueueOperation records a mutation for later delivery. A mutation for an
// item that is already queued replaces the queued one.
func (q *Queue) QueueOperation(ctx context.Context, c models.Collection, op models.Operation, itemID string, payload json.RawMessage) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", common.ErrUnknownCollection, c)
	}
	switch op {
	case models.OperationUpsert, models.OperationDelete:
	default:
		return fmt.Errorf("%w: %q", common.ErrUnknownOperation, op)
	}

	item := models.QueueItem{
		ID:         models.NewID(),
		Collection: c,
		Operation:  op,
		ItemID:     itemID,
		Payload:    payload,
		CreatedAt:  q.now.Now(),
	}
	if err := q.store.Enqueue(ctx, item); err != nil {
		return err
	}

	q.logger.Debug(ctx, "mutation queued", "collection", c, "operation", op, "item_id", itemID)
	return nil
}

// ProcessQueue replays every due item once. It does nothing when the remote
// store is not configured or the device is offline.
func (q *Queue) ProcessQueue(ctx context.Context, userID string) (Result, error) {
	var res Result
	if !q.target.Configured() || !q.conn.Online() {
		return res, nil
	}

	items, err := q.store.QueueItems(ctx)
	if err != nil {
		return res, err
	}

	start := q.now.Now()
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if !item.Due(start) {
			res.Skipped++
			continue
		}

		if err := q.target.Replay(ctx, item, userID); err != nil {
			res.Failed++
			if err := q.fail(ctx, item, err); err != nil {
				return res, err
			}
			continue
		}

		if err := q.store.DeleteQueueItem(ctx, item.ID); err != nil {
			return res, err
		}
		res.Processed++
	}

	if res.Processed+res.Failed > 0 {
		q.logger.Info(ctx, "queue processed", "processed", res.Processed, "failed", res.Failed, "skipped", res.Skipped)
	}
	return res, nil
}

func (q *Queue) fail(ctx context.Context, item models.QueueItem, cause error) error {
	retries := item.RetryCount + 1
	if retries >= common.MaxQueueAttempts {
		q.logger.Warn(ctx, "dropping queued mutation after max attempts",
			"collection", item.Collection, "operation", item.Operation, "item_id", item.ItemID,
			"attempts", retries, "error", cause)
		return q.store.DeleteQueueItem(ctx, item.ID)
	}

	next := q.now.Now().Add(Backoff(retries))
	q.logger.Debug(ctx, "queued mutation failed",
		"collection", item.Collection, "item_id", item.ItemID, "attempt", retries, "next_retry_at", next, "error", cause)
	return q.store.UpdateRetry(ctx, item.ID, retries, next)
}

// Count returns the number of pending mutations.
func (q *Queue) Count(ctx context.Context) (int, error) {
	return q.store.CountQueue(ctx)
}

// List returns the pending mutations, oldest first.
func (q *Queue) List(ctx context.Context) ([]models.QueueItem, error) {
	return q.store.QueueItems(ctx)
}
