package models

import (
	"encoding/json"
	"time"
)

// Operation is the mutation replayed by a queue item.
type Operation string

const (
	OperationUpsert Operation = "upsert"
	OperationDelete Operation = "delete"
)

// QueueItem is a durable record of a mutation awaiting delivery to the remote
// store. At most one item exists per (Collection, ItemID).
type QueueItem struct {
	ID          string
	Collection  Collection
	Operation   Operation
	ItemID      string
	Payload     json.RawMessage
	CreatedAt   time.Time
	RetryCount  int
	NextRetryAt *time.Time
}

// Due reports whether the item may be attempted at now.
func (q *QueueItem) Due(now time.Time) bool {
	return q.NextRetryAt == nil || !q.NextRetryAt.After(now)
}
