package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/liftsync/internal/common"
	"github.com/dmitrijs2005/liftsync/internal/models"
	"github.com/dmitrijs2005/liftsync/internal/repositories/remote"
	"github.com/dmitrijs2005/liftsync/internal/transform"
)

// SyncItem sends one freshly written record to the remote store. Offline,
// or on a transient failure, the mutation is queued and OutcomeQueued is
// returned with a nil error. A rejection is returned as OutcomeRejected
// with the error and is not queued.
func (e *Engine) SyncItem(ctx context.Context, c models.Collection, rec models.Record, userID string) (ItemOutcome, error) {
	tr, err := transform.For(c)
	if err != nil {
		return OutcomeRejected, err
	}
	if !models.Belongs(c, rec) {
		return OutcomeRejected, fmt.Errorf("%w: %T in %s", common.ErrRecordMismatch, rec, c)
	}

	payload, err := models.Encode(rec)
	if err != nil {
		return OutcomeRejected, fmt.Errorf("encode %s[%s]: %w", c, rec.RecordID(), err)
	}

	return e.send(ctx, c, models.OperationUpsert, rec.RecordID(), payload, func() error {
		row, err := tr.ToRow(rec, userID)
		if err != nil {
			return err
		}
		return e.remote.Upsert(ctx, tr.Table(), tr.Key(), []remote.Row{row})
	})
}

// DeleteItem soft-deletes one record remotely by stamping deleted_at. The
// local row is expected to be gone already. Queueing and classification
// follow SyncItem.
func (e *Engine) DeleteItem(ctx context.Context, c models.Collection, id, userID string) (ItemOutcome, error) {
	tr, err := transform.For(c)
	if err != nil {
		return OutcomeRejected, err
	}
	if c.SingleRow() {
		return OutcomeRejected, fmt.Errorf("%w: %s records cannot be deleted", common.ErrUnknownOperation, c)
	}

	return e.send(ctx, c, models.OperationDelete, id, nil, func() error {
		return e.softDelete(ctx, tr, id, userID)
	})
}

func (e *Engine) softDelete(ctx context.Context, tr transform.Transformer, id, userID string) error {
	return e.remote.Update(ctx, tr.Table(),
		remote.Row{"deleted_at": e.now.Now().UTC()},
		remote.Filter{UserID: userID, ID: id})
}

func (e *Engine) send(ctx context.Context, c models.Collection, op models.Operation, id string, payload json.RawMessage, attempt func() error) (ItemOutcome, error) {
	if err := e.available(); err != nil {
		if errors.Is(err, common.ErrNotConfigured) {
			return OutcomeSkipped, err
		}
		return e.enqueue(ctx, c, op, id, payload)
	}

	err := attempt()
	if err == nil {
		return OutcomeSynced, nil
	}

	if remote.IsNetwork(err) {
		e.logger.Info(ctx, "remote unreachable, queueing mutation", "collection", c, "operation", op, "item_id", id, "error", err)
		return e.enqueue(ctx, c, op, id, payload)
	}

	e.logger.Error(ctx, "remote rejected mutation", "collection", c, "operation", op, "item_id", id, "error", err)
	return OutcomeRejected, err
}

func (e *Engine) enqueue(ctx context.Context, c models.Collection, op models.Operation, id string, payload json.RawMessage) (ItemOutcome, error) {
	if err := e.queue.QueueOperation(ctx, c, op, id, payload); err != nil {
		return OutcomeRejected, fmt.Errorf("queue %s[%s]: %w", c, id, err)
	}
	e.refreshPending(ctx)
	return OutcomeQueued, nil
}

// Replay delivers a queued mutation. It implements queue.Target.
func (e *Engine) Replay(ctx context.Context, item models.QueueItem, userID string) error {
	if err := e.available(); err != nil {
		return err
	}

	tr, err := transform.For(item.Collection)
	if err != nil {
		return err
	}

	switch item.Operation {
	case models.OperationUpsert:
		rec, err := models.Decode(item.Collection, item.Payload)
		if err != nil {
			return err
		}
		row, err := tr.ToRow(rec, userID)
		if err != nil {
			return err
		}
		return e.remote.Upsert(ctx, tr.Table(), tr.Key(), []remote.Row{row})
	case models.OperationDelete:
		return e.softDelete(ctx, tr, item.ItemID, userID)
	default:
		return fmt.Errorf("%w: %q", common.ErrUnknownOperation, item.Operation)
	}
}
