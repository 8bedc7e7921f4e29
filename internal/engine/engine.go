// Package engine reconciles the local store with the remote store.
//
// A full sync pulls remote changes first (last-write-wins on updated_at,
// insert-only for append-only collections, tombstones always delete) and
// then pushes every local record with idempotent upserts. Single-record
// mutations are sent immediately and fall back to the retry queue when the
// device is offline or the failure is transient.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/liftsync/internal/common"
	"github.com/dmitrijs2005/liftsync/internal/connectivity"
	"github.com/dmitrijs2005/liftsync/internal/logging"
	"github.com/dmitrijs2005/liftsync/internal/models"
	"github.com/dmitrijs2005/liftsync/internal/queue"
	"github.com/dmitrijs2005/liftsync/internal/repositories/remote"
	"github.com/dmitrijs2005/liftsync/internal/status"
	"github.com/dmitrijs2005/liftsync/internal/timex"
)

// LastSyncKey is the metadata key holding the last successful sync time.
const LastSyncKey = "last_sync_time"

// LocalStore is the part of the local store the engine needs.
type LocalStore interface {
	queue.Store
	Get(ctx context.Context, c models.Collection, id string) (models.Record, error)
	All(ctx context.Context, c models.Collection) ([]models.Record, error)
	Apply(ctx context.Context, c models.Collection, puts []models.Record, deletes []string) error
	GetValue(ctx context.Context, key string) ([]byte, error)
	SetValue(ctx context.Context, key string, value []byte) error
}

// ItemOutcome reports what happened to a single-record mutation.
type ItemOutcome string

const (
	// OutcomeSynced means the remote store accepted the mutation.
	OutcomeSynced ItemOutcome = "synced"
	// OutcomeQueued means the mutation was queued for a later retry.
	OutcomeQueued ItemOutcome = "queued"
	// OutcomeRejected means the remote store refused the mutation. It is not retried.
	OutcomeRejected ItemOutcome = "rejected"
	// OutcomeSkipped means no remote store is configured; nothing was sent or queued.
	OutcomeSkipped ItemOutcome = "skipped"
)

// Engine is the sync engine. It is safe for concurrent use.
type Engine struct {
	local  LocalStore
	remote remote.Store
	conn   connectivity.Checker
	status *status.Tracker
	queue  *queue.Queue
	logger logging.Logger
	now    timex.Clock
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(c timex.Clock) Option {
	return func(e *Engine) { e.now = c }
}

// New constructs an Engine. A nil rs means no remote store is configured; a
// nil st gets a fresh tracker.
func New(ls LocalStore, rs remote.Store, conn connectivity.Checker, st *status.Tracker, l logging.Logger, opts ...Option) *Engine {
	if st == nil {
		st = status.NewTracker()
	}
	e := &Engine{
		local:  ls,
		remote: rs,
		conn:   conn,
		status: st,
		logger: l.With("module", "sync_engine"),
	}
	for _, o := range opts {
		o(e)
	}
	e.queue = queue.New(ls, e, conn, l, queue.WithClock(e.now))
	return e
}

// Configured reports whether a remote store is set up.
func (e *Engine) Configured() bool {
	return e.remote != nil
}

// Init restores the persisted last sync time and the pending count into
// the status.
func (e *Engine) Init(ctx context.Context) error {
	last, err := e.LastSyncTime(ctx)
	if err != nil {
		return err
	}
	n, err := e.queue.Count(ctx)
	if err != nil {
		return err
	}
	e.status.Restore(last, n)
	return nil
}

// Status returns the current sync status.
func (e *Engine) Status() status.Snapshot {
	return e.status.Snapshot()
}

// Subscribe streams status changes. See status.Tracker.Subscribe.
func (e *Engine) Subscribe() (<-chan status.Snapshot, func()) {
	return e.status.Subscribe()
}

// LastSyncTime returns the persisted time of the last successful full
// sync, or the zero time.
func (e *Engine) LastSyncTime(ctx context.Context) (time.Time, error) {
	raw, err := e.local.GetValue(ctx, LastSyncKey)
	if err != nil || raw == nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		e.logger.Warn(ctx, "ignoring unreadable last sync time", "value", string(raw))
		return time.Time{}, nil
	}
	return t, nil
}

// QueueCount returns the number of pending mutations.
func (e *Engine) QueueCount(ctx context.Context) (int, error) {
	return e.queue.Count(ctx)
}

// Queue exposes the retry queue.
func (e *Engine) Queue() *queue.Queue {
	return e.queue
}

// ProcessQueue replays due queued mutations and refreshes the pending count.
func (e *Engine) ProcessQueue(ctx context.Context, userID string) (queue.Result, error) {
	res, err := e.queue.ProcessQueue(ctx, userID)
	e.refreshPending(ctx)
	return res, err
}

// available returns common.ErrNotConfigured or common.ErrOffline when the
// remote store cannot be used.
func (e *Engine) available() error {
	if !e.Configured() {
		return common.ErrNotConfigured
	}
	if !e.conn.Online() {
		return common.ErrOffline
	}
	return nil
}

func (e *Engine) pending(ctx context.Context) int {
	n, err := e.queue.Count(ctx)
	if err != nil {
		e.logger.Warn(ctx, "failed to count queue", "error", err)
		return e.status.Snapshot().Pending
	}
	return n
}

func (e *Engine) refreshPending(ctx context.Context) {
	e.status.SetPending(e.pending(ctx))
}

// FullSync pulls then pushes every collection for userID. It returns
// common.ErrNotConfigured or common.ErrOffline without touching any data
// when the remote store cannot be used; the status then becomes Offline.
// Any other failure puts the status in Error and is returned.
func (e *Engine) FullSync(ctx context.Context, userID string) (err error) {
	if err := e.available(); err != nil {
		e.status.Offline(e.pending(ctx))
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("full sync: panic: %v", p)
			e.logger.Error(ctx, "full sync panicked", "panic", p)
			e.status.Failed(err.Error())
		}
	}()

	e.status.Syncing()
	e.logger.Info(ctx, "full sync started", "user_id", userID)

	if err := e.PullFromCloud(ctx, userID); err != nil {
		e.logger.Error(ctx, "full sync failed", "user_id", userID, "error", err)
		e.status.Failed(err.Error())
		return err
	}

	report := e.PushToCloud(ctx, userID)

	at := e.now.Now().UTC()
	if err := e.local.SetValue(ctx, LastSyncKey, []byte(at.Format(time.RFC3339Nano))); err != nil {
		e.logger.Error(ctx, "full sync failed", "user_id", userID, "error", err)
		e.status.Failed(err.Error())
		return err
	}

	e.status.Succeeded(at, e.pending(ctx))
	e.logger.Info(ctx, "full sync finished", "user_id", userID, "pushed", report.Total(), "push_failures", len(report.Failed))
	return nil
}
