// Package scheduler decides when the sync engine runs: on reconnect, on a
// fixed interval while online, after sign-in and on demand. Every run
// drains the retry queue before the full sync.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/liftsync/internal/connectivity"
	"github.com/dmitrijs2005/liftsync/internal/logging"
	"github.com/dmitrijs2005/liftsync/internal/queue"
	"github.com/dmitrijs2005/liftsync/internal/status"
)

// Syncer is the part of the engine the scheduler drives.
type Syncer interface {
	FullSync(ctx context.Context, userID string) error
	ProcessQueue(ctx context.Context, userID string) (queue.Result, error)
	Status() status.Snapshot
}

// Notifier reports connectivity and its edges.
type Notifier interface {
	Online() bool
	Subscribe() (<-chan connectivity.Event, func())
}

type trigger int

const (
	triggerManual trigger = iota
	triggerSignIn
	triggerReconnect
)

func (t trigger) String() string {
	switch t {
	case triggerSignIn:
		return "sign_in"
	case triggerReconnect:
		return "reconnect"
	default:
		return "manual"
	}
}

// Scheduler serializes sync runs for the signed-in user.
type Scheduler struct {
	syncer   Syncer
	conn     Notifier
	interval time.Duration
	logger   logging.Logger

	mu     sync.Mutex
	userID string

	triggers chan trigger
	runMu    sync.Mutex
}

// New constructs a Scheduler. A non-positive interval disables the periodic
// sync.
func New(s Syncer, conn Notifier, interval time.Duration, l logging.Logger) *Scheduler {
	return &Scheduler{
		syncer:   s,
		conn:     conn,
		interval: interval,
		logger:   l.With("module", "scheduler"),
		triggers: make(chan trigger, 1),
	}
}

// UserID returns the signed-in user, or "".
func (s *Scheduler) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// SignIn sets the current user and requests a full sync.
func (s *Scheduler) SignIn(userID string) {
	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()
	s.request(triggerSignIn)
}

// SignOut clears the current user; later triggers are ignored.
func (s *Scheduler) SignOut() {
	s.mu.Lock()
	s.userID = ""
	s.mu.Unlock()
}

// SyncNow requests a full sync. Requests made while one is pending are
// coalesced.
func (s *Scheduler) SyncNow() {
	s.request(triggerManual)
}

func (s *Scheduler) request(t trigger) {
	select {
	case s.triggers <- t:
	default:
	}
}

// Run handles triggers until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	events, cancel := s.conn.Subscribe()
	defer cancel()

	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if ev.Online {
				s.handle(ctx, triggerReconnect)
			}
		case t := <-s.triggers:
			s.handle(ctx, t)
		case <-tick:
			if !s.conn.Online() || s.syncer.Status().State == status.Syncing {
				continue
			}
			_ = s.RunOnce(ctx, "interval")
		}
	}
}

// handle runs the work of one trigger.
func (s *Scheduler) handle(ctx context.Context, t trigger) {
	_ = s.RunOnce(ctx, t.String())
}

// RunOnce drains the retry queue and then runs one full sync for the
// signed-in user, if any. Queued mutations go out before the pull so that
// queued deletes are not pulled back. Concurrent calls are serialized.
func (s *Scheduler) RunOnce(ctx context.Context, reason string) error {
	userID := s.UserID()
	if userID == "" {
		return nil
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.logger.Debug(ctx, "sync triggered", "reason", reason)

	res, err := s.syncer.ProcessQueue(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, "queue drain failed", "reason", reason, "error", err)
	} else if res.Processed+res.Failed > 0 {
		s.logger.Info(ctx, "queue drained", "reason", reason, "processed", res.Processed, "failed", res.Failed, "skipped", res.Skipped)
	}

	if err := s.syncer.FullSync(ctx, userID); err != nil {
		s.logger.Warn(ctx, "sync did not complete", "reason", reason, "error", err)
		return err
	}
	return nil
}
