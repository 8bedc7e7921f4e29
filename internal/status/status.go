// Package status holds the sync status shown to users and broadcasts every
// transition to subscribers over channels.
package status

import (
	"sync"
	"time"
)

// State is the sync state.
type State string

const (
	Idle    State = "idle"
	Syncing State = "syncing"
	Error   State = "error"
	Offline State = "offline"
)

// Snapshot is a point-in-time view of the sync status. Message carries the
// error text in the Error state. Pending is the number of queued mutations.
type Snapshot struct {
	State        State
	Message      string
	Pending      int
	LastSyncTime time.Time
}

// Tracker owns the status of one engine. The zero value is not usable; use
// NewTracker.
type Tracker struct {
	mu     sync.Mutex
	snap   Snapshot
	subs   map[int]chan Snapshot
	nextID int
	closed bool
}

// NewTracker returns a Tracker in the Idle state.
func NewTracker() *Tracker {
	return &Tracker{
		snap: Snapshot{State: Idle},
		subs: make(map[int]chan Snapshot),
	}
}

// Snapshot returns the current status.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}

// LastSyncTime returns the completion time of the last successful full
// sync, or the zero time.
func (t *Tracker) LastSyncTime() time.Time {
	return t.Snapshot().LastSyncTime
}

// Syncing enters the Syncing state.
func (t *Tracker) Syncing() {
	t.update(func(s *Snapshot) {
		s.State = Syncing
		s.Message = ""
	})
}

// Succeeded returns to Idle and records the sync time.
func (t *Tracker) Succeeded(at time.Time, pending int) {
	t.update(func(s *Snapshot) {
		s.State = Idle
		s.Message = ""
		s.Pending = pending
		s.LastSyncTime = at
	})
}

// Failed enters the Error state with msg.
func (t *Tracker) Failed(msg string) {
	t.update(func(s *Snapshot) {
		s.State = Error
		s.Message = msg
	})
}

// Offline enters the Offline state with the number of pending changes.
func (t *Tracker) Offline(pending int) {
	t.update(func(s *Snapshot) {
		s.State = Offline
		s.Message = ""
		s.Pending = pending
	})
}

// SetPending updates the pending count without changing the state.
func (t *Tracker) SetPending(pending int) {
	t.update(func(s *Snapshot) { s.Pending = pending })
}

// Restore seeds the last sync time, typically from persisted state at
// startup.
func (t *Tracker) Restore(lastSync time.Time, pending int) {
	t.update(func(s *Snapshot) {
		s.LastSyncTime = lastSync
		s.Pending = pending
	})
}

func (t *Tracker) update(fn func(*Snapshot)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.snap
	fn(&t.snap)
	if t.snap == prev || t.closed {
		return
	}

	for _, ch := range t.subs {
		// subscribers only need the latest snapshot
		select {
		case <-ch:
		default:
		}
		ch <- t.snap
	}
}

// Subscribe returns a channel that receives the current snapshot
// immediately and every later change, plus a function that cancels the
// subscription and closes the channel.
func (t *Tracker) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := t.nextID
	t.nextID++
	t.subs[id] = ch
	ch <- t.snap
	t.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if c, ok := t.subs[id]; ok {
				delete(t.subs, id)
				close(c)
			}
		})
	}
}

// Close closes every subscription. Later updates are still recorded but
// not broadcast.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	for id, ch := range t.subs {
		delete(t.subs, id)
		close(ch)
	}
}
