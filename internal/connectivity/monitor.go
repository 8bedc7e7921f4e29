// Package connectivity tracks whether the remote store is reachable and
// publishes online/offline edges to subscribers.
package connectivity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/liftsync/internal/logging"
)

// Checker answers "is the device online right now".
type Checker interface {
	Online() bool
}

// Static is a Checker with a fixed answer.
type Static bool

func (s Static) Online() bool { return bool(s) }

// Pinger probes the remote store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Event is an online/offline edge.
type Event struct {
	Online bool
	At     time.Time
}

// Monitor probes a Pinger on an interval and tracks the result.
type Monitor struct {
	pinger  Pinger
	timeout time.Duration
	logger  logging.Logger

	online atomic.Bool

	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
}

// NewMonitor constructs a Monitor. It starts offline until the first probe
// succeeds or Set is called. A nil pinger keeps it offline.
func NewMonitor(p Pinger, l logging.Logger) *Monitor {
	return &Monitor{
		pinger:  p,
		timeout: 3 * time.Second,
		logger:  l.With("module", "connectivity"),
		subs:    make(map[int]chan Event),
	}
}

// Online reports the last known reachability.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Set records reachability and notifies subscribers when it changed.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.online.Swap(online) == online {
		return
	}

	m.logger.Info(context.Background(), "connectivity changed", "online", online)

	ev := Event{Online: online, At: time.Now()}
	for _, ch := range m.subs {
		// keep only the latest edge for slow subscribers
		select {
		case <-ch:
		default:
		}
		ch <- ev
	}
}

// Check probes the remote once and records the result. A done ctx says
// nothing about the remote, so Check then keeps the last known state.
func (m *Monitor) Check(ctx context.Context) bool {
	if ctx.Err() != nil {
		return m.Online()
	}
	if m.pinger == nil {
		m.Set(false)
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.pinger.Ping(ctx)
	cancel()

	if err != nil {
		m.logger.Debug(ctx, "remote ping failed", "error", err)
	}
	m.Set(err == nil)
	return err == nil
}

// Run probes every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Subscribe returns a channel receiving connectivity edges and a function
// that cancels the subscription.
func (m *Monitor) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 1)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}
