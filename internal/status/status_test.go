package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case s, ok := <-ch:
		require.True(t, ok, "channel closed")
		return s
	case <-time.After(time.Second):
		t.Fatal("no snapshot received")
	}
	return Snapshot{}
}

func TestTracker_Transitions(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, Idle, tr.Snapshot().State)

	ch, cancel := tr.Subscribe()
	defer cancel()
	assert.Equal(t, Idle, recv(t, ch).State, "current state is delivered on subscribe")

	tr.Syncing()
	assert.Equal(t, Syncing, recv(t, ch).State)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr.Succeeded(at, 0)
	s := recv(t, ch)
	assert.Equal(t, Idle, s.State)
	assert.Equal(t, at, s.LastSyncTime)
	assert.Equal(t, at, tr.LastSyncTime())

	tr.Failed("remote upsert exercises (rejected): boom")
	s = recv(t, ch)
	assert.Equal(t, Error, s.State)
	assert.Equal(t, "remote upsert exercises (rejected): boom", s.Message)

	tr.Offline(3)
	s = recv(t, ch)
	assert.Equal(t, Offline, s.State)
	assert.Equal(t, 3, s.Pending)
	assert.Empty(t, s.Message)
	assert.Equal(t, at, s.LastSyncTime, "offline keeps the last sync time")
}

func TestTracker_NoBroadcastWithoutChange(t *testing.T) {
	tr := NewTracker()
	ch, cancel := tr.Subscribe()
	defer cancel()
	recv(t, ch)

	tr.SetPending(0)
	select {
	case s := <-ch:
		t.Fatalf("unexpected snapshot %+v", s)
	default:
	}
}

func TestTracker_SlowSubscriberSeesLatest(t *testing.T) {
	tr := NewTracker()
	ch, cancel := tr.Subscribe()
	defer cancel()

	tr.Syncing()
	tr.Failed("x")
	tr.Offline(1)

	s := recv(t, ch)
	assert.Equal(t, Offline, s.State)
	assert.Equal(t, 1, s.Pending)
}

func TestTracker_CancelAndClose(t *testing.T) {
	tr := NewTracker()

	a, cancelA := tr.Subscribe()
	b, cancelB := tr.Subscribe()
	defer cancelB()
	recv(t, a)
	recv(t, b)

	cancelA()
	cancelA()
	_, ok := <-a
	assert.False(t, ok, "cancelled channel is closed")

	tr.Close()
	_, ok = <-b
	assert.False(t, ok, "Close closes remaining channels")

	tr.Syncing()
	assert.Equal(t, Syncing, tr.Snapshot().State, "state is still tracked after Close")

	c, _ := tr.Subscribe()
	_, ok = <-c
	assert.False(t, ok)
}

func TestTracker_Restore(t *testing.T) {
	tr := NewTracker()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr.Restore(at, 4)

	s := tr.Snapshot()
	assert.Equal(t, Idle, s.State)
	assert.Equal(t, at, s.LastSyncTime)
	assert.Equal(t, 4, s.Pending)
}
