package models

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/liftsync/internal/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollections(t *testing.T) {
	all := AllCollections()
	require.Len(t, all, 6)
	assert.Equal(t, CollectionPreferences, all[len(all)-1], "preferences last")

	for _, c := range MultiRowCollections() {
		assert.False(t, c.SingleRow(), c)
		assert.True(t, c.Valid(), c)
	}
	assert.True(t, CollectionPreferences.SingleRow())

	assert.True(t, CollectionMaxRecords.AppendOnly())
	assert.True(t, CollectionCompletedSets.AppendOnly())
	assert.False(t, CollectionWorkouts.AppendOnly())

	// callers get a copy
	mr := MultiRowCollections()
	mr[0] = "mutated"
	assert.Equal(t, CollectionExercises, MultiRowCollections()[0])
}

func TestParseCollection(t *testing.T) {
	c, err := ParseCollection("cycles")
	require.NoError(t, err)
	assert.Equal(t, CollectionCycles, c)

	_, err = ParseCollection("sessions")
	assert.True(t, errors.Is(err, common.ErrUnknownCollection))
}

func TestDecodeEncode(t *testing.T) {
	end := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	in := &Cycle{
		ID:        NewID(),
		Name:      "Spring block",
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   &end,
		Weeks:     8,
		IsActive:  true,
		CreatedAt: time.Date(2024, 12, 20, 10, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 12, 21, 10, 0, 0, 0, time.UTC),
	}

	b, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode(CollectionCycles, b)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(in, out))

	_, err = Decode(CollectionCycles, []byte("{"))
	require.Error(t, err)

	_, err = Decode("sessions", b)
	assert.ErrorIs(t, err, common.ErrUnknownCollection)
}

func TestBelongs(t *testing.T) {
	for _, c := range AllCollections() {
		rec, err := New(c)
		require.NoError(t, err)
		for _, other := range AllCollections() {
			assert.Equal(t, c == other, Belongs(other, rec), "%T in %s", rec, other)
		}
	}
}

func TestQueueItem_Due(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Second)
	earlier := now.Add(-time.Second)

	assert.True(t, (&QueueItem{}).Due(now))
	assert.True(t, (&QueueItem{NextRetryAt: &now}).Due(now))
	assert.True(t, (&QueueItem{NextRetryAt: &earlier}).Due(now))
	assert.False(t, (&QueueItem{NextRetryAt: &later}).Due(now))
}

func TestNewID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID()
		require.False(t, seen[id])
		seen[id] = true
	}
}
