// Package models defines the synced record types, the retry queue item and
// the purchase entitlement, shared by the local store, the remote store and
// the sync engine.
package models

import (
	"fmt"

	"github.com/dmitrijs2005/liftsync/internal/common"
)

// Collection names a synced record set. The value doubles as the local table
// name and is stored in queue items.
type Collection string

const (
	CollectionExercises     Collection = "exercises"
	CollectionMaxRecords    Collection = "max_records"
	CollectionCompletedSets Collection = "completed_sets"
	CollectionCycles        Collection = "cycles"
	CollectionWorkouts      Collection = "workouts"
	CollectionPreferences   Collection = "preferences"
)

var multiRow = []Collection{
	CollectionExercises,
	CollectionMaxRecords,
	CollectionCompletedSets,
	CollectionCycles,
	CollectionWorkouts,
}

// MultiRowCollections returns the five per-user record collections that carry
// remote tombstones.
func MultiRowCollections() []Collection {
	out := make([]Collection, len(multiRow))
	copy(out, multiRow)
	return out
}

// AllCollections returns every generically synced collection, preferences last.
func AllCollections() []Collection {
	return append(MultiRowCollections(), CollectionPreferences)
}

// Valid reports whether c is a known collection.
func (c Collection) Valid() bool {
	switch c {
	case CollectionExercises, CollectionMaxRecords, CollectionCompletedSets,
		CollectionCycles, CollectionWorkouts, CollectionPreferences:
		return true
	}
	return false
}

// AppendOnly reports whether records of c are immutable once created. Pull
// inserts them when absent and never overwrites an existing local copy.
func (c Collection) AppendOnly() bool {
	return c == CollectionMaxRecords || c == CollectionCompletedSets
}

// SingleRow reports whether c holds exactly one record per user.
func (c Collection) SingleRow() bool {
	return c == CollectionPreferences
}

// ParseCollection validates a collection name.
func ParseCollection(s string) (Collection, error) {
	c := Collection(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", common.ErrUnknownCollection, s)
	}
	return c, nil
}
