package models

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/liftsync/internal/common"
)

// New returns an empty record of the concrete type stored in c.
func New(c Collection) (Record, error) {
	switch c {
	case CollectionExercises:
		return &Exercise{}, nil
	case CollectionMaxRecords:
		return &MaxRecord{}, nil
	case CollectionCompletedSets:
		return &CompletedSet{}, nil
	case CollectionCycles:
		return &Cycle{}, nil
	case CollectionWorkouts:
		return &Workout{}, nil
	case CollectionPreferences:
		return &Preferences{}, nil
	}
	return nil, fmt.Errorf("%w: %q", common.ErrUnknownCollection, c)
}

// Decode unmarshals the JSON form of a record of collection c.
func Decode(c Collection, data []byte) (Record, error) {
	rec, err := New(c)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("decode %s record: %w", c, err)
	}
	return rec, nil
}

// Encode is the inverse of Decode.
func Encode(rec Record) ([]byte, error) {
	return json.Marshal(rec)
}

// Belongs reports whether rec has the concrete type of collection c.
func Belongs(c Collection, rec Record) bool {
	switch rec.(type) {
	case *Exercise:
		return c == CollectionExercises
	case *MaxRecord:
		return c == CollectionMaxRecords
	case *CompletedSet:
		return c == CollectionCompletedSets
	case *Cycle:
		return c == CollectionCycles
	case *Workout:
		return c == CollectionWorkouts
	case *Preferences:
		return c == CollectionPreferences
	}
	return false
}
