// Package transform maps synced records between their local shape and the
// remote row shape. Local records use camelCase JSON fields; remote tables use
// snake_case columns plus user_id, updated_at and (for multi-row tables)
// deleted_at.
package transform

import (
	"fmt"

	"github.com/dmitrijs2005/liftsync/internal/common"
	"github.com/dmitrijs2005/liftsync/internal/models"
	"github.com/dmitrijs2005/liftsync/internal/repositories/remote"
)

// Transformer converts one collection's records.
type Transformer interface {
	Collection() models.Collection
	// Table is the remote table name.
	Table() string
	// Key is the remote primary key column used for upserts.
	Key() string
	// ToRow maps rec to a remote row owned by userID. deleted_at is never
	// written, so pushing a record cannot clear a remote tombstone.
	ToRow(rec models.Record, userID string) (remote.Row, error)
	// FromRow maps a remote row back to a local record.
	FromRow(row remote.Row) (models.Record, error)
}

type mapper[T models.Record] struct {
	collection models.Collection
	table      string
	key        string
	to         func(rec T, userID string) remote.Row
	from       func(r *reader) T
}

func (m mapper[T]) Collection() models.Collection { return m.collection }
func (m mapper[T]) Table() string                 { return m.table }
func (m mapper[T]) Key() string                   { return m.key }

func (m mapper[T]) ToRow(rec models.Record, userID string) (remote.Row, error) {
	t, ok := rec.(T)
	if !ok {
		return nil, fmt.Errorf("%w: %T in %s", common.ErrRecordMismatch, rec, m.collection)
	}
	return m.to(t, userID), nil
}

func (m mapper[T]) FromRow(row remote.Row) (models.Record, error) {
	r := &reader{row: row}
	rec := m.from(r)
	if r.err != nil {
		return nil, fmt.Errorf("%s row: %w", m.table, r.err)
	}
	return rec, nil
}

var registry = map[models.Collection]Transformer{
	models.CollectionExercises:     exercises,
	models.CollectionMaxRecords:    maxRecords,
	models.CollectionCompletedSets: completedSets,
	models.CollectionCycles:        cycles,
	models.CollectionWorkouts:      workouts,
	models.CollectionPreferences:   preferences,
}

// For returns the transformer of collection c.
func For(c models.Collection) (Transformer, error) {
	t, ok := registry[c]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownCollection, c)
	}
	return t, nil
}

// RowID returns the primary key value of row for transformer t.
func RowID(t Transformer, row remote.Row) (string, error) {
	return getString(row, t.Key())
}

var exercises = mapper[*models.Exercise]{
	collection: models.CollectionExercises,
	table:      "exercises",
	key:        "id",
	to: func(e *models.Exercise, userID string) remote.Row {
		return remote.Row{
			"id":           e.ID,
			"user_id":      userID,
			"name":         e.Name,
			"category":     e.Category,
			"muscle_group": e.MuscleGroup,
			"is_custom":    e.IsCustom,
			"notes":        optString(e.Notes),
			"created_at":   e.CreatedAt.UTC(),
			"updated_at":   e.UpdatedAt.UTC(),
		}
	},
	from: func(r *reader) *models.Exercise {
		return &models.Exercise{
			ID:          r.str("id"),
			Name:        r.str("name"),
			Category:    r.str("category"),
			MuscleGroup: r.str("muscle_group"),
			IsCustom:    r.bool("is_custom"),
			Notes:       r.str("notes"),
			CreatedAt:   r.time("created_at"),
			UpdatedAt:   r.time("updated_at"),
		}
	},
}

var maxRecords = mapper[*models.MaxRecord]{
	collection: models.CollectionMaxRecords,
	table:      "max_records",
	key:        "id",
	to: func(m *models.MaxRecord, userID string) remote.Row {
		return remote.Row{
			"id":          m.ID,
			"user_id":     userID,
			"exercise_id": m.ExerciseID,
			"weight":      m.Weight,
			"reps":        m.Reps,
			"recorded_at": m.RecordedAt.UTC(),
			"notes":       optString(m.Notes),
			"created_at":  m.CreatedAt.UTC(),
			"updated_at":  m.UpdatedAt.UTC(),
		}
	},
	from: func(r *reader) *models.MaxRecord {
		return &models.MaxRecord{
			ID:         r.str("id"),
			ExerciseID: r.str("exercise_id"),
			Weight:     r.float("weight"),
			Reps:       r.int("reps"),
			RecordedAt: r.time("recorded_at"),
			Notes:      r.str("notes"),
			CreatedAt:  r.time("created_at"),
			UpdatedAt:  r.time("updated_at"),
		}
	},
}

var completedSets = mapper[*models.CompletedSet]{
	collection: models.CollectionCompletedSets,
	table:      "completed_sets",
	key:        "id",
	to: func(s *models.CompletedSet, userID string) remote.Row {
		return remote.Row{
			"id":           s.ID,
			"user_id":      userID,
			"workout_id":   s.WorkoutID,
			"exercise_id":  s.ExerciseID,
			"set_number":   s.SetNumber,
			"weight":       s.Weight,
			"reps":         s.Reps,
			"completed_at": s.CompletedAt.UTC(),
			"updated_at":   s.UpdatedAt.UTC(),
		}
	},
	from: func(r *reader) *models.CompletedSet {
		return &models.CompletedSet{
			ID:          r.str("id"),
			WorkoutID:   r.str("workout_id"),
			ExerciseID:  r.str("exercise_id"),
			SetNumber:   r.int("set_number"),
			Weight:      r.float("weight"),
			Reps:        r.int("reps"),
			CompletedAt: r.time("completed_at"),
			UpdatedAt:   r.time("updated_at"),
		}
	},
}

var cycles = mapper[*models.Cycle]{
	collection: models.CollectionCycles,
	table:      "cycles",
	key:        "id",
	to: func(c *models.Cycle, userID string) remote.Row {
		return remote.Row{
			"id":         c.ID,
			"user_id":    userID,
			"name":       c.Name,
			"start_date": c.StartDate.UTC(),
			"end_date":   optTime(c.EndDate),
			"weeks":      c.Weeks,
			"is_active":  c.IsActive,
			"created_at": c.CreatedAt.UTC(),
			"updated_at": c.UpdatedAt.UTC(),
		}
	},
	from: func(r *reader) *models.Cycle {
		return &models.Cycle{
			ID:        r.str("id"),
			Name:      r.str("name"),
			StartDate: r.time("start_date"),
			EndDate:   r.optTime("end_date"),
			Weeks:     r.int("weeks"),
			IsActive:  r.bool("is_active"),
			CreatedAt: r.time("created_at"),
			UpdatedAt: r.time("updated_at"),
		}
	},
}

var workouts = mapper[*models.Workout]{
	collection: models.CollectionWorkouts,
	table:      "workouts",
	key:        "id",
	to: func(w *models.Workout, userID string) remote.Row {
		return remote.Row{
			"id":             w.ID,
			"user_id":        userID,
			"cycle_id":       w.CycleID,
			"name":           w.Name,
			"scheduled_date": w.ScheduledDate.UTC(),
			"week_number":    w.WeekNumber,
			"day_number":     w.DayNumber,
			"completed_at":   optTime(w.CompletedAt),
			"created_at":     w.CreatedAt.UTC(),
			"updated_at":     w.UpdatedAt.UTC(),
		}
	},
	from: func(r *reader) *models.Workout {
		return &models.Workout{
			ID:            r.str("id"),
			CycleID:       r.str("cycle_id"),
			Name:          r.str("name"),
			ScheduledDate: r.time("scheduled_date"),
			WeekNumber:    r.int("week_number"),
			DayNumber:     r.int("day_number"),
			CompletedAt:   r.optTime("completed_at"),
			CreatedAt:     r.time("created_at"),
			UpdatedAt:     r.time("updated_at"),
		}
	},
}

// preferences is keyed by user_id; the local record's ID is the user id.
var preferences = mapper[*models.Preferences]{
	collection: models.CollectionPreferences,
	table:      "user_preferences",
	key:        "user_id",
	to: func(p *models.Preferences, userID string) remote.Row {
		return remote.Row{
			"user_id":            userID,
			"weight_unit":        p.WeightUnit,
			"rest_timer_seconds": p.RestTimerSeconds,
			"default_increment":  p.DefaultIncrement,
			"updated_at":         p.UpdatedAt.UTC(),
		}
	},
	from: func(r *reader) *models.Preferences {
		return &models.Preferences{
			ID:               r.str("user_id"),
			WeightUnit:       r.str("weight_unit"),
			RestTimerSeconds: r.int("rest_timer_seconds"),
			DefaultIncrement: r.float("default_increment"),
			UpdatedAt:        r.time("updated_at"),
		}
	},
}
