package models

import (
	"time"

	"github.com/google/uuid"
)

// Record is a synced row. Local records carry user intent; the remote copy is
// what lets devices converge.
type Record interface {
	RecordID() string
	RecordUpdatedAt() time.Time
}

// NewID returns a client-generated, collision-resistant record id.
func NewID() string {
	return uuid.NewString()
}

type Exercise struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	MuscleGroup string    `json:"muscleGroup"`
	IsCustom    bool      `json:"isCustom"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (e *Exercise) RecordID() string           { return e.ID }
func (e *Exercise) RecordUpdatedAt() time.Time { return e.UpdatedAt }

// MaxRecord is a personal-record entry for an exercise.
type MaxRecord struct {
	ID         string    `json:"id"`
	ExerciseID string    `json:"exerciseId"`
	Weight     float64   `json:"weight"`
	Reps       int       `json:"reps"`
	RecordedAt time.Time `json:"recordedAt"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (m *MaxRecord) RecordID() string           { return m.ID }
func (m *MaxRecord) RecordUpdatedAt() time.Time { return m.UpdatedAt }

// CompletedSet logs one performed set of a workout.
type CompletedSet struct {
	ID          string    `json:"id"`
	WorkoutID   string    `json:"workoutId"`
	ExerciseID  string    `json:"exerciseId"`
	SetNumber   int       `json:"setNumber"`
	Weight      float64   `json:"weight"`
	Reps        int       `json:"reps"`
	CompletedAt time.Time `json:"completedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (s *CompletedSet) RecordID() string           { return s.ID }
func (s *CompletedSet) RecordUpdatedAt() time.Time { return s.UpdatedAt }

// Cycle is a training block spanning several weeks.
type Cycle struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Weeks     int        `json:"weeks"`
	IsActive  bool       `json:"isActive"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (c *Cycle) RecordID() string           { return c.ID }
func (c *Cycle) RecordUpdatedAt() time.Time { return c.UpdatedAt }

// Workout is a scheduled session inside a cycle.
type Workout struct {
	ID            string     `json:"id"`
	CycleID       string     `json:"cycleId"`
	Name          string     `json:"name"`
	ScheduledDate time.Time  `json:"scheduledDate"`
	WeekNumber    int        `json:"weekNumber"`
	DayNumber     int        `json:"dayNumber"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (w *Workout) RecordID() string           { return w.ID }
func (w *Workout) RecordUpdatedAt() time.Time { return w.UpdatedAt }

// Preferences is the single per-user settings record. Its ID is the user id.
type Preferences struct {
	ID               string    `json:"id"`
	WeightUnit       string    `json:"weightUnit"`
	RestTimerSeconds int       `json:"restTimerSeconds"`
	DefaultIncrement float64   `json:"defaultIncrement"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (p *Preferences) RecordID() string           { return p.ID }
func (p *Preferences) RecordUpdatedAt() time.Time { return p.UpdatedAt }
