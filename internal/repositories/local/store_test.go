package local

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/liftsync/internal/common"
	"github.com/dmitrijs2005/liftsync/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "liftsync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var ts = time.Date(2025, 5, 10, 7, 0, 0, 0, time.UTC)

func TestOpen_MigratesSchema(t *testing.T) {
	s := openStore(t)

	for _, c := range models.AllCollections() {
		var n int
		require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM `+string(c)).Scan(&n), c)
	}
	n, err := s.CountQueue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpen_MigrationError(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}

	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "x.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate local db")
}

func TestRecords_PutGetAllDelete(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	ex := &models.Exercise{ID: "e1", Name: "Squat", Category: "legs", CreatedAt: ts, UpdatedAt: ts}
	require.NoError(t, s.Put(ctx, models.CollectionExercises, ex))

	got, err := s.Get(ctx, models.CollectionExercises, "e1")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(ex, got))

	// upsert by id
	ex2 := *ex
	ex2.Name = "Front Squat"
	ex2.UpdatedAt = ts.Add(time.Minute)
	require.NoError(t, s.Put(ctx, models.CollectionExercises, &ex2))

	all, err := s.All(ctx, models.CollectionExercises)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Front Squat", all[0].(*models.Exercise).Name)

	require.NoError(t, s.Delete(ctx, models.CollectionExercises, "e1"))
	_, err = s.Get(ctx, models.CollectionExercises, "e1")
	require.ErrorIs(t, err, common.ErrorNotFound)

	// deleting again is fine
	require.NoError(t, s.Delete(ctx, models.CollectionExercises, "e1"))
}

func TestRecords_Validation(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	err := s.Put(ctx, models.CollectionCycles, &models.Workout{ID: "w1"})
	require.ErrorIs(t, err, common.ErrRecordMismatch)

	_, err = s.All(ctx, models.Collection("users; DROP TABLE cycles"))
	require.ErrorIs(t, err, common.ErrUnknownCollection)
}

func TestRecords_Apply(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, models.CollectionCycles, &models.Cycle{ID: "c-old", StartDate: ts, UpdatedAt: ts}))

	err := s.Apply(ctx, models.CollectionCycles,
		[]models.Record{
			&models.Cycle{ID: "c1", Name: "A", StartDate: ts, UpdatedAt: ts},
			&models.Cycle{ID: "c2", Name: "B", StartDate: ts, UpdatedAt: ts},
		},
		[]string{"c-old", "missing"},
	)
	require.NoError(t, err)

	all, err := s.All(ctx, models.CollectionCycles)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "c1", all[0].RecordID())
	assert.Equal(t, "c2", all[1].RecordID())
}

func TestRecords_ApplyRollsBack(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	err := s.Apply(ctx, models.CollectionCycles,
		[]models.Record{
			&models.Cycle{ID: "c1", StartDate: ts, UpdatedAt: ts},
			&models.Workout{ID: "w1"},
		}, nil)
	require.ErrorIs(t, err, common.ErrRecordMismatch)

	all, err := s.All(ctx, models.CollectionCycles)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestQueue_EnqueueDedup(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	first := models.QueueItem{
		ID: "q1", Collection: models.CollectionExercises, Operation: models.OperationUpsert,
		ItemID: "e1", Payload: json.RawMessage(`{"id":"e1","name":"A"}`), CreatedAt: ts,
	}
	require.NoError(t, s.Enqueue(ctx, first))
	require.NoError(t, s.UpdateRetry(ctx, "q1", 2, ts.Add(2*time.Second)))

	second := models.QueueItem{
		ID: "q2", Collection: models.CollectionExercises, Operation: models.OperationDelete,
		ItemID: "e1", CreatedAt: ts.Add(time.Minute),
	}
	require.NoError(t, s.Enqueue(ctx, second))

	items, err := s.QueueItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)

	got := items[0]
	assert.Equal(t, "q2", got.ID, "queue id follows the replacement")
	assert.Equal(t, models.OperationDelete, got.Operation)
	assert.Nil(t, got.Payload)
	assert.Equal(t, ts.Add(time.Minute), got.CreatedAt)
	assert.Zero(t, got.RetryCount)
	assert.Nil(t, got.NextRetryAt)

	// acks of the replaced version leave the newer one alone
	require.NoError(t, s.UpdateRetry(ctx, "q1", 3, ts.Add(time.Hour)))
	require.NoError(t, s.DeleteQueueItem(ctx, "q1"))

	got, err = s.QueuedItem(ctx, models.CollectionExercises, "e1")
	require.NoError(t, err)
	assert.Equal(t, "q2", got.ID)
	assert.Zero(t, got.RetryCount)
}

func TestQueue_OrderAndLookup(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	for i, id := range []string{"m3", "m1", "m2"} {
		require.NoError(t, s.Enqueue(ctx, models.QueueItem{
			ID: "q-" + id, Collection: models.CollectionMaxRecords, Operation: models.OperationUpsert,
			ItemID: id, Payload: json.RawMessage(`{}`), CreatedAt: ts.Add(time.Duration(i) * time.Second),
		}))
	}
	// same item id in another collection is a distinct entry
	require.NoError(t, s.Enqueue(ctx, models.QueueItem{
		ID: "q-x", Collection: models.CollectionExercises, Operation: models.OperationDelete,
		ItemID: "m1", CreatedAt: ts.Add(time.Hour),
	}))

	items, err := s.QueueItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, []string{"m3", "m1", "m2", "m1"}, []string{items[0].ItemID, items[1].ItemID, items[2].ItemID, items[3].ItemID})
	assert.JSONEq(t, `{}`, string(items[0].Payload))

	item, err := s.QueuedItem(ctx, models.CollectionMaxRecords, "m2")
	require.NoError(t, err)
	assert.Equal(t, "q-m2", item.ID)

	_, err = s.QueuedItem(ctx, models.CollectionCycles, "m2")
	require.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, s.UpdateRetry(ctx, "q-m2", 1, ts.Add(time.Second)))
	item, err = s.QueuedItem(ctx, models.CollectionMaxRecords, "m2")
	require.NoError(t, err)
	assert.Equal(t, 1, item.RetryCount)
	require.NotNil(t, item.NextRetryAt)
	assert.Equal(t, ts.Add(time.Second), *item.NextRetryAt)

	require.NoError(t, s.DeleteQueueItem(ctx, "q-m2"))
	n, err := s.CountQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestMetadata(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	v, err := s.GetValue(ctx, "last_sync_time")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.SetValue(ctx, "last_sync_time", []byte("a")))
	require.NoError(t, s.SetValue(ctx, "last_sync_time", []byte("b")))

	v, err = s.GetValue(ctx, "last_sync_time")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), v)

	require.NoError(t, s.DeleteValue(ctx, "last_sync_time"))
	v, err = s.GetValue(ctx, "last_sync_time")
	require.NoError(t, err)
	assert.Nil(t, v)
}
