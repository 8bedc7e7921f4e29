package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/liftsync/internal/common"
	"github.com/dmitrijs2005/liftsync/internal/dbx"
	"github.com/dmitrijs2005/liftsync/internal/models"
)

// table validates c before it is interpolated into SQL.
func table(c models.Collection) (string, error) {
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", common.ErrUnknownCollection, c)
	}
	return string(c), nil
}

// Get returns the record of collection c with the given id, or
// common.ErrorNotFound.
func (s *Store) Get(ctx context.Context, c models.Collection, id string) (models.Record, error) {
	t, err := table(c)
	if err != nil {
		return nil, err
	}

	var data []byte
	err = s.db.QueryRowContext(ctx, `SELECT data FROM `+t+` WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s[%s]: %w", c, id, err)
	}

	return models.Decode(c, data)
}

// Put inserts or replaces rec in collection c.
func (s *Store) Put(ctx context.Context, c models.Collection, rec models.Record) error {
	return put(ctx, s.db, c, rec)
}

func put(ctx context.Context, db dbx.DBTX, c models.Collection, rec models.Record) error {
	t, err := table(c)
	if err != nil {
		return err
	}
	if !models.Belongs(c, rec) {
		return fmt.Errorf("%w: %T in %s", common.ErrRecordMismatch, rec, c)
	}

	data, err := models.Encode(rec)
	if err != nil {
		return fmt.Errorf("failed to encode %s[%s]: %w", c, rec.RecordID(), err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO `+t+` (id, updated_at, data) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at, data = excluded.data
	`, rec.RecordID(), rec.RecordUpdatedAt().UnixNano(), string(data))
	if err != nil {
		return fmt.Errorf("failed to put %s[%s]: %w", c, rec.RecordID(), err)
	}
	return nil
}

// Delete physically removes a record. Deleting an absent id is not an error.
func (s *Store) Delete(ctx context.Context, c models.Collection, id string) error {
	return del(ctx, s.db, c, id)
}

func del(ctx context.Context, db dbx.DBTX, c models.Collection, id string) error {
	t, err := table(c)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM `+t+` WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete %s[%s]: %w", c, id, err)
	}
	return nil
}

// All returns every record of collection c.
func (s *Store) All(ctx context.Context, c models.Collection) ([]models.Record, error) {
	t, err := table(c)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT data FROM `+t+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", c, err)
	}
	defer rows.Close()

	var result []models.Record
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", c, err)
		}
		rec, err := models.Decode(c, data)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", c, err)
	}

	return result, nil
}

// Apply writes puts and then removes deletes in a single transaction.
func (s *Store) Apply(ctx context.Context, c models.Collection, puts []models.Record, deletes []string) error {
	if len(puts) == 0 && len(deletes) == 0 {
		return nil
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, rec := range puts {
			if err := put(ctx, tx, c, rec); err != nil {
				return err
			}
		}
		for _, id := range deletes {
			if err := del(ctx, tx, c, id); err != nil {
				return err
			}
		}
		return nil
	})
}
