package engine

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/liftsync/internal/models"
	"github.com/dmitrijs2005/liftsync/internal/repositories/remote"
	"github.com/dmitrijs2005/liftsync/internal/transform"
	"golang.org/x/sync/errgroup"
)

// PullFromCloud merges remote state for userID into the local store, one
// goroutine per collection. The first failing collection cancels the rest
// and its error is returned.
func (e *Engine) PullFromCloud(ctx context.Context, userID string) error {
	if err := e.available(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, c := range models.AllCollections() {
		tr, err := transform.For(c)
		if err != nil {
			return err
		}
		g.Go(func() error {
			if err := e.pullCollection(ctx, tr, userID); err != nil {
				return fmt.Errorf("pull %s: %w", c, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (e *Engine) pullCollection(ctx context.Context, tr transform.Transformer, userID string) error {
	c := tr.Collection()
	tombstones := !c.SingleRow()

	filter := remote.Filter{UserID: userID}
	if tombstones {
		filter.Deleted = remote.DeletedLive
	}
	live, err := e.remote.Select(ctx, tr.Table(), filter)
	if err != nil {
		return err
	}

	existing, err := e.local.All(ctx, c)
	if err != nil {
		return err
	}
	byID := make(map[string]models.Record, len(existing))
	for _, rec := range existing {
		byID[rec.RecordID()] = rec
	}

	var puts []models.Record
	for _, row := range live {
		rec, err := tr.FromRow(row)
		if err != nil {
			e.logger.Warn(ctx, "skipping unreadable remote row", "collection", c, "error", err)
			continue
		}

		cur, ok := byID[rec.RecordID()]
		switch {
		case !ok:
			puts = append(puts, rec)
		case c.AppendOnly():
			// immutable once created; the local copy stays
		case rec.RecordUpdatedAt().After(cur.RecordUpdatedAt()):
			puts = append(puts, rec)
		}
	}

	var deletes []string
	if tombstones {
		dead, err := e.remote.Select(ctx, tr.Table(), remote.Filter{UserID: userID, Deleted: remote.DeletedTombstoned})
		if err != nil {
			return err
		}
		for _, row := range dead {
			id, err := transform.RowID(tr, row)
			if err != nil || id == "" {
				e.logger.Warn(ctx, "skipping tombstone without id", "collection", c, "error", err)
				continue
			}
			deletes = append(deletes, id)
		}
	}

	if err := e.local.Apply(ctx, c, puts, deletes); err != nil {
		return err
	}

	e.logger.Debug(ctx, "collection pulled", "collection", c, "written", len(puts), "deleted", len(deletes))
	return nil
}
