package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/liftsync/internal/models"
	"github.com/dmitrijs2005/liftsync/internal/repositories/remote"
	"github.com/dmitrijs2005/liftsync/internal/transform"
)

// PushReport summarizes one push pass. A collection appears in at most one
// of the two maps.
type PushReport struct {
	Pushed map[models.Collection]int
	Failed map[models.Collection]error
}

// Total returns the number of records pushed.
func (r PushReport) Total() int {
	n := 0
	for _, v := range r.Pushed {
		n += v
	}
	return n
}

// Err joins the per-collection failures, or returns nil.
func (r PushReport) Err() error {
	var errs []error
	for _, c := range models.AllCollections() {
		if err, ok := r.Failed[c]; ok {
			errs = append(errs, fmt.Errorf("push %s: %w", c, err))
		}
	}
	return errors.Join(errs...)
}

// PushToCloud upserts every local record of every collection for userID.
// A failing collection is logged and recorded and does not stop the others.
func (e *Engine) PushToCloud(ctx context.Context, userID string) PushReport {
	report := PushReport{
		Pushed: make(map[models.Collection]int),
		Failed: make(map[models.Collection]error),
	}

	if err := e.available(); err != nil {
		for _, c := range models.AllCollections() {
			report.Failed[c] = err
		}
		return report
	}

	for _, c := range models.AllCollections() {
		n, err := e.pushCollection(ctx, c, userID)
		if err != nil {
			e.logger.Error(ctx, "push failed", "collection", c, "error", err)
			report.Failed[c] = err
			continue
		}
		report.Pushed[c] = n
	}
	return report
}

func (e *Engine) pushCollection(ctx context.Context, c models.Collection, userID string) (int, error) {
	tr, err := transform.For(c)
	if err != nil {
		return 0, err
	}

	recs, err := e.local.All(ctx, c)
	if err != nil {
		return 0, err
	}
	if len(recs) == 0 {
		return 0, nil
	}

	rows := make([]remote.Row, 0, len(recs))
	for _, rec := range recs {
		row, err := tr.ToRow(rec, userID)
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}

	if err := e.remote.Upsert(ctx, tr.Table(), tr.Key(), rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}
