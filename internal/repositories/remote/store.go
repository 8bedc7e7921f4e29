// Package remote provides access to the shared relational backend that all
// devices of a user converge on. Rows are generic column maps so one store
// serves every synced table.
package remote

import "context"

// Row is a remote table row keyed by column name.
type Row map[string]any

// Deleted selects rows by their soft-delete marker.
type Deleted int

const (
	// DeletedAny applies no deleted_at predicate. Use it for tables without one.
	DeletedAny Deleted = iota
	// DeletedLive selects rows whose deleted_at is NULL.
	DeletedLive
	// DeletedTombstoned selects rows whose deleted_at is set.
	DeletedTombstoned
)

// Filter narrows a select or update. UserID is always required; ID is
// optional.
type Filter struct {
	UserID  string
	ID      string
	Deleted Deleted
}

// Store is the remote store contract used by the sync engine and the
// entitlement coordinator. Implementations return *Error for every failure.
type Store interface {
	// Select returns all rows of table matching f.
	Select(ctx context.Context, table string, f Filter) ([]Row, error)

	// Upsert inserts rows, replacing existing ones that collide on conflictKey.
	Upsert(ctx context.Context, table, conflictKey string, rows []Row) error

	// Update sets values on the rows matching f.
	Update(ctx context.Context, table string, values Row, f Filter) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}
