package remote

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/liftsync/internal/dbx"
	"github.com/jackc/pgx/v5"
)

// PostgresStore implements Store over a PostgreSQL database opened with the
// pgx stdlib driver.
type PostgresStore struct {
	db     dbx.DBTX
	pinger interface {
		PingContext(ctx context.Context) error
	}
}

// NewPostgresStore constructs a store bound to db.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, pinger: db}
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// where renders the filter predicates starting at placeholder $start.
func where(f Filter, start int) (string, []any) {
	conds := []string{fmt.Sprintf("%s = $%d", ident("user_id"), start)}
	args := []any{f.UserID}

	if f.ID != "" {
		conds = append(conds, fmt.Sprintf("%s = $%d", ident("id"), start+len(args)))
		args = append(args, f.ID)
	}

	switch f.Deleted {
	case DeletedLive:
		conds = append(conds, ident("deleted_at")+" IS NULL")
	case DeletedTombstoned:
		conds = append(conds, ident("deleted_at")+" IS NOT NULL")
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

func sortedColumns(r Row) []string {
	cols := make([]string, 0, len(r))
	for c := range r {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// Select returns every row of table matching f. Column values are whatever
// the driver produced (string, int64, float64, bool, time.Time or nil).
func (s *PostgresStore) Select(ctx context.Context, table string, f Filter) ([]Row, error) {
	cond, args := where(f, 1)
	query := "SELECT * FROM " + ident(table) + cond

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap("select", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, wrap("select", table, err)
	}

	var result []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, wrap("select", table, err)
		}

		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("select", table, err)
	}

	return result, nil
}

// Upsert writes rows in one statement:
//
//	INSERT INTO t (a, b, id) VALUES ($1, $2, $3), ...
//	ON CONFLICT (id) DO UPDATE SET a = EXCLUDED.a, b = EXCLUDED.b
//
// The column set is taken from the first row; missing values are written as NULL.
func (s *PostgresStore) Upsert(ctx context.Context, table, conflictKey string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	cols := sortedColumns(rows[0])
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = ident(c)
	}

	var b strings.Builder
	args := make([]any, 0, len(rows)*len(cols))

	b.WriteString("INSERT INTO " + ident(table) + " (" + strings.Join(quoted, ", ") + ") VALUES ")
	for i, r := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		ph := make([]string, len(cols))
		for j, c := range cols {
			args = append(args, r[c])
			ph[j] = fmt.Sprintf("$%d", len(args))
		}
		b.WriteString("(" + strings.Join(ph, ", ") + ")")
	}

	var sets []string
	for _, c := range cols {
		if c == conflictKey {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", ident(c), ident(c)))
	}

	b.WriteString(" ON CONFLICT (" + ident(conflictKey) + ")")
	if len(sets) == 0 {
		b.WriteString(" DO NOTHING")
	} else {
		b.WriteString(" DO UPDATE SET " + strings.Join(sets, ", "))
	}

	if _, err := s.db.ExecContext(ctx, b.String(), args...); err != nil {
		return wrap("upsert", table, err)
	}
	return nil
}

// Update sets values on the rows matching f.
func (s *PostgresStore) Update(ctx context.Context, table string, values Row, f Filter) error {
	if len(values) == 0 {
		return nil
	}

	cols := sortedColumns(values)
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+2)
	for i, c := range cols {
		args = append(args, values[c])
		sets[i] = fmt.Sprintf("%s = $%d", ident(c), len(args))
	}

	cond, condArgs := where(f, len(args)+1)
	args = append(args, condArgs...)

	query := "UPDATE " + ident(table) + " SET " + strings.Join(sets, ", ") + cond
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return wrap("update", table, err)
	}
	return nil
}

// Ping checks that the database answers.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pinger.PingContext(ctx); err != nil {
		return wrap("ping", "", err)
	}
	return nil
}
