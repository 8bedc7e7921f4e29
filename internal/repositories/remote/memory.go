package remote

import (
	"context"
	"fmt"
	"sync"
)

// MemoryDSN selects a MemoryStore in place of PostgreSQL.
const MemoryDSN = "memory:"

// MemoryStore is an in-process Store. The daemon uses it when RemoteDSN is
// MemoryDSN, so the sync loop can run without a database. Its rows live and
// die with the process. FailWith injects failures per operation.
type MemoryStore struct {
	mu     sync.Mutex
	tables map[string]map[string]Row
	fail   map[string]error
	calls  map[string]int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables: make(map[string]map[string]Row),
		fail:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

// FailWith makes every subsequent call of op ("select", "upsert", "update",
// "ping") fail with err until it is cleared with a nil err. An op of the
// form "upsert:cycles" fails only for that table.
func (m *MemoryStore) FailWith(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, op)
		return
	}
	m.fail[op] = err
}

// Calls returns how many times op was invoked.
func (m *MemoryStore) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Rows returns a copy of every row stored in table.
func (m *MemoryStore) Rows(table string) []Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Row, 0, len(m.tables[table]))
	for _, r := range m.tables[table] {
		out = append(out, copyRow(r))
	}
	return out
}

// Get returns the row of table whose primary key equals key.
func (m *MemoryStore) Get(table, key string) (Row, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.tables[table][key]
	if !ok {
		return nil, false
	}
	return copyRow(r), true
}

func (m *MemoryStore) enter(op, table string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	if err, ok := m.fail[op+":"+table]; ok {
		return wrap(op, table, err)
	}
	if err, ok := m.fail[op]; ok {
		return wrap(op, table, err)
	}
	return nil
}

func copyRow(r Row) Row {
	c := make(Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

func matches(r Row, f Filter) bool {
	if r["user_id"] != f.UserID {
		return false
	}
	if f.ID != "" && r["id"] != f.ID {
		return false
	}
	switch f.Deleted {
	case DeletedLive:
		return r["deleted_at"] == nil
	case DeletedTombstoned:
		return r["deleted_at"] != nil
	}
	return true
}

func (m *MemoryStore) Select(ctx context.Context, table string, f Filter) ([]Row, error) {
	if err := m.enter("select", table); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, wrap("select", table, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Row
	for _, r := range m.tables[table] {
		if matches(r, f) {
			out = append(out, copyRow(r))
		}
	}
	return out, nil
}

func (m *MemoryStore) Upsert(ctx context.Context, table, conflictKey string, rows []Row) error {
	if err := m.enter("upsert", table); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return wrap("upsert", table, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		key, ok := r[conflictKey].(string)
		if !ok || key == "" {
			return &Error{Op: "upsert", Table: table, Kind: KindRejected, Err: fmt.Errorf("missing %s", conflictKey)}
		}
	}

	t, ok := m.tables[table]
	if !ok {
		t = make(map[string]Row)
		m.tables[table] = t
	}
	for _, r := range rows {
		key := r[conflictKey].(string)
		merged := copyRow(t[key])
		for k, v := range r {
			merged[k] = v
		}
		t[key] = merged
	}
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, table string, values Row, f Filter) error {
	if err := m.enter("update", table); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return wrap("update", table, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.tables[table] {
		if !matches(r, f) {
			continue
		}
		for k, v := range values {
			r[k] = v
		}
	}
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	if err := m.enter("ping", ""); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return wrap("ping", "", err)
	}
	return nil
}

// Put stores rows directly, bypassing failure injection. Tests use it to
// seed remote state.
func (m *MemoryStore) Put(table, key string, rows ...Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[table]
	if !ok {
		t = make(map[string]Row)
		m.tables[table] = t
	}
	for _, r := range rows {
		t[r[key].(string)] = copyRow(r)
	}
}
