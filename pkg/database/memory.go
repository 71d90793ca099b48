package database

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps tables in process memory. It backs tests and
// STORE_DRIVER=memory dev runs, and can emulate an older schema by hiding
// columns from a table.
type MemoryStore struct {
	mu         sync.RWMutex
	tables     map[string][]Row
	missing    map[string]map[string]bool
	uniqueKeys map[string][]string
	failNext   map[string]error
}

// MemoryOption configures a MemoryStore
type MemoryOption func(*MemoryStore)

// WithMissingColumns makes every query touching the given columns of table
// fail with ErrSchemaMismatch, like a store created before they existed.
func WithMissingColumns(table string, columns ...string) MemoryOption {
	return func(m *MemoryStore) {
		if m.missing[table] == nil {
			m.missing[table] = make(map[string]bool)
		}
		for _, c := range columns {
			m.missing[table][c] = true
		}
	}
}

// WithUniqueKey declares a unique constraint enforced on Insert
func WithUniqueKey(table string, columns ...string) MemoryOption {
	return func(m *MemoryStore) {
		m.uniqueKeys[table] = columns
	}
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		tables:     make(map[string][]Row),
		missing:    make(map[string]map[string]bool),
		uniqueKeys: make(map[string][]string),
		failNext:   make(map[string]error),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FailNext makes the next operation on table return err
func (m *MemoryStore) FailNext(table string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext[table] = err
}

func (m *MemoryStore) takeFailure(table string) error {
	if err, ok := m.failNext[table]; ok {
		delete(m.failNext, table)
		return err
	}
	return nil
}

func (m *MemoryStore) checkColumns(table string, columns ...string) error {
	hidden := m.missing[table]
	for _, c := range columns {
		if hidden[c] {
			return &SchemaMismatchError{Table: table, Column: c, Err: fmt.Errorf("column %q does not exist", c)}
		}
	}
	return nil
}

// Select returns copies of the matching rows
func (m *MemoryStore) Select(ctx context.Context, table string, filters Filters, opts ...SelectOption) ([]Row, error) {
	q := BuildSelectQuery(opts...)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(table); err != nil {
		return nil, err
	}
	cols := sortedKeys(filters)
	if q.OrderBy != "" {
		cols = append(cols, q.OrderBy)
	}
	if err := m.checkColumns(table, cols...); err != nil {
		return nil, err
	}

	result := make([]Row, 0)
	for _, row := range m.tables[table] {
		if matches(row, filters) {
			result = append(result, copyRow(row))
		}
	}

	if q.OrderBy != "" {
		sort.SliceStable(result, func(i, j int) bool {
			if q.Desc {
				return less(result[j][q.OrderBy], result[i][q.OrderBy])
			}
			return less(result[i][q.OrderBy], result[j][q.OrderBy])
		})
	}
	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result, nil
}

// Insert appends rows, enforcing the table's unique key
func (m *MemoryStore) Insert(ctx context.Context, table string, rows ...Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(table); err != nil {
		return err
	}
	for _, row := range rows {
		if err := m.checkColumns(table, sortedKeys(row)...); err != nil {
			return err
		}
		if key := m.uniqueKeys[table]; len(key) > 0 {
			if _, found := m.find(table, keyFilters(row, key)); found {
				return fmt.Errorf("%w: %s %v", ErrConflict, table, keyFilters(row, key))
			}
		}
	}
	for _, row := range rows {
		m.tables[table] = append(m.tables[table], copyRow(row))
	}
	return nil
}

// Upsert replaces the row matching conflictKey or appends a new one
func (m *MemoryStore) Upsert(ctx context.Context, table string, row Row, conflictKey ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(table); err != nil {
		return err
	}
	if err := m.checkColumns(table, append(sortedKeys(row), conflictKey...)...); err != nil {
		return err
	}
	if idx, found := m.find(table, keyFilters(row, conflictKey)); found {
		m.tables[table][idx] = copyRow(row)
		return nil
	}
	m.tables[table] = append(m.tables[table], copyRow(row))
	return nil
}

// Delete removes every matching row
func (m *MemoryStore) Delete(ctx context.Context, table string, filters Filters) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(table); err != nil {
		return err
	}
	if err := m.checkColumns(table, sortedKeys(filters)...); err != nil {
		return err
	}
	kept := m.tables[table][:0]
	for _, row := range m.tables[table] {
		if !matches(row, filters) {
			kept = append(kept, row)
		}
	}
	m.tables[table] = kept
	return nil
}

// Status always reports the store online
func (m *MemoryStore) Status(ctx context.Context) (string, bool) {
	return "🟢 | En memoria", true
}

// Close is a no-op
func (m *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// Len returns the number of rows in table
func (m *MemoryStore) Len(table string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables[table])
}

func (m *MemoryStore) find(table string, filters Filters) (int, bool) {
	for i, row := range m.tables[table] {
		if matches(row, filters) {
			return i, true
		}
	}
	return -1, false
}

func keyFilters(row Row, key []string) Filters {
	f := make(Filters, len(key))
	for _, k := range key {
		f[k] = row[k]
	}
	return f
}

func matches(row Row, filters Filters) bool {
	for k, want := range filters {
		got, present := row[k]
		if want == nil {
			if present && got != nil && got != "" {
				return false
			}
			continue
		}
		if !present || !reflect.DeepEqual(normalize(got), normalize(want)) {
			return false
		}
	}
	return true
}

func normalize(v interface{}) interface{} {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		if n == float64(int64(n)) {
			return int64(n)
		}
	}
	return v
}

func less(a, b interface{}) bool {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Before(bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv) < 0
		}
	}
	ai, aok := normalize(a).(int64)
	bi, bok := normalize(b).(int64)
	if aok && bok {
		return ai < bi
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func copyRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
