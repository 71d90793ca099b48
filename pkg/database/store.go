// Package database provides the rule store used by the moderation core.
// The store is an external service reached through a small generic contract
// (select/insert/upsert/delete with equality filters); MongoDB, SQL (gorm)
// and in-memory adapters implement it.
package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// ErrSchemaMismatch is returned when the store rejects a query that
	// references a column it does not have.
	ErrSchemaMismatch = errors.New("store schema mismatch")
	// ErrConflict is returned when an insert violates a unique constraint.
	ErrConflict = errors.New("store unique conflict")
	// ErrNotConnected is returned while the adapter has no live connection.
	ErrNotConnected = errors.New("not connected to database")
)

// defaultTimeout bounds every single store round-trip.
const defaultTimeout = 5 * time.Second

// Row is a single record keyed by column name
type Row map[string]interface{}

// Filters are equality filters joined with AND. A nil value matches rows
// where the column is null or absent.
type Filters map[string]interface{}

// Store is the generic CRUD contract of the rule store
type Store interface {
	Select(ctx context.Context, table string, filters Filters, opts ...SelectOption) ([]Row, error)
	Insert(ctx context.Context, table string, rows ...Row) error
	Upsert(ctx context.Context, table string, row Row, conflictKey ...string) error
	Delete(ctx context.Context, table string, filters Filters) error
	Status(ctx context.Context) (string, bool)
	Close(ctx context.Context) error
}

// SelectQuery holds the optional parts of a select
type SelectQuery struct {
	OrderBy string
	Desc    bool
	Limit   int
}

// SelectOption customizes a select
type SelectOption func(*SelectQuery)

// OrderBy sorts the result on a column
func OrderBy(column string, desc bool) SelectOption {
	return func(q *SelectQuery) {
		q.OrderBy = column
		q.Desc = desc
	}
}

// Limit caps the number of returned rows (0 means no limit)
func Limit(n int) SelectOption {
	return func(q *SelectQuery) {
		q.Limit = n
	}
}

// BuildSelectQuery applies the options over an empty query
func BuildSelectQuery(opts ...SelectOption) SelectQuery {
	var q SelectQuery
	for _, opt := range opts {
		opt(&q)
	}
	return q
}

// SchemaMismatchError wraps ErrSchemaMismatch with the offending column
type SchemaMismatchError struct {
	Table  string
	Column string
	Err    error
}

func (e *SchemaMismatchError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: tabla %s sin columna %s: %v", ErrSchemaMismatch, e.Table, e.Column, e.Err)
	}
	return fmt.Sprintf("%s: tabla %s: %v", ErrSchemaMismatch, e.Table, e.Err)
}

func (e *SchemaMismatchError) Unwrap() []error {
	return []error{ErrSchemaMismatch, e.Err}
}

// IsSchemaMismatch reports whether err is a schema mismatch
func IsSchemaMismatch(err error) bool {
	return errors.Is(err, ErrSchemaMismatch)
}

// IsConflict reports whether err is a unique conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// withTimeout derives a store round-trip context
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, defaultTimeout)
}

// sortedKeys returns the keys of a map in a stable order
func sortedKeys[M ~map[string]interface{}](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// validIdentifier accepts plain snake_case table and column names
func validIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

func checkIdentifiers(table string, columns ...string) error {
	if !validIdentifier(table) {
		return fmt.Errorf("nombre de tabla inválido: %q", table)
	}
	for _, c := range columns {
		if !validIdentifier(c) {
			return fmt.Errorf("nombre de columna inválido: %q", c)
		}
	}
	return nil
}

// String returns the column value as a string ("" if absent)
func (r Row) String(column string) string {
	switch v := r[column].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the column value as an int (0 if absent or not numeric)
func (r Row) Int(column string) int {
	switch v := r[column].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint:
		return int(v)
	case uint32:
		return int(v)
	case uint64:
		return int(v)
	case float32:
		return int(v)
	case float64:
		return int(v)
	case string:
		var n int
		if _, err := fmt.Sscan(strings.TrimSpace(v), &n); err == nil {
			return n
		}
	}
	return 0
}

// Time returns the column value as a time (zero if absent or unparseable)
func (r Row) Time(column string) time.Time {
	switch v := r[column].(type) {
	case time.Time:
		return v
	case *time.Time:
		if v != nil {
			return *v
		}
	case interface{ Time() time.Time }:
		return v.Time()
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
