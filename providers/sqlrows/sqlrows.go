// Package sqlrows answers hydration lookups from database/sql result sets.
// Column names are keys; SQL NULL is a null.
package sqlrows

import (
	"context"
	"database/sql"
	"fmt"
	"iter"

	"github.com/hengadev/hydrx"
)

// Record is one scanned row.
type Record struct {
	columns map[string]int
	values  []sql.NullString
	// Index is the zero-based position of the row in its result set.
	Index int
}

// Lookup answers key from the record; unknown columns are nulls.
func (r Record) Lookup(key string) hydrx.Result {
	i, ok := r.columns[key]
	if !ok || !r.values[i].Valid {
		return hydrx.Null()
	}
	return hydrx.Value(r.values[i].String)
}

// Lookup is the row lookup for records, usable with hydrx.HydrateMany.
func Lookup(r Record, key string) hydrx.Result {
	return r.Lookup(key)
}

// Cursor streams records out of *sql.Rows. Check Err after iterating.
type Cursor struct {
	rows    *sql.Rows
	columns map[string]int
	err     error
}

// NewCursor reads the column names of rows. The cursor closes rows once
// iteration ends.
func NewCursor(rows *sql.Rows) (*Cursor, error) {
	names, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	columns := make(map[string]int, len(names))
	for i, name := range names {
		if _, dup := columns[name]; dup {
			rows.Close()
			return nil, fmt.Errorf("duplicate column '%s' in result set", name)
		}
		columns[name] = i
	}
	return &Cursor{rows: rows, columns: columns}, nil
}

// Columns returns the column names in result order.
func (c *Cursor) Columns() []string {
	out := make([]string, len(c.columns))
	for name, i := range c.columns {
		out[i] = name
	}
	return out
}

// Records iterates the remaining rows. It can be ranged over once.
func (c *Cursor) Records() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		defer c.rows.Close()

		for i := 0; c.rows.Next(); i++ {
			values := make([]sql.NullString, len(c.columns))
			dest := make([]any, len(values))
			for j := range values {
				dest[j] = &values[j]
			}
			if err := c.rows.Scan(dest...); err != nil {
				c.err = fmt.Errorf("failed to scan row %d: %w", i, err)
				return
			}
			if !yield(Record{columns: c.columns, values: values, Index: i}) {
				return
			}
		}
		if err := c.rows.Err(); err != nil {
			c.err = fmt.Errorf("failed to iterate rows: %w", err)
		}
	}
}

// Err reports the first scan or driver error met while iterating.
func (c *Cursor) Err() error { return c.err }

// Collect drains and closes rows.
func Collect(rows *sql.Rows) ([]Record, error) {
	cursor, err := NewCursor(rows)
	if err != nil {
		return nil, err
	}
	var out []Record
	for r := range cursor.Records() {
		out = append(out, r)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Hydrate drains rows and builds one T per row.
func Hydrate[T any](e *hydrx.Engine[T], rows *sql.Rows, opts ...hydrx.CallOption) ([]*T, error) {
	records, err := Collect(rows)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []Record{}
	}
	return hydrx.HydrateMany(e, records, Lookup, opts...)
}

// Stream hydrates rows one at a time. A driver error after the last row is
// yielded with a nil value.
func Stream[T any](e *hydrx.Engine[T], rows *sql.Rows, opts ...hydrx.CallOption) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		cursor, err := NewCursor(rows)
		if err != nil {
			yield(nil, err)
			return
		}
		for v, err := range hydrx.HydrateSeq(e, cursor.Records(), Lookup, opts...) {
			if !yield(v, err) {
				return
			}
		}
		if err := cursor.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// Query runs query on db and hydrates every returned row.
func Query[T any](ctx context.Context, db *sql.DB, e *hydrx.Engine[T], query string, args ...any) ([]*T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return Hydrate(e, rows, hydrx.WithContext(ctx))
}
