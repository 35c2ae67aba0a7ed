// Package table holds rows of nullable text cells under named columns and
// answers hydration lookups from them. CSV, Excel and S3 sources all load
// into a Table.
package table

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/hengadev/hydrx"
)

var (
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrEmptyColumn     = errors.New("empty column name")
	ErrRowWidth        = errors.New("row has more cells than columns")
)

// Cell is one value of a row. A cell that is not Valid answers a null.
type Cell struct {
	Value string
	Valid bool
}

// Text returns a valid cell.
func Text(s string) Cell { return Cell{Value: s, Valid: true} }

// NullCell returns a cell that answers a null.
func NullCell() Cell { return Cell{} }

// Option configures how a Table answers lookups.
type Option func(*Table)

// EmptyAsNull makes empty cells answer a null instead of an empty string.
func EmptyAsNull() Option {
	return func(t *Table) { t.emptyAsNull = true }
}

// SkipMissing makes keys with no matching column answer a skip instead of a null.
func SkipMissing() Option {
	return func(t *Table) { t.skipMissing = true }
}

// TrimSpace trims surrounding white space from every cell value.
func TrimSpace() Option {
	return func(t *Table) { t.trim = true }
}

// Table is a set of rows sharing one header.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Cell

	emptyAsNull bool
	skipMissing bool
	trim        bool
}

// New creates an empty table with the given header. Column names must be
// unique and non-empty.
func New(columns []string, opts ...Option) (*Table, error) {
	t := &Table{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if c == "" {
			return nil, fmt.Errorf("%w at position %d", ErrEmptyColumn, i)
		}
		if _, ok := t.index[c]; ok {
			return nil, fmt.Errorf("%w '%s'", ErrDuplicateColumn, c)
		}
		t.index[c] = i
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Append adds a row. Rows shorter than the header are padded with null cells.
func (t *Table) Append(cells ...Cell) error {
	if len(cells) > len(t.columns) {
		return fmt.Errorf("%w: %d cells for %d columns", ErrRowWidth, len(cells), len(t.columns))
	}
	row := make([]Cell, len(t.columns))
	copy(row, cells)
	t.rows = append(t.rows, row)
	return nil
}

// AppendStrings adds a row of valid cells.
func (t *Table) AppendStrings(values ...string) error {
	cells := make([]Cell, len(values))
	for i, v := range values {
		cells[i] = Text(v)
	}
	return t.Append(cells...)
}

func (t *Table) Columns() []string { return slices.Clone(t.columns) }

func (t *Table) Len() int { return len(t.rows) }

// Row returns the i-th row.
func (t *Table) Row(i int) Row {
	return Row{table: t, cells: t.rows[i], Index: i}
}

// Rows returns every row in insertion order.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	for i := range t.rows {
		out[i] = t.Row(i)
	}
	return out
}

// All iterates the rows in insertion order.
func (t *Table) All() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for i := range t.rows {
			if !yield(t.Row(i)) {
				return
			}
		}
	}
}

// Row is a view on one row of a Table.
type Row struct {
	table *Table
	cells []Cell
	// Index is the zero-based position of the row in its table.
	Index int
}

// Get returns the cell under column key.
func (r Row) Get(key string) (Cell, bool) {
	i, ok := r.table.index[key]
	if !ok {
		return Cell{}, false
	}
	return r.cells[i], true
}

// Lookup answers key from this row. It can be passed wherever a
// hydrx.Lookup is expected.
func (r Row) Lookup(key string) hydrx.Result {
	cell, ok := r.Get(key)
	if !ok {
		if r.table.skipMissing {
			return hydrx.Skip()
		}
		return hydrx.Null()
	}
	if !cell.Valid {
		return hydrx.Null()
	}
	value := cell.Value
	if r.table.trim {
		value = strings.TrimSpace(value)
	}
	if value == "" && r.table.emptyAsNull {
		return hydrx.Null()
	}
	return hydrx.Value(value)
}

// Lookup is the row lookup for tables, usable with hydrx.HydrateMany.
func Lookup(row Row, key string) hydrx.Result {
	return row.Lookup(key)
}

// Hydrate builds one T per row of t.
func Hydrate[T any](e *hydrx.Engine[T], t *Table, opts ...hydrx.CallOption) ([]*T, error) {
	return hydrx.HydrateMany(e, t.Rows(), Lookup, opts...)
}

// Coverage compares the lookup keys of a plan with the columns of a source.
type Coverage struct {
	// Missing keys have no column and hydrate as null.
	Missing []string
	// Unused columns match no key.
	Unused []string
}

func (c Coverage) Complete() bool { return len(c.Missing) == 0 }

// Compare reports which keys the columns cannot answer and which columns no
// key asks for. Both lists keep the order of their input.
func Compare(keys, columns []string) Coverage {
	var c Coverage
	for _, k := range keys {
		if !slices.Contains(columns, k) {
			c.Missing = append(c.Missing, k)
		}
	}
	for _, col := range columns {
		if !slices.Contains(keys, col) {
			c.Unused = append(c.Unused, col)
		}
	}
	return c
}
