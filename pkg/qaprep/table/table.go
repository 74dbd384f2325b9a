// Package table provides the in-memory, column-ordered table that every
// pipeline stage reads and widens. Columns are appended in insertion order;
// row order only changes through explicit row-removal calls.
//
// A Table has a single owner. It is not safe for concurrent mutation.
package table

import (
	"fmt"
	"math"

	"github.com/cognicore/qaprep/pkg/qaprep/clean"
	"github.com/cognicore/qaprep/pkg/qaprep/internalerr"
)

// Kind is the value type of a column
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column is a named, typed sequence of cells. A nil cell is null.
type Column struct {
	Name   string
	Kind   Kind
	Values []any
}

// Table is an ordered set of equally long columns
type Table struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// New creates an empty table.
func New() *Table {
	return &Table{index: make(map[string]int)}
}

// FromRows builds a table from row maps. Columns are created in the order
// given; keys absent from a row become null cells.
func FromRows(columns []string, rows []map[string]any) (*Table, error) {
	t := New()
	for _, name := range columns {
		values := make([]any, len(rows))
		for i, row := range rows {
			values[i] = row[name]
		}
		if err := t.AddColumn(name, KindString, values); err != nil {
			return nil, err
		}
	}
	if len(columns) == 0 {
		t.rows = len(rows)
	}
	return t, nil
}

// Len returns the number of rows
func (t *Table) Len() int { return t.rows }

// Width returns the number of columns
func (t *Table) Width() int { return len(t.cols) }

// Columns returns the column names in order
func (t *Table) Columns() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Has reports whether a column exists
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// AddColumn appends a new column. The name must be unused and, unless the
// table has no columns yet, values must match the row count.
func (t *Table) AddColumn(name string, kind Kind, values []any) error {
	if t.Has(name) {
		return fmt.Errorf("add column %q: %w: column already exists", name, internalerr.ErrSchema)
	}
	if len(t.cols) > 0 && len(values) != t.rows {
		return fmt.Errorf("add column %q: %w: got %d values for %d rows", name, internalerr.ErrInvalidInput, len(values), t.rows)
	}
	if len(t.cols) == 0 {
		t.rows = len(values)
	}
	t.index[name] = len(t.cols)
	t.cols = append(t.cols, &Column{Name: name, Kind: kind, Values: values})
	return nil
}

// SetColumn replaces an existing column's cells in place, keeping its
// position, or appends it when absent.
func (t *Table) SetColumn(name string, kind Kind, values []any) error {
	i, ok := t.index[name]
	if !ok {
		return t.AddColumn(name, kind, values)
	}
	if len(values) != t.rows {
		return fmt.Errorf("set column %q: %w: got %d values for %d rows", name, internalerr.ErrInvalidInput, len(values), t.rows)
	}
	t.cols[i].Kind = kind
	t.cols[i].Values = values
	return nil
}

// RenameColumn renames a column in place, keeping its position.
func (t *Table) RenameColumn(from, to string) error {
	i, ok := t.index[from]
	if !ok {
		return &SchemaError{Missing: []string{from}}
	}
	if from == to {
		return nil
	}
	if t.Has(to) {
		return fmt.Errorf("rename %q to %q: %w: column already exists", from, to, internalerr.ErrSchema)
	}
	delete(t.index, from)
	t.index[to] = i
	t.cols[i].Name = to
	return nil
}

// Value returns one cell, or nil when the column or row does not exist.
func (t *Table) Value(row int, name string) any {
	c, ok := t.Column(name)
	if !ok || row < 0 || row >= t.rows {
		return nil
	}
	return c.Values[row]
}

// Row returns the cells of row i in column order.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.cols))
	for j, c := range t.cols {
		row[j] = c.Values[i]
	}
	return row
}

// Strings returns a column coerced to strings; nulls become "".
func (t *Table) Strings(name string) ([]string, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, &SchemaError{Missing: []string{name}}
	}
	out := make([]string, len(c.Values))
	for i, v := range c.Values {
		out[i] = clean.Coerce(v)
	}
	return out, nil
}

// Clone returns a deep copy of the table structure and cell slices.
func (t *Table) Clone() *Table {
	out := &Table{
		cols:  make([]*Column, len(t.cols)),
		index: make(map[string]int, len(t.index)),
		rows:  t.rows,
	}
	for i, c := range t.cols {
		values := make([]any, len(c.Values))
		copy(values, c.Values)
		out.cols[i] = &Column{Name: c.Name, Kind: c.Kind, Values: values}
		out.index[c.Name] = i
	}
	return out
}

// keepRows retains the rows whose keep flag is set, preserving order.
func (t *Table) keepRows(keep []bool) int {
	kept := 0
	for _, k := range keep {
		if k {
			kept++
		}
	}
	for _, c := range t.cols {
		values := make([]any, 0, kept)
		for i, v := range c.Values {
			if keep[i] {
				values = append(values, v)
			}
		}
		c.Values = values
	}
	dropped := t.rows - kept
	t.rows = kept
	return dropped
}

// IsNull reports whether a cell is null (nil or a NaN float).
func IsNull(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(val)
	case float32:
		return math.IsNaN(float64(val))
	}
	return false
}
