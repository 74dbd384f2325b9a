package table

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cognicore/qaprep/pkg/qaprep/clean"
	"github.com/cognicore/qaprep/pkg/qaprep/internalerr"
)

// SchemaError lists required columns absent from a table.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing columns: %v", e.Missing)
}

func (e *SchemaError) Unwrap() error { return internalerr.ErrSchema }

// KindError reports a column whose kind differs from the expected one.
type KindError struct {
	Column string
	Want   Kind
	Got    Kind
}

func (e *KindError) Error() string {
	return fmt.Sprintf("column %q has incorrect kind: expected %s, got %s", e.Column, e.Want, e.Got)
}

func (e *KindError) Unwrap() error { return internalerr.ErrSchema }

// RequireColumns fails with a *SchemaError listing every missing column,
// in the order requested.
func (t *Table) RequireColumns(names ...string) error {
	var missing []string
	for _, n := range names {
		if !t.Has(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

// Validate is the boolean form of RequireColumns.
func (t *Table) Validate(names ...string) bool {
	return t.RequireColumns(names...) == nil
}

// CheckKinds verifies column kinds. Columns absent from the table are
// skipped; use RequireColumns for presence. Checks run in name order.
func (t *Table) CheckKinds(expected map[string]Kind) error {
	names := make([]string, 0, len(expected))
	for n := range expected {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		c, ok := t.Column(n)
		if !ok {
			continue
		}
		if c.Kind != expected[n] {
			return &KindError{Column: n, Want: expected[n], Got: c.Kind}
		}
	}
	return nil
}

// NullCount returns the number of null cells across all columns.
func (t *Table) NullCount() int {
	n := 0
	for _, c := range t.cols {
		for _, v := range c.Values {
			if IsNull(v) {
				n++
			}
		}
	}
	return n
}

// DuplicateCount returns how many rows repeat an earlier row exactly.
func (t *Table) DuplicateCount() int {
	seen := make(map[string]struct{}, t.rows)
	dups := 0
	for i := 0; i < t.rows; i++ {
		key := t.rowKey(i)
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	return dups
}

// CheckIntegrity fails when the table has null cells or duplicate rows.
func (t *Table) CheckIntegrity() error {
	if n := t.NullCount(); n > 0 {
		return fmt.Errorf("%w: table contains %d missing values", internalerr.ErrIntegrity, n)
	}
	if n := t.DuplicateCount(); n > 0 {
		return fmt.Errorf("%w: table contains %d duplicate rows", internalerr.ErrIntegrity, n)
	}
	return nil
}

// DropNulls removes rows holding a null in any of subset (all columns when
// subset is empty). It returns the number of rows removed.
func (t *Table) DropNulls(subset ...string) (int, error) {
	if len(subset) == 0 {
		subset = t.Columns()
	}
	if err := t.RequireColumns(subset...); err != nil {
		return 0, err
	}

	keep := make([]bool, t.rows)
	for i := range keep {
		keep[i] = true
		for _, name := range subset {
			if IsNull(t.Value(i, name)) {
				keep[i] = false
				break
			}
		}
	}
	return t.keepRows(keep), nil
}

// DropDuplicates removes rows equal to an earlier row, keeping the first.
func (t *Table) DropDuplicates() int {
	seen := make(map[string]struct{}, t.rows)
	keep := make([]bool, t.rows)
	for i := range keep {
		key := t.rowKey(i)
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			keep[i] = true
		}
	}
	return t.keepRows(keep)
}

// CoerceStrings converts the given columns to non-null strings.
func (t *Table) CoerceStrings(names ...string) error {
	if err := t.RequireColumns(names...); err != nil {
		return err
	}
	for _, n := range names {
		c, _ := t.Column(n)
		for i, v := range c.Values {
			c.Values[i] = clean.Coerce(v)
		}
		c.Kind = KindString
	}
	return nil
}

func (t *Table) rowKey(i int) string {
	var b strings.Builder
	for _, c := range t.cols {
		fmt.Fprintf(&b, "%T:%v\x1f", c.Values[i], c.Values[i])
	}
	return b.String()
}
