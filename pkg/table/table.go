// Package table is an immutable, schema-checked columnar table of tagged values.
//
// Every method that changes shape returns a new *Table and leaves the receiver
// untouched, so a table can be handed to several consumers without copying.
package table

import (
	"fmt"
	"slices"
)

// Transform is one table-to-table step. On error it returns its input unchanged.
type Transform func(*Table) (*Table, error)

// Field describes one column of a table schema.
type Field struct {
	Name string
	Type Kind
}

// Table is an ordered set of equal-length columns with unique names.
type Table struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// New builds a table from columns. Names must be unique and lengths equal.
func New(cols ...*Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := t.index[c.name]; dup {
			return nil, conflict("new table", c.name)
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, &ColumnError{
				Op:     "new table",
				Column: c.name,
				Err:    ErrLengthMismatch,
				Detail: fmt.Sprintf("has %d rows, want %d", c.Len(), t.rows),
			}
		}
		t.index[c.name] = i
	}
	t.cols = slices.Clone(cols)
	return t, nil
}

// Empty returns a table with no columns and no rows.
func Empty() *Table {
	return &Table{index: map[string]int{}}
}

func (t *Table) Len() int   { return t.rows }
func (t *Table) Width() int { return len(t.cols) }

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.name
	}
	return out
}

// Schema returns name and type of every column in order.
func (t *Table) Schema() []Field {
	out := make([]Field, len(t.cols))
	for i, c := range t.cols {
		out[i] = Field{Name: c.name, Type: c.typ}
	}
	return out
}

// Has reports whether the table has a column with the given name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, unknownColumn("lookup", name)
	}
	return t.cols[i], nil
}

// ColumnAt returns the i-th column.
func (t *Table) ColumnAt(i int) *Column { return t.cols[i] }

// Value returns the cell at (row, column).
func (t *Table) Value(row int, name string) (Value, error) {
	c, err := t.Column(name)
	if err != nil {
		return Value{}, err
	}
	return c.At(row), nil
}

// Row returns the cells of one row, in column order.
func (t *Table) Row(i int) []Value {
	out := make([]Value, len(t.cols))
	for j, c := range t.cols {
		out[j] = c.At(i)
	}
	return out
}

// Drop removes the named columns. Every name must exist.
func (t *Table) Drop(names ...string) (*Table, error) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		if !t.Has(n) {
			return t, unknownColumn("drop", n)
		}
		drop[n] = true
	}
	kept := make([]*Column, 0, len(t.cols))
	for _, c := range t.cols {
		if !drop[c.name] {
			kept = append(kept, c)
		}
	}
	return t.rebuild(kept), nil
}

// Select keeps only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	kept := make([]*Column, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		c, err := t.Column(n)
		if err != nil {
			return t, err
		}
		if seen[n] {
			return t, conflict("select", n)
		}
		seen[n] = true
		kept = append(kept, c)
	}
	return t.rebuild(kept), nil
}

// Append adds new columns at the end. Names must not collide.
func (t *Table) Append(cols ...*Column) (*Table, error) {
	out := slices.Clone(t.cols)
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if t.Has(c.name) || seen[c.name] {
			return t, conflict("append", c.name)
		}
		if len(t.cols) > 0 && c.Len() != t.rows {
			return t, &ColumnError{
				Op:     "append",
				Column: c.name,
				Err:    ErrLengthMismatch,
				Detail: fmt.Sprintf("has %d rows, want %d", c.Len(), t.rows),
			}
		}
		seen[c.name] = true
		out = append(out, c)
	}
	if len(t.cols) == 0 && len(cols) > 0 {
		return New(out...)
	}
	return t.rebuild(out), nil
}

// Replace swaps the column with the same name in place.
func (t *Table) Replace(c *Column) (*Table, error) {
	i, ok := t.index[c.name]
	if !ok {
		return t, unknownColumn("replace", c.name)
	}
	if c.Len() != t.rows {
		return t, &ColumnError{
			Op:     "replace",
			Column: c.name,
			Err:    ErrLengthMismatch,
			Detail: fmt.Sprintf("has %d rows, want %d", c.Len(), t.rows),
		}
	}
	out := slices.Clone(t.cols)
	out[i] = c
	return t.rebuild(out), nil
}

// Rename renames columns in place. Targets must not collide with each other or
// with columns that keep their name.
func (t *Table) Rename(mapping map[string]string) (*Table, error) {
	for old := range mapping {
		if !t.Has(old) {
			return t, unknownColumn("rename", old)
		}
	}
	out := make([]*Column, len(t.cols))
	seen := make(map[string]bool, len(t.cols))
	for i, c := range t.cols {
		name := c.name
		if n, ok := mapping[name]; ok {
			name = n
		}
		if seen[name] {
			return t, conflict("rename", name)
		}
		seen[name] = true
		if name == c.name {
			out[i] = c
		} else {
			out[i] = c.renamed(name)
		}
	}
	return t.rebuild(out), nil
}

// Filter keeps the rows for which keep returns true. Order is preserved and the
// result is densely indexed from zero.
func (t *Table) Filter(keep func(row int) bool) *Table {
	idx := make([]int, 0, t.rows)
	for i := 0; i < t.rows; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	if len(idx) == t.rows {
		return t
	}
	out := make([]*Column, len(t.cols))
	for j, c := range t.cols {
		vals := make([]Value, len(idx))
		for k, i := range idx {
			vals[k] = c.values[i]
		}
		out[j] = &Column{name: c.name, typ: inferType(vals), values: vals}
	}
	nt := t.rebuild(out)
	nt.rows = len(idx)
	return nt
}

// Head returns the first n rows.
func (t *Table) Head(n int) *Table {
	if n >= t.rows {
		return t
	}
	if n < 0 {
		n = 0
	}
	return t.Filter(func(row int) bool { return row < n })
}

func (t *Table) rebuild(cols []*Column) *Table {
	nt := &Table{cols: cols, index: make(map[string]int, len(cols)), rows: t.rows}
	for i, c := range cols {
		nt.index[c.name] = i
	}
	if len(cols) == 0 {
		nt.rows = 0
	}
	return nt
}
