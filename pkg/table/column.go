package table

import "slices"

// Column is a named, immutable sequence of values with an inferred type.
type Column struct {
	name   string
	typ    Kind
	values []Value
}

// NewColumn copies vals into a new column and infers its type.
func NewColumn(name string, vals []Value) *Column {
	return newColumn(name, slices.Clone(vals))
}

// newColumn takes ownership of vals.
func newColumn(name string, vals []Value) *Column {
	return &Column{name: name, typ: inferType(vals), values: vals}
}

func (c *Column) Name() string { return c.name }
func (c *Column) Type() Kind   { return c.typ }
func (c *Column) Len() int     { return len(c.values) }

// At returns the value at row i.
func (c *Column) At(i int) Value { return c.values[i] }

// Values returns a copy of the column's values.
func (c *Column) Values() []Value { return slices.Clone(c.values) }

// NullCount returns the number of absent values.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.values {
		if v.IsNull() {
			n++
		}
	}
	return n
}

// Is reports whether every non-null value has one of the given kinds.
func (c *Column) Is(kinds ...Kind) bool {
	return c.typ == KindNull || slices.Contains(kinds, c.typ)
}

// renamed shares the value slice; columns never mutate it.
func (c *Column) renamed(name string) *Column {
	return &Column{name: name, typ: c.typ, values: c.values}
}

func inferType(vals []Value) Kind {
	typ := KindNull
	for _, v := range vals {
		k := v.Kind()
		switch {
		case k == KindNull || k == typ:
		case typ == KindNull:
			typ = k
		case (typ == KindInt && k == KindFloat) || (typ == KindFloat && k == KindInt):
			typ = KindFloat
		default:
			return KindMixed
		}
	}
	return typ
}
