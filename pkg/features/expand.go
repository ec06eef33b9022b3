package features

import (
	"github.com/palantir/card-catalog-pipeline/pkg/table"
)

// ExpandNested flattens the vocabulary's nested columns (legalities, prices).
func (tb *Toolbox) ExpandNested(t *table.Table) (*table.Table, error) {
	return ExpandColumns(t, tb.vocab.NestedColumns...)
}

// ExpandColumns replaces each map-valued column with one column per distinct key,
// in first-seen order across rows. Rows lacking a key, or whose map is null, get
// null. The new columns are appended after the remaining columns. Any collision
// between generated names, or with a surviving column, is ErrSchemaConflict.
func ExpandColumns(t *table.Table, nested ...string) (*table.Table, error) {
	const op = "expand nested"

	var derived []*table.Column
	owner := map[string]string{}
	for _, name := range nested {
		c, err := t.Column(name)
		if err != nil {
			return t, err
		}
		if !c.Is(table.KindMap) {
			return t, table.TypeMismatch(op, name, c.Type(), table.KindMap)
		}

		var keys []string
		seen := map[string]bool{}
		for i := 0; i < c.Len(); i++ {
			for _, k := range c.At(i).Keys() {
				if !seen[k] {
					seen[k] = true
					keys = append(keys, k)
				}
			}
		}

		for _, k := range keys {
			if prev, ok := owner[k]; ok {
				return t, &table.ColumnError{Op: op, Column: k, Err: table.ErrSchemaConflict, Detail: "produced by both " + prev + " and " + name}
			}
			owner[k] = name
			vals := make([]table.Value, c.Len())
			for i := range vals {
				if v, ok := c.At(i).Get(k); ok {
					vals[i] = v
				}
			}
			derived = append(derived, table.NewColumn(k, vals))
		}
	}

	out, err := t.Drop(nested...)
	if err != nil {
		return t, err
	}
	for _, c := range derived {
		if out.Has(c.Name()) {
			return t, &table.ColumnError{Op: op, Column: c.Name(), Err: table.ErrSchemaConflict, Detail: "collides with an existing column"}
		}
	}
	out, err = out.Append(derived...)
	if err != nil {
		return t, err
	}
	return out, nil
}
