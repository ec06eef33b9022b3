package features

import (
	"fmt"
	"slices"

	"github.com/palantir/card-catalog-pipeline/pkg/table"
)

// FilterByLegality keeps the rows whose status for format is not one of excluded.
// A row with no recorded status is kept. Row order is preserved.
func (tb *Toolbox) FilterByLegality(t *table.Table, format string, excluded ...string) (*table.Table, error) {
	const op = "filter by legality"
	if !tb.vocab.IsFormat(format) {
		return t, unknownFormat(op, format)
	}
	for _, s := range excluded {
		if !slices.Contains(Statuses, s) {
			return t, fmt.Errorf("%s: %w %q", op, ErrUnknownStatus, s)
		}
	}
	c, err := t.Column(format)
	if err != nil {
		return t, err
	}
	if !c.Is(table.KindString) {
		return t, table.TypeMismatch(op, format, c.Type(), table.KindString)
	}
	return t.Filter(func(row int) bool {
		s, ok := c.At(row).Str()
		return !ok || !slices.Contains(excluded, s)
	}), nil
}

// RequirePrice keeps the rows with a recorded value in the given price column.
func RequirePrice(t *table.Table, column string) (*table.Table, error) {
	c, err := t.Column(column)
	if err != nil {
		return t, err
	}
	return t.Filter(func(row int) bool { return !c.At(row).IsNull() }), nil
}

// StandardPriced keeps standard-legal (or restricted) cards with a price in currency.
func (tb *Toolbox) StandardPriced(t *table.Table, currency string) (*table.Table, error) {
	out, err := tb.FilterByLegality(t, "standard", StatusNotLegal, StatusBanned)
	if err != nil {
		return t, err
	}
	out, err = RequirePrice(out, currency)
	if err != nil {
		return t, err
	}
	return out, nil
}

// MTGOPlayable keeps cards with a tix price that are playable in vintage, which
// is the set of cards that exist on Magic Online.
func (tb *Toolbox) MTGOPlayable(t *table.Table) (*table.Table, error) {
	out, err := RequirePrice(t, "tix")
	if err != nil {
		return t, err
	}
	out, err = tb.FilterByLegality(out, "vintage", StatusNotLegal, StatusBanned)
	if err != nil {
		return t, err
	}
	return out, nil
}

// BinarizeLegalities encodes each format column as 1 when the card is legal and
// 0 otherwise (not_legal, banned, restricted or no status). An empty list means
// every vocabulary format.
//
// A column that is already encoded (ints in {0,1}) is left as is, so applying
// the step twice is harmless.
func (tb *Toolbox) BinarizeLegalities(t *table.Table, formats ...string) (*table.Table, error) {
	const op = "binarize legalities"
	formats, err := tb.formats(op, formats)
	if err != nil {
		return t, err
	}
	return tb.mapColumns(t, formats, func(c *table.Column) (*table.Column, error) {
		switch c.Type() {
		case table.KindInt:
			if isBinary(c) {
				return c, nil
			}
			return nil, &table.ColumnError{Op: op, Column: c.Name(), Err: table.ErrTypeMismatch, Detail: "int column holds values other than 0 and 1"}
		case table.KindString, table.KindNull:
		default:
			return nil, table.TypeMismatch(op, c.Name(), c.Type(), table.KindString)
		}
		vals := make([]table.Value, c.Len())
		for i := range vals {
			if s, _ := c.At(i).Str(); s == StatusLegal {
				vals[i] = table.Int(1)
			} else {
				vals[i] = table.Int(0)
			}
		}
		return table.NewColumn(c.Name(), vals), nil
	})
}

// DropLegalities removes the given format columns. An empty list means every
// vocabulary format.
func (tb *Toolbox) DropLegalities(t *table.Table, formats ...string) (*table.Table, error) {
	formats, err := tb.formats("drop legalities", formats)
	if err != nil {
		return t, err
	}
	return t.Drop(formats...)
}

func isBinary(c *table.Column) bool {
	for i := 0; i < c.Len(); i++ {
		n, ok := c.At(i).Int64()
		if !ok || (n != 0 && n != 1) {
			return false
		}
	}
	return true
}
