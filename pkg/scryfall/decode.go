package scryfall

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/palantir/card-catalog-pipeline/pkg/table"
)

// PricesColumn holds the per-currency price map of a card object.
const PricesColumn = "prices"

// DecodeCards reads a JSON array of card objects into a table. Columns follow
// first-seen key order; missing keys are null. Price strings ("12.50") become
// decimals.
func DecodeCards(r io.Reader) (*table.Table, error) {
	t, err := table.DecodeJSONArray(r)
	if err != nil {
		return nil, err
	}
	if !t.Has(PricesColumn) {
		return t, nil
	}
	c, err := t.Column(PricesColumn)
	if err != nil {
		return nil, err
	}
	vals := c.Values()
	for i, v := range vals {
		if v.IsNull() {
			continue
		}
		if v.Kind() != table.KindMap {
			return nil, fmt.Errorf("row %d: %s is %s, not an object", i, PricesColumn, v.Kind())
		}
		p, err := decodePrices(v)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		vals[i] = p
	}
	return t.Replace(table.NewColumn(PricesColumn, vals))
}

func decodePrices(v table.Value) (table.Value, error) {
	keys := v.Keys()
	entries := make([]table.Entry, 0, len(keys))
	for _, k := range keys {
		raw, _ := v.Get(k)
		entries = append(entries, table.Entry{Key: k, Value: raw})
		switch raw.Kind() {
		case table.KindString:
			s, _ := raw.Str()
			d, err := decimal.NewFromString(s)
			if err != nil {
				return table.Value{}, fmt.Errorf("price %s=%q: %w", k, s, err)
			}
			entries[len(entries)-1].Value = table.Decimal(d)
		case table.KindInt, table.KindFloat:
			f, _ := raw.Float64()
			entries[len(entries)-1].Value = table.Decimal(decimal.NewFromFloat(f))
		}
	}
	return table.Map(entries...), nil
}
