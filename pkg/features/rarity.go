package features

import (
	"github.com/palantir/card-catalog-pipeline/pkg/table"
)

const (
	RarityColumn        = "rarity"
	OrdinalRarityColumn = "ordinate_rarity"
)

// OrdinateRarity replaces the rarity column with its integer rank, appended as
// ordinate_rarity. A value outside the vocabulary, null included, is ErrUnknownRarity.
func (tb *Toolbox) OrdinateRarity(t *table.Table) (*table.Table, error) {
	const op = "ordinate rarity"
	c, err := t.Column(RarityColumn)
	if err != nil {
		return t, err
	}
	if !c.Is(table.KindString) {
		return t, table.TypeMismatch(op, RarityColumn, c.Type(), table.KindString)
	}

	vals := make([]table.Value, c.Len())
	for i := range vals {
		s, _ := c.At(i).Str()
		rank, ok := tb.vocab.RarityRanks[s]
		if !ok {
			return t, &ValueError{Op: op, Column: RarityColumn, Row: i, Value: c.At(i).String(), Err: ErrUnknownRarity}
		}
		vals[i] = table.Int(int64(rank))
	}
	return swap(t, RarityColumn, table.NewColumn(OrdinalRarityColumn, vals))
}

// swap drops one column and appends its derived replacement.
func swap(t *table.Table, drop string, derived *table.Column) (*table.Table, error) {
	out, err := t.Drop(drop)
	if err != nil {
		return t, err
	}
	out, err = out.Append(derived)
	if err != nil {
		return t, err
	}
	return out, nil
}
