package features

import (
	"strings"

	"github.com/palantir/card-catalog-pipeline/pkg/table"
)

const (
	TypeLineColumn = "type_line"
	TypesColumn    = "types"

	// SubtypeSeparator splits supertypes/types from subtypes in a type line.
	SubtypeSeparator = "—"
)

// SplitTypeLine replaces type_line with a types column holding the ordered type
// tokens before the first subtype separator:
// "Legendary Creature — Human Wizard" becomes ["Legendary", "Creature"].
// A null type line stays null.
func SplitTypeLine(t *table.Table) (*table.Table, error) {
	const op = "split type line"
	c, err := t.Column(TypeLineColumn)
	if err != nil {
		return t, err
	}
	if !c.Is(table.KindString) {
		return t, table.TypeMismatch(op, TypeLineColumn, c.Type(), table.KindString)
	}

	vals := make([]table.Value, c.Len())
	for i := range vals {
		s, ok := c.At(i).Str()
		if !ok {
			continue
		}
		vals[i] = table.Tokens(TypeTokens(s)...)
	}
	return swap(t, TypeLineColumn, table.NewColumn(TypesColumn, vals))
}

// TypeTokens splits one type line.
func TypeTokens(typeLine string) []string {
	if i := strings.Index(typeLine, SubtypeSeparator); i >= 0 {
		typeLine = typeLine[:i]
	}
	tokens := strings.Fields(typeLine)
	if tokens == nil {
		return []string{}
	}
	return tokens
}
