// Package schema maps table column types onto the storage types the sinks write.
package schema

import (
	"strings"

	"github.com/palantir/card-catalog-pipeline/pkg/table"
)

// WriteMode captures what a sink does with an existing destination.
type WriteMode string

const (
	WriteModeReplace WriteMode = "replace"
	WriteModeAppend  WriteMode = "append"
)

// Storage types used by the SQL sink.
const (
	TypeInteger = "INTEGER"
	TypeReal    = "REAL"
	TypeText    = "TEXT"
)

// Field captures the minimal behavior-relevant schema fields.
type Field struct {
	Name     string
	Type     string
	Kind     table.Kind
	Nullable bool
}

// Contract is the storage schema a sink writes a table with.
type Contract struct {
	Mode   WriteMode
	Fields []Field
}

func NormalizeMode(raw string) WriteMode {
	s := strings.TrimSpace(strings.ToLower(raw))
	switch s {
	case "append", "insert":
		return WriteModeAppend
	default:
		return WriteModeReplace
	}
}

// StorageType maps a column type to its storage type. Ints and bools are
// INTEGER, floats REAL; decimals, lists, maps and mixed columns are stored as
// their text form so no precision or structure is lost.
func StorageType(k table.Kind) string {
	switch k {
	case table.KindInt, table.KindBool:
		return TypeInteger
	case table.KindFloat:
		return TypeReal
	default:
		return TypeText
	}
}

// Describe builds the contract for t.
func Describe(t *table.Table, mode WriteMode) Contract {
	fields := make([]Field, 0, t.Width())
	for i := 0; i < t.Width(); i++ {
		c := t.ColumnAt(i)
		fields = append(fields, Field{
			Name:     c.Name(),
			Type:     StorageType(c.Type()),
			Kind:     c.Type(),
			Nullable: c.NullCount() > 0,
		})
	}
	return Contract{Mode: mode, Fields: fields}
}

// Names returns the field names in order.
func (c Contract) Names() []string {
	out := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		out[i] = f.Name
	}
	return out
}
