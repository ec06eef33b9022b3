package features

import (
	"github.com/palantir/card-catalog-pipeline/pkg/table"
)

// DropOptions tunes DropColumns.
type DropOptions struct {
	// Lenient skips names the table does not have instead of failing.
	Lenient bool
}

// DropColumns removes the named columns. Without Lenient every name must exist.
func DropColumns(t *table.Table, names []string, opts DropOptions) (*table.Table, error) {
	if !opts.Lenient {
		return t.Drop(names...)
	}
	present := make([]string, 0, len(names))
	for _, n := range names {
		if t.Has(n) {
			present = append(present, n)
		}
	}
	return t.Drop(present...)
}

// DropNoise removes the vocabulary's primary noise columns.
func (tb *Toolbox) DropNoise(t *table.Table, opts DropOptions) (*table.Table, error) {
	return DropColumns(t, tb.vocab.NoiseColumns, opts)
}

// DropPresentation removes the vocabulary's presentation columns.
func (tb *Toolbox) DropPresentation(t *table.Table, opts DropOptions) (*table.Table, error) {
	return DropColumns(t, tb.vocab.PresentationColumns, opts)
}

// SelectColumns keeps only the named columns, in the given order.
func SelectColumns(t *table.Table, names []string) (*table.Table, error) {
	return t.Select(names...)
}

// RenameColumns renames columns in place.
func RenameColumns(t *table.Table, mapping map[string]string) (*table.Table, error) {
	return t.Rename(mapping)
}
