// Package processor is a downstream pipeline that adds its own step next to
// the toolbox ones.
package processor

import (
	"slices"

	"github.com/palantir/card-catalog-pipeline/pkg/features"
	"github.com/palantir/card-catalog-pipeline/pkg/pipeline"
	"github.com/palantir/card-catalog-pipeline/pkg/table"
)

// IsCreature appends a bool column is_creature from the types tokens. A null
// type line is not a creature.
func IsCreature(t *table.Table) (*table.Table, error) {
	col, err := t.Column("types")
	if err != nil {
		return t, err
	}
	vals := make([]table.Value, col.Len())
	for i := range vals {
		tokens, _ := col.At(i).Strings()
		vals[i] = table.Bool(slices.Contains(tokens, "Creature"))
	}
	return t.Append(table.NewColumn("is_creature", vals))
}

// Pipeline splits type lines and flags creatures.
func Pipeline() *pipeline.Pipeline {
	return pipeline.New(
		pipeline.Step{Name: "split_type_line", Apply: features.SplitTypeLine},
		pipeline.Step{Name: "is_creature", Apply: IsCreature},
	)
}
