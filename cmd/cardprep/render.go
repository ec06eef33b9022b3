package main

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	pretty "github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/palantir/card-catalog-pipeline/internal/app"
	"github.com/palantir/card-catalog-pipeline/pkg/features"
	"github.com/palantir/card-catalog-pipeline/pkg/pipeline"
	"github.com/palantir/card-catalog-pipeline/pkg/pipeline/recipe"
	"github.com/palantir/card-catalog-pipeline/pkg/table"
)

const maxCellWidth = 40

func (c *cli) previewCmd() *cobra.Command {
	var (
		recipePath string
		input      string
		rows       int
		raw        bool
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Run a recipe and print the first rows of the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if recipePath == "" {
				recipePath = c.cfg.Pipeline.Recipe
			}
			var p *pipeline.Pipeline
			if !raw {
				var err error
				p, err = app.BuildPipeline(recipePath, c.cfg.Pipeline.Workers, c.logger)
				if err != nil {
					return err
				}
			}
			src, err := app.NewSource(c.cfg, input, c.logger)
			if err != nil {
				return err
			}
			res, err := app.Run(cmd.Context(), c.logger, app.Job{Source: src, Pipeline: p})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			head := res.Table.Head(rows)
			renderTable(out, head)
			_, _ = fmt.Fprintf(out, "%d of %d rows, %d columns\n", head.Len(), res.Table.Len(), res.Table.Width())
			return nil
		},
	}
	cmd.Flags().StringVar(&recipePath, "recipe", "", "recipe file (YAML); default is the built-in recipe")
	cmd.Flags().StringVar(&input, "input", "", "read cards from this JSON file instead of Scryfall")
	cmd.Flags().IntVar(&rows, "rows", 10, "number of rows to print")
	cmd.Flags().BoolVar(&raw, "raw", false, "skip the recipe and preview the catalog as loaded")
	return cmd
}

func (c *cli) vocabCmd() *cobra.Command {
	var recipePath string
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Print the format vocabulary, rarity ranks and recipe operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vocab := features.DefaultVocabulary()
			if recipePath != "" {
				r, err := recipe.Load(recipePath)
				if err != nil {
					return err
				}
				vocab = vocab.Merge(r.Vocabulary)
			}
			renderVocabulary(cmd.OutOrStdout(), vocab)
			return nil
		},
	}
	cmd.Flags().StringVar(&recipePath, "recipe", "", "apply this recipe's vocabulary overrides")
	return cmd
}

func renderTable(w io.Writer, t *table.Table) {
	tw := pretty.NewWriter()
	tw.SetOutputMirror(w)

	header := make(pretty.Row, 0, t.Width())
	configs := make([]pretty.ColumnConfig, 0, t.Width())
	for i, name := range t.Columns() {
		header = append(header, name)
		configs = append(configs, pretty.ColumnConfig{Number: i + 1, WidthMax: maxCellWidth, WidthMaxEnforcer: text.Trim})
	}
	tw.AppendHeader(header)
	for i := 0; i < t.Len(); i++ {
		row := make(pretty.Row, 0, t.Width())
		for _, v := range t.Row(i) {
			row = append(row, v.String())
		}
		tw.AppendRow(row)
	}
	tw.SetColumnConfigs(configs)
	tw.SetStyle(pretty.StyleRounded)
	tw.Render()
}

func renderVocabulary(w io.Writer, v features.Vocabulary) {
	formats := pretty.NewWriter()
	formats.SetOutputMirror(w)
	formats.SetTitle("Formats")
	formats.AppendHeader(pretty.Row{"#", "Format"})
	for i, f := range v.Formats {
		formats.AppendRow(pretty.Row{i + 1, f})
	}
	formats.SetStyle(pretty.StyleRounded)
	formats.Render()

	type rank struct {
		rarity string
		rank   int
	}
	ranks := make([]rank, 0, len(v.RarityRanks))
	for r, n := range v.RarityRanks {
		ranks = append(ranks, rank{rarity: r, rank: n})
	}
	slices.SortFunc(ranks, func(a, b rank) int {
		return cmp.Or(cmp.Compare(a.rank, b.rank), cmp.Compare(a.rarity, b.rarity))
	})
	rarities := pretty.NewWriter()
	rarities.SetOutputMirror(w)
	rarities.SetTitle("Rarity ranks")
	rarities.AppendHeader(pretty.Row{"Rarity", "Rank"})
	for _, r := range ranks {
		rarities.AppendRow(pretty.Row{r.rarity, r.rank})
	}
	rarities.SetStyle(pretty.StyleRounded)
	rarities.Render()

	ops := pretty.NewWriter()
	ops.SetOutputMirror(w)
	ops.SetTitle("Recipe operations")
	ops.AppendHeader(pretty.Row{"Op"})
	for _, op := range recipe.Ops() {
		ops.AppendRow(pretty.Row{op})
	}
	ops.SetStyle(pretty.StyleRounded)
	ops.Render()
}
