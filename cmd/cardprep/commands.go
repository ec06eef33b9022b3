package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/palantir/card-catalog-pipeline/internal/app"
	"github.com/palantir/card-catalog-pipeline/pkg/pipeline/recipe"
)

func (c *cli) fetchCmd() *cobra.Command {
	var (
		out      outputFlags
		bulkType string
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the raw bulk catalog and export it unchanged",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if bulkType != "" {
				c.cfg.Scryfall.BulkType = bulkType
			}
			out.apply(&c.cfg.Output)

			src, err := app.NewSource(c.cfg, "", c.logger)
			if err != nil {
				return err
			}
			outputs := app.Outputs(c.cfg.Output, c.logger)
			res, err := app.Run(cmd.Context(), c.logger, app.Job{Source: src, Outputs: outputs})
			if err != nil {
				return err
			}
			c.printSummary(cmd, res, outputs)
			return nil
		},
	}
	out.register(cmd)
	cmd.Flags().StringVar(&bulkType, "bulk-type", "", "bulk dataset to download (default \"oracle_cards\", \"first\" takes the first listed)")
	return cmd
}

func (c *cli) runCmd() *cobra.Command {
	var (
		out        outputFlags
		recipePath string
		input      string
		workers    int
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a recipe over the catalog and export the result",
		Long: `run loads the catalog (from Scryfall, or from --input), applies every recipe
step in order and writes the resulting table to the configured outputs.
Without --recipe the built-in standard-legal recipe runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out.apply(&c.cfg.Output)
			if recipePath != "" {
				c.cfg.Pipeline.Recipe = recipePath
			}
			if workers > 0 {
				c.cfg.Pipeline.Workers = workers
			}

			p, err := app.BuildPipeline(c.cfg.Pipeline.Recipe, c.cfg.Pipeline.Workers, c.logger)
			if err != nil {
				return err
			}
			src, err := app.NewSource(c.cfg, input, c.logger)
			if err != nil {
				return err
			}
			outputs := app.Outputs(c.cfg.Output, c.logger)
			res, err := app.Run(cmd.Context(), c.logger, app.Job{Source: src, Pipeline: p, Outputs: outputs})
			if err != nil {
				return err
			}
			c.printSummary(cmd, res, outputs)
			return nil
		},
	}
	out.register(cmd)
	cmd.Flags().StringVar(&recipePath, "recipe", "", "recipe file (YAML); default is the built-in recipe")
	cmd.Flags().StringVar(&input, "input", "", "read cards from this JSON file instead of Scryfall")
	cmd.Flags().IntVar(&workers, "workers", 0, "per-column parallelism in encoding steps (env: WORKERS)")
	return cmd
}

func (c *cli) recipeCmd() *cobra.Command {
	var recipePath string
	cmd := &cobra.Command{
		Use:   "recipe",
		Short: "Validate a recipe and print it as YAML",
		Long: `recipe loads and builds the recipe without touching any data, then prints it.
Without --recipe it prints the built-in recipe, a starting point for your own.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if recipePath == "" {
				recipePath = c.cfg.Pipeline.Recipe
			}
			r, err := app.LoadRecipe(recipePath)
			if err != nil {
				return err
			}
			if _, err := recipe.Build(r, recipe.Options{}); err != nil {
				return err
			}
			b, err := recipe.Marshal(r)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), string(b))
			return err
		},
	}
	cmd.Flags().StringVar(&recipePath, "recipe", "", "recipe file (YAML)")
	return cmd
}
