package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/palantir/card-catalog-pipeline/internal/app"
	"github.com/palantir/card-catalog-pipeline/internal/config"
	"github.com/palantir/card-catalog-pipeline/internal/logging"
	"github.com/palantir/card-catalog-pipeline/internal/version"
)

// cli carries the state shared by every subcommand. cfg and logger are set in
// the root's PersistentPreRunE, after flags are parsed.
type cli struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "cardprep",
		Short: "Fetch the Scryfall card catalog and turn it into feature tables",
		Long: `cardprep downloads the Scryfall bulk card catalog (or reads a saved copy),
runs a recipe of feature transforms over it and exports the result as CSV
or SQLite.

Settings come from the --config file, then environment variables
(SCRYFALL_BASE_URL, SCRYFALL_BULK_TYPE, SCRYFALL_TIMEOUT, LOG_LEVEL, ...),
then command-line flags.`,
		Version:       version.Current,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return c.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (YAML)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides config and LOG_LEVEL")

	root.AddCommand(
		c.fetchCmd(),
		c.runCmd(),
		c.previewCmd(),
		c.vocabCmd(),
		c.recipeCmd(),
	)
	return root
}

func (c *cli) setup() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	c.cfg = cfg
	c.logger = logger
	return nil
}

// outputFlags are the export flags shared by fetch and run. Empty flags keep
// the configured value.
type outputFlags struct {
	csv    string
	sqlite string
	table  string
	mode   string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.csv, "out-csv", "", "write the table to this CSV file")
	cmd.Flags().StringVar(&o.sqlite, "out-sqlite", "", "write the table to this SQLite database")
	cmd.Flags().StringVar(&o.table, "table", "", "SQLite table name (default \"cards\")")
	cmd.Flags().StringVar(&o.mode, "mode", "", "SQLite write mode: replace or append (default replace)")
}

func (o *outputFlags) apply(dst *config.OutputConfig) {
	if o.csv != "" {
		dst.CSV = o.csv
	}
	if o.sqlite != "" {
		dst.SQLite = o.sqlite
	}
	if o.table != "" {
		dst.Table = o.table
	}
	if o.mode != "" {
		dst.Mode = o.mode
	}
}

func (c *cli) printSummary(cmd *cobra.Command, res app.Result, outputs []app.Output) {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "run %s: %d rows, %d columns in %s\n",
		res.RunID, res.Table.Len(), res.Table.Width(), res.Duration.Round(time.Millisecond))
	for _, o := range outputs {
		_, _ = fmt.Fprintf(out, "  wrote %s\n", o.Name)
	}
}
