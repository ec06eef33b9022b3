package app_test

import (
	"context"
	"database/sql"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/palantir/card-catalog-pipeline/internal/app"
	"github.com/palantir/card-catalog-pipeline/internal/config"
	"github.com/palantir/card-catalog-pipeline/pkg/mockscryfall"
	"github.com/palantir/card-catalog-pipeline/pkg/pipeline"
	"github.com/palantir/card-catalog-pipeline/pkg/pipeline/core"
	"github.com/palantir/card-catalog-pipeline/pkg/pipeline/io/local"
	"github.com/palantir/card-catalog-pipeline/pkg/table"
)

const cardsJSON = `[
  {"object":"card","name":"Opt","rarity":"common","type_line":"Instant","legalities":{"standard":"legal"},"prices":{"eur":"0.25"}},
  {"object":"card","name":"Oko","rarity":"rare","type_line":"Legendary Planeswalker — Oko","legalities":{"standard":"banned"},"prices":{"eur":"3.00"}},
  {"object":"card","name":"Shock","rarity":"uncommon","type_line":"Instant","legalities":{"standard":"legal"},"prices":{"eur":null}}
]`

const recipeYAML = `
version: 1
name: standard-eur
steps:
  - op: expand_nested
  - op: filter_by_legality
    format: standard
  - op: require_price
    currency: eur
  - op: select_columns
    columns: [name, rarity, eur]
  - op: ordinate_rarity
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRunWritesEveryOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "cards.json", cardsJSON)
	recipePath := writeFile(t, dir, "recipe.yaml", recipeYAML)

	obs, logs := observer.New(zap.InfoLevel)
	logger := zap.New(obs)

	p, err := app.BuildPipeline(recipePath, 2, logger)
	require.NoError(t, err)

	out := config.OutputConfig{
		CSV:    filepath.Join(dir, "out", "cards.csv"),
		SQLite: filepath.Join(dir, "cards.db"),
		Table:  "standard",
	}
	res, err := app.Run(context.Background(), logger, app.Job{
		Source:   local.CardFile{Path: input},
		Pipeline: p,
		Outputs:  app.Outputs(out, logger),
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)
	require.Equal(t, []string{"name", "eur", "ordinate_rarity"}, res.Table.Columns())

	csvOut, err := os.ReadFile(out.CSV)
	require.NoError(t, err)
	require.Equal(t, "name,eur,ordinate_rarity\nOpt,0.25,1\n", string(csvOut))

	db, err := sql.Open("sqlite", out.SQLite)
	require.NoError(t, err)
	defer db.Close()
	var (
		name string
		rank int
	)
	require.NoError(t, db.QueryRow(`SELECT name, ordinate_rarity FROM "standard"`).Scan(&name, &rank))
	require.Equal(t, "Opt", name)
	require.Equal(t, 1, rank)

	complete := logs.FilterMessage("run complete").All()
	require.Len(t, complete, 1)
	require.Equal(t, res.RunID, complete[0].ContextMap()["run"])
	require.Equal(t, 2, logs.FilterMessage("output written").Len())
	require.Equal(t, 5, logs.FilterMessage("step applied").Len())
}

func TestRunFetchesFromScryfall(t *testing.T) {
	ts := httptest.NewServer(mockscryfall.New([]byte(cardsJSON)).Handler())
	defer ts.Close()

	cfg := config.Default()
	cfg.Scryfall.BaseURL = ts.URL
	cfg.Scryfall.RateLimitRPS = -1

	src, err := app.NewSource(cfg, "", zap.NewNop())
	require.NoError(t, err)

	res, err := app.Run(context.Background(), nil, app.Job{Source: src})
	require.NoError(t, err)
	require.Equal(t, 3, res.Table.Len())
	require.True(t, res.Table.Has("legalities"))
}

func TestRunStoresNothingWhenAStepFails(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "cards.json", `[{"name":"Opt","rarity":"timeshifted"}]`)
	csvPath := filepath.Join(dir, "cards.csv")

	p, err := app.BuildPipeline(writeFile(t, dir, "recipe.yaml", "version: 1\nsteps:\n  - op: ordinate_rarity\n"), 1, nil)
	require.NoError(t, err)

	_, err = app.Run(context.Background(), zap.NewNop(), app.Job{
		Source:   local.CardFile{Path: input},
		Pipeline: p,
		Outputs:  app.Outputs(config.OutputConfig{CSV: csvPath}, nil),
	})
	var se *pipeline.StepError
	require.True(t, errors.As(err, &se))
	require.Equal(t, "ordinate_rarity", se.Name)

	_, statErr := os.Stat(csvPath)
	require.True(t, os.IsNotExist(statErr))
}

func TestRunReportsSourceAndSinkFailures(t *testing.T) {
	boom := errors.New("boom")

	_, err := app.Run(context.Background(), nil, app.Job{
		Source: core.SourceFunc(func(context.Context) (*table.Table, error) { return nil, boom }),
	})
	require.ErrorIs(t, err, boom)

	_, err = app.Run(context.Background(), nil, app.Job{
		Source:  core.SourceFunc(func(context.Context) (*table.Table, error) { return table.Empty(), nil }),
		Outputs: []app.Output{{Name: "broken", Sink: failingSink{err: boom}}},
	})
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "store broken")

	_, err = app.Run(context.Background(), nil, app.Job{})
	require.Error(t, err)
}

func TestLoadRecipeDefaultsToBuiltIn(t *testing.T) {
	r, err := app.LoadRecipe("")
	require.NoError(t, err)
	require.NotEmpty(t, r.Steps)

	_, err = app.LoadRecipe(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestOutputsFollowConfig(t *testing.T) {
	require.Empty(t, app.Outputs(config.OutputConfig{}, nil))

	outs := app.Outputs(config.OutputConfig{CSV: "a.csv", SQLite: "a.db"}, nil)
	require.Len(t, outs, 2)
	require.Equal(t, "csv:a.csv", outs[0].Name)
	require.Equal(t, "sqlite:a.db", outs[1].Name)
}

type failingSink struct{ err error }

func (s failingSink) Store(context.Context, *table.Table) error { return s.err }
