package main

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/palantir/card-catalog-pipeline/pkg/mockscryfall"
	"github.com/palantir/card-catalog-pipeline/pkg/pipeline/recipe"
)

const cardsJSON = `[
  {"object":"card","name":"Opt","rarity":"common","type_line":"Instant","legalities":{"standard":"legal"},"prices":{"eur":"0.25"}},
  {"object":"card","name":"Oko","rarity":"rare","type_line":"Legendary Planeswalker — Oko","legalities":{"standard":"banned"},"prices":{"eur":"3.00"}},
  {"object":"card","name":"Shock","rarity":"uncommon","type_line":"Instant","legalities":{"standard":"legal"},"prices":{"eur":null}}
]`

const recipeYAML = `version: 1
steps:
  - op: expand_nested
  - op: standard_priced
  - op: select_columns
    columns: [name, type_line, eur]
  - op: split_type_line
`

func setEnv(t *testing.T) {
	t.Helper()
	for _, v := range []string{
		"SCRYFALL_BASE_URL", "SCRYFALL_BULK_TYPE", "SCRYFALL_TIMEOUT", "SCRYFALL_DOWNLOAD_TIMEOUT",
		"SCRYFALL_RATE_LIMIT_RPS", "SCRYFALL_MAX_RETRIES", "WORKERS", "LOG_FORMAT",
	} {
		t.Setenv(v, "")
	}
	t.Setenv("LOG_LEVEL", "error")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRunWithInputFile(t *testing.T) {
	setEnv(t)
	input := writeFile(t, "cards.json", cardsJSON)
	recipePath := writeFile(t, "recipe.yaml", recipeYAML)
	csvPath := filepath.Join(t.TempDir(), "out.csv")

	out, err := execute(t, "run", "--input", input, "--recipe", recipePath, "--out-csv", csvPath)
	require.NoError(t, err)
	require.Contains(t, out, "1 rows, 3 columns")
	require.Contains(t, out, "wrote csv:"+csvPath)

	got, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	require.Equal(t, "name,eur,types\nOpt,0.25,\"[\"\"Instant\"\"]\"\n", string(got))
}

func TestFetchFromScryfall(t *testing.T) {
	setEnv(t)
	ts := httptest.NewServer(mockscryfall.New([]byte(cardsJSON)).Handler())
	defer ts.Close()
	t.Setenv("SCRYFALL_BASE_URL", ts.URL)
	t.Setenv("SCRYFALL_RATE_LIMIT_RPS", "-1")

	dbPath := filepath.Join(t.TempDir(), "cards.db")
	out, err := execute(t, "fetch", "--out-sqlite", dbPath, "--table", "raw")
	require.NoError(t, err)
	require.Contains(t, out, "3 rows, 6 columns")

	_, err = os.Stat(dbPath)
	require.NoError(t, err)
}

func TestPreviewRaw(t *testing.T) {
	setEnv(t)
	input := writeFile(t, "cards.json", cardsJSON)

	out, err := execute(t, "preview", "--input", input, "--raw", "--rows", "1")
	require.NoError(t, err)
	require.Contains(t, out, "Opt")
	require.NotContains(t, out, "Shock")
	require.Contains(t, out, "1 of 3 rows, 6 columns")
}

func TestVocabListsDefaults(t *testing.T) {
	setEnv(t)

	out, err := execute(t, "vocab")
	require.NoError(t, err)
	for _, want := range []string{"standard", "oldschool", "mythic", "bonus", recipe.OpDaysSinceRelease} {
		require.Contains(t, out, want)
	}
}

func TestVocabAppliesRecipeOverrides(t *testing.T) {
	setEnv(t)
	recipePath := writeFile(t, "recipe.yaml", "version: 1\nvocabulary:\n  formats: [commander]\nsteps:\n  - op: binarize_legalities\n")

	out, err := execute(t, "vocab", "--recipe", recipePath)
	require.NoError(t, err)
	require.Contains(t, out, "commander")
	require.False(t, strings.Contains(out, "pioneer"))
}

func TestRecipePrintsBuiltIn(t *testing.T) {
	setEnv(t)

	out, err := execute(t, "recipe")
	require.NoError(t, err)
	r, err := recipe.Parse([]byte(out))
	require.NoError(t, err)
	require.Equal(t, recipe.Default(), r)
}

func TestCommandErrors(t *testing.T) {
	setEnv(t)
	badRecipe := writeFile(t, "recipe.yaml", "version: 1\nsteps:\n  - op: transmogrify\n")

	_, err := execute(t, "recipe", "--recipe", badRecipe)
	require.ErrorIs(t, err, recipe.ErrInvalidRecipe)

	_, err = execute(t, "vocab", "--log-level", "chatty")
	require.ErrorContains(t, err, "config error")

	_, err = execute(t, "run", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "config error")
}
