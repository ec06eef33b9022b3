package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/palantir/card-catalog-pipeline/internal/config"
	"github.com/palantir/card-catalog-pipeline/pkg/scryfall"
)

var envVars = []string{
	"SCRYFALL_BASE_URL",
	"SCRYFALL_BULK_TYPE",
	"SCRYFALL_TIMEOUT",
	"SCRYFALL_DOWNLOAD_TIMEOUT",
	"SCRYFALL_RATE_LIMIT_RPS",
	"SCRYFALL_MAX_RETRIES",
	"WORKERS",
	"LOG_LEVEL",
	"LOG_FORMAT",
}

// clearEnv blanks every variable the loader reads; blank means unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range envVars {
		t.Setenv(v, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cardprep.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
	require.Equal(t, scryfall.DefaultBaseURL, cfg.Scryfall.BaseURL)
	require.Equal(t, scryfall.BulkOracleCards, cfg.Scryfall.BulkType)
	require.Equal(t, 0, cfg.Scryfall.MaxRetries)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, "replace", cfg.Output.Mode)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
version: 1
scryfall:
  base_url: http://localhost:8089
  bulk_type: default_cards
  timeout: 5s
  max_retries: 2
logging:
  level: debug
  format: json
pipeline:
  recipe: recipes/standard.yaml
output:
  csv: out/cards.csv
  mode: insert
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8089", cfg.Scryfall.BaseURL)
	require.Equal(t, scryfall.BulkDefaultCards, cfg.Scryfall.BulkType)
	require.Equal(t, 5*time.Second, cfg.Scryfall.Timeout)
	require.Equal(t, scryfall.DefaultDownloadTimeout, cfg.Scryfall.DownloadTimeout)
	require.Equal(t, "json", cfg.Logging.Format)
	require.Equal(t, "recipes/standard.yaml", cfg.Pipeline.Recipe)
	require.Equal(t, "append", cfg.Output.Mode)

	sc := cfg.ScryfallClient()
	require.Equal(t, 2, sc.MaxRetries)
	require.Equal(t, 5*time.Second, sc.Timeout)
	require.NotEmpty(t, sc.UserAgent)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("SCRYFALL_BASE_URL", "http://mock:8089")
	t.Setenv("SCRYFALL_TIMEOUT", "250ms")
	t.Setenv("SCRYFALL_RATE_LIMIT_RPS", "2.5")
	t.Setenv("SCRYFALL_MAX_RETRIES", "3")
	t.Setenv("LOG_LEVEL", "warn")

	path := writeConfig(t, "version: 1\nscryfall:\n  base_url: http://ignored\n  timeout: 5s\n")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://mock:8089", cfg.Scryfall.BaseURL)
	require.Equal(t, 250*time.Millisecond, cfg.Scryfall.Timeout)
	require.Equal(t, 2.5, cfg.Scryfall.RateLimitRPS)
	require.Equal(t, 3, cfg.Scryfall.MaxRetries)
	require.Equal(t, "warn", cfg.Logging.Level)
}

func TestBulkTypeFirstSurvivesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SCRYFALL_BULK_TYPE", scryfall.BulkFirst)

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, scryfall.BulkFirst, cfg.ScryfallClient().BulkType)

	cfg, err = config.Parse([]byte("version: 1\nscryfall:\n  bulk_type: first\n"))
	require.NoError(t, err)
	require.Equal(t, scryfall.BulkFirst, cfg.Scryfall.BulkType)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		body string
	}{
		{name: "bad duration", env: map[string]string{"SCRYFALL_TIMEOUT": "soon"}},
		{name: "bad retries", env: map[string]string{"SCRYFALL_MAX_RETRIES": "many"}},
		{name: "negative retries", env: map[string]string{"SCRYFALL_MAX_RETRIES": "-1"}},
		{name: "bad rate", env: map[string]string{"SCRYFALL_RATE_LIMIT_RPS": "fast"}},
		{name: "future version", body: "version: 2\n"},
		{name: "malformed yaml", body: "scryfall: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.body != "" {
				path = writeConfig(t, tt.body)
			}
			_, err := config.Load(path)
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
