// Package config loads cardprep settings from a YAML file and the environment.
//
// Precedence, lowest first: built-in defaults, the config file, environment
// variables. Command-line flags are applied on top by the caller.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/palantir/card-catalog-pipeline/pkg/pipeline/schema"
	"github.com/palantir/card-catalog-pipeline/pkg/scryfall"
)

const CurrentVersion = 1

// Config is the top-level configuration.
type Config struct {
	Version  int            `yaml:"version"`
	Scryfall ScryfallConfig `yaml:"scryfall,omitempty"`
	Logging  LogConfig      `yaml:"logging,omitempty"`
	Pipeline PipelineConfig `yaml:"pipeline,omitempty"`
	Output   OutputConfig   `yaml:"output,omitempty"`
}

// ScryfallConfig mirrors scryfall.Config.
type ScryfallConfig struct {
	BaseURL         string        `yaml:"base_url,omitempty"`
	BulkType        string        `yaml:"bulk_type,omitempty"`
	Timeout         time.Duration `yaml:"timeout,omitempty"`
	DownloadTimeout time.Duration `yaml:"download_timeout,omitempty"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps,omitempty"`
	MaxRetries      int           `yaml:"max_retries,omitempty"`
}

type LogConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // json or console
}

type PipelineConfig struct {
	// Recipe is a recipe file path. Empty runs the built-in default recipe.
	Recipe  string `yaml:"recipe,omitempty"`
	Workers int    `yaml:"workers,omitempty"`
}

type OutputConfig struct {
	CSV    string `yaml:"csv,omitempty"`
	SQLite string `yaml:"sqlite,omitempty"`
	Table  string `yaml:"table,omitempty"`
	Mode   string `yaml:"mode,omitempty"` // replace or append
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{Version: CurrentVersion}
	c.applyDefaults()
	return c
}

// Load reads the config file at path, applies defaults and then environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := &Config{Version: CurrentVersion}
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		cfg, err = Parse(data)
		if err != nil {
			return nil, err
		}
	}
	cfg.applyDefaults()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a config document without applying defaults or environment.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Version == 0 {
		cfg.Version = CurrentVersion
	}
	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentVersion)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := scryfall.DefaultConfig()
	if strings.TrimSpace(c.Scryfall.BaseURL) == "" {
		c.Scryfall.BaseURL = def.BaseURL
	}
	if strings.TrimSpace(c.Scryfall.BulkType) == "" {
		c.Scryfall.BulkType = def.BulkType
	}
	if c.Scryfall.Timeout <= 0 {
		c.Scryfall.Timeout = def.Timeout
	}
	if c.Scryfall.DownloadTimeout <= 0 {
		c.Scryfall.DownloadTimeout = def.DownloadTimeout
	}
	if c.Scryfall.RateLimitRPS == 0 {
		c.Scryfall.RateLimitRPS = def.RateLimitRPS
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = 4
	}
	c.Output.Mode = string(schema.NormalizeMode(c.Output.Mode))
}

// ApplyEnv overrides settings from environment variables. Unset or blank
// variables leave the current value alone.
func (c *Config) ApplyEnv() error {
	if v := strings.TrimSpace(os.Getenv("SCRYFALL_BASE_URL")); v != "" {
		c.Scryfall.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("SCRYFALL_BULK_TYPE")); v != "" {
		c.Scryfall.BulkType = v
	}
	var err error
	if c.Scryfall.Timeout, err = envDuration("SCRYFALL_TIMEOUT", c.Scryfall.Timeout); err != nil {
		return err
	}
	if c.Scryfall.DownloadTimeout, err = envDuration("SCRYFALL_DOWNLOAD_TIMEOUT", c.Scryfall.DownloadTimeout); err != nil {
		return err
	}
	if c.Scryfall.RateLimitRPS, err = envFloat("SCRYFALL_RATE_LIMIT_RPS", c.Scryfall.RateLimitRPS); err != nil {
		return err
	}
	if c.Scryfall.MaxRetries, err = envInt("SCRYFALL_MAX_RETRIES", c.Scryfall.MaxRetries); err != nil {
		return err
	}
	if c.Scryfall.MaxRetries < 0 {
		return fmt.Errorf("invalid SCRYFALL_MAX_RETRIES=%d: must be >= 0", c.Scryfall.MaxRetries)
	}
	if c.Pipeline.Workers, err = envInt("WORKERS", c.Pipeline.Workers); err != nil {
		return err
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		c.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_FORMAT")); v != "" {
		c.Logging.Format = v
	}
	return nil
}

// ScryfallClient returns the fetcher configuration.
func (c *Config) ScryfallClient() scryfall.Config {
	out := scryfall.DefaultConfig()
	out.BaseURL = c.Scryfall.BaseURL
	out.BulkType = c.Scryfall.BulkType
	out.Timeout = c.Scryfall.Timeout
	out.DownloadTimeout = c.Scryfall.DownloadTimeout
	out.RateLimitRPS = c.Scryfall.RateLimitRPS
	out.MaxRetries = c.Scryfall.MaxRetries
	return out
}

func envInt(varName string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envFloat(varName string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envDuration(varName string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}
