// Package recipe describes a feature pipeline as YAML and builds it against the
// features toolbox.
//
// Example:
//
//	version: 1
//	name: standard
//	steps:
//	  - op: expand_nested
//	  - op: drop_columns
//	    set: noise
//	    lenient: true
//	  - op: standard_priced
//	    currency: eur
//	  - op: ordinate_rarity
package recipe

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/palantir/card-catalog-pipeline/pkg/features"
)

// Version is the only recipe format version understood.
const Version = 1

var ErrInvalidRecipe = errors.New("invalid recipe")

// Recipe is an ordered list of toolbox operations plus optional vocabulary
// overrides applied on top of features.DefaultVocabulary.
type Recipe struct {
	Version    int                 `yaml:"version"`
	Name       string              `yaml:"name,omitempty"`
	Vocabulary features.Vocabulary `yaml:"vocabulary,omitempty"`
	Steps      []Step              `yaml:"steps"`
}

// Step names one operation and its arguments. Which fields apply depends on Op.
type Step struct {
	Op   string `yaml:"op"`
	Name string `yaml:"name,omitempty"`

	Set      string            `yaml:"set,omitempty"`
	Columns  []string          `yaml:"columns,omitempty"`
	Column   string            `yaml:"column,omitempty"`
	Lenient  bool              `yaml:"lenient,omitempty"`
	Mapping  map[string]string `yaml:"mapping,omitempty"`
	Format   string            `yaml:"format,omitempty"`
	Formats  []string          `yaml:"formats,omitempty"`
	Exclude  []string          `yaml:"exclude,omitempty"`
	Currency string            `yaml:"currency,omitempty"`
	Kind     string            `yaml:"kind,omitempty"`
	AsOf     string            `yaml:"as_of,omitempty"`
}

// Label is the step name used in logs and errors.
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Op
}

// Parse decodes a recipe. Unknown fields are rejected so that a misspelled
// argument does not silently fall back to its default.
func Parse(b []byte) (Recipe, error) {
	var r Recipe
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil {
		return Recipe{}, fmt.Errorf("parse recipe: %w", err)
	}
	if r.Version == 0 {
		r.Version = Version
	}
	if r.Version != Version {
		return Recipe{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidRecipe, r.Version)
	}
	if len(r.Steps) == 0 {
		return Recipe{}, fmt.Errorf("%w: no steps", ErrInvalidRecipe)
	}
	for i, s := range r.Steps {
		r.Steps[i].Op = strings.TrimSpace(s.Op)
	}
	return r, nil
}

// Load reads and parses a recipe file.
func Load(path string) (Recipe, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Recipe{}, fmt.Errorf("read recipe %s: %w", path, err)
	}
	r, err := Parse(b)
	if err != nil {
		return Recipe{}, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Marshal encodes r as YAML.
func Marshal(r Recipe) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Default is the standard-format workflow: flatten, prune both drop lists,
// keep standard-legal cards with a eur price, drop the remaining legality
// columns, then encode rarity, types and price.
func Default() Recipe {
	return Recipe{
		Version: Version,
		Name:    "standard",
		Steps: []Step{
			{Op: OpExpandNested},
			{Op: OpDropColumns, Set: SetNoise, Lenient: true},
			{Op: OpDropColumns, Set: SetPresentation, Lenient: true},
			{Op: OpStandardPriced, Currency: "eur"},
			{Op: OpDropLegalities},
			{Op: OpOrdinateRarity},
			{Op: OpSplitTypeLine},
			{Op: OpCoerceNumeric, Column: "eur", Kind: "float"},
		},
	}
}
