package recipe

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/palantir/card-catalog-pipeline/pkg/features"
	"github.com/palantir/card-catalog-pipeline/pkg/pipeline"
	"github.com/palantir/card-catalog-pipeline/pkg/table"
)

// Operation names accepted in Step.Op.
const (
	OpExpandNested       = "expand_nested"
	OpDropColumns        = "drop_columns"
	OpSelectColumns      = "select_columns"
	OpRenameColumns      = "rename_columns"
	OpFilterByLegality   = "filter_by_legality"
	OpRequirePrice       = "require_price"
	OpStandardPriced     = "standard_priced"
	OpMTGOPlayable       = "mtgo_playable"
	OpBinarizeLegalities = "binarize_legalities"
	OpDropLegalities     = "drop_legalities"
	OpOrdinateRarity     = "ordinate_rarity"
	OpSplitTypeLine      = "split_type_line"
	OpPresenceFlag       = "presence_flag"
	OpCoerceNumeric      = "coerce_numeric"
	OpDaysSinceRelease   = "days_since_release"
	OpAbnormalLayout     = "abnormal_layout"
)

// Named drop sets for drop_columns.
const (
	SetNoise        = "noise"
	SetPresentation = "presentation"
)

// Options tunes Build.
type Options struct {
	// Now is the reference time for days_since_release steps without as_of.
	Now func() time.Time
	// Workers bounds per-column parallelism in encoding steps.
	Workers int
	Logger  *zap.Logger
}

type builder func(tb *features.Toolbox, s Step, opts Options) (table.Transform, error)

var builders = map[string]builder{
	OpExpandNested: func(tb *features.Toolbox, _ Step, _ Options) (table.Transform, error) {
		return tb.ExpandNested, nil
	},
	OpDropColumns:        buildDropColumns,
	OpSelectColumns:      buildSelectColumns,
	OpRenameColumns:      buildRenameColumns,
	OpFilterByLegality:   buildFilterByLegality,
	OpRequirePrice:       buildRequirePrice,
	OpStandardPriced:     buildStandardPriced,
	OpMTGOPlayable:       func(tb *features.Toolbox, _ Step, _ Options) (table.Transform, error) { return tb.MTGOPlayable, nil },
	OpBinarizeLegalities: buildBinarizeLegalities,
	OpDropLegalities:     buildDropLegalities,
	OpOrdinateRarity: func(tb *features.Toolbox, _ Step, _ Options) (table.Transform, error) {
		return tb.OrdinateRarity, nil
	},
	OpSplitTypeLine: func(*features.Toolbox, Step, Options) (table.Transform, error) {
		return features.SplitTypeLine, nil
	},
	OpPresenceFlag:     buildPresenceFlag,
	OpCoerceNumeric:    buildCoerceNumeric,
	OpDaysSinceRelease: buildDaysSinceRelease,
	OpAbnormalLayout: func(*features.Toolbox, Step, Options) (table.Transform, error) {
		return features.AbnormalLayout, nil
	},
}

// Ops lists every operation name, sorted.
func Ops() []string {
	ops := make([]string, 0, len(builders))
	for op := range builders {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// Build validates every step and returns the pipeline. Nothing runs: an unknown
// op or a missing argument anywhere in the recipe fails here.
func Build(r Recipe, opts Options) (*pipeline.Pipeline, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if len(r.Steps) == 0 {
		return nil, fmt.Errorf("%w: no steps", ErrInvalidRecipe)
	}

	vocab := features.DefaultVocabulary().Merge(r.Vocabulary)
	tb := features.New(vocab, features.WithWorkers(opts.Workers))

	steps := make([]pipeline.Step, 0, len(r.Steps))
	for i, s := range r.Steps {
		b, ok := builders[s.Op]
		if !ok {
			return nil, fmt.Errorf("%w: step %d: unknown op %q", ErrInvalidRecipe, i, s.Op)
		}
		fn, err := b(tb, s, opts)
		if err != nil {
			return nil, fmt.Errorf("%w: step %d (%s): %w", ErrInvalidRecipe, i, s.Label(), err)
		}
		steps = append(steps, pipeline.Step{Name: s.Label(), Apply: fn})
	}
	return pipeline.New(steps...).WithLogger(opts.Logger), nil
}

func buildDropColumns(tb *features.Toolbox, s Step, _ Options) (table.Transform, error) {
	dropOpts := features.DropOptions{Lenient: s.Lenient}
	switch {
	case s.Set != "" && len(s.Columns) > 0:
		return nil, fmt.Errorf("set and columns are mutually exclusive")
	case s.Set == SetNoise:
		return func(t *table.Table) (*table.Table, error) { return tb.DropNoise(t, dropOpts) }, nil
	case s.Set == SetPresentation:
		return func(t *table.Table) (*table.Table, error) { return tb.DropPresentation(t, dropOpts) }, nil
	case s.Set != "":
		return nil, fmt.Errorf("unknown set %q (want %s or %s)", s.Set, SetNoise, SetPresentation)
	case len(s.Columns) > 0:
		cols := slices.Clone(s.Columns)
		return func(t *table.Table) (*table.Table, error) { return features.DropColumns(t, cols, dropOpts) }, nil
	default:
		return nil, fmt.Errorf("set or columns is required")
	}
}

func buildSelectColumns(_ *features.Toolbox, s Step, _ Options) (table.Transform, error) {
	if len(s.Columns) == 0 {
		return nil, fmt.Errorf("columns is required")
	}
	cols := slices.Clone(s.Columns)
	return func(t *table.Table) (*table.Table, error) { return features.SelectColumns(t, cols) }, nil
}

func buildRenameColumns(_ *features.Toolbox, s Step, _ Options) (table.Transform, error) {
	if len(s.Mapping) == 0 {
		return nil, fmt.Errorf("mapping is required")
	}
	mapping := make(map[string]string, len(s.Mapping))
	for k, v := range s.Mapping {
		if v == "" {
			return nil, fmt.Errorf("empty new name for %q", k)
		}
		mapping[k] = v
	}
	return func(t *table.Table) (*table.Table, error) { return features.RenameColumns(t, mapping) }, nil
}

func buildFilterByLegality(tb *features.Toolbox, s Step, _ Options) (table.Transform, error) {
	if s.Format == "" {
		return nil, fmt.Errorf("format is required")
	}
	if !tb.Vocabulary().IsFormat(s.Format) {
		return nil, fmt.Errorf("%w %q", features.ErrUnknownFormat, s.Format)
	}
	exclude := slices.Clone(s.Exclude)
	if len(exclude) == 0 {
		exclude = []string{features.StatusNotLegal, features.StatusBanned}
	}
	for _, st := range exclude {
		if !slices.Contains(features.Statuses, st) {
			return nil, fmt.Errorf("%w %q", features.ErrUnknownStatus, st)
		}
	}
	format := s.Format
	return func(t *table.Table) (*table.Table, error) { return tb.FilterByLegality(t, format, exclude...) }, nil
}

func buildRequirePrice(_ *features.Toolbox, s Step, _ Options) (table.Transform, error) {
	col := s.Column
	if col == "" {
		col = s.Currency
	}
	if col == "" {
		return nil, fmt.Errorf("column is required")
	}
	return func(t *table.Table) (*table.Table, error) { return features.RequirePrice(t, col) }, nil
}

func buildStandardPriced(tb *features.Toolbox, s Step, _ Options) (table.Transform, error) {
	currency := s.Currency
	if currency == "" {
		currency = "eur"
	}
	return func(t *table.Table) (*table.Table, error) { return tb.StandardPriced(t, currency) }, nil
}

func checkFormats(tb *features.Toolbox, formats []string) error {
	v := tb.Vocabulary()
	for _, f := range formats {
		if !v.IsFormat(f) {
			return fmt.Errorf("%w %q", features.ErrUnknownFormat, f)
		}
	}
	return nil
}

func buildBinarizeLegalities(tb *features.Toolbox, s Step, _ Options) (table.Transform, error) {
	if err := checkFormats(tb, s.Formats); err != nil {
		return nil, err
	}
	formats := slices.Clone(s.Formats)
	return func(t *table.Table) (*table.Table, error) { return tb.BinarizeLegalities(t, formats...) }, nil
}

func buildDropLegalities(tb *features.Toolbox, s Step, _ Options) (table.Transform, error) {
	if err := checkFormats(tb, s.Formats); err != nil {
		return nil, err
	}
	formats := slices.Clone(s.Formats)
	return func(t *table.Table) (*table.Table, error) { return tb.DropLegalities(t, formats...) }, nil
}

func buildPresenceFlag(_ *features.Toolbox, s Step, _ Options) (table.Transform, error) {
	if s.Column == "" {
		return nil, fmt.Errorf("column is required")
	}
	col := s.Column
	return func(t *table.Table) (*table.Table, error) { return features.PresenceFlag(t, col) }, nil
}

func buildCoerceNumeric(_ *features.Toolbox, s Step, _ Options) (table.Transform, error) {
	if s.Column == "" {
		return nil, fmt.Errorf("column is required")
	}
	kind, err := features.ParseNumericKind(s.Kind)
	if err != nil {
		return nil, err
	}
	col := s.Column
	return func(t *table.Table) (*table.Table, error) { return features.CoerceNumeric(t, col, kind) }, nil
}

func buildDaysSinceRelease(_ *features.Toolbox, s Step, opts Options) (table.Transform, error) {
	asOf := opts.Now()
	if s.AsOf != "" {
		parsed, err := time.Parse("2006-01-02", s.AsOf)
		if err != nil {
			return nil, fmt.Errorf("as_of: %w", err)
		}
		asOf = parsed
	}
	return func(t *table.Table) (*table.Table, error) { return features.DaysSinceRelease(t, asOf) }, nil
}
