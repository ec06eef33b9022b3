// Package features is the feature-engineering toolbox for the card catalog:
// independent, pure table transforms that a caller composes in any order.
//
// Transforms that need schema knowledge (formats, rarity ranks, drop lists) hang
// off a Toolbox bound to a Vocabulary; the rest are plain functions. Every
// transform returns its input unchanged together with the error when it fails.
package features

import (
	"context"
	"slices"

	"github.com/palantir/card-catalog-pipeline/pkg/pipeline/worker"
	"github.com/palantir/card-catalog-pipeline/pkg/table"
)

// Toolbox binds the transforms to a vocabulary.
type Toolbox struct {
	vocab   Vocabulary
	workers int
}

// Option configures a Toolbox.
type Option func(*Toolbox)

// WithWorkers sets how many columns an encoding step processes concurrently.
func WithWorkers(n int) Option {
	return func(tb *Toolbox) {
		if n > 0 {
			tb.workers = n
		}
	}
}

// New returns a toolbox for the given vocabulary.
func New(v Vocabulary, opts ...Option) *Toolbox {
	tb := &Toolbox{vocab: v.clone(), workers: 1}
	for _, o := range opts {
		o(tb)
	}
	return tb
}

// Vocabulary returns a copy of the toolbox vocabulary.
func (tb *Toolbox) Vocabulary() Vocabulary { return tb.vocab.clone() }

// formats validates a format list against the vocabulary. An empty list means
// every format.
func (tb *Toolbox) formats(op string, formats []string) ([]string, error) {
	if len(formats) == 0 {
		return slices.Clone(tb.vocab.Formats), nil
	}
	for _, f := range formats {
		if !tb.vocab.IsFormat(f) {
			return nil, unknownFormat(op, f)
		}
	}
	return formats, nil
}

// mapColumns rebuilds each named column with fn and swaps the results in place.
// Columns are independent, so they run on the worker pool; the table is only
// assembled once every column succeeded.
func (tb *Toolbox) mapColumns(t *table.Table, names []string, fn func(*table.Column) (*table.Column, error)) (*table.Table, error) {
	cols := make([]*table.Column, len(names))
	for i, n := range names {
		c, err := t.Column(n)
		if err != nil {
			return t, err
		}
		cols[i] = c
	}

	res, err := worker.Map(context.Background(), cols, func(_ context.Context, c *table.Column) (*table.Column, error) {
		return fn(c)
	}, worker.Options{Workers: tb.workers})
	if err != nil {
		return t, err
	}

	out := t
	for _, c := range res {
		out, err = out.Replace(c)
		if err != nil {
			return t, err
		}
	}
	return out, nil
}
