// Package core holds the contracts shared by sources, sinks and the retrying
// worker.
package core

import (
	"context"
	"time"

	"github.com/palantir/card-catalog-pipeline/pkg/table"
)

// Source loads the table a pipeline starts from.
type Source interface {
	Load(ctx context.Context) (*table.Table, error)
}

// Sink persists the table a pipeline produced.
type Sink interface {
	Store(ctx context.Context, t *table.Table) error
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (*table.Table, error)

func (f SourceFunc) Load(ctx context.Context) (*table.Table, error) { return f(ctx) }

// TransientError marks an error as retryable by the worker.
type TransientError struct {
	Err error
	// RetryAfter is the minimum wait the upstream asked for. Zero leaves the
	// delay to the worker's backoff.
	RetryAfter time.Duration
}

func (e *TransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
