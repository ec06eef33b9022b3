// Package pipeline composes table transforms into an ordered, named sequence.
//
// A Pipeline is a value: New, Then and WithLogger return new pipelines and never
// modify the receiver, so a base pipeline can be extended per use.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/palantir/card-catalog-pipeline/pkg/table"
)

const tracerName = "github.com/palantir/card-catalog-pipeline/pkg/pipeline"

var errNoTransform = errors.New("step has no transform")

// Step is one named transform.
type Step struct {
	Name  string
	Apply table.Transform
}

// StepError reports which step failed. Index is zero-based.
type StepError struct {
	Index int
	Name  string
	Err   error
}

func (e *StepError) Error() string {
	if e == nil {
		return "pipeline step error"
	}
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *StepError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Pipeline runs its steps in order.
type Pipeline struct {
	steps  []Step
	logger *zap.Logger
}

// New returns a pipeline of the given steps.
func New(steps ...Step) *Pipeline {
	return &Pipeline{steps: slices.Clone(steps), logger: zap.NewNop()}
}

// Then returns a pipeline with steps appended after p's.
func (p *Pipeline) Then(steps ...Step) *Pipeline {
	out := p.clone()
	out.steps = append(out.steps, steps...)
	return out
}

// WithLogger returns a copy of p that logs each step to l.
func (p *Pipeline) WithLogger(l *zap.Logger) *Pipeline {
	out := p.clone()
	if l == nil {
		l = zap.NewNop()
	}
	out.logger = l
	return out
}

// Len returns the number of steps.
func (p *Pipeline) Len() int { return len(p.steps) }

// Names returns the step names in run order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name
	}
	return names
}

// Run applies every step to t. On failure it returns the table as it was before
// the failing step together with a *StepError. Cancellation is checked between
// steps; a step that has started always runs to completion.
func (p *Pipeline) Run(ctx context.Context, t *table.Table) (*table.Table, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "pipeline.Run")
	defer span.End()
	span.SetAttributes(attribute.Int("pipeline.steps", len(p.steps)))

	start := time.Now()
	cur := t
	for i, s := range p.steps {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "canceled")
			return cur, &StepError{Index: i, Name: s.Name, Err: err}
		}
		next, err := p.runStep(ctx, i, s, cur)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, s.Name)
			return cur, err
		}
		cur = next
	}

	p.logger.Debug("pipeline finished",
		zap.Int("steps", len(p.steps)),
		zap.Int("rows", cur.Len()),
		zap.Int("columns", cur.Width()),
		zap.Duration("duration", time.Since(start)),
	)
	return cur, nil
}

func (p *Pipeline) runStep(ctx context.Context, i int, s Step, in *table.Table) (*table.Table, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "pipeline.step")
	defer span.End()
	span.SetAttributes(
		attribute.Int("step.index", i),
		attribute.String("step.name", s.Name),
		attribute.Int("rows.in", in.Len()),
		attribute.Int("columns.in", in.Width()),
	)

	if s.Apply == nil {
		return nil, &StepError{Index: i, Name: s.Name, Err: errNoTransform}
	}

	started := time.Now()
	out, err := s.Apply(in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.Warn("step failed",
			zap.Int("step", i),
			zap.String("name", s.Name),
			zap.Error(err),
		)
		return nil, &StepError{Index: i, Name: s.Name, Err: err}
	}
	if out == nil {
		out = in
	}

	span.SetAttributes(
		attribute.Int("rows.out", out.Len()),
		attribute.Int("columns.out", out.Width()),
	)
	p.logger.Info("step applied",
		zap.Int("step", i),
		zap.String("name", s.Name),
		zap.Int("rows_before", in.Len()),
		zap.Int("rows_after", out.Len()),
		zap.Int("columns_before", in.Width()),
		zap.Int("columns_after", out.Width()),
		zap.Duration("duration", time.Since(started)),
	)
	return out, nil
}

func (p *Pipeline) clone() *Pipeline {
	logger := p.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{steps: slices.Clone(p.steps), logger: logger}
}
