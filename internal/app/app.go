// Package app wires a catalog source, a recipe pipeline and export sinks into
// one run.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/palantir/card-catalog-pipeline/internal/config"
	"github.com/palantir/card-catalog-pipeline/pkg/pipeline"
	"github.com/palantir/card-catalog-pipeline/pkg/pipeline/core"
	"github.com/palantir/card-catalog-pipeline/pkg/pipeline/io/local"
	"github.com/palantir/card-catalog-pipeline/pkg/pipeline/io/sqlite"
	"github.com/palantir/card-catalog-pipeline/pkg/pipeline/recipe"
	"github.com/palantir/card-catalog-pipeline/pkg/pipeline/schema"
	"github.com/palantir/card-catalog-pipeline/pkg/scryfall"
	"github.com/palantir/card-catalog-pipeline/pkg/table"
)

const tracerName = "github.com/palantir/card-catalog-pipeline/internal/app"

// Output is a named sink.
type Output struct {
	Name string
	Sink core.Sink
}

// Job describes one run.
type Job struct {
	Source core.Source
	// Pipeline transforms the loaded table. Nil stores the table as loaded.
	Pipeline *pipeline.Pipeline
	Outputs  []Output
}

// Result summarizes a finished run.
type Result struct {
	RunID    string
	Table    *table.Table
	Duration time.Duration
}

// Run loads the source table, applies the pipeline and stores the result in
// every output, in order. Nothing is stored when loading or a pipeline step
// fails.
func Run(ctx context.Context, logger *zap.Logger, job Job) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if job.Source == nil {
		return Result{}, errors.New("run requires a source")
	}
	runID := uuid.NewString()
	logger = logger.With(zap.String("run", runID))
	runStart := time.Now()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "app.Run")
	defer span.End()
	span.SetAttributes(attribute.String("run.id", runID))
	fail := func(stage string, err error) (Result, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, stage)
		logger.Error("run failed", zap.String("stage", stage), zap.Error(err))
		return Result{RunID: runID}, err
	}

	logger.Info("run start", zap.Int("steps", pipelineLen(job.Pipeline)), zap.Int("outputs", len(job.Outputs)))

	loadStart := time.Now()
	t, err := job.Source.Load(ctx)
	if err != nil {
		return fail("load", fmt.Errorf("load catalog: %w", err))
	}
	logger.Info("catalog loaded",
		zap.Int("rows", t.Len()),
		zap.Int("columns", t.Width()),
		zap.Duration("duration", time.Since(loadStart).Round(time.Millisecond)),
	)

	if job.Pipeline != nil {
		t, err = job.Pipeline.WithLogger(logger).Run(ctx, t)
		if err != nil {
			return fail("transform", err)
		}
	}

	for _, out := range job.Outputs {
		writeStart := time.Now()
		if err := out.Sink.Store(ctx, t); err != nil {
			return fail("store", fmt.Errorf("store %s: %w", out.Name, err))
		}
		logger.Info("output written",
			zap.String("output", out.Name),
			zap.Int("rows", t.Len()),
			zap.Duration("duration", time.Since(writeStart).Round(time.Millisecond)),
		)
	}

	res := Result{RunID: runID, Table: t, Duration: time.Since(runStart)}
	span.SetAttributes(attribute.Int("catalog.rows", t.Len()), attribute.Int("catalog.columns", t.Width()))
	logger.Info("run complete",
		zap.Int("rows", t.Len()),
		zap.Int("columns", t.Width()),
		zap.Duration("duration", res.Duration.Round(time.Millisecond)),
	)
	return res, nil
}

func pipelineLen(p *pipeline.Pipeline) int {
	if p == nil {
		return 0
	}
	return p.Len()
}

// NewSource returns a local card file source when input is set, otherwise a
// Scryfall client built from cfg.
func NewSource(cfg *config.Config, input string, logger *zap.Logger) (core.Source, error) {
	if strings.TrimSpace(input) != "" {
		return local.CardFile{Path: input}, nil
	}
	client, err := scryfall.New(cfg.ScryfallClient(), scryfall.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return scryfall.Source{Client: client}, nil
}

// LoadRecipe reads the recipe at path. An empty path returns the built-in
// default recipe.
func LoadRecipe(path string) (recipe.Recipe, error) {
	if strings.TrimSpace(path) == "" {
		return recipe.Default(), nil
	}
	return recipe.Load(path)
}

// BuildPipeline loads and builds the recipe at path.
func BuildPipeline(path string, workers int, logger *zap.Logger) (*pipeline.Pipeline, error) {
	r, err := LoadRecipe(path)
	if err != nil {
		return nil, err
	}
	return recipe.Build(r, recipe.Options{Workers: workers, Logger: logger})
}

// Outputs returns the sinks configured in out. CSV is written before SQLite.
func Outputs(out config.OutputConfig, logger *zap.Logger) []Output {
	var outputs []Output
	if p := strings.TrimSpace(out.CSV); p != "" {
		outputs = append(outputs, Output{Name: "csv:" + p, Sink: local.CSVSink{Path: p}})
	}
	if p := strings.TrimSpace(out.SQLite); p != "" {
		outputs = append(outputs, Output{Name: "sqlite:" + p, Sink: sqlite.Sink{
			Path:   p,
			Table:  out.Table,
			Mode:   schema.NormalizeMode(out.Mode),
			Logger: logger,
		}})
	}
	return outputs
}
