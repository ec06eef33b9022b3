// Package sqlite stores tables in a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/palantir/card-catalog-pipeline/pkg/pipeline/core"
	"github.com/palantir/card-catalog-pipeline/pkg/pipeline/schema"
	"github.com/palantir/card-catalog-pipeline/pkg/table"
)

// DefaultTable is the table name used when Sink.Table is empty.
const DefaultTable = "cards"

// Sink writes a table into one SQLite table. In replace mode the destination is
// dropped and recreated; in append mode it is created if missing and rows are
// added. The whole write is one transaction.
type Sink struct {
	Path   string
	Table  string
	Mode   schema.WriteMode
	Logger *zap.Logger
}

var _ core.Sink = Sink{}

func (s Sink) Store(ctx context.Context, t *table.Table) error {
	if strings.TrimSpace(s.Path) == "" {
		return fmt.Errorf("sqlite sink: path is required")
	}
	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return fmt.Errorf("sqlite sink: open %s: %w", s.Path, err)
	}
	defer func() {
		_ = db.Close()
	}()
	return s.Write(ctx, db, t)
}

// Write stores t through an open database handle.
func (s Sink) Write(ctx context.Context, db *sql.DB, t *table.Table) error {
	name := s.Table
	if strings.TrimSpace(name) == "" {
		name = DefaultTable
	}
	mode := s.Mode
	if mode == "" {
		mode = schema.WriteModeReplace
	}
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	contract := schema.Describe(t, mode)
	if len(contract.Fields) == 0 {
		return fmt.Errorf("sqlite sink: table has no columns")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite sink: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if mode == schema.WriteModeReplace {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name)); err != nil {
			return fmt.Errorf("sqlite sink: drop %s: %w", name, err)
		}
	}
	if _, err := tx.ExecContext(ctx, createStatement(name, contract)); err != nil {
		return fmt.Errorf("sqlite sink: create %s: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertStatement(name, contract))
	if err != nil {
		return fmt.Errorf("sqlite sink: prepare insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	args := make([]any, t.Width())
	for row := 0; row < t.Len(); row++ {
		if row%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		for i := range args {
			args[i] = sqlValue(t.ColumnAt(i).At(row))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("sqlite sink: insert row %d: %w", row, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite sink: commit: %w", err)
	}
	logger.Info("sqlite table written",
		zap.String("table", name),
		zap.String("mode", string(mode)),
		zap.Int("rows", t.Len()),
		zap.Int("columns", t.Width()),
	)
	return nil
}

func createStatement(name string, c schema.Contract) string {
	cols := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		cols[i] = quoteIdent(f.Name) + " " + f.Type
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(name), strings.Join(cols, ", "))
}

func insertStatement(name string, c schema.Contract) string {
	cols := make([]string, len(c.Fields))
	marks := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		cols[i] = quoteIdent(f.Name)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(name), strings.Join(cols, ", "), strings.Join(marks, ", "))
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// sqlValue converts a cell to a driver value matching schema.StorageType.
func sqlValue(v table.Value) any {
	switch v.Kind() {
	case table.KindNull:
		return nil
	case table.KindInt:
		n, _ := v.Int64()
		return n
	case table.KindFloat:
		f, _ := v.Float64()
		return f
	case table.KindBool:
		if b, _ := v.BoolVal(); b {
			return int64(1)
		}
		return int64(0)
	default:
		return v.String()
	}
}
