// Package local reads and writes tables on the local filesystem.
package local

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/palantir/card-catalog-pipeline/pkg/pipeline/core"
	"github.com/palantir/card-catalog-pipeline/pkg/table"
)

// WriteCSV writes t with a header row of column names. Null cells are empty;
// lists and maps are written as JSON.
func WriteCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, t.Width())
	for row := 0; row < t.Len(); row++ {
		for i := range rec {
			rec[i] = t.ColumnAt(i).At(row).String()
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a CSV with a header row into a table of strings. Empty cells
// are null.
func ReadCSV(r io.Reader) (*table.Table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return table.Empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
	}

	var rows [][]table.Value
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row := make([]table.Value, len(rec))
		for i, cell := range rec {
			if cell != "" {
				row[i] = table.String(cell)
			}
		}
		rows = append(rows, row)
	}
	return table.FromRows(header, rows...)
}

// CSVSink writes tables to a CSV file, replacing it.
type CSVSink struct {
	Path string
}

var _ core.Sink = CSVSink{}

func (s CSVSink) Store(ctx context.Context, t *table.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(s.Path) == "" {
		return fmt.Errorf("csv sink: path is required")
	}
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("csv sink: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.Path), "."+filepath.Base(s.Path)+".*")
	if err != nil {
		return fmt.Errorf("csv sink: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if err := WriteCSV(tmp, t); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("csv sink %s: %w", s.Path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("csv sink %s: %w", s.Path, err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("csv sink %s: %w", s.Path, err)
	}
	return nil
}
