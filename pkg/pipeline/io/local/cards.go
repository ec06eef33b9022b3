package local

import (
	"context"
	"fmt"
	"os"

	"github.com/palantir/card-catalog-pipeline/pkg/pipeline/core"
	"github.com/palantir/card-catalog-pipeline/pkg/scryfall"
	"github.com/palantir/card-catalog-pipeline/pkg/table"
)

// CardFile loads a previously downloaded card array, e.g. a bulk-data file.
type CardFile struct {
	Path string
}

var _ core.Source = CardFile{}

func (f CardFile) Load(ctx context.Context) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open card file: %w", err)
	}
	defer func() {
		_ = fh.Close()
	}()

	t, err := scryfall.DecodeCards(fh)
	if err != nil {
		return nil, fmt.Errorf("decode card file %s: %w", f.Path, err)
	}
	return t, nil
}
