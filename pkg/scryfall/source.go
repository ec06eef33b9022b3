package scryfall

import (
	"context"

	"github.com/palantir/card-catalog-pipeline/pkg/pipeline/core"
	"github.com/palantir/card-catalog-pipeline/pkg/table"
)

// Source adapts a Client to core.Source.
type Source struct {
	Client *Client
}

var _ core.Source = Source{}

func (s Source) Load(ctx context.Context) (*table.Table, error) {
	return s.Client.FetchCatalog(ctx)
}
