package main

import (
	"context"
	"fmt"
	"os"

	"github.com/palantir/card-catalog-pipeline/pkg/pipeline/io/local"
	"github.com/palantir/card-catalog-pipeline/test/template/processor"
)

func main() {
	if len(os.Args) != 2 {
		_, _ = fmt.Fprintln(os.Stderr, "usage: template cards.json")
		os.Exit(2)
	}
	ctx := context.Background()

	t, err := local.CardFile{Path: os.Args[1]}.Load(ctx)
	if err != nil {
		panic(err)
	}
	out, err := processor.Pipeline().Run(ctx, t)
	if err != nil {
		panic(err)
	}
	if err := local.WriteCSV(os.Stdout, out); err != nil {
		panic(err)
	}
}
