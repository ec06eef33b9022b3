// Command cardprep fetches the Scryfall bulk card catalog and turns it into
// analysis-ready feature tables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/palantir/card-catalog-pipeline/pkg/pipeline/redact"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, redact.Secrets(err.Error()))
		stop()
		os.Exit(1)
	}
}
