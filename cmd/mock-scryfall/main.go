package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/palantir/card-catalog-pipeline/pkg/mockscryfall"
)

func main() {
	addr := defaultString("MOCK_SCRYFALL_ADDR", ":8089")
	cards := defaultString("MOCK_SCRYFALL_CARDS", "/data/cards.json")
	extra := defaultString("MOCK_SCRYFALL_DATASETS", "")

	fs := flag.NewFlagSet("mock-scryfall", flag.ExitOnError)
	fs.StringVar(&addr, "addr", addr, "Listen address")
	fs.StringVar(&cards, "cards", cards, "JSON array of card objects served as oracle_cards")
	fs.StringVar(&extra, "datasets", extra, "Comma-separated type=path pairs served as additional bulk datasets (also supports env: MOCK_SCRYFALL_DATASETS)")
	_ = fs.Parse(os.Args[1:])

	srv, err := mockscryfall.LoadFile(cards)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "load cards: %v\n", err)
		os.Exit(1)
	}
	for _, pair := range splitCSV(extra) {
		typ, path, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(typ) == "" {
			_, _ = fmt.Fprintf(os.Stderr, "invalid dataset %q (expected type=path)\n", pair)
			os.Exit(2)
		}
		b, err := os.ReadFile(strings.TrimSpace(path))
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "load dataset %s: %v\n", typ, err)
			os.Exit(1)
		}
		srv.AddDataset(strings.TrimSpace(typ), b)
	}

	_, _ = fmt.Fprintf(os.Stdout, "mock-scryfall listening on %s (cards=%s)\n", addr, cards)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		v := strings.TrimSpace(p)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

func defaultString(envVar string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(envVar))
	if v == "" {
		return fallback
	}
	return v
}
