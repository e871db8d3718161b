package main

import (
	"context"
	"fmt"
	"os"

	"github.com/marcelsud/library-api/book"
	"github.com/marcelsud/library-api/config"
	"github.com/marcelsud/library-api/internal/store"
)

/* cli - manage the book store from a terminal
 * Usage: go run ./cmd/cli [list|get|add|update|delete|seed|validate]
 * Uses the same .env / environment as the API.
 */

func main() {
	root := newRootCmd(openStore, os.Stdout)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func openStore(ctx context.Context) (book.Repository, error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return store.Open(ctx, cfg)
}
