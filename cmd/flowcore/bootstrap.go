package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowcoreio/flowcore"
	"github.com/flowcoreio/flowcore/internal/config"
	"github.com/flowcoreio/flowcore/internal/logging"
)

// loadConfig reads the --config flag off cmd and resolves it against
// internal/config's defaults-then-file-then-env precedence.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// newEngine builds a flowcore.Engine from resolved configuration, wiring
// the process logger through.
func newEngine(ctx context.Context, cfg config.Config) (*flowcore.Engine, error) {
	log := logging.New(cfg.SlogLevel())
	eng, err := flowcore.New(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword,
		flowcore.WithRowCap(cfg.RowCap),
		flowcore.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return eng, nil
}
