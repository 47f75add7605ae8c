package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/snowline-tools-mcp/internal/config"
	"github.com/ironsheep/snowline-tools-mcp/internal/logctx"
	"github.com/ironsheep/snowline-tools-mcp/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdin/stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), a.cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logctx.FromContext(ctx).Debug("Snowline MCP Server starting",
		"version", Version,
		"build_time", BuildTime,
		"commit", GitCommit,
		"workers", cfg.Histogram.Workers)

	srv := server.New(cfg)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
