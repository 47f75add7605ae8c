package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/snowline-tools-mcp/internal/config"
	"github.com/ironsheep/snowline-tools-mcp/internal/histogram"
	"github.com/ironsheep/snowline-tools-mcp/internal/logctx"
)

// app holds state shared by every subcommand once flags are parsed.
type app struct {
	configPath string
	logLevel   string
	workers    int
	tileHeight int

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "snowline-mcp",
		Short: "MCP server and tools for snow-line detection",
		Long: `Detect the snow-line elevation of a scene from its elevation model,
snow mask and cloud mask.

Without a subcommand the MCP server runs over stdin/stdout. Configure it in
your MCP client. Logs go to stderr.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), a.cfg)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to a YAML config file (default ./snowline.yaml if present)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")
	flags.IntVar(&a.workers, "workers", 0, "Number of histogram workers (overrides config)")
	flags.IntVar(&a.tileHeight, "tile-height", 0, "Rows per histogram tile (overrides config)")

	rootCmd.AddCommand(
		newServeCmd(a),
		newSnowlineCmd(a),
		newNbPixelsCmd(a),
		newCloudMaskCmd(a),
		newSnowMaskCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// setup loads configuration, applies flag overrides and installs the logger
// in the command context.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.workers > 0 {
		cfg.Histogram.Workers = a.workers
	}
	if a.tileHeight > 0 {
		cfg.Histogram.TileHeight = a.tileHeight
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	// stdout is reserved for the MCP protocol and command results.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	a.cfg = cfg
	cmd.SetContext(logctx.WithLogger(cmd.Context(), logger))
	return nil
}

func (a *app) streamOptions() histogram.StreamOptions {
	return histogram.StreamOptions{
		TileWidth:  a.cfg.Histogram.TileWidth,
		TileHeight: a.cfg.Histogram.TileHeight,
	}
}
