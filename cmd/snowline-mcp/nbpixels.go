package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/snowline-tools-mcp/internal/histogram"
	"github.com/ironsheep/snowline-tools-mcp/internal/raster"
)

func newNbPixelsCmd(a *app) *cobra.Command {
	var (
		path         string
		lower, upper float64
	)

	cmd := &cobra.Command{
		Use:   "nbpixels",
		Short: "Count pixels in the upper half of a value range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := raster.NewCache().LoadStack(false, path)
			if err != nil {
				return err
			}
			n, err := histogram.CountNbPixels(cmd.Context(), src, lower, upper, a.cfg.Histogram.Workers, a.streamOptions())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "in", "", "Input raster")
	cmd.Flags().Float64Var(&lower, "lower", 0, "Lower bound")
	cmd.Flags().Float64Var(&upper, "upper", 100, "Upper bound")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}
