package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/snowline-tools-mcp/internal/raster"
	"github.com/ironsheep/snowline-tools-mcp/internal/report"
	"github.com/ironsheep/snowline-tools-mcp/internal/snowline"
)

func newSnowlineCmd(a *app) *cobra.Command {
	var (
		demPath, snowPath, cloudPath string
		plotPath, chartPath          string
	)
	p := snowline.DefaultParams()

	cmd := &cobra.Command{
		Use:   "snowline",
		Short: "Compute the snow-line elevation of a scene",
		Long: `Compute the snow-line elevation from an elevation model (signed 16-bit),
a snow mask and a cloud mask. Prints the elevation, or -1000 when no altitude
bin qualifies.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p.MinPlausible = a.cfg.Snowline.MinPlausible
			p.MaxPlausible = a.cfg.Snowline.MaxPlausible

			res, err := snowline.Compute(cmd.Context(), raster.NewCache(), demPath, snowPath, cloudPath, p, snowline.Options{
				Workers: a.cfg.Histogram.Workers,
				Stream:  a.streamOptions(),
			})
			if err != nil {
				return err
			}

			if res.Histogram != nil && (plotPath != "" || chartPath != "") {
				rows, err := report.Rows(res.Histogram)
				if err != nil {
					return err
				}
				if plotPath != "" {
					if err := report.WritePlot(plotPath, rows); err != nil {
						return err
					}
				}
				if chartPath != "" {
					if err := writeChart(chartPath, rows); err != nil {
						return err
					}
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), res.Value())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&demPath, "dem", "", "Elevation model raster")
	f.StringVar(&snowPath, "snow", "", "Snow mask raster (0 or 1)")
	f.StringVar(&cloudPath, "cloud", "", "Cloud mask raster (0 or 1)")
	f.IntVar(&p.Dz, "dz", p.Dz, "Altitude bin width in metres")
	f.Float64Var(&p.FSnowLim, "fsnowlim", p.FSnowLim, "Snow fraction of cloud-free pixels a bin must exceed")
	f.Float64Var(&p.FClearLim, "fclearlim", p.FClearLim, "Cloud-free fraction a bin must exceed")
	f.BoolVar(&p.Reverse, "reverse", false, "Scan altitude bins from the top")
	f.IntVar(&p.Offset, "offset", 0, "Bins to shift the qualifying bin by")
	f.IntVar(&p.CenterOffset, "centeroffset", 0, "Metres added to the reported bin centre")
	f.StringVar(&p.ReportPath, "histfile", "", "Write the text histogram report to this file")
	f.StringVar(&plotPath, "plot", "", "Write a PNG plot of snow and cloud-free fractions")
	f.StringVar(&chartPath, "chart", "", "Write an HTML bar chart of per-bin counts")
	for _, name := range []string{"dem", "snow", "cloud"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func writeChart(path string, rows []report.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart: %w", err)
	}
	if err := report.WriteChart(f, "Snow cover by elevation", rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
