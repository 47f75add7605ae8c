package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/snowline-tools-mcp/internal/mask"
	"github.com/ironsheep/snowline-tools-mcp/internal/raster"
)

func newCloudMaskCmd(_ *app) *cobra.Command {
	var (
		in, out string
		bits    uint16
	)

	cmd := &cobra.Command{
		Use:   "cloudmask",
		Short: "Write a 0/1 mask of pixels whose code contains every bit of --mask",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := raster.NewCache().LoadBand(in, false)
			if err != nil {
				return err
			}
			if err := raster.SaveBand(out, mask.TestBand(b, mask.NewBitTest(bits))); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "Classification raster")
	cmd.Flags().StringVar(&out, "out", "", "Output mask")
	cmd.Flags().Uint16Var(&bits, "mask", 0, "Bits to test")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func newSnowMaskCmd(_ *app) *cobra.Command {
	var (
		in  []string
		out string
	)

	cmd := &cobra.Command{
		Use:   "snowmask",
		Short: "Write a code raster whose bit i is set where input i is non-zero",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache := raster.NewCache()
			bands := make([]*raster.Band, len(in))
			for i, p := range in {
				b, err := cache.LoadBand(p, false)
				if err != nil {
					return err
				}
				bands[i] = b
			}
			codes, err := mask.CombineBands(bands...)
			if err != nil {
				return err
			}
			if err := raster.SaveBand(out, codes); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&in, "il", nil, "Input flag raster, lowest bit first (repeatable)")
	cmd.Flags().StringVar(&out, "out", "", "Output code raster")
	_ = cmd.MarkFlagRequired("il")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
