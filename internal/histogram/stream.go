package histogram

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/snowline-tools-mcp/internal/logctx"
	"github.com/ironsheep/snowline-tools-mcp/internal/raster"
)

// StreamOptions controls how a pass splits its source into tiles.
// A non-positive size means the full extent along that axis.
type StreamOptions struct {
	TileWidth  int
	TileHeight int
}

// Stream resets acc and runs one complete pass over src.
func Stream(ctx context.Context, acc *Accumulator, src Source, opts StreamOptions) error {
	acc.Reset()
	return Update(ctx, acc, src, opts)
}

// Update runs one pass over src without resetting acc, adding its counts to
// those of earlier passes. Tiles are shared among acc.Workers() goroutines,
// each owning one worker id. When the pass fails or ctx is cancelled the
// accumulator is left unsynthesized and must be Reset before reuse.
func Update(ctx context.Context, acc *Accumulator, src Source, opts StreamOptions) error {
	ll := logctx.FromContext(ctx)

	tiles := raster.Tiles(src.Bounds(), opts.TileWidth, opts.TileHeight)
	ll.Debug("Starting histogram pass",
		"bounds", src.Bounds().String(),
		"tiles", len(tiles),
		"workers", acc.Workers())

	queue := make(chan image.Rectangle, len(tiles))
	for _, t := range tiles {
		queue <- t
	}
	close(queue)

	g, gCtx := errgroup.WithContext(ctx)
	for worker := 0; worker < acc.Workers(); worker++ {
		worker := worker
		g.Go(func() error {
			for tile := range queue {
				if err := gCtx.Err(); err != nil {
					return err
				}
				if err := acc.Ingest(worker, src, tile); err != nil {
					return fmt.Errorf("worker %d tile %v: %w", worker, tile, err)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("histogram pass failed: %w", err)
	}

	acc.Synthesize()
	ll.Debug("Histogram pass complete", "total", acc.Histogram().TotalFrequency())
	return nil
}
