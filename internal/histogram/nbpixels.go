package histogram

import (
	"context"
	"fmt"
)

// CountNbPixels counts the pixels of src's first band whose value lies in
// the upper half of [lower, upper]. src must have exactly one band. Values
// outside the range are not counted.
func CountNbPixels(ctx context.Context, src Source, lower, upper float64, workers int, opts StreamOptions) (uint64, error) {
	acc, err := NewAccumulator(Config{
		Bands:          []BandSpec{{Bins: 2, Min: lower, Max: upper}},
		Workers:        workers,
		ClipOutOfRange: true,
	})
	if err != nil {
		return 0, fmt.Errorf("pixel count: %w", err)
	}
	if err := Stream(ctx, acc, src, opts); err != nil {
		return 0, err
	}
	return acc.Histogram().Frequency(1), nil
}
