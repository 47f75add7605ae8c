package raster

import (
	"errors"
	"math"
	"sync"

	"github.com/anthonynsimon/bild/parallel"
	"gonum.org/v1/gonum/floats"
)

// ErrEmptyBand is returned when a statistic is requested on a band without pixels.
var ErrEmptyBand = errors.New("band has no pixels")

// MinMax returns the smallest and largest sample of b. Rows are scanned in
// parallel and the per-row extrema are reduced under a mutex.
func MinMax(b *Band) (lo, hi float64, err error) {
	height := b.Rect.Dy()
	if height <= 0 || b.Rect.Dx() <= 0 {
		return 0, 0, ErrEmptyBand
	}

	var mu sync.Mutex
	lo, hi = math.Inf(1), math.Inf(-1)

	parallel.Line(height, func(start, end int) {
		localLo, localHi := math.Inf(1), math.Inf(-1)
		for y := start; y < end; y++ {
			row := b.Row(b.Rect.Min.Y + y)
			localLo = math.Min(localLo, floats.Min(row))
			localHi = math.Max(localHi, floats.Max(row))
		}

		mu.Lock()
		lo = math.Min(lo, localLo)
		hi = math.Max(hi, localHi)
		mu.Unlock()
	})

	return lo, hi, nil
}
