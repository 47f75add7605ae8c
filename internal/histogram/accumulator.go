package histogram

import (
	"fmt"
	"image"
	"math"
)

// Accumulator builds a histogram from many Ingest calls spread over workers.
//
// Ingest on distinct worker ids may run concurrently. A worker id must not be
// used by two goroutines at once, and Synthesize must not overlap any Ingest.
type Accumulator struct {
	cfg      Config
	partials []*Histogram
	result   *Histogram
}

// NewAccumulator validates cfg and returns an accumulator with zeroed state.
func NewAccumulator(cfg Config) (*Accumulator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	a := &Accumulator{
		cfg:      cfg,
		partials: make([]*Histogram, cfg.workers()),
		result:   New(cfg.Bands),
	}
	for i := range a.partials {
		a.partials[i] = New(cfg.Bands)
	}
	return a, nil
}

// Workers returns the number of partial histograms.
func (a *Accumulator) Workers() int {
	return len(a.partials)
}

// Config returns the accumulator's configuration.
func (a *Accumulator) Config() Config {
	return a.cfg
}

// Reset zeroes every partial histogram and the merged result.
func (a *Accumulator) Reset() {
	for _, p := range a.partials {
		p.clear()
	}
	a.result.clear()
}

// Ingest bins every included pixel of region ∩ src.Bounds() into the
// partial histogram of worker.
func (a *Accumulator) Ingest(worker int, src Source, region image.Rectangle) error {
	if worker < 0 || worker >= len(a.partials) {
		return fmt.Errorf("worker %d out of range [0, %d)", worker, len(a.partials))
	}
	if n := src.NumBands(); n != len(a.cfg.Bands) {
		return fmt.Errorf("%w: source has %d bands, histogram has %d", ErrShapeMismatch, n, len(a.cfg.Bands))
	}
	bounds := src.Bounds()
	if a.cfg.Mask != nil && a.cfg.Mask.Bounds() != bounds {
		return fmt.Errorf("%w: mask bounds %v differ from source bounds %v", ErrShapeMismatch, a.cfg.Mask.Bounds(), bounds)
	}

	r := region.Intersect(bounds)
	if r.Empty() {
		return nil
	}

	partial := a.partials[worker]
	stride := a.cfg.stride()
	vec := make([]float64, len(a.cfg.Bands))

	for y := alignUp(r.Min.Y, bounds.Min.Y, stride); y < r.Max.Y; y += stride {
		for x := alignUp(r.Min.X, bounds.Min.X, stride); x < r.Max.X; x += stride {
			if a.cfg.Mask != nil && a.cfg.Mask.Value(x, y) != *a.cfg.MaskValue {
				continue
			}
			src.Measurement(x, y, vec)
			if a.cfg.NoDataEnabled && isNoData(vec[0], a.cfg.NoDataValue) {
				continue
			}
			if flat, ok := a.cellOf(partial, vec); ok {
				partial.counts[flat]++
			}
		}
	}
	return nil
}

// Synthesize replaces the merged result with the sum of all partials.
func (a *Accumulator) Synthesize() {
	a.result.clear()
	for _, p := range a.partials {
		for i, c := range p.counts {
			a.result.counts[i] += c
		}
	}
}

// Histogram returns the merged result of the last Synthesize. The returned
// histogram is owned by the accumulator; Clone it to keep it across passes.
func (a *Accumulator) Histogram() *Histogram {
	return a.result
}

func (a *Accumulator) cellOf(h *Histogram, vec []float64) (int, bool) {
	flat := 0
	for d, v := range vec {
		i, ok := binIndex(a.cfg.Bands[d], v, a.cfg.ClipOutOfRange)
		if !ok {
			return 0, false
		}
		flat += i * h.strides[d]
	}
	return flat, true
}

// alignUp returns the smallest v >= start with (v-origin) a multiple of stride.
func alignUp(start, origin, stride int) int {
	if rem := (start - origin) % stride; rem != 0 {
		if rem < 0 {
			rem += stride
		}
		return start + stride - rem
	}
	return start
}

func isNoData(v, noData float64) bool {
	if math.IsNaN(noData) {
		return math.IsNaN(v)
	}
	return v == noData
}
