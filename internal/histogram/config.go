package histogram

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// MaxCells bounds the product of the per-band bin counts.
const MaxCells = 1 << 24

var (
	// ErrInvalidConfig is returned by NewAccumulator for unusable configurations.
	ErrInvalidConfig = errors.New("invalid histogram configuration")

	// ErrShapeMismatch is returned when histograms, sources or masks do not
	// agree in shape.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// Source yields measurement vectors for the pixels of a raster.
// *raster.Stack satisfies it.
type Source interface {
	Bounds() image.Rectangle
	NumBands() int
	Measurement(x, y int, dst []float64)
}

// Plane is a single-band raster such as a mask. *raster.Band satisfies it.
type Plane interface {
	Bounds() image.Rectangle
	Value(x, y int) float64
}

// BandSpec describes the binning of one measurement band.
type BandSpec struct {
	Bins int     `json:"bins"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Width returns the width of one bin.
func (b BandSpec) Width() float64 {
	return (b.Max - b.Min) / float64(b.Bins)
}

// Config is the fixed configuration of an Accumulator.
type Config struct {
	// Bands holds one binning per measurement band.
	Bands []BandSpec

	// Workers is the number of partial histograms. Zero means one.
	Workers int

	// Mask restricts ingestion to pixels whose mask value equals MaskValue.
	// It must cover the same bounds as every ingested source.
	Mask      Plane
	MaskValue *float64

	// NoDataEnabled excludes pixels whose first band equals NoDataValue.
	NoDataEnabled bool
	NoDataValue   float64

	// SubSamplingRate ingests only pixels whose offsets from the source
	// origin are multiples of the rate on both axes. Zero means one.
	SubSamplingRate int

	// ClipOutOfRange drops pixels with a value outside [Min, Max] instead of
	// clamping it into the end bins.
	ClipOutOfRange bool
}

func (c Config) validate() error {
	if len(c.Bands) == 0 {
		return fmt.Errorf("%w: no bands", ErrInvalidConfig)
	}
	cells := 1
	for i, b := range c.Bands {
		if b.Bins < 1 {
			return fmt.Errorf("%w: band %d has %d bins", ErrInvalidConfig, i, b.Bins)
		}
		if b.Bins > MaxCells/cells {
			return fmt.Errorf("%w: more than %d cells", ErrInvalidConfig, MaxCells)
		}
		cells *= b.Bins
		if math.IsNaN(b.Min) || math.IsNaN(b.Max) || b.Max <= b.Min {
			return fmt.Errorf("%w: band %d range [%g, %g] is empty", ErrInvalidConfig, i, b.Min, b.Max)
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: negative worker count %d", ErrInvalidConfig, c.Workers)
	}
	if c.SubSamplingRate < 0 {
		return fmt.Errorf("%w: negative sub-sampling rate %d", ErrInvalidConfig, c.SubSamplingRate)
	}
	if c.Mask != nil && c.MaskValue == nil {
		return fmt.Errorf("%w: mask without accept value", ErrInvalidConfig)
	}
	return nil
}

func (c Config) workers() int {
	if c.Workers == 0 {
		return 1
	}
	return c.Workers
}

func (c Config) stride() int {
	if c.SubSamplingRate == 0 {
		return 1
	}
	return c.SubSamplingRate
}
