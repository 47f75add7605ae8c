package mask

import (
	"fmt"
	"math"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/snowline-tools-mcp/internal/raster"
)

// CombineBands applies Combine to every pixel of the co-registered bands and
// returns the codes as a new band.
func CombineBands(bands ...*raster.Band) (*raster.Band, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("no bands to combine")
	}
	if len(bands) > MaxInputs {
		return nil, fmt.Errorf("%w: got %d, max %d", ErrTooManyInputs, len(bands), MaxInputs)
	}
	stack, err := raster.NewStack(bands...)
	if err != nil {
		return nil, err
	}

	bounds := stack.Bounds()
	out := raster.NewBand(bounds)
	parallel.Line(bounds.Dy(), func(start, end int) {
		vec := make([]float64, stack.NumBands())
		for y := bounds.Min.Y + start; y < bounds.Min.Y+end; y++ {
			row := out.Row(y)
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				stack.Measurement(x, y, vec)
				// Length is checked above.
				code, _ := Combine(vec)
				row[x-bounds.Min.X] = float64(code)
			}
		}
	})
	return out, nil
}

// TestBand applies bt to every pixel of band. Samples are truncated to
// uint16 codes; negative and NaN samples test as code 0.
func TestBand(band *raster.Band, bt *BitTest) *raster.Band {
	bounds := band.Bounds()
	out := raster.NewBand(bounds)
	parallel.Line(bounds.Dy(), func(start, end int) {
		for y := bounds.Min.Y + start; y < bounds.Min.Y+end; y++ {
			src, dst := band.Row(y), out.Row(y)
			for i, v := range src {
				dst[i] = float64(bt.Eval(toCode(v)))
			}
		}
	})
	return out
}

func toCode(v float64) uint16 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= math.MaxUint16:
		return math.MaxUint16
	default:
		return uint16(v)
	}
}
