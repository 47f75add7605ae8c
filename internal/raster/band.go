package raster

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// Band is a single-band raster of float64 samples.
type Band struct {
	// Rect is the pixel extent of the band.
	Rect image.Rectangle

	// Pix holds the samples in row-major order.
	Pix []float64

	// Stride is the distance in Pix between vertically adjacent samples.
	Stride int
}

// NewBand returns a zero-filled band covering r.
func NewBand(r image.Rectangle) *Band {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		w, h = 0, 0
	}
	return &Band{
		Rect:   r,
		Pix:    make([]float64, w*h),
		Stride: w,
	}
}

// Bounds returns the pixel extent of the band.
func (b *Band) Bounds() image.Rectangle {
	return b.Rect
}

// Value returns the sample at (x, y). The point must lie inside Bounds.
func (b *Band) Value(x, y int) float64 {
	return b.Pix[b.offset(x, y)]
}

// Set stores v at (x, y). The point must lie inside Bounds.
func (b *Band) Set(x, y int, v float64) {
	b.Pix[b.offset(x, y)] = v
}

// Row returns the samples of row y. The slice aliases Pix.
func (b *Band) Row(y int) []float64 {
	start := b.offset(b.Rect.Min.X, y)
	return b.Pix[start : start+b.Rect.Dx()]
}

func (b *Band) offset(x, y int) int {
	return (y-b.Rect.Min.Y)*b.Stride + (x - b.Rect.Min.X)
}

// FromImage converts a decoded image into a Band.
//
// When signed is true, 16-bit grayscale samples are reinterpreted as
// two's-complement int16 values. The flag has no effect on other pixel types.
func FromImage(img image.Image, signed bool) *Band {
	bounds := img.Bounds()
	band := NewBand(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := band.Row(y)
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			row[x-bounds.Min.X] = sample(img, x, y, signed)
		}
	}
	return band
}

func sample(img image.Image, x, y int, signed bool) float64 {
	switch src := img.(type) {
	case *image.Gray16:
		v := src.Gray16At(x, y).Y
		if signed {
			return float64(int16(v))
		}
		return float64(v)
	case *image.Gray:
		return float64(src.GrayAt(x, y).Y)
	case *image.Paletted:
		return float64(src.ColorIndexAt(x, y))
	default:
		return float64(color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
	}
}

// ToGray converts the band to an 8-bit grayscale image. Samples are rounded
// and clamped to [0, 255]; NaN becomes 0.
func ToGray(b *Band) *image.Gray {
	img := image.NewGray(b.Rect)
	for y := b.Rect.Min.Y; y < b.Rect.Max.Y; y++ {
		for x := b.Rect.Min.X; x < b.Rect.Max.X; x++ {
			v := b.Value(x, y)
			var g uint8
			switch {
			case math.IsNaN(v) || v <= 0:
				g = 0
			case v >= 255:
				g = 255
			default:
				g = uint8(math.Round(v))
			}
			img.SetGray(x, y, color.Gray{Y: g})
		}
	}
	return img
}

// Stack combines co-registered bands into per-pixel measurement vectors.
type Stack struct {
	bands []*Band
	rect  image.Rectangle
}

// NewStack stacks bands in order. All bands must share the same bounds.
func NewStack(bands ...*Band) (*Stack, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("stack needs at least one band")
	}
	rect := bands[0].Bounds()
	for i, b := range bands[1:] {
		if b.Bounds() != rect {
			return nil, fmt.Errorf("band %d bounds %v differ from band 0 bounds %v", i+1, b.Bounds(), rect)
		}
	}
	return &Stack{bands: bands, rect: rect}, nil
}

// Bounds returns the common extent of the stacked bands.
func (s *Stack) Bounds() image.Rectangle {
	return s.rect
}

// NumBands returns the number of stacked bands.
func (s *Stack) NumBands() int {
	return len(s.bands)
}

// Band returns the i'th stacked band.
func (s *Stack) Band(i int) *Band {
	return s.bands[i]
}

// Measurement fills dst with the samples of every band at (x, y).
// dst must have length NumBands.
func (s *Stack) Measurement(x, y int, dst []float64) {
	for i, b := range s.bands {
		dst[i] = b.Value(x, y)
	}
}
