package report

import "image"

// pixelSource lays pixel vectors out along a single row.
type pixelSource [][3]float64

func (p pixelSource) Bounds() image.Rectangle { return image.Rect(0, 0, len(p), 1) }
func (p pixelSource) NumBands() int           { return 3 }
func (p pixelSource) Measurement(x, _ int, dst []float64) {
	copy(dst, p[x][:])
}
