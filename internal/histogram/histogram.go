package histogram

import (
	"fmt"
	"math"
	"slices"
)

// Histogram is an N-dimensional array of bin frequencies. Dimension 0 varies
// fastest in the flat layout.
type Histogram struct {
	bands   []BandSpec
	strides []int
	counts  []uint64
}

// New returns an all-zero histogram with the given binning.
func New(bands []BandSpec) *Histogram {
	h := &Histogram{
		bands:   slices.Clone(bands),
		strides: make([]int, len(bands)),
	}
	n := 1
	for d, b := range bands {
		h.strides[d] = n
		n *= b.Bins
	}
	h.counts = make([]uint64, n)
	return h
}

// Dimensions returns the number of bands.
func (h *Histogram) Dimensions() int {
	return len(h.bands)
}

// Size returns the number of bins along dim.
func (h *Histogram) Size(dim int) int {
	return h.bands[dim].Bins
}

// Sizes returns the number of bins along every dimension.
func (h *Histogram) Sizes() []int {
	sizes := make([]int, len(h.bands))
	for d, b := range h.bands {
		sizes[d] = b.Bins
	}
	return sizes
}

// Band returns the binning of dim.
func (h *Histogram) Band(dim int) BandSpec {
	return h.bands[dim]
}

// Len returns the total number of cells.
func (h *Histogram) Len() int {
	return len(h.counts)
}

// Index returns the flat offset of a bin index tuple, or -1 when the tuple
// has the wrong length or lies outside the histogram.
func (h *Histogram) Index(idx ...int) int {
	if len(idx) != len(h.bands) {
		return -1
	}
	flat := 0
	for d, i := range idx {
		if i < 0 || i >= h.bands[d].Bins {
			return -1
		}
		flat += i * h.strides[d]
	}
	return flat
}

// Frequency returns the count of the cell at idx, or 0 for an invalid index.
func (h *Histogram) Frequency(idx ...int) uint64 {
	flat := h.Index(idx...)
	if flat < 0 {
		return 0
	}
	return h.counts[flat]
}

// FrequencyAt returns the count of the cell at a flat offset.
func (h *Histogram) FrequencyAt(flat int) uint64 {
	return h.counts[flat]
}

// TotalFrequency returns the sum of all cells.
func (h *Histogram) TotalFrequency() uint64 {
	var total uint64
	for _, c := range h.counts {
		total += c
	}
	return total
}

// Bucket returns the value range [lo, hi) covered by bin i of dim.
func (h *Histogram) Bucket(dim, i int) (lo, hi float64) {
	b := h.bands[dim]
	w := b.Width()
	return b.Min + float64(i)*w, b.Min + float64(i+1)*w
}

// BinCenter returns the centre value of bin i of dim.
func (h *Histogram) BinCenter(dim, i int) float64 {
	lo, hi := h.Bucket(dim, i)
	return (lo + hi) / 2
}

// MeasurementVector returns the bin centres of a cell.
func (h *Histogram) MeasurementVector(idx ...int) []float64 {
	v := make([]float64, len(idx))
	for d, i := range idx {
		v[d] = h.BinCenter(d, i)
	}
	return v
}

// Marginal projects the histogram onto dim.
func (h *Histogram) Marginal(dim int) *Histogram {
	m := New([]BandSpec{h.bands[dim]})
	stride, n := h.strides[dim], h.bands[dim].Bins
	for flat, c := range h.counts {
		m.counts[(flat/stride)%n] += c
	}
	return m
}

// Merge adds the counts of other into h.
func (h *Histogram) Merge(other *Histogram) error {
	if !h.sameShape(other) {
		return fmt.Errorf("%w: cannot merge %v into %v", ErrShapeMismatch, other.Sizes(), h.Sizes())
	}
	for i, c := range other.counts {
		h.counts[i] += c
	}
	return nil
}

// Clone returns a deep copy of h.
func (h *Histogram) Clone() *Histogram {
	return &Histogram{
		bands:   slices.Clone(h.bands),
		strides: slices.Clone(h.strides),
		counts:  slices.Clone(h.counts),
	}
}

// Equal reports whether h and other have the same binning and counts.
func (h *Histogram) Equal(other *Histogram) bool {
	return h.sameShape(other) && slices.Equal(h.counts, other.counts)
}

func (h *Histogram) sameShape(other *Histogram) bool {
	return slices.Equal(h.bands, other.bands)
}

func (h *Histogram) clear() {
	clear(h.counts)
}

// binIndex returns the bin of v within b. ok is false when v is NaN, or
// when clip is set and v lies outside [Min, Max].
func binIndex(b BandSpec, v float64, clip bool) (i int, ok bool) {
	if math.IsNaN(v) {
		return 0, false
	}
	if clip && (v < b.Min || v > b.Max) {
		return 0, false
	}
	f := math.Floor((v - b.Min) / b.Width())
	switch {
	case f < 0:
		return 0, true
	case f >= float64(b.Bins):
		return b.Bins - 1, true
	default:
		return int(f), true
	}
}
