// Package mask provides the per-pixel encoders that turn classification
// rasters into the small flag values consumed by the histogram.
//
// Combine packs up to eight binary flags into one byte, bit i set when input
// i is non-zero. BitTest extracts a single class from a multi-bit code, such
// as the cloud bits of a quality band. Both are pure functions of one pixel;
// CombineBands and TestBand apply them across whole bands in parallel rows.
package mask
