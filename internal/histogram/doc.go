// Package histogram accumulates joint histograms of multi-band rasters.
//
// # Overview
//
// An Accumulator bins per-pixel measurement vectors into an N-dimensional
// histogram with uniform bins along each band. It is designed for scenes
// that are processed tile by tile, possibly by several goroutines at once:
//
//   - Each worker id owns a partial histogram, so Ingest needs no locking.
//   - Synthesize sums the partials into the merged result.
//   - The merged result does not depend on how the scene was tiled or how
//     tiles were assigned to workers.
//
// # Lifecycle
//
//	acc, err := histogram.NewAccumulator(cfg)
//	acc.Reset()
//	// any number of concurrent Ingest calls, one goroutine per worker id
//	acc.Ingest(0, src, tileA)
//	acc.Ingest(1, src, tileB)
//	acc.Synthesize()
//	h := acc.Histogram()
//
// Partial histograms survive Synthesize. Running a second pass without Reset
// adds its counts to the first, which is how several scenes are pooled into
// one histogram.
//
// Stream and Update drive a complete pass over a Source using the package's
// tiling and worker fan-out.
//
// # Binning
//
// A value v of a band with n bins over [min, max] falls into bin
// floor((v-min)/width), width = (max-min)/n. Values outside the range are
// clamped into the end bins unless Config.ClipOutOfRange is set, in which
// case the whole pixel is dropped. NaN samples always drop the pixel.
//
// # Limits
//
// Counters are uint64; overflow is not detected.
package histogram
