// Package raster loads single-band rasters and exposes them as float64 planes
// for the histogram and snow-line code.
//
// A scene is made of co-registered rasters: a digital elevation model and
// classification flags (snow, cloud). Each file is decoded once into a Band
// and several bands of identical geometry are stacked into a Stack, which
// yields one measurement vector per pixel.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner, X growing
// rightward and Y growing downward. Rectangles follow the image package
// convention: Min is inclusive, Max is exclusive.
//
// # Pixel Interpretation
//
// Decoded images are converted per pixel:
//   - 16-bit grayscale: the raw sample, optionally reinterpreted as a signed
//     int16 (elevation models routinely store negative heights)
//   - 8-bit grayscale: the raw sample
//   - paletted images: the palette index, which is the class code for
//     classification rasters
//   - anything else: 8-bit luminance
//
// # Thread Safety
//
// Cache is safe for concurrent use. Band and Stack are read-only once built
// and can be read from any number of goroutines; writers must not overlap
// readers.
//
// # Tiling
//
// Tiles splits a raster extent into disjoint rectangles that cover it
// exactly. The histogram driver hands one tile at a time to a worker.
package raster
