package raster

import "image"

// Tiles splits bounds into disjoint rectangles of at most tileWidth x
// tileHeight pixels that together cover bounds exactly. Tiles are ordered
// row by row, left to right. A non-positive size means the full extent
// along that axis.
func Tiles(bounds image.Rectangle, tileWidth, tileHeight int) []image.Rectangle {
	if bounds.Empty() {
		return nil
	}
	if tileWidth <= 0 {
		tileWidth = bounds.Dx()
	}
	if tileHeight <= 0 {
		tileHeight = bounds.Dy()
	}

	tiles := make([]image.Rectangle, 0, ceilDiv(bounds.Dx(), tileWidth)*ceilDiv(bounds.Dy(), tileHeight))
	for y := bounds.Min.Y; y < bounds.Max.Y; y += tileHeight {
		for x := bounds.Min.X; x < bounds.Max.X; x += tileWidth {
			tiles = append(tiles, image.Rect(x, y, x+tileWidth, y+tileHeight).Intersect(bounds))
		}
	}
	return tiles
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
