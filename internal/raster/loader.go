package raster

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// Cache provides thread-safe caching of decoded bands to avoid redundant disk
// reads and conversions.
//
// Bands are keyed by file path and by the signedness used to interpret
// 16-bit samples, so the same file loaded as a signed DEM and as an unsigned
// flag raster yields two entries.
//
// # Memory Management
//
// A Band stores one float64 per pixel. Cached bands stay in memory until
// Evict or Clear is called; long-running servers processing many scenes
// should evict scenes they are done with.
//
// # Example Usage
//
//	cache := raster.NewCache()
//	dem, err := cache.LoadBand("/data/dem.tif", true)
//	if err != nil {
//	    return err
//	}
//	cache.Evict("/data/dem.tif")
type Cache struct {
	mu    sync.RWMutex
	bands map[bandKey]*Band
}

type bandKey struct {
	path   string
	signed bool
}

// NewCache creates an empty cache ready for concurrent use.
func NewCache() *Cache {
	return &Cache{
		bands: make(map[bandKey]*Band),
	}
}

// LoadBand retrieves a band from the cache or decodes it from disk.
//
// Supported formats are those understood by the imaging package (PNG, JPEG,
// GIF, TIFF, BMP). See FromImage for how pixels become samples.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not a decodable image
func (c *Cache) LoadBand(path string, signed bool) (*Band, error) {
	key := bandKey{path: path, signed: signed}

	c.mu.RLock()
	if b, ok := c.bands[key]; ok {
		c.mu.RUnlock()
		return b, nil
	}
	c.mu.RUnlock()

	img, err := decode(path)
	if err != nil {
		return nil, err
	}
	b := FromImage(img, signed)

	c.mu.Lock()
	c.bands[key] = b
	c.mu.Unlock()

	return b, nil
}

// LoadStack loads each path as a band and stacks them in order. signed
// applies to the first path only, the elevation band by convention; the
// remaining paths are flag rasters read unsigned.
func (c *Cache) LoadStack(signed bool, paths ...string) (*Stack, error) {
	bands := make([]*Band, 0, len(paths))
	for i, p := range paths {
		b, err := c.LoadBand(p, signed && i == 0)
		if err != nil {
			return nil, err
		}
		bands = append(bands, b)
	}
	return NewStack(bands...)
}

// Clear removes all bands from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.bands = make(map[bandKey]*Band)
	c.mu.Unlock()
}

// Evict removes every cached band decoded from path. Unknown paths are ignored.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	delete(c.bands, bandKey{path: path, signed: false})
	delete(c.bands, bandKey{path: path, signed: true})
	c.mu.Unlock()
}

func decode(path string) (image.Image, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open raster: %w", err)
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode raster: %w", err)
	}
	return img, nil
}

// Info contains metadata about a raster file.
type Info struct {
	// Width is the raster width in pixels.
	Width int `json:"width"`

	// Height is the raster height in pixels.
	Height int `json:"height"`

	// Format is derived from the file extension: "png", "jpeg", "gif",
	// "tiff", "bmp" or "unknown".
	Format string `json:"format"`

	// BitDepth is "16-bit" for 16-bit sample types and "8-bit" otherwise.
	BitDepth string `json:"bit_depth"`

	// Paletted is true when samples are palette indices.
	Paletted bool `json:"paletted"`

	// FileSizeBytes is the size of the file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadInfo decodes a raster and reports its geometry and sample layout. The
// decoded pixels are not cached.
func LoadInfo(path string) (*Info, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	img, err := decode(path)
	if err != nil {
		return nil, err
	}

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	case ".tif", ".tiff":
		format = "tiff"
	case ".bmp":
		format = "bmp"
	}

	depth := "8-bit"
	paletted := false
	switch img.(type) {
	case *image.Gray16, *image.RGBA64, *image.NRGBA64:
		depth = "16-bit"
	case *image.Paletted:
		paletted = true
	}

	bounds := img.Bounds()
	return &Info{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		BitDepth:      depth,
		Paletted:      paletted,
		FileSizeBytes: stat.Size(),
	}, nil
}

// SaveBand writes b as an 8-bit grayscale image. The format is chosen from
// the file extension.
func SaveBand(path string, b *Band) error {
	if err := imaging.Save(ToGray(b), path); err != nil {
		return fmt.Errorf("failed to save raster: %w", err)
	}
	return nil
}
