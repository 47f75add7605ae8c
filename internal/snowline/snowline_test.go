package snowline

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/snowline-tools-mcp/internal/histogram"
	"github.com/ironsheep/snowline-tools-mcp/internal/raster"
)

// testScene is a 10x10 scene: 90 bare pixels at 0 m, 5 cloudy snow pixels
// at 70 m and 5 clear snow pixels at 81 m.
func testScene(t *testing.T) (dem, snow, cloud *raster.Band) {
	t.Helper()
	r := image.Rect(0, 0, 10, 10)
	dem, snow, cloud = raster.NewBand(r), raster.NewBand(r), raster.NewBand(r)
	for x := 0; x < 5; x++ {
		dem.Set(x, 8, 70)
		snow.Set(x, 8, 1)
		cloud.Set(x, 8, 1)

		dem.Set(x, 9, 81)
		snow.Set(x, 9, 1)
	}
	return dem, snow, cloud
}

func testStack(t *testing.T) *raster.Stack {
	t.Helper()
	dem, snow, cloud := testScene(t)
	s, err := raster.NewStack(dem, snow, cloud)
	require.NoError(t, err)
	return s
}

func limitsZero() Params {
	p := DefaultParams()
	p.Dz = 10
	p.FSnowLim = 0
	p.FClearLim = 0
	return p
}

func TestSearch_EndToEnd(t *testing.T) {
	ctx := context.Background()
	res, err := Search(ctx, testStack(t), 0, 100, limitsZero(), Options{Workers: 3, Stream: histogram.StreamOptions{TileHeight: 3}})
	require.NoError(t, err)

	assert.True(t, res.Found)
	assert.Equal(t, 85, res.Value())
	assert.Equal(t, 8, res.Bin)
	assert.Equal(t, 10, res.Bins)
	require.NotNil(t, res.Histogram)
	assert.Equal(t, uint64(100), res.Histogram.TotalFrequency())
}

func TestSearch_Reverse(t *testing.T) {
	p := limitsZero()
	p.Reverse = true
	res, err := Search(context.Background(), testStack(t), 0, 100, p, Options{})
	require.NoError(t, err)
	assert.Equal(t, 85, res.Value())
}

func TestSearch_EmptyPlausibleRange(t *testing.T) {
	for _, p := range []Params{
		{Dz: 10},
		{Dz: 10, MinPlausible: 500, MaxPlausible: 100},
	} {
		_, err := Search(context.Background(), testStack(t), 0, 100, p, Options{})
		assert.ErrorIs(t, err, ErrInvalidParams)
	}
}

func TestSearch_DegenerateDz(t *testing.T) {
	dir := t.TempDir()
	for _, tt := range []struct {
		name       string
		dz         int
		zmin, zmax float64
	}{
		{"zero dz", 0, 0, 100},
		{"dz wider than range", 150, 0, 100},
		{"flat scene", 10, 50, 50},
	} {
		t.Run(tt.name, func(t *testing.T) {
			p := limitsZero()
			p.Dz = tt.dz
			p.ReportPath = filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".txt")

			res, err := Search(context.Background(), testStack(t), tt.zmin, tt.zmax, p, Options{})
			require.NoError(t, err)
			assert.False(t, res.Found)
			assert.Equal(t, NotFound, res.Value())
			assert.Nil(t, res.Histogram)

			data, err := os.ReadFile(p.ReportPath)
			require.NoError(t, err)
			assert.Equal(t, "Number of bins=0\n", string(data))
		})
	}
}

func TestSearch_WritesReport(t *testing.T) {
	p := limitsZero()
	p.ReportPath = filepath.Join(t.TempDir(), "histogram.txt")

	_, err := Search(context.Background(), testStack(t), 0, 100, p, Options{})
	require.NoError(t, err)

	data, err := os.ReadFile(p.ReportPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 12)
	assert.Equal(t, "Number of bins=40-Total frequency=100-Dimension sizes=[10, 2, 2]", lines[0])
	assert.Equal(t, "5,90,0,0,90", lines[2])
	assert.Equal(t, "75,5,5,5,0", lines[9])
	assert.Equal(t, "85,5,0,5,0", lines[10])
}

func TestSearch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Search(ctx, testStack(t), 0, 100, limitsZero(), Options{Workers: 2, Stream: histogram.StreamOptions{TileHeight: 1}})
	assert.ErrorIs(t, err, context.Canceled)
}

// sceneHistogram runs the test scene through an accumulator.
func sceneHistogram(t *testing.T) *histogram.Histogram {
	t.Helper()
	res, err := Search(context.Background(), testStack(t), 0, 100, limitsZero(), Options{})
	require.NoError(t, err)
	return res.Histogram
}

func TestScan_Offsets(t *testing.T) {
	h := sceneHistogram(t)

	tests := []struct {
		name         string
		offset       int
		centerOffset int
		want         int
	}{
		{"no offset", 0, 0, 85},
		{"one bin down", -1, 0, 75},
		{"clamped at bottom", -20, 0, 5},
		{"clamped at top", 5, 0, 95},
		{"centre offset", 0, 3, 88},
		{"negative centre offset", 0, -6, 79},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := limitsZero()
			p.Offset = tt.offset
			p.CenterOffset = tt.centerOffset
			res := Scan(h, p)
			require.True(t, res.Found)
			assert.Equal(t, 8, res.Bin)
			assert.Equal(t, tt.want, res.Value())
		})
	}
}

func TestScan_Thresholds(t *testing.T) {
	h := sceneHistogram(t)

	p := limitsZero()
	p.FSnowLim = 1
	assert.False(t, Scan(h, p).Found, "snow fraction must strictly exceed the limit")

	p = limitsZero()
	p.FClearLim = 1
	assert.False(t, Scan(h, p).Found, "clear fraction must strictly exceed the limit")

	p = limitsZero()
	p.FSnowLim = 0.99
	p.FClearLim = 0.99
	assert.Equal(t, 85, Scan(h, p).Value())
}

func TestScan_Direction(t *testing.T) {
	r := image.Rect(0, 0, 4, 1)
	dem, snow, cloud := raster.NewBand(r), raster.NewBand(r), raster.NewBand(r)
	for x, z := range []float64{15, 15, 65, 95} {
		dem.Set(x, 0, z)
		snow.Set(x, 0, 1)
	}
	s, err := raster.NewStack(dem, snow, cloud)
	require.NoError(t, err)

	p := limitsZero()
	res, err := Search(context.Background(), s, 0, 100, p, Options{})
	require.NoError(t, err)
	assert.Equal(t, 15, res.Value())

	p.Reverse = true
	res, err = Search(context.Background(), s, 0, 100, p, Options{})
	require.NoError(t, err)
	assert.Equal(t, 95, res.Value())
	assert.Equal(t, 9, res.Bin)
}

func TestScan_PlausibilityRange(t *testing.T) {
	r := image.Rect(0, 0, 2, 1)
	dem, snow, cloud := raster.NewBand(r), raster.NewBand(r), raster.NewBand(r)
	dem.Set(0, 0, -1000)
	dem.Set(1, 0, 9000)
	snow.Set(0, 0, 1)
	snow.Set(1, 0, 1)
	s, err := raster.NewStack(dem, snow, cloud)
	require.NoError(t, err)

	p := limitsZero()
	p.Dz = 100
	res, err := Search(context.Background(), s, -1000, 9000, p, Options{})
	require.NoError(t, err)
	assert.False(t, res.Found, "bins outside the plausible range never qualify")
	assert.Equal(t, NotFound, res.Value())

	p.MinPlausible = -2000
	res, err = Search(context.Background(), s, -1000, 9000, p, Options{})
	require.NoError(t, err)
	assert.Equal(t, -950, res.Value())

	p.Reverse = true
	p.MaxPlausible = 10000
	res, err = Search(context.Background(), s, -1000, 9000, p, Options{})
	require.NoError(t, err)
	assert.Equal(t, 8950, res.Value())
}

func TestScan_EmptyHistogram(t *testing.T) {
	h := histogram.New([]histogram.BandSpec{{Bins: 5, Min: 0, Max: 50}, {Bins: 2, Min: 0, Max: 1}, {Bins: 2, Min: 0, Max: 1}})
	res := Scan(h, limitsZero())
	assert.False(t, res.Found)
	assert.Equal(t, 5, res.Bins)
}

func TestAltitudeBins(t *testing.T) {
	assert.Equal(t, 10, AltitudeBins(0, 100, 10))
	assert.Equal(t, 8, AltitudeBins(0, 81, 10))
	assert.Equal(t, 0, AltitudeBins(0, 100, 0))
	assert.Equal(t, 0, AltitudeBins(0, 9, 10))
	assert.Equal(t, 0, AltitudeBins(0, 100, -10))
}

func writeGray16(t *testing.T, dir, name string, b *raster.Band) string {
	t.Helper()
	img := image.NewGray16(b.Bounds())
	for y := b.Rect.Min.Y; y < b.Rect.Max.Y; y++ {
		for x := b.Rect.Min.X; x < b.Rect.Max.X; x++ {
			img.SetGray16(x, y, color.Gray16{Y: uint16(int16(b.Value(x, y)))})
		}
	}
	path := filepath.Join(dir, name)
	require.NoError(t, saveGray16(path, img))
	return path
}

func TestCompute(t *testing.T) {
	dir := t.TempDir()
	dem, snow, cloud := testScene(t)
	demPath := writeGray16(t, dir, "dem.png", dem)
	snowPath := filepath.Join(dir, "snow.png")
	cloudPath := filepath.Join(dir, "cloud.png")
	require.NoError(t, raster.SaveBand(snowPath, snow))
	require.NoError(t, raster.SaveBand(cloudPath, cloud))

	res, err := Compute(context.Background(), raster.NewCache(), demPath, snowPath, cloudPath, limitsZero(), Options{Workers: 2})
	require.NoError(t, err)

	// The DEM spans [0, 81], giving 8 bins of 10.125 m.
	assert.Equal(t, 8, res.Bins)
	assert.Equal(t, 7, res.Bin)
	assert.Equal(t, 75, res.Value())
}

func TestCompute_MissingRaster(t *testing.T) {
	_, err := Compute(context.Background(), raster.NewCache(), "/nonexistent/dem.png", "a", "b", limitsZero(), Options{})
	assert.Error(t, err)
}
