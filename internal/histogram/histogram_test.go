package histogram

import (
	"context"
	"image"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/snowline-tools-mcp/internal/raster"
)

// scene builds a two-band stack of the given size: band 0 is x+10*y, band 1
// is (x+y)%2.
func scene(t *testing.T, r image.Rectangle) *raster.Stack {
	t.Helper()
	a, b := raster.NewBand(r), raster.NewBand(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			a.Set(x, y, float64((x-r.Min.X)+10*(y-r.Min.Y)))
			b.Set(x, y, float64((x+y)%2))
		}
	}
	s, err := raster.NewStack(a, b)
	require.NoError(t, err)
	return s
}

func sceneConfig(workers int) Config {
	return Config{
		Bands: []BandSpec{
			{Bins: 10, Min: 0, Max: 100},
			{Bins: 2, Min: 0, Max: 1},
		},
		Workers: workers,
	}
}

func TestNewAccumulator_InvalidConfig(t *testing.T) {
	one := 1.0
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no bands", Config{}},
		{"zero bins", Config{Bands: []BandSpec{{Bins: 0, Min: 0, Max: 1}}}},
		{"empty range", Config{Bands: []BandSpec{{Bins: 2, Min: 1, Max: 1}}}},
		{"inverted range", Config{Bands: []BandSpec{{Bins: 2, Min: 5, Max: 1}}}},
		{"negative workers", Config{Bands: []BandSpec{{Bins: 2, Min: 0, Max: 1}}, Workers: -1}},
		{"negative stride", Config{Bands: []BandSpec{{Bins: 2, Min: 0, Max: 1}}, SubSamplingRate: -2}},
		{"too many cells", Config{Bands: []BandSpec{{Bins: 1 << 20, Min: 0, Max: 1}, {Bins: math.MaxInt, Min: 0, Max: 1}}}},
		{"cells above cap", Config{Bands: []BandSpec{{Bins: MaxCells, Min: 0, Max: 1}, {Bins: 2, Min: 0, Max: 1}}}},
		{"mask without value", Config{Bands: []BandSpec{{Bins: 2, Min: 0, Max: 1}}, Mask: raster.NewBand(image.Rect(0, 0, 1, 1))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAccumulator(tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	_, err := NewAccumulator(Config{
		Bands:     []BandSpec{{Bins: 2, Min: 0, Max: 1}},
		Mask:      raster.NewBand(image.Rect(0, 0, 1, 1)),
		MaskValue: &one,
	})
	assert.NoError(t, err)
}

func TestHistogram_BeforeSynthesize(t *testing.T) {
	acc, err := NewAccumulator(sceneConfig(2))
	require.NoError(t, err)

	h := acc.Histogram()
	assert.Equal(t, 2, h.Dimensions())
	assert.Equal(t, []int{10, 2}, h.Sizes())
	assert.Equal(t, 20, h.Len())
	assert.Zero(t, h.TotalFrequency())
}

func TestIngest_Conservation(t *testing.T) {
	src := scene(t, image.Rect(0, 0, 10, 10))
	acc, err := NewAccumulator(sceneConfig(1))
	require.NoError(t, err)

	acc.Reset()
	require.NoError(t, acc.Ingest(0, src, src.Bounds()))
	acc.Synthesize()

	h := acc.Histogram()
	assert.Equal(t, uint64(100), h.TotalFrequency())
	// Band 0 row y holds 10y..10y+9, so each row lands in its own bin.
	for i := 0; i < 10; i++ {
		assert.Equal(t, uint64(5), h.Frequency(i, 0), "bin %d snow 0", i)
		assert.Equal(t, uint64(5), h.Frequency(i, 1), "bin %d snow 1", i)
	}
}

func TestIngest_Errors(t *testing.T) {
	src := scene(t, image.Rect(0, 0, 4, 4))
	acc, err := NewAccumulator(sceneConfig(2))
	require.NoError(t, err)

	assert.Error(t, acc.Ingest(2, src, src.Bounds()))
	assert.Error(t, acc.Ingest(-1, src, src.Bounds()))

	single, err := raster.NewStack(raster.NewBand(image.Rect(0, 0, 4, 4)))
	require.NoError(t, err)
	assert.ErrorIs(t, acc.Ingest(0, single, single.Bounds()), ErrShapeMismatch)

	one := 1.0
	cfg := sceneConfig(1)
	cfg.Mask = raster.NewBand(image.Rect(0, 0, 3, 3))
	cfg.MaskValue = &one
	masked, err := NewAccumulator(cfg)
	require.NoError(t, err)
	assert.ErrorIs(t, masked.Ingest(0, src, src.Bounds()), ErrShapeMismatch)
}

func TestIngest_RegionOutsideSource(t *testing.T) {
	src := scene(t, image.Rect(0, 0, 4, 4))
	acc, err := NewAccumulator(sceneConfig(1))
	require.NoError(t, err)

	require.NoError(t, acc.Ingest(0, src, image.Rect(10, 10, 20, 20)))
	require.NoError(t, acc.Ingest(0, src, image.Rect(2, 2, 8, 8)))
	acc.Synthesize()
	assert.Equal(t, uint64(4), acc.Histogram().TotalFrequency())
}

func TestMergeIsIndependentOfTilingAndWorkers(t *testing.T) {
	src := scene(t, image.Rect(0, 0, 37, 23))
	ctx := context.Background()

	reference, err := NewAccumulator(sceneConfig(1))
	require.NoError(t, err)
	require.NoError(t, Stream(ctx, reference, src, StreamOptions{}))
	want := reference.Histogram().Clone()

	tests := []struct {
		name    string
		workers int
		opts    StreamOptions
	}{
		{"one worker many tiles", 1, StreamOptions{TileWidth: 5, TileHeight: 3}},
		{"four workers row strips", 4, StreamOptions{TileHeight: 1}},
		{"eight workers ragged tiles", 8, StreamOptions{TileWidth: 7, TileHeight: 4}},
		{"more workers than tiles", 16, StreamOptions{TileHeight: 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, err := NewAccumulator(sceneConfig(tt.workers))
			require.NoError(t, err)
			require.NoError(t, Stream(ctx, acc, src, tt.opts))
			assert.True(t, want.Equal(acc.Histogram()))
			assert.Equal(t, uint64(37*23), acc.Histogram().TotalFrequency())
		})
	}
}

func TestIngest_ConcurrentWorkers(t *testing.T) {
	src := scene(t, image.Rect(0, 0, 10, 10))
	acc, err := NewAccumulator(sceneConfig(2))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w, r := range []image.Rectangle{image.Rect(0, 0, 10, 5), image.Rect(0, 5, 10, 10)} {
		w, r := w, r
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, acc.Ingest(w, src, r))
		}()
	}
	wg.Wait()
	acc.Synthesize()
	assert.Equal(t, uint64(100), acc.Histogram().TotalFrequency())
}

func TestPersistenceAcrossPasses(t *testing.T) {
	src := scene(t, image.Rect(0, 0, 10, 10))
	ctx := context.Background()
	acc, err := NewAccumulator(sceneConfig(3))
	require.NoError(t, err)

	require.NoError(t, Stream(ctx, acc, src, StreamOptions{TileHeight: 2}))
	first := acc.Histogram().Clone()

	require.NoError(t, Update(ctx, acc, src, StreamOptions{TileWidth: 3}))
	assert.Equal(t, 2*first.TotalFrequency(), acc.Histogram().TotalFrequency())
	for i := 0; i < first.Len(); i++ {
		assert.Equal(t, 2*first.FrequencyAt(i), acc.Histogram().FrequencyAt(i))
	}

	require.NoError(t, Stream(ctx, acc, src, StreamOptions{}))
	assert.True(t, first.Equal(acc.Histogram()), "Stream resets before the pass")
}

func TestSynthesizeIsIdempotent(t *testing.T) {
	src := scene(t, image.Rect(0, 0, 6, 6))
	acc, err := NewAccumulator(sceneConfig(2))
	require.NoError(t, err)

	require.NoError(t, acc.Ingest(1, src, src.Bounds()))
	acc.Synthesize()
	acc.Synthesize()
	assert.Equal(t, uint64(36), acc.Histogram().TotalFrequency())

	acc.Reset()
	acc.Reset()
	assert.Zero(t, acc.Histogram().TotalFrequency())
}

func TestIngest_Mask(t *testing.T) {
	src := scene(t, image.Rect(0, 0, 10, 10))
	m := raster.NewBand(src.Bounds())
	for x := 0; x < 10; x++ {
		m.Set(x, 0, 3)
		m.Set(x, 9, 3)
	}
	accept := 3.0
	cfg := sceneConfig(1)
	cfg.Mask = m
	cfg.MaskValue = &accept

	acc, err := NewAccumulator(cfg)
	require.NoError(t, err)
	require.NoError(t, Stream(context.Background(), acc, src, StreamOptions{TileHeight: 4}))

	h := acc.Histogram()
	assert.Equal(t, uint64(20), h.TotalFrequency())
	assert.Equal(t, uint64(10), h.Marginal(0).Frequency(0))
	assert.Equal(t, uint64(10), h.Marginal(0).Frequency(9))
}

func TestIngest_NoData(t *testing.T) {
	src := scene(t, image.Rect(0, 0, 10, 10))
	// Band 0 equals 0 only at the origin and 55 only at (5,5).
	for _, nd := range []float64{0, 55} {
		cfg := sceneConfig(1)
		cfg.NoDataEnabled = true
		cfg.NoDataValue = nd

		acc, err := NewAccumulator(cfg)
		require.NoError(t, err)
		require.NoError(t, Stream(context.Background(), acc, src, StreamOptions{}))
		assert.Equal(t, uint64(99), acc.Histogram().TotalFrequency(), "no-data %v", nd)
	}

	cfg := sceneConfig(1)
	cfg.NoDataValue = 0
	acc, err := NewAccumulator(cfg)
	require.NoError(t, err)
	require.NoError(t, Stream(context.Background(), acc, src, StreamOptions{}))
	assert.Equal(t, uint64(100), acc.Histogram().TotalFrequency(), "disabled no-data keeps every pixel")
}

func TestIngest_SubSamplingIsTilingInvariant(t *testing.T) {
	src := scene(t, image.Rect(3, 5, 23, 18))
	cfg := sceneConfig(1)
	cfg.SubSamplingRate = 3

	whole, err := NewAccumulator(cfg)
	require.NoError(t, err)
	require.NoError(t, Stream(context.Background(), whole, src, StreamOptions{}))
	// ceil(20/3) columns by ceil(13/3) rows.
	assert.Equal(t, uint64(7*5), whole.Histogram().TotalFrequency())

	cfg.Workers = 3
	tiled, err := NewAccumulator(cfg)
	require.NoError(t, err)
	require.NoError(t, Stream(context.Background(), tiled, src, StreamOptions{TileWidth: 4, TileHeight: 2}))
	assert.True(t, whole.Histogram().Equal(tiled.Histogram()))
}

func TestBinning_ClampAndClip(t *testing.T) {
	r := image.Rect(0, 0, 5, 1)
	b := raster.NewBand(r)
	for x, v := range []float64{-10, 0, 50, 100, 250} {
		b.Set(x, 0, v)
	}
	src, err := raster.NewStack(b)
	require.NoError(t, err)

	bands := []BandSpec{{Bins: 4, Min: 0, Max: 100}}
	clamp, err := NewAccumulator(Config{Bands: bands})
	require.NoError(t, err)
	require.NoError(t, Stream(context.Background(), clamp, src, StreamOptions{}))
	h := clamp.Histogram()
	assert.Equal(t, uint64(2), h.Frequency(0))
	assert.Equal(t, uint64(1), h.Frequency(2))
	assert.Equal(t, uint64(2), h.Frequency(3))

	clip, err := NewAccumulator(Config{Bands: bands, ClipOutOfRange: true})
	require.NoError(t, err)
	require.NoError(t, Stream(context.Background(), clip, src, StreamOptions{}))
	h = clip.Histogram()
	assert.Equal(t, uint64(3), h.TotalFrequency())
	assert.Equal(t, uint64(1), h.Frequency(3), "max itself stays in the last bin")
}

func TestBinning_NaNDropsPixel(t *testing.T) {
	b := raster.NewBand(image.Rect(0, 0, 3, 1))
	b.Set(1, 0, math.NaN())
	src, err := raster.NewStack(b)
	require.NoError(t, err)

	acc, err := NewAccumulator(Config{Bands: []BandSpec{{Bins: 1, Min: 0, Max: 1}}})
	require.NoError(t, err)
	require.NoError(t, Stream(context.Background(), acc, src, StreamOptions{}))
	assert.Equal(t, uint64(2), acc.Histogram().TotalFrequency())
}

func TestStream_Cancelled(t *testing.T) {
	src := scene(t, image.Rect(0, 0, 10, 10))
	acc, err := NewAccumulator(sceneConfig(2))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = Stream(ctx, acc, src, StreamOptions{TileHeight: 1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, acc.Histogram().TotalFrequency())
}

func TestHistogram_Accessors(t *testing.T) {
	h := New([]BandSpec{{Bins: 10, Min: 0, Max: 100}, {Bins: 2, Min: 0, Max: 1}})

	assert.Equal(t, 5.0, h.BinCenter(0, 0))
	assert.Equal(t, 95.0, h.BinCenter(0, 9))
	assert.Equal(t, 0.75, h.BinCenter(1, 1))
	lo, hi := h.Bucket(0, 3)
	assert.Equal(t, 30.0, lo)
	assert.Equal(t, 40.0, hi)
	assert.Equal(t, []float64{25, 0.25}, h.MeasurementVector(2, 0))

	assert.Equal(t, 13, h.Index(3, 1))
	assert.Equal(t, -1, h.Index(10, 0))
	assert.Equal(t, -1, h.Index(1))
	assert.Zero(t, h.Frequency(-1, 0))
}

func TestHistogram_MergeAndClone(t *testing.T) {
	bands := []BandSpec{{Bins: 3, Min: 0, Max: 3}}
	a, b := New(bands), New(bands)
	a.counts[0], a.counts[2] = 1, 4
	b.counts[1], b.counts[2] = 2, 1

	ab, ba := a.Clone(), b.Clone()
	require.NoError(t, ab.Merge(b))
	require.NoError(t, ba.Merge(a))
	assert.True(t, ab.Equal(ba))
	assert.Equal(t, uint64(8), ab.TotalFrequency())
	assert.Equal(t, uint64(5), a.TotalFrequency(), "Clone must not alias")

	other := New([]BandSpec{{Bins: 4, Min: 0, Max: 3}})
	assert.ErrorIs(t, a.Merge(other), ErrShapeMismatch)
	assert.False(t, a.Equal(other))
}

func TestCountNbPixels(t *testing.T) {
	b := raster.NewBand(image.Rect(0, 0, 8, 1))
	for x, v := range []float64{-5, 0, 10, 49, 50, 75, 100, 101} {
		b.Set(x, 0, v)
	}
	src, err := raster.NewStack(b)
	require.NoError(t, err)

	n, err := CountNbPixels(context.Background(), src, 0, 100, 2, StreamOptions{TileWidth: 3})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	_, err = CountNbPixels(context.Background(), src, 10, 10, 1, StreamOptions{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
