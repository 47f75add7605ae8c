// Package snowline locates the elevation at which a scene turns from mostly
// snow free to mostly snow covered.
//
// The search builds an elevation x snow x cloud histogram of the scene and
// scans its altitude bins for the first one that is clear enough to judge
// and snowy enough to qualify.
package snowline

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/snowline-tools-mcp/internal/histogram"
	"github.com/ironsheep/snowline-tools-mcp/internal/logctx"
	"github.com/ironsheep/snowline-tools-mcp/internal/raster"
	"github.com/ironsheep/snowline-tools-mcp/internal/report"
)

// NotFound is the elevation reported when no altitude bin qualifies.
const NotFound = -1000

// ErrInvalidParams is returned by Search for an empty plausibility range.
var ErrInvalidParams = errors.New("invalid snow line parameters")

// Params controls the search. Start from DefaultParams; the zero value has
// an empty plausibility range.
type Params struct {
	// Dz is the altitude bin width in metres.
	Dz int `json:"dz"`

	// FSnowLim is the snow fraction of clear pixels a bin must exceed.
	FSnowLim float64 `json:"fsnow_lim"`

	// FClearLim is the cloud-free fraction a bin must exceed.
	FClearLim float64 `json:"fclear_lim"`

	// Reverse scans from the highest bin down.
	Reverse bool `json:"reverse"`

	// Offset shifts the qualifying bin before its elevation is reported.
	Offset int `json:"offset"`

	// CenterOffset is added to the reported bin-centre elevation.
	CenterOffset int `json:"center_offset"`

	// ReportPath, when set, receives the text histogram report.
	ReportPath string `json:"report_path,omitempty"`

	// Bins whose centre lies outside [MinPlausible, MaxPlausible] never
	// qualify.
	MinPlausible float64 `json:"min_plausible"`
	MaxPlausible float64 `json:"max_plausible"`
}

// DefaultParams returns the parameters of a forward search with 100 m bins.
func DefaultParams() Params {
	return Params{
		Dz:           100,
		FSnowLim:     0.1,
		FClearLim:    0.1,
		MinPlausible: -413,
		MaxPlausible: 8850,
	}
}

// Options controls how the scene histogram is computed.
type Options struct {
	Workers int
	Stream  histogram.StreamOptions
}

// Result is the outcome of a search.
type Result struct {
	// Elevation is the snow line in metres. Valid only when Found.
	Elevation int `json:"elevation"`

	// Found reports whether an altitude bin qualified.
	Found bool `json:"found"`

	// Bin is the index of the qualifying bin, before Offset is applied.
	Bin int `json:"bin"`

	// Bins is the number of altitude bins searched.
	Bins int `json:"bins"`

	// Histogram is the scene histogram, nil when the elevation range
	// produced no bins.
	Histogram *histogram.Histogram `json:"-"`
}

// Value returns Elevation, or NotFound when no bin qualified.
func (r Result) Value() int {
	if !r.Found {
		return NotFound
	}
	return r.Elevation
}

// AltitudeBins returns floor((zmax-zmin)/dz), or 0 when dz is 0 or the
// quotient is below one.
func AltitudeBins(zmin, zmax float64, dz int) int {
	if dz == 0 {
		return 0
	}
	n := math.Floor((zmax - zmin) / float64(dz))
	if n < 1 || math.IsNaN(n) {
		return 0
	}
	return int(n)
}

// Search computes the histogram of src, whose bands are elevation, snow flag
// and cloud flag in that order, over [zmin, zmax] and scans it.
func Search(ctx context.Context, src histogram.Source, zmin, zmax float64, p Params, opts Options) (Result, error) {
	ll := logctx.FromContext(ctx)

	if !(p.MinPlausible < p.MaxPlausible) {
		return Result{}, fmt.Errorf("%w: plausible elevations [%g, %g] are empty",
			ErrInvalidParams, p.MinPlausible, p.MaxPlausible)
	}

	bins := AltitudeBins(zmin, zmax, p.Dz)
	if bins < 1 {
		ll.Info("Elevation range too small for one altitude bin", "min", zmin, "max", zmax, "dz", p.Dz)
		if p.ReportPath != "" {
			if err := report.WriteEmptyFile(p.ReportPath); err != nil {
				return Result{}, err
			}
		}
		return Result{}, nil
	}

	acc, err := histogram.NewAccumulator(histogram.Config{
		Bands: []histogram.BandSpec{
			{Bins: bins, Min: zmin, Max: zmax},
			{Bins: 2, Min: 0, Max: 1},
			{Bins: 2, Min: 0, Max: 1},
		},
		Workers: opts.Workers,
	})
	if err != nil {
		return Result{}, fmt.Errorf("snow line histogram: %w", err)
	}
	if err := histogram.Stream(ctx, acc, src, opts.Stream); err != nil {
		return Result{}, err
	}
	h := acc.Histogram().Clone()

	if p.ReportPath != "" {
		if err := report.WriteFile(p.ReportPath, h); err != nil {
			return Result{}, err
		}
	}

	res := Scan(h, p)
	if res.Found {
		ll.Info("Found snow fraction candidate",
			"bin", res.Bin,
			"bin_center", h.BinCenter(0, res.Bin),
			"elevation", res.Elevation)
	} else {
		ll.Info("No altitude bin qualified", "bins", bins)
	}
	res.Histogram = h
	return res, nil
}

// Scan walks the altitude bins of an elevation x snow x cloud histogram and
// returns the first qualifying one. A bin qualifies when its cloud-free
// fraction exceeds FClearLim and the snow fraction of its cloud-free pixels
// exceeds FSnowLim.
func Scan(h *histogram.Histogram, p Params) Result {
	n := h.Size(0)
	res := Result{Bins: n}

	for k := 0; k < n; k++ {
		i := k
		if p.Reverse {
			i = n - 1 - k
		}
		if !qualifies(h, i, p) {
			continue
		}

		target := min(max(i+p.Offset, 0), n-1)
		res.Found = true
		res.Bin = i
		res.Elevation = int(math.Floor(h.BinCenter(0, target) + float64(p.CenterOffset)))
		return res
	}
	return res
}

func qualifies(h *histogram.Histogram, i int, p Params) bool {
	center := h.BinCenter(0, i)
	if center < p.MinPlausible || center > p.MaxPlausible {
		return false
	}

	total := h.Frequency(i, 0, 0) + h.Frequency(i, 1, 0) + h.Frequency(i, 0, 1) + h.Frequency(i, 1, 1)
	cloudFree := h.Frequency(i, 0, 0) + h.Frequency(i, 1, 0)
	if total == 0 || cloudFree == 0 {
		return false
	}

	clearFraction := float64(cloudFree) / float64(total)
	snowFraction := float64(h.Frequency(i, 1, 0)) / float64(cloudFree)
	return clearFraction > p.FClearLim && snowFraction > p.FSnowLim
}

// Compute loads the elevation, snow and cloud rasters, derives the
// elevation range from the DEM and runs Search. The DEM is read as signed
// 16-bit samples.
func Compute(ctx context.Context, cache *raster.Cache, demPath, snowPath, cloudPath string, p Params, opts Options) (Result, error) {
	dem, err := cache.LoadBand(demPath, true)
	if err != nil {
		return Result{}, err
	}
	zmin, zmax, err := raster.MinMax(dem)
	if err != nil {
		return Result{}, fmt.Errorf("elevation range of %s: %w", demPath, err)
	}

	stack, err := cache.LoadStack(true, demPath, snowPath, cloudPath)
	if err != nil {
		return Result{}, err
	}

	logctx.FromContext(ctx).Debug("Elevation range", "min", zmin, "max", zmax)
	return Search(ctx, stack, zmin, zmax, p, opts)
}
