package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// WritePlot renders the per-bin snow fraction and cloud-free fraction
// against elevation. The image format follows the extension of path.
// Bins without pixels are skipped.
func WritePlot(path string, rows []Row) error {
	if len(rows) == 0 {
		return fmt.Errorf("no rows to plot")
	}

	p := plot.New()
	p.Title.Text = "Snow cover by elevation"
	p.X.Label.Text = "Elevation (m)"
	p.Y.Label.Text = "Fraction"
	p.Y.Min, p.Y.Max = 0, 1

	snowPts := make(plotter.XYs, 0, len(rows))
	clearPts := make(plotter.XYs, 0, len(rows))
	for _, r := range rows {
		if r.Total == 0 {
			continue
		}
		z := float64(r.ZCenter)
		clearCount := r.Total - r.Cloud
		clearPts = append(clearPts, plotter.XY{X: z, Y: float64(clearCount) / float64(r.Total)})
		if clearCount > 0 {
			snowClear := clearCount - r.NoSnow
			snowPts = append(snowPts, plotter.XY{X: z, Y: float64(snowClear) / float64(clearCount)})
		}
	}

	for i, s := range []struct {
		name string
		pts  plotter.XYs
	}{
		{"snow (clear pixels)", snowPts},
		{"cloud free", clearPts},
	} {
		if len(s.pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(s.pts)
		if err != nil {
			return fmt.Errorf("failed to build %s line: %w", s.name, err)
		}
		line.Width = vg.Points(1)
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	p.Legend.Top = true

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}
