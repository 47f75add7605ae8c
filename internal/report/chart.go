package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteChart renders rows as a stacked HTML bar chart of clear, snow and
// cloud pixel counts per altitude bin.
func WriteChart(w io.Writer, title string, rows []Row) error {
	x := make([]string, len(rows))
	noSnow := make([]opts.BarData, len(rows))
	snow := make([]opts.BarData, len(rows))
	cloud := make([]opts.BarData, len(rows))
	for i, r := range rows {
		x[i] = fmt.Sprintf("%d", r.ZCenter)
		noSnow[i] = opts.BarData{Value: r.NoSnow}
		snow[i] = opts.BarData{Value: r.Total - r.Cloud - r.NoSnow}
		cloud[i] = opts.BarData{Value: r.Cloud}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("bins=%d", len(rows))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Elevation (m)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Pixels"}),
	)
	bar.SetXAxis(x).
		AddSeries("clear, no snow", noSnow, charts.WithBarChartOpts(opts.BarChart{Stack: "pixels"})).
		AddSeries("clear, snow", snow, charts.WithBarChartOpts(opts.BarChart{Stack: "pixels"})).
		AddSeries("cloud", cloud, charts.WithBarChartOpts(opts.BarChart{Stack: "pixels"}))

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
