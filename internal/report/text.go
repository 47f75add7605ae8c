// Package report writes elevation/snow/cloud histograms for inspection.
//
// The text report is the line-oriented format consumed by downstream
// tooling; WritePlot and WriteChart render the same rows for people.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ironsheep/snowline-tools-mcp/internal/histogram"
)

// ErrNotSnowHistogram is returned for histograms that are not shaped
// (altitude bins, 2 snow bins, 2 cloud bins).
var ErrNotSnowHistogram = errors.New("histogram is not an elevation x snow x cloud histogram")

// Header is the column line of the text report.
const Header = "z_center,tot_z,fcloud_z,fsnow_z,fnosnow_z"

// Row summarises one altitude bin.
type Row struct {
	// ZCenter is the bin-centre elevation truncated to an integer.
	ZCenter int `json:"z_center"`

	// Total is the number of pixels in the bin.
	Total uint64 `json:"tot_z"`

	// Cloud counts cloudy pixels, snow or not.
	Cloud uint64 `json:"fcloud_z"`

	// Snow counts snowy pixels, cloudy or not.
	Snow uint64 `json:"fsnow_z"`

	// NoSnow counts clear pixels without snow.
	NoSnow uint64 `json:"fnosnow_z"`
}

// Rows extracts one Row per altitude bin of h.
func Rows(h *histogram.Histogram) ([]Row, error) {
	if h.Dimensions() != 3 || h.Size(1) != 2 || h.Size(2) != 2 {
		return nil, fmt.Errorf("%w: sizes %v", ErrNotSnowHistogram, h.Sizes())
	}

	rows := make([]Row, h.Size(0))
	for i := range rows {
		clear0, snow0 := h.Frequency(i, 0, 0), h.Frequency(i, 1, 0)
		clear1, snow1 := h.Frequency(i, 0, 1), h.Frequency(i, 1, 1)
		rows[i] = Row{
			ZCenter: int(h.BinCenter(0, i)),
			Total:   clear0 + snow0 + clear1 + snow1,
			Cloud:   clear1 + snow1,
			Snow:    snow0 + snow1,
			NoSnow:  clear0,
		}
	}
	return rows, nil
}

// Write emits the text report of h to w.
func Write(w io.Writer, h *histogram.Histogram) error {
	rows, err := Rows(h)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Number of bins=%d-Total frequency=%d-Dimension sizes=%s\n",
		h.Len(), h.TotalFrequency(), formatSizes(h.Sizes()))
	fmt.Fprintln(bw, Header)
	for _, r := range rows {
		fmt.Fprintf(bw, "%d,%d,%d,%d,%d\n", r.ZCenter, r.Total, r.Cloud, r.Snow, r.NoSnow)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// WriteFile writes the text report of h to path, replacing any existing file.
func WriteFile(path string, h *histogram.Histogram) error {
	// Validate before truncating an existing report.
	if _, err := Rows(h); err != nil {
		return err
	}
	return writeFile(path, func(w io.Writer) error { return Write(w, h) })
}

// WriteEmptyFile writes the report of a scene whose elevation range yields
// no altitude bins.
func WriteEmptyFile(path string) error {
	return writeFile(path, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, "Number of bins=0")
		return err
	})
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	return nil
}

func formatSizes(sizes []int) string {
	parts := make([]string, len(sizes))
	for i, s := range sizes {
		parts[i] = fmt.Sprint(s)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
