package server

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ironsheep/snowline-tools-mcp/internal/histogram"
	"github.com/ironsheep/snowline-tools-mcp/internal/mask"
	"github.com/ironsheep/snowline-tools-mcp/internal/raster"
	"github.com/ironsheep/snowline-tools-mcp/internal/report"
	"github.com/ironsheep/snowline-tools-mcp/internal/snowline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "raster_load", "snowline_compute").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads rasters from cache as needed
//  4. Calls the appropriate raster/histogram/snowline/mask function
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Rasters
	case "raster_load":
		return s.handleRasterLoad(args)
	case "raster_minmax":
		return s.handleRasterMinMax(args)
	case "raster_preview":
		return s.handleRasterPreview(args)

	// Histograms
	case "histogram_compute":
		return s.handleHistogramCompute(ctx, args)
	case "nb_pixels":
		return s.handleNbPixels(ctx, args)

	// Snow line
	case "snowline_compute":
		return s.handleSnowlineCompute(ctx, args)

	// Masks
	case "cloud_mask":
		return s.handleCloudMask(args)
	case "snow_mask":
		return s.handleSnowMask(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func (s *Server) streamOptions() histogram.StreamOptions {
	return histogram.StreamOptions{
		TileWidth:  s.cfg.Histogram.TileWidth,
		TileHeight: s.cfg.Histogram.TileHeight,
	}
}

// === Raster Handlers ===

type rasterArgs struct {
	Path   string `json:"path"`
	Signed bool   `json:"signed"`
}

func (s *Server) handleRasterLoad(args json.RawMessage) (interface{}, error) {
	var a rasterArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if _, err := s.cache.LoadBand(a.Path, a.Signed); err != nil {
		return nil, err
	}
	return raster.LoadInfo(a.Path)
}

type minMaxResult struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (s *Server) handleRasterMinMax(args json.RawMessage) (interface{}, error) {
	var a rasterArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	b, err := s.cache.LoadBand(a.Path, a.Signed)
	if err != nil {
		return nil, err
	}
	lo, hi, err := raster.MinMax(b)
	if err != nil {
		return nil, err
	}
	return &minMaxResult{Min: lo, Max: hi}, nil
}

type rasterPreviewArgs struct {
	Path   string  `json:"path"`
	Signed bool    `json:"signed"`
	Low    float64 `json:"low"`
	High   float64 `json:"high"`
	Scale  float64 `json:"scale"`
}

func (s *Server) handleRasterPreview(args json.RawMessage) (interface{}, error) {
	var a rasterPreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	b, err := s.cache.LoadBand(a.Path, a.Signed)
	if err != nil {
		return nil, err
	}
	return raster.Preview(b, a.Low, a.High, a.Scale)
}

// === Histogram Handlers ===

type histogramComputeArgs struct {
	Paths           []string             `json:"paths"`
	Signed          bool                 `json:"signed"`
	Bands           []histogram.BandSpec `json:"bands"`
	MaskPath        string               `json:"mask_path"`
	MaskValue       *float64             `json:"mask_value"`
	NoDataValue     *float64             `json:"nodata_value"`
	SubSamplingRate int                  `json:"sub_sampling_rate"`
}

type histogramResult struct {
	Sizes          []int       `json:"sizes"`
	TotalFrequency uint64      `json:"total_frequency"`
	Marginals      [][]uint64  `json:"marginals"`
	Centers        [][]float64 `json:"centers"`
}

func (s *Server) handleHistogramCompute(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a histogramComputeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) != len(a.Bands) {
		return nil, fmt.Errorf("got %d rasters but %d band specs", len(a.Paths), len(a.Bands))
	}

	src, err := s.cache.LoadStack(a.Signed, a.Paths...)
	if err != nil {
		return nil, err
	}

	cfg := histogram.Config{
		Bands:           a.Bands,
		Workers:         s.cfg.Histogram.Workers,
		SubSamplingRate: a.SubSamplingRate,
	}
	if a.MaskPath != "" {
		m, err := s.cache.LoadBand(a.MaskPath, false)
		if err != nil {
			return nil, err
		}
		cfg.Mask = m
		cfg.MaskValue = a.MaskValue
		if cfg.MaskValue == nil {
			one := 1.0
			cfg.MaskValue = &one
		}
	}
	if a.NoDataValue != nil {
		cfg.NoDataEnabled = true
		cfg.NoDataValue = *a.NoDataValue
	}

	acc, err := histogram.NewAccumulator(cfg)
	if err != nil {
		return nil, err
	}
	if err := histogram.Stream(ctx, acc, src, s.streamOptions()); err != nil {
		return nil, err
	}

	h := acc.Histogram()
	res := &histogramResult{
		Sizes:          h.Sizes(),
		TotalFrequency: h.TotalFrequency(),
		Marginals:      make([][]uint64, h.Dimensions()),
		Centers:        make([][]float64, h.Dimensions()),
	}
	for d := 0; d < h.Dimensions(); d++ {
		m := h.Marginal(d)
		res.Marginals[d] = make([]uint64, m.Len())
		res.Centers[d] = make([]float64, m.Len())
		for i := range res.Marginals[d] {
			res.Marginals[d][i] = m.Frequency(i)
			res.Centers[d][i] = m.BinCenter(0, i)
		}
	}
	return res, nil
}

type nbPixelsArgs struct {
	Path  string  `json:"path"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

type nbPixelsResult struct {
	Count uint64 `json:"count"`
}

func (s *Server) handleNbPixels(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a nbPixelsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	src, err := s.cache.LoadStack(false, a.Path)
	if err != nil {
		return nil, err
	}
	n, err := histogram.CountNbPixels(ctx, src, a.Lower, a.Upper, s.cfg.Histogram.Workers, s.streamOptions())
	if err != nil {
		return nil, err
	}
	return &nbPixelsResult{Count: n}, nil
}

// === Snow Line Handlers ===

type snowlineComputeArgs struct {
	DEMPath      string   `json:"dem_path"`
	SnowPath     string   `json:"snow_path"`
	CloudPath    string   `json:"cloud_path"`
	Dz           *int     `json:"dz"`
	FSnowLim     *float64 `json:"fsnow_lim"`
	FClearLim    *float64 `json:"fclear_lim"`
	Reverse      bool     `json:"reverse"`
	Offset       int      `json:"offset"`
	CenterOffset int      `json:"center_offset"`
	ReportPath   string   `json:"report_path"`
	PlotPath     string   `json:"plot_path"`
	ChartPath    string   `json:"chart_path"`
}

type snowlineResult struct {
	Snowline int          `json:"snowline"`
	Found    bool         `json:"found"`
	Bin      int          `json:"bin"`
	Bins     int          `json:"bins"`
	Rows     []report.Row `json:"rows,omitempty"`
}

func (s *Server) handleSnowlineCompute(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a snowlineComputeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	p := snowline.DefaultParams()
	if a.Dz != nil {
		p.Dz = *a.Dz
	}
	if a.FSnowLim != nil {
		p.FSnowLim = *a.FSnowLim
	}
	if a.FClearLim != nil {
		p.FClearLim = *a.FClearLim
	}
	p.Reverse = a.Reverse
	p.Offset = a.Offset
	p.CenterOffset = a.CenterOffset
	p.ReportPath = a.ReportPath
	p.MinPlausible = s.cfg.Snowline.MinPlausible
	p.MaxPlausible = s.cfg.Snowline.MaxPlausible

	res, err := snowline.Compute(ctx, s.cache, a.DEMPath, a.SnowPath, a.CloudPath, p, snowline.Options{
		Workers: s.cfg.Histogram.Workers,
		Stream:  s.streamOptions(),
	})
	if err != nil {
		return nil, err
	}

	out := &snowlineResult{
		Snowline: res.Value(),
		Found:    res.Found,
		Bin:      res.Bin,
		Bins:     res.Bins,
	}
	if res.Histogram == nil {
		return out, nil
	}

	rows, err := report.Rows(res.Histogram)
	if err != nil {
		return nil, err
	}
	out.Rows = rows
	if a.PlotPath != "" {
		if err := report.WritePlot(a.PlotPath, rows); err != nil {
			return nil, err
		}
	}
	if a.ChartPath != "" {
		if err := writeChartFile(a.ChartPath, rows); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func writeChartFile(path string, rows []report.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart: %w", err)
	}
	if err := report.WriteChart(f, "Snow cover by elevation", rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// === Mask Handlers ===

type cloudMaskArgs struct {
	Path       string `json:"path"`
	Mask       uint16 `json:"mask"`
	OutputPath string `json:"output_path"`
}

type maskResult struct {
	OutputPath string `json:"output_path"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	NonZero    int    `json:"non_zero"`
}

func (s *Server) handleCloudMask(args json.RawMessage) (interface{}, error) {
	var a cloudMaskArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.OutputPath == "" {
		return nil, fmt.Errorf("output_path is required")
	}
	b, err := s.cache.LoadBand(a.Path, false)
	if err != nil {
		return nil, err
	}
	return saveMask(a.OutputPath, mask.TestBand(b, mask.NewBitTest(a.Mask)))
}

type snowMaskArgs struct {
	Paths      []string `json:"paths"`
	OutputPath string   `json:"output_path"`
}

func (s *Server) handleSnowMask(args json.RawMessage) (interface{}, error) {
	var a snowMaskArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.OutputPath == "" {
		return nil, fmt.Errorf("output_path is required")
	}
	bands := make([]*raster.Band, len(a.Paths))
	for i, p := range a.Paths {
		b, err := s.cache.LoadBand(p, false)
		if err != nil {
			return nil, err
		}
		bands[i] = b
	}
	out, err := mask.CombineBands(bands...)
	if err != nil {
		return nil, err
	}
	return saveMask(a.OutputPath, out)
}

func saveMask(path string, b *raster.Band) (*maskResult, error) {
	if err := raster.SaveBand(path, b); err != nil {
		return nil, err
	}
	nonZero := 0
	for _, v := range b.Pix {
		if v != 0 {
			nonZero++
		}
	}
	return &maskResult{
		OutputPath: path,
		Width:      b.Rect.Dx(),
		Height:     b.Rect.Dy(),
		NonZero:    nonZero,
	}, nil
}
