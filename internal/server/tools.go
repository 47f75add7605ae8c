package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

var signedProperty = map[string]interface{}{
	"type":        "boolean",
	"description": "Read 16-bit samples as signed integers (elevation models). Default false",
	"default":     false,
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Rasters
		{
			Name:        "raster_load",
			Description: "Load a raster file and return its dimensions, format and sample depth. The decoded band is cached for later calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty("Absolute path to the raster file"),
					"signed": signedProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "raster_minmax",
			Description: "Return the smallest and largest sample of a single-band raster.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty("Absolute path to the raster file"),
					"signed": signedProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "raster_preview",
			Description: "Render a raster through a terrain colour ramp and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty("Absolute path to the raster file"),
					"signed": signedProperty,
					"low": map[string]interface{}{
						"type":        "number",
						"description": "Value mapped to the low end of the ramp. When high <= low the raster's own range is used",
					},
					"high": map[string]interface{}{
						"type":        "number",
						"description": "Value mapped to the high end of the ramp",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path"},
			},
		},

		// Histograms
		{
			Name:        "histogram_compute",
			Description: "Compute the joint histogram of co-registered rasters, one band per raster, and return its per-band marginals.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths of the rasters, in band order",
					},
					"signed": map[string]interface{}{
						"type":        "boolean",
						"description": "Read the first raster's 16-bit samples as signed. Default false",
						"default":     false,
					},
					"bands": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"bins": map[string]interface{}{"type": "integer", "minimum": 1},
								"min":  map[string]interface{}{"type": "number"},
								"max":  map[string]interface{}{"type": "number"},
							},
							"required": []string{"bins", "min", "max"},
						},
						"description": "Binning of each band",
					},
					"mask_path": pathProperty("Optional mask raster; only pixels equal to mask_value are counted"),
					"mask_value": map[string]interface{}{
						"type":        "number",
						"description": "Accepted mask value. Default 1",
						"default":     1,
					},
					"nodata_value": map[string]interface{}{
						"type":        "number",
						"description": "Optional no-data value of the first band; matching pixels are skipped",
					},
					"sub_sampling_rate": map[string]interface{}{
						"type":        "integer",
						"description": "Only count every n-th pixel along both axes. Default 1",
						"default":     1,
						"minimum":     1,
					},
				},
				"required": []string{"paths", "bands"},
			},
		},
		{
			Name:        "nb_pixels",
			Description: "Count the pixels of a raster whose value lies in the upper half of [lower, upper]. Values outside the range are ignored.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":  pathProperty("Absolute path to the raster file"),
					"lower": map[string]interface{}{"type": "number", "description": "Lower bound of the range"},
					"upper": map[string]interface{}{"type": "number", "description": "Upper bound of the range"},
				},
				"required": []string{"path", "lower", "upper"},
			},
		},

		// Snow line
		{
			Name:        "snowline_compute",
			Description: "Find the snow-line elevation of a scene from its elevation model, snow mask and cloud mask. Returns -1000 when no altitude bin qualifies.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dem_path":   pathProperty("Absolute path to the elevation model (signed 16-bit)"),
					"snow_path":  pathProperty("Absolute path to the snow mask (0 or 1)"),
					"cloud_path": pathProperty("Absolute path to the cloud mask (0 or 1)"),
					"dz": map[string]interface{}{
						"type":        "integer",
						"description": "Altitude bin width in metres. Default 100",
						"default":     100,
					},
					"fsnow_lim": map[string]interface{}{
						"type":        "number",
						"description": "Snow fraction of cloud-free pixels a bin must exceed. Default 0.1",
						"default":     0.1,
					},
					"fclear_lim": map[string]interface{}{
						"type":        "number",
						"description": "Cloud-free fraction a bin must exceed. Default 0.1",
						"default":     0.1,
					},
					"reverse": map[string]interface{}{
						"type":        "boolean",
						"description": "Scan from the highest bin down. Default false",
						"default":     false,
					},
					"offset": map[string]interface{}{
						"type":        "integer",
						"description": "Bins to shift the qualifying bin by. Default 0",
						"default":     0,
					},
					"center_offset": map[string]interface{}{
						"type":        "integer",
						"description": "Metres added to the reported bin centre. Default 0",
						"default":     0,
					},
					"report_path": pathProperty("Optional path for the text histogram report"),
					"plot_path":   pathProperty("Optional path for a PNG plot of snow and cloud-free fractions"),
					"chart_path":  pathProperty("Optional path for an HTML bar chart of per-bin counts"),
				},
				"required": []string{"dem_path", "snow_path", "cloud_path"},
			},
		},

		// Masks
		{
			Name:        "cloud_mask",
			Description: "Write a 0/1 mask of the pixels whose classification code contains every bit of mask.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the classification raster"),
					"mask": map[string]interface{}{
						"type":        "integer",
						"description": "Bits to test",
						"minimum":     0,
						"maximum":     65535,
					},
					"output_path": pathProperty("Absolute path of the mask to write"),
				},
				"required": []string{"path", "mask", "output_path"},
			},
		},
		{
			Name:        "snow_mask",
			Description: "Write a code raster whose bit i is set where input raster i is non-zero. At most 8 inputs.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"maxItems":    8,
						"description": "Absolute paths of the flag rasters, lowest bit first",
					},
					"output_path": pathProperty("Absolute path of the code raster to write"),
				},
				"required": []string{"paths", "output_path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
