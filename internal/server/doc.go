// Package server implements the MCP (Model Context Protocol) server for the
// snow-line tools.
//
// This package provides a JSON-RPC 2.0 server that exposes raster
// histograms, mask encoders and the snow-line search through the MCP
// protocol.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Rasters:
//   - raster_load: Load a raster and get metadata
//   - raster_minmax: Smallest and largest sample of a band
//   - raster_preview: Colour-mapped PNG rendering of a band
//
// Histograms:
//   - histogram_compute: Joint histogram of co-registered bands
//   - nb_pixels: Count pixels in the upper half of a value range
//
// Snow line:
//   - snowline_compute: Snow-line elevation from DEM, snow and cloud rasters
//
// Masks:
//   - cloud_mask: Bit test of a classification raster
//   - snow_mask: Bit combination of flag rasters
//
// # Raster Caching
//
// Decoded bands are cached by path and signedness and reused across tool
// calls for the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.New(cfg)
//	if err := srv.Run(ctx); err != nil {
//	    return err
//	}
package server
