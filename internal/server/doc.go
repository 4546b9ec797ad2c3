// Package server implements the MCP (Model Context Protocol) server and the
// HTTP image endpoint of the plate analyzer.
//
// # Protocol
//
// The MCP server communicates over stdio using JSON-RPC 2.0:
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
// Pick Image Analysis:
//   - plate_analyze: Per-object bounding boxes of a pick image
//   - plate_convert_jpeg: Flatten a pick image onto black and encode as JPEG
//
// Plate Sessions:
//   - plate_register: Register the pick image location of a printer
//   - plate_update: Deliver the printable objects and analyse the plate
//   - plate_state: Last published plate state
//
// Identify Colors:
//   - plate_identify_color: Color that encodes an identify id
//   - plate_sample_pixel: Identify id found at a pixel
//
// Visualisation:
//   - plate_crop_object: Crop one object by identify id
//   - plate_overlay: Draw all bounding boxes on the pick image
//
// # HTTP
//
// When an HTTP address is configured, HTTPHandler serves the JPEG published by
// each plate session at /plates/{serial}/image together with its Last-Modified
// time, so clients can poll cheaply with If-Modified-Since or If-None-Match.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A plate_update for a printer whose pick image is not registered yet is not
// an error: the result reports pending and the objects are processed once
// the image is registered.
package server
