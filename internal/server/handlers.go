package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ironsheep/plate-analyzer/internal/imaging"
	"github.com/ironsheep/plate-analyzer/internal/plate"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "plate_analyze", "plate_update").
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
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Pick Image Analysis
	case "plate_analyze":
		return s.handlePlateAnalyze(args)
	case "plate_convert_jpeg":
		return s.handlePlateConvertJPEG(args)

	// Plate Sessions
	case "plate_register":
		return s.handlePlateRegister(args)
	case "plate_update":
		return s.handlePlateUpdate(ctx, args)
	case "plate_state":
		return s.handlePlateState(args)

	// Identify Colors
	case "plate_identify_color":
		return s.handlePlateIdentifyColor(args)
	case "plate_sample_pixel":
		return s.handlePlateSamplePixel(args)

	// Visualisation
	case "plate_crop_object":
		return s.handlePlateCropObject(args)
	case "plate_overlay":
		return s.handlePlateOverlay(args)

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

// === Pick Image Analysis Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handlePlateAnalyze(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.ExtractBoundingBoxes(data)
}

type convertJPEGArgs struct {
	Path    string `json:"path"`
	Quality int    `json:"quality"`
}

// JPEGResult is the output of plate_convert_jpeg.
type JPEGResult struct {
	Quality     int    `json:"quality"`
	SizeBytes   int    `json:"size_bytes"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

func (s *Server) handlePlateConvertJPEG(args json.RawMessage) (interface{}, error) {
	var a convertJPEGArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Quality == 0 {
		a.Quality = s.quality
	}
	if a.Quality < 1 || a.Quality > 100 {
		return nil, fmt.Errorf("quality must be between 1 and 100, got %d", a.Quality)
	}

	data, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	out, err := imaging.ConvertToJPEG(data, a.Quality)
	if err != nil {
		return nil, err
	}

	return &JPEGResult{
		Quality:     a.Quality,
		SizeBytes:   len(out),
		ImageBase64: base64.StdEncoding.EncodeToString(out),
		MimeType:    "image/jpeg",
	}, nil
}

// === Plate Session Handlers ===

// PlateStatus describes one plate session.
type PlateStatus struct {
	Serial       string      `json:"serial"`
	ResolveState string      `json:"resolve_state"`
	State        plate.State `json:"state"`

	// ImageUpdated and ImageVersion describe the JPEG slot; both are omitted
	// before the first image is published.
	ImageUpdated *time.Time `json:"image_updated,omitempty"`
	ImageVersion uint64     `json:"image_version,omitempty"`
}

func plateStatus(sess *plate.Session) *PlateStatus {
	st := &PlateStatus{
		Serial:       sess.Serial(),
		ResolveState: sess.ResolveState().String(),
		State:        sess.State(),
	}
	if snap, ok := sess.Slot().Load(); ok {
		updated := snap.Updated
		st.ImageUpdated = &updated
		st.ImageVersion = snap.Version
	}
	return st
}

type registerArgs struct {
	Serial    string `json:"serial"`
	PickImage string `json:"pick_image"`
}

func (s *Server) handlePlateRegister(args json.RawMessage) (interface{}, error) {
	var a registerArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := s.plates.RegisterPickImage(a.Serial, a.PickImage); err != nil {
		return nil, err
	}
	sess, _ := s.plates.Lookup(a.Serial)
	return plateStatus(sess), nil
}

type updateArgs struct {
	Serial  string            `json:"serial"`
	Objects map[string]string `json:"objects"`
}

func (s *Server) handlePlateUpdate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a updateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	res, err := s.plates.Update(ctx, a.Serial, a.Objects)
	if err != nil {
		return nil, err
	}
	return res, nil
}

type serialArgs struct {
	Serial string `json:"serial"`
}

func (s *Server) handlePlateState(args json.RawMessage) (interface{}, error) {
	var a serialArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sess, ok := s.plates.Lookup(a.Serial)
	if !ok {
		return nil, fmt.Errorf("%w: %s", plate.ErrUnknownPlate, a.Serial)
	}
	return plateStatus(sess), nil
}

// === Identify Color Handlers ===

type identifyColorArgs struct {
	ID string `json:"id"`
}

func (s *Server) handlePlateIdentifyColor(args json.RawMessage) (interface{}, error) {
	var a identifyColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	id, err := imaging.ParseIdentifyID(a.ID)
	if err != nil {
		return nil, err
	}
	return imaging.IdentifyColor(id)
}

type samplePixelArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handlePlateSamplePixel(args json.RawMessage) (interface{}, error) {
	var a samplePixelArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.LoadImage(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(img, a.X, a.Y)
}

// === Visualisation Handlers ===

type cropObjectArgs struct {
	Path    string  `json:"path"`
	ID      string  `json:"id"`
	Padding int     `json:"padding"`
	Scale   float64 `json:"scale"`
}

func (s *Server) handlePlateCropObject(args json.RawMessage) (interface{}, error) {
	var a cropObjectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	data, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	result, err := imaging.ExtractBoundingBoxes(data)
	if err != nil {
		return nil, err
	}
	box, ok := result.BBoxes[a.ID]
	if !ok {
		return nil, fmt.Errorf("object %s not found in pick image", a.ID)
	}

	img, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}
	return imaging.CropObject(img, box, a.Padding, a.Scale)
}

type overlayArgs struct {
	Path  string   `json:"path"`
	Color string   `json:"color"`
	Dim   *float64 `json:"dim"`
}

func (s *Server) handlePlateOverlay(args json.RawMessage) (interface{}, error) {
	var a overlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	dim := 0.5
	if a.Dim != nil {
		dim = *a.Dim
	}

	data, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	result, err := imaging.ExtractBoundingBoxes(data)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}
	return imaging.DrawBoundingBoxes(img, result.BBoxes, a.Color, dim)
}
