package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the pick image file",
	}
}

func serialProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Printer serial number",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Pick Image Analysis
		{
			Name:        "plate_analyze",
			Description: "Extract per-object bounding boxes from a pick image. Every opaque or partially transparent pixel belongs to the object whose identify id is B<<16 | G<<8 | R. Boxes are inclusive [x1, y1, x2, y2].",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "plate_convert_jpeg",
			Description: "Convert a pick image to JPEG, compositing transparent areas onto black. Returns base64-encoded JPEG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"quality": map[string]interface{}{
						"type":        "integer",
						"description": "JPEG quality 1-100. Default is the server's configured quality (80)",
						"minimum":     1,
						"maximum":     100,
					},
				},
				"required": []string{"path"},
			},
		},

		// Plate Sessions
		{
			Name:        "plate_register",
			Description: "Register where the pick image of a printer lives (file path or http(s) URL). Resolves the printer's plate session once its objects are known.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"serial": serialProperty(),
					"pick_image": map[string]interface{}{
						"type":        "string",
						"description": "File path or http(s) URL of the pick image",
					},
				},
				"required": []string{"serial", "pick_image"},
			},
		},
		{
			Name:        "plate_update",
			Description: "Deliver the current printable objects of a printer (identify id -> name) and analyse its pick image. Returns the merged plate state, or pending if the pick image is not registered yet. An empty mapping clears the plate.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"serial": serialProperty(),
					"objects": map[string]interface{}{
						"type":                 "object",
						"description":          "Map of identify id (decimal string) to object name",
						"additionalProperties": map[string]interface{}{"type": "string"},
					},
				},
				"required": []string{"serial", "objects"},
			},
		},
		{
			Name:        "plate_state",
			Description: "Get the last published plate state of a printer, including the compact bbox_data string.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"serial": serialProperty(),
				},
				"required": []string{"serial"},
			},
		},

		// Identify Colors
		{
			Name:        "plate_identify_color",
			Description: "Get the color that encodes an identify id in pick images, as hex, RGB and HSL.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Identify id as a decimal string (0-16777215)",
					},
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "plate_sample_pixel",
			Description: "Get the color at a pixel of a pick image and the identify id it encodes. Fully transparent pixels belong to no object.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},

		// Visualisation
		{
			Name:        "plate_crop_object",
			Description: "Crop one object out of a pick image by identify id and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Identify id of the object",
					},
					"padding": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels added around the bounding box. Default 0",
						"default":     0,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 4.0 to enlarge small objects). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "id"},
			},
		},
		{
			Name:        "plate_overlay",
			Description: "Draw the bounding box and identify id of every object on a pick image. Returns base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Box color as hex (e.g., '#FF0000'). Default white",
						"default":     "#FFFFFF",
					},
					"dim": map[string]interface{}{
						"type":        "number",
						"description": "Darken the image by this amount in [0,1) before drawing. Default 0.5",
						"default":     0.5,
					},
				},
				"required": []string{"path"},
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
