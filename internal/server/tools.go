package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the screenshot file",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "tooltip_parse",
			Description: "Read the item tooltip in a game screenshot and return its name, equipment type, base stat and affixes.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathSchema(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "tooltip_region",
			Description: "Return the tooltip rectangle used for a screenshot and the row of the separator line inside it, if one was found.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathSchema(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "tooltip_ocr",
			Description: "Return the raw text fragments recognized in the tooltip with their boxes, confidence, text color and bullet flag, plus how each one was classified.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathSchema(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "tooltip_annotate",
			Description: "Draw the recognized fragment boxes and the separator row onto the upscaled tooltip crop and return it as a base64 PNG. Boxes are green when kept, red when excluded by a rule, orange for flavor text and gray otherwise.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathSchema(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "tooltip_clean_text",
			Description: "Apply the OCR artifact cleanup used on tooltip lines (bullets, brackets, fullwidth percent, whitespace) to a string.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Raw recognized text",
					},
				},
				"required": []string{"text"},
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
