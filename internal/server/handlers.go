package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/tooltip-ocr/internal/detection"
	"github.com/ironsheep/tooltip-ocr/internal/imaging"
	"github.com/ironsheep/tooltip-ocr/internal/ocr"
	"github.com/ironsheep/tooltip-ocr/internal/parser"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "tooltip_parse").
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
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Warn("tool failed", "tool", params.Name, "error", err)
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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "tooltip_parse":
		return s.handleTooltipParse(args)
	case "tooltip_region":
		return s.handleTooltipRegion(args)
	case "tooltip_ocr":
		return s.handleTooltipOCR(args)
	case "tooltip_annotate":
		return s.handleTooltipAnnotate(args)
	case "tooltip_clean_text":
		return s.handleTooltipCleanText(args)
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
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

type pathArgs struct {
	Path string `json:"path"`
}

func decodePathArgs(args json.RawMessage) (pathArgs, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return a, err
	}
	if a.Path == "" {
		return a, errors.New("path is required")
	}
	return a, nil
}

func (s *Server) handleTooltipParse(args json.RawMessage) (interface{}, error) {
	a, err := decodePathArgs(args)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	res, err := s.pipeline.ProcessImage(img)
	if err != nil {
		return nil, err
	}
	return res.Record, nil
}

// RegionResult describes where the pipeline looks for the tooltip.
type RegionResult struct {
	ImageWidth   int              `json:"image_width"`
	ImageHeight  int              `json:"image_height"`
	Region       detection.Region `json:"region"`
	SeparatorY   int              `json:"separator_y"`
	HasSeparator bool             `json:"has_separator"`
}

func (s *Server) handleTooltipRegion(args json.RawMessage) (interface{}, error) {
	a, err := decodePathArgs(args)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	region, crop, err := s.pipeline.Region(img)
	if err != nil {
		return nil, err
	}
	sepY, ok := s.pipeline.Separator(crop)
	return RegionResult{
		ImageWidth:   img.Bounds().Dx(),
		ImageHeight:  img.Bounds().Dy(),
		Region:       region,
		SeparatorY:   sepY,
		HasSeparator: ok,
	}, nil
}

// OCRResult lists the recognized fragments and what the classifier made of
// each one.
type OCRResult struct {
	Scale     int                     `json:"scale"`
	Fragments []ocr.AnnotatedFragment `json:"fragments"`
	Decisions []parser.Decision       `json:"decisions"`
}

func (s *Server) handleTooltipOCR(args json.RawMessage) (interface{}, error) {
	a, err := decodePathArgs(args)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	res, err := s.pipeline.ProcessImage(img)
	if err != nil {
		return nil, err
	}
	classifier := s.pipeline.Classifier()
	return OCRResult{
		Scale:     classifier.Options().Scale,
		Fragments: res.Fragments,
		Decisions: classifier.Explain(res.Fragments),
	}, nil
}

// AnnotateResult is the debug overlay of one screenshot.
type AnnotateResult struct {
	*imaging.EncodedImage
	Record parser.ItemRecord `json:"record"`
}

func (s *Server) handleTooltipAnnotate(args json.RawMessage) (interface{}, error) {
	a, err := decodePathArgs(args)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	overlay, res, err := s.pipeline.Annotate(img)
	if err != nil {
		return nil, err
	}
	enc, err := imaging.EncodePNG(overlay)
	if err != nil {
		return nil, err
	}
	return AnnotateResult{EncodedImage: enc, Record: res.Record}, nil
}

type cleanTextArgs struct {
	Text string `json:"text"`
}

func (s *Server) handleTooltipCleanText(args json.RawMessage) (interface{}, error) {
	var a cleanTextArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return map[string]string{
		"raw":     a.Text,
		"cleaned": parser.CleanText(a.Text),
	}, nil
}
