package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ironsheep/tooltip-ocr/internal/ocr"
	"github.com/ironsheep/tooltip-ocr/internal/pipeline"
)

// fakeEngine returns a fixed set of fragments for every image.
type fakeEngine struct {
	frags []ocr.Fragment
	err   error
	calls int
}

func (f *fakeEngine) Recognize(image.Image) ([]ocr.Fragment, error) {
	f.calls++
	return f.frags, f.err
}

func fragmentAt(text string, centerY int, conf float64) ocr.Fragment {
	return ocr.Fragment{
		Polygon:    ocr.RectPolygon(image.Rect(20, centerY-10, 180, centerY+10)),
		Text:       text,
		Confidence: conf,
	}
}

// createScreenshotFile writes a dark 1300x900 PNG and returns its path.
func createScreenshotFile(t *testing.T) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 1300, 900))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{20, 20, 20, 255}), image.Point{}, draw.Src)

	path := filepath.Join(t.TempDir(), "screenshot.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func newServerWithEngine(engine ocr.Engine) *Server {
	opts := pipeline.DefaultOptions()
	opts.Adapter.Scale = 1
	return New(pipeline.New(engine, opts, nil), nil, "test")
}

// callTool runs a tools/call request and returns the decoded text payload.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) (map[string]interface{}, *MCPError) {
	t.Helper()

	params, _ := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: params})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content %v", content)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	return payload, nil
}

func TestHandleToolsCall_TooltipParse(t *testing.T) {
	engine := &fakeEngine{frags: []ocr.Fragment{
		fragmentAt("Item Name", 40, 0.9),
		fragmentAt("Type(Slot) Lv.10", 80, 0.9),
		fragmentAt("565 Max Energy Shield", 120, 0.9),
		fragmentAt("+8% Sealed Mana", 160, 0.9),
	}}
	s := newServerWithEngine(engine)
	path := createScreenshotFile(t)

	payload, mcpErr := callTool(t, s, "tooltip_parse", map[string]interface{}{"path": path})
	if mcpErr != nil {
		t.Fatalf("tool failed: %+v", mcpErr)
	}

	if payload["name"] != "Item Name" || payload["equipmentType"] != "Type" || payload["baseStats"] != "565 Max Energy Shield" {
		t.Errorf("unexpected record %v", payload)
	}
	affixes, ok := payload["customAffixes"].([]interface{})
	if !ok || len(affixes) != 1 || affixes[0] != "+8% Sealed Mana" {
		t.Errorf("customAffixes: got %v", payload["customAffixes"])
	}

	// second call is served from the image cache
	if _, mcpErr := callTool(t, s, "tooltip_parse", map[string]interface{}{"path": path}); mcpErr != nil {
		t.Fatalf("second call failed: %+v", mcpErr)
	}
	if s.cache.Len() != 1 {
		t.Errorf("cache holds %d images, want 1", s.cache.Len())
	}
}

func TestHandleToolsCall_TooltipParse_Empty(t *testing.T) {
	s := newServerWithEngine(&fakeEngine{})

	payload, mcpErr := callTool(t, s, "tooltip_parse", map[string]interface{}{"path": createScreenshotFile(t)})
	if mcpErr != nil {
		t.Fatalf("tool failed: %+v", mcpErr)
	}
	if payload["baseStats"] != nil {
		t.Errorf("baseStats: got %v, want null", payload["baseStats"])
	}
	if affixes, ok := payload["customAffixes"].([]interface{}); !ok || len(affixes) != 0 {
		t.Errorf("customAffixes: got %v, want []", payload["customAffixes"])
	}
}

func TestHandleToolsCall_TooltipRegion(t *testing.T) {
	s := newServerWithEngine(&fakeEngine{})

	payload, mcpErr := callTool(t, s, "tooltip_region", map[string]interface{}{"path": createScreenshotFile(t)})
	if mcpErr != nil {
		t.Fatalf("tool failed: %+v", mcpErr)
	}

	region := payload["region"].(map[string]interface{})
	// 1300x900 leaves 200x580 of the reference crop
	if region["x"] != float64(1100) || region["y"] != float64(320) || region["width"] != float64(200) || region["height"] != float64(580) {
		t.Errorf("region: got %v", region)
	}
	if payload["has_separator"] != false {
		t.Errorf("has_separator: got %v", payload["has_separator"])
	}
	if payload["image_width"] != float64(1300) {
		t.Errorf("image_width: got %v", payload["image_width"])
	}
}

func TestHandleToolsCall_TooltipRegion_OverwrittenScreenshot(t *testing.T) {
	s := newServerWithEngine(&fakeEngine{})
	path := createScreenshotFile(t)

	first, mcpErr := callTool(t, s, "tooltip_region", map[string]interface{}{"path": path})
	if mcpErr != nil {
		t.Fatalf("tool failed: %+v", mcpErr)
	}
	if first["image_width"] != float64(1300) {
		t.Fatalf("image_width: got %v, want 1300", first["image_width"])
	}

	// a new capture at full reference size replaces the file
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 2560, 1440))); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	f.Close()
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	second, mcpErr := callTool(t, s, "tooltip_region", map[string]interface{}{"path": path})
	if mcpErr != nil {
		t.Fatalf("tool failed: %+v", mcpErr)
	}
	if second["image_width"] != float64(2560) || second["image_height"] != float64(1440) {
		t.Errorf("overwritten screenshot: got %vx%v, want 2560x1440", second["image_width"], second["image_height"])
	}
}

func TestHandleToolsCall_TooltipOCR(t *testing.T) {
	engine := &fakeEngine{frags: []ocr.Fragment{
		fragmentAt("Equipped", 20, 0.9),
		fragmentAt("Item Name", 50, 0.9),
		fragmentAt("smudge", 80, 0.1),
	}}
	s := newServerWithEngine(engine)

	payload, mcpErr := callTool(t, s, "tooltip_ocr", map[string]interface{}{"path": createScreenshotFile(t)})
	if mcpErr != nil {
		t.Fatalf("tool failed: %+v", mcpErr)
	}

	fragments := payload["fragments"].([]interface{})
	decisions := payload["decisions"].([]interface{})
	if len(fragments) != 3 || len(decisions) != 3 {
		t.Fatalf("got %d fragments and %d decisions, want 3 each", len(fragments), len(decisions))
	}

	want := []string{"excluded:equipped", "kept", "low-confidence"}
	for i, d := range decisions {
		if got := d.(map[string]interface{})["outcome"]; got != want[i] {
			t.Errorf("decision %d: got %v, want %s", i, got, want[i])
		}
	}
	if payload["scale"] != float64(1) {
		t.Errorf("scale: got %v", payload["scale"])
	}
}

func TestHandleToolsCall_TooltipAnnotate(t *testing.T) {
	engine := &fakeEngine{frags: []ocr.Fragment{
		fragmentAt("Item Name", 40, 0.9),
		fragmentAt("Type(Slot) Lv.10", 80, 0.9),
	}}
	s := newServerWithEngine(engine)

	payload, mcpErr := callTool(t, s, "tooltip_annotate", map[string]interface{}{"path": createScreenshotFile(t)})
	if mcpErr != nil {
		t.Fatalf("tool failed: %+v", mcpErr)
	}

	if payload["width"] != float64(200) || payload["height"] != float64(580) {
		t.Errorf("overlay size: got %vx%v, want the 200x580 crop", payload["width"], payload["height"])
	}
	if payload["mime_type"] != "image/png" {
		t.Errorf("mime_type: got %v", payload["mime_type"])
	}
	data, err := base64.StdEncoding.DecodeString(payload["image_base64"].(string))
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}

	record := payload["record"].(map[string]interface{})
	if record["name"] != "Item Name" || record["equipmentType"] != "Type" {
		t.Errorf("record: got %v", record)
	}
}

func TestHandleToolsCall_TooltipCleanText(t *testing.T) {
	s := newServerWithEngine(&fakeEngine{})

	payload, mcpErr := callTool(t, s, "tooltip_clean_text", map[string]interface{}{"text": "[ 50％  Fire Resistance ]"})
	if mcpErr != nil {
		t.Fatalf("tool failed: %+v", mcpErr)
	}
	if payload["cleaned"] != "50% Fire Resistance" {
		t.Errorf("cleaned: got %q", payload["cleaned"])
	}
}

func TestHandleToolsCall_Errors(t *testing.T) {
	s := newServerWithEngine(&fakeEngine{})

	tests := []struct {
		name string
		tool string
		args map[string]interface{}
		want string
	}{
		{"missing path", "tooltip_parse", map[string]interface{}{}, "path is required"},
		{"nonexistent file", "tooltip_region", map[string]interface{}{"path": "/nonexistent/shot.png"}, "failed to open"},
		{"unknown tool", "image_crop", map[string]interface{}{}, "unknown tool"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mcpErr := callTool(t, s, tt.tool, tt.args)
			if mcpErr == nil {
				t.Fatal("expected error")
			}
			if mcpErr.Code != -32000 {
				t.Errorf("code: got %d, want -32000", mcpErr.Code)
			}
			if data, _ := mcpErr.Data.(string); !strings.Contains(data, tt.want) {
				t.Errorf("data: got %q, want it to mention %q", data, tt.want)
			}
		})
	}
}

func TestHandleToolsCall_OCRFailure(t *testing.T) {
	s := newServerWithEngine(&fakeEngine{err: os.ErrDeadlineExceeded})

	_, mcpErr := callTool(t, s, "tooltip_parse", map[string]interface{}{"path": createScreenshotFile(t)})
	if mcpErr == nil {
		t.Fatal("expected error")
	}
	if data, _ := mcpErr.Data.(string); !strings.Contains(data, string(pipeline.ErrorOCRFailed)) {
		t.Errorf("data: got %q", data)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newServerWithEngine(&fakeEngine{})

	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: json.RawMessage(`[1,2]`)})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("expected invalid params error, got %+v", resp)
	}
}
