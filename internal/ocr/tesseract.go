package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// TesseractOptions configures the Tesseract-backed engine.
type TesseractOptions struct {
	// Language is the Tesseract language code, e.g. "eng".
	Language string

	// TessdataPrefix overrides the directory holding *.traineddata files.
	// Empty uses the system default.
	TessdataPrefix string

	// PageSegMode is Tesseract's page segmentation mode. Tooltips are sparse
	// blocks of short lines, so the default is PSM_SPARSE_TEXT (11).
	PageSegMode int
}

// DefaultTesseractOptions returns English recognition in sparse-text mode.
func DefaultTesseractOptions() TesseractOptions {
	return TesseractOptions{
		Language:    "eng",
		PageSegMode: int(gosseract.PSM_SPARSE_TEXT),
	}
}

// TesseractEngine implements Engine on top of gosseract.
//
// One Tesseract client is created up front and reused for every call;
// creating a client loads the language model, which is far more expensive
// than recognizing a single tooltip. Calls are serialized because the client
// holds the current image as state.
type TesseractEngine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseractEngine creates and configures a Tesseract client.
//
// Parameters:
//   - opts: language, tessdata location and segmentation mode.
//
// Returns:
//   - *TesseractEngine: ready for Recognize calls. Call Close when done.
//   - error: Non-nil if the language or tessdata path is rejected.
func NewTesseractEngine(opts TesseractOptions) (*TesseractEngine, error) {
	client := gosseract.NewClient()

	if opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(opts.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}

	lang := opts.Language
	if lang == "" {
		lang = "eng"
	}
	if err := client.SetLanguage(lang); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}

	if err := client.SetPageSegMode(gosseract.PageSegMode(opts.PageSegMode)); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	return &TesseractEngine{client: client}, nil
}

// Recognize returns one Fragment per Tesseract text line.
//
// The image is PNG-encoded in memory and handed to Tesseract without touching
// disk. Line boxes become four-point polygons and Tesseract's 0-100
// confidence is mapped onto 0-1. Lines whose text is blank are skipped.
func (e *TesseractEngine) Recognize(img image.Image) ([]Fragment, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("failed to get text lines: %w", err)
	}

	frags := make([]Fragment, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		frags = append(frags, Fragment{
			Polygon:    RectPolygon(box.Box),
			Text:       text,
			Confidence: box.Confidence / 100.0,
		})
	}

	return frags, nil
}

// Version returns the linked Tesseract version.
func (e *TesseractEngine) Version() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client.Version()
}

// Close releases the Tesseract client.
func (e *TesseractEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client.Close()
}
