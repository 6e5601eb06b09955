package ocr

import (
	"fmt"
	"image"
	"sort"

	"github.com/ironsheep/tooltip-ocr/internal/imaging"
)

// Engine is the text recognizer the adapter drives.
//
// Recognize is called once per tooltip with the preprocessed crop and must
// return every hit it found. No ordering is expected; the adapter sorts.
// Implementations are constructed once per process and reused for every
// screenshot.
type Engine interface {
	Recognize(img image.Image) ([]Fragment, error)
}

// EngineFunc adapts a plain function to the Engine interface.
type EngineFunc func(img image.Image) ([]Fragment, error)

// Recognize calls f(img).
func (f EngineFunc) Recognize(img image.Image) ([]Fragment, error) {
	return f(img)
}

// AdapterOptions tunes how the adapter prepares crops and post-processes
// engine output.
type AdapterOptions struct {
	// Scale is the integer upscale factor applied before recognition.
	// Values of 1 or less disable upscaling.
	Scale int

	// MergeLines joins fragments sharing a visual line (see MergeSameLine).
	MergeLines bool

	// MergeThreshold is the y distance used when MergeLines is set.
	MergeThreshold int
}

// DefaultAdapterOptions returns 2x upscaling without line merging.
func DefaultAdapterOptions() AdapterOptions {
	return AdapterOptions{
		Scale:          2,
		MergeThreshold: DefaultMergeThreshold,
	}
}

// Adapter runs an Engine over a tooltip crop and annotates the results.
type Adapter struct {
	engine Engine
	opts   AdapterOptions
}

// NewAdapter creates an adapter around engine.
func NewAdapter(engine Engine, opts AdapterOptions) *Adapter {
	if opts.Scale < 1 {
		opts.Scale = 1
	}
	if opts.MergeThreshold <= 0 {
		opts.MergeThreshold = DefaultMergeThreshold
	}
	return &Adapter{engine: engine, opts: opts}
}

// Scale returns the factor between crop coordinates and the coordinates of
// the fragments ExtractText returns.
func (a *Adapter) Scale() int {
	return a.opts.Scale
}

// ExtractText recognizes the text of a tooltip crop.
//
// The crop is upscaled, passed to the engine once, and the hits with a
// usable polygon are sorted top to bottom by their top edge. Each hit is
// annotated with its median text color and bullet flag, sampled from the
// upscaled image. When MergeLines is set, fragments of the same visual line
// are joined afterwards. Polygons are in upscaled coordinates.
func (a *Adapter) ExtractText(crop image.Image) ([]AnnotatedFragment, error) {
	processed := imaging.Upscale(crop, a.opts.Scale)

	raw, err := a.engine.Recognize(processed)
	if err != nil {
		return nil, fmt.Errorf("text recognition failed: %w", err)
	}

	frags := make([]Fragment, 0, len(raw))
	for _, f := range raw {
		if !f.Polygon.Valid() {
			continue
		}
		frags = append(frags, f)
	}
	if len(frags) == 0 {
		return []AnnotatedFragment{}, nil
	}

	sortTopToBottom(frags)

	hsv := imaging.NewHSVImage(processed)
	gray := imaging.Grayscale(processed)

	annotated := make([]AnnotatedFragment, 0, len(frags))
	for _, f := range frags {
		box := f.Polygon.Bounds()
		annotated = append(annotated, AnnotatedFragment{
			Fragment:  f,
			Color:     imaging.MedianTextHSV(hsv, gray, box),
			HasBullet: imaging.HasBulletMarker(hsv, box),
		})
	}

	if a.opts.MergeLines {
		annotated = MergeSameLine(annotated, a.opts.MergeThreshold)
		sort.SliceStable(annotated, func(i, j int) bool {
			return annotated[i].Polygon.MinY() < annotated[j].Polygon.MinY()
		})
	}

	return annotated, nil
}

func sortTopToBottom(frags []Fragment) {
	sort.SliceStable(frags, func(i, j int) bool {
		return frags[i].Polygon.MinY() < frags[j].Polygon.MinY()
	})
}
