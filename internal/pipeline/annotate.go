package pipeline

import (
	"image"
	"image/color"
	"strings"

	"github.com/ironsheep/tooltip-ocr/internal/imaging"
	"github.com/ironsheep/tooltip-ocr/internal/parser"
)

var (
	keptColor      = color.RGBA{0, 220, 0, 255}
	excludedColor  = color.RGBA{255, 60, 60, 255}
	flavorColor    = color.RGBA{255, 160, 0, 255}
	droppedColor   = color.RGBA{140, 140, 140, 255}
	separatorColor = color.RGBA{0, 200, 255, 255}
)

func outcomeColor(o parser.Outcome) color.RGBA {
	switch {
	case o == parser.OutcomeKept:
		return keptColor
	case o == parser.OutcomeFlavor || o == parser.OutcomeAfterFlavor:
		return flavorColor
	case strings.HasPrefix(string(o), "excluded:"):
		return excludedColor
	default:
		return droppedColor
	}
}

// Annotate processes img and draws the result onto the upscaled tooltip
// crop the engine saw: one box per fragment, colored and labelled by its
// classification, and the separator row when one was found.
func (p *Pipeline) Annotate(img image.Image) (*image.RGBA, *Result, error) {
	res, err := p.ProcessImage(img)
	if err != nil {
		return nil, nil, err
	}
	_, crop, err := p.Region(img)
	if err != nil {
		return nil, nil, err
	}

	scale := p.adapter.Scale()
	decisions := p.classifier.Explain(res.Fragments)

	boxes := make([]imaging.Box, 0, len(res.Fragments))
	for i, f := range res.Fragments {
		boxes = append(boxes, imaging.Box{
			Rect:  f.Polygon.Bounds(),
			Color: outcomeColor(decisions[i].Outcome),
			Label: string(decisions[i].Outcome),
		})
	}

	var guides []imaging.Guide
	if res.HasSeparator {
		guides = append(guides, imaging.Guide{Y: res.SeparatorY * scale, Color: separatorColor})
	}

	return imaging.Annotate(imaging.Upscale(crop, scale), boxes, guides), res, nil
}
