package detection

import (
	"image"

	"github.com/ironsheep/tooltip-ocr/internal/imaging"
)

// SeparatorParams controls the separator line scan.
//
// Brightness bands are grayscale levels. Rows are candidates when enough
// sampled pixels sit in the mid band (a solid gray line), few are bright
// (no text crossing the row), and the rows Gap pixels above and below are
// mostly dark (the line is thin and sits on background).
type SeparatorParams struct {
	StartY int // first scanned row; rows above hold the energy bar
	EndY   int // scan stops before min(EndY, height-Gap)
	StartX int
	EndX   int // exclusive, clamped to the crop width
	Gap    int

	DarkBelow   uint8 // pixels < DarkBelow are background
	BrightAbove uint8 // pixels > BrightAbove are text

	MinLinePixels int // minimum mid-band pixels on the row
	MaxTextPixels int // maximum bright pixels on the row, inclusive
	MinDarkPixels int // minimum dark pixels on each neighbouring row
}

// DefaultSeparatorParams returns the thresholds tuned for the reference
// tooltip crop.
func DefaultSeparatorParams() SeparatorParams {
	return SeparatorParams{
		StartY:        200,
		EndY:          400,
		StartX:        100,
		EndX:          450,
		Gap:           3,
		DarkBelow:     60,
		BrightAbove:   180,
		MinLinePixels: 150,
		MaxTextPixels: 30,
		MinDarkPixels: 250,
	}
}

// DetectSeparatorLine finds the y of the gray line dividing the base stat
// from the affixes in a tooltip crop.
//
// The crop is converted to grayscale and scanned with DefaultSeparatorParams.
// The returned y is in crop-local, pre-upscale coordinates. ok is false when
// no row qualifies.
func DetectSeparatorLine(tooltip image.Image) (y int, ok bool) {
	return DetectSeparatorLineGray(imaging.Grayscale(tooltip), DefaultSeparatorParams())
}

// DetectSeparatorLineGray runs the separator scan on a grayscale crop
// anchored at (0,0).
//
// Several dark bands can qualify above the real separator (bar borders), so
// the last, lowest qualifying row wins.
func DetectSeparatorLineGray(gray *image.Gray, p SeparatorParams) (y int, ok bool) {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()

	xLo, xHi := p.StartX, min(p.EndX, w)
	if xLo >= xHi {
		return 0, false
	}

	last := -1
	for row := p.StartY; row < min(p.EndY, h-p.Gap); row++ {
		if row-p.Gap < 0 {
			continue
		}

		line, text := 0, 0
		for _, v := range rowPixels(gray, row, xLo, xHi) {
			if v > p.DarkBelow && v < p.BrightAbove {
				line++
			}
			if v > p.BrightAbove {
				text++
			}
		}
		if line < p.MinLinePixels || text > p.MaxTextPixels {
			continue
		}

		if countBelow(rowPixels(gray, row-p.Gap, xLo, xHi), p.DarkBelow) < p.MinDarkPixels ||
			countBelow(rowPixels(gray, row+p.Gap, xLo, xHi), p.DarkBelow) < p.MinDarkPixels {
			continue
		}

		last = row
	}

	if last < 0 {
		return 0, false
	}
	return last, true
}

// rowPixels returns the [xLo, xHi) slice of row y, both relative to the
// image origin.
func rowPixels(gray *image.Gray, y, xLo, xHi int) []uint8 {
	start := y*gray.Stride + xLo
	return gray.Pix[start : start+(xHi-xLo)]
}

func countBelow(px []uint8, level uint8) int {
	n := 0
	for _, v := range px {
		if v < level {
			n++
		}
	}
	return n
}
