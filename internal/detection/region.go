package detection

import "image"

// Reference tooltip placement for 2560x1440 screenshots. The "Equipped"
// label sits near (1191, 339) and the tooltip body extends below and right of it.
const (
	ReferenceWidth  = 2560
	ReferenceHeight = 1440

	tooltipX      = 1100
	tooltipY      = 320
	tooltipWidth  = 600
	tooltipHeight = 880
)

// Region is the tooltip sub-rectangle of a screenshot.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect converts the region to an image.Rectangle in screenshot coordinates.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Empty reports whether the region has no area. Callers treat an empty
// region as "no tooltip found".
func (r Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// DetectTooltipRegion returns the tooltip crop for a screenshot.
//
// The tooltip is assumed to sit at a fixed place on the reference resolution.
// The rectangle is clamped to the image: the origin is moved into
// [0, dim-1] and the size shrunk so origin+size never exceeds dim. Undersized
// images produce a degenerate region instead of an error.
func DetectTooltipRegion(img image.Image) Region {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	x := clamp(tooltipX, 0, w-1)
	y := clamp(tooltipY, 0, h-1)

	return Region{
		X:      x,
		Y:      y,
		Width:  max(0, min(tooltipWidth, w-x)),
		Height: max(0, min(tooltipHeight, h-y)),
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}
