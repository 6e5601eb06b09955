package ocr

import (
	"image"
	"math"
	"sort"
	"strings"
)

// DefaultMergeThreshold is the vertical distance, in OCR pixels, within which
// two fragments are considered part of the same visual line.
const DefaultMergeThreshold = 15

// MergeSameLine joins fragments that the engine split out of one visual line.
//
// Fragments are ordered by vertical center and grouped while their center
// lies within yThreshold of the group's anchor, the center of its first
// member. The anchor never drifts as members join. Each group is ordered left
// to right and collapsed into one fragment:
//   - text is joined with single spaces
//   - the polygon is the rectangle enclosing every member
//   - confidence is the lowest member confidence
//   - color comes from the leftmost member
//   - HasBullet is set if any member has a bullet
//
// Groups of one pass through unchanged. The input slice is not modified.
func MergeSameLine(frags []AnnotatedFragment, yThreshold int) []AnnotatedFragment {
	if len(frags) == 0 {
		return nil
	}

	sorted := make([]AnnotatedFragment, len(frags))
	copy(sorted, frags)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Polygon.CenterY() < sorted[j].Polygon.CenterY()
	})

	merged := make([]AnnotatedFragment, 0, len(sorted))
	group := []AnnotatedFragment{sorted[0]}
	anchor := sorted[0].Polygon.CenterY()

	for _, f := range sorted[1:] {
		if math.Abs(f.Polygon.CenterY()-anchor) <= float64(yThreshold) {
			group = append(group, f)
			continue
		}
		merged = append(merged, mergeGroup(group))
		group = []AnnotatedFragment{f}
		anchor = f.Polygon.CenterY()
	}
	merged = append(merged, mergeGroup(group))

	return merged
}

// mergeGroup collapses one row of fragments.
func mergeGroup(group []AnnotatedFragment) AnnotatedFragment {
	if len(group) == 1 {
		return group[0]
	}

	sort.SliceStable(group, func(i, j int) bool {
		return group[i].Polygon.MinX() < group[j].Polygon.MinX()
	})

	texts := make([]string, 0, len(group))
	var bounds image.Rectangle
	confidence := group[0].Confidence
	bullet := false

	for i, f := range group {
		texts = append(texts, f.Text)
		b := f.Polygon.Bounds()
		if i == 0 {
			bounds = b
		} else {
			// image.Rectangle.Union skips empty rectangles; flat boxes still count here.
			bounds.Min.X = min(bounds.Min.X, b.Min.X)
			bounds.Min.Y = min(bounds.Min.Y, b.Min.Y)
			bounds.Max.X = max(bounds.Max.X, b.Max.X)
			bounds.Max.Y = max(bounds.Max.Y, b.Max.Y)
		}
		confidence = math.Min(confidence, f.Confidence)
		bullet = bullet || f.HasBullet
	}

	return AnnotatedFragment{
		Fragment: Fragment{
			Polygon:    RectPolygon(bounds),
			Text:       strings.Join(texts, " "),
			Confidence: confidence,
		},
		Color:     group[0].Color,
		HasBullet: bullet,
	}
}
