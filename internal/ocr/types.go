package ocr

import (
	"image"

	"github.com/ironsheep/tooltip-ocr/internal/imaging"
)

// Point is a polygon vertex in crop pixel coordinates.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Polygon is the bounding quadrilateral an engine reports for a text hit.
// Engines usually return four corners; anything with fewer than three points
// is degenerate and dropped by the adapter.
type Polygon []Point

// RectPolygon returns the four corners of r, clockwise from the top-left.
func RectPolygon(r image.Rectangle) Polygon {
	return Polygon{
		{X: r.Min.X, Y: r.Min.Y},
		{X: r.Max.X, Y: r.Min.Y},
		{X: r.Max.X, Y: r.Max.Y},
		{X: r.Min.X, Y: r.Max.Y},
	}
}

// Valid reports whether the polygon has at least three vertices.
func (p Polygon) Valid() bool {
	return len(p) >= 3
}

// Bounds returns the axis-aligned rectangle spanned by the vertices.
// An empty polygon yields the zero rectangle.
func (p Polygon) Bounds() image.Rectangle {
	if len(p) == 0 {
		return image.Rectangle{}
	}
	r := image.Rect(p[0].X, p[0].Y, p[0].X, p[0].Y)
	for _, pt := range p[1:] {
		r.Min.X = min(r.Min.X, pt.X)
		r.Min.Y = min(r.Min.Y, pt.Y)
		r.Max.X = max(r.Max.X, pt.X)
		r.Max.Y = max(r.Max.Y, pt.Y)
	}
	return r
}

// MinX returns the left edge of the polygon.
func (p Polygon) MinX() int { return p.Bounds().Min.X }

// MinY returns the top edge of the polygon.
func (p Polygon) MinY() int { return p.Bounds().Min.Y }

// CenterY returns the midpoint between the top and bottom edges.
func (p Polygon) CenterY() float64 {
	b := p.Bounds()
	return float64(b.Min.Y+b.Max.Y) / 2.0
}

// Fragment is a single recognition hit as returned by an Engine.
type Fragment struct {
	Polygon    Polygon `json:"polygon"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0.0 to 1.0
}

// AnnotatedFragment is a Fragment plus the color and bullet signals sampled
// from the image underneath it.
type AnnotatedFragment struct {
	Fragment

	// Color is the median HSV of the bright pixels inside the polygon, or the
	// zero sentinel when too few bright pixels were found.
	Color imaging.HSV `json:"color"`

	// HasBullet is set when a saturated bullet glyph sits just left of the text.
	HasBullet bool `json:"has_bullet"`
}
