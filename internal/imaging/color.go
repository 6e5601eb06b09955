package imaging

import (
	"image"
	"sort"

	"github.com/anthonynsimon/bild/clone"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	// BrightThreshold is the grayscale level above which a pixel counts as
	// foreground text rather than tooltip background.
	BrightThreshold = 100

	// MinBrightPixels is the minimum number of bright pixels required before a
	// median color is reported. Fewer pixels yield the zero HSV sentinel.
	MinBrightPixels = 5

	// Bullet marker strip geometry, relative to the left edge of a text box.
	bulletStripFar  = 35
	bulletStripNear = 3

	bulletMinSaturation = 50
	bulletMinValue      = 100
	bulletMinPixels     = 50
)

// HSV is a color in OpenCV's 8-bit HSV scale.
//
// Components use the ranges OpenCV produces for COLOR_BGR2HSV on 8-bit images:
//   - H: 0-180 (degrees halved)
//   - S: 0-255
//   - V: 0-255
//
// The zero value means "color undetermined" and is what MedianTextHSV returns
// when a box holds too few bright pixels. It never falls inside a chromatic
// classification window because its saturation is 0.
type HSV struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	V float64 `json:"v"`
}

// IsZero reports whether c is the undetermined sentinel.
func (c HSV) IsZero() bool {
	return c.H == 0 && c.S == 0 && c.V == 0
}

// HSVImage holds per-pixel H, S and V planes for an image.
//
// Planes are re-based so the top-left pixel is (0,0), the same convention the
// crop helpers use. Pixel (x, y) lives at index y*Width+x in every plane.
type HSVImage struct {
	Width  int
	Height int
	H      []uint8
	S      []uint8
	V      []uint8
}

// NewHSVImage converts an image into HSV planes.
//
// The source is first normalized to RGBA so the inner loop can read the pixel
// buffer directly instead of going through the color.Color interface. Each
// pixel is converted with go-colorful and mapped onto the OpenCV scale.
func NewHSVImage(img image.Image) *HSVImage {
	rgba := clone.AsRGBA(img)
	b := rgba.Bounds()
	w, h := b.Dx(), b.Dy()

	out := &HSVImage{
		Width:  w,
		Height: h,
		H:      make([]uint8, w*h),
		S:      make([]uint8, w*h),
		V:      make([]uint8, w*h),
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := rgba.PixOffset(x+b.Min.X, y+b.Min.Y)
			c := colorful.Color{
				R: float64(rgba.Pix[off]) / 255.0,
				G: float64(rgba.Pix[off+1]) / 255.0,
				B: float64(rgba.Pix[off+2]) / 255.0,
			}
			hh, ss, vv := c.Hsv()
			i := y*w + x
			out.H[i] = clampByte(hh / 2.0)
			out.S[i] = clampByte(ss * 255.0)
			out.V[i] = clampByte(vv * 255.0)
		}
	}

	return out
}

// Bounds returns the plane rectangle, always anchored at (0,0).
func (m *HSVImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// At returns the HSV triple at (x, y). Coordinates must be inside Bounds.
func (m *HSVImage) At(x, y int) HSV {
	i := y*m.Width + x
	return HSV{H: float64(m.H[i]), S: float64(m.S[i]), V: float64(m.V[i])}
}

// Grayscale converts an image to 8-bit luminance using ITU-R BT.601 weights
// (0.299*R + 0.587*G + 0.114*B), the same weights OpenCV's BGR2GRAY uses.
//
// The returned image is anchored at (0,0).
func Grayscale(img image.Image) *image.Gray {
	g := imaging.Grayscale(img)
	b := g.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Pix[y*out.Stride+x] = g.Pix[g.PixOffset(x+b.Min.X, y+b.Min.Y)]
		}
	}
	return out
}

// MedianTextHSV returns the per-channel median color of the text pixels inside
// box.
//
// The box is clamped to the image; only pixels whose grayscale value exceeds
// BrightThreshold take part, so the dark tooltip background does not drag the
// result towards black. Medians over an even number of samples average the
// two middle values. Fewer than MinBrightPixels samples yield the zero
// sentinel.
func MedianTextHSV(hsv *HSVImage, gray *image.Gray, box image.Rectangle) HSV {
	box = box.Intersect(hsv.Bounds()).Intersect(gray.Bounds())
	if box.Empty() {
		return HSV{}
	}

	n := box.Dx() * box.Dy()
	hs := make([]uint8, 0, n)
	ss := make([]uint8, 0, n)
	vs := make([]uint8, 0, n)

	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			if gray.Pix[y*gray.Stride+x] <= BrightThreshold {
				continue
			}
			i := y*hsv.Width + x
			hs = append(hs, hsv.H[i])
			ss = append(ss, hsv.S[i])
			vs = append(vs, hsv.V[i])
		}
	}

	if len(hs) < MinBrightPixels {
		return HSV{}
	}

	return HSV{H: median(hs), S: median(ss), V: median(vs)}
}

// HasBulletMarker reports whether a colored bullet glyph sits just left of box.
//
// It inspects the strip from 35px to 3px left of the box's left edge, over the
// box's vertical extent, and counts pixels that are both saturated (S > 50)
// and bright (V > 100). Plain background or white text rarely satisfies both.
func HasBulletMarker(hsv *HSVImage, box image.Rectangle) bool {
	strip := image.Rect(box.Min.X-bulletStripFar, box.Min.Y, box.Min.X-bulletStripNear, box.Max.Y)
	strip = strip.Intersect(hsv.Bounds())
	if strip.Empty() {
		return false
	}

	count := 0
	for y := strip.Min.Y; y < strip.Max.Y; y++ {
		for x := strip.Min.X; x < strip.Max.X; x++ {
			i := y*hsv.Width + x
			if hsv.S[i] > bulletMinSaturation && hsv.V[i] > bulletMinValue {
				count++
			}
		}
	}

	return count > bulletMinPixels
}

// median returns the median of values. values must not be empty; it is
// sorted in place.
func median(values []uint8) float64 {
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	mid := len(values) / 2
	if len(values)%2 == 1 {
		return float64(values[mid])
	}
	return (float64(values[mid-1]) + float64(values[mid])) / 2.0
}

func clampByte(f float64) uint8 {
	f += 0.5
	if f < 0 {
		return 0
	}
	if f > 255 {
		return 255
	}
	return uint8(f)
}
