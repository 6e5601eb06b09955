package imaging

import (
	"image"
	"image/color"
	"testing"
)

var (
	background = color.RGBA{10, 10, 10, 255}
	flavorTone = color.RGBA{220, 160, 100, 255} // H 15, S 139, V 220
	white      = color.RGBA{255, 255, 255, 255}
	yellow     = color.RGBA{255, 255, 0, 255}
	red        = color.RGBA{255, 0, 0, 255}
)

// fillRect paints r on img with c.
func fillRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
}

func TestNewHSVImage(t *testing.T) {
	tests := []struct {
		name  string
		color color.Color
		want  HSV
	}{
		{"white", white, HSV{H: 0, S: 0, V: 255}},
		{"red", red, HSV{H: 0, S: 255, V: 255}},
		{"green", color.RGBA{0, 255, 0, 255}, HSV{H: 60, S: 255, V: 255}},
		{"blue", color.RGBA{0, 0, 255, 255}, HSV{H: 120, S: 255, V: 255}},
		{"warm orange", flavorTone, HSV{H: 15, S: 139, V: 220}},
		{"black", color.RGBA{0, 0, 0, 255}, HSV{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hsv := NewHSVImage(createInMemoryImage(4, 4, tt.color))
			got := hsv.At(2, 2)
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewHSVImage_RebasesBounds(t *testing.T) {
	img := createPatternImage(40, 40)
	sub := img.SubImage(image.Rect(20, 0, 40, 20))

	hsv := NewHSVImage(sub)
	if hsv.Bounds() != image.Rect(0, 0, 20, 20) {
		t.Fatalf("bounds: got %v, want (0,0)-(20,20)", hsv.Bounds())
	}
	// Top-right quadrant of the pattern is green
	if got := hsv.At(0, 0); got.H != 60 {
		t.Errorf("hue at origin: got %v, want 60", got.H)
	}
}

func TestGrayscale(t *testing.T) {
	gray := Grayscale(createInMemoryImage(3, 3, color.RGBA{255, 128, 64, 255}))

	if gray.Bounds() != image.Rect(0, 0, 3, 3) {
		t.Fatalf("bounds: got %v", gray.Bounds())
	}
	// 0.299*255 + 0.587*128 + 0.114*64 = 158.68
	if got := gray.GrayAt(1, 1).Y; got != 159 {
		t.Errorf("luminance: got %d, want 159", got)
	}
}

func TestMedianTextHSV(t *testing.T) {
	img := createInMemoryImage(100, 40, background)
	fillRect(img, image.Rect(20, 10, 60, 30), flavorTone)

	hsv := NewHSVImage(img)
	gray := Grayscale(img)

	got := MedianTextHSV(hsv, gray, image.Rect(10, 5, 80, 35))
	want := HSV{H: 15, S: 139, V: 220}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestMedianTextHSV_EvenCountAveragesMiddle(t *testing.T) {
	img := createInMemoryImage(20, 10, background)
	fillRect(img, image.Rect(0, 0, 3, 1), white)
	fillRect(img, image.Rect(3, 0, 6, 1), yellow)

	got := MedianTextHSV(NewHSVImage(img), Grayscale(img), image.Rect(0, 0, 20, 10))
	want := HSV{H: 15, S: 127.5, V: 255}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestMedianTextHSV_Sentinel(t *testing.T) {
	img := createInMemoryImage(50, 50, background)
	fillRect(img, image.Rect(0, 0, 4, 1), white) // only four bright pixels

	hsv := NewHSVImage(img)
	gray := Grayscale(img)

	tests := []struct {
		name string
		box  image.Rectangle
	}{
		{"dark box", image.Rect(10, 10, 40, 40)},
		{"too few bright pixels", image.Rect(0, 0, 10, 10)},
		{"outside image", image.Rect(60, 60, 80, 80)},
		{"degenerate", image.Rect(5, 5, 5, 20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MedianTextHSV(hsv, gray, tt.box)
			if !got.IsZero() {
				t.Errorf("expected zero sentinel, got %+v", got)
			}
		})
	}
}

func TestMedianTextHSV_ClampsBox(t *testing.T) {
	img := createInMemoryImage(30, 30, white)

	got := MedianTextHSV(NewHSVImage(img), Grayscale(img), image.Rect(-10, -10, 100, 100))
	if got != (HSV{H: 0, S: 0, V: 255}) {
		t.Errorf("got %+v, want white", got)
	}
}

func TestHasBulletMarker(t *testing.T) {
	textBox := image.Rect(50, 0, 150, 12)

	tests := []struct {
		name   string
		marker image.Rectangle
		color  color.Color
		want   bool
	}{
		{"saturated bullet", image.Rect(20, 0, 45, 12), red, true},
		{"white glyph", image.Rect(20, 0, 45, 12), white, false},
		{"too small", image.Rect(40, 0, 45, 10), red, false},
		{"touching text only", image.Rect(48, 0, 50, 12), red, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := createInMemoryImage(200, 20, background)
			fillRect(img, tt.marker, tt.color)

			if got := HasBulletMarker(NewHSVImage(img), textBox); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasBulletMarker_AtLeftEdge(t *testing.T) {
	img := createInMemoryImage(100, 20, red)

	if HasBulletMarker(NewHSVImage(img), image.Rect(2, 0, 50, 12)) {
		t.Error("no strip exists left of x=2; expected false")
	}
}
