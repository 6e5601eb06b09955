package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Box is a labelled rectangle drawn by Annotate.
type Box struct {
	Rect  image.Rectangle
	Color color.RGBA
	Label string
}

// Guide is a full-width horizontal line drawn by Annotate.
type Guide struct {
	Y     int
	Color color.RGBA
}

// EncodedImage is a PNG ready to embed in a JSON response.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Annotate returns a copy of img with box outlines, labels and guide lines
// drawn on top. Coordinates are relative to the top-left of img. Labels sit
// just above their box, or inside it when the box touches the top edge.
func Annotate(img image.Image, boxes []Box, guides []Guide) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)

	for _, g := range guides {
		if g.Y < 0 || g.Y >= out.Rect.Dy() {
			continue
		}
		for x := 0; x < out.Rect.Dx(); x++ {
			out.SetRGBA(x, g.Y, g.Color)
		}
	}

	for _, box := range boxes {
		r := box.Rect.Intersect(out.Bounds())
		if r.Empty() {
			continue
		}
		strokeRect(out, r, box.Color)
		if box.Label != "" {
			drawLabel(out, r, box.Label, box.Color)
		}
	}

	return out
}

func strokeRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetRGBA(x, r.Min.Y, c)
		img.SetRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetRGBA(r.Min.X, y, c)
		img.SetRGBA(r.Max.X-1, y, c)
	}
}

// drawLabel writes text on a dark backing strip with basicfont's 7x13 face.
func drawLabel(img *image.RGBA, box image.Rectangle, text string, c color.RGBA) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	height := face.Height

	top := box.Min.Y - height
	if top < 0 {
		top = box.Min.Y
	}
	backing := image.Rect(box.Min.X, top, box.Min.X+width+2, top+height).Intersect(img.Bounds())
	draw.Draw(img, backing, image.NewUniform(color.RGBA{0, 0, 0, 200}), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(box.Min.X+1, top+face.Ascent),
	}
	d.DrawString(text)
}

// EncodePNG encodes img as base64 PNG.
func EncodePNG(img image.Image) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	b := img.Bounds()
	return &EncodedImage{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
