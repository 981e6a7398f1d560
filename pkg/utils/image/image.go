package image

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	LabelColor      = color.RGBA{R: 255, G: 32, B: 32, A: 255}
	LabelBackground = color.RGBA{A: 160}
)

// DecodeJPEG decodes a captured frame into an RGBA image, reusing dst when its
// bounds match.
func DecodeJPEG(data []byte, dst *image.RGBA) (*image.RGBA, error) {
	src, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	if dst == nil || dst.Bounds() != b {
		dst = image.NewRGBA(b)
	}
	draw.Draw(dst, b, src, b.Min, draw.Src)

	return dst, nil
}

// DrawLabel writes text in the top left corner on a dark box.
func DrawLabel(dst draw.Image, text string) {
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	b := dst.Bounds()
	width := font.MeasureString(face, text).Ceil()
	box := image.Rect(b.Min.X, b.Min.Y, b.Min.X+width+12, b.Min.Y+face.Height+8).Intersect(b)
	draw.Draw(dst, box, image.NewUniform(LabelBackground), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(LabelColor),
		Face: face,
		Dot:  fixed.P(b.Min.X+6, b.Min.Y+4+face.Ascent),
	}
	d.DrawString(text)
}
