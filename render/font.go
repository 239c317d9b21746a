package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Alignment positions a body label horizontally against the body's bounds
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// Font holds the GoCV text settings for a label
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// Pad is the space left around the text inside its background, X for
	// each side and Y above and below
	Pad   image.Point
	Align Alignment
}

// LabelFont returns the font used for rigid body name and quality labels
func LabelFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.5,
		Color:     White,
		Thickness: 1,
		LineType:  gocv.LineAA,
		Pad:       image.Pt(4, 5),
		Align:     AlignLeft,
	}
}

// IDFont returns the font used for marker ids drawn inside each marker
func IDFont() Font {
	return Font{
		Face:      gocv.FontHersheyPlain,
		Scale:     0.9,
		Color:     Yellow,
		Thickness: 1,
		LineType:  gocv.LineAA,
		Align:     AlignCenter,
	}
}

// textBox returns the size of text rendered in font including padding
func (f Font) textBox(text string) image.Point {
	size := gocv.GetTextSize(text, f.Face, f.Scale, f.Thickness)

	return size.Add(f.Pad.Mul(2))
}

// put draws text with its bottom left corner, padding included, at pos
func (f Font) put(img *gocv.Mat, text string, pos image.Point) {
	gocv.PutTextWithParams(img, text, pos.Add(image.Pt(f.Pad.X, -f.Pad.Y)),
		f.Face, f.Scale, f.Color, f.Thickness, f.LineType, false)
}
