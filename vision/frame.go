package vision

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Frame is a video frame held in an OpenCV Mat which also satisfies
// image.Image so it can be passed to the tracker without conversion
type Frame struct {
	// Mat holds the BGR pixel data
	Mat gocv.Mat
	// img is the lazily converted Go image used by At
	img image.Image
}

// NewFrame wraps a Mat, the frame does not take ownership of it
func NewFrame(mat gocv.Mat) *Frame {
	return &Frame{Mat: mat}
}

// ColorModel returns the frame's color model
func (f *Frame) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds returns the frame dimensions
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Mat.Cols(), f.Mat.Rows())
}

// At returns the color of the pixel at (x, y)
func (f *Frame) At(x, y int) color.Color {

	if f.img == nil {
		img, err := f.Mat.ToImage()

		if err != nil {
			// unsupported Mat types render as blank
			img = image.NewRGBA(f.Bounds())
		}

		f.img = img
	}

	return f.img.At(x, y)
}
