package marker

import (
	"image"
	"math"

	"github.com/golang/geo/r2"
)

// Quad is the four image plane corners of a detected marker in pixel
// coordinates, in the order reported by the detector
type Quad [4]r2.Point

// Centre returns the mean of the four corners
func (q Quad) Centre() r2.Point {
	var sum r2.Point

	for _, p := range q {
		sum = sum.Add(p)
	}

	return sum.Mul(0.25)
}

// Bounds returns the axis aligned bounding box of the corners
func (q Quad) Bounds() r2.Rect {
	return r2.RectFromPoints(q[:]...)
}

// Diagonal returns the length of the bounding box diagonal, the euclidean
// norm of the per axis corner extents
func (q Quad) Diagonal() float64 {
	return q.Bounds().Size().Norm()
}

// Image returns the corners rounded to integer pixel positions
func (q Quad) Image() [4]image.Point {
	var pts [4]image.Point

	for i, p := range q {
		pts[i] = image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
	}

	return pts
}

// Detection is a single marker reported by the detector for one vocabulary
type Detection struct {
	// ID of the marker within the vocabulary it was detected for
	ID int
	// Corners of the marker
	Corners Quad
}
