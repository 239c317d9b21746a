package render

import (
	"image"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/swdee/go-arucotracker/pose"
	"github.com/swdee/go-arucotracker/tracker"
	"gocv.io/x/gocv"
)

// Axes draws the x, y and z axes of each known body pose projected through
// the calibrated camera, length is in the units of the body geometry
func Axes(img *gocv.Mat, results []tracker.Result, cam *pose.Camera,
	length float64, thickness int) {

	if cam == nil {
		return
	}

	for _, res := range results {
		pts, ok := AxisPoints(res.Pose, cam, length)

		if !ok {
			continue
		}

		for i := 0; i < 3; i++ {
			gocv.Line(img, pts[0], pts[i+1], axisColors[i], thickness)
		}
	}
}

// AxisPoints returns the image positions of a pose's origin followed by the
// ends of its x, y and z axes.  False is returned when the pose is unknown
// or any point falls behind the camera
func AxisPoints(p pose.Pose, cam *pose.Camera, length float64) ([4]image.Point, bool) {

	var pts [4]image.Point

	if !p.IsKnown() {
		return pts, false
	}

	// each body axis is a column of the rotation
	ends := [4]r3.Vector{p.Translation}

	for i := 0; i < 3; i++ {
		ends[i+1] = p.Translation.Add(p.Rotation.Column(i).Mul(length))
	}

	for i, e := range ends {
		px := cam.Project(e)

		if !finitePoint(px) {
			return pts, false
		}

		pts[i] = image.Pt(int(math.Round(px.X)), int(math.Round(px.Y)))
	}

	return pts, true
}

// finitePoint reports if both coordinates are finite
func finitePoint(p r2.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
