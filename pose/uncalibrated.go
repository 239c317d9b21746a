package pose

import (
	"github.com/golang/geo/r3"
	"github.com/swdee/go-arucotracker/marker"
	"gonum.org/v1/gonum/stat"
)

// EstimateUncalibrated returns a rough pixel space pose from the detected
// quads of a body when no camera calibration is available.  X and Y are the
// mean of the quad centres, Z is the negated mean bounding box diagonal so
// that larger markers appear closer, and the rotation is the identity
func EstimateUncalibrated(quads []marker.Quad) Pose {

	if len(quads) == 0 {
		return Unknown()
	}

	xs := make([]float64, len(quads))
	ys := make([]float64, len(quads))
	diags := make([]float64, len(quads))

	for i, q := range quads {
		c := q.Centre()
		xs[i] = c.X
		ys[i] = c.Y
		diags[i] = q.Diagonal()
	}

	return Known(Identity(), r3.Vector{
		X: stat.Mean(xs, nil),
		Y: stat.Mean(ys, nil),
		Z: -stat.Mean(diags, nil),
	})
}
