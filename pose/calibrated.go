package pose

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/swdee/go-arucotracker/marker"
)

// Match pairs the body frame geometry of a marker with its observed corners
type Match struct {
	// ID of the marker
	ID int
	// Object is the marker's corner geometry in the body frame
	Object [4]r3.Vector
	// Image is the marker's detected corners in pixels
	Image marker.Quad
}

// usable reports if every observed corner of the match is finite
func (m Match) usable() bool {
	for _, p := range m.Image {
		if !finite(p.X) || !finite(p.Y) {
			return false
		}
	}

	return true
}

// EstimateCalibrated returns the pose of a rigid body from its matched
// markers.  No matches gives the unknown pose without solving, a single
// match uses the square marker solver and more than one solves jointly over
// all corners
func EstimateCalibrated(matches []Match, cam *Camera) (Pose, error) {

	switch len(matches) {
	case 0:
		return Unknown(), nil

	case 1:
		return SolveSingleMarker(matches[0], cam)

	default:
		p, used, err := SolveBoard(matches, cam)

		if used != len(matches) {
			return Unknown(), errors.Wrapf(ErrSolverInvariant,
				"board solver used %d of %d markers", used, len(matches))
		}

		return p, err
	}
}

// SolveSingleMarker returns the pose of a body from the four corners of a
// single square marker
func SolveSingleMarker(m Match, cam *Camera) (Pose, error) {
	return SolvePnP(m.Object[:], m.Image[:], cam)
}

// SolveBoard returns the pose of a body from the corners of several markers
// solved jointly, and the number of markers used in the solution.  Markers
// with non finite corners are left out
func SolveBoard(matches []Match, cam *Camera) (Pose, int, error) {

	object := make([]r3.Vector, 0, 4*len(matches))
	image := make([]r2.Point, 0, 4*len(matches))
	used := 0

	for _, m := range matches {
		if !m.usable() {
			continue
		}

		object = append(object, m.Object[:]...)
		image = append(image, m.Image[:]...)
		used++
	}

	if used == 0 {
		return Unknown(), 0, errors.Wrap(ErrNoSolution, "no usable markers")
	}

	p, err := SolvePnP(object, image, cam)

	return p, used, err
}
