package tracker

import (
	"github.com/swdee/go-arucotracker/marker"
	"github.com/swdee/go-arucotracker/pose"
)

// Observation holds the markers of a single rigid body seen in the current
// frame
type Observation struct {
	// quads observed this frame keyed by marker id
	quads map[int]marker.Quad
	// order the marker ids were assigned in
	order []int
}

// NewObservation returns an empty observation
func NewObservation() *Observation {
	return &Observation{
		quads: make(map[int]marker.Quad),
	}
}

// Reset clears all observed markers ready for the next frame
func (o *Observation) Reset() {
	o.quads = make(map[int]marker.Quad)
	o.order = o.order[:0]
}

// Assign records every detection belonging to the body.  Detections are only
// considered when they were made for the body's own vocabulary, and a marker
// id already assigned this frame is neither recorded nor returned again.  The
// ids newly assigned are returned
func (o *Observation) Assign(body *marker.RigidBody, vocab marker.Vocabulary,
	detections []marker.Detection) []int {

	if vocab != body.Vocabulary {
		return nil
	}

	if o.quads == nil {
		o.quads = make(map[int]marker.Quad)
	}

	var assigned []int

	for _, det := range detections {
		if !body.Has(det.ID) {
			continue
		}

		if _, seen := o.quads[det.ID]; seen {
			continue
		}

		o.quads[det.ID] = det.Corners
		o.order = append(o.order, det.ID)
		assigned = append(assigned, det.ID)
	}

	return assigned
}

// Len returns the number of distinct markers observed
func (o *Observation) Len() int {
	return len(o.order)
}

// Quad returns the observed corners of a marker id
func (o *Observation) Quad(id int) (marker.Quad, bool) {
	q, ok := o.quads[id]
	return q, ok
}

// IDs returns the observed marker ids in assignment order
func (o *Observation) IDs() []int {
	return append([]int(nil), o.order...)
}

// Quads returns the observed corners in assignment order
func (o *Observation) Quads() []marker.Quad {
	quads := make([]marker.Quad, len(o.order))

	for i, id := range o.order {
		quads[i] = o.quads[id]
	}

	return quads
}

// Detections returns the observed markers in assignment order
func (o *Observation) Detections() []marker.Detection {
	dets := make([]marker.Detection, len(o.order))

	for i, id := range o.order {
		dets[i] = marker.Detection{ID: id, Corners: o.quads[id]}
	}

	return dets
}

// EstimatePose returns the pose and quality of a body from its observation.
// A nil camera selects the uncalibrated pixel space estimate.  Bodies with no
// observed markers get the unknown pose and zero quality without solving
func EstimatePose(body *marker.RigidBody, obs *Observation,
	cam *pose.Camera) (pose.Pose, float64, error) {

	quality := pose.Quality(obs.Len(), body.Len())

	if obs.Len() == 0 {
		return pose.Unknown(), quality, nil
	}

	if cam == nil {
		return pose.EstimateUncalibrated(obs.Quads()), quality, nil
	}

	// only markers present in both geometry and observation take part,
	// ordered as defined on the body
	matches := make([]pose.Match, 0, obs.Len())

	for _, tag := range body.Tags() {
		q, ok := obs.Quad(tag.ID)

		if !ok {
			continue
		}

		matches = append(matches, pose.Match{
			ID:     tag.ID,
			Object: tag.Corners,
			Image:  q,
		})
	}

	p, err := pose.EstimateCalibrated(matches, cam)

	if err != nil {
		return pose.Unknown(), quality, err
	}

	return p, quality, nil
}
