package tracker

import (
	"fmt"
	"image"

	"github.com/pkg/errors"
	"github.com/swdee/go-arucotracker/marker"
	"github.com/swdee/go-arucotracker/pose"
	"go.uber.org/zap"
)

// Detector finds the markers of a single vocabulary in an image
type Detector interface {
	// Detect returns the id and corners of every marker of the vocabulary
	// found in the image, in detection order
	Detect(img image.Image, vocab marker.Vocabulary) ([]marker.Detection, error)
}

// Result is the per frame outcome for one rigid body
type Result struct {
	// Name is the handle of the rigid body
	Name string
	// Pose of the body in the camera frame, unknown when not seen
	Pose pose.Pose
	// Quality is the fraction of the body's markers that were observed
	Quality float64
	// Markers observed for the body this frame
	Markers []marker.Detection
	// Ephemeral is set for single markers not claimed by a configured body
	Ephemeral bool
}

// ephemeralKey identifies a detected marker across vocabularies
type ephemeralKey struct {
	vocab marker.Vocabulary
	id    int
}

// ephemeralDetection is an unclaimed marker awaiting its single tag body
type ephemeralDetection struct {
	key ephemeralKey
	det marker.Detection
}

// Registry assigns each frame's detections to configured rigid bodies and
// estimates their pose
type Registry struct {
	// bodies in configuration order
	bodies []*marker.RigidBody
	// scratch holds the per frame observation of bodies[i]
	scratch []Observation
	// markerSize is the side length used for ephemeral single tag bodies
	markerSize float64
	log        *zap.SugaredLogger
}

// NewRegistry returns a registry for the given rigid bodies.  Body names must
// be unique and markerSize is used to build ephemeral single tag bodies for
// markers no configured body claims
func NewRegistry(bodies []*marker.RigidBody, markerSize float64,
	log *zap.SugaredLogger) (*Registry, error) {

	if markerSize <= 0 {
		return nil, errors.Wrapf(marker.ErrMalformedGeometry, "marker size %v must be positive", markerSize)
	}

	if log == nil {
		log = zap.NewNop().Sugar()
	}

	names := make(map[string]bool, len(bodies))

	for _, b := range bodies {
		if b == nil {
			return nil, errors.Wrap(marker.ErrMalformedGeometry, "nil rigid body")
		}

		if names[b.Name] {
			return nil, errors.Wrapf(marker.ErrMalformedGeometry, "duplicate rigid body name %q", b.Name)
		}

		names[b.Name] = true
	}

	r := &Registry{
		bodies:     bodies,
		scratch:    make([]Observation, len(bodies)),
		markerSize: markerSize,
		log:        log,
	}

	for i := range r.scratch {
		r.scratch[i] = *NewObservation()
	}

	return r, nil
}

// Names returns the configured rigid body names in configuration order
func (r *Registry) Names() []string {
	names := make([]string, len(r.bodies))

	for i, b := range r.bodies {
		names[i] = b.Name
	}

	return names
}

// Update runs the detector once per vocabulary, assigns the detections to
// every configured body and estimates each body's pose.  Results are the
// configured bodies in configuration order, always present even when unseen,
// followed by ephemeral bodies in detection order.  A nil camera selects the
// uncalibrated estimate
func (r *Registry) Update(img image.Image, detector Detector,
	vocabs []marker.Vocabulary, cam *pose.Camera) ([]Result, error) {

	for i := range r.scratch {
		r.scratch[i].Reset()
	}

	var unclaimed []ephemeralDetection
	seen := make(map[ephemeralKey]bool)

	// every vocabulary is processed, an empty result for one does not stop
	// the remainder
	for _, vocab := range vocabs {

		dets, err := detector.Detect(img, vocab)

		if err != nil {
			return nil, errors.Wrapf(err, "error detecting %s markers", vocab)
		}

		r.log.Debugw("markers detected", "vocabulary", vocab.String(), "count", len(dets))

		for i, body := range r.bodies {
			r.scratch[i].Assign(body, vocab, dets)
		}

		for _, det := range dets {
			key := ephemeralKey{vocab: vocab, id: det.ID}

			if seen[key] || r.claimed(vocab, det.ID) {
				continue
			}

			seen[key] = true
			unclaimed = append(unclaimed, ephemeralDetection{key: key, det: det})
		}
	}

	results := make([]Result, 0, len(r.bodies)+len(unclaimed))

	for i, body := range r.bodies {
		res, err := r.estimate(body, &r.scratch[i], cam)

		if err != nil {
			return nil, err
		}

		results = append(results, res)
	}

	for _, u := range unclaimed {
		body, err := marker.NewSingleTag(marker.EphemeralName(u.key.vocab, u.key.id),
			u.key.vocab, u.key.id, r.markerSize)

		if err != nil {
			return nil, err
		}

		obs := NewObservation()
		obs.Assign(body, u.key.vocab, []marker.Detection{u.det})

		res, err := r.estimate(body, obs, cam)

		if err != nil {
			return nil, err
		}

		res.Ephemeral = true
		results = append(results, res)
	}

	return results, nil
}

// claimed reports if any configured body of the vocabulary carries the id
func (r *Registry) claimed(vocab marker.Vocabulary, id int) bool {
	for _, body := range r.bodies {
		if body.Vocabulary == vocab && body.Has(id) {
			return true
		}
	}

	return false
}

// estimate solves a single body's pose.  A failed numeric solve is logged
// and reported as the unknown pose, a solver invariant violation is returned
func (r *Registry) estimate(body *marker.RigidBody, obs *Observation,
	cam *pose.Camera) (Result, error) {

	p, quality, err := EstimatePose(body, obs, cam)

	if err != nil {
		if !errors.Is(err, pose.ErrNoSolution) {
			return Result{}, fmt.Errorf("rigid body %q: %w", body.Name, err)
		}

		r.log.Warnw("pose solve failed", "body", body.Name, "markers", obs.Len(), "error", err)
		p = pose.Unknown()
	}

	return Result{
		Name:    body.Name,
		Pose:    p,
		Quality: quality,
		Markers: obs.Detections(),
	}, nil
}
