package tracker

import (
	"sync"

	"github.com/golang/geo/r3"
	"github.com/swdee/go-arucotracker/pose"
	"gonum.org/v1/gonum/num/quat"
)

// degenerateNorm is the quaternion mean magnitude below which no rotation
// can be recovered
const degenerateNorm = 1e-9

// sample is a single buffered pose
type sample struct {
	rotation    quat.Number
	translation r3.Vector
}

// history is the bounded pose history of one body
type history struct {
	samples []sample
}

// Smoother averages each body's most recent known poses to suppress frame
// to frame jitter
type Smoother struct {
	// size is the maximum number of most recent poses kept per body
	size int
	// buffers of pose history keyed by body name
	buffers map[string]*history
	sync.Mutex
}

// NewSmoother returns a smoother keeping the given number of poses per
// body.  A size below one is treated as one, which disables smoothing
func NewSmoother(size int) *Smoother {
	if size < 1 {
		size = 1
	}

	return &Smoother{
		size:    size,
		buffers: make(map[string]*history),
	}
}

// Size returns the per body buffer capacity
func (s *Smoother) Size() int {
	return s.size
}

// Reset clears all history
func (s *Smoother) Reset() {
	s.Lock()
	defer s.Unlock()

	s.buffers = make(map[string]*history)
}

// Len returns the number of poses buffered for the body
func (s *Smoother) Len(name string) int {
	s.Lock()
	defer s.Unlock()

	if h, exists := s.buffers[name]; exists {
		return len(h.samples)
	}

	return 0
}

// Smooth adds the pose to the body's history and returns the average of the
// buffered poses.  Unknown poses are returned unchanged and leave the
// history untouched
func (s *Smoother) Smooth(name string, p pose.Pose) pose.Pose {

	if !p.IsKnown() {
		return p
	}

	s.Lock()
	defer s.Unlock()

	// init map if no history exists yet for body
	if _, exists := s.buffers[name]; !exists {
		s.buffers[name] = &history{}
	}

	h := s.buffers[name]

	h.samples = append(h.samples, sample{
		rotation:    p.Quaternion(),
		translation: p.Translation,
	})

	// check if history is exceeded and drop oldest pose
	if len(h.samples) > s.size {
		h.samples = h.samples[1:]
	}

	rotations := make([]quat.Number, len(h.samples))
	var t r3.Vector

	for i, smp := range h.samples {
		rotations[i] = smp.rotation
		t = t.Add(smp.translation)
	}

	q, ok := AverageQuaternions(rotations)

	if !ok {
		return pose.Unknown()
	}

	return pose.FromQuaternion(q, t.Mul(1/float64(len(h.samples))))
}

// AverageQuaternions returns the normalised component wise mean of unit
// quaternions.  Each quaternion is first sign aligned with the first one as
// q and -q describe the same rotation.  False is returned when the mean is
// too close to zero to normalise
func AverageQuaternions(qs []quat.Number) (quat.Number, bool) {

	if len(qs) == 0 {
		return quat.Number{}, false
	}

	ref := qs[0]
	var sum quat.Number

	for _, q := range qs {
		if dot(q, ref) < 0 {
			q = quat.Scale(-1, q)
		}

		sum = quat.Add(sum, q)
	}

	mean := quat.Scale(1/float64(len(qs)), sum)
	n := quat.Abs(mean)

	if n < degenerateNorm {
		return quat.Number{}, false
	}

	return quat.Scale(1/n, mean), true
}

// dot returns the four dimensional dot product of two quaternions
func dot(a, b quat.Number) float64 {
	return a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
}
