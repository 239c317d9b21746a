package tracker

import (
	"image"
	"sync"
)

// Trail is the struct to keep a history of body image positions used for
// drawing a trail
type Trail struct {
	// size is the maximum number of most recent points to keep in history
	size int
	// history of tracked points keyed by body name
	history map[string][]image.Point
	sync.Mutex
}

// NewTrail returns a new trail history instance.  Size is the number of most
// recent positions to keep and specifies the maximum length of the trail to
// maintain
func NewTrail(size int) *Trail {
	return &Trail{
		size:    size,
		history: make(map[string][]image.Point),
	}
}

// Reset clears all history
func (t *Trail) Reset() {
	t.Lock()
	defer t.Unlock()

	t.history = make(map[string][]image.Point)
}

// Add the image position of the body's marker centres to its history.
// Results with no observed markers leave the history unchanged
func (t *Trail) Add(res Result) {

	if len(res.Markers) == 0 {
		return
	}

	var x, y float64

	for _, m := range res.Markers {
		c := m.Corners.Centre()
		x += c.X
		y += c.Y
	}

	n := float64(len(res.Markers))

	t.Lock()
	defer t.Unlock()

	points := append(t.history[res.Name], image.Pt(int(x/n), int(y/n)))

	// check if history is exceeded and drop oldest point
	if len(points) > t.size {
		points = points[1:]
	}

	t.history[res.Name] = points
}

// GetPoints gets the point history for a specific body
func (t *Trail) GetPoints(name string) []image.Point {
	t.Lock()
	defer t.Unlock()

	if points, exists := t.history[name]; exists {
		return points
	}

	// no history yet
	return nil
}
