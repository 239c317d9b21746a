package arucotracker

import (
	"image"
	"time"

	"github.com/swdee/go-arucotracker/tracker"
	"gonum.org/v1/gonum/mat"
)

// Frame is the tracking output of a single GetFrame call.  The slices are
// parallel with one entry per rigid body, configured bodies first in
// configuration order followed by ephemeral single markers in detection
// order
type Frame struct {
	// Handles are the rigid body names, ephemeral markers are named by
	// vocabulary and id eg: "DICT_4X4_50:3"
	Handles []string
	// Timestamps is the wall clock time the frame was processed
	Timestamps []time.Time
	// FrameNumbers is the tracker's frame counter
	FrameNumbers []int
	// Tracking holds 4x4 homogeneous transforms from body to camera frame.
	// Every element is NaN when the body was not seen
	Tracking []*mat.Dense
	// Quality is the fraction of each body's markers that were seen
	Quality []float64
	// Bodies holds the smoothed pose and observed markers of each body
	Bodies []tracker.Result
	// Image is the source image the bodies were tracked in.  Images read
	// from the video source are only valid until the next GetFrame call
	Image image.Image
}

// Len returns the number of rigid bodies reported in the frame
func (f *Frame) Len() int {
	return len(f.Handles)
}

// add appends a single body's entry
func (f *Frame) add(res tracker.Result, ts time.Time, frameNo int) {
	f.Handles = append(f.Handles, res.Name)
	f.Timestamps = append(f.Timestamps, ts)
	f.FrameNumbers = append(f.FrameNumbers, frameNo)
	f.Tracking = append(f.Tracking, res.Pose.Matrix())
	f.Quality = append(f.Quality, res.Quality)
	f.Bodies = append(f.Bodies, res)
}
