package arucotracker

import (
	"image"

	"github.com/swdee/go-arucotracker/tracker"
)

// Detector finds the markers of a single vocabulary in an image
type Detector = tracker.Detector

// Capture is a source of video frames
type Capture interface {
	// Open the video source, a camera index, file or stream url
	Open(source string) error
	// Read the next frame
	Read() (image.Image, error)
	// Release the video source
	Release() error
}

// PropertySetter is implemented by captures that accept device properties
// such as frame size, keyed by name eg: CAP_PROP_FRAME_WIDTH
type PropertySetter interface {
	SetProperty(name string, value float64) error
}
