package vision

import (
	"fmt"
	"image"
	"strconv"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ErrUnknownProperty is returned when a capture property name is not
// supported
var ErrUnknownProperty = errors.New("unknown capture property")

// captureProperties maps OpenCV capture property names to their gocv values
var captureProperties = map[string]gocv.VideoCaptureProperties{
	"CAP_PROP_FRAME_WIDTH":  gocv.VideoCaptureFrameWidth,
	"CAP_PROP_FRAME_HEIGHT": gocv.VideoCaptureFrameHeight,
	"CAP_PROP_FPS":          gocv.VideoCaptureFPS,
	"CAP_PROP_FOURCC":       gocv.VideoCaptureFOURCC,
	"CAP_PROP_BRIGHTNESS":   gocv.VideoCaptureBrightness,
	"CAP_PROP_CONTRAST":     gocv.VideoCaptureContrast,
	"CAP_PROP_SATURATION":   gocv.VideoCaptureSaturation,
	"CAP_PROP_HUE":          gocv.VideoCaptureHue,
	"CAP_PROP_GAIN":         gocv.VideoCaptureGain,
	"CAP_PROP_EXPOSURE":     gocv.VideoCaptureExposure,
	"CAP_PROP_AUTOFOCUS":    gocv.VideoCaptureAutoFocus,
	"CAP_PROP_FOCUS":        gocv.VideoCaptureFocus,
	"CAP_PROP_BUFFERSIZE":   gocv.VideoCaptureBufferSize,
}

// CaptureProperty returns the gocv property for an OpenCV property name
func CaptureProperty(name string) (gocv.VideoCaptureProperties, error) {

	prop, ok := captureProperties[name]

	if !ok {
		return 0, errors.Wrapf(ErrUnknownProperty, "%q", name)
	}

	return prop, nil
}

// VideoSource reads frames from a camera, video file or stream using OpenCV
type VideoSource struct {
	capture *gocv.VideoCapture
	// buf is reused for every frame read
	buf gocv.Mat
}

// NewVideoSource returns an unopened video source
func NewVideoSource() *VideoSource {
	return &VideoSource{}
}

// Open the source.  Numeric sources are treated as camera device ids,
// anything else as a file name or url
func (v *VideoSource) Open(source string) error {

	var device interface{} = source

	if id, err := strconv.Atoi(source); err == nil {
		device = id
	}

	capture, err := gocv.OpenVideoCapture(device)

	if err != nil {
		return fmt.Errorf("error opening video capture: %w", err)
	}

	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("video capture %q is not opened", source)
	}

	v.capture = capture
	v.buf = gocv.NewMat()

	return nil
}

// SetProperty sets a capture property by its OpenCV name eg:
// CAP_PROP_FRAME_WIDTH
func (v *VideoSource) SetProperty(name string, value float64) error {

	prop, err := CaptureProperty(name)

	if err != nil {
		return err
	}

	if v.capture == nil {
		return fmt.Errorf("video source is not open")
	}

	v.capture.Set(prop, value)

	return nil
}

// Read the next frame.  The returned Frame shares a buffer that is
// overwritten by the next call to Read
func (v *VideoSource) Read() (image.Image, error) {

	if v.capture == nil {
		return nil, fmt.Errorf("video source is not open")
	}

	if ok := v.capture.Read(&v.buf); !ok {
		return nil, fmt.Errorf("error reading video frame")
	}

	if v.buf.Empty() {
		return nil, fmt.Errorf("empty video frame")
	}

	return NewFrame(v.buf), nil
}

// Release closes the capture device and frame buffer
func (v *VideoSource) Release() error {

	if v.capture == nil {
		return nil
	}

	err := v.capture.Close()
	v.buf.Close()
	v.capture = nil

	return err
}
