package arucotracker

import (
	"fmt"
	"image"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/swdee/go-arucotracker/marker"
	"github.com/swdee/go-arucotracker/pose"
	"github.com/swdee/go-arucotracker/tracker"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// State is the lifecycle state of a Tracker
type State int

const (
	// StateReady is a constructed tracker that is not tracking
	StateReady State = iota + 1
	// StateTracking accepts GetFrame calls
	StateTracking
	// StateClosed has released its resources and accepts no operations
	StateClosed
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateTracking:
		return "tracking"
	case StateClosed:
		return "closed"
	default:
		return "uninitialized"
	}
}

// Option configures optional Tracker dependencies
type Option func(*Tracker)

// WithLogger sets the logger, the default discards all output
func WithLogger(log *zap.SugaredLogger) Option {
	return func(t *Tracker) {
		if log != nil {
			t.log = log
		}
	}
}

// WithClock sets the clock used to timestamp frames
func WithClock(clk clock.Clock) Option {
	return func(t *Tracker) {
		if clk != nil {
			t.clock = clk
		}
	}
}

// Tracker estimates the pose of ArUco marker rigid bodies from video frames.
// It is not safe for concurrent use
type Tracker struct {
	// vocabs are the marker vocabularies detected each frame, default first
	vocabs []marker.Vocabulary
	// camera is nil when no calibration was configured
	camera   *pose.Camera
	registry *tracker.Registry
	smoother *tracker.Smoother
	detector Detector
	// capture is nil when no video source was configured
	capture Capture
	state   State
	// frameNumber is the number of frames processed
	frameNumber int
	log         *zap.SugaredLogger
	clock       clock.Clock
}

// New validates the configuration, builds the rigid bodies and opens the
// video source if one is configured.  The returned tracker is Ready.  The
// capture may be nil when cfg has no video source
func New(cfg Config, detector Detector, capture Capture, opts ...Option) (*Tracker, error) {

	t := &Tracker{
		detector: detector,
		log:      zap.NewNop().Sugar(),
		clock:    clock.New(),
	}

	for _, opt := range opts {
		opt(t)
	}

	if detector == nil {
		return nil, errors.Wrap(ErrConfiguration, "no marker detector")
	}

	// defaults are written per body so work on a copy of the caller's slice
	cfg.RigidBodies = append([]RigidBodyConfig(nil), cfg.RigidBodies...)
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	def, err := marker.ParseVocabulary(cfg.ArucoDictionary)

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	bodies, err := loadBodies(cfg.RigidBodies)

	if err != nil {
		return nil, err
	}

	others := make([]marker.Vocabulary, len(bodies))

	for i, b := range bodies {
		others[i] = b.Vocabulary
	}

	t.vocabs = marker.Vocabularies(def, others...)

	t.camera, err = loadCamera(cfg)

	if err != nil {
		return nil, err
	}

	t.registry, err = tracker.NewRegistry(bodies, cfg.MarkerSize, t.log)

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	t.smoother = tracker.NewSmoother(cfg.SmoothingBuffer)

	if cfg.HasVideoSource() {
		if err := t.openCapture(cfg, capture); err != nil {
			return nil, err
		}
	}

	t.state = StateReady

	t.log.Infow("tracker ready",
		"vocabularies", lo.Map(t.vocabs, func(v marker.Vocabulary, _ int) string { return v.String() }),
		"rigid_bodies", t.registry.Names(),
		"calibrated", t.camera != nil,
		"video_source", cfg.VideoSource,
		"smoothing", cfg.SmoothingBuffer,
	)

	return t, nil
}

// loadBodies builds the configured rigid bodies, loading geometry files and
// rescaling to measured widths
func loadBodies(cfgs []RigidBodyConfig) ([]*marker.RigidBody, error) {

	bodies := make([]*marker.RigidBody, 0, len(cfgs))

	for _, rc := range cfgs {

		vocab, err := marker.ParseVocabulary(rc.ArucoDictionary)

		if err != nil {
			return nil, fmt.Errorf("%w: rigid body %q: %w", ErrConfiguration, rc.Name, err)
		}

		var tags []marker.Tag

		if rc.Filename != "" {
			tags, err = marker.LoadTags(rc.Filename)
		} else {
			tags, err = marker.TagsFromRows(rc.Tags)
		}

		if err != nil {
			return nil, fmt.Errorf("%w: rigid body %q: %w", ErrConfiguration, rc.Name, err)
		}

		body, err := marker.NewRigidBody(rc.Name, vocab, tags)

		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}

		if rc.TagWidth > 0 {
			body, err = body.Scale(rc.TagWidth)

			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
			}
		}

		bodies = append(bodies, body)
	}

	return bodies, nil
}

// loadCamera returns the configured camera calibration or nil when none is
// configured.  A calibration file takes precedence over inline values
func loadCamera(cfg Config) (*pose.Camera, error) {

	if cfg.Calibration != "" {
		cam, err := pose.LoadCamera(cfg.Calibration)

		if err != nil {
			if errors.Is(err, pose.ErrCalibrationShape) {
				return nil, err
			}

			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}

		return cam, nil
	}

	if cfg.CameraProjection == nil {
		return nil, nil
	}

	return pose.NewCamera(cfg.CameraProjection, cfg.CameraDistortion)
}

// openCapture opens the video source and applies the capture properties
func (t *Tracker) openCapture(cfg Config, capture Capture) error {

	if capture == nil {
		return errors.Wrapf(ErrDeviceOpen, "no capture for video source %q", cfg.VideoSource)
	}

	if err := capture.Open(cfg.VideoSource); err != nil {
		return fmt.Errorf("%w %q: %w", ErrDeviceOpen, cfg.VideoSource, err)
	}

	if len(cfg.CaptureProperties) > 0 {
		setter, ok := capture.(PropertySetter)

		if !ok {
			return multierr.Append(
				errors.Wrap(ErrConfiguration, "video source does not accept capture properties"),
				capture.Release(),
			)
		}

		for name, value := range cfg.CaptureProperties {
			if err := setter.SetProperty(name, value); err != nil {
				return multierr.Append(
					fmt.Errorf("%w: capture property %s: %w", ErrConfiguration, name, err),
					capture.Release(),
				)
			}

			t.log.Debugw("capture property set", "property", name, "value", value)
		}
	}

	t.capture = capture

	return nil
}

// State returns the tracker's lifecycle state
func (t *Tracker) State() State {
	return t.state
}

// Vocabularies returns the marker vocabularies detected each frame in
// detection order
func (t *Tracker) Vocabularies() ([]marker.Vocabulary, error) {

	if t.state == StateClosed {
		return nil, errors.Wrap(ErrState, "vocabularies requested after close")
	}

	return t.vocabs, nil
}

// Camera returns the calibrated camera model, nil when tracking uncalibrated
func (t *Tracker) Camera() *pose.Camera {
	return t.camera
}

// FrameCount returns the number of frames processed so far
func (t *Tracker) FrameCount() int {
	return t.frameNumber
}

// ToolDescriptions returns the names of the configured rigid bodies
func (t *Tracker) ToolDescriptions() ([]string, error) {

	if t.state == StateClosed {
		return nil, errors.Wrap(ErrState, "tool descriptions requested after close")
	}

	return t.registry.Names(), nil
}

// StartTracking moves a Ready tracker to Tracking
func (t *Tracker) StartTracking() error {

	if t.state != StateReady {
		return errors.Wrapf(ErrState, "start tracking when %s", t.state)
	}

	t.state = StateTracking
	t.log.Infow("tracking started")

	return nil
}

// StopTracking moves a Tracking tracker back to Ready
func (t *Tracker) StopTracking() error {

	if t.state != StateTracking {
		return errors.Wrapf(ErrState, "stop tracking when %s", t.state)
	}

	t.state = StateReady
	t.log.Infow("tracking stopped", "frames", t.frameNumber)

	return nil
}

// Close releases the video source.  It may be called from any state and more
// than once, after Close every other operation returns ErrState
func (t *Tracker) Close() error {

	if t.state == StateClosed {
		return nil
	}

	var err error

	if t.capture != nil {
		err = multierr.Append(err, t.capture.Release())
		t.capture = nil
	}

	t.smoother.Reset()
	t.state = StateClosed
	t.log.Infow("tracker closed", "frames", t.frameNumber)

	return err
}

// GetFrame tracks the rigid bodies in img, or in the next frame read from
// the video source when img is nil.  Every configured body is reported even
// when unseen, followed by any unclaimed single markers
func (t *Tracker) GetFrame(img image.Image) (*Frame, error) {

	if t.state != StateTracking {
		return nil, errors.Wrapf(ErrState, "get frame when %s", t.state)
	}

	if img == nil {
		if t.capture == nil {
			return nil, errors.Wrap(ErrFrameAcquisition, "no image supplied and no video source")
		}

		var err error
		img, err = t.capture.Read()

		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFrameAcquisition, err)
		}

		if img == nil {
			return nil, errors.Wrap(ErrFrameAcquisition, "video source returned no image")
		}
	}

	ts := t.clock.Now()

	results, err := t.registry.Update(img, t.detector, t.vocabs, t.camera)

	if err != nil {
		return nil, err
	}

	frame := &Frame{Image: img}
	tracked := 0

	for _, res := range results {
		res.Pose = t.smoother.Smooth(res.Name, res.Pose)

		if res.Pose.IsKnown() {
			tracked++
		}

		frame.add(res, ts, t.frameNumber)
	}

	t.log.Debugw("frame processed", "frame", t.frameNumber, "bodies", frame.Len(), "tracked", tracked)

	t.frameNumber++

	return frame, nil
}
