package arucotracker

import (
	"github.com/pkg/errors"
	"github.com/swdee/go-arucotracker/pose"
)

var (
	// ErrConfiguration is returned by New when the configuration names an
	// unknown vocabulary, carries malformed geometry or omits a required
	// field
	ErrConfiguration = errors.New("invalid tracker configuration")
	// ErrCalibrationShape is returned by New when the camera intrinsics or
	// distortion have the wrong shape or precision
	ErrCalibrationShape = pose.ErrCalibrationShape
	// ErrDeviceOpen is returned by New when the video source can not be
	// opened
	ErrDeviceOpen = errors.New("failed to open video source")
	// ErrState is returned when an operation is not permitted in the
	// tracker's current state
	ErrState = errors.New("operation not permitted in tracker state")
	// ErrFrameAcquisition is returned by GetFrame when no image was supplied
	// and none could be read from the video source
	ErrFrameAcquisition = errors.New("no frame available")
	// ErrSolverInvariant is returned by GetFrame when the board pose solver
	// used a different number of markers than were matched
	ErrSolverInvariant = pose.ErrSolverInvariant
)
