package pose

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

var (
	// ErrCalibrationShape is returned when camera intrinsics or distortion
	// coefficients have the wrong shape or numeric range
	ErrCalibrationShape = errors.New("camera calibration has wrong shape")
	// ErrSolverInvariant is returned when the board solver reports using a
	// different number of markers than it was given
	ErrSolverInvariant = errors.New("pose solver invariant violated")
	// ErrNoSolution is returned when the numeric solver could not converge
	// on a pose from the supplied correspondences
	ErrNoSolution = errors.New("pose solver found no solution")
)

// Pose is a rigid transform from a body's coordinate frame into the camera
// frame, or unknown when the body was not seen.  The zero value is unknown
type Pose struct {
	// Rotation of the body frame into the camera frame
	Rotation Rotation
	// Translation of the body origin in the camera frame.  Millimetres for
	// calibrated poses, pixels for uncalibrated ones
	Translation r3.Vector
	// known is false for the unknown pose
	known bool
}

// Unknown returns the pose reported for a body that was not seen
func Unknown() Pose {
	return Pose{}
}

// Known returns a pose from a rotation and translation
func Known(r Rotation, t r3.Vector) Pose {
	return Pose{
		Rotation:    r,
		Translation: t,
		known:       true,
	}
}

// FromQuaternion returns a known pose from a quaternion and translation
func FromQuaternion(q quat.Number, t r3.Vector) Pose {
	return Known(RotationFromQuaternion(q), t)
}

// IsKnown reports if the pose holds a transform
func (p Pose) IsKnown() bool {
	return p.known
}

// Quaternion returns the unit quaternion of the pose's rotation
func (p Pose) Quaternion() quat.Number {
	return p.Rotation.Quaternion()
}

// AxisAngle returns the Rodrigues rotation vector of the pose's rotation
func (p Pose) AxisAngle() r3.Vector {
	return p.Rotation.AxisAngle()
}

// Transform maps a point in the body frame into the camera frame
func (p Pose) Transform(v r3.Vector) r3.Vector {
	return p.Rotation.Apply(v).Add(p.Translation)
}

// Matrix returns the pose as a 4x4 homogeneous transform.  Every element is
// NaN when the pose is unknown
func (p Pose) Matrix() *mat.Dense {

	m := mat.NewDense(4, 4, nil)

	if !p.known {
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				m.Set(i, j, math.NaN())
			}
		}

		return m
	}

	m.Slice(0, 3, 0, 3).(*mat.Dense).Copy(p.Rotation.Dense())

	m.Set(0, 3, p.Translation.X)
	m.Set(1, 3, p.Translation.Y)
	m.Set(2, 3, p.Translation.Z)
	m.Set(3, 3, 1)

	return m
}

// String returns a compact human readable form of the pose
func (p Pose) String() string {
	if !p.known {
		return "unknown"
	}

	aa := p.AxisAngle()

	return fmt.Sprintf("t=(%.2f, %.2f, %.2f) r=(%.4f, %.4f, %.4f)",
		p.Translation.X, p.Translation.Y, p.Translation.Z, aa.X, aa.Y, aa.Z)
}
