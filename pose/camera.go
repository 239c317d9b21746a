package pose

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

const (
	// undistortIterations is the maximum number of Newton-Raphson steps used
	// to invert the lens distortion model
	undistortIterations = 20
	// undistortTolerance is the squared error at which undistortion stops
	undistortTolerance = 1e-10
)

// Camera holds the pinhole intrinsics and Brown-Conrady lens distortion of a
// calibrated camera
type Camera struct {
	// Fx and Fy are the focal lengths in pixels
	Fx, Fy float64
	// Cx and Cy are the principal point in pixels
	Cx, Cy float64
	// Skew is the axis skew term of the intrinsic matrix
	Skew float64
	// Distortion coefficients in the order k1, k2, p1, p2, k3
	Distortion [5]float64
}

// NewCamera returns a Camera from a 3x3 intrinsic matrix and up to five
// distortion coefficients, missing coefficients are zero
func NewCamera(matrix [][]float64, distortion []float64) (*Camera, error) {

	if len(matrix) != 3 {
		return nil, errors.Wrapf(ErrCalibrationShape, "projection matrix has %d rows, expected 3", len(matrix))
	}

	for i, row := range matrix {
		if len(row) != 3 {
			return nil, errors.Wrapf(ErrCalibrationShape,
				"projection matrix row %d has %d columns, expected 3", i, len(row))
		}

		for j, v := range row {
			if !representable(v) {
				return nil, errors.Wrapf(ErrCalibrationShape,
					"projection matrix element (%d,%d) = %v is not a finite float32", i, j, v)
			}
		}
	}

	if matrix[1][0] != 0 || matrix[2][0] != 0 || matrix[2][1] != 0 || matrix[2][2] != 1 {
		return nil, errors.Wrap(ErrCalibrationShape, "projection matrix is not an upper triangular intrinsic matrix")
	}

	if matrix[0][0] <= 0 || matrix[1][1] <= 0 {
		return nil, errors.Wrapf(ErrCalibrationShape,
			"invalid focal length fx = %v, fy = %v", matrix[0][0], matrix[1][1])
	}

	if len(distortion) > 5 {
		return nil, errors.Wrapf(ErrCalibrationShape,
			"distortion has %d coefficients, expected at most 5", len(distortion))
	}

	cam := &Camera{
		Fx:   matrix[0][0],
		Fy:   matrix[1][1],
		Cx:   matrix[0][2],
		Cy:   matrix[1][2],
		Skew: matrix[0][1],
	}

	for i, v := range distortion {
		if !representable(v) {
			return nil, errors.Wrapf(ErrCalibrationShape,
				"distortion coefficient %d = %v is not a finite float32", i, v)
		}

		cam.Distortion[i] = v
	}

	return cam, nil
}

// representable reports if v is finite and in float32 range
func representable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && math.Abs(v) <= math.MaxFloat32
}

// Matrix returns the 3x3 intrinsic matrix
func (c *Camera) Matrix() [][]float64 {
	return [][]float64{
		{c.Fx, c.Skew, c.Cx},
		{0, c.Fy, c.Cy},
		{0, 0, 1},
	}
}

// distort applies the lens model to a point on the normalised image plane
func (c *Camera) distort(p r2.Point) r2.Point {

	k1, k2, p1, p2, k3 := c.Distortion[0], c.Distortion[1], c.Distortion[2],
		c.Distortion[3], c.Distortion[4]

	x, y := p.X, p.Y
	rr := x*x + y*y
	radial := 1 + k1*rr + k2*rr*rr + k3*rr*rr*rr

	return r2.Point{
		X: x*radial + 2*p1*x*y + p2*(rr+2*x*x),
		Y: y*radial + p1*(rr+2*y*y) + 2*p2*x*y,
	}
}

// ToPixel maps a point on the normalised image plane to pixel coordinates
// applying lens distortion
func (c *Camera) ToPixel(p r2.Point) r2.Point {
	d := c.distort(p)
	return r2.Point{
		X: c.Fx*d.X + c.Skew*d.Y + c.Cx,
		Y: c.Fy*d.Y + c.Cy,
	}
}

// Project maps a point in the camera frame to pixel coordinates.  Points on
// or behind the camera plane project to NaN
func (c *Camera) Project(v r3.Vector) r2.Point {
	if v.Z <= 0 {
		return r2.Point{X: math.NaN(), Y: math.NaN()}
	}

	return c.ToPixel(r2.Point{X: v.X / v.Z, Y: v.Y / v.Z})
}

// Undistort maps pixel coordinates to the undistorted normalised image plane
// by inverting the lens model with Newton-Raphson iteration
func (c *Camera) Undistort(px r2.Point) r2.Point {

	yd := (px.Y - c.Cy) / c.Fy
	xd := (px.X - c.Cx - c.Skew*yd) / c.Fx

	k1, k2, p1, p2, k3 := c.Distortion[0], c.Distortion[1], c.Distortion[2],
		c.Distortion[3], c.Distortion[4]

	// start with the distorted point as initial guess
	xu, yu := xd, yd

	for i := 0; i < undistortIterations; i++ {
		rr := xu*xu + yu*yu
		rr2 := rr * rr

		radial := 1 + k1*rr + k2*rr2 + k3*rr2*rr
		est := c.distort(r2.Point{X: xu, Y: yu})

		errX := est.X - xd
		errY := est.Y - yd

		if errX*errX+errY*errY < undistortTolerance*undistortTolerance {
			break
		}

		// jacobian of the forward distortion
		dRad := 2 * (k1 + 2*k2*rr + 3*k3*rr2)
		dxdx := radial + xu*xu*dRad + 2*p1*yu + 6*p2*xu
		dxdy := xu*yu*dRad + 2*p1*xu + 2*p2*yu
		dydx := yu*xu*dRad + 2*p1*xu + 2*p2*yu
		dydy := radial + yu*yu*dRad + 6*p1*yu + 2*p2*xu

		det := dxdx*dydy - dxdy*dydx

		if det == 0 {
			break
		}

		xu -= (dydy*errX - dxdy*errY) / det
		yu -= (-dydx*errX + dxdx*errY) / det
	}

	return r2.Point{X: xu, Y: yu}
}
