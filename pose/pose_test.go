package pose

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/swdee/go-arucotracker/marker"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

// testCamera returns a calibrated camera with moderate lens distortion
func testCamera(t *testing.T) *Camera {
	t.Helper()

	cam, err := NewCamera([][]float64{
		{800, 0, 320},
		{0, 810, 240},
		{0, 0, 1},
	}, []float64{-0.1, 0.01, 0.001, -0.0005, 0})
	test.That(t, err, test.ShouldBeNil)

	return cam
}

// squareCorners returns the corners of a square marker of the given size
// centred at (cx, cy, cz) in the body frame
func squareCorners(cx, cy, cz, size float64) [4]r3.Vector {
	h := size / 2
	return [4]r3.Vector{
		{X: cx - h, Y: cy + h, Z: cz},
		{X: cx + h, Y: cy + h, Z: cz},
		{X: cx + h, Y: cy - h, Z: cz},
		{X: cx - h, Y: cy - h, Z: cz},
	}
}

// projectQuad projects body frame corners through the pose and camera
func projectQuad(cam *Camera, p Pose, corners [4]r3.Vector) marker.Quad {
	var q marker.Quad

	for i, c := range corners {
		q[i] = cam.Project(p.Transform(c))
	}

	return q
}

// rotationsClose compares two rotations element wise
func rotationsClose(a, b Rotation, epsilon float64) bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(a[i][j]-b[i][j]) > epsilon {
				return false
			}
		}
	}

	return true
}

func TestRotationRoundTrip(t *testing.T) {
	vectors := []r3.Vector{
		{X: 0, Y: 0, Z: 0},
		{X: 0.2, Y: -0.3, Z: 0.1},
		{X: 1.2, Y: 0.4, Z: -0.9},
		{X: 0, Y: 0, Z: math.Pi - 1e-3},
		{X: -2.0, Y: 0.5, Z: 0.3},
	}

	for _, v := range vectors {
		r := RotationFromAxisAngle(v)

		// orthonormal
		test.That(t, rotationsClose(r.Mul(r.Transpose()), Identity(), 1e-12), test.ShouldBeTrue)

		back := r.AxisAngle()
		test.That(t, back.X, test.ShouldAlmostEqual, v.X, 1e-9)
		test.That(t, back.Y, test.ShouldAlmostEqual, v.Y, 1e-9)
		test.That(t, back.Z, test.ShouldAlmostEqual, v.Z, 1e-9)

		q := r.Quaternion()
		test.That(t, quat.Abs(q), test.ShouldAlmostEqual, 1, 1e-12)
		test.That(t, q.Real, test.ShouldBeGreaterThanOrEqualTo, 0.0)
		test.That(t, rotationsClose(RotationFromQuaternion(q), r, 1e-12), test.ShouldBeTrue)
	}
}

func TestRotationQuaternionSignInvariant(t *testing.T) {
	q := quat.Number{Real: 0.5, Imag: 0.5, Jmag: -0.5, Kmag: 0.5}
	r1 := RotationFromQuaternion(q)
	r2 := RotationFromQuaternion(quat.Scale(-1, q))

	test.That(t, rotationsClose(r1, r2, 1e-12), test.ShouldBeTrue)
}

func TestPoseMatrix(t *testing.T) {
	m := Unknown().Matrix()
	rows, cols := m.Dims()
	test.That(t, rows, test.ShouldEqual, 4)
	test.That(t, cols, test.ShouldEqual, 4)

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			test.That(t, math.IsNaN(m.At(i, j)), test.ShouldBeTrue)
		}
	}

	p := Known(RotationFromAxisAngle(r3.Vector{Z: math.Pi / 2}), r3.Vector{X: 1, Y: 2, Z: 3})
	m = p.Matrix()
	test.That(t, m.At(0, 1), test.ShouldAlmostEqual, -1)
	test.That(t, m.At(1, 0), test.ShouldAlmostEqual, 1)
	test.That(t, m.At(2, 3), test.ShouldAlmostEqual, 3)
	test.That(t, m.At(3, 0), test.ShouldEqual, 0.0)
	test.That(t, m.At(3, 3), test.ShouldEqual, 1.0)
	test.That(t, Unknown().IsKnown(), test.ShouldBeFalse)
	test.That(t, p.IsKnown(), test.ShouldBeTrue)
}

func TestRotationColumn(t *testing.T) {
	r := RotationFromAxisAngle(r3.Vector{Z: math.Pi / 2})

	// body x axis points along camera y after a quarter turn about z
	x := r.Column(0)
	test.That(t, x.X, test.ShouldAlmostEqual, 0)
	test.That(t, x.Y, test.ShouldAlmostEqual, 1)
	test.That(t, x.Z, test.ShouldAlmostEqual, 0)

	d := r.Dense()
	y := r.Column(1)
	test.That(t, d.At(0, 1), test.ShouldAlmostEqual, y.X)
	test.That(t, d.At(1, 1), test.ShouldAlmostEqual, y.Y)
	test.That(t, d.At(2, 1), test.ShouldAlmostEqual, y.Z)
}

func TestNewCameraShape(t *testing.T) {
	cases := []struct {
		name   string
		matrix [][]float64
		dist   []float64
	}{
		{"two rows", [][]float64{{800, 0, 320}, {0, 800, 240}}, nil},
		{"short row", [][]float64{{800, 0}, {0, 800, 240}, {0, 0, 1}}, nil},
		{"nan", [][]float64{{math.NaN(), 0, 320}, {0, 800, 240}, {0, 0, 1}}, nil},
		{"beyond float32", [][]float64{{1e39, 0, 320}, {0, 800, 240}, {0, 0, 1}}, nil},
		{"zero focal", [][]float64{{0, 0, 320}, {0, 800, 240}, {0, 0, 1}}, nil},
		{"bottom row", [][]float64{{800, 0, 320}, {0, 800, 240}, {0, 0, 2}}, nil},
		{"long distortion", [][]float64{{800, 0, 320}, {0, 800, 240}, {0, 0, 1}}, []float64{0, 0, 0, 0, 0, 0}},
		{"inf distortion", [][]float64{{800, 0, 320}, {0, 800, 240}, {0, 0, 1}}, []float64{math.Inf(1)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCamera(tc.matrix, tc.dist)
			test.That(t, errors.Is(err, ErrCalibrationShape), test.ShouldBeTrue)
		})
	}

	cam, err := NewCamera([][]float64{{800, 0, 320}, {0, 800, 240}, {0, 0, 1}}, []float64{0.1, 0.2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cam.Distortion, test.ShouldResemble, [5]float64{0.1, 0.2, 0, 0, 0})
	test.That(t, cam.Matrix()[1][2], test.ShouldEqual, 240.0)
}

func TestParseCamera(t *testing.T) {
	cam, err := ParseCamera(strings.NewReader(`
800 0 320
0 810 240
0 0 1
-0.1 0.01 0.001 -0.0005 0
`))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cam.Fy, test.ShouldEqual, 810.0)
	test.That(t, cam.Distortion[3], test.ShouldEqual, -0.0005)

	cam, err = ParseCamera(strings.NewReader("800 0 320\n0 800 240\n0 0 1\n"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cam.Distortion, test.ShouldResemble, [5]float64{})

	_, err = ParseCamera(strings.NewReader("800 0 320 1\n0 800 240 1\n0 0 1 1\n"))
	test.That(t, errors.Is(err, ErrCalibrationShape), test.ShouldBeTrue)

	_, err = ParseCamera(strings.NewReader("800 0 320\n0 800 240\n"))
	test.That(t, errors.Is(err, ErrCalibrationShape), test.ShouldBeTrue)
}

func TestUndistortInvertsDistortion(t *testing.T) {
	cam := testCamera(t)

	for _, p := range []r2.Point{{X: 0, Y: 0}, {X: 0.2, Y: -0.1}, {X: -0.35, Y: 0.3}} {
		u := cam.Undistort(cam.ToPixel(p))
		test.That(t, u.X, test.ShouldAlmostEqual, p.X, 1e-9)
		test.That(t, u.Y, test.ShouldAlmostEqual, p.Y, 1e-9)
	}
}

func TestSolveSingleMarker(t *testing.T) {
	cam := testCamera(t)
	truth := Known(RotationFromAxisAngle(r3.Vector{X: 0.2, Y: -0.3, Z: 0.1}), r3.Vector{X: 20, Y: -10, Z: 500})
	corners := squareCorners(0, 0, 0, 50)

	p, err := SolveSingleMarker(Match{ID: 3, Object: corners, Image: projectQuad(cam, truth, corners)}, cam)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.IsKnown(), test.ShouldBeTrue)
	test.That(t, p.Translation.X, test.ShouldAlmostEqual, 20, 1e-3)
	test.That(t, p.Translation.Y, test.ShouldAlmostEqual, -10, 1e-3)
	test.That(t, p.Translation.Z, test.ShouldAlmostEqual, 500, 1e-3)
	test.That(t, rotationsClose(p.Rotation, truth.Rotation, 1e-5), test.ShouldBeTrue)
}

func TestSolveBoardPlanar(t *testing.T) {
	cam := testCamera(t)
	truth := Known(RotationFromAxisAngle(r3.Vector{X: -0.4, Y: 0.25, Z: 1.0}), r3.Vector{X: -30, Y: 15, Z: 700})

	var matches []Match

	for i, c := range []r3.Vector{{}, {X: 100}, {Y: 80}} {
		corners := squareCorners(c.X, c.Y, c.Z, 50)
		matches = append(matches, Match{ID: i, Object: corners, Image: projectQuad(cam, truth, corners)})
	}

	p, used, err := SolveBoard(matches, cam)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, used, test.ShouldEqual, 3)
	test.That(t, p.Translation.X, test.ShouldAlmostEqual, -30, 1e-3)
	test.That(t, p.Translation.Y, test.ShouldAlmostEqual, 15, 1e-3)
	test.That(t, p.Translation.Z, test.ShouldAlmostEqual, 700, 1e-3)
	test.That(t, rotationsClose(p.Rotation, truth.Rotation, 1e-5), test.ShouldBeTrue)
}

func TestSolveBoardNonPlanar(t *testing.T) {
	cam := testCamera(t)
	truth := Known(RotationFromAxisAngle(r3.Vector{X: 0.3, Y: 0.2, Z: -0.5}), r3.Vector{X: 10, Y: 25, Z: 600})

	tilted := [4]r3.Vector{
		{X: 75, Y: 25, Z: 20},
		{X: 125, Y: 25, Z: 40},
		{X: 125, Y: -25, Z: 40},
		{X: 75, Y: -25, Z: 20},
	}
	flat := squareCorners(0, 0, 0, 50)

	matches := []Match{
		{ID: 0, Object: flat, Image: projectQuad(cam, truth, flat)},
		{ID: 1, Object: tilted, Image: projectQuad(cam, truth, tilted)},
	}

	p, err := EstimateCalibrated(matches, cam)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Translation.X, test.ShouldAlmostEqual, 10, 1e-3)
	test.That(t, p.Translation.Y, test.ShouldAlmostEqual, 25, 1e-3)
	test.That(t, p.Translation.Z, test.ShouldAlmostEqual, 600, 1e-3)
	test.That(t, rotationsClose(p.Rotation, truth.Rotation, 1e-5), test.ShouldBeTrue)
}

func TestEstimateCalibratedScaling(t *testing.T) {
	cam := testCamera(t)
	truth := Known(RotationFromAxisAngle(r3.Vector{X: 0.1, Y: 0.4, Z: 0}), r3.Vector{X: 5, Y: 5, Z: 400})
	corners := squareCorners(0, 0, 0, 50)
	image := projectQuad(cam, truth, corners)

	const k = 2.5
	var scaled [4]r3.Vector

	for i, c := range corners {
		scaled[i] = c.Mul(k)
	}

	p, err := EstimateCalibrated([]Match{{Object: scaled, Image: image}}, cam)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Translation.X, test.ShouldAlmostEqual, 5*k, 1e-3)
	test.That(t, p.Translation.Y, test.ShouldAlmostEqual, 5*k, 1e-3)
	test.That(t, p.Translation.Z, test.ShouldAlmostEqual, 400*k, 1e-3)
	test.That(t, rotationsClose(p.Rotation, truth.Rotation, 1e-5), test.ShouldBeTrue)
}

func TestEstimateCalibratedNoMatches(t *testing.T) {
	p, err := EstimateCalibrated(nil, testCamera(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.IsKnown(), test.ShouldBeFalse)
}

func TestEstimateCalibratedInvariant(t *testing.T) {
	cam := testCamera(t)
	truth := Known(Identity(), r3.Vector{Z: 500})

	a := squareCorners(0, 0, 0, 50)
	b := squareCorners(100, 0, 0, 50)

	bad := projectQuad(cam, truth, b)
	bad[2] = r2.Point{X: math.NaN(), Y: math.NaN()}

	_, err := EstimateCalibrated([]Match{
		{ID: 0, Object: a, Image: projectQuad(cam, truth, a)},
		{ID: 1, Object: b, Image: bad},
	}, cam)
	test.That(t, errors.Is(err, ErrSolverInvariant), test.ShouldBeTrue)
}

func TestSolvePnPInput(t *testing.T) {
	cam := testCamera(t)
	corners := squareCorners(0, 0, 0, 50)

	_, err := SolvePnP(corners[:3], []r2.Point{{}, {}, {}}, cam)
	test.That(t, errors.Is(err, ErrNoSolution), test.ShouldBeTrue)

	_, err = SolvePnP(corners[:], []r2.Point{{}, {}, {}}, cam)
	test.That(t, errors.Is(err, ErrNoSolution), test.ShouldBeTrue)
}

func TestEstimateUncalibrated(t *testing.T) {
	test.That(t, EstimateUncalibrated(nil).IsKnown(), test.ShouldBeFalse)

	quads := []marker.Quad{
		{{X: 0, Y: 0}, {X: 30, Y: 0}, {X: 30, Y: 40}, {X: 0, Y: 40}},
		{{X: 100, Y: 100}, {X: 160, Y: 100}, {X: 160, Y: 180}, {X: 100, Y: 180}},
	}

	p := EstimateUncalibrated(quads)
	test.That(t, p.IsKnown(), test.ShouldBeTrue)
	test.That(t, p.Translation.X, test.ShouldAlmostEqual, (15+130)/2.0)
	test.That(t, p.Translation.Y, test.ShouldAlmostEqual, (20+140)/2.0)
	test.That(t, p.Translation.Z, test.ShouldAlmostEqual, -(50+100)/2.0)
	test.That(t, p.Rotation, test.ShouldResemble, Identity())
}

func TestQuality(t *testing.T) {
	test.That(t, Quality(11, 12), test.ShouldAlmostEqual, 0.91666, 1e-4)
	test.That(t, Quality(1, 1), test.ShouldEqual, 1.0)
	test.That(t, Quality(0, 4), test.ShouldEqual, 0.0)
	test.That(t, Quality(0, 0), test.ShouldEqual, 0.0)
}
