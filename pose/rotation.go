package pose

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// Rotation is a 3x3 rotation matrix in row major order
type Rotation [3][3]float64

// Identity returns the identity rotation
func Identity() Rotation {
	return Rotation{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

// RotationFromAxisAngle converts a Rodrigues rotation vector, whose direction
// is the rotation axis and norm the angle in radians, to a rotation matrix
func RotationFromAxisAngle(v r3.Vector) Rotation {

	theta := v.Norm()

	// skew symmetric cross product matrix of v
	k := Rotation{
		{0, -v.Z, v.Y},
		{v.Z, 0, -v.X},
		{-v.Y, v.X, 0},
	}

	if theta < 1e-12 {
		// first order approximation
		r := Identity()

		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				r[i][j] += k[i][j]
			}
		}

		return r
	}

	a := math.Sin(theta) / theta
	b := (1 - math.Cos(theta)) / (theta * theta)
	kk := k.Mul(k)
	r := Identity()

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] += a*k[i][j] + b*kk[i][j]
		}
	}

	return r
}

// RotationFromQuaternion converts a quaternion to a rotation matrix, the
// quaternion is normalised first
func RotationFromQuaternion(q quat.Number) Rotation {

	n := quat.Abs(q)

	if n == 0 || math.IsNaN(n) {
		return Identity()
	}

	q = quat.Scale(1/n, q)
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag

	return Rotation{
		{1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w)},
		{2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w)},
		{2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y)},
	}
}

// Quaternion converts the rotation to a unit quaternion with a non negative
// real part
func (r Rotation) Quaternion() quat.Number {

	var q quat.Number
	tr := r[0][0] + r[1][1] + r[2][2]

	switch {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2
		q = quat.Number{
			Real: s / 4,
			Imag: (r[2][1] - r[1][2]) / s,
			Jmag: (r[0][2] - r[2][0]) / s,
			Kmag: (r[1][0] - r[0][1]) / s,
		}

	case r[0][0] > r[1][1] && r[0][0] > r[2][2]:
		s := math.Sqrt(1+r[0][0]-r[1][1]-r[2][2]) * 2
		q = quat.Number{
			Real: (r[2][1] - r[1][2]) / s,
			Imag: s / 4,
			Jmag: (r[0][1] + r[1][0]) / s,
			Kmag: (r[0][2] + r[2][0]) / s,
		}

	case r[1][1] > r[2][2]:
		s := math.Sqrt(1+r[1][1]-r[0][0]-r[2][2]) * 2
		q = quat.Number{
			Real: (r[0][2] - r[2][0]) / s,
			Imag: (r[0][1] + r[1][0]) / s,
			Jmag: s / 4,
			Kmag: (r[1][2] + r[2][1]) / s,
		}

	default:
		s := math.Sqrt(1+r[2][2]-r[0][0]-r[1][1]) * 2
		q = quat.Number{
			Real: (r[1][0] - r[0][1]) / s,
			Imag: (r[0][2] + r[2][0]) / s,
			Jmag: (r[1][2] + r[2][1]) / s,
			Kmag: s / 4,
		}
	}

	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}

	return quat.Scale(1/quat.Abs(q), q)
}

// AxisAngle converts the rotation to a Rodrigues rotation vector with an
// angle in the range [0, pi]
func (r Rotation) AxisAngle() r3.Vector {

	q := r.Quaternion()
	v := r3.Vector{X: q.Imag, Y: q.Jmag, Z: q.Kmag}
	s := v.Norm()

	if s < 1e-12 {
		return v.Mul(2)
	}

	angle := 2 * math.Atan2(s, q.Real)

	return v.Mul(angle / s)
}

// Mul returns the matrix product r * o
func (r Rotation) Mul(o Rotation) Rotation {
	var out Rotation

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				out[i][j] += r[i][k] * o[k][j]
			}
		}
	}

	return out
}

// Apply rotates the vector v
func (r Rotation) Apply(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: r[0][0]*v.X + r[0][1]*v.Y + r[0][2]*v.Z,
		Y: r[1][0]*v.X + r[1][1]*v.Y + r[1][2]*v.Z,
		Z: r[2][0]*v.X + r[2][1]*v.Y + r[2][2]*v.Z,
	}
}

// Transpose returns the inverse rotation
func (r Rotation) Transpose() Rotation {
	var out Rotation

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = r[j][i]
		}
	}

	return out
}

// Column returns column i of the matrix as a vector
func (r Rotation) Column(i int) r3.Vector {
	return r3.Vector{X: r[0][i], Y: r[1][i], Z: r[2][i]}
}

// Dense returns the rotation as a gonum matrix
func (r Rotation) Dense() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		r[0][0], r[0][1], r[0][2],
		r[1][0], r[1][1], r[1][2],
		r[2][0], r[2][1], r[2][2],
	})
}

// rotationFromDense copies a 3x3 gonum matrix into a Rotation
func rotationFromDense(m mat.Matrix) Rotation {
	var r Rotation

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m.At(i, j)
		}
	}

	return r
}

// nearestRotation returns the rotation matrix closest in the Frobenius norm
// to the given 3x3 matrix, and the mean of its singular values
func nearestRotation(m mat.Matrix) (Rotation, float64, bool) {

	var svd mat.SVD
	ok := svd.Factorize(m, mat.SVDFull)

	if !ok {
		return Rotation{}, 0, false
	}

	u, v := &mat.Dense{}, &mat.Dense{}
	svd.UTo(u)
	svd.VTo(v)
	values := svd.Values(nil)

	r := &mat.Dense{}
	r.Mul(u, v.T())

	if mat.Det(r) < 0 {
		// flip the axis of the smallest singular value
		for i := 0; i < 3; i++ {
			u.Set(i, 2, -u.At(i, 2))
		}

		r.Mul(u, v.T())
	}

	scale := (values[0] + values[1] + values[2]) / 3

	return rotationFromDense(r), scale, true
}
