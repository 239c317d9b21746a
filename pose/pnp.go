package pose

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	// minCorrespondences is the fewest point pairs the solver accepts
	minCorrespondences = 4
	// minDLTCorrespondences is the fewest point pairs for the non planar
	// linear initialisation
	minDLTCorrespondences = 6
	// planarTolerance is the ratio of smallest to largest singular value of
	// the centred object points below which they are treated as coplanar
	planarTolerance = 1e-6
	// refineIterations is the maximum number of Levenberg-Marquardt steps
	refineIterations = 100
)

// SolvePnP finds the pose that maps the object points, given in the body
// frame, onto the observed pixel positions for the calibrated camera.  The
// solution is initialised linearly and refined by minimising reprojection
// error including lens distortion
func SolvePnP(object []r3.Vector, image []r2.Point, cam *Camera) (Pose, error) {

	if len(object) != len(image) {
		return Unknown(), errors.Wrapf(ErrNoSolution,
			"%d object points but %d image points", len(object), len(image))
	}

	if len(object) < minCorrespondences {
		return Unknown(), errors.Wrapf(ErrNoSolution,
			"need at least %d points, got %d", minCorrespondences, len(object))
	}

	for _, p := range image {
		if !finite(p.X) || !finite(p.Y) {
			return Unknown(), errors.Wrap(ErrNoSolution, "image point is not finite")
		}
	}

	// undistort observations onto the normalised image plane
	norm := make([]r2.Point, len(image))

	for i, p := range image {
		norm[i] = cam.Undistort(p)
	}

	init, err := initialPose(object, norm)

	if err != nil {
		return Unknown(), err
	}

	p := refinePose(init, object, image, cam)

	for _, v := range object {
		c := p.Transform(v)

		if !finite(c.X) || !finite(c.Y) || !(c.Z > 0) {
			return Unknown(), errors.Wrap(ErrNoSolution, "solution places points behind the camera")
		}
	}

	return p, nil
}

// initialPose computes a linear pose estimate from undistorted normalised
// image points
func initialPose(object []r3.Vector, norm []r2.Point) (Pose, error) {

	c := centroid(object)
	centred := mat.NewDense(len(object), 3, nil)

	for i, v := range object {
		d := v.Sub(c)
		centred.SetRow(i, []float64{d.X, d.Y, d.Z})
	}

	var svd mat.SVD

	if ok := svd.Factorize(centred, mat.SVDFull); !ok {
		return Unknown(), errors.Wrap(ErrNoSolution, "object point decomposition failed")
	}

	values := svd.Values(nil)

	if values[0] == 0 || values[1] < planarTolerance*values[0] {
		return Unknown(), errors.Wrap(ErrNoSolution, "object points are degenerate")
	}

	if len(object) >= minDLTCorrespondences && values[2] > planarTolerance*values[0] {
		return dltPose(object, norm, c)
	}

	v := &mat.Dense{}
	svd.VTo(v)

	e1 := r3.Vector{X: v.At(0, 0), Y: v.At(1, 0), Z: v.At(2, 0)}
	e2 := r3.Vector{X: v.At(0, 1), Y: v.At(1, 1), Z: v.At(2, 1)}

	return planarPose(object, norm, c, e1, e2)
}

// planarPose estimates the pose of coplanar object points through the
// homography between their in plane coordinates and the image
func planarPose(object []r3.Vector, norm []r2.Point, c, e1, e2 r3.Vector) (Pose, error) {

	n := e1.Cross(e2).Normalize()

	// coordinates of the object points within the plane basis
	local := make([]r2.Point, len(object))

	for i, v := range object {
		d := v.Sub(c)
		local[i] = r2.Point{X: d.Dot(e1), Y: d.Dot(e2)}
	}

	h, ok := homography(local, norm)

	if !ok {
		return Unknown(), errors.Wrap(ErrNoSolution, "homography estimation failed")
	}

	h1 := r3.Vector{X: h.At(0, 0), Y: h.At(1, 0), Z: h.At(2, 0)}
	h2 := r3.Vector{X: h.At(0, 1), Y: h.At(1, 1), Z: h.At(2, 1)}
	h3 := r3.Vector{X: h.At(0, 2), Y: h.At(1, 2), Z: h.At(2, 2)}

	denom := h1.Norm() + h2.Norm()

	if denom == 0 {
		return Unknown(), errors.Wrap(ErrNoSolution, "degenerate homography")
	}

	lambda := 2 / denom

	// the plane origin is the centroid which must lie in front of the camera
	if h3.Z*lambda < 0 {
		lambda = -lambda
	}

	r1 := h1.Mul(lambda)
	r2v := h2.Mul(lambda)
	r3v := r1.Cross(r2v)

	m := mat.NewDense(3, 3, []float64{
		r1.X, r2v.X, r3v.X,
		r1.Y, r2v.Y, r3v.Y,
		r1.Z, r2v.Z, r3v.Z,
	})

	rp, _, ok := nearestRotation(m)

	if !ok {
		return Unknown(), errors.Wrap(ErrNoSolution, "rotation decomposition failed")
	}

	// basis rotation taking body coordinates into plane coordinates
	basis := Rotation{
		{e1.X, e1.Y, e1.Z},
		{e2.X, e2.Y, e2.Z},
		{n.X, n.Y, n.Z},
	}

	r := rp.Mul(basis)
	t := h3.Mul(lambda).Sub(r.Apply(c))

	return Known(r, t), nil
}

// dltPose estimates the pose of non coplanar object points by the direct
// linear transform of the 3x4 projection matrix
func dltPose(object []r3.Vector, norm []r2.Point, c r3.Vector) (Pose, error) {

	// normalise object points to zero mean and mean distance sqrt(3)
	dist := 0.0

	for _, v := range object {
		dist += v.Sub(c).Norm()
	}

	dist /= float64(len(object))
	s3 := math.Sqrt(3) / dist

	imgN, t2 := normalizePoints(norm)

	a := mat.NewDense(2*len(object), 12, nil)

	for i, v := range object {
		x := v.Sub(c).Mul(s3)
		u, w := imgN[i].X, imgN[i].Y

		a.SetRow(2*i, []float64{
			x.X, x.Y, x.Z, 1, 0, 0, 0, 0, -u * x.X, -u * x.Y, -u * x.Z, -u,
		})
		a.SetRow(2*i+1, []float64{
			0, 0, 0, 0, x.X, x.Y, x.Z, 1, -w * x.X, -w * x.Y, -w * x.Z, -w,
		})
	}

	p, ok := nullVector(a)

	if !ok {
		return Unknown(), errors.Wrap(ErrNoSolution, "projection estimation failed")
	}

	pn := mat.NewDense(3, 4, p)

	t3 := mat.NewDense(4, 4, []float64{
		s3, 0, 0, -s3 * c.X,
		0, s3, 0, -s3 * c.Y,
		0, 0, s3, -s3 * c.Z,
		0, 0, 0, 1,
	})

	var t2inv mat.Dense

	if err := t2inv.Inverse(t2); err != nil {
		return Unknown(), errors.Wrap(ErrNoSolution, "image normalisation is singular")
	}

	var partial mat.Dense
	partial.Mul(&t2inv, pn)

	proj := &mat.Dense{}
	proj.Mul(&partial, t3)

	m := proj.Slice(0, 3, 0, 3)

	if mat.Det(m) < 0 {
		proj.Scale(-1, proj)
	}

	r, scale, ok := nearestRotation(proj.Slice(0, 3, 0, 3))

	if !ok || scale == 0 {
		return Unknown(), errors.Wrap(ErrNoSolution, "rotation decomposition failed")
	}

	t := r3.Vector{X: proj.At(0, 3), Y: proj.At(1, 3), Z: proj.At(2, 3)}.Mul(1 / scale)

	return Known(r, t), nil
}

// homography estimates the 3x3 homography mapping src onto dst using the
// normalised direct linear transform
func homography(src, dst []r2.Point) (*mat.Dense, bool) {

	srcN, ts := normalizePoints(src)
	dstN, td := normalizePoints(dst)

	a := mat.NewDense(2*len(src), 9, nil)

	for i := range src {
		x, y := srcN[i].X, srcN[i].Y
		u, v := dstN[i].X, dstN[i].Y

		a.SetRow(2*i, []float64{-x, -y, -1, 0, 0, 0, u * x, u * y, u})
		a.SetRow(2*i+1, []float64{0, 0, 0, -x, -y, -1, v * x, v * y, v})
	}

	hv, ok := nullVector(a)

	if !ok {
		return nil, false
	}

	hn := mat.NewDense(3, 3, hv)

	var tdInv mat.Dense

	if err := tdInv.Inverse(td); err != nil {
		return nil, false
	}

	var partial mat.Dense
	partial.Mul(&tdInv, hn)

	h := &mat.Dense{}
	h.Mul(&partial, ts)

	return h, true
}

// nullVector returns the right singular vector of the smallest singular
// value of a
func nullVector(a *mat.Dense) ([]float64, bool) {

	var svd mat.SVD

	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return nil, false
	}

	v := &mat.Dense{}
	svd.VTo(v)

	_, cols := v.Dims()
	out := make([]float64, cols)
	mat.Col(out, cols-1, v)

	for _, f := range out {
		if !finite(f) {
			return nil, false
		}
	}

	return out, true
}

// normalizePoints normalizes points as described in Multiple View Geometry,
// Alg 4.2, returning the transformed points and the 3x3 transform applied
func normalizePoints(pts []r2.Point) ([]r2.Point, *mat.Dense) {

	n := float64(len(pts))
	mu := r2.Point{}

	for _, pt := range pts {
		mu = mu.Add(pt)
	}

	mu = mu.Mul(1 / n)

	d := 0.0

	for _, pt := range pts {
		d += pt.Sub(mu).Norm() / n
	}

	scale := 1.0

	if d > 0 {
		scale = math.Sqrt(2) / d
	}

	t := mat.NewDense(3, 3, []float64{
		scale, 0, -scale * mu.X,
		0, scale, -scale * mu.Y,
		0, 0, 1,
	})

	out := make([]r2.Point, len(pts))

	for i, pt := range pts {
		out[i] = pt.Sub(mu).Mul(scale)
	}

	return out, t
}

// refinePose minimises the pixel reprojection error of the pose with
// Levenberg-Marquardt over the Rodrigues vector and translation
func refinePose(init Pose, object []r3.Vector, image []r2.Point, cam *Camera) Pose {

	rv := init.AxisAngle()
	params := []float64{rv.X, rv.Y, rv.Z, init.Translation.X, init.Translation.Y, init.Translation.Z}

	residuals := func(p []float64) ([]float64, float64) {
		r := RotationFromAxisAngle(r3.Vector{X: p[0], Y: p[1], Z: p[2]})
		t := r3.Vector{X: p[3], Y: p[4], Z: p[5]}

		res := make([]float64, 2*len(object))
		cost := 0.0

		for i, v := range object {
			px := cam.Project(r.Apply(v).Add(t))
			res[2*i] = px.X - image[i].X
			res[2*i+1] = px.Y - image[i].Y
			cost += res[2*i]*res[2*i] + res[2*i+1]*res[2*i+1]
		}

		if !finite(cost) {
			cost = math.Inf(1)
		}

		return res, cost
	}

	res, cost := residuals(params)

	if math.IsInf(cost, 1) {
		return init
	}

	mu := 1e-3
	rows := len(res)
	jac := mat.NewDense(rows, 6, nil)

refine:
	for iter := 0; iter < refineIterations && cost > 1e-18; iter++ {

		// central difference jacobian
		for j := 0; j < 6; j++ {
			h := 1e-6 * math.Max(1, math.Abs(params[j]))

			plus := append([]float64(nil), params...)
			minus := append([]float64(nil), params...)
			plus[j] += h
			minus[j] -= h

			rp, _ := residuals(plus)
			rm, _ := residuals(minus)

			for i := 0; i < rows; i++ {
				jac.Set(i, j, (rp[i]-rm[i])/(2*h))
			}
		}

		jtj := mat.NewSymDense(6, nil)
		grad := mat.NewVecDense(6, nil)

		for a := 0; a < 6; a++ {
			g := 0.0

			for i := 0; i < rows; i++ {
				g += jac.At(i, a) * res[i]
			}

			grad.SetVec(a, -g)

			for b := a; b < 6; b++ {
				s := 0.0

				for i := 0; i < rows; i++ {
					s += jac.At(i, a) * jac.At(i, b)
				}

				jtj.SetSym(a, b, s)
			}
		}

		improved := false

		for !improved && mu < 1e12 {
			damped := mat.NewSymDense(6, nil)
			damped.CopySym(jtj)

			for a := 0; a < 6; a++ {
				damped.SetSym(a, a, jtj.At(a, a)*(1+mu)+1e-12)
			}

			var chol mat.Cholesky

			if ok := chol.Factorize(damped); !ok {
				mu *= 10
				continue
			}

			var step mat.VecDense

			if err := chol.SolveVecTo(&step, grad); err != nil {
				mu *= 10
				continue
			}

			next := make([]float64, 6)

			for a := range next {
				next[a] = params[a] + step.AtVec(a)
			}

			nextRes, nextCost := residuals(next)

			if nextCost < cost {
				done := cost-nextCost < 1e-12*cost || mat.Norm(&step, 2) < 1e-12*(1+floats.Norm(params, 2))

				params, res, cost = next, nextRes, nextCost
				mu = math.Max(mu/10, 1e-12)
				improved = true

				if done {
					break refine
				}
			} else {
				mu *= 10
			}
		}

		if !improved {
			break
		}
	}

	r := RotationFromAxisAngle(r3.Vector{X: params[0], Y: params[1], Z: params[2]})

	return Known(r, r3.Vector{X: params[3], Y: params[4], Z: params[5]})
}

// centroid returns the mean of the points
func centroid(pts []r3.Vector) r3.Vector {
	var sum r3.Vector

	for _, p := range pts {
		sum = sum.Add(p)
	}

	return sum.Mul(1 / float64(len(pts)))
}

// finite reports if f is neither NaN nor infinite
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
