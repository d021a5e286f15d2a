// Package geom holds the small amount of triangle, ray and box math shared by
// the spatial index, the occupancy map and the evaluators.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ZeroTolerance is the threshold below which lengths and determinants are
// treated as zero.
const ZeroTolerance = 1e-12

// Normalized returns v scaled to unit length, or the zero vector if v is
// (numerically) zero.
func Normalized(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < ZeroTolerance {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

// Lerp3 linearly interpolates between a and b.
func Lerp3(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// Lerp4 linearly interpolates between a and b.
func Lerp4(a, b mgl64.Vec4, t float64) mgl64.Vec4 {
	return a.Add(b.Sub(a).Mul(t))
}

// OrthonormalBasis builds two unit vectors perpendicular to the unit vector n.
// This is the branchless construction from Duff et al. 2017.
func OrthonormalBasis(n mgl64.Vec3) (t, b mgl64.Vec3) {
	sign := math.Copysign(1, n.Z())
	a := -1 / (sign + n.Z())
	bb := n.X() * n.Y() * a
	t = mgl64.Vec3{1 + sign*n.X()*n.X()*a, sign * bb, -sign * n.X()}
	b = mgl64.Vec3{bb, sign + n.Y()*n.Y()*a, -n.Y()}
	return t, b
}

// Ray is a half-line starting at Origin. Direction is expected to be unit
// length so that hit distances are metric.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

// PointAt returns Origin + t*Direction.
func (r Ray) PointAt(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// IntersectTriangle is a two-sided Möller-Trumbore test. bary is expressed
// relative to (a, b, c).
func (r Ray) IntersectTriangle(a, b, c mgl64.Vec3) (t float64, bary mgl64.Vec3, ok bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	pvec := r.Direction.Cross(e2)
	det := e1.Dot(pvec)
	if math.Abs(det) < ZeroTolerance {
		return 0, bary, false
	}
	inv := 1 / det
	tvec := r.Origin.Sub(a)
	u := tvec.Dot(pvec) * inv
	if u < 0 || u > 1 {
		return 0, bary, false
	}
	qvec := tvec.Cross(e1)
	v := r.Direction.Dot(qvec) * inv
	if v < 0 || u+v > 1 {
		return 0, bary, false
	}
	t = e2.Dot(qvec) * inv
	if t < 0 {
		return 0, bary, false
	}
	return t, mgl64.Vec3{1 - u - v, u, v}, true
}
