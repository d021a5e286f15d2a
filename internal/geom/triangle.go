package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Triangle3 is a triangle in 3D space.
type Triangle3 struct {
	V [3]mgl64.Vec3
}

// NewTriangle3 builds a triangle from three corners.
func NewTriangle3(a, b, c mgl64.Vec3) Triangle3 {
	return Triangle3{V: [3]mgl64.Vec3{a, b, c}}
}

// Normal returns the unit face normal, or zero for degenerate triangles.
func (t Triangle3) Normal() mgl64.Vec3 {
	return Normalized(t.V[1].Sub(t.V[0]).Cross(t.V[2].Sub(t.V[0])))
}

// Area returns the triangle area.
func (t Triangle3) Area() float64 {
	return 0.5 * t.V[1].Sub(t.V[0]).Cross(t.V[2].Sub(t.V[0])).Len()
}

// Centroid returns the average of the three corners.
func (t Triangle3) Centroid() mgl64.Vec3 {
	return t.V[0].Add(t.V[1]).Add(t.V[2]).Mul(1.0 / 3.0)
}

// Point evaluates the barycentric combination of the corners.
func (t Triangle3) Point(bary mgl64.Vec3) mgl64.Vec3 {
	return t.V[0].Mul(bary[0]).Add(t.V[1].Mul(bary[1])).Add(t.V[2].Mul(bary[2]))
}

// Bounds returns the axis aligned box around the triangle.
func (t Triangle3) Bounds() AABB {
	box := EmptyAABB()
	for _, v := range t.V {
		box = box.Extend(v)
	}
	return box
}

// ClosestPoint returns the point on the triangle closest to p together with
// its barycentric coordinates (Ericson, Real-Time Collision Detection 5.1.5).
func (t Triangle3) ClosestPoint(p mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	a, b, c := t.V[0], t.V[1], t.V[2]
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)
	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a, mgl64.Vec3{1, 0, 0}
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b, mgl64.Vec3{0, 1, 0}
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := safeDiv(d1, d1-d3)
		return a.Add(ab.Mul(v)), mgl64.Vec3{1 - v, v, 0}
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c, mgl64.Vec3{0, 0, 1}
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := safeDiv(d2, d2-d6)
		return a.Add(ac.Mul(w)), mgl64.Vec3{1 - w, 0, w}
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := safeDiv(d4-d3, (d4-d3)+(d5-d6))
		return b.Add(c.Sub(b).Mul(w)), mgl64.Vec3{0, 1 - w, w}
	}

	denom := va + vb + vc
	if math.Abs(denom) < ZeroTolerance {
		// degenerate: collapse onto the first edge
		v := clamp01(safeDiv(d1, ab.Dot(ab)))
		return a.Add(ab.Mul(v)), mgl64.Vec3{1 - v, v, 0}
	}
	v := vb / denom
	w := vc / denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w)), mgl64.Vec3{1 - v - w, v, w}
}

// DistanceSq returns the squared distance from p to the triangle.
func (t Triangle3) DistanceSq(p mgl64.Vec3) float64 {
	q, _ := t.ClosestPoint(p)
	d := p.Sub(q)
	return d.Dot(d)
}

// Triangle2 is a triangle in UV space.
type Triangle2 struct {
	V [3]mgl64.Vec2
}

// NewTriangle2 builds a triangle from three corners.
func NewTriangle2(a, b, c mgl64.Vec2) Triangle2 {
	return Triangle2{V: [3]mgl64.Vec2{a, b, c}}
}

// SignedArea is positive for counter-clockwise triangles.
func (t Triangle2) SignedArea() float64 {
	e1 := t.V[1].Sub(t.V[0])
	e2 := t.V[2].Sub(t.V[0])
	return 0.5 * (e1.X()*e2.Y() - e1.Y()*e2.X())
}

// BarycentricCoords returns the barycentric coordinates of p. Points outside
// the triangle produce negative components. Degenerate triangles return the
// centroid weights.
func (t Triangle2) BarycentricCoords(p mgl64.Vec2) mgl64.Vec3 {
	v0 := t.V[1].Sub(t.V[0])
	v1 := t.V[2].Sub(t.V[0])
	v2 := p.Sub(t.V[0])
	d00 := v0.Dot(v0)
	d01 := v0.Dot(v1)
	d11 := v1.Dot(v1)
	d20 := v2.Dot(v0)
	d21 := v2.Dot(v1)
	denom := d00*d11 - d01*d01
	if math.Abs(denom) < ZeroTolerance*ZeroTolerance {
		return mgl64.Vec3{1.0 / 3, 1.0 / 3, 1.0 / 3}
	}
	v := (d11*d20 - d01*d21) / denom
	w := (d00*d21 - d01*d20) / denom
	return mgl64.Vec3{1 - v - w, v, w}
}

// Point evaluates the barycentric combination of the corners.
func (t Triangle2) Point(bary mgl64.Vec3) mgl64.Vec2 {
	return t.V[0].Mul(bary[0]).Add(t.V[1].Mul(bary[1])).Add(t.V[2].Mul(bary[2]))
}

// Lift embeds the triangle in the z=0 plane.
func (t Triangle2) Lift() Triangle3 {
	return NewTriangle3(Lift(t.V[0]), Lift(t.V[1]), Lift(t.V[2]))
}

// Lift embeds a UV point in the z=0 plane.
func Lift(p mgl64.Vec2) mgl64.Vec3 {
	return mgl64.Vec3{p.X(), p.Y(), 0}
}

// ClampBarycentric zeroes small negative components produced by rounding and
// renormalizes so the coordinates sum to one.
func ClampBarycentric(b mgl64.Vec3) mgl64.Vec3 {
	for i := range 3 {
		b[i] = max(b[i], 0)
	}
	sum := b[0] + b[1] + b[2]
	if sum < ZeroTolerance {
		return mgl64.Vec3{1.0 / 3, 1.0 / 3, 1.0 / 3}
	}
	return b.Mul(1 / sum)
}

func safeDiv(a, b float64) float64 {
	if math.Abs(b) < ZeroTolerance {
		return 0
	}
	return a / b
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
