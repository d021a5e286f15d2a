package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB is an axis aligned bounding box.
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// EmptyAABB returns an inverted box that any Extend call will replace.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether no point has been added.
func (b AABB) IsEmpty() bool {
	return b.Min.X() > b.Max.X()
}

// Extend grows the box to include p.
func (b AABB) Extend(p mgl64.Vec3) AABB {
	for i := range 3 {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
	return b
}

// Union grows the box to include o.
func (b AABB) Union(o AABB) AABB {
	for i := range 3 {
		b.Min[i] = min(b.Min[i], o.Min[i])
		b.Max[i] = max(b.Max[i], o.Max[i])
	}
	return b
}

// Center returns the box midpoint.
func (b AABB) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Diagonal returns the length of the box diagonal.
func (b AABB) Diagonal() float64 {
	if b.IsEmpty() {
		return 0
	}
	return b.Max.Sub(b.Min).Len()
}

// LongestAxis returns 0, 1 or 2.
func (b AABB) LongestAxis() int {
	d := b.Max.Sub(b.Min)
	axis := 0
	if d.Y() > d[axis] {
		axis = 1
	}
	if d.Z() > d[axis] {
		axis = 2
	}
	return axis
}

// DistanceSq returns the squared distance from p to the box, zero inside.
func (b AABB) DistanceSq(p mgl64.Vec3) float64 {
	var d float64
	for i := range 3 {
		if p[i] < b.Min[i] {
			e := b.Min[i] - p[i]
			d += e * e
		} else if p[i] > b.Max[i] {
			e := p[i] - b.Max[i]
			d += e * e
		}
	}
	return d
}

// IntersectRay returns the entry distance of r into the box if it is hit
// within [0, maxDist].
func (b AABB) IntersectRay(r Ray, maxDist float64) (float64, bool) {
	tmin, tmax := 0.0, maxDist
	for i := range 3 {
		if math.Abs(r.Direction[i]) < ZeroTolerance {
			if r.Origin[i] < b.Min[i] || r.Origin[i] > b.Max[i] {
				return 0, false
			}
			continue
		}
		inv := 1 / r.Direction[i]
		t0 := (b.Min[i] - r.Origin[i]) * inv
		t1 := (b.Max[i] - r.Origin[i]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tmin = max(tmin, t0)
		tmax = min(tmax, t1)
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}
