package mesh

import "github.com/go-gl/mathgl/mgl64"

// Triangle holds three indices, either into Mesh.Vertices or into an
// overlay's element list.
type Triangle [3]int

// InvalidTriangle marks an overlay triangle that has no elements assigned.
var InvalidTriangle = Triangle{-1, -1, -1}

// Overlay stores per-(triangle, corner) attribute values. Each triangle
// references three elements, so corners that share a vertex may still carry
// different values across a seam.
type Overlay[T any] struct {
	Elements  []T
	Triangles []Triangle
}

// NewOverlay returns an overlay for triCount triangles with every triangle
// unset.
func NewOverlay[T any](triCount int) *Overlay[T] {
	o := &Overlay[T]{Triangles: make([]Triangle, triCount)}
	for i := range o.Triangles {
		o.Triangles[i] = InvalidTriangle
	}
	return o
}

// AppendElement adds a value and returns its element id.
func (o *Overlay[T]) AppendElement(v T) int {
	o.Elements = append(o.Elements, v)
	return len(o.Elements) - 1
}

// SetTriangle assigns the three element ids of triangle tid. Growing the
// triangle list fills new entries as unset.
func (o *Overlay[T]) SetTriangle(tid int, t Triangle) {
	for len(o.Triangles) <= tid {
		o.Triangles = append(o.Triangles, InvalidTriangle)
	}
	o.Triangles[tid] = t
}

// UnsetTriangle clears the element ids of triangle tid.
func (o *Overlay[T]) UnsetTriangle(tid int) {
	if tid < len(o.Triangles) {
		o.Triangles[tid] = InvalidTriangle
	}
}

// IsSetTriangle reports whether triangle tid references valid elements.
func (o *Overlay[T]) IsSetTriangle(tid int) bool {
	if o == nil || tid < 0 || tid >= len(o.Triangles) {
		return false
	}
	t := o.Triangles[tid]
	for _, e := range t {
		if e < 0 || e >= len(o.Elements) {
			return false
		}
	}
	return true
}

// Triangle returns the element ids of triangle tid.
func (o *Overlay[T]) Triangle(tid int) Triangle {
	if tid < 0 || tid >= len(o.Triangles) {
		return InvalidTriangle
	}
	return o.Triangles[tid]
}

// TriangleElements returns the three corner values of triangle tid.
func (o *Overlay[T]) TriangleElements(tid int) (a, b, c T, ok bool) {
	if !o.IsSetTriangle(tid) {
		return a, b, c, false
	}
	t := o.Triangles[tid]
	return o.Elements[t[0]], o.Elements[t[1]], o.Elements[t[2]], true
}

// InterpolateVec2 blends the corner values of triangle tid.
func InterpolateVec2(o *Overlay[mgl64.Vec2], tid int, bary mgl64.Vec3) (mgl64.Vec2, bool) {
	a, b, c, ok := o.TriangleElements(tid)
	if !ok {
		return mgl64.Vec2{}, false
	}
	return a.Mul(bary[0]).Add(b.Mul(bary[1])).Add(c.Mul(bary[2])), true
}

// InterpolateVec3 blends the corner values of triangle tid.
func InterpolateVec3(o *Overlay[mgl64.Vec3], tid int, bary mgl64.Vec3) (mgl64.Vec3, bool) {
	a, b, c, ok := o.TriangleElements(tid)
	if !ok {
		return mgl64.Vec3{}, false
	}
	return a.Mul(bary[0]).Add(b.Mul(bary[1])).Add(c.Mul(bary[2])), true
}

// InterpolateVec4 blends the corner values of triangle tid.
func InterpolateVec4(o *Overlay[mgl64.Vec4], tid int, bary mgl64.Vec3) (mgl64.Vec4, bool) {
	a, b, c, ok := o.TriangleElements(tid)
	if !ok {
		return mgl64.Vec4{}, false
	}
	return a.Mul(bary[0]).Add(b.Mul(bary[1])).Add(c.Mul(bary[2])), true
}
