// Package sampler turns a UV coordinate on a mesh into a surface sample.
package sampler

import (
	"fmt"

	"github.com/erinpentecost/meshbake/internal/geom"
	"github.com/erinpentecost/meshbake/internal/mesh"
	"github.com/erinpentecost/meshbake/internal/spatial"
	"github.com/go-gl/mathgl/mgl64"
)

// Mode selects how the owning triangle of a UV point is found.
type Mode int

const (
	// UVOnly locates the triangle with a UV-space index.
	UVOnly Mode = iota
	// TriangleAndUV trusts a caller-supplied triangle id and builds no index.
	TriangleAndUV
)

// Info is everything known about a resolved surface sample.
type Info struct {
	TriangleID int
	// Vertices and UVElements are the mesh and UV overlay ids of the corners.
	Vertices   mesh.Triangle
	UVElements mesh.Triangle
	Triangle   geom.Triangle3
	TriangleUV geom.Triangle2
	Bary       mgl64.Vec3
	Point      mgl64.Vec3
	UV         mgl64.Vec2
}

// ValueFunc converts a resolved sample into the caller's value type. It may
// keep references to the sampler's mesh only while the sampler is in use.
type ValueFunc[T any] func(info *Info) T

// Sampler resolves UV points on one UV layer of a mesh.
type Sampler[T any] struct {
	m     *mesh.Mesh
	uv    *mesh.Overlay[mgl64.Vec2]
	mode  Mode
	value ValueFunc[T]

	flat  *mesh.UVMesh
	index *spatial.BVH
}

// New returns a sampler over UV layer layer of m.
func New[T any](m *mesh.Mesh, layer int, mode Mode, value ValueFunc[T]) (*Sampler[T], error) {
	uv, err := m.UVLayer(layer)
	if err != nil {
		return nil, fmt.Errorf("new sampler: %w", err)
	}
	s := &Sampler[T]{m: m, uv: uv, mode: mode, value: value}
	if mode == UVOnly {
		if s.flat, err = mesh.FlattenUV(m, layer); err != nil {
			return nil, fmt.Errorf("new sampler: %w", err)
		}
		s.index = spatial.New(s.flat.Mesh)
	}
	return s, nil
}

// Sample finds the triangle under uv and evaluates the value function. It
// requires UVOnly mode.
func (s *Sampler[T]) Sample(uv mgl64.Vec2) (T, bool) {
	var zero T
	if s.index == nil {
		return zero, false
	}
	r := geom.Ray{Origin: mgl64.Vec3{uv.X(), uv.Y(), 1}, Direction: mgl64.Vec3{0, 0, -1}}
	hit, ok := s.index.FindNearestHitTriangle(r, spatial.Unbounded)
	if !ok {
		return zero, false
	}
	return s.SampleTriangle(s.flat.TriangleIDs[hit.TriangleID], uv)
}

// SampleTriangle evaluates the value function at uv inside triangle tid.
// Small negative barycentrics from points on or just outside an edge are
// clamped onto the triangle.
func (s *Sampler[T]) SampleTriangle(tid int, uv mgl64.Vec2) (T, bool) {
	var zero T
	info, ok := s.Info(tid, uv)
	if !ok {
		return zero, false
	}
	return s.value(&info), true
}

// Info resolves uv inside triangle tid without evaluating the value function.
func (s *Sampler[T]) Info(tid int, uv mgl64.Vec2) (Info, bool) {
	if !s.m.IsTriangle(tid) || !s.uv.IsSetTriangle(tid) {
		return Info{}, false
	}
	ut := s.uv.Triangles[tid]
	tri2 := geom.NewTriangle2(s.uv.Elements[ut[0]], s.uv.Elements[ut[1]], s.uv.Elements[ut[2]])
	bary := geom.ClampBarycentric(tri2.BarycentricCoords(uv))
	tri3 := s.m.Triangle3(tid)
	return Info{
		TriangleID: tid,
		Vertices:   s.m.Triangles[tid],
		UVElements: ut,
		Triangle:   tri3,
		TriangleUV: tri2,
		Bary:       bary,
		Point:      tri3.Point(bary),
		UV:         uv,
	}, true
}
