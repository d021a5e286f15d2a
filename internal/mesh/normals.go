package mesh

import (
	"github.com/erinpentecost/meshbake/internal/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// ComputeVertexNormals replaces the normal overlay with one smooth,
// area-weighted normal per vertex.
func ComputeVertexNormals(m *Mesh) {
	acc := make([]mgl64.Vec3, len(m.Vertices))
	for _, t := range m.Triangles {
		a, b, c := m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
		// unnormalized cross product weights by area
		n := b.Sub(a).Cross(c.Sub(a))
		for _, v := range t {
			acc[v] = acc[v].Add(n)
		}
	}

	normals := NewOverlay[mgl64.Vec3](len(m.Triangles))
	normals.Elements = make([]mgl64.Vec3, len(acc))
	for i, n := range acc {
		normals.Elements[i] = geom.Normalized(n)
	}
	for tid, t := range m.Triangles {
		normals.Triangles[tid] = t
	}
	m.Normals = normals
}

// ComputeFacetNormals replaces the normal overlay with flat per-triangle
// normals, producing hard edges everywhere.
func ComputeFacetNormals(m *Mesh) {
	normals := NewOverlay[mgl64.Vec3](len(m.Triangles))
	for tid := range m.Triangles {
		e := normals.AppendElement(m.TriangleNormal(tid))
		normals.Triangles[tid] = Triangle{e, e, e}
	}
	m.Normals = normals
}
