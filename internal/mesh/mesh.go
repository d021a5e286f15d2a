// Package mesh is the indexed triangle mesh the baker reads from. Attributes
// live in per-corner overlays so UV seams and hard edges can be represented.
package mesh

import (
	"fmt"

	"github.com/erinpentecost/meshbake/internal/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// Mesh is an indexed triangle mesh. Optional attributes are nil when absent.
type Mesh struct {
	Vertices  []mgl64.Vec3
	Triangles []Triangle

	UVLayers []*Overlay[mgl64.Vec2]
	Normals  *Overlay[mgl64.Vec3]
	Colors   *Overlay[mgl64.Vec4]

	// MaterialIDs and Groups hold one value per triangle.
	MaterialIDs []int
	Groups      []int
}

// New returns an empty mesh.
func New() *Mesh {
	return &Mesh{}
}

// AppendVertex adds a vertex and returns its id.
func (m *Mesh) AppendVertex(p mgl64.Vec3) int {
	m.Vertices = append(m.Vertices, p)
	return len(m.Vertices) - 1
}

// AppendTriangle adds a triangle and returns its id. Existing overlays and
// per-triangle attributes are extended with unset/zero entries.
func (m *Mesh) AppendTriangle(a, b, c int) int {
	m.Triangles = append(m.Triangles, Triangle{a, b, c})
	tid := len(m.Triangles) - 1
	for _, uv := range m.UVLayers {
		uv.SetTriangle(tid, InvalidTriangle)
	}
	if m.Normals != nil {
		m.Normals.SetTriangle(tid, InvalidTriangle)
	}
	if m.Colors != nil {
		m.Colors.SetTriangle(tid, InvalidTriangle)
	}
	if m.MaterialIDs != nil {
		m.MaterialIDs = append(m.MaterialIDs, 0)
	}
	if m.Groups != nil {
		m.Groups = append(m.Groups, 0)
	}
	return tid
}

// AddUVLayer appends an empty UV overlay and returns it.
func (m *Mesh) AddUVLayer() *Overlay[mgl64.Vec2] {
	uv := NewOverlay[mgl64.Vec2](len(m.Triangles))
	m.UVLayers = append(m.UVLayers, uv)
	return uv
}

// EnableNormals creates an empty normal overlay if none exists.
func (m *Mesh) EnableNormals() *Overlay[mgl64.Vec3] {
	if m.Normals == nil {
		m.Normals = NewOverlay[mgl64.Vec3](len(m.Triangles))
	}
	return m.Normals
}

// EnableColors creates an empty vertex color overlay if none exists.
func (m *Mesh) EnableColors() *Overlay[mgl64.Vec4] {
	if m.Colors == nil {
		m.Colors = NewOverlay[mgl64.Vec4](len(m.Triangles))
	}
	return m.Colors
}

// EnableMaterialIDs allocates per-triangle material ids, all zero.
func (m *Mesh) EnableMaterialIDs() {
	if m.MaterialIDs == nil {
		m.MaterialIDs = make([]int, len(m.Triangles))
	}
}

// EnableGroups allocates per-triangle polygroups, all zero.
func (m *Mesh) EnableGroups() {
	if m.Groups == nil {
		m.Groups = make([]int, len(m.Triangles))
	}
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int { return len(m.Triangles) }

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// IsTriangle reports whether tid is a valid triangle id.
func (m *Mesh) IsTriangle(tid int) bool {
	return tid >= 0 && tid < len(m.Triangles)
}

// Triangle3 returns the 3D geometry of triangle tid.
func (m *Mesh) Triangle3(tid int) geom.Triangle3 {
	t := m.Triangles[tid]
	return geom.NewTriangle3(m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]])
}

// TriangleNormal returns the unit face normal of triangle tid.
func (m *Mesh) TriangleNormal(tid int) mgl64.Vec3 {
	return m.Triangle3(tid).Normal()
}

// Bounds returns the bounding box of all vertices.
func (m *Mesh) Bounds() geom.AABB {
	box := geom.EmptyAABB()
	for _, v := range m.Vertices {
		box = box.Extend(v)
	}
	return box
}

// UVLayer returns UV overlay i.
func (m *Mesh) UVLayer(i int) (*Overlay[mgl64.Vec2], error) {
	if i < 0 || i >= len(m.UVLayers) {
		return nil, fmt.Errorf("uv layer %d: mesh has %d layers", i, len(m.UVLayers))
	}
	return m.UVLayers[i], nil
}

// MaterialID returns the material id of triangle tid, or 0 when the mesh has
// no material ids.
func (m *Mesh) MaterialID(tid int) int {
	if m.MaterialIDs == nil {
		return 0
	}
	return m.MaterialIDs[tid]
}

// Group returns the polygroup of triangle tid, or 0 when the mesh has none.
func (m *Mesh) Group(tid int) int {
	if m.Groups == nil {
		return 0
	}
	return m.Groups[tid]
}

// InterpolatedNormal returns the unit surface normal at bary inside tid. The
// face normal is used when there is no normal overlay entry.
func (m *Mesh) InterpolatedNormal(tid int, bary mgl64.Vec3) mgl64.Vec3 {
	if n, ok := InterpolateVec3(m.Normals, tid, bary); ok {
		if n = geom.Normalized(n); n != (mgl64.Vec3{}) {
			return n
		}
	}
	return m.TriangleNormal(tid)
}

// InterpolatedPosition returns the 3D point at bary inside tid.
func (m *Mesh) InterpolatedPosition(tid int, bary mgl64.Vec3) mgl64.Vec3 {
	return m.Triangle3(tid).Point(bary)
}
