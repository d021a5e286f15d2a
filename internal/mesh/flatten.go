package mesh

import (
	"github.com/go-gl/mathgl/mgl64"
)

// UVMesh is a copy of a mesh's UV layout embedded in the z=0 plane.
type UVMesh struct {
	Mesh *Mesh
	// TriangleIDs maps a flat triangle to its source triangle.
	TriangleIDs []int
	// Charts tags every flat triangle with a UV connectivity component.
	// Triangles that share a UV element and a polygroup share a chart.
	Charts []int
}

// FlattenUV builds the UV mesh of layer. There is one flat vertex per UV
// element and one flat triangle per source triangle with a set UV triangle.
func FlattenUV(m *Mesh, layer int) (*UVMesh, error) {
	uv, err := m.UVLayer(layer)
	if err != nil {
		return nil, err
	}

	flat := New()
	flat.Vertices = make([]mgl64.Vec3, len(uv.Elements))
	for i, e := range uv.Elements {
		flat.Vertices[i] = mgl64.Vec3{e.X(), e.Y(), 0}
	}

	out := &UVMesh{Mesh: flat}
	for tid := range m.Triangles {
		if !uv.IsSetTriangle(tid) {
			continue
		}
		t := uv.Triangles[tid]
		flat.Triangles = append(flat.Triangles, t)
		out.TriangleIDs = append(out.TriangleIDs, tid)
	}
	out.Charts = charts(m, uv, out.TriangleIDs)
	return out, nil
}

func charts(m *Mesh, uv *Overlay[mgl64.Vec2], tris []int) []int {
	parent := make([]int, len(tris))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	type elemGroup struct{ elem, group int }
	owner := make(map[elemGroup]int, len(uv.Elements))
	for fi, tid := range tris {
		g := m.Group(tid)
		for _, e := range uv.Triangles[tid] {
			k := elemGroup{e, g}
			if o, ok := owner[k]; ok {
				ra, rb := find(o), find(fi)
				if ra != rb {
					parent[max(ra, rb)] = min(ra, rb)
				}
			} else {
				owner[k] = fi
			}
		}
	}

	ids := make(map[int]int)
	out := make([]int, len(tris))
	for i := range tris {
		r := find(i)
		id, ok := ids[r]
		if !ok {
			id = len(ids)
			ids[r] = id
		}
		out[i] = id
	}
	return out
}
