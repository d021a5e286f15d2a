package meshio

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/erinpentecost/meshbake/internal/mesh"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

const quadOBJ = `# quad
v 0 0 0 1 0 0
v 1 0 0 0 1 0
v 1 1 0 0 0 1
v 0 1 0 1 1 1
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
g left
usemtl stone
f 1/1/1 2/2/1 3/3/1
g right
usemtl moss
f -4/-4/-1 -2/-2/-1 -1/-1/-1
`

func TestDecode(t *testing.T) {
	s, err := Decode(strings.NewReader(quadOBJ), "quad.obj")
	require.NoError(t, err)
	m := s.Mesh
	require.Equal(t, 4, m.VertexCount())
	require.Equal(t, 2, m.TriangleCount())
	require.Equal(t, mesh.Triangle{0, 2, 3}, m.Triangles[1])

	uv, err := m.UVLayer(0)
	require.NoError(t, err)
	a, b, c, ok := uv.TriangleElements(1)
	require.True(t, ok)
	require.Equal(t, []mgl64.Vec2{{0, 0}, {1, 1}, {0, 1}}, []mgl64.Vec2{a, b, c})

	n := m.InterpolatedNormal(0, mgl64.Vec3{1.0 / 3, 1.0 / 3, 1.0 / 3})
	require.InDelta(t, 1.0, n.Z(), 1e-9)

	require.Equal(t, []string{"stone", "moss"}, s.Materials)
	require.Equal(t, []string{"left", "right"}, s.Groups)
	require.Equal(t, 0, m.MaterialID(0))
	require.Equal(t, 1, m.MaterialID(1))
	require.Equal(t, 1, m.Group(1))

	col, ok := mesh.InterpolateVec4(m.Colors, 0, mgl64.Vec3{1, 0, 0})
	require.True(t, ok)
	require.Equal(t, mgl64.Vec4{1, 0, 0, 1}, col)
}

func TestDecode_Polygon(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nv -1 1 0\nf 1 2 3 4 5\n"
	s, err := Decode(strings.NewReader(src), "poly.obj")
	require.NoError(t, err)
	require.Equal(t, 3, s.Mesh.TriangleCount())
	require.Nil(t, s.Mesh.UVLayers)
	require.Nil(t, s.Mesh.Normals)
	require.Nil(t, s.Mesh.Colors)
}

func TestDecode_Errors(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
	}{
		{"short vertex", "v 1 2\n"},
		{"bad float", "v 1 2 x\n"},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 1 1 0\nf 0 1 2\n"},
		{"out of range", "v 0 0 0\nv 1 0 0\nv 1 1 0\nf 1 2 4\n"},
		{"two corners", "v 0 0 0\nv 1 0 0\nf 1 2\n"},
		{"missing uv", "v 0 0 0\nv 1 0 0\nv 1 1 0\nf 1/1 2/1 3/1\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tc.src), tc.name)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.name)
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	m := mesh.Plane(2)
	m.EnableMaterialIDs()
	m.MaterialIDs[3] = 1
	in := &Scene{Mesh: m, Materials: []string{"a", "b"}}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, in))
	out, err := Decode(&buf, "plane.obj")
	require.NoError(t, err)

	require.Equal(t, m.Vertices, out.Mesh.Vertices)
	require.Equal(t, m.Triangles, out.Mesh.Triangles)
	require.Equal(t, m.UVLayers[0].Elements, out.Mesh.UVLayers[0].Elements)
	require.Equal(t, m.UVLayers[0].Triangles, out.Mesh.UVLayers[0].Triangles)
	require.Equal(t, m.MaterialIDs, out.Mesh.MaterialIDs)
	require.Equal(t, []string{"a", "b"}, out.Materials)
	for tid := range m.TriangleCount() {
		require.True(t, out.Mesh.Normals.IsSetTriangle(tid))
	}
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sphere.obj")
	m := mesh.Sphere(1, 4, 6)
	require.NoError(t, Write(path, &Scene{Mesh: m}))
	s, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, m.TriangleCount(), s.Mesh.TriangleCount())
	require.Equal(t, m.Vertices, s.Mesh.Vertices)
}
