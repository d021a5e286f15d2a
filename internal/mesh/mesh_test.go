package mesh

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func TestOverlay_SetAndInterpolate(t *testing.T) {
	o := NewOverlay[mgl64.Vec2](2)
	require.False(t, o.IsSetTriangle(0))

	a := o.AppendElement(mgl64.Vec2{0, 0})
	b := o.AppendElement(mgl64.Vec2{1, 0})
	c := o.AppendElement(mgl64.Vec2{0, 1})
	o.SetTriangle(0, Triangle{a, b, c})
	require.True(t, o.IsSetTriangle(0))
	require.False(t, o.IsSetTriangle(1))

	p, ok := InterpolateVec2(o, 0, mgl64.Vec3{0.5, 0.25, 0.25})
	require.True(t, ok)
	require.InDelta(t, 0.25, p.X(), 1e-12)
	require.InDelta(t, 0.25, p.Y(), 1e-12)

	_, ok = InterpolateVec2(o, 1, mgl64.Vec3{1, 0, 0})
	require.False(t, ok)

	o.UnsetTriangle(0)
	require.False(t, o.IsSetTriangle(0))
}

func TestAppendTriangle_ExtendsAttributes(t *testing.T) {
	m := New()
	m.AppendVertex(mgl64.Vec3{0, 0, 0})
	m.AppendVertex(mgl64.Vec3{1, 0, 0})
	m.AppendVertex(mgl64.Vec3{0, 1, 0})
	m.AddUVLayer()
	m.EnableMaterialIDs()
	m.EnableGroups()
	tid := m.AppendTriangle(0, 1, 2)

	require.Equal(t, 0, tid)
	require.Len(t, m.UVLayers[0].Triangles, 1)
	require.False(t, m.UVLayers[0].IsSetTriangle(0))
	require.Equal(t, []int{0}, m.MaterialIDs)
	require.Equal(t, []int{0}, m.Groups)

	// no normal overlay falls back to the face normal
	require.Equal(t, mgl64.Vec3{0, 0, 1}, m.InterpolatedNormal(0, mgl64.Vec3{1.0 / 3, 1.0 / 3, 1.0 / 3}))

	_, err := m.UVLayer(3)
	require.Error(t, err)
}

func TestComputeVertexNormals_Plane(t *testing.T) {
	m := Plane(3)
	for _, n := range m.Normals.Elements {
		require.InDelta(t, 0, n.Sub(mgl64.Vec3{0, 0, 1}).Len(), 1e-12)
	}
}

func TestComputeTangents_Plane(t *testing.T) {
	m := Plane(2)
	tan, err := ComputeTangents(m, 0)
	require.NoError(t, err)
	require.Equal(t, 3*m.TriangleCount(), tan.Len())

	for tid := range m.Triangles {
		for j := range 3 {
			tt, bb := tan.Corner(tid, j)
			require.InDelta(t, 0, tt.Sub(mgl64.Vec3{1, 0, 0}).Len(), 1e-9)
			require.InDelta(t, 0, bb.Sub(mgl64.Vec3{0, 1, 0}).Len(), 1e-9)
		}
	}

	v := mgl64.Vec3{0.3, -0.4, 0.5}
	local := tan.ToTangentSpace(0, mgl64.Vec3{1.0 / 3, 1.0 / 3, 1.0 / 3}, mgl64.Vec3{0, 0, 1}, v)
	require.InDelta(t, 0, local.Sub(v).Len(), 1e-9)
	back := tan.FromTangentSpace(0, mgl64.Vec3{1.0 / 3, 1.0 / 3, 1.0 / 3}, mgl64.Vec3{0, 0, 1}, local)
	require.InDelta(t, 0, back.Sub(v).Len(), 1e-9)
}

func TestComputeTangents_MirroredUV(t *testing.T) {
	m := Plane(1)
	// mirror u
	for i, e := range m.UVLayers[0].Elements {
		m.UVLayers[0].Elements[i] = mgl64.Vec2{1 - e.X(), e.Y()}
	}
	tan, err := ComputeTangents(m, 0)
	require.NoError(t, err)
	tt, bb := tan.Corner(0, 0)
	require.InDelta(t, -1, tt.X(), 1e-9)
	require.InDelta(t, 1, bb.Y(), 1e-9)
}

func TestComputeCurvature_Sphere(t *testing.T) {
	const r = 2.0
	m := Sphere(r, 24, 48)
	c := ComputeCurvature(m)

	var sumH, sumK float64
	for i := range m.Vertices {
		require.Greater(t, c.Mean[i], 0.0, "vertex %d", i)
		require.GreaterOrEqual(t, c.Max[i], c.Min[i])
		sumH += c.Mean[i]
		sumK += c.Gaussian[i]
	}
	n := float64(len(m.Vertices))
	require.InDelta(t, 1/r, sumH/n, 0.1/r)
	require.InDelta(t, 1/(r*r), sumK/n, 0.2/(r*r))
}

func TestComputeCurvature_PlaneIsFlat(t *testing.T) {
	m := Plane(4)
	c := ComputeCurvature(m)
	// interior vertex of a 4x4 grid
	i := 2*5 + 2
	require.InDelta(t, 0, c.Mean[i], 1e-9)
	require.InDelta(t, 0, c.Gaussian[i], 1e-9)
	require.False(t, math.IsNaN(c.Max[i]))
}

func TestFlattenUV_Charts(t *testing.T) {
	m := New()
	for _, p := range []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}} {
		m.AppendVertex(p)
	}
	uv := m.AddUVLayer()
	for _, p := range []mgl64.Vec2{{0, 0}, {0.4, 0}, {0, 0.4}, {0.4, 0.4}, {0.6, 0.6}, {1, 0.6}, {0.6, 1}} {
		uv.AppendElement(p)
	}
	t0 := m.AppendTriangle(0, 1, 2)
	t1 := m.AppendTriangle(1, 3, 2)
	t2 := m.AppendTriangle(0, 1, 2)
	m.AppendTriangle(0, 1, 2) // no UVs
	uv.SetTriangle(t0, Triangle{0, 1, 2})
	uv.SetTriangle(t1, Triangle{1, 3, 2})
	uv.SetTriangle(t2, Triangle{4, 5, 6})

	flat, err := FlattenUV(m, 0)
	require.NoError(t, err)
	require.Equal(t, []int{t0, t1, t2}, flat.TriangleIDs)
	require.Equal(t, []int{0, 0, 1}, flat.Charts)
	require.Equal(t, 3, flat.Mesh.TriangleCount())
	require.Equal(t, mgl64.Vec3{0.4, 0.4, 0}, flat.Mesh.Vertices[3])

	t.Run("groups split shared elements", func(t *testing.T) {
		m.EnableGroups()
		m.Groups[t1] = 7
		flat, err := FlattenUV(m, 0)
		require.NoError(t, err)
		require.Equal(t, []int{0, 1, 2}, flat.Charts)
	})
}
