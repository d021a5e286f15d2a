package sampler

import (
	"testing"

	"github.com/erinpentecost/meshbake/internal/mesh"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func point(info *Info) mgl64.Vec3 { return info.Point }

func TestSampler_ModesAgree(t *testing.T) {
	m := mesh.Plane(4)
	// stretch the surface so 3D and UV positions differ
	for i, v := range m.Vertices {
		m.Vertices[i] = mgl64.Vec3{v.X() * 3, v.Y() * 2, v.X()}
	}

	uvOnly, err := New(m, 0, UVOnly, point)
	require.NoError(t, err)
	direct, err := New(m, 0, TriangleAndUV, point)
	require.NoError(t, err)

	for _, uv := range []mgl64.Vec2{{0.1, 0.1}, {0.55, 0.3}, {0.9, 0.95}, {0.5, 0.5}} {
		p, ok := uvOnly.Sample(uv)
		require.True(t, ok)
		require.InDelta(t, 3*uv.X(), p.X(), 1e-9)
		require.InDelta(t, 2*uv.Y(), p.Y(), 1e-9)
		require.InDelta(t, uv.X(), p.Z(), 1e-9)
	}

	// direct mode needs the triangle; (0.1, 0.05) lies in the first triangle
	p, ok := direct.SampleTriangle(0, mgl64.Vec2{0.1, 0.05})
	require.True(t, ok)
	require.InDelta(t, 0.3, p.X(), 1e-9)
	_, ok = direct.Sample(mgl64.Vec2{0.1, 0.05})
	require.False(t, ok)
}

func TestSampler_OutsideUV(t *testing.T) {
	m := mesh.Plane(1)
	for i, e := range m.UVLayers[0].Elements {
		m.UVLayers[0].Elements[i] = e.Mul(0.5)
	}
	s, err := New(m, 0, UVOnly, point)
	require.NoError(t, err)
	_, ok := s.Sample(mgl64.Vec2{0.75, 0.75})
	require.False(t, ok)
}

func TestSampler_ClampsNearEdge(t *testing.T) {
	m := mesh.Plane(1)
	s, err := New(m, 0, TriangleAndUV, func(info *Info) mgl64.Vec3 { return info.Bary })
	require.NoError(t, err)
	// just below the v=0 edge of the first triangle
	b, ok := s.SampleTriangle(0, mgl64.Vec2{0.5, -1e-9})
	require.True(t, ok)
	for _, c := range b {
		require.GreaterOrEqual(t, c, 0.0)
	}
	require.InDelta(t, 1, b[0]+b[1]+b[2], 1e-12)

	_, err = New(m, 2, UVOnly, point)
	require.Error(t, err)
}
