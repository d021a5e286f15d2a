package geom

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func TestClosestPoint_Regions(t *testing.T) {
	tri := NewTriangle3(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0})

	tests := []struct {
		name  string
		p     mgl64.Vec3
		want  mgl64.Vec3
		wantB mgl64.Vec3
	}{
		{"vertex a", mgl64.Vec3{-1, -1, 0}, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}},
		{"vertex b", mgl64.Vec3{2, -0.5, 0}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}},
		{"vertex c", mgl64.Vec3{-0.5, 2, 0}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 1}},
		{"edge ab", mgl64.Vec3{0.5, -1, 0}, mgl64.Vec3{0.5, 0, 0}, mgl64.Vec3{0.5, 0.5, 0}},
		{"edge ac", mgl64.Vec3{-1, 0.25, 0}, mgl64.Vec3{0, 0.25, 0}, mgl64.Vec3{0.75, 0, 0.25}},
		{"edge bc", mgl64.Vec3{1, 1, 0}, mgl64.Vec3{0.5, 0.5, 0}, mgl64.Vec3{0, 0.5, 0.5}},
		{"above face", mgl64.Vec3{0.25, 0.25, 3}, mgl64.Vec3{0.25, 0.25, 0}, mgl64.Vec3{0.5, 0.25, 0.25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, b := tri.ClosestPoint(tt.p)
			require.InDelta(t, 0, q.Sub(tt.want).Len(), 1e-12)
			require.InDelta(t, 0, b.Sub(tt.wantB).Len(), 1e-12)
			require.InDelta(t, 0, tri.Point(b).Sub(q).Len(), 1e-12)
		})
	}
}

func TestBarycentricCoords2(t *testing.T) {
	tri := NewTriangle2(mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0}, mgl64.Vec2{0, 1})
	b := tri.BarycentricCoords(mgl64.Vec2{0.25, 0.5})
	require.InDelta(t, 0.25, b[0], 1e-12)
	require.InDelta(t, 0.25, b[1], 1e-12)
	require.InDelta(t, 0.5, b[2], 1e-12)

	outside := tri.BarycentricCoords(mgl64.Vec2{1, 1})
	require.Less(t, outside[0], 0.0)

	degenerate := NewTriangle2(mgl64.Vec2{0, 0}, mgl64.Vec2{1, 1}, mgl64.Vec2{2, 2})
	require.Equal(t, mgl64.Vec3{1.0 / 3, 1.0 / 3, 1.0 / 3}, degenerate.BarycentricCoords(mgl64.Vec2{1, 1}))
}

func TestIntersectTriangle(t *testing.T) {
	a, b, c := mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}

	down := Ray{Origin: mgl64.Vec3{0.25, 0.25, 2}, Direction: mgl64.Vec3{0, 0, -1}}
	tHit, bary, ok := down.IntersectTriangle(a, b, c)
	require.True(t, ok)
	require.InDelta(t, 2, tHit, 1e-12)
	require.InDelta(t, 0.5, bary[0], 1e-12)

	// two-sided
	up := Ray{Origin: mgl64.Vec3{0.25, 0.25, -2}, Direction: mgl64.Vec3{0, 0, 1}}
	_, _, ok = up.IntersectTriangle(a, b, c)
	require.True(t, ok)

	away := Ray{Origin: mgl64.Vec3{0.25, 0.25, 2}, Direction: mgl64.Vec3{0, 0, 1}}
	_, _, ok = away.IntersectTriangle(a, b, c)
	require.False(t, ok)

	miss := Ray{Origin: mgl64.Vec3{2, 2, 2}, Direction: mgl64.Vec3{0, 0, -1}}
	_, _, ok = miss.IntersectTriangle(a, b, c)
	require.False(t, ok)
}

func TestAABB(t *testing.T) {
	box := EmptyAABB()
	require.True(t, box.IsEmpty())
	box = box.Extend(mgl64.Vec3{0, 0, 0}).Extend(mgl64.Vec3{1, 2, 3})
	require.False(t, box.IsEmpty())
	require.Equal(t, 2, box.LongestAxis())
	require.InDelta(t, math.Sqrt(14), box.Diagonal(), 1e-12)
	require.Equal(t, 0.0, box.DistanceSq(mgl64.Vec3{0.5, 0.5, 0.5}))
	require.InDelta(t, 4, box.DistanceSq(mgl64.Vec3{-2, 1, 1}), 1e-12)

	d, ok := box.IntersectRay(Ray{Origin: mgl64.Vec3{0.5, 1, -5}, Direction: mgl64.Vec3{0, 0, 1}}, 10)
	require.True(t, ok)
	require.InDelta(t, 5, d, 1e-12)
	_, ok = box.IntersectRay(Ray{Origin: mgl64.Vec3{0.5, 1, -5}, Direction: mgl64.Vec3{0, 0, 1}}, 4)
	require.False(t, ok)
}

func TestOrthonormalBasis(t *testing.T) {
	for _, n := range []mgl64.Vec3{{0, 0, 1}, {0, 0, -1}, {1, 0, 0}, Normalized(mgl64.Vec3{1, 2, 3})} {
		tt, bb := OrthonormalBasis(n)
		require.InDelta(t, 1, tt.Len(), 1e-9)
		require.InDelta(t, 1, bb.Len(), 1e-9)
		require.InDelta(t, 0, tt.Dot(n), 1e-9)
		require.InDelta(t, 0, bb.Dot(n), 1e-9)
		require.InDelta(t, 0, tt.Dot(bb), 1e-9)
	}
}
