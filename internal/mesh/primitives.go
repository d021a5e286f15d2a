package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Sphere builds a z-up UV sphere centered at the origin with outward winding,
// smooth normals and an equirectangular UV layer. Vertices on the UV seam are
// shared in 3D and split in UV.
func Sphere(radius float64, rings, segments int) *Mesh {
	rings = max(rings, 2)
	segments = max(segments, 3)

	m := New()
	north := m.AppendVertex(mgl64.Vec3{0, 0, radius})
	ring := make([][]int, rings+1)
	ring[0] = make([]int, segments)
	for j := range segments {
		ring[0][j] = north
	}
	for i := 1; i < rings; i++ {
		theta := math.Pi * float64(i) / float64(rings)
		ring[i] = make([]int, segments)
		for j := range segments {
			phi := 2 * math.Pi * float64(j) / float64(segments)
			ring[i][j] = m.AppendVertex(mgl64.Vec3{
				radius * math.Sin(theta) * math.Cos(phi),
				radius * math.Sin(theta) * math.Sin(phi),
				radius * math.Cos(theta),
			})
		}
	}
	south := m.AppendVertex(mgl64.Vec3{0, 0, -radius})
	ring[rings] = make([]int, segments)
	for j := range segments {
		ring[rings][j] = south
	}

	uv := m.AddUVLayer()
	uvID := func(i, j int) int { return i*(segments+1) + j }
	for i := 0; i <= rings; i++ {
		for j := 0; j <= segments; j++ {
			uv.AppendElement(mgl64.Vec2{float64(j) / float64(segments), float64(i) / float64(rings)})
		}
	}

	for i := range rings {
		for j := range segments {
			jn := (j + 1) % segments
			if i < rings-1 {
				tid := m.AppendTriangle(ring[i][j], ring[i+1][j], ring[i+1][jn])
				uv.SetTriangle(tid, Triangle{uvID(i, j), uvID(i+1, j), uvID(i+1, j+1)})
			}
			if i > 0 {
				tid := m.AppendTriangle(ring[i][j], ring[i+1][jn], ring[i][jn])
				uv.SetTriangle(tid, Triangle{uvID(i, j), uvID(i+1, j+1), uvID(i, j+1)})
			}
		}
	}
	ComputeVertexNormals(m)
	return m
}

// Plane builds an n by n grid covering [0,1]^2 in the z=0 plane with +z
// normals and a UV layer equal to the xy position.
func Plane(n int) *Mesh {
	n = max(n, 1)
	m := New()
	uv := m.AddUVLayer()
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			p := mgl64.Vec2{float64(x) / float64(n), float64(y) / float64(n)}
			m.AppendVertex(mgl64.Vec3{p.X(), p.Y(), 0})
			uv.AppendElement(p)
		}
	}
	id := func(x, y int) int { return y*(n+1) + x }
	for y := range n {
		for x := range n {
			a, b, c, d := id(x, y), id(x+1, y), id(x+1, y+1), id(x, y+1)
			t0 := m.AppendTriangle(a, b, c)
			uv.SetTriangle(t0, Triangle{a, b, c})
			t1 := m.AppendTriangle(a, c, d)
			uv.SetTriangle(t1, Triangle{a, c, d})
		}
	}
	ComputeVertexNormals(m)
	return m
}
