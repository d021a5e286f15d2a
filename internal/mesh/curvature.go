package mesh

import (
	"fmt"
	"math"

	"github.com/erinpentecost/meshbake/internal/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// CurvatureType selects which per-vertex curvature is read.
type CurvatureType int

const (
	MeanCurvature CurvatureType = iota
	GaussianCurvature
	MaxCurvature
	MinCurvature
)

// ParseCurvatureType maps a config name to a CurvatureType.
func ParseCurvatureType(s string) (CurvatureType, error) {
	switch s {
	case "", "mean":
		return MeanCurvature, nil
	case "gaussian":
		return GaussianCurvature, nil
	case "max":
		return MaxCurvature, nil
	case "min":
		return MinCurvature, nil
	}
	return 0, fmt.Errorf("unknown curvature type %q", s)
}

// Curvature holds discrete per-vertex curvature values.
type Curvature struct {
	Mean     []float64
	Gaussian []float64
	Max      []float64
	Min      []float64
}

// Values returns the slice for ct.
func (c *Curvature) Values(ct CurvatureType) []float64 {
	switch ct {
	case GaussianCurvature:
		return c.Gaussian
	case MaxCurvature:
		return c.Max
	case MinCurvature:
		return c.Min
	default:
		return c.Mean
	}
}

// Interpolate blends the per-vertex values of ct across triangle tid.
func (c *Curvature) Interpolate(m *Mesh, ct CurvatureType, tid int, bary mgl64.Vec3) float64 {
	v := c.Values(ct)
	t := m.Triangles[tid]
	return v[t[0]]*bary[0] + v[t[1]]*bary[1] + v[t[2]]*bary[2]
}

// ComputeCurvature estimates curvature at every vertex. Mean curvature comes
// from the cotangent Laplacian and is positive where the surface bends away
// from its normal (a sphere with outward normals has H = 1/r). Gaussian
// curvature is the angle deficit. Both are normalized by a barycentric
// vertex area.
func ComputeCurvature(m *Mesh) *Curvature {
	nv := len(m.Vertices)
	lap := make([]mgl64.Vec3, nv)
	normal := make([]mgl64.Vec3, nv)
	area := make([]float64, nv)
	angle := make([]float64, nv)

	type edge struct{ a, b int }
	edgeUse := make(map[edge]int, 3*len(m.Triangles)/2)
	key := func(a, b int) edge {
		if a > b {
			a, b = b, a
		}
		return edge{a, b}
	}

	for _, t := range m.Triangles {
		p := [3]mgl64.Vec3{m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]}
		cross := p[1].Sub(p[0]).Cross(p[2].Sub(p[0]))
		a := 0.5 * cross.Len()
		if a < geom.ZeroTolerance {
			continue
		}
		for i := range 3 {
			j, k := (i+1)%3, (i+2)%3
			u := p[j].Sub(p[i])
			v := p[k].Sub(p[i])
			cot := u.Dot(v) / u.Cross(v).Len()
			lap[t[j]] = lap[t[j]].Add(p[k].Sub(p[j]).Mul(cot))
			lap[t[k]] = lap[t[k]].Add(p[j].Sub(p[k]).Mul(cot))

			cosA := u.Dot(v) / (u.Len() * v.Len())
			angle[t[i]] += math.Acos(max(-1, min(1, cosA)))
			area[t[i]] += a / 3
			normal[t[i]] = normal[t[i]].Add(cross)
			edgeUse[key(t[j], t[k])]++
		}
	}

	boundary := make([]bool, nv)
	for e, n := range edgeUse {
		if n == 1 {
			boundary[e.a] = true
			boundary[e.b] = true
		}
	}

	c := &Curvature{
		Mean:     make([]float64, nv),
		Gaussian: make([]float64, nv),
		Max:      make([]float64, nv),
		Min:      make([]float64, nv),
	}
	for i := range nv {
		if area[i] == 0 {
			continue
		}
		n := geom.Normalized(normal[i])
		// laplace-beltrami of position is -2Hn
		delta := lap[i].Mul(1 / (2 * area[i]))
		h := -0.5 * delta.Dot(n)
		full := 2 * math.Pi
		if boundary[i] {
			full = math.Pi
		}
		k := (full - angle[i]) / area[i]
		d := math.Sqrt(max(h*h-k, 0))

		c.Mean[i] = h
		c.Gaussian[i] = k
		c.Max[i] = h + d
		c.Min[i] = h - d
	}
	return c
}
