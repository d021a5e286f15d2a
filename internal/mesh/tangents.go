package mesh

import (
	"math"

	"github.com/erinpentecost/meshbake/internal/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// Tangents holds a tangent and bitangent per (triangle, corner), stored at
// index 3*tid+corner.
type Tangents struct {
	Tangents   []mgl64.Vec3
	Bitangents []mgl64.Vec3
}

// Len returns the number of corners stored.
func (t *Tangents) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Tangents)
}

// Corner returns the frame vectors of one triangle corner.
func (t *Tangents) Corner(tid, corner int) (mgl64.Vec3, mgl64.Vec3) {
	i := 3*tid + corner
	return t.Tangents[i], t.Bitangents[i]
}

// Interpolated blends the three corner frames of tid.
func (t *Tangents) Interpolated(tid int, bary mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var tan, bitan mgl64.Vec3
	for j := range 3 {
		ct, cb := t.Corner(tid, j)
		tan = tan.Add(ct.Mul(bary[j]))
		bitan = bitan.Add(cb.Mul(bary[j]))
	}
	return tan, bitan
}

// Frame returns an orthonormal tangent frame at bary inside tid, built around
// the unit normal n. The bitangent keeps the handedness of the stored frame.
func (t *Tangents) Frame(tid int, bary mgl64.Vec3, n mgl64.Vec3) mgl64.Mat3 {
	tan, bitan := t.Interpolated(tid, bary)
	tan = geom.Normalized(tan.Sub(n.Mul(n.Dot(tan))))
	if tan == (mgl64.Vec3{}) {
		tan, _ = geom.OrthonormalBasis(n)
	}
	b := n.Cross(tan)
	if b.Dot(bitan) < 0 {
		b = b.Mul(-1)
	}
	return mgl64.Mat3FromCols(tan, b, n)
}

// ToTangentSpace expresses the world vector v in the frame at bary inside tid.
func (t *Tangents) ToTangentSpace(tid int, bary mgl64.Vec3, n, v mgl64.Vec3) mgl64.Vec3 {
	f := t.Frame(tid, bary, n)
	return mgl64.Vec3{f.Col(0).Dot(v), f.Col(1).Dot(v), f.Col(2).Dot(v)}
}

// FromTangentSpace maps the tangent space vector v back into world space.
func (t *Tangents) FromTangentSpace(tid int, bary mgl64.Vec3, n, v mgl64.Vec3) mgl64.Vec3 {
	return t.Frame(tid, bary, n).Mul3x1(v)
}

// ComputeTangents derives per-corner tangents from UV layer uvLayer. Corner
// frames that share a UV element are averaged, so frames are smooth inside a
// UV island and split across UV seams. Triangles without UVs get an arbitrary
// frame around their face normal.
func ComputeTangents(m *Mesh, uvLayer int) (*Tangents, error) {
	uv, err := m.UVLayer(uvLayer)
	if err != nil {
		return nil, err
	}

	tAcc := make([]mgl64.Vec3, len(uv.Elements))
	bAcc := make([]mgl64.Vec3, len(uv.Elements))
	for tid, tri := range m.Triangles {
		if !uv.IsSetTriangle(tid) {
			continue
		}
		ut := uv.Triangles[tid]
		p0, p1, p2 := m.Vertices[tri[0]], m.Vertices[tri[1]], m.Vertices[tri[2]]
		w0, w1, w2 := uv.Elements[ut[0]], uv.Elements[ut[1]], uv.Elements[ut[2]]

		e1 := p1.Sub(p0)
		e2 := p2.Sub(p0)
		du1, dv1 := w1.X()-w0.X(), w1.Y()-w0.Y()
		du2, dv2 := w2.X()-w0.X(), w2.Y()-w0.Y()

		denom := du1*dv2 - du2*dv1
		if math.Abs(denom) < geom.ZeroTolerance {
			continue
		}
		r := 1 / denom
		t := e1.Mul(dv2 * r).Sub(e2.Mul(dv1 * r))
		b := e2.Mul(du1 * r).Sub(e1.Mul(du2 * r))
		for _, e := range ut {
			tAcc[e] = tAcc[e].Add(t)
			bAcc[e] = bAcc[e].Add(b)
		}
	}

	out := &Tangents{
		Tangents:   make([]mgl64.Vec3, 3*len(m.Triangles)),
		Bitangents: make([]mgl64.Vec3, 3*len(m.Triangles)),
	}
	corners := [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for tid := range m.Triangles {
		set := uv.IsSetTriangle(tid)
		for j := range 3 {
			n := m.InterpolatedNormal(tid, corners[j])
			var t, b mgl64.Vec3
			if set {
				e := uv.Triangles[tid][j]
				t = tAcc[e]
				b = bAcc[e]
			}
			// Gram-Schmidt
			t = geom.Normalized(t.Sub(n.Mul(n.Dot(t))))
			if t == (mgl64.Vec3{}) {
				t, b = geom.OrthonormalBasis(n)
			} else {
				sign := 1.0
				if n.Cross(t).Dot(b) < 0 {
					sign = -1
				}
				b = n.Cross(t).Mul(sign)
			}
			out.Tangents[3*tid+j] = t
			out.Bitangents[3*tid+j] = b
		}
	}
	return out, nil
}
