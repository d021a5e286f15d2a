package evaluators

import (
	"github.com/erinpentecost/meshbake/internal/bake"
	"github.com/erinpentecost/meshbake/internal/mesh"
	"github.com/go-gl/mathgl/mgl64"
)

// Normal bakes the detail surface normal in the target's tangent space.
type Normal struct {
	tangents *mesh.Tangents
	detail   *mesh.Mesh
}

func NewNormal() *Normal { return &Normal{} }

func (e *Normal) Setup(ctx *bake.Context) (bake.Descriptor, error) {
	if err := requireTangents(ctx); err != nil {
		return bake.Descriptor{}, err
	}
	e.tangents = ctx.TargetTangents
	e.detail = ctx.Detail
	return bake.Descriptor{
		Layout:                []bake.Channel{{Count: 3, Semantic: bake.SemanticNormal}},
		Outputs:               1,
		Mode:                  bake.Add,
		SupportsMultisampling: true,
	}, nil
}

func (e *Normal) EvaluateSample(out []float64, s *bake.CorrespondenceSample) {
	n := e.detail.InterpolatedNormal(s.DetailTriID, s.DetailBaryCoords)
	tn := toTangentSpace(e.tangents, s, n)
	copy(out, tn[:])
}

func (e *Normal) EvaluateDefault(out []float64) {
	copy(out, []float64{0, 0, 1})
}

func (e *Normal) EvaluateColor(data []float64, colors []mgl64.Vec4) {
	colors[0] = packNormal(data)
}
