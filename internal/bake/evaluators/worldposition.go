package evaluators

import (
	"errors"

	"github.com/erinpentecost/meshbake/internal/bake"
	"github.com/erinpentecost/meshbake/internal/mesh"
	"github.com/go-gl/mathgl/mgl64"
)

var errNoFunc = errors.New("world position evaluator has no function")

// ColorFunc computes a color from a detail surface point and its normal.
// It is called concurrently.
type ColorFunc func(p, n mgl64.Vec3) mgl64.Vec4

// NormalFunc computes a world space normal from a detail surface point and
// its normal. It is called concurrently.
type NormalFunc func(p, n mgl64.Vec3) mgl64.Vec3

// WorldPositionColor bakes an arbitrary color field sampled on the detail
// surface.
type WorldPositionColor struct {
	Func    ColorFunc
	Default mgl64.Vec4

	detail *mesh.Mesh
}

func (e *WorldPositionColor) Setup(ctx *bake.Context) (bake.Descriptor, error) {
	if e.Func == nil {
		return bake.Descriptor{}, errNoFunc
	}
	e.detail = ctx.Detail
	return bake.Descriptor{
		Layout:                []bake.Channel{{Count: 4, Semantic: bake.SemanticColor}},
		Outputs:               1,
		Mode:                  bake.Add,
		SupportsMultisampling: true,
	}, nil
}

func (e *WorldPositionColor) EvaluateSample(out []float64, s *bake.CorrespondenceSample) {
	p := e.detail.InterpolatedPosition(s.DetailTriID, s.DetailBaryCoords)
	n := e.detail.InterpolatedNormal(s.DetailTriID, s.DetailBaryCoords)
	c := e.Func(p, n)
	copy(out, c[:])
}

func (e *WorldPositionColor) EvaluateDefault(out []float64) {
	copy(out, e.Default[:])
}

func (e *WorldPositionColor) EvaluateColor(data []float64, colors []mgl64.Vec4) {
	colors[0] = mgl64.Vec4{data[0], data[1], data[2], data[3]}
}

// WorldPositionNormal bakes an arbitrary world space normal field, converted
// to the target's tangent space like Normal.
type WorldPositionNormal struct {
	Func NormalFunc

	detail   *mesh.Mesh
	tangents *mesh.Tangents
}

func (e *WorldPositionNormal) Setup(ctx *bake.Context) (bake.Descriptor, error) {
	if e.Func == nil {
		return bake.Descriptor{}, errNoFunc
	}
	if err := requireTangents(ctx); err != nil {
		return bake.Descriptor{}, err
	}
	e.detail = ctx.Detail
	e.tangents = ctx.TargetTangents
	return bake.Descriptor{
		Layout:                []bake.Channel{{Count: 3, Semantic: bake.SemanticNormal}},
		Outputs:               1,
		Mode:                  bake.Add,
		SupportsMultisampling: true,
	}, nil
}

func (e *WorldPositionNormal) EvaluateSample(out []float64, s *bake.CorrespondenceSample) {
	p := e.detail.InterpolatedPosition(s.DetailTriID, s.DetailBaryCoords)
	n := e.detail.InterpolatedNormal(s.DetailTriID, s.DetailBaryCoords)
	tn := toTangentSpace(e.tangents, s, e.Func(p, n))
	copy(out, tn[:])
}

func (e *WorldPositionNormal) EvaluateDefault(out []float64) {
	copy(out, []float64{0, 0, 1})
}

func (e *WorldPositionNormal) EvaluateColor(data []float64, colors []mgl64.Vec4) {
	colors[0] = packNormal(data)
}
