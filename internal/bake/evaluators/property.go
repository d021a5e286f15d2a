package evaluators

import (
	"fmt"
	"math"

	"github.com/erinpentecost/meshbake/internal/bake"
	"github.com/erinpentecost/meshbake/internal/bake/ramp"
	"github.com/erinpentecost/meshbake/internal/geom"
	"github.com/erinpentecost/meshbake/internal/mesh"
	"github.com/go-gl/mathgl/mgl64"
)

// PropertyType is a detail mesh attribute a Property evaluator bakes.
type PropertyType int

const (
	PositionProperty PropertyType = iota
	NormalProperty
	FacetNormalProperty
	UVPositionProperty
	MaterialIDProperty
	VertexColorProperty
)

// ParsePropertyType maps a config name to a PropertyType.
func ParsePropertyType(s string) (PropertyType, error) {
	switch s {
	case "position":
		return PositionProperty, nil
	case "normal":
		return NormalProperty, nil
	case "facet_normal":
		return FacetNormalProperty, nil
	case "uv_position":
		return UVPositionProperty, nil
	case "material_id":
		return MaterialIDProperty, nil
	case "vertex_color":
		return VertexColorProperty, nil
	}
	return 0, fmt.Errorf("unknown property %q", s)
}

// Property bakes a raw detail mesh attribute in object space. Positions are
// normalized to the detail bounding box. Material ids are never blended.
type Property struct {
	Type PropertyType
	// UVLayer is the detail UV layer read by UVPositionProperty.
	UVLayer int

	detail *mesh.Mesh
	uv     *mesh.Overlay[mgl64.Vec2]
	bounds geom.AABB
}

func NewProperty(t PropertyType) *Property { return &Property{Type: t} }

func (e *Property) Setup(ctx *bake.Context) (bake.Descriptor, error) {
	e.detail = ctx.Detail
	e.bounds = e.detail.Bounds()
	d := bake.Descriptor{Outputs: 1, Mode: bake.Add, SupportsMultisampling: true}
	switch e.Type {
	case PositionProperty:
		d.Layout = []bake.Channel{{Count: 3, Semantic: bake.SemanticPosition}}
	case NormalProperty, FacetNormalProperty:
		d.Layout = []bake.Channel{{Count: 3, Semantic: bake.SemanticNormal}}
	case UVPositionProperty:
		uv, err := e.detail.UVLayer(e.UVLayer)
		if err != nil {
			return bake.Descriptor{}, fmt.Errorf("uv position: %w", err)
		}
		e.uv = uv
		d.Layout = []bake.Channel{{Count: 2, Semantic: bake.SemanticPosition}}
	case MaterialIDProperty:
		d.Layout = []bake.Channel{{Count: 1, Semantic: bake.SemanticMaterial}}
		d.Mode = bake.Overwrite
	case VertexColorProperty:
		d.Layout = []bake.Channel{{Count: 4, Semantic: bake.SemanticColor}}
	default:
		return bake.Descriptor{}, fmt.Errorf("unknown property %d", e.Type)
	}
	return d, nil
}

func (e *Property) EvaluateSample(out []float64, s *bake.CorrespondenceSample) {
	tid, bary := s.DetailTriID, s.DetailBaryCoords
	switch e.Type {
	case PositionProperty:
		p := e.detail.InterpolatedPosition(tid, bary)
		copy(out, p[:])
	case NormalProperty:
		n := e.detail.InterpolatedNormal(tid, bary)
		copy(out, n[:])
	case FacetNormalProperty:
		n := e.detail.TriangleNormal(tid)
		copy(out, n[:])
	case UVPositionProperty:
		uv, _ := mesh.InterpolateVec2(e.uv, tid, bary)
		copy(out, uv[:])
	case MaterialIDProperty:
		out[0] = float64(e.detail.MaterialID(tid))
	case VertexColorProperty:
		c, ok := mesh.InterpolateVec4(e.detail.Colors, tid, bary)
		if !ok {
			c = mgl64.Vec4{1, 1, 1, 1}
		}
		copy(out, c[:])
	}
}

func (e *Property) EvaluateDefault(out []float64) {
	switch e.Type {
	case PositionProperty:
		copy(out, e.bounds.Min[:])
	case NormalProperty, FacetNormalProperty:
		copy(out, []float64{0, 0, 1})
	case MaterialIDProperty:
		out[0] = -1
	case VertexColorProperty:
		copy(out, []float64{0, 0, 0, 1})
	default:
		clear(out)
	}
}

func (e *Property) EvaluateColor(data []float64, colors []mgl64.Vec4) {
	switch e.Type {
	case PositionProperty:
		c := mgl64.Vec4{0, 0, 0, 1}
		for k := range 3 {
			ext := e.bounds.Max[k] - e.bounds.Min[k]
			if ext <= geom.ZeroTolerance {
				c[k] = 0.5
				continue
			}
			c[k] = clamp01((data[k] - e.bounds.Min[k]) / ext)
		}
		colors[0] = c
	case NormalProperty, FacetNormalProperty:
		colors[0] = packNormal(data)
	case UVPositionProperty:
		colors[0] = mgl64.Vec4{clamp01(data[0]), clamp01(data[1]), 0, 1}
	case MaterialIDProperty:
		colors[0] = ramp.IDColor(int(math.Round(data[0])))
	case VertexColorProperty:
		colors[0] = mgl64.Vec4{clamp01(data[0]), clamp01(data[1]), clamp01(data[2]), clamp01(data[3])}
	}
}
