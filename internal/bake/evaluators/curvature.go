package evaluators

import (
	"fmt"
	"math"

	"github.com/erinpentecost/meshbake/internal/bake"
	"github.com/erinpentecost/meshbake/internal/bake/ramp"
	"github.com/erinpentecost/meshbake/internal/geom"
	"github.com/erinpentecost/meshbake/internal/mesh"
	"github.com/erinpentecost/meshbake/internal/occupancy"
	"github.com/erinpentecost/meshbake/internal/raster"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// Curvature bakes per-vertex curvature of the detail mesh through a color
// ramp.
type Curvature struct {
	Type mesh.CurvatureType
	// Ramp defaults to red for concave, green for flat and blue for convex.
	Ramp ramp.Ramp
	// RangeScale scales the automatic range of mean plus one standard
	// deviation.
	RangeScale float64
	// OverrideRange, when positive, is used instead of the automatic range.
	OverrideRange float64
	BlurRadius    int
	// Values are precomputed curvatures of the detail mesh. Nil computes
	// them during setup.
	Values *mesh.Curvature

	detail *mesh.Mesh
	curv   *mesh.Curvature
	rng    float64
}

func NewCurvature() *Curvature {
	return &Curvature{RangeScale: 1}
}

func (e *Curvature) Setup(ctx *bake.Context) (bake.Descriptor, error) {
	e.detail = ctx.Detail
	e.curv = e.Values
	if e.curv == nil {
		e.curv = mesh.ComputeCurvature(e.detail)
	}
	values := e.curv.Values(e.Type)
	if len(values) != e.detail.VertexCount() {
		return bake.Descriptor{}, fmt.Errorf("curvature: %d values for %d vertices", len(values), e.detail.VertexCount())
	}
	if e.Ramp == nil {
		e.Ramp = ramp.RedGreenBlue{}
	}
	e.rng = e.OverrideRange
	if e.rng <= 0 {
		e.rng = autoRange(values, e.RangeScale)
	}
	if ctx.Log != nil {
		ctx.Log.Debug("curvature range", zap.Float64("range", e.rng), zap.Bool("override", e.OverrideRange > 0))
	}
	return bake.Descriptor{
		Layout:                []bake.Channel{{Count: 1, Semantic: bake.SemanticCurvature}},
		Outputs:               1,
		Mode:                  bake.Add,
		SupportsMultisampling: true,
	}, nil
}

// Range returns the curvature mapped to the ends of the ramp.
func (e *Curvature) Range() float64 { return e.rng }

// autoRange is scale times the mean magnitude plus one standard deviation.
func autoRange(values []float64, scale float64) float64 {
	if scale <= 0 {
		scale = 1
	}
	if len(values) == 0 {
		return 1
	}
	var sum, sumSq float64
	for _, v := range values {
		sum += v
		sumSq += v * v
	}
	n := float64(len(values))
	mean := sum / n
	std := math.Sqrt(max(0, sumSq/n-mean*mean))
	r := scale * (math.Abs(mean) + std)
	if r <= geom.ZeroTolerance {
		return 1
	}
	return r
}

func (e *Curvature) EvaluateSample(out []float64, s *bake.CorrespondenceSample) {
	out[0] = e.curv.Interpolate(e.detail, e.Type, s.DetailTriID, s.DetailBaryCoords)
}

func (e *Curvature) EvaluateDefault(out []float64) {
	out[0] = 0
}

func (e *Curvature) EvaluateColor(data []float64, colors []mgl64.Vec4) {
	colors[0] = e.Ramp.At(data[0] / e.rng)
}

func (e *Curvature) PostEvaluate(images []*raster.Image, texelTypes []occupancy.TexelType) error {
	if e.BlurRadius <= 0 {
		return nil
	}
	return blurInPlace(images[0], e.BlurRadius, texelTypes)
}
