package bake

import (
	"github.com/erinpentecost/meshbake/internal/mesh"
	"github.com/erinpentecost/meshbake/internal/occupancy"
	"github.com/erinpentecost/meshbake/internal/raster"
	"github.com/erinpentecost/meshbake/internal/spatial"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// AccumulateMode decides how samples landing on one texel combine.
type AccumulateMode int

const (
	// Add averages filter-weighted samples.
	Add AccumulateMode = iota
	// Overwrite keeps the last valid sample of the texel, for data that must
	// not be blended.
	Overwrite
)

// Semantic names what a group of channels holds.
type Semantic string

const (
	SemanticNormal    Semantic = "normal"
	SemanticOcclusion Semantic = "occlusion"
	SemanticCurvature Semantic = "curvature"
	SemanticPosition  Semantic = "position"
	SemanticColor     Semantic = "color"
	SemanticScalar    Semantic = "scalar"
	SemanticMaterial  Semantic = "material"
)

// Channel is a run of floats in a sample's data.
type Channel struct {
	Count    int
	Semantic Semantic
}

// Descriptor is what an evaluator declares during Setup.
type Descriptor struct {
	// Layout is the per-sample data written by EvaluateSample.
	Layout []Channel
	// Outputs is the number of RGBA images EvaluateColor fills.
	Outputs int
	Mode    AccumulateMode
	// SupportsMultisampling is false for evaluators whose data only makes
	// sense at texel centers.
	SupportsMultisampling bool
}

// Width returns the total float count of the layout.
func (d Descriptor) Width() int {
	n := 0
	for _, c := range d.Layout {
		n += c.Count
	}
	return n
}

// Context is the bake state handed to evaluators at setup. Everything in it
// is borrowed for the duration of one bake and must not be modified.
type Context struct {
	Target         *mesh.Mesh
	TargetTangents *mesh.Tangents
	Detail         *mesh.Mesh
	DetailIndex    *spatial.BVH
	Dims           raster.Dimensions
	UVLayer        int
	Log            *zap.Logger
}

// Evaluator turns correspondence samples into channel data.
// EvaluateSample, EvaluateDefault and EvaluateColor are called from many
// goroutines at once and must only read state prepared in Setup.
type Evaluator interface {
	Setup(ctx *Context) (Descriptor, error)
	// EvaluateSample writes the evaluator's layout for one valid sample.
	EvaluateSample(out []float64, s *CorrespondenceSample)
	// EvaluateDefault writes the layout used for texels with no valid sample.
	EvaluateDefault(out []float64)
	// EvaluateColor converts accumulated layout data into one color per
	// output image.
	EvaluateColor(data []float64, colors []mgl64.Vec4)
}

// PostEvaluator is implemented by evaluators that post-process their images
// once they are complete and gutter filled. texelTypes covers the whole
// image.
type PostEvaluator interface {
	PostEvaluate(images []*raster.Image, texelTypes []occupancy.TexelType) error
}
