package evaluators

import (
	"errors"
	"fmt"

	"github.com/erinpentecost/meshbake/internal/bake"
	"github.com/erinpentecost/meshbake/internal/geom"
	"github.com/erinpentecost/meshbake/internal/mesh"
	"github.com/erinpentecost/meshbake/internal/occupancy"
	"github.com/erinpentecost/meshbake/internal/raster"
	"github.com/go-gl/mathgl/mgl64"
)

// AnyMaterial disables the material filter of Resample.
const AnyMaterial = -1

var errNoSource = errors.New("resample: no source image")

// resampleLayout is premultiplied RGBA followed by coverage.
var resampleLayout = []bake.Channel{
	{Count: 4, Semantic: bake.SemanticColor},
	{Count: 1, Semantic: bake.SemanticScalar},
}

// Resample transfers a texture laid out on the detail mesh's UVs. With a
// material filter only detail triangles of that material contribute, and
// the second output holds the coverage of each texel. When Result is set,
// covered texels are blended into it after the bake and all others are left
// untouched, so one pass per material can build a single image.
type Resample struct {
	Source        *raster.Image
	DetailUVLayer int
	MaterialID    int
	Default       mgl64.Vec4
	Result        *raster.Image

	detail *mesh.Mesh
	uv     *mesh.Overlay[mgl64.Vec2]
}

func NewResample(src *raster.Image) *Resample {
	return &Resample{
		Source:     src,
		MaterialID: AnyMaterial,
		Default:    mgl64.Vec4{0, 0, 0, 1},
	}
}

func (e *Resample) Setup(ctx *bake.Context) (bake.Descriptor, error) {
	if e.Source == nil {
		return bake.Descriptor{}, errNoSource
	}
	if e.Result != nil && e.Result.Dims != ctx.Dims {
		return bake.Descriptor{}, fmt.Errorf("resample: result is %dx%d, bake is %dx%d",
			e.Result.Dims.Width, e.Result.Dims.Height, ctx.Dims.Width, ctx.Dims.Height)
	}
	uv, err := ctx.Detail.UVLayer(e.DetailUVLayer)
	if err != nil {
		return bake.Descriptor{}, fmt.Errorf("resample: %w", err)
	}
	e.detail = ctx.Detail
	e.uv = uv
	return bake.Descriptor{
		Layout:                resampleLayout,
		Outputs:               2,
		Mode:                  bake.Add,
		SupportsMultisampling: true,
	}, nil
}

func (e *Resample) EvaluateSample(out []float64, s *bake.CorrespondenceSample) {
	if e.MaterialID != AnyMaterial && e.detail.MaterialID(s.DetailTriID) != e.MaterialID {
		clear(out)
		return
	}
	sampleTexture(out, e.Source, e.uv, s)
}

func (e *Resample) EvaluateDefault(out []float64) {
	copy(out, e.Default[:])
	out[4] = 0
}

func (e *Resample) EvaluateColor(data []float64, colors []mgl64.Vec4) {
	colors[0] = unpremultiply(data, e.Default)
	colors[1] = gray(data[4])
}

func (e *Resample) PostEvaluate(images []*raster.Image, texelTypes []occupancy.TexelType) error {
	if e.Result == nil {
		return nil
	}
	color, coverage := images[0], images[1]
	for i, tt := range texelTypes {
		if tt == occupancy.Empty {
			continue
		}
		c := coverage.Pixel(i)[0]
		if c <= 0 {
			continue
		}
		e.Result.SetVec4(i, geom.Lerp4(e.Result.Vec4(i), color.Vec4(i), c))
	}
	return nil
}

// MultiResample transfers one texture per detail material into a single
// output. Detail triangles whose material has no source contribute nothing.
type MultiResample struct {
	Sources       map[int]*raster.Image
	DetailUVLayer int
	Default       mgl64.Vec4

	detail *mesh.Mesh
	uv     *mesh.Overlay[mgl64.Vec2]
}

func NewMultiResample(sources map[int]*raster.Image) *MultiResample {
	return &MultiResample{Sources: sources, Default: mgl64.Vec4{0, 0, 0, 1}}
}

func (e *MultiResample) Setup(ctx *bake.Context) (bake.Descriptor, error) {
	if len(e.Sources) == 0 {
		return bake.Descriptor{}, errNoSource
	}
	uv, err := ctx.Detail.UVLayer(e.DetailUVLayer)
	if err != nil {
		return bake.Descriptor{}, fmt.Errorf("multi resample: %w", err)
	}
	e.detail = ctx.Detail
	e.uv = uv
	return bake.Descriptor{
		Layout:                resampleLayout,
		Outputs:               1,
		Mode:                  bake.Add,
		SupportsMultisampling: true,
	}, nil
}

func (e *MultiResample) EvaluateSample(out []float64, s *bake.CorrespondenceSample) {
	src, ok := e.Sources[e.detail.MaterialID(s.DetailTriID)]
	if !ok || src == nil {
		clear(out)
		return
	}
	sampleTexture(out, src, e.uv, s)
}

func (e *MultiResample) EvaluateDefault(out []float64) {
	copy(out, e.Default[:])
	out[4] = 0
}

func (e *MultiResample) EvaluateColor(data []float64, colors []mgl64.Vec4) {
	colors[0] = unpremultiply(data, e.Default)
}

// sampleTexture writes the source color at the detail UV with full coverage,
// or nothing when the detail triangle has no UVs.
func sampleTexture(out []float64, src *raster.Image, uv *mesh.Overlay[mgl64.Vec2], s *bake.CorrespondenceSample) {
	clear(out)
	p, ok := mesh.InterpolateVec2(uv, s.DetailTriID, s.DetailBaryCoords)
	if !ok {
		return
	}
	var px [4]float64
	src.Sample(p, px[:])
	switch src.Channels {
	case 1:
		px = [4]float64{px[0], px[0], px[0], 1}
	case 2:
		px = [4]float64{px[0], px[0], px[0], px[1]}
	case 3:
		px[3] = 1
	}
	copy(out[:4], px[:])
	out[4] = 1
}

func unpremultiply(data []float64, def mgl64.Vec4) mgl64.Vec4 {
	c := data[4]
	if c <= geom.ZeroTolerance {
		return def
	}
	return mgl64.Vec4{data[0] / c, data[1] / c, data[2] / c, data[3] / c}
}
