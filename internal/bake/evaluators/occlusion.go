package evaluators

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/erinpentecost/meshbake/internal/bake"
	"github.com/erinpentecost/meshbake/internal/bake/postprocessors"
	"github.com/erinpentecost/meshbake/internal/geom"
	"github.com/erinpentecost/meshbake/internal/mesh"
	"github.com/erinpentecost/meshbake/internal/occupancy"
	"github.com/erinpentecost/meshbake/internal/raster"
	"github.com/erinpentecost/meshbake/internal/spatial"
	"github.com/go-gl/mathgl/mgl64"
)

// OcclusionType selects the occlusion outputs. Values combine as flags.
type OcclusionType int

const (
	AmbientOcclusion OcclusionType = 1 << iota
	BentNormal
	AllOcclusion = AmbientOcclusion | BentNormal
)

const (
	// occlusionSeed fixes the per-sample ray rotation so bakes repeat.
	occlusionSeed = 31337
	// surfaceOffset lifts ray origins off the surface, relative to the
	// detail bounding box diagonal.
	surfaceOffset = 1e-5
	goldenAngle   = math.Pi * (3 - 2.23606797749979)
)

// Occlusion casts rays over the hemisphere around the detail normal. Ambient
// occlusion is one minus the weighted fraction of rays that hit the detail
// mesh; the bent normal is the mean unoccluded direction in tangent space.
type Occlusion struct {
	Type OcclusionType
	Rays int
	// MaxDistance bounds occluder distance. Zero is unbounded.
	MaxDistance float64
	// SpreadAngle is the full cone angle in degrees, 180 for a hemisphere.
	SpreadAngle float64
	// BiasAngle in degrees down-weights rays that graze the surface.
	BiasAngle float64
	// BlurRadius blurs the ambient occlusion output inside UV islands.
	BlurRadius int

	detail   *mesh.Mesh
	index    *spatial.BVH
	tangents *mesh.Tangents
	dirs     []mgl64.Vec3
	weights  []float64
	total    float64
	offset   float64
	maxDist  float64

	aoOut, bentOut int
	aoOff, bentOff int
}

// NewOcclusion returns an ambient occlusion evaluator with 32 rays over the
// hemisphere and a 15 degree bias.
func NewOcclusion() *Occlusion {
	return &Occlusion{
		Type:        AmbientOcclusion,
		Rays:        32,
		SpreadAngle: 180,
		BiasAngle:   15,
	}
}

func (e *Occlusion) Setup(ctx *bake.Context) (bake.Descriptor, error) {
	if e.Type&AllOcclusion == 0 {
		return bake.Descriptor{}, fmt.Errorf("occlusion: no output selected")
	}
	if e.Type&BentNormal != 0 {
		if err := requireTangents(ctx); err != nil {
			return bake.Descriptor{}, fmt.Errorf("bent normal: %w", err)
		}
	}
	e.detail = ctx.Detail
	e.index = ctx.DetailIndex
	e.tangents = ctx.TargetTangents
	e.offset = surfaceOffset * e.detail.Bounds().Diagonal()
	e.maxDist = e.MaxDistance
	if e.maxDist <= 0 {
		e.maxDist = spatial.Unbounded
	}
	e.buildRays()

	d := bake.Descriptor{Mode: bake.Add, SupportsMultisampling: true}
	e.aoOut, e.bentOut = -1, -1
	off := 0
	if e.Type&AmbientOcclusion != 0 {
		e.aoOut, e.aoOff = d.Outputs, off
		d.Layout = append(d.Layout, bake.Channel{Count: 1, Semantic: bake.SemanticOcclusion})
		d.Outputs++
		off++
	}
	if e.Type&BentNormal != 0 {
		e.bentOut, e.bentOff = d.Outputs, off
		d.Layout = append(d.Layout, bake.Channel{Count: 3, Semantic: bake.SemanticNormal})
		d.Outputs++
	}
	return d, nil
}

// buildRays lays out a spherical Fibonacci cone around +z.
func (e *Occlusion) buildRays() {
	n := e.Rays
	if n <= 0 {
		n = 32
	}
	spread := e.SpreadAngle
	if spread <= 0 || spread > 180 {
		spread = 180
	}
	cosMax := math.Cos(spread / 2 * math.Pi / 180)
	bias := e.BiasAngle * math.Pi / 180

	e.dirs = make([]mgl64.Vec3, n)
	e.weights = make([]float64, n)
	e.total = 0
	for i := range n {
		z := 1 - (float64(i)+0.5)/float64(n)*(1-cosMax)
		r := math.Sqrt(max(0, 1-z*z))
		phi := float64(i) * goldenAngle
		e.dirs[i] = mgl64.Vec3{r * math.Cos(phi), r * math.Sin(phi), z}

		w := 1.0
		if elev := math.Asin(z); bias > 0 && elev < bias {
			w = (elev / bias) * (elev / bias)
		}
		e.weights[i] = w
		e.total += w
	}
}

func (e *Occlusion) EvaluateSample(out []float64, s *bake.CorrespondenceSample) {
	p := e.detail.InterpolatedPosition(s.DetailTriID, s.DetailBaryCoords)
	n := e.detail.InterpolatedNormal(s.DetailTriID, s.DetailBaryCoords)
	t, b := geom.OrthonormalBasis(n)

	rng := rand.New(rand.NewPCG(occlusionSeed, s.Key()))
	sin, cos := math.Sincos(rng.Float64() * 2 * math.Pi)
	origin := p.Add(n.Mul(e.offset))

	var occluded float64
	var bent mgl64.Vec3
	for i, d := range e.dirs {
		x := d[0]*cos - d[1]*sin
		y := d[0]*sin + d[1]*cos
		dir := t.Mul(x).Add(b.Mul(y)).Add(n.Mul(d[2]))
		if e.index.AnyHit(geom.Ray{Origin: origin, Direction: dir}, e.maxDist) {
			occluded += e.weights[i]
			continue
		}
		bent = bent.Add(dir)
	}

	if e.aoOut >= 0 {
		out[e.aoOff] = 1 - occluded/e.total
	}
	if e.bentOut >= 0 {
		if bent = geom.Normalized(bent); bent == (mgl64.Vec3{}) {
			bent = n
		}
		tb := toTangentSpace(e.tangents, s, bent)
		copy(out[e.bentOff:e.bentOff+3], tb[:])
	}
}

func (e *Occlusion) EvaluateDefault(out []float64) {
	if e.aoOut >= 0 {
		out[e.aoOff] = 1
	}
	if e.bentOut >= 0 {
		copy(out[e.bentOff:e.bentOff+3], []float64{0, 0, 1})
	}
}

func (e *Occlusion) EvaluateColor(data []float64, colors []mgl64.Vec4) {
	if e.aoOut >= 0 {
		colors[e.aoOut] = gray(data[e.aoOff])
	}
	if e.bentOut >= 0 {
		colors[e.bentOut] = packNormal(data[e.bentOff : e.bentOff+3])
	}
}

func (e *Occlusion) PostEvaluate(images []*raster.Image, texelTypes []occupancy.TexelType) error {
	if e.BlurRadius <= 0 || e.aoOut < 0 {
		return nil
	}
	return blurInPlace(images[e.aoOut], e.BlurRadius, texelTypes)
}

func blurInPlace(im *raster.Image, radius int, mask []occupancy.TexelType) error {
	blurred, err := (&postprocessors.MaskedBlur{Radius: radius, Mask: mask}).Process(im)
	if err != nil {
		return fmt.Errorf("blur: %w", err)
	}
	copy(im.Pix, blurred.Pix)
	return nil
}
