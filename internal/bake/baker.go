// Package bake transfers surface data from a detail mesh onto textures laid
// out by the UV coordinates of a target mesh.
package bake

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/erinpentecost/meshbake/internal/correspond"
	"github.com/erinpentecost/meshbake/internal/mesh"
	"github.com/erinpentecost/meshbake/internal/occupancy"
	"github.com/erinpentecost/meshbake/internal/raster"
	"github.com/erinpentecost/meshbake/internal/sampler"
	"github.com/erinpentecost/meshbake/internal/spatial"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNonSquare is returned when the bake dimensions are not square.
	ErrNonSquare = occupancy.ErrNonSquare
	// ErrInvalidUVLayer is returned when the target lacks the UV layer.
	ErrInvalidUVLayer = errors.New("invalid uv layer")
	// ErrMissingTangents is returned by evaluators that need target tangents
	// when none, or too few, were provided.
	ErrMissingTangents = errors.New("target tangents missing")
	// ErrCancelled is returned when a bake is aborted. The result images
	// are incomplete and must be discarded.
	ErrCancelled = errors.New("bake cancelled")
)

const (
	DefaultTileSize   = 32
	DefaultThickness  = 3.0
	DefaultGutterSize = 4
)

// Baker drives a bake of any number of evaluators in one pass over the
// target's UV layout. Meshes, indices and tangents are borrowed: the caller
// keeps them alive and unmodified until Bake returns.
type Baker struct {
	log *zap.Logger

	target      *mesh.Mesh
	tangents    *mesh.Tangents
	detail      *mesh.Mesh
	detailIndex *spatial.BVH

	dims          raster.Dimensions
	uvLayer       int
	strategy      correspond.Strategy
	thickness     float64
	gutterEnabled bool
	gutterSize    int
	multisampling int
	tileSize      int
	filter        Filter
	threads       int
	cancel        func() bool

	evaluators []Evaluator

	descs             []Descriptor
	results           [][]*raster.Image
	gutterTexels      []occupancy.GutterTexel
	texelTypes        []occupancy.TexelType
	effectiveStrategy correspond.Strategy
}

// NewBaker returns a baker with default parameters. A nil logger discards
// output.
func NewBaker(log *zap.Logger) *Baker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Baker{
		log:           log,
		strategy:      correspond.RaycastStandardThenNearest,
		thickness:     DefaultThickness,
		gutterEnabled: true,
		gutterSize:    DefaultGutterSize,
		multisampling: 1,
		tileSize:      DefaultTileSize,
		filter:        MitchellFilter,
	}
}

// SetTargetMesh sets the mesh whose UV layout defines the output.
func (b *Baker) SetTargetMesh(m *mesh.Mesh) { b.target = m }

// SetTargetTangents sets the per-corner tangents of the target mesh.
func (b *Baker) SetTargetTangents(t *mesh.Tangents) { b.tangents = t }

// SetDetailMesh sets the mesh supplying surface data. A nil index is built
// on the next bake. Without a detail mesh the target bakes onto itself.
func (b *Baker) SetDetailMesh(m *mesh.Mesh, index *spatial.BVH) {
	b.detail = m
	b.detailIndex = index
}

func (b *Baker) SetDimensions(d raster.Dimensions)                { b.dims = d }
func (b *Baker) SetUVLayer(layer int)                             { b.uvLayer = layer }
func (b *Baker) SetCorrespondenceStrategy(s correspond.Strategy) { b.strategy = s }
func (b *Baker) SetThickness(t float64)                          { b.thickness = t }
func (b *Baker) SetGutterEnabled(on bool)                        { b.gutterEnabled = on }
func (b *Baker) SetGutterSize(texels int)                        { b.gutterSize = texels }
func (b *Baker) SetFilter(f Filter)                              { b.filter = f }

// SetMultisampling sets the samples per texel axis.
func (b *Baker) SetMultisampling(n int) { b.multisampling = max(n, 1) }

// SetTileSize sets the tile edge length in texels.
func (b *Baker) SetTileSize(n int) { b.tileSize = max(n, 1) }

// SetThreads limits concurrent tiles. Zero uses GOMAXPROCS.
func (b *Baker) SetThreads(n int) { b.threads = n }

// SetCancelFunc installs a predicate polled during the bake; returning true
// aborts it.
func (b *Baker) SetCancelFunc(f func() bool) { b.cancel = f }

// AddEvaluator registers an evaluator and returns its result index.
func (b *Baker) AddEvaluator(e Evaluator) int {
	b.evaluators = append(b.evaluators, e)
	return len(b.evaluators) - 1
}

// Evaluators returns the registered evaluators.
func (b *Baker) Evaluators() []Evaluator { return b.evaluators }

// Reset drops the evaluators and results so the baker can be reused.
func (b *Baker) Reset() {
	b.evaluators = nil
	b.descs = nil
	b.results = nil
	b.gutterTexels = nil
	b.texelTypes = nil
}

// Results returns the output images of evaluator i.
func (b *Baker) Results(i int) []*raster.Image {
	if i < 0 || i >= len(b.results) {
		return nil
	}
	return b.results[i]
}

// GutterTexels returns the gutter copies applied by the last bake.
func (b *Baker) GutterTexels() []occupancy.GutterTexel { return b.gutterTexels }

// TexelTypes returns the occupancy of every texel from the last bake.
func (b *Baker) TexelTypes() []occupancy.TexelType { return b.texelTypes }

// EffectiveStrategy returns the correspondence strategy the last bake used.
func (b *Baker) EffectiveStrategy() correspond.Strategy { return b.effectiveStrategy }

func (b *Baker) cancelled(ctx context.Context) bool {
	return ctx.Err() != nil || (b.cancel != nil && b.cancel())
}

func (b *Baker) cancelErr(ctx context.Context) error {
	b.log.Info("bake cancelled")
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return ErrCancelled
}

// Bake runs every registered evaluator. It is a no-op without a target mesh
// or evaluators.
func (b *Baker) Bake(ctx context.Context) error {
	if b.target == nil || len(b.evaluators) == 0 {
		return nil
	}
	start := time.Now()
	b.results, b.gutterTexels, b.texelTypes = nil, nil, nil

	if b.dims.Num() <= 0 {
		return fmt.Errorf("bake %dx%d: dimensions must be positive", b.dims.Width, b.dims.Height)
	}
	if !b.dims.IsSquare() {
		return fmt.Errorf("bake %dx%d: %w", b.dims.Width, b.dims.Height, ErrNonSquare)
	}
	if _, err := b.target.UVLayer(b.uvLayer); err != nil {
		return fmt.Errorf("bake: %w: %w", ErrInvalidUVLayer, err)
	}

	detail, detailIndex := b.target, b.detailIndex
	if b.detail != nil {
		detail = b.detail
	}
	if detailIndex == nil || detailIndex.Mesh() != detail {
		detailIndex = spatial.New(detail)
	}

	ectx := &Context{
		Target:         b.target,
		TargetTangents: b.tangents,
		Detail:         detail,
		DetailIndex:    detailIndex,
		Dims:           b.dims,
		UVLayer:        b.uvLayer,
		Log:            b.log,
	}
	b.descs = make([]Descriptor, len(b.evaluators))
	ms := b.multisampling
	for i, e := range b.evaluators {
		d, err := e.Setup(ectx)
		if err != nil {
			return fmt.Errorf("setup evaluator %d: %w", i, err)
		}
		b.descs[i] = d
		if !d.SupportsMultisampling && ms > 1 {
			b.log.Warn("evaluator does not support multisampling, using one sample per texel",
				zap.Int("evaluator", i), zap.Int("requested", b.multisampling))
			ms = 1
		}
	}

	strategy := b.strategy
	if strategy == correspond.Identity && detail != b.target {
		b.log.Warn("identity correspondence needs the detail mesh to be the target mesh, using nearest point")
		strategy = correspond.NearestPoint
	}
	b.effectiveStrategy = strategy

	flat, err := mesh.FlattenUV(b.target, b.uvLayer)
	if err != nil {
		return fmt.Errorf("bake: %w: %w", ErrInvalidUVLayer, err)
	}
	target := b.target
	smp, err := sampler.New(target, b.uvLayer, sampler.TriangleAndUV, func(info *sampler.Info) CorrespondenceSample {
		return CorrespondenceSample{
			BaseSample:  *info,
			BaseNormal:  target.InterpolatedNormal(info.TriangleID, info.Bary),
			DetailTriID: correspond.InvalidID,
		}
	})
	if err != nil {
		return fmt.Errorf("bake: %w", err)
	}

	threads := b.threads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	j := newJob(b, occupancy.NewUVSpace(flat), smp, detailIndex, strategy, ms)
	tiling := raster.NewTiling(b.dims, b.tileSize, b.filter.Radius())

	b.log.Info("baking",
		zap.Int("width", b.dims.Width),
		zap.Int("height", b.dims.Height),
		zap.Int("tiles", tiling.Num()),
		zap.Int("evaluators", len(b.evaluators)),
		zap.Int("multisampling", ms),
		zap.Stringer("correspondence", strategy),
		zap.Stringer("filter", b.filter))

	gutters := make([][]occupancy.GutterTexel, tiling.Num())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for i := range tiling.Num() {
		g.Go(func() error {
			gs, err := j.bakeTile(gctx, tiling.Tile(i))
			gutters[i] = gs
			return err
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrCancelled) || b.cancelled(ctx) {
			return b.cancelErr(ctx)
		}
		return err
	}
	if b.cancelled(ctx) {
		return b.cancelErr(ctx)
	}

	results, err := j.finalize(ctx, threads)
	if err != nil {
		return err
	}
	b.results = results
	b.texelTypes = j.types
	b.gutterTexels = j.fillGutters(ctx, threads, gutters)

	for i, e := range b.evaluators {
		pe, ok := e.(PostEvaluator)
		if !ok {
			continue
		}
		if err := pe.PostEvaluate(b.results[i], b.texelTypes); err != nil {
			return fmt.Errorf("post evaluate %d: %w", i, err)
		}
	}

	b.log.Debug("bake complete",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("gutter_texels", len(b.gutterTexels)))
	return nil
}

// defaultColors returns the colors of every output of evaluator e for a
// texel with no valid sample.
func (b *Baker) defaultColors(l layout, e int) []mgl64.Vec4 {
	data := make([]float64, l.widths[e])
	b.evaluators[e].EvaluateDefault(data)
	colors := make([]mgl64.Vec4, b.descs[e].Outputs)
	b.evaluators[e].EvaluateColor(data, colors)
	return colors
}
