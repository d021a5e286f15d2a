// Package bakecache memoizes the correspondence of every texel center so
// several evaluators can be baked one at a time against the same meshes.
// It takes one sample per texel and applies no reconstruction filter.
package bakecache

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/erinpentecost/meshbake/internal/bake"
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

// ErrNoTarget is returned when validating without a target mesh.
var ErrNoTarget = errors.New("bake cache has no target mesh")

// Cache holds the occupancy and correspondence of a target/detail pair.
// Changing any input invalidates it.
type Cache struct {
	log *zap.Logger

	target      *mesh.Mesh
	tangents    *mesh.Tangents
	detail      *mesh.Mesh
	detailIndex *spatial.BVH

	dims          raster.Dimensions
	uvLayer       int
	thickness     float64
	strategy      correspond.Strategy
	gutterEnabled bool
	gutterSize    int
	threads       int

	valid   bool
	occ     *occupancy.Map
	samples []bake.CorrespondenceSample
	ectx    *bake.Context
}

// New returns an empty cache with the baker's defaults.
func New(log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		log:           log,
		thickness:     bake.DefaultThickness,
		strategy:      correspond.RaycastStandardThenNearest,
		gutterEnabled: true,
		gutterSize:    bake.DefaultGutterSize,
	}
}

func (c *Cache) invalidate() {
	c.valid = false
	c.occ = nil
	c.samples = nil
	c.ectx = nil
}

func (c *Cache) SetTargetMesh(m *mesh.Mesh) { c.target = m; c.invalidate() }

// SetTargetTangents sets the tangents handed to evaluators. It does not
// affect correspondence, so the cache stays valid.
func (c *Cache) SetTargetTangents(t *mesh.Tangents) {
	c.tangents = t
	if c.ectx != nil {
		c.ectx.TargetTangents = t
	}
}

func (c *Cache) SetDetailMesh(m *mesh.Mesh, index *spatial.BVH) {
	c.detail, c.detailIndex = m, index
	c.invalidate()
}

func (c *Cache) SetDimensions(d raster.Dimensions)                { c.dims = d; c.invalidate() }
func (c *Cache) SetUVLayer(layer int)                             { c.uvLayer = layer; c.invalidate() }
func (c *Cache) SetThickness(t float64)                          { c.thickness = t; c.invalidate() }
func (c *Cache) SetCorrespondenceStrategy(s correspond.Strategy) { c.strategy = s; c.invalidate() }

func (c *Cache) SetGutter(enabled bool, size int) {
	c.gutterEnabled, c.gutterSize = enabled, size
	c.invalidate()
}

// SetThreads limits concurrent rows. Zero uses GOMAXPROCS.
func (c *Cache) SetThreads(n int) { c.threads = n }

// IsValid reports whether the cached samples match the current inputs.
func (c *Cache) IsValid() bool { return c.valid }

// OccupancyMap returns the cached occupancy, or nil before Validate.
func (c *Cache) OccupancyMap() *occupancy.Map { return c.occ }

// Samples returns one sample per texel. Texels without a match have
// DetailTriID set to correspond.InvalidID.
func (c *Cache) Samples() []bake.CorrespondenceSample { return c.samples }

func (c *Cache) workers() int {
	if c.threads > 0 {
		return c.threads
	}
	return runtime.GOMAXPROCS(0)
}

// Validate recomputes occupancy and correspondence if any input changed.
func (c *Cache) Validate(ctx context.Context) error {
	if c.valid {
		return nil
	}
	if c.target == nil {
		return ErrNoTarget
	}
	if c.dims.Num() <= 0 {
		return fmt.Errorf("bake cache %dx%d: dimensions must be positive", c.dims.Width, c.dims.Height)
	}
	if !c.dims.IsSquare() {
		return fmt.Errorf("bake cache %dx%d: %w", c.dims.Width, c.dims.Height, bake.ErrNonSquare)
	}
	flat, err := mesh.FlattenUV(c.target, c.uvLayer)
	if err != nil {
		return fmt.Errorf("bake cache: %w: %w", bake.ErrInvalidUVLayer, err)
	}

	detail, index := c.target, c.detailIndex
	if c.detail != nil {
		detail = c.detail
	}
	if index == nil || index.Mesh() != detail {
		index = spatial.New(detail)
	}
	strategy := c.strategy
	if strategy == correspond.Identity && detail != c.target {
		c.log.Warn("identity correspondence needs the detail mesh to be the target mesh, using nearest point")
		strategy = correspond.NearestPoint
	}

	occ, err := occupancy.Compute(ctx, occupancy.NewUVSpace(flat), c.dims, occupancy.Full(c.dims), occupancy.Options{
		Multisampling: 1,
		GutterEnabled: c.gutterEnabled,
		GutterSize:    c.gutterSize,
		Threads:       c.workers(),
	})
	if err != nil {
		return fmt.Errorf("bake cache occupancy: %w", err)
	}
	pruneGutters(occ)

	target := c.target
	smp, err := sampler.New(target, c.uvLayer, sampler.TriangleAndUV, func(info *sampler.Info) bake.CorrespondenceSample {
		return bake.CorrespondenceSample{
			BaseSample:  *info,
			BaseNormal:  target.InterpolatedNormal(info.TriangleID, info.Bary),
			DetailTriID: correspond.InvalidID,
		}
	})
	if err != nil {
		return fmt.Errorf("bake cache: %w", err)
	}

	samples := make([]bake.CorrespondenceSample, c.dims.Num())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers())
	for y := range c.dims.Height {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for x := range c.dims.Width {
				i := c.dims.Index(x, y)
				samples[i] = bake.CorrespondenceSample{DetailTriID: correspond.InvalidID, Texel: i}
				tid := occ.SampleTriangle[i]
				if !occ.IsInterior(i) || tid < 0 {
					continue
				}
				s, ok := smp.SampleTriangle(tid, occ.SampleUV[i])
				if !ok {
					continue
				}
				s.Texel = i
				dtid, bary, found := correspond.Find(strategy, index, correspond.Query{
					Point:      s.BaseSample.Point,
					Normal:     s.BaseNormal,
					TriangleID: s.BaseSample.TriangleID,
					Bary:       s.BaseSample.Bary,
				}, c.thickness)
				if found {
					s.DetailTriID, s.DetailBaryCoords = dtid, bary
				}
				samples[i] = s
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %w", bake.ErrCancelled, err)
	}

	c.occ = occ
	c.samples = samples
	c.ectx = &bake.Context{
		Target:         c.target,
		TargetTangents: c.tangents,
		Detail:         detail,
		DetailIndex:    index,
		Dims:           c.dims,
		UVLayer:        c.uvLayer,
		Log:            c.log,
	}
	c.valid = true
	c.log.Debug("bake cache validated",
		zap.Int("width", c.dims.Width),
		zap.Int("gutter_texels", len(occ.GutterTexels)),
		zap.Stringer("correspondence", strategy))
	return nil
}

// Bake runs one evaluator over the cached samples and returns its images.
func (c *Cache) Bake(ctx context.Context, e bake.Evaluator) ([]*raster.Image, error) {
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}
	d, err := e.Setup(c.ectx)
	if err != nil {
		return nil, fmt.Errorf("setup evaluator: %w", err)
	}

	width := d.Width()
	def := make([]float64, width)
	e.EvaluateDefault(def)
	defColors := make([]mgl64.Vec4, d.Outputs)
	e.EvaluateColor(def, defColors)
	images := make([]*raster.Image, d.Outputs)
	for o, col := range defColors {
		images[o] = raster.NewImage(c.dims, 4)
		images[o].Clear(col[:])
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers())
	for y := range c.dims.Height {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data := make([]float64, width)
			colors := make([]mgl64.Vec4, d.Outputs)
			for x := range c.dims.Width {
				i := c.dims.Index(x, y)
				if !c.samples[i].Valid() {
					continue
				}
				e.EvaluateSample(data, &c.samples[i])
				e.EvaluateColor(data, colors)
				for o, col := range colors {
					images[o].SetVec4(i, col)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", bake.ErrCancelled, err)
	}

	for _, gt := range c.occ.GutterTexels {
		for _, im := range images {
			im.CopyPixel(gt.Interior, gt.Gutter)
		}
	}
	if pe, ok := e.(bake.PostEvaluator); ok {
		if err := pe.PostEvaluate(images, c.occ.TexelTypes); err != nil {
			return nil, fmt.Errorf("post evaluate: %w", err)
		}
	}
	return images, nil
}

// pruneGutters drops gutter pairs whose source is not interior and reverts
// their gutter texel to empty.
func pruneGutters(occ *occupancy.Map) {
	kept := occ.GutterTexels[:0]
	for _, gt := range occ.GutterTexels {
		if occ.TexelTypes[gt.Interior] != occupancy.Interior {
			occ.TexelTypes[gt.Gutter] = occupancy.Empty
			continue
		}
		kept = append(kept, gt)
	}
	occ.GutterTexels = kept
}
