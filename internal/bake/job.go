package bake

import (
	"context"
	"fmt"

	"github.com/erinpentecost/meshbake/internal/correspond"
	"github.com/erinpentecost/meshbake/internal/occupancy"
	"github.com/erinpentecost/meshbake/internal/raster"
	"github.com/erinpentecost/meshbake/internal/sampler"
	"github.com/erinpentecost/meshbake/internal/spatial"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/sync/errgroup"
)

// minWeight is the smallest filter weight sum treated as a real
// contribution.
const minWeight = 1e-12

// job is the state of one Bake call shared by all tiles. Tiles only write
// the texels they own, so the full-image buffers need no locking.
type job struct {
	b           *Baker
	space       *occupancy.UVSpace
	sampler     *sampler.Sampler[CorrespondenceSample]
	detailIndex *spatial.BVH
	strategy    correspond.Strategy
	ms          int
	layout      layout
	addEvals    []int
	overEvals   []int

	accum     []float64
	weight    []float64
	over      []float64
	overValid []bool
	types     []occupancy.TexelType
}

func newJob(b *Baker, space *occupancy.UVSpace, smp *sampler.Sampler[CorrespondenceSample], detailIndex *spatial.BVH, strategy correspond.Strategy, ms int) *job {
	l := newLayout(b.descs)
	n := b.dims.Num()
	j := &job{
		b:           b,
		space:       space,
		sampler:     smp,
		detailIndex: detailIndex,
		strategy:    strategy,
		ms:          ms,
		layout:      l,
		accum:       make([]float64, n*l.stride),
		weight:      make([]float64, n),
		over:        make([]float64, n*l.stride),
		overValid:   make([]bool, n),
		types:       make([]occupancy.TexelType, n),
	}
	for i, d := range b.descs {
		if d.Mode == Overwrite {
			j.overEvals = append(j.overEvals, i)
		} else {
			j.addEvals = append(j.addEvals, i)
		}
	}
	return j
}

// bakeTile samples the padded tile and writes the filtered result of its
// unpadded texels. Nothing is written if the bake is cancelled first.
func (j *job) bakeTile(ctx context.Context, tile raster.PaddedTile) ([]occupancy.GutterTexel, error) {
	b := j.b
	if b.cancelled(ctx) {
		return nil, ErrCancelled
	}
	occ, err := occupancy.Compute(ctx, j.space, b.dims, tile, occupancy.Options{
		Multisampling: j.ms,
		GutterEnabled: b.gutterEnabled,
		GutterSize:    b.gutterSize,
	})
	if err != nil {
		if b.cancelled(ctx) {
			return nil, ErrCancelled
		}
		return nil, fmt.Errorf("tile %d,%d: %w", tile.X, tile.Y, err)
	}

	stride := j.layout.stride
	spt := occ.SamplesPerTexel()
	ns := tile.Padded.Num() * spt
	values := make([]float64, ns*stride)
	valid := make([]bool, ns)
	pixel := make([]mgl64.Vec2, ns)

	for li := range tile.Padded.Num() {
		if li%tile.Padded.Width == 0 && b.cancelled(ctx) {
			return nil, ErrCancelled
		}
		if !occ.IsInterior(li) {
			continue
		}
		x, y := tile.Padded.Coords(li)
		texel := b.dims.Index(x, y)
		for s, off := range occ.Offsets {
			si := li*spt + s
			if j.sample(occ, si, texel, s, j.layout.record(values, si)) {
				valid[si] = true
				// Weights use the stratified position, not the point the
				// sample was pulled to.
				pixel[si] = mgl64.Vec2{float64(x) + off.X(), float64(y) + off.Y()}
			}
		}
	}

	// filter into the unpadded texels
	r := b.filter.Radius()
	core := tile.Num()
	accum := make([]float64, core*stride)
	weight := make([]float64, core)
	over := make([]float64, core*stride)
	overValid := make([]bool, core)
	for ci := range core {
		x, y := tile.Coords(ci)
		li := tile.Padded.Index(x, y)
		if !occ.IsInterior(li) {
			continue
		}
		tag := occ.TexelTags[li]
		cx, cy := float64(x)+0.5, float64(y)+0.5
		dst := j.layout.record(accum, ci)

		for ny := y - r; ny <= y+r; ny++ {
			for nx := x - r; nx <= x+r; nx++ {
				if !tile.Padded.Contains(nx, ny) {
					continue
				}
				nli := tile.Padded.Index(nx, ny)
				for s := range spt {
					si := nli*spt + s
					if !valid[si] || occ.SampleTag[si] != tag {
						continue
					}
					w := b.filter.Weight(pixel[si].X()-cx, pixel[si].Y()-cy)
					if w == 0 {
						continue
					}
					j.addWeighted(dst, j.layout.record(values, si), w)
					weight[ci] += w
				}
			}
		}

		if weight[ci] <= minWeight {
			// kernel cancelled out: fall back to the texel's own samples
			clear(dst)
			weight[ci] = 0
			for s := range spt {
				if si := li*spt + s; valid[si] && occ.SampleTag[si] == tag {
					j.addWeighted(dst, j.layout.record(values, si), 1)
					weight[ci]++
				}
			}
		}

		for s := range spt {
			si := li*spt + s
			if !valid[si] || occ.SampleTag[si] != tag {
				continue
			}
			src := j.layout.record(values, si)
			ow := j.layout.record(over, ci)
			for _, e := range j.overEvals {
				copy(j.layout.slice(ow, e), j.layout.slice(src, e))
			}
			overValid[ci] = true
		}
	}

	if b.cancelled(ctx) {
		return nil, ErrCancelled
	}
	for ci := range core {
		x, y := tile.Coords(ci)
		i := b.dims.Index(x, y)
		j.types[i] = occ.TexelTypes[tile.Padded.Index(x, y)]
		copy(j.layout.record(j.accum, i), j.layout.record(accum, ci))
		copy(j.layout.record(j.over, i), j.layout.record(over, ci))
		j.weight[i] = weight[ci]
		j.overValid[i] = overValid[ci]
	}
	return occ.GutterTexels, nil
}

// sample resolves interior sample si and evaluates it into rec.
func (j *job) sample(occ *occupancy.Map, si, texel, s int, rec []float64) bool {
	tid := occ.SampleTriangle[si]
	if tid < 0 {
		return false
	}
	cs, ok := j.sampler.SampleTriangle(tid, occ.SampleUV[si])
	if !ok {
		return false
	}
	cs.Texel = texel
	cs.SampleIndex = s

	dtid, dbary, found := correspond.Find(j.strategy, j.detailIndex, correspond.Query{
		Point:      cs.BaseSample.Point,
		Normal:     cs.BaseNormal,
		TriangleID: cs.BaseSample.TriangleID,
		Bary:       cs.BaseSample.Bary,
	}, j.b.thickness)
	if !found {
		return false
	}
	cs.DetailTriID = dtid
	cs.DetailBaryCoords = dbary
	for e, ev := range j.b.evaluators {
		ev.EvaluateSample(j.layout.slice(rec, e), &cs)
	}
	return true
}

func (j *job) addWeighted(dst, src []float64, w float64) {
	for _, e := range j.addEvals {
		d := j.layout.slice(dst, e)
		for k, v := range j.layout.slice(src, e) {
			d[k] += w * v
		}
	}
}

// finalize allocates the output images, fills them with defaults and writes
// the normalized color of every texel that received samples.
func (j *job) finalize(ctx context.Context, threads int) ([][]*raster.Image, error) {
	b := j.b
	results := make([][]*raster.Image, len(b.evaluators))
	maxOutputs := 0
	for e, d := range b.descs {
		results[e] = make([]*raster.Image, d.Outputs)
		for o, c := range b.defaultColors(j.layout, e) {
			im := raster.NewImage(b.dims, 4)
			im.Clear(c[:])
			results[e][o] = im
		}
		maxOutputs = max(maxOutputs, d.Outputs)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for y := range b.dims.Height {
		g.Go(func() error {
			if b.cancelled(gctx) {
				return ErrCancelled
			}
			data := make([]float64, j.layout.stride)
			colors := make([]mgl64.Vec4, maxOutputs)
			for x := range b.dims.Width {
				j.resolveTexel(b.dims.Index(x, y), data, colors, results)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, b.cancelErr(ctx)
	}
	return results, nil
}

func (j *job) resolveTexel(i int, data []float64, colors []mgl64.Vec4, results [][]*raster.Image) {
	w := j.weight[i]
	for _, e := range j.addEvals {
		if w <= 0 {
			continue
		}
		d := j.layout.slice(data, e)
		for k, v := range j.layout.slice(j.layout.record(j.accum, i), e) {
			d[k] = v / w
		}
		j.writeColors(e, i, d, colors, results)
	}
	if !j.overValid[i] {
		return
	}
	for _, e := range j.overEvals {
		d := j.layout.slice(data, e)
		copy(d, j.layout.slice(j.layout.record(j.over, i), e))
		j.writeColors(e, i, d, colors, results)
	}
}

func (j *job) writeColors(e, i int, data []float64, colors []mgl64.Vec4, results [][]*raster.Image) {
	out := colors[:j.b.descs[e].Outputs]
	j.b.evaluators[e].EvaluateColor(data, out)
	for o, c := range out {
		results[e][o].SetVec4(i, c)
	}
}

// fillGutters copies finalized interior colors into gutter texels. Pairs
// whose source never became interior are dropped and their gutter texel
// reverts to empty.
func (j *job) fillGutters(ctx context.Context, threads int, perTile [][]occupancy.GutterTexel) []occupancy.GutterTexel {
	var pairs []occupancy.GutterTexel
	for _, tile := range perTile {
		for _, p := range tile {
			if j.types[p.Interior] != occupancy.Interior {
				j.types[p.Gutter] = occupancy.Empty
				continue
			}
			pairs = append(pairs, p)
		}
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for _, images := range j.b.results {
		for _, im := range images {
			g.Go(func() error {
				for _, p := range pairs {
					im.CopyPixel(p.Interior, p.Gutter)
				}
				return nil
			})
		}
	}
	_ = g.Wait()
	return pairs
}
