// Package occupancy classifies the texels of a bake target against a UV
// layout as empty, interior or gutter, and records where interior texels
// should be sampled and which interior texel each gutter texel copies.
package occupancy

import (
	"context"
	"errors"
	"fmt"

	"github.com/erinpentecost/meshbake/internal/geom"
	"github.com/erinpentecost/meshbake/internal/mesh"
	"github.com/erinpentecost/meshbake/internal/raster"
	"github.com/erinpentecost/meshbake/internal/spatial"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/sync/errgroup"
)

// ErrNonSquare is returned for bake targets whose width differs from their
// height.
var ErrNonSquare = errors.New("occupancy requires square dimensions")

// TexelType is the classification of one texel.
type TexelType uint8

const (
	Empty TexelType = iota
	Interior
	Gutter
)

func (t TexelType) String() string {
	switch t {
	case Interior:
		return "interior"
	case Gutter:
		return "gutter"
	default:
		return "empty"
	}
}

const (
	// nudge is the inward push, in texel diagonals, applied to a sample that
	// was moved onto the nearest triangle.
	nudge = 1e-5
	// onTriangle is the distance, in texel diagonals, below which a sample
	// counts as lying on its nearest triangle.
	onTriangle = 1e-9
	// reach is the distance, in texel diagonals, up to which a sample is
	// pulled onto its nearest triangle. The slack keeps samples exactly one
	// diagonal out interior under rounding.
	reach = 1 + 1e-9
)

// UVSpace is the UV layout being rasterized together with its spatial index.
// It is read-only and may be shared by concurrent Compute calls.
type UVSpace struct {
	Flat  *mesh.UVMesh
	Index *spatial.BVH
}

// NewUVSpace indexes a flattened UV mesh.
func NewUVSpace(flat *mesh.UVMesh) *UVSpace {
	return &UVSpace{Flat: flat, Index: spatial.New(flat.Mesh)}
}

// Options control a Compute call.
type Options struct {
	// Multisampling is the number of samples along each texel axis.
	Multisampling int
	GutterEnabled bool
	// GutterSize is the gutter width in texels.
	GutterSize int
	// Threads splits the rows of the region across goroutines. Values below
	// two compute on the calling goroutine.
	Threads int
}

// GutterTexel pairs a gutter texel with the texel it copies, both as image
// linear indices.
type GutterTexel struct {
	Gutter   int
	Interior int
}

// Map is the occupancy of one region of a bake target. Texel arrays are
// indexed by region-local linear index; sample arrays by
// texel*SamplesPerTexel()+sample.
type Map struct {
	Dims   raster.Dimensions
	Region raster.PaddedTile

	Multisampling int
	Offsets       []mgl64.Vec2

	TexelTypes []TexelType
	// TexelTags is the chart of the first interior sample, or -1.
	TexelTags []int

	SampleUV       []mgl64.Vec2
	SampleTriangle []int
	SampleTag      []int

	// GutterTexels only covers the unpadded part of Region.
	GutterTexels []GutterTexel
}

// SampleOffsets returns the n*n stratified sample positions inside a texel,
// where (0,0) is the texel's top-left corner.
func SampleOffsets(n int) []mgl64.Vec2 {
	n = max(n, 1)
	out := make([]mgl64.Vec2, 0, n*n)
	for sy := range n {
		for sx := range n {
			out = append(out, mgl64.Vec2{
				(float64(sx) + 0.5) / float64(n),
				(float64(sy) + 0.5) / float64(n),
			})
		}
	}
	return out
}

// Full returns a region covering the whole image.
func Full(dims raster.Dimensions) raster.PaddedTile {
	t := raster.Tile{Width: dims.Width, Height: dims.Height}
	return raster.PaddedTile{Tile: t, Padded: t}
}

// Compute rasterizes space over region.Padded of an image of size dims.
func Compute(ctx context.Context, space *UVSpace, dims raster.Dimensions, region raster.PaddedTile, opts Options) (*Map, error) {
	if !dims.IsSquare() {
		return nil, fmt.Errorf("compute occupancy %dx%d: %w", dims.Width, dims.Height, ErrNonSquare)
	}
	ms := max(opts.Multisampling, 1)
	n := region.Padded.Num()
	spt := ms * ms
	m := &Map{
		Dims:           dims,
		Region:         region,
		Multisampling:  ms,
		Offsets:        SampleOffsets(ms),
		TexelTypes:     make([]TexelType, n),
		TexelTags:      make([]int, n),
		SampleUV:       make([]mgl64.Vec2, n*spt),
		SampleTriangle: make([]int, n*spt),
		SampleTag:      make([]int, n*spt),
	}

	rows := region.Padded.Height
	gutters := make([][]GutterTexel, rows)
	c := classifier{space: space, dims: dims, opts: opts, diag: dims.TexelDiagonal()}

	doRow := func(row int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		y := region.Padded.Y + row
		for x := region.Padded.X; x < region.Padded.X+region.Padded.Width; x++ {
			if g, ok := c.texel(m, x, y); ok && region.Contains(x, y) {
				gutters[row] = append(gutters[row], g)
			}
		}
		return nil
	}

	if opts.Threads < 2 {
		for row := range rows {
			if err := doRow(row); err != nil {
				return nil, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Threads)
		for row := range rows {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return doRow(row)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	for _, g := range gutters {
		m.GutterTexels = append(m.GutterTexels, g...)
	}
	return m, nil
}

type classifier struct {
	space *UVSpace
	dims  raster.Dimensions
	opts  Options
	diag  float64
}

func (c *classifier) bound() float64 {
	if c.opts.GutterEnabled {
		return float64(max(c.opts.GutterSize, 1)) * reach * c.diag
	}
	return reach * c.diag
}

// texel classifies image texel (x, y) and fills its entries in m. It returns
// a gutter pair when the texel is a gutter texel.
func (c *classifier) texel(m *Map, x, y int) (GutterTexel, bool) {
	li := m.Region.Padded.Index(x, y)
	spt := len(m.Offsets)
	m.TexelTypes[li] = Empty
	m.TexelTags[li] = -1

	for s, off := range m.Offsets {
		si := li*spt + s
		m.SampleTriangle[si] = -1
		m.SampleTag[si] = -1

		uv := c.dims.SubTexelUV(x, y, off)
		m.SampleUV[si] = uv
		near, ok := c.space.Index.FindNearestTriangle(geom.Lift(uv), c.bound())
		if !ok {
			continue
		}
		quv, inside := c.resolve(uv, near)
		if !inside {
			continue
		}
		m.SampleUV[si] = quv
		m.SampleTriangle[si] = c.space.Flat.TriangleIDs[near.TriangleID]
		m.SampleTag[si] = c.space.Flat.Charts[near.TriangleID]
		if m.TexelTypes[li] != Interior {
			m.TexelTypes[li] = Interior
			m.TexelTags[li] = m.SampleTag[si]
		}
	}
	if m.TexelTypes[li] == Interior || !c.opts.GutterEnabled || c.opts.GutterSize <= 0 {
		return GutterTexel{}, false
	}

	center := c.dims.TexelUV(x, y)
	near, ok := c.space.Index.FindNearestTriangle(geom.Lift(center), float64(c.opts.GutterSize)*c.diag)
	if !ok {
		return GutterTexel{}, false
	}
	sx, sy := c.dims.UVToCoords(mgl64.Vec2{near.Point.X(), near.Point.Y()})
	if sx == x && sy == y {
		return GutterTexel{}, false
	}
	m.TexelTypes[li] = Gutter
	return GutterTexel{Gutter: c.dims.Index(x, y), Interior: c.dims.Index(sx, sy)}, true
}

// resolve decides whether a sample at uv belongs to the nearest triangle.
// Samples on the triangle are used as-is. Samples within one texel diagonal
// of it are moved onto it, pushed slightly inward. Anything farther out is
// left to the gutter pass.
func (c *classifier) resolve(uv mgl64.Vec2, near spatial.Nearest) (mgl64.Vec2, bool) {
	if tol := onTriangle * c.diag; near.DistSq <= tol*tol {
		return uv, true
	}
	if r := reach * c.diag; near.DistSq > r*r {
		return uv, false
	}
	q := near.Point
	tri := c.space.Flat.Mesh.Triangle3(near.TriangleID)
	if dir := geom.Normalized(tri.Centroid().Sub(q)); dir != (mgl64.Vec3{}) {
		q = q.Add(dir.Mul(nudge * c.diag))
	}
	return mgl64.Vec2{q.X(), q.Y()}, true
}

// IsInterior reports whether region-local texel i is interior.
func (m *Map) IsInterior(i int) bool { return m.TexelTypes[i] == Interior }

// TexelType returns the type of region-local texel i.
func (m *Map) TexelType(i int) TexelType { return m.TexelTypes[i] }

// SamplesPerTexel returns Multisampling squared.
func (m *Map) SamplesPerTexel() int { return len(m.Offsets) }

// IsInteriorSample reports whether sample si landed on a triangle.
func (m *Map) IsInteriorSample(si int) bool { return m.SampleTriangle[si] >= 0 }

// Counts tallies the texel types of the unpadded region.
func (m *Map) Counts() (empty, interior, gutter int) {
	for i := range m.Region.Num() {
		x, y := m.Region.Coords(i)
		switch m.TexelTypes[m.Region.Padded.Index(x, y)] {
		case Interior:
			interior++
		case Gutter:
			gutter++
		default:
			empty++
		}
	}
	return empty, interior, gutter
}
