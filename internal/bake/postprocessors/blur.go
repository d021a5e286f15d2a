package postprocessors

import (
	"fmt"
	"math"
	"runtime"

	"github.com/erinpentecost/meshbake/internal/occupancy"
	"github.com/erinpentecost/meshbake/internal/raster"
	"golang.org/x/sync/errgroup"
)

// MaskedBlur is a Gaussian blur that only reads and writes texels the mask
// marks as non-empty, so values never leak out of, or into, UV islands.
type MaskedBlur struct {
	Radius int
	Mask   []occupancy.TexelType
	// Threads limits concurrent rows. Zero uses GOMAXPROCS.
	Threads int
}

func (p *MaskedBlur) Process(src *raster.Image) (*raster.Image, error) {
	if p.Radius <= 0 {
		return src, nil
	}
	if len(p.Mask) != src.Dims.Num() {
		return nil, fmt.Errorf("blur mask has %d texels, image has %d", len(p.Mask), src.Dims.Num())
	}

	r := p.Radius
	sigma := max(float64(r)/2, 0.5)
	kernel := make([]float64, 2*r+1)
	for i := range kernel {
		d := float64(i - r)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
	}

	threads := p.Threads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	dst := src.Clone()
	dims := src.Dims
	ch := src.Channels

	var g errgroup.Group
	g.SetLimit(threads)
	for y := range dims.Height {
		g.Go(func() error {
			sum := make([]float64, ch)
			for x := range dims.Width {
				i := dims.Index(x, y)
				if p.Mask[i] == occupancy.Empty {
					continue
				}

				// accumulate
				clear(sum)
				total := 0.0
				for ny := max(y-r, 0); ny <= min(y+r, dims.Height-1); ny++ {
					for nx := max(x-r, 0); nx <= min(x+r, dims.Width-1); nx++ {
						ni := dims.Index(nx, ny)
						if p.Mask[ni] == occupancy.Empty {
							continue
						}
						w := kernel[nx-x+r] * kernel[ny-y+r]
						for c, v := range src.Pixel(ni) {
							sum[c] += w * v
						}
						total += w
					}
				}

				// normalize and write
				out := dst.Pixel(i)
				for c := range out {
					out[c] = sum[c] / total
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dst, nil
}
