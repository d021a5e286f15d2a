package postprocessors

import (
	"image"
	"math/bits"

	"github.com/erinpentecost/meshbake/internal/raster"
	"golang.org/x/image/draw"
)

// PowerOfTwo shrinks an image by DownScaleFactor and rounds the edge up to
// the next power of two.
type PowerOfTwo struct {
	DownScaleFactor int
}

func (p *PowerOfTwo) Process(src *raster.Image) (*raster.Image, error) {
	factor := max(p.DownScaleFactor, 1)
	w := nextPoT(uint64(max(src.Dims.Width/factor, 1)))
	h := nextPoT(uint64(max(src.Dims.Height/factor, 1)))
	if int(w) == src.Dims.Width && int(h) == src.Dims.Height {
		return src, nil
	}
	scaled := image.NewNRGBA64(image.Rect(0, 0, int(w), int(h)))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, src.Bounds(), draw.Src, nil)
	return raster.FromImage(scaled), nil
}

func nextPoT(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	if n&(n-1) == 0 {
		return n
	}
	return 1 << bits.Len64(n)
}
