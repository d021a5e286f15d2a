package ramp

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/bmp"
)

// ColorRamp is a ramp read from a 1xN BMP strip. The left half covers
// negative values and the right half positive ones.
type ColorRamp struct {
	ramp []color.RGBA
}

// LoadRamp reads a ramp from a BMP file.
func LoadRamp(rampFilePath string) (*ColorRamp, error) {
	f, err := os.Open(rampFilePath)
	if err != nil {
		return nil, fmt.Errorf("loading ramp file %q: %w", rampFilePath, err)
	}
	defer f.Close()
	c, err := DecodeRamp(f)
	if err != nil {
		return nil, fmt.Errorf("loading ramp file %q: %w", rampFilePath, err)
	}
	return c, nil
}

// DecodeRamp reads a ramp from BMP data.
func DecodeRamp(r io.Reader) (*ColorRamp, error) {
	rampImg, err := bmp.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode color ramp BMP: %w", err)
	}
	b := rampImg.Bounds()
	if b.Dy() != 1 || b.Dx() < 2 {
		return nil, fmt.Errorf("invalid color ramp dimensions (expected 1xN, got %dx%d)", b.Dx(), b.Dy())
	}
	ramp := make([]color.RGBA, b.Dx())
	for x := range ramp {
		r, g, bb, a := rampImg.At(b.Min.X+x, b.Min.Y).RGBA()
		ramp[x] = color.RGBA{
			R: uint8(r >> 8),
			G: uint8(g >> 8),
			B: uint8(bb >> 8),
			A: uint8(a >> 8),
		}
	}
	return &ColorRamp{ramp: ramp}, nil
}

// Color picks the ramp entry for v, with min and max mapping to the ends and
// midpoint to the first entry of the upper half.
func (c *ColorRamp) Color(v, min, max, midpoint float64) color.RGBA {
	n := len(c.ramp)
	half := n / 2
	// clamp extremes
	if v <= min {
		return c.ramp[0]
	}
	if v >= max {
		return c.ramp[n-1]
	}
	if v == midpoint {
		return c.ramp[half]
	}

	if v < midpoint {
		den := midpoint - min
		if den == 0 {
			return c.ramp[0]
		}
		idx := int(math.Round((v - min) / den * float64(half-1)))
		return c.ramp[clampIndex(idx, 0, half-1)]
	}

	den := max - midpoint
	if den == 0 {
		return c.ramp[n-1]
	}
	idx := half + int(math.Round((v-midpoint)/den*float64(n-1-half)))
	return c.ramp[clampIndex(idx, half, n-1)]
}

func (c *ColorRamp) At(v float64) mgl64.Vec4 {
	rgba := c.Color(v, -1, 1, 0)
	return mgl64.Vec4{
		float64(rgba.R) / 255,
		float64(rgba.G) / 255,
		float64(rgba.B) / 255,
		float64(rgba.A) / 255,
	}
}

func clampIndex(i, lo, hi int) int {
	if i < lo {
		return lo
	}
	if i > hi {
		return hi
	}
	return i
}
