// Package raster maps between texel coordinates, linear indices and UV space,
// splits images into tiles for parallel work, and stores multi-channel float
// images.
//
// Row 0 is the top of the image and UV (0,0) is the bottom-left corner, so a
// baked image written to disk lines up with conventional v-up UV layouts.
package raster

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Dimensions is the size of a bake target in texels.
type Dimensions struct {
	Width  int
	Height int
}

// Num returns the number of texels.
func (d Dimensions) Num() int { return d.Width * d.Height }

// IsSquare reports whether width equals height.
func (d Dimensions) IsSquare() bool { return d.Width == d.Height }

// Contains reports whether (x, y) is a valid texel.
func (d Dimensions) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < d.Width && y < d.Height
}

// Index returns the linear index of (x, y).
func (d Dimensions) Index(x, y int) int { return y*d.Width + x }

// Coords returns the texel of linear index i.
func (d Dimensions) Coords(i int) (x, y int) { return i % d.Width, i / d.Width }

// TexelSize returns the UV extent of one texel.
func (d Dimensions) TexelSize() mgl64.Vec2 {
	return mgl64.Vec2{1 / float64(d.Width), 1 / float64(d.Height)}
}

// TexelDiagonal returns the UV length of a texel diagonal.
func (d Dimensions) TexelDiagonal() float64 {
	return d.TexelSize().Len()
}

// TexelUV returns the UV coordinate of the center of texel (x, y).
func (d Dimensions) TexelUV(x, y int) mgl64.Vec2 {
	return d.SubTexelUV(x, y, mgl64.Vec2{0.5, 0.5})
}

// SubTexelUV returns the UV coordinate of an offset inside texel (x, y),
// where (0,0) is the texel's top-left corner and (1,1) its bottom-right.
func (d Dimensions) SubTexelUV(x, y int, offset mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{
		(float64(x) + offset.X()) / float64(d.Width),
		1 - (float64(y)+offset.Y())/float64(d.Height),
	}
}

// UVToCoords returns the texel containing uv, clamped to the image.
func (d Dimensions) UVToCoords(uv mgl64.Vec2) (x, y int) {
	x = int(math.Floor(uv.X() * float64(d.Width)))
	y = int(math.Floor((1 - uv.Y()) * float64(d.Height)))
	x = max(0, min(d.Width-1, x))
	y = max(0, min(d.Height-1, y))
	return x, y
}

// UVToPixel returns the continuous pixel position of uv, where integer values
// land on texel corners.
func (d Dimensions) UVToPixel(uv mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{uv.X() * float64(d.Width), (1 - uv.Y()) * float64(d.Height)}
}
