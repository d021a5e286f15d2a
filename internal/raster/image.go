package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Image is a multi-channel float image addressed by texel or linear index.
// It implements image.Image, treating channel values as [0,1]
// non-premultiplied colors. One channel reads as gray, two as gray+alpha,
// three as RGB, four or more as RGBA.
type Image struct {
	Dims     Dimensions
	Channels int
	Pix      []float64
}

// NewImage allocates a zeroed image.
func NewImage(dims Dimensions, channels int) *Image {
	return &Image{
		Dims:     dims,
		Channels: channels,
		Pix:      make([]float64, dims.Num()*channels),
	}
}

// Clone returns a deep copy.
func (im *Image) Clone() *Image {
	c := *im
	c.Pix = append([]float64(nil), im.Pix...)
	return &c
}

// Clear sets every texel to v.
func (im *Image) Clear(v []float64) {
	for i := range im.Dims.Num() {
		copy(im.Pix[i*im.Channels:(i+1)*im.Channels], v)
	}
}

// Pixel returns the channels of texel i. The slice aliases the image.
func (im *Image) Pixel(i int) []float64 {
	return im.Pix[i*im.Channels : (i+1)*im.Channels]
}

// SetPixel writes the channels of texel i.
func (im *Image) SetPixel(i int, v []float64) {
	copy(im.Pix[i*im.Channels:(i+1)*im.Channels], v)
}

// Get returns the channels of texel (x, y). The slice aliases the image.
func (im *Image) Get(x, y int) []float64 {
	return im.Pixel(im.Dims.Index(x, y))
}

// Set writes the channels of texel (x, y).
func (im *Image) Set(x, y int, v []float64) {
	im.SetPixel(im.Dims.Index(x, y), v)
}

// Vec4 returns the first four channels of texel i, padding missing channels
// with zero color and full alpha.
func (im *Image) Vec4(i int) mgl64.Vec4 {
	v := mgl64.Vec4{0, 0, 0, 1}
	copy(v[:], im.Pixel(i))
	return v
}

// SetVec4 writes up to the first four channels of texel i.
func (im *Image) SetVec4(i int, v mgl64.Vec4) {
	copy(im.Pixel(i), v[:min(4, im.Channels)])
}

// CopyPixel copies texel from to texel to.
func (im *Image) CopyPixel(from, to int) {
	copy(im.Pixel(to), im.Pixel(from))
}

// Sample bilinearly filters the image at uv with clamp-to-edge addressing
// and writes the result into out.
func (im *Image) Sample(uv mgl64.Vec2, out []float64) {
	p := im.Dims.UVToPixel(uv)
	fx := p.X() - 0.5
	fy := p.Y() - 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	clampX := func(x int) int { return max(0, min(im.Dims.Width-1, x)) }
	clampY := func(y int) int { return max(0, min(im.Dims.Height-1, y)) }
	a := im.Get(clampX(x0), clampY(y0))
	b := im.Get(clampX(x0+1), clampY(y0))
	c := im.Get(clampX(x0), clampY(y0+1))
	d := im.Get(clampX(x0+1), clampY(y0+1))
	for k := range min(len(out), im.Channels) {
		top := a[k]*(1-tx) + b[k]*tx
		bottom := c[k]*(1-tx) + d[k]*tx
		out[k] = top*(1-ty) + bottom*ty
	}
}

// ColorModel implements image.Image.
func (im *Image) ColorModel() color.Model { return color.NRGBA64Model }

// Bounds implements image.Image.
func (im *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, im.Dims.Width, im.Dims.Height)
}

// At implements image.Image.
func (im *Image) At(x, y int) color.Color {
	if !im.Dims.Contains(x, y) {
		return color.NRGBA64{}
	}
	v := im.Get(x, y)
	q := func(f float64) uint16 {
		return uint16(math.Round(max(0, min(1, f)) * 0xffff))
	}
	switch im.Channels {
	case 1:
		g := q(v[0])
		return color.NRGBA64{R: g, G: g, B: g, A: 0xffff}
	case 2:
		g := q(v[0])
		return color.NRGBA64{R: g, G: g, B: g, A: q(v[1])}
	case 3:
		return color.NRGBA64{R: q(v[0]), G: q(v[1]), B: q(v[2]), A: 0xffff}
	default:
		return color.NRGBA64{R: q(v[0]), G: q(v[1]), B: q(v[2]), A: q(v[3])}
	}
}

// ToNRGBA converts the image to 8-bit non-premultiplied RGBA.
func (im *Image) ToNRGBA() *image.NRGBA {
	dst := image.NewNRGBA(im.Bounds())
	for y := range im.Dims.Height {
		for x := range im.Dims.Width {
			c := im.At(x, y).(color.NRGBA64)
			dst.SetNRGBA(x, y, color.NRGBA{R: uint8(c.R >> 8), G: uint8(c.G >> 8), B: uint8(c.B >> 8), A: uint8(c.A >> 8)})
		}
	}
	return dst
}

// FromImage converts any image to a four channel float image.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	im := NewImage(Dimensions{Width: b.Dx(), Height: b.Dy()}, 4)
	for y := range b.Dy() {
		for x := range b.Dx() {
			c := color.NRGBA64Model.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
			im.Set(x, y, []float64{
				float64(c.R) / 0xffff,
				float64(c.G) / 0xffff,
				float64(c.B) / 0xffff,
				float64(c.A) / 0xffff,
			})
		}
	}
	return im
}
