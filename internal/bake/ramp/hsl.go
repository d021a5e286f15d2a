package ramp

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// HSL represents a color in HSL color space.
type HSL struct {
	H, S, L float64 // Hue (0–360), Saturation (0–1), Lightness (0–1)
}

// RGBToHSL converts an RGB color with [0,1] channels to HSL.
func RGBToHSL(c mgl64.Vec4) HSL {
	r, g, b := c[0], c[1], c[2]
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	delta := max - min

	l := (max + min) / 2
	h, s := 0.0, 0.0
	if delta != 0 {
		switch max {
		case r:
			h = math.Mod((g-b)/delta, 6)
		case g:
			h = (b-r)/delta + 2
		case b:
			h = (r-g)/delta + 4
		}
		h *= 60
		if h < 0 {
			h += 360
		}
		if l > 0.5 {
			s = delta / (2 - max - min)
		} else {
			s = delta / (max + min)
		}
	}
	return HSL{H: h, S: s, L: l}
}

// HSLToRGB converts an HSL value to an opaque RGB color.
func HSLToRGB(hsl HSL) mgl64.Vec4 {
	h := hsl.H / 360
	s := hsl.S
	l := hsl.L
	if s == 0 {
		return mgl64.Vec4{l, l, l, 1}
	}

	hue2rgb := func(p, q, t float64) float64 {
		if t < 0 {
			t += 1
		}
		if t > 1 {
			t -= 1
		}
		if t < 1.0/6 {
			return p + (q-p)*6*t
		}
		if t < 1.0/2 {
			return q
		}
		if t < 2.0/3 {
			return p + (q-p)*(2.0/3-t)*6
		}
		return p
	}

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	return mgl64.Vec4{
		hue2rgb(p, q, h+1.0/3),
		hue2rgb(p, q, h),
		hue2rgb(p, q, h-1.0/3),
		1,
	}
}

// goldenAngle spreads consecutive ids around the hue circle.
const goldenAngle = 137.50776405003785

// IDColor returns a distinct, stable color for a non-negative id. Negative
// ids are black.
func IDColor(id int) mgl64.Vec4 {
	if id < 0 {
		return mgl64.Vec4{0, 0, 0, 1}
	}
	return HSLToRGB(HSL{H: math.Mod(float64(id)*goldenAngle, 360), S: 0.65, L: 0.55})
}
