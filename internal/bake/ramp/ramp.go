// Package ramp maps signed scalar values to colors.
package ramp

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Ramp colors a value already normalized to [-1, 1].
type Ramp interface {
	At(v float64) mgl64.Vec4
}

var (
	black = mgl64.Vec4{0, 0, 0, 1}
	gray  = mgl64.Vec4{0.5, 0.5, 0.5, 1}
	white = mgl64.Vec4{1, 1, 1, 1}
	red   = mgl64.Vec4{1, 0, 0, 1}
	green = mgl64.Vec4{0, 1, 0, 1}
	blue  = mgl64.Vec4{0, 0, 1, 1}
)

// Mono runs black through gray to white.
type Mono struct{}

func (Mono) At(v float64) mgl64.Vec4 {
	return split(v, black, gray, white)
}

// RedGreenBlue is red for negative values, green at zero and blue for
// positive values.
type RedGreenBlue struct{}

func (RedGreenBlue) At(v float64) mgl64.Vec4 {
	return split(v, red, green, blue)
}

// RedBlue fades from red through black to blue.
type RedBlue struct{}

func (RedBlue) At(v float64) mgl64.Vec4 {
	return split(v, red, black, blue)
}

// Parse returns the named ramp. "bmp" loads a ramp image from path.
func Parse(name, path string) (Ramp, error) {
	switch name {
	case "mono", "grayscale":
		return Mono{}, nil
	case "", "red_green_blue":
		return RedGreenBlue{}, nil
	case "red_blue":
		return RedBlue{}, nil
	case "bmp":
		return LoadRamp(path)
	}
	return nil, fmt.Errorf("unknown color ramp %q", name)
}

func split(v float64, lo, mid, hi mgl64.Vec4) mgl64.Vec4 {
	v = max(-1, min(1, v))
	if v < 0 {
		return lerp(mid, lo, -v)
	}
	return lerp(mid, hi, v)
}

func lerp(a, b mgl64.Vec4, t float64) mgl64.Vec4 {
	return a.Add(b.Sub(a).Mul(t))
}
