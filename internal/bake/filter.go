package bake

import (
	"fmt"
	"math"
)

// Filter is the reconstruction kernel spreading samples onto texels.
type Filter int

const (
	// BoxFilter averages the samples inside each texel.
	BoxFilter Filter = iota
	// BSplineFilter is the cubic B-spline, smooth but soft.
	BSplineFilter
	// MitchellFilter is Mitchell-Netravali with B = C = 1/3.
	MitchellFilter
)

// ParseFilter maps a config name to a Filter.
func ParseFilter(s string) (Filter, error) {
	switch s {
	case "box":
		return BoxFilter, nil
	case "bspline":
		return BSplineFilter, nil
	case "", "mitchell":
		return MitchellFilter, nil
	}
	return 0, fmt.Errorf("unknown filter %q", s)
}

func (f Filter) String() string {
	switch f {
	case BSplineFilter:
		return "bspline"
	case MitchellFilter:
		return "mitchell"
	default:
		return "box"
	}
}

// Radius is the number of neighboring texels the kernel reaches.
func (f Filter) Radius() int {
	if f == BoxFilter {
		return 0
	}
	return 1
}

// Weight returns the kernel value for a sample at pixel offset (dx, dy) from a
// texel center. Cubic kernels are scaled to a one pixel radius.
func (f Filter) Weight(dx, dy float64) float64 {
	switch f {
	case BSplineFilter:
		return cubic(2*dx, 1, 0) * cubic(2*dy, 1, 0)
	case MitchellFilter:
		return cubic(2*dx, 1.0/3, 1.0/3) * cubic(2*dy, 1.0/3, 1.0/3)
	default:
		if math.Abs(dx) <= 0.5 && math.Abs(dy) <= 0.5 {
			return 1
		}
		return 0
	}
}

// cubic is the Mitchell-Netravali family with parameters b and c.
func cubic(x, b, c float64) float64 {
	x = math.Abs(x)
	switch {
	case x < 1:
		return ((12-9*b-6*c)*x*x*x + (-18+12*b+6*c)*x*x + (6 - 2*b)) / 6
	case x < 2:
		return ((-b-6*c)*x*x*x + (6*b+30*c)*x*x + (-12*b-48*c)*x + (8*b + 24*c)) / 6
	}
	return 0
}
