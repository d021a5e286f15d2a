// Package evaluators holds the map types the baker can produce.
package evaluators

import (
	"fmt"

	"github.com/erinpentecost/meshbake/internal/bake"
	"github.com/erinpentecost/meshbake/internal/geom"
	"github.com/erinpentecost/meshbake/internal/mesh"
	"github.com/go-gl/mathgl/mgl64"
)

// requireTangents fails unless the target has a tangent frame for every
// triangle corner.
func requireTangents(ctx *bake.Context) error {
	need := 3 * ctx.Target.TriangleCount()
	if have := ctx.TargetTangents.Len(); have < need {
		return fmt.Errorf("%w: have %d corners, need %d", bake.ErrMissingTangents, have, need)
	}
	return nil
}

// toTangentSpace expresses the world direction v in the target frame at s.
func toTangentSpace(t *mesh.Tangents, s *bake.CorrespondenceSample, v mgl64.Vec3) mgl64.Vec3 {
	n := s.BaseNormal
	tn := geom.Normalized(t.ToTangentSpace(s.BaseSample.TriangleID, s.BaseSample.Bary, n, v))
	if tn == (mgl64.Vec3{}) {
		return mgl64.Vec3{0, 0, 1}
	}
	return tn
}

// packNormal renormalizes an averaged normal and maps it from [-1,1] into
// color space.
func packNormal(data []float64) mgl64.Vec4 {
	n := geom.Normalized(mgl64.Vec3{data[0], data[1], data[2]})
	if n == (mgl64.Vec3{}) {
		n = mgl64.Vec3{0, 0, 1}
	}
	return mgl64.Vec4{
		clamp01((n[0] + 1) * 0.5),
		clamp01((n[1] + 1) * 0.5),
		clamp01((n[2] + 1) * 0.5),
		1,
	}
}

// UnpackNormal is the inverse of the normal color mapping.
func UnpackNormal(c mgl64.Vec4) mgl64.Vec3 {
	return mgl64.Vec3{c[0]*2 - 1, c[1]*2 - 1, c[2]*2 - 1}
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}

func gray(v float64) mgl64.Vec4 {
	v = clamp01(v)
	return mgl64.Vec4{v, v, v, 1}
}
