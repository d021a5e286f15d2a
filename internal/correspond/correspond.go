// Package correspond maps a point on the target surface to a triangle and
// barycentric location on the detail surface.
package correspond

import (
	"fmt"

	"github.com/erinpentecost/meshbake/internal/geom"
	"github.com/erinpentecost/meshbake/internal/spatial"
	"github.com/go-gl/mathgl/mgl64"
)

// InvalidID is the detail triangle id reported when no correspondence exists.
const InvalidID = -1

// Strategy selects how the detail surface is searched.
type Strategy int

const (
	// Identity reuses the target triangle and barycentrics. Only valid when
	// the detail mesh is the target mesh.
	Identity Strategy = iota
	// NearestPoint takes the closest detail triangle, ignoring the normal.
	NearestPoint
	// RaycastStandard casts along the normal within the thickness and falls
	// back to a nearest point search bounded by the thickness.
	RaycastStandard
	// RaycastStandardThenNearest is RaycastStandard with an unbounded
	// nearest point fallback.
	RaycastStandardThenNearest
)

var strategyNames = map[Strategy]string{
	Identity:                   "identity",
	NearestPoint:               "nearest",
	RaycastStandard:            "raycast",
	RaycastStandardThenNearest: "raycast_then_nearest",
}

func (s Strategy) String() string {
	if n, ok := strategyNames[s]; ok {
		return n
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy maps a config name to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown correspondence strategy %q", name)
}

// Query describes the target surface location being matched.
type Query struct {
	Point  mgl64.Vec3
	Normal mgl64.Vec3
	// TriangleID and Bary locate the point on the target mesh. Only Identity
	// reads them.
	TriangleID int
	Bary       mgl64.Vec3
}

// Find resolves q against the detail surface indexed by detail. It never
// modifies its inputs. On failure the returned id is InvalidID.
func Find(s Strategy, detail *spatial.BVH, q Query, thickness float64) (int, mgl64.Vec3, bool) {
	switch s {
	case Identity:
		if !detail.Mesh().IsTriangle(q.TriangleID) {
			return InvalidID, mgl64.Vec3{}, false
		}
		return q.TriangleID, q.Bary, true
	case NearestPoint:
		return nearest(detail, q.Point, spatial.Unbounded)
	case RaycastStandard:
		if tid, bary, ok := raycast(detail, q.Point, q.Normal, thickness); ok {
			return tid, bary, true
		}
		return nearest(detail, q.Point, thickness)
	case RaycastStandardThenNearest:
		if tid, bary, ok := raycast(detail, q.Point, q.Normal, thickness); ok {
			return tid, bary, true
		}
		return nearest(detail, q.Point, spatial.Unbounded)
	}
	return InvalidID, mgl64.Vec3{}, false
}

func nearest(detail *spatial.BVH, p mgl64.Vec3, maxDist float64) (int, mgl64.Vec3, bool) {
	n, ok := detail.FindNearestTriangle(p, maxDist)
	if !ok {
		return InvalidID, mgl64.Vec3{}, false
	}
	return n.TriangleID, n.Bary, true
}

// raycast tries, in order: inward from p+thickness*n, outward from p, and
// inward from p. Each ray is bounded by thickness.
func raycast(detail *spatial.BVH, p, n mgl64.Vec3, thickness float64) (int, mgl64.Vec3, bool) {
	n = geom.Normalized(n)
	if n == (mgl64.Vec3{}) || thickness <= 0 {
		return InvalidID, mgl64.Vec3{}, false
	}
	rays := [3]geom.Ray{
		{Origin: p.Add(n.Mul(thickness)), Direction: n.Mul(-1)},
		{Origin: p, Direction: n},
		{Origin: p, Direction: n.Mul(-1)},
	}
	for _, r := range rays {
		if hit, ok := detail.FindNearestHitTriangle(r, thickness); ok {
			return hit.TriangleID, hit.Bary, true
		}
	}
	return InvalidID, mgl64.Vec3{}, false
}
