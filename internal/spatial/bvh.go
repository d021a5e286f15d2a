// Package spatial provides a bounding volume hierarchy over mesh triangles
// with nearest-point and ray queries.
package spatial

import (
	"math"
	"sort"

	"github.com/erinpentecost/meshbake/internal/geom"
	"github.com/erinpentecost/meshbake/internal/mesh"
	"github.com/go-gl/mathgl/mgl64"
)

// Unbounded disables the distance limit of a query.
var Unbounded = math.Inf(1)

const leafSize = 4

type node struct {
	box geom.AABB
	// leaves: start/count into BVH.order. interior: left child is the next
	// node, right child is at right.
	start, count int
	right        int
}

func (n *node) leaf() bool { return n.count > 0 }

// BVH indexes the triangles of a mesh. The mesh must not change while the
// index is in use.
type BVH struct {
	m     *mesh.Mesh
	tris  []geom.Triangle3
	order []int
	nodes []node
}

// Nearest is the result of a nearest-point query.
type Nearest struct {
	TriangleID int
	DistSq     float64
	Point      mgl64.Vec3
	Bary       mgl64.Vec3
}

// Hit is the result of a ray query.
type Hit struct {
	TriangleID int
	Distance   float64
	Bary       mgl64.Vec3
}

// New builds a median-split BVH over every triangle of m.
func New(m *mesh.Mesh) *BVH {
	b := &BVH{
		m:     m,
		tris:  make([]geom.Triangle3, m.TriangleCount()),
		order: make([]int, m.TriangleCount()),
	}
	centers := make([]mgl64.Vec3, m.TriangleCount())
	for tid := range m.Triangles {
		b.tris[tid] = m.Triangle3(tid)
		centers[tid] = b.tris[tid].Centroid()
		b.order[tid] = tid
	}
	if len(b.order) > 0 {
		b.nodes = make([]node, 0, 2*len(b.order)/leafSize+1)
		b.build(centers, 0, len(b.order))
	}
	return b
}

// Mesh returns the indexed mesh.
func (b *BVH) Mesh() *mesh.Mesh { return b.m }

// Bounds returns the box around every indexed triangle.
func (b *BVH) Bounds() geom.AABB {
	if len(b.nodes) == 0 {
		return geom.EmptyAABB()
	}
	return b.nodes[0].box
}

func (b *BVH) build(centers []mgl64.Vec3, start, end int) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, node{})

	box := geom.EmptyAABB()
	cbox := geom.EmptyAABB()
	for _, tid := range b.order[start:end] {
		box = box.Union(b.tris[tid].Bounds())
		cbox = cbox.Extend(centers[tid])
	}
	b.nodes[idx].box = box

	if end-start <= leafSize {
		b.nodes[idx].start, b.nodes[idx].count = start, end-start
		return idx
	}

	axis := cbox.LongestAxis()
	part := b.order[start:end]
	sort.Slice(part, func(i, j int) bool {
		ci, cj := centers[part[i]][axis], centers[part[j]][axis]
		if ci == cj {
			return part[i] < part[j]
		}
		return ci < cj
	})
	mid := start + (end-start)/2

	b.build(centers, start, mid)
	right := b.build(centers, mid, end)
	b.nodes[idx].right = right
	return idx
}

// FindNearestTriangle returns the triangle closest to p within maxDist.
func (b *BVH) FindNearestTriangle(p mgl64.Vec3, maxDist float64) (Nearest, bool) {
	best := Nearest{TriangleID: -1, DistSq: maxDist * maxDist}
	if math.IsInf(maxDist, 1) {
		best.DistSq = math.Inf(1)
	}
	if len(b.nodes) == 0 {
		return best, false
	}

	var stack [64]int
	sp := 0
	stack[sp] = 0
	sp++
	for sp > 0 {
		sp--
		n := &b.nodes[stack[sp]]
		if n.box.DistanceSq(p) > best.DistSq {
			continue
		}
		if n.leaf() {
			for _, tid := range b.order[n.start : n.start+n.count] {
				q, bary := b.tris[tid].ClosestPoint(p)
				d := p.Sub(q)
				if dsq := d.Dot(d); dsq < best.DistSq || (dsq == best.DistSq && best.TriangleID < 0) {
					best = Nearest{TriangleID: tid, DistSq: dsq, Point: q, Bary: bary}
				}
			}
			continue
		}
		left, right := stack[sp]+1, n.right
		if b.nodes[left].box.DistanceSq(p) < b.nodes[right].box.DistanceSq(p) {
			left, right = right, left
		}
		// nearer child is popped first
		stack[sp] = left
		stack[sp+1] = right
		sp += 2
	}
	return best, best.TriangleID >= 0
}

// FindNearestHitTriangle returns the closest intersection of r within
// maxDist. Triangles are two-sided.
func (b *BVH) FindNearestHitTriangle(r geom.Ray, maxDist float64) (Hit, bool) {
	best := Hit{TriangleID: -1, Distance: maxDist}
	b.traceRay(r, func(tid int, t float64, bary mgl64.Vec3) (float64, bool) {
		if t <= best.Distance {
			best = Hit{TriangleID: tid, Distance: t, Bary: bary}
		}
		return best.Distance, false
	}, maxDist)
	return best, best.TriangleID >= 0
}

// AnyHit reports whether r intersects any triangle within maxDist.
func (b *BVH) AnyHit(r geom.Ray, maxDist float64) bool {
	hit := false
	b.traceRay(r, func(int, float64, mgl64.Vec3) (float64, bool) {
		hit = true
		return 0, true
	}, maxDist)
	return hit
}

// traceRay visits candidate intersections. visit returns the new distance
// bound and whether to stop.
func (b *BVH) traceRay(r geom.Ray, visit func(tid int, t float64, bary mgl64.Vec3) (float64, bool), maxDist float64) {
	if len(b.nodes) == 0 {
		return
	}
	bound := maxDist
	var stack [64]int
	sp := 0
	stack[sp] = 0
	sp++
	for sp > 0 {
		sp--
		ni := stack[sp]
		n := &b.nodes[ni]
		if _, ok := n.box.IntersectRay(r, bound); !ok {
			continue
		}
		if n.leaf() {
			for _, tid := range b.order[n.start : n.start+n.count] {
				tri := &b.tris[tid]
				t, bary, ok := r.IntersectTriangle(tri.V[0], tri.V[1], tri.V[2])
				if !ok || t > bound {
					continue
				}
				var stop bool
				if bound, stop = visit(tid, t, bary); stop {
					return
				}
			}
			continue
		}
		stack[sp] = n.right
		stack[sp+1] = ni + 1
		sp += 2
	}
}
