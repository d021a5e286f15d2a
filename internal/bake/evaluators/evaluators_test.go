package evaluators

import (
	"context"
	"testing"

	"github.com/erinpentecost/meshbake/internal/bake"
	"github.com/erinpentecost/meshbake/internal/bake/ramp"
	"github.com/erinpentecost/meshbake/internal/correspond"
	"github.com/erinpentecost/meshbake/internal/mesh"
	"github.com/erinpentecost/meshbake/internal/occupancy"
	"github.com/erinpentecost/meshbake/internal/raster"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

type bakeOpts struct {
	detail   *mesh.Mesh
	tangents bool
	strategy correspond.Strategy
	filter   bake.Filter
	ms       int
	threads  int
}

func runBake(t *testing.T, target *mesh.Mesh, size int, o bakeOpts, evals ...bake.Evaluator) *bake.Baker {
	t.Helper()
	b := bake.NewBaker(nil)
	b.SetTargetMesh(target)
	b.SetDimensions(raster.Dimensions{Width: size, Height: size})
	if o.detail != nil {
		b.SetDetailMesh(o.detail, nil)
	}
	if o.tangents {
		tan, err := mesh.ComputeTangents(target, 0)
		require.NoError(t, err)
		b.SetTargetTangents(tan)
	}
	b.SetCorrespondenceStrategy(o.strategy)
	b.SetFilter(o.filter)
	b.SetMultisampling(o.ms)
	b.SetThreads(o.threads)
	for _, e := range evals {
		b.AddEvaluator(e)
	}
	require.NoError(t, b.Bake(context.Background()))
	return b
}

func lowerLeftTriangle() *mesh.Mesh {
	m := mesh.New()
	uv := m.AddUVLayer()
	for _, p := range []mgl64.Vec2{{0, 0}, {1, 0}, {0, 1}} {
		m.AppendVertex(mgl64.Vec3{p.X(), p.Y(), 0})
		uv.AppendElement(p)
	}
	uv.SetTriangle(m.AppendTriangle(0, 1, 2), mesh.Triangle{0, 1, 2})
	mesh.ComputeVertexNormals(m)
	return m
}

func TestNormal_FlatTriangle(t *testing.T) {
	target := lowerLeftTriangle()
	b := runBake(t, target, 4, bakeOpts{detail: target, tangents: true, strategy: correspond.NearestPoint, filter: bake.BoxFilter}, NewNormal())

	flat := mgl64.Vec4{0.5, 0.5, 1, 1}
	im := b.Results(0)[0]
	interior := 0
	for i, tt := range b.TexelTypes() {
		if tt == occupancy.Interior {
			interior++
		}
		require.InDeltaSlice(t, flat[:], im.Pixel(i), 1e-9, "texel %d", i)
	}
	require.Equal(t, 15, interior)
}

func TestNormal_RangeLaw(t *testing.T) {
	target := mesh.Sphere(1, 10, 20)
	detail := mesh.Sphere(1.02, 30, 60)
	b := runBake(t, target, 64, bakeOpts{detail: detail, tangents: true, strategy: correspond.RaycastStandardThenNearest, filter: bake.MitchellFilter, ms: 2}, NewNormal())

	im := b.Results(0)[0]
	for i, tt := range b.TexelTypes() {
		c := im.Vec4(i)
		for k := range 4 {
			require.GreaterOrEqual(t, c[k], 0.0)
			require.LessOrEqual(t, c[k], 1.0)
		}
		if tt == occupancy.Interior {
			require.InDelta(t, 1, UnpackNormal(c).Len(), 1e-9)
			// a finer sphere around a coarse one bends little
			require.Greater(t, UnpackNormal(c).Z(), 0.8)
		}
	}
}

func TestNormal_MissingTangents(t *testing.T) {
	b := bake.NewBaker(nil)
	b.SetTargetMesh(mesh.Plane(2))
	b.SetDimensions(raster.Dimensions{Width: 8, Height: 8})
	b.AddEvaluator(NewNormal())
	require.ErrorIs(t, b.Bake(context.Background()), bake.ErrMissingTangents)

	b.Reset()
	b.AddEvaluator(&WorldPositionNormal{Func: func(p, n mgl64.Vec3) mgl64.Vec3 { return n }})
	require.ErrorIs(t, b.Bake(context.Background()), bake.ErrMissingTangents)

	b.Reset()
	ao := NewOcclusion()
	ao.Type = BentNormal
	b.AddEvaluator(ao)
	require.ErrorIs(t, b.Bake(context.Background()), bake.ErrMissingTangents)
}

func TestOcclusion_ConvexIsUnoccluded(t *testing.T) {
	sphere := mesh.Sphere(1, 12, 24)
	ao := NewOcclusion()
	ao.Type = AllOcclusion
	b := runBake(t, sphere, 32, bakeOpts{tangents: true, strategy: correspond.Identity, filter: bake.BoxFilter}, ao)

	aoImg, bentImg := b.Results(0)[0], b.Results(0)[1]
	for i, tt := range b.TexelTypes() {
		if tt != occupancy.Interior {
			continue
		}
		require.Greater(t, aoImg.Vec4(i).X(), 0.9, "texel %d", i)
		require.Greater(t, UnpackNormal(bentImg.Vec4(i)).Z(), 0.8, "texel %d", i)
	}
}

func TestOcclusion_InsideSphereIsOccluded(t *testing.T) {
	sphere := mesh.Sphere(1, 12, 24)
	for i, n := range sphere.Normals.Elements {
		sphere.Normals.Elements[i] = n.Mul(-1)
	}
	b := runBake(t, sphere, 32, bakeOpts{strategy: correspond.Identity, filter: bake.BoxFilter}, NewOcclusion())

	im := b.Results(0)[0]
	for i, tt := range b.TexelTypes() {
		if tt == occupancy.Interior {
			require.Less(t, im.Vec4(i).X(), 0.05, "texel %d", i)
		}
	}
}

func TestOcclusion_Deterministic(t *testing.T) {
	target := mesh.Sphere(1, 8, 16)
	detail := mesh.Sphere(1.01, 16, 32)
	bakeAO := func(threads int) []float64 {
		ao := NewOcclusion()
		ao.Rays = 16
		ao.BlurRadius = 1
		b := runBake(t, target, 32, bakeOpts{detail: detail, strategy: correspond.RaycastStandardThenNearest, filter: bake.BSplineFilter, ms: 2, threads: threads}, ao)
		return b.Results(0)[0].Pix
	}
	require.Equal(t, bakeAO(1), bakeAO(6))
}

func TestCurvature_Sphere(t *testing.T) {
	sphere := mesh.Sphere(2, 16, 32)
	curv := NewCurvature()
	b := runBake(t, sphere, 32, bakeOpts{strategy: correspond.Identity, filter: bake.BoxFilter}, curv)

	// mean curvature of a radius 2 sphere is 0.5
	require.InDelta(t, 0.5, curv.Range(), 0.25)
	im := b.Results(0)[0]
	for i, tt := range b.TexelTypes() {
		if tt != occupancy.Interior {
			continue
		}
		c := im.Vec4(i)
		require.Zero(t, c.X(), "convex texel %d has red", i)
		require.Greater(t, c.Z(), 0.5)
	}

	t.Run("override range", func(t *testing.T) {
		curv := NewCurvature()
		curv.OverrideRange = 100
		curv.Ramp = ramp.Mono{}
		b := runBake(t, sphere, 16, bakeOpts{strategy: correspond.Identity, filter: bake.BoxFilter}, curv)
		require.Equal(t, 100.0, curv.Range())
		im := b.Results(0)[0]
		for i, tt := range b.TexelTypes() {
			if tt == occupancy.Interior {
				require.InDelta(t, 0.5, im.Vec4(i).X(), 0.01)
			}
		}
	})
}

func TestProperty(t *testing.T) {
	plane := mesh.Plane(4)
	plane.EnableMaterialIDs()
	for tid := range plane.TriangleCount() {
		v := plane.Triangle3(tid).Centroid()
		if v.X() > 0.5 {
			plane.MaterialIDs[tid] = 1
		}
	}
	colors := plane.EnableColors()
	for tid, tri := range plane.Triangles {
		var ids mesh.Triangle
		for j, vid := range tri {
			p := plane.Vertices[vid]
			ids[j] = colors.AppendElement(mgl64.Vec4{p.X(), 0, p.Y(), 1})
		}
		colors.SetTriangle(tid, ids)
	}

	dims := raster.Dimensions{Width: 16, Height: 16}
	tests := []struct {
		prop PropertyType
		want func(uv mgl64.Vec2) mgl64.Vec4
	}{
		{PositionProperty, func(uv mgl64.Vec2) mgl64.Vec4 { return mgl64.Vec4{uv.X(), uv.Y(), 0.5, 1} }},
		{NormalProperty, func(mgl64.Vec2) mgl64.Vec4 { return mgl64.Vec4{0.5, 0.5, 1, 1} }},
		{FacetNormalProperty, func(mgl64.Vec2) mgl64.Vec4 { return mgl64.Vec4{0.5, 0.5, 1, 1} }},
		{UVPositionProperty, func(uv mgl64.Vec2) mgl64.Vec4 { return mgl64.Vec4{uv.X(), uv.Y(), 0, 1} }},
		{VertexColorProperty, func(uv mgl64.Vec2) mgl64.Vec4 { return mgl64.Vec4{uv.X(), 0, uv.Y(), 1} }},
	}
	for _, tt := range tests {
		b := runBake(t, plane, 16, bakeOpts{strategy: correspond.Identity, filter: bake.BoxFilter}, NewProperty(tt.prop))
		im := b.Results(0)[0]
		for i := range dims.Num() {
			want := tt.want(dims.TexelUV(dims.Coords(i)))
			require.InDeltaSlice(t, want[:], im.Pixel(i), 1e-9, "property %d texel %d", tt.prop, i)
		}
	}

	t.Run("material id is not blended", func(t *testing.T) {
		b := runBake(t, plane, 16, bakeOpts{strategy: correspond.Identity, filter: bake.MitchellFilter, ms: 2}, NewProperty(MaterialIDProperty))
		im := b.Results(0)[0]
		for i := range dims.Num() {
			c := im.Vec4(i)
			require.True(t, c == ramp.IDColor(0) || c == ramp.IDColor(1), "texel %d is %v", i, c)
		}
	})

	for _, name := range []string{"position", "normal", "facet_normal", "uv_position", "material_id", "vertex_color"} {
		_, err := ParsePropertyType(name)
		require.NoError(t, err)
	}
	_, err := ParsePropertyType("tangent")
	require.Error(t, err)
}

func TestWorldPosition(t *testing.T) {
	plane := mesh.Plane(2)
	col := &WorldPositionColor{Func: func(p, n mgl64.Vec3) mgl64.Vec4 {
		return mgl64.Vec4{p.X(), p.Y(), n.Z(), 1}
	}}
	nrm := &WorldPositionNormal{Func: func(p, n mgl64.Vec3) mgl64.Vec3 { return n }}
	b := runBake(t, plane, 8, bakeOpts{tangents: true, strategy: correspond.Identity, filter: bake.BoxFilter}, col, nrm)

	dims := raster.Dimensions{Width: 8, Height: 8}
	for i := range dims.Num() {
		uv := dims.TexelUV(dims.Coords(i))
		require.InDeltaSlice(t, []float64{uv.X(), uv.Y(), 1, 1}, b.Results(0)[0].Pixel(i), 1e-9)
		require.InDeltaSlice(t, []float64{0.5, 0.5, 1, 1}, b.Results(1)[0].Pixel(i), 1e-9)
	}

	bk := bake.NewBaker(nil)
	bk.SetTargetMesh(plane)
	bk.SetDimensions(dims)
	bk.AddEvaluator(&WorldPositionColor{})
	require.Error(t, bk.Bake(context.Background()))
}

// gradient returns an image whose red channel is u and green channel v at
// texel centers.
func gradient(dims raster.Dimensions) *raster.Image {
	im := raster.NewImage(dims, 4)
	for i := range dims.Num() {
		uv := dims.TexelUV(dims.Coords(i))
		im.SetVec4(i, mgl64.Vec4{uv.X(), uv.Y(), 0, 1})
	}
	return im
}

func TestResample(t *testing.T) {
	dims := raster.Dimensions{Width: 16, Height: 16}
	plane := mesh.Plane(4)
	plane.EnableMaterialIDs()
	for tid := range plane.TriangleCount() {
		if plane.Triangle3(tid).Centroid().X() > 0.5 {
			plane.MaterialIDs[tid] = 1
		}
	}
	src := gradient(dims)

	b := runBake(t, plane, 16, bakeOpts{strategy: correspond.Identity, filter: bake.BoxFilter}, NewResample(src))
	require.InDeltaSlice(t, src.Pix, b.Results(0)[0].Pix, 1e-9)

	t.Run("material passes composite", func(t *testing.T) {
		result := raster.NewImage(dims, 4)
		result.Clear([]float64{0, 0, 1, 1})

		red := raster.NewImage(dims, 4)
		red.Clear([]float64{1, 0, 0, 1})
		pass := NewResample(red)
		pass.MaterialID = 1
		pass.Result = result
		b := runBake(t, plane, 16, bakeOpts{strategy: correspond.Identity, filter: bake.BoxFilter}, pass)

		for i := range dims.Num() {
			x, _ := dims.Coords(i)
			want := []float64{0, 0, 1, 1}
			cov := 0.0
			if x >= 8 {
				want, cov = []float64{1, 0, 0, 1}, 1
			}
			require.InDeltaSlice(t, want, result.Pixel(i), 1e-9, "texel %d", i)
			require.InDelta(t, cov, b.Results(0)[1].Pixel(i)[0], 1e-9)
		}
	})

	t.Run("multi", func(t *testing.T) {
		red := raster.NewImage(dims, 4)
		red.Clear([]float64{1, 0, 0, 1})
		green := raster.NewImage(dims, 1)
		green.Clear([]float64{0.25})
		multi := NewMultiResample(map[int]*raster.Image{0: red, 1: green})
		b := runBake(t, plane, 16, bakeOpts{strategy: correspond.Identity, filter: bake.BoxFilter}, multi)

		for i := range dims.Num() {
			x, _ := dims.Coords(i)
			want := []float64{1, 0, 0, 1}
			if x >= 8 {
				want = []float64{0.25, 0.25, 0.25, 1}
			}
			require.InDeltaSlice(t, want, b.Results(0)[0].Pixel(i), 1e-9, "texel %d", i)
		}
	})
}
