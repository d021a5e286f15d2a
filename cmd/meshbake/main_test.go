package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/erinpentecost/meshbake/internal/bake/evaluators"
	"github.com/erinpentecost/meshbake/internal/config"
	"github.com/erinpentecost/meshbake/internal/mesh"
	"github.com/erinpentecost/meshbake/internal/meshio"
	"github.com/erinpentecost/meshbake/internal/texio"
	"github.com/stretchr/testify/require"
)

func planeConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	target := filepath.Join(dir, "plane.obj")
	require.NoError(t, meshio.Write(target, &meshio.Scene{Mesh: mesh.Plane(2)}))

	cfg := config.Default()
	cfg.Target = target
	cfg.OutputDir = filepath.Join(dir, "out")
	cfg.Bake.Width, cfg.Bake.Height = 16, 16
	cfg.Bake.Threads = 2
	return cfg
}

func TestNewEvaluator(t *testing.T) {
	for _, tc := range []struct {
		name  string
		ec    config.EvaluatorConfig
		paths []string
	}{
		{"normal", config.EvaluatorConfig{Type: "normal", Output: "n.png"}, []string{"n.png"}},
		{"ao only", config.EvaluatorConfig{Type: "occlusion", Output: "ao.png"}, []string{"ao.png"}},
		{"bent only", config.EvaluatorConfig{Type: "occlusion", BentNormalOutput: "b.png"}, []string{"b.png"}},
		{"both", config.EvaluatorConfig{Type: "occlusion", Output: "ao.png", BentNormalOutput: "b.png"}, []string{"ao.png", "b.png"}},
		{"curvature", config.EvaluatorConfig{Type: "curvature", Output: "c.png", Curvature: "max", ColorMode: "red_blue"}, []string{"c.png"}},
		{"property", config.EvaluatorConfig{Type: "property", Property: "material_id", Output: "m.png"}, []string{"m.png"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			e, paths, err := newEvaluator(tc.ec)
			require.NoError(t, err)
			require.NotNil(t, e)
			require.Equal(t, tc.paths, paths)
		})
	}

	e, _, err := newEvaluator(config.EvaluatorConfig{Type: "occlusion", Output: "ao.png", BentNormalOutput: "b.png", Rays: 7})
	require.NoError(t, err)
	occ := e.(*evaluators.Occlusion)
	require.Equal(t, evaluators.AllOcclusion, occ.Type)
	require.Equal(t, 7, occ.Rays)
	require.Equal(t, 15.0, occ.BiasAngle)

	for _, ec := range []config.EvaluatorConfig{
		{Type: "displacement"},
		{Type: "curvature", Curvature: "sharp"},
		{Type: "curvature", ColorMode: "rainbow"},
		{Type: "property", Property: "age"},
		{Type: "resample", Source: "missing.png"},
	} {
		_, _, err := newEvaluator(ec)
		require.Error(t, err, ec.Type)
	}
}

func TestRunBake(t *testing.T) {
	cfg := planeConfig(t)
	cfg.Evaluators = []config.EvaluatorConfig{
		{Type: "normal", Output: "normal.png"},
		{Type: "property", Property: "position", Output: "position.bmp"},
		{Type: "curvature", Output: "curvature.tga"},
		{Type: "occlusion", Output: "ao.dds", Rays: 8},
	}
	require.NoError(t, runBake(context.Background(), cfg))

	normal, err := texio.Read(filepath.Join(cfg.OutputDir, "normal.png"))
	require.NoError(t, err)
	require.Equal(t, 16, normal.Dims.Width)
	px := normal.ToNRGBA().NRGBAAt(8, 8)
	require.InDelta(t, 128, int(px.R), 1)
	require.InDelta(t, 128, int(px.G), 1)
	require.Equal(t, uint8(255), px.B)

	for _, name := range []string{"position.bmp", "curvature.tga", "ao.dds"} {
		im, err := texio.Read(filepath.Join(cfg.OutputDir, name))
		require.NoError(t, err, name)
		require.Equal(t, 16, im.Dims.Height, name)
	}
}

func TestRunBake_ScaleDown(t *testing.T) {
	cfg := planeConfig(t)
	cfg.Output.ScaleDown = 2
	cfg.Evaluators = []config.EvaluatorConfig{{Type: "property", Property: "uv_position", Output: "uv.png"}}
	require.NoError(t, runBake(context.Background(), cfg))

	im, err := texio.Read(filepath.Join(cfg.OutputDir, "uv.png"))
	require.NoError(t, err)
	require.Equal(t, 8, im.Dims.Width)
	require.Equal(t, 8, im.Dims.Height)
}

func TestRunBake_Errors(t *testing.T) {
	cfg := planeConfig(t)
	cfg.Bake.Correspondence = "teleport"
	cfg.Evaluators = []config.EvaluatorConfig{{Type: "normal", Output: "n.png"}}
	require.Error(t, runBake(context.Background(), cfg))

	cfg = planeConfig(t)
	cfg.Bake.Height = 8
	cfg.Evaluators = []config.EvaluatorConfig{{Type: "normal", Output: "n.png"}}
	require.Error(t, runBake(context.Background(), cfg))

	cfg = planeConfig(t)
	cfg.Target = ""
	require.Error(t, runBake(context.Background(), cfg))
}

func TestOccupancyImage(t *testing.T) {
	cfg := planeConfig(t)
	cfg.Bake.Width, cfg.Bake.Height = 8, 8
	img, err := occupancyImage(context.Background(), mesh.Plane(1), cfg.Bake)
	require.NoError(t, err)

	// the plane covers the whole UV square so nothing is left black
	nrgba := img.ToNRGBA()
	for y := range 8 {
		for x := range 8 {
			c := nrgba.NRGBAAt(x, y)
			require.NotEqual(t, [3]uint8{0, 0, 0}, [3]uint8{c.R, c.G, c.B})
		}
	}

	path := filepath.Join(cfg.OutputDir, "occ.png")
	require.NoError(t, runOccupancy(context.Background(), cfg, path))
	_, err = texio.Read(path)
	require.NoError(t, err)
}
