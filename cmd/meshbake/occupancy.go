package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/erinpentecost/meshbake/internal/bake/ramp"
	"github.com/erinpentecost/meshbake/internal/config"
	"github.com/erinpentecost/meshbake/internal/logger"
	"github.com/erinpentecost/meshbake/internal/mesh"
	"github.com/erinpentecost/meshbake/internal/meshio"
	"github.com/erinpentecost/meshbake/internal/occupancy"
	"github.com/erinpentecost/meshbake/internal/raster"
	"github.com/erinpentecost/meshbake/internal/texio"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/pflag"
	"go.coder.com/cli"
	"go.uber.org/zap"
)

const flagOccupancyOut = "out"

type occupancyCmd struct{}

func (c *occupancyCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "occupancy",
		Usage: "[flags]",
		Desc:  "Write a debug image of the target's texel classification. Interior texels are colored by UV island, gutters are gray.",
	}
}

func (c *occupancyCmd) RegisterFlags(fl *pflag.FlagSet) {
	config.RegisterFlags(fl)
	fl.String(flagOccupancyOut, "occupancy.png", "image file, relative to the output directory")
}

func (c *occupancyCmd) Run(fl *pflag.FlagSet) {
	cfg := setup(fl)
	defer logger.Sync()

	out, _ := fl.GetString(flagOccupancyOut)
	ctx, cancel := signalContext()
	defer cancel()
	if err := runOccupancy(ctx, cfg, filepath.Join(cfg.OutputDir, out)); err != nil {
		fail("occupancy", err)
	}
}

var gutterColor = mgl64.Vec4{0.5, 0.5, 0.5, 1}

func runOccupancy(ctx context.Context, cfg *config.Config, path string) error {
	ts, err := meshio.Read(cfg.Target)
	if err != nil {
		return fmt.Errorf("read target: %w", err)
	}
	img, err := occupancyImage(ctx, ts.Mesh, cfg.Bake)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return texio.Write(path, img.ToNRGBA())
}

// occupancyImage classifies every texel of the target's UV layout.
func occupancyImage(ctx context.Context, target *mesh.Mesh, bc config.BakeConfig) (*raster.Image, error) {
	dims := raster.Dimensions{Width: bc.Width, Height: bc.Height}
	flat, err := mesh.FlattenUV(target, bc.UVLayer)
	if err != nil {
		return nil, fmt.Errorf("flatten uv: %w", err)
	}
	threads := bc.Threads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	m, err := occupancy.Compute(ctx, occupancy.NewUVSpace(flat), dims, occupancy.Full(dims), occupancy.Options{
		Multisampling: max(bc.Multisampling, 1),
		GutterEnabled: bc.Gutter.Enabled,
		GutterSize:    bc.Gutter.Size,
		Threads:       threads,
	})
	if err != nil {
		return nil, fmt.Errorf("compute occupancy: %w", err)
	}

	empty, interior, gutter := m.Counts()
	logger.Info("occupancy",
		zap.Int("empty", empty),
		zap.Int("interior", interior),
		zap.Int("gutter", gutter))

	img := raster.NewImage(dims, 4)
	img.Clear([]float64{0, 0, 0, 1})
	for i, t := range m.TexelTypes {
		switch t {
		case occupancy.Interior:
			img.SetVec4(i, ramp.IDColor(m.TexelTags[i]))
		case occupancy.Gutter:
			img.SetVec4(i, gutterColor)
		}
	}
	return img, nil
}
