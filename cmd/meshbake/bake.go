package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/erinpentecost/meshbake/internal/bake"
	"github.com/erinpentecost/meshbake/internal/bake/evaluators"
	"github.com/erinpentecost/meshbake/internal/bake/postprocessors"
	"github.com/erinpentecost/meshbake/internal/bake/ramp"
	"github.com/erinpentecost/meshbake/internal/config"
	"github.com/erinpentecost/meshbake/internal/correspond"
	"github.com/erinpentecost/meshbake/internal/logger"
	"github.com/erinpentecost/meshbake/internal/mesh"
	"github.com/erinpentecost/meshbake/internal/meshio"
	"github.com/erinpentecost/meshbake/internal/raster"
	"github.com/erinpentecost/meshbake/internal/texio"
	"github.com/spf13/pflag"
	"go.coder.com/cli"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type bakeCmd struct{}

func (c *bakeCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "bake",
		Usage: "[flags]",
		Desc:  "Run every evaluator listed in the config and write the resulting maps.",
	}
}

func (c *bakeCmd) RegisterFlags(fl *pflag.FlagSet) {
	config.RegisterFlags(fl)
}

func (c *bakeCmd) Run(fl *pflag.FlagSet) {
	cfg := setup(fl)
	defer logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()
	if err := runBake(ctx, cfg); err != nil {
		fail("bake", err)
	}
}

// output is one image file produced by an evaluator.
type output struct {
	path      string
	evaluator int
	index     int
}

func runBake(ctx context.Context, cfg *config.Config) error {
	start := time.Now()
	target, detail, err := loadMeshes(cfg)
	if err != nil {
		return err
	}

	b, err := newBaker(cfg, target, detail)
	if err != nil {
		return err
	}
	outputs, err := addEvaluators(b, cfg)
	if err != nil {
		return err
	}
	if len(outputs) == 0 {
		logger.Warn("no outputs configured")
		return nil
	}

	logger.Info("baking", zap.Int("evaluators", len(b.Evaluators())), zap.Int("outputs", len(outputs)))
	if err := b.Bake(ctx); err != nil {
		return fmt.Errorf("bake: %w", err)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := writeOutputs(ctx, b, outputs, cfg); err != nil {
		return err
	}
	logger.Info("done", zap.Duration("elapsed", time.Since(start)))
	return nil
}

func loadMeshes(cfg *config.Config) (*mesh.Mesh, *mesh.Mesh, error) {
	if cfg.Target == "" {
		return nil, nil, fmt.Errorf("no target mesh configured")
	}
	logger.Info("reading target", zap.String("path", cfg.Target))
	ts, err := meshio.Read(cfg.Target)
	if err != nil {
		return nil, nil, fmt.Errorf("read target: %w", err)
	}
	target := ts.Mesh
	if target.Normals == nil {
		mesh.ComputeVertexNormals(target)
	}
	if cfg.Detail == "" {
		return target, nil, nil
	}

	logger.Info("reading detail", zap.String("path", cfg.Detail))
	ds, err := meshio.Read(cfg.Detail)
	if err != nil {
		return nil, nil, fmt.Errorf("read detail: %w", err)
	}
	if ds.Mesh.Normals == nil {
		mesh.ComputeVertexNormals(ds.Mesh)
	}
	return target, ds.Mesh, nil
}

func newBaker(cfg *config.Config, target, detail *mesh.Mesh) (*bake.Baker, error) {
	bc := cfg.Bake
	strategy, err := correspond.ParseStrategy(bc.Correspondence)
	if err != nil {
		return nil, err
	}
	filter, err := bake.ParseFilter(bc.Filter)
	if err != nil {
		return nil, err
	}

	b := bake.NewBaker(logger.Log)
	b.SetTargetMesh(target)
	if detail != nil {
		b.SetDetailMesh(detail, nil)
	}
	b.SetDimensions(raster.Dimensions{Width: bc.Width, Height: bc.Height})
	b.SetUVLayer(bc.UVLayer)
	b.SetCorrespondenceStrategy(strategy)
	b.SetThickness(bc.Thickness)
	b.SetGutterEnabled(bc.Gutter.Enabled)
	b.SetGutterSize(bc.Gutter.Size)
	b.SetMultisampling(bc.Multisampling)
	b.SetTileSize(bc.TileSize)
	b.SetFilter(filter)
	b.SetThreads(bc.Threads)

	if tangents, err := mesh.ComputeTangents(target, bc.UVLayer); err != nil {
		logger.Warn("no target tangents", zap.Error(err))
	} else {
		b.SetTargetTangents(tangents)
	}
	return b, nil
}

// addEvaluators registers one evaluator per config entry and returns the
// files their outputs go to.
func addEvaluators(b *bake.Baker, cfg *config.Config) ([]output, error) {
	var outputs []output
	for i, ec := range cfg.Evaluators {
		e, paths, err := newEvaluator(ec)
		if err != nil {
			return nil, fmt.Errorf("evaluator %d (%s): %w", i, ec.Type, err)
		}
		idx := b.AddEvaluator(e)
		logger.Debug("evaluator", zap.Int("index", idx), zap.String("type", ec.Type), zap.Strings("outputs", paths))
		for o, p := range paths {
			if p == "" {
				continue
			}
			outputs = append(outputs, output{
				path:      filepath.Join(cfg.OutputDir, p),
				evaluator: idx,
				index:     o,
			})
		}
	}
	return outputs, nil
}

// newEvaluator builds the evaluator for ec and lists the file of each of its
// outputs in order. Empty paths are not written.
func newEvaluator(ec config.EvaluatorConfig) (bake.Evaluator, []string, error) {
	switch ec.Type {
	case "normal":
		return evaluators.NewNormal(), []string{ec.Output}, nil

	case "occlusion":
		e := evaluators.NewOcclusion()
		e.Type = 0
		var paths []string
		if ec.Output != "" {
			e.Type |= evaluators.AmbientOcclusion
			paths = append(paths, ec.Output)
		}
		if ec.BentNormalOutput != "" {
			e.Type |= evaluators.BentNormal
			paths = append(paths, ec.BentNormalOutput)
		}
		if ec.Rays > 0 {
			e.Rays = ec.Rays
		}
		if ec.SpreadAngle > 0 {
			e.SpreadAngle = ec.SpreadAngle
		}
		if ec.BiasAngle > 0 {
			e.BiasAngle = ec.BiasAngle
		}
		e.MaxDistance = ec.MaxDistance
		e.BlurRadius = ec.BlurRadius
		return e, paths, nil

	case "curvature":
		e := evaluators.NewCurvature()
		ct, err := mesh.ParseCurvatureType(ec.Curvature)
		if err != nil {
			return nil, nil, err
		}
		r, err := ramp.Parse(ec.ColorMode, ec.RampFile)
		if err != nil {
			return nil, nil, err
		}
		e.Type = ct
		e.Ramp = r
		if ec.RangeScale > 0 {
			e.RangeScale = ec.RangeScale
		}
		e.OverrideRange = ec.MaxRange
		e.BlurRadius = ec.BlurRadius
		return e, []string{ec.Output}, nil

	case "property":
		pt, err := evaluators.ParsePropertyType(ec.Property)
		if err != nil {
			return nil, nil, err
		}
		e := evaluators.NewProperty(pt)
		e.UVLayer = ec.DetailUVLayer
		return e, []string{ec.Output}, nil

	case "resample":
		src, err := texio.Read(ec.Source)
		if err != nil {
			return nil, nil, err
		}
		e := evaluators.NewResample(src)
		e.DetailUVLayer = ec.DetailUVLayer
		return e, []string{ec.Output}, nil

	case "multi_resample":
		sources := make(map[int]*raster.Image, len(ec.Sources))
		for id, path := range ec.Sources {
			src, err := texio.Read(path)
			if err != nil {
				return nil, nil, fmt.Errorf("material %d: %w", id, err)
			}
			sources[id] = src
		}
		e := evaluators.NewMultiResample(sources)
		e.DetailUVLayer = ec.DetailUVLayer
		return e, []string{ec.Output}, nil
	}
	return nil, nil, fmt.Errorf("unknown evaluator type %q", ec.Type)
}

// writeOutputs encodes the baked images in parallel, shrinking them first
// when a scale down factor is configured.
func writeOutputs(ctx context.Context, b *bake.Baker, outputs []output, cfg *config.Config) error {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, o := range outputs {
		g.Go(func() error {
			img := b.Results(o.evaluator)[o.index]
			if cfg.Output.ScaleDown > 1 {
				var err error
				img, err = postprocessors.Chain(img, &postprocessors.PowerOfTwo{DownScaleFactor: cfg.Output.ScaleDown})
				if err != nil {
					return fmt.Errorf("scale %q: %w", o.path, err)
				}
			}
			logger.Info("writing", zap.String("path", o.path),
				zap.Int("width", img.Dims.Width), zap.Int("height", img.Dims.Height))
			if err := texio.Write(o.path, img.ToNRGBA()); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}
