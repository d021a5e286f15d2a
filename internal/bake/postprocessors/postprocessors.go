// Package postprocessors transforms finished bake images.
package postprocessors

import "github.com/erinpentecost/meshbake/internal/raster"

// Processor turns one image into another. Implementations may return src
// itself when there is nothing to do.
type Processor interface {
	Process(src *raster.Image) (*raster.Image, error)
}

// Chain runs processors in order.
func Chain(src *raster.Image, procs ...Processor) (*raster.Image, error) {
	var err error
	for _, p := range procs {
		if src, err = p.Process(src); err != nil {
			return nil, err
		}
	}
	return src, nil
}
