package bake

import (
	"github.com/erinpentecost/meshbake/internal/correspond"
	"github.com/erinpentecost/meshbake/internal/sampler"
	"github.com/go-gl/mathgl/mgl64"
)

// CorrespondenceSample is one target surface sample and its match on the
// detail surface. It is built per sample and discarded after evaluation.
type CorrespondenceSample struct {
	BaseSample sampler.Info
	BaseNormal mgl64.Vec3

	// DetailTriID is correspond.InvalidID when no match was found.
	DetailTriID      int
	DetailBaryCoords mgl64.Vec3

	// Texel and SampleIndex identify the sample within the image, for
	// evaluators that need a reproducible per-sample seed.
	Texel       int
	SampleIndex int
}

// Valid reports whether a detail match exists.
func (s *CorrespondenceSample) Valid() bool {
	return s.DetailTriID != correspond.InvalidID
}

// Key returns a stable hash of the sample's position in the image.
func (s *CorrespondenceSample) Key() uint64 {
	return splitmix64(uint64(s.Texel)<<16 ^ uint64(s.SampleIndex))
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
