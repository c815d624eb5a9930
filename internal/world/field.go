package world

import (
	"errors"
	"math"
	"sync"

	"lod-terrain/internal/config"
	"lod-terrain/internal/meshing"

	"github.com/go-gl/mathgl/mgl32"
)

// Field is the voxel density source: procedural terrain plus a list of
// sculpting edits. Positive density is solid. Value is safe for concurrent
// use with Apply.
type Field struct {
	params config.Density

	mu      sync.RWMutex
	edits   []Edit
	version uint64
}

// NewField builds a field from density parameters.
func NewField(p config.Density) *Field {
	return &Field{params: p}
}

// Value returns the density at a voxel coordinate.
func (f *Field) Value(x, y, z int) float32 {
	d := f.terrain(x, y, z)
	f.mu.RLock()
	for i := range f.edits {
		d = f.edits[i].blend(x, y, z, d)
	}
	f.mu.RUnlock()
	return d
}

// terrain combines octave noise with an altitude gradient so that density
// falls off above base_height.
func (f *Field) terrain(x, y, z int) float32 {
	p := f.params
	n := octaveNoise3D(float64(x)*p.Scale, float64(y)*p.Scale, float64(z)*p.Scale,
		p.Seed, p.Octaves, p.Persistence, p.Lacunarity)
	n = n*2 - 1
	gradient := (float64(p.BaseHeight) - float64(y)) / p.GradientStrength
	return float32(n + gradient)
}

// Version increases with every applied edit.
func (f *Field) Version() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.version
}

// Edits returns a copy of the applied edits.
func (f *Field) Edits() []Edit {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]Edit(nil), f.edits...)
}

// ErrBadEdit is returned for edits with a non-positive radius.
var ErrBadEdit = errors.New("world: edit radius must be positive")

// Apply records an edit. Chunks overlapping Edit.Bounds need a remesh to
// show it.
func (f *Field) Apply(e Edit) error {
	if e.Radius <= 0 || math.IsNaN(float64(e.Radius)) {
		return ErrBadEdit
	}
	f.mu.Lock()
	f.edits = append(f.edits, e)
	f.version++
	f.mu.Unlock()
	return nil
}

// Edit adds or removes a sphere of material. Center and Radius are in voxels.
type Edit struct {
	Center mgl32.Vec3
	Radius float32
	Remove bool
}

func (e *Edit) blend(x, y, z int, d float32) float32 {
	dx := float32(x) - e.Center[0]
	dy := float32(y) - e.Center[1]
	dz := float32(z) - e.Center[2]
	// Distance outside the sphere surface, negative inside.
	s := float32(math.Sqrt(float64(dx*dx+dy*dy+dz*dz))) - e.Radius
	if e.Remove {
		return min(d, s)
	}
	return max(d, -s)
}

// Bounds returns the voxel box the edit can change, padded by one voxel for
// normal sampling.
func (e *Edit) Bounds() (lo, hi meshing.Vec3i) {
	r := e.Radius + 1
	lo = meshing.Vec3i{
		X: int(math.Floor(float64(e.Center[0] - r))),
		Y: int(math.Floor(float64(e.Center[1] - r))),
		Z: int(math.Floor(float64(e.Center[2] - r))),
	}
	hi = meshing.Vec3i{
		X: int(math.Ceil(float64(e.Center[0] + r))),
		Y: int(math.Ceil(float64(e.Center[1] + r))),
		Z: int(math.Ceil(float64(e.Center[2] + r))),
	}
	return lo, hi
}

// Func adapts a plain function to meshing.Data.
type Func func(x, y, z int) float32

// Value calls fn.
func (fn Func) Value(x, y, z int) float32 {
	return fn(x, y, z)
}

// Flat returns a field that is solid below height and empty above. A
// fractional height keeps the surface off the sample grid.
func Flat(height float32) Func {
	return func(_, y, _ int) float32 {
		return height - float32(y)
	}
}
