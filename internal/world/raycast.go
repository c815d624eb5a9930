package world

import (
	"math"

	"lod-terrain/internal/meshing"
	"lod-terrain/internal/profiling"

	"github.com/go-gl/mathgl/mgl32"
)

const raycastStep = float32(0.05)

// RaycastResult stores the result of a raycast operation
type RaycastResult struct {
	Hit      bool
	Position meshing.Vec3i // first solid sample
	Previous meshing.Vec3i // last empty sample before it
	Distance float32
}

// Raycast marches from start along dir, both in voxels, and reports the first
// solid sample between minDist and maxDist. dir must be normalized.
func Raycast(data meshing.Data, start, dir mgl32.Vec3, minDist, maxDist float32) RaycastResult {
	defer profiling.Track("world.Raycast")()
	steps := int(maxDist / raycastStep)

	var res RaycastResult
	prev := nearestSample(start)
	for i := 0; i <= steps; i++ {
		dist := float32(i) * raycastStep
		if dist < minDist {
			continue
		}
		p := nearestSample(start.Add(dir.Mul(dist)))
		if data.Value(p.X, p.Y, p.Z) > 0 {
			res.Hit = true
			res.Position = p
			res.Previous = prev
			res.Distance = dist
			return res
		}
		prev = p
	}
	return res
}

func nearestSample(p mgl32.Vec3) meshing.Vec3i {
	return meshing.Vec3i{
		X: int(math.Floor(float64(p[0]) + 0.5)),
		Y: int(math.Floor(float64(p[1]) + 0.5)),
		Z: int(math.Floor(float64(p[2]) + 0.5)),
	}
}
