package foliage

import (
	"math"
	"math/rand/v2"

	"lod-terrain/internal/config"
	"lod-terrain/internal/meshing"
	"lod-terrain/internal/profiling"

	"github.com/go-gl/mathgl/mgl32"
)

// Input is everything one scatter run reads. All fields are immutable for the
// duration of the run.
type Input struct {
	Section      *meshing.Section
	Variety      config.GrassVariety
	TypeIndex    int
	VarietyIndex int
	VoxelSize    float32
	Corner       meshing.Vec3i
	DensityScale float32
}

// InstanceBuffer holds per-instance transforms in chunk space, scaled to world
// units but without the chunk's voxel scale.
type InstanceBuffer struct {
	Transforms []mgl32.Mat4
}

// Len returns the instance count.
func (b *InstanceBuffer) Len() int {
	return len(b.Transforms)
}

// Result is the output of one scatter run.
type Result struct {
	Variety         config.GrassVariety
	TypeIndex       int
	Buffer          InstanceBuffer
	Tree            ClusterTree
	OcclusionLayers int
}

var up = mgl32.Vec3{0, 1, 0}

// Generate scatters instances of one variety over the upward facing triangles
// of a section. Identical inputs give identical output.
func Generate(in Input) *Result {
	defer profiling.Track("foliage.Generate")()

	res := &Result{Variety: in.Variety, TypeIndex: in.TypeIndex}
	v := in.Variety
	if in.Section.IsEmpty() || v.Density <= 0 || in.DensityScale <= 0 {
		return res
	}

	rng := rand.New(rand.NewPCG(streamSeed(&in)))
	vs := in.VoxelSize
	var positions []mgl32.Vec3
	for i := 0; i < in.Section.NumTriangles(); i++ {
		p, _ := in.Section.Triangle(i)
		e1, e2 := p[1].Sub(p[0]), p[2].Sub(p[0])
		face := e1.Cross(e2)
		l := face.Len()
		if l == 0 {
			continue
		}
		normal := face.Mul(1 / l)
		if normal[1] < v.MinNormalY {
			continue
		}

		area := l / 2 * vs * vs
		expected := area * v.Density * in.DensityScale / 100
		count := int(expected)
		if rng.Float32() < expected-float32(count) {
			count++
		}

		for k := 0; k < count; k++ {
			r1, r2 := rng.Float32(), rng.Float32()
			if r1+r2 > 1 {
				r1, r2 = 1-r1, 1-r2
			}
			pos := p[0].Add(e1.Mul(r1)).Add(e2.Mul(r2)).Mul(vs)

			rot := mgl32.QuatIdent()
			if v.AlignToSurface {
				rot = mgl32.QuatBetweenVectors(up, normal)
			}
			yaw := rng.Float32() * 2 * math.Pi
			if v.RandomRotation {
				rot = rot.Mul(mgl32.QuatRotate(yaw, up))
			}
			s := v.ScaleMin + rng.Float32()*(v.ScaleMax-v.ScaleMin)

			m := mgl32.Translate3D(pos[0], pos[1], pos[2]).Mul4(rot.Mat4()).Mul4(mgl32.Scale3D(s, s, s))
			res.Buffer.Transforms = append(res.Buffer.Transforms, m)
			positions = append(positions, pos)
		}
	}

	if len(positions) == 0 {
		return res
	}
	res.Tree, res.OcclusionLayers = buildClusterTree(positions)
	// Store instances in leaf order so every node covers a contiguous range.
	sorted := make([]mgl32.Mat4, len(res.Buffer.Transforms))
	for i, src := range res.Tree.SortedInstances {
		sorted[i] = res.Buffer.Transforms[src]
	}
	res.Buffer.Transforms = sorted
	return res
}
