package meshing

import (
	"lod-terrain/internal/profiling"

	"github.com/go-gl/mathgl/mgl32"
)

// ChunkCells is the number of cells along each chunk axis, at every depth.
const ChunkCells = 16

// Data is the read-only voxel field the polygonizer samples. Positive values
// are solid, zero and negative are empty.
type Data interface {
	Value(x, y, z int) float32
}

// Cube corners, then the six tetrahedra sharing the 0-6 diagonal.
var (
	cubeCorners = [8][3]int{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	}
	tetrahedra = [6][4]int{
		{0, 5, 1, 6}, {0, 1, 2, 6}, {0, 2, 3, 6},
		{0, 3, 7, 6}, {0, 7, 4, 6}, {0, 4, 5, 6},
	}
)

const epsilon = 1e-4

// Polygonizer extracts the surface of one chunk. It only reads its inputs, so
// a configured Polygonizer can run on any goroutine.
type Polygonizer struct {
	// Depth of the chunk's node; MaxDepth is the depth of the finest nodes.
	Depth    int
	MaxDepth int

	Data   Data
	Corner Vec3i

	// HigherRes[d] is set when the neighbor across face d is finer than this
	// chunk. Only read when ComputeTransitions is true.
	HigherRes          [NumDirections]bool
	ComputeTransitions bool
}

// Step returns the voxel distance between two samples of the chunk grid.
func (p *Polygonizer) Step() int {
	if p.Depth >= p.MaxDepth {
		return 1
	}
	return 1 << (p.MaxDepth - p.Depth)
}

// Size returns the chunk edge length in voxels.
func (p *Polygonizer) Size() int {
	return ChunkCells * p.Step()
}

// CreateSection polygonizes the chunk.
func (p *Polygonizer) CreateSection() *Section {
	defer profiling.Track("meshing.CreateSection")()

	step := p.Step()
	const n = ChunkCells + 1
	values := make([]float32, n*n*n)
	idx := func(x, y, z int) int {
		return (x*n+y)*n + z
	}
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				values[idx(x, y, z)] = p.Data.Value(p.Corner.X+x*step, p.Corner.Y+y*step, p.Corner.Z+z*step)
			}
		}
	}

	s := &Section{}
	var (
		val [8]float32
		pos [8]mgl32.Vec3
	)
	for x := 0; x < ChunkCells; x++ {
		for y := 0; y < ChunkCells; y++ {
			for z := 0; z < ChunkCells; z++ {
				solid := 0
				for c, o := range cubeCorners {
					val[c] = values[idx(x+o[0], y+o[1], z+o[2])]
					pos[c] = mgl32.Vec3{
						float32((x + o[0]) * step),
						float32((y + o[1]) * step),
						float32((z + o[2]) * step),
					}
					if val[c] > 0 {
						solid++
					}
				}
				if solid == 0 || solid == 8 {
					continue
				}
				for _, tet := range tetrahedra {
					p.polygonizeTetra(s, &pos, &val, tet)
				}
			}
		}
	}

	if p.ComputeTransitions {
		p.addSkirts(s, step)
	}
	return s
}

func (p *Polygonizer) polygonizeTetra(s *Section, pos *[8]mgl32.Vec3, val *[8]float32, tet [4]int) {
	var (
		in, out   [4]int
		nIn, nOut int
	)
	for _, c := range tet {
		if val[c] > 0 {
			in[nIn] = c
			nIn++
		} else {
			out[nOut] = c
			nOut++
		}
	}
	if nIn == 0 || nOut == 0 {
		return
	}

	edge := func(a, b int) mgl32.Vec3 {
		va, vb := val[a], val[b]
		t := va / (va - vb)
		return pos[a].Add(pos[b].Sub(pos[a]).Mul(t))
	}

	// Points from the solid corners toward the empty ones.
	var inC, outC mgl32.Vec3
	for i := 0; i < nIn; i++ {
		inC = inC.Add(pos[in[i]])
	}
	for i := 0; i < nOut; i++ {
		outC = outC.Add(pos[out[i]])
	}
	outward := outC.Mul(1 / float32(nOut)).Sub(inC.Mul(1 / float32(nIn)))

	switch nIn {
	case 1:
		p.emitTriangle(s, edge(in[0], out[0]), edge(in[0], out[1]), edge(in[0], out[2]), outward)
	case 3:
		p.emitTriangle(s, edge(in[0], out[0]), edge(in[1], out[0]), edge(in[2], out[0]), outward)
	case 2:
		a := edge(in[0], out[0])
		b := edge(in[0], out[1])
		c := edge(in[1], out[1])
		d := edge(in[1], out[0])
		p.emitTriangle(s, a, b, c, outward)
		p.emitTriangle(s, a, c, d, outward)
	}
}

func (p *Polygonizer) emitTriangle(s *Section, a, b, c, outward mgl32.Vec3) {
	face := b.Sub(a).Cross(c.Sub(a))
	if face.Len() < epsilon {
		return
	}
	if face.Dot(outward) < 0 {
		b, c = c, b
		face = face.Mul(-1)
	}
	face = face.Normalize()
	ia := s.addVertex(a, p.normalAt(a, face))
	ib := s.addVertex(b, p.normalAt(b, face))
	ic := s.addVertex(c, p.normalAt(c, face))
	s.addTriangle(ia, ib, ic)
}

// normalAt estimates the surface normal from the field gradient at the
// nearest sample, falling back to the face normal on flat fields.
func (p *Polygonizer) normalAt(local, fallback mgl32.Vec3) mgl32.Vec3 {
	step := p.Step()
	x := p.Corner.X + roundInt(local[0])
	y := p.Corner.Y + roundInt(local[1])
	z := p.Corner.Z + roundInt(local[2])
	g := mgl32.Vec3{
		p.Data.Value(x+step, y, z) - p.Data.Value(x-step, y, z),
		p.Data.Value(x, y+step, z) - p.Data.Value(x, y-step, z),
		p.Data.Value(x, y, z+step) - p.Data.Value(x, y, z-step),
	}
	if g.Len() < epsilon {
		return fallback
	}
	return g.Mul(-1).Normalize()
}

// addSkirts hangs a strip below every boundary edge facing a finer neighbor so
// the crack between the two resolutions stays covered.
func (p *Polygonizer) addSkirts(s *Section, step int) {
	size := float32(ChunkCells * step)
	depth := float32(step)
	triangles := s.NumTriangles()
	for _, d := range Directions {
		if !p.HigherRes[d] {
			continue
		}
		axis := d.Axis()
		var plane float32
		if d.Positive() {
			plane = size
		}
		onPlane := func(v mgl32.Vec3) bool {
			return abs32(v[axis]-plane) < epsilon
		}
		for t := 0; t < triangles; t++ {
			for k := 0; k < 3; k++ {
				ia := s.Indices[t*3+k]
				ib := s.Indices[t*3+(k+1)%3]
				a, b := s.Positions[ia], s.Positions[ib]
				if !onPlane(a) || !onPlane(b) {
					continue
				}
				na, nb := s.Normals[ia], s.Normals[ib]
				a2 := a.Sub(na.Mul(depth))
				b2 := b.Sub(nb.Mul(depth))
				va := s.addVertex(a, na)
				vb := s.addVertex(b, nb)
				va2 := s.addVertex(a2, na)
				vb2 := s.addVertex(b2, nb)
				// Both windings, so the skirt is visible from either side.
				s.addTriangle(va, vb, vb2)
				s.addTriangle(va, vb2, va2)
				s.addTriangle(va, vb2, vb)
				s.addTriangle(va, va2, vb2)
			}
		}
	}
}

func roundInt(v float32) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}
