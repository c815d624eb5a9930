package meshing

import "github.com/go-gl/mathgl/mgl32"

// AABB is an axis aligned box in chunk-local space.
type AABB struct {
	Min, Max mgl32.Vec3
}

// Extend grows the box to include p.
func (b *AABB) Extend(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// Section is a finished mesh: one vertex per position/normal/UV and a triangle
// list over them. Positions are chunk-local, in voxels.
//
// A Section is immutable once returned by a Polygonizer; chunks replace it
// wholesale instead of editing it.
type Section struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Indices   []uint32
	Bounds    AABB
}

// EmptySection returns a section without geometry.
func EmptySection() *Section {
	return &Section{}
}

// NumVertices returns the vertex count.
func (s *Section) NumVertices() int {
	if s == nil {
		return 0
	}
	return len(s.Positions)
}

// NumTriangles returns the triangle count.
func (s *Section) NumTriangles() int {
	if s == nil {
		return 0
	}
	return len(s.Indices) / 3
}

// IsEmpty reports whether the section has no triangles.
func (s *Section) IsEmpty() bool {
	return s.NumTriangles() == 0
}

// Triangle returns the three corners and the normals of triangle i.
func (s *Section) Triangle(i int) (p [3]mgl32.Vec3, n [3]mgl32.Vec3) {
	for k := 0; k < 3; k++ {
		idx := s.Indices[i*3+k]
		p[k] = s.Positions[idx]
		n[k] = s.Normals[idx]
	}
	return p, n
}

func (s *Section) addVertex(p, n mgl32.Vec3) uint32 {
	idx := uint32(len(s.Positions))
	if idx == 0 {
		s.Bounds = AABB{Min: p, Max: p}
	} else {
		s.Bounds.Extend(p)
	}
	s.Positions = append(s.Positions, p)
	s.Normals = append(s.Normals, n)
	s.UVs = append(s.UVs, planarUV(p, n))
	return idx
}

func (s *Section) addTriangle(a, b, c uint32) {
	s.Indices = append(s.Indices, a, b, c)
}

// planarUV projects p onto the plane most facing n.
func planarUV(p, n mgl32.Vec3) mgl32.Vec2 {
	ax, ay, az := abs32(n[0]), abs32(n[1]), abs32(n[2])
	switch {
	case ay >= ax && ay >= az:
		return mgl32.Vec2{p[0] / ChunkCells, p[2] / ChunkCells}
	case ax >= az:
		return mgl32.Vec2{p[2] / ChunkCells, p[1] / ChunkCells}
	default:
		return mgl32.Vec2{p[0] / ChunkCells, p[1] / ChunkCells}
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
