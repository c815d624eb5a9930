package meshing

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

type dataFunc func(x, y, z int) float32

func (f dataFunc) Value(x, y, z int) float32 { return f(x, y, z) }

func flat(height float32) Data {
	return dataFunc(func(_, y, _ int) float32 { return height - float32(y) })
}

func surfaceArea(s *Section) (area float32, up int) {
	for i := 0; i < s.NumTriangles(); i++ {
		p, _ := s.Triangle(i)
		n := p[1].Sub(p[0]).Cross(p[2].Sub(p[0]))
		area += n.Len() / 2
		if n[1] > 0 {
			up++
		}
	}
	return area, up
}

func TestCreateSectionFlatSurface(t *testing.T) {
	p := &Polygonizer{Depth: 3, MaxDepth: 3, Data: flat(7.5)}
	s := p.CreateSection()
	if s.IsEmpty() {
		t.Fatalf("flat surface produced no triangles")
	}
	area, up := surfaceArea(s)
	if abs32(area-ChunkCells*ChunkCells) > 0.01 {
		t.Fatalf("surface area = %f, want %d", area, ChunkCells*ChunkCells)
	}
	if up != s.NumTriangles() {
		t.Fatalf("%d of %d triangles face up", up, s.NumTriangles())
	}
	for i, pos := range s.Positions {
		if abs32(pos[1]-7.5) > 1e-4 {
			t.Fatalf("vertex %d at y=%f, want 7.5", i, pos[1])
		}
		if n := s.Normals[i]; n.Sub(mgl32.Vec3{0, 1, 0}).Len() > 1e-4 {
			t.Fatalf("vertex %d normal = %v, want +Y", i, n)
		}
	}
	if s.Bounds.Min[1] != s.Bounds.Max[1] {
		t.Fatalf("bounds not flat: %+v", s.Bounds)
	}
	if len(s.UVs) != s.NumVertices() || len(s.Normals) != s.NumVertices() {
		t.Fatalf("attribute lengths differ: pos=%d n=%d uv=%d", s.NumVertices(), len(s.Normals), len(s.UVs))
	}
}

func TestCreateSectionRespectsStepAndCorner(t *testing.T) {
	// Depth 1 of 3 samples every 4 voxels; the corner shifts the field.
	p := &Polygonizer{Depth: 1, MaxDepth: 3, Data: flat(30), Corner: Vec3i{X: 64, Y: 0, Z: -64}}
	if p.Step() != 4 || p.Size() != 64 {
		t.Fatalf("Step/Size = %d/%d, want 4/64", p.Step(), p.Size())
	}
	s := p.CreateSection()
	area, _ := surfaceArea(s)
	if want := float32(64 * 64); abs32(area-want) > 0.1 {
		t.Fatalf("surface area = %f, want %f", area, want)
	}
	if abs32(s.Bounds.Max[0]-64) > 1e-4 || abs32(s.Bounds.Min[0]) > 1e-4 {
		t.Fatalf("bounds x = [%f, %f], want [0, 64]", s.Bounds.Min[0], s.Bounds.Max[0])
	}
}

func TestCreateSectionUniformFields(t *testing.T) {
	tests := []struct {
		name  string
		value float32
	}{
		{"empty", -1},
		{"solid", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Polygonizer{Depth: 2, MaxDepth: 2, Data: dataFunc(func(int, int, int) float32 { return tt.value })}
			if s := p.CreateSection(); !s.IsEmpty() {
				t.Fatalf("uniform field produced %d triangles", s.NumTriangles())
			}
		})
	}
}

func TestCreateSectionClosedSurface(t *testing.T) {
	// A sphere fully inside the chunk yields a closed mesh facing outward.
	center := mgl32.Vec3{8, 8, 8}
	sphere := dataFunc(func(x, y, z int) float32 {
		return 5.3 - mgl32.Vec3{float32(x), float32(y), float32(z)}.Sub(center).Len()
	})
	s := (&Polygonizer{Depth: 0, MaxDepth: 0, Data: sphere}).CreateSection()
	if s.IsEmpty() {
		t.Fatalf("sphere produced no triangles")
	}
	for i := 0; i < s.NumTriangles(); i++ {
		p, _ := s.Triangle(i)
		n := p[1].Sub(p[0]).Cross(p[2].Sub(p[0]))
		mid := p[0].Add(p[1]).Add(p[2]).Mul(1.0 / 3)
		if n.Dot(mid.Sub(center)) <= 0 {
			t.Fatalf("triangle %d faces inward", i)
		}
	}
}

func TestTransitionSkirts(t *testing.T) {
	base := Polygonizer{Depth: 2, MaxDepth: 3, Data: flat(7.5)}
	plain := base.CreateSection()

	withFlags := base
	withFlags.HigherRes[XMax] = true
	ignored := withFlags.CreateSection()
	if ignored.NumTriangles() != plain.NumTriangles() {
		t.Fatalf("flags without transitions changed the mesh: %d vs %d", ignored.NumTriangles(), plain.NumTriangles())
	}

	withFlags.ComputeTransitions = true
	stitched := withFlags.CreateSection()
	if stitched.NumTriangles() <= plain.NumTriangles() {
		t.Fatalf("transitions added no skirt triangles")
	}
	size := float32(withFlags.Size())
	step := float32(withFlags.Step())
	for i := plain.NumVertices(); i < stitched.NumVertices(); i++ {
		p := stitched.Positions[i]
		if abs32(p[0]-size) > 1e-4 {
			t.Fatalf("skirt vertex %d off the +X face: %v", i, p)
		}
		if p[1] < 7.5-step-1e-4 || p[1] > 7.5+1e-4 {
			t.Fatalf("skirt vertex %d outside skirt depth: %v", i, p)
		}
	}
}

func TestDirections(t *testing.T) {
	for _, d := range Directions {
		if d.Opposite().Opposite() != d || d.Opposite() == d {
			t.Fatalf("%v: bad opposite %v", d, d.Opposite())
		}
		if d.Normal().Add(d.Opposite().Normal()).Len() != 0 {
			t.Fatalf("%v: normals of opposite faces do not cancel", d)
		}
		if d.Normal()[d.Axis()] == 0 {
			t.Fatalf("%v: normal not on its axis", d)
		}
	}
	if XMax.String() != "+X" || Direction(9).String() != "invalid" {
		t.Fatalf("unexpected names %q %q", XMax, Direction(9))
	}
}

func TestSectionNilSafe(t *testing.T) {
	var s *Section
	if s.NumVertices() != 0 || s.NumTriangles() != 0 || !s.IsEmpty() {
		t.Fatalf("nil section should be empty")
	}
	if !EmptySection().IsEmpty() {
		t.Fatalf("EmptySection() not empty")
	}
}
