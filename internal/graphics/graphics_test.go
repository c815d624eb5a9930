package graphics

import (
	"testing"

	"lod-terrain/internal/foliage"
	"lod-terrain/internal/meshing"
	"lod-terrain/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

func TestInterleave(t *testing.T) {
	p := &meshing.Polygonizer{Depth: 1, MaxDepth: 1, Data: world.Flat(7.5)}
	s := p.CreateSection()
	got := interleave(s, nil)
	if len(got) != s.NumVertices()*vertexFloats {
		t.Fatalf("len = %d, want %d", len(got), s.NumVertices()*vertexFloats)
	}
	for i := 0; i < s.NumVertices(); i++ {
		v := got[i*vertexFloats : (i+1)*vertexFloats]
		if v[1] != s.Positions[i][1] || v[4] != s.Normals[i][1] || v[7] != s.UVs[i][1] {
			t.Fatalf("vertex %d packed as %v", i, v)
		}
	}
}

func lookingAlongX(eye mgl32.Vec3) *Camera {
	cam := NewCamera(800, 600)
	cam.Position = eye
	cam.FarPlane = 100
	return cam
}

func TestFrustum(t *testing.T) {
	cam := lookingAlongX(mgl32.Vec3{})
	f := NewFrustum(cam.GetProjectionMatrix().Mul4(cam.GetViewMatrix()))
	cases := []struct {
		name    string
		lo, hi  mgl32.Vec3
		visible bool
	}{
		{"ahead", mgl32.Vec3{9, -1, -1}, mgl32.Vec3{11, 1, 1}, true},
		{"behind", mgl32.Vec3{-11, -1, -1}, mgl32.Vec3{-9, 1, 1}, false},
		{"beyond far plane", mgl32.Vec3{150, -1, -1}, mgl32.Vec3{160, 1, 1}, false},
		{"far to the side", mgl32.Vec3{5, -1, 50}, mgl32.Vec3{6, 1, 51}, false},
		{"enclosing the eye", mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}, true},
	}
	for _, tc := range cases {
		if got := f.IntersectsAABB(tc.lo, tc.hi); got != tc.visible {
			t.Fatalf("%s: visible = %v, want %v", tc.name, got, tc.visible)
		}
	}
}

func TestCameraMoveAndLook(t *testing.T) {
	cam := NewCamera(800, 600)
	cam.Look(90, 0)
	cam.Move(2, 0, 1)
	want := mgl32.Vec3{0, 1, 2}
	if !cam.Position.ApproxEqualThreshold(want, 1e-5) {
		t.Fatalf("position = %v, want %v", cam.Position, want)
	}
	cam.Move(0, 1, 0)
	if !cam.Position.ApproxEqualThreshold(mgl32.Vec3{-1, 1, 2}, 1e-5) {
		t.Fatalf("strafe moved to %v", cam.Position)
	}
	cam.Look(0, 200)
	if cam.Pitch != 89 {
		t.Fatalf("pitch = %v, want clamp at 89", cam.Pitch)
	}
}

func TestVisibleRanges(t *testing.T) {
	tree := &foliage.ClusterTree{Nodes: []foliage.ClusterNode{
		{Bounds: meshing.AABB{Max: mgl32.Vec3{10, 1, 1}}, FirstInstance: 0, LastInstance: 7, FirstChild: 1, LastChild: 2},
		{Bounds: meshing.AABB{Max: mgl32.Vec3{1, 1, 1}}, FirstInstance: 0, LastInstance: 3, FirstChild: -1, LastChild: -1},
		{Bounds: meshing.AABB{Min: mgl32.Vec3{9, 0, 0}, Max: mgl32.Vec3{10, 1, 1}}, FirstInstance: 4, LastInstance: 7, FirstChild: -1, LastChild: -1},
	}}
	eye := mgl32.Vec3{-5, 0.5, 0.5}
	cam := lookingAlongX(eye)
	f := NewFrustum(cam.GetProjectionMatrix().Mul4(cam.GetViewMatrix()))

	if got := visibleRanges(tree, 8, mgl32.Vec3{}, &f, eye, 0, 0); len(got) != 1 || got[0] != [2]int{0, 8} {
		t.Fatalf("all visible: ranges = %v", got)
	}
	if got := visibleRanges(tree, 8, mgl32.Vec3{}, &f, eye, 0, 7); len(got) != 1 || got[0] != [2]int{0, 4} {
		t.Fatalf("cull distance 7: ranges = %v", got)
	}
	if got := visibleRanges(tree, 8, mgl32.Vec3{0, 0, 500}, &f, eye, 0, 0); len(got) != 0 {
		t.Fatalf("offset out of view: ranges = %v", got)
	}
	// Leaf 1 sits halfway between start and end and keeps half its instances.
	if got := visibleRanges(tree, 8, mgl32.Vec3{}, &f, eye, 1, 9); len(got) != 1 || got[0] != [2]int{0, 2} {
		t.Fatalf("thinned between 1 and 9: ranges = %v", got)
	}
	if got := visibleRanges(nil, 5, mgl32.Vec3{}, &f, eye, 0, 0); len(got) != 1 || got[0] != [2]int{0, 5} {
		t.Fatalf("no tree: ranges = %v", got)
	}
}
