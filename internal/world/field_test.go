package world

import (
	"errors"
	"sync"
	"testing"

	"lod-terrain/internal/config"
	"lod-terrain/internal/meshing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestFieldTerrainGradient(t *testing.T) {
	f := NewField(config.Default().Density)
	// Far above base height the gradient dominates the [-1,1] noise.
	if v := f.Value(5, 200, 5); v >= 0 {
		t.Fatalf("Value high above surface = %f, want empty", v)
	}
	if v := f.Value(5, -200, 5); v <= 0 {
		t.Fatalf("Value deep below surface = %f, want solid", v)
	}
}

func TestFieldDeterministic(t *testing.T) {
	p := config.Default().Density
	a, b := NewField(p), NewField(p)
	for x := -8; x < 8; x++ {
		if a.Value(x, 3, -x) != b.Value(x, 3, -x) {
			t.Fatalf("fields with equal params differ at x=%d", x)
		}
	}
}

func TestFieldEdits(t *testing.T) {
	f := NewField(config.Default().Density)
	center := mgl32.Vec3{0, 200, 0}
	if err := f.Apply(Edit{Center: center, Radius: 4}); err != nil {
		t.Fatalf("apply add: %v", err)
	}
	if v := f.Value(0, 200, 0); v <= 0 {
		t.Fatalf("center of added sphere = %f, want solid", v)
	}
	if v := f.Value(0, 210, 0); v >= 0 {
		t.Fatalf("outside added sphere = %f, want empty", v)
	}
	if err := f.Apply(Edit{Center: center, Radius: 2, Remove: true}); err != nil {
		t.Fatalf("apply remove: %v", err)
	}
	if v := f.Value(0, 200, 0); v >= 0 {
		t.Fatalf("center of carved sphere = %f, want empty", v)
	}
	if v := f.Value(0, 203, 0); v <= 0 {
		t.Fatalf("shell between spheres = %f, want solid", v)
	}
	if f.Version() != 2 || len(f.Edits()) != 2 {
		t.Fatalf("version=%d edits=%d, want 2/2", f.Version(), len(f.Edits()))
	}
}

func TestFieldRejectsBadEdit(t *testing.T) {
	f := NewField(config.Default().Density)
	if err := f.Apply(Edit{Radius: 0}); !errors.Is(err, ErrBadEdit) {
		t.Fatalf("Apply(radius 0) = %v, want ErrBadEdit", err)
	}
	if f.Version() != 0 {
		t.Fatalf("rejected edit bumped version")
	}
}

func TestEditBounds(t *testing.T) {
	e := Edit{Center: mgl32.Vec3{10, 0, -5.5}, Radius: 2}
	lo, hi := e.Bounds()
	if want := (meshing.Vec3i{X: 7, Y: -3, Z: -9}); lo != want {
		t.Fatalf("lo = %+v, want %+v", lo, want)
	}
	if want := (meshing.Vec3i{X: 13, Y: 3, Z: -2}); hi != want {
		t.Fatalf("hi = %+v, want %+v", hi, want)
	}
}

func TestFieldConcurrentReadsAndEdits(t *testing.T) {
	f := NewField(config.Default().Density)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				f.Value(i, j, -j)
			}
		}(i)
	}
	for i := 0; i < 20; i++ {
		_ = f.Apply(Edit{Center: mgl32.Vec3{float32(i), 0, 0}, Radius: 1})
	}
	wg.Wait()
	if f.Version() != 20 {
		t.Fatalf("version = %d, want 20", f.Version())
	}
}

func TestFlat(t *testing.T) {
	var d meshing.Data = Flat(4.5)
	if d.Value(0, 4, 0) <= 0 || d.Value(0, 5, 0) >= 0 {
		t.Fatalf("Flat(4.5) surface misplaced")
	}
}
