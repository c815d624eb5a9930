package render

import (
	"lod-terrain/internal/chunk"
	"lod-terrain/internal/foliage"
	"lod-terrain/internal/meshing"

	"github.com/go-gl/mathgl/mgl32"
)

// MemMeshSink keeps the last applied surface in memory.
type MemMeshSink struct {
	Name      string
	Transform mgl32.Mat4
	Section   *meshing.Section
	Material  string
	Applies   int
}

func (s *MemMeshSink) SetTransform(m mgl32.Mat4) { s.Transform = m }
func (s *MemMeshSink) SetMaterial(name string) { s.Material = name }

func (s *MemMeshSink) ApplySection(sec *meshing.Section) {
	s.Section = sec
	s.Applies++
}

// MemInstanceSink keeps one variety's instances in memory.
type MemInstanceSink struct {
	Params    chunk.InstanceParams
	Buffer    *foliage.InstanceBuffer
	Tree      *foliage.ClusterTree
	Layers    int
	Destroyed bool

	initialized bool
}

func (s *MemInstanceSink) Configure(p chunk.InstanceParams) { s.Params = p }
func (s *MemInstanceSink) HasRenderData() bool { return s.initialized }

func (s *MemInstanceSink) InitRenderData(buf *foliage.InstanceBuffer) {
	s.Buffer = buf
	s.initialized = true
}

func (s *MemInstanceSink) UpdateRenderData(buf *foliage.InstanceBuffer) {
	s.Buffer = buf
}

func (s *MemInstanceSink) AcceptClusterTree(tree *foliage.ClusterTree, occlusionLayers int) {
	s.Tree = tree
	s.Layers = occlusionLayers
}

func (s *MemInstanceSink) Destroy() {
	s.Destroyed = true
	s.Buffer = nil
	s.Tree = nil
}

// MemSinks creates in-memory sinks for headless runs. Destroyed instance sinks
// are handed out again, keeping their render data allocated.
type MemSinks struct {
	Meshes    []*MemMeshSink
	instances []*MemInstanceSink
	spare     []*MemInstanceSink
}

func (f *MemSinks) CreateMeshSink(name string) chunk.MeshSink {
	s := &MemMeshSink{Name: name}
	f.Meshes = append(f.Meshes, s)
	return s
}

func (f *MemSinks) CreateInstanceSink() chunk.InstanceSink {
	f.collect()
	if n := len(f.spare); n > 0 {
		s := f.spare[n-1]
		f.spare = f.spare[:n-1]
		s.Destroyed = false
		f.instances = append(f.instances, s)
		return s
	}
	s := &MemInstanceSink{}
	f.instances = append(f.instances, s)
	return s
}

// collect moves destroyed sinks to the spare list.
func (f *MemSinks) collect() {
	live := f.instances[:0]
	for _, s := range f.instances {
		if s.Destroyed {
			f.spare = append(f.spare, s)
		} else {
			live = append(live, s)
		}
	}
	f.instances = live
}

// LiveInstances returns the instance sinks not yet destroyed.
func (f *MemSinks) LiveInstances() []*MemInstanceSink {
	f.collect()
	return f.instances
}

// Totals sums triangles over every mesh sink and instances over every live
// instance sink.
func (f *MemSinks) Totals() (triangles, instances int) {
	for _, m := range f.Meshes {
		triangles += m.Section.NumTriangles()
	}
	for _, s := range f.LiveInstances() {
		if s.Buffer != nil {
			instances += s.Buffer.Len()
		}
	}
	return triangles, instances
}
