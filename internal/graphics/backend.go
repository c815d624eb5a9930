package graphics

import (
	"fmt"

	"lod-terrain/internal/chunk"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// Two crossed unit quads, pos.xyz + normal.xyz, rooted at the origin.
var bladeVertices = []float32{
	-0.5, 0, 0, 0, 0, 1, 0.5, 0, 0, 0, 0, 1, 0.5, 1, 0, 0, 0, 1,
	-0.5, 0, 0, 0, 0, 1, 0.5, 1, 0, 0, 0, 1, -0.5, 1, 0, 0, 0, 1,
	0, 0, -0.5, 1, 0, 0, 0, 0, 0.5, 1, 0, 0, 0, 1, 0.5, 1, 0, 0,
	0, 0, -0.5, 1, 0, 0, 0, 1, 0.5, 1, 0, 0, 0, 1, -0.5, 1, 0, 0,
}

const bladeVertexCount = 12

// Material tints for the terrain shader.
var materialColors = map[string]mgl32.Vec3{
	"":      {0.45, 0.55, 0.35},
	"rock":  {0.5, 0.5, 0.52},
	"sand":  {0.76, 0.7, 0.5},
	"grass": {0.3, 0.6, 0.25},
}

// Backend creates GL-backed chunk sinks and draws them. It must be created
// and used on the goroutine owning the GL context, which is also the chunk
// manager's control goroutine.
type Backend struct {
	terrain  *Shader
	foliage  *Shader
	bladeVBO uint32

	meshes    []*MeshSink
	instances map[*InstanceSink]struct{}
	spare     []*InstanceSink

	LightDir mgl32.Vec3
}

// NewBackend compiles the shaders and uploads shared geometry. gl.Init must
// have been called.
func NewBackend() (*Backend, error) {
	terrain, err := NewShader(terrainVert, terrainFrag)
	if err != nil {
		return nil, fmt.Errorf("terrain shader: %w", err)
	}
	fol, err := NewShader(foliageVert, foliageFrag)
	if err != nil {
		terrain.Delete()
		return nil, fmt.Errorf("foliage shader: %w", err)
	}
	b := &Backend{
		terrain:   terrain,
		foliage:   fol,
		instances: make(map[*InstanceSink]struct{}),
		LightDir:  mgl32.Vec3{-0.4, -1, -0.3}.Normalize(),
	}
	gl.GenBuffers(1, &b.bladeVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.bladeVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(bladeVertices)*4, gl.Ptr(bladeVertices), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)
	return b, nil
}

func (b *Backend) CreateMeshSink(name string) chunk.MeshSink {
	m := newMeshSink(name)
	b.meshes = append(b.meshes, m)
	return m
}

func (b *Backend) CreateInstanceSink() chunk.InstanceSink {
	var s *InstanceSink
	if n := len(b.spare); n > 0 {
		s = b.spare[n-1]
		b.spare = b.spare[:n-1]
	} else {
		s = &InstanceSink{backend: b}
	}
	b.instances[s] = struct{}{}
	return s
}

func (b *Backend) recycle(s *InstanceSink) {
	if _, ok := b.instances[s]; !ok {
		return
	}
	delete(b.instances, s)
	b.spare = append(b.spare, s)
}

// DrawStats counts what the last Draw submitted.
type DrawStats struct {
	Chunks    int
	Culled    int
	Triangles int
	Instances int
}

// Draw renders every non-empty chunk surface and its foliage.
func (b *Backend) Draw(cam *Camera) DrawStats {
	var st DrawStats
	proj := cam.GetProjectionMatrix()
	view := cam.GetViewMatrix()
	f := NewFrustum(proj.Mul4(view))

	gl.ClearColor(0.53, 0.81, 0.92, 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	b.terrain.Use()
	b.terrain.SetMatrix4("proj", &proj[0])
	b.terrain.SetMatrix4("view", &view[0])
	b.terrain.SetVector3("lightDir", b.LightDir)
	for _, m := range b.meshes {
		if m.indexCount == 0 {
			continue
		}
		lo, hi := m.worldBounds()
		if !f.IntersectsAABB(lo, hi) {
			st.Culled++
			continue
		}
		tint, ok := materialColors[m.material]
		if !ok {
			tint = materialColors[""]
		}
		b.terrain.SetMatrix4("model", &m.transform[0])
		b.terrain.SetVector3("tint", tint)
		m.draw()
		st.Chunks++
		st.Triangles += int(m.indexCount / 3)
	}

	b.foliage.Use()
	b.foliage.SetMatrix4("proj", &proj[0])
	b.foliage.SetMatrix4("view", &view[0])
	b.foliage.SetVector3("tint", materialColors["grass"])
	gl.Disable(gl.CULL_FACE)
	for s := range b.instances {
		st.Instances += s.draw(b.foliage, &f, cam.Position)
	}
	gl.Enable(gl.CULL_FACE)
	gl.BindVertexArray(0)
	return st
}

// Delete frees every GL object the backend created.
func (b *Backend) Delete() {
	for _, m := range b.meshes {
		m.delete()
	}
	for s := range b.instances {
		s.delete()
	}
	for _, s := range b.spare {
		s.delete()
	}
	gl.DeleteBuffers(1, &b.bladeVBO)
	b.terrain.Delete()
	b.foliage.Delete()
}
