package graphics

import (
	"lod-terrain/internal/meshing"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// floats per vertex: pos.xyz, normal.xyz, uv.xy
const vertexFloats = 8

// MeshSink holds one chunk's surface in GL buffers. Like every GL object it
// must only be used on the goroutine owning the context.
type MeshSink struct {
	name       string
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32

	transform mgl32.Mat4
	material  string
	bounds    meshing.AABB

	scratch []float32
}

func newMeshSink(name string) *MeshSink {
	m := &MeshSink{name: name, transform: mgl32.Ident4()}
	gl.GenVertexArrays(1, &m.vao)
	gl.GenBuffers(1, &m.vbo)
	gl.GenBuffers(1, &m.ebo)

	gl.BindVertexArray(m.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	stride := int32(vertexFloats * 4)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, stride, 6*4)
	gl.BindVertexArray(0)
	return m
}

func (m *MeshSink) SetTransform(t mgl32.Mat4) { m.transform = t }
func (m *MeshSink) SetMaterial(name string) { m.material = name }

// ApplySection replaces the uploaded surface. An empty section leaves the
// buffers allocated but draws nothing.
func (m *MeshSink) ApplySection(s *meshing.Section) {
	m.bounds = s.Bounds
	m.indexCount = int32(s.NumTriangles() * 3)

	gl.BindVertexArray(m.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	if m.indexCount == 0 {
		gl.BufferData(gl.ARRAY_BUFFER, 0, nil, gl.DYNAMIC_DRAW)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, 0, nil, gl.DYNAMIC_DRAW)
		gl.BindVertexArray(0)
		return
	}
	m.scratch = interleave(s, m.scratch[:0])
	gl.BufferData(gl.ARRAY_BUFFER, len(m.scratch)*4, gl.Ptr(m.scratch), gl.DYNAMIC_DRAW)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(s.Indices)*4, gl.Ptr(s.Indices), gl.DYNAMIC_DRAW)
	gl.BindVertexArray(0)
}

// interleave packs a section into the vertex layout the terrain shader reads.
func interleave(s *meshing.Section, dst []float32) []float32 {
	for i, p := range s.Positions {
		n := s.Normals[i]
		uv := s.UVs[i]
		dst = append(dst, p[0], p[1], p[2], n[0], n[1], n[2], uv[0], uv[1])
	}
	return dst
}

// worldBounds returns the surface box in world space. Chunk transforms only
// translate and scale uniformly, so the corners map directly.
func (m *MeshSink) worldBounds() (mgl32.Vec3, mgl32.Vec3) {
	lo := m.transform.Mul4x1(m.bounds.Min.Vec4(1)).Vec3()
	hi := m.transform.Mul4x1(m.bounds.Max.Vec4(1)).Vec3()
	return lo, hi
}

func (m *MeshSink) draw() {
	gl.BindVertexArray(m.vao)
	gl.DrawElementsWithOffset(gl.TRIANGLES, m.indexCount, gl.UNSIGNED_INT, 0)
}

func (m *MeshSink) delete() {
	gl.DeleteBuffers(1, &m.ebo)
	gl.DeleteBuffers(1, &m.vbo)
	gl.DeleteVertexArrays(1, &m.vao)
}
