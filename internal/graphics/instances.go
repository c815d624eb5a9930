package graphics

import (
	"lod-terrain/internal/chunk"
	"lod-terrain/internal/foliage"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

const mat4Bytes = 16 * 4

// InstanceSink draws one foliage variety of one chunk with instancing.
// Destroyed sinks go back to the backend with their buffers and are reused.
type InstanceSink struct {
	backend *Backend

	vao      uint32
	vbo      uint32
	capacity int
	count    int

	params chunk.InstanceParams
	tree   *foliage.ClusterTree
	layers int
}

func (s *InstanceSink) Configure(p chunk.InstanceParams) { s.params = p }
func (s *InstanceSink) HasRenderData() bool { return s.vbo != 0 }

func (s *InstanceSink) InitRenderData(buf *foliage.InstanceBuffer) {
	gl.GenVertexArrays(1, &s.vao)
	gl.GenBuffers(1, &s.vbo)

	gl.BindVertexArray(s.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.backend.bladeVBO)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 6*4, 0)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, 6*4, 3*4)

	gl.BindBuffer(gl.ARRAY_BUFFER, s.vbo)
	s.bindInstanceAttribs(0)
	gl.BindVertexArray(0)

	s.UpdateRenderData(buf)
}

// bindInstanceAttribs points the four matrix columns at instance first.
// Expects the VAO and the instance buffer bound.
func (s *InstanceSink) bindInstanceAttribs(first int) {
	base := uintptr(first * mat4Bytes)
	for col := uint32(0); col < 4; col++ {
		gl.EnableVertexAttribArray(3 + col)
		gl.VertexAttribPointerWithOffset(3+col, 4, gl.FLOAT, false, mat4Bytes, base+uintptr(col*16))
		gl.VertexAttribDivisor(3+col, 1)
	}
}

func (s *InstanceSink) UpdateRenderData(buf *foliage.InstanceBuffer) {
	s.count = buf.Len()
	if s.count == 0 {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, s.vbo)
	size := s.count * mat4Bytes
	if s.count > s.capacity {
		gl.BufferData(gl.ARRAY_BUFFER, size, gl.Ptr(&buf.Transforms[0][0]), gl.DYNAMIC_DRAW)
		s.capacity = s.count
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, size, gl.Ptr(&buf.Transforms[0][0]))
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (s *InstanceSink) AcceptClusterTree(tree *foliage.ClusterTree, occlusionLayers int) {
	s.tree = tree
	s.layers = occlusionLayers
}

func (s *InstanceSink) Destroy() {
	s.count = 0
	s.tree = nil
	s.layers = 0
	s.params = chunk.InstanceParams{}
	s.backend.recycle(s)
}

func (s *InstanceSink) draw(sh *Shader, f *Frustum, eye mgl32.Vec3) int {
	if s.count == 0 {
		return 0
	}
	origin := s.params.Transform.Col(3).Vec3()
	ranges := visibleRanges(s.tree, s.count, origin, f, eye, s.params.StartCullDistance, s.params.EndCullDistance)
	if len(ranges) == 0 {
		return 0
	}
	sh.SetMatrix4("model", &s.params.Transform[0])
	gl.BindVertexArray(s.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.vbo)
	drawn := 0
	for _, r := range ranges {
		s.bindInstanceAttribs(r[0])
		gl.DrawArraysInstanced(gl.TRIANGLES, 0, bladeVertexCount, int32(r[1]))
		drawn += r[1]
	}
	return drawn
}

func (s *InstanceSink) delete() {
	if s.vbo != 0 {
		gl.DeleteBuffers(1, &s.vbo)
		gl.DeleteVertexArrays(1, &s.vao)
	}
}

// visibleRanges walks the cluster tree and returns [first, count] runs of
// instances whose clusters are inside the frustum and closer than endCull.
// Leaves between startCull and endCull are thinned linearly down to nothing.
// Without a tree every instance is one run.
func visibleRanges(tree *foliage.ClusterTree, count int, origin mgl32.Vec3, f *Frustum, eye mgl32.Vec3, startCull, endCull float32) [][2]int {
	if tree == nil || len(tree.Nodes) == 0 {
		return [][2]int{{0, count}}
	}
	var out [][2]int
	var visit func(i int)
	visit = func(i int) {
		n := &tree.Nodes[i]
		lo, hi := n.Bounds.Min.Add(origin), n.Bounds.Max.Add(origin)
		if !f.IntersectsAABB(lo, hi) {
			return
		}
		dist := boxDistance(eye, lo, hi)
		if endCull > 0 && dist > endCull {
			return
		}
		if !n.IsLeaf() {
			for c := n.FirstChild; c <= n.LastChild; c++ {
				visit(c)
			}
			return
		}
		first, num := n.FirstInstance, n.LastInstance-n.FirstInstance+1
		if startCull > 0 && endCull > startCull && dist > startCull {
			num = int(float32(num)*(endCull-dist)/(endCull-startCull) + 0.5)
			if num == 0 {
				return
			}
		}
		if k := len(out) - 1; k >= 0 && out[k][0]+out[k][1] == first {
			out[k][1] += num
			return
		}
		out = append(out, [2]int{first, num})
	}
	visit(0)
	return out
}

func boxDistance(p, lo, hi mgl32.Vec3) float32 {
	var d mgl32.Vec3
	for i := 0; i < 3; i++ {
		switch {
		case p[i] < lo[i]:
			d[i] = lo[i] - p[i]
		case p[i] > hi[i]:
			d[i] = p[i] - hi[i]
		}
	}
	return d.Len()
}
