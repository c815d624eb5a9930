package octree

import (
	"math"

	"lod-terrain/internal/chunk"
	"lod-terrain/internal/meshing"

	"github.com/go-gl/mathgl/mgl32"
)

// Node is a cubic region of the tree. Leaves carry a chunk.
type Node struct {
	tree     *Tree
	parent   *Node
	children []*Node

	depth  int
	corner meshing.Vec3i
	size   int

	chunk *chunk.Chunk
}

func (n *Node) Depth() int { return n.depth }
func (n *Node) Corner() meshing.Vec3i { return n.corner }
func (n *Node) Size() int { return n.size }
func (n *Node) Parent() *Node { return n.parent }
func (n *Node) Children() []*Node { return n.children }
func (n *Node) IsLeaf() bool { return len(n.children) == 0 }
func (n *Node) VoxelChunk() *chunk.Chunk { return n.chunk }

// SetVoxelChunk attaches c to the node; nil detaches.
func (n *Node) SetVoxelChunk(c *chunk.Chunk) {
	n.chunk = c
}

// Contains reports whether voxel p lies inside the node.
func (n *Node) Contains(p meshing.Vec3i) bool {
	return p.X >= n.corner.X && p.X < n.corner.X+n.size &&
		p.Y >= n.corner.Y && p.Y < n.corner.Y+n.size &&
		p.Z >= n.corner.Z && p.Z < n.corner.Z+n.size
}

// Adjacent returns the leaf just across face d, measured at the face center.
// It returns nil outside the tree and when that leaf encloses n, which
// happens for nodes no longer in the tree.
func (n *Node) Adjacent(d meshing.Direction) chunk.Node {
	half := n.size / 2
	probe := [3]int{n.corner.X + half, n.corner.Y + half, n.corner.Z + half}
	axis := d.Axis()
	if d.Positive() {
		probe[axis] = n.corner.Component(axis) + n.size
	} else {
		probe[axis] = n.corner.Component(axis) - 1
	}
	leaf := n.tree.LeafAt(meshing.Vec3i{X: probe[0], Y: probe[1], Z: probe[2]})
	if leaf == nil || leaf.Contains(n.corner) {
		return nil
	}
	return leaf
}

// distance returns the distance from voxel point p to the node's box.
func (n *Node) distance(p mgl32.Vec3) float32 {
	var sq float32
	for axis := 0; axis < 3; axis++ {
		lo := float32(n.corner.Component(axis))
		hi := lo + float32(n.size)
		var d float32
		switch {
		case p[axis] < lo:
			d = lo - p[axis]
		case p[axis] > hi:
			d = p[axis] - hi
		}
		sq += d * d
	}
	return float32(math.Sqrt(float64(sq)))
}
