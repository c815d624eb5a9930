package octree

import (
	"lod-terrain/internal/chunk"
	"lod-terrain/internal/config"
	"lod-terrain/internal/meshing"

	"github.com/go-gl/mathgl/mgl32"
)

// Binder attaches chunks to new leaves and releases them from old ones.
type Binder interface {
	Bind(n chunk.BindableNode)
	Unbind(n chunk.BindableNode)
}

// Tree is a distance-driven LOD octree centered on the world origin. Depth 0
// is the root; leaves at MaxDepth sample every voxel.
type Tree struct {
	root      *Node
	maxDepth  int
	origin    mgl32.Vec3
	voxelSize float32
	factor    float32
	binder    Binder
}

// New creates a tree with an unbound root. Call Update to bind chunks.
func New(cfg *config.World, binder Binder) *Tree {
	t := &Tree{
		maxDepth:  cfg.OctreeDepth,
		origin:    mgl32.Vec3{cfg.Origin[0], cfg.Origin[1], cfg.Origin[2]},
		voxelSize: cfg.VoxelSize,
		factor:    cfg.LODDistanceFactor,
		binder:    binder,
	}
	size := meshing.ChunkCells << t.maxDepth
	half := -size / 2
	t.root = &Node{tree: t, corner: meshing.Vec3i{X: half, Y: half, Z: half}, size: size}
	return t
}

// Root returns the root node.
func (t *Tree) Root() *Node { return t.root }

// MaxDepth returns the depth of the finest leaves.
func (t *Tree) MaxDepth() int { return t.maxDepth }

// SetDistanceFactor changes how eagerly nodes subdivide near the viewer.
func (t *Tree) SetDistanceFactor(f float32) { t.factor = f }

// LeafAt returns the leaf containing voxel p, or nil outside the tree.
func (t *Tree) LeafAt(p meshing.Vec3i) *Node {
	n := t.root
	if !n.Contains(p) {
		return nil
	}
	for !n.IsLeaf() {
		half := n.size / 2
		i := 0
		if p.X >= n.corner.X+half {
			i |= 1
		}
		if p.Y >= n.corner.Y+half {
			i |= 2
		}
		if p.Z >= n.corner.Z+half {
			i |= 4
		}
		n = n.children[i]
	}
	return n
}

// Leaves returns every leaf in depth-first order.
func (t *Tree) Leaves() []*Node {
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.IsLeaf() {
			out = append(out, n)
			return
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(t.root)
	return out
}

// Update reshapes the tree around a world-space viewer position. New leaves
// are bound before the leaves they replace are unbound.
func (t *Tree) Update(viewer mgl32.Vec3) {
	v := viewer.Sub(t.origin).Mul(1 / t.voxelSize)
	t.update(t.root, v)
}

func (t *Tree) wantsSplit(n *Node, v mgl32.Vec3) bool {
	return n.depth < t.maxDepth && n.distance(v) < float32(n.size)*t.factor
}

func (t *Tree) update(n *Node, v mgl32.Vec3) {
	split := t.wantsSplit(n, v)
	switch {
	case n.IsLeaf() && split:
		t.split(n)
		for _, c := range n.children {
			t.update(c, v)
		}
		if n.chunk != nil {
			t.binder.Unbind(n)
		}
	case n.IsLeaf():
		if n.chunk == nil {
			t.binder.Bind(n)
		}
	case !split:
		t.merge(n)
	default:
		for _, c := range n.children {
			t.update(c, v)
		}
	}
}

func (t *Tree) split(n *Node) {
	half := n.size / 2
	n.children = make([]*Node, 8)
	for i := range n.children {
		c := n.corner
		if i&1 != 0 {
			c.X += half
		}
		if i&2 != 0 {
			c.Y += half
		}
		if i&4 != 0 {
			c.Z += half
		}
		n.children[i] = &Node{tree: t, parent: n, depth: n.depth + 1, corner: c, size: half}
	}
}

func (t *Tree) merge(n *Node) {
	var old []*Node
	var collect func(m *Node)
	collect = func(m *Node) {
		for _, c := range m.children {
			if c.IsLeaf() {
				old = append(old, c)
			} else {
				collect(c)
			}
		}
	}
	collect(n)
	n.children = nil
	t.binder.Bind(n)
	for _, c := range old {
		if c.chunk != nil {
			t.binder.Unbind(c)
		}
	}
}
