package foliage

import (
	"cmp"
	"slices"

	"lod-terrain/internal/meshing"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	maxInstancesPerLeaf = 16
	maxOcclusionNodes   = 16
)

// ClusterNode covers instances [FirstInstance, LastInstance] and, for inner
// nodes, child nodes [FirstChild, LastChild]. Leaves have FirstChild == -1.
type ClusterNode struct {
	Bounds        meshing.AABB
	FirstInstance int
	LastInstance  int
	FirstChild    int
	LastChild     int
}

// IsLeaf reports whether the node has no children.
func (n *ClusterNode) IsLeaf() bool {
	return n.FirstChild < 0
}

// ClusterTree is a binary bounding volume hierarchy over instances, stored
// level by level with the root at index 0. SortedInstances maps a position in
// the leaf-ordered buffer to the instance's generation index.
type ClusterTree struct {
	Nodes           []ClusterNode
	SortedInstances []int
}

type span struct{ lo, hi int }

// buildClusterTree splits at the median of the longest axis until leaves hold
// at most maxInstancesPerLeaf instances. It returns the tree and the number of
// leading levels small enough for occlusion queries.
func buildClusterTree(positions []mgl32.Vec3) (ClusterTree, int) {
	order := make([]int, len(positions))
	for i := range order {
		order[i] = i
	}
	var nodes []ClusterNode
	layers := 0
	countLayers := true

	level := []span{{0, len(order)}}
	for len(level) > 0 {
		if countLayers && len(level) <= maxOcclusionNodes {
			layers++
		} else {
			countLayers = false
		}
		nextStart := len(nodes) + len(level)
		var next []span
		for _, s := range level {
			node := ClusterNode{
				Bounds:        boundsOf(positions, order[s.lo:s.hi]),
				FirstInstance: s.lo,
				LastInstance:  s.hi - 1,
				FirstChild:    -1,
				LastChild:     -1,
			}
			if s.hi-s.lo > maxInstancesPerLeaf {
				axis := longestAxis(node.Bounds)
				part := order[s.lo:s.hi]
				slices.SortFunc(part, func(a, b int) int {
					if c := cmp.Compare(positions[a][axis], positions[b][axis]); c != 0 {
						return c
					}
					return cmp.Compare(a, b)
				})
				mid := s.lo + (s.hi-s.lo)/2
				node.FirstChild = nextStart + len(next)
				node.LastChild = node.FirstChild + 1
				next = append(next, span{s.lo, mid}, span{mid, s.hi})
			}
			nodes = append(nodes, node)
		}
		level = next
	}
	return ClusterTree{Nodes: nodes, SortedInstances: order}, layers
}

func boundsOf(positions []mgl32.Vec3, idx []int) meshing.AABB {
	b := meshing.AABB{Min: positions[idx[0]], Max: positions[idx[0]]}
	for _, i := range idx[1:] {
		b.Extend(positions[i])
	}
	return b
}

func longestAxis(b meshing.AABB) int {
	ext := b.Max.Sub(b.Min)
	axis := 0
	if ext[1] > ext[axis] {
		axis = 1
	}
	if ext[2] > ext[axis] {
		axis = 2
	}
	return axis
}
