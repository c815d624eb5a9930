package chunk

import (
	"time"

	"lod-terrain/internal/foliage"
	"lod-terrain/internal/meshing"
	"lod-terrain/internal/task"

	"github.com/go-gl/mathgl/mgl32"
)

// Node is the chunk's view of a spatial tree node. The chunk only observes
// the node while bound and never extends its lifetime.
type Node interface {
	Depth() int
	Corner() meshing.Vec3i
	// Adjacent returns the node across face d, or nil when there is none.
	Adjacent(d meshing.Direction) Node
	// VoxelChunk returns the chunk bound to the node, if any.
	VoxelChunk() *Chunk
}

// BindableNode is a node the scheduler can attach a chunk to.
type BindableNode interface {
	Node
	SetVoxelChunk(c *Chunk)
}

// Timer is a pending delayed action.
type Timer interface {
	// Stop prevents the action from running. It reports whether the call
	// stopped it.
	Stop() bool
}

// Scheduler batches control-thread work across chunks and owns the worker
// pools. Request methods may be called from worker goroutines.
type Scheduler interface {
	RegisterDeferredTransitionCheck(c *Chunk)
	RequestRemesh(n Node, async bool)
	RequestApplyMesh(c *Chunk)
	RequestFoliageUpdate(c *Chunk)
	RequestApplyFoliage(c *Chunk)
	ScheduleDeletion(c *Chunk, delay time.Duration) Timer
	ReturnToPool(c *Chunk)

	MeshPool() *task.Pool
	FoliagePool() *task.Pool
}

// MeshSink receives the chunk's applied surface.
type MeshSink interface {
	SetTransform(m mgl32.Mat4)
	ApplySection(s *meshing.Section)
	SetMaterial(name string)
}

// NavigationUpdater is implemented by mesh sinks that also feed a navigation
// system. It is called after every applied section.
type NavigationUpdater interface {
	UpdateNavigation(bounds meshing.AABB, transform mgl32.Mat4)
}

// InstanceParams configures one instanced foliage object.
type InstanceParams struct {
	Mesh              string
	MinLOD            int
	ReceivesDecals    bool
	Collision         bool
	Navigation        bool
	StaticShadow      bool
	StartCullDistance float32
	EndCullDistance   float32
	LightingChannels  uint8
	Seed              int32
	Transform         mgl32.Mat4
}

// InstanceSink renders one variety's instances for one chunk.
type InstanceSink interface {
	Configure(p InstanceParams)
	// HasRenderData reports whether instance storage is already allocated,
	// in which case UpdateRenderData is used instead of InitRenderData.
	HasRenderData() bool
	InitRenderData(buf *foliage.InstanceBuffer)
	UpdateRenderData(buf *foliage.InstanceBuffer)
	AcceptClusterTree(tree *foliage.ClusterTree, occlusionLayers int)
	Destroy()
}

// InstanceSinkFactory creates instance sinks.
type InstanceSinkFactory interface {
	CreateInstanceSink() InstanceSink
}
