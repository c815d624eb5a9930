package chunk

import (
	"fmt"

	"lod-terrain/internal/config"
	"lod-terrain/internal/meshing"
	"lod-terrain/internal/profiling"
	"lod-terrain/internal/task"

	"github.com/go-gl/mathgl/mgl32"
)

// State is the chunk's lifecycle phase.
type State int

const (
	Unbound State = iota
	Active
	Unloading
)

func (s State) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case Active:
		return "active"
	case Unloading:
		return "unloading"
	}
	return "unknown"
}

// InactiveLabel is the label of a chunk that is not bound to a node.
const InactiveLabel = "InactiveChunk"

// Env is shared by every chunk of one world.
type Env struct {
	Config    *config.World
	Data      meshing.Data
	Scheduler Scheduler
	Instances InstanceSinkFactory
}

// Chunk renders the voxel surface of one tree node and its foliage.
//
// All methods must be called from the control goroutine. Background work
// only ever reaches the chunk through Scheduler requests, and results are
// staged in task handles until the matching Apply method consumes them.
type Chunk struct {
	name string
	env  *Env
	mesh MeshSink

	state  State
	label  string
	node   Node
	depth  int
	corner meshing.Vec3i

	neighborHigherRes [meshing.NumDirections]bool

	meshTask  *task.Handle[*meshing.Section]
	section   *meshing.Section
	foliage   *foliageBatch
	instances []InstanceSink

	pendingDeletion Timer
}

// New returns an unbound chunk.
func New(name string, env *Env, mesh MeshSink) *Chunk {
	return &Chunk{name: name, env: env, mesh: mesh, label: InactiveLabel}
}

func (c *Chunk) Name() string { return c.name }
func (c *Chunk) Label() string { return c.label }
func (c *Chunk) State() State { return c.state }
func (c *Chunk) Node() Node { return c.node }
func (c *Chunk) Depth() int { return c.depth }
func (c *Chunk) Corner() meshing.Vec3i { return c.corner }
func (c *Chunk) Mesh() MeshSink { return c.mesh }
func (c *Chunk) String() string { return c.name + " (" + c.label + ")" }

// Section returns the applied surface, nil before the first apply.
func (c *Chunk) Section() *meshing.Section { return c.section }

// Instances returns the applied foliage sinks.
func (c *Chunk) Instances() []InstanceSink { return c.instances }

// MeshPending reports whether a mesh build is outstanding or awaiting apply.
func (c *Chunk) MeshPending() bool { return c.meshTask != nil }

// FoliagePending reports whether a foliage batch is outstanding or awaiting
// apply.
func (c *Chunk) FoliagePending() bool { return c.foliage != nil }

// Size returns the chunk edge length in voxels.
func (c *Chunk) Size() int {
	return c.polygonizer().Size()
}

// WorldTransform maps chunk-local voxel positions to world space.
func (c *Chunk) WorldTransform() mgl32.Mat4 {
	cfg := c.env.Config
	return worldTransform(cfg.Origin, cfg.VoxelSize, c.corner)
}

// Init binds the chunk to node. A chunk still carrying state from an earlier
// binding is cleaned first, and its pending deletion is cancelled.
func (c *Chunk) Init(node Node) {
	if node == nil {
		panic("chunk: Init with nil node")
	}
	if c.state != Unbound {
		c.release()
	}

	c.node = node
	c.depth = node.Depth()
	c.corner = node.Corner()
	c.label = fmt.Sprintf("%d, %d, %d", c.corner.X, c.corner.Y, c.corner.Z)
	c.state = Active
	c.mesh.SetTransform(c.WorldTransform())

	// The tree may be half built around node; check once it settles.
	c.env.Scheduler.RegisterDeferredTransitionCheck(c)
}

// Update refreshes the neighbor flags and rebuilds the mesh. With async set
// it starts a background build and reports false if one is already
// outstanding; otherwise it cancels any outstanding build and applies a new
// surface before returning.
func (c *Chunk) Update(async bool) bool {
	defer profiling.Track("chunk.Update")()
	if c.state != Active {
		return false
	}

	c.refreshNeighborFlags()
	p := c.polygonizer()

	if async {
		if c.meshTask != nil {
			return false
		}
		profiling.Count("chunk.mesh.started", 1)
		sched := c.env.Scheduler
		c.meshTask = task.Start(sched.MeshPool(), p.CreateSection, func() {
			sched.RequestApplyMesh(c)
		})
		return true
	}

	c.cancelMesh()
	c.setSection(p.CreateSection())
	return true
}

func (c *Chunk) polygonizer() *meshing.Polygonizer {
	cfg := c.env.Config
	return &meshing.Polygonizer{
		Depth:              c.depth,
		MaxDepth:           cfg.OctreeDepth,
		Data:               c.env.Data,
		Corner:             c.corner,
		HigherRes:          c.neighborHigherRes,
		ComputeTransitions: cfg.ComputeTransitions && c.depth != 0,
	}
}

// refreshNeighborFlags records, per face, whether the adjacent node is finer.
// A missing neighbor clears the flag.
func (c *Chunk) refreshNeighborFlags() {
	for _, d := range meshing.Directions {
		if c.depth == 0 {
			c.neighborHigherRes[d] = false
			continue
		}
		adj := c.node.Adjacent(d)
		c.neighborHigherRes[d] = adj != nil && adj.Depth() > c.depth
	}
}

// HasChunkHigherRes reports whether the last update saw a finer neighbor
// across face d. Always false at the root depth.
func (c *Chunk) HasChunkHigherRes(d meshing.Direction) bool {
	return c.depth != 0 && c.neighborHigherRes[d]
}

// CheckTransitions compares each neighbor's recorded view of this chunk with
// the current tree and queues a remesh for every neighbor whose transition
// geometry is stale. It never changes this chunk.
func (c *Chunk) CheckTransitions() {
	if !c.env.Config.ComputeTransitions || c.state != Active {
		return
	}
	for _, d := range meshing.Directions {
		adj := c.node.Adjacent(d)
		if adj == nil {
			continue
		}
		other := adj.VoxelChunk()
		if other == nil {
			panic(fmt.Sprintf("chunk: %s: neighbor node across %v has no chunk", c.name, d))
		}
		// The neighbor must see us as finer exactly when we are deeper.
		expected := c.depth > adj.Depth()
		if expected != other.HasChunkHigherRes(d.Opposite()) {
			c.env.Scheduler.RequestRemesh(adj, true)
		}
	}
}

// ApplyNewMesh swaps in the result of a finished background build. It is a
// no-op returning false when no finished build is staged.
func (c *Chunk) ApplyNewMesh() bool {
	defer profiling.Track("chunk.ApplyNewMesh")()
	if c.meshTask == nil || !c.meshTask.IsDone() {
		return false
	}
	s := c.meshTask.Wait()
	c.meshTask = nil
	c.setSection(s)
	return true
}

func (c *Chunk) setSection(s *meshing.Section) {
	// Foliage scattered over the previous surface is obsolete.
	c.cancelFoliage()

	c.section = s
	c.mesh.ApplySection(s)
	if nav, ok := c.mesh.(NavigationUpdater); ok {
		nav.UpdateNavigation(s.Bounds, c.WorldTransform())
	}
	c.env.Scheduler.RequestFoliageUpdate(c)
}

// SetMaterial forwards a material change to the mesh sink.
func (c *Chunk) SetMaterial(name string) {
	c.mesh.SetMaterial(name)
}

// Unload flushes outstanding work and schedules Delete after the configured
// deletion delay.
func (c *Chunk) Unload() {
	if c.state != Active {
		return
	}
	c.flushTasks()
	c.state = Unloading

	// The tree is only partly updated at this point as well.
	c.env.Scheduler.RegisterDeferredTransitionCheck(c)
	c.pendingDeletion = c.env.Scheduler.ScheduleDeletion(c, c.env.Config.DeletionDelay.Duration())
}

// Delete clears the chunk and returns it to the pool. Calling it on an
// unbound chunk does nothing.
func (c *Chunk) Delete() {
	if c.state == Unbound {
		return
	}
	c.release()
	c.env.Scheduler.ReturnToPool(c)
}

// release drops everything tied to the current binding.
func (c *Chunk) release() {
	c.flushTasks()
	if c.pendingDeletion != nil {
		c.pendingDeletion.Stop()
		c.pendingDeletion = nil
	}

	c.section = nil
	c.mesh.ApplySection(meshing.EmptySection())
	c.destroyInstances()

	c.node = nil
	c.depth = 0
	c.corner = meshing.Vec3i{}
	c.neighborHigherRes = [meshing.NumDirections]bool{}
	c.label = InactiveLabel
	c.state = Unbound
}

// flushTasks cancels the mesh build and the foliage batch. Running work is
// waited for; queued work is dropped before it can start.
func (c *Chunk) flushTasks() {
	c.cancelMesh()
	c.cancelFoliage()
}

func (c *Chunk) cancelMesh() {
	if c.meshTask != nil {
		c.meshTask.Cancel()
		c.meshTask = nil
	}
}
