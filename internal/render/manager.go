package render

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"lod-terrain/internal/chunk"
	"lod-terrain/internal/config"
	"lod-terrain/internal/meshing"
	"lod-terrain/internal/profiling"
	"lod-terrain/internal/task"
	"lod-terrain/internal/world"

	"k8s.io/utils/clock"
)

// Sinks creates the per-chunk render objects.
type Sinks interface {
	CreateMeshSink(name string) chunk.MeshSink
	chunk.InstanceSinkFactory
}

// Editable is a voxel source that accepts edits.
type Editable interface {
	meshing.Data
	Apply(e world.Edit) error
}

// ErrReadOnly is returned by ApplyEdit when the voxel source cannot be edited.
var ErrReadOnly = errors.New("render: voxel data is read-only")

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the clock deletion deadlines are measured on.
func WithClock(c clock.PassiveClock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithLogger replaces the default logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// Manager owns the worker pools and the chunk pool, and batches chunk work
// onto the control goroutine. It implements chunk.Scheduler for its chunks
// and binds chunks to tree nodes.
//
// Tick, Bind, Unbind, ApplyEdit and Shutdown must be called from the control
// goroutine. Request methods are safe from any goroutine.
type Manager struct {
	env    *chunk.Env
	sinks  Sinks
	clock  clock.PassiveClock
	logger *log.Logger

	meshPool    *task.Pool
	foliagePool *task.Pool

	mu            sync.Mutex
	remesh        queue[chunk.Node]
	remeshSync    map[chunk.Node]bool
	applyMesh     queue[*chunk.Chunk]
	foliageUpdate queue[*chunk.Chunk]
	applyFoliage  queue[*chunk.Chunk]
	transitions   queue[*chunk.Chunk]
	deletions     []*deletionTimer
	deletionSeq   uint64
	unloading     map[chunk.Node]*chunk.Chunk

	chunks []*chunk.Chunk
	free   []*chunk.Chunk
}

// NewManager starts the worker pools described by cfg.
func NewManager(cfg *config.World, data meshing.Data, sinks Sinks, opts ...Option) *Manager {
	m := &Manager{
		sinks:      sinks,
		clock:      clock.RealClock{},
		logger:     log.New(os.Stderr, "[voxel] ", log.LstdFlags|log.Lmicroseconds),
		remeshSync: make(map[chunk.Node]bool),
		unloading:  make(map[chunk.Node]*chunk.Chunk),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.env = &chunk.Env{Config: cfg, Data: data, Scheduler: m, Instances: sinks}
	m.meshPool = task.NewPool("mesh", cfg.Workers.Mesh, cfg.Workers.QueueSize)
	m.foliagePool = task.NewPool("foliage", cfg.Workers.Foliage, cfg.Workers.QueueSize)
	m.logger.Printf("chunk manager started: mesh workers=%d foliage workers=%d queue=%d",
		cfg.Workers.Mesh, cfg.Workers.Foliage, cfg.Workers.QueueSize)
	return m
}

func (m *Manager) MeshPool() *task.Pool { return m.meshPool }
func (m *Manager) FoliagePool() *task.Pool { return m.foliagePool }

// Bind attaches a chunk to n and queues its first mesh build. A chunk still
// waiting for deletion after leaving n is reused.
func (m *Manager) Bind(n chunk.BindableNode) {
	if n.VoxelChunk() != nil {
		return
	}
	m.mu.Lock()
	c, ok := m.unloading[n]
	delete(m.unloading, n)
	m.mu.Unlock()
	if !ok || c.State() != chunk.Unloading {
		c = m.acquire()
	} else {
		profiling.Count("chunk.rebound", 1)
	}

	n.SetVoxelChunk(c)
	c.Init(n)
	m.RequestRemesh(n, true)
}

// Unbind detaches n's chunk and starts its delayed deletion.
func (m *Manager) Unbind(n chunk.BindableNode) {
	c := n.VoxelChunk()
	if c == nil {
		return
	}
	c.Unload()
	n.SetVoxelChunk(nil)
	if c.State() == chunk.Unloading {
		m.mu.Lock()
		m.unloading[n] = c
		m.mu.Unlock()
	}
}

func (m *Manager) acquire() *chunk.Chunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n := len(m.free); n > 0 {
		c := m.free[n-1]
		m.free = m.free[:n-1]
		profiling.Count("chunk.reused", 1)
		return c
	}
	name := fmt.Sprintf("VoxelChunk_%d", len(m.chunks))
	c := chunk.New(name, m.env, m.sinks.CreateMeshSink(name))
	m.chunks = append(m.chunks, c)
	profiling.Count("chunk.created", 1)
	return c
}

func (m *Manager) RegisterDeferredTransitionCheck(c *chunk.Chunk) {
	m.mu.Lock()
	m.transitions.push(c)
	m.mu.Unlock()
}

// RequestRemesh queues a rebuild of n's chunk. A synchronous request wins
// over asynchronous ones for the same node.
func (m *Manager) RequestRemesh(n chunk.Node, async bool) {
	m.mu.Lock()
	m.remesh.push(n)
	if !async {
		m.remeshSync[n] = true
	}
	m.mu.Unlock()
}

func (m *Manager) RequestApplyMesh(c *chunk.Chunk) {
	m.mu.Lock()
	m.applyMesh.push(c)
	m.mu.Unlock()
}

func (m *Manager) RequestFoliageUpdate(c *chunk.Chunk) {
	m.mu.Lock()
	m.foliageUpdate.push(c)
	m.mu.Unlock()
}

func (m *Manager) RequestApplyFoliage(c *chunk.Chunk) {
	m.mu.Lock()
	m.applyFoliage.push(c)
	m.mu.Unlock()
}

// ReturnToPool makes an unbound chunk available to Bind again.
func (m *Manager) ReturnToPool(c *chunk.Chunk) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.free {
		if f == c {
			return
		}
	}
	m.free = append(m.free, c)
}

// Tick runs one round of control-goroutine work: due deletions, remeshes,
// mesh applies, foliage starts, foliage applies and finally the transition
// checks registered since the last tick.
func (m *Manager) Tick() {
	defer profiling.Track("render.Tick")()

	for _, c := range m.dueDeletions() {
		c.Delete()
	}

	m.processRemesh()

	m.mu.Lock()
	applies := m.applyMesh.drain()
	m.mu.Unlock()
	for _, c := range applies {
		c.ApplyNewMesh()
	}

	m.mu.Lock()
	updates := m.foliageUpdate.drain()
	m.mu.Unlock()
	for _, c := range updates {
		c.UpdateFoliage()
	}

	m.mu.Lock()
	foliageApplies := m.applyFoliage.drain()
	m.mu.Unlock()
	for _, c := range foliageApplies {
		c.ApplyNewFoliage()
	}

	m.mu.Lock()
	checks := m.transitions.drain()
	m.mu.Unlock()
	for _, c := range checks {
		// Unloading chunks re-register too; their neighbors are checked when
		// the replacing chunks are.
		if c.State() == chunk.Active {
			c.CheckTransitions()
		}
	}
}

func (m *Manager) processRemesh() {
	m.mu.Lock()
	nodes := m.remesh.drain()
	syncReq := m.remeshSync
	m.remeshSync = make(map[chunk.Node]bool)
	m.mu.Unlock()

	for _, n := range nodes {
		c := n.VoxelChunk()
		if c == nil || c.State() != chunk.Active {
			continue
		}
		async := !syncReq[n]
		if c.Update(async) {
			profiling.Count("chunk.remesh", 1)
			continue
		}
		// A build against the previous neighborhood is still running.
		m.RequestRemesh(n, async)
	}
}

// ApplyEdit changes the voxel data and synchronously rebuilds every active
// chunk the edit touches.
func (m *Manager) ApplyEdit(e world.Edit) (int, error) {
	data, ok := m.env.Data.(Editable)
	if !ok {
		return 0, ErrReadOnly
	}
	if err := data.Apply(e); err != nil {
		return 0, fmt.Errorf("apply edit: %w", err)
	}

	lo, hi := e.Bounds()
	m.mu.Lock()
	all := append([]*chunk.Chunk(nil), m.chunks...)
	m.mu.Unlock()

	remeshed := 0
	for _, c := range all {
		if c.State() != chunk.Active || !touches(c, lo, hi) {
			continue
		}
		c.Update(false)
		remeshed++
	}
	m.logger.Printf("edit at %v r=%.1f remeshed %d chunks", e.Center, e.Radius, remeshed)
	return remeshed, nil
}

// touches reports whether the voxel box [lo, hi] reaches any sample c reads,
// including the extra ring used for normals.
func touches(c *chunk.Chunk, lo, hi meshing.Vec3i) bool {
	size := c.Size()
	step := size / meshing.ChunkCells
	corner := c.Corner()
	for axis := 0; axis < 3; axis++ {
		from := corner.Component(axis) - step
		to := corner.Component(axis) + size + step
		if hi.Component(axis) < from || lo.Component(axis) > to {
			return false
		}
	}
	return true
}

// Settled reports whether no work is queued, running or waiting to be
// applied. Pending deletions are ignored.
func (m *Manager) Settled() bool {
	m.mu.Lock()
	busy := m.remesh.len() > 0 || m.applyMesh.len() > 0 || m.foliageUpdate.len() > 0 ||
		m.applyFoliage.len() > 0 || m.transitions.len() > 0
	all := m.chunks
	m.mu.Unlock()
	if busy {
		return false
	}
	for _, c := range all {
		if c.MeshPending() || c.FoliagePending() {
			return false
		}
	}
	return true
}

// Idle reports whether the manager is settled and no deletion is pending.
func (m *Manager) Idle() bool {
	if !m.Settled() {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.deletions) == 0
}

// Stats is a snapshot of the manager's chunk population.
type Stats struct {
	Chunks           int
	Active           int
	Unloading        int
	Pooled           int
	PendingDeletions int
	MeshQueue        int
	FoliageQueue     int
}

func (s Stats) String() string {
	return fmt.Sprintf("chunks=%d active=%d unloading=%d pooled=%d deletions=%d mesh_q=%d foliage_q=%d",
		s.Chunks, s.Active, s.Unloading, s.Pooled, s.PendingDeletions, s.MeshQueue, s.FoliageQueue)
}

// Stats returns the current population counts.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Stats{
		Chunks:           len(m.chunks),
		Pooled:           len(m.free),
		PendingDeletions: len(m.deletions),
		MeshQueue:        m.meshPool.QueueLength(),
		FoliageQueue:     m.foliagePool.QueueLength(),
	}
	for _, c := range m.chunks {
		switch c.State() {
		case chunk.Active:
			s.Active++
		case chunk.Unloading:
			s.Unloading++
		}
	}
	return s
}

// ActiveChunks returns the chunks currently bound to a node.
func (m *Manager) ActiveChunks() []*chunk.Chunk {
	m.mu.Lock()
	all := append([]*chunk.Chunk(nil), m.chunks...)
	m.mu.Unlock()
	out := all[:0]
	for _, c := range all {
		if c.State() == chunk.Active {
			out = append(out, c)
		}
	}
	return out
}

// Shutdown deletes every chunk and stops the worker pools.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	all := append([]*chunk.Chunk(nil), m.chunks...)
	m.mu.Unlock()

	for _, c := range all {
		if n, ok := c.Node().(chunk.BindableNode); ok && n.VoxelChunk() == c {
			n.SetVoxelChunk(nil)
		}
		c.Delete()
	}
	m.meshPool.Shutdown()
	m.foliagePool.Shutdown()

	m.mu.Lock()
	m.remesh.drain()
	clear(m.remeshSync)
	m.applyMesh.drain()
	m.foliageUpdate.drain()
	m.applyFoliage.drain()
	m.transitions.drain()
	clear(m.unloading)
	m.mu.Unlock()
	m.logger.Printf("chunk manager stopped: %d chunks released", len(all))
}

// ScheduleDeletion deletes c once delay has passed on the manager's clock.
// Deadlines are checked at the start of every Tick.
func (m *Manager) ScheduleDeletion(c *chunk.Chunk, delay time.Duration) chunk.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletionSeq++
	t := &deletionTimer{m: m, chunk: c, deadline: m.clock.Now().Add(delay), seq: m.deletionSeq}
	m.deletions = append(m.deletions, t)
	sort.Slice(m.deletions, func(i, j int) bool {
		a, b := m.deletions[i], m.deletions[j]
		if a.deadline.Equal(b.deadline) {
			return a.seq < b.seq
		}
		return a.deadline.Before(b.deadline)
	})
	return t
}

func (m *Manager) dueDeletions() []*chunk.Chunk {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	i := 0
	for i < len(m.deletions) && !now.Before(m.deletions[i].deadline) {
		i++
	}
	due := make([]*chunk.Chunk, 0, i)
	for _, t := range m.deletions[:i] {
		due = append(due, t.chunk)
		if n := t.chunk.Node(); n != nil && m.unloading[n] == t.chunk {
			delete(m.unloading, n)
		}
	}
	m.deletions = append(m.deletions[:0], m.deletions[i:]...)
	return due
}

type deletionTimer struct {
	m        *Manager
	chunk    *chunk.Chunk
	deadline time.Time
	seq      uint64
}

func (t *deletionTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	for i, d := range t.m.deletions {
		if d == t {
			t.m.deletions = append(t.m.deletions[:i], t.m.deletions[i+1:]...)
			return true
		}
	}
	return false
}
