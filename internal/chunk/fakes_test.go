package chunk

import (
	"sync"
	"testing"
	"time"

	"lod-terrain/internal/config"
	"lod-terrain/internal/foliage"
	"lod-terrain/internal/meshing"
	"lod-terrain/internal/task"
	"lod-terrain/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

type fakeNode struct {
	depth  int
	corner meshing.Vec3i
	adj    [meshing.NumDirections]*fakeNode
	chunk  *Chunk
}

func (n *fakeNode) Depth() int { return n.depth }
func (n *fakeNode) Corner() meshing.Vec3i { return n.corner }
func (n *fakeNode) VoxelChunk() *Chunk { return n.chunk }

func (n *fakeNode) Adjacent(d meshing.Direction) Node {
	if n.adj[d] == nil {
		return nil
	}
	return n.adj[d]
}

// link makes b the neighbor of a across d, and a the neighbor of b across
// the opposite face.
func link(a *fakeNode, d meshing.Direction, b *fakeNode) {
	a.adj[d] = b
	b.adj[d.Opposite()] = a
}

type remeshRequest struct {
	node  Node
	async bool
}

type deletion struct {
	chunk *Chunk
	delay time.Duration
	timer *fakeTimer
}

type fakeTimer struct {
	mu      sync.Mutex
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := t.stopped
	t.stopped = true
	return !was
}

func (t *fakeTimer) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type fakeScheduler struct {
	meshPool    *task.Pool
	foliagePool *task.Pool

	mu             sync.Mutex
	deferred       []*Chunk
	remesh         []remeshRequest
	applyMesh      []*Chunk
	foliageUpdates []*Chunk
	applyFoliage   []*Chunk
	deletions      []deletion
	pooled         []*Chunk
}

func newFakeScheduler(t *testing.T) *fakeScheduler {
	s := &fakeScheduler{
		meshPool:    task.NewPool("mesh", 2, 16),
		foliagePool: task.NewPool("foliage", 2, 16),
	}
	t.Cleanup(func() {
		s.meshPool.Shutdown()
		s.foliagePool.Shutdown()
	})
	return s
}

func (s *fakeScheduler) MeshPool() *task.Pool { return s.meshPool }
func (s *fakeScheduler) FoliagePool() *task.Pool { return s.foliagePool }

func (s *fakeScheduler) RegisterDeferredTransitionCheck(c *Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deferred = append(s.deferred, c)
}

func (s *fakeScheduler) RequestRemesh(n Node, async bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remesh = append(s.remesh, remeshRequest{node: n, async: async})
}

func (s *fakeScheduler) RequestApplyMesh(c *Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyMesh = append(s.applyMesh, c)
}

func (s *fakeScheduler) RequestFoliageUpdate(c *Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.foliageUpdates = append(s.foliageUpdates, c)
}

func (s *fakeScheduler) RequestApplyFoliage(c *Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyFoliage = append(s.applyFoliage, c)
}

func (s *fakeScheduler) ScheduleDeletion(c *Chunk, delay time.Duration) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	tm := &fakeTimer{}
	s.deletions = append(s.deletions, deletion{chunk: c, delay: delay, timer: tm})
	return tm
}

func (s *fakeScheduler) ReturnToPool(c *Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pooled = append(s.pooled, c)
}

func (s *fakeScheduler) takeRemesh() []remeshRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.remesh
	s.remesh = nil
	return out
}

func (s *fakeScheduler) count(list *[]*Chunk, c *Chunk) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, x := range *list {
		if x == c {
			n++
		}
	}
	return n
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

type fakeMeshSink struct {
	transform  mgl32.Mat4
	sections   []*meshing.Section
	material   string
	navUpdates int
}

func (m *fakeMeshSink) SetTransform(t mgl32.Mat4) { m.transform = t }
func (m *fakeMeshSink) ApplySection(s *meshing.Section) { m.sections = append(m.sections, s) }
func (m *fakeMeshSink) SetMaterial(name string) { m.material = name }
func (m *fakeMeshSink) last() *meshing.Section { return m.sections[len(m.sections)-1] }

type navMeshSink struct {
	fakeMeshSink
	bounds []meshing.AABB
}

func (m *navMeshSink) UpdateNavigation(b meshing.AABB, _ mgl32.Mat4) {
	m.bounds = append(m.bounds, b)
}

type fakeInstanceSink struct {
	params        InstanceParams
	hasRenderData bool
	initCalls     int
	updateCalls   int
	instances     int
	treeNodes     int
	layers        int
	destroyed     bool
}

func (s *fakeInstanceSink) Configure(p InstanceParams) { s.params = p }
func (s *fakeInstanceSink) HasRenderData() bool { return s.hasRenderData }

func (s *fakeInstanceSink) InitRenderData(buf *foliage.InstanceBuffer) {
	s.initCalls++
	s.instances = buf.Len()
	s.hasRenderData = true
}

func (s *fakeInstanceSink) UpdateRenderData(buf *foliage.InstanceBuffer) {
	s.updateCalls++
	s.instances = buf.Len()
}

func (s *fakeInstanceSink) AcceptClusterTree(tree *foliage.ClusterTree, layers int) {
	s.treeNodes = len(tree.Nodes)
	s.layers = layers
}

func (s *fakeInstanceSink) Destroy() { s.destroyed = true }

type fakeFactory struct {
	preallocated bool
	created      []*fakeInstanceSink
}

func (f *fakeFactory) CreateInstanceSink() InstanceSink {
	s := &fakeInstanceSink{hasRenderData: f.preallocated}
	f.created = append(f.created, s)
	return s
}

type fixture struct {
	cfg     *config.World
	sched   *fakeScheduler
	factory *fakeFactory
	env     *Env
}

// newFixture builds a depth-3 world with flat ground at y=7.5 and a single
// grass variety (plus one that never scatters).
func newFixture(t *testing.T) *fixture {
	cfg := config.Default()
	cfg.OctreeDepth = 3
	cfg.VoxelSize = 2
	cfg.Origin = [3]float32{100, 0, -50}
	cfg.GrassTypes = []config.GrassType{{
		Name: "meadow",
		Varieties: []config.GrassVariety{
			{Mesh: "grass", Density: 40, MinNormalY: 0.5, ScaleMin: 1, ScaleMax: 1, StartCullDistance: 10, EndCullDistance: 20, MinLOD: 1, LightingChannels: 3},
			{Mesh: "never", Density: 0, ScaleMin: 1, ScaleMax: 1},
		},
	}}
	f := &fixture{cfg: cfg, sched: newFakeScheduler(t), factory: &fakeFactory{}}
	f.env = &Env{Config: cfg, Data: world.Flat(7.5), Scheduler: f.sched, Instances: f.factory}
	return f
}

func (f *fixture) bind(name string, n *fakeNode) (*Chunk, *fakeMeshSink) {
	sink := &fakeMeshSink{}
	c := New(name, f.env, sink)
	n.chunk = c
	c.Init(n)
	return c, sink
}
