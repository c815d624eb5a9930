package chunk

import (
	"sync/atomic"

	"lod-terrain/internal/foliage"
	"lod-terrain/internal/profiling"
	"lod-terrain/internal/task"
)

// foliageBatch is one scatter run per (grass type, variety) over a single
// applied surface. total is fixed before any task starts.
type foliageBatch struct {
	tasks     []*task.Handle[*foliage.Result]
	total     int32
	completed atomic.Int32
}

func (b *foliageBatch) done() bool {
	if b.completed.Load() != b.total {
		return false
	}
	for _, h := range b.tasks {
		if !h.IsDone() {
			return false
		}
	}
	return true
}

// UpdateFoliage starts scattering every configured variety over the applied
// surface. It reports false when no surface is applied yet or a batch is
// already outstanding.
func (c *Chunk) UpdateFoliage() bool {
	if c.state != Active || c.section == nil || c.foliage != nil {
		return false
	}
	cfg := c.env.Config

	var inputs []foliage.Input
	for ti, gt := range cfg.GrassTypes {
		for vi, v := range gt.Varieties {
			inputs = append(inputs, foliage.Input{
				Section:      c.section,
				Variety:      v,
				TypeIndex:    ti,
				VarietyIndex: vi,
				VoxelSize:    cfg.VoxelSize,
				Corner:       c.corner,
				DensityScale: cfg.FoliageDensityScale,
			})
		}
	}
	if len(inputs) == 0 {
		return true
	}

	b := &foliageBatch{total: int32(len(inputs))}
	c.foliage = b
	sched := c.env.Scheduler
	onDone := func() {
		if b.completed.Add(1) == b.total {
			sched.RequestApplyFoliage(c)
		}
	}
	profiling.Count("chunk.foliage.started", int64(len(inputs)))
	for _, in := range inputs {
		b.tasks = append(b.tasks, task.Start(sched.FoliagePool(), func() *foliage.Result {
			return foliage.Generate(in)
		}, onDone))
	}
	return true
}

// ApplyNewFoliage replaces the applied instance sinks with the results of a
// finished batch. It is a no-op returning false when no finished batch is
// staged.
func (c *Chunk) ApplyNewFoliage() bool {
	defer profiling.Track("chunk.ApplyNewFoliage")()
	b := c.foliage
	if b == nil || !b.done() {
		return false
	}

	c.destroyInstances()
	transform := stripScale(c.WorldTransform())
	for _, h := range b.tasks {
		res, _ := h.Result()
		if res == nil || res.Buffer.Len() == 0 {
			continue
		}
		v := res.Variety
		sink := c.env.Instances.CreateInstanceSink()
		sink.Configure(InstanceParams{
			Mesh:              v.Mesh,
			MinLOD:            v.MinLOD,
			ReceivesDecals:    v.ReceivesDecals,
			Collision:         v.Collision,
			Navigation:        v.AffectNavigation,
			StaticShadow:      v.CastShadow,
			StartCullDistance: v.StartCullDistance,
			EndCullDistance:   v.EndCullDistance,
			LightingChannels:  v.LightingChannels,
			Seed:              foliage.Seed(v.Mesh, c.name),
			Transform:         transform,
		})
		if sink.HasRenderData() {
			sink.UpdateRenderData(&res.Buffer)
		} else {
			sink.InitRenderData(&res.Buffer)
		}
		sink.AcceptClusterTree(&res.Tree, res.OcclusionLayers)
		c.instances = append(c.instances, sink)
	}
	c.foliage = nil
	return true
}

func (c *Chunk) cancelFoliage() {
	if c.foliage == nil {
		return
	}
	for _, h := range c.foliage.tasks {
		h.Cancel()
	}
	c.foliage = nil
}

func (c *Chunk) destroyInstances() {
	for _, s := range c.instances {
		s.Destroy()
	}
	c.instances = nil
}
