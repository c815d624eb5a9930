package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"lod-terrain/internal/octree"
	"lod-terrain/internal/profiling"
	"lod-terrain/internal/render"
	"lod-terrain/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

type runner struct {
	mgr     *render.Manager
	tree    *octree.Tree
	sinks   *render.MemSinks
	logger  *log.Logger
	timeout time.Duration
}

// walk moves the viewer from start to end and settles the pipeline at every
// position.
func (r *runner) walk(ctx context.Context, start, end mgl32.Vec3, steps int) error {
	if steps < 1 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		viewer := start.Add(end.Sub(start).Mul(float32(i) / float32(steps)))
		profiling.ResetFrame()
		began := time.Now()
		r.tree.Update(viewer)
		ticks, err := r.tickUntil(ctx, r.mgr.Settled)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		tris, inst := r.sinks.Totals()
		r.logger.Printf("step %d viewer=%v leaves=%d ticks=%d took=%s triangles=%d instances=%d %s",
			i, viewer, len(r.tree.Leaves()), ticks, time.Since(began).Round(time.Millisecond), tris, inst, r.mgr.Stats())
		r.logger.Printf("step %d top: %s", i, profiling.TopN(5))
	}
	return nil
}

func (r *runner) edit(ctx context.Context, e world.Edit) error {
	n, err := r.mgr.ApplyEdit(e)
	if err != nil {
		return err
	}
	r.logger.Printf("edit remeshed %d chunks", n)
	_, err = r.tickUntil(ctx, r.mgr.Settled)
	return err
}

// drain waits for pending deletions, which need at least the deletion delay.
func (r *runner) drain(ctx context.Context, delay time.Duration) error {
	if r.timeout < delay {
		r.timeout = delay + time.Second
	}
	if _, err := r.tickUntil(ctx, r.mgr.Idle); err != nil {
		return err
	}
	r.logger.Printf("idle: %s", r.mgr.Stats())
	return nil
}

func (r *runner) tickUntil(ctx context.Context, cond func() bool) (int, error) {
	deadline := time.Now().Add(r.timeout)
	for ticks := 1; ; ticks++ {
		r.mgr.Tick()
		if cond() {
			return ticks, nil
		}
		if time.Now().After(deadline) {
			return ticks, fmt.Errorf("not settled after %s: %s", r.timeout, r.mgr.Stats())
		}
		select {
		case <-ctx.Done():
			return ticks, ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}
