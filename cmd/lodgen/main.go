// Command lodgen drives the chunk pipeline headlessly: it walks a viewer
// through the world, waits for every chunk to settle at each step and prints
// pipeline statistics.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"lod-terrain/internal/config"
	"lod-terrain/internal/octree"
	"lod-terrain/internal/persistence/meshdump"
	"lod-terrain/internal/profiling"
	"lod-terrain/internal/render"
	"lod-terrain/internal/world"

	"github.com/xlab/closer"
)

var (
	configPath = flag.String("config", "", "world config (YAML); defaults when empty")
	from       = flag.String("from", "0,40,0", "viewer start x,y,z in world units")
	to         = flag.String("to", "256,40,0", "viewer end x,y,z in world units")
	steps      = flag.Int("steps", 8, "viewer positions between from and to")
	lod        = flag.Float64("lod", 0, "LOD distance factor override")
	edit       = flag.String("edit", "", "remove a sphere x,y,z,r (voxels) after the walk")
	dumpPath   = flag.String("dump", "", "record applied meshes to this file")
	timeout    = flag.Duration("timeout", time.Minute, "give up waiting for a step after this long")
)

func main() {
	flag.Parse()
	logger := log.New(os.Stderr, "[lodgen] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	start, err := parseVec3(*from)
	if err != nil {
		log.Fatalf("-from: %v", err)
	}
	end, err := parseVec3(*to)
	if err != nil {
		log.Fatalf("-to: %v", err)
	}
	var sphere *world.Edit
	if *edit != "" {
		e, err := parseEdit(*edit)
		if err != nil {
			log.Fatalf("-edit: %v", err)
		}
		sphere = &e
	}
	config.SetLODDistanceFactor(cfg.LODDistanceFactor)
	if *lod > 0 {
		config.SetLODDistanceFactor(float32(*lod))
	}

	mem := &render.MemSinks{}
	var sinks render.Sinks = mem
	var dump *meshdump.Writer
	var recording *meshdump.Sinks
	if *dumpPath != "" {
		dump, err = meshdump.Create(*dumpPath, meshdump.Header{OctreeDepth: cfg.OctreeDepth, VoxelSize: cfg.VoxelSize})
		if err != nil {
			log.Fatalf("create dump: %v", err)
		}
		recording = &meshdump.Sinks{Sinks: mem, W: dump}
		sinks = recording
	}

	field := world.NewField(cfg.Density)
	mgr := render.NewManager(cfg, field, sinks, render.WithLogger(logger))
	tree := octree.New(cfg, mgr)
	tree.SetDistanceFactor(config.GetLODDistanceFactor())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	closer.Bind(func() {
		cancel()
		<-done
		mgr.Shutdown()
		if dump != nil {
			if err := dump.Close(); err != nil {
				logger.Printf("close dump: %v", err)
			} else if err := recording.Err(); err != nil {
				logger.Printf("dump incomplete: %v", err)
			} else {
				logger.Printf("dumped %d sections to %s", dump.Count(), *dumpPath)
			}
		}
		logger.Printf("counters: %s", profiling.Counters())
	})

	go func() {
		defer closer.Close()
		defer close(done)
		r := &runner{mgr: mgr, tree: tree, sinks: mem, logger: logger, timeout: *timeout}
		if err := r.walk(ctx, start, end, *steps); err != nil {
			logger.Printf("walk: %v", err)
			return
		}
		if sphere != nil {
			if err := r.edit(ctx, *sphere); err != nil {
				logger.Printf("edit: %v", err)
				return
			}
		}
		if err := r.drain(ctx, cfg.DeletionDelay.Duration()); err != nil {
			logger.Printf("drain: %v", err)
		}
	}()
	closer.Hold()
}
