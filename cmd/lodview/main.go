// Command lodview renders the LOD terrain in a window with a fly camera.
//
// WASD moves, Space/Shift rise and sink, the mouse looks around. [ and ]
// change the LOD distance factor, E carves a sphere where the view ray hits,
// Esc quits.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"lod-terrain/internal/config"
	"lod-terrain/internal/graphics"
	"lod-terrain/internal/octree"
	"lod-terrain/internal/profiling"
	"lod-terrain/internal/render"
	"lod-terrain/internal/world"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	windowWidth  = 1280
	windowHeight = 720
)

var configPath = flag.String("config", "", "world config (YAML); defaults when empty")

func init() {
	runtime.LockOSThread()
}

func main() {
	flag.Parse()
	logger := log.New(os.Stderr, "[lodview] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	config.SetLODDistanceFactor(cfg.LODDistanceFactor)

	if err := glfw.Init(); err != nil {
		log.Fatalf("glfw init: %v", err)
	}
	defer glfw.Terminate()

	window, err := setupWindow()
	if err != nil {
		log.Fatalf("window: %v", err)
	}

	backend, err := graphics.NewBackend()
	if err != nil {
		log.Fatalf("graphics: %v", err)
	}
	defer backend.Delete()

	field := world.NewField(cfg.Density)
	mgr := render.NewManager(cfg, field, backend, render.WithLogger(logger))
	defer mgr.Shutdown()
	tree := octree.New(cfg, mgr)

	cam := graphics.NewCamera(windowWidth, windowHeight)
	cam.Position = mgl32.Vec3{cfg.Origin[0], cfg.Origin[1] + 40*cfg.VoxelSize, cfg.Origin[2]}
	cam.Pitch = -20

	in := newInput(window)
	frames := 0
	last := time.Now()
	prev := last
	fpsTicker := time.NewTicker(time.Second)
	defer fpsTicker.Stop()

	for !window.ShouldClose() {
		now := time.Now()
		dt := float32(now.Sub(prev).Seconds())
		prev = now

		glfw.PollEvents()
		if window.GetKey(glfw.KeyEscape) == glfw.Press {
			window.SetShouldClose(true)
		}
		in.apply(cam, dt, cfg.VoxelSize)
		if f, changed := in.lodFactor(); changed {
			config.SetLODDistanceFactor(f)
			logger.Printf("lod distance factor %.2f", config.GetLODDistanceFactor())
		}
		if in.takeEdit() {
			carve(mgr, field, cfg, cam, logger)
		}

		profiling.ResetFrame()
		tree.SetDistanceFactor(config.GetLODDistanceFactor())
		tree.Update(cam.Position)
		mgr.Tick()
		st := backend.Draw(cam)

		window.SwapBuffers()
		frames++

		select {
		case <-fpsTicker.C:
			elapsed := now.Sub(last).Seconds()
			fps := 0
			if elapsed > 0 {
				fps = int(float64(frames)/elapsed + 0.5)
			}
			window.SetTitle(fmt.Sprintf("lodview | %d fps | chunks %d (culled %d) | tris %d | grass %d | lod %.2f",
				fps, st.Chunks, st.Culled, st.Triangles, st.Instances, config.GetLODDistanceFactor()))
			logger.Printf("%s | %s", mgr.Stats(), profiling.TopN(4))
			frames = 0
			last = now
		default:
		}
	}
}

func setupWindow() (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	window, err := glfw.CreateWindow(windowWidth, windowHeight, "lodview", nil, nil)
	if err != nil {
		return nil, err
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		return nil, err
	}
	glfw.SwapInterval(1)
	window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	return window, nil
}

// carve removes a sphere where the view ray meets the terrain.
func carve(mgr *render.Manager, field *world.Field, cfg *config.World, cam *graphics.Camera, logger *log.Logger) {
	origin := mgl32.Vec3{cfg.Origin[0], cfg.Origin[1], cfg.Origin[2]}
	eye := cam.Position.Sub(origin).Mul(1 / cfg.VoxelSize)
	hit := world.Raycast(field, eye, cam.GetFrontVector(), 1, 256)
	if !hit.Hit {
		return
	}
	center := hit.Position.Vec3()
	if _, err := mgr.ApplyEdit(world.Edit{Center: center, Radius: 4, Remove: true}); err != nil {
		logger.Printf("edit: %v", err)
	}
}
