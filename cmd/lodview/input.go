package main

import (
	"lod-terrain/internal/config"
	"lod-terrain/internal/graphics"

	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	moveSpeed        = 30 // voxels per second
	mouseSensitivity = 0.1
)

type input struct {
	window *glfw.Window

	lastX, lastY float64
	firstMouse   bool

	lodStep int
	edit    bool
}

func newInput(w *glfw.Window) *input {
	in := &input{window: w, firstMouse: true}
	w.SetKeyCallback(in.onKey)
	return in
}

func (in *input) onKey(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}
	switch key {
	case glfw.KeyLeftBracket:
		in.lodStep--
	case glfw.KeyRightBracket:
		in.lodStep++
	case glfw.KeyE:
		in.edit = true
	}
}

// apply moves and turns the camera for one frame.
func (in *input) apply(cam *graphics.Camera, dt, voxelSize float32) {
	x, y := in.window.GetCursorPos()
	if in.firstMouse {
		in.lastX, in.lastY = x, y
		in.firstMouse = false
	}
	cam.Look(float32(x-in.lastX)*mouseSensitivity, float32(in.lastY-y)*mouseSensitivity)
	in.lastX, in.lastY = x, y

	speed := moveSpeed * voxelSize * dt
	if in.window.GetKey(glfw.KeyLeftControl) == glfw.Press {
		speed *= 4
	}
	var forward, right, up float32
	if in.window.GetKey(glfw.KeyW) == glfw.Press {
		forward += speed
	}
	if in.window.GetKey(glfw.KeyS) == glfw.Press {
		forward -= speed
	}
	if in.window.GetKey(glfw.KeyD) == glfw.Press {
		right += speed
	}
	if in.window.GetKey(glfw.KeyA) == glfw.Press {
		right -= speed
	}
	if in.window.GetKey(glfw.KeySpace) == glfw.Press {
		up += speed
	}
	if in.window.GetKey(glfw.KeyLeftShift) == glfw.Press {
		up -= speed
	}
	cam.Move(forward, right, up)
}

// lodFactor returns the distance factor after pending [ and ] presses.
func (in *input) lodFactor() (float32, bool) {
	if in.lodStep == 0 {
		return 0, false
	}
	f := config.GetLODDistanceFactor()
	for ; in.lodStep > 0; in.lodStep-- {
		f *= 1.25
	}
	for ; in.lodStep < 0; in.lodStep++ {
		f /= 1.25
	}
	return f, true
}

func (in *input) takeEdit() bool {
	e := in.edit
	in.edit = false
	return e
}
