package graphics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a free-flying perspective camera. Yaw and pitch are in degrees;
// yaw 0 looks along +X.
type Camera struct {
	Position mgl32.Vec3
	Yaw      float32
	Pitch    float32

	AspectRatio float32
	FOV         float32
	NearPlane   float32
	FarPlane    float32
}

func NewCamera(width, height int) *Camera {
	return &Camera{
		AspectRatio: float32(width) / float32(height),
		FOV:         60.0,
		NearPlane:   0.1,
		FarPlane:    4000.0,
	}
}

func (c *Camera) GetProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.AspectRatio, c.NearPlane, c.FarPlane)
}

func (c *Camera) GetFrontVector() mgl32.Vec3 {
	y := mgl32.DegToRad(c.Yaw)
	pt := mgl32.DegToRad(c.Pitch)
	fx := float32(math.Cos(float64(y)) * math.Cos(float64(pt)))
	fy := float32(math.Sin(float64(pt)))
	fz := float32(math.Sin(float64(y)) * math.Cos(float64(pt)))
	return mgl32.Vec3{fx, fy, fz}.Normalize()
}

func (c *Camera) GetViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.GetFrontVector()), mgl32.Vec3{0, 1, 0})
}

// Look turns the camera by the given degrees, keeping pitch short of
// straight up or down.
func (c *Camera) Look(dYaw, dPitch float32) {
	c.Yaw = float32(math.Mod(float64(c.Yaw+dYaw), 360))
	c.Pitch = mgl32.Clamp(c.Pitch+dPitch, -89, 89)
}

// Move translates the camera relative to its heading: forward along the view
// direction, right perpendicular to it, up along world +Y.
func (c *Camera) Move(forward, right, up float32) {
	front := c.GetFrontVector()
	side := front.Cross(mgl32.Vec3{0, 1, 0}).Normalize()
	c.Position = c.Position.
		Add(front.Mul(forward)).
		Add(side.Mul(right)).
		Add(mgl32.Vec3{0, up, 0})
}
