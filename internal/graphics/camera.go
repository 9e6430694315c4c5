package graphics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Camera orbits the origin at a given distance, yaw and pitch.
type Camera struct {
	AspectRatio float32
	FOV         float32
	NearPlane   float32
	FarPlane    float32

	Distance float32
	Yaw      float32 // radians around +Y
	Pitch    float32 // radians above the XZ plane

	MinDistance float32
	MaxDistance float32
}

// NewCamera places the camera at eye, looking at the origin.
func NewCamera(width, height int, eye mgl64.Vec3) *Camera {
	c := &Camera{
		FOV:         75,
		NearPlane:   0.1,
		FarPlane:    2000,
		MinDistance: 1,
		MaxDistance: 1000,
	}
	c.SetViewport(width, height)
	c.SetEye(eye)
	return c
}

func (c *Camera) SetViewport(width, height int) {
	if height <= 0 {
		height = 1
	}
	c.AspectRatio = float32(width) / float32(height)
}

// SetEye converts a world position into orbit coordinates.
func (c *Camera) SetEye(eye mgl64.Vec3) {
	d := eye.Len()
	if d == 0 {
		d = 1
		eye = mgl64.Vec3{0, 0, 1}
	}
	c.Distance = float32(d)
	c.Pitch = float32(math.Asin(eye[1] / d))
	c.Yaw = float32(math.Atan2(eye[0], eye[2]))
	if c.Distance > c.MaxDistance {
		c.MaxDistance = c.Distance * 2
	}
}

// Eye returns the camera position in world space.
func (c *Camera) Eye() mgl32.Vec3 {
	cp := float32(math.Cos(float64(c.Pitch)))
	return mgl32.Vec3{
		c.Distance * cp * float32(math.Sin(float64(c.Yaw))),
		c.Distance * float32(math.Sin(float64(c.Pitch))),
		c.Distance * cp * float32(math.Cos(float64(c.Yaw))),
	}
}

// Orbit rotates by the given yaw and pitch deltas, keeping the camera off
// the poles.
func (c *Camera) Orbit(dYaw, dPitch float32) {
	const limit = math.Pi/2 - 0.01
	c.Yaw += dYaw
	c.Pitch = mgl32.Clamp(c.Pitch+dPitch, -limit, limit)
}

// Zoom scales the distance by factor within [MinDistance, MaxDistance].
func (c *Camera) Zoom(factor float32) {
	c.Distance = mgl32.Clamp(c.Distance*factor, c.MinDistance, c.MaxDistance)
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye(), mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
}

func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.AspectRatio, c.NearPlane, c.FarPlane)
}
