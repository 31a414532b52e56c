package render

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera projects world positions onto a screen with the origin top-left.
type Camera struct {
	Eye    mgl32.Vec3
	Center mgl32.Vec3
	FovY   float32 // degrees
	Near   float32
	Far    float32
}

// NewCamera frames a cube of half-size extent around center from the front.
func NewCamera(center mgl32.Vec3, extent float32) Camera {
	return Camera{
		Eye:    center.Add(mgl32.Vec3{0, extent, -3 * extent}),
		Center: center,
		FovY:   60,
		Near:   0.1,
		Far:    10 * extent,
	}
}

// Project returns the screen position of p and whether it is in front of
// the camera and within the depth range.
func (c Camera) Project(p mgl32.Vec3, width, height int) (x, y float32, ok bool) {
	view := mgl32.LookAtV(c.Eye, c.Center, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(mgl32.DegToRad(c.FovY), float32(width)/float32(height), c.Near, c.Far)
	win := mgl32.Project(p, view, proj, 0, 0, width, height)
	if win.Z() < 0 || win.Z() > 1 {
		return 0, 0, false
	}
	return win.X(), float32(height) - win.Y(), true
}

// Orbit moves the eye around the center by yaw radians about the up axis.
func (c *Camera) Orbit(yaw float32) {
	rot := mgl32.QuatRotate(yaw, mgl32.Vec3{0, 1, 0})
	c.Eye = c.Center.Add(rot.Rotate(c.Eye.Sub(c.Center)))
}
