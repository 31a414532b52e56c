// Package target moves the steering target around its owner.
package target

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lao-tseu-is-alive/go-boids-gpu/pkg/geometry"
)

// Orbit rotates a point around Center. The rotation axis swings between up
// and forward following sin(elapsed), so the path keeps changing plane.
type Orbit struct {
	Center mgl32.Vec3
	Speed  float32 // degrees per second

	position mgl32.Vec3
	elapsed  float64
}

// NewOrbit starts the target radius units along +X from center.
func NewOrbit(center mgl32.Vec3, radius, speed float32) *Orbit {
	return &Orbit{
		Center:   center,
		Speed:    speed,
		position: center.Add(mgl32.Vec3{radius, 0, 0}),
	}
}

// Axis returns the current rotation axis.
func (o *Orbit) Axis() mgl32.Vec3 {
	return geometry.SlerpDirection(geometry.Up, geometry.Forward, float32(math.Sin(o.elapsed)))
}

// Advance moves the target by dt seconds and returns its new position.
func (o *Orbit) Advance(dt float32) mgl32.Vec3 {
	o.elapsed += float64(dt)
	o.position = geometry.RotateAround(o.position, o.Center, o.Axis(), mgl32.DegToRad(dt*o.Speed))
	return o.position
}

func (o *Orbit) Position() mgl32.Vec3 {
	return o.position
}
