package geometry

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
)

// Epsilon is the length under which a float32 vector is treated as zero.
const Epsilon = 1e-6

var (
	// Forward is the unit vector headings are derived from.
	Forward = mgl32.Vec3{0, 0, 1}
	// Up is the world up axis.
	Up = mgl32.Vec3{0, 1, 0}
)

// SafeNormalize returns the unit vector in the direction of v,
// or the zero vector when v is too short to carry a direction.
// mgl32's Normalize divides by the length unconditionally.
func SafeNormalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l < Epsilon {
		return mgl32.Vec3{}
	}
	return v.Mul(1 / l)
}

// IsZero reports whether v is shorter than Epsilon.
func IsZero(v mgl32.Vec3) bool {
	return v.Len() < Epsilon
}

// RandomInBox draws a point uniformly in [-extent, extent] on each axis.
func RandomInBox(r *rand.Rand, extent mgl32.Vec3) mgl32.Vec3 {
	var p mgl32.Vec3
	for i := range p {
		e := float64(extent[i])
		p[i] = float32(e * (2*r.Float64() - 1))
	}
	return p
}

// RandomRotation draws a rotation uniformly distributed over SO(3)
// (Shoemake's subgroup algorithm). The result is a unit quaternion.
func RandomRotation(r *rand.Rand) mgl32.Quat {
	u1, u2, u3 := r.Float64(), r.Float64(), r.Float64()
	a := math.Sqrt(1 - u1)
	b := math.Sqrt(u1)
	q := mgl32.Quat{
		W: float32(b * math.Cos(2*math.Pi*u3)),
		V: mgl32.Vec3{
			float32(a * math.Sin(2*math.Pi*u2)),
			float32(a * math.Cos(2*math.Pi*u2)),
			float32(b * math.Sin(2*math.Pi*u3)),
		},
	}
	return q.Normalize()
}

// SlerpDirection interpolates between two unit directions along the great
// circle, t is clamped to [0, 1].
func SlerpDirection(from, to mgl32.Vec3, t float32) mgl32.Vec3 {
	t = mgl32.Clamp(t, 0, 1)
	dot := mgl32.Clamp(from.Dot(to), -1, 1)
	theta := float32(math.Acos(float64(dot))) * t
	rel := SafeNormalize(to.Sub(from.Mul(dot)))
	if IsZero(rel) {
		return from
	}
	sin, cos := math.Sincos(float64(theta))
	return from.Mul(float32(cos)).Add(rel.Mul(float32(sin)))
}

// RotateAround rotates p by angle (radians) around axis passing through center.
func RotateAround(p, center, axis mgl32.Vec3, angle float32) mgl32.Vec3 {
	axis = SafeNormalize(axis)
	if IsZero(axis) {
		return p
	}
	q := mgl32.QuatRotate(angle, axis)
	return center.Add(q.Rotate(p.Sub(center)))
}

// Eq checks if every component of a and b differs by at most tolerance.
// mgl32's ApproxEqualThreshold is relative and too strict around zero.
func Eq(a, b mgl32.Vec3, tolerance float32) bool {
	for i := range a {
		if mgl32.Abs(a[i]-b[i]) > tolerance {
			return false
		}
	}
	return true
}
