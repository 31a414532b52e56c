package behavior

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lao-tseu-is-alive/go-boids-gpu/pkg/boid"
	"github.com/lao-tseu-is-alive/go-boids-gpu/pkg/geometry"
)

// Settings controls the steering rules of one frame.
// Passing this into Steer allows you to change rules dynamically at runtime.
type Settings struct {
	DeltaTime float32

	SeparationWeight float32 // Push away from the local flock center
	AlignmentWeight  float32 // Match the local flock heading
	TargetWeight     float32 // Seek the target

	MoveSpeed float32
	Target    mgl32.Vec3
}

// Neighborhood holds the statistics a boid steers against: the mean position
// and mean heading of the flock around it. Count is zero when no statistics
// are available, in which case only target seeking applies.
type Neighborhood struct {
	Center  mgl32.Vec3
	Heading mgl32.Vec3
	Count   int
}

// Accumulate adds other to the running neighborhood sums.
// Call Mean once all neighbors have been added.
func (n *Neighborhood) Accumulate(other boid.State) {
	n.Center = n.Center.Add(other.Position)
	n.Heading = n.Heading.Add(other.Heading)
	n.Count++
}

// Mean turns the accumulated sums into averages.
func (n *Neighborhood) Mean() {
	if n.Count == 0 {
		return
	}
	inv := 1 / float32(n.Count)
	n.Center = n.Center.Mul(inv)
	n.Heading = n.Heading.Mul(inv)
}

// FromAggregate builds a Neighborhood from an aggregate buffer element.
func FromAggregate(a boid.State) Neighborhood {
	return Neighborhood{Center: a.Position, Heading: a.Heading, Count: 1}
}

// Steer returns the next state of b.
// The desired direction blends three signals, each a unit vector:
// away from the neighborhood center, along the neighborhood heading and
// toward the target. The heading turns toward it by DeltaTime, then the boid
// moves MoveSpeed*DeltaTime along the new heading.
func Steer(b boid.State, n Neighborhood, s Settings) boid.State {
	var steer mgl32.Vec3
	if n.Count > 0 {
		separation := geometry.SafeNormalize(b.Position.Sub(n.Center))
		alignment := geometry.SafeNormalize(n.Heading)
		steer = steer.Add(separation.Mul(s.SeparationWeight))
		steer = steer.Add(alignment.Mul(s.AlignmentWeight))
	}
	seek := geometry.SafeNormalize(s.Target.Sub(b.Position))
	steer = steer.Add(seek.Mul(s.TargetWeight))

	heading := b.Heading
	if desired := geometry.SafeNormalize(steer); !geometry.IsZero(desired) {
		turned := geometry.SafeNormalize(heading.Add(desired.Sub(heading).Mul(s.DeltaTime)))
		if !geometry.IsZero(turned) {
			heading = turned
		}
	}

	next := boid.State{Position: b.Position, Heading: heading}
	next.Advance(s.MoveSpeed * s.DeltaTime)
	return next
}
