// Package kernels holds the reference compute kernels run by the CPU device.
// A GPU backend would compile equivalent shaders exposing the same names,
// buffer slots and parameters.
package kernels

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/device"
	"github.com/lao-tseu-is-alive/go-boids-gpu/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-gpu/pkg/boid"
)

// Kernel names.
const (
	Reduce = "reduce"
	Steer  = "steer"
	Naive  = "naive"
	Copy   = "copy"
)

// Buffer slots.
const (
	SlotInput      = "input"
	SlotOutput     = "output"
	SlotParticles  = "particles"
	SlotAggregates = "aggregates"
	SlotPrevious   = "previous"
	SlotSource     = "source"
	SlotDest       = "destination"
)

// Parameters.
const (
	ParamCount            = "count"
	ParamAggregateCount   = "aggregateCount"
	ParamDeltaTime        = "deltaTime"
	ParamSeparationWeight = "separationWeight"
	ParamAlignmentWeight  = "alignmentWeight"
	ParamTargetWeight     = "targetWeight"
	ParamMoveSpeed        = "moveSpeed"
	ParamTargetX          = "targetX"
	ParamTargetY          = "targetY"
	ParamTargetZ          = "targetZ"
)

// FrameParams are the per-frame values of the steering kernels.
var FrameParams = []string{
	ParamDeltaTime,
	ParamSeparationWeight,
	ParamAlignmentWeight,
	ParamTargetWeight,
	ParamMoveSpeed,
	ParamTargetX,
	ParamTargetY,
	ParamTargetZ,
}

const (
	DefaultSteerGroupSize = 32
	DefaultCopyGroupSize  = 64
)

// All returns the reference kernel set with the given reduction block size
// and steering group size.
func All(blockSize, steerGroupSize int) []device.Kernel {
	return []device.Kernel{
		NewReduce(blockSize),
		NewSteer(steerGroupSize),
		NewNaive(steerGroupSize),
		NewCopy(DefaultCopyGroupSize),
	}
}

// span returns the element range of group g, clipped to count.
func span(g int, inv *device.Invocation, count int) (start, end int) {
	start = g * inv.GroupSize
	end = min(start+inv.GroupSize, count)
	return start, end
}

// need checks that a buffer can hold n elements.
func need(slot string, buf []boid.State, n int) error {
	if len(buf) < n {
		return fmt.Errorf("buffer %q holds %d elements, %d addressed", slot, len(buf), n)
	}
	return nil
}

func settings(inv *device.Invocation) behavior.Settings {
	return behavior.Settings{
		DeltaTime:        float32(inv.Scalar(ParamDeltaTime)),
		SeparationWeight: float32(inv.Scalar(ParamSeparationWeight)),
		AlignmentWeight:  float32(inv.Scalar(ParamAlignmentWeight)),
		TargetWeight:     float32(inv.Scalar(ParamTargetWeight)),
		MoveSpeed:        float32(inv.Scalar(ParamMoveSpeed)),
		Target: mgl32.Vec3{
			float32(inv.Scalar(ParamTargetX)),
			float32(inv.Scalar(ParamTargetY)),
			float32(inv.Scalar(ParamTargetZ)),
		},
	}
}
