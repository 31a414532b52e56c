package kernels

import (
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/device"
	"github.com/lao-tseu-is-alive/go-boids-gpu/pkg/behavior"
)

// steerKernel updates every particle in place against the block aggregate
// covering it: particle i of count reads aggregate i*aggregateCount/count.
// With no aggregates only target seeking applies.
type steerKernel struct {
	groupSize int
}

func NewSteer(groupSize int) device.Kernel {
	return &steerKernel{groupSize: groupSize}
}

func (k *steerKernel) Name() string      { return Steer }
func (k *steerKernel) GroupSize() int    { return k.groupSize }
func (k *steerKernel) Buffers() []string { return []string{SlotParticles, SlotAggregates} }

func (k *steerKernel) Params() []string {
	return append([]string{ParamCount, ParamAggregateCount}, FrameParams...)
}

func (k *steerKernel) RunGroup(g int, inv *device.Invocation) error {
	count := inv.Int(ParamCount)
	aggregates := inv.Int(ParamAggregateCount)
	particles, agg := inv.Buffer(SlotParticles), inv.Buffer(SlotAggregates)
	start, end := span(g, inv, count)
	if start >= end {
		return nil
	}
	if err := need(SlotParticles, particles, end); err != nil {
		return err
	}
	if err := need(SlotAggregates, agg, aggregates); err != nil {
		return err
	}

	s := settings(inv)
	for i := start; i < end; i++ {
		var n behavior.Neighborhood
		if aggregates > 0 {
			n = behavior.FromAggregate(agg[i*aggregates/count])
		}
		particles[i] = behavior.Steer(particles[i], n, s)
	}
	return nil
}
