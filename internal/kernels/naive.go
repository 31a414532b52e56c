package kernels

import (
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/device"
	"github.com/lao-tseu-is-alive/go-boids-gpu/pkg/behavior"
)

// naiveKernel steers every particle against the whole flock, read from a
// snapshot of the previous frame. O(count²) per dispatch.
type naiveKernel struct {
	groupSize int
}

func NewNaive(groupSize int) device.Kernel {
	return &naiveKernel{groupSize: groupSize}
}

func (k *naiveKernel) Name() string      { return Naive }
func (k *naiveKernel) GroupSize() int    { return k.groupSize }
func (k *naiveKernel) Buffers() []string { return []string{SlotPrevious, SlotParticles} }

func (k *naiveKernel) Params() []string {
	return append([]string{ParamCount}, FrameParams...)
}

func (k *naiveKernel) RunGroup(g int, inv *device.Invocation) error {
	count := inv.Int(ParamCount)
	prev, particles := inv.Buffer(SlotPrevious), inv.Buffer(SlotParticles)
	start, end := span(g, inv, count)
	if start >= end {
		return nil
	}
	if err := need(SlotPrevious, prev, count); err != nil {
		return err
	}
	if err := need(SlotParticles, particles, end); err != nil {
		return err
	}

	s := settings(inv)
	for i := start; i < end; i++ {
		var n behavior.Neighborhood
		for j, other := range prev[:count] {
			if j != i {
				n.Accumulate(other)
			}
		}
		n.Mean()
		particles[i] = behavior.Steer(prev[i], n, s)
	}
	return nil
}
