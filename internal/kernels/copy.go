package kernels

import "github.com/lao-tseu-is-alive/go-boids-gpu/internal/device"

type copyKernel struct {
	groupSize int
}

// NewCopy returns a kernel copying count elements from source to destination.
func NewCopy(groupSize int) device.Kernel {
	return &copyKernel{groupSize: groupSize}
}

func (k *copyKernel) Name() string      { return Copy }
func (k *copyKernel) GroupSize() int    { return k.groupSize }
func (k *copyKernel) Buffers() []string { return []string{SlotSource, SlotDest} }
func (k *copyKernel) Params() []string  { return []string{ParamCount} }

func (k *copyKernel) RunGroup(g int, inv *device.Invocation) error {
	count := inv.Int(ParamCount)
	src, dst := inv.Buffer(SlotSource), inv.Buffer(SlotDest)
	start, end := span(g, inv, count)
	if start >= end {
		return nil
	}
	if err := need(SlotSource, src, end); err != nil {
		return err
	}
	if err := need(SlotDest, dst, end); err != nil {
		return err
	}
	copy(dst[start:end], src[start:end])
	return nil
}
