package kernels

import (
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/device"
	"github.com/lao-tseu-is-alive/go-boids-gpu/pkg/behavior"
)

// reduceKernel averages each block of blockSize input elements into one
// output element. Elements at or beyond count are ignored, so a trailing
// partial block averages only what it holds.
type reduceKernel struct {
	blockSize int
}

func NewReduce(blockSize int) device.Kernel {
	return &reduceKernel{blockSize: blockSize}
}

func (k *reduceKernel) Name() string      { return Reduce }
func (k *reduceKernel) GroupSize() int    { return k.blockSize }
func (k *reduceKernel) Buffers() []string { return []string{SlotInput, SlotOutput} }
func (k *reduceKernel) Params() []string  { return []string{ParamCount} }

func (k *reduceKernel) RunGroup(g int, inv *device.Invocation) error {
	count := inv.Int(ParamCount)
	in, out := inv.Buffer(SlotInput), inv.Buffer(SlotOutput)
	start, end := span(g, inv, count)
	if start >= end {
		return nil
	}
	if err := need(SlotInput, in, end); err != nil {
		return err
	}
	if err := need(SlotOutput, out, g+1); err != nil {
		return err
	}

	var n behavior.Neighborhood
	for _, s := range in[start:end] {
		n.Accumulate(s)
	}
	n.Mean()
	out[g].Position = n.Center
	out[g].Heading = n.Heading
	return nil
}
