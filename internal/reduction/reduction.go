// Package reduction drives the hierarchical block reduction: each pass
// averages blocks of blockSize elements, shrinking the working set until the
// remaining aggregates fit the steering pass.
package reduction

import (
	"errors"
	"fmt"

	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/device"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/kernels"
	"github.com/lao-tseu-is-alive/go-boids-gpu/pkg/geometry"
	"go.uber.org/multierr"
)

var ErrInvalidBlockSize = errors.New("block size must be a power of two greater than one")

// Schedule returns the element count of every pass over n elements.
//
// With RemainderDrop the passes stop at the first size smaller than
// blockSize, so a buffer smaller than one block is never reduced.
// With RemainderPad they continue until a single aggregate remains.
func Schedule(n, blockSize int, policy device.Remainder) ([]int, error) {
	if blockSize < 2 || !geometry.IsPow2(blockSize) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, blockSize)
	}
	var sizes []int
	switch policy {
	case device.RemainderDrop:
		for m := n; m >= blockSize; m /= blockSize {
			sizes = append(sizes, m)
		}
	case device.RemainderPad:
		for m := n; m > 1; m = (m + blockSize - 1) / blockSize {
			sizes = append(sizes, m)
		}
	default:
		return nil, fmt.Errorf("unknown remainder policy %q", policy)
	}
	return sizes, nil
}

type pass struct {
	size    int
	groups  int
	binding device.BindingID
}

// Driver owns the bindings of every pass. It never allocates: the particle
// buffer and the scratch pair belong to the caller.
type Driver struct {
	dev        device.Device
	passes     []pass
	result     device.BufferID
	aggregates int
}

// NewDriver resolves the schedule for count particles and binds every pass.
// Pass 0 reads source and writes scratch[0]; pass k reads scratch[(k-1)%2]
// and writes scratch[k%2], so no pass reads the buffer it writes.
func NewDriver(dev device.Device, source device.BufferID, scratch [2]device.BufferID, count int, policy device.Remainder) (*Driver, error) {
	blockSize, err := dev.GroupSize(kernels.Reduce)
	if err != nil {
		return nil, err
	}
	sizes, err := Schedule(count, blockSize, policy)
	if err != nil {
		return nil, err
	}

	d := &Driver{dev: dev, result: scratch[0]}
	input := source
	for k, size := range sizes {
		groups, err := device.Groups(size, blockSize, policy)
		if err != nil {
			return nil, multierr.Append(err, d.Release())
		}
		output := scratch[k%2]
		id, err := dev.Bind(device.Binding{
			Kernel: kernels.Reduce,
			Buffers: map[string]device.BufferID{
				kernels.SlotInput:  input,
				kernels.SlotOutput: output,
			},
			Constants: map[string]float64{kernels.ParamCount: float64(size)},
		})
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("binding reduction pass %d: %w", k, err), d.Release())
		}
		d.passes = append(d.passes, pass{size: size, groups: groups, binding: id})
		d.result, d.aggregates = output, groups
		input = output
	}
	return d, nil
}

// Run submits every pass in order. It does not wait for them to execute.
func (d *Driver) Run() error {
	for k, p := range d.passes {
		if err := d.dev.Dispatch(p.binding, p.groups, nil); err != nil {
			return fmt.Errorf("reduction pass %d: %w", k, err)
		}
	}
	return nil
}

// Result returns the buffer holding the final aggregates and how many of
// its leading elements are meaningful. With no passes the count is zero.
func (d *Driver) Result() (device.BufferID, int) {
	return d.result, d.aggregates
}

// Passes returns the element count of every pass.
func (d *Driver) Passes() []int {
	sizes := make([]int, len(d.passes))
	for i, p := range d.passes {
		sizes[i] = p.size
	}
	return sizes
}

// Release drops every pass binding.
func (d *Driver) Release() error {
	var err error
	for _, p := range d.passes {
		err = multierr.Append(err, d.dev.Unbind(p.binding))
	}
	d.passes = nil
	return err
}
