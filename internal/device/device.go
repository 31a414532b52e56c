// Package device defines the contract between the host-side drivers and the
// compute device that owns particle buffers and runs kernels, plus a CPU
// reference backend.
//
// Commands are submitted fire-and-forget to a single ordered queue: a
// dispatch submitted after another always observes its writes. The host only
// waits through Fence and ReadBack.
package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/lao-tseu-is-alive/go-boids-gpu/pkg/boid"
)

var (
	ErrKernelNotFound = errors.New("kernel not found")
	ErrZeroGroupSize  = errors.New("kernel declares a zero thread-group size")
	ErrUnboundBuffer  = errors.New("kernel buffer slot not bound")
	ErrUnboundParam   = errors.New("kernel parameter not bound")
	ErrUnknownParam   = errors.New("parameter not declared by kernel")
	ErrUnknownBuffer  = errors.New("unknown buffer")
	ErrUnknownBinding = errors.New("unknown binding")
	ErrBufferBound    = errors.New("buffer already referenced by a binding")
	ErrOutOfMemory    = errors.New("device out of memory")
	ErrInvalidGroups  = errors.New("invalid group count")
	ErrDeviceFault    = errors.New("device fault")
	ErrClosed         = errors.New("device closed")
)

// BufferID is a handle to a device buffer of boid.State elements.
type BufferID uint32

// BindingID is a handle to a resolved Binding.
type BindingID uint32

// Remainder decides what happens to elements that do not fill a whole group.
type Remainder string

const (
	// RemainderDrop truncates the group count, leaving trailing elements
	// unprocessed.
	RemainderDrop Remainder = "drop"
	// RemainderPad rounds the group count up; kernels bounds-check the
	// trailing group.
	RemainderPad Remainder = "pad"
)

// Valid reports whether r is a known policy.
func (r Remainder) Valid() bool {
	return r == RemainderDrop || r == RemainderPad
}

// Groups computes the number of thread groups covering n elements.
func Groups(n, groupSize int, policy Remainder) (int, error) {
	if groupSize <= 0 {
		return 0, ErrZeroGroupSize
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %d elements", ErrInvalidGroups, n)
	}
	if policy == RemainderPad {
		return (n + groupSize - 1) / groupSize, nil
	}
	return n / groupSize, nil
}

// Invocation is what a kernel sees while one of its groups runs.
type Invocation struct {
	GroupSize int
	Groups    int
	Buffers   map[string][]boid.State
	Scalars   map[string]float64
}

// Buffer returns the buffer bound to slot.
func (inv *Invocation) Buffer(slot string) []boid.State {
	return inv.Buffers[slot]
}

// Scalar returns the value bound to name.
func (inv *Invocation) Scalar(name string) float64 {
	return inv.Scalars[name]
}

// Int returns the value bound to name truncated to an int.
func (inv *Invocation) Int(name string) int {
	return int(inv.Scalars[name])
}

// Kernel is a compute program. RunGroup processes one thread group and must
// only write elements owned by that group.
type Kernel interface {
	Name() string
	GroupSize() int
	Buffers() []string
	Params() []string
	RunGroup(group int, inv *Invocation) error
}

// Trace describes an executed dispatch.
type Trace struct {
	Seq     uint64
	Kernel  string
	Binding BindingID
	Groups  int
	Values  map[string]float64
}

// Device is the host view of a compute device.
type Device interface {
	Name() string

	// Allocate creates a zeroed buffer of n elements.
	Allocate(n int) (BufferID, error)
	// Write uploads data into a buffer that no binding references yet.
	Write(id BufferID, data []boid.State) error
	// Release queues the destruction of a buffer after all prior commands.
	Release(id BufferID) error

	// GroupSize returns the thread-group size declared by a kernel.
	GroupSize(kernel string) (int, error)
	// Bind resolves and validates a binding against its kernel.
	Bind(b Binding) (BindingID, error)
	// Unbind queues the removal of a binding after all prior commands.
	Unbind(id BindingID) error
	// Dispatch queues groups of the bound kernel with the dynamic values.
	Dispatch(id BindingID, groups int, values map[string]float64) error

	// Fence waits until every command submitted so far has executed and
	// returns the latched device fault, if any.
	Fence(ctx context.Context) error
	// ReadBack copies a buffer once prior commands have executed.
	ReadBack(ctx context.Context, id BufferID) ([]boid.State, error)
	// Err returns the latched device fault without waiting.
	Err() error

	Close(ctx context.Context) error
}
