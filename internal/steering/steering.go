// Package steering issues the per-frame steering dispatch.
package steering

import (
	"fmt"

	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/device"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/kernels"
	"github.com/lao-tseu-is-alive/go-boids-gpu/pkg/behavior"
	"go.uber.org/multierr"
)

type step struct {
	binding device.BindingID
	groups  int
	frame   bool // takes the per-frame values
}

// Driver submits the dispatches that move every particle one frame forward.
type Driver struct {
	dev   device.Device
	steps []step
}

// NewDriver binds the steering kernel to the particle buffer and the final
// reduction aggregates, of which the first aggregateCount are meaningful.
func NewDriver(dev device.Device, particles, aggregates device.BufferID, count, aggregateCount int, policy device.Remainder) (*Driver, error) {
	d := &Driver{dev: dev}
	err := d.add(kernels.Steer, count, policy, true, device.Binding{
		Kernel: kernels.Steer,
		Buffers: map[string]device.BufferID{
			kernels.SlotParticles:  particles,
			kernels.SlotAggregates: aggregates,
		},
		Constants: map[string]float64{
			kernels.ParamCount:          float64(count),
			kernels.ParamAggregateCount: float64(aggregateCount),
		},
		Dynamic: kernels.FrameParams,
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// NewNaiveDriver copies the particles into previous, then steers every
// particle against all of previous.
func NewNaiveDriver(dev device.Device, particles, previous device.BufferID, count int, policy device.Remainder) (*Driver, error) {
	d := &Driver{dev: dev}
	// A trailing partial group must always be copied.
	err := d.add(kernels.Copy, count, device.RemainderPad, false, device.Binding{
		Kernel: kernels.Copy,
		Buffers: map[string]device.BufferID{
			kernels.SlotSource: particles,
			kernels.SlotDest:   previous,
		},
		Constants: map[string]float64{kernels.ParamCount: float64(count)},
	})
	if err != nil {
		return nil, err
	}
	err = d.add(kernels.Naive, count, policy, true, device.Binding{
		Kernel: kernels.Naive,
		Buffers: map[string]device.BufferID{
			kernels.SlotPrevious:  previous,
			kernels.SlotParticles: particles,
		},
		Constants: map[string]float64{kernels.ParamCount: float64(count)},
		Dynamic:   kernels.FrameParams,
	})
	if err != nil {
		return nil, multierr.Append(err, d.Release())
	}
	return d, nil
}

func (d *Driver) add(kernel string, count int, policy device.Remainder, frame bool, b device.Binding) error {
	groupSize, err := d.dev.GroupSize(kernel)
	if err != nil {
		return err
	}
	groups, err := device.Groups(count, groupSize, policy)
	if err != nil {
		return fmt.Errorf("%s: %w", kernel, err)
	}
	id, err := d.dev.Bind(b)
	if err != nil {
		return fmt.Errorf("binding %s: %w", kernel, err)
	}
	d.steps = append(d.steps, step{binding: id, groups: groups, frame: frame})
	return nil
}

// Groups returns the group count of the steering dispatch.
func (d *Driver) Groups() int {
	return d.steps[len(d.steps)-1].groups
}

// Steer submits one frame. The values are copied into the submitted
// commands, so s may change as soon as Steer returns.
func (d *Driver) Steer(s behavior.Settings) error {
	values := Values(s)
	for _, st := range d.steps {
		var v map[string]float64
		if st.frame {
			v = values
		}
		if err := d.dev.Dispatch(st.binding, st.groups, v); err != nil {
			return err
		}
	}
	return nil
}

// Release drops the driver's bindings.
func (d *Driver) Release() error {
	var err error
	for _, st := range d.steps {
		err = multierr.Append(err, d.dev.Unbind(st.binding))
	}
	d.steps = nil
	return err
}

// Values flattens s into the dynamic parameters of the steering kernels.
func Values(s behavior.Settings) map[string]float64 {
	return map[string]float64{
		kernels.ParamDeltaTime:        float64(s.DeltaTime),
		kernels.ParamSeparationWeight: float64(s.SeparationWeight),
		kernels.ParamAlignmentWeight:  float64(s.AlignmentWeight),
		kernels.ParamTargetWeight:     float64(s.TargetWeight),
		kernels.ParamMoveSpeed:        float64(s.MoveSpeed),
		kernels.ParamTargetX:          float64(s.Target.X()),
		kernels.ParamTargetY:          float64(s.Target.Y()),
		kernels.ParamTargetZ:          float64(s.Target.Z()),
	}
}
