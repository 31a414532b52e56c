// Package engine sequences a boids session: activation allocates and binds
// everything once, each tick submits the reduction then the steering
// dispatches, deactivation releases it all.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/config"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/device"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/reduction"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/render"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/steering"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/store"
	"github.com/lao-tseu-is-alive/go-boids-gpu/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-gpu/pkg/geometry"
	"github.com/tochemey/goakt/v3/log"
	"go.uber.org/multierr"
)

var (
	ErrInvalidCount     = store.ErrInvalidCount
	ErrInvalidExtent    = store.ErrInvalidExtent
	ErrInvalidBlockSize = reduction.ErrInvalidBlockSize
	ErrDeviceFault      = device.ErrDeviceFault
	ErrNotActive        = errors.New("simulation is not active")
	ErrAlreadyActive    = errors.New("simulation is already active")
)

type Mode string

const (
	// ModeReduction reduces the flock to block aggregates before steering.
	ModeReduction Mode = "reduction"
	// ModeNaive steers every particle against every other one.
	ModeNaive Mode = "naive"
)

type State int

const (
	Inactive State = iota
	Active
	Failed
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Active:
		return "active"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Options struct {
	Mode      Mode
	Remainder device.Remainder
	Seed      uint64
	// Origin is where the target falls back to when none is configured.
	Origin mgl32.Vec3
}

func DefaultOptions() Options {
	return Options{
		Mode:      ModeReduction,
		Remainder: device.RemainderPad,
		Seed:      store.DefaultSeed,
	}
}

// FrameReport describes what a tick submitted.
type FrameReport struct {
	Frame       uint64
	DeltaTime   float32
	Passes      int
	Aggregates  int
	SteerGroups int
	Target      mgl32.Vec3
	Submit      time.Duration
}

// Orchestrator owns every buffer and binding of a session. It is driven by
// a single goroutine.
type Orchestrator struct {
	dev       device.Device
	live      *config.Live
	presenter render.Presenter
	logger    log.Logger
	opts      Options

	state     State
	count     int
	particles device.BufferID
	scratch   []device.BufferID
	reduction *reduction.Driver
	steering  *steering.Driver
	frame     uint64
}

// New creates an inactive orchestrator. presenter may be nil.
func New(dev device.Device, live *config.Live, presenter render.Presenter, logger log.Logger, opts Options) *Orchestrator {
	if opts.Mode == "" {
		opts.Mode = ModeReduction
	}
	if opts.Remainder == "" {
		opts.Remainder = device.RemainderPad
	}
	return &Orchestrator{
		dev:       dev,
		live:      live,
		presenter: presenter,
		logger:    logger,
		opts:      opts,
	}
}

func (o *Orchestrator) State() State { return o.state }

// Count returns the particle count of the session, a power of two.
func (o *Orchestrator) Count() int { return o.count }

// SetOrigin moves the owner the target falls back to.
func (o *Orchestrator) SetOrigin(p mgl32.Vec3) { o.opts.Origin = p }

// View returns what was presented to the renderer.
func (o *Orchestrator) View() (render.View, bool) {
	if o.state != Active {
		return render.View{}, false
	}
	return render.View{Buffer: o.particles, Count: o.count}, true
}

// Aggregates returns the buffer the steering pass reads and how many of its
// elements are meaningful. Only reduction sessions have one.
func (o *Orchestrator) Aggregates() (device.BufferID, int, bool) {
	if o.reduction == nil {
		return 0, 0, false
	}
	id, n := o.reduction.Result()
	return id, n, true
}

// Activate seeds count particles (rounded up to a power of two) within
// extent, allocates the scratch buffers and binds every dispatch. On error
// nothing stays allocated.
func (o *Orchestrator) Activate(count int, extent mgl32.Vec3) (err error) {
	switch o.state {
	case Active:
		return ErrAlreadyActive
	case Failed:
		return fmt.Errorf("deactivate the failed session first: %w", ErrDeviceFault)
	}
	if err := o.dev.Err(); err != nil {
		return err
	}
	if count <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	if o.opts.Mode != ModeReduction && o.opts.Mode != ModeNaive {
		return fmt.Errorf("unknown mode %q", o.opts.Mode)
	}
	if !o.opts.Remainder.Valid() {
		return fmt.Errorf("unknown remainder policy %q", o.opts.Remainder)
	}

	n := geometry.CeilPow2(count)
	defer func() {
		if err != nil {
			err = multierr.Append(err, o.release())
		}
	}()

	if o.particles, err = store.Populate(o.dev, n, extent, o.opts.Seed); err != nil {
		return err
	}
	o.count = n

	switch o.opts.Mode {
	case ModeReduction:
		var pair [2]device.BufferID
		for i := range pair {
			if pair[i], err = o.allocateScratch(n); err != nil {
				return err
			}
		}
		if o.reduction, err = reduction.NewDriver(o.dev, o.particles, pair, n, o.opts.Remainder); err != nil {
			return err
		}
		result, aggregates := o.reduction.Result()
		if o.steering, err = steering.NewDriver(o.dev, o.particles, result, n, aggregates, o.opts.Remainder); err != nil {
			return err
		}
		o.logger.Infof("Activated %d boids (requested %d) on %s: reduction passes %v, %d aggregates",
			n, count, o.dev.Name(), o.reduction.Passes(), aggregates)

	case ModeNaive:
		var previous device.BufferID
		if previous, err = o.allocateScratch(n); err != nil {
			return err
		}
		if o.steering, err = steering.NewNaiveDriver(o.dev, o.particles, previous, n, o.opts.Remainder); err != nil {
			return err
		}
		o.logger.Infof("Activated %d boids (requested %d) on %s in naive mode", n, count, o.dev.Name())
	}

	o.state = Active
	o.frame = 0
	if o.presenter != nil {
		o.presenter.Present(render.View{Buffer: o.particles, Count: n})
	}
	return nil
}

func (o *Orchestrator) allocateScratch(n int) (device.BufferID, error) {
	id, err := o.dev.Allocate(n)
	if err != nil {
		return 0, fmt.Errorf("allocating scratch buffer: %w", err)
	}
	o.scratch = append(o.scratch, id)
	return id, nil
}

// Tick submits one frame: the reduction over the particle buffer, then the
// steering dispatch reading its result. It does not wait for the device.
func (o *Orchestrator) Tick(dt float32) (FrameReport, error) {
	switch o.state {
	case Inactive:
		return FrameReport{}, ErrNotActive
	case Failed:
		return FrameReport{}, fmt.Errorf("session terminated: %w", ErrDeviceFault)
	}
	if err := o.dev.Err(); err != nil {
		o.fail(err)
		return FrameReport{}, err
	}

	sim := o.live.Load()
	s := behavior.Settings{
		DeltaTime:        dt,
		SeparationWeight: sim.SeparationWeight,
		AlignmentWeight:  sim.AlignmentWeight,
		TargetWeight:     sim.TargetWeight,
		MoveSpeed:        sim.MoveSpeed,
		Target:           o.opts.Origin,
	}
	if sim.Target != nil {
		s.Target = *sim.Target
	}

	report := FrameReport{
		Frame:       o.frame,
		DeltaTime:   dt,
		SteerGroups: o.steering.Groups(),
		Target:      s.Target,
	}
	start := time.Now()
	if o.reduction != nil {
		if err := o.reduction.Run(); err != nil {
			o.fail(err)
			return report, err
		}
		report.Passes = len(o.reduction.Passes())
		_, report.Aggregates = o.reduction.Result()
	}
	if err := o.steering.Steer(s); err != nil {
		o.fail(err)
		return report, err
	}
	report.Submit = time.Since(start)

	o.frame++
	return report, nil
}

func (o *Orchestrator) fail(err error) {
	o.state = Failed
	o.logger.Errorf("Session terminated after %d frames: %v", o.frame, err)
}

// Deactivate withdraws the view and releases every binding and buffer.
// The orchestrator is inactive afterwards even if releasing failed.
func (o *Orchestrator) Deactivate() error {
	if o.state == Inactive {
		return ErrNotActive
	}
	if o.presenter != nil {
		o.presenter.Withdraw()
	}
	err := o.release()
	o.state = Inactive
	o.logger.Infof("Deactivated after %d frames", o.frame)
	return err
}

// release drops drivers before the buffers they reference.
func (o *Orchestrator) release() error {
	var err error
	if o.steering != nil {
		err = multierr.Append(err, o.steering.Release())
		o.steering = nil
	}
	if o.reduction != nil {
		err = multierr.Append(err, o.reduction.Release())
		o.reduction = nil
	}
	for _, id := range o.scratch {
		err = multierr.Append(err, o.dev.Release(id))
	}
	o.scratch = nil
	if o.particles != 0 {
		err = multierr.Append(err, o.dev.Release(o.particles))
		o.particles = 0
	}
	o.count = 0
	return err
}
