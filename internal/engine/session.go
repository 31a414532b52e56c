package engine

import (
	"context"
	"fmt"

	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/config"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/device"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/kernels"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/render"
	"github.com/tochemey/goakt/v3/log"
	"go.uber.org/multierr"
)

// Session wires a CPU device, the reference kernels and an orchestrator
// from a configuration. It is what the command-line programs run.
type Session struct {
	Config       *config.Config
	Device       *device.CPU
	Live         *config.Live
	Orchestrator *Orchestrator
}

// NewSession starts the device. The orchestrator is left inactive.
func NewSession(ctx context.Context, cfg *config.Config, presenter render.Presenter, logger log.Logger, devOpts ...device.Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	live, err := config.NewLive(cfg.Simulation())
	if err != nil {
		return nil, err
	}
	opts := append([]device.Option{
		device.WithLogger(logger),
		device.WithMaxElements(cfg.MaxElements),
	}, devOpts...)
	dev, err := device.NewCPU(ctx, kernels.All(cfg.BlockSize, cfg.SteerGroupSize), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start device: %w", err)
	}
	orch := New(dev, live, presenter, logger, Options{
		Mode:      Mode(cfg.Mode),
		Remainder: device.Remainder(cfg.Remainder),
		Seed:      cfg.Seed,
	})
	return &Session{Config: cfg, Device: dev, Live: live, Orchestrator: orch}, nil
}

// Activate starts the orchestrator with the configured population.
func (s *Session) Activate() error {
	return s.Orchestrator.Activate(s.Config.BoidCount, s.Config.Extent())
}

// Close deactivates the orchestrator if needed and stops the device.
func (s *Session) Close(ctx context.Context) error {
	var err error
	if s.Orchestrator.State() != Inactive {
		err = s.Orchestrator.Deactivate()
	}
	return multierr.Append(err, s.Device.Close(ctx))
}
