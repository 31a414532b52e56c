// Package store seeds the initial particle states and uploads them to a
// device buffer.
package store

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/device"
	"github.com/lao-tseu-is-alive/go-boids-gpu/pkg/boid"
	"github.com/lao-tseu-is-alive/go-boids-gpu/pkg/geometry"
	"go.uber.org/multierr"
)

// DefaultSeed keeps runs reproducible unless a seed is configured.
const DefaultSeed uint64 = 256

var (
	ErrInvalidCount  = errors.New("particle count must be positive")
	ErrInvalidExtent = errors.New("extent components must be positive")
)

// NewRNG returns the deterministic generator used for seeding.
func NewRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

// Seed draws count particles: positions uniform in [-extent, extent] on
// every axis, headings a uniformly random rotation of geometry.Forward.
// The same seed always yields the same states.
func Seed(count int, extent mgl32.Vec3, seed uint64) ([]boid.State, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	for _, e := range extent {
		if !(e > 0) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidExtent, extent)
		}
	}

	r := NewRNG(seed)
	states := make([]boid.State, count)
	for i := range states {
		states[i].Position = geometry.RandomInBox(r, extent)
		states[i].Heading = geometry.RandomRotation(r).Rotate(geometry.Forward).Normalize()
	}
	return states, nil
}

// Populate allocates a device buffer of count particles, then seeds and
// uploads them. The device memory check runs before any host-side seeding.
// The buffer is released again if seeding or the upload fails.
func Populate(dev device.Device, count int, extent mgl32.Vec3, seed uint64) (device.BufferID, error) {
	if count <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	id, err := dev.Allocate(count)
	if err != nil {
		return 0, fmt.Errorf("allocating particle buffer: %w", err)
	}
	states, err := Seed(count, extent, seed)
	if err != nil {
		return 0, multierr.Append(err, dev.Release(id))
	}
	if err := dev.Write(id, states); err != nil {
		return 0, multierr.Append(fmt.Errorf("uploading particles: %w", err), dev.Release(id))
	}
	return id, nil
}
