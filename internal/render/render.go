// Package render is the hand-off between the simulation and whatever draws
// the particles. The simulation only publishes which device buffer holds the
// particles; a presenter reads it back on its own schedule.
package render

import (
	"context"
	"sync"

	"github.com/lao-tseu-is-alive/go-boids-gpu/internal/device"
	"github.com/lao-tseu-is-alive/go-boids-gpu/pkg/boid"
)

// View identifies the particles to draw.
type View struct {
	Buffer device.BufferID
	Count  int
}

// Presenter receives a View once per activation and is told when it is no
// longer valid.
type Presenter interface {
	Present(v View)
	Withdraw()
}

// Fetch reads the particles of v. It waits for every submitted frame.
func Fetch(ctx context.Context, dev device.Device, v View) ([]boid.State, error) {
	states, err := dev.ReadBack(ctx, v.Buffer)
	if err != nil {
		return nil, err
	}
	if len(states) > v.Count {
		states = states[:v.Count]
	}
	return states, nil
}

// Capture is a Presenter that remembers what it was given.
type Capture struct {
	mu        sync.Mutex
	current   *View
	presented int
	withdrawn int
}

func (c *Capture) Present(v View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = &v
	c.presented++
}

func (c *Capture) Withdraw() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	c.withdrawn++
}

// Current returns the presented view, if one is live.
func (c *Capture) Current() (View, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return View{}, false
	}
	return *c.current, true
}

// Counts returns how many times Present and Withdraw were called.
func (c *Capture) Counts() (presented, withdrawn int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.presented, c.withdrawn
}
