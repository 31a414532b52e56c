package config

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"
)

var ErrWeightRange = errors.New("weight must be within [0, 1]")

// Simulation is the part of the configuration the orchestrator re-reads at
// the start of every frame. A nil Target means the owner's origin.
type Simulation struct {
	MoveSpeed        float32
	SeparationWeight float32
	AlignmentWeight  float32
	TargetWeight     float32
	Target           *mgl32.Vec3
}

func (s Simulation) Validate() error {
	var err error
	for name, w := range map[string]float32{
		"separationWeight": s.SeparationWeight,
		"alignmentWeight":  s.AlignmentWeight,
		"targetWeight":     s.TargetWeight,
	} {
		if !(w >= 0 && w <= 1) {
			err = multierr.Append(err, fmt.Errorf("%w: %s is %v", ErrWeightRange, name, w))
		}
	}
	if s.MoveSpeed < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: moveSpeed must not be negative, got %v", ErrInvalid, s.MoveSpeed))
	}
	return err
}

// clone detaches the target so callers never share it.
func (s Simulation) clone() Simulation {
	if s.Target != nil {
		t := *s.Target
		s.Target = &t
	}
	return s
}

// Live holds the current Simulation values. A UI or control loop stores new
// values between frames; the orchestrator loads one snapshot per frame, so a
// frame never mixes values from two edits.
type Live struct {
	current atomic.Pointer[Simulation]
	// target is the target configured at creation, nil for the origin.
	target *mgl32.Vec3
}

func NewLive(s Simulation) (*Live, error) {
	l := &Live{target: s.clone().Target}
	if err := l.Store(s); err != nil {
		return nil, err
	}
	return l, nil
}

// Load returns a copy of the current values.
func (l *Live) Load() Simulation {
	return l.current.Load().clone()
}

// Store validates s and makes it current.
func (l *Live) Store(s Simulation) error {
	if err := s.Validate(); err != nil {
		return err
	}
	s = s.clone()
	l.current.Store(&s)
	return nil
}

// Update applies fn to a copy of the current values and stores the result.
func (l *Live) Update(fn func(*Simulation)) error {
	s := l.Load()
	fn(&s)
	return l.Store(s)
}

// ResetTarget drops any target set since creation and restores the
// configured one.
func (l *Live) ResetTarget() error {
	return l.Update(func(s *Simulation) {
		s.Target = nil
		if l.target != nil {
			t := *l.target
			s.Target = &t
		}
	})
}
