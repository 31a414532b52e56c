package boid

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// StateSize is the packed size in bytes of one State: two vec3 of float32.
// Every device buffer uses this element layout, particles and aggregates alike.
const StateSize = 6 * 4

// State is the per-boid record stored in device buffers.
// In an aggregate buffer the same layout holds the mean position and the
// mean (unnormalized) heading of a block.
type State struct {
	Position mgl32.Vec3
	Heading  mgl32.Vec3
}

// String implements the fmt.Stringer interface.
func (s State) String() string {
	return fmt.Sprintf("pos(%.2f, %.2f, %.2f) head(%.2f, %.2f, %.2f)",
		s.Position[0], s.Position[1], s.Position[2],
		s.Heading[0], s.Heading[1], s.Heading[2])
}

// Advance moves the state along its heading by distance.
func (s *State) Advance(distance float32) {
	s.Position = s.Position.Add(s.Heading.Mul(distance))
}

// Encode packs states contiguously as little-endian float32, the same layout
// a structured GPU buffer of State would use.
func Encode(states []State) []byte {
	buf := make([]byte, len(states)*StateSize)
	for i, s := range states {
		off := i * StateSize
		for c := 0; c < 3; c++ {
			binary.LittleEndian.PutUint32(buf[off+c*4:], math.Float32bits(s.Position[c]))
			binary.LittleEndian.PutUint32(buf[off+12+c*4:], math.Float32bits(s.Heading[c]))
		}
	}
	return buf
}

// Decode unpacks a buffer produced by Encode.
func Decode(buf []byte) ([]State, error) {
	if len(buf)%StateSize != 0 {
		return nil, fmt.Errorf("boid: buffer length %d is not a multiple of %d", len(buf), StateSize)
	}
	states := make([]State, len(buf)/StateSize)
	for i := range states {
		off := i * StateSize
		for c := 0; c < 3; c++ {
			states[i].Position[c] = math.Float32frombits(binary.LittleEndian.Uint32(buf[off+c*4:]))
			states[i].Heading[c] = math.Float32frombits(binary.LittleEndian.Uint32(buf[off+12+c*4:]))
		}
	}
	return states, nil
}
