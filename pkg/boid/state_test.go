package boid

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestEncodeLayout(t *testing.T) {
	states := []State{
		{Position: mgl32.Vec3{1, 2, 3}, Heading: mgl32.Vec3{0, 0, 1}},
		{Position: mgl32.Vec3{-4, 5.5, -6}, Heading: mgl32.Vec3{1, 0, 0}},
	}
	buf := Encode(states)
	if len(buf) != 2*StateSize {
		t.Fatalf("Encode() produced %d bytes; want %d", len(buf), 2*StateSize)
	}
	// 1.0f little endian is 00 00 80 3f
	if buf[0] != 0x00 || buf[3] != 0x3f {
		t.Errorf("first float not little-endian 1.0: % x", buf[:4])
	}

	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	for i := range states {
		if got[i] != states[i] {
			t.Errorf("state %d = %v; want %v", i, got[i], states[i])
		}
	}
}

func TestDecodeRejectsPartialElement(t *testing.T) {
	if _, err := Decode(make([]byte, StateSize+3)); err == nil {
		t.Error("Decode() accepted a truncated element")
	}
}

func TestAdvance(t *testing.T) {
	s := State{Position: mgl32.Vec3{1, 1, 1}, Heading: mgl32.Vec3{0, 1, 0}}
	s.Advance(2.5)
	want := mgl32.Vec3{1, 3.5, 1}
	if !s.Position.ApproxEqual(want) {
		t.Errorf("Advance(2.5) position = %v; want %v", s.Position, want)
	}
}
