package ui

import (
	"testing"
)

func TestSlider_Handle(t *testing.T) {
	var got []float64
	p := NewPanel(0, 0, 220, "Test")
	s := p.AddSlider("Weight", 0, 1, 0.5, func(v float64) { got = append(got, v) })
	// Track spans x in [10, 210] right under its label.
	y := s.track.Y + 1

	tests := []struct {
		name  string
		ptr   Pointer
		want  float64
		calls int
	}{
		{"Hover does nothing", Pointer{X: 60, Y: y}, 0.5, 0},
		{"Click left quarter", Pointer{X: 60, Y: y, Pressed: true}, 0.25, 1},
		{"Same value does not notify", Pointer{X: 60, Y: y, Pressed: true}, 0.25, 1},
		{"Click right edge", Pointer{X: 210, Y: y, Pressed: true}, 1, 2},
		{"Outside the track", Pointer{X: 100, Y: y + 100, Pressed: true}, 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p.Handle(tt.ptr)
			if s.Value != tt.want {
				t.Errorf("Expected value %v, got %v", tt.want, s.Value)
			}
			if len(got) != tt.calls {
				t.Errorf("Expected %d notifications, got %d", tt.calls, len(got))
			}
		})
	}
}

func TestSlider_ClampsInitialValue(t *testing.T) {
	s := NewSlider("Speed", 1, 10, 42, nil)
	if s.Value != 10 {
		t.Errorf("Expected 10, got %v", s.Value)
	}
	if s.Ratio() != 1 {
		t.Errorf("Expected ratio 1, got %v", s.Ratio())
	}
	if r := NewSlider("Flat", 3, 3, 3, nil).Ratio(); r != 0 {
		t.Errorf("Expected ratio 0 on an empty range, got %v", r)
	}
}

func TestCheckbox_TogglesOncePerPress(t *testing.T) {
	p := NewPanel(0, 0, 200, "Test")
	changes := 0
	c := p.AddCheckbox("Orbit", false, func(bool) { changes++ })
	inside := Pointer{X: c.box.X + 4, Y: c.box.Y + 4, Pressed: true}

	p.Handle(inside)
	p.Handle(inside)
	if !c.Value || changes != 1 {
		t.Fatalf("Expected a single toggle while held, got value=%v changes=%d", c.Value, changes)
	}

	inside.Pressed = false
	p.Handle(inside)
	inside.Pressed = true
	p.Handle(inside)
	if c.Value || changes != 2 {
		t.Errorf("Expected second press to toggle back, got value=%v changes=%d", c.Value, changes)
	}
}

func TestButton_ClickOnce(t *testing.T) {
	p := NewPanel(0, 0, 200, "Test")
	clicks := 0
	b := p.AddButton("Respawn", func() { clicks++ })
	ptr := Pointer{X: b.area.X + 5, Y: b.area.Y + 5, Pressed: true}

	p.Handle(ptr)
	p.Handle(ptr)
	if clicks != 1 {
		t.Errorf("Expected 1 click while held, got %d", clicks)
	}
	p.Handle(Pointer{})
	p.Handle(ptr)
	if clicks != 2 {
		t.Errorf("Expected 2 clicks, got %d", clicks)
	}
}

func TestPanel_StacksWidgets(t *testing.T) {
	p := NewPanel(5, 5, 200, "Test")
	s := p.AddSlider("A", 0, 1, 0, nil)
	c := p.AddCheckbox("B", false, nil)
	b := p.AddButton("C", nil)

	if !(s.track.Y < c.box.Y && c.box.Y < b.area.Y) {
		t.Errorf("Expected widgets stacked top to bottom: %v %v %v", s.track.Y, c.box.Y, b.area.Y)
	}
	want := float64(titleHeight+margin) + s.Height() + c.Height() + b.Height()
	if p.Height() != want {
		t.Errorf("Expected height %v, got %v", want, p.Height())
	}
}
