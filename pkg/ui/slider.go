package ui

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	labelHeight = 15
	trackHeight = 14
)

// Slider edits a float in [Min, Max]. OnChange runs when a drag moves the
// value.
type Slider struct {
	Label    string
	Value    float64
	Min, Max float64
	OnChange func(float64)

	track rect
}

func NewSlider(label string, min, max, value float64, onChange func(float64)) *Slider {
	s := &Slider{Label: label, Min: min, Max: max, OnChange: onChange}
	s.Value = s.clamp(value)
	return s
}

func (s *Slider) clamp(v float64) float64 {
	return max(s.Min, min(s.Max, v))
}

// Ratio is the filled fraction of the track.
func (s *Slider) Ratio() float64 {
	if s.Max == s.Min {
		return 0
	}
	return (s.Value - s.Min) / (s.Max - s.Min)
}

func (s *Slider) Handle(p Pointer) {
	if !p.Pressed || !s.track.contains(p) || s.track.W <= 0 {
		return
	}
	v := s.clamp(s.Min + (p.X-s.track.X)/s.track.W*(s.Max-s.Min))
	if v == s.Value {
		return
	}
	s.Value = v
	if s.OnChange != nil {
		s.OnChange(v)
	}
}

func (s *Slider) Draw(screen *ebiten.Image) {
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s: %.2f", s.Label, s.Value), int(s.track.X), int(s.track.Y-labelHeight))
	vector.FillRect(screen, float32(s.track.X), float32(s.track.Y), float32(s.track.W), float32(s.track.H), trackColor, true)
	vector.FillRect(screen, float32(s.track.X), float32(s.track.Y), float32(s.track.W*s.Ratio()), float32(s.track.H), fillColor, true)
}

func (s *Slider) Height() float64 { return labelHeight + trackHeight + 8 }

func (s *Slider) place(x, y, width float64) {
	s.track = rect{X: x, Y: y + labelHeight, W: width, H: trackHeight}
}
