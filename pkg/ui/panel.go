package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	margin      = 10
	titleHeight = 25
)

// Panel stacks widgets vertically under a title.
type Panel struct {
	X, Y, Width float64
	Title       string
	Widgets     []Widget

	BGColor     color.RGBA
	BorderColor color.RGBA
}

func NewPanel(x, y, width float64, title string) *Panel {
	return &Panel{
		X:           x,
		Y:           y,
		Width:       width,
		Title:       title,
		BGColor:     color.RGBA{R: 40, G: 40, B: 45, A: 230},
		BorderColor: color.RGBA{R: 100, G: 100, B: 110, A: 255},
	}
}

// Add places w below the last widget.
func (p *Panel) Add(w Widget) {
	w.place(p.X+margin, p.Y+p.Height()-margin, p.Width-2*margin)
	p.Widgets = append(p.Widgets, w)
}

func (p *Panel) AddSlider(label string, min, max, value float64, onChange func(float64)) *Slider {
	s := NewSlider(label, min, max, value, onChange)
	p.Add(s)
	return s
}

func (p *Panel) AddCheckbox(label string, value bool, onChange func(bool)) *Checkbox {
	c := NewCheckbox(label, value, onChange)
	p.Add(c)
	return c
}

func (p *Panel) AddButton(label string, onClick func()) *Button {
	b := NewButton(label, onClick)
	p.Add(b)
	return b
}

// Height is the panel height with every widget.
func (p *Panel) Height() float64 {
	h := float64(titleHeight + margin)
	for _, w := range p.Widgets {
		h += w.Height()
	}
	return h
}

// Update feeds the current mouse state to every widget.
func (p *Panel) Update() {
	p.Handle(CurrentPointer())
}

func (p *Panel) Handle(ptr Pointer) {
	for _, w := range p.Widgets {
		w.Handle(ptr)
	}
}

func (p *Panel) Draw(screen *ebiten.Image) {
	h := float32(p.Height())
	vector.FillRect(screen, float32(p.X), float32(p.Y), float32(p.Width), h, p.BGColor, true)
	vector.StrokeRect(screen, float32(p.X), float32(p.Y), float32(p.Width), h, 2, p.BorderColor, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+margin), int(p.Y+5))
	for _, w := range p.Widgets {
		w.Draw(screen)
	}
}
