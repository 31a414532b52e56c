package ui

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const boxSize = 16

// Checkbox toggles once per press.
type Checkbox struct {
	Label    string
	Value    bool
	OnChange func(bool)

	box  rect
	held bool
}

func NewCheckbox(label string, value bool, onChange func(bool)) *Checkbox {
	return &Checkbox{Label: label, Value: value, OnChange: onChange}
}

func (c *Checkbox) Handle(p Pointer) {
	if !p.Pressed || !c.box.contains(p) {
		c.held = false
		return
	}
	if c.held {
		return
	}
	c.held = true
	c.Value = !c.Value
	if c.OnChange != nil {
		c.OnChange(c.Value)
	}
}

func (c *Checkbox) Draw(screen *ebiten.Image) {
	vector.StrokeRect(screen, float32(c.box.X), float32(c.box.Y), boxSize, boxSize, 2, borderColor, true)
	if c.Value {
		vector.FillRect(screen, float32(c.box.X+2), float32(c.box.Y+2), boxSize-4, boxSize-4, checkColor, true)
	}
	ebitenutil.DebugPrintAt(screen, c.Label, int(c.box.X+boxSize+6), int(c.box.Y))
}

func (c *Checkbox) Height() float64 { return boxSize + 6 }

func (c *Checkbox) place(x, y, _ float64) {
	c.box = rect{X: x, Y: y, W: boxSize, H: boxSize}
}
