package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const buttonHeight = 20

// Button runs OnClick once per press.
type Button struct {
	Label   string
	OnClick func()

	area  rect
	held  bool
	hover bool
}

var (
	buttonColor = color.RGBA{R: 80, G: 120, B: 180, A: 255}
	hoverColor  = color.RGBA{R: 100, G: 150, B: 220, A: 255}
)

func NewButton(label string, onClick func()) *Button {
	return &Button{Label: label, OnClick: onClick}
}

func (b *Button) Handle(p Pointer) {
	b.hover = b.area.contains(p)
	if !p.Pressed || !b.hover {
		b.held = false
		return
	}
	if !b.held && b.OnClick != nil {
		b.OnClick()
	}
	b.held = true
}

func (b *Button) Draw(screen *ebiten.Image) {
	bg := buttonColor
	if b.hover {
		bg = hoverColor
	}
	vector.FillRect(screen, float32(b.area.X), float32(b.area.Y), float32(b.area.W), float32(b.area.H), bg, true)
	vector.StrokeRect(screen, float32(b.area.X), float32(b.area.Y), float32(b.area.W), float32(b.area.H), 2, borderColor, true)
	ebitenutil.DebugPrintAt(screen, b.Label, int(b.area.X+6), int(b.area.Y+3))
}

func (b *Button) Height() float64 { return buttonHeight + 6 }

func (b *Button) place(x, y, width float64) {
	b.area = rect{X: x, Y: y, W: width, H: buttonHeight}
}
