// Package ui is a minimal immediate-style control panel drawn with ebiten.
package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// Pointer is the mouse state of one frame.
type Pointer struct {
	X, Y    float64
	Pressed bool
}

// CurrentPointer reads the mouse from ebiten.
func CurrentPointer() Pointer {
	mx, my := ebiten.CursorPosition()
	return Pointer{
		X:       float64(mx),
		Y:       float64(my),
		Pressed: ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
	}
}

type rect struct {
	X, Y, W, H float64
}

func (r rect) contains(p Pointer) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Widget is a control stacked in a Panel.
type Widget interface {
	Handle(p Pointer)
	Draw(screen *ebiten.Image)
	// Height is the vertical space the widget needs, label included.
	Height() float64
	place(x, y, width float64)
}

var (
	trackColor  = color.RGBA{R: 80, G: 80, B: 80, A: 255}
	fillColor   = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	borderColor = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	checkColor  = color.RGBA{R: 100, G: 200, B: 100, A: 255}
)
