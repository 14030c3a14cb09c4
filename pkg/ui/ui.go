// Package ui provides the small set of ebiten widgets the flock demo uses
// for its runtime control panel: slider, checkbox, button, and a panel that
// stacks them vertically.
package ui

import "github.com/hajimehoshi/ebiten/v2"

// Widget is anything the panel can lay out and drive each frame.
type Widget interface {
	Update()
	Draw(screen *ebiten.Image)
	// Height is the vertical space the widget occupies in the panel,
	// label included.
	Height() float64
	setPos(x, y float64)
}

// hovered reports whether the cursor is inside the given rectangle.
func hovered(x, y, w, h float64) bool {
	mx, my := ebiten.CursorPosition()
	return float64(mx) >= x && float64(mx) <= x+w &&
		float64(my) >= y && float64(my) <= y+h
}
