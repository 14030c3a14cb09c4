package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Checkbox toggles a boolean value on click.
type Checkbox struct {
	Label string
	Value bool

	x, y, size float64
	armed      bool // true while the press that toggled is still held
}

// NewCheckbox creates a checkbox with the given starting value.
func NewCheckbox(label string, value bool) *Checkbox {
	return &Checkbox{Label: label, Value: value, size: 14}
}

func (c *Checkbox) setPos(x, y float64) { c.x, c.y = x, y }

func (c *Checkbox) Height() float64 { return c.size + widgetGap }

// Update toggles on the press edge so holding the button does not flicker
// the value.
func (c *Checkbox) Update() {
	if hovered(c.x, c.y, c.size, c.size) && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if !c.armed {
			c.Value = !c.Value
			c.armed = true
		}
		return
	}
	c.armed = false
}

func (c *Checkbox) Draw(screen *ebiten.Image) {
	vector.StrokeRect(screen, float32(c.x), float32(c.y), float32(c.size), float32(c.size),
		2, color.RGBA{R: 200, G: 200, B: 200, A: 255}, true)
	if c.Value {
		vector.FillRect(screen, float32(c.x+2), float32(c.y+2), float32(c.size-4), float32(c.size-4),
			color.RGBA{R: 100, G: 200, B: 100, A: 255}, true)
	}
	ebitenutil.DebugPrintAt(screen, c.Label, int(c.x+c.size+6), int(c.y))
}
