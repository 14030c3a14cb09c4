package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Button fires OnClick once per press.
type Button struct {
	Label   string
	OnClick func()

	x, y, w, h float64
	armed      bool
}

// NewButton creates a button invoking onClick on each click.
func NewButton(label string, onClick func()) *Button {
	return &Button{Label: label, OnClick: onClick, h: 20}
}

func (b *Button) setPos(x, y float64) { b.x, b.y = x, y }

func (b *Button) Height() float64 { return b.h + widgetGap }

func (b *Button) Update() {
	if hovered(b.x, b.y, b.w, b.h) && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if !b.armed {
			if b.OnClick != nil {
				b.OnClick()
			}
			b.armed = true
		}
		return
	}
	b.armed = false
}

func (b *Button) Draw(screen *ebiten.Image) {
	bg := color.RGBA{R: 80, G: 120, B: 180, A: 255}
	if hovered(b.x, b.y, b.w, b.h) {
		bg = color.RGBA{R: 100, G: 150, B: 220, A: 255}
	}
	vector.FillRect(screen, float32(b.x), float32(b.y), float32(b.w), float32(b.h), bg, true)
	vector.StrokeRect(screen, float32(b.x), float32(b.y), float32(b.w), float32(b.h),
		2, color.RGBA{R: 200, G: 200, B: 200, A: 255}, true)
	ebitenutil.DebugPrintAt(screen, b.Label, int(b.x+8), int(b.y+3))
}
