package ui

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Slider is a horizontal drag slider over [Min, Max].
type Slider struct {
	Label    string
	Value    float64
	Min, Max float64

	x, y, w, h float64
}

// NewSlider creates a slider with the given range and starting value.
func NewSlider(label string, min, max, value float64) *Slider {
	return &Slider{
		Label: label,
		Value: value,
		Min:   min,
		Max:   max,
		h:     12,
	}
}

func (s *Slider) setPos(x, y float64) { s.x, s.y = x, y+labelHeight }

func (s *Slider) Height() float64 { return s.h + labelHeight + widgetGap }

// Update maps a left-button drag inside the track to a value.
func (s *Slider) Update() {
	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		return
	}
	if !hovered(s.x, s.y, s.w, s.h) {
		return
	}
	mx, _ := ebiten.CursorPosition()
	p := (float64(mx) - s.x) / s.w
	s.Value = s.Min + p*(s.Max-s.Min)
	if s.Value < s.Min {
		s.Value = s.Min
	}
	if s.Value > s.Max {
		s.Value = s.Max
	}
}

// Draw renders the track, the filled portion and the label with the current
// value.
func (s *Slider) Draw(screen *ebiten.Image) {
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s: %.2f", s.Label, s.Value),
		int(s.x), int(s.y-labelHeight))

	vector.FillRect(screen, float32(s.x), float32(s.y), float32(s.w), float32(s.h),
		color.RGBA{R: 80, G: 80, B: 80, A: 255}, true)

	ratio := (s.Value - s.Min) / (s.Max - s.Min)
	vector.FillRect(screen, float32(s.x), float32(s.y), float32(s.w*ratio), float32(s.h),
		color.RGBA{R: 200, G: 200, B: 200, A: 255}, true)
}
