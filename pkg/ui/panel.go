package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	labelHeight = 16
	widgetGap   = 8
	panelPad    = 10
	titleHeight = 22
)

// Panel stacks widgets vertically at a fixed position. Widgets are laid out
// once when added.
type Panel struct {
	Title string

	x, y, width float64
	widgets     []Widget
	nextY       float64

	bgColor     color.RGBA
	borderColor color.RGBA
}

// NewPanel creates an empty panel anchored at (x, y).
func NewPanel(title string, x, y, width float64) *Panel {
	return &Panel{
		Title:       title,
		x:           x,
		y:           y,
		width:       width,
		nextY:       y + titleHeight,
		bgColor:     color.RGBA{R: 40, G: 40, B: 45, A: 230},
		borderColor: color.RGBA{R: 100, G: 100, B: 110, A: 255},
	}
}

// AddSlider appends a slider spanning the panel width and returns it so the
// caller can read Value each frame.
func (p *Panel) AddSlider(label string, min, max, value float64) *Slider {
	s := NewSlider(label, min, max, value)
	s.w = p.width - 2*panelPad
	p.add(s)
	return s
}

// AddCheckbox appends a checkbox and returns it.
func (p *Panel) AddCheckbox(label string, value bool) *Checkbox {
	c := NewCheckbox(label, value)
	p.add(c)
	return c
}

// AddButton appends a button and returns it.
func (p *Panel) AddButton(label string, onClick func()) *Button {
	b := NewButton(label, onClick)
	b.w = p.width - 2*panelPad
	p.add(b)
	return b
}

func (p *Panel) add(w Widget) {
	w.setPos(p.x+panelPad, p.nextY)
	p.nextY += w.Height()
	p.widgets = append(p.widgets, w)
}

// Update drives input handling for every widget.
func (p *Panel) Update() {
	for _, w := range p.widgets {
		w.Update()
	}
}

// Draw renders the background, title and widgets.
func (p *Panel) Draw(screen *ebiten.Image) {
	height := p.nextY - p.y + panelPad
	vector.FillRect(screen, float32(p.x), float32(p.y), float32(p.width), float32(height),
		p.bgColor, true)
	vector.StrokeRect(screen, float32(p.x), float32(p.y), float32(p.width), float32(height),
		2, p.borderColor, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.x+panelPad), int(p.y+4))

	for _, w := range p.widgets {
		w.Draw(screen)
	}
}
