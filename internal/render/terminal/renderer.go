// Package terminal draws a scene top-down on a tcell screen and drives it
// from the keyboard.
package terminal

import (
	"math"

	"github.com/gdamore/tcell/v2"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/signalsfoundry/orrery-simulator/core"
	"github.com/signalsfoundry/orrery-simulator/internal/render"
)

// Renderer records shape commands from a Scene and paints them onto a tcell
// screen. Commands arrive under the scene lock, drawing happens on the UI
// goroutine.
type Renderer struct {
	*render.Store
}

var _ core.Renderer = (*Renderer)(nil)

// NewRenderer returns an empty renderer.
func NewRenderer() *Renderer {
	return &Renderer{Store: render.NewStore()}
}

// View is the part of the scene mapped onto the screen. Terminal cells are
// about twice as tall as wide, so a row covers two columns' worth of units.
type View struct {
	Center       core.Vec3
	UnitsPerCell float64
}

func (v View) project(p core.Vec3, w, h int) (int, int) {
	col := w/2 + int(math.Round((p.X-v.Center.X)/v.UnitsPerCell))
	row := h/2 - int(math.Round((p.Y-v.Center.Y)/(2*v.UnitsPerCell)))
	return col, row
}

// Draw paints every shape onto screen: orbit paths first, then rings, then
// bodies. It does not call Show.
func (r *Renderer) Draw(screen tcell.Screen, v View) {
	if !(v.UnitsPerCell > 0) {
		return
	}
	w, h := screen.Size()

	for _, s := range r.Shapes() {
		style := styleFor(s.Color)
		switch s.Kind {
		case render.Points:
			style = style.Dim(true)
			for _, p := range s.Points {
				put(screen, w, h, v, p, '·', style)
			}
		case render.Ring:
			n := max(16, int(8*s.Radius/v.UnitsPerCell))
			squash := math.Cos(s.TiltDeg * math.Pi / 180)
			for i := 0; i < n; i++ {
				sin, cos := math.Sincos(2 * math.Pi * float64(i) / float64(n))
				p := s.Position.Add(core.Vec3{X: s.Radius * cos, Y: s.Radius * squash * sin})
				put(screen, w, h, v, p, '~', style)
			}
		case render.Sphere:
			drawDisc(screen, w, h, v, s, style)
		}
	}
}

func drawDisc(screen tcell.Screen, w, h int, v View, s render.Shape, style tcell.Style) {
	cells := s.Radius / v.UnitsPerCell
	col, row := v.project(s.Position, w, h)
	if cells >= 1 {
		rc := int(math.Ceil(cells))
		for dy := -rc; dy <= rc; dy++ {
			for dx := -2 * rc; dx <= 2*rc; dx++ {
				fx, fy := float64(dx)/cells, float64(2*dy)/cells
				if fx*fx+fy*fy <= 1 {
					setCell(screen, w, h, col+dx, row+dy, '█', style)
				}
			}
		}
	}
	glyph := '●'
	if s.Name != "" {
		glyph = []rune(s.Name)[0]
	}
	setCell(screen, w, h, col, row, glyph, style.Reverse(cells >= 1))
}

func put(screen tcell.Screen, w, h int, v View, p core.Vec3, ch rune, style tcell.Style) {
	col, row := v.project(p, w, h)
	setCell(screen, w, h, col, row, ch, style)
}

func setCell(screen tcell.Screen, w, h, col, row int, ch rune, style tcell.Style) {
	if col < 0 || row < 0 || col >= w || row >= h {
		return
	}
	screen.SetContent(col, row, ch, nil, style)
}

func styleFor(c colorful.Color) tcell.Style {
	r, g, b := c.Clamped().RGB255()
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
}
