// Package raster renders a scene top-down into an RGBA image, with body
// labels set in the Go regular font.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/signalsfoundry/orrery-simulator/core"
	"github.com/signalsfoundry/orrery-simulator/internal/render"
)

const (
	defaultFontSize = 11
	labelGap        = 3
)

// Option customises a Canvas.
type Option func(*Canvas)

// WithBackground sets the fill colour.
func WithBackground(c colorful.Color) Option {
	return func(cv *Canvas) { cv.background = toRGBA(c) }
}

// WithLabels turns body name labels on or off. They are on by default.
func WithLabels(on bool) Option {
	return func(cv *Canvas) { cv.labels = on }
}

// WithFontSize sets the label size in points.
func WithFontSize(pt float64) Option {
	return func(cv *Canvas) {
		if pt > 0 {
			cv.fontSize = pt
		}
	}
}

// Canvas is a core.Renderer that draws into images on request.
type Canvas struct {
	*render.Store

	width, height int
	background    color.RGBA
	labels        bool
	fontSize      float64
	font          *truetype.Font
}

var _ core.Renderer = (*Canvas)(nil)

// New returns a width x height canvas.
func New(width, height int, opts ...Option) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: canvas size %dx%d", core.ErrInvalidConfiguration, width, height)
	}
	fnt, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse label font: %w", err)
	}
	cv := &Canvas{
		Store:      render.NewStore(),
		width:      width,
		height:     height,
		background: color.RGBA{A: 0xff},
		labels:     true,
		fontSize:   defaultFontSize,
		font:       fnt,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cv)
		}
	}
	return cv, nil
}

// View maps scene units onto pixels.
type View struct {
	Center        core.Vec3
	UnitsPerPixel float64
}

func (v View) project(p core.Vec3, w, h int) (float64, float64) {
	return float64(w)/2 + (p.X-v.Center.X)/v.UnitsPerPixel,
		float64(h)/2 - (p.Y-v.Center.Y)/v.UnitsPerPixel
}

// FitView centres on the origin and scales so every body fits.
func (c *Canvas) FitView() View {
	half := float64(min(c.width, c.height)) / 2
	return View{UnitsPerPixel: 1.05 * c.Extent() / half}
}

// FocusView centres on center showing radius scene units to the nearest edge.
func (c *Canvas) FocusView(center core.Vec3, radius float64) View {
	half := float64(min(c.width, c.height)) / 2
	return View{Center: center, UnitsPerPixel: radius / half}
}

// Render draws the recorded shapes: orbit paths, then rings, then bodies
// and their labels.
func (c *Canvas) Render(v View) (*image.RGBA, error) {
	if !(v.UnitsPerPixel > 0) || math.IsInf(v.UnitsPerPixel, 0) {
		return nil, fmt.Errorf("%w: units per pixel %v", core.ErrInvalidConfiguration, v.UnitsPerPixel)
	}
	img := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	draw.Draw(img, img.Bounds(), image.NewUniform(c.background), image.Point{}, draw.Src)

	var spheres []render.Shape
	for _, s := range c.Shapes() {
		switch s.Kind {
		case render.Points:
			col := toRGBA(s.Color)
			for _, p := range s.Points {
				x, y := v.project(p, c.width, c.height)
				setPixel(img, x, y, col)
			}
		case render.Ring:
			c.drawRing(img, v, s)
		case render.Sphere:
			c.drawSphere(img, v, s)
			spheres = append(spheres, s)
		}
	}

	if c.labels {
		if err := c.drawLabels(img, v, spheres); err != nil {
			return nil, err
		}
	}
	return img, nil
}

// WritePNG renders v and encodes it as PNG.
func (c *Canvas) WritePNG(w io.Writer, v View) error {
	img, err := c.Render(v)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

func (c *Canvas) drawRing(img *image.RGBA, v View, s render.Shape) {
	col := toRGBA(s.Color)
	r := s.Radius / v.UnitsPerPixel
	squash := math.Cos(s.TiltDeg * math.Pi / 180)
	cx, cy := v.project(s.Position, c.width, c.height)
	n := max(32, int(2*math.Pi*r))
	for i := 0; i < n; i++ {
		sin, cos := math.Sincos(2 * math.Pi * float64(i) / float64(n))
		setPixel(img, cx+r*cos, cy-r*squash*sin, col)
	}
}

// drawSphere fills the body's disc and marks its spin with a darker radius
// from a third of the way out to the rim.
func (c *Canvas) drawSphere(img *image.RGBA, v View, s render.Shape) {
	col := toRGBA(s.Color)
	r := math.Max(1, s.Radius/v.UnitsPerPixel)
	cx, cy := v.project(s.Position, c.width, c.height)

	ri := int(math.Ceil(r))
	for dy := -ri; dy <= ri; dy++ {
		for dx := -ri; dx <= ri; dx++ {
			if float64(dx*dx+dy*dy) <= r*r {
				setPixel(img, cx+float64(dx), cy+float64(dy), col)
			}
		}
	}

	if r < 4 {
		return
	}
	marker := toRGBA(s.Color.BlendRgb(colorful.Color{}, 0.5))
	sin, cos := math.Sincos(s.SpinDeg * math.Pi / 180)
	for d := r / 3; d <= r; d += 0.5 {
		setPixel(img, cx+d*cos, cy-d*sin, marker)
	}
}

func (c *Canvas) drawLabels(img *image.RGBA, v View, spheres []render.Shape) error {
	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(c.font)
	ctx.SetFontSize(c.fontSize)
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)
	ctx.SetSrc(image.NewUniform(color.White))

	for _, s := range spheres {
		if s.Name == "" {
			continue
		}
		x, y := v.project(s.Position, c.width, c.height)
		r := math.Max(1, s.Radius/v.UnitsPerPixel)
		pt := freetype.Pt(int(x+r)+labelGap, int(y-r)-labelGap)
		if _, err := ctx.DrawString(s.Name, pt); err != nil {
			return fmt.Errorf("label %s: %w", s.Name, err)
		}
	}
	return nil
}

func setPixel(img *image.RGBA, x, y float64, col color.RGBA) {
	px, py := int(math.Floor(x)), int(math.Floor(y))
	if !(image.Point{X: px, Y: py}).In(img.Bounds()) {
		return
	}
	img.SetRGBA(px, py, col)
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
