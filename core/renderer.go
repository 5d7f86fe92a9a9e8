package core

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ShapeHandle identifies a shape created through a Renderer.
type ShapeHandle int

// NoShape is the zero handle returned by renderers that draw nothing.
const NoShape ShapeHandle = 0

// Appearance is how a body's sphere or ring is drawn.
type Appearance struct {
	Name    string
	Color   colorful.Color
	Texture string
}

// ParseColor turns a hex colour into a colorful.Color. An empty string yields
// white.
func ParseColor(hex string) (colorful.Color, error) {
	if hex == "" {
		return colorful.Color{R: 1, G: 1, B: 1}, nil
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("%w: colour %q: %v", ErrInvalidConfiguration, hex, err)
	}
	return c, nil
}

// Renderer is the drawing surface the Scene emits shape commands to. The
// Scene calls it while holding its lock, so implementations must not call
// back into the Scene.
type Renderer interface {
	CreateSphere(pos Vec3, radius float64, axisDeg Vec3, app Appearance) (ShapeHandle, error)
	CreatePointSet(points []Vec3) (ShapeHandle, error)
	CreateRing(pos Vec3, radius, tiltDeg float64, app Appearance) (ShapeHandle, error)
	UpdatePointSet(h ShapeHandle, points []Vec3) error
	SetPosition(h ShapeHandle, pos Vec3) error
	// Rotate sets the absolute rotation about the local y axis.
	Rotate(h ShapeHandle, deg float64) error
	// RotateRelative turns the shape by deg about the local y axis.
	RotateRelative(h ShapeHandle, deg float64) error
	Move(h ShapeHandle, delta Vec3) error
	// Remove deletes a shape. The handle is not reused.
	Remove(h ShapeHandle) error
}

// NopRenderer discards every command.
type NopRenderer struct{}

func (NopRenderer) CreateSphere(Vec3, float64, Vec3, Appearance) (ShapeHandle, error) {
	return NoShape, nil
}
func (NopRenderer) CreatePointSet([]Vec3) (ShapeHandle, error) { return NoShape, nil }
func (NopRenderer) CreateRing(Vec3, float64, float64, Appearance) (ShapeHandle, error) {
	return NoShape, nil
}
func (NopRenderer) UpdatePointSet(ShapeHandle, []Vec3) error  { return nil }
func (NopRenderer) SetPosition(ShapeHandle, Vec3) error       { return nil }
func (NopRenderer) Rotate(ShapeHandle, float64) error         { return nil }
func (NopRenderer) RotateRelative(ShapeHandle, float64) error { return nil }
func (NopRenderer) Move(ShapeHandle, Vec3) error              { return nil }
func (NopRenderer) Remove(ShapeHandle) error                  { return nil }
