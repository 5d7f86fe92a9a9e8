// Package render holds the shape bookkeeping shared by the concrete
// renderers. A Store records the commands a core.Scene emits; renderers
// draw from a consistent copy of it.
package render

import (
	"errors"
	"fmt"
	"math"
	"sync"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/signalsfoundry/orrery-simulator/core"
)

// ErrUnknownShape is returned for handles the store never issued.
var ErrUnknownShape = errors.New("unknown shape handle")

// Kind is the type of a recorded shape.
type Kind int

const (
	Sphere Kind = iota
	Ring
	Points
)

// Shape is a recorded shape.
type Shape struct {
	Kind     Kind
	Name     string
	Position core.Vec3
	Radius   float64
	// AxisDeg is the initial orientation of a sphere.
	AxisDeg core.Vec3
	TiltDeg float64
	SpinDeg float64
	Points  []core.Vec3
	Color   colorful.Color
	Texture string
}

// Store implements core.Renderer by recording shapes. It is safe for
// concurrent use.
type Store struct {
	mu     sync.Mutex
	shapes map[core.ShapeHandle]*Shape
	order  []core.ShapeHandle
	next   core.ShapeHandle
}

var _ core.Renderer = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		shapes: make(map[core.ShapeHandle]*Shape),
		next:   core.NoShape + 1,
	}
}

func (s *Store) addLocked(sh *Shape) core.ShapeHandle {
	h := s.next
	s.next++
	s.shapes[h] = sh
	s.order = append(s.order, h)
	return h
}

func (s *Store) getLocked(h core.ShapeHandle) (*Shape, error) {
	sh, ok := s.shapes[h]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownShape, h)
	}
	return sh, nil
}

// CreateSphere implements core.Renderer.
func (s *Store) CreateSphere(pos core.Vec3, radius float64, axisDeg core.Vec3, app core.Appearance) (core.ShapeHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(&Shape{
		Kind:     Sphere,
		Name:     app.Name,
		Position: pos,
		Radius:   radius,
		AxisDeg:  axisDeg,
		Color:    app.Color,
		Texture:  app.Texture,
	}), nil
}

// CreatePointSet implements core.Renderer.
func (s *Store) CreatePointSet(points []core.Vec3) (core.ShapeHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(&Shape{
		Kind:   Points,
		Points: append([]core.Vec3(nil), points...),
		Color:  colorful.Color{R: 0.5, G: 0.5, B: 0.5},
	}), nil
}

// CreateRing implements core.Renderer.
func (s *Store) CreateRing(pos core.Vec3, radius, tiltDeg float64, app core.Appearance) (core.ShapeHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(&Shape{
		Kind:     Ring,
		Name:     app.Name,
		Position: pos,
		Radius:   radius,
		TiltDeg:  tiltDeg,
		Color:    app.Color,
		Texture:  app.Texture,
	}), nil
}

// UpdatePointSet implements core.Renderer.
func (s *Store) UpdatePointSet(h core.ShapeHandle, points []core.Vec3) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, err := s.getLocked(h)
	if err != nil {
		return err
	}
	sh.Points = append(sh.Points[:0], points...)
	return nil
}

// SetPosition implements core.Renderer.
func (s *Store) SetPosition(h core.ShapeHandle, pos core.Vec3) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, err := s.getLocked(h)
	if err != nil {
		return err
	}
	sh.Position = pos
	return nil
}

// Rotate implements core.Renderer.
func (s *Store) Rotate(h core.ShapeHandle, deg float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, err := s.getLocked(h)
	if err != nil {
		return err
	}
	sh.SpinDeg = math.Mod(deg, 360)
	return nil
}

// RotateRelative implements core.Renderer.
func (s *Store) RotateRelative(h core.ShapeHandle, deg float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, err := s.getLocked(h)
	if err != nil {
		return err
	}
	sh.SpinDeg = math.Mod(sh.SpinDeg+deg, 360)
	return nil
}

// Move implements core.Renderer. Point sets move every point.
func (s *Store) Move(h core.ShapeHandle, delta core.Vec3) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, err := s.getLocked(h)
	if err != nil {
		return err
	}
	sh.Position = sh.Position.Add(delta)
	for i := range sh.Points {
		sh.Points[i] = sh.Points[i].Add(delta)
	}
	return nil
}

// Remove implements core.Renderer.
func (s *Store) Remove(h core.ShapeHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.getLocked(h); err != nil {
		return err
	}
	delete(s.shapes, h)
	for i, o := range s.order {
		if o == h {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Shapes returns a copy of every shape in draw order: point sets, then
// rings, then spheres, each in creation order.
func (s *Store) Shapes() []Shape {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Shape, 0, len(s.order))
	for _, kind := range []Kind{Points, Ring, Sphere} {
		for _, h := range s.order {
			sh := s.shapes[h]
			if sh.Kind != kind {
				continue
			}
			c := *sh
			c.Points = append([]core.Vec3(nil), sh.Points...)
			out = append(out, c)
		}
	}
	return out
}

// Shape returns a copy of one shape.
func (s *Store) Shape(h core.ShapeHandle) (Shape, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shapes[h]
	if !ok {
		return Shape{}, false
	}
	c := *sh
	c.Points = append([]core.Vec3(nil), sh.Points...)
	return c, true
}

// Find returns the sphere drawn for the named body.
func (s *Store) Find(name string) (core.ShapeHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.order {
		if sh := s.shapes[h]; sh.Kind == Sphere && sh.Name == name {
			return h, true
		}
	}
	return core.NoShape, false
}

// Len returns the number of recorded shapes.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Extent returns the largest absolute x or y coordinate of any sphere, at
// least 1.
func (s *Store) Extent() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	extent := 1.0
	for _, sh := range s.shapes {
		if sh.Kind != Sphere {
			continue
		}
		extent = math.Max(extent, math.Max(math.Abs(sh.Position.X), math.Abs(sh.Position.Y))+sh.Radius)
	}
	return extent
}
