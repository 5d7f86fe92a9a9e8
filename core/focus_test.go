package core

import (
	"errors"
	"testing"

	"github.com/signalsfoundry/orrery-simulator/model"
)

func focusScene(t *testing.T) *Scene {
	t.Helper()
	s := newTestScene(t)
	sys := sunEarthMoon()
	mars := sys.Children[0]
	mars.Name = "Mars"
	mars.Children = []model.BodyDefinition{
		{Name: "Phobos", DiameterKm: 22, Orbit: model.OrbitDefinition{Kind: model.OrbitSimplified, PeriodDays: 0.3, WidthMkm: 1, HeightMkm: 1}},
		{Name: "Deimos", DiameterKm: 12, Orbit: model.OrbitDefinition{Kind: model.OrbitSimplified, PeriodDays: 1.3, WidthMkm: 2, HeightMkm: 2}},
	}
	mars.Orbit.WidthMkm, mars.Orbit.HeightMkm = 249, 206
	sys.Children = append(sys.Children, mars)
	if _, err := s.AddTree(NoParent, sys); err != nil {
		t.Fatalf("AddTree: %v", err)
	}
	if _, err := s.AddBody(NoParent, model.BodyDefinition{Name: "Sirius", DiameterKm: 1000}); err != nil {
		t.Fatalf("AddBody: %v", err)
	}
	return s
}

func TestFocus_Navigation(t *testing.T) {
	s := focusScene(t)
	f, err := NewFocus(s)
	if err != nil {
		t.Fatalf("NewFocus: %v", err)
	}
	name := func() string {
		p, _ := s.Pose(f.Current())
		return p.Name
	}
	if name() != "Sun" {
		t.Fatalf("initial focus %q", name())
	}

	if err := f.NextSibling(); err != nil || name() != "Sirius" {
		t.Fatalf("next root: %q, %v", name(), err)
	}
	if err := f.NextSibling(); err != nil || name() != "Sun" {
		t.Fatalf("roots should wrap: %q, %v", name(), err)
	}

	f.PrevChild()
	if c, ok := f.SelectedChild(); !ok || c != mustLookup(t, s, "Mars") {
		t.Fatalf("child pointer should wrap back to Mars, got %d", c)
	}
	if err := f.Enter(); err != nil || name() != "Mars" {
		t.Fatalf("enter: %q, %v", name(), err)
	}
	f.NextChild()
	if err := f.Enter(); err != nil || name() != "Deimos" {
		t.Fatalf("enter second child: %q, %v", name(), err)
	}
	if err := f.PrevSibling(); err != nil || name() != "Phobos" {
		t.Fatalf("prev sibling: %q, %v", name(), err)
	}
	if err := f.Enter(); !errors.Is(err, ErrBodyNotFound) {
		t.Fatalf("entering a leaf should fail, got %v", err)
	}
	if err := f.Up(); err != nil || name() != "Mars" {
		t.Fatalf("up: %q, %v", name(), err)
	}
	if c, _ := f.SelectedChild(); c != mustLookup(t, s, "Phobos") {
		t.Fatalf("pointer should rest on the body focus came from")
	}
	if err := f.Up(); err != nil || name() != "Sun" {
		t.Fatalf("up to root: %q, %v", name(), err)
	}
	if err := f.Up(); !errors.Is(err, ErrBodyNotFound) {
		t.Fatalf("up from a root should fail, got %v", err)
	}
}

func TestNewFocus_EmptyScene(t *testing.T) {
	if _, err := NewFocus(newTestScene(t)); !errors.Is(err, ErrBodyNotFound) {
		t.Fatalf("expected ErrBodyNotFound, got %v", err)
	}
}
