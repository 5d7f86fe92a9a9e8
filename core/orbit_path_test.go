package core

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestBuildEllipsePath_PointCount(t *testing.T) {
	p, err := BuildEllipsePath(10, 4, 2.5, 0)
	if err != nil {
		t.Fatalf("BuildEllipsePath: %v", err)
	}
	if len(p.Points) != 25 {
		t.Fatalf("expected 25 points, got %d", len(p.Points))
	}
	if !scalar.EqualWithinAbs(p.Points[0].X, 10, 1e-12) || !scalar.EqualWithinAbs(p.Points[0].Y, 0, 1e-12) {
		t.Fatalf("first point should be (ra, 0, 0), got %v", p.Points[0])
	}
}

func TestBuildEllipsePath_PointsLieOnEllipse(t *testing.T) {
	const ra, rb = 12.0, 7.0
	p, err := BuildEllipsePath(ra, rb, 3, 0)
	if err != nil {
		t.Fatalf("BuildEllipsePath: %v", err)
	}
	for i, pt := range p.Points {
		v := (pt.X*pt.X)/(ra*ra) + (pt.Y*pt.Y)/(rb*rb)
		if !scalar.EqualWithinAbs(v, 1, 1e-9) {
			t.Fatalf("point %d %v off the ellipse: %v", i, pt, v)
		}
		if pt.Z != 0 {
			t.Fatalf("untilted path point %d has z=%v", i, pt.Z)
		}
	}
}

func TestBuildEllipsePath_TiltPreservesRadii(t *testing.T) {
	const tilt = 30.0
	p, err := BuildEllipsePath(10, 10, 2, tilt)
	if err != nil {
		t.Fatalf("BuildEllipsePath: %v", err)
	}
	first := p.Points[0]
	if !scalar.EqualWithinAbs(first.Norm(), 10, 1e-9) {
		t.Fatalf("tilt changed radius: %v", first.Norm())
	}
	// rotation by -tilt about y lifts (r, 0, 0) to (r cos, 0, r sin).
	want := Vec3{X: 10 * math.Cos(degToRad(tilt)), Z: 10 * math.Sin(degToRad(tilt))}
	if !scalar.EqualWithinAbs(first.X, want.X, 1e-9) || !scalar.EqualWithinAbs(first.Z, want.Z, 1e-9) {
		t.Fatalf("first point %v, want %v", first, want)
	}
}

func TestBuildEllipsePath_RejectsBadInput(t *testing.T) {
	if _, err := BuildEllipsePath(0, 4, 2.5, 0); !errors.Is(err, ErrDegenerateGeometry) {
		t.Fatalf("expected ErrDegenerateGeometry, got %v", err)
	}
	if _, err := BuildEllipsePath(10, 4, 0, 0); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
	if _, err := BuildEllipsePath(0.1, 0.1, 1, 0); !errors.Is(err, ErrDegenerateGeometry) {
		t.Fatalf("expected ErrDegenerateGeometry for an empty path, got %v", err)
	}
}

func TestOrbitPath_WorldAndRebuild(t *testing.T) {
	p, err := BuildEllipsePath(10, 10, 1, 0)
	if err != nil {
		t.Fatalf("BuildEllipsePath: %v", err)
	}
	p.Anchor = Vec3{X: 1, Y: 2, Z: 3}
	w := p.World()
	if w[0] != p.Points[0].Add(p.Anchor) {
		t.Fatalf("World not anchored: %v", w[0])
	}
	if p.NeedsRebuild(10.05, 0.01) {
		t.Fatalf("0.5%% change should be within tolerance")
	}
	if !p.NeedsRebuild(10.5, 0.01) {
		t.Fatalf("5%% change should trigger a rebuild")
	}
}
