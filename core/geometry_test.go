package core

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestPositionOnOrbit_KnownAngles(t *testing.T) {
	tests := []struct {
		radius, angle float64
		wantX, wantZ  float64
	}{
		{10, 0, 10, 0},
		{0, 30, 0, 0},
		{10, 90, 10 * math.Sqrt2 / 2, 10},
		{10, 60, 10 * math.Sqrt(3) / 2, 10 * math.Sqrt(3) / 2},
		{4, 5.1, 4 * math.Cos(degToRad(5.1/2)), 4 * math.Sin(degToRad(5.1))},
	}
	for _, tt := range tests {
		x, z, err := PositionOnOrbit(tt.radius, tt.angle)
		if err != nil {
			t.Fatalf("PositionOnOrbit(%v, %v): %v", tt.radius, tt.angle, err)
		}
		if !scalar.EqualWithinAbs(x, tt.wantX, 1e-9) || !scalar.EqualWithinAbs(z, tt.wantZ, 1e-9) {
			t.Fatalf("PositionOnOrbit(%v, %v) = (%v, %v), want (%v, %v)",
				tt.radius, tt.angle, x, z, tt.wantX, tt.wantZ)
		}
	}
}

func TestPositionOnOrbit_HeightMatchesSine(t *testing.T) {
	// The triangle height over the radius is r·sin(angle) for any angle up to 90°.
	for angle := 1.0; angle <= 90; angle += 7 {
		_, z, err := PositionOnOrbit(25, angle)
		if err != nil {
			t.Fatalf("PositionOnOrbit: %v", err)
		}
		if !scalar.EqualWithinAbs(z, 25*math.Sin(degToRad(angle)), 1e-9) {
			t.Fatalf("angle %v: z = %v, want %v", angle, z, 25*math.Sin(degToRad(angle)))
		}
	}
}

func TestPositionOnOrbit_RejectsNegativeRadius(t *testing.T) {
	if _, _, err := PositionOnOrbit(-1, 10); !errors.Is(err, ErrDegenerateGeometry) {
		t.Fatalf("expected ErrDegenerateGeometry, got %v", err)
	}
	if _, _, err := PositionOnOrbit(1, math.NaN()); !errors.Is(err, ErrDegenerateGeometry) {
		t.Fatalf("expected ErrDegenerateGeometry for NaN angle, got %v", err)
	}
}

func TestNormalizeDegrees(t *testing.T) {
	tests := map[float64]float64{
		0:      0,
		360:    0,
		370:    10,
		-10:    350,
		-720.5: 359.5,
		-1e-15: 0,
	}
	for in, want := range tests {
		got := normalizeDegrees(in)
		if got < 0 || got >= 360 || !scalar.EqualWithinAbs(got, want, 1e-9) {
			t.Fatalf("normalizeDegrees(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestVec3Ops(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 2}
	if a.Norm() != 3 {
		t.Fatalf("norm = %v", a.Norm())
	}
	if got := a.Add(Vec3{X: 1}).Sub(Vec3{Y: 2}).Scale(2); got != (Vec3{X: 4, Y: 0, Z: 4}) {
		t.Fatalf("unexpected %v", got)
	}
	if (Vec3{X: math.Inf(1)}).IsFinite() {
		t.Fatalf("infinite vector reported finite")
	}
}
