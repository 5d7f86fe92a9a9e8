package core

import (
	"errors"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestMeanAnomalyAt_StaysInRange(t *testing.T) {
	rate, err := MeanAnomalyRate(earthElements.SemimajorAxisAU())
	if err != nil {
		t.Fatalf("MeanAnomalyRate: %v", err)
	}
	for _, elapsed := range []float64{0, 1, 1e9, 3.15e10, 1e15, -1, -3.15e10, -1e15} {
		m := MeanAnomalyAt(earthElements.MeanAnomalyJ2000Deg, rate, elapsed)
		if m < 0 || m >= 360 {
			t.Fatalf("elapsed %v: mean anomaly %v outside [0, 360)", elapsed, m)
		}
	}
	if got := MeanAnomalyAt(357.529, rate, 0); got != 357.529 {
		t.Fatalf("at J2000 the mean anomaly is M0, got %v", got)
	}
}

func TestSolveAnomalies_CircularOrbit(t *testing.T) {
	el := KeplerElements{PerihelionMkm: MkmPerAUPrecise, Eccentricity: 0}
	for _, mode := range []KeplerMode{KeplerStandard, KeplerLegacy} {
		sol := SolveAnomalies(el, 90, mode)
		if !scalar.EqualWithinAbs(sol.DistanceAU, 1, 1e-12) {
			t.Fatalf("%v: circular orbit distance %v, want 1", mode, sol.DistanceAU)
		}
		if !scalar.EqualWithinAbs(sol.EccentricRad, math.Pi/2, 1e-12) {
			t.Fatalf("%v: E = %v, want π/2", mode, sol.EccentricRad)
		}
	}
}

func TestSolveAnomalies_StandardSatisfiesKeplersEquation(t *testing.T) {
	el := KeplerElements{PerihelionMkm: 46.0, Eccentricity: 0.205}
	for m := 0.0; m < 360; m += 13 {
		sol := SolveAnomalies(el, m, KeplerStandard)
		residual := sol.EccentricRad - el.Eccentricity*math.Sin(sol.EccentricRad) - sol.MeanRad
		if math.Abs(residual) > 1e-10 {
			t.Fatalf("M=%v: residual %v", m, residual)
		}
		a := el.SemimajorAxisAU()
		if sol.DistanceAU < a*(1-el.Eccentricity)-1e-9 || sol.DistanceAU > a*(1+el.Eccentricity)+1e-9 {
			t.Fatalf("M=%v: distance %v outside [periapsis, apoapsis]", m, sol.DistanceAU)
		}
	}
}

func TestSolveAnomalies_LegacyAddsMeanAnomaly(t *testing.T) {
	el := KeplerElements{PerihelionMkm: 147.1, Eccentricity: 0.017}
	std := SolveAnomalies(el, 40, KeplerStandard)
	leg := SolveAnomalies(el, 40, KeplerLegacy)
	if math.Abs(leg.TrueRad-std.TrueRad-degToRad(40)) > 1e-3 {
		t.Fatalf("legacy true anomaly %v should be about standard %v + M", leg.TrueRad, std.TrueRad)
	}
}

func TestEclipticOffset_PreservesDistance(t *testing.T) {
	el := KeplerElements{AscendingNodeDeg: 48.331, InclinationDeg: 7.005, ArgPerihelionDeg: 29.125}
	off := EclipticOffset(el, 10, 1.2, KeplerStandard)
	if !scalar.EqualWithinAbs(off.Norm(), 10, 1e-9) {
		t.Fatalf("standard rotation changed the distance: %v", off.Norm())
	}
	flat := EclipticOffset(KeplerElements{}, 10, 0, KeplerStandard)
	if flat != (Vec3{X: 10}) {
		t.Fatalf("zero elements at ν=0 should give (r, 0, 0), got %v", flat)
	}
}

func TestKeplerElements_Validate(t *testing.T) {
	if err := earthElements.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	for _, el := range []KeplerElements{{PerihelionMkm: 0}, {PerihelionMkm: 1, Eccentricity: -0.1}, {PerihelionMkm: 1, Eccentricity: 1.2}} {
		if err := el.Validate(); !errors.Is(err, ErrDegenerateGeometry) {
			t.Fatalf("%+v: expected ErrDegenerateGeometry, got %v", el, err)
		}
	}
}

func TestMillisSinceJ2000(t *testing.T) {
	j2000 := time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)
	if got := MillisSinceJ2000(j2000); math.Abs(got) > 1 {
		t.Fatalf("J2000 itself should be 0 ms, got %v", got)
	}
	if got := MillisSinceJ2000(j2000.Add(24 * time.Hour)); !scalar.EqualWithinAbs(got, 86_400_000, 1) {
		t.Fatalf("one day after J2000 = %v ms", got)
	}
}

func TestParseKeplerMode(t *testing.T) {
	if m, err := ParseKeplerMode(""); err != nil || m != KeplerStandard {
		t.Fatalf("default mode = %v, %v", m, err)
	}
	if m, err := ParseKeplerMode("legacy"); err != nil || m != KeplerLegacy {
		t.Fatalf("legacy mode = %v, %v", m, err)
	}
	if _, err := ParseKeplerMode("newtonian"); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}
