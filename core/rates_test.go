package core

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestRotationRate_OneSpinPerTick(t *testing.T) {
	got, err := RotationRate(24, TimeScale{MsPerTick: 1, Amplifier: 86_400_000})
	if err != nil {
		t.Fatalf("RotationRate: %v", err)
	}
	if got != 360 {
		t.Fatalf("RotationRate = %v, want exactly 360", got)
	}
}

func TestRotationRate_RetrogradeIsNegative(t *testing.T) {
	ts := TimeScale{MsPerTick: 16, Amplifier: 100000}
	pro, err := RotationRate(5832.5, ts)
	if err != nil {
		t.Fatalf("RotationRate: %v", err)
	}
	retro, err := RotationRate(-5832.5, ts)
	if err != nil {
		t.Fatalf("RotationRate: %v", err)
	}
	if retro >= 0 || retro != -pro {
		t.Fatalf("retrograde rate %v should mirror %v", retro, pro)
	}
}

func TestRates_RejectInvalidTimeScale(t *testing.T) {
	for _, ts := range []TimeScale{
		{MsPerTick: 0, Amplifier: 1},
		{MsPerTick: -16, Amplifier: 1},
		{MsPerTick: 16, Amplifier: 0},
		{MsPerTick: 16, Amplifier: math.NaN()},
	} {
		if _, err := RotationRate(24, ts); !errors.Is(err, ErrInvalidConfiguration) {
			t.Fatalf("RotationRate with %+v: expected ErrInvalidConfiguration, got %v", ts, err)
		}
		if _, err := OrbitalSweepRate(365, ts); !errors.Is(err, ErrInvalidConfiguration) {
			t.Fatalf("OrbitalSweepRate with %+v: expected ErrInvalidConfiguration, got %v", ts, err)
		}
	}
	if _, err := OrbitalSweepRate(0, TimeScale{MsPerTick: 16, Amplifier: 1}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("zero period: expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestOrbitalSweepRate(t *testing.T) {
	ts := TimeScale{MsPerTick: 16, Amplifier: 100000}
	got, err := OrbitalSweepRate(365.2, ts)
	if err != nil {
		t.Fatalf("OrbitalSweepRate: %v", err)
	}
	want := 360 / ((365.2 * 86_400_000) / (16 * 100000.0))
	if !scalar.EqualWithinRel(got, want, 1e-12) {
		t.Fatalf("OrbitalSweepRate = %v, want %v", got, want)
	}
}

func TestVerticalSweepRate_FullSwingPerHalfOrbit(t *testing.T) {
	ts := TimeScale{MsPerTick: 16, Amplifier: 100000}
	rate, err := VerticalSweepRate(-27.3, 5.1, ts)
	if err != nil {
		t.Fatalf("VerticalSweepRate: %v", err)
	}
	if rate <= 0 {
		t.Fatalf("vertical rate should be a magnitude, got %v", rate)
	}
	halfOrbitTicks := (27.3 * 86_400_000 / ts.SimMillisPerTick()) / 2
	if !scalar.EqualWithinRel(rate*halfOrbitTicks, 2*5.1, 1e-12) {
		t.Fatalf("half an orbit covers %v degrees, want %v", rate*halfOrbitTicks, 2*5.1)
	}
}

func TestMeanAnomalyRate(t *testing.T) {
	rate, err := MeanAnomalyRate(1)
	if err != nil {
		t.Fatalf("MeanAnomalyRate: %v", err)
	}
	if !scalar.EqualWithinRel(rate*86_400_000, 0.9856076686, 1e-12) {
		t.Fatalf("1 AU mean motion = %v deg/day", rate*86_400_000)
	}
	if _, err := MeanAnomalyRate(0); !errors.Is(err, ErrDegenerateGeometry) {
		t.Fatalf("expected ErrDegenerateGeometry, got %v", err)
	}
}

func TestTimeScale(t *testing.T) {
	ts, err := NewTimeScale(16, 100000)
	if err != nil {
		t.Fatalf("NewTimeScale: %v", err)
	}
	if ts.SimMillisPerTick() != 1.6e6 {
		t.Fatalf("sim ms per tick = %v", ts.SimMillisPerTick())
	}
	if ts.FrameInterval().Milliseconds() != 16 || ts.SimDuration().Seconds() != 1600 {
		t.Fatalf("unexpected durations %v / %v", ts.FrameInterval(), ts.SimDuration())
	}
	if _, err := NewTimeScale(16, -1); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}
