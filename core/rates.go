package core

import (
	"fmt"
	"math"
)

const (
	msPerHour = 3_600_000.0
	msPerDay  = 86_400_000.0

	// gaussianDegreesPerDay is the mean daily motion of a body at 1 AU.
	gaussianDegreesPerDay = 0.9856076686
)

// BodyRates are the per-tick angular deltas derived from a body's periods and
// the active TimeScale.
type BodyRates struct {
	RotationDegPerTick float64
	OrbitDegPerTick    float64
	VerticalDegPerTick float64
	// MeanAnomalyDegPerMs is set for Keplerian bodies only.
	MeanAnomalyDegPerMs float64
}

// ticksPerPeriod returns how many ticks one period of periodMs spans.
func ticksPerPeriod(periodMs float64, ts TimeScale) (float64, error) {
	if err := ts.Validate(); err != nil {
		return 0, err
	}
	ticks := periodMs / ts.SimMillisPerTick()
	if ticks == 0 || !isFinite(ticks) {
		return 0, fmt.Errorf("%w: period of %v ms spans %v ticks", ErrInvalidConfiguration, periodMs, ticks)
	}
	return ticks, nil
}

// RotationRate returns the self-rotation in degrees per tick for a body that
// spins once every hoursPerRevolution. A negative period spins retrograde and
// yields a negative rate.
func RotationRate(hoursPerRevolution float64, ts TimeScale) (float64, error) {
	ticks, err := ticksPerPeriod(hoursPerRevolution*msPerHour, ts)
	if err != nil {
		return 0, fmt.Errorf("rotation rate: %w", err)
	}
	return 360.0 / ticks, nil
}

// OrbitalSweepRate returns the orbital sweep in degrees per tick for a body
// that orbits once every daysPerOrbit. A negative period yields a negative
// rate.
func OrbitalSweepRate(daysPerOrbit float64, ts TimeScale) (float64, error) {
	ticks, err := ticksPerPeriod(daysPerOrbit*msPerDay, ts)
	if err != nil {
		return 0, fmt.Errorf("orbital sweep rate: %w", err)
	}
	return 360.0 / ticks, nil
}

// VerticalSweepRate returns the magnitude of the vertical angle change per
// tick. The body travels from +maxAngle to -maxAngle in half an orbit.
func VerticalSweepRate(daysPerOrbit, maxAngle float64, ts TimeScale) (float64, error) {
	ticks, err := ticksPerPeriod(math.Abs(daysPerOrbit)*msPerDay, ts)
	if err != nil {
		return 0, fmt.Errorf("vertical sweep rate: %w", err)
	}
	return (2.0 * math.Abs(maxAngle)) / (ticks / 2.0), nil
}

// MeanAnomalyRate returns the mean motion in degrees per simulated
// millisecond for a semimajor axis in AU, following Kepler's third law
// around a solar-mass primary.
func MeanAnomalyRate(semimajorAxisAU float64) (float64, error) {
	if semimajorAxisAU <= 0 || !isFinite(semimajorAxisAU) {
		return 0, fmt.Errorf("%w: semimajor axis %v AU", ErrDegenerateGeometry, semimajorAxisAU)
	}
	return (gaussianDegreesPerDay / math.Pow(semimajorAxisAU, 1.5)) / msPerDay, nil
}
