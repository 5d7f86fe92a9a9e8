package core

import (
	"fmt"
	"time"
)

// TimeScale converts real frame time into simulated time. Every tick lasts
// MsPerTick real milliseconds and simulates MsPerTick*Amplifier milliseconds.
type TimeScale struct {
	MsPerTick int
	Amplifier float64
}

// NewTimeScale validates and returns a TimeScale.
func NewTimeScale(msPerTick int, amplifier float64) (TimeScale, error) {
	ts := TimeScale{MsPerTick: msPerTick, Amplifier: amplifier}
	if err := ts.Validate(); err != nil {
		return TimeScale{}, err
	}
	return ts, nil
}

// Validate rejects scales that would zero a rate denominator.
func (ts TimeScale) Validate() error {
	if ts.MsPerTick <= 0 {
		return fmt.Errorf("%w: ms per tick must be positive, got %d", ErrInvalidConfiguration, ts.MsPerTick)
	}
	if !isFinite(ts.Amplifier) || ts.Amplifier <= 0 {
		return fmt.Errorf("%w: time amplifier must be positive and finite, got %v", ErrInvalidConfiguration, ts.Amplifier)
	}
	return nil
}

// SimMillisPerTick returns the simulated milliseconds that elapse per tick.
func (ts TimeScale) SimMillisPerTick() float64 {
	return float64(ts.MsPerTick) * ts.Amplifier
}

// SimDuration returns the simulated time per tick as a duration.
func (ts TimeScale) SimDuration() time.Duration {
	return time.Duration(ts.SimMillisPerTick() * float64(time.Millisecond))
}

// FrameInterval returns the real time between ticks.
func (ts TimeScale) FrameInterval() time.Duration {
	return time.Duration(ts.MsPerTick) * time.Millisecond
}

func (ts TimeScale) String() string {
	return fmt.Sprintf("%dms x%g", ts.MsPerTick, ts.Amplifier)
}
