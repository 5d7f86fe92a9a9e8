package timectrl

import (
	"fmt"
	"math"
	"sync"

	"github.com/signalsfoundry/orrery-simulator/core"
)

// Amplifier limits. The adjustment step moves by powers of ten.
const (
	MinAmplifier = 1
	MaxAmplifier = 1_000_000
	MinStep      = 1
	MaxStep      = 100_000
)

// Retimer is the part of a Scene an AmplifierControl drives.
type Retimer interface {
	TimeScale() core.TimeScale
	SetTimeScale(ts core.TimeScale) error
}

// AmplifierControl stages time amplifier changes and applies them to a
// Retimer in one step on Commit, so the whole tree is recalculated at once.
type AmplifierControl struct {
	mu      sync.Mutex
	target  Retimer
	clock   *TimeController
	pending float64
	step    float64

	// OnCommit, if set, is called after a successful commit.
	OnCommit func(ts core.TimeScale)
}

// NewAmplifierControl starts from target's current amplifier. clock may be
// nil; when set, its simulated step follows the committed time scale.
func NewAmplifierControl(target Retimer, clock *TimeController) *AmplifierControl {
	return &AmplifierControl{
		target:  target,
		clock:   clock,
		pending: target.TimeScale().Amplifier,
		step:    1000,
	}
}

// Pending returns the staged amplifier.
func (a *AmplifierControl) Pending() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}

// Step returns the current adjustment step.
func (a *AmplifierControl) Step() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.step
}

// Dirty reports whether the staged amplifier differs from the applied one.
func (a *AmplifierControl) Dirty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending != a.target.TimeScale().Amplifier
}

// Increase stages amplifier + step.
func (a *AmplifierControl) Increase() float64 { return a.adjust(1) }

// Decrease stages amplifier - step.
func (a *AmplifierControl) Decrease() float64 { return a.adjust(-1) }

func (a *AmplifierControl) adjust(dir float64) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = clamp(a.pending+dir*a.step, MinAmplifier, MaxAmplifier)
	return a.pending
}

// StepUp multiplies the adjustment step by ten.
func (a *AmplifierControl) StepUp() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.step = clamp(a.step*10, MinStep, MaxStep)
	return a.step
}

// StepDown divides the adjustment step by ten.
func (a *AmplifierControl) StepDown() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.step = clamp(a.step/10, MinStep, MaxStep)
	return a.step
}

// Set stages an explicit amplifier, clamped to the allowed range.
func (a *AmplifierControl) Set(amplifier float64) error {
	if math.IsNaN(amplifier) {
		return fmt.Errorf("%w: amplifier is NaN", core.ErrInvalidConfiguration)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = clamp(amplifier, MinAmplifier, MaxAmplifier)
	return nil
}

// Commit applies the staged amplifier. On failure nothing changes.
func (a *AmplifierControl) Commit() (core.TimeScale, error) {
	a.mu.Lock()
	ts := a.target.TimeScale()
	ts.Amplifier = a.pending
	if err := a.target.SetTimeScale(ts); err != nil {
		a.mu.Unlock()
		return core.TimeScale{}, err
	}
	hook := a.OnCommit
	a.mu.Unlock()

	if a.clock != nil {
		a.clock.SetStep(ts.SimDuration())
	}
	if hook != nil {
		hook(ts)
	}
	return ts, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
