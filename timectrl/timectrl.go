package timectrl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Mode describes how the TimeController advances simulation time.
type Mode int

const (
	// RealTime advances one tick per Tick of wall-clock time.
	RealTime Mode = iota
	// Accelerated advances as quickly as the loop can run while still stepping by Step.
	Accelerated
)

func (m Mode) String() string {
	switch m {
	case RealTime:
		return "realtime"
	case Accelerated:
		return "accelerated"
	default:
		return "unknown"
	}
}

// ParseMode maps a config string onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "realtime", "real-time":
		return RealTime, nil
	case "accelerated":
		return Accelerated, nil
	default:
		return 0, fmt.Errorf("unknown clock mode %q", s)
	}
}

// Listener is invoked on every tick with the new simulation time. An error
// stops the run and leaves simulation time where it was.
type Listener func(ctx context.Context, simTime time.Time) error

type waiter struct {
	at time.Time
	ch chan time.Time
}

// TimeController drives simulation time and notifies registered listeners.
type TimeController struct {
	mu sync.RWMutex
	// Tick is the real time between ticks.
	Tick time.Duration
	Mode Mode

	// step is the simulated time per tick.
	step        time.Duration
	currentTime time.Time
	ticks       int64

	paused   bool
	resumeCh chan struct{}

	listeners []Listener
	waiters   []waiter
}

// NewTimeController constructs a controller whose simulated step equals its
// real tick until SetStep is called.
func NewTimeController(start time.Time, tick time.Duration, mode Mode) *TimeController {
	return &TimeController{
		Tick:        tick,
		Mode:        mode,
		step:        tick,
		currentTime: start,
	}
}

// Now returns the current simulation time.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// Step returns the simulated time per tick.
func (tc *TimeController) Step() time.Duration {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.step
}

// SetStep changes the simulated time per tick, e.g. after the time amplifier
// changed.
func (tc *TimeController) SetStep(step time.Duration) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.step = step
}

// Ticks returns the number of ticks advanced so far.
func (tc *TimeController) Ticks() int64 {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.ticks
}

// After returns a channel that receives the simulation time once d has
// elapsed in simulation time. It fires from within the Advance that reaches
// the deadline.
func (tc *TimeController) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	tc.mu.Lock()
	defer tc.mu.Unlock()
	at := tc.currentTime.Add(d)
	if d <= 0 {
		ch <- tc.currentTime
		return ch
	}
	tc.waiters = append(tc.waiters, waiter{at: at, ch: ch})
	return ch
}

// AddListener registers a callback invoked on every tick.
func (tc *TimeController) AddListener(fn Listener) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.listeners = append(tc.listeners, fn)
}

// Pause stops Run from advancing until Resume is called.
func (tc *TimeController) Pause() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.paused {
		return
	}
	tc.paused = true
	tc.resumeCh = make(chan struct{})
}

// Resume lets a paused Run continue.
func (tc *TimeController) Resume() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if !tc.paused {
		return
	}
	tc.paused = false
	close(tc.resumeCh)
}

// TogglePause flips the paused state and reports the new state.
func (tc *TimeController) TogglePause() bool {
	if tc.Paused() {
		tc.Resume()
		return false
	}
	tc.Pause()
	return true
}

// Paused reports whether the controller is paused.
func (tc *TimeController) Paused() bool {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.paused
}

// Advance runs one tick: every listener is called with the next simulation
// time, in registration order, and time only moves forward if all of them
// succeed.
func (tc *TimeController) Advance(ctx context.Context) error {
	tc.mu.RLock()
	next := tc.currentTime.Add(tc.step)
	listeners := append([]Listener(nil), tc.listeners...)
	tc.mu.RUnlock()

	for _, fn := range listeners {
		if err := fn(ctx, next); err != nil {
			return err
		}
	}

	tc.mu.Lock()
	tc.currentTime = next
	tc.ticks++
	fired := tc.dueLocked()
	tc.mu.Unlock()
	fire(fired, next)
	return nil
}

// Run advances ticks times, or until ctx is done when ticks <= 0. In
// RealTime mode ticks are paced by a limiter at one per Tick. A cancelled
// context ends the run with ctx.Err().
func (tc *TimeController) Run(ctx context.Context, ticks int) error {
	return tc.run(ctx, ticks, nil)
}

// RunFor advances until d of simulation time has passed. The step may
// change during the run; the last tick can overshoot the horizon by less
// than one step.
func (tc *TimeController) RunFor(ctx context.Context, d time.Duration) error {
	return tc.run(ctx, 0, tc.After(d))
}

func (tc *TimeController) run(ctx context.Context, ticks int, until <-chan time.Time) error {
	var limiter *rate.Limiter
	if tc.Mode == RealTime && tc.Tick > 0 {
		limiter = rate.NewLimiter(rate.Every(tc.Tick), 1)
	}

	for n := 0; ticks <= 0 || n < ticks; n++ {
		select {
		case <-until:
			return nil
		default:
		}
		if err := tc.waitResumed(ctx); err != nil {
			return err
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				// The limiter refuses waits that would outlive the deadline.
				<-ctx.Done()
				return ctx.Err()
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		if err := tc.Advance(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (tc *TimeController) waitResumed(ctx context.Context) error {
	tc.mu.RLock()
	paused, resume := tc.paused, tc.resumeCh
	tc.mu.RUnlock()
	if !paused {
		return nil
	}
	select {
	case <-resume:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dueLocked removes and returns the waiters whose deadline has been reached.
func (tc *TimeController) dueLocked() []waiter {
	var due []waiter
	kept := tc.waiters[:0]
	for _, w := range tc.waiters {
		if !w.at.After(tc.currentTime) {
			due = append(due, w)
		} else {
			kept = append(kept, w)
		}
	}
	tc.waiters = kept
	return due
}

func fire(ws []waiter, now time.Time) {
	for _, w := range ws {
		w.ch <- now
	}
}
