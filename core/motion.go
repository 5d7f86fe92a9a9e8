package core

import (
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/orrery-simulator/model"
)

// ParentFrame is the parent's state for the current tick. It is always the
// parent's already-advanced state; children never see a stale parent.
type ParentFrame struct {
	Position Vec3
	OriginX  float64
	OriginY  float64
}

// KinematicState is the mutable state of one body carried between ticks.
// Each orbit model reads and writes only the fields it owns.
type KinematicState struct {
	Position Vec3
	// OriginX and OriginY are the top-down reference point children of the
	// simplified model orbit around. It ignores the vertical lift.
	OriginX float64
	OriginY float64

	SpinDeg float64

	SweepDeg    float64
	VerticalDeg float64
	Descending  bool

	// ElapsedMs is simulated time since J2000, including the scene epoch.
	ElapsedMs      float64
	MeanAnomalyDeg float64

	Distance float64
}

// PathGeometry describes the ellipse a body's orbit path is drawn on.
type PathGeometry struct {
	RadiusA float64
	RadiusB float64
	TiltDeg float64
	// Dynamic paths follow the current distance and are rebuilt when it
	// changes; static paths are built once.
	Dynamic bool
}

// OrbitModel computes a body's motion relative to its parent. Models are
// immutable; Retime returns a copy with rates for a new TimeScale.
type OrbitModel interface {
	Kind() model.OrbitKind
	Retime(ts TimeScale) (OrbitModel, error)
	Rates() BodyRates
	// Place returns the initial state for a body attached to parent.
	Place(parent ParentFrame) (KinematicState, error)
	// Step advances cur by one tick. parentDelta is how far the parent moved
	// this tick.
	Step(cur KinematicState, parent ParentFrame, parentDelta Vec3) (KinematicState, error)
	Path(cur KinematicState) PathGeometry
}

// StaticPlacement is the model of a root: it never orbits and only moves when
// displaced externally.
type StaticPlacement struct {
	At Vec3
}

// Kind implements OrbitModel.
func (m *StaticPlacement) Kind() model.OrbitKind { return model.OrbitStatic }

// Retime implements OrbitModel.
func (m *StaticPlacement) Retime(TimeScale) (OrbitModel, error) { return m, nil }

// Rates implements OrbitModel.
func (m *StaticPlacement) Rates() BodyRates { return BodyRates{} }

// Place implements OrbitModel.
func (m *StaticPlacement) Place(ParentFrame) (KinematicState, error) {
	return KinematicState{Position: m.At, OriginX: m.At.X, OriginY: m.At.Y}, nil
}

// Step translates the root by the external displacement, if any.
func (m *StaticPlacement) Step(cur KinematicState, _ ParentFrame, delta Vec3) (KinematicState, error) {
	next := cur
	next.Position = cur.Position.Add(delta)
	next.OriginX += delta.X
	next.OriginY += delta.Y
	return next, nil
}

// Path implements OrbitModel.
func (m *StaticPlacement) Path(KinematicState) PathGeometry { return PathGeometry{} }

// SimplifiedOrbit sweeps an ellipse of Width x Height around the parent's
// origin while a vertical angle bounces between ±MaxAngleDeg once per half
// orbit.
type SimplifiedOrbit struct {
	PeriodDays  float64
	Width       float64
	Height      float64
	MaxAngleDeg float64

	sweepRate    float64
	verticalRate float64
}

// NewSimplifiedOrbit validates the ellipse and derives rates for ts.
func NewSimplifiedOrbit(periodDays, width, height, maxAngleDeg float64, ts TimeScale) (*SimplifiedOrbit, error) {
	if !(width > 0) || !(height > 0) || !isFinite(width) || !isFinite(height) {
		return nil, fmt.Errorf("%w: orbit ellipse %v x %v", ErrDegenerateGeometry, width, height)
	}
	if !isFinite(maxAngleDeg) {
		return nil, fmt.Errorf("%w: max angle %v", ErrDegenerateGeometry, maxAngleDeg)
	}
	m := &SimplifiedOrbit{
		PeriodDays:  periodDays,
		Width:       width,
		Height:      height,
		MaxAngleDeg: math.Abs(maxAngleDeg),
	}
	retimed, err := m.Retime(ts)
	if err != nil {
		return nil, err
	}
	return retimed.(*SimplifiedOrbit), nil
}

// Kind implements OrbitModel.
func (m *SimplifiedOrbit) Kind() model.OrbitKind { return model.OrbitSimplified }

// Retime implements OrbitModel.
func (m *SimplifiedOrbit) Retime(ts TimeScale) (OrbitModel, error) {
	sweep, err := OrbitalSweepRate(m.PeriodDays, ts)
	if err != nil {
		return nil, err
	}
	vertical, err := VerticalSweepRate(m.PeriodDays, m.MaxAngleDeg, ts)
	if err != nil {
		return nil, err
	}
	n := *m
	n.sweepRate = sweep
	n.verticalRate = vertical
	return &n, nil
}

// Rates implements OrbitModel.
func (m *SimplifiedOrbit) Rates() BodyRates {
	return BodyRates{OrbitDegPerTick: m.sweepRate, VerticalDegPerTick: m.verticalRate}
}

// Place puts the body at sweep angle zero and the top of its vertical swing.
func (m *SimplifiedOrbit) Place(parent ParentFrame) (KinematicState, error) {
	x, z, err := PositionOnOrbit(m.Width, m.MaxAngleDeg)
	if err != nil {
		return KinematicState{}, err
	}
	pos := parent.Position.Add(Vec3{X: x, Z: z})
	return KinematicState{
		Position:    pos,
		OriginX:     parent.Position.X + x,
		OriginY:     parent.OriginY,
		VerticalDeg: m.MaxAngleDeg,
		Distance:    pos.DistanceTo(parent.Position),
	}, nil
}

// Step implements OrbitModel.
func (m *SimplifiedOrbit) Step(cur KinematicState, parent ParentFrame, parentDelta Vec3) (KinematicState, error) {
	next := cur
	next.Position = cur.Position.Add(parentDelta)

	next.SweepDeg = normalizeDegrees(cur.SweepDeg + m.sweepRate)
	s, c := math.Sincos(degToRad(next.SweepDeg))
	nextX := m.Width*c + parent.OriginX
	nextY := m.Height*s + parent.OriginY
	next.OriginX, next.OriginY = nextX, nextY

	rate := m.verticalRate
	if cur.Descending {
		rate = -rate
	}
	next.VerticalDeg, rate = bounce(cur.VerticalDeg, rate, m.MaxAngleDeg)
	next.Descending = rate < 0

	planar := nextX - parent.OriginX
	ox, oz, err := PositionOnOrbit(math.Abs(planar), math.Abs(next.VerticalDeg))
	if err != nil {
		return KinematicState{}, err
	}
	if planar <= 0 {
		ox, oz = -ox, -oz
	}

	next.Position = Vec3{X: ox + parent.OriginX, Y: nextY, Z: oz + parent.Position.Z}
	next.Distance = next.Position.DistanceTo(parent.Position)
	return next, nil
}

// Path implements OrbitModel.
func (m *SimplifiedOrbit) Path(KinematicState) PathGeometry {
	return PathGeometry{RadiusA: m.Width, RadiusB: m.Height, TiltDeg: m.MaxAngleDeg}
}

// bounce advances angle by rate inside [-bound, bound], reflecting the part of
// the step that overshoots a bound. It returns the new angle and the rate with
// its sign flipped once per reflection, so the next step heads back inward.
func bounce(angle, rate, bound float64) (float64, float64) {
	if bound == 0 {
		return 0, rate
	}
	span := 2 * bound
	u := angle + rate + bound
	k := math.Floor(u / span)
	r := u - k*span

	next := r - bound
	if math.Mod(math.Abs(k), 2) == 1 {
		next = bound - r
		rate = -rate
	}
	switch {
	case next >= bound && rate > 0:
		next, rate = bound, -rate
	case next <= -bound && rate < 0:
		next, rate = -bound, -rate
	}
	return next, rate
}

// KeplerOrbit propagates J2000 elements around the parent.
type KeplerOrbit struct {
	Elements KeplerElements
	Mode     KeplerMode
	// UnitsPerAU converts AU into scene units.
	UnitsPerAU float64
	// EpochMs is the simulated time since J2000 when the body is placed.
	EpochMs float64

	degPerMs float64
	stepMs   float64
}

// NewKeplerOrbit validates the elements and derives rates for ts.
func NewKeplerOrbit(el KeplerElements, mode KeplerMode, unitsPerAU, epochMs float64, ts TimeScale) (*KeplerOrbit, error) {
	if err := el.Validate(); err != nil {
		return nil, err
	}
	if !(unitsPerAU > 0) {
		return nil, fmt.Errorf("%w: %v units per AU", ErrInvalidConfiguration, unitsPerAU)
	}
	rate, err := MeanAnomalyRate(el.SemimajorAxisAU())
	if err != nil {
		return nil, err
	}
	m := &KeplerOrbit{Elements: el, Mode: mode, UnitsPerAU: unitsPerAU, EpochMs: epochMs, degPerMs: rate}
	retimed, err := m.Retime(ts)
	if err != nil {
		return nil, err
	}
	return retimed.(*KeplerOrbit), nil
}

// Kind implements OrbitModel.
func (m *KeplerOrbit) Kind() model.OrbitKind { return model.OrbitKepler }

// Retime implements OrbitModel.
func (m *KeplerOrbit) Retime(ts TimeScale) (OrbitModel, error) {
	if err := ts.Validate(); err != nil {
		return nil, err
	}
	n := *m
	n.stepMs = ts.SimMillisPerTick()
	return &n, nil
}

// Rates implements OrbitModel.
func (m *KeplerOrbit) Rates() BodyRates {
	return BodyRates{
		MeanAnomalyDegPerMs: m.degPerMs,
		OrbitDegPerTick:     m.degPerMs * m.stepMs,
	}
}

// Place implements OrbitModel.
func (m *KeplerOrbit) Place(parent ParentFrame) (KinematicState, error) {
	return m.at(KinematicState{}, parent, m.EpochMs)
}

// Step implements OrbitModel. The parent delta is not needed: the position
// is recomputed absolutely from the parent's advanced position.
func (m *KeplerOrbit) Step(cur KinematicState, parent ParentFrame, _ Vec3) (KinematicState, error) {
	return m.at(cur, parent, cur.ElapsedMs+m.stepMs)
}

func (m *KeplerOrbit) at(cur KinematicState, parent ParentFrame, elapsedMs float64) (KinematicState, error) {
	next := cur
	next.ElapsedMs = elapsedMs
	next.MeanAnomalyDeg = MeanAnomalyAt(m.Elements.MeanAnomalyJ2000Deg, m.degPerMs, elapsedMs)

	sol := SolveAnomalies(m.Elements, next.MeanAnomalyDeg, m.Mode)
	r := sol.DistanceAU * m.UnitsPerAU
	off := EclipticOffset(m.Elements, r, sol.TrueRad, m.Mode)

	z := off.Z
	if m.Mode == KeplerStandard {
		z += parent.Position.Z
	}
	next.Position = Vec3{X: parent.Position.X + off.X, Y: parent.Position.Y + off.Y, Z: z}
	next.OriginX, next.OriginY = next.Position.X, next.Position.Y
	next.Distance = r
	if !next.Position.IsFinite() {
		return KinematicState{}, fmt.Errorf("%w: kepler position %v at M=%v", ErrDegenerateGeometry, next.Position, next.MeanAnomalyDeg)
	}
	return next, nil
}

// Path implements OrbitModel.
func (m *KeplerOrbit) Path(cur KinematicState) PathGeometry {
	return PathGeometry{RadiusA: cur.Distance, RadiusB: cur.Distance, TiltDeg: m.Elements.InclinationDeg, Dynamic: true}
}

// SatelliteOrbit propagates a two-line element set with SGP4 and places the
// body at its ECI offset from the parent.
type SatelliteOrbit struct {
	Epoch time.Time
	// UnitsPerKm converts kilometres into scene units.
	UnitsPerKm float64

	sat    satellite.Satellite
	stepMs float64
}

// NewSatelliteOrbit parses the TLE and derives the tick step for ts.
func NewSatelliteOrbit(tle1, tle2 string, epoch time.Time, unitsPerKm float64, ts TimeScale) (*SatelliteOrbit, error) {
	sat, err := parseTLE(tle1, tle2)
	if err != nil {
		return nil, err
	}
	if !(unitsPerKm > 0) {
		return nil, fmt.Errorf("%w: %v units per km", ErrInvalidConfiguration, unitsPerKm)
	}
	m := &SatelliteOrbit{Epoch: epoch, UnitsPerKm: unitsPerKm, sat: sat}
	retimed, err := m.Retime(ts)
	if err != nil {
		return nil, err
	}
	return retimed.(*SatelliteOrbit), nil
}

func parseTLE(tle1, tle2 string) (sat satellite.Satellite, err error) {
	tle1, tle2 = strings.TrimSpace(tle1), strings.TrimSpace(tle2)
	if len(tle1) < 69 || len(tle2) < 69 || tle1[0] != '1' || tle2[0] != '2' {
		return sat, fmt.Errorf("%w: malformed two-line element set", ErrInvalidConfiguration)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: parse TLE: %v", ErrInvalidConfiguration, r)
		}
	}()
	return satellite.TLEToSat(tle1, tle2, satellite.GravityWGS72), nil
}

// Kind implements OrbitModel.
func (m *SatelliteOrbit) Kind() model.OrbitKind { return model.OrbitSatellite }

// Retime implements OrbitModel.
func (m *SatelliteOrbit) Retime(ts TimeScale) (OrbitModel, error) {
	if err := ts.Validate(); err != nil {
		return nil, err
	}
	n := *m
	n.stepMs = ts.SimMillisPerTick()
	return &n, nil
}

// Rates implements OrbitModel.
func (m *SatelliteOrbit) Rates() BodyRates { return BodyRates{} }

// Place implements OrbitModel.
func (m *SatelliteOrbit) Place(parent ParentFrame) (KinematicState, error) {
	return m.at(KinematicState{}, parent, 0)
}

// Step implements OrbitModel.
func (m *SatelliteOrbit) Step(cur KinematicState, parent ParentFrame, _ Vec3) (KinematicState, error) {
	return m.at(cur, parent, cur.ElapsedMs+m.stepMs)
}

// at propagates to Epoch + elapsedMs. go-satellite works in kilometres.
func (m *SatelliteOrbit) at(cur KinematicState, parent ParentFrame, elapsedMs float64) (KinematicState, error) {
	t := m.Epoch.Add(time.Duration(elapsedMs * float64(time.Millisecond))).UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	posECI, _ := satellite.Propagate(m.sat, year, int(month), day, hour, min, sec)
	off := Vec3{X: posECI.X, Y: posECI.Y, Z: posECI.Z}.Scale(m.UnitsPerKm)
	if !off.IsFinite() {
		return KinematicState{}, fmt.Errorf("%w: SGP4 propagation at %s", ErrDegenerateGeometry, t.Format(time.RFC3339))
	}

	next := cur
	next.ElapsedMs = elapsedMs
	next.Position = parent.Position.Add(off)
	next.OriginX, next.OriginY = next.Position.X, next.Position.Y
	next.Distance = off.Norm()
	return next, nil
}

// Path implements OrbitModel.
func (m *SatelliteOrbit) Path(cur KinematicState) PathGeometry {
	return PathGeometry{RadiusA: cur.Distance, RadiusB: cur.Distance, Dynamic: true}
}
