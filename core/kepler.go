package core

import (
	"fmt"
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/julian"
)

// MkmPerAUPrecise is one astronomical unit in millions of kilometres as used to
// convert perihelion distances.
const MkmPerAUPrecise = 149.598

// KeplerMode selects between the textbook anomaly chain and the legacy
// approximation that reproduces the original orrery's visuals.
type KeplerMode int

const (
	// KeplerStandard Newton-solves Kepler's equation, takes the true anomaly
	// as atan2(yv, xv), uses the standard ecliptic rotation and offsets the
	// child's z by the parent's z.
	KeplerStandard KeplerMode = iota
	// KeplerLegacy uses the single-step eccentric anomaly approximation
	// (acceptable only for e below roughly 0.25), adds the mean anomaly to
	// atan2(yv, xv), shares the first term between x and y, and leaves the
	// parent's z out of the child's z.
	KeplerLegacy
)

func (m KeplerMode) String() string {
	switch m {
	case KeplerStandard:
		return "standard"
	case KeplerLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// ParseKeplerMode maps a config string onto a KeplerMode.
func ParseKeplerMode(s string) (KeplerMode, error) {
	switch s {
	case "", "standard":
		return KeplerStandard, nil
	case "legacy":
		return KeplerLegacy, nil
	default:
		return 0, fmt.Errorf("%w: unknown kepler mode %q", ErrInvalidConfiguration, s)
	}
}

// KeplerElements are the J2000 orbital elements of a body. Angles are in
// degrees, perihelion in millions of km.
type KeplerElements struct {
	PerihelionMkm       float64
	Eccentricity        float64
	ArgPerihelionDeg    float64 // ω
	AscendingNodeDeg    float64 // Ω
	InclinationDeg      float64 // i
	MeanAnomalyJ2000Deg float64 // M0
}

// Validate rejects elements that do not describe a bound orbit.
func (el KeplerElements) Validate() error {
	if el.PerihelionMkm <= 0 || !isFinite(el.PerihelionMkm) {
		return fmt.Errorf("%w: perihelion %v", ErrDegenerateGeometry, el.PerihelionMkm)
	}
	if el.Eccentricity < 0 || el.Eccentricity >= 1 || !isFinite(el.Eccentricity) {
		return fmt.Errorf("%w: eccentricity %v outside [0, 1)", ErrDegenerateGeometry, el.Eccentricity)
	}
	return nil
}

// SemimajorAxisAU derives the semimajor axis from perihelion and eccentricity.
func (el KeplerElements) SemimajorAxisAU() float64 {
	return (el.PerihelionMkm / MkmPerAUPrecise) / (1.0 - el.Eccentricity)
}

// MeanAnomalyAt returns M0 + rate*elapsedMs folded into [0, 360). Negative
// elapsed times wrap the same way.
func MeanAnomalyAt(meanAnomalyJ2000Deg, degPerMs, elapsedMs float64) float64 {
	return normalizeDegrees(meanAnomalyJ2000Deg + degPerMs*elapsedMs)
}

// MillisSinceJ2000 returns the milliseconds between the J2000 epoch and t.
func MillisSinceJ2000(t time.Time) float64 {
	return (julian.TimeToJD(t) - base.J2000) * msPerDay
}

// Anomalies is one solution of the mean → eccentric → true anomaly chain.
type Anomalies struct {
	MeanRad      float64
	EccentricRad float64
	TrueRad      float64
	// DistanceAU is the distance from the focus.
	DistanceAU float64
}

// SolveAnomalies runs the anomaly chain for a mean anomaly in degrees.
func SolveAnomalies(el KeplerElements, meanAnomalyDeg float64, mode KeplerMode) Anomalies {
	e := el.Eccentricity
	a := el.SemimajorAxisAU()
	m := degToRad(meanAnomalyDeg)

	var ecc float64
	if mode == KeplerLegacy {
		ecc = approxEccentricAnomaly(m, e)
	} else {
		ecc = solveEccentricAnomaly(m, e)
	}

	xv := a * (math.Cos(ecc) - e)
	yv := a * math.Sqrt(1.0-e*e) * math.Sin(ecc)

	nu := math.Atan2(yv, xv)
	if mode == KeplerLegacy {
		nu += m
	}

	r := a * (1.0 - e*e) / (1.0 + e*math.Cos(nu))
	return Anomalies{MeanRad: m, EccentricRad: ecc, TrueRad: nu, DistanceAU: r}
}

// approxEccentricAnomaly is the single-step starter
// E ≈ M + e sin M (1 + e cos M). It is not iterated.
func approxEccentricAnomaly(m, e float64) float64 {
	return m + e*math.Sin(m)*(1.0+e*math.Cos(m))
}

// solveEccentricAnomaly refines the starter with Newton-Raphson until
// E - e sin E - M is below 1e-12.
func solveEccentricAnomaly(m, e float64) float64 {
	ecc := approxEccentricAnomaly(m, e)
	for i := 0; i < 15; i++ {
		f := ecc - e*math.Sin(ecc) - m
		if math.Abs(f) < 1e-12 {
			break
		}
		ecc -= f / (1.0 - e*math.Cos(ecc))
	}
	return ecc
}

// EclipticOffset rotates a distance r at true anomaly nu into ecliptic
// coordinates relative to the parent.
func EclipticOffset(el KeplerElements, r, nu float64, mode KeplerMode) Vec3 {
	node := degToRad(el.AscendingNodeDeg)
	incl := degToRad(el.InclinationDeg)
	u := degToRad(el.ArgPerihelionDeg) + nu

	sN, cN := math.Sincos(node)
	sI, cI := math.Sincos(incl)
	sU, cU := math.Sincos(u)

	x := r * (cN*cU - sN*cI*sU)
	var y float64
	if mode == KeplerLegacy {
		y = r * (cN*cU + sN*cI*sU)
	} else {
		y = r * (sN*cU + cN*cI*sU)
	}
	z := r * (sI * sU)
	return Vec3{X: x, Y: y, Z: z}
}
