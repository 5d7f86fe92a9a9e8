package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/orrery-simulator/model"
)

// BodyID indexes a body within its Scene.
type BodyID int

// NoParent is the parent of every root.
const NoParent BodyID = -1

// kmPerAU converts satellite ranges, which SGP4 reports in kilometres.
const kmPerAU = 149_597_870.7

// Body is one node of the scene tree. Bodies are owned by a Scene and only
// mutated under its lock.
type Body struct {
	id       BodyID
	name     string
	parent   BodyID
	children []BodyID

	radius        float64
	obliquityDeg  float64
	rotationHours float64
	rotationRate  float64

	model OrbitModel
	state KinematicState

	color      string
	appearance Appearance
	shape      ShapeHandle
	pathShape  ShapeHandle
	path       *OrbitPath
	rings      []ring
}

type ring struct {
	radius  float64
	tiltDeg float64
	shape   ShapeHandle
}

// Orientation is the body's attitude: the sphere is stood upright, tilted by
// its obliquity and then spun about its own y axis.
func (b *Body) Orientation() mgl64.Quat {
	tilt := mgl64.AnglesToQuat(degToRad(-90), degToRad(b.obliquityDeg), 0, mgl64.XYZ)
	spin := mgl64.QuatRotate(degToRad(b.state.SpinDeg), mgl64.Vec3{0, 1, 0})
	return tilt.Mul(spin).Normalize()
}

func (b *Body) pose() model.BodyPose {
	q := b.Orientation()
	return model.BodyPose{
		ID:             int(b.id),
		Name:           b.name,
		ParentID:       int(b.parent),
		Kind:           b.model.Kind(),
		Position:       model.Coordinates{X: b.state.Position.X, Y: b.state.Position.Y, Z: b.state.Position.Z},
		Radius:         b.radius,
		Orientation:    [4]float64{q.W, q.V[0], q.V[1], q.V[2]},
		SpinDeg:        b.state.SpinDeg,
		SweepDeg:       b.state.SweepDeg,
		VerticalDeg:    b.state.VerticalDeg,
		MeanAnomalyDeg: b.state.MeanAnomalyDeg,
		Distance:       b.state.Distance,
		Color:          b.color,
	}
}

// rotationRateFor returns the spin per tick. A zero period means the body
// does not spin.
func rotationRateFor(hours float64, ts TimeScale) (float64, error) {
	if hours == 0 {
		return 0, nil
	}
	return RotationRate(hours, ts)
}

// buildOrbitModel selects the OrbitModel for a definition. Roots never orbit;
// a simplified root reads width, height and max angle as an absolute
// placement.
func buildOrbitModel(def model.OrbitDefinition, root bool, cfg SceneConfig, ts TimeScale) (OrbitModel, error) {
	kind := def.Kind
	if kind == "" {
		if root {
			kind = model.OrbitStatic
		} else {
			kind = model.OrbitSimplified
		}
	}

	scale := def.DistanceScale
	if scale == 0 {
		scale = 1
	}

	if root {
		switch kind {
		case model.OrbitStatic:
			p := def.Position
			return &StaticPlacement{At: Vec3{X: p.X, Y: p.Y, Z: p.Z}}, nil
		case model.OrbitSimplified:
			return &StaticPlacement{At: Vec3{X: def.WidthMkm, Y: def.HeightMkm, Z: def.MaxAngleDeg}}, nil
		default:
			return nil, fmt.Errorf("%w: root bodies cannot use %q orbits", ErrInvalidConfiguration, kind)
		}
	}

	switch kind {
	case model.OrbitSimplified:
		unitsPerMkm := cfg.PixelsPerAU / MkmPerAU
		return NewSimplifiedOrbit(def.PeriodDays, def.WidthMkm*unitsPerMkm, def.HeightMkm*unitsPerMkm, def.MaxAngleDeg, ts)
	case model.OrbitKepler:
		el := KeplerElements{
			PerihelionMkm:       def.PerihelionMkm,
			Eccentricity:        def.Eccentricity,
			ArgPerihelionDeg:    def.ArgPerihelionDeg,
			AscendingNodeDeg:    def.AscendingNodeDeg,
			InclinationDeg:      def.InclinationDeg,
			MeanAnomalyJ2000Deg: def.MeanAnomalyJ2000Deg,
		}
		var epochMs float64
		if !cfg.Epoch.IsZero() {
			epochMs = MillisSinceJ2000(cfg.Epoch)
		}
		return NewKeplerOrbit(el, cfg.KeplerMode, cfg.PixelsPerAU*scale, epochMs, ts)
	case model.OrbitSatellite:
		epoch := cfg.Epoch
		if epoch.IsZero() {
			var err error
			if epoch, err = tleEpoch(def.TLE1); err != nil {
				return nil, err
			}
		}
		return NewSatelliteOrbit(def.TLE1, def.TLE2, epoch, scale*cfg.PixelsPerAU/kmPerAU, ts)
	case model.OrbitStatic:
		return nil, fmt.Errorf("%w: only roots can be static", ErrInvalidConfiguration)
	default:
		return nil, fmt.Errorf("%w: unknown orbit kind %q", ErrInvalidConfiguration, kind)
	}
}

// tleEpoch reads the epoch field (YYDDD.DDDDDDDD) of a TLE's first line.
func tleEpoch(line1 string) (time.Time, error) {
	line1 = strings.TrimSpace(line1)
	if len(line1) < 32 {
		return time.Time{}, fmt.Errorf("%w: malformed two-line element set", ErrInvalidConfiguration)
	}
	yy, err := strconv.Atoi(strings.TrimSpace(line1[18:20]))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: TLE epoch year: %v", ErrInvalidConfiguration, err)
	}
	days, err := strconv.ParseFloat(strings.TrimSpace(line1[20:32]), 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: TLE epoch day: %v", ErrInvalidConfiguration, err)
	}
	year := 2000 + yy
	if yy >= 57 {
		year = 1900 + yy
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start.Add(time.Duration(math.Round((days - 1) * float64(24*time.Hour)))), nil
}
