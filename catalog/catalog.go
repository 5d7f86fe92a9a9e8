// Package catalog holds the built-in scenarios.
package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/signalsfoundry/orrery-simulator/model"
)

// ErrUnknownScenario is returned by Lookup for names not in the catalog.
var ErrUnknownScenario = errors.New("unknown scenario")

const (
	orange    = "#ffc800"
	gray      = "#808080"
	lightGray = "#c0c0c0"
	blue      = "#0000ff"
	white     = "#ffffff"
	red       = "#ff0000"
	yellow    = "#ffff00"
	cyan      = "#00ffff"
)

// Outer planets share one distance compression so they fit the view.
const outerCompression = 1.75

var builtins = map[string]func() model.Scenario{
	"solar-system": SolarSystem,
	"kepler":       KeplerSystem,
	"earth-iss":    EarthSatellites,
}

// Names lists the built-in scenarios in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a fresh copy of the named built-in scenario.
func Lookup(name string) (model.Scenario, error) {
	fn, ok := builtins[name]
	if !ok {
		return model.Scenario{}, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
	return fn(), nil
}

// simplified builds a body on the angular sweep model. Height and width are
// in millions of km, in the order the orbit tables list them.
func simplified(name string, diameterKm, maxAngle, obliquity, rotationHours, periodDays, heightMkm, widthMkm float64, color, texture string) model.BodyDefinition {
	return model.BodyDefinition{
		Name:          name,
		DiameterKm:    diameterKm,
		ObliquityDeg:  obliquity,
		RotationHours: rotationHours,
		Color:         color,
		Texture:       texture,
		Orbit: model.OrbitDefinition{
			Kind:        model.OrbitSimplified,
			PeriodDays:  periodDays,
			WidthMkm:    widthMkm,
			HeightMkm:   heightMkm,
			MaxAngleDeg: maxAngle,
		},
	}
}

// SolarSystem is the Sun, the nine classical planets and their larger moons
// on the simplified model. Moon distances are exaggerated so they clear
// their planet's sphere.
func SolarSystem() model.Scenario {
	const c = outerCompression

	earth := simplified("Earth", 12756, 0, 23.4, 23.9, 365.2, 147.1, 152.1, blue, "2k_earth_daymap.jpg")
	earth.Children = []model.BodyDefinition{
		simplified("Moon", 3475, 5.1, 6.7, 655.7, 27.3, .363*20, .406*20, white, "2k_moon.jpg"),
	}

	jupiter := simplified("Jupiter", 142984, 1.3, 3.1, 9.9, 4331, 740.5/c, 816.6/c, yellow, "2k_jupiter.jpg")
	jupiter.Children = []model.BodyDefinition{
		simplified("Io", 3643, .04, 0, 42.5, 1.8, .420*145, .424*145, white, "io.jpg"),
		simplified("Ganymede", 5262, .18, 0, 171.7, 7.2, 1.068*85, 1.072*85, lightGray, "ganymede.jpg"),
		simplified("Callisto", 4821, .19, 0, 400.5, 16.7, 1.87*60, 1.896*60, orange, "callisto.jpg"),
	}

	saturn := simplified("Saturn", 120536, 2.5, 26.7, 10.7, 10747, 1352.6/c, 1514.5/c, white, "2k_saturn.jpg")
	saturn.Rings = []model.RingDefinition{{RadiusKm: 180000, TiltDeg: 26.7, Texture: "2k_saturn_ring_alpha.png"}}
	saturn.Children = []model.BodyDefinition{
		simplified("Titan", 5150, .33, 0, 382.69, 15.945, 1.222*125, 1.187*125, gray, "titan.jpg"),
	}

	uranus := simplified("Uranus", 51118, .8, 97.8, -17.2, 30689, 2741.3/c, 3003.6/c, cyan, "2k_uranus.jpg")
	uranus.Children = []model.BodyDefinition{
		simplified("Titania", 1577.8, .08, 0, 208.941, 8.705, .436*55, .436*55, yellow, ""),
		simplified("Oberon", 1522.8, .07, 0, 323.118, 13.463, .584*60, .583*60, gray, ""),
	}

	sun := model.BodyDefinition{
		Name: "Sun",
		// Shrunk so the inner planets stay visible outside it.
		DiameterKm:    1391000 / 15.0,
		RotationHours: 576,
		Color:         orange,
		Texture:       "2k_sun.jpg",
		Orbit:         model.OrbitDefinition{Kind: model.OrbitStatic},
		Children: []model.BodyDefinition{
			simplified("Mercury", 4879, 7, .034, 1407.6, 88, 46, 69.8, gray, "2k_mercury.jpg"),
			simplified("Venus", 12104, 3.4, 177.4, -5832.5, 224.7, 107.5, 108.9, orange, "2k_venus_atmosphere.jpg"),
			earth,
			simplified("Mars", 6792, 1.9, 25.2, 24.6, 687.0, 206.6, 249.2, red, "2k_mars.jpg"),
			jupiter,
			saturn,
			uranus,
			simplified("Neptune", 49528, 1.8, 28.3, 16.1, 59800, 4444.5/c, 4545.7/c, blue, "2k_neptune.jpg"),
			simplified("Pluto", 2370, 17.2, 122.5, -153.3, 90560, 4436.8/c, 7375.9/c, lightGray, "plutomap2k.jpg"),
		},
	}

	return model.Scenario{Name: "solar-system", Bodies: []model.BodyDefinition{sun}}
}

func kepler(name string, diameterKm, rotationHours, obliquity, perihelionMkm, e, argPerihelion, ascendingNode, inclination, meanAnomaly float64, color string) model.BodyDefinition {
	return model.BodyDefinition{
		Name:          name,
		DiameterKm:    diameterKm,
		ObliquityDeg:  obliquity,
		RotationHours: rotationHours,
		Color:         color,
		Orbit: model.OrbitDefinition{
			Kind:                model.OrbitKepler,
			PerihelionMkm:       perihelionMkm,
			Eccentricity:        e,
			ArgPerihelionDeg:    argPerihelion,
			AscendingNodeDeg:    ascendingNode,
			InclinationDeg:      inclination,
			MeanAnomalyJ2000Deg: meanAnomaly,
		},
	}
}

// KeplerSystem places Mercury, Earth with its Moon, and Jupiter from their
// J2000 elements.
func KeplerSystem() model.Scenario {
	earth := kepler("Earth", 12756, 23.9, 23.4, 147.1, 0.017, 288.064, 174.873, 0.0, 357.529, blue)
	moon := kepler("Moon", 3475, 655.7, 6.7, 0.363, 0.055, 318.150, 258.372, 5.1, 134.963, white)
	moon.Orbit.DistanceScale = 30
	earth.Children = []model.BodyDefinition{moon}

	sun := model.BodyDefinition{
		Name:          "Sun",
		DiameterKm:    1391000 / 15.0,
		RotationHours: 576,
		Color:         orange,
		Orbit:         model.OrbitDefinition{Kind: model.OrbitStatic},
		Children: []model.BodyDefinition{
			kepler("Mercury", 4879, 1407.6, 0.034, 46.0, 0.205, 29.125, 48.331, 7.005, 174.795, gray),
			earth,
			kepler("Jupiter", 142984, 9.9, 3.1, 740.5, 0.04849, 273.867, 100.464, 1.303, 20.020, yellow),
		},
	}
	return model.Scenario{Name: "kepler", Bodies: []model.BodyDefinition{sun}}
}

// ISS two-line element set, epoch 2021-10-02.
const (
	issTLE1 = "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990"
	issTLE2 = "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760"
)

// satelliteDistanceScale puts SGP4 ranges on the same km scale as body
// diameters at the default size scale and pixels per AU.
const satelliteDistanceScale = 750

// EarthSatellites is Earth at the origin with the ISS on its SGP4 orbit.
func EarthSatellites() model.Scenario {
	earth := model.BodyDefinition{
		Name:          "Earth",
		DiameterKm:    12756,
		ObliquityDeg:  23.4,
		RotationHours: 23.9,
		Color:         blue,
		Texture:       "2k_earth_daymap.jpg",
		Orbit:         model.OrbitDefinition{Kind: model.OrbitStatic},
		Children: []model.BodyDefinition{{
			Name:       "ISS",
			DiameterKm: 200,
			Color:      white,
			Orbit: model.OrbitDefinition{
				Kind:          model.OrbitSatellite,
				TLE1:          issTLE1,
				TLE2:          issTLE2,
				DistanceScale: satelliteDistanceScale,
			},
		}},
	}
	return model.Scenario{Name: "earth-iss", Bodies: []model.BodyDefinition{earth}}
}
