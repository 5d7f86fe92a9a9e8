package model

// OrbitKind selects how a body's orbit is computed.
type OrbitKind string

const (
	// OrbitStatic places a body at a fixed position. Only valid for roots.
	OrbitStatic OrbitKind = "static"
	// OrbitSimplified sweeps an ellipse with a bouncing vertical angle.
	OrbitSimplified OrbitKind = "simplified"
	// OrbitKepler propagates J2000 Keplerian elements.
	OrbitKepler OrbitKind = "kepler"
	// OrbitSatellite propagates a two-line element set with SGP4.
	OrbitSatellite OrbitKind = "satellite"
)

// Coordinates represents a point in scene space.
type Coordinates struct {
	X float64 `mapstructure:"x"`
	Y float64 `mapstructure:"y"`
	Z float64 `mapstructure:"z"`
}

// OrbitDefinition holds the parameters for every orbit kind; only the fields
// relevant to Kind are read.
type OrbitDefinition struct {
	Kind OrbitKind `mapstructure:"kind"`

	// Position is the absolute placement of a static root.
	Position Coordinates `mapstructure:"position"`

	// Simplified model. Width and height are in millions of km; for a
	// parentless simplified body width, height and max angle are read as an
	// absolute (x, y, z) placement instead.
	PeriodDays  float64 `mapstructure:"period_days"`
	WidthMkm    float64 `mapstructure:"width_mkm"`
	HeightMkm   float64 `mapstructure:"height_mkm"`
	MaxAngleDeg float64 `mapstructure:"max_angle_deg"`

	// Keplerian elements at J2000. Perihelion is in millions of km.
	PerihelionMkm       float64 `mapstructure:"perihelion_mkm"`
	Eccentricity        float64 `mapstructure:"eccentricity"`
	ArgPerihelionDeg    float64 `mapstructure:"arg_perihelion_deg"`
	AscendingNodeDeg    float64 `mapstructure:"ascending_node_deg"`
	InclinationDeg      float64 `mapstructure:"inclination_deg"`
	MeanAnomalyJ2000Deg float64 `mapstructure:"mean_anomaly_j2000_deg"`

	// Satellite two-line element set.
	TLE1 string `mapstructure:"tle1"`
	TLE2 string `mapstructure:"tle2"`

	// DistanceScale multiplies the computed distance from the parent for the
	// Kepler and satellite kinds. Zero means 1.
	DistanceScale float64 `mapstructure:"distance_scale"`
}

// RingDefinition describes a flat ring drawn around a body.
type RingDefinition struct {
	RadiusKm float64 `mapstructure:"radius_km"`
	TiltDeg  float64 `mapstructure:"tilt_deg"`
	Color    string  `mapstructure:"color"`
	Texture  string  `mapstructure:"texture"`
}

// BodyDefinition is the declarative description of a star, planet, moon or
// satellite. Children are attached with the definition as their parent.
type BodyDefinition struct {
	Name          string  `mapstructure:"name"`
	DiameterKm    float64 `mapstructure:"diameter_km"`
	ObliquityDeg  float64 `mapstructure:"obliquity_deg"`
	RotationHours float64 `mapstructure:"rotation_hours"` // negative spins retrograde
	Color         string  `mapstructure:"color"`          // hex, e.g. "#ffa500"
	Texture       string  `mapstructure:"texture"`

	Orbit    OrbitDefinition  `mapstructure:"orbit"`
	Rings    []RingDefinition `mapstructure:"rings"`
	Children []BodyDefinition `mapstructure:"children"`
}

// Count returns the number of bodies in the definition tree, itself included.
func (d BodyDefinition) Count() int {
	n := 1
	for _, c := range d.Children {
		n += c.Count()
	}
	return n
}
