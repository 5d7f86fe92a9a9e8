package model

// BodyPose is a read-only snapshot of one body after a committed tick.
type BodyPose struct {
	ID       int
	Name     string
	ParentID int // -1 for roots
	Kind     OrbitKind

	Position Coordinates
	Radius   float64

	// Orientation is the body's attitude quaternion as (W, X, Y, Z).
	Orientation [4]float64
	SpinDeg     float64

	// SweepDeg and VerticalDeg are only meaningful for the simplified model.
	SweepDeg    float64
	VerticalDeg float64
	// MeanAnomalyDeg is only meaningful for the Kepler model.
	MeanAnomalyDeg float64
	// Distance is the current distance from the parent in scene units.
	Distance float64

	Color string
}

// IsRoot reports whether the pose belongs to a parentless body.
func (p BodyPose) IsRoot() bool { return p.ParentID < 0 }
