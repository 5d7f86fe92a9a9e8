package core

import (
	"fmt"
	"math"
)

// MkmPerAU is one astronomical unit in millions of kilometres, the unit the
// body definitions use for orbit sizes.
const MkmPerAU = 149.6

// Vec3 is a point or displacement in scene units.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale returns v multiplied by f.
func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{X: v.X * f, Y: v.Y * f, Z: v.Z * f}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return v.Sub(other).Norm()
}

// IsFinite reports whether no component is NaN or infinite.
func (v Vec3) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }

func radToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }

// normalizeDegrees folds an angle into [0, 360).
func normalizeDegrees(angle float64) float64 {
	angle = math.Mod(angle, 360.0)
	if angle < 0 {
		angle += 360.0
	}
	// -tiny + 360 rounds to 360.
	if angle >= 360.0 {
		angle = 0
	}
	return angle
}

// PositionOnOrbit projects a body at distance radius, lifted by angleDeg, onto
// the orbit plane. The two equal sides of an isosceles triangle subtend the
// angle; the law of cosines yields the base, half the base gives the planar
// offset x and Heron's area over the radius gives the height z.
//
// An angle of zero is collinear and returns (radius, 0).
func PositionOnOrbit(radius, angleDeg float64) (x, z float64, err error) {
	if radius < 0 || !isFinite(radius) {
		return 0, 0, fmt.Errorf("%w: orbit radius %v", ErrDegenerateGeometry, radius)
	}
	if !isFinite(angleDeg) {
		return 0, 0, fmt.Errorf("%w: orbit angle %v", ErrDegenerateGeometry, angleDeg)
	}
	if angleDeg == 0 {
		return radius, 0, nil
	}
	if radius == 0 {
		return 0, 0, nil
	}

	sq := radius * radius
	third := math.Sqrt(math.Max(0, sq+sq-2.0*sq*math.Cos(degToRad(angleDeg))))

	half := 0.5 * third
	x = math.Sqrt(math.Max(0, sq-half*half))

	s := (radius + radius + third) / 2.0
	area := math.Sqrt(math.Max(0, s*(s-radius)*(s-third)*(s-radius)))
	z = (2.0 * area) / radius

	return x, z, nil
}
