package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// OrbitPath is a closed polyline tracing an ellipse. Points are local to the
// ellipse centre; Anchor places them in the scene.
type OrbitPath struct {
	Points  []Vec3
	Anchor  Vec3
	RadiusA float64
	RadiusB float64
	TiltDeg float64
}

// BuildEllipsePath samples an ellipse with radii ra and rb using
// round(density*max(ra, rb)) points, then tilts it about the y axis by
// -tiltDeg. Point i sits at angle i*π/(n/2), so point 0 is (ra, 0, 0) before
// tilting.
func BuildEllipsePath(ra, rb, density, tiltDeg float64) (OrbitPath, error) {
	if !(ra > 0) || !(rb > 0) || !isFinite(ra) || !isFinite(rb) {
		return OrbitPath{}, fmt.Errorf("%w: path radii %v, %v", ErrDegenerateGeometry, ra, rb)
	}
	if !(density > 0) || !isFinite(density) {
		return OrbitPath{}, fmt.Errorf("%w: path density %v", ErrInvalidConfiguration, density)
	}
	n := int(math.Round(density * math.Max(ra, rb)))
	if n < 1 {
		return OrbitPath{}, fmt.Errorf("%w: path of %v x %v at density %v has no points", ErrDegenerateGeometry, ra, rb, density)
	}

	local := mat.NewDense(3, n, nil)
	step := math.Pi / (float64(n) / 2.0)
	for i := 0; i < n; i++ {
		s, c := math.Sincos(float64(i) * step)
		local.Set(0, i, ra*c)
		local.Set(1, i, rb*s)
	}

	var tilted mat.Dense
	tilted.Mul(rotationY(-degToRad(tiltDeg)), local)

	points := make([]Vec3, n)
	for i := range points {
		points[i] = Vec3{X: tilted.At(0, i), Y: tilted.At(1, i), Z: tilted.At(2, i)}
	}
	return OrbitPath{Points: points, RadiusA: ra, RadiusB: rb, TiltDeg: tiltDeg}, nil
}

func rotationY(rad float64) *mat.Dense {
	s, c := math.Sincos(rad)
	return mat.NewDense(3, 3, []float64{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	})
}

// World returns the path points translated to Anchor.
func (p OrbitPath) World() []Vec3 {
	out := make([]Vec3, len(p.Points))
	for i, pt := range p.Points {
		out[i] = pt.Add(p.Anchor)
	}
	return out
}

// NeedsRebuild reports whether a dynamic path built for radius should be
// rebuilt for the current distance, given a relative tolerance.
func (p OrbitPath) NeedsRebuild(distance, tolerance float64) bool {
	if p.RadiusA == 0 {
		return distance > 0
	}
	return math.Abs(distance-p.RadiusA)/p.RadiusA > tolerance
}
