package core

import "math"

const (
	// TraceEpsilon is the minimum hit distance, avoiding self-intersection
	// of scattered rays with the surface they leave from.
	TraceEpsilon = 0.001
)

// TraceInfinity is the open upper end of a fresh ray query.
var TraceInfinity = math.Inf(1)

// Ray represents a ray with an origin and direction
type Ray struct {
	Origin    Vec3
	Direction Vec3
	LengthSq  float64 // Squared length of Direction, reused by every intersection test
}

// NewRay creates a new ray
func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction, LengthSq: direction.LengthSquared()}
}

// At returns the point at parameter t along the ray
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Multiply(t))
}

// RayQuery is a ray restricted to the parameter interval [TMin, TMax].
// During a closest-hit search TMax only ever shrinks.
type RayQuery struct {
	Ray  Ray
	TMin float64
	TMax float64
}

// NewRayQuery creates a query over [TraceEpsilon, +Inf)
func NewRayQuery(ray Ray) RayQuery {
	return RayQuery{Ray: ray, TMin: TraceEpsilon, TMax: TraceInfinity}
}

// Shrink narrows TMax to t if t is closer
func (q *RayQuery) Shrink(t float64) {
	if t < q.TMax {
		q.TMax = t
	}
}
