package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-spiral-raytracer/pkg/core"
	"github.com/df07/go-spiral-raytracer/pkg/material"
)

// Sphere represents a sphere shape. Fields are fixed at construction.
type Sphere struct {
	Center    core.Vec3
	Radius    float64
	RadiusRcp float64 // 1 / Radius
	RadiusSq  float64 // Radius²
	Material  material.Material
}

// NewSphere creates a new sphere, rejecting shapes that would produce NaN downstream
func NewSphere(center core.Vec3, radius float64, mat material.Material) (*Sphere, error) {
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRadius, radius)
	}
	if !center.IsFinite() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCenter, center)
	}
	if mat == nil {
		return nil, ErrNilMaterial
	}

	return &Sphere{
		Center:    center,
		Radius:    radius,
		RadiusRcp: 1.0 / radius,
		RadiusSq:  radius * radius,
		Material:  mat,
	}, nil
}

// Hit tests if a ray intersects with the sphere
func (s *Sphere) Hit(query core.RayQuery) (material.HitRecord, bool) {
	t, ok := s.intersect(query.Ray, query.TMin, query.TMax)
	if !ok {
		return material.HitRecord{}, false
	}
	return s.HitAt(query.Ray, t), true
}

// intersect solves the ray/sphere quadratic, returning the nearest root in [tMin, tMax]
func (s *Sphere) intersect(ray core.Ray, tMin, tMax float64) (float64, bool) {
	oc := ray.Origin.Subtract(s.Center)

	// Quadratic equation coefficients: at² + 2·halfB·t + c = 0
	a := ray.LengthSq
	if a == 0 {
		// Ray literal without NewRay
		a = ray.Direction.LengthSquared()
	}
	halfB := oc.Dot(ray.Direction)
	c := oc.LengthSquared() - s.RadiusSq

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return 0, false
	}

	sqrtD := math.Sqrt(discriminant)

	// Try the closer intersection point first
	root := (-halfB - sqrtD) / a
	if root < tMin || root > tMax {
		root = (-halfB + sqrtD) / a
		if root < tMin || root > tMax {
			return 0, false
		}
	}
	return root, true
}

// HitAt builds the hit record for a known ray parameter t
func (s *Sphere) HitAt(ray core.Ray, t float64) material.HitRecord {
	hit := material.HitRecord{
		T:        t,
		Point:    ray.At(t),
		Material: s.Material,
	}
	outwardNormal := hit.Point.Subtract(s.Center).Multiply(s.RadiusRcp)
	hit.SetFaceNormal(ray, outwardNormal)
	return hit
}

// BoundingBox returns the axis-aligned bounding box for this sphere
func (s *Sphere) BoundingBox() core.AABB {
	radius := core.NewVec3(s.Radius, s.Radius, s.Radius)
	return core.NewAABB(
		s.Center.Subtract(radius),
		s.Center.Add(radius),
	)
}
