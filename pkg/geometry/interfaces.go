package geometry

import (
	"errors"

	"github.com/df07/go-spiral-raytracer/pkg/core"
	"github.com/df07/go-spiral-raytracer/pkg/material"
)

var (
	// ErrInvalidRadius is returned when a sphere radius is not a positive finite number.
	ErrInvalidRadius = errors.New("geometry: invalid sphere radius")

	// ErrInvalidCenter is returned when a sphere center has NaN or infinite components.
	ErrInvalidCenter = errors.New("geometry: invalid sphere center")

	// ErrNilMaterial is returned when a primitive is created without a material.
	ErrNilMaterial = errors.New("geometry: nil material")
)

// Primitive is an immutable shape that can be hit by rays
type Primitive interface {
	// Hit returns the intersection within [query.TMin, query.TMax], if any
	Hit(query core.RayQuery) (material.HitRecord, bool)
	BoundingBox() core.AABB
}
