package scene

import (
	"github.com/df07/go-spiral-raytracer/pkg/core"
)

// Background is the radiance seen by rays that leave the scene.
// It depends on the ray direction only.
type Background interface {
	Color(direction core.Vec3) core.Vec3
}

// SkyGradient blends from Bottom at the horizon below to Top straight up
type SkyGradient struct {
	Top    core.Vec3
	Bottom core.Vec3
}

// NewSkyGradient creates the classic white-to-blue sky
func NewSkyGradient() *SkyGradient {
	return &SkyGradient{
		Top:    core.NewVec3(0.5, 0.7, 1.0),
		Bottom: core.NewVec3(1.0, 1.0, 1.0),
	}
}

// Color returns the gradient color for direction
func (g *SkyGradient) Color(direction core.Vec3) core.Vec3 {
	unit := direction.Normalize()
	t := 0.5 * (unit.Y + 1.0)
	return g.Bottom.Multiply(1.0 - t).Add(g.Top.Multiply(t))
}

// SkyWithSun adds a bright disc with a soft edge around SunDirection.
// Directions whose cosine to the sun is above Outer are fully lit, those
// below Inner get no sun at all.
type SkyWithSun struct {
	Sky          SkyGradient
	SunDirection core.Vec3 // unit vector towards the sun
	SunColor     core.Vec3
	Inner, Outer float64 // smoothstep edges on the cosine
}

// NewSkyWithSun creates a sky with a warm sun high to the right of the default view
func NewSkyWithSun() *SkyWithSun {
	return &SkyWithSun{
		Sky:          *NewSkyGradient(),
		SunDirection: core.NewVec3(1, 1, 0.5).Normalize(),
		SunColor:     core.NewVec3(10, 9, 7),
		Inner:        0.995,
		Outer:        0.999,
	}
}

// Color returns the sky color plus the sun contribution for direction
func (s *SkyWithSun) Color(direction core.Vec3) core.Vec3 {
	unit := direction.Normalize()
	sky := s.Sky.Color(unit)
	weight := smoothstep(s.Inner, s.Outer, unit.Dot(s.SunDirection))
	return sky.Add(s.SunColor.Multiply(weight))
}

func smoothstep(edge0, edge1, x float64) float64 {
	t := (x - edge0) / (edge1 - edge0)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return t * t * (3 - 2*t)
}
