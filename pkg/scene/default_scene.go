package scene

import (
	"github.com/df07/go-spiral-raytracer/pkg/core"
	"github.com/df07/go-spiral-raytracer/pkg/geometry"
	"github.com/df07/go-spiral-raytracer/pkg/material"
)

func init() {
	register("glass", "showcase", "Diffuse, metal and glass spheres side by side", NewGlassScene)
}

// NewGlassScene creates the material showcase: a diffuse sphere between a
// silver mirror and fuzzy gold, with solid and nested glass in front
func NewGlassScene(override geometry.CameraConfig) (*Scene, error) {
	camera := geometry.CameraConfig{
		Center:      core.NewVec3(0, 0.75, 2), // Position camera higher and farther back
		LookAt:      core.NewVec3(0, 0.5, -1), // Look at the sphere center
		Up:          core.NewVec3(0, 1, 0),
		Width:       400,
		AspectRatio: 16.0 / 9.0,
		VFov:        40.0,
		Aperture:    0.05,
	}
	sampling := SamplingConfig{SamplesPerPixel: 100, MaxDepth: 50}
	s := newPresetScene(camera, override, sampling, NewSkyWithSun())

	lambertianGreen := material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0).Multiply(0.6))
	lambertianBlue := material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))
	lambertianRed := material.NewLambertian(core.NewVec3(0.65, 0.25, 0.2))
	metalSilver := material.NewMetal(core.NewVec3(0.8, 0.8, 0.8), 0.0)
	metalGold := material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.3)
	glass := material.NewDielectric(1.5)

	spheres := []struct {
		center core.Vec3
		radius float64
		mat    material.Material
	}{
		{core.NewVec3(0, -1000, -1), 1000, lambertianGreen}, // ground
		{core.NewVec3(0, 0.5, -1), 0.5, lambertianRed},
		{core.NewVec3(-1, 0.5, -1), 0.5, metalSilver},
		{core.NewVec3(1, 0.5, -1), 0.5, metalGold},
		{core.NewVec3(0.5, 0.25, -0.5), 0.25, glass},
		// Glass shell around a small blue sphere
		{core.NewVec3(-0.5, 0.25, -0.5), 0.25, glass},
		{core.NewVec3(-0.5, 0.25, -0.5), 0.15, lambertianBlue},
	}

	for _, sp := range spheres {
		if err := s.AddSphere(sp.center, sp.radius, sp.mat); err != nil {
			return nil, err
		}
	}
	return s, nil
}
