package scene

import (
	"github.com/df07/go-spiral-raytracer/pkg/core"
	"github.com/df07/go-spiral-raytracer/pkg/geometry"
	"github.com/df07/go-spiral-raytracer/pkg/material"
)

func init() {
	register("ground", "basic", "A single huge diffuse sphere acting as a ground plane", NewGroundScene)
}

// NewGroundScene creates a sphere of radius 1000 centered at (0, -1000, -1)
// seen by a pinhole camera at the origin looking down -Z
func NewGroundScene(override geometry.CameraConfig) (*Scene, error) {
	camera := geometry.CameraConfig{
		Center:      core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		Width:       400,
		AspectRatio: 16.0 / 9.0,
		VFov:        90.0,
	}
	sampling := SamplingConfig{SamplesPerPixel: 16, MaxDepth: 50}
	s := newPresetScene(camera, override, sampling, NewSkyGradient())

	ground := material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))
	if err := s.AddSphere(core.NewVec3(0, -1000, -1), 1000, ground); err != nil {
		return nil, err
	}
	return s, nil
}
