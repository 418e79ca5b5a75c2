package scene

import (
	"math/rand"

	"github.com/df07/go-spiral-raytracer/pkg/core"
	"github.com/df07/go-spiral-raytracer/pkg/geometry"
	"github.com/df07/go-spiral-raytracer/pkg/material"
)

// placementAttempts bounds the search for a free spot for each small sphere
const placementAttempts = 100

func init() {
	register("weekend", "classic", "Hundreds of small random spheres around three large ones", NewWeekendScene)
}

// NewWeekendScene creates the random sphere field from "Ray Tracing in One
// Weekend". The layout is seeded, so every call returns the same scene.
func NewWeekendScene(override geometry.CameraConfig) (*Scene, error) {
	camera := geometry.CameraConfig{
		Center:        core.NewVec3(13, 2, 3),
		LookAt:        core.NewVec3(0, 0, 0),
		Up:            core.NewVec3(0, 1, 0),
		Width:         800,
		AspectRatio:   16.0 / 9.0,
		VFov:          20.0,
		Aperture:      0.1,
		FocusDistance: 10.0,
	}
	sampling := SamplingConfig{SamplesPerPixel: 64, MaxDepth: 50}
	s := newPresetScene(camera, override, sampling, NewSkyGradient())

	random := rand.New(rand.NewSource(2))
	placed := make([]*geometry.Sphere, 0, 500)

	add := func(center core.Vec3, radius float64, mat material.Material) error {
		sphere, err := geometry.NewSphere(center, radius, mat)
		if err != nil {
			return err
		}
		placed = append(placed, sphere)
		return s.Add(sphere)
	}
	overlaps := func(center core.Vec3, radius float64) bool {
		for _, other := range placed {
			if other.Center.Subtract(center).Length() < other.Radius+radius {
				return true
			}
		}
		return false
	}

	large := []struct {
		center core.Vec3
		radius float64
		mat    material.Material
	}{
		{core.NewVec3(0, -1000, -1), 1000, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))},
		{core.NewVec3(0, 1, 0), 1, material.NewDielectric(1.5)},
		{core.NewVec3(-4, 1, 0), 1, material.NewLambertian(core.NewVec3(0.4, 0.2, 0.1))},
		{core.NewVec3(4, 1, 0), 1, material.NewMetal(core.NewVec3(0.7, 0.6, 0.5), 0.0)},
	}
	for _, l := range large {
		if err := add(l.center, l.radius, l.mat); err != nil {
			return nil, err
		}
	}

	for a := -11; a < 11; a++ {
		for b := -11; b < 11; b++ {
			chooseMat := random.Float64()

			var center core.Vec3
			free := false
			for attempt := 0; attempt < placementAttempts && !free; attempt++ {
				center = core.NewVec3(float64(a)+0.9*random.Float64(), 0.2, float64(b)+0.9*random.Float64())
				free = !overlaps(center, 0.2)
			}
			if !free || center.Subtract(core.NewVec3(4, 0.2, 0)).Length() <= 0.9 {
				continue
			}

			var mat material.Material
			switch {
			case chooseMat < 0.7:
				mat = material.NewLambertian(randomColor(random, 0, 1).MultiplyVec(randomColor(random, 0, 1)))
			case chooseMat < 0.95:
				mat = material.NewMetal(randomColor(random, 0.5, 1), 0.5*random.Float64())
			default:
				mat = material.NewDielectric(1.5)
			}
			if err := add(center, 0.2, mat); err != nil {
				return nil, err
			}
		}
	}

	return s, nil
}

func randomColor(random *rand.Rand, min, max float64) core.Vec3 {
	span := max - min
	return core.NewVec3(
		min+span*random.Float64(),
		min+span*random.Float64(),
		min+span*random.Float64(),
	)
}
