package integrator

import (
	"github.com/df07/go-spiral-raytracer/pkg/core"
	"github.com/df07/go-spiral-raytracer/pkg/geometry"
	"github.com/df07/go-spiral-raytracer/pkg/scene"
)

// DefaultMaxDepth is the bounce limit used when none is configured
const DefaultMaxDepth = 50

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// Trace returns the radiance carried back along ray, allowing depth more
	// bounces. Every ray cast against the scene increments *rays.
	Trace(ray core.Ray, scene *scene.Scene, sampler core.Sampler, depth int, rays *uint64) core.Vec3

	// SamplePixel averages spp jittered camera samples for pixel (x, y) of a
	// width x height image. Row 0 is the top of the image.
	SamplePixel(camera *geometry.Camera, scene *scene.Scene, x, y, width, height, spp int, sampler core.Sampler, rays *uint64) core.Vec3
}
