package integrator

import (
	"github.com/df07/go-spiral-raytracer/pkg/core"
	"github.com/df07/go-spiral-raytracer/pkg/geometry"
	"github.com/df07/go-spiral-raytracer/pkg/scene"
)

// PathTracer implements unidirectional path tracing without light sampling.
// Surfaces are lit only by the background.
type PathTracer struct {
	MaxDepth int  // Bounce limit for primary rays
	Packets  bool // Trace samples four at a time when the scene allows it
}

// NewPathTracer creates a path tracer. A non-positive maxDepth selects
// DefaultMaxDepth.
func NewPathTracer(maxDepth int, packets bool) *PathTracer {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &PathTracer{MaxDepth: maxDepth, Packets: packets}
}

// Trace computes the color carried by a single ray
func (pt *PathTracer) Trace(ray core.Ray, s *scene.Scene, sampler core.Sampler, depth int, rays *uint64) core.Vec3 {
	// If we've exceeded the ray bounce limit, no more light is gathered
	if depth <= 0 {
		return core.Vec3{}
	}

	*rays++
	hit, isHit := s.Intersect(core.NewRayQuery(ray))
	if !isHit {
		return s.Background.Color(ray.Direction)
	}

	scatter, didScatter := hit.Material.Scatter(ray, hit, sampler)
	if !didScatter {
		return core.Vec3{}
	}

	return scatter.Attenuation.MultiplyVec(pt.Trace(scatter.Scattered, s, sampler, depth-1, rays))
}

// SamplePixel averages spp jittered samples through the camera
func (pt *PathTracer) SamplePixel(camera *geometry.Camera, s *scene.Scene, x, y, width, height, spp int, sampler core.Sampler, rays *uint64) core.Vec3 {
	if spp <= 0 {
		return core.Vec3{}
	}
	if pt.Packets && s.PacketCapable() {
		return pt.samplePixelPackets(camera, s, x, y, width, height, spp, sampler, rays)
	}

	color := core.Vec3{}
	for i := 0; i < spp; i++ {
		ray := primaryRay(camera, x, y, width, height, sampler)
		color = color.Add(pt.Trace(ray, s, sampler, pt.MaxDepth, rays))
	}
	return color.Multiply(1.0 / float64(spp))
}

func (pt *PathTracer) samplePixelPackets(camera *geometry.Camera, s *scene.Scene, x, y, width, height, spp int, sampler core.Sampler, rays *uint64) core.Vec3 {
	color := core.Vec3{}
	for i := 0; i < spp; i += geometry.PacketWidth {
		var batch [geometry.PacketWidth]core.Ray
		var live [geometry.PacketWidth]bool
		for lane := 0; lane < geometry.PacketWidth && i+lane < spp; lane++ {
			batch[lane] = primaryRay(camera, x, y, width, height, sampler)
			live[lane] = true
		}

		colors := pt.TracePacket(batch, live, s, sampler, pt.MaxDepth, rays)
		for lane := range colors {
			if live[lane] {
				color = color.Add(colors[lane])
			}
		}
	}
	return color.Multiply(1.0 / float64(spp))
}

// primaryRay maps a jittered pixel position to a camera ray. The jitter spans
// [0, 1/(w-1)) horizontally and [0, 1/(h-1)) vertically and v is flipped so
// row 0 is the top of the image.
func primaryRay(camera *geometry.Camera, x, y, width, height int, sampler core.Sampler) core.Ray {
	jitter := sampler.Get2D()
	u := (float64(x) + jitter.X) / span(width)
	v := (float64(height-1-y) + jitter.Y) / span(height)
	return camera.GetRay(sampler, u, v)
}

func span(n int) float64 {
	if n <= 1 {
		return 1
	}
	return float64(n - 1)
}
