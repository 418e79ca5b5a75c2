package scene

import (
	"errors"
	"fmt"

	"github.com/df07/go-spiral-raytracer/pkg/core"
	"github.com/df07/go-spiral-raytracer/pkg/geometry"
	"github.com/df07/go-spiral-raytracer/pkg/material"
)

// ErrSceneBuilt is returned when a scene is modified after Build
var ErrSceneBuilt = errors.New("scene: already built")

// SamplingConfig contains preset rendering defaults
type SamplingConfig struct {
	Width           int // Image width
	Height          int // Image height
	SamplesPerPixel int // Number of rays per pixel
	MaxDepth        int // Maximum ray bounce depth
}

// Scene contains all the elements needed for rendering. It is populated,
// finalized by one Build call and then shared read-only by every worker.
type Scene struct {
	Name           string
	Camera         *geometry.Camera
	CameraConfig   geometry.CameraConfig
	SamplingConfig SamplingConfig
	Background     Background

	Primitives []geometry.Primitive
	Bounds     []geometry.Bounds // parallel to Primitives after Build
	BVH        *geometry.BVH     // nil before Build
	Packets    []geometry.SpherePacket

	spheres []*geometry.Sphere // Primitives[i] as a sphere, nil when it is not one
	built   bool
}

// New creates an empty scene with a plain sky background
func New() *Scene {
	return &Scene{Background: NewSkyGradient()}
}

// Add appends a primitive
func (s *Scene) Add(p geometry.Primitive) error {
	if s.built {
		return ErrSceneBuilt
	}
	s.Primitives = append(s.Primitives, p)
	return nil
}

// AddSphere validates and appends a sphere
func (s *Scene) AddSphere(center core.Vec3, radius float64, mat material.Material) error {
	sphere, err := geometry.NewSphere(center, radius, mat)
	if err != nil {
		return fmt.Errorf("add sphere %d: %w", len(s.Primitives), err)
	}
	return s.Add(sphere)
}

// Build computes bounds, the BVH and sphere packets. It may be called once.
func (s *Scene) Build(opts geometry.BuildOptions) error {
	if s.built {
		return ErrSceneBuilt
	}

	s.Bounds = make([]geometry.Bounds, len(s.Primitives))
	s.spheres = make([]*geometry.Sphere, len(s.Primitives))
	var packetSpheres []*geometry.Sphere
	var packetIndices []int

	for i, p := range s.Primitives {
		s.Bounds[i] = geometry.Bounds{Box: p.BoundingBox(), PrimitiveIndex: i, NodeIndex: -1}
		if sphere, ok := p.(*geometry.Sphere); ok {
			s.spheres[i] = sphere
			packetSpheres = append(packetSpheres, sphere)
			packetIndices = append(packetIndices, i)
		}
	}

	s.BVH = geometry.NewBVH(s.Bounds, opts)
	s.Packets = geometry.NewSpherePackets(packetSpheres, packetIndices)
	if s.Camera == nil && s.CameraConfig.AspectRatio > 0 {
		s.Camera = geometry.NewCamera(s.CameraConfig)
	}
	s.built = true
	return nil
}

// Built reports whether Build has completed
func (s *Scene) Built() bool {
	return s.built
}

// PacketCapable reports whether every primitive can be traced in packets
func (s *Scene) PacketCapable() bool {
	if !s.built {
		return false
	}
	for _, sphere := range s.spheres {
		if sphere == nil {
			return false
		}
	}
	return true
}

// Intersect returns the closest hit within [query.TMin, query.TMax].
// Ties keep the first primitive found. Safe for concurrent use.
func (s *Scene) Intersect(query core.RayQuery) (material.HitRecord, bool) {
	var closest material.HitRecord
	found := false

	if s.BVH == nil {
		return closest, false
	}

	it := s.BVH.Traverse(&query)
	for {
		index, ok := it.Next()
		if !ok {
			break
		}

		hit, isHit := s.Primitives[index].Hit(query)
		if !isHit {
			continue
		}
		// Shorten the ray so the traversal skips farther boxes
		query.Shrink(hit.T)
		if !found || hit.T < closest.T {
			closest = hit
			found = true
		}
	}
	return closest, found
}

// IntersectPacket finds the closest hit for every live lane of rays by testing
// them against all sphere packets. The winning sphere of each lane is
// re-intersected in float64 so hit records match the scalar path.
func (s *Scene) IntersectPacket(rays *geometry.RayPacket, live [geometry.PacketWidth]bool) ([geometry.PacketWidth]material.HitRecord, [geometry.PacketWidth]bool) {
	var records [geometry.PacketWidth]material.HitRecord
	var ok [geometry.PacketWidth]bool

	hits := geometry.NewPacketHits()
	for i := range s.Packets {
		s.Packets[i].Intersect(rays, live, &hits)
	}

	for lane := 0; lane < geometry.PacketWidth; lane++ {
		index := hits.Index[lane]
		if !live[lane] || index < 0 {
			continue
		}
		sphere := s.spheres[index]
		query := core.RayQuery{Ray: rays.Rays[lane], TMin: rays.Near, TMax: rays.Far}
		if hit, isHit := sphere.Hit(query); isHit {
			records[lane] = hit
		} else {
			records[lane] = sphere.HitAt(rays.Rays[lane], float64(hits.T[lane]))
		}
		ok[lane] = true
	}
	return records, ok
}
