package integrator

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-spiral-raytracer/pkg/core"
	"github.com/df07/go-spiral-raytracer/pkg/geometry"
	"github.com/df07/go-spiral-raytracer/pkg/material"
	"github.com/df07/go-spiral-raytracer/pkg/scene"
)

// MirrorMaterial reflects perfectly and never touches the sampler, so scalar
// and packet tracing follow identical paths
type MirrorMaterial struct {
	Attenuation core.Vec3
}

func (m *MirrorMaterial) Scatter(rayIn core.Ray, hit material.HitRecord, sampler core.Sampler) (material.ScatterResult, bool) {
	reflected := core.Reflect(rayIn.Direction.Normalize(), hit.Normal)
	return material.ScatterResult{Scattered: core.NewRay(hit.Point, reflected), Attenuation: m.Attenuation}, true
}

// AbsorbingMaterial absorbs every ray
type AbsorbingMaterial struct{}

func (m *AbsorbingMaterial) Scatter(rayIn core.Ray, hit material.HitRecord, sampler core.Sampler) (material.ScatterResult, bool) {
	return material.ScatterResult{}, false
}

type testSphere struct {
	center core.Vec3
	radius float64
	mat    material.Material
}

func createTestScene(t *testing.T, spheres ...testSphere) *scene.Scene {
	t.Helper()
	s := scene.New()
	for _, sp := range spheres {
		if err := s.AddSphere(sp.center, sp.radius, sp.mat); err != nil {
			t.Fatalf("AddSphere failed: %v", err)
		}
	}
	if err := s.Build(geometry.BuildOptions{Strategy: geometry.SplitSAH}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return s
}

func newSampler(seed int64) core.Sampler {
	return core.NewRandomSampler(rand.New(rand.NewSource(seed)))
}

func vecClose(a, b core.Vec3, tolerance float64) bool {
	return math.Abs(a.X-b.X) <= tolerance && math.Abs(a.Y-b.Y) <= tolerance && math.Abs(a.Z-b.Z) <= tolerance
}

func TestPathTracer_DepthZeroIsBlack(t *testing.T) {
	s := createTestScene(t, testSphere{core.NewVec3(0, 0, -5), 1, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))})
	pt := NewPathTracer(10, false)

	var rays uint64
	for _, depth := range []int{0, -1} {
		color := pt.Trace(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), s, newSampler(1), depth, &rays)
		if color != (core.Vec3{}) {
			t.Errorf("Expected black for depth %d, got %v", depth, color)
		}
	}
	if rays != 0 {
		t.Errorf("Expected no rays cast at depth 0, got %d", rays)
	}
}

func TestPathTracer_MissReturnsBackground(t *testing.T) {
	s := createTestScene(t, testSphere{core.NewVec3(0, 0, -5), 1, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))})
	pt := NewPathTracer(10, false)

	direction := core.NewVec3(0.3, 1, 0.2)
	var rays uint64
	color := pt.Trace(core.NewRay(core.NewVec3(0, 0, 0), direction), s, newSampler(1), 10, &rays)

	expected := s.Background.Color(direction)
	if color != expected {
		t.Errorf("Expected background %v, got %v", expected, color)
	}
	if rays != 1 {
		t.Errorf("Expected 1 ray, got %d", rays)
	}
}

func TestPathTracer_AbsorbedIsBlack(t *testing.T) {
	s := createTestScene(t, testSphere{core.NewVec3(0, 0, -5), 1, &AbsorbingMaterial{}})
	pt := NewPathTracer(10, false)

	var rays uint64
	color := pt.Trace(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), s, newSampler(1), 10, &rays)
	if color != (core.Vec3{}) {
		t.Errorf("Expected black for absorbed ray, got %v", color)
	}
}

func TestPathTracer_MirrorAttenuatesBackground(t *testing.T) {
	mirror := &MirrorMaterial{Attenuation: core.NewVec3(0.5, 0.25, 1)}
	s := createTestScene(t, testSphere{core.NewVec3(0, 0, -5), 1, mirror})
	pt := NewPathTracer(10, false)

	var rays uint64
	color := pt.Trace(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), s, newSampler(1), 10, &rays)

	// Straight back towards +Z after one bounce
	expected := mirror.Attenuation.MultiplyVec(s.Background.Color(core.NewVec3(0, 0, 1)))
	if !vecClose(color, expected, 1e-12) {
		t.Errorf("Expected %v, got %v", expected, color)
	}
	if rays != 2 {
		t.Errorf("Expected 2 rays, got %d", rays)
	}
}

func TestPathTracer_DepthLimitsBounces(t *testing.T) {
	mirror := &MirrorMaterial{Attenuation: core.NewVec3(1, 1, 1)}
	// Two facing mirrors trap the ray forever
	s := createTestScene(t,
		testSphere{core.NewVec3(0, 0, -5), 1, mirror},
		testSphere{core.NewVec3(0, 0, 5), 1, mirror},
	)
	pt := NewPathTracer(10, false)

	var rays uint64
	color := pt.Trace(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), s, newSampler(1), 10, &rays)
	if color != (core.Vec3{}) {
		t.Errorf("Expected black after exhausting depth, got %v", color)
	}
	if rays != 10 {
		t.Errorf("Expected 10 rays, got %d", rays)
	}
}

func TestPathTracer_Deterministic(t *testing.T) {
	s := createTestScene(t,
		testSphere{core.NewVec3(0, -100.5, -1), 100, material.NewLambertian(core.NewVec3(0.8, 0.8, 0))},
		testSphere{core.NewVec3(0, 0, -1), 0.5, material.NewDielectric(1.5)},
		testSphere{core.NewVec3(1, 0, -1), 0.5, material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.3)},
	)
	pt := NewPathTracer(20, false)
	ray := core.NewRay(core.NewVec3(0, 0, 1), core.NewVec3(0.1, -0.1, -1))

	var rays1, rays2 uint64
	color1 := pt.Trace(ray, s, newSampler(42), pt.MaxDepth, &rays1)
	color2 := pt.Trace(ray, s, newSampler(42), pt.MaxDepth, &rays2)

	if color1 != color2 {
		t.Errorf("Expected deterministic results, got %v and %v", color1, color2)
	}
	if rays1 != rays2 {
		t.Errorf("Expected equal ray counts, got %d and %d", rays1, rays2)
	}
}

func TestPathTracer_DefaultMaxDepth(t *testing.T) {
	if pt := NewPathTracer(0, false); pt.MaxDepth != DefaultMaxDepth {
		t.Errorf("Expected default depth %d, got %d", DefaultMaxDepth, pt.MaxDepth)
	}
}

func TestPathTracer_SamplePixelEmptyScene(t *testing.T) {
	s := createTestScene(t)
	camera := geometry.NewCamera(geometry.CameraConfig{
		Center:      core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		AspectRatio: 1,
		VFov:        90,
	})
	pt := NewPathTracer(5, false)

	sizes := []struct{ width, height int }{{8, 8}, {1, 1}, {1, 5}}
	for _, size := range sizes {
		var rays uint64
		color := pt.SamplePixel(camera, s, 0, 0, size.width, size.height, 4, newSampler(3), &rays)
		if !color.IsFinite() {
			t.Errorf("%dx%d: expected finite color, got %v", size.width, size.height, color)
		}
		// The sky gradient lies between its two endpoints
		if color.X < 0.5 || color.X > 1 || math.Abs(color.Z-1) > 1e-9 {
			t.Errorf("%dx%d: expected sky color, got %v", size.width, size.height, color)
		}
		if rays != 4 {
			t.Errorf("%dx%d: expected 4 rays, got %d", size.width, size.height, rays)
		}
	}

	var rays uint64
	if color := pt.SamplePixel(camera, s, 0, 0, 8, 8, 0, newSampler(3), &rays); color != (core.Vec3{}) {
		t.Errorf("Expected black for zero samples, got %v", color)
	}
}

func TestPathTracer_SamplePixelTopRowLooksUp(t *testing.T) {
	s := createTestScene(t)
	camera := geometry.NewCamera(geometry.CameraConfig{
		Center:      core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		AspectRatio: 1,
		VFov:        90,
	})
	pt := NewPathTracer(5, false)

	var rays uint64
	top := pt.SamplePixel(camera, s, 4, 0, 9, 9, 8, newSampler(3), &rays)
	bottom := pt.SamplePixel(camera, s, 4, 8, 9, 9, 8, newSampler(3), &rays)

	// Upward rays see more of the blue top color, so less red
	if top.X >= bottom.X {
		t.Errorf("Expected top row to be bluer than bottom row, got top %v bottom %v", top, bottom)
	}
}
