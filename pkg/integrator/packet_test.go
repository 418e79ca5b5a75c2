package integrator

import (
	"testing"

	"github.com/df07/go-spiral-raytracer/pkg/core"
	"github.com/df07/go-spiral-raytracer/pkg/geometry"
	"github.com/df07/go-spiral-raytracer/pkg/material"
)

func TestPathTracer_TracePacketMatchesScalar(t *testing.T) {
	mirror := &MirrorMaterial{Attenuation: core.NewVec3(0.9, 0.7, 0.5)}
	s := createTestScene(t,
		testSphere{core.NewVec3(0, 0, -5), 1, mirror},
		testSphere{core.NewVec3(3, 0, -5), 1, mirror},
		testSphere{core.NewVec3(0, 0, 5), 1, mirror},
		testSphere{core.NewVec3(-3, 2, -6), 1.5, &AbsorbingMaterial{}},
	)
	pt := NewPathTracer(8, true)

	batch := [geometry.PacketWidth]core.Ray{
		core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)),   // trapped between two mirrors
		core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0)),    // straight to the sky
		core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0.6, 0.1, -1)), // off the side mirror
		core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(-3, 2, -6)),  // into the absorber
	}
	live := [geometry.PacketWidth]bool{true, true, true, true}

	var packetRays uint64
	colors := pt.TracePacket(batch, live, s, newSampler(1), pt.MaxDepth, &packetRays)

	var scalarRays uint64
	for lane, ray := range batch {
		expected := pt.Trace(ray, s, newSampler(1), pt.MaxDepth, &scalarRays)
		if !vecClose(colors[lane], expected, 1e-9) {
			t.Errorf("Lane %d: expected %v, got %v", lane, expected, colors[lane])
		}
	}
	if packetRays != scalarRays {
		t.Errorf("Expected %d rays, got %d", scalarRays, packetRays)
	}
}

func TestPathTracer_TracePacketDeadLanes(t *testing.T) {
	s := createTestScene(t, testSphere{core.NewVec3(0, 0, -5), 1, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))})
	pt := NewPathTracer(8, true)

	var batch [geometry.PacketWidth]core.Ray
	for lane := range batch {
		batch[lane] = core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0))
	}
	live := [geometry.PacketWidth]bool{true, false, true, false}

	var rays uint64
	colors := pt.TracePacket(batch, live, s, newSampler(1), pt.MaxDepth, &rays)

	sky := s.Background.Color(core.NewVec3(0, 1, 0))
	for lane := range colors {
		if live[lane] && colors[lane] != sky {
			t.Errorf("Lane %d: expected sky %v, got %v", lane, sky, colors[lane])
		}
		if !live[lane] && colors[lane] != (core.Vec3{}) {
			t.Errorf("Lane %d: expected black for dead lane, got %v", lane, colors[lane])
		}
	}
	if rays != 2 {
		t.Errorf("Expected 2 rays, got %d", rays)
	}
}

func TestPathTracer_TracePacketDepthZero(t *testing.T) {
	s := createTestScene(t)
	pt := NewPathTracer(8, true)

	var batch [geometry.PacketWidth]core.Ray
	live := [geometry.PacketWidth]bool{true, true, true, true}
	var rays uint64
	colors := pt.TracePacket(batch, live, s, newSampler(1), 0, &rays)
	for lane, c := range colors {
		if c != (core.Vec3{}) {
			t.Errorf("Lane %d: expected black, got %v", lane, c)
		}
	}
	if rays != 0 {
		t.Errorf("Expected no rays, got %d", rays)
	}
}

func TestPathTracer_SamplePixelPacketsMatchScalar(t *testing.T) {
	mirror := &MirrorMaterial{Attenuation: core.NewVec3(0.8, 0.8, 0.8)}
	s := createTestScene(t, testSphere{core.NewVec3(0, 0, -5), 1, mirror})
	camera := geometry.NewCamera(geometry.CameraConfig{
		Center:      core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		AspectRatio: 1,
		VFov:        20,
	})

	scalar := NewPathTracer(6, false)
	packets := NewPathTracer(6, true)

	// 6 samples leaves a half-empty second packet
	var scalarRays, packetRays uint64
	expected := scalar.SamplePixel(camera, s, 4, 4, 9, 9, 6, newSampler(9), &scalarRays)
	got := packets.SamplePixel(camera, s, 4, 4, 9, 9, 6, newSampler(9), &packetRays)

	if !vecClose(got, expected, 1e-9) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
	if scalarRays != packetRays {
		t.Errorf("Expected %d rays, got %d", scalarRays, packetRays)
	}
}
