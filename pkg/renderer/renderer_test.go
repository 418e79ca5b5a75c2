package renderer

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/df07/go-spiral-raytracer/pkg/core"
	"github.com/df07/go-spiral-raytracer/pkg/geometry"
	"github.com/df07/go-spiral-raytracer/pkg/scene"
)

// createGroundScene builds the single huge ground sphere preset at a small size
func createGroundScene(t *testing.T, width int) *scene.Scene {
	t.Helper()
	s, err := scene.NewByName("ground", geometry.CameraConfig{Width: width, AspectRatio: 2})
	if err != nil {
		t.Fatalf("Failed to create scene: %v", err)
	}
	if err := s.Build(geometry.BuildOptions{Strategy: geometry.SplitSAH}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return s
}

func testOptions(s *scene.Scene) Options {
	return Options{
		Width:           s.SamplingConfig.Width,
		Height:          s.SamplingConfig.Height,
		BlockSize:       8,
		SamplesPerPixel: 1,
		MaxDepth:        10,
		NumWorkers:      4,
		Seed:            7,
	}
}

func newTestRenderer(t *testing.T, s *scene.Scene, opts Options) *Renderer {
	t.Helper()
	r, err := NewRenderer(s, opts, nil)
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	return r
}

func TestNewRenderer_RequiresBuiltScene(t *testing.T) {
	unbuilt, err := scene.NewByName("ground", geometry.CameraConfig{Width: 16, AspectRatio: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewRenderer(unbuilt, DefaultOptions(), nil); !errors.Is(err, ErrSceneNotBuilt) {
		t.Errorf("Expected ErrSceneNotBuilt for unbuilt scene, got %v", err)
	}

	noCamera := scene.New()
	if err := noCamera.Build(geometry.BuildOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := NewRenderer(noCamera, DefaultOptions(), nil); !errors.Is(err, ErrSceneNotBuilt) {
		t.Errorf("Expected ErrSceneNotBuilt for scene without camera, got %v", err)
	}

	if _, err := NewRenderer(nil, DefaultOptions(), nil); !errors.Is(err, ErrSceneNotBuilt) {
		t.Errorf("Expected ErrSceneNotBuilt for nil scene, got %v", err)
	}
}

func TestNewRenderer_RejectsInvalidOptions(t *testing.T) {
	s := createGroundScene(t, 16)
	opts := testOptions(s)
	opts.SamplesPerPixel = 0

	if _, err := NewRenderer(s, opts, nil); !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("Expected ErrInvalidOptions, got %v", err)
	}
}

func TestRenderer_EndToEndGroundScene(t *testing.T) {
	s := createGroundScene(t, 64)
	opts := testOptions(s)
	r := newTestRenderer(t, s, opts)

	frame, err := r.RenderFrame(context.Background())
	if err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}

	for i, c := range frame.Pixels {
		for _, v := range []float64{c.X, c.Y, c.Z} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				t.Fatalf("Pixel (%d, %d) has invalid channel in %v", i%frame.Width, i/frame.Width, c)
			}
		}
	}

	// The upper half sees sky, the lower half the grey ground
	top := frame.At(opts.Width/2, 0)
	bottom := frame.At(opts.Width/2, opts.Height-1)
	if top.Z <= top.X {
		t.Errorf("Expected blue sky at the top, got %v", top)
	}
	if bottom.Luminance() >= top.Luminance() {
		t.Errorf("Expected darker ground at the bottom, got top %v bottom %v", top, bottom)
	}

	img := frame.Image()
	if img.Bounds().Dx() != opts.Width || img.Bounds().Dy() != opts.Height {
		t.Errorf("Expected %dx%d image, got %v", opts.Width, opts.Height, img.Bounds())
	}
	if img.RGBAAt(opts.Width/2, 0).A != 255 {
		t.Error("Expected opaque pixels")
	}

	stats := r.Stats()
	if !stats.Complete() {
		t.Errorf("Expected all %d blocks, got %d", stats.TotalBlocks, stats.CompletedBlocks)
	}
	if stats.Rays < uint64(opts.Width*opts.Height) {
		t.Errorf("Expected at least one ray per pixel, got %d", stats.Rays)
	}
	if r.State() != Stopped {
		t.Errorf("Expected stopped state after RenderFrame, got %s", r.State())
	}
}

func TestRenderer_Deterministic(t *testing.T) {
	s, err := scene.NewByName("glass", geometry.CameraConfig{Width: 40, AspectRatio: 2})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Build(geometry.BuildOptions{Strategy: geometry.SplitSAH}); err != nil {
		t.Fatal(err)
	}
	opts := testOptions(s)
	opts.SamplesPerPixel = 2

	render := func(workers int) *Frame {
		o := opts
		o.NumWorkers = workers
		frame, err := newTestRenderer(t, s, o).RenderFrame(context.Background())
		if err != nil {
			t.Fatalf("RenderFrame failed: %v", err)
		}
		return frame
	}

	first := render(4)
	second := render(4)
	single := render(1)

	for i := range first.Pixels {
		if first.Pixels[i] != second.Pixels[i] || first.Pixels[i] != single.Pixels[i] {
			t.Fatalf("Pixel %d differs between renders: %v, %v, %v", i, first.Pixels[i], second.Pixels[i], single.Pixels[i])
		}
	}
}

func TestRenderer_PacketTracing(t *testing.T) {
	s := createGroundScene(t, 32)
	opts := testOptions(s)
	opts.PacketTracing = true
	opts.SamplesPerPixel = 6

	frame, err := newTestRenderer(t, s, opts).RenderFrame(context.Background())
	if err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	for i, c := range frame.Pixels {
		if !c.IsFinite() || c.X < 0 || c.Y < 0 || c.Z < 0 {
			t.Fatalf("Pixel %d has invalid color %v", i, c)
		}
	}
}

func TestRenderer_StopBeforeStart(t *testing.T) {
	s := createGroundScene(t, 16)
	r := newTestRenderer(t, s, testOptions(s))

	r.Stop()
	r.Stop()
	waitClosed(t, r.Done(), "done")

	if blocks := r.Poll(); len(blocks) != 0 {
		t.Errorf("Expected no blocks, got %d", len(blocks))
	}
	if r.State() != Stopped {
		t.Errorf("Expected stopped, got %s", r.State())
	}
	if err := r.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("Expected ErrAlreadyStarted, got %v", err)
	}
	if r.Stats().Elapsed != 0 {
		t.Errorf("Expected no elapsed time, got %v", r.Stats().Elapsed)
	}
}

func TestRenderer_StopMidRender(t *testing.T) {
	s, err := scene.NewByName("weekend", geometry.CameraConfig{Width: 160, AspectRatio: 16.0 / 9.0})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Build(geometry.BuildOptions{Strategy: geometry.SplitSAH}); err != nil {
		t.Fatal(err)
	}
	opts := testOptions(s)
	opts.SamplesPerPixel = 64
	opts.MaxDepth = 50
	opts.NumWorkers = 2
	r := newTestRenderer(t, s, opts)

	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := r.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("Expected ErrAlreadyStarted on second Start, got %v", err)
	}

	// Let a few blocks through, then stop
	polled := 0
	deadline := time.After(10 * time.Second)
	for polled == 0 {
		select {
		case <-deadline:
			t.Fatal("Timed out waiting for a first block")
		case <-time.After(5 * time.Millisecond):
		}
		polled += len(r.Poll())
	}

	stopped := make(chan struct{})
	go func() {
		r.Stop()
		close(stopped)
	}()
	waitClosed(t, stopped, "Stop")
	waitClosed(t, r.Done(), "workers")

	if blocks := r.Poll(); len(blocks) != 0 {
		t.Errorf("Expected drained channel after Stop, got %d blocks", len(blocks))
	}
	stats := r.Stats()
	if polled > stats.CompletedBlocks || stats.CompletedBlocks > stats.TotalBlocks {
		t.Errorf("Inconsistent counts: polled %d, delivered %d, total %d", polled, stats.CompletedBlocks, stats.TotalBlocks)
	}
	if r.State() != Stopped {
		t.Errorf("Expected stopped, got %s", r.State())
	}
}

func TestRenderer_ContextCancel(t *testing.T) {
	s := createGroundScene(t, 64)
	r := newTestRenderer(t, s, testOptions(s))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	frame, err := r.RenderFrame(ctx)
	if !errors.Is(err, ErrInterrupted) {
		t.Errorf("Expected ErrInterrupted, got %v", err)
	}
	if frame == nil {
		t.Error("Expected partial frame")
	}
	waitClosed(t, r.Done(), "workers")
	if r.State() != Stopped {
		t.Errorf("Expected stopped, got %s", r.State())
	}
}

func TestRenderer_PollCollectsEveryBlock(t *testing.T) {
	s := createGroundScene(t, 48)
	opts := testOptions(s)
	r := newTestRenderer(t, s, opts)

	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitClosed(t, r.Done(), "workers")

	frame := NewFrame(opts.Width, opts.Height)
	blocks := r.Poll()
	if len(blocks) != len(r.Blocks()) {
		t.Fatalf("Expected %d blocks, got %d", len(r.Blocks()), len(blocks))
	}
	for _, b := range blocks {
		if len(b.Pixels) != b.Width*b.Height {
			t.Errorf("Block at (%d, %d) has %d pixels, want %d", b.X, b.Y, len(b.Pixels), b.Width*b.Height)
		}
		frame.Merge(b)
	}
	if again := r.Poll(); len(again) != 0 {
		t.Errorf("Expected empty poll, got %d blocks", len(again))
	}
	if r.State() != Rendering {
		t.Errorf("Expected rendering state until Stop, got %s", r.State())
	}

	r.Stop()
	if r.State() != Stopped {
		t.Errorf("Expected stopped, got %s", r.State())
	}
	if frame.At(0, 0) == (core.Vec3{}) {
		t.Error("Expected the corner pixel to be filled")
	}
}
