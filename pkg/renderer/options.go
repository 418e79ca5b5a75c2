package renderer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOptions is wrapped by every Options.Validate failure
	ErrInvalidOptions = errors.New("renderer: invalid options")
	// ErrSceneNotBuilt is returned when rendering a scene before Build or without a camera
	ErrSceneNotBuilt = errors.New("renderer: scene has not been built")
	// ErrAlreadyStarted is returned by Start on a renderer that left the Idle state
	ErrAlreadyStarted = errors.New("renderer: already started")
	// ErrInterrupted is returned by RenderFrame when the render was stopped early
	ErrInterrupted = errors.New("renderer: interrupted")
)

// Options contains the frame and scheduling configuration
type Options struct {
	Width           int   // Image width in pixels
	Height          int   // Image height in pixels
	BlockSize       int   // Edge length of a render block
	SamplesPerPixel int   // Number of jittered samples per pixel
	MaxDepth        int   // Maximum ray bounce depth, 0 renders black
	NumWorkers      int   // Number of parallel workers (0 = use CPU count)
	Seed            int64 // Frame seed mixed into every scanline sampler
	PacketTracing   bool  // Trace samples four at a time on sphere-only scenes
}

// DefaultOptions returns sensible default values
func DefaultOptions() Options {
	return Options{
		Width:           400,
		Height:          225,
		BlockSize:       32,
		SamplesPerPixel: 16,
		MaxDepth:        50,
		NumWorkers:      0, // Auto-detect CPU count
	}
}

// Validate reports the first invalid field
func (o Options) Validate() error {
	switch {
	case o.Width <= 0 || o.Height <= 0:
		return fmt.Errorf("%w: image size %dx%d must be positive", ErrInvalidOptions, o.Width, o.Height)
	case o.BlockSize <= 0:
		return fmt.Errorf("%w: block size %d must be positive", ErrInvalidOptions, o.BlockSize)
	case o.SamplesPerPixel <= 0:
		return fmt.Errorf("%w: samples per pixel %d must be positive", ErrInvalidOptions, o.SamplesPerPixel)
	case o.MaxDepth < 0:
		return fmt.Errorf("%w: max depth %d must not be negative", ErrInvalidOptions, o.MaxDepth)
	case o.NumWorkers < 0:
		return fmt.Errorf("%w: worker count %d must not be negative", ErrInvalidOptions, o.NumWorkers)
	}
	return nil
}
