package renderer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/df07/go-spiral-raytracer/pkg/integrator"
	"github.com/df07/go-spiral-raytracer/pkg/log"
	"github.com/df07/go-spiral-raytracer/pkg/scene"
)

// State is the lifecycle stage of a Renderer
type State int32

const (
	// Idle renderers have not been started
	Idle State = iota
	// Rendering lasts from Start until Stop, even after all blocks are done
	Rendering
	// Stopped renderers cannot be restarted
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Rendering:
		return "rendering"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Renderer renders one frame of a scene in blocks dispatched in spiral order
// from the image center. Completed blocks are collected with Poll.
type Renderer struct {
	scene    *scene.Scene
	opts     Options
	logger   log.Logger
	blocks   []*RenderBlock // spiral order
	pool     *WorkerPool
	renderer *BlockRenderer

	mu        sync.Mutex
	state     State
	startTime time.Time
	endTime   time.Time

	rays atomic.Uint64
}

// NewRenderer creates a renderer for a built scene. A nil logger selects the
// package logger.
func NewRenderer(s *scene.Scene, opts Options, logger log.Logger) (*Renderer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if s == nil || !s.Built() || s.Camera == nil {
		return nil, ErrSceneNotBuilt
	}
	if logger == nil {
		logger = log.New("renderer")
	}

	tracer := &integrator.PathTracer{MaxDepth: opts.MaxDepth, Packets: opts.PacketTracing}
	if opts.PacketTracing && !s.PacketCapable() {
		logger.Warningf("packet tracing requested but scene %q has non-sphere primitives; using scalar tracing", s.Name)
	}

	grid := NewBlockGrid(opts.Width, opts.Height, opts.BlockSize)
	blocksX, blocksY := GridSize(opts.Width, opts.Height, opts.BlockSize)
	blocks := SpiralOrder(grid, blocksX, blocksY)

	return &Renderer{
		scene:    s,
		opts:     opts,
		logger:   logger,
		blocks:   blocks,
		pool:     NewWorkerPool(blocks, opts.NumWorkers),
		renderer: NewBlockRenderer(s, s.Camera, tracer, opts),
	}, nil
}

// Start launches the workers. Cancelling ctx stops the render as if Stop had
// been called.
func (r *Renderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Idle {
		return fmt.Errorf("%w (state %s)", ErrAlreadyStarted, r.state)
	}
	r.state = Rendering
	r.startTime = time.Now()

	r.logger.Infof("rendering %dx%d, %d spp, %d blocks on %d workers",
		r.opts.Width, r.opts.Height, r.opts.SamplesPerPixel, len(r.blocks), r.pool.NumWorkers())

	r.pool.Start(r.renderBlock)

	go func() {
		select {
		case <-ctx.Done():
			r.logger.Debugf("context cancelled: %v", ctx.Err())
			r.Stop()
		case <-r.pool.Done():
			r.finish()
		}
	}()

	return nil
}

// renderBlock is the worker body
func (r *Renderer) renderBlock(workerID int, block *RenderBlock) bool {
	var rays uint64
	ok := r.renderer.RenderBlock(block, r.pool.Running, &rays)
	r.rays.Add(rays)
	if !ok {
		r.logger.Debugf("worker %d abandoned block at (%d, %d)", workerID, block.X, block.Y)
	}
	return ok
}

// finish freezes the elapsed time and logs throughput once
func (r *Renderer) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.endTime.IsZero() || r.startTime.IsZero() {
		return
	}
	r.endTime = time.Now()

	stats := r.statsLocked()
	if stats.Complete() {
		r.logger.Noticef("render complete in %v (%.2f Mrays/s)", stats.Elapsed, stats.RaysPerSecond()/1e6)
	} else {
		r.logger.Noticef("render stopped after %d/%d blocks", stats.CompletedBlocks, stats.TotalBlocks)
	}
}

// Poll returns every completed block currently buffered without blocking
func (r *Renderer) Poll() []*RenderBlock {
	var blocks []*RenderBlock
	results := r.pool.Results()
	for {
		select {
		case block, ok := <-results:
			if !ok {
				return blocks
			}
			blocks = append(blocks, block)
		default:
			return blocks
		}
	}
}

// Stop requests cooperative cancellation, waits for the workers to exit and
// drains blocks nobody polled. Safe to call before Start and more than once.
func (r *Renderer) Stop() {
	r.mu.Lock()
	wasRendering := r.state == Rendering
	r.state = Stopped
	r.mu.Unlock()

	r.pool.Stop()
	if wasRendering {
		r.finish()
	}
}

// Done is closed once every worker has exited, whether the frame completed
// or was stopped
func (r *Renderer) Done() <-chan struct{} {
	return r.pool.Done()
}

// State returns the current lifecycle state
func (r *Renderer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Stats returns a snapshot of the render statistics
func (r *Renderer) Stats() RenderStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statsLocked()
}

func (r *Renderer) statsLocked() RenderStats {
	var elapsed time.Duration
	switch {
	case r.startTime.IsZero():
	case r.endTime.IsZero():
		elapsed = time.Since(r.startTime)
	default:
		elapsed = r.endTime.Sub(r.startTime)
	}

	return RenderStats{
		Rays:            r.rays.Load(),
		CompletedBlocks: r.pool.Delivered(),
		TotalBlocks:     len(r.blocks),
		Elapsed:         elapsed,
		Workers:         r.pool.NumWorkers(),
		Width:           r.opts.Width,
		Height:          r.opts.Height,
		SamplesPerPixel: r.opts.SamplesPerPixel,
	}
}

// Blocks returns the frame's blocks in dispatch order
func (r *Renderer) Blocks() []*RenderBlock {
	return r.blocks
}

// RenderFrame starts the renderer and composites every block into a frame.
// When ctx is cancelled the partial frame is returned with ErrInterrupted.
func (r *Renderer) RenderFrame(ctx context.Context) (*Frame, error) {
	frame := NewFrame(r.opts.Width, r.opts.Height)
	if err := r.Start(ctx); err != nil {
		return nil, err
	}

	results := r.pool.Results()
	for {
		if err := ctx.Err(); err != nil {
			r.Stop()
			return frame, fmt.Errorf("%w: %v", ErrInterrupted, err)
		}

		select {
		case <-ctx.Done():
		case block, ok := <-results:
			if !ok {
				r.Stop()
				if !r.Stats().Complete() {
					return frame, ErrInterrupted
				}
				return frame, nil
			}
			frame.Merge(block)
		}
	}
}
