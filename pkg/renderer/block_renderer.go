package renderer

import (
	"github.com/df07/go-spiral-raytracer/pkg/core"
	"github.com/df07/go-spiral-raytracer/pkg/geometry"
	"github.com/df07/go-spiral-raytracer/pkg/integrator"
	"github.com/df07/go-spiral-raytracer/pkg/scene"
)

// BlockRenderer fills render blocks by supersampling each pixel through an
// integrator. It holds no mutable state and is shared by all workers.
type BlockRenderer struct {
	scene      *scene.Scene
	camera     *geometry.Camera
	integrator integrator.Integrator
	opts       Options
}

// NewBlockRenderer creates a block renderer for a built scene
func NewBlockRenderer(s *scene.Scene, camera *geometry.Camera, integratorInst integrator.Integrator, opts Options) *BlockRenderer {
	return &BlockRenderer{
		scene:      s,
		camera:     camera,
		integrator: integratorInst,
		opts:       opts,
	}
}

// RenderBlock fills block.Pixels row by row. keepRendering is consulted before
// each row; when it turns false the block is left partial and RenderBlock
// returns false. The number of rays cast is added to *rays.
func (br *BlockRenderer) RenderBlock(block *RenderBlock, keepRendering func() bool, rays *uint64) bool {
	block.Pixels = block.Pixels[:0]

	for j := 0; j < block.Height; j++ {
		if keepRendering != nil && !keepRendering() {
			return false
		}

		y := block.Y + j
		// Each scanline of the block gets its own deterministic sequence
		sampler := core.NewScanlineSampler(br.opts.Seed, y, block.X)
		for i := 0; i < block.Width; i++ {
			color := br.integrator.SamplePixel(br.camera, br.scene, block.X+i, y,
				br.opts.Width, br.opts.Height, br.opts.SamplesPerPixel, sampler, rays)
			block.Pixels = append(block.Pixels, color)
		}
	}

	return true
}
