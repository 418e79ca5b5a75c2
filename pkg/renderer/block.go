package renderer

import (
	"image"

	"github.com/df07/go-spiral-raytracer/pkg/core"
)

// RenderBlock is a rectangular region of the image and its linear colors.
// Pixel i of the block is global pixel (X + i%Width, Y + i/Width).
type RenderBlock struct {
	X, Y          int
	Width, Height int
	Pixels        []core.Vec3 // capacity Width*Height, filled row by row
}

// NewRenderBlock creates an empty block with an exactly sized pixel buffer
func NewRenderBlock(x, y, width, height int) *RenderBlock {
	return &RenderBlock{
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
		Pixels: make([]core.Vec3, 0, width*height),
	}
}

// Bounds returns the block's rectangle in image coordinates
func (b *RenderBlock) Bounds() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// PixelAt maps local pixel index i to global image coordinates
func (b *RenderBlock) PixelAt(i int) (x, y int) {
	return b.X + i%b.Width, b.Y + i/b.Width
}

// Image encodes the block's pixels as an 8-bit image whose origin is (0, 0)
func (b *RenderBlock) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for i, c := range b.Pixels {
		img.SetRGBA(i%b.Width, i/b.Width, c.ToRGBA())
	}
	return img
}

// GridSize returns the number of block columns and rows covering the image
func GridSize(width, height, blockSize int) (blocksX, blocksY int) {
	blocksX = (width + blockSize - 1) / blockSize // Ceiling division
	blocksY = (height + blockSize - 1) / blockSize
	return blocksX, blocksY
}

// NewBlockGrid creates a grid of blocks covering the entire image in row-major
// order. Blocks on the right and bottom edges are clipped to the image.
func NewBlockGrid(width, height, blockSize int) []*RenderBlock {
	blocksX, blocksY := GridSize(width, height, blockSize)
	blocks := make([]*RenderBlock, 0, blocksX*blocksY)

	for by := 0; by < blocksY; by++ {
		for bx := 0; bx < blocksX; bx++ {
			x0 := bx * blockSize
			y0 := by * blockSize
			x1 := min(x0+blockSize, width) // Don't exceed image bounds
			y1 := min(y0+blockSize, height)
			blocks = append(blocks, NewRenderBlock(x0, y0, x1-x0, y1-y0))
		}
	}

	return blocks
}

// SpiralOrder reorders a row-major block grid into a square spiral walking
// outward from the center block. Blocks come out in non-decreasing Chebyshev
// distance from the center; spiral positions outside the grid are skipped.
func SpiralOrder(blocks []*RenderBlock, blocksX, blocksY int) []*RenderBlock {
	ordered := make([]*RenderBlock, 0, len(blocks))
	if blocksX <= 0 || blocksY <= 0 {
		return ordered
	}

	cx, cy := blocksX/2, blocksY/2
	visit := func(x, y int) {
		if x >= 0 && x < blocksX && y >= 0 && y < blocksY {
			ordered = append(ordered, blocks[y*blocksX+x])
		}
	}

	visit(cx, cy)
	maxRing := max(cx, blocksX-1-cx, cy, blocksY-1-cy)
	for r := 1; r <= maxRing; r++ {
		// Top edge left to right, then down the right edge, back along the
		// bottom and up the left edge
		for x := cx - r; x <= cx+r; x++ {
			visit(x, cy-r)
		}
		for y := cy - r + 1; y <= cy+r; y++ {
			visit(cx+r, y)
		}
		for x := cx + r - 1; x >= cx-r; x-- {
			visit(x, cy+r)
		}
		for y := cy + r - 1; y > cy-r; y-- {
			visit(cx-r, y)
		}
	}

	return ordered
}
