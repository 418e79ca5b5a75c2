package renderer

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"golang.org/x/image/draw"

	"github.com/df07/go-spiral-raytracer/pkg/core"
)

// Frame is a full-image buffer of linear colors assembled from render blocks
type Frame struct {
	Width, Height int
	Pixels        []core.Vec3 // row-major, row 0 at the top
}

// NewFrame creates a black frame
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pixels: make([]core.Vec3, width*height),
	}
}

// Merge copies a block's pixels into the frame. Pixels that fall outside the
// frame are ignored.
func (f *Frame) Merge(block *RenderBlock) {
	for i, c := range block.Pixels {
		x, y := block.PixelAt(i)
		if x < 0 || x >= f.Width || y < 0 || y >= f.Height {
			continue
		}
		f.Pixels[y*f.Width+x] = c
	}
}

// At returns the linear color of pixel (x, y)
func (f *Frame) At(x, y int) core.Vec3 {
	return f.Pixels[y*f.Width+x]
}

// Image encodes the frame with gamma 2.2 into an 8-bit image
func (f *Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			img.SetRGBA(x, y, f.Pixels[y*f.Width+x].ToRGBA())
		}
	}
	return img
}

// Scaled returns the encoded frame resampled to width x height
func (f *Frame) Scaled(width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	src := f.Image()
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// AverageLuminance returns the mean linear luminance of the frame
func (f *Frame) AverageLuminance() float64 {
	if len(f.Pixels) == 0 {
		return 0
	}
	total := 0.0
	for _, c := range f.Pixels {
		total += c.Luminance()
	}
	return total / float64(len(f.Pixels))
}

// SavePNG writes the encoded frame to path
func (f *Frame) SavePNG(path string) error {
	return SavePNG(path, f.Image())
}

// SavePNG writes img to path as a PNG file
func SavePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return file.Close()
}
