package core

import (
	"image/color"
	"math"
)

// DisplayGamma is the gamma applied when encoding linear color for display
const DisplayGamma = 2.2

// EncodeChannel converts one linear channel to an 8-bit gamma-encoded value.
// NaN and negative inputs encode as 0, anything at or above 1 as 255.
func EncodeChannel(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	encoded := math.Pow(v, 1.0/DisplayGamma) * 255.0
	if encoded > 255 {
		return 255
	}
	return uint8(encoded)
}

// ToRGBA converts a linear color to an opaque gamma-encoded pixel
func (v Vec3) ToRGBA() color.RGBA {
	return color.RGBA{
		R: EncodeChannel(v.X),
		G: EncodeChannel(v.Y),
		B: EncodeChannel(v.Z),
		A: 255,
	}
}
