// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"image"

	"github.com/gogpu/gputypes"
)

// Image is a captured still of the surface.
//
// Pixels are 8-bit RGBA, row-major, top row first, regardless of the
// framebuffer convention of the backend that produced them. The caller owns
// the image once it has been returned.
type Image struct {
	Width  int
	Height int
	Stride int
	Format gputypes.TextureFormat
	Pix    []byte
}

// NewImage allocates a zeroed RGBA image of the given size.
func NewImage(size Size) *Image {
	w, h := max(size.Width, 0), max(size.Height, 0)
	return &Image{
		Width:  w,
		Height: h,
		Stride: w * 4,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Pix:    make([]byte, w*h*4),
	}
}

// Size returns the image dimensions.
func (img *Image) Size() Size {
	return Size{Width: img.Width, Height: img.Height}
}

// RGBA returns the image as *image.RGBA. The result shares pixel memory
// with img.
func (img *Image) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    img.Pix,
		Stride: img.Stride,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
}
