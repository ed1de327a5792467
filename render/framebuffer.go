// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

// ErrUnsupportedFormat is returned for framebuffer formats other than 8-bit
// RGBA or BGRA.
var ErrUnsupportedFormat = errors.New("render: unsupported framebuffer format")

// Origin is the row order of a framebuffer.
type Origin uint8

const (
	// OriginTopLeft stores the top row first (Vulkan, Metal, D3D).
	OriginTopLeft Origin = iota

	// OriginBottomLeft stores the bottom row first (OpenGL).
	OriginBottomLeft
)

// String returns the origin name.
func (o Origin) String() string {
	switch o {
	case OriginTopLeft:
		return "top_left"
	case OriginBottomLeft:
		return "bottom_left"
	default:
		return unknownStr
	}
}

const unknownStr = "unknown"

// Framebuffer is the CPU-visible backing store of the surface.
//
// Pixels are kept in the backend convention given by Format and Origin.
// Store converts from, and ReadInto converts to, top-down RGBA, so callers
// never see the backend convention.
//
// Framebuffer is owned by the render thread and is not safe for concurrent
// use.
type Framebuffer struct {
	width  int
	height int
	format gputypes.TextureFormat
	origin Origin
	pix    []byte
}

// NewFramebuffer creates an empty framebuffer with the given convention.
func NewFramebuffer(format gputypes.TextureFormat, origin Origin) (*Framebuffer, error) {
	if !formatSupported(format) {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	return &Framebuffer{format: format, origin: origin}, nil
}

func formatSupported(format gputypes.TextureFormat) bool {
	return format == gputypes.TextureFormatRGBA8Unorm || format == gputypes.TextureFormatBGRA8Unorm
}

// Resize changes the framebuffer dimensions. Content is discarded when the
// size changes.
func (f *Framebuffer) Resize(width, height int) {
	if f.width == width && f.height == height {
		return
	}
	f.width = width
	f.height = height
	f.pix = make([]byte, width*height*4)
}

// Width returns the framebuffer width in pixels.
func (f *Framebuffer) Width() int { return f.width }

// Height returns the framebuffer height in pixels.
func (f *Framebuffer) Height() int { return f.height }

// Format returns the backend pixel format.
func (f *Framebuffer) Format() gputypes.TextureFormat { return f.format }

// Origin returns the backend row order.
func (f *Framebuffer) Origin() Origin { return f.origin }

// Stride returns the number of bytes per row.
func (f *Framebuffer) Stride() int { return f.width * 4 }

// Pixels returns the raw pixels in backend convention.
func (f *Framebuffer) Pixels() []byte { return f.pix }

// row maps a top-down row index to the backend row index.
func (f *Framebuffer) row(y int) int {
	if f.origin == OriginBottomLeft {
		return f.height - 1 - y
	}
	return y
}

// Store writes a full frame of top-down RGBA pixels with the given stride.
func (f *Framebuffer) Store(src []byte, srcStride int) {
	rowBytes := f.width * 4
	swap := f.format == gputypes.TextureFormatBGRA8Unorm
	for y := 0; y < f.height; y++ {
		s := src[y*srcStride : y*srcStride+rowBytes]
		d := f.pix[f.row(y)*rowBytes : f.row(y)*rowBytes+rowBytes]
		copyRow(d, s, swap)
	}
}

// ReadInto copies the frame into dst as top-down RGBA with the given stride.
// dst must hold at least Height rows of Width pixels.
func (f *Framebuffer) ReadInto(dst []byte, dstStride int) {
	rowBytes := f.width * 4
	swap := f.format == gputypes.TextureFormatBGRA8Unorm
	for y := 0; y < f.height; y++ {
		s := f.pix[f.row(y)*rowBytes : f.row(y)*rowBytes+rowBytes]
		d := dst[y*dstStride : y*dstStride+rowBytes]
		copyRow(d, s, swap)
	}
}

// copyRow copies one row, exchanging the R and B channels when swap is set.
// The exchange is its own inverse, so it serves both directions.
func copyRow(dst, src []byte, swap bool) {
	if !swap {
		copy(dst, src)
		return
	}
	for i := 0; i+3 < len(src); i += 4 {
		dst[i+0] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i+0]
		dst[i+3] = src[i+3]
	}
}
