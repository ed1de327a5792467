// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"github.com/gogpu/gg"
	"github.com/gogpu/gg/scene"
)

// Filter is the boundary to the filter engine. Any scene.Filter works,
// including a *scene.FilterChain.
type Filter = scene.Filter

// ColorMatrix is a 4x5 color transform applied per pixel:
//
//	R' = m[0]*R + m[1]*G + m[2]*B + m[3]*A + m[4]
//	G' = m[5]*R + ...
//
// Channel values are in [0, 1]; offsets are in the same unit.
type ColorMatrix [20]float32

// Identity returns the identity color matrix.
func Identity() ColorMatrix {
	return ColorMatrix{
		1, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Grayscale returns a luminance (Rec. 709) color matrix.
func Grayscale() ColorMatrix {
	const r, g, b = 0.2126, 0.7152, 0.0722
	return ColorMatrix{
		r, g, b, 0, 0,
		r, g, b, 0, 0,
		r, g, b, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Sepia returns a sepia tone color matrix.
func Sepia() ColorMatrix {
	return ColorMatrix{
		0.393, 0.769, 0.189, 0, 0,
		0.349, 0.686, 0.168, 0, 0,
		0.272, 0.534, 0.131, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Invert returns a color matrix inverting RGB and keeping alpha.
func Invert() ColorMatrix {
	return ColorMatrix{
		-1, 0, 0, 0, 1,
		0, -1, 0, 0, 1,
		0, 0, -1, 0, 1,
		0, 0, 0, 1, 0,
	}
}

// Apply implements scene.Filter. Pixmap pixels are premultiplied; the
// matrix is applied to straight alpha and the result premultiplied again.
func (m ColorMatrix) Apply(src, dst *gg.Pixmap, bounds scene.Rect) {
	if src == nil || dst == nil {
		return
	}
	minX, minY, maxX, maxY := clampBounds(bounds, src, dst)
	sd, dd := src.Data(), dst.Data()
	sw, dw := src.Width(), dst.Width()

	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			si := (y*sw + x) * 4
			di := (y*dw + x) * 4
			a := float32(sd[si+3]) / 255
			var r, g, b float32
			if a > 0 {
				r = float32(sd[si+0]) / 255 / a
				g = float32(sd[si+1]) / 255 / a
				b = float32(sd[si+2]) / 255 / a
			}

			na := clamp01(m[15]*r + m[16]*g + m[17]*b + m[18]*a + m[19])
			nr := clamp01(m[0]*r+m[1]*g+m[2]*b+m[3]*a+m[4]) * na
			ng := clamp01(m[5]*r+m[6]*g+m[7]*b+m[8]*a+m[9]) * na
			nb := clamp01(m[10]*r+m[11]*g+m[12]*b+m[13]*a+m[14]) * na

			dd[di+0] = toByte(nr)
			dd[di+1] = toByte(ng)
			dd[di+2] = toByte(nb)
			dd[di+3] = toByte(na)
		}
	}
}

// ExpandBounds implements scene.Filter. Color matrices never grow output.
func (m ColorMatrix) ExpandBounds(input scene.Rect) scene.Rect {
	return input
}

// Chain combines filters applied in order. Nil filters are skipped.
func Chain(filters ...Filter) *scene.FilterChain {
	return scene.NewFilterChain(filters...)
}

// FilterByName returns a built-in filter: "none", "grayscale", "sepia" or
// "invert". It returns nil and false for unknown names; "none" returns nil
// and true.
func FilterByName(name string) (Filter, bool) {
	switch name {
	case "", "none":
		return nil, true
	case "grayscale":
		return Grayscale(), true
	case "sepia":
		return Sepia(), true
	case "invert":
		return Invert(), true
	default:
		return nil, false
	}
}

func clampBounds(bounds scene.Rect, src, dst *gg.Pixmap) (minX, minY, maxX, maxY int) {
	minX = max(int(bounds.MinX), 0)
	minY = max(int(bounds.MinY), 0)
	maxX = min(int(bounds.MaxX), src.Width(), dst.Width())
	maxY = min(int(bounds.MaxY), src.Height(), dst.Height())
	return minX, minY, maxX, maxY
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}

func toByte(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}
