// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package layout

import (
	"math"

	"github.com/gogpu/ggview/surface"
)

// AspectRatio returns width/height of content, with the axes swapped when
// the content is displayed rotated by 90 or 270 degrees. It returns 0 for
// empty content, meaning "fill the viewport".
func AspectRatio(width, height int, swapped bool) float64 {
	if width <= 0 || height <= 0 {
		return 0
	}
	if swapped {
		return float64(height) / float64(width)
	}
	return float64(width) / float64(height)
}

// Measure returns the largest size with the given aspect ratio that fits in
// the viewport. A non-positive ratio returns the viewport unchanged.
func Measure(viewport surface.Size, ratio float64) surface.Size {
	if ratio <= 0 || viewport.Empty() {
		return viewport
	}

	w := float64(viewport.Width)
	h := float64(viewport.Height)
	if w/ratio < h {
		return surface.Size{Width: viewport.Width, Height: int(math.Round(w / ratio))}
	}
	return surface.Size{Width: int(math.Round(h * ratio)), Height: viewport.Height}
}
