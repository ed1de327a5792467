// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// rotateImage returns src rotated clockwise by r as a zero-origin RGBA image.
func rotateImage(src image.Image, r Rotation) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	// Normalize to a zero-origin RGBA so the affine maps below stay simple.
	base := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Copy(base, image.Point{}, src, b, draw.Src, nil)

	fw, fh := float64(w), float64(h)
	var (
		dst *image.RGBA
		s2d f64.Aff3
	)
	switch r % 4 {
	case RotationNormal:
		return base
	case Rotation90:
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
		s2d = f64.Aff3{0, -1, fh, 1, 0, 0}
	case Rotation180:
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
		s2d = f64.Aff3{-1, 0, fw, 0, -1, fh}
	case Rotation270:
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
		s2d = f64.Aff3{0, 1, 0, -1, 0, fw}
	}

	draw.NearestNeighbor.Transform(dst, s2d, base, base.Bounds(), draw.Src, nil)
	return dst
}
