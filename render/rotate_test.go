// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"image"
	"image/color"
	"testing"
)

// marker returns a 3x2 image with a red top-left pixel on white.
func marker() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for y := range 2 {
		for x := range 3 {
			img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	img.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	return img
}

func TestRotateImage(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	tests := []struct {
		rot          Rotation
		wantW, wantH int
		redAt        image.Point
	}{
		{RotationNormal, 3, 2, image.Pt(0, 0)},
		{Rotation90, 2, 3, image.Pt(1, 0)},
		{Rotation180, 3, 2, image.Pt(2, 1)},
		{Rotation270, 2, 3, image.Pt(0, 2)},
	}
	for _, tt := range tests {
		got := rotateImage(marker(), tt.rot)
		if got.Bounds().Dx() != tt.wantW || got.Bounds().Dy() != tt.wantH {
			t.Errorf("rotation %d: size %v, want %dx%d", tt.rot.Degrees(), got.Bounds().Size(), tt.wantW, tt.wantH)
			continue
		}
		if c := got.RGBAAt(tt.redAt.X, tt.redAt.Y); c != red {
			t.Errorf("rotation %d: pixel %v = %v, want red", tt.rot.Degrees(), tt.redAt, c)
		}
	}
}

func TestRotateImageNonZeroOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 13, 12))
	src.SetRGBA(10, 10, color.RGBA{255, 0, 0, 255})
	got := rotateImage(src, RotationNormal)
	if got.Bounds().Min != (image.Point{}) {
		t.Errorf("Bounds().Min = %v, want origin", got.Bounds().Min)
	}
	if c := got.RGBAAt(0, 0); c.R != 255 {
		t.Errorf("pixel (0,0) = %v, want red", c)
	}
}

func TestRotationHelpers(t *testing.T) {
	if !Rotation90.Swapped() || !Rotation270.Swapped() || Rotation180.Swapped() {
		t.Error("Swapped() mismatch")
	}
	for _, deg := range []int{0, 90, 180, 270, 360, -90} {
		r := RotationFromDegrees(deg)
		want := ((deg % 360) + 360) % 360
		if r.Degrees() != want {
			t.Errorf("RotationFromDegrees(%d).Degrees() = %d, want %d", deg, r.Degrees(), want)
		}
	}
}
