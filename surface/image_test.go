// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestNewImage(t *testing.T) {
	img := NewImage(Size{Width: 3, Height: 2})
	if img.Width != 3 || img.Height != 2 {
		t.Fatalf("size = %dx%d, want 3x2", img.Width, img.Height)
	}
	if img.Stride != 12 {
		t.Errorf("Stride = %d, want 12", img.Stride)
	}
	if len(img.Pix) != 24 {
		t.Errorf("len(Pix) = %d, want 24", len(img.Pix))
	}
	if img.Format != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("Format = %v, want RGBA8Unorm", img.Format)
	}
	if img.Size() != (Size{Width: 3, Height: 2}) {
		t.Errorf("Size() = %v", img.Size())
	}
}

func TestImageRGBASharesMemory(t *testing.T) {
	img := NewImage(Size{Width: 2, Height: 2})
	rgba := img.RGBA()
	rgba.SetRGBA(1, 1, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	off := 1*img.Stride + 1*4
	if got := img.Pix[off : off+4]; got[0] != 10 || got[1] != 20 || got[2] != 30 || got[3] != 255 {
		t.Errorf("pixel = %v, want [10 20 30 255]", got)
	}
	if rgba.Bounds().Dx() != 2 || rgba.Bounds().Dy() != 2 {
		t.Errorf("Bounds() = %v", rgba.Bounds())
	}
}
