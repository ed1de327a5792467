// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func TestParseNames(t *testing.T) {
	if m, err := ParseMode("continuous"); err != nil || m != ModeContinuously {
		t.Errorf("ParseMode(continuous) = %v, %v", m, err)
	}
	if _, err := ParseMode("sometimes"); err == nil {
		t.Error("ParseMode(sometimes) should fail")
	}
	if s, err := ParseScaleType("center_crop"); err != nil || s != ScaleCenterCrop {
		t.Errorf("ParseScaleType(center_crop) = %v, %v", s, err)
	}
	if o, err := ParseOrigin("bottom_left"); err != nil || o != OriginBottomLeft {
		t.Errorf("ParseOrigin(bottom_left) = %v, %v", o, err)
	}
	if f, err := ParseFormat("bgra8"); err != nil || f != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("ParseFormat(bgra8) = %v, %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != gputypes.TextureFormatUndefined {
		t.Errorf("ParseFormat(\"\") = %v, %v", f, err)
	}

	// Names round-trip through String.
	for _, m := range []Mode{ModeWhenDirty, ModeContinuously} {
		if got, _ := ParseMode(m.String()); got != m {
			t.Errorf("ParseMode(%q) = %v", m.String(), got)
		}
	}
	for _, s := range []ScaleType{ScaleCenterInside, ScaleCenterCrop} {
		if got, _ := ParseScaleType(s.String()); got != s {
			t.Errorf("ParseScaleType(%q) = %v", s.String(), got)
		}
	}
}
