// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"sync"
	"testing"
)

func TestSizeEmpty(t *testing.T) {
	tests := []struct {
		size Size
		want bool
	}{
		{Size{}, true},
		{Size{Width: 10}, true},
		{Size{Height: 10}, true},
		{Size{Width: -1, Height: 5}, true},
		{Size{Width: 1, Height: 1}, false},
	}
	for _, tt := range tests {
		if got := tt.size.Empty(); got != tt.want {
			t.Errorf("%v.Empty() = %v, want %v", tt.size, got, tt.want)
		}
	}
}

func TestSizeString(t *testing.T) {
	if got := (Size{Width: 1080, Height: 1920}).String(); got != "1080x1920" {
		t.Errorf("String() = %q, want %q", got, "1080x1920")
	}
}

func TestSizeStateOverride(t *testing.T) {
	s := NewSizeState(Size{Width: 1080, Height: 1920})

	if got := s.Current(); got != (Size{Width: 1080, Height: 1920}) {
		t.Fatalf("Current() = %v, want natural size", got)
	}
	if _, ok := s.Override(); ok {
		t.Fatal("new state reports an override")
	}

	s.SetOverride(Size{Width: 540, Height: 960})
	if got := s.Current(); got != (Size{Width: 540, Height: 960}) {
		t.Errorf("Current() with override = %v, want 540x960", got)
	}
	if got := s.Natural(); got != (Size{Width: 1080, Height: 1920}) {
		t.Errorf("Natural() with override = %v, want 1080x1920", got)
	}

	// Natural updates while overridden do not leak through.
	s.SetNatural(Size{Width: 720, Height: 1280})
	if got := s.Current(); got != (Size{Width: 540, Height: 960}) {
		t.Errorf("Current() = %v, want override to win", got)
	}

	s.ClearOverride()
	if _, ok := s.Override(); ok {
		t.Error("override still set after ClearOverride")
	}
	if got := s.Current(); got != (Size{Width: 720, Height: 1280}) {
		t.Errorf("Current() after clear = %v, want 720x1280", got)
	}

	// Clearing twice is harmless.
	s.ClearOverride()
}

func TestSizeStateConcurrent(t *testing.T) {
	s := NewSizeState(Size{Width: 100, Height: 100})
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SetOverride(Size{Width: i + 1, Height: i + 1})
			s.ClearOverride()
		}()
		go func() {
			defer wg.Done()
			if s.Current().Empty() {
				t.Error("Current() returned an empty size")
			}
		}()
	}
	wg.Wait()
}
