// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"fmt"
	"sync"
)

// Size is a surface size in pixels.
type Size struct {
	Width  int
	Height int
}

// Empty reports whether the size has no area.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// String returns the size as "WxH".
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// SizeState is the mutable size record shared by the layout host, the render
// engine and the capture coordinator.
type SizeState struct {
	mu          sync.RWMutex
	natural     Size
	override    Size
	hasOverride bool
}

// NewSizeState creates a state with the given natural size and no override.
func NewSizeState(natural Size) *SizeState {
	return &SizeState{natural: natural}
}

// Natural returns the natural size, ignoring any override.
func (s *SizeState) Natural() Size {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.natural
}

// SetNatural stores the natural size. Called by the layout host after
// measuring.
func (s *SizeState) SetNatural(size Size) {
	s.mu.Lock()
	s.natural = size
	s.mu.Unlock()
}

// SetOverride installs an override size. A previous override is replaced.
func (s *SizeState) SetOverride(size Size) {
	s.mu.Lock()
	s.override = size
	s.hasOverride = true
	s.mu.Unlock()
}

// ClearOverride removes the override. It is a no-op without one.
func (s *SizeState) ClearOverride() {
	s.mu.Lock()
	s.override = Size{}
	s.hasOverride = false
	s.mu.Unlock()
}

// Override returns the active override, if any.
func (s *SizeState) Override() (Size, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.override, s.hasOverride
}

// Current returns the override when one is set and the natural size
// otherwise.
func (s *SizeState) Current() Size {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.hasOverride {
		return s.override
	}
	return s.natural
}
