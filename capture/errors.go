// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package capture

import (
	"errors"

	"github.com/gogpu/ggview/internal/renderthread"
)

// Errors returned by Coordinator.
var (
	// ErrDeadlockGuard is returned when Capture is called from the layout or
	// render thread. No state is modified.
	ErrDeadlockGuard = errors.New("capture: called from layout or render thread")

	// ErrThreadUnavailable is returned when the render or layout thread no
	// longer accepts work.
	ErrThreadUnavailable = renderthread.ErrUnavailable

	// ErrCaptureTimedOut is returned when a phase does not complete within
	// the phase timeout. The message names the phase.
	ErrCaptureTimedOut = errors.New("capture: timed out")

	// ErrInvalidSize is returned for negative sizes, when only one of width
	// and height is set, or when the size exceeds the coordinator's bounds.
	ErrInvalidSize = errors.New("capture: invalid size")
)
