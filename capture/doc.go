// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package capture coordinates pixel-exact snapshots of the view surface.
//
// A capture crosses three goroutines: the caller, the layout thread and the
// render thread. Coordinator drives it as a sequence of phases, each ending
// in its own one-shot signal:
//
//  1. Override: install the requested size, register a layout signal, then
//     request a layout pass.
//  2. Layout: wait for that pass to publish the new size.
//  3. Render: run one render iteration on the render thread.
//  4. Readback: copy the framebuffer into a new top-down RGBA image.
//  5. Restore: clear the override and wait for the natural layout again.
//
// Phases 1, 2 and 5 are skipped when no size is requested. Restore runs
// whenever phase 1 ran, including after a failure in a later phase.
//
// Captures are serialized: a second call waits until the first has restored
// the surface. Every wait is bounded by the phase timeout.
//
// Capture must not be called from the layout or render thread; it would wait
// on work queued behind itself. Such calls fail with ErrDeadlockGuard.
package capture
