// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package layout provides the host that owns surface measurement.
//
// The Host runs its own goroutine, the layout thread. Size changes are
// applied only by layout passes running on that goroutine: a pass measures
// the natural surface size from the viewport and the content aspect ratio,
// stores it in the shared surface.SizeState, publishes the applied size
// (override or natural) to listeners, and then fires every registered
// layout signal exactly once.
//
// Registration and firing are decoupled. A caller that needs to know when a
// size change has taken effect registers first and requests the pass second:
//
//	sig := host.AwaitLayout()
//	if err := host.RequestLayout(); err != nil {
//		return err
//	}
//	size, err := sig.Wait(ctx)
//
// Requests are coalesced: while a pass is queued and not yet started,
// further requests are served by that pass.
package layout
