// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package render provides the render engine that draws the view surface.
//
// The Engine owns a gg drawing context and a Framebuffer, both touched only
// on the render thread. Setters record the new source image, filter or
// geometry under a short lock and request a frame; RenderFrame takes a
// snapshot of that state. RenderFrame and ReadPixels must run on the
// render thread.
//
// # Render pass
//
//	source image -> rotate -> scale (CenterInside / CenterCrop) -> gg.Context
//	gg pixmap -> scene.Filter -> Framebuffer (backend format and origin)
//
// # Render modes
//
//   - ModeWhenDirty renders only when RequestRenderPass is called.
//   - ModeContinuously additionally requests a pass every frame interval.
//
// Pending passes are coalesced: at most one requested pass sits in the
// render queue at any time. Explicit units submitted through
// RunOnRenderThread are never coalesced.
//
// # Device sharing
//
// An optional gpucontext.DeviceProvider is handed to the gg accelerator and
// decides the framebuffer format through its SurfaceFormat.
package render
