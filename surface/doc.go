// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package surface holds the size state of the rendered surface.
//
// The surface has a natural size, computed by the layout host from the
// viewport and the aspect ratio of the displayed image, and an optional
// override size installed for the duration of a capture. While an override
// is set, every layout pass and every render pass uses it in place of the
// natural size.
//
// # Ownership
//
//   - The layout host writes the natural size (SetNatural).
//   - The capture coordinator installs and clears the override.
//   - The layout host and the render engine read Current.
//
// SizeState is safe for concurrent use. Exclusivity of the override window
// is enforced one level up, by the capture coordinator's serialization
// queue.
package surface
