// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package snapshot persists captured frames.
//
// Store encodes an image (JPEG, PNG, TIFF or BMP), writes it atomically
// under a pictures directory and records it in an optional SQLite Index.
// Every failure is reported as a *PersistenceError matching
// ErrPersistenceFailed.
//
// Service runs capture and save in the background. Each SaveToPictures call
// produces exactly one Result, delivered to the listener on a single
// dispatcher goroutine, never on the caller's goroutine.
package snapshot
