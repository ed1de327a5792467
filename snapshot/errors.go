// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package snapshot

import (
	"errors"
	"fmt"
)

// Errors returned by this package.
var (
	// ErrPersistenceFailed matches every *PersistenceError.
	ErrPersistenceFailed = errors.New("snapshot: persistence failed")

	// ErrServiceClosed is returned by SaveToPictures after Close.
	ErrServiceClosed = errors.New("snapshot: service closed")

	// ErrNotFound is returned by Index lookups for unknown IDs.
	ErrNotFound = errors.New("snapshot: not found")
)

// PersistenceError describes a failed encode, write or index step.
type PersistenceError struct {
	Op   string // validate, mkdir, encode, write, rename, index
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("snapshot: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("snapshot: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is reports whether target is ErrPersistenceFailed.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistenceFailed
}
