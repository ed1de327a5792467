package ggview

import (
	"errors"

	"github.com/gogpu/ggview/capture"
	"github.com/gogpu/ggview/snapshot"
)

// ErrClosed is returned by View methods after Close.
var ErrClosed = errors.New("ggview: view closed")

// Capture and persistence errors, re-exported for callers that only import
// this package.
var (
	ErrDeadlockGuard     = capture.ErrDeadlockGuard
	ErrThreadUnavailable = capture.ErrThreadUnavailable
	ErrCaptureTimedOut   = capture.ErrCaptureTimedOut
	ErrInvalidSize       = capture.ErrInvalidSize
	ErrPersistenceFailed = snapshot.ErrPersistenceFailed
)
