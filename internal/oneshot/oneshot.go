// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package oneshot provides a single-use completion signal.
//
// A Signal is released exactly once. The producer calls Fire, the consumer
// calls Wait. Each protocol phase owns its own Signal, so a late or duplicate
// release can never be observed by a different phase.
package oneshot

import (
	"context"
	"sync/atomic"
)

// Signal is a one-shot completion signal carrying a value of type T.
// The zero value is not usable; create signals with New.
type Signal[T any] struct {
	ch    chan T
	fired atomic.Bool
}

// New creates an unfired signal.
func New[T any]() *Signal[T] {
	return &Signal[T]{ch: make(chan T, 1)}
}

// Fire releases the signal with v. Only the first call has any effect;
// later calls return false and v is dropped. Fire never blocks.
func (s *Signal[T]) Fire(v T) bool {
	if !s.fired.CompareAndSwap(false, true) {
		return false
	}
	s.ch <- v
	return true
}

// Fired reports whether Fire has been called.
func (s *Signal[T]) Fired() bool {
	return s.fired.Load()
}

// Wait blocks until the signal fires or ctx is done.
// A signal can be waited on successfully only once.
func (s *Signal[T]) Wait(ctx context.Context) (T, error) {
	select {
	case v := <-s.ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
