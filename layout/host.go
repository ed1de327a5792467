// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package layout

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/gogpu/ggview/internal/logging"
	"github.com/gogpu/ggview/internal/oneshot"
	"github.com/gogpu/ggview/internal/renderthread"
	"github.com/gogpu/ggview/surface"
)

// ErrClosed is returned by Host methods after Close.
var ErrClosed = errors.New("layout: host closed")

// Signal is a one-shot "layout applied" notification. It carries the size
// applied by the pass that fired it.
type Signal = oneshot.Signal[surface.Size]

// Listener is notified on the layout thread with the applied surface size
// after every layout pass.
type Listener func(size surface.Size)

// Option configures a Host.
type Option func(*Host)

// WithViewport sets the initial viewport size.
func WithViewport(size surface.Size) Option {
	return func(h *Host) { h.viewport = size }
}

// WithAspectRatio sets the initial content aspect ratio (see AspectRatio).
func WithAspectRatio(ratio float64) Option {
	return func(h *Host) { h.ratio = ratio }
}

// Host owns the layout thread and the measurement of the surface.
//
// Host is safe for concurrent use.
type Host struct {
	state *surface.SizeState
	loop  *renderthread.Thread

	mu        sync.Mutex
	viewport  surface.Size
	ratio     float64
	measured  surface.Size
	pending   []*Signal
	listeners []Listener

	// queued is set while a layout pass is queued but has not started.
	queued atomic.Bool
	passes atomic.Uint64
}

// NewHost starts a layout host writing natural sizes into state.
// It performs an initial layout pass before returning.
func NewHost(state *surface.SizeState, opts ...Option) *Host {
	h := &Host{state: state}
	for _, opt := range opts {
		opt(h)
	}
	h.loop = renderthread.New("ggview-layout", renderthread.WithoutOSThreadLock())

	sig := h.AwaitLayout()
	if err := h.RequestLayout(); err == nil {
		_, _ = sig.Wait(context.Background())
	}
	return h
}

// Post runs fn on the layout thread after all previously posted work.
func (h *Host) Post(fn func()) error {
	if err := h.loop.Submit(fn); err != nil {
		if errors.Is(err, renderthread.ErrUnavailable) {
			return ErrClosed
		}
		return err
	}
	return nil
}

// RequestLayout schedules a layout pass. If a pass is already queued and
// not yet started, the request is folded into it.
func (h *Host) RequestLayout() error {
	if !h.queued.CompareAndSwap(false, true) {
		return nil
	}
	if err := h.Post(h.pass); err != nil {
		h.queued.Store(false)
		return err
	}
	return nil
}

// AwaitLayout registers a one-shot signal fired by the next layout pass
// that starts after this call. Register before calling RequestLayout.
func (h *Host) AwaitLayout() *Signal {
	sig := oneshot.New[surface.Size]()
	h.mu.Lock()
	h.pending = append(h.pending, sig)
	h.mu.Unlock()
	return sig
}

// OnThread reports whether the caller is running on the layout thread.
func (h *Host) OnThread() bool {
	return h.loop.OnThread()
}

// OnLayoutThread is OnThread under the name used by the capture protocol.
func (h *Host) OnLayoutThread() bool {
	return h.OnThread()
}

// SetViewport changes the space available to the surface and requests a
// layout pass.
func (h *Host) SetViewport(size surface.Size) error {
	h.mu.Lock()
	h.viewport = size
	h.mu.Unlock()
	return h.RequestLayout()
}

// Viewport returns the current viewport size.
func (h *Host) Viewport() surface.Size {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.viewport
}

// SetAspectRatio changes the content aspect ratio and requests a layout
// pass. A ratio of 0 fills the viewport.
func (h *Host) SetAspectRatio(ratio float64) error {
	h.mu.Lock()
	h.ratio = ratio
	h.mu.Unlock()
	return h.RequestLayout()
}

// AddListener registers l to be called after every layout pass.
func (h *Host) AddListener(l Listener) {
	if l == nil {
		return
	}
	h.mu.Lock()
	h.listeners = append(h.listeners, l)
	h.mu.Unlock()
}

// Measured returns the size applied by the most recent layout pass.
func (h *Host) Measured() surface.Size {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.measured
}

// Passes returns the number of completed layout passes.
func (h *Host) Passes() uint64 {
	return h.passes.Load()
}

// Close stops the layout thread. Signals still pending never fire.
func (h *Host) Close() {
	h.loop.Close()
}

// pass is a single layout pass. It always runs on the layout thread.
func (h *Host) pass() {
	// Cleared first: a request arriving during this pass queues a new one.
	h.queued.Store(false)

	// Reading the applied size and taking the pending signals under one lock
	// guarantees a signal registered after an override sees that override.
	h.mu.Lock()
	natural := Measure(h.viewport, h.ratio)
	h.state.SetNatural(natural)
	applied := h.state.Current()
	h.measured = applied
	listeners := slices.Clone(h.listeners)
	signals := h.pending
	h.pending = nil
	h.mu.Unlock()

	for _, l := range listeners {
		l(applied)
	}
	for _, sig := range signals {
		if !sig.Fire(applied) {
			logging.Logger().Warn("layout signal fired twice", "size", applied.String())
		}
	}

	n := h.passes.Add(1)
	logging.Logger().Debug("layout pass", "pass", n, "natural", natural.String(), "applied", applied.String(),
		"signals", len(signals))
}
