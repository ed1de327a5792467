// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package layout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/ggview/surface"
)

func newTestHost(t *testing.T, viewport surface.Size) (*Host, *surface.SizeState) {
	t.Helper()
	state := surface.NewSizeState(surface.Size{})
	h := NewHost(state, WithViewport(viewport))
	t.Cleanup(h.Close)
	return h, state
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestNewHostPerformsInitialPass(t *testing.T) {
	h, state := newTestHost(t, surface.Size{Width: 1080, Height: 1920})

	if h.Passes() < 1 {
		t.Errorf("Passes() = %d, want >= 1", h.Passes())
	}
	if got := state.Natural(); got != (surface.Size{Width: 1080, Height: 1920}) {
		t.Errorf("Natural() = %v, want 1080x1920", got)
	}
	if got := h.Measured(); got != (surface.Size{Width: 1080, Height: 1920}) {
		t.Errorf("Measured() = %v, want 1080x1920", got)
	}
}

func TestSignalFiresWithOverride(t *testing.T) {
	h, state := newTestHost(t, surface.Size{Width: 1080, Height: 1920})

	var mu sync.Mutex
	var seen []surface.Size
	h.AddListener(func(s surface.Size) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	state.SetOverride(surface.Size{Width: 540, Height: 960})
	sig := h.AwaitLayout()
	if err := h.RequestLayout(); err != nil {
		t.Fatalf("RequestLayout() error = %v", err)
	}
	got, err := sig.Wait(waitCtx(t))
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if got != (surface.Size{Width: 540, Height: 960}) {
		t.Errorf("signal size = %v, want 540x960", got)
	}
	if got := state.Natural(); got != (surface.Size{Width: 1080, Height: 1920}) {
		t.Errorf("Natural() = %v, override must not change the natural size", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) == 0 || seen[len(seen)-1] != (surface.Size{Width: 540, Height: 960}) {
		t.Errorf("listener sizes = %v, want last 540x960", seen)
	}
}

func TestAspectRatioChangesNaturalSize(t *testing.T) {
	h, state := newTestHost(t, surface.Size{Width: 1000, Height: 1000})

	sig := h.AwaitLayout()
	if err := h.SetAspectRatio(2); err != nil {
		t.Fatal(err)
	}
	if _, err := sig.Wait(waitCtx(t)); err != nil {
		t.Fatal(err)
	}
	if got := state.Natural(); got != (surface.Size{Width: 1000, Height: 500}) {
		t.Errorf("Natural() = %v, want 1000x500", got)
	}
}

func TestSignalsFireOnce(t *testing.T) {
	h, _ := newTestHost(t, surface.Size{Width: 10, Height: 10})

	sig := h.AwaitLayout()
	for range 5 {
		_ = h.RequestLayout()
	}
	if _, err := sig.Wait(waitCtx(t)); err != nil {
		t.Fatal(err)
	}
	// Later passes must not try to fire the same signal again.
	next := h.AwaitLayout()
	_ = h.RequestLayout()
	if _, err := next.Wait(waitCtx(t)); err != nil {
		t.Fatal(err)
	}
	if !sig.Fired() || !next.Fired() {
		t.Error("signals not fired")
	}
}

func TestOnThread(t *testing.T) {
	h, _ := newTestHost(t, surface.Size{Width: 10, Height: 10})

	if h.OnThread() {
		t.Error("OnThread() = true on test goroutine")
	}
	res := make(chan bool, 1)
	if err := h.Post(func() { res <- h.OnThread() }); err != nil {
		t.Fatal(err)
	}
	if !<-res {
		t.Error("OnThread() = false inside posted work")
	}
}

func TestClosedHost(t *testing.T) {
	state := surface.NewSizeState(surface.Size{})
	h := NewHost(state, WithViewport(surface.Size{Width: 10, Height: 10}))
	h.Close()

	if err := h.RequestLayout(); !errors.Is(err, ErrClosed) {
		t.Errorf("RequestLayout() after Close error = %v, want ErrClosed", err)
	}
	if err := h.Post(func() {}); !errors.Is(err, ErrClosed) {
		t.Errorf("Post() after Close error = %v, want ErrClosed", err)
	}
}
