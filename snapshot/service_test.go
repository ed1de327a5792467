// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/ggview/capture"
	"github.com/gogpu/ggview/internal/goid"
	"github.com/gogpu/ggview/surface"
)

type fakeCapturer struct {
	err      error
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (f *fakeCapturer) Capture(_ context.Context, req capture.Request) (*capture.Image, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(f.delay)
	if f.err != nil {
		return nil, f.err
	}
	size := surface.Size{Width: req.Width, Height: req.Height}
	if size.Empty() {
		size = surface.Size{Width: 4, Height: 3}
	}
	return testImage(size.Width, size.Height), nil
}

func waitResult(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("no result delivered")
		return Result{}
	}
}

func TestSaveToPictures(t *testing.T) {
	svc := NewService(&fakeCapturer{}, NewStore(t.TempDir()))
	defer svc.Close()

	caller := goid.Current()
	var listenerGoroutine atomic.Uint64
	ch := make(chan Result, 1)
	err := svc.SaveToPictures(context.Background(), Descriptor{Folder: "pics", File: "x", Width: 6, Height: 5},
		func(r Result) {
			listenerGoroutine.Store(goid.Current())
			ch <- r
		})
	if err != nil {
		t.Fatalf("SaveToPictures() error = %v", err)
	}

	r := waitResult(t, ch)
	if r.Err != nil {
		t.Fatalf("result error = %v", r.Err)
	}
	if r.ID == "" || r.Width != 6 || r.Height != 5 || filepath.Base(r.Path) != "x.jpg" {
		t.Errorf("result = %+v", r.Record)
	}
	if _, err := os.Stat(r.Path); err != nil {
		t.Errorf("saved file missing: %v", err)
	}
	if listenerGoroutine.Load() == caller {
		t.Error("listener ran on the calling goroutine")
	}
}

func TestSaveToPicturesPersistenceFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	svc := NewService(&fakeCapturer{}, NewStore(blocker))
	defer svc.Close()

	ch := make(chan Result, 1)
	if err := svc.SaveToPictures(context.Background(), Descriptor{File: "x"}, func(r Result) { ch <- r }); err != nil {
		t.Fatal(err)
	}
	if r := waitResult(t, ch); !errors.Is(r.Err, ErrPersistenceFailed) {
		t.Errorf("result error = %v, want ErrPersistenceFailed", r.Err)
	}
}

func TestSaveToPicturesCaptureFailure(t *testing.T) {
	svc := NewService(&fakeCapturer{err: capture.ErrCaptureTimedOut}, NewStore(t.TempDir()))
	defer svc.Close()

	ch := make(chan Result, 1)
	_ = svc.SaveToPictures(context.Background(), Descriptor{File: "x"}, func(r Result) { ch <- r })
	r := waitResult(t, ch)
	if !errors.Is(r.Err, capture.ErrCaptureTimedOut) {
		t.Errorf("result error = %v, want ErrCaptureTimedOut", r.Err)
	}
	if errors.Is(r.Err, ErrPersistenceFailed) {
		t.Error("capture failure reported as persistence failure")
	}
}

func TestServiceBoundsConcurrency(t *testing.T) {
	fc := &fakeCapturer{delay: 10 * time.Millisecond}
	global := make(chan Result, 16)
	svc := NewService(fc, NewStore(t.TempDir()), WithMaxConcurrent(2),
		WithListener(func(r Result) { global <- r }))

	const n = 6
	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		name := string(rune('a' + i))
		if err := svc.SaveToPictures(context.Background(), Descriptor{File: name}, func(Result) { wg.Done() }); err != nil {
			t.Fatal(err)
		}
	}
	wg.Wait()
	svc.Close()

	if p := fc.peak.Load(); p > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", p)
	}
	if len(global) != n {
		t.Errorf("global listener got %d results, want %d", len(global), n)
	}
}

func TestServiceClose(t *testing.T) {
	svc := NewService(&fakeCapturer{delay: 10 * time.Millisecond}, NewStore(t.TempDir()))

	delivered := make(chan Result, 1)
	_ = svc.SaveToPictures(context.Background(), Descriptor{File: "x"}, func(r Result) { delivered <- r })
	svc.Close()
	svc.Close()

	select {
	case <-delivered:
	default:
		t.Error("in-flight result not delivered before Close returned")
	}
	if err := svc.SaveToPictures(context.Background(), Descriptor{File: "y"}, nil); !errors.Is(err, ErrServiceClosed) {
		t.Errorf("SaveToPictures() after Close error = %v, want ErrServiceClosed", err)
	}
}

func TestServiceListenerPanicIsContained(t *testing.T) {
	svc := NewService(&fakeCapturer{}, NewStore(t.TempDir()))
	defer svc.Close()

	_ = svc.SaveToPictures(context.Background(), Descriptor{File: "a"}, func(Result) { panic("boom") })
	ch := make(chan Result, 1)
	_ = svc.SaveToPictures(context.Background(), Descriptor{File: "b"}, func(r Result) { ch <- r })
	if r := waitResult(t, ch); r.Err != nil {
		t.Errorf("result after panic = %v", r.Err)
	}
}
