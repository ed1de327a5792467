// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package renderthread provides the dedicated goroutine that owns all
// framebuffer and GPU-facing work.
//
// A Thread executes submitted units strictly in submission order, one at a
// time. The worker goroutine is locked to its OS thread so that graphics APIs
// with thread affinity can be driven from it.
package renderthread

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/gogpu/ggview/internal/goid"
	"github.com/gogpu/ggview/internal/logging"
)

// Errors returned by Thread.
var (
	// ErrUnavailable is returned by Submit after the thread has been closed.
	ErrUnavailable = errors.New("renderthread: thread unavailable")

	// ErrNilUnit is returned when a nil unit is submitted.
	ErrNilUnit = errors.New("renderthread: nil unit")
)

// Unit is a unit of work executed exactly once on the render thread.
type Unit func()

const defaultQueueSize = 64

// Option configures a Thread.
type Option func(*Thread)

// WithQueueSize sets the number of units that may be queued before Submit
// blocks. Values below 1 are ignored.
func WithQueueSize(n int) Option {
	return func(t *Thread) {
		if n > 0 {
			t.queueSize = n
		}
	}
}

// WithoutOSThreadLock leaves the worker goroutine free to migrate between OS
// threads. Useful for pure CPU backends and tests.
func WithoutOSThreadLock() Option {
	return func(t *Thread) { t.lockOSThread = false }
}

// Thread is a single-worker FIFO executor.
//
// Thread is safe for concurrent use.
type Thread struct {
	name         string
	queueSize    int
	lockOSThread bool

	// queue carries submitted units to the worker.
	queue chan Unit

	// done is closed when the thread stops accepting work. It unblocks
	// submitters waiting on a full queue.
	done chan struct{}

	// stopped is closed when the worker goroutine has exited.
	stopped chan struct{}

	// mu is held for reading by Submit while it may send on queue, and for
	// writing by Close before queue is closed.
	mu sync.RWMutex

	running  atomic.Bool
	workerID atomic.Uint64
	executed atomic.Uint64
}

// New starts a render thread with the given name.
func New(name string, opts ...Option) *Thread {
	t := &Thread{
		name:         name,
		queueSize:    defaultQueueSize,
		lockOSThread: true,
		done:         make(chan struct{}),
		stopped:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.queue = make(chan Unit, t.queueSize)

	started := make(chan struct{})
	t.running.Store(true)
	go t.worker(started)
	<-started

	logging.Logger().Info("render thread started", "name", t.name, "queue", t.queueSize)
	return t
}

// worker is the render thread main loop.
func (t *Thread) worker(started chan<- struct{}) {
	defer close(t.stopped)

	if t.lockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}
	t.workerID.Store(goid.Current())
	close(started)

	// queue is closed by Close only after all in-flight submitters returned,
	// so ranging over it drains every accepted unit.
	for unit := range t.queue {
		t.run(unit)
	}
}

// run executes a single unit. A panicking unit is logged and does not take
// the render thread down.
func (t *Thread) run(unit Unit) {
	defer func() {
		if r := recover(); r != nil {
			logging.Logger().Warn("render unit panicked", "name", t.name, "panic", r)
		}
	}()
	unit()
	t.executed.Add(1)
}

// Submit enqueues unit for execution and returns without waiting for it.
// If the queue is full Submit blocks until space frees up or the thread is
// closed. After Close, Submit returns ErrUnavailable.
func (t *Thread) Submit(unit Unit) error {
	if unit == nil {
		return ErrNilUnit
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.running.Load() {
		return ErrUnavailable
	}

	select {
	case t.queue <- unit:
		return nil
	case <-t.done:
		return ErrUnavailable
	}
}

// OnThread reports whether the caller is running on the render thread.
func (t *Thread) OnThread() bool {
	id := t.workerID.Load()
	return id != 0 && id == goid.Current()
}

// Close stops accepting new units, lets every already queued unit run, and
// waits for the worker to exit. A running unit is never interrupted.
// Close is safe to call multiple times. When called from a unit it does not
// wait for the worker, which exits after the current unit and the drain.
func (t *Thread) Close() {
	if !t.running.CompareAndSwap(true, false) {
		if !t.OnThread() {
			<-t.stopped
		}
		return
	}

	close(t.done)

	// Wait out submitters that passed the running check.
	t.mu.Lock()
	close(t.queue)
	t.mu.Unlock()

	if !t.OnThread() {
		<-t.stopped
	}
	logging.Logger().Info("render thread stopped", "name", t.name, "executed", t.executed.Load())
}

// Name returns the thread name.
func (t *Thread) Name() string {
	return t.name
}

// Running reports whether the thread accepts new units.
func (t *Thread) Running() bool {
	return t.running.Load()
}

// Pending returns the number of queued units not yet started.
// This is an approximation as the queue changes concurrently.
func (t *Thread) Pending() int {
	return len(t.queue)
}

// Executed returns the number of units that completed.
func (t *Thread) Executed() uint64 {
	return t.executed.Load()
}
