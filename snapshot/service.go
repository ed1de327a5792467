// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package snapshot

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/gogpu/ggview/capture"
	"github.com/gogpu/ggview/internal/logging"
)

// Capturer produces the frame to persist.
type Capturer interface {
	Capture(ctx context.Context, req capture.Request) (*capture.Image, error)
}

// Descriptor describes one SaveToPictures request. Zero Width and Height
// capture at the current surface size.
type Descriptor struct {
	Folder  string
	File    string
	Width   int
	Height  int
	Format  Format
	Quality int
}

// Result is the outcome of a SaveToPictures request. On success the
// embedded Record describes the saved file; otherwise Err is set and
// matches either a capture error or ErrPersistenceFailed.
type Result struct {
	Record
	Err error
}

// Listener receives a Result on the service's dispatcher goroutine.
type Listener func(Result)

const defaultMaxConcurrent = 2

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithMaxConcurrent bounds the number of captures and saves in flight.
func WithMaxConcurrent(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.maxConcurrent = n
		}
	}
}

// WithListener adds a listener notified of every result, in addition to
// the per-request one.
func WithListener(l Listener) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.listeners = append(s.listeners, l)
		}
	}
}

type delivery struct {
	listener Listener
	result   Result
}

// Service captures and saves snapshots in the background.
//
// Service is safe for concurrent use.
type Service struct {
	capturer      Capturer
	store         *Store
	maxConcurrent int
	sem           *semaphore.Weighted

	mu        sync.RWMutex
	closed    bool
	listeners []Listener
	tasks     sync.WaitGroup

	results      chan delivery
	dispatchDone chan struct{}
}

// NewService starts a service saving frames from c into store.
func NewService(c Capturer, store *Store, opts ...ServiceOption) *Service {
	s := &Service{
		capturer:      c,
		store:         store,
		maxConcurrent: defaultMaxConcurrent,
		dispatchDone:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sem = semaphore.NewWeighted(int64(s.maxConcurrent))
	s.results = make(chan delivery, s.maxConcurrent)
	go s.dispatch()
	return s
}

// Store returns the underlying store.
func (s *Service) Store() *Store {
	return s.store
}

// AddListener registers l for every future result.
func (s *Service) AddListener(l Listener) {
	if l == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// SaveToPictures captures a frame and saves it in the background. It
// returns immediately; l (which may be nil) receives exactly one Result.
// ctx bounds the background work.
func (s *Service) SaveToPictures(ctx context.Context, d Descriptor, l Listener) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrServiceClosed
	}
	s.tasks.Add(1)
	go s.run(ctx, d, l)
	return nil
}

func (s *Service) run(ctx context.Context, d Descriptor, l Listener) {
	defer s.tasks.Done()
	s.results <- delivery{listener: l, result: s.save(ctx, d)}
}

func (s *Service) save(ctx context.Context, d Descriptor) Result {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return Result{Err: err}
	}
	defer s.sem.Release(1)

	img, err := s.capturer.Capture(ctx, capture.Request{Width: d.Width, Height: d.Height})
	if err != nil {
		logging.Logger().Warn("snapshot capture failed", "file", d.File, "err", err)
		return Result{Err: err}
	}
	rec, err := s.store.Save(ctx, Name{Folder: d.Folder, File: d.File}, img,
		SaveOptions{Format: d.Format, Quality: d.Quality})
	if err != nil {
		logging.Logger().Warn("snapshot save failed", "file", d.File, "err", err)
		return Result{Err: err}
	}
	return Result{Record: rec}
}

func (s *Service) dispatch() {
	defer close(s.dispatchDone)
	for d := range s.results {
		s.mu.RLock()
		listeners := append([]Listener(nil), s.listeners...)
		s.mu.RUnlock()
		if d.listener != nil {
			listeners = append(listeners, d.listener)
		}
		for _, l := range listeners {
			notify(l, d.result)
		}
	}
}

func notify(l Listener, r Result) {
	defer func() {
		if p := recover(); p != nil {
			logging.Logger().Warn("snapshot listener panicked", "panic", p)
		}
	}()
	l(r)
}

// Close waits for in-flight requests, delivers their results and stops the
// dispatcher. It is idempotent. Close must not be called from a listener.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.tasks.Wait()
	close(s.results)
	<-s.dispatchDone
}
