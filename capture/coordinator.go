// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gogpu/ggview/internal/logging"
	"github.com/gogpu/ggview/internal/oneshot"
	"github.com/gogpu/ggview/internal/renderthread"
	"github.com/gogpu/ggview/layout"
	"github.com/gogpu/ggview/surface"
)

// Image is a captured frame: 8-bit RGBA, row-major, top to bottom.
type Image = surface.Image

// Request describes a capture. Zero Width and Height capture at the current
// surface size.
type Request struct {
	Width  int
	Height int
}

func (r Request) sized() bool {
	return r.Width > 0 && r.Height > 0
}

func (r Request) validate(maxDimension, maxPixels int) error {
	if r.Width < 0 || r.Height < 0 || (r.Width == 0) != (r.Height == 0) {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, r.Width, r.Height)
	}
	if r.Width > maxDimension || r.Height > maxDimension {
		return fmt.Errorf("%w: %dx%d exceeds %d per side", ErrInvalidSize, r.Width, r.Height, maxDimension)
	}
	// Compare by division so huge sides cannot overflow the product.
	if r.sized() && r.Width > maxPixels/r.Height {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidSize, r.Width, r.Height, maxPixels)
	}
	return nil
}

// RenderEngine is the render side of the protocol.
type RenderEngine interface {
	RunOnRenderThread(unit renderthread.Unit) error
	OnRenderThread() bool
	RenderFrame()
	ReadPixels() (*Image, error)
	CurrentSurfaceSize() surface.Size
}

// LayoutHost is the layout side of the protocol.
type LayoutHost interface {
	RequestLayout() error
	AwaitLayout() *layout.Signal
	OnLayoutThread() bool
}

// Defaults of a Coordinator.
const (
	// DefaultPhaseTimeout bounds every wait of a capture.
	DefaultPhaseTimeout = 5 * time.Second

	// DefaultMaxDimension bounds each side of a requested capture.
	DefaultMaxDimension = 16384

	// DefaultMaxPixels bounds the area of a requested capture (128 MiB of
	// RGBA per buffer).
	DefaultMaxPixels = 32 << 20
)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithPhaseTimeout bounds each phase wait. Non-positive values are ignored.
func WithPhaseTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.phaseTimeout = d
		}
	}
}

// WithRestoreTimeout bounds the restore wait. It defaults to the phase
// timeout.
func WithRestoreTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.restoreTimeout = d
		}
	}
}

// WithMaxDimension bounds each side of a requested capture. Non-positive
// values are ignored.
func WithMaxDimension(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxDimension = n
		}
	}
}

// WithMaxPixels bounds the area of a requested capture. Non-positive values
// are ignored.
func WithMaxPixels(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxPixels = n
		}
	}
}

// Coordinator runs captures against a size state, a layout host and a
// render engine.
//
// Coordinator is safe for concurrent use; captures are serialized.
type Coordinator struct {
	state  *surface.SizeState
	layout LayoutHost
	engine RenderEngine

	phaseTimeout   time.Duration
	restoreTimeout time.Duration
	maxDimension   int
	maxPixels      int

	// slot holds a token while a capture is in flight.
	slot chan struct{}

	seq atomic.Uint64
}

// NewCoordinator creates a coordinator.
func NewCoordinator(state *surface.SizeState, host LayoutHost, engine RenderEngine, opts ...Option) *Coordinator {
	c := &Coordinator{
		state:        state,
		layout:       host,
		engine:       engine,
		phaseTimeout: DefaultPhaseTimeout,
		maxDimension: DefaultMaxDimension,
		maxPixels:    DefaultMaxPixels,
		slot:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.restoreTimeout == 0 {
		c.restoreTimeout = c.phaseTimeout
	}
	return c
}

// PhaseTimeout returns the bound applied to each phase.
func (c *Coordinator) PhaseTimeout() time.Duration {
	return c.phaseTimeout
}

// MaxSize returns the per-side and area bounds on requested captures.
func (c *Coordinator) MaxSize() (dimension, pixels int) {
	return c.maxDimension, c.maxPixels
}

// Captures returns the number of captures started.
func (c *Coordinator) Captures() uint64 {
	return c.seq.Load()
}

// CaptureCurrent captures at the current surface size.
func (c *Coordinator) CaptureCurrent(ctx context.Context) (*Image, error) {
	return c.Capture(ctx, Request{})
}

// CaptureSize captures at width x height.
func (c *Coordinator) CaptureSize(ctx context.Context, width, height int) (*Image, error) {
	return c.Capture(ctx, Request{Width: width, Height: height})
}

// Capture renders one frame at the requested size and returns its pixels.
// The surface is back at its natural size when Capture returns.
func (c *Coordinator) Capture(ctx context.Context, req Request) (*Image, error) {
	if err := req.validate(c.maxDimension, c.maxPixels); err != nil {
		return nil, err
	}
	if c.layout.OnLayoutThread() || c.engine.OnRenderThread() {
		return nil, ErrDeadlockGuard
	}

	select {
	case c.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("capture: waiting for previous capture: %w", ctx.Err())
	}
	defer func() { <-c.slot }()

	id := c.seq.Add(1)
	log := logging.Logger().With("capture", id)
	start := time.Now()

	if req.sized() {
		size := surface.Size{Width: req.Width, Height: req.Height}
		c.state.SetOverride(size)
		defer c.restore(log)

		if err := c.applyLayout(ctx, log, "layout"); err != nil {
			return nil, err
		}
	}

	img, err := c.renderAndRead(ctx, log)
	if err != nil {
		return nil, err
	}
	log.Debug("capture complete", "size", img.Size().String(), "elapsed", time.Since(start))
	return img, nil
}

// applyLayout registers a signal, requests a pass and waits for it.
func (c *Coordinator) applyLayout(ctx context.Context, log *slog.Logger, phase string) error {
	sig := c.layout.AwaitLayout()
	if err := c.layout.RequestLayout(); err != nil {
		return threadError(phase, err)
	}
	applied, err := wait(ctx, c.phaseTimeout, phase, sig.Wait)
	if err != nil {
		return err
	}
	log.Debug("layout applied", "phase", phase, "size", applied.String())
	return nil
}

type readback struct {
	img *Image
	err error
}

func (c *Coordinator) renderAndRead(ctx context.Context, log *slog.Logger) (*Image, error) {
	rendered := oneshot.New[struct{}]()
	if err := c.engine.RunOnRenderThread(func() {
		c.engine.RenderFrame()
		fire(rendered, struct{}{}, "render")
	}); err != nil {
		return nil, threadError("render", err)
	}
	if _, err := wait(ctx, c.phaseTimeout, "render", rendered.Wait); err != nil {
		return nil, err
	}
	log.Debug("render pass done")

	read := oneshot.New[readback]()
	if err := c.engine.RunOnRenderThread(func() {
		img, err := c.engine.ReadPixels()
		fire(read, readback{img: img, err: err}, "readback")
	}); err != nil {
		return nil, threadError("readback", err)
	}
	rb, err := wait(ctx, c.phaseTimeout, "readback", read.Wait)
	if err != nil {
		return nil, err
	}
	if rb.err != nil {
		return nil, fmt.Errorf("capture: readback: %w", rb.err)
	}
	return rb.img, nil
}

// restore clears the override and waits for the natural layout. It does not
// use the caller's context: the surface must not stay at the capture size.
func (c *Coordinator) restore(log *slog.Logger) {
	c.state.ClearOverride()

	sig := c.layout.AwaitLayout()
	if err := c.layout.RequestLayout(); err != nil {
		log.Warn("restore layout not requested", "err", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.restoreTimeout)
	defer cancel()
	size, err := sig.Wait(ctx)
	if err != nil {
		log.Warn("restore layout not applied", "timeout", c.restoreTimeout, "err", err)
		return
	}
	log.Debug("restored", "size", size.String())
}

func wait[T any](ctx context.Context, timeout time.Duration, phase string, fn func(context.Context) (T, error)) (T, error) {
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	v, err := fn(pctx)
	if err == nil {
		return v, nil
	}
	if ctx.Err() != nil {
		return v, fmt.Errorf("capture: %s phase: %w", phase, ctx.Err())
	}
	return v, fmt.Errorf("%w: %s phase after %v", ErrCaptureTimedOut, phase, timeout)
}

func fire[T any](sig *oneshot.Signal[T], v T, phase string) {
	if !sig.Fire(v) {
		logging.Logger().Warn("capture signal fired twice", "phase", phase)
	}
}

func threadError(phase string, err error) error {
	if errors.Is(err, ErrThreadUnavailable) {
		return fmt.Errorf("capture: %s phase: %w", phase, err)
	}
	if errors.Is(err, layout.ErrClosed) {
		return fmt.Errorf("capture: %s phase: %w: %w", phase, ErrThreadUnavailable, err)
	}
	return fmt.Errorf("capture: %s phase: %w", phase, err)
}
