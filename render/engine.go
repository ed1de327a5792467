// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/scene"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/ggview/internal/logging"
	"github.com/gogpu/ggview/internal/renderthread"
	"github.com/gogpu/ggview/surface"
)

// Errors returned by Engine.
var (
	// ErrNotRenderThread is returned by render-thread-only methods called
	// from any other goroutine.
	ErrNotRenderThread = errors.New("render: not on render thread")

	// ErrStaleFramebuffer is returned by ReadPixels when the last rendered
	// frame does not match the current surface size.
	ErrStaleFramebuffer = errors.New("render: framebuffer does not match surface size")
)

// Engine draws the source image, scaled and filtered, into a framebuffer
// sized to the surface. All drawing and readback happen on the render
// thread; setters may be called from any goroutine and schedule a frame.
//
// Engine is safe for concurrent use.
type Engine struct {
	thread *renderthread.Thread
	cfg    config

	// Render thread only.
	fb       *Framebuffer
	dc       *gg.Context
	buf      *gg.ImageBuf
	bufStamp uint64

	mu         sync.Mutex
	size       surface.Size
	src        image.Image
	srcStamp   uint64
	filter     Filter
	rotation   Rotation
	scaleType  ScaleType
	background gg.RGBA

	mode         atomic.Uint32
	paused       atomic.Bool
	framePending atomic.Bool
	frames       atomic.Uint64

	loopMu   sync.Mutex
	loopStop chan struct{}
	loopDone chan struct{}

	closed atomic.Bool
}

// NewEngine creates an engine rendering on thread.
//
// When a device provider is configured it is shared with the gg accelerator
// and, unless WithFormat was given, its surface format selects the
// framebuffer format. Formats the framebuffer cannot hold fall back to RGBA8.
func NewEngine(thread *renderthread.Thread, opts ...Option) (*Engine, error) {
	if thread == nil {
		return nil, errors.New("render: nil render thread")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	format := cfg.format
	if cfg.provider != nil {
		if err := gg.SetAcceleratorDeviceProvider(cfg.provider); err != nil {
			return nil, fmt.Errorf("render: share device: %w", err)
		}
		if format == gputypes.TextureFormatUndefined {
			format = cfg.provider.SurfaceFormat()
			if !formatSupported(format) {
				logging.Logger().Warn("surface format not readable, using RGBA8", "format", format)
				format = gputypes.TextureFormatRGBA8Unorm
			}
		}
	}
	if format == gputypes.TextureFormatUndefined {
		format = gputypes.TextureFormatRGBA8Unorm
	}

	fb, err := NewFramebuffer(format, cfg.origin)
	if err != nil {
		return nil, err
	}
	cfg.format = format

	e := &Engine{
		thread:     thread,
		cfg:        cfg,
		fb:         fb,
		rotation:   RotationNormal,
		scaleType:  cfg.scaleType,
		background: cfg.background,
	}
	e.mode.Store(uint32(cfg.mode))
	e.syncLoop()
	return e, nil
}

// Format returns the framebuffer pixel format.
func (e *Engine) Format() gputypes.TextureFormat {
	return e.cfg.format
}

// RunOnRenderThread queues unit on the render thread.
func (e *Engine) RunOnRenderThread(unit renderthread.Unit) error {
	return e.thread.Submit(unit)
}

// OnRenderThread reports whether the caller runs on the render thread.
func (e *Engine) OnRenderThread() bool {
	return e.thread.OnThread()
}

// CurrentSurfaceSize returns the size the next frame will be rendered at.
func (e *Engine) CurrentSurfaceSize() surface.Size {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.size
}

// Resize sets the surface size and schedules a frame. It is registered as
// a layout listener so every layout pass publishes its applied size here.
func (e *Engine) Resize(size surface.Size) {
	e.mu.Lock()
	changed := e.size != size
	e.size = size
	e.mu.Unlock()
	if changed {
		_ = e.RequestRenderPass()
	}
}

// SetImage replaces the source image. A nil image renders the background
// only.
func (e *Engine) SetImage(img image.Image) error {
	e.mu.Lock()
	e.src = img
	e.srcStamp++
	e.mu.Unlock()
	return e.RequestRenderPass()
}

// SetNewImage replaces the source image and resets rotation and filter in
// one step, so no frame shows the new image with the old settings.
func (e *Engine) SetNewImage(img image.Image) error {
	e.mu.Lock()
	e.src = img
	e.rotation = RotationNormal
	e.filter = nil
	e.srcStamp++
	e.mu.Unlock()
	return e.RequestRenderPass()
}

// SetFilter replaces the filter applied after drawing. Nil disables
// filtering.
func (e *Engine) SetFilter(f Filter) error {
	e.mu.Lock()
	e.filter = f
	e.mu.Unlock()
	return e.RequestRenderPass()
}

// SetRotation sets the clockwise rotation of the source image.
func (e *Engine) SetRotation(r Rotation) error {
	e.mu.Lock()
	if e.rotation != r {
		e.rotation = r
		e.srcStamp++
	}
	e.mu.Unlock()
	return e.RequestRenderPass()
}

// Rotation returns the current rotation.
func (e *Engine) Rotation() Rotation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rotation
}

// Filter returns the current filter, nil when unfiltered.
func (e *Engine) Filter() Filter {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filter
}

// ScaleType returns how the image is fitted to the surface.
func (e *Engine) ScaleType() ScaleType {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scaleType
}

// SetScaleType sets how the image is fitted to the surface.
func (e *Engine) SetScaleType(s ScaleType) error {
	e.mu.Lock()
	e.scaleType = s
	e.mu.Unlock()
	return e.RequestRenderPass()
}

// SetBackground sets the color drawn where the image does not cover the
// surface.
func (e *Engine) SetBackground(col gg.RGBA) error {
	e.mu.Lock()
	e.background = col
	e.mu.Unlock()
	return e.RequestRenderPass()
}

// RequestRenderPass schedules a frame. Requests arriving while a frame is
// queued but not started are folded into it.
func (e *Engine) RequestRenderPass() error {
	if !e.framePending.CompareAndSwap(false, true) {
		return nil
	}
	err := e.thread.Submit(func() {
		e.framePending.Store(false)
		e.RenderFrame()
	})
	if err != nil {
		e.framePending.Store(false)
	}
	return err
}

// Frames returns the number of rendered frames.
func (e *Engine) Frames() uint64 {
	return e.frames.Load()
}

type frameState struct {
	size       surface.Size
	src        image.Image
	srcStamp   uint64
	filter     Filter
	rotation   Rotation
	scaleType  ScaleType
	background gg.RGBA
}

func (e *Engine) snapshot() frameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return frameState{
		size:       e.size,
		src:        e.src,
		srcStamp:   e.srcStamp,
		filter:     e.filter,
		rotation:   e.rotation,
		scaleType:  e.scaleType,
		background: e.background,
	}
}

// RenderFrame performs one render iteration at the current surface size.
// It must run on the render thread; elsewhere it logs and does nothing.
func (e *Engine) RenderFrame() {
	if !e.thread.OnThread() {
		logging.Logger().Warn("RenderFrame called off the render thread")
		return
	}
	st := e.snapshot()
	w, h := st.size.Width, st.size.Height
	if st.size.Empty() {
		e.fb.Resize(0, 0)
		e.frames.Add(1)
		return
	}

	if e.dc == nil {
		e.dc = gg.NewContext(w, h)
	} else if err := e.dc.Resize(w, h); err != nil {
		logging.Logger().Warn("render resize failed", "size", st.size.String(), "err", err)
		return
	}

	e.dc.ClearWithColor(st.background)
	if st.src != nil {
		if e.buf == nil || e.bufStamp != st.srcStamp {
			e.buf = gg.ImageBufFromImage(rotateImage(st.src, st.rotation))
			e.bufStamp = st.srcStamp
		}
		iw, ih := e.buf.Bounds()
		e.dc.DrawImageEx(e.buf, placement(iw, ih, w, h, st.scaleType))
	} else {
		e.buf = nil
	}
	if err := e.dc.FlushGPU(); err != nil {
		logging.Logger().Warn("gpu flush failed", "err", err)
	}

	out := e.dc.ResizeTarget()
	if st.filter != nil {
		filtered := gg.NewPixmap(w, h)
		st.filter.Apply(out, filtered, scene.Rect{MaxX: float32(w), MaxY: float32(h)})
		out = filtered
	}

	e.fb.Resize(w, h)
	e.fb.Store(out.Data(), w*4)
	n := e.frames.Add(1)
	logging.Logger().Debug("frame rendered", "frame", n, "size", st.size.String())
}

// placement computes where an iw x ih image lands on a w x h surface.
func placement(iw, ih, w, h int, st ScaleType) gg.DrawImageOptions {
	opts := gg.DrawImageOptions{
		Interpolation: gg.InterpBilinear,
		Opacity:       1,
		BlendMode:     gg.BlendNormal,
	}
	if iw <= 0 || ih <= 0 {
		return opts
	}
	sx := float64(w) / float64(iw)
	sy := float64(h) / float64(ih)

	switch st {
	case ScaleCenterCrop:
		scale := math.Max(sx, sy)
		cw := int(math.Round(float64(w) / scale))
		ch := int(math.Round(float64(h) / scale))
		cw, ch = min(max(cw, 1), iw), min(max(ch, 1), ih)
		x0, y0 := (iw-cw)/2, (ih-ch)/2
		crop := image.Rect(x0, y0, x0+cw, y0+ch)
		opts.SrcRect = &crop
		opts.DstWidth = float64(w)
		opts.DstHeight = float64(h)
	default:
		scale := math.Min(sx, sy)
		dw := math.Round(float64(iw) * scale)
		dh := math.Round(float64(ih) * scale)
		opts.X = math.Round((float64(w) - dw) / 2)
		opts.Y = math.Round((float64(h) - dh) / 2)
		opts.DstWidth = dw
		opts.DstHeight = dh
	}
	return opts
}

// ReadPixels copies the last rendered frame into a new top-down RGBA image
// sized to the current surface. It must run on the render thread.
func (e *Engine) ReadPixels() (*surface.Image, error) {
	if !e.thread.OnThread() {
		return nil, ErrNotRenderThread
	}
	size := e.CurrentSurfaceSize()
	if e.fb.Width() != size.Width || e.fb.Height() != size.Height {
		return nil, fmt.Errorf("%w: frame %dx%d, surface %s",
			ErrStaleFramebuffer, e.fb.Width(), e.fb.Height(), size)
	}
	img := surface.NewImage(size)
	e.fb.ReadInto(img.Pix, img.Stride)
	return img, nil
}

// Mode returns the current render mode.
func (e *Engine) Mode() Mode {
	return Mode(e.mode.Load())
}

// SetMode switches between on-demand and continuous rendering.
func (e *Engine) SetMode(m Mode) {
	e.mode.Store(uint32(m))
	e.syncLoop()
}

// Pause stops continuous rendering until Resume. On-demand requests still
// render.
func (e *Engine) Pause() {
	e.paused.Store(true)
	e.syncLoop()
}

// Resume restarts continuous rendering after Pause.
func (e *Engine) Resume() {
	e.paused.Store(false)
	e.syncLoop()
	_ = e.RequestRenderPass()
}

// Paused reports whether continuous rendering is paused.
func (e *Engine) Paused() bool {
	return e.paused.Load()
}

// syncLoop starts or stops the frame ticker to match mode and pause state.
func (e *Engine) syncLoop() {
	want := !e.closed.Load() && e.Mode() == ModeContinuously && !e.paused.Load()

	e.loopMu.Lock()
	defer e.loopMu.Unlock()

	running := e.loopStop != nil
	switch {
	case want && !running:
		e.loopStop = make(chan struct{})
		e.loopDone = make(chan struct{})
		go e.tick(e.cfg.frameInterval, e.loopStop, e.loopDone)
	case !want && running:
		close(e.loopStop)
		<-e.loopDone
		e.loopStop, e.loopDone = nil, nil
	}
}

func (e *Engine) tick(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if err := e.RequestRenderPass(); err != nil {
				return
			}
		}
	}
}

// Close stops continuous rendering and releases the drawing context. The
// render thread itself belongs to the caller.
func (e *Engine) Close() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	e.syncLoop()
	_ = e.thread.Submit(func() {
		if e.dc != nil {
			_ = e.dc.Close()
			e.dc = nil
		}
	})
}
