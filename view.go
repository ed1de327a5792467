package ggview

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gg"
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/ggview/capture"
	"github.com/gogpu/ggview/internal/logging"
	"github.com/gogpu/ggview/internal/renderthread"
	"github.com/gogpu/ggview/layout"
	"github.com/gogpu/ggview/render"
	"github.com/gogpu/ggview/snapshot"
	"github.com/gogpu/ggview/surface"
)

// Option configures a View.
type Option func(*viewOptions)

type viewOptions struct {
	provider gpucontext.DeviceProvider
}

// WithDeviceProvider shares a host GPU device with the render engine.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(o *viewOptions) { o.provider = p }
}

// View displays one image, filtered and fitted to a viewport, and captures
// it at arbitrary sizes.
//
// View is safe for concurrent use. Capture methods must not be called from
// listeners running on the layout or render thread.
type View struct {
	cfg Config

	state      *surface.SizeState
	host       *layout.Host
	thread     *renderthread.Thread
	background *renderthread.Thread
	engine     *render.Engine
	coord      *capture.Coordinator
	index      *snapshot.Index
	snapshots  *snapshot.Service

	mu     sync.Mutex
	source surface.Size

	closed atomic.Bool
}

// New creates a view from cfg. A nil cfg uses DefaultConfig.
func New(cfg *Config, opts ...Option) (*View, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o viewOptions
	for _, opt := range opts {
		opt(&o)
	}

	renderOpts, err := cfg.renderOptions()
	if err != nil {
		return nil, err
	}
	if o.provider != nil {
		renderOpts = append(renderOpts, render.WithDeviceProvider(o.provider))
	}

	var index *snapshot.Index
	if cfg.Snapshot.IndexPath != indexOff {
		if index, err = snapshot.OpenIndex(cfg.Snapshot.IndexPath); err != nil {
			return nil, err
		}
	}

	v := &View{
		cfg:        *cfg,
		state:      surface.NewSizeState(surface.Size{}),
		thread:     renderthread.New("ggview-render"),
		background: renderthread.New("ggview-background", renderthread.WithoutOSThreadLock()),
		index:      index,
	}
	v.engine, err = render.NewEngine(v.thread, renderOpts...)
	if err != nil {
		v.thread.Close()
		v.background.Close()
		if index != nil {
			index.Close()
		}
		return nil, err
	}

	v.host = layout.NewHost(v.state, layout.WithViewport(cfg.Layout.Viewport.Size()))
	v.host.AddListener(v.engine.Resize)
	v.engine.Resize(v.state.Current())

	v.coord = capture.NewCoordinator(v.state, v.host, v.engine,
		capture.WithPhaseTimeout(cfg.Capture.PhaseTimeout),
		capture.WithMaxDimension(cfg.Capture.MaxDimension),
		capture.WithMaxPixels(cfg.Capture.MaxPixels))

	storeOpts := []snapshot.StoreOption{}
	if index != nil {
		storeOpts = append(storeOpts, snapshot.WithIndex(index))
	}
	v.snapshots = snapshot.NewService(v.coord, snapshot.NewStore(cfg.Snapshot.PicturesDir, storeOpts...),
		snapshot.WithMaxConcurrent(cfg.Snapshot.MaxConcurrent))

	logging.Logger().Info("view opened", "viewport", cfg.Layout.Viewport.Size().String(),
		"format", v.engine.Format(), "mode", v.engine.Mode().String())
	return v, nil
}

// Config returns the configuration the view was built with.
func (v *View) Config() Config {
	return v.cfg
}

// Size returns the current surface size.
func (v *View) Size() surface.Size {
	return v.state.Current()
}

// NaturalSize returns the size measured from viewport and image.
func (v *View) NaturalSize() surface.Size {
	return v.state.Natural()
}

// SetImage replaces the displayed image and re-measures the surface to its
// aspect ratio. A nil image clears the view.
func (v *View) SetImage(img image.Image) error {
	if v.closed.Load() {
		return ErrClosed
	}
	v.mu.Lock()
	v.source = imageSize(img)
	v.mu.Unlock()

	if err := v.engine.SetImage(img); err != nil {
		return err
	}
	return v.remeasure()
}

// SetNewImage replaces the displayed image like SetImage and also resets
// rotation and filter.
func (v *View) SetNewImage(img image.Image) error {
	if v.closed.Load() {
		return ErrClosed
	}
	v.mu.Lock()
	v.source = imageSize(img)
	v.mu.Unlock()

	if err := v.engine.SetNewImage(img); err != nil {
		return err
	}
	return v.remeasure()
}

func imageSize(img image.Image) surface.Size {
	if img == nil {
		return surface.Size{}
	}
	b := img.Bounds()
	return surface.Size{Width: b.Dx(), Height: b.Dy()}
}

// Filter returns the current filter, nil when unfiltered.
func (v *View) Filter() render.Filter {
	return v.engine.Filter()
}

// Rotation returns the current rotation.
func (v *View) Rotation() render.Rotation {
	return v.engine.Rotation()
}

// ScaleType returns how the image fills the surface.
func (v *View) ScaleType() render.ScaleType {
	return v.engine.ScaleType()
}

// SetFilter sets the filter applied to every frame. Nil disables filtering.
func (v *View) SetFilter(f render.Filter) error {
	if v.closed.Load() {
		return ErrClosed
	}
	return v.engine.SetFilter(f)
}

// SetRotation rotates the image clockwise. Quarter turns swap the aspect
// ratio used for measurement.
func (v *View) SetRotation(r render.Rotation) error {
	if v.closed.Load() {
		return ErrClosed
	}
	if err := v.engine.SetRotation(r); err != nil {
		return err
	}
	return v.remeasure()
}

// SetScaleType sets how the image fills the surface.
func (v *View) SetScaleType(s render.ScaleType) error {
	if v.closed.Load() {
		return ErrClosed
	}
	return v.engine.SetScaleType(s)
}

// SetBackgroundColor sets the color around a letterboxed image.
func (v *View) SetBackgroundColor(col gg.RGBA) error {
	if v.closed.Load() {
		return ErrClosed
	}
	return v.engine.SetBackground(col)
}

// SetRenderMode switches between on-demand and continuous rendering.
func (v *View) SetRenderMode(m render.Mode) {
	v.engine.SetMode(m)
}

// RequestRender schedules a frame.
func (v *View) RequestRender() error {
	if v.closed.Load() {
		return ErrClosed
	}
	return v.engine.RequestRenderPass()
}

// SetViewport changes the space available to the surface.
func (v *View) SetViewport(size surface.Size) error {
	if v.closed.Load() {
		return ErrClosed
	}
	return v.host.SetViewport(size)
}

// Pause stops continuous rendering.
func (v *View) Pause() { v.engine.Pause() }

// Resume restarts continuous rendering.
func (v *View) Resume() { v.engine.Resume() }

// remeasure applies the aspect ratio of the current image and rotation.
// Off the layout thread it waits for the resulting layout pass, so a
// following Capture sees the new natural size.
func (v *View) remeasure() error {
	v.mu.Lock()
	src := v.source
	v.mu.Unlock()
	ratio := layout.AspectRatio(src.Width, src.Height, v.engine.Rotation().Swapped())

	if v.host.OnThread() {
		return v.host.SetAspectRatio(ratio)
	}
	sig := v.host.AwaitLayout()
	if err := v.host.SetAspectRatio(ratio); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), v.cfg.Capture.PhaseTimeout)
	defer cancel()
	if _, err := sig.Wait(ctx); err != nil {
		return fmt.Errorf("%w: layout after image change", ErrCaptureTimedOut)
	}
	return nil
}

// Capture returns the current frame at the current surface size.
func (v *View) Capture(ctx context.Context) (*capture.Image, error) {
	if v.closed.Load() {
		return nil, ErrClosed
	}
	return v.coord.CaptureCurrent(ctx)
}

// CaptureSize renders and returns one frame at width x height. The view is
// back at its natural size when CaptureSize returns.
func (v *View) CaptureSize(ctx context.Context, width, height int) (*capture.Image, error) {
	if v.closed.Load() {
		return nil, ErrClosed
	}
	return v.coord.CaptureSize(ctx, width, height)
}

// SaveToPictures captures the current frame and saves it as folder/file
// below the pictures directory in the background. l receives the result.
func (v *View) SaveToPictures(ctx context.Context, folder, file string, l snapshot.Listener) error {
	return v.SaveToPicturesSize(ctx, folder, file, 0, 0, l)
}

// SaveToPicturesSize is SaveToPictures at width x height.
func (v *View) SaveToPicturesSize(ctx context.Context, folder, file string, width, height int, l snapshot.Listener) error {
	if v.closed.Load() {
		return ErrClosed
	}
	err := v.snapshots.SaveToPictures(ctx, snapshot.Descriptor{
		Folder:  folder,
		File:    file,
		Width:   width,
		Height:  height,
		Format:  v.cfg.Snapshot.Format,
		Quality: v.cfg.Snapshot.Quality,
	}, l)
	if errors.Is(err, snapshot.ErrServiceClosed) {
		return ErrClosed
	}
	return err
}

// OnSnapshotCaptured registers l for the result of every save.
func (v *View) OnSnapshotCaptured(l snapshot.Listener) {
	v.snapshots.AddListener(l)
}

// Snapshots returns the index of saved snapshots, or nil when disabled.
func (v *View) Snapshots() *snapshot.Index {
	return v.index
}

// RunOnBackground runs fn on the view's background goroutine, after all
// previously queued background work. Captures are allowed from there.
func (v *View) RunOnBackground(fn func()) error {
	if err := v.background.Submit(fn); err != nil {
		if errors.Is(err, renderthread.ErrUnavailable) {
			return ErrClosed
		}
		return err
	}
	return nil
}

// Close waits for pending saves, then stops all threads. It is idempotent.
func (v *View) Close() error {
	if !v.closed.CompareAndSwap(false, true) {
		return nil
	}
	v.background.Close()
	v.snapshots.Close()
	v.engine.Close()
	v.host.Close()
	v.thread.Close()

	if v.index != nil {
		if err := v.index.Close(); err != nil {
			return fmt.Errorf("ggview: close index: %w", err)
		}
	}
	logging.Logger().Info("view closed")
	return nil
}
