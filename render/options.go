// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"
	"time"

	"github.com/gogpu/gg"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Mode selects when the engine renders.
type Mode uint8

const (
	// ModeWhenDirty renders only on request.
	ModeWhenDirty Mode = iota

	// ModeContinuously renders every frame interval.
	ModeContinuously
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeWhenDirty:
		return "when_dirty"
	case ModeContinuously:
		return "continuous"
	default:
		return unknownStr
	}
}

// ScaleType selects how the source image is fitted to the surface.
type ScaleType uint8

const (
	// ScaleCenterInside fits the whole image inside the surface,
	// letterboxing with the background color.
	ScaleCenterInside ScaleType = iota

	// ScaleCenterCrop fills the surface, cropping the image centrally.
	ScaleCenterCrop
)

// String returns the scale type name.
func (s ScaleType) String() string {
	switch s {
	case ScaleCenterInside:
		return "center_inside"
	case ScaleCenterCrop:
		return "center_crop"
	default:
		return unknownStr
	}
}

// Rotation is a clockwise rotation of the source image.
type Rotation uint8

// Supported rotations.
const (
	RotationNormal Rotation = iota
	Rotation90
	Rotation180
	Rotation270
)

// Swapped reports whether the rotation exchanges width and height.
func (r Rotation) Swapped() bool {
	return r == Rotation90 || r == Rotation270
}

// Degrees returns the rotation angle in degrees.
func (r Rotation) Degrees() int {
	return int(r%4) * 90
}

// RotationFromDegrees maps 0/90/180/270 (and their multiples) to a Rotation.
// Other angles snap down to the previous quarter turn.
func RotationFromDegrees(deg int) Rotation {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return Rotation(deg / 90)
}

const defaultFrameInterval = time.Second / 60

type config struct {
	format        gputypes.TextureFormat
	origin        Origin
	mode          Mode
	frameInterval time.Duration
	background    gg.RGBA
	scaleType     ScaleType
	provider      gpucontext.DeviceProvider
}

func defaultConfig() config {
	return config{
		format:        gputypes.TextureFormatUndefined,
		origin:        OriginTopLeft,
		mode:          ModeWhenDirty,
		frameInterval: defaultFrameInterval,
		background:    gg.Black,
		scaleType:     ScaleCenterInside,
	}
}

// Option configures an Engine.
type Option func(*config)

// WithFormat sets the framebuffer pixel format. Without it the format comes
// from the device provider, falling back to RGBA8.
func WithFormat(format gputypes.TextureFormat) Option {
	return func(c *config) { c.format = format }
}

// WithOrigin sets the framebuffer row order.
func WithOrigin(origin Origin) Option {
	return func(c *config) { c.origin = origin }
}

// WithMode sets the initial render mode.
func WithMode(mode Mode) Option {
	return func(c *config) { c.mode = mode }
}

// WithFrameInterval sets the continuous-mode frame interval.
func WithFrameInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.frameInterval = d
		}
	}
}

// WithBackground sets the color used outside the image.
func WithBackground(col gg.RGBA) Option {
	return func(c *config) { c.background = col }
}

// WithScaleType sets the initial scale type.
func WithScaleType(s ScaleType) Option {
	return func(c *config) { c.scaleType = s }
}

// WithDeviceProvider shares a host GPU device with the gg accelerator.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(c *config) { c.provider = p }
}

// ParseMode parses "when_dirty" or "continuous". Empty means when_dirty.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "when_dirty":
		return ModeWhenDirty, nil
	case "continuous", "continuously":
		return ModeContinuously, nil
	default:
		return 0, fmt.Errorf("render: unknown mode %q", s)
	}
}

// ParseScaleType parses "center_inside" or "center_crop". Empty means
// center_inside.
func ParseScaleType(s string) (ScaleType, error) {
	switch s {
	case "", "center_inside":
		return ScaleCenterInside, nil
	case "center_crop":
		return ScaleCenterCrop, nil
	default:
		return 0, fmt.Errorf("render: unknown scale type %q", s)
	}
}

// ParseOrigin parses "top_left" or "bottom_left". Empty means top_left.
func ParseOrigin(s string) (Origin, error) {
	switch s {
	case "", "top_left":
		return OriginTopLeft, nil
	case "bottom_left":
		return OriginBottomLeft, nil
	default:
		return 0, fmt.Errorf("render: unknown origin %q", s)
	}
}

// ParseFormat parses "rgba8" or "bgra8". Empty leaves the format to the
// device provider.
func ParseFormat(s string) (gputypes.TextureFormat, error) {
	switch s {
	case "":
		return gputypes.TextureFormatUndefined, nil
	case "rgba8":
		return gputypes.TextureFormatRGBA8Unorm, nil
	case "bgra8":
		return gputypes.TextureFormatBGRA8Unorm, nil
	default:
		return gputypes.TextureFormatUndefined, fmt.Errorf("render: unknown format %q", s)
	}
}
