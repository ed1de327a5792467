package ggview

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gogpu/gg"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/ggview/capture"
	"github.com/gogpu/ggview/render"
	"github.com/gogpu/ggview/snapshot"
	"github.com/gogpu/ggview/surface"
)

// Config holds the full view configuration.
type Config struct {
	Render   RenderConfig   `yaml:"render"`
	Layout   LayoutConfig   `yaml:"layout"`
	Capture  CaptureConfig  `yaml:"capture"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Log      LogConfig      `yaml:"log"`
}

// RenderConfig configures the render engine.
type RenderConfig struct {
	Mode          string        `yaml:"mode"`           // when_dirty | continuous
	FrameInterval time.Duration `yaml:"frame_interval"` // continuous mode only
	Format        string        `yaml:"format"`         // rgba8 | bgra8 | "" (from device)
	Origin        string        `yaml:"origin"`         // top_left | bottom_left
	Background    string        `yaml:"background"`     // hex color
}

// LayoutConfig configures the layout host.
type LayoutConfig struct {
	Viewport  SizeConfig `yaml:"viewport"`
	ScaleType string     `yaml:"scale_type"` // center_inside | center_crop
}

// SizeConfig is a width and height in pixels.
type SizeConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Size converts to a surface size.
func (s SizeConfig) Size() surface.Size {
	return surface.Size{Width: s.Width, Height: s.Height}
}

// CaptureConfig configures the capture coordinator.
type CaptureConfig struct {
	PhaseTimeout time.Duration `yaml:"phase_timeout"`

	// MaxDimension and MaxPixels bound requested capture sizes and the
	// viewport.
	MaxDimension int `yaml:"max_dimension"`
	MaxPixels    int `yaml:"max_pixels"`
}

// SnapshotConfig configures snapshot persistence.
type SnapshotConfig struct {
	PicturesDir   string          `yaml:"pictures_dir"`
	IndexPath     string          `yaml:"index_path"` // "off" disables the index
	Format        snapshot.Format `yaml:"format"`
	Quality       int             `yaml:"quality"`
	MaxConcurrent int             `yaml:"max_concurrent"`
}

// LogConfig configures the logger built by NewLogger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// indexOff disables the snapshot index.
const indexOff = "off"

// DefaultPicturesDir returns ~/Pictures, or "Pictures" when the home
// directory is unknown.
func DefaultPicturesDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "Pictures"
	}
	return filepath.Join(home, "Pictures")
}

// DefaultConfig returns the defaults.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads a YAML config file. Missing fields keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ggview: read config %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ggview: parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

func (c *Config) applyDefaults() {
	if c.Render.Mode == "" {
		c.Render.Mode = render.ModeWhenDirty.String()
	}
	if c.Render.FrameInterval == 0 {
		c.Render.FrameInterval = time.Second / 60
	}
	if c.Render.Origin == "" {
		c.Render.Origin = render.OriginTopLeft.String()
	}
	if c.Render.Background == "" {
		c.Render.Background = "#000000"
	}
	if c.Layout.Viewport.Width == 0 && c.Layout.Viewport.Height == 0 {
		c.Layout.Viewport = SizeConfig{Width: 1080, Height: 1920}
	}
	if c.Layout.ScaleType == "" {
		c.Layout.ScaleType = render.ScaleCenterInside.String()
	}
	if c.Capture.PhaseTimeout == 0 {
		c.Capture.PhaseTimeout = capture.DefaultPhaseTimeout
	}
	if c.Capture.MaxDimension == 0 {
		c.Capture.MaxDimension = capture.DefaultMaxDimension
	}
	if c.Capture.MaxPixels == 0 {
		c.Capture.MaxPixels = capture.DefaultMaxPixels
	}
	if c.Snapshot.PicturesDir == "" {
		c.Snapshot.PicturesDir = DefaultPicturesDir()
	}
	if c.Snapshot.IndexPath == "" {
		c.Snapshot.IndexPath = filepath.Join(c.Snapshot.PicturesDir, ".ggview", "index.db")
	}
	if c.Snapshot.Quality == 0 {
		c.Snapshot.Quality = snapshot.DefaultQuality
	}
	if c.Snapshot.MaxConcurrent == 0 {
		c.Snapshot.MaxConcurrent = 2
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks that values are sane.
func (c *Config) Validate() error {
	if _, err := c.renderOptions(); err != nil {
		return err
	}
	if c.Render.FrameInterval < 0 {
		return fmt.Errorf("ggview: render.frame_interval must be > 0")
	}
	if c.Layout.Viewport.Width < 0 || c.Layout.Viewport.Height < 0 {
		return fmt.Errorf("ggview: layout.viewport must not be negative")
	}
	if c.Capture.PhaseTimeout <= 0 {
		return fmt.Errorf("ggview: capture.phase_timeout must be > 0")
	}
	if c.Capture.MaxDimension <= 0 || c.Capture.MaxPixels <= 0 {
		return fmt.Errorf("ggview: capture.max_dimension and capture.max_pixels must be > 0")
	}
	if vp := c.Layout.Viewport; vp.Width > c.Capture.MaxDimension || vp.Height > c.Capture.MaxDimension ||
		(vp.Height > 0 && vp.Width > c.Capture.MaxPixels/vp.Height) {
		return fmt.Errorf("ggview: layout.viewport %dx%d exceeds capture bounds", vp.Width, vp.Height)
	}
	if c.Snapshot.Quality < 1 || c.Snapshot.Quality > 100 {
		return fmt.Errorf("ggview: snapshot.quality must be in 1..100")
	}
	if c.Snapshot.MaxConcurrent < 1 {
		return fmt.Errorf("ggview: snapshot.max_concurrent must be > 0")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("ggview: unsupported log.format %q (use text or json)", c.Log.Format)
	}
	return nil
}

func (c *Config) renderOptions() ([]render.Option, error) {
	mode, err := render.ParseMode(c.Render.Mode)
	if err != nil {
		return nil, err
	}
	format, err := render.ParseFormat(c.Render.Format)
	if err != nil {
		return nil, err
	}
	origin, err := render.ParseOrigin(c.Render.Origin)
	if err != nil {
		return nil, err
	}
	scale, err := render.ParseScaleType(c.Layout.ScaleType)
	if err != nil {
		return nil, err
	}
	bg, err := parseColor(c.Render.Background)
	if err != nil {
		return nil, err
	}
	return []render.Option{
		render.WithMode(mode),
		render.WithFrameInterval(c.Render.FrameInterval),
		render.WithFormat(format),
		render.WithOrigin(origin),
		render.WithScaleType(scale),
		render.WithBackground(bg),
	}, nil
}

func parseColor(s string) (gg.RGBA, error) {
	digits := strings.TrimPrefix(s, "#")
	switch len(digits) {
	case 3, 4, 6, 8:
	default:
		return gg.RGBA{}, fmt.Errorf("ggview: invalid color %q", s)
	}
	for _, r := range digits {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return gg.RGBA{}, fmt.Errorf("ggview: invalid color %q", s)
		}
	}
	return gg.Hex(digits), nil
}
