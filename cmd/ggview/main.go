// Command ggview loads an image, applies a filter and saves a capture of the
// view at any size below the pictures directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gogpu/gg"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/ggview"
	"github.com/gogpu/ggview/render"
	"github.com/gogpu/ggview/snapshot"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file")
		input      = flag.String("input", "", "image to display")
		folder     = flag.String("folder", "ggview", "folder below the pictures directory")
		name       = flag.String("name", "", "output file name (default: capture-<time>)")
		width      = flag.Int("width", 0, "capture width (0: view size)")
		height     = flag.Int("height", 0, "capture height (0: view size)")
		filter     = flag.String("filter", "none", "filter: none, grayscale, sepia, invert")
		rotation   = flag.Int("rotate", 0, "clockwise rotation in degrees")
		format     = flag.String("format", "", "output format: jpeg, png, tiff, bmp")
		quality    = flag.Int("quality", 0, "JPEG quality 1-100")
		timeout    = flag.Duration("timeout", 30*time.Second, "overall deadline")
		requireGPU = flag.Bool("gpu", false, "fail unless a GPU accelerator is registered")
	)
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: ggview -input image.png [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := ggview.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = ggview.LoadConfig(*configPath); err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	if *format != "" {
		f, err := snapshot.ParseFormat(*format)
		if err != nil {
			log.Fatalf("format: %v", err)
		}
		cfg.Snapshot.Format = f
	}
	if *quality != 0 {
		cfg.Snapshot.Quality = *quality
	}

	logger, err := ggview.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		log.Fatalf("log: %v", err)
	}
	ggview.SetLogger(logger)

	if a := gg.Accelerator(); a != nil {
		logger.Info("gpu accelerator", "name", a.Name())
	} else if *requireGPU {
		log.Fatal("no GPU accelerator available (built with -tags nogpu or no device found)")
	}

	if err := run(cfg, options{
		input:    *input,
		folder:   *folder,
		name:     *name,
		width:    *width,
		height:   *height,
		filter:   *filter,
		rotation: *rotation,
		timeout:  *timeout,
	}); err != nil {
		log.Fatal(err)
	}
}

type options struct {
	input         string
	folder, name  string
	width, height int
	filter        string
	rotation      int
	timeout       time.Duration
}

func run(cfg *ggview.Config, o options) error {
	img, err := loadImage(o.input)
	if err != nil {
		return err
	}
	f, ok := render.FilterByName(o.filter)
	if !ok {
		return fmt.Errorf("unknown filter %q", o.filter)
	}
	rot := render.RotationFromDegrees(o.rotation)
	if o.name == "" {
		o.name = "capture-" + time.Now().Format("20060102-150405")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	v, err := ggview.New(cfg)
	if err != nil {
		return err
	}
	defer v.Close()

	if err := v.SetImage(img); err != nil {
		return err
	}
	if err := v.SetRotation(rot); err != nil {
		return err
	}
	if err := v.SetFilter(f); err != nil {
		return err
	}

	done := make(chan snapshot.Result, 1)
	if err := v.SaveToPicturesSize(ctx, o.folder, o.name, o.width, o.height,
		func(r snapshot.Result) { done <- r }); err != nil {
		return err
	}

	select {
	case r := <-done:
		if r.Err != nil {
			return r.Err
		}
		log.Printf("saved %s (%dx%d, %s) id=%s", r.Path, r.Width, r.Height,
			humanize.Bytes(uint64(r.Bytes)), r.ID)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	log.Printf("loaded %s (%s, %dx%d)", path, format, img.Bounds().Dx(), img.Bounds().Dy())
	return img, nil
}
