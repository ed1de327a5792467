// Package ggview is an image view that renders a filtered, scaled image on a
// dedicated render thread and captures pixel-exact snapshots of it at any
// size.
//
// # Overview
//
// A View wires together:
//
//   - a layout host measuring the surface from the viewport and the image
//     aspect ratio (package layout)
//   - a render engine drawing through gg into a framebuffer (package render)
//   - a capture coordinator resizing, rendering and reading back one frame
//     (package capture)
//   - a snapshot service encoding and indexing captured frames in the
//     background (package snapshot)
//
// # Quick Start
//
//	v, err := ggview.New(ggview.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer v.Close()
//
//	v.SetImage(img)
//	v.SetFilter(render.Grayscale())
//
//	// Synchronous capture at 540x960; the view keeps its natural size.
//	frame, err := v.CaptureSize(ctx, 540, 960)
//
//	// Background save to ~/Pictures/ggview/frame.jpg.
//	v.SaveToPictures(ctx, "ggview", "frame", func(r snapshot.Result) {
//	    if r.Err != nil {
//	        log.Print(r.Err)
//	    }
//	})
//
// # Threads
//
// The view owns three goroutines: the layout thread, the render thread
// (locked to its OS thread) and a background thread for RunOnBackground.
// Captures block until their frame is read back, so they must not be called
// from the layout or render thread; doing so fails with ErrDeadlockGuard.
//
// # Logging
//
// ggview is silent by default. Call SetLogger to enable structured logging
// through log/slog.
package ggview
