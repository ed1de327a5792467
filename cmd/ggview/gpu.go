//go:build !nogpu

package main

// GPU acceleration for the render pass. Build with -tags nogpu for a
// CPU-only binary.
import _ "github.com/gogpu/gg/gpu"
