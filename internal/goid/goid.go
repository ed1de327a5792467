// Package goid reports the identity of the calling goroutine.
//
// It is used only to detect re-entrant calls from a worker goroutine into an
// API that would block waiting for that same worker.
package goid

import (
	"bytes"
	"runtime"
	"strconv"
)

var prefix = []byte("goroutine ")

// Current returns the runtime ID of the calling goroutine, or 0 if the
// stack header cannot be parsed.
func Current() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], prefix)
	i := bytes.IndexByte(b, ' ')
	if i <= 0 {
		return 0
	}
	id, err := strconv.ParseUint(string(b[:i]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
