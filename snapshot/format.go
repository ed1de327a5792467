// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package snapshot

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Format is an image encoding.
type Format uint8

// Supported formats. FormatJPEG is the default.
const (
	FormatJPEG Format = iota
	FormatPNG
	FormatTIFF
	FormatBMP
)

// DefaultQuality is the JPEG quality used when none is given.
const DefaultQuality = 80

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatPNG:
		return "png"
	case FormatTIFF:
		return "tiff"
	case FormatBMP:
		return "bmp"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatTIFF:
		return ".tiff"
	default:
		return "." + f.String()
	}
}

// ParseFormat parses a format name or extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "", "jpeg", "jpg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	case "tiff", "tif":
		return FormatTIFF, nil
	case "bmp":
		return FormatBMP, nil
	default:
		return 0, fmt.Errorf("snapshot: unknown format %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(b []byte) error {
	v, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

func (f Format) encode(w io.Writer, img image.Image, quality int) error {
	switch f {
	case FormatJPEG:
		if quality <= 0 || quality > 100 {
			quality = DefaultQuality
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case FormatPNG:
		return png.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case FormatBMP:
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("unsupported format %v", f)
	}
}
