// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package snapshot

import (
	"context"
	"errors"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/zeebo/xxh3"

	"github.com/gogpu/ggview/surface"
)

func testImage(w, h int) *surface.Image {
	img := surface.NewImage(surface.Size{Width: w, Height: h})
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+3] = 200, 255
	}
	return img
}

func TestStoreSaveJPEGDefault(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	rec, err := s.Save(context.Background(), Name{Folder: "ggview", File: "shot"}, testImage(8, 6), SaveOptions{})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	want := filepath.Join(root, "ggview", "shot.jpg")
	if rec.Path != want {
		t.Errorf("Path = %q, want %q", rec.Path, want)
	}
	if rec.ID == "" || rec.Width != 8 || rec.Height != 6 || rec.Format != FormatJPEG {
		t.Errorf("record = %+v", rec)
	}

	data, err := os.ReadFile(rec.Path)
	if err != nil {
		t.Fatal(err)
	}
	if int64(len(data)) != rec.Bytes || xxh3.Hash(data) != rec.Checksum {
		t.Error("record size or checksum does not match file")
	}
	f, _ := os.Open(rec.Path)
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	if err != nil || cfg.Width != 8 || cfg.Height != 6 {
		t.Errorf("decoded config = %+v, %v", cfg, err)
	}
}

func TestStoreSavePNGKeepsExtension(t *testing.T) {
	s := NewStore(t.TempDir())
	rec, err := s.Save(context.Background(), Name{File: "frame.png"}, testImage(2, 2), SaveOptions{Format: FormatPNG})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if filepath.Base(rec.Path) != "frame.png" {
		t.Errorf("file = %q", filepath.Base(rec.Path))
	}
	f, _ := os.Open(rec.Path)
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if r, _, _, a := img.At(1, 1).RGBA(); r>>8 != 200 || a>>8 != 255 {
		t.Errorf("pixel r=%d a=%d", r>>8, a>>8)
	}
}

func TestStoreLeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)
	if _, err := s.Save(context.Background(), Name{File: "a"}, testImage(2, 2), SaveOptions{Format: FormatBMP}); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(root)
	if len(entries) != 1 || entries[0].Name() != "a.bmp" {
		t.Errorf("entries = %v, want only a.bmp", entries)
	}
}

func TestStoreSaveErrors(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		store  *Store
		n      Name
		img    *surface.Image
		wantOp string
	}{
		{"empty file", NewStore(root), Name{}, testImage(1, 1), "validate"},
		{"path in file", NewStore(root), Name{File: "../x"}, testImage(1, 1), "validate"},
		{"escaping folder", NewStore(root), Name{Folder: "..", File: "x"}, testImage(1, 1), "validate"},
		{"nil image", NewStore(root), Name{File: "x"}, nil, "validate"},
		{"root is a file", NewStore(blocker), Name{File: "x"}, testImage(1, 1), "mkdir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.store.Save(context.Background(), tt.n, tt.img, SaveOptions{})
			if !errors.Is(err, ErrPersistenceFailed) {
				t.Fatalf("Save() error = %v, want ErrPersistenceFailed", err)
			}
			var pe *PersistenceError
			if !errors.As(err, &pe) || pe.Op != tt.wantOp {
				t.Errorf("error = %v, want op %q", err, tt.wantOp)
			}
		})
	}
}

func TestStoreIndexes(t *testing.T) {
	idx, err := OpenIndex(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	ids := []string{"id-1", "id-2"}
	next := 0
	s := NewStore(t.TempDir(), WithIndex(idx), WithIDGenerator(func() string {
		id := ids[next]
		next++
		return id
	}))
	for _, file := range []string{"a", "b"} {
		if _, err := s.Save(context.Background(), Name{Folder: "f", File: file}, testImage(2, 2), SaveOptions{}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := idx.Get(context.Background(), "id-2")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.File != "b.jpg" || got.Folder != "f" {
		t.Errorf("Get() = %+v", got)
	}
	if n, _ := idx.Count(context.Background()); n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}

func TestStoreIndexFailureRemovesFile(t *testing.T) {
	idx, err := OpenIndex(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	root := t.TempDir()
	s := NewStore(root, WithIndex(idx), WithIDGenerator(func() string { return "dup" }))
	if _, err := s.Save(context.Background(), Name{File: "a"}, testImage(1, 1), SaveOptions{}); err != nil {
		t.Fatal(err)
	}
	_, err = s.Save(context.Background(), Name{File: "b"}, testImage(1, 1), SaveOptions{})
	var pe *PersistenceError
	if !errors.As(err, &pe) || pe.Op != "index" {
		t.Fatalf("Save() duplicate ID error = %v, want index failure", err)
	}
	if _, err := os.Stat(filepath.Join(root, "b.jpg")); !os.IsNotExist(err) {
		t.Error("file kept after index failure")
	}
}
