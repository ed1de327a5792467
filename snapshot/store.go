// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package snapshot

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/zeebo/xxh3"

	"github.com/gogpu/ggview/internal/logging"
	"github.com/gogpu/ggview/surface"
)

// Name locates a snapshot below the store root.
type Name struct {
	Folder string
	File   string
}

// SaveOptions selects the encoding.
type SaveOptions struct {
	Format  Format
	Quality int // JPEG only; 0 means DefaultQuality
}

// Record describes a persisted snapshot.
type Record struct {
	ID        string
	Folder    string
	File      string
	Path      string
	Format    Format
	Width     int
	Height    int
	Bytes     int64
	Checksum  uint64 // xxh3 of the encoded file
	CreatedAt time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithIndex records every saved snapshot in idx.
func WithIndex(idx *Index) StoreOption {
	return func(s *Store) { s.index = idx }
}

// WithIDGenerator replaces the UUIDv7 ID generator.
func WithIDGenerator(gen func() string) StoreOption {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// Store writes snapshots below a root directory.
//
// Store is safe for concurrent use.
type Store struct {
	root  string
	index *Index
	newID func() string
	now   func() time.Time
}

// NewStore creates a store rooted at root. The directory is created on the
// first save.
func NewStore(root string, opts ...StoreOption) *Store {
	s := &Store{
		root:  root,
		newID: func() string { return uuid.Must(uuid.NewV7()).String() },
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the store root directory.
func (s *Store) Root() string {
	return s.root
}

// Index returns the index, or nil.
func (s *Store) Index() *Index {
	return s.index
}

// Save encodes img and writes it to Root/Folder/File. A File without an
// extension gets the format's extension. The write is atomic: readers see
// either no file or the complete one.
func (s *Store) Save(ctx context.Context, name Name, img *surface.Image, opts SaveOptions) (Record, error) {
	file, err := s.fileName(name, opts.Format)
	if err != nil {
		return Record{}, &PersistenceError{Op: "validate", Path: name.File, Err: err}
	}
	if img == nil || img.Width <= 0 || img.Height <= 0 {
		return Record{}, &PersistenceError{Op: "validate", Path: file, Err: errors.New("empty image")}
	}
	if err := ctx.Err(); err != nil {
		return Record{}, &PersistenceError{Op: "validate", Path: file, Err: err}
	}

	dir := filepath.Join(s.root, name.Folder)
	path := filepath.Join(dir, file)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Record{}, &PersistenceError{Op: "mkdir", Path: dir, Err: err}
	}

	var buf bytes.Buffer
	if err := opts.Format.encode(&buf, img.RGBA(), opts.Quality); err != nil {
		return Record{}, &PersistenceError{Op: "encode", Path: path, Err: err}
	}
	if err := writeAtomic(dir, path, buf.Bytes()); err != nil {
		return Record{}, err
	}

	rec := Record{
		ID:        s.newID(),
		Folder:    name.Folder,
		File:      file,
		Path:      path,
		Format:    opts.Format,
		Width:     img.Width,
		Height:    img.Height,
		Bytes:     int64(buf.Len()),
		Checksum:  xxh3.Hash(buf.Bytes()),
		CreatedAt: s.now(),
	}
	if s.index != nil {
		if err := s.index.Add(ctx, rec); err != nil {
			_ = os.Remove(path)
			return Record{}, &PersistenceError{Op: "index", Path: path, Err: err}
		}
	}

	logging.Logger().Info("snapshot saved", "id", rec.ID, "path", path,
		"size", img.Size().String(), "bytes", humanize.Bytes(uint64(rec.Bytes)))
	return rec, nil
}

func (s *Store) fileName(name Name, f Format) (string, error) {
	if name.File == "" {
		return "", errors.New("empty file name")
	}
	if strings.ContainsAny(name.File, `/\`) || name.File == "." || name.File == ".." {
		return "", errors.New("file name must not contain a path")
	}
	if !filepath.IsLocal(filepath.Join(name.Folder, name.File)) {
		return "", errors.New("folder escapes the pictures directory")
	}
	if filepath.Ext(name.File) == "" {
		return name.File + f.Ext(), nil
	}
	return name.File, nil
}

func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	fail := func(op string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return &PersistenceError{Op: op, Path: path, Err: err}
	}

	if _, err := tmp.Write(data); err != nil {
		return fail("write", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("write", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &PersistenceError{Op: "rename", Path: path, Err: err}
	}
	return nil
}
