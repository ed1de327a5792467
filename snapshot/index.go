// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const memoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	folder     TEXT NOT NULL,
	file       TEXT NOT NULL,
	path       TEXT NOT NULL,
	format     TEXT NOT NULL,
	width      INTEGER NOT NULL,
	height     INTEGER NOT NULL,
	bytes      INTEGER NOT NULL,
	checksum   TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS snapshots_folder ON snapshots(folder, created_at);
`

// Index records persisted snapshots in SQLite.
//
// Index is safe for concurrent use.
type Index struct {
	db *sql.DB
}

// OpenIndex opens or creates the index database at path. Use ":memory:"
// for a private in-memory index.
func OpenIndex(path string) (*Index, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("snapshot: index mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: index open: %w", err)
	}
	if path == memoryPath {
		// Every connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("snapshot: index %s: %w", p, err)
		}
	}

	idx, err := NewIndex(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

// NewIndex uses an already open database, creating the schema if needed.
func NewIndex(db *sql.DB) (*Index, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("snapshot: index schema: %w", err)
	}
	return &Index{db: db}, nil
}

// Close closes the database.
func (x *Index) Close() error {
	return x.db.Close()
}

// Add stores rec.
func (x *Index) Add(ctx context.Context, rec Record) error {
	_, err := x.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, folder, file, path, format, width, height, bytes, checksum, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Folder, rec.File, rec.Path, rec.Format.String(),
		rec.Width, rec.Height, rec.Bytes, formatChecksum(rec.Checksum), rec.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("snapshot: index add %s: %w", rec.ID, err)
	}
	return nil
}

const selectColumns = `SELECT id, folder, file, path, format, width, height, bytes, checksum, created_at FROM snapshots`

// Get returns the record with the given ID or ErrNotFound.
func (x *Index) Get(ctx context.Context, id string) (Record, error) {
	row := x.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, err
}

// List returns the records of folder, oldest first. An empty folder lists
// everything.
func (x *Index) List(ctx context.Context, folder string) ([]Record, error) {
	query := selectColumns + ` ORDER BY created_at, id`
	args := []any{}
	if folder != "" {
		query = selectColumns + ` WHERE folder = ? ORDER BY created_at, id`
		args = append(args, folder)
	}
	rows, err := x.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("snapshot: index list: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count returns the number of indexed snapshots.
func (x *Index) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := x.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("snapshot: index count: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (Record, error) {
	var (
		rec      Record
		format   string
		checksum string
		created  int64
	)
	err := s.Scan(&rec.ID, &rec.Folder, &rec.File, &rec.Path, &format,
		&rec.Width, &rec.Height, &rec.Bytes, &checksum, &created)
	if err != nil {
		return Record{}, err
	}
	if rec.Format, err = ParseFormat(format); err != nil {
		return Record{}, err
	}
	if rec.Checksum, err = strconv.ParseUint(checksum, 16, 64); err != nil {
		return Record{}, fmt.Errorf("snapshot: index checksum %q: %w", checksum, err)
	}
	rec.CreatedAt = time.UnixMilli(created)
	return rec, nil
}

func formatChecksum(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}
