// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package binlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/trunkstore/trunkstore/internal/extent"
)

// Writer appends binlog records. Implementations are assumed durable per
// the allocator's external contract: LogOp either lands the record on
// stable storage or returns an error, with no partial-write state visible
// to the caller.
type Writer interface {
	LogOp(op Op, path extent.Path, file extent.Ref, now int64) error
	Close() error
}

// FileWriter is the concrete Writer backing production deployments: an
// append-only, size-rotated file, fsync'd after every record.
//
// Unlike the general-purpose logger package (which rotates through
// gopkg.in/natefinch/lumberjack.v2), FileWriter does not use lumberjack:
// lumberjack never exposes the underlying *os.File and never calls
// File.Sync, so a process crash right after a successful Write can still
// lose the tail of the file to the page cache. spec.md §1 and SPEC_FULL.md
// both assume LogOp is durable — the allocator tells its caller a
// reservation is safe the moment LogOp returns — so this writer owns its
// *os.File directly and calls Sync after each append, rotating by hand
// when a segment exceeds maxSize.
type FileWriter struct {
	mu      sync.Mutex
	path    string
	maxSize int64
	backups int
	file    *os.File
	size    int64
}

// NewFileWriter opens (or creates) a rotated binlog file at path, capped at
// maxSizeMB per segment with the given number of retained backups. The
// file itself is opened lazily, on the first LogOp, matching lumberjack's
// own lazy-open behavior.
func NewFileWriter(path string, maxSizeMB, backups int) *FileWriter {
	return &FileWriter{
		path:    path,
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		backups: backups,
	}
}

// LogOp appends one fixed-width record and fsyncs it before returning.
// Held under mu only to serialize concurrent appends from allocator
// goroutines holding different slot locks; it is not itself the ordering
// authority (the slot lock is, per spec §5).
func (w *FileWriter) LogOp(op Op, path extent.Path, file extent.Ref, now int64) error {
	rec := Record{Timestamp: now, Op: op, Path: path, File: file}
	buf := rec.Marshal()

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ensureOpenLocked(); err != nil {
		return err
	}
	if w.size > 0 && w.size+int64(len(buf)) > w.maxSize {
		if err := w.rotateLocked(); err != nil {
			return err
		}
	}

	n, err := w.file.Write(buf)
	if err != nil {
		return err
	}
	if err := w.file.Sync(); err != nil {
		return err
	}
	w.size += int64(n)
	return nil
}

// ensureOpenLocked opens the segment file if it isn't already open,
// picking up its current size so rotation decisions survive a restart.
func (w *FileWriter) ensureOpenLocked() error {
	if w.file != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("binlog: mkdir: %w", err)
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("binlog: open %s: %w", w.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("binlog: stat %s: %w", w.path, err)
	}
	w.file = f
	w.size = info.Size()
	return nil
}

// rotateLocked closes the current segment, renames it aside with a
// timestamp suffix (the same naming convention lumberjack uses for its own
// backups), prunes old backups beyond w.backups, and opens a fresh
// zero-length segment at w.path.
func (w *FileWriter) rotateLocked() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("binlog: close for rotation: %w", err)
	}
	w.file = nil

	ext := filepath.Ext(w.path)
	base := w.path[:len(w.path)-len(ext)]
	backup := fmt.Sprintf("%s-%s%s", base, time.Now().UTC().Format("2006-01-02T15-04-05.000"), ext)
	if err := os.Rename(w.path, backup); err != nil {
		return fmt.Errorf("binlog: rotate: %w", err)
	}

	if err := w.pruneBackups(base, ext); err != nil {
		return err
	}

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("binlog: open %s after rotation: %w", w.path, err)
	}
	w.file = f
	w.size = 0
	return nil
}

// pruneBackups deletes the oldest rotated segments beyond w.backups.
func (w *FileWriter) pruneBackups(base, ext string) error {
	if w.backups <= 0 {
		return nil
	}
	matches, err := filepath.Glob(base + "-*" + ext)
	if err != nil {
		return fmt.Errorf("binlog: glob backups: %w", err)
	}
	if len(matches) <= w.backups {
		return nil
	}
	sort.Strings(matches)
	for _, old := range matches[:len(matches)-w.backups] {
		if err := os.Remove(old); err != nil {
			return fmt.Errorf("binlog: prune backup %s: %w", old, err)
		}
	}
	return nil
}

// Close flushes and closes the underlying segment file, if one was ever
// opened.
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
