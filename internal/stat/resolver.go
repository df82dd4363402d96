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

// Package stat implements spec §4.6's Stat Resolver (C6): resolving a
// filename produced by internal/codec back into a synthesized stat
// result, either by reading a trunk's in-band header or by delegating to
// a caller-supplied standalone stat function.
package stat

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/trunkstore/trunkstore/internal/codec"
	"github.com/trunkstore/trunkstore/internal/trunkmgr"
)

// ErrNotFound is returned when the trunk header read back from disk does
// not match the metadata encoded in the filename (spec §4.6 step 5).
var ErrNotFound = errors.New("stat: trunk header does not match filename metadata")

// ErrIO wraps any filesystem failure encountered while resolving a
// trunked file's header.
var ErrIO = errors.New("stat: i/o failure resolving trunk file")

// Info is the synthesized stat result for a trunked file (spec §4.6 step
// 6): a regular file's size and modification time, nothing else.
type Info struct {
	Size  int64
	Mtime int64
}

// StandaloneFunc resolves the stat result for a filename DecodeFilename
// reported as Standalone (true_filename's flag bit was clear, or the name
// was too short to carry trunk metadata at all).
type StandaloneFunc func(trueFilename string) (Info, error)

// Resolver implements Stat by reading trunk files located through mgr.
type Resolver struct {
	Mgr *trunkmgr.Manager
}

// NewResolver builds a Resolver backed by mgr for trunk path resolution.
func NewResolver(mgr *trunkmgr.Manager) *Resolver {
	return &Resolver{Mgr: mgr}
}

// Stat implements spec §4.6. storePathIndex identifies which configured
// storage root trueFilename belongs to (the caller already knows this
// from request routing); standalone resolves the non-trunked case.
func (r *Resolver) Stat(storePathIndex uint16, trueFilename string, standalone StandaloneFunc) (Info, codec.Decoded, error) {
	decoded, err := codec.DecodeFilename(trueFilename)
	if err != nil {
		return Info{}, codec.Decoded{}, err
	}
	if decoded.Standalone {
		info, err := standalone(trueFilename)
		return info, decoded, err
	}
	decoded.Path.StorePathIndex = storePathIndex

	trunkPath := r.Mgr.TrunkFilePath(decoded.Path, decoded.Ref.ID)
	f, err := os.Open(trunkPath)
	if err != nil {
		return Info{}, decoded, fmt.Errorf("%w: open %s: %v", ErrIO, trunkPath, err)
	}
	defer f.Close()

	if _, err := f.Seek(int64(decoded.Ref.Offset), io.SeekStart); err != nil {
		return Info{}, decoded, fmt.Errorf("%w: seek %s: %v", ErrIO, trunkPath, err)
	}
	buf := make([]byte, codec.HeaderSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		return Info{}, decoded, fmt.Errorf("%w: read header %s: %v", ErrIO, trunkPath, err)
	}
	got, err := codec.UnpackHeader(buf)
	if err != nil {
		return Info{}, decoded, err
	}

	expect := codec.Header{
		AllocSize: decoded.Ref.Size,
		FileSize:  decoded.Meta.PackedSize,
		Crc32:     decoded.Meta.Crc32,
		Mtime:     decoded.Meta.Mtime,
		ExtName:   extNameFromSuffix(decoded.Ext),
	}
	if !codec.EqualIgnoringFileType(expect, got) {
		return Info{}, decoded, ErrNotFound
	}

	return Info{
		Size:  int64(got.FileSize &^ codec.TrunkFlag),
		Mtime: int64(got.Mtime),
	}, decoded, nil
}

// extNameFromSuffix truncates (or zero-pads) a filename's trailing
// extension text to the fixed width stored in the trunk header.
func extNameFromSuffix(ext string) [codec.ExtNameLen]byte {
	var out [codec.ExtNameLen]byte
	copy(out[:], ext)
	return out
}
