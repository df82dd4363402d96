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

// Package trunkmgr creates, sizes, and names trunk container files on
// disk: spec §4.3's "Trunk File Manager" (C3).
package trunkmgr

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/trunkstore/trunkstore/internal/extent"
	"github.com/trunkstore/trunkstore/internal/logger"
	"github.com/trunkstore/trunkstore/internal/storagepath"
	"github.com/trunkstore/trunkstore/internal/trunkcfg"
)

// Manager assigns trunk ids, picks store paths, and creates/grows the
// on-disk trunk files those ids name.
type Manager struct {
	cfg      *trunkcfg.StoreConfig
	registry *storagepath.Registry

	// idMu guards currentID; held only across the increment, per spec §5.
	idMu      sync.Mutex
	currentID uint32
}

// NewManager builds a trunk file manager. startID seeds
// g_current_trunk_file_id, normally 0 on a fresh store or the highest id
// binlog.Replayer observed during recovery.
func NewManager(cfg *trunkcfg.StoreConfig, registry *storagepath.Registry, startID uint32) *Manager {
	return &Manager{cfg: cfg, registry: registry, currentID: startID}
}

// nextID increments and returns g_current_trunk_file_id under its
// dedicated mutex, guaranteeing monotonically increasing ids (spec §3,
// testable property 4).
func (m *Manager) nextID() uint32 {
	m.idMu.Lock()
	defer m.idMu.Unlock()
	m.currentID++
	return m.currentID
}

// trunkFilename encodes a trunk id as base64(big_endian_u32(id)), per
// spec §4.3.
func trunkFilename(id uint32) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], id)
	return base64.URLEncoding.EncodeToString(b[:])
}

// subPath derives the two-level hex directory pair from a trunk id: 256
// buckets per level, matching the on-disk layout in spec §6
// (<store_path>/data/<HH>/<LL>/<base64-trunk-id>).
func subPath(id uint32) (high, low uint8) {
	return uint8((id / 256) % 256), uint8(id % 256)
}

// CreateNextFile selects a store path (per cfg.StorePathMode) and assigns
// the next trunk id, creating the backing file with O_CREAT|O_EXCL and
// truncating it to cfg.TrunkFileSize. If the computed filename already
// exists it retries with the next id, per spec §4.3.
func (m *Manager) CreateNextFile() (extent.Path, uint32, error) {
	for {
		pathIdx, err := m.registry.SelectPath(m.cfg.StorePathMode, m.cfg.AvgStorageReservedMb)
		if err != nil {
			return extent.Path{}, 0, err
		}

		id := m.nextID()
		high, low := subPath(id)
		root := m.registry.Paths()[pathIdx].Root
		dir := filepath.Join(root, "data", fmt.Sprintf("%02x", high), fmt.Sprintf("%02x", low))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return extent.Path{}, 0, fmt.Errorf("trunkmgr: mkdir %s: %w", dir, err)
		}

		fullPath := filepath.Join(dir, trunkFilename(id))
		f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
		if errors.Is(err, os.ErrExist) {
			// Collision: assign the next id and retry, per spec §4.3.
			continue
		}
		if err != nil {
			return extent.Path{}, 0, fmt.Errorf("trunkmgr: create %s: %w", fullPath, err)
		}

		err = f.Truncate(int64(m.cfg.TrunkFileSize))
		closeErr := f.Close()
		if err != nil {
			return extent.Path{}, 0, fmt.Errorf("trunkmgr: truncate %s: %w", fullPath, err)
		}
		if closeErr != nil {
			return extent.Path{}, 0, fmt.Errorf("trunkmgr: close %s: %w", fullPath, closeErr)
		}

		return extent.Path{StorePathIndex: uint16(pathIdx), SubPathHigh: high, SubPathLow: low}, id, nil
	}
}

// TrunkFileSize returns the fixed size every trunk file is created and
// truncated to, per cfg.TrunkFileSize.
func (m *Manager) TrunkFileSize() uint32 {
	return uint32(m.cfg.TrunkFileSize)
}

// TrunkFilePath returns the absolute path of the trunk file identified by
// path and id, rooted at one of the registry's configured storage paths.
func (m *Manager) TrunkFilePath(path extent.Path, id uint32) string {
	root := m.registry.Paths()[path.StorePathIndex].Root
	return filepath.Join(root, "data",
		fmt.Sprintf("%02x", path.SubPathHigh), fmt.Sprintf("%02x", path.SubPathLow),
		trunkFilename(id))
}

// EnsureSize is the reconstruction helper used when replaying the binlog:
// if the file exists and is at least size bytes, it's a no-op; if smaller,
// it's grown via truncate with a warning logged; if missing, it's created
// fresh at exactly size bytes.
func EnsureSize(path string, size int64) error {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return fmt.Errorf("trunkmgr: ensure_size mkdir: %w", mkErr)
		}
		f, createErr := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
		if createErr != nil {
			return fmt.Errorf("trunkmgr: ensure_size create %s: %w", path, createErr)
		}
		defer f.Close()
		if truncErr := f.Truncate(size); truncErr != nil {
			return fmt.Errorf("trunkmgr: ensure_size truncate %s: %w", path, truncErr)
		}
		return nil
	case err != nil:
		return fmt.Errorf("trunkmgr: ensure_size stat %s: %w", path, err)
	}

	if info.Size() >= size {
		return nil
	}

	logger.Warnf("trunkmgr: growing undersized trunk file %s from %d to %d bytes", path, info.Size(), size)
	return os.Truncate(path, size)
}
