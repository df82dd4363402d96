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

// Package storagepath implements the trunk store's storage-path registry:
// the number of configured storage roots, and a periodically refreshed
// free-MB figure per root, consulted by the trunk manager when placing new
// trunk files.
package storagepath

import (
	"errors"
	"fmt"
	"sync"
	"syscall"

	"github.com/trunkstore/trunkstore/internal/trunkcfg"
	"github.com/trunkstore/trunkstore/roundrobinslice"
)

// ErrNoSpace is returned by SelectPath when no storage path has free space
// above the configured reservation threshold.
var ErrNoSpace = errors.New("storagepath: no path above reserved threshold")

// Path describes one configured storage root.
type Path struct {
	Root   string
	FreeMB int64
}

// StatfsFunc reports free megabytes for a directory. Overridable in tests;
// production callers get statfsFreeMB, a thin wrapper over syscall.Statfs.
type StatfsFunc func(root string) (freeMB int64, err error)

// Registry tracks the configured storage roots and their last-known free
// space, and implements the ROUND_ROBIN / LOAD_BALANCE placement cursor
// from spec §4.3.
type Registry struct {
	mu     sync.Mutex
	paths  []Path
	statfs StatfsFunc

	cursor         *roundrobinslice.RoundRobin[int]
	loadBalanceIdx int // GUARDED_BY(mu); -1 when no path qualifies
}

// NewRegistry builds a registry over roots, initially reporting zero free
// space for every path until the first Refresh.
func NewRegistry(roots []string, statfs StatfsFunc) (*Registry, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("storagepath: at least one store path is required")
	}
	if statfs == nil {
		statfs = statfsFreeMB
	}
	paths := make([]Path, len(roots))
	indices := make([]int, len(roots))
	for i, root := range roots {
		paths[i] = Path{Root: root}
		indices[i] = i
	}
	return &Registry{
		paths:          paths,
		statfs:         statfs,
		cursor:         roundrobinslice.New(indices),
		loadBalanceIdx: -1,
	}, nil
}

// Count returns the number of configured storage paths.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

// Paths returns a snapshot of the registry's current state.
func (r *Registry) Paths() []Path {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Path, len(r.paths))
	copy(out, r.paths)
	return out
}

// Refresh re-stats every configured root and recomputes the LOAD_BALANCE
// candidate (the path with the most free space, or -1 if none is above
// avgReservedMB).
func (r *Registry) Refresh(avgReservedMB int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	best, bestFree := -1, int64(-1)
	for i := range r.paths {
		freeMB, err := r.statfs(r.paths[i].Root)
		if err != nil {
			return fmt.Errorf("storagepath: statfs %s: %w", r.paths[i].Root, err)
		}
		r.paths[i].FreeMB = freeMB
		if freeMB > avgReservedMB && freeMB > bestFree {
			best, bestFree = i, freeMB
		}
	}
	r.loadBalanceIdx = best
	return nil
}

// SelectPath implements spec §4.3's store-path selection: ROUND_ROBIN scans
// from the current cursor position, falling back to a linear scan for a
// path above avgReservedMB if the current one has fallen below it;
// LOAD_BALANCE simply returns the externally (Refresh-)computed best path.
func (r *Registry) SelectPath(mode trunkcfg.PathMode, avgReservedMB int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if mode == trunkcfg.LoadBalance {
		if r.loadBalanceIdx < 0 {
			return -1, ErrNoSpace
		}
		return r.loadBalanceIdx, nil
	}

	idx := r.cursor.PeekIndex()
	if r.paths[idx].FreeMB <= avgReservedMB {
		found := -1
		for i := range r.paths {
			if r.paths[i].FreeMB > avgReservedMB {
				found = i
				break
			}
		}
		if found == -1 {
			return -1, ErrNoSpace
		}
		idx = found
		r.cursor.SeekIndex(found)
	}
	r.cursor.Get() // advance the cursor by one, wrapping
	return idx, nil
}

func statfsFreeMB(root string) (int64, error) {
	var st syscall.Statfs_t
	if err := syscall.Statfs(root, &st); err != nil {
		return 0, err
	}
	return int64(st.Bavail) * int64(st.Bsize) / (1024 * 1024), nil
}
