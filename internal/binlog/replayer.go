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
	"io"

	"github.com/trunkstore/trunkstore/internal/extent"
)

// Replayer reconstructs an extent.Table by replaying every record in a
// binlog, in order. This stands in for the "surrounding subsystem" spec.md
// §7 names as owning recovery; it is included here because a complete
// repository needs a caller for the binlog it writes.
//
// Replayer only replays the current (non-rotated) binlog segment: the
// rotated backups FileWriter retains are for audit/debugging, not
// recovery, matching that the allocator never needs history older than its
// own restart.
type Replayer struct {
	Table *extent.Table
	Pool  *extent.NodePool
}

// Replay consumes every RecordSize chunk from r and applies it to the
// replayer's table. It returns the highest trunk id observed across all
// records, which the caller should use to reseed the trunk manager's id
// counter so newly created trunks never reuse an id.
func (p *Replayer) Replay(r io.Reader) (maxID uint32, err error) {
	buf := make([]byte, RecordSize)
	for {
		_, err := io.ReadFull(r, buf)
		if err == io.EOF {
			return maxID, nil
		}
		if err != nil {
			return maxID, fmt.Errorf("binlog: replay read: %w", err)
		}

		rec, err := Unmarshal(buf)
		if err != nil {
			return maxID, err
		}
		if rec.File.ID > maxID {
			maxID = rec.File.ID
		}
		if err := p.apply(rec); err != nil {
			return maxID, err
		}
	}
}

func (p *Replayer) apply(rec Record) error {
	switch rec.Op {
	case AddSpace:
		return p.addSpace(rec)
	case DelSpace:
		return p.delSpace(rec)
	case SetSpaceFree:
		return p.setSpaceFree(rec)
	default:
		return fmt.Errorf("binlog: unknown op %d during replay", uint8(rec.Op))
	}
}

func (p *Replayer) addSpace(rec Record) error {
	node, err := p.Pool.Get()
	if err != nil {
		return fmt.Errorf("binlog: replay add_space: %w", err)
	}
	node.Path = rec.Path
	node.File = rec.File
	node.Status = extent.Free

	slot := p.Table.SlotForInsertion(rec.File.Size)
	slot.Mu.Lock()
	slot.InsertLocked(node)
	slot.Mu.Unlock()
	return nil
}

func (p *Replayer) delSpace(rec Record) error {
	slot := p.Table.SlotForInsertion(rec.File.Size)
	target := &extent.Extent{Path: rec.Path, File: rec.File}

	slot.Mu.Lock()
	removed := slot.RemoveMatchLocked(target)
	slot.Mu.Unlock()

	if removed != nil {
		p.Pool.Put(removed)
	}
	// A DEL_SPACE with no matching entry means the extent was already
	// removed by a later-superseding record; replay is idempotent here.
	return nil
}

func (p *Replayer) setSpaceFree(rec Record) error {
	slot := p.Table.SlotForInsertion(rec.File.Size)
	target := &extent.Extent{Path: rec.Path, File: rec.File}

	slot.Mu.Lock()
	existing := slot.RemoveMatchLocked(target)
	if existing != nil {
		existing.Status = extent.Free
		slot.InsertLocked(existing)
		slot.Mu.Unlock()
		return nil
	}
	slot.Mu.Unlock()

	// No HOLD entry to flip: the crash happened before the matching
	// ADD_SPACE was replayed, or it lives in a different slot than expected.
	// Insert fresh rather than lose the space.
	node, err := p.Pool.Get()
	if err != nil {
		return fmt.Errorf("binlog: replay set_space_free: %w", err)
	}
	node.Path = rec.Path
	node.File = rec.File
	node.Status = extent.Free
	slot.Mu.Lock()
	slot.InsertLocked(node)
	slot.Mu.Unlock()
	return nil
}
