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

// Package allocator implements spec §4.4: the segregated free-list
// allocator that turns trunk files into a pool of reservable byte ranges,
// with two-phase (HOLD then confirm/cancel) reservation.
package allocator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/trunkstore/trunkstore/internal/binlog"
	"github.com/trunkstore/trunkstore/internal/clock"
	"github.com/trunkstore/trunkstore/internal/extent"
	"github.com/trunkstore/trunkstore/internal/metrics"
	"github.com/trunkstore/trunkstore/internal/storagepath"
	"github.com/trunkstore/trunkstore/internal/trunkmgr"
)

// Clock is the minimal time source the allocator needs: a Unix timestamp
// to stamp binlog records with. A clock.Clock satisfies this through
// clockAdapter below, so tests can drive the allocator's timestamps with
// clock.FakeClock or clock.SimulatedClock.
type Clock interface {
	UnixNow() int64
}

// clockAdapter turns a clock.Clock (the module's time abstraction, with
// real, fake and simulated implementations) into the narrower Clock this
// package actually needs.
type clockAdapter struct{ c clock.Clock }

func (a clockAdapter) UnixNow() int64 { return a.c.Now().Unix() }

// Allocator is the segregated free-list allocator (C4). It owns no trunk
// files directly; it delegates their creation to a trunkmgr.Manager and
// durably records every mutation through a binlog.Writer.
type Allocator struct {
	table   *extent.Table
	pool    *extent.NodePool
	mgr     *trunkmgr.Manager
	log     binlog.Writer
	clock   Clock
	minSize uint32
	metrics metrics.Handle
}

// New builds an Allocator. minSize is the slot table's MinSize (spec's
// MIN, the split and free threshold); table and pool are normally shared
// with a binlog.Replayer's reconstructed state on startup. Metrics default
// to a no-op handle; wire a real one with SetMetrics.
func New(table *extent.Table, pool *extent.NodePool, mgr *trunkmgr.Manager, log binlog.Writer) *Allocator {
	return &Allocator{
		table:   table,
		pool:    pool,
		mgr:     mgr,
		log:     log,
		clock:   clockAdapter{clock.RealClock{}},
		minSize: table.MinSize,
		metrics: metrics.NewNoopMetrics(),
	}
}

// SetClock overrides the allocator's time source; tests use this to get
// deterministic binlog timestamps.
func (a *Allocator) SetClock(c Clock) { a.clock = c }

// SetMetrics wires a metrics.Handle into the allocator's Alloc/Confirm/Free
// calls.
func (a *Allocator) SetMetrics(m metrics.Handle) { a.metrics = m }

// Alloc implements spec §4.4's alloc algorithm. size must be > 0. On
// success the returned extent has Status == extent.Hold and is linked in
// the slot table; the caller must eventually call Confirm.
func (a *Allocator) Alloc(size uint32) (extent.Extent, error) {
	ctx := context.Background()
	start := time.Now()
	opAttr := []metrics.Attr{{Key: metrics.OpKey, Value: "alloc"}}

	result, err := a.alloc(size)

	a.metrics.AllocCount(ctx, 1, opAttr)
	a.metrics.AllocLatency(ctx, time.Since(start), opAttr)
	if err != nil {
		a.metrics.AllocErrorCount(ctx, 1, []metrics.Attr{{Key: metrics.ErrorKindKey, Value: errKindName(err)}})
	}
	return result, err
}

func (a *Allocator) alloc(size uint32) (extent.Extent, error) {
	if size == 0 {
		return extent.Extent{}, newErr("alloc", ErrInvalid, fmt.Errorf("size must be > 0"))
	}
	// Nothing below minSize is separately trackable (see Free's symmetric
	// threshold), so every grant is rounded up to at least minSize.
	allocSize := size
	if allocSize < a.minSize {
		allocSize = a.minSize
	}

	slot := a.table.SlotForAllocation(allocSize)
	if slot == nil {
		return extent.Extent{}, newErr("alloc", ErrNoSlot, fmt.Errorf("size %d exceeds max slot class %d", size, a.table.MaxSize))
	}

	node := a.scanForFree(slot)
	if node == nil {
		var err error
		node, err = a.createTrunkNode()
		if err != nil {
			kind := ErrIO
			if errors.Is(err, storagepath.ErrNoSpace) {
				kind = ErrNoSpace
			}
			return extent.Extent{}, newErr("alloc", kind, err)
		}
	}

	splitErr := a.split(node, allocSize)
	node.Status = extent.Hold

	result := *node

	insertSlot := a.table.SlotForInsertion(node.File.Size)
	insertSlot.Mu.Lock()
	insertSlot.InsertLocked(node)
	logErr := a.logOp(binlog.AddSpace, node.Path, node.File)
	insertSlot.Mu.Unlock()

	if logErr == nil {
		logErr = splitErr
	}
	if logErr != nil {
		// Per spec §4.4 Failure semantics and design note: the in-memory
		// reservation is already live; a binlog failure is surfaced but
		// does not unwind it.
		return result, newErr("alloc", ErrIO, logErr)
	}
	return result, nil
}

// logOp appends a binlog record and times the write, under the caller's
// held slot lock.
func (a *Allocator) logOp(op binlog.Op, path extent.Path, ref extent.Ref) error {
	start := time.Now()
	err := a.log.LogOp(op, path, ref, a.clock.UnixNow())
	a.metrics.BinlogWriteLatency(context.Background(), time.Since(start))
	return err
}

// errKindName extracts the sentinel kind name from an *Error for the
// error_kind metric attribute, falling back to "UNKNOWN" for anything else.
func errKindName(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != nil {
		return e.Kind.name
	}
	return "UNKNOWN"
}

// scanForFree walks the table from start upward, skipping HOLD extents,
// and returns the first FREE node found unlinked from its slot, or nil if
// every slot from start onward is exhausted.
func (a *Allocator) scanForFree(start *extent.Slot) *extent.Extent {
	slots := a.table.Slots()
	startIdx := a.table.IndexOf(start)
	for i := startIdx; i < len(slots); i++ {
		s := slots[i]
		s.Mu.Lock()
		node := s.PopFreeLocked()
		s.Mu.Unlock()
		if node != nil {
			return node
		}
	}
	return nil
}

// createTrunkNode asks the trunk manager for a fresh trunk file and
// returns a single FREE descriptor covering it in full.
func (a *Allocator) createTrunkNode() (*extent.Extent, error) {
	start := time.Now()
	path, id, err := a.mgr.CreateNextFile()
	if err != nil {
		return nil, err
	}
	a.metrics.TrunkCreateCount(context.Background(), 1)
	a.metrics.TrunkCreateLatency(context.Background(), time.Since(start))

	node, err := a.pool.Get()
	if err != nil {
		return nil, err
	}
	node.Path = path
	node.File = extent.Ref{ID: id, Offset: 0, Size: a.mgr.TrunkFileSize()}
	node.Status = extent.Free
	return node, nil
}

// split implements spec §4.4a: if the remainder after carving out
// keepSize would fall below minSize, the whole extent is handed out as-is
// (internal fragmentation accepted). Otherwise a FREE remainder
// descriptor is linked via addNode and node.File.Size is trimmed to
// keepSize. The returned error is addNode's binlog error for the
// remainder; the split itself stands either way.
func (a *Allocator) split(node *extent.Extent, keepSize uint32) error {
	if node.File.Size-keepSize < a.minSize {
		return nil
	}

	remainder, err := a.pool.Get()
	if err != nil {
		// A pool exhaustion here only costs fragmentation, not
		// correctness: the caller still gets its full, unsplit extent.
		return nil
	}
	remainder.Path = node.Path
	remainder.File = extent.Ref{
		ID:     node.File.ID,
		Offset: node.File.Offset + keepSize,
		Size:   node.File.Size - keepSize,
	}
	remainder.Status = extent.Free
	err = a.addNode(remainder)

	node.File.Size = keepSize
	return err
}

// addNode implements spec §4.4's internal add_node: locate the insertion
// slot, splice in sorted-ascending order, and emit ADD_SPACE under the
// slot lock so replay order matches insertion order within a slot.
func (a *Allocator) addNode(node *extent.Extent) error {
	slot := a.table.SlotForInsertion(node.File.Size)
	slot.Mu.Lock()
	slot.InsertLocked(node)
	err := a.logOp(binlog.AddSpace, node.Path, node.File)
	slot.Mu.Unlock()
	return err
}

// Confirm implements spec §4.4's confirm: success removes the extent and
// emits DEL_SPACE; cancellation flips it back to FREE in place and emits
// SET_SPACE_FREE. Both paths locate the extent by the insertion rule for
// its recorded size and match every field except Status; a miss is
// NOT_FOUND.
func (a *Allocator) Confirm(e extent.Extent, success bool) error {
	ctx := context.Background()
	outcome := "cancel"
	if success {
		outcome = "success"
	}
	err := a.confirm(e, success)
	a.metrics.ConfirmCount(ctx, 1, []metrics.Attr{{Key: metrics.OpKey, Value: outcome}})
	return err
}

func (a *Allocator) confirm(e extent.Extent, success bool) error {
	slot := a.table.SlotForInsertion(e.File.Size)
	target := &extent.Extent{Path: e.Path, File: e.File}

	slot.Mu.Lock()
	found := slot.RemoveMatchLocked(target)
	if found == nil {
		slot.Mu.Unlock()
		return newErr("confirm", ErrNotFound, fmt.Errorf("no extent at %s", target))
	}

	if success {
		err := a.logOp(binlog.DelSpace, e.Path, e.File)
		slot.Mu.Unlock()
		a.pool.Put(found)
		if err != nil {
			return newErr("confirm", ErrIO, err)
		}
		return nil
	}

	found.Status = extent.Free
	slot.InsertLocked(found)
	err := a.logOp(binlog.SetSpaceFree, e.Path, e.File)
	slot.Mu.Unlock()
	if err != nil {
		return newErr("confirm", ErrIO, err)
	}
	return nil
}

// Free implements spec §4.4's free: extents smaller than minSize are too
// small to track and are silently accepted; otherwise a fresh FREE
// descriptor is linked via addNode.
func (a *Allocator) Free(e extent.Extent) error {
	err := a.free(e)
	a.metrics.FreeCount(context.Background(), 1, []metrics.Attr{{Key: metrics.OpKey, Value: "free"}})
	return err
}

func (a *Allocator) free(e extent.Extent) error {
	if e.File.Size < a.minSize {
		return nil
	}

	node, err := a.pool.Get()
	if err != nil {
		return newErr("free", ErrIO, err)
	}
	node.Path = e.Path
	node.File = e.File
	node.Status = extent.Free

	if err := a.addNode(node); err != nil {
		return newErr("free", ErrIO, err)
	}
	return nil
}
