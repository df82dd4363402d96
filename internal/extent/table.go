package extent

import "github.com/jacobsa/syncutil"

// Table is a contiguous array of Slots, indexed by power-of-two size
// class: 0, MinSize, 2*MinSize, 4*MinSize, ... up to the smallest
// power-of-two >= MaxSize (MaxSize = trunk file size / 2); the top slot's
// ClassSize is clamped to MaxSize. Slot 0 holds anything smaller than
// MinSize.
type Table struct {
	MinSize uint32
	MaxSize uint32

	slots []*Slot
}

// NewTable builds the slot table for the given minimum tracked extent
// size and maximum single-allocation size (trunk file size / 2).
func NewTable(minSize, maxSize uint32) *Table {
	t := &Table{MinSize: minSize, MaxSize: maxSize}
	t.slots = append(t.slots, newSlot(0))
	class := minSize
	for class < maxSize {
		t.slots = append(t.slots, newSlot(class))
		class *= 2
	}
	t.slots = append(t.slots, newSlot(maxSize))
	return t
}

// Slots returns the underlying slot list, ordered by ascending ClassSize.
// Callers must not mutate the returned slice.
func (t *Table) Slots() []*Slot {
	return t.slots
}

// SetCheckInvariants enables or disables the per-unlock sorted-list check
// across every slot in the table. It is process-global, matching the
// teacher's own InvariantMutex usage (checked only when a debug build or
// flag asks for it), and is intended to be set once at startup from
// trunkcfg's Debug.CheckInvariants.
func SetCheckInvariants(enabled bool) {
	if enabled {
		// InvariantMutex only calls its check function once syncutil's own
		// process-wide switch is on.
		syncutil.EnableInvariantChecking()
	}
	checkInvariantsEnabled = enabled
}

// SlotForInsertion returns the slot an extent of size s should live in:
// the slot with the greatest ClassSize <= s. This is used whenever an
// extent is being linked into the table (trunk creation, split
// remainders, confirm-cancel, free).
func (t *Table) SlotForInsertion(size uint32) *Slot {
	for i := len(t.slots) - 1; i >= 0; i-- {
		if t.slots[i].ClassSize <= size {
			return t.slots[i]
		}
	}
	// Slot 0 has ClassSize 0, so the loop above always terminates there.
	return t.slots[0]
}

// SlotForAllocation returns the slot a request of size r should start
// searching from: the slot with the smallest ClassSize >= r, or nil if r
// exceeds every slot's class (the request is larger than MaxSize).
//
// This is deliberately asymmetric with SlotForInsertion: an extent is
// filed under the largest class it can satisfy, but a request starts its
// search at the smallest class guaranteed to satisfy it, so every extent
// found from that point on (within the slot, and in slots above it) is
// usable without a per-node size check.
func (t *Table) SlotForAllocation(size uint32) *Slot {
	for _, s := range t.slots {
		if s.ClassSize >= size {
			return s
		}
	}
	return nil
}

// IndexOf returns the position of slot s within the table's ordered slot
// list. Used by the allocator to walk "upward" from a starting slot.
func (t *Table) IndexOf(s *Slot) int {
	for i, c := range t.slots {
		if c == s {
			return i
		}
	}
	return -1
}
