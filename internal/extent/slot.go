package extent

import (
	"github.com/jacobsa/syncutil"
)

// Slot is a free-list bucket for one size class. Its list is singly
// linked and kept sorted by Extent.File.Size ascending; ties are broken
// by insertion order (new equal-size entries go after existing ones).
type Slot struct {
	ClassSize uint32

	// Mu guards head. Re-checks the sorted-ascending invariant on every
	// lock and unlock when enabled (see SetCheckInvariants).
	Mu syncutil.InvariantMutex

	head *Extent // GUARDED_BY(Mu)
	len  int     // GUARDED_BY(Mu)
}

func newSlot(classSize uint32) *Slot {
	s := &Slot{ClassSize: classSize}
	s.Mu = syncutil.NewInvariantMutex(s.checkInvariants)
	return s
}

// checkInvariants panics if the slot's list is not sorted ascending by
// size or its length counter disagrees with the list. It is wired into Mu
// so every Lock and Unlock call re-verifies it when enabled; see
// SetCheckInvariants.
func (s *Slot) checkInvariants() {
	if !checkInvariantsEnabled {
		return
	}
	n := 0
	var prevSize uint32
	for e := s.head; e != nil; e = e.next {
		if n > 0 && e.File.Size < prevSize {
			panic("extent: slot list is not sorted ascending by size")
		}
		prevSize = e.File.Size
		n++
	}
	if n != s.len {
		panic("extent: slot length counter out of sync with list")
	}
}

// checkInvariantsEnabled gates the (otherwise O(n)-per-unlock) invariant
// walk; SetCheckInvariants flips it for debug runs per
// trunkcfg's Debug.CheckInvariants knob.
var checkInvariantsEnabled = false

// insertLocked splices e into the list so it stays sorted ascending by
// size, after any existing equal-size entries. Caller must hold s.Mu.
func (s *Slot) insertLocked(e *Extent) {
	if s.head == nil || e.File.Size < s.head.File.Size {
		e.next = s.head
		s.head = e
		s.len++
		return
	}
	prev := s.head
	for prev.next != nil && prev.next.File.Size <= e.File.Size {
		prev = prev.next
	}
	e.next = prev.next
	prev.next = e
	s.len++
}

// popFreeLocked removes and returns the first FREE (non-HOLD) extent in
// the list, or nil if every entry is currently HOLD. Caller must hold s.Mu.
func (s *Slot) popFreeLocked() *Extent {
	var prev *Extent
	for e := s.head; e != nil; e = e.next {
		if e.Status == Free {
			if prev == nil {
				s.head = e.next
			} else {
				prev.next = e.next
			}
			e.next = nil
			s.len--
			return e
		}
		prev = e
	}
	return nil
}

// removeMatchLocked removes and returns the single extent whose Path/File
// match target (Status ignored), or nil if none is found. Caller must
// hold s.Mu.
func (s *Slot) removeMatchLocked(target *Extent) *Extent {
	var prev *Extent
	for e := s.head; e != nil; e = e.next {
		if e.Equal(target) {
			if prev == nil {
				s.head = e.next
			} else {
				prev.next = e.next
			}
			e.next = nil
			s.len--
			return e
		}
		prev = e
	}
	return nil
}

// InsertLocked is the exported form of insertLocked, for callers outside
// this package (allocator, binlog) that already hold s.Mu.
func (s *Slot) InsertLocked(e *Extent) { s.insertLocked(e) }

// PopFreeLocked is the exported form of popFreeLocked.
func (s *Slot) PopFreeLocked() *Extent { return s.popFreeLocked() }

// RemoveMatchLocked is the exported form of removeMatchLocked.
func (s *Slot) RemoveMatchLocked(target *Extent) *Extent { return s.removeMatchLocked(target) }

// Len returns the number of extents currently linked in the slot.
func (s *Slot) Len() int {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.len
}

// Snapshot returns a copy of every extent currently linked in the slot, in
// list order. Intended for tests and for SlotOccupancy metrics sampling.
func (s *Slot) Snapshot() []Extent {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	out := make([]Extent, 0, s.len)
	for e := s.head; e != nil; e = e.next {
		cp := *e
		cp.next = nil
		out = append(out, cp)
	}
	return out
}
