// Package extent holds the core data model of the trunk allocator: the
// location of a free or reserved byte range within a trunk file, and the
// segregated free-list (the "slot table") that indexes those ranges by
// size class.
package extent

import "fmt"

// Status describes whether an Extent is available for allocation or has
// been reserved by a HOLD that has not yet been confirmed or cancelled.
type Status uint8

const (
	// Free extents are available to new allocations.
	Free Status = iota
	// Hold extents are reserved but not yet confirmed or cancelled; they
	// remain linked in their slot but are skipped by the allocation scan.
	Hold
)

func (s Status) String() string {
	if s == Hold {
		return "HOLD"
	}
	return "FREE"
}

// Path identifies a storage directory: a storage-path index plus the two
// hex sub-path bytes derived deterministically from the trunk id.
type Path struct {
	StorePathIndex uint16
	SubPathHigh    uint8
	SubPathLow     uint8
}

// Ref identifies a byte range within a trunk file. Id is the monotonically
// increasing trunk id assigned on trunk creation; Offset and Size describe
// the range, with Offset+Size never exceeding the trunk's file size.
type Ref struct {
	ID     uint32
	Offset uint32
	Size   uint32
}

// Extent is a region tracked by the allocator: either free and sitting in
// a Slot's list, or held by an in-flight, unconfirmed allocation.
//
// Two extents are considered the same location iff Path and File match
// field-by-field; Status is intentionally excluded from that comparison
// (see Equal), since confirm/free must find a HOLD extent by the location
// it reserved, not by the status it happens to carry.
type Extent struct {
	Path   Path
	File   Ref
	Status Status

	next *Extent // owned by the Slot list that currently holds this extent
}

// Equal reports whether e and o refer to the same (path, id, offset, size)
// location, ignoring Status.
func (e *Extent) Equal(o *Extent) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.Path == o.Path && e.File == o.File
}

func (e *Extent) String() string {
	return fmt.Sprintf("extent{path=%d/%02x/%02x id=%d off=%d size=%d %s}",
		e.Path.StorePathIndex, e.Path.SubPathHigh, e.Path.SubPathLow,
		e.File.ID, e.File.Offset, e.File.Size, e.Status)
}
