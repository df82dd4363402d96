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

// Package binlog implements the trunk store's durable operation log: one
// fixed-width binary record per free-list mutation, replayable to
// reconstruct an extent.Table after a restart.
package binlog

import (
	"encoding/binary"
	"fmt"

	"github.com/trunkstore/trunkstore/internal/extent"
)

// Op identifies the kind of mutation a Record represents.
type Op uint8

const (
	// AddSpace records an extent becoming FREE and linked into the table.
	AddSpace Op = iota + 1
	// DelSpace records an extent being removed from the table entirely
	// (confirm success).
	DelSpace
	// SetSpaceFree records a HOLD extent flipping back to FREE in place
	// (confirm cancel).
	SetSpaceFree
)

func (o Op) String() string {
	switch o {
	case AddSpace:
		return "ADD_SPACE"
	case DelSpace:
		return "DEL_SPACE"
	case SetSpaceFree:
		return "SET_SPACE_FREE"
	default:
		return fmt.Sprintf("Op(%d)", uint8(o))
	}
}

// RecordSize is the fixed on-disk width of one binlog record:
// timestamp(8) + op(1) + store_path_index(2) + sub_path_high(1) +
// sub_path_low(1) + id(4) + offset(4) + size(4).
const RecordSize = 8 + 1 + 2 + 1 + 1 + 4 + 4 + 4

// Record is one append-only binlog entry.
type Record struct {
	Timestamp int64
	Op        Op
	Path      extent.Path
	File      extent.Ref
}

// Marshal encodes r into a fixed-width big-endian buffer.
func (r Record) Marshal() []byte {
	buf := make([]byte, RecordSize)
	binary.BigEndian.PutUint64(buf[0:8], uint64(r.Timestamp))
	buf[8] = byte(r.Op)
	binary.BigEndian.PutUint16(buf[9:11], r.Path.StorePathIndex)
	buf[11] = r.Path.SubPathHigh
	buf[12] = r.Path.SubPathLow
	binary.BigEndian.PutUint32(buf[13:17], r.File.ID)
	binary.BigEndian.PutUint32(buf[17:21], r.File.Offset)
	binary.BigEndian.PutUint32(buf[21:25], r.File.Size)
	return buf
}

// Unmarshal decodes a fixed-width record from buf, which must be exactly
// RecordSize bytes.
func Unmarshal(buf []byte) (Record, error) {
	if len(buf) != RecordSize {
		return Record{}, fmt.Errorf("binlog: record must be %d bytes, got %d", RecordSize, len(buf))
	}
	var r Record
	r.Timestamp = int64(binary.BigEndian.Uint64(buf[0:8]))
	r.Op = Op(buf[8])
	r.Path.StorePathIndex = binary.BigEndian.Uint16(buf[9:11])
	r.Path.SubPathHigh = buf[11]
	r.Path.SubPathLow = buf[12]
	r.File.ID = binary.BigEndian.Uint32(buf[13:17])
	r.File.Offset = binary.BigEndian.Uint32(buf[17:21])
	r.File.Size = binary.BigEndian.Uint32(buf[21:25])
	return r, nil
}
