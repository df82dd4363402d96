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

// Package codec implements spec §4.5: the externally-visible filename
// codec (self-describing standalone-vs-trunked files) and the trunk-header
// pack/unpack pair written at the start of every logical file inside a
// trunk. Both halves are pure, doing no I/O of their own.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ExtNameLen is the fixed width of the stored file-extension field in the
// header.
const ExtNameLen = 6

// FileTypeRegular is the only file_type value this store produces.
const FileTypeRegular = 1

// HeaderSize is FDFS_TRUNK_FILE_HEADER_SIZE: the number of bytes written
// at the start of every logical file packed into a trunk.
const HeaderSize = 1 + 4 + 4 + 4 + 4 + ExtNameLen

// ErrInvalidHeader is returned when a byte slice cannot possibly hold a
// valid Header.
var ErrInvalidHeader = errors.New("codec: invalid trunk header bytes")

// Header is the in-file record preceding every logical file's payload
// inside a trunk.
type Header struct {
	FileType  uint8
	AllocSize uint32
	FileSize  uint32
	Crc32     uint32
	Mtime     uint32
	ExtName   [ExtNameLen]byte
}

// PackHeader serializes h using the big-endian field layout from spec
// §4.5's header table.
func PackHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	buf[0] = h.FileType
	binary.BigEndian.PutUint32(buf[1:5], h.AllocSize)
	binary.BigEndian.PutUint32(buf[5:9], h.FileSize)
	binary.BigEndian.PutUint32(buf[9:13], h.Crc32)
	binary.BigEndian.PutUint32(buf[13:17], h.Mtime)
	copy(buf[17:17+ExtNameLen], h.ExtName[:])
	return buf
}

// UnpackHeader deserializes buf, which must be exactly HeaderSize bytes.
func UnpackHeader(buf []byte) (Header, error) {
	if len(buf) != HeaderSize {
		return Header{}, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidHeader, HeaderSize, len(buf))
	}
	var h Header
	h.FileType = buf[0]
	h.AllocSize = binary.BigEndian.Uint32(buf[1:5])
	h.FileSize = binary.BigEndian.Uint32(buf[5:9])
	h.Crc32 = binary.BigEndian.Uint32(buf[9:13])
	h.Mtime = binary.BigEndian.Uint32(buf[13:17])
	copy(h.ExtName[:], buf[17:17+ExtNameLen])
	return h, nil
}

// EqualIgnoringFileType reports whether a and b match in every field
// except FileType, mirroring spec §4.6's header cross-check: "the first
// byte is not included in cross-checks because it is set after the
// allocator has reserved space."
func EqualIgnoringFileType(a, b Header) bool {
	return a.AllocSize == b.AllocSize && a.FileSize == b.FileSize &&
		a.Crc32 == b.Crc32 && a.Mtime == b.Mtime && a.ExtName == b.ExtName
}
