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

package codec

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/trunkstore/trunkstore/internal/extent"
)

// TrunkFlag is the high bit of Meta.PackedSize: FDFS_TRUNK_FILE_SIZE.
// When set, the file's payload lives inside a trunk; when clear, it is
// standalone.
const TrunkFlag uint32 = 1 << 31

// metaSize is the fixed little-endian width of the meta record:
// timestamp(4) + mtime(4) + packed_size(4) + reserved(2) + crc32(4).
const metaSize = 4 + 4 + 4 + 2 + 4

// refSize is the fixed width of an encoded extent.Ref: id(4) + offset(4) +
// size(4), big-endian (it mirrors the trunk id's own encoding).
const refSize = 4 + 4 + 4

var b64 = base64.RawURLEncoding

// metaEncodedLen and refEncodedLen are base64.RawURLEncoding's output
// widths for metaSize and refSize input bytes respectively.
var (
	metaEncodedLen = b64.EncodedLen(metaSize)
	refEncodedLen  = b64.EncodedLen(refSize)
)

// ErrBadName is returned when a filename is shorter than required for the
// flags it claims to encode.
var ErrBadName = errors.New("codec: filename too short for its encoded flags")

// Meta is the fixed-length record encoded as the first base64 segment of
// every trunked (or standalone) filename.
type Meta struct {
	Timestamp  uint32
	Mtime      uint32
	PackedSize uint32
	Reserved   uint16
	Crc32      uint32
}

// IsTrunked reports whether the trunk flag is set in PackedSize.
func (m Meta) IsTrunked() bool {
	return m.PackedSize&TrunkFlag != 0
}

// Size returns the logical file size with the trunk flag masked off.
func (m Meta) Size() uint32 {
	return m.PackedSize &^ TrunkFlag
}

func (m Meta) marshal() []byte {
	buf := make([]byte, metaSize)
	binary.LittleEndian.PutUint32(buf[0:4], m.Timestamp)
	binary.LittleEndian.PutUint32(buf[4:8], m.Mtime)
	binary.LittleEndian.PutUint32(buf[8:12], m.PackedSize)
	binary.LittleEndian.PutUint16(buf[12:14], m.Reserved)
	binary.LittleEndian.PutUint32(buf[14:18], m.Crc32)
	return buf
}

func unmarshalMeta(buf []byte) Meta {
	return Meta{
		Timestamp:  binary.LittleEndian.Uint32(buf[0:4]),
		Mtime:      binary.LittleEndian.Uint32(buf[4:8]),
		PackedSize: binary.LittleEndian.Uint32(buf[8:12]),
		Reserved:   binary.LittleEndian.Uint16(buf[12:14]),
		Crc32:      binary.LittleEndian.Uint32(buf[14:18]),
	}
}

func marshalRef(ref extent.Ref) []byte {
	buf := make([]byte, refSize)
	binary.BigEndian.PutUint32(buf[0:4], ref.ID)
	binary.BigEndian.PutUint32(buf[4:8], ref.Offset)
	binary.BigEndian.PutUint32(buf[8:12], ref.Size)
	return buf
}

func unmarshalRef(buf []byte) extent.Ref {
	return extent.Ref{
		ID:     binary.BigEndian.Uint32(buf[0:4]),
		Offset: binary.BigEndian.Uint32(buf[4:8]),
		Size:   binary.BigEndian.Uint32(buf[8:12]),
	}
}

// EncodeFilename builds the externally-visible name for a trunked file:
// <sub_path_high_hex>/<sub_path_low_hex>/<base64(meta)><base64(ref)><ext>.
func EncodeFilename(path extent.Path, meta Meta, ref extent.Ref, ext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%02x/%02x/", path.SubPathHigh, path.SubPathLow)
	b.WriteString(b64.EncodeToString(meta.marshal()))
	b.WriteString(b64.EncodeToString(marshalRef(ref)))
	b.WriteString(ext)
	return b.String()
}

// EncodeStandaloneFilename builds the externally-visible name for a
// standalone (non-trunked) file: same shape, but the trunk flag is clear
// and no TrunkFileRef segment follows.
func EncodeStandaloneFilename(path extent.Path, meta Meta, ext string) string {
	meta.PackedSize &^= TrunkFlag
	var b strings.Builder
	fmt.Fprintf(&b, "%02x/%02x/", path.SubPathHigh, path.SubPathLow)
	b.WriteString(b64.EncodeToString(meta.marshal()))
	b.WriteString(ext)
	return b.String()
}

// Decoded is the result of decoding an externally-visible filename.
type Decoded struct {
	Path       extent.Path
	Meta       Meta
	Ref        extent.Ref
	Ext        string // trailing suffix after the encoded segments, e.g. ".jpg"
	Standalone bool
}

// DecodeFilename implements spec §4.6 steps 1-4: it returns Standalone set
// whenever the name is too short to carry trunk metadata, or carries
// metadata with the trunk flag clear. It returns ErrBadName when the
// trunk flag is set but the name is too short to carry the trailing
// TrunkFileRef.
func DecodeFilename(name string) (Decoded, error) {
	parts := strings.SplitN(name, "/", 3)
	if len(parts) != 3 {
		return Decoded{Standalone: true}, nil
	}
	high, low, rest := parts[0], parts[1], parts[2]

	if len(rest) < metaEncodedLen {
		return Decoded{Standalone: true}, nil
	}
	metaBytes, err := b64.DecodeString(rest[:metaEncodedLen])
	if err != nil || len(metaBytes) != metaSize {
		return Decoded{Standalone: true}, nil
	}
	meta := unmarshalMeta(metaBytes)
	if !meta.IsTrunked() {
		return Decoded{Standalone: true}, nil
	}

	if len(rest) < metaEncodedLen+refEncodedLen {
		return Decoded{}, ErrBadName
	}
	refBytes, err := b64.DecodeString(rest[metaEncodedLen : metaEncodedLen+refEncodedLen])
	if err != nil || len(refBytes) != refSize {
		return Decoded{}, ErrBadName
	}
	ref := unmarshalRef(refBytes)

	subHigh, err := parseHexByte(high)
	if err != nil {
		return Decoded{}, ErrBadName
	}
	subLow, err := parseHexByte(low)
	if err != nil {
		return Decoded{}, ErrBadName
	}

	return Decoded{
		Path: extent.Path{SubPathHigh: subHigh, SubPathLow: subLow},
		Meta: meta,
		Ref:  ref,
		Ext:  rest[metaEncodedLen+refEncodedLen:],
	}, nil
}

func parseHexByte(s string) (uint8, error) {
	if len(s) != 2 {
		return 0, ErrBadName
	}
	var v uint8
	_, err := fmt.Sscanf(s, "%02x", &v)
	return v, err
}
