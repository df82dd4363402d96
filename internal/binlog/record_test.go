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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trunkstore/trunkstore/internal/extent"
)

func TestRecord_MarshalUnmarshalRoundTrip(t *testing.T) {
	rec := Record{
		Timestamp: 1700000000,
		Op:        AddSpace,
		Path:      extent.Path{StorePathIndex: 3, SubPathHigh: 0xAB, SubPathLow: 0xCD},
		File:      extent.Ref{ID: 42, Offset: 4096, Size: 8192},
	}

	buf := rec.Marshal()
	assert.Len(t, buf, RecordSize)

	got, err := Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestUnmarshal_WrongSize(t *testing.T) {
	_, err := Unmarshal(make([]byte, RecordSize-1))
	assert.Error(t, err)
}

func TestOp_String(t *testing.T) {
	assert.Equal(t, "ADD_SPACE", AddSpace.String())
	assert.Equal(t, "DEL_SPACE", DelSpace.String())
	assert.Equal(t, "SET_SPACE_FREE", SetSpaceFree.String())
}
