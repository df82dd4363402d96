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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trunkstore/trunkstore/internal/extent"
	"golang.org/x/sync/semaphore"
)

func newTestTable(t *testing.T) (*extent.Table, *extent.NodePool) {
	t.Helper()
	table := extent.NewTable(4096, 32*1024*1024)
	pool, err := extent.NewNodePool(64, semaphore.NewWeighted(64))
	require.NoError(t, err)
	return table, pool
}

func TestReplayer_AddThenDelRemovesExtent(t *testing.T) {
	table, pool := newTestTable(t)
	p := extent.Path{StorePathIndex: 0}
	f := extent.Ref{ID: 1, Offset: 0, Size: 8192}

	var buf bytes.Buffer
	buf.Write(Record{Timestamp: 1, Op: AddSpace, Path: p, File: f}.Marshal())
	buf.Write(Record{Timestamp: 2, Op: DelSpace, Path: p, File: f}.Marshal())

	r := &Replayer{Table: table, Pool: pool}
	maxID, err := r.Replay(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), maxID)

	slot := table.SlotForInsertion(f.Size)
	assert.Equal(t, 0, slot.Len())
}

func TestReplayer_AddThenHoldThenSetFree(t *testing.T) {
	table, pool := newTestTable(t)
	p := extent.Path{StorePathIndex: 0}
	f := extent.Ref{ID: 1, Offset: 0, Size: 8192}

	var buf bytes.Buffer
	buf.Write(Record{Timestamp: 1, Op: AddSpace, Path: p, File: f}.Marshal())
	buf.Write(Record{Timestamp: 2, Op: SetSpaceFree, Path: p, File: f}.Marshal())

	r := &Replayer{Table: table, Pool: pool}
	_, err := r.Replay(&buf)
	require.NoError(t, err)

	slot := table.SlotForInsertion(f.Size)
	snap := slot.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, extent.Free, snap[0].Status)
}

func TestReplayer_SetFreeWithoutPriorAddInsertsFresh(t *testing.T) {
	table, pool := newTestTable(t)
	p := extent.Path{StorePathIndex: 0}
	f := extent.Ref{ID: 1, Offset: 0, Size: 8192}

	var buf bytes.Buffer
	buf.Write(Record{Timestamp: 1, Op: SetSpaceFree, Path: p, File: f}.Marshal())

	r := &Replayer{Table: table, Pool: pool}
	_, err := r.Replay(&buf)
	require.NoError(t, err)

	slot := table.SlotForInsertion(f.Size)
	assert.Equal(t, 1, slot.Len())
}

func TestReplayer_TracksMaxTrunkID(t *testing.T) {
	table, pool := newTestTable(t)
	p := extent.Path{StorePathIndex: 0}

	var buf bytes.Buffer
	buf.Write(Record{Timestamp: 1, Op: AddSpace, Path: p, File: extent.Ref{ID: 1, Size: 8192}}.Marshal())
	buf.Write(Record{Timestamp: 2, Op: AddSpace, Path: p, File: extent.Ref{ID: 5, Offset: 8192, Size: 8192}}.Marshal())
	buf.Write(Record{Timestamp: 3, Op: AddSpace, Path: p, File: extent.Ref{ID: 3, Offset: 16384, Size: 8192}}.Marshal())

	r := &Replayer{Table: table, Pool: pool}
	maxID, err := r.Replay(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), maxID)
}
