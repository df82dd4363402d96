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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trunkstore/trunkstore/internal/extent"
)

func TestFileWriter_LogOpAppendsRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "binlog.log")
	w := NewFileWriter(path, 10, 1)

	p := extent.Path{StorePathIndex: 0, SubPathHigh: 0x00, SubPathLow: 0x01}
	f1 := extent.Ref{ID: 1, Offset: 0, Size: 4096}
	f2 := extent.Ref{ID: 1, Offset: 4096, Size: 8192}

	require.NoError(t, w.LogOp(AddSpace, p, f1, 100))
	require.NoError(t, w.LogOp(AddSpace, p, f2, 101))
	require.NoError(t, w.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, content, 2*RecordSize)

	rec1, err := Unmarshal(content[:RecordSize])
	require.NoError(t, err)
	assert.Equal(t, f1, rec1.File)

	rec2, err := Unmarshal(content[RecordSize:])
	require.NoError(t, err)
	assert.Equal(t, f2, rec2.File)
}
