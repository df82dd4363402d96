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

package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/trunkstore/trunkstore/internal/metrics"
	"github.com/trunkstore/trunkstore/internal/trunkcfg"
)

func newTestStoreConfig(t *testing.T) *trunkcfg.StoreConfig {
	t.Helper()
	dir := t.TempDir()
	cfg := trunkcfg.Default()
	cfg.StoragePaths = []string{dir}
	cfg.SlotMinSize = 4096
	cfg.TrunkFileSize = 64 * 1024
	cfg.BinlogPath = filepath.Join(dir, "binlog")
	return cfg
}

func TestNewStore_BuildsAllCollaborators(t *testing.T) {
	s, err := NewStore(newTestStoreConfig(t), metrics.NewNoopMetrics())
	require.NoError(t, err)
	defer s.Close()

	require.NotNil(t, s.Registry)
	require.NotNil(t, s.Table)
	require.NotNil(t, s.Pool)
	require.NotNil(t, s.TrunkMgr)
	require.NotNil(t, s.Alloc)
	require.NotNil(t, s.Stat)
}

func TestNewStore_DefaultsToNoopMetrics(t *testing.T) {
	s, err := NewStore(newTestStoreConfig(t), nil)
	require.NoError(t, err)
	defer s.Close()

	require.IsType(t, metrics.NewNoopMetrics(), s.Metrics)
}

func TestNewStore_RejectsInvalidConfig(t *testing.T) {
	cfg := newTestStoreConfig(t)
	cfg.StoragePaths = nil

	_, err := NewStore(cfg, metrics.NewNoopMetrics())
	require.Error(t, err)
}

func TestNewStore_ReplaysExistingBinlog(t *testing.T) {
	cfg := newTestStoreConfig(t)

	first, err := NewStore(cfg, metrics.NewNoopMetrics())
	require.NoError(t, err)
	e, err := first.Alloc.Alloc(4096)
	require.NoError(t, err)
	require.NoError(t, first.Alloc.Confirm(e, true))
	require.NoError(t, first.Close())

	second, err := NewStore(cfg, metrics.NewNoopMetrics())
	require.NoError(t, err)
	defer second.Close()

	next, err := second.Alloc.Alloc(4096)
	require.NoError(t, err)
	require.Equal(t, uint32(1), next.File.ID, "replay must not spuriously advance past trunk 1")
}

func TestRunSelfTest_PassesAgainstFreshStore(t *testing.T) {
	s, err := NewStore(newTestStoreConfig(t), metrics.NewNoopMetrics())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, runSelfTest(s))
}
