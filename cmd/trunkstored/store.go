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
	"fmt"
	"os"
	"path/filepath"

	"github.com/trunkstore/trunkstore/internal/allocator"
	"github.com/trunkstore/trunkstore/internal/binlog"
	"github.com/trunkstore/trunkstore/internal/extent"
	"github.com/trunkstore/trunkstore/internal/logger"
	"github.com/trunkstore/trunkstore/internal/metrics"
	"github.com/trunkstore/trunkstore/internal/stat"
	"github.com/trunkstore/trunkstore/internal/storagepath"
	"github.com/trunkstore/trunkstore/internal/trunkcfg"
	"github.com/trunkstore/trunkstore/internal/trunkmgr"
)

// Store wires together every piece spec.md and SPEC_FULL.md name into one
// running process: the registry, durable binlog, slot table, trunk
// manager, allocator, and stat resolver.
type Store struct {
	cfg      *trunkcfg.StoreConfig
	Registry *storagepath.Registry
	Binlog   *binlog.FileWriter
	Table    *extent.Table
	Pool     *extent.NodePool
	TrunkMgr *trunkmgr.Manager
	Alloc    *allocator.Allocator
	Stat     *stat.Resolver
	Metrics  metrics.Handle
}

// NewStore validates cfg, replays any existing binlog to reconstruct the
// slot table, and constructs every collaborator the allocator needs.
func NewStore(cfg *trunkcfg.StoreConfig, m metrics.Handle) (*Store, error) {
	if err := trunkcfg.Validate(cfg); err != nil {
		return nil, fmt.Errorf("trunkstored: invalid config: %w", err)
	}
	extent.SetCheckInvariants(cfg.Debug.CheckInvariants)

	registry, err := storagepath.NewRegistry(cfg.StoragePaths, nil)
	if err != nil {
		return nil, err
	}
	if err := registry.Refresh(cfg.AvgStorageReservedMb); err != nil {
		return nil, fmt.Errorf("trunkstored: initial storage-path refresh: %w", err)
	}

	table := extent.NewTable(uint32(cfg.SlotMinSize), uint32(cfg.TrunkFileSize)/2)
	pool, err := extent.NewNodePool(1<<20, nil)
	if err != nil {
		return nil, err
	}

	startID, err := replayBinlog(cfg, table, pool)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.BinlogPath), 0o755); err != nil {
		return nil, fmt.Errorf("trunkstored: mkdir binlog dir: %w", err)
	}
	logWriter := binlog.NewFileWriter(cfg.BinlogPath, cfg.BinlogMaxSizeMb, cfg.BinlogBackups)

	mgr := trunkmgr.NewManager(cfg, registry, startID)
	alloc := allocator.New(table, pool, mgr, logWriter)
	if m == nil {
		m = metrics.NewNoopMetrics()
	}
	alloc.SetMetrics(m)

	return &Store{
		cfg:      cfg,
		Registry: registry,
		Binlog:   logWriter,
		Table:    table,
		Pool:     pool,
		TrunkMgr: mgr,
		Alloc:    alloc,
		Stat:     stat.NewResolver(mgr),
		Metrics:  m,
	}, nil
}

// replayBinlog reconstructs the slot table from any existing binlog
// segment at cfg.BinlogPath, returning the highest trunk id seen so the
// trunk manager's id counter never reuses one (spec's recovery contract,
// concretely grounded here since this repository owns the binlog).
func replayBinlog(cfg *trunkcfg.StoreConfig, table *extent.Table, pool *extent.NodePool) (uint32, error) {
	f, err := os.Open(cfg.BinlogPath)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("trunkstored: open binlog for replay: %w", err)
	}
	defer f.Close()

	replayer := &binlog.Replayer{Table: table, Pool: pool}
	maxID, err := replayer.Replay(f)
	if err != nil {
		return 0, fmt.Errorf("trunkstored: replay binlog: %w", err)
	}
	logger.Infof("replayed binlog, highest trunk id observed: %d", maxID)
	return maxID, nil
}

// Close releases the store's file handles.
func (s *Store) Close() error {
	return s.Binlog.Close()
}
