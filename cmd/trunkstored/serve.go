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
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trunkstore/trunkstore/internal/logger"
)

const occupancySampleInterval = 15 * time.Second

// serve blocks until SIGINT/SIGTERM, periodically sampling slot occupancy
// and the logger's drop counter into s.Metrics, and periodically
// refreshing the storage-path registry's free-space figures on
// cfg.FreeMbRefreshInterval (spec's contract for LOAD_BALANCE path
// selection, which would otherwise go stale for the life of the process).
func serve(s *Store) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sampleTicker := time.NewTicker(occupancySampleInterval)
	defer sampleTicker.Stop()

	refreshTicker := time.NewTicker(s.cfg.FreeMbRefreshInterval)
	defer refreshTicker.Stop()

	var lastDropped int64
	for {
		select {
		case <-ctx.Done():
			logger.Infof("trunkstored: shutting down")
			return nil
		case <-sampleTicker.C:
			sampleOccupancy(ctx, s)
			if dropped := logger.DroppedLogCount(); dropped > lastDropped {
				s.Metrics.BinlogDroppedCount(ctx, dropped-lastDropped)
				lastDropped = dropped
			}
		case <-refreshTicker.C:
			if err := s.Registry.Refresh(s.cfg.AvgStorageReservedMb); err != nil {
				logger.Warnf("storagepath: periodic refresh failed: %v", err)
			}
		}
	}
}

// sampleOccupancy reports the live extent count of every slot class. The
// BinlogDroppedCount name tracks the async logger's drop counter rather
// than the binlog itself: binlog.FileWriter writes synchronously and never
// drops, so there is no other backpressure signal in this process to
// attach it to.
func sampleOccupancy(ctx context.Context, s *Store) {
	for _, slot := range s.Table.Slots() {
		s.Metrics.SetSlotOccupancy(slot.ClassSize, int64(slot.Len()))
	}
}
