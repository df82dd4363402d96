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

package trunkcfg

import "time"

// StoreConfig is the root configuration for a trunk store daemon.
type StoreConfig struct {
	SlotMinSize   ByteSize `mapstructure:"slot-min-size"`
	TrunkFileSize ByteSize `mapstructure:"trunk-file-size"`

	StorePathMode        PathMode `mapstructure:"store-path-mode"`
	StoragePaths         []string `mapstructure:"store-paths"`
	StorageReservedMb    int64    `mapstructure:"storage-reserved-mb"`
	AvgStorageReservedMb int64    `mapstructure:"avg-storage-reserved-mb"`

	FreeMbRefreshInterval time.Duration `mapstructure:"free-mb-refresh-interval"`

	BinlogPath       string `mapstructure:"binlog-path"`
	BinlogMaxSizeMb  int    `mapstructure:"binlog-max-size-mb"`
	BinlogBackups    int    `mapstructure:"binlog-backups"`

	Logging LoggingConfig `mapstructure:"log"`
	Debug   DebugConfig   `mapstructure:"debug"`
}

// LoggingConfig mirrors the shape of the teacher's logging config block.
type LoggingConfig struct {
	Severity LogSeverity `mapstructure:"severity"`
	File     string      `mapstructure:"file"`
	Format   string      `mapstructure:"format"`
}

// DebugConfig holds knobs that are only meant for development builds.
type DebugConfig struct {
	CheckInvariants bool `mapstructure:"check-invariants"`
}

// Default returns a StoreConfig populated with the daemon's out-of-the-box
// defaults, mirroring the teacher's cfg/defaults.go.
func Default() *StoreConfig {
	return &StoreConfig{
		SlotMinSize:           ByteSize(4096),
		TrunkFileSize:         ByteSize(64 * byteSizeMiB),
		StorePathMode:         RoundRobin,
		StorageReservedMb:     100,
		AvgStorageReservedMb:  100,
		FreeMbRefreshInterval: 30 * time.Second,
		BinlogPath:            "binlog",
		BinlogMaxSizeMb:       100,
		BinlogBackups:         5,
		Logging: LoggingConfig{
			Severity: InfoLogSeverity,
			Format:   "text",
		},
	}
}
