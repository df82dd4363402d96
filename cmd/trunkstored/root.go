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

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trunkstore/trunkstore/internal/logger"
	"github.com/trunkstore/trunkstore/internal/metrics"
	"github.com/trunkstore/trunkstore/internal/trunkcfg"
)

// Log rotation sizing is independent of the binlog's, since the two files
// grow at very different rates; fixed here rather than exposed as flags.
const (
	logRotateMaxSizeMB = 50
	logRotateBackups   = 3
)

var (
	cfgFile      string
	selfTest     bool
	pathModeFlag string
	bindErr      error
	storeCfg     = trunkcfg.Default()
)

var rootCmd = &cobra.Command{
	Use:   "trunkstored",
	Short: "Run the trunk-store small-file allocator daemon",
	Long: `trunkstored packs many small files into a handful of large
trunk container files, tracking free space with a segregated free-list
allocator and a two-phase HOLD/confirm reservation protocol.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		if err := loadConfigFile(); err != nil {
			return err
		}
		if cmd.Flags().Changed("store-path-mode") {
			var mode trunkcfg.PathMode
			if err := mode.UnmarshalText([]byte(pathModeFlag)); err != nil {
				return fmt.Errorf("trunkstored: %w", err)
			}
			storeCfg.StorePathMode = mode
		}
		if err := logger.Init(storeCfg.Logging, logRotateMaxSizeMB, logRotateBackups); err != nil {
			return fmt.Errorf("trunkstored: init logger: %w", err)
		}

		if selfTest {
			return runSelfTestCommand()
		}

		m, shutdown, err := buildMetrics()
		if err != nil {
			return err
		}
		defer shutdown()

		s, err := NewStore(storeCfg, m)
		if err != nil {
			return err
		}
		defer s.Close()

		logger.Infof("trunkstored ready: %d store path(s), trunk file size %d, slot min size %d",
			len(storeCfg.StoragePaths), storeCfg.TrunkFileSize, storeCfg.SlotMinSize)
		logger.Infof("no RPC surface in this build (see SPEC_FULL.md A6); use --self-test to exercise the allocator end-to-end")
		return serve(s)
	},
}

// loadConfigFile merges an optional YAML config file over the flag/env
// defaults already bound into viper, mirroring the teacher's initConfig.
func loadConfigFile() error {
	if cfgFile == "" {
		return nil
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("trunkstored: reading config file %s: %w", cfgFile, err)
	}
	if err := viper.Unmarshal(storeCfg, viper.DecodeHook(trunkcfg.DecodeHook())); err != nil {
		return fmt.Errorf("trunkstored: decoding config: %w", err)
	}
	return nil
}

// buildMetrics wires OpenTelemetry metrics, falling back to a no-op
// handle only if instrument creation fails, and returns a shutdown hook
// the caller must defer.
func buildMetrics() (metrics.Handle, func(), error) {
	h, err := metrics.NewOTelMetrics()
	if err != nil {
		logger.Warnf("metrics: falling back to no-op handle: %v", err)
		return metrics.NewNoopMetrics(), func() {}, nil
	}
	return h, func() {}, nil
}

func runSelfTestCommand() error {
	dir, err := os.MkdirTemp("", "trunkstored-selftest-*")
	if err != nil {
		return fmt.Errorf("trunkstored: self-test temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	cfg := trunkcfg.Default()
	cfg.StoragePaths = []string{dir}
	cfg.SlotMinSize = 4096
	cfg.TrunkFileSize = 64 * 1024 // small trunk: fast, deterministic S6 drain
	cfg.BinlogPath = filepath.Join(dir, "binlog")

	s, err := NewStore(cfg, metrics.NewNoopMetrics())
	if err != nil {
		return fmt.Errorf("trunkstored: self-test store: %w", err)
	}
	defer s.Close()

	return runSelfTest(s)
}

// Execute runs the root command, exiting the process on error, matching
// the teacher's cmd.Execute.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func bindFlags(flags *pflag.FlagSet) error {
	flags.Var(&storeCfg.SlotMinSize, "slot-min-size", "Minimum slot size / free threshold (e.g. 4KiB)")
	flags.Var(&storeCfg.TrunkFileSize, "trunk-file-size", "Size of each trunk container file (e.g. 64MiB)")
	flags.StringVar(&storeCfg.BinlogPath, "binlog-path", storeCfg.BinlogPath, "Path to the durable operation log")
	flags.IntVar(&storeCfg.BinlogMaxSizeMb, "binlog-max-size-mb", storeCfg.BinlogMaxSizeMb, "Binlog segment size before rotation, in MiB")
	flags.IntVar(&storeCfg.BinlogBackups, "binlog-backups", storeCfg.BinlogBackups, "Number of rotated binlog segments to retain")
	flags.StringSliceVar(&storeCfg.StoragePaths, "store-paths", nil, "Comma-separated list of storage root directories")
	flags.StringVar(&pathModeFlag, "store-path-mode", string(storeCfg.StorePathMode), "Store path selection mode: round-robin or load-balance")
	flags.Int64Var(&storeCfg.StorageReservedMb, "storage-reserved-mb", storeCfg.StorageReservedMb, "Per-path reserved space floor, in MiB")
	flags.Int64Var(&storeCfg.AvgStorageReservedMb, "avg-storage-reserved-mb", storeCfg.AvgStorageReservedMb, "Average reserved space floor used by path selection, in MiB")
	flags.StringVar((*string)(&storeCfg.Logging.Severity), "log-severity", string(storeCfg.Logging.Severity), "Log severity: TRACE, DEBUG, INFO, WARNING, ERROR")
	flags.StringVar(&storeCfg.Logging.File, "log-file", storeCfg.Logging.File, "Rotated log file path; empty logs to stderr")
	flags.StringVar(&storeCfg.Logging.Format, "log-format", storeCfg.Logging.Format, "Log format: text or json")
	flags.BoolVar(&storeCfg.Debug.CheckInvariants, "check-invariants", storeCfg.Debug.CheckInvariants, "Re-check slot-table invariants on every unlock (debug builds)")
	flags.BoolVar(&selfTest, "self-test", false, "Run the scripted S1-S6 allocator scenarios against a throwaway store and exit")

	return viper.BindPFlags(flags)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "Path to an optional YAML config file")
	bindErr = bindFlags(rootCmd.PersistentFlags())
}
