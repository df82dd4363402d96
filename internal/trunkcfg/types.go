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

// Package trunkcfg defines the trunk store's configuration model: flags,
// env vars, and an optional YAML file, decoded through viper/mapstructure
// the way the teacher's cfg package does.
package trunkcfg

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ByteSize accepts human-friendly sizes like "4KiB" or "64MiB" and decodes
// them to a raw byte count. Modeled on the teacher's cfg.Octal: a small
// scalar type with its own UnmarshalText/MarshalText instead of scattering
// size-string parsing across the config loader.
type ByteSize uint64

const (
	byteSizeKiB = 1024
	byteSizeMiB = 1024 * byteSizeKiB
	byteSizeGiB = 1024 * byteSizeMiB
)

func (b *ByteSize) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		return fmt.Errorf("empty byte size")
	}
	mult := uint64(1)
	switch {
	case strings.HasSuffix(s, "KiB"):
		mult, s = byteSizeKiB, strings.TrimSuffix(s, "KiB")
	case strings.HasSuffix(s, "MiB"):
		mult, s = byteSizeMiB, strings.TrimSuffix(s, "MiB")
	case strings.HasSuffix(s, "GiB"):
		mult, s = byteSizeGiB, strings.TrimSuffix(s, "GiB")
	case strings.HasSuffix(s, "B"):
		s = strings.TrimSuffix(s, "B")
	}
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid byte size %q: %w", string(text), err)
	}
	*b = ByteSize(v * mult)
	return nil
}

func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(strconv.FormatUint(uint64(b), 10) + "B"), nil
}

// Set implements pflag.Value, so ByteSize fields can be bound directly as
// CLI flags (e.g. --trunk-file-size=64MiB) instead of YAML-only.
func (b *ByteSize) Set(s string) error { return b.UnmarshalText([]byte(s)) }

// String implements pflag.Value.
func (b ByteSize) String() string { return fmt.Sprintf("%dB", uint64(b)) }

// Type implements pflag.Value.
func (b ByteSize) Type() string { return "byteSize" }

// PathMode selects how the trunk manager chooses a store path for a new
// trunk file.
type PathMode string

const (
	RoundRobin  PathMode = "round-robin"
	LoadBalance PathMode = "load-balance"
)

func (p *PathMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	valid := []string{string(RoundRobin), string(LoadBalance)}
	if !slices.Contains(valid, v) {
		return fmt.Errorf("invalid store-path-mode value: %s. Must be one of %v", v, valid)
	}
	*p = PathMode(v)
	return nil
}

func (p PathMode) MarshalText() ([]byte, error) {
	return []byte(p), nil
}

// LogSeverity mirrors the teacher's cfg.LogSeverity, minus OFF: a daemon
// always logs at least errors.
type LogSeverity string

const (
	TraceLogSeverity   LogSeverity = "TRACE"
	DebugLogSeverity   LogSeverity = "DEBUG"
	InfoLogSeverity    LogSeverity = "INFO"
	WarningLogSeverity LogSeverity = "WARNING"
	ErrorLogSeverity   LogSeverity = "ERROR"
)

var severityRanking = map[LogSeverity]int{
	TraceLogSeverity:   0,
	DebugLogSeverity:   1,
	InfoLogSeverity:    2,
	WarningLogSeverity: 3,
	ErrorLogSeverity:   4,
}

func (l *LogSeverity) UnmarshalText(text []byte) error {
	level := LogSeverity(strings.ToUpper(strings.TrimSpace(string(text))))
	if _, ok := severityRanking[level]; !ok {
		return fmt.Errorf("invalid log severity level: %s. Must be one of [TRACE, DEBUG, INFO, WARNING, ERROR]", text)
	}
	*l = level
	return nil
}

func (l LogSeverity) Rank() int {
	if rank, ok := severityRanking[l]; ok {
		return rank
	}
	return -1
}
