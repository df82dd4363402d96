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

// Package logger provides the trunk store's structured, rotated logging:
// log/slog records, optionally routed through lumberjack-rotated files via
// an AsyncLogger so a slow disk never stalls the allocator's hot path.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/trunkstore/trunkstore/internal/trunkcfg"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Custom levels below slog's built-in Debug, giving us a TRACE tier.
const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelWarn:  "WARNING",
}

var (
	programLevel  = new(slog.LevelVar)
	defaultLogger = slog.New(newHandler(os.Stderr, programLevel, "text"))
	asyncSink     *AsyncLogger // non-nil only when logging to a rotated file
)

func newHandler(w io.Writer, lvl slog.Leveler, format string) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				level := a.Value.Any().(slog.Level)
				if name, ok := levelNames[level]; ok {
					a.Value = slog.StringValue(name)
				} else {
					a.Value = slog.StringValue(level.String())
				}
				a.Key = "severity"
			}
			if a.Key == slog.TimeKey {
				a.Key = "time"
				a.Value = slog.StringValue(a.Value.Time().Format("02/01/2006 15:04:05.000000"))
			}
			return a
		},
	}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func severityToLevel(sev trunkcfg.LogSeverity) slog.Level {
	switch sev {
	case trunkcfg.TraceLogSeverity:
		return LevelTrace
	case trunkcfg.DebugLogSeverity:
		return LevelDebug
	case trunkcfg.WarningLogSeverity:
		return LevelWarn
	case trunkcfg.ErrorLogSeverity:
		return LevelError
	default:
		return LevelInfo
	}
}

// Init configures the package-level logger per cfg: severity threshold,
// text/json format, and (if cfg.File is set) a lumberjack-rotated,
// AsyncLogger-buffered output file instead of stderr.
func Init(cfg trunkcfg.LoggingConfig, maxSizeMB, backups int) error {
	programLevel.Set(severityToLevel(cfg.Severity))

	var w io.Writer = os.Stderr
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    maxSizeMB,
			MaxBackups: backups,
		}
		asyncSink = NewAsyncLogger(lj, 4096)
		w = asyncSink
	}
	defaultLogger = slog.New(newHandler(w, programLevel, cfg.Format))
	return nil
}

// Close flushes and closes the rotated log file, if Init opened one.
func Close() error {
	if asyncSink == nil {
		return nil
	}
	err := asyncSink.Close()
	asyncSink = nil
	return err
}

// DroppedLogCount reports how many log lines have been dropped under
// backpressure, or 0 if logging directly to stderr.
func DroppedLogCount() int64 {
	if asyncSink == nil {
		return 0
	}
	return asyncSink.DroppedCount()
}

func log(level slog.Level, format string, v ...any) {
	if !defaultLogger.Enabled(context.Background(), level) {
		return
	}
	msg := format
	if len(v) > 0 {
		msg = fmt.Sprintf(format, v...)
	}
	defaultLogger.Log(context.Background(), level, msg)
}

func Tracef(format string, v ...any) { log(LevelTrace, format, v...) }
func Debugf(format string, v ...any) { log(LevelDebug, format, v...) }
func Infof(format string, v ...any)  { log(LevelInfo, format, v...) }
func Warnf(format string, v ...any)  { log(LevelWarn, format, v...) }
func Errorf(format string, v ...any) { log(LevelError, format, v...) }
