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

// Package metrics instruments the allocator, trunk manager, and binlog
// writer via OpenTelemetry, following the teacher's common/telemetry.go
// split between a narrow Handle interface, an otel-backed implementation,
// and a no-op stand-in for tests and metrics-disabled runs.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ShutdownFn mirrors the teacher's common.ShutdownFn: a deferred cleanup
// hook returned by whatever wired up the metrics exporter.
type ShutdownFn func(ctx context.Context) error

// JoinShutdownFunc combines several shutdown hooks into one, running all
// of them even if one fails.
func JoinShutdownFunc(fns ...ShutdownFn) ShutdownFn {
	return func(ctx context.Context) error {
		var err error
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			err = errors.Join(err, fn(ctx))
		}
		return err
	}
}

// Attr is one metric attribute (dimension), e.g. {"op", "alloc"}.
type Attr struct{ Key, Value string }

func (a Attr) String() string { return fmt.Sprintf("%s=%s", a.Key, a.Value) }

// Attribute keys shared across call sites.
const (
	OpKey        = "op"         // alloc | free; success | cancel on ConfirmCount
	ErrorKindKey = "error_kind" // NO_SPACE | NO_SLOT | NOT_FOUND | BAD_NAME | IO | INVALID
	SlotClassKey = "slot_class"
)

// AllocatorMetricHandle instruments the allocator's public operations.
type AllocatorMetricHandle interface {
	AllocCount(ctx context.Context, inc int64, attrs []Attr)
	AllocLatency(ctx context.Context, latency time.Duration, attrs []Attr)
	AllocErrorCount(ctx context.Context, inc int64, attrs []Attr)
	ConfirmCount(ctx context.Context, inc int64, attrs []Attr)
	FreeCount(ctx context.Context, inc int64, attrs []Attr)
}

// TrunkMetricHandle instruments trunk file creation.
type TrunkMetricHandle interface {
	TrunkCreateCount(ctx context.Context, inc int64)
	TrunkCreateLatency(ctx context.Context, latency time.Duration)
}

// BinlogMetricHandle instruments the durable operation log.
type BinlogMetricHandle interface {
	BinlogWriteLatency(ctx context.Context, latency time.Duration)
	BinlogDroppedCount(ctx context.Context, inc int64)
}

// OccupancyMetricHandle reports how many extents currently sit in each
// slot class; callers sample this periodically rather than per-mutation.
type OccupancyMetricHandle interface {
	SetSlotOccupancy(classSize uint32, count int64)
}

// Handle is the full set of metrics this daemon emits.
type Handle interface {
	AllocatorMetricHandle
	TrunkMetricHandle
	BinlogMetricHandle
	OccupancyMetricHandle
}
