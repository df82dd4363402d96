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

package metrics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// defaultLatencyDistribution mirrors the teacher's own bucket boundaries
// for latency histograms (common/telemetry.go), reused verbatim since
// allocator operations and fs ops both span microseconds to seconds.
var defaultLatencyDistribution = metric.WithExplicitBucketBoundaries(
	1, 2, 3, 4, 5, 6, 8, 10, 13, 16, 20, 25, 30, 40, 50, 65, 80, 100, 130, 160,
	200, 250, 300, 400, 500, 650, 800, 1000, 2000, 5000, 10000, 20000, 50000, 100000)

var allocatorMeter = otel.Meter("trunkstore/allocator")

var attrSetCache sync.Map // map[string]metric.MeasurementOption, keyed by a stable rendering of attrs

func attrSet(attrs []Attr) metric.MeasurementOption {
	key := fmt.Sprint(attrs)
	if v, ok := attrSetCache.Load(key); ok {
		return v.(metric.MeasurementOption)
	}
	kvs := make([]attribute.KeyValue, len(attrs))
	for i, a := range attrs {
		kvs[i] = attribute.String(a.Key, a.Value)
	}
	opt := metric.WithAttributeSet(attribute.NewSet(kvs...))
	v, _ := attrSetCache.LoadOrStore(key, opt)
	return v.(metric.MeasurementOption)
}

// otelMetrics is the production Handle, backed by OpenTelemetry
// instruments registered on the process's global meter provider
// (cmd/trunkstored installs no exporter on it).
type otelMetrics struct {
	allocCount      metric.Int64Counter
	allocLatency    metric.Float64Histogram
	allocErrorCount metric.Int64Counter
	confirmCount    metric.Int64Counter
	freeCount       metric.Int64Counter

	trunkCreateCount   metric.Int64Counter
	trunkCreateLatency metric.Float64Histogram

	binlogWriteLatency metric.Float64Histogram
	binlogDroppedCount metric.Int64Counter

	occupancy sync.Map // map[uint32]*atomic.Int64, keyed by slot class size
}

// NewOTelMetrics builds every instrument this daemon emits.
func NewOTelMetrics() (Handle, error) {
	m := &otelMetrics{}
	var err1, err2, err3, err4, err5, err6, err7, err8, err9 error

	m.allocCount, err1 = allocatorMeter.Int64Counter("allocator/alloc_count",
		metric.WithDescription("Number of Alloc calls."))
	m.allocLatency, err2 = allocatorMeter.Float64Histogram("allocator/alloc_latency",
		metric.WithDescription("Distribution of Alloc call latencies."), metric.WithUnit("us"), defaultLatencyDistribution)
	m.allocErrorCount, err3 = allocatorMeter.Int64Counter("allocator/alloc_error_count",
		metric.WithDescription("Number of Alloc calls that returned an error, by error_kind."))
	m.confirmCount, err4 = allocatorMeter.Int64Counter("allocator/confirm_count",
		metric.WithDescription("Number of Confirm calls, by outcome."))
	m.freeCount, err5 = allocatorMeter.Int64Counter("allocator/free_count",
		metric.WithDescription("Number of Free calls."))

	m.trunkCreateCount, err6 = allocatorMeter.Int64Counter("trunkmgr/trunk_create_count",
		metric.WithDescription("Number of trunk files created."))
	m.trunkCreateLatency, err7 = allocatorMeter.Float64Histogram("trunkmgr/trunk_create_latency",
		metric.WithDescription("Distribution of trunk file creation latencies."), metric.WithUnit("ms"), defaultLatencyDistribution)

	m.binlogWriteLatency, err8 = allocatorMeter.Float64Histogram("binlog/write_latency",
		metric.WithDescription("Distribution of binlog append latencies."), metric.WithUnit("us"), defaultLatencyDistribution)
	m.binlogDroppedCount, err9 = allocatorMeter.Int64Counter("binlog/dropped_count",
		metric.WithDescription("Number of log lines the async logger dropped under backpressure (not binlog records, which are never dropped)."))

	if err := errors.Join(err1, err2, err3, err4, err5, err6, err7, err8, err9); err != nil {
		return nil, err
	}

	if _, err := allocatorMeter.Int64ObservableGauge("allocator/slot_occupancy",
		metric.WithDescription("Number of extents currently linked in each slot class."),
		metric.WithInt64Callback(func(_ context.Context, obsrv metric.Int64Observer) error {
			m.occupancy.Range(func(key, value any) bool {
				obsrv.Observe(value.(*atomic.Int64).Load(), metric.WithAttributeSet(
					attribute.NewSet(attribute.Int64(SlotClassKey, int64(key.(uint32))))))
				return true
			})
			return nil
		}),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *otelMetrics) AllocCount(ctx context.Context, inc int64, attrs []Attr) {
	m.allocCount.Add(ctx, inc, attrSet(attrs))
}

func (m *otelMetrics) AllocLatency(ctx context.Context, latency time.Duration, attrs []Attr) {
	m.allocLatency.Record(ctx, float64(latency.Microseconds()), attrSet(attrs))
}

func (m *otelMetrics) AllocErrorCount(ctx context.Context, inc int64, attrs []Attr) {
	m.allocErrorCount.Add(ctx, inc, attrSet(attrs))
}

func (m *otelMetrics) ConfirmCount(ctx context.Context, inc int64, attrs []Attr) {
	m.confirmCount.Add(ctx, inc, attrSet(attrs))
}

func (m *otelMetrics) FreeCount(ctx context.Context, inc int64, attrs []Attr) {
	m.freeCount.Add(ctx, inc, attrSet(attrs))
}

func (m *otelMetrics) TrunkCreateCount(ctx context.Context, inc int64) {
	m.trunkCreateCount.Add(ctx, inc)
}

func (m *otelMetrics) TrunkCreateLatency(ctx context.Context, latency time.Duration) {
	m.trunkCreateLatency.Record(ctx, float64(latency.Milliseconds()))
}

func (m *otelMetrics) BinlogWriteLatency(ctx context.Context, latency time.Duration) {
	m.binlogWriteLatency.Record(ctx, float64(latency.Microseconds()))
}

func (m *otelMetrics) BinlogDroppedCount(ctx context.Context, inc int64) {
	m.binlogDroppedCount.Add(ctx, inc)
}

func (m *otelMetrics) SetSlotOccupancy(classSize uint32, count int64) {
	v, _ := m.occupancy.LoadOrStore(classSize, &atomic.Int64{})
	v.(*atomic.Int64).Store(count)
}
