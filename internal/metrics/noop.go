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
	"time"
)

// NewNoopMetrics returns a Handle whose every method is a no-op, for
// metrics-disabled runs and for tests that don't care about telemetry.
func NewNoopMetrics() Handle {
	var n noopMetrics
	return &n
}

type noopMetrics struct{}

func (*noopMetrics) AllocCount(context.Context, int64, []Attr)            {}
func (*noopMetrics) AllocLatency(context.Context, time.Duration, []Attr)  {}
func (*noopMetrics) AllocErrorCount(context.Context, int64, []Attr)       {}
func (*noopMetrics) ConfirmCount(context.Context, int64, []Attr)          {}
func (*noopMetrics) FreeCount(context.Context, int64, []Attr)             {}
func (*noopMetrics) TrunkCreateCount(context.Context, int64)              {}
func (*noopMetrics) TrunkCreateLatency(context.Context, time.Duration)    {}
func (*noopMetrics) BinlogWriteLatency(context.Context, time.Duration)    {}
func (*noopMetrics) BinlogDroppedCount(context.Context, int64)            {}
func (*noopMetrics) SetSlotOccupancy(classSize uint32, count int64)       {}
