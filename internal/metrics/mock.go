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

	"github.com/stretchr/testify/mock"
)

// MockHandle lets tests assert on exactly which metrics calls a component
// made, mirroring the teacher's MockMetricHandle.
type MockHandle struct {
	mock.Mock
}

func (m *MockHandle) AllocCount(ctx context.Context, inc int64, attrs []Attr) {
	m.Called(ctx, inc, attrs)
}

func (m *MockHandle) AllocLatency(ctx context.Context, latency time.Duration, attrs []Attr) {
	m.Called(ctx, latency, attrs)
}

func (m *MockHandle) AllocErrorCount(ctx context.Context, inc int64, attrs []Attr) {
	m.Called(ctx, inc, attrs)
}

func (m *MockHandle) ConfirmCount(ctx context.Context, inc int64, attrs []Attr) {
	m.Called(ctx, inc, attrs)
}

func (m *MockHandle) FreeCount(ctx context.Context, inc int64, attrs []Attr) {
	m.Called(ctx, inc, attrs)
}

func (m *MockHandle) TrunkCreateCount(ctx context.Context, inc int64) {
	m.Called(ctx, inc)
}

func (m *MockHandle) TrunkCreateLatency(ctx context.Context, latency time.Duration) {
	m.Called(ctx, latency)
}

func (m *MockHandle) BinlogWriteLatency(ctx context.Context, latency time.Duration) {
	m.Called(ctx, latency)
}

func (m *MockHandle) BinlogDroppedCount(ctx context.Context, inc int64) {
	m.Called(ctx, inc)
}

func (m *MockHandle) SetSlotOccupancy(classSize uint32, count int64) {
	m.Called(classSize, count)
}
