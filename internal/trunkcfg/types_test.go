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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteSize_UnmarshalText(t *testing.T) {
	cases := map[string]uint64{
		"4096":  4096,
		"4KiB":  4 * byteSizeKiB,
		"64MiB": 64 * byteSizeMiB,
		"1GiB":  byteSizeGiB,
		"10B":   10,
	}
	for in, want := range cases {
		var b ByteSize
		require.NoError(t, b.UnmarshalText([]byte(in)), in)
		assert.Equal(t, want, uint64(b), in)
	}
}

func TestByteSize_UnmarshalText_Invalid(t *testing.T) {
	var b ByteSize
	assert.Error(t, b.UnmarshalText([]byte("")))
	assert.Error(t, b.UnmarshalText([]byte("abcMiB")))
}

func TestPathMode_UnmarshalText(t *testing.T) {
	var p PathMode
	require.NoError(t, p.UnmarshalText([]byte("ROUND-ROBIN")))
	assert.Equal(t, RoundRobin, p)

	require.NoError(t, p.UnmarshalText([]byte("load-balance")))
	assert.Equal(t, LoadBalance, p)

	assert.Error(t, p.UnmarshalText([]byte("random")))
}

func TestLogSeverity_RankOrdering(t *testing.T) {
	assert.Less(t, TraceLogSeverity.Rank(), DebugLogSeverity.Rank())
	assert.Less(t, ErrorLogSeverity.Rank()-1, ErrorLogSeverity.Rank())
	assert.Equal(t, -1, LogSeverity("BOGUS").Rank())
}

func TestLogSeverity_UnmarshalText_Invalid(t *testing.T) {
	var l LogSeverity
	assert.Error(t, l.UnmarshalText([]byte("VERBOSE")))
}
