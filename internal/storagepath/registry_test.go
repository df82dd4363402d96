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

package storagepath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trunkstore/trunkstore/internal/trunkcfg"
)

func fakeStatfs(free map[string]int64) StatfsFunc {
	return func(root string) (int64, error) {
		return free[root], nil
	}
}

func TestNewRegistry_RequiresAtLeastOnePath(t *testing.T) {
	_, err := NewRegistry(nil, nil)
	require.Error(t, err)
}

func TestSelectPath_RoundRobinAdvancesCursor(t *testing.T) {
	roots := []string{"/a", "/b", "/c"}
	free := map[string]int64{"/a": 1000, "/b": 1000, "/c": 1000}
	r, err := NewRegistry(roots, fakeStatfs(free))
	require.NoError(t, err)
	require.NoError(t, r.Refresh(100))

	first, err := r.SelectPath(trunkcfg.RoundRobin, 100)
	require.NoError(t, err)
	second, err := r.SelectPath(trunkcfg.RoundRobin, 100)
	require.NoError(t, err)
	third, err := r.SelectPath(trunkcfg.RoundRobin, 100)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2}, []int{first, second, third})

	fourth, err := r.SelectPath(trunkcfg.RoundRobin, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, fourth, "cursor must wrap")
}

func TestSelectPath_RoundRobinSkipsPathBelowThreshold(t *testing.T) {
	roots := []string{"/a", "/b", "/c"}
	free := map[string]int64{"/a": 10, "/b": 10, "/c": 1000}
	r, err := NewRegistry(roots, fakeStatfs(free))
	require.NoError(t, err)
	require.NoError(t, r.Refresh(100))

	// Cursor starts at /a, which is below the 100MB reservation threshold;
	// the registry must scan forward and land on /c.
	idx, err := r.SelectPath(trunkcfg.RoundRobin, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
}

func TestSelectPath_RoundRobinNoSpace(t *testing.T) {
	roots := []string{"/a", "/b"}
	free := map[string]int64{"/a": 10, "/b": 10}
	r, err := NewRegistry(roots, fakeStatfs(free))
	require.NoError(t, err)
	require.NoError(t, r.Refresh(100))

	_, err = r.SelectPath(trunkcfg.RoundRobin, 100)
	assert.ErrorIs(t, err, ErrNoSpace)
}

func TestSelectPath_LoadBalancePicksMostFree(t *testing.T) {
	roots := []string{"/a", "/b", "/c"}
	free := map[string]int64{"/a": 500, "/b": 2000, "/c": 1500}
	r, err := NewRegistry(roots, fakeStatfs(free))
	require.NoError(t, err)
	require.NoError(t, r.Refresh(100))

	idx, err := r.SelectPath(trunkcfg.LoadBalance, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestSelectPath_LoadBalanceNoSpace(t *testing.T) {
	roots := []string{"/a"}
	free := map[string]int64{"/a": 5}
	r, err := NewRegistry(roots, fakeStatfs(free))
	require.NoError(t, err)
	require.NoError(t, r.Refresh(100))

	_, err = r.SelectPath(trunkcfg.LoadBalance, 100)
	assert.ErrorIs(t, err, ErrNoSpace)
}
