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
)

func validConfig() *StoreConfig {
	c := Default()
	c.StoragePaths = []string{"/data/store0"}
	return c
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidate_EmptyStorePaths(t *testing.T) {
	c := validConfig()
	c.StoragePaths = nil
	assert.Error(t, Validate(c))
}

func TestValidate_SlotMinSizeNotPowerOfTwo(t *testing.T) {
	c := validConfig()
	c.SlotMinSize = 3000
	assert.Error(t, Validate(c))
}

func TestValidate_TrunkFileSizeNotMultiple(t *testing.T) {
	c := validConfig()
	c.TrunkFileSize = ByteSize(4096*1024 + 1)
	assert.Error(t, Validate(c))
}

func TestValidate_BadStorePathMode(t *testing.T) {
	c := validConfig()
	c.StorePathMode = "bogus"
	assert.Error(t, Validate(c))
}

func TestValidate_ReservedExceedsAverage(t *testing.T) {
	c := validConfig()
	c.StorageReservedMb = 200
	c.AvgStorageReservedMb = 100
	assert.Error(t, Validate(c))
}
