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

import "fmt"

func isPowerOfTwo(v uint64) bool {
	return v != 0 && v&(v-1) == 0
}

// Validate returns a non-nil error if the config is invalid, mirroring the
// teacher's ValidateConfig: one small purpose-built checker per concern.
func Validate(c *StoreConfig) error {
	if len(c.StoragePaths) == 0 {
		return fmt.Errorf("store-paths must not be empty")
	}
	if c.SlotMinSize == 0 || !isPowerOfTwo(uint64(c.SlotMinSize)) {
		return fmt.Errorf("slot-min-size must be a positive power of two, got %d", c.SlotMinSize)
	}
	if c.TrunkFileSize == 0 || uint64(c.TrunkFileSize)%uint64(c.SlotMinSize) != 0 {
		return fmt.Errorf("trunk-file-size (%d) must be a non-zero multiple of slot-min-size (%d)", c.TrunkFileSize, c.SlotMinSize)
	}
	if c.StorePathMode != RoundRobin && c.StorePathMode != LoadBalance {
		return fmt.Errorf("invalid store-path-mode: %s", c.StorePathMode)
	}
	if c.StorageReservedMb > c.AvgStorageReservedMb {
		return fmt.Errorf("storage-reserved-mb (%d) must not exceed avg-storage-reserved-mb (%d)", c.StorageReservedMb, c.AvgStorageReservedMb)
	}
	return nil
}
