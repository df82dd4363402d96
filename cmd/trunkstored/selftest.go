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

package main

import (
	"errors"
	"fmt"

	"github.com/trunkstore/trunkstore/internal/allocator"
)

// runSelfTest drives the scripted S1-S6 scenarios from spec.md §8 against a
// freshly built store and reports the first failure, standing in for the
// integration entry point a real deployment would wire to RPC (see
// SPEC_FULL.md A6).
func runSelfTest(s *Store) error {
	check := func(name string, cond bool, detail string) error {
		if !cond {
			return fmt.Errorf("self-test %s failed: %s", name, detail)
		}
		fmt.Printf("self-test %s: ok\n", name)
		return nil
	}

	// S1: fresh state; alloc(1024) rounds up to MIN (4096), lands at
	// trunk id 1 offset 0.
	e1, err := s.Alloc.Alloc(1024)
	if err != nil {
		return fmt.Errorf("S1: alloc(1024): %w", err)
	}
	if err := check("S1", e1.File.ID == 1 && e1.File.Offset == 0 && e1.File.Size == 4096,
		fmt.Sprintf("got %s", e1.String())); err != nil {
		return err
	}

	// S2: alloc(8192) continues from the same trunk's remainder.
	e2, err := s.Alloc.Alloc(8192)
	if err != nil {
		return fmt.Errorf("S2: alloc(8192): %w", err)
	}
	if err := check("S2", e2.File.ID == e1.File.ID && e2.File.Offset == 4096 && e2.File.Size == 8192,
		fmt.Sprintf("got %s", e2.String())); err != nil {
		return err
	}

	// S3: cancel e2 -> it reappears as FREE at the same offset.
	if err := s.Alloc.Confirm(e2, false); err != nil {
		return fmt.Errorf("S3: confirm(cancel): %w", err)
	}
	e3, err := s.Alloc.Alloc(8192)
	if err != nil {
		return fmt.Errorf("S3: re-alloc(8192): %w", err)
	}
	if err := check("S3", e3.File.ID == e2.File.ID && e3.File.Offset == e2.File.Offset,
		fmt.Sprintf("got %s, want reuse of %s", e3.String(), e2.String())); err != nil {
		return err
	}

	// S4: confirm(success) removes the extent; the next alloc(8192) comes
	// from beyond it, not from the same offset.
	if err := s.Alloc.Confirm(e3, true); err != nil {
		return fmt.Errorf("S4: confirm(success): %w", err)
	}
	e4, err := s.Alloc.Alloc(8192)
	if err != nil {
		return fmt.Errorf("S4: alloc(8192): %w", err)
	}
	if err := check("S4", e4.File.ID == e3.File.ID && e4.File.Offset == e3.File.Offset+e3.File.Size,
		fmt.Sprintf("got %s", e4.String())); err != nil {
		return err
	}
	if err := s.Alloc.Confirm(e4, true); err != nil {
		return fmt.Errorf("S4: cleanup confirm(success): %w", err)
	}

	// S5: a request as large as a whole trunk exceeds the max slot class
	// (TRUNK/2) and must be rejected NO_SLOT.
	_, err = s.Alloc.Alloc(uint32(s.cfg.TrunkFileSize))
	if err := check("S5", errors.Is(err, allocator.ErrNoSlot),
		fmt.Sprintf("got err=%v", err)); err != nil {
		return err
	}

	// S6: exhaust the remainder of trunk 1 with MIN-sized allocations,
	// then the next alloc(MIN) must create trunk 2.
	var lastID uint32
	for {
		e, err := s.Alloc.Alloc(uint32(s.cfg.SlotMinSize))
		if err != nil {
			return fmt.Errorf("S6: draining trunk 1: %w", err)
		}
		lastID = e.File.ID
		if lastID != e1.File.ID {
			break
		}
	}
	if err := check("S6", lastID == e1.File.ID+1,
		fmt.Sprintf("expected trunk %d, got %d", e1.File.ID+1, lastID)); err != nil {
		return err
	}

	fmt.Println("self-test: all scenarios passed")
	return nil
}
