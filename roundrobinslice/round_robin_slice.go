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

// Package roundrobinslice provides a thread-safe generic container that
// cycles through a fixed set of items in order, wrapping back to the start.
package roundrobinslice

import "sync"

// RoundRobin cycles through a fixed slice of items, one per Get call.
type RoundRobin[T any] struct {
	mu    sync.Mutex
	items []T
	next  int
}

// New builds a RoundRobin over items. The slice is copied; mutating the
// original afterward has no effect.
func New[T any](items []T) *RoundRobin[T] {
	cp := make([]T, len(items))
	copy(cp, items)
	return &RoundRobin[T]{items: cp}
}

// Get returns the next item in the cycle. ok is false iff the container is
// empty, in which case the zero value of T is returned.
func (r *RoundRobin[T]) Get() (val T, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return val, false
	}
	val = r.items[r.next]
	r.next = (r.next + 1) % len(r.items)
	return val, true
}

// Len returns the number of items in the cycle.
func (r *RoundRobin[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// PeekIndex returns the index Get would return next, without advancing it.
func (r *RoundRobin[T]) PeekIndex() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.next
}

// SeekIndex forces the next Get to return the item at index i, used when a
// caller needs to resynchronize the cycle after picking an item out of
// order (e.g. a threshold-driven override of the normal rotation).
func (r *RoundRobin[T]) SeekIndex(i int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return
	}
	r.next = i % len(r.items)
}
