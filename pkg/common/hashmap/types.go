// Copyright 2024 the vexec Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package hashmap implements the grouping maps used by aggregation. A map
// assigns every distinct key a dense 1-based group id; 0 is reserved to
// mean "no group". A null key forms its own group.
package hashmap

import (
	"github.com/vexecdb/vexec/pkg/container/vector"
)

// UnitLimit is the largest number of rows one Insert call may cover.
// Callers walk their batches in units of this size.
const UnitLimit = 256

type HashMap interface {
	// GroupCount returns the number of distinct groups seen so far.
	GroupCount() uint64

	NewIterator() Iterator

	Free()
}

type Iterator interface {
	// Insert maps rows [start, start+count) of the key vectors to group
	// ids. When sels is non-nil it names the rows instead and start/count
	// index into sels. New keys get fresh ids. count must not exceed
	// UnitLimit; the returned slice is valid until the next call.
	Insert(start, count int, vecs []*vector.Vector, sels []int64) ([]uint64, error)

	// Find is like Insert but never creates groups; absent keys map to 0.
	Find(start, count int, vecs []*vector.Vector, sels []int64) []uint64
}
