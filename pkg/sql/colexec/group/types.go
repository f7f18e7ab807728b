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

// Package group implements blockwise hash aggregation. Input batches
// carry a grouping key column, an optional row-presence bitset column
// and the aggregate argument columns. Rows whose bitset slot is false
// are invisible: they feed no accumulator and never create a group.
package group

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/vexecdb/vexec/pkg/common/hashmap"
	"github.com/vexecdb/vexec/pkg/container/batch"
	"github.com/vexecdb/vexec/pkg/container/vector"
	"github.com/vexecdb/vexec/pkg/sql/colexec"
	"github.com/vexecdb/vexec/pkg/sql/colexec/aggexec"
	"github.com/vexecdb/vexec/pkg/vm"
	"github.com/vexecdb/vexec/pkg/vm/process"
)

const (
	buildPhase = iota
	evalPhase
	endPhase
)

type Group struct {
	vm.OperatorBase

	// KeyPos is the batch position of the grouping key, -1 for a single
	// global group.
	KeyPos int32

	// BitsetPos is the batch position of the boolean presence column,
	// -1 when every row is present.
	BitsetPos int32

	Aggs []aggexec.AggSpec

	// NeedEval makes this stage evaluate final results. When false the
	// stage emits one partial batch carrying live aggregate state for a
	// downstream merge.
	NeedEval bool

	// SplitSingletonBlocks emits one single-row batch per group instead
	// of one combined batch.
	SplitSingletonBlocks bool

	ctr container
}

type container struct {
	phase int

	keyExec  colexec.ExpressionExecutor
	aggExecs []colexec.ExpressionExecutor

	hash hashmap.HashMap
	itr  hashmap.Iterator

	aggs      []aggexec.AggFuncExec
	handedOff bool

	// groupVec row g holds the key of group id g+1
	groupVec   *vector.Vector
	groupCount int

	// scratch reused across batches
	sels      []int64
	batchMask map[uint64]*roaring.Bitmap

	// evaluated results
	resultVecs []*vector.Vector
	emitted    int

	// outBatch aliases groupVec and resultVecs in combined mode;
	// splitBatch owns its singleton vectors in split mode
	outBatch   *batch.Batch
	splitBatch *batch.Batch
}

func NewArgument() *Group {
	return &Group{KeyPos: -1, BitsetPos: -1}
}

func (group *Group) WithKey(pos int32) *Group {
	group.KeyPos = pos
	return group
}

func (group *Group) WithBitset(pos int32) *Group {
	group.BitsetPos = pos
	return group
}

func (group *Group) WithAggs(aggs ...aggexec.AggSpec) *Group {
	group.Aggs = aggs
	return group
}

func (group *Group) WithEval(needEval bool) *Group {
	group.NeedEval = needEval
	return group
}

func (group *Group) WithSplitSingletonBlocks(split bool) *Group {
	group.SplitSingletonBlocks = split
	return group
}

func (group *Group) Free(proc *process.Process, _ bool, _ error) {
	ctr := &group.ctr
	if ctr.keyExec != nil {
		ctr.keyExec.Free()
		ctr.keyExec = nil
	}
	for _, exec := range ctr.aggExecs {
		exec.Free()
	}
	ctr.aggExecs = nil
	if ctr.hash != nil {
		ctr.hash.Free()
		ctr.hash = nil
	}
	if !ctr.handedOff {
		for _, agg := range ctr.aggs {
			if agg != nil {
				agg.Free()
			}
		}
		if ctr.groupVec != nil {
			ctr.groupVec.Free(proc.Mp())
		}
	}
	ctr.aggs = nil
	ctr.groupVec = nil
	for _, vec := range ctr.resultVecs {
		if vec != nil {
			vec.Free(proc.Mp())
		}
	}
	ctr.resultVecs = nil
	if ctr.outBatch != nil {
		ctr.outBatch.Vecs = nil
		ctr.outBatch = nil
	}
	if ctr.splitBatch != nil {
		ctr.splitBatch.Clean(proc.Mp())
		ctr.splitBatch = nil
	}
}
