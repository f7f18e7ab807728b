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

// Package mergegroup folds the partial batches of parallel grouping
// stages into final results. A partial batch carries one row per group:
// the key column plus live aggregate state attached to the batch.
package mergegroup

import (
	"bytes"

	"github.com/vexecdb/vexec/pkg/common/hashmap"
	"github.com/vexecdb/vexec/pkg/common/moerr"
	"github.com/vexecdb/vexec/pkg/container/batch"
	"github.com/vexecdb/vexec/pkg/container/types"
	"github.com/vexecdb/vexec/pkg/container/vector"
	"github.com/vexecdb/vexec/pkg/sql/colexec/aggexec"
	"github.com/vexecdb/vexec/pkg/vm"
	"github.com/vexecdb/vexec/pkg/vm/process"
)

const (
	buildPhase = iota
	evalPhase
	endPhase
)

type MergeGroup struct {
	vm.OperatorBase

	ctr container
}

type container struct {
	phase int

	hash hashmap.HashMap
	itr  hashmap.Iterator

	aggs       []aggexec.AggFuncExec
	groupVec   *vector.Vector
	groupCount int

	resultVecs []*vector.Vector
	outBatch   *batch.Batch
}

func NewArgument() *MergeGroup {
	return &MergeGroup{}
}

func (merge *MergeGroup) String(buf *bytes.Buffer) {
	buf.WriteString("merge_group")
}

func (merge *MergeGroup) Prepare(_ *process.Process) error {
	merge.ctr.phase = buildPhase
	merge.ctr.groupCount = 0
	return nil
}

func (merge *MergeGroup) Call(proc *process.Process) (vm.CallResult, error) {
	result := vm.NewCallResult()
	anal := proc.GetAnalyze(merge.Idx)
	anal.Start()
	defer anal.Stop()

	ctr := &merge.ctr
	for ctr.phase == buildPhase {
		select {
		case <-proc.Ctx.Done():
			return result, moerr.NewQueryInterrupted(proc.Ctx)
		default:
		}

		res, err := vm.ChildCall(merge, proc, 0)
		if err != nil {
			return result, err
		}
		if res.Batch != nil && !res.Batch.IsEmpty() {
			anal.Input(res.Batch)
			if err := ctr.mergeBatch(proc, res.Batch); err != nil {
				return result, err
			}
		}
		if res.Status == vm.ExecStop {
			ctr.phase = evalPhase
		}
	}

	if ctr.phase != evalPhase {
		result.Status = vm.ExecStop
		return result, nil
	}

	if ctr.aggs == nil {
		ctr.phase = endPhase
		result.Status = vm.ExecStop
		return result, nil
	}

	for _, agg := range ctr.aggs {
		vec, err := agg.Flush()
		if err != nil {
			return result, err
		}
		ctr.resultVecs = append(ctr.resultVecs, vec)
	}
	bat := batch.New()
	if ctr.groupVec != nil {
		bat.Vecs = append(bat.Vecs, ctr.groupVec)
	}
	bat.Vecs = append(bat.Vecs, ctr.resultVecs...)
	bat.SetRowCount(ctr.groupCount)
	ctr.outBatch = bat
	ctr.phase = endPhase
	anal.Output(bat)
	result.Batch = bat
	result.Status = vm.ExecStop
	return result, nil
}

// mergeBatch folds one partial batch in and releases it. Row r of the
// batch is group r of the attached aggregate state; partial batches are
// owned by this operator once received.
func (ctr *container) mergeBatch(proc *process.Process, bat *batch.Batch) error {
	defer bat.Clean(proc.Mp())
	if len(bat.Vecs) == 0 {
		// keyless partials all merge into one global group
		if ctr.aggs == nil {
			ctr.aggs = bat.Aggs
			bat.Aggs = nil
			ctr.groupCount = 1
			return nil
		}
		for i, agg := range ctr.aggs {
			if err := agg.Merge(bat.Aggs[i], 0, 0); err != nil {
				return moerr.NewAggEvalFailed(proc.Ctx, err)
			}
		}
		return nil
	}

	keyVec := bat.Vecs[0]
	if ctr.hash == nil {
		var err error
		if ctr.hash, err = hashmap.BuildHashMap([]types.Type{keyVec.GetType()}, proc.Mp()); err != nil {
			return err
		}
		ctr.itr = ctr.hash.NewIterator()
		ctr.groupVec = vector.NewVec(keyVec.GetType())
	}
	if ctr.aggs == nil {
		// adopt the first partial's state, registering its groups
		count := bat.RowCount()
		keyVecs := []*vector.Vector{keyVec}
		for start := 0; start < count; start += hashmap.UnitLimit {
			n := count - start
			if n > hashmap.UnitLimit {
				n = hashmap.UnitLimit
			}
			vals, err := ctr.itr.Insert(start, n, keyVecs, nil)
			if err != nil {
				return err
			}
			for i, v := range vals {
				if int(v) != ctr.groupCount+1 {
					return moerr.NewInternal(proc.Ctx, "duplicate group key in partial batch")
				}
				if err := ctr.groupVec.UnionOne(keyVec, start+i, proc.Mp()); err != nil {
					return err
				}
				ctr.groupCount++
			}
		}
		ctr.aggs = bat.Aggs
		bat.Aggs = nil
		return nil
	}

	count := bat.RowCount()
	keyVecs := []*vector.Vector{keyVec}
	for start := 0; start < count; start += hashmap.UnitLimit {
		n := count - start
		if n > hashmap.UnitLimit {
			n = hashmap.UnitLimit
		}
		vals, err := ctr.itr.Insert(start, n, keyVecs, nil)
		if err != nil {
			return err
		}
		for i, v := range vals {
			if int(v) > ctr.groupCount {
				if err := ctr.groupVec.UnionOne(keyVec, start+i, proc.Mp()); err != nil {
					return err
				}
				for _, agg := range ctr.aggs {
					if err := agg.GroupGrow(1); err != nil {
						return err
					}
				}
				ctr.groupCount++
			}
			for a, agg := range ctr.aggs {
				if err := agg.Merge(bat.Aggs[a], int(v)-1, start+i); err != nil {
					return moerr.NewAggEvalFailed(proc.Ctx, err)
				}
			}
		}
	}
	return nil
}

func (merge *MergeGroup) Free(proc *process.Process, _ bool, _ error) {
	ctr := &merge.ctr
	if ctr.hash != nil {
		ctr.hash.Free()
		ctr.hash = nil
	}
	for _, agg := range ctr.aggs {
		if agg != nil {
			agg.Free()
		}
	}
	ctr.aggs = nil
	if ctr.groupVec != nil {
		ctr.groupVec.Free(proc.Mp())
		ctr.groupVec = nil
	}
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
}
