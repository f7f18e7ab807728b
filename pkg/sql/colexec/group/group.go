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

package group

import (
	"bytes"

	"github.com/RoaringBitmap/roaring"

	"github.com/vexecdb/vexec/pkg/common/hashmap"
	"github.com/vexecdb/vexec/pkg/common/moerr"
	"github.com/vexecdb/vexec/pkg/container/batch"
	"github.com/vexecdb/vexec/pkg/container/types"
	"github.com/vexecdb/vexec/pkg/container/vector"
	"github.com/vexecdb/vexec/pkg/sql/colexec"
	"github.com/vexecdb/vexec/pkg/sql/colexec/aggexec"
	"github.com/vexecdb/vexec/pkg/vm"
	"github.com/vexecdb/vexec/pkg/vm/process"
)

func (group *Group) String(buf *bytes.Buffer) {
	buf.WriteString("group")
	if group.NeedEval {
		buf.WriteString("(final)")
	} else {
		buf.WriteString("(partial)")
	}
}

func (group *Group) Prepare(_ *process.Process) error {
	ctr := &group.ctr
	ctr.phase = buildPhase
	ctr.groupCount = 0
	ctr.emitted = 0
	ctr.handedOff = false
	ctr.sels = ctr.sels[:0]
	ctr.batchMask = make(map[uint64]*roaring.Bitmap)
	if group.KeyPos >= 0 {
		ctr.keyExec = colexec.NewColumnExpression(group.KeyPos, types.T_any.ToType())
	}
	ctr.aggExecs = make([]colexec.ExpressionExecutor, len(group.Aggs))
	for i, spec := range group.Aggs {
		ctr.aggExecs[i] = colexec.NewColumnExpression(spec.ColPos, types.T_any.ToType())
	}
	return nil
}

func (group *Group) Call(proc *process.Process) (vm.CallResult, error) {
	result := vm.NewCallResult()
	anal := proc.GetAnalyze(group.Idx)
	anal.Start()
	defer anal.Stop()

	ctr := &group.ctr
	for ctr.phase == buildPhase {
		select {
		case <-proc.Ctx.Done():
			return result, moerr.NewQueryInterrupted(proc.Ctx)
		default:
		}

		res, err := vm.ChildCall(group, proc, 0)
		if err != nil {
			return result, err
		}
		if res.Batch != nil && !res.Batch.IsEmpty() {
			anal.Input(res.Batch)
			if err := group.buildBatch(proc, res.Batch); err != nil {
				return result, err
			}
		}
		if res.Status == vm.ExecStop {
			ctr.phase = evalPhase
		}
	}

	if ctr.phase == evalPhase {
		return group.emit(proc, anal)
	}
	result.Status = vm.ExecStop
	return result, nil
}

// presenceMask reads the bitset column of bat into a bitmap of visible
// rows, or fills the full row range when the stage has no bitset column.
func (group *Group) presenceMask(proc *process.Process, bat *batch.Batch) (*roaring.Bitmap, error) {
	mask := roaring.New()
	rowCount := bat.RowCount()
	if group.BitsetPos < 0 {
		mask.AddRange(0, uint64(rowCount))
		return mask, nil
	}
	if int(group.BitsetPos) >= len(bat.Vecs) {
		return nil, moerr.NewInvalidState(proc.Ctx,
			"bitset position %d out of range, batch has %d columns", group.BitsetPos, len(bat.Vecs))
	}
	vec := bat.Vecs[group.BitsetPos]
	if vec.GetType().Oid != types.T_bool {
		return nil, moerr.NewTypeMismatch(proc.Ctx,
			"presence bitset is %s, want BOOL", vec.GetType())
	}
	if vec.IsConstNull() {
		return mask, nil
	}
	if vec.IsConst() {
		if vector.GetFixedAt[bool](vec, 0) {
			mask.AddRange(0, uint64(rowCount))
		}
		return mask, nil
	}
	if vec.Length() != rowCount {
		return nil, moerr.NewTypeMismatch(proc.Ctx,
			"presence bitset has %d rows, batch has %d", vec.Length(), rowCount)
	}
	bits := vector.MustFixedCol[bool](vec)
	for i, b := range bits {
		if b && !vec.IsNullAt(i) {
			mask.Add(uint32(i))
		}
	}
	return mask, nil
}

func (group *Group) initAggs(proc *process.Process, bat *batch.Batch) error {
	ctr := &group.ctr
	if ctr.aggs != nil {
		return nil
	}
	ctr.aggs = make([]aggexec.AggFuncExec, len(group.Aggs))
	for i, spec := range group.Aggs {
		vec, err := ctr.aggExecs[i].Eval(proc, []*batch.Batch{bat})
		if err != nil {
			return err
		}
		agg, err := aggexec.MakeAgg(proc.Mp(), spec.Op, vec.GetType())
		if err != nil {
			return err
		}
		ctr.aggs[i] = agg
	}
	if group.KeyPos < 0 {
		// single global group, present even on empty input
		for _, agg := range ctr.aggs {
			if err := agg.GroupGrow(1); err != nil {
				return err
			}
		}
		ctr.groupCount = 1
	}
	return nil
}

func (group *Group) buildBatch(proc *process.Process, bat *batch.Batch) error {
	ctr := &group.ctr
	if err := group.initAggs(proc, bat); err != nil {
		return err
	}

	mask, err := group.presenceMask(proc, bat)
	if err != nil {
		return err
	}
	if mask.IsEmpty() {
		return nil
	}

	argVecs := make([]*vector.Vector, len(ctr.aggExecs))
	for i, exec := range ctr.aggExecs {
		if argVecs[i], err = exec.Eval(proc, []*batch.Batch{bat}); err != nil {
			return err
		}
		if !argVecs[i].IsConst() && argVecs[i].Length() != bat.RowCount() {
			return moerr.NewTypeMismatch(proc.Ctx,
				"aggregate argument %d has %d rows, batch has %d", i, argVecs[i].Length(), bat.RowCount())
		}
	}

	if group.KeyPos < 0 {
		for i := range ctr.aggs {
			if err := ctr.aggs[i].BlockFill(0, argVecs[i], mask); err != nil {
				return moerr.NewAggEvalFailed(proc.Ctx, err)
			}
		}
		return nil
	}

	keyVec, err := ctr.keyExec.Eval(proc, []*batch.Batch{bat})
	if err != nil {
		return err
	}
	if !keyVec.IsConst() && keyVec.Length() != bat.RowCount() {
		return moerr.NewTypeMismatch(proc.Ctx,
			"group key has %d rows, batch has %d", keyVec.Length(), bat.RowCount())
	}
	if ctr.hash == nil {
		if ctr.hash, err = hashmap.BuildHashMap([]types.Type{keyVec.GetType()}, proc.Mp()); err != nil {
			return err
		}
		ctr.itr = ctr.hash.NewIterator()
		ctr.groupVec = vector.NewVec(keyVec.GetType())
	}

	// only visible rows reach the table, so a fully masked-out key never
	// creates a group
	ctr.sels = ctr.sels[:0]
	it := mask.Iterator()
	for it.HasNext() {
		ctr.sels = append(ctr.sels, int64(it.Next()))
	}

	for g := range ctr.batchMask {
		delete(ctr.batchMask, g)
	}
	keyVecs := []*vector.Vector{keyVec}
	for start := 0; start < len(ctr.sels); start += hashmap.UnitLimit {
		n := len(ctr.sels) - start
		if n > hashmap.UnitLimit {
			n = hashmap.UnitLimit
		}
		vals, err := ctr.itr.Insert(start, n, keyVecs, ctr.sels)
		if err != nil {
			return err
		}
		for i, v := range vals {
			row := ctr.sels[start+i]
			if int(v) > ctr.groupCount {
				if err := ctr.groupVec.UnionOne(keyVec, int(row), proc.Mp()); err != nil {
					return err
				}
				for _, agg := range ctr.aggs {
					if err := agg.GroupGrow(1); err != nil {
						return err
					}
				}
				ctr.groupCount++
			}
			m, ok := ctr.batchMask[v]
			if !ok {
				m = roaring.New()
				ctr.batchMask[v] = m
			}
			m.Add(uint32(row))
		}
	}

	for g, m := range ctr.batchMask {
		for i := range ctr.aggs {
			if err := ctr.aggs[i].BlockFill(int(g)-1, argVecs[i], m); err != nil {
				return moerr.NewAggEvalFailed(proc.Ctx, err)
			}
		}
	}
	return nil
}

func (group *Group) emit(proc *process.Process, anal process.Analyzer) (vm.CallResult, error) {
	result := vm.NewCallResult()
	ctr := &group.ctr

	if ctr.aggs == nil && ctr.groupCount == 0 {
		// no input rows and no global group to report
		ctr.phase = endPhase
		result.Status = vm.ExecStop
		return result, nil
	}

	if !group.NeedEval {
		if ctr.groupCount == 0 {
			// every row was masked out, nothing to hand off
			ctr.phase = endPhase
			result.Status = vm.ExecStop
			return result, nil
		}
		bat := batch.New()
		if ctr.groupVec != nil {
			bat.Vecs = []*vector.Vector{ctr.groupVec}
		}
		bat.Aggs = ctr.aggs
		bat.SetRowCount(ctr.groupCount)
		ctr.handedOff = true
		ctr.phase = endPhase
		anal.Output(bat)
		result.Batch = bat
		result.Status = vm.ExecStop
		return result, nil
	}

	if ctr.resultVecs == nil {
		for _, agg := range ctr.aggs {
			vec, err := agg.Flush()
			if err != nil {
				return result, err
			}
			ctr.resultVecs = append(ctr.resultVecs, vec)
		}
	}

	if !group.SplitSingletonBlocks {
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

	return group.emitSingleton(proc, anal)
}

// emitSingleton hands out one single-row batch per group across calls.
func (group *Group) emitSingleton(proc *process.Process, anal process.Analyzer) (vm.CallResult, error) {
	result := vm.NewCallResult()
	ctr := &group.ctr

	if ctr.splitBatch != nil {
		ctr.splitBatch.Clean(proc.Mp())
		ctr.splitBatch = nil
	}
	if ctr.emitted >= ctr.groupCount {
		ctr.phase = endPhase
		result.Status = vm.ExecStop
		return result, nil
	}

	g := ctr.emitted
	bat := batch.New()
	if ctr.groupVec != nil {
		key := vector.NewVec(ctr.groupVec.GetType())
		if err := key.UnionOne(ctr.groupVec, g, proc.Mp()); err != nil {
			key.Free(proc.Mp())
			return result, err
		}
		bat.Vecs = append(bat.Vecs, key)
	}
	for _, vec := range ctr.resultVecs {
		one := vector.NewVec(vec.GetType())
		if err := one.UnionOne(vec, g, proc.Mp()); err != nil {
			one.Free(proc.Mp())
			bat.Clean(proc.Mp())
			return result, err
		}
		bat.Vecs = append(bat.Vecs, one)
	}
	bat.SetRowCount(1)

	ctr.splitBatch = bat
	ctr.emitted++
	if ctr.emitted >= ctr.groupCount {
		ctr.phase = endPhase
		result.Status = vm.ExecStop
	}
	anal.Output(bat)
	result.Batch = bat
	return result, nil
}
