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

package mergegroup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vexecdb/vexec/pkg/common/mpool"
	"github.com/vexecdb/vexec/pkg/container/batch"
	"github.com/vexecdb/vexec/pkg/container/types"
	"github.com/vexecdb/vexec/pkg/container/vector"
	"github.com/vexecdb/vexec/pkg/sql/colexec/aggexec"
	"github.com/vexecdb/vexec/pkg/sql/colexec/group"
	"github.com/vexecdb/vexec/pkg/sql/colexec/merge"
	"github.com/vexecdb/vexec/pkg/sql/colexec/value_scan"
	"github.com/vexecdb/vexec/pkg/vm"
	"github.com/vexecdb/vexec/pkg/vm/process"
)

func keyedBatch(t *testing.T, mp *mpool.MPool, keys []int32, bits []bool, data []int32) *batch.Batch {
	bat := batch.New()
	keyVec := vector.NewVec(types.T_int32.ToType())
	require.NoError(t, vector.AppendFixedList(keyVec, keys, mp))
	bitVec := vector.NewVec(types.T_bool.ToType())
	require.NoError(t, vector.AppendFixedList(bitVec, bits, mp))
	dataVec := vector.NewVec(types.T_int32.ToType())
	require.NoError(t, vector.AppendFixedList(dataVec, data, mp))
	bat.Vecs = []*vector.Vector{keyVec, bitVec, dataVec}
	bat.SetRowCount(len(keys))
	return bat
}

// runPartial drains a value_scan -> group(partial) pipeline into ch.
func runPartial(t *testing.T, proc *process.Process, batches []*batch.Batch, ch chan *batch.Batch) {
	vs := value_scan.NewArgument()
	vs.Batches = batches
	op := group.NewArgument().WithKey(0).WithBitset(1).
		WithAggs(aggexec.AggSpec{Op: aggexec.AggIdSum, ColPos: 2}).
		WithEval(false)
	op.AppendChild(vs)

	err := vm.Run(op, proc, func(bat *batch.Batch) error {
		ch <- bat
		return nil
	})
	require.NoError(t, err)
}

func TestMergePartials(t *testing.T) {
	mp := mpool.MustNewZero()
	proc := process.New(context.Background(), mp)

	ch := make(chan *batch.Batch, 4)
	runPartial(t, proc, []*batch.Batch{
		keyedBatch(t, mp, []int32{1, 2, 3}, []bool{true, true, true}, []int32{10, 20, 30}),
	}, ch)
	runPartial(t, proc, []*batch.Batch{
		keyedBatch(t, mp, []int32{2, 3, 4}, []bool{true, false, true}, []int32{5, 6, 7}),
	}, ch)
	close(ch)

	mg := NewArgument()
	mg.AppendChild(merge.NewArgument(ch))

	got := make(map[int32]int64)
	err := vm.Run(mg, proc, func(bat *batch.Batch) error {
		for r := 0; r < bat.RowCount(); r++ {
			got[vector.GetFixedAt[int32](bat.Vecs[0], r)] = vector.GetFixedAt[int64](bat.Vecs[1], r)
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, map[int32]int64{1: 10, 2: 25, 3: 30, 4: 7}, got)
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestMergeSinglePartialPassesThrough(t *testing.T) {
	mp := mpool.MustNewZero()
	proc := process.New(context.Background(), mp)

	ch := make(chan *batch.Batch, 1)
	runPartial(t, proc, []*batch.Batch{
		keyedBatch(t, mp, []int32{9, 9, 8}, []bool{true, true, true}, []int32{1, 2, 3}),
	}, ch)
	close(ch)

	mg := NewArgument()
	mg.AppendChild(merge.NewArgument(ch))

	got := make(map[int32]int64)
	err := vm.Run(mg, proc, func(bat *batch.Batch) error {
		for r := 0; r < bat.RowCount(); r++ {
			got[vector.GetFixedAt[int32](bat.Vecs[0], r)] = vector.GetFixedAt[int64](bat.Vecs[1], r)
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, map[int32]int64{9: 3, 8: 3}, got)
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestMergeKeylessPartials(t *testing.T) {
	mp := mpool.MustNewZero()
	proc := process.New(context.Background(), mp)

	ch := make(chan *batch.Batch, 2)
	makePartial := func(data []int32) {
		bat := batch.New()
		bitVec := vector.NewVec(types.T_bool.ToType())
		dataVec := vector.NewVec(types.T_int32.ToType())
		for _, v := range data {
			require.NoError(t, vector.AppendFixed(bitVec, true, false, mp))
			require.NoError(t, vector.AppendFixed(dataVec, v, false, mp))
		}
		bat.Vecs = []*vector.Vector{bitVec, dataVec}
		bat.SetRowCount(len(data))

		vs := value_scan.NewArgument()
		vs.Batches = []*batch.Batch{bat}
		op := group.NewArgument().WithBitset(0).
			WithAggs(aggexec.AggSpec{Op: aggexec.AggIdSum, ColPos: 1}).
			WithEval(false)
		op.AppendChild(vs)

		require.NoError(t, vm.Run(op, proc, func(b *batch.Batch) error {
			ch <- b
			return nil
		}))
	}

	makePartial([]int32{1, 2, 3})
	makePartial([]int32{10, 20})
	close(ch)

	mg := NewArgument()
	mg.AppendChild(merge.NewArgument(ch))

	var sum int64
	var rows int
	err := vm.Run(mg, proc, func(bat *batch.Batch) error {
		rows += bat.RowCount()
		sum = vector.GetFixedAt[int64](bat.Vecs[0], 0)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, rows)
	require.Equal(t, int64(36), sum)
	require.Equal(t, int64(0), mp.CurrNB())
}
