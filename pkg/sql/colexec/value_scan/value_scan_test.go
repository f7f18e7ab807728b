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

package value_scan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vexecdb/vexec/pkg/common/mpool"
	"github.com/vexecdb/vexec/pkg/container/batch"
	"github.com/vexecdb/vexec/pkg/container/types"
	"github.com/vexecdb/vexec/pkg/container/vector"
	"github.com/vexecdb/vexec/pkg/vm"
	"github.com/vexecdb/vexec/pkg/vm/process"
)

func TestValueScan(t *testing.T) {
	mp := mpool.MustNewZero()
	proc := process.New(context.Background(), mp)

	makeBatch := func(vals []int64) *batch.Batch {
		bat := batch.New()
		vec := vector.NewVec(types.T_int64.ToType())
		require.NoError(t, vector.AppendFixedList(vec, vals, mp))
		bat.Vecs = []*vector.Vector{vec}
		bat.SetRowCount(len(vals))
		return bat
	}

	vs := NewArgument()
	vs.Batches = []*batch.Batch{makeBatch([]int64{1, 2}), makeBatch([]int64{3})}
	require.NoError(t, vs.Prepare(proc))

	var rows int
	for {
		res, err := vs.Call(proc)
		require.NoError(t, err)
		if res.Status == vm.ExecStop {
			require.Nil(t, res.Batch)
			break
		}
		rows += res.Batch.RowCount()
	}
	require.Equal(t, 3, rows)

	vs.Free(proc, false, nil)
	require.Equal(t, int64(0), mp.CurrNB())
}
