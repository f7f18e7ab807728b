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

package aggexec

import (
	"context"

	"github.com/RoaringBitmap/roaring"
	"github.com/axiomhq/hyperloglog"

	"github.com/vexecdb/vexec/pkg/common/moerr"
	"github.com/vexecdb/vexec/pkg/common/mpool"
	"github.com/vexecdb/vexec/pkg/container/nulls"
	"github.com/vexecdb/vexec/pkg/container/types"
	"github.com/vexecdb/vexec/pkg/container/vector"
)

// approxCountDistinctAgg keeps one hyperloglog sketch per group. Sketch
// union is commutative, so fills and merges may arrive in any order.
type approxCountDistinctAgg struct {
	mp       *mpool.MPool
	sketches []*hyperloglog.Sketch
}

func makeApproxCountDistinct(mp *mpool.MPool, _ types.Type) (AggFuncExec, error) {
	return &approxCountDistinctAgg{mp: mp}, nil
}

func (exec *approxCountDistinctAgg) AggID() int64 {
	return AggIdApproxCountDistinct
}

func (exec *approxCountDistinctAgg) OutputType() types.Type {
	return types.T_uint64.ToType()
}

func (exec *approxCountDistinctAgg) GroupGrow(more int) error {
	for i := 0; i < more; i++ {
		exec.sketches = append(exec.sketches, hyperloglog.New())
	}
	return nil
}

func (exec *approxCountDistinctAgg) BlockFill(g int, vec *vector.Vector, mask *roaring.Bitmap) error {
	if mask == nil || mask.IsEmpty() || vec.IsConstNull() {
		return nil
	}
	sk := exec.sketches[g]
	if vec.IsConst() {
		sk.Insert(vec.GetRawBytes(0))
		return nil
	}
	nsp := vec.GetNulls()
	it := mask.Iterator()
	for it.HasNext() {
		row := it.Next()
		if nulls.Contains(nsp, uint64(row)) {
			continue
		}
		sk.Insert(vec.GetRawBytes(int(row)))
	}
	return nil
}

func (exec *approxCountDistinctAgg) Merge(other AggFuncExec, g, g2 int) error {
	o, ok := other.(*approxCountDistinctAgg)
	if !ok {
		return moerr.NewInternal(context.Background(), "merge of mismatched aggregate executors")
	}
	return exec.sketches[g].Merge(o.sketches[g2])
}

func (exec *approxCountDistinctAgg) Flush() (*vector.Vector, error) {
	res := vector.NewVec(types.T_uint64.ToType())
	for _, sk := range exec.sketches {
		if err := vector.AppendFixed(res, sk.Estimate(), false, exec.mp); err != nil {
			res.Free(exec.mp)
			return nil, err
		}
	}
	return res, nil
}

func (exec *approxCountDistinctAgg) Free() {
	exec.sketches = nil
}
