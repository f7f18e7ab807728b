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
	"unsafe"

	"github.com/RoaringBitmap/roaring"

	"github.com/vexecdb/vexec/pkg/common/moerr"
	"github.com/vexecdb/vexec/pkg/common/mpool"
	"github.com/vexecdb/vexec/pkg/container/nulls"
	"github.com/vexecdb/vexec/pkg/container/types"
	"github.com/vexecdb/vexec/pkg/container/vector"
)

// blockAgg is the executor shape shared by min and sum. fill folds one
// value into a running partial; merge folds two partials, either of which
// may be empty. Both must be commutative and associative so that fills
// from arbitrarily re-sliced blocks converge to the same state.
type blockAgg[T1, T2 types.FixedSizeT] struct {
	mp    *mpool.MPool
	aggID int64
	otyp  types.Type

	da []byte
	vs []T2
	es []bool

	// emptyNull makes a never-filled group flush as NULL; sums flush
	// their zero value instead.
	emptyNull bool

	fill  func(acc T2, empty bool, v T1) (T2, bool)
	merge func(a, b T2, ae, be bool) (T2, bool)
}

func (exec *blockAgg[T1, T2]) AggID() int64 {
	return exec.aggID
}

func (exec *blockAgg[T1, T2]) OutputType() types.Type {
	return exec.otyp
}

func (exec *blockAgg[T1, T2]) GroupGrow(more int) error {
	var t T2
	n := len(exec.es)
	sz := (n + more) * int(unsafe.Sizeof(t))
	da, err := exec.mp.Grow(exec.da, sz)
	if err != nil {
		return err
	}
	exec.da = da
	exec.vs = types.DecodeSlice[T2](da)
	for i := 0; i < more; i++ {
		exec.es = append(exec.es, true)
	}
	return nil
}

func (exec *blockAgg[T1, T2]) BlockFill(g int, vec *vector.Vector, mask *roaring.Bitmap) error {
	if mask == nil || mask.IsEmpty() || vec.IsConstNull() {
		return nil
	}
	var acc T2
	accEmpty := true
	if vec.IsConst() {
		v := vector.GetFixedAt[T1](vec, 0)
		n := int(mask.GetCardinality())
		for i := 0; i < n; i++ {
			acc, accEmpty = exec.fill(acc, accEmpty, v)
		}
	} else {
		vals := vector.MustFixedCol[T1](vec)
		nsp := vec.GetNulls()
		it := mask.Iterator()
		for it.HasNext() {
			row := it.Next()
			if nulls.Contains(nsp, uint64(row)) {
				continue
			}
			acc, accEmpty = exec.fill(acc, accEmpty, vals[row])
		}
	}
	if accEmpty {
		return nil
	}
	exec.vs[g], exec.es[g] = exec.merge(exec.vs[g], acc, exec.es[g], false)
	return nil
}

func (exec *blockAgg[T1, T2]) Merge(other AggFuncExec, g, g2 int) error {
	o, ok := other.(*blockAgg[T1, T2])
	if !ok || o.aggID != exec.aggID {
		return moerr.NewInternal(context.Background(), "merge of mismatched aggregate executors")
	}
	exec.vs[g], exec.es[g] = exec.merge(exec.vs[g], o.vs[g2], exec.es[g], o.es[g2])
	return nil
}

func (exec *blockAgg[T1, T2]) Flush() (*vector.Vector, error) {
	res := vector.NewVec(exec.otyp)
	for g := range exec.es {
		isNull := exec.es[g] && exec.emptyNull
		if err := vector.AppendFixed(res, exec.vs[g], isNull, exec.mp); err != nil {
			res.Free(exec.mp)
			return nil, err
		}
	}
	return res, nil
}

func (exec *blockAgg[T1, T2]) Free() {
	if exec.da != nil {
		exec.mp.Free(exec.da)
		exec.da = nil
		exec.vs = nil
	}
	exec.es = nil
}

// countAgg counts the non-null selected rows of its input. It needs no
// value access, so it serves every input type including var-length ones.
// An empty group counts as 0, never null.
type countAgg struct {
	mp *mpool.MPool
	da []byte
	vs []int64
}

func (exec *countAgg) AggID() int64 {
	return AggIdCount
}

func (exec *countAgg) OutputType() types.Type {
	return types.T_int64.ToType()
}

func (exec *countAgg) GroupGrow(more int) error {
	n := len(exec.vs)
	da, err := exec.mp.Grow(exec.da, (n+more)*8)
	if err != nil {
		return err
	}
	exec.da = da
	exec.vs = types.DecodeSlice[int64](da)
	return nil
}

func (exec *countAgg) BlockFill(g int, vec *vector.Vector, mask *roaring.Bitmap) error {
	if mask == nil || mask.IsEmpty() || vec.IsConstNull() {
		return nil
	}
	cnt := int64(mask.GetCardinality())
	if !vec.IsConst() && vec.HasNull() {
		nsp := vec.GetNulls()
		it := mask.Iterator()
		for it.HasNext() {
			if nulls.Contains(nsp, uint64(it.Next())) {
				cnt--
			}
		}
	}
	exec.vs[g] += cnt
	return nil
}

func (exec *countAgg) Merge(other AggFuncExec, g, g2 int) error {
	o, ok := other.(*countAgg)
	if !ok {
		return moerr.NewInternal(context.Background(), "merge of mismatched aggregate executors")
	}
	exec.vs[g] += o.vs[g2]
	return nil
}

func (exec *countAgg) Flush() (*vector.Vector, error) {
	res := vector.NewVec(types.T_int64.ToType())
	if err := vector.AppendFixedList(res, exec.vs, exec.mp); err != nil {
		res.Free(exec.mp)
		return nil, err
	}
	return res, nil
}

func (exec *countAgg) Free() {
	if exec.da != nil {
		exec.mp.Free(exec.da)
		exec.da = nil
		exec.vs = nil
	}
}

func makeCount(mp *mpool.MPool, _ types.Type) (AggFuncExec, error) {
	return &countAgg{mp: mp}, nil
}
