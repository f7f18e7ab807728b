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

	"github.com/vexecdb/vexec/pkg/common/moerr"
	"github.com/vexecdb/vexec/pkg/common/mpool"
	"github.com/vexecdb/vexec/pkg/container/types"
)

// sums widen to the largest type of their sign class to delay overflow
func newSum[T types.OrderedT, R int64 | uint64 | float64](mp *mpool.MPool, otyp types.Type) AggFuncExec {
	return &blockAgg[T, R]{
		mp:    mp,
		aggID: AggIdSum,
		otyp:  otyp,
		// a group that never saw a row sums to 0, not NULL
		emptyNull: false,
		fill: func(acc R, _ bool, v T) (R, bool) {
			return acc + R(v), false
		},
		merge: func(a, b R, ae, be bool) (R, bool) {
			if ae {
				return b, be
			}
			if be {
				return a, false
			}
			return a + b, false
		},
	}
}

func makeSum(mp *mpool.MPool, ityp types.Type) (AggFuncExec, error) {
	i64 := types.T_int64.ToType()
	u64 := types.T_uint64.ToType()
	f64 := types.T_float64.ToType()
	switch ityp.Oid {
	case types.T_int8:
		return newSum[int8, int64](mp, i64), nil
	case types.T_int16:
		return newSum[int16, int64](mp, i64), nil
	case types.T_int32:
		return newSum[int32, int64](mp, i64), nil
	case types.T_int64:
		return newSum[int64, int64](mp, i64), nil
	case types.T_uint8:
		return newSum[uint8, uint64](mp, u64), nil
	case types.T_uint16:
		return newSum[uint16, uint64](mp, u64), nil
	case types.T_uint32:
		return newSum[uint32, uint64](mp, u64), nil
	case types.T_uint64:
		return newSum[uint64, uint64](mp, u64), nil
	case types.T_float32:
		return newSum[float32, float64](mp, f64), nil
	case types.T_float64:
		return newSum[float64, float64](mp, f64), nil
	}
	return nil, moerr.NewNotSupported(context.Background(), "sum on %s", ityp)
}
