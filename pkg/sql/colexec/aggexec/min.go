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

func newMin[T types.OrderedT](mp *mpool.MPool, ityp types.Type) AggFuncExec {
	return &blockAgg[T, T]{
		mp:        mp,
		aggID:     AggIdMin,
		otyp:      ityp,
		emptyNull: true,
		fill: func(acc T, empty bool, v T) (T, bool) {
			if empty || v < acc {
				return v, false
			}
			return acc, false
		},
		merge: func(a, b T, ae, be bool) (T, bool) {
			if ae {
				return b, be
			}
			if be || a < b {
				return a, false
			}
			return b, false
		},
	}
}

func makeMin(mp *mpool.MPool, ityp types.Type) (AggFuncExec, error) {
	switch ityp.Oid {
	case types.T_int8:
		return newMin[int8](mp, ityp), nil
	case types.T_int16:
		return newMin[int16](mp, ityp), nil
	case types.T_int32:
		return newMin[int32](mp, ityp), nil
	case types.T_int64:
		return newMin[int64](mp, ityp), nil
	case types.T_uint8:
		return newMin[uint8](mp, ityp), nil
	case types.T_uint16:
		return newMin[uint16](mp, ityp), nil
	case types.T_uint32:
		return newMin[uint32](mp, ityp), nil
	case types.T_uint64:
		return newMin[uint64](mp, ityp), nil
	case types.T_float32:
		return newMin[float32](mp, ityp), nil
	case types.T_float64:
		return newMin[float64](mp, ityp), nil
	}
	return nil, moerr.NewNotSupported(context.Background(), "min on %s", ityp)
}
