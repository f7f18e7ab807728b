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

// Package aggexec implements block-at-a-time aggregate executors. An
// executor keeps one accumulator state per group; a fill reduces the
// selected rows of an input block to a partial value first and then
// folds that partial into the group state, so fills commute with any
// re-slicing of the input into blocks.
package aggexec

import (
	"context"

	"github.com/RoaringBitmap/roaring"

	"github.com/vexecdb/vexec/pkg/common/moerr"
	"github.com/vexecdb/vexec/pkg/common/mpool"
	"github.com/vexecdb/vexec/pkg/container/types"
	"github.com/vexecdb/vexec/pkg/container/vector"
)

const (
	AggIdMin int64 = iota + 1
	AggIdSum
	AggIdCount
	AggIdApproxCountDistinct
)

// AggNames maps operator names accepted by the planner and the CLI to ids.
var AggNames = map[string]int64{
	"min":                   AggIdMin,
	"sum":                   AggIdSum,
	"count":                 AggIdCount,
	"approx_count_distinct": AggIdApproxCountDistinct,
}

// AggSpec names one aggregate of a grouping stage: the operator and the
// batch position of its input column.
type AggSpec struct {
	Op     int64
	ColPos int32
}

// AggFuncExec is a single aggregate over all groups of one grouping
// stage. Group indexes are 0-based and dense.
type AggFuncExec interface {
	AggID() int64
	OutputType() types.Type

	// GroupGrow appends more zero states.
	GroupGrow(more int) error

	// BlockFill folds the rows of vec named by mask into group g's
	// state. An empty mask leaves the state untouched.
	BlockFill(g int, vec *vector.Vector, mask *roaring.Bitmap) error

	// Merge folds group g2 of other into group g of this executor.
	// other must come from MakeAgg with the same op and input type.
	Merge(other AggFuncExec, g, g2 int) error

	// Flush evaluates every group into a result vector owned by the
	// caller. The executor stays usable for further fills.
	Flush() (*vector.Vector, error)

	Free()
}

// MakeAgg builds the executor for op over inputs of type ityp.
func MakeAgg(mp *mpool.MPool, op int64, ityp types.Type) (AggFuncExec, error) {
	switch op {
	case AggIdMin:
		return makeMin(mp, ityp)
	case AggIdSum:
		return makeSum(mp, ityp)
	case AggIdCount:
		return makeCount(mp, ityp)
	case AggIdApproxCountDistinct:
		return makeApproxCountDistinct(mp, ityp)
	}
	return nil, moerr.NewNotSupported(context.Background(), "aggregate id %d", op)
}
