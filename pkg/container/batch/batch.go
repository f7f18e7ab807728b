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

// Package batch implements the unit of data flowing between operators:
// a set of equal-length column vectors plus an explicit row count. The
// row count is authoritative because constant vectors carry no rows of
// their own.
package batch

import (
	"bytes"

	"github.com/vexecdb/vexec/pkg/common/mpool"
	"github.com/vexecdb/vexec/pkg/container/vector"
	"github.com/vexecdb/vexec/pkg/sql/colexec/aggexec"
)

type Batch struct {
	Vecs []*vector.Vector

	// Aggs carries in-flight aggregate state when the batch is a partial
	// result travelling to a merge stage.
	Aggs []aggexec.AggFuncExec

	rowCount int
}

func New() *Batch {
	return &Batch{}
}

func NewWithSize(n int) *Batch {
	return &Batch{Vecs: make([]*vector.Vector, n)}
}

func (bat *Batch) RowCount() int {
	if bat == nil {
		return 0
	}
	return bat.rowCount
}

func (bat *Batch) SetRowCount(n int) {
	bat.rowCount = n
}

func (bat *Batch) AddRowCount(n int) {
	bat.rowCount += n
}

func (bat *Batch) IsEmpty() bool {
	return bat == nil || bat.rowCount == 0
}

func (bat *Batch) VectorCount() int {
	return len(bat.Vecs)
}

func (bat *Batch) GetVector(i int32) *vector.Vector {
	return bat.Vecs[i]
}

func (bat *Batch) SetVector(i int32, vec *vector.Vector) {
	bat.Vecs[i] = vec
}

func (bat *Batch) String() string {
	var buf bytes.Buffer
	for i, vec := range bat.Vecs {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(vec.String())
	}
	return buf.String()
}

// Clean releases every vector and any attached aggregate state.
func (bat *Batch) Clean(mp *mpool.MPool) {
	if bat == nil {
		return
	}
	for _, vec := range bat.Vecs {
		if vec != nil {
			vec.Free(mp)
		}
	}
	for _, agg := range bat.Aggs {
		if agg != nil {
			agg.Free()
		}
	}
	bat.Vecs = nil
	bat.Aggs = nil
	bat.rowCount = 0
}
