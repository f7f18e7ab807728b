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

// Package colexec holds the columnar operators and the expression
// executors feeding them.
package colexec

import (
	"github.com/vexecdb/vexec/pkg/common/moerr"
	"github.com/vexecdb/vexec/pkg/container/batch"
	"github.com/vexecdb/vexec/pkg/container/types"
	"github.com/vexecdb/vexec/pkg/container/vector"
	"github.com/vexecdb/vexec/pkg/vm/process"
)

// ExpressionExecutor yields one vector per input batch. The result is
// owned by the executor and stays valid until the next Eval or Free.
type ExpressionExecutor interface {
	Eval(proc *process.Process, batches []*batch.Batch) (*vector.Vector, error)
	ResultType() types.Type
	Free()
}

// ColumnExpressionExecutor projects one column of the input batch.
type ColumnExpressionExecutor struct {
	colPos int32
	typ    types.Type
}

func NewColumnExpression(colPos int32, typ types.Type) *ColumnExpressionExecutor {
	return &ColumnExpressionExecutor{colPos: colPos, typ: typ}
}

func (e *ColumnExpressionExecutor) Eval(proc *process.Process, batches []*batch.Batch) (*vector.Vector, error) {
	bat := batches[0]
	if int(e.colPos) >= len(bat.Vecs) {
		return nil, moerr.NewInvalidState(proc.Ctx,
			"column position %d out of range, batch has %d columns", e.colPos, len(bat.Vecs))
	}
	return bat.Vecs[e.colPos], nil
}

func (e *ColumnExpressionExecutor) ResultType() types.Type {
	return e.typ
}

func (e *ColumnExpressionExecutor) ColPos() int32 {
	return e.colPos
}

func (e *ColumnExpressionExecutor) Free() {}
