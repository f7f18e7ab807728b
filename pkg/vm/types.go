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

// Package vm defines the pull-based operator protocol. An operator is
// prepared once, then called until it reports ExecStop; each call may
// hand back one batch.
package vm

import (
	"bytes"

	"github.com/vexecdb/vexec/pkg/container/batch"
	"github.com/vexecdb/vexec/pkg/vm/process"
)

type ExecStatus int

const (
	// ExecNext means the call produced a batch and more may follow.
	ExecNext ExecStatus = iota
	// ExecHasMore means the call produced nothing but the operator is
	// not yet drained.
	ExecHasMore
	// ExecStop means the operator is drained. Batch may still carry the
	// final result.
	ExecStop
)

type CallResult struct {
	Status ExecStatus
	Batch  *batch.Batch
}

func NewCallResult() CallResult {
	return CallResult{Status: ExecNext}
}

type Operator interface {
	// String appends a short description to buf for plan display.
	String(buf *bytes.Buffer)

	// OperatorIndex keys the operator's slot in the process analyzer
	// registry.
	OperatorIndex() int

	Prepare(proc *process.Process) error

	Call(proc *process.Process) (CallResult, error)

	// Free releases everything the operator holds. pipelineFailed tells
	// whether the pipeline is being torn down after an error.
	Free(proc *process.Process, pipelineFailed bool, err error)

	GetChildren() []Operator
	AppendChild(child Operator)
}

// OperatorBase supplies the child bookkeeping shared by every operator.
type OperatorBase struct {
	Idx      int
	Children []Operator
}

func (o *OperatorBase) OperatorIndex() int {
	return o.Idx
}

func (o *OperatorBase) GetChildren() []Operator {
	return o.Children
}

func (o *OperatorBase) AppendChild(child Operator) {
	o.Children = append(o.Children, child)
}

func (o *OperatorBase) GetChildAt(i int) Operator {
	return o.Children[i]
}
