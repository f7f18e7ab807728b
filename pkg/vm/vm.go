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

package vm

import (
	"bytes"

	"github.com/vexecdb/vexec/pkg/common/moerr"
	"github.com/vexecdb/vexec/pkg/container/batch"
	"github.com/vexecdb/vexec/pkg/vm/process"
)

// Prepare readies a whole operator tree, children first.
func Prepare(op Operator, proc *process.Process) error {
	for _, child := range op.GetChildren() {
		if err := Prepare(child, proc); err != nil {
			return err
		}
	}
	return op.Prepare(proc)
}

// FreeAll releases an operator tree, children first.
func FreeAll(op Operator, proc *process.Process, pipelineFailed bool, err error) {
	for _, child := range op.GetChildren() {
		FreeAll(child, proc, pipelineFailed, err)
	}
	op.Free(proc, pipelineFailed, err)
}

// Run drains the root operator, passing every produced batch to consume.
// The batches belong to the operator; consume must copy what it keeps.
func Run(root Operator, proc *process.Process, consume func(*batch.Batch) error) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = moerr.ConvertPanicError(proc.Ctx, e)
		}
		FreeAll(root, proc, err != nil, err)
	}()

	if err = Prepare(root, proc); err != nil {
		return err
	}
	for {
		result, callErr := root.Call(proc)
		if callErr != nil {
			return callErr
		}
		if result.Batch != nil && consume != nil {
			if err = consume(result.Batch); err != nil {
				return err
			}
		}
		if result.Status == ExecStop {
			return nil
		}
	}
}

// ChildCall pulls one result from the idx-th child of op.
func ChildCall(op Operator, proc *process.Process, idx int) (CallResult, error) {
	return op.GetChildren()[idx].Call(proc)
}

func String(op Operator, buf *bytes.Buffer) {
	op.String(buf)
	for _, child := range op.GetChildren() {
		buf.WriteString(" <- ")
		String(child, buf)
	}
}
