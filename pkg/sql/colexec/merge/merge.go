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

// Package merge feeds a pipeline from batches produced by other
// pipelines. Unlike value_scan it does not own what it emits; ownership
// travels with the batch to the consumer.
package merge

import (
	"bytes"

	"github.com/vexecdb/vexec/pkg/common/moerr"
	"github.com/vexecdb/vexec/pkg/container/batch"
	"github.com/vexecdb/vexec/pkg/vm"
	"github.com/vexecdb/vexec/pkg/vm/process"
)

type Merge struct {
	vm.OperatorBase

	// Ch delivers batches from producer pipelines; producers close it
	// when done.
	Ch chan *batch.Batch
}

func NewArgument(ch chan *batch.Batch) *Merge {
	return &Merge{Ch: ch}
}

func (merge *Merge) String(buf *bytes.Buffer) {
	buf.WriteString("merge")
}

func (merge *Merge) Prepare(_ *process.Process) error {
	return nil
}

func (merge *Merge) Call(proc *process.Process) (vm.CallResult, error) {
	result := vm.NewCallResult()
	select {
	case <-proc.Ctx.Done():
		return result, moerr.NewQueryInterrupted(proc.Ctx)
	case bat, ok := <-merge.Ch:
		if !ok {
			result.Status = vm.ExecStop
			return result, nil
		}
		result.Batch = bat
		return result, nil
	}
}

func (merge *Merge) Free(_ *process.Process, _ bool, _ error) {}
