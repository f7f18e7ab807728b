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

// Package value_scan feeds a pipeline from batches already in memory.
package value_scan

import (
	"bytes"

	"github.com/vexecdb/vexec/pkg/container/batch"
	"github.com/vexecdb/vexec/pkg/vm"
	"github.com/vexecdb/vexec/pkg/vm/process"
)

type ValueScan struct {
	vm.OperatorBase

	Batches []*batch.Batch

	offset int
}

func NewArgument() *ValueScan {
	return &ValueScan{}
}

func (vs *ValueScan) String(buf *bytes.Buffer) {
	buf.WriteString("value_scan")
}

func (vs *ValueScan) Prepare(_ *process.Process) error {
	vs.offset = 0
	return nil
}

func (vs *ValueScan) Call(proc *process.Process) (vm.CallResult, error) {
	result := vm.NewCallResult()
	anal := proc.GetAnalyze(vs.Idx)
	anal.Start()
	defer anal.Stop()

	if vs.offset >= len(vs.Batches) {
		result.Status = vm.ExecStop
		return result, nil
	}
	result.Batch = vs.Batches[vs.offset]
	vs.offset++
	anal.Output(result.Batch)
	return result, nil
}

func (vs *ValueScan) Free(proc *process.Process, _ bool, _ error) {
	for _, bat := range vs.Batches {
		bat.Clean(proc.Mp())
	}
	vs.Batches = nil
}
