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

package process

import (
	"time"

	"github.com/vexecdb/vexec/pkg/container/batch"
)

// Analyzer collects the runtime statistics of a single operator.
type Analyzer interface {
	Start()
	Stop()
	Input(bat *batch.Batch)
	Output(bat *batch.Batch)
	Alloc(size int64)
}

type AnalyzeInfo struct {
	InputRows  int64
	OutputRows int64
	TimeNS     int64
	MemorySize int64
}

type analyzer struct {
	start time.Time
	info  AnalyzeInfo
}

func (a *analyzer) Start() {
	a.start = time.Now()
}

func (a *analyzer) Stop() {
	a.info.TimeNS += time.Since(a.start).Nanoseconds()
}

func (a *analyzer) Input(bat *batch.Batch) {
	a.info.InputRows += int64(bat.RowCount())
}

func (a *analyzer) Output(bat *batch.Batch) {
	a.info.OutputRows += int64(bat.RowCount())
}

func (a *analyzer) Alloc(size int64) {
	if size > a.info.MemorySize {
		a.info.MemorySize = size
	}
}
