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

// Package process carries the per-pipeline execution context: the
// cancellable context, the memory pool and per-operator statistics.
package process

import (
	"context"

	"go.uber.org/zap"

	"github.com/vexecdb/vexec/pkg/common/mpool"
	"github.com/vexecdb/vexec/pkg/logutil"
)

type Process struct {
	Id     string
	Ctx    context.Context
	Cancel context.CancelFunc

	mp *mpool.MPool

	analyzers []*analyzer
}

func New(ctx context.Context, mp *mpool.MPool) *Process {
	ctx, cancel := context.WithCancel(ctx)
	return &Process{
		Ctx:    ctx,
		Cancel: cancel,
		mp:     mp,
	}
}

func (proc *Process) Mp() *mpool.MPool {
	return proc.mp
}

func (proc *Process) OperatorOutofMemory(size int64) {
	logutil.Error("operator out of memory",
		zap.String("pipeline", proc.Id), zap.Int64("size", size))
}

func (proc *Process) Info(msg string, fields ...zap.Field) {
	logutil.Info(msg, append(fields, zap.String("pipeline", proc.Id))...)
}

func (proc *Process) Error(msg string, fields ...zap.Field) {
	logutil.Error(msg, append(fields, zap.String("pipeline", proc.Id))...)
}

func (proc *Process) Infof(format string, args ...any) {
	logutil.Infof(format, args...)
}

func (proc *Process) Errorf(format string, args ...any) {
	logutil.Errorf(format, args...)
}

// GetAnalyze returns the stat collector of the operator at idx, growing
// the registry on demand.
func (proc *Process) GetAnalyze(idx int) Analyzer {
	for len(proc.analyzers) <= idx {
		proc.analyzers = append(proc.analyzers, &analyzer{})
	}
	return proc.analyzers[idx]
}

// AnalyzeResults snapshots the per-operator stats collected so far.
func (proc *Process) AnalyzeResults() []AnalyzeInfo {
	res := make([]AnalyzeInfo, len(proc.analyzers))
	for i, a := range proc.analyzers {
		res[i] = a.info
	}
	return res
}
