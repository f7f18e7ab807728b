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

// vexec-agg runs a grouped aggregation over a CSV file, fanning the
// input out to parallel partial stages and merging their states into
// one final result.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/vexecdb/vexec/pkg/common/mpool"
	"github.com/vexecdb/vexec/pkg/container/batch"
	"github.com/vexecdb/vexec/pkg/container/types"
	"github.com/vexecdb/vexec/pkg/container/vector"
	"github.com/vexecdb/vexec/pkg/logutil"
	"github.com/vexecdb/vexec/pkg/sql/colexec/aggexec"
	"github.com/vexecdb/vexec/pkg/sql/colexec/group"
	"github.com/vexecdb/vexec/pkg/sql/colexec/merge"
	"github.com/vexecdb/vexec/pkg/sql/colexec/mergegroup"
	"github.com/vexecdb/vexec/pkg/sql/colexec/value_scan"
	"github.com/vexecdb/vexec/pkg/vm"
	"github.com/vexecdb/vexec/pkg/vm/process"
)

func main() {
	configPath := flag.String("config", "vexec-agg.toml", "path to the TOML config")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := logutil.Setup(cfg.Log); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := run(context.Background(), cfg); err != nil {
		logutil.Errorf("aggregation failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) error {
	memCap := cfg.MemoryLimit
	if memCap <= 0 {
		memCap = mpool.NoFixed
	}
	mp, err := mpool.NewMPool("vexec-agg", memCap)
	if err != nil {
		return err
	}
	if err := runWithPool(ctx, cfg, mp); err != nil {
		return err
	}
	logutil.Info("aggregation done")
	if nb := mp.CurrNB(); nb != 0 {
		logutil.Warnf("memory pool reports %d bytes still in use", nb)
	}
	return nil
}

func runWithPool(ctx context.Context, cfg Config, mp *mpool.MPool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// batch layout: key, optional bitset, then one column per aggregate
	keyType, _ := parseType(cfg.KeyType)
	schema := []columnSchema{{csvCol: cfg.KeyColumn, typ: keyType}}
	bitsetPos := int32(-1)
	if cfg.BitsetColumn >= 0 {
		bitsetPos = 1
		schema = append(schema, columnSchema{csvCol: cfg.BitsetColumn, typ: types.T_bool.ToType()})
	}
	aggSpecs := make([]aggexec.AggSpec, len(cfg.Aggregates))
	for i, agg := range cfg.Aggregates {
		typ, _ := parseType(agg.Type)
		aggSpecs[i] = aggexec.AggSpec{
			Op:     aggexec.AggNames[agg.Op],
			ColPos: int32(len(schema)),
		}
		schema = append(schema, columnSchema{csvCol: agg.Column, typ: typ})
	}

	shards, err := ingestShards(ctx, mp, cfg, schema)
	if err != nil {
		return err
	}

	partialCh := make(chan *batch.Batch, cfg.Parallelism)
	pool, err := ants.NewPool(cfg.Parallelism)
	if err != nil {
		return err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var shardErr error
	for i := range shards {
		shard := shards[i]
		id := i
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if err := runShard(ctx, mp, id, shard, bitsetPos, aggSpecs, partialCh); err != nil {
				mu.Lock()
				if shardErr == nil {
					shardErr = err
				}
				mu.Unlock()
				cancel()
			}
		}); err != nil {
			wg.Done()
			return err
		}
	}
	go func() {
		wg.Wait()
		close(partialCh)
	}()

	mergeErr := mergeAndWrite(ctx, mp, cfg, partialCh)
	if mergeErr != nil {
		cancel()
	}
	// partials still buffered after a failure are ours to release; the
	// range also unblocks shards stuck on a send
	for bat := range partialCh {
		bat.Clean(mp)
	}

	mu.Lock()
	defer mu.Unlock()
	if shardErr != nil {
		return shardErr
	}
	return mergeErr
}

// ingestShards reads the whole input and deals batches round-robin.
func ingestShards(ctx context.Context, mp *mpool.MPool, cfg Config, schema []columnSchema) ([][]*batch.Batch, error) {
	ing, err := newCSVIngester(ctx, mp, cfg.Input, schema, cfg.BatchSize)
	if err != nil {
		return nil, err
	}
	shards := make([][]*batch.Batch, cfg.Parallelism)
	next := 0
	for {
		bat, err := ing.NextBatch()
		if err != nil {
			for _, shard := range shards {
				for _, b := range shard {
					b.Clean(mp)
				}
			}
			return nil, err
		}
		if bat == nil {
			return shards, nil
		}
		shards[next] = append(shards[next], bat)
		next = (next + 1) % cfg.Parallelism
	}
}

func runShard(ctx context.Context, mp *mpool.MPool, id int, batches []*batch.Batch,
	bitsetPos int32, aggSpecs []aggexec.AggSpec, out chan<- *batch.Batch) error {
	proc := process.New(ctx, mp)
	proc.Id = fmt.Sprintf("shard-%d", id)

	vs := value_scan.NewArgument()
	vs.Batches = batches
	op := group.NewArgument().WithKey(0).WithBitset(bitsetPos).
		WithAggs(aggSpecs...).WithEval(false)
	op.AppendChild(vs)

	return vm.Run(op, proc, func(bat *batch.Batch) error {
		select {
		case out <- bat:
			return nil
		case <-ctx.Done():
			// nobody will receive it
			bat.Clean(mp)
			return ctx.Err()
		}
	})
}

func mergeAndWrite(ctx context.Context, mp *mpool.MPool, cfg Config, partialCh chan *batch.Batch) error {
	proc := process.New(ctx, mp)
	proc.Id = "merge"

	mg := mergegroup.NewArgument()
	mg.AppendChild(merge.NewArgument(partialCh))

	out := os.Stdout
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	w := csv.NewWriter(out)
	defer w.Flush()

	return vm.Run(mg, proc, func(bat *batch.Batch) error {
		record := make([]string, len(bat.Vecs))
		for r := 0; r < bat.RowCount(); r++ {
			for c, vec := range bat.Vecs {
				record[c] = formatField(vec, r)
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

func formatField(vec *vector.Vector, row int) string {
	if vec.IsNullAt(row) {
		return ""
	}
	switch vec.GetType().Oid {
	case types.T_bool:
		return strconv.FormatBool(vector.GetFixedAt[bool](vec, row))
	case types.T_int32:
		return strconv.FormatInt(int64(vector.GetFixedAt[int32](vec, row)), 10)
	case types.T_int64:
		return strconv.FormatInt(vector.GetFixedAt[int64](vec, row), 10)
	case types.T_uint64:
		return strconv.FormatUint(vector.GetFixedAt[uint64](vec, row), 10)
	case types.T_float64:
		return strconv.FormatFloat(vector.GetFixedAt[float64](vec, row), 'g', -1, 64)
	case types.T_varchar, types.T_char:
		return vec.GetStringAt(row)
	}
	return ""
}
