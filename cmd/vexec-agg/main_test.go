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

package main

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vexecdb/vexec/pkg/common/moerr"
	"github.com/vexecdb/vexec/pkg/common/mpool"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agg.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
input = "data.csv"
key-column = 0
key-type = "varchar"
bitset-column = 1
parallelism = 2
batch-size = 128

[[aggregate]]
op = "sum"
column = 2
type = "int64"

[[aggregate]]
op = "min"
column = 3
type = "float64"
`), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "data.csv", cfg.Input)
	require.Equal(t, "varchar", cfg.KeyType)
	require.Equal(t, int32(1), cfg.BitsetColumn)
	require.Len(t, cfg.Aggregates, 2)
	require.Equal(t, "min", cfg.Aggregates[1].Op)
}

func TestLoadConfigRejectsBadAgg(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agg.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
input = "data.csv"

[[aggregate]]
op = "median"
column = 1
`), 0o644))

	_, err := loadConfig(path)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.csv")
	output := filepath.Join(dir, "out.csv")

	// columns: key, present, value
	require.NoError(t, os.WriteFile(input, []byte(
		"a,true,10\n"+
			"b,true,20\n"+
			"a,true,30\n"+
			"b,false,999\n"+
			"c,false,7\n"+
			"a,true,2\n",
	), 0o644))

	cfg := defaultConfig()
	cfg.Input = input
	cfg.Output = output
	cfg.KeyType = "varchar"
	cfg.BitsetColumn = 1
	cfg.Parallelism = 2
	cfg.BatchSize = 2
	cfg.Aggregates = []AggregateConfig{
		{Op: "sum", Column: 2, Type: "int64"},
		{Op: "min", Column: 2, Type: "int64"},
		{Op: "count", Column: 2, Type: "int64"},
	}
	require.NoError(t, cfg.validate())
	require.NoError(t, run(context.Background(), cfg))

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	sort.Slice(records, func(i, j int) bool { return records[i][0] < records[j][0] })
	require.Equal(t, [][]string{
		{"a", "42", "2", "3"},
		{"b", "20", "20", "1"},
	}, records)
}

func TestRunCleansPartialsOnWriteFailure(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(input, []byte(
		"a,true,10\n"+
			"b,true,20\n"+
			"a,true,30\n",
	), 0o644))

	cfg := defaultConfig()
	cfg.Input = input
	// a directory is not creatable as the output file
	cfg.Output = dir
	cfg.KeyType = "varchar"
	cfg.BitsetColumn = 1
	cfg.Parallelism = 2
	cfg.BatchSize = 1
	cfg.Aggregates = []AggregateConfig{{Op: "sum", Column: 2, Type: "int64"}}
	require.NoError(t, cfg.validate())

	mp := mpool.MustNewZero()
	err := runWithPool(context.Background(), cfg, mp)
	require.Error(t, err)
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestRunRejectsBadRows(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(input, []byte("a,true,not-a-number\n"), 0o644))

	cfg := defaultConfig()
	cfg.Input = input
	cfg.KeyType = "varchar"
	cfg.BitsetColumn = 1
	cfg.Aggregates = []AggregateConfig{{Op: "sum", Column: 2, Type: "int64"}}
	require.NoError(t, cfg.validate())

	err := run(context.Background(), cfg)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "not-a-number"))
}
