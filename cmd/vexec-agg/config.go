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

	"github.com/BurntSushi/toml"

	"github.com/vexecdb/vexec/pkg/common/moerr"
	"github.com/vexecdb/vexec/pkg/container/types"
	"github.com/vexecdb/vexec/pkg/logutil"
	"github.com/vexecdb/vexec/pkg/sql/colexec/aggexec"
)

type AggregateConfig struct {
	Op     string `toml:"op"`
	Column int32  `toml:"column"`
	Type   string `toml:"type"`
}

type Config struct {
	Input  string `toml:"input"`
	Output string `toml:"output"`

	KeyColumn int32  `toml:"key-column"`
	KeyType   string `toml:"key-type"`

	// BitsetColumn names a boolean CSV column filtering rows, -1 for none.
	BitsetColumn int32 `toml:"bitset-column"`

	Aggregates []AggregateConfig `toml:"aggregate"`

	Parallelism int   `toml:"parallelism"`
	BatchSize   int   `toml:"batch-size"`
	MemoryLimit int64 `toml:"memory-limit"`

	Log logutil.LogConfig `toml:"log"`
}

func defaultConfig() Config {
	return Config{
		KeyColumn:    0,
		KeyType:      "int64",
		BitsetColumn: -1,
		Parallelism:  4,
		BatchSize:    8192,
	}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.validate()
}

func (cfg *Config) validate() error {
	ctx := context.Background()
	if cfg.Input == "" {
		return moerr.NewInvalidInput(ctx, "no input file")
	}
	if cfg.KeyColumn < 0 {
		return moerr.NewInvalidArg(ctx, "key-column", cfg.KeyColumn)
	}
	if _, err := parseType(cfg.KeyType); err != nil {
		return err
	}
	if len(cfg.Aggregates) == 0 {
		return moerr.NewInvalidInput(ctx, "no aggregates configured")
	}
	for _, agg := range cfg.Aggregates {
		if _, ok := aggexec.AggNames[agg.Op]; !ok {
			return moerr.NewInvalidArg(ctx, "aggregate op", agg.Op)
		}
		if agg.Column < 0 {
			return moerr.NewInvalidArg(ctx, "aggregate column", agg.Column)
		}
		if _, err := parseType(agg.Type); err != nil {
			return err
		}
	}
	if cfg.Parallelism < 1 {
		return moerr.NewInvalidArg(ctx, "parallelism", cfg.Parallelism)
	}
	if cfg.BatchSize < 1 {
		return moerr.NewInvalidArg(ctx, "batch-size", cfg.BatchSize)
	}
	return nil
}

func parseType(name string) (types.Type, error) {
	switch name {
	case "bool":
		return types.T_bool.ToType(), nil
	case "int32":
		return types.T_int32.ToType(), nil
	case "int64", "":
		return types.T_int64.ToType(), nil
	case "uint64":
		return types.T_uint64.ToType(), nil
	case "float64":
		return types.T_float64.ToType(), nil
	case "varchar", "string":
		return types.T_varchar.ToType(), nil
	}
	return types.Type{}, moerr.NewInvalidArg(context.Background(), "column type", name)
}
