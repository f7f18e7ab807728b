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
	"compress/gzip"
	"context"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/matrixorigin/simdcsv"
	"github.com/pierrec/lz4/v4"

	"github.com/vexecdb/vexec/pkg/common/moerr"
	"github.com/vexecdb/vexec/pkg/common/mpool"
	"github.com/vexecdb/vexec/pkg/container/batch"
	"github.com/vexecdb/vexec/pkg/container/types"
	"github.com/vexecdb/vexec/pkg/container/vector"
)

// openInput opens path, transparently decompressing by extension.
func openInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasSuffix(path, ".lz4"):
		return &wrappedReader{Reader: lz4.NewReader(f), closer: f}, nil
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &wrappedReader{Reader: gz, closer: f}, nil
	}
	return f, nil
}

type wrappedReader struct {
	io.Reader
	closer io.Closer
}

func (r *wrappedReader) Close() error {
	return r.closer.Close()
}

// columnSchema describes how one input batch column maps to the CSV.
type columnSchema struct {
	csvCol int32
	typ    types.Type
}

const csvReadRows = 4000

type csvIngester struct {
	ctx     context.Context
	mp      *mpool.MPool
	schema  []columnSchema
	batchSz int

	reader  *simdcsv.Reader
	raw     io.ReadCloser
	content [][]string
	idx     int
	length  int
}

func newCSVIngester(ctx context.Context, mp *mpool.MPool, path string, schema []columnSchema, batchSz int) (*csvIngester, error) {
	raw, err := openInput(path)
	if err != nil {
		return nil, err
	}
	reader := simdcsv.NewReaderWithOptions(raw, ',', '#', true, true)
	return &csvIngester{
		ctx:     ctx,
		mp:      mp,
		schema:  schema,
		batchSz: batchSz,
		reader:  reader,
		raw:     raw,
		content: make([][]string, csvReadRows),
	}, nil
}

func (ing *csvIngester) readLine() ([]string, error) {
	if ing.idx == ing.length && ing.reader != nil {
		var cnt int
		var err error
		ing.content, cnt, err = ing.reader.Read(csvReadRows, ing.ctx, ing.content)
		if err != nil {
			return nil, err
		}
		if cnt < csvReadRows {
			ing.reader = nil
			ing.raw.Close()
			ing.raw = nil
		}
		ing.idx = 0
		ing.length = cnt
	}
	if ing.idx < ing.length {
		idx := ing.idx
		ing.idx++
		return ing.content[idx], nil
	}
	return nil, nil
}

// NextBatch reads up to batchSz rows; a nil batch means the input is
// exhausted.
func (ing *csvIngester) NextBatch() (*batch.Batch, error) {
	bat := batch.NewWithSize(len(ing.schema))
	for i, col := range ing.schema {
		bat.Vecs[i] = vector.NewVec(col.typ)
	}

	rows := 0
	for rows < ing.batchSz {
		record, err := ing.readLine()
		if err != nil {
			bat.Clean(ing.mp)
			return nil, err
		}
		if record == nil {
			break
		}
		for i, col := range ing.schema {
			field := ""
			if int(col.csvCol) < len(record) {
				field = record[col.csvCol]
			}
			if err := appendField(bat.Vecs[i], field, ing.mp); err != nil {
				bat.Clean(ing.mp)
				return nil, err
			}
		}
		rows++
	}
	if rows == 0 {
		bat.Clean(ing.mp)
		return nil, nil
	}
	bat.SetRowCount(rows)
	return bat, nil
}

// appendField parses one CSV field into vec; an empty field is null.
func appendField(vec *vector.Vector, field string, mp *mpool.MPool) error {
	typ := vec.GetType()
	if field == "" && typ.Oid != types.T_varchar {
		switch typ.Oid {
		case types.T_bool:
			return vector.AppendFixed(vec, false, true, mp)
		case types.T_int32:
			return vector.AppendFixed(vec, int32(0), true, mp)
		case types.T_int64:
			return vector.AppendFixed(vec, int64(0), true, mp)
		case types.T_uint64:
			return vector.AppendFixed(vec, uint64(0), true, mp)
		case types.T_float64:
			return vector.AppendFixed(vec, float64(0), true, mp)
		}
	}
	switch typ.Oid {
	case types.T_bool:
		v, err := strconv.ParseBool(field)
		if err != nil {
			return moerr.NewInvalidInput(context.Background(), "bad bool %q", field)
		}
		return vector.AppendFixed(vec, v, false, mp)
	case types.T_int32:
		v, err := strconv.ParseInt(field, 10, 32)
		if err != nil {
			return moerr.NewInvalidInput(context.Background(), "bad int32 %q", field)
		}
		return vector.AppendFixed(vec, int32(v), false, mp)
	case types.T_int64:
		v, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return moerr.NewInvalidInput(context.Background(), "bad int64 %q", field)
		}
		return vector.AppendFixed(vec, v, false, mp)
	case types.T_uint64:
		v, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return moerr.NewInvalidInput(context.Background(), "bad uint64 %q", field)
		}
		return vector.AppendFixed(vec, v, false, mp)
	case types.T_float64:
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return moerr.NewInvalidInput(context.Background(), "bad float64 %q", field)
		}
		return vector.AppendFixed(vec, v, false, mp)
	case types.T_varchar:
		return vector.AppendBytes(vec, []byte(field), false, mp)
	}
	return moerr.NewNotSupported(context.Background(), "csv column type %s", typ)
}
