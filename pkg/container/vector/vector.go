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

// Package vector implements the column representation of the engine.
// A vector is either FLAT, holding one value per row, or CONSTANT,
// holding a single value that stands for every row of the batch.
package vector

import (
	"context"
	"fmt"

	"github.com/vexecdb/vexec/pkg/common/moerr"
	"github.com/vexecdb/vexec/pkg/common/mpool"
	"github.com/vexecdb/vexec/pkg/container/nulls"
	"github.com/vexecdb/vexec/pkg/container/types"
)

const (
	FLAT     = iota // one value per row
	CONSTANT        // one value for all rows
)

type Vector struct {
	class int
	typ   types.Type
	nsp   *nulls.Nulls

	// fixed-width payload, mpool-backed
	data []byte
	// var-length payload; Data is mpool-backed
	area *types.Bytes

	length int

	isConstNull bool
}

func NewVec(typ types.Type) *Vector {
	vec := &Vector{class: FLAT, typ: typ, nsp: &nulls.Nulls{}}
	if typ.IsVarlen() {
		vec.area = &types.Bytes{}
	}
	return vec
}

// NewConstNull returns a constant vector whose single value is null.
func NewConstNull(typ types.Type, length int) *Vector {
	return &Vector{
		class:       CONSTANT,
		typ:         typ,
		nsp:         &nulls.Nulls{},
		length:      length,
		isConstNull: true,
	}
}

// NewConstFixed returns a constant vector holding val for length rows.
func NewConstFixed[T types.FixedSizeT](typ types.Type, val T, length int, mp *mpool.MPool) (*Vector, error) {
	data, err := mp.Alloc(typ.TypeSize())
	if err != nil {
		return nil, err
	}
	copy(data, types.EncodeFixed(val))
	return &Vector{
		class:  CONSTANT,
		typ:    typ,
		nsp:    &nulls.Nulls{},
		data:   data,
		length: length,
	}, nil
}

func NewConstBytes(typ types.Type, val []byte, length int, mp *mpool.MPool) (*Vector, error) {
	data, err := mp.Alloc(len(val))
	if err != nil {
		return nil, err
	}
	copy(data, val)
	return &Vector{
		class: CONSTANT,
		typ:   typ,
		nsp:   &nulls.Nulls{},
		area: &types.Bytes{
			Data:    data,
			Offsets: []uint32{0},
			Lengths: []uint32{uint32(len(val))},
		},
		length: length,
	}, nil
}

func (v *Vector) GetType() types.Type {
	return v.typ
}

func (v *Vector) GetNulls() *nulls.Nulls {
	return v.nsp
}

func (v *Vector) SetNulls(nsp *nulls.Nulls) {
	v.nsp = nsp
}

func (v *Vector) IsConst() bool {
	return v.class == CONSTANT
}

func (v *Vector) IsConstNull() bool {
	return v.class == CONSTANT && v.isConstNull
}

func (v *Vector) Length() int {
	return v.length
}

func (v *Vector) SetLength(n int) {
	v.length = n
}

// HasNull reports whether any row of v is null.
func (v *Vector) HasNull() bool {
	return v.IsConstNull() || nulls.Any(v.nsp)
}

func (v *Vector) IsNullAt(row int) bool {
	if v.IsConstNull() {
		return true
	}
	if v.IsConst() {
		return false
	}
	return nulls.Contains(v.nsp, uint64(row))
}

func (v *Vector) String() string {
	if v.IsConstNull() {
		return fmt.Sprintf("%s-const[null x %d]", v.typ, v.length)
	}
	if v.IsConst() {
		return fmt.Sprintf("%s-const[%d]", v.typ, v.length)
	}
	return fmt.Sprintf("%s-flat[%d]", v.typ, v.length)
}

// MustFixedCol views the payload of a fixed-width vector as a typed slice.
// A constant vector yields a one-element slice.
func MustFixedCol[T types.FixedSizeT](v *Vector) []T {
	if v.isConstNull || len(v.data) == 0 {
		return nil
	}
	return types.DecodeSlice[T](v.data)
}

// GetFixedAt reads one row, resolving constant vectors to their single value.
func GetFixedAt[T types.FixedSizeT](v *Vector, row int) T {
	if v.IsConst() {
		row = 0
	}
	return types.DecodeSlice[T](v.data)[row]
}

func (v *Vector) GetBytesAt(row int) []byte {
	if v.IsConst() {
		row = 0
	}
	return v.area.Get(int64(row))
}

func (v *Vector) GetStringAt(row int) string {
	return string(v.GetBytesAt(row))
}

// GetRawBytes returns the fixed-width payload of row as raw bytes. Used by
// the hash layer, which is type-agnostic.
func (v *Vector) GetRawBytes(row int) []byte {
	if v.typ.IsVarlen() {
		return v.GetBytesAt(row)
	}
	if v.IsConst() {
		row = 0
	}
	sz := v.typ.TypeSize()
	return v.data[row*sz : (row+1)*sz]
}

// AppendFixed adds one fixed-width value to a flat vector.
func AppendFixed[T types.FixedSizeT](v *Vector, val T, isNull bool, mp *mpool.MPool) error {
	if v.IsConst() {
		return moerr.NewInvalidState(context.Background(), "append to const vector")
	}
	sz := v.typ.TypeSize()
	need := (v.length + 1) * sz
	if need > cap(v.data) {
		data, err := mp.Grow(v.data, need)
		if err != nil {
			return err
		}
		v.data = data
	}
	v.data = v.data[:need]
	if isNull {
		nulls.Add(v.nsp, uint64(v.length))
	} else {
		copy(v.data[v.length*sz:], types.EncodeFixed(val))
	}
	v.length++
	return nil
}

func AppendFixedList[T types.FixedSizeT](v *Vector, vals []T, mp *mpool.MPool) error {
	for _, val := range vals {
		if err := AppendFixed(v, val, false, mp); err != nil {
			return err
		}
	}
	return nil
}

// AppendBytes adds one var-length value to a flat vector.
func AppendBytes(v *Vector, val []byte, isNull bool, mp *mpool.MPool) error {
	if v.IsConst() {
		return moerr.NewInvalidState(context.Background(), "append to const vector")
	}
	if isNull {
		nulls.Add(v.nsp, uint64(v.length))
		val = nil
	}
	oldLen := len(v.area.Data)
	need := oldLen + len(val)
	if need > cap(v.area.Data) {
		data, err := mp.Grow(v.area.Data, need)
		if err != nil {
			return err
		}
		v.area.Data = data[:oldLen]
	}
	v.area.Append(val)
	v.length++
	return nil
}

// UnionOne deep-copies row of src onto the tail of v. src may be constant.
func (v *Vector) UnionOne(src *Vector, row int, mp *mpool.MPool) error {
	if src.IsConstNull() || src.IsNullAt(row) {
		if v.typ.IsVarlen() {
			return AppendBytes(v, nil, true, mp)
		}
		return appendFixedNull(v, mp)
	}
	if v.typ.IsVarlen() {
		return AppendBytes(v, src.GetBytesAt(row), false, mp)
	}
	if src.IsConst() {
		row = 0
	}
	sz := v.typ.TypeSize()
	need := (v.length + 1) * sz
	if need > cap(v.data) {
		data, err := mp.Grow(v.data, need)
		if err != nil {
			return err
		}
		v.data = data
	}
	v.data = v.data[:need]
	copy(v.data[v.length*sz:], src.data[row*sz:(row+1)*sz])
	v.length++
	return nil
}

func appendFixedNull(v *Vector, mp *mpool.MPool) error {
	sz := v.typ.TypeSize()
	need := (v.length + 1) * sz
	if need > cap(v.data) {
		data, err := mp.Grow(v.data, need)
		if err != nil {
			return err
		}
		v.data = data
	}
	v.data = v.data[:need]
	nulls.Add(v.nsp, uint64(v.length))
	v.length++
	return nil
}

// Dup deep-copies v, flattening is not performed: constants stay constant.
func (v *Vector) Dup(mp *mpool.MPool) (*Vector, error) {
	w := &Vector{
		class:       v.class,
		typ:         v.typ,
		nsp:         v.nsp.Clone(),
		length:      v.length,
		isConstNull: v.isConstNull,
	}
	if len(v.data) > 0 {
		data, err := mp.Alloc(len(v.data))
		if err != nil {
			return nil, err
		}
		copy(data, v.data)
		w.data = data
	}
	if v.area != nil {
		w.area = &types.Bytes{
			Offsets: append([]uint32(nil), v.area.Offsets...),
			Lengths: append([]uint32(nil), v.area.Lengths...),
		}
		if len(v.area.Data) > 0 {
			data, err := mp.Alloc(len(v.area.Data))
			if err != nil {
				return nil, err
			}
			copy(data, v.area.Data)
			w.area.Data = data
		}
	}
	return w, nil
}

func (v *Vector) Free(mp *mpool.MPool) {
	if v == nil {
		return
	}
	if v.data != nil {
		mp.Free(v.data)
		v.data = nil
	}
	if v.area != nil {
		mp.Free(v.area.Data)
		v.area = nil
	}
	v.nsp = nil
	v.length = 0
}
