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

package types

import "fmt"

// T is the runtime type tag of a column or a scalar value.
type T uint8

const (
	T_any T = iota

	T_bool

	T_int8
	T_int16
	T_int32
	T_int64
	T_uint8
	T_uint16
	T_uint32
	T_uint64

	T_float32
	T_float64

	T_char
	T_varchar
)

// Type is the full type descriptor carried by every vector.
type Type struct {
	Oid   T
	Size  int32
	Width int32
	Scale int32
}

func New(oid T, width, scale int32) Type {
	return Type{Oid: oid, Size: int32(oid.TypeLen()), Width: width, Scale: scale}
}

func (t T) ToType() Type {
	return New(t, 0, 0)
}

// TypeLen returns the fixed byte width of the type, or -1 for var-length types.
func (t T) TypeLen() int {
	switch t {
	case T_bool, T_int8, T_uint8:
		return 1
	case T_int16, T_uint16:
		return 2
	case T_int32, T_uint32, T_float32:
		return 4
	case T_int64, T_uint64, T_float64:
		return 8
	case T_char, T_varchar:
		return -1
	}
	return 0
}

func (t T) FixedLength() int {
	return t.TypeLen()
}

func (t T) String() string {
	switch t {
	case T_any:
		return "ANY"
	case T_bool:
		return "BOOL"
	case T_int8:
		return "TINYINT"
	case T_int16:
		return "SMALLINT"
	case T_int32:
		return "INT"
	case T_int64:
		return "BIGINT"
	case T_uint8:
		return "TINYINT UNSIGNED"
	case T_uint16:
		return "SMALLINT UNSIGNED"
	case T_uint32:
		return "INT UNSIGNED"
	case T_uint64:
		return "BIGINT UNSIGNED"
	case T_float32:
		return "FLOAT"
	case T_float64:
		return "DOUBLE"
	case T_char:
		return "CHAR"
	case T_varchar:
		return "VARCHAR"
	}
	return fmt.Sprintf("unexpected type tag %d", t)
}

func (t Type) String() string {
	return t.Oid.String()
}

func (t Type) TypeSize() int {
	return t.Oid.TypeLen()
}

func (t Type) IsVarlen() bool {
	return t.Oid == T_char || t.Oid == T_varchar
}

func (t Type) IsFixedLen() bool {
	return !t.IsVarlen()
}

// FixedSizeT is the constraint for payload element types of fixed-width vectors.
type FixedSizeT interface {
	bool | int8 | int16 | int32 | int64 |
		uint8 | uint16 | uint32 | uint64 |
		float32 | float64
}

// OrderedT is the subset of FixedSizeT with a total order under <.
type OrderedT interface {
	int8 | int16 | int32 | int64 |
		uint8 | uint16 | uint32 | uint64 |
		float32 | float64
}
