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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypeLen(t *testing.T) {
	require.Equal(t, 1, T_bool.TypeLen())
	require.Equal(t, 4, T_int32.TypeLen())
	require.Equal(t, 8, T_int64.TypeLen())
	require.Equal(t, 8, T_float64.TypeLen())
	require.Equal(t, -1, T_varchar.TypeLen())

	typ := T_int64.ToType()
	require.Equal(t, int32(8), typ.Size)
	require.True(t, typ.IsFixedLen())
	require.True(t, T_varchar.ToType().IsVarlen())
	require.Equal(t, "BIGINT", typ.String())
}

func TestEncodeDecodeSlice(t *testing.T) {
	vals := []int64{-1, 0, 42, 1 << 40}
	raw := EncodeSlice(vals)
	require.Equal(t, len(vals)*8, len(raw))

	back := DecodeSlice[int64](raw)
	require.Equal(t, vals, back)

	require.Nil(t, DecodeSlice[int64](nil))
}

func TestEncodeDecodeFixed(t *testing.T) {
	raw := EncodeFixed(int32(-7))
	require.Equal(t, 4, len(raw))
	require.Equal(t, int32(-7), DecodeFixed[int32](raw))
}

func TestBytesAppendGet(t *testing.T) {
	var bs Bytes
	bs.Append([]byte("ab"))
	bs.Append(nil)
	bs.Append([]byte("cde"))

	require.Equal(t, 3, bs.Count())
	require.Equal(t, "ab", bs.GetString(0))
	require.Equal(t, 0, len(bs.Get(1)))
	require.Equal(t, "cde", bs.GetString(2))

	bs.Reset()
	require.Equal(t, 0, bs.Count())
}
