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

package vector

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vexecdb/vexec/pkg/common/mpool"
	"github.com/vexecdb/vexec/pkg/container/nulls"
	"github.com/vexecdb/vexec/pkg/container/types"
)

func TestAppendFixed(t *testing.T) {
	mp := mpool.MustNewZero()
	v := NewVec(types.T_int64.ToType())

	require.NoError(t, AppendFixedList(v, []int64{3, 1, 4, 1, 5}, mp))
	require.Equal(t, 5, v.Length())
	require.Equal(t, []int64{3, 1, 4, 1, 5}, MustFixedCol[int64](v))
	require.False(t, v.HasNull())

	require.NoError(t, AppendFixed(v, int64(0), true, mp))
	require.Equal(t, 6, v.Length())
	require.True(t, v.IsNullAt(5))
	require.False(t, v.IsNullAt(4))

	v.Free(mp)
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestAppendBytes(t *testing.T) {
	mp := mpool.MustNewZero()
	v := NewVec(types.T_varchar.ToType())

	require.NoError(t, AppendBytes(v, []byte("hello"), false, mp))
	require.NoError(t, AppendBytes(v, []byte(""), false, mp))
	require.NoError(t, AppendBytes(v, nil, true, mp))
	require.NoError(t, AppendBytes(v, []byte("world"), false, mp))

	require.Equal(t, 4, v.Length())
	require.Equal(t, "hello", v.GetStringAt(0))
	require.Equal(t, "", v.GetStringAt(1))
	require.True(t, v.IsNullAt(2))
	require.Equal(t, "world", v.GetStringAt(3))

	v.Free(mp)
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestConstVector(t *testing.T) {
	mp := mpool.MustNewZero()

	v, err := NewConstFixed(types.T_int32.ToType(), int32(42), 100, mp)
	require.NoError(t, err)
	require.True(t, v.IsConst())
	require.False(t, v.IsConstNull())
	require.Equal(t, 100, v.Length())
	require.Equal(t, int32(42), GetFixedAt[int32](v, 57))

	n := NewConstNull(types.T_int32.ToType(), 10)
	require.True(t, n.IsConstNull())
	require.True(t, n.IsNullAt(3))

	s, err := NewConstBytes(types.T_varchar.ToType(), []byte("abc"), 7, mp)
	require.NoError(t, err)
	require.Equal(t, "abc", s.GetStringAt(5))

	v.Free(mp)
	n.Free(mp)
	s.Free(mp)
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestUnionOne(t *testing.T) {
	mp := mpool.MustNewZero()

	src := NewVec(types.T_int64.ToType())
	require.NoError(t, AppendFixedList(src, []int64{10, 20, 30}, mp))
	nulls.Add(src.GetNulls(), 1)

	dst := NewVec(types.T_int64.ToType())
	require.NoError(t, dst.UnionOne(src, 2, mp))
	require.NoError(t, dst.UnionOne(src, 1, mp))
	require.NoError(t, dst.UnionOne(src, 0, mp))

	require.Equal(t, 3, dst.Length())
	vals := MustFixedCol[int64](dst)
	require.Equal(t, int64(30), vals[0])
	require.True(t, dst.IsNullAt(1))
	require.Equal(t, int64(10), vals[2])

	cst, err := NewConstFixed(types.T_int64.ToType(), int64(99), 5, mp)
	require.NoError(t, err)
	require.NoError(t, dst.UnionOne(cst, 4, mp))
	require.Equal(t, int64(99), MustFixedCol[int64](dst)[3])

	src.Free(mp)
	dst.Free(mp)
	cst.Free(mp)
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestDup(t *testing.T) {
	mp := mpool.MustNewZero()

	v := NewVec(types.T_varchar.ToType())
	require.NoError(t, AppendBytes(v, []byte("aa"), false, mp))
	require.NoError(t, AppendBytes(v, []byte("bbb"), false, mp))

	w, err := v.Dup(mp)
	require.NoError(t, err)
	require.Equal(t, 2, w.Length())
	require.Equal(t, "aa", w.GetStringAt(0))
	require.Equal(t, "bbb", w.GetStringAt(1))

	v.Free(mp)
	require.Equal(t, "bbb", w.GetStringAt(1))
	w.Free(mp)
	require.Equal(t, int64(0), mp.CurrNB())
}
