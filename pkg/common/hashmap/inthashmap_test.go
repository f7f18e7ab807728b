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

package hashmap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vexecdb/vexec/pkg/common/mpool"
	"github.com/vexecdb/vexec/pkg/container/types"
	"github.com/vexecdb/vexec/pkg/container/vector"
)

func newInt64Vec(t *testing.T, mp *mpool.MPool, vals []int64) *vector.Vector {
	v := vector.NewVec(types.T_int64.ToType())
	require.NoError(t, vector.AppendFixedList(v, vals, mp))
	return v
}

func TestIntHashMapInsert(t *testing.T) {
	mp := mpool.MustNewZero()
	m, err := NewIntHashMap(mp)
	require.NoError(t, err)

	vec := newInt64Vec(t, mp, []int64{0, 1, 0, 2, 1, 0})
	vecs := []*vector.Vector{vec}

	itr := m.NewIterator()
	vals, err := itr.Insert(0, 6, vecs, nil)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 1, 3, 2, 1}, vals)
	require.Equal(t, uint64(3), m.GroupCount())

	// same keys keep their ids across calls
	vals, err = itr.Insert(0, 6, vecs, nil)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 1, 3, 2, 1}, vals)
	require.Equal(t, uint64(3), m.GroupCount())

	vec.Free(mp)
	m.Free()
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestIntHashMapSels(t *testing.T) {
	mp := mpool.MustNewZero()
	m, err := NewIntHashMap(mp)
	require.NoError(t, err)

	vec := newInt64Vec(t, mp, []int64{7, 8, 9, 7, 8, 9})
	vecs := []*vector.Vector{vec}

	// only rows 1 and 4 are selected, both key 8
	itr := m.NewIterator()
	vals, err := itr.Insert(0, 2, vecs, []int64{1, 4})
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 1}, vals)
	require.Equal(t, uint64(1), m.GroupCount())

	found := itr.Find(0, 3, vecs, []int64{0, 1, 2})
	require.Equal(t, []uint64{0, 1, 0}, found)

	vec.Free(mp)
	m.Free()
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestIntHashMapNullKey(t *testing.T) {
	mp := mpool.MustNewZero()
	m, err := NewIntHashMap(mp)
	require.NoError(t, err)

	vec := vector.NewVec(types.T_int64.ToType())
	require.NoError(t, vector.AppendFixed(vec, int64(5), false, mp))
	require.NoError(t, vector.AppendFixed(vec, int64(0), true, mp))
	require.NoError(t, vector.AppendFixed(vec, int64(5), false, mp))
	require.NoError(t, vector.AppendFixed(vec, int64(0), true, mp))
	vecs := []*vector.Vector{vec}

	itr := m.NewIterator()
	vals, err := itr.Insert(0, 4, vecs, nil)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 1, 2}, vals)
	require.Equal(t, uint64(2), m.GroupCount())

	vec.Free(mp)
	m.Free()
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestIntHashMapConstKey(t *testing.T) {
	mp := mpool.MustNewZero()
	m, err := NewIntHashMap(mp)
	require.NoError(t, err)

	cst, err := vector.NewConstFixed(types.T_int64.ToType(), int64(11), 8, mp)
	require.NoError(t, err)
	vecs := []*vector.Vector{cst}

	itr := m.NewIterator()
	vals, err := itr.Insert(0, 8, vecs, nil)
	require.NoError(t, err)
	for _, v := range vals {
		require.Equal(t, uint64(1), v)
	}
	require.Equal(t, uint64(1), m.GroupCount())

	cst.Free(mp)
	m.Free()
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestBuildHashMap(t *testing.T) {
	mp := mpool.MustNewZero()

	m, err := BuildHashMap([]types.Type{types.T_int64.ToType()}, mp)
	require.NoError(t, err)
	_, ok := m.(*IntHashMap)
	require.True(t, ok)
	m.Free()

	m, err = BuildHashMap([]types.Type{types.T_varchar.ToType()}, mp)
	require.NoError(t, err)
	_, ok = m.(*StrHashMap)
	require.True(t, ok)
	m.Free()

	require.Equal(t, int64(0), mp.CurrNB())
}
