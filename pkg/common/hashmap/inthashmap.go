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
	"context"
	"encoding/binary"

	"github.com/vexecdb/vexec/pkg/common/moerr"
	"github.com/vexecdb/vexec/pkg/common/mpool"
	"github.com/vexecdb/vexec/pkg/container/hashtable"
	"github.com/vexecdb/vexec/pkg/container/vector"
)

// IntHashMap groups rows whose key columns are fixed width and fit in
// 8 bytes once packed. Wider or var-length keys take StrHashMap.
type IntHashMap struct {
	rows    uint64
	hashMap *hashtable.Int64HashMap
	nullGrp uint64
	mp      *mpool.MPool
}

func NewIntHashMap(mp *mpool.MPool) (*IntHashMap, error) {
	ht := &hashtable.Int64HashMap{}
	if err := ht.Init(mp); err != nil {
		return nil, err
	}
	return &IntHashMap{hashMap: ht, mp: mp}, nil
}

func (m *IntHashMap) GroupCount() uint64 {
	return m.rows
}

func (m *IntHashMap) Free() {
	if m.hashMap != nil {
		m.hashMap.Free(m.mp)
		m.hashMap = nil
	}
}

func (m *IntHashMap) NewIterator() Iterator {
	return &intHashMapIterator{
		mp:   m,
		vals: make([]uint64, UnitLimit),
	}
}

type intHashMapIterator struct {
	mp   *IntHashMap
	vals []uint64
}

func packRow(vecs []*vector.Vector, row int) (uint64, bool) {
	var buf [8]byte
	off := 0
	for _, vec := range vecs {
		if vec.IsConstNull() || vec.IsNullAt(row) {
			return 0, true
		}
		off += copy(buf[off:], vec.GetRawBytes(row))
	}
	return binary.LittleEndian.Uint64(buf[:]), false
}

func (itr *intHashMapIterator) Insert(start, count int, vecs []*vector.Vector, sels []int64) ([]uint64, error) {
	if count > UnitLimit {
		return nil, moerr.NewInvalidArg(context.Background(), "insert count", count)
	}
	m := itr.mp
	for i := 0; i < count; i++ {
		row := start + i
		if sels != nil {
			row = int(sels[start+i])
		}
		key, isNull := packRow(vecs, row)
		if isNull {
			if m.nullGrp == 0 {
				m.rows++
				m.nullGrp = m.rows
			}
			itr.vals[i] = m.nullGrp
			continue
		}
		v, isNew, err := m.hashMap.Insert(m.mp, key, m.rows+1)
		if err != nil {
			return nil, err
		}
		if isNew {
			m.rows++
		}
		itr.vals[i] = v
	}
	return itr.vals[:count], nil
}

func (itr *intHashMapIterator) Find(start, count int, vecs []*vector.Vector, sels []int64) []uint64 {
	m := itr.mp
	for i := 0; i < count; i++ {
		row := start + i
		if sels != nil {
			row = int(sels[start+i])
		}
		key, isNull := packRow(vecs, row)
		if isNull {
			itr.vals[i] = m.nullGrp
			continue
		}
		itr.vals[i] = m.hashMap.Find(key)
	}
	return itr.vals[:count]
}
