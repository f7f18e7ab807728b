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

// StrHashMap groups rows of any key shape. Each row is serialized into a
// scratch buffer with per-column null markers and length prefixes so that
// distinct key tuples never collide.
type StrHashMap struct {
	rows    uint64
	hashMap *hashtable.StringHashMap
	mp      *mpool.MPool
}

func NewStrHashMap(mp *mpool.MPool) (*StrHashMap, error) {
	ht := &hashtable.StringHashMap{}
	if err := ht.Init(mp); err != nil {
		return nil, err
	}
	return &StrHashMap{hashMap: ht, mp: mp}, nil
}

func (m *StrHashMap) GroupCount() uint64 {
	return m.rows
}

func (m *StrHashMap) Free() {
	if m.hashMap != nil {
		m.hashMap.Free(m.mp)
		m.hashMap = nil
	}
}

func (m *StrHashMap) NewIterator() Iterator {
	return &strHashMapIterator{
		mp:      m,
		vals:    make([]uint64, UnitLimit),
		scratch: make([]byte, 0, 64),
	}
}

type strHashMapIterator struct {
	mp      *StrHashMap
	vals    []uint64
	scratch []byte
}

func (itr *strHashMapIterator) encodeRow(vecs []*vector.Vector, row int) []byte {
	key := itr.scratch[:0]
	var lenBuf [4]byte
	for _, vec := range vecs {
		if vec.IsConstNull() || vec.IsNullAt(row) {
			key = append(key, 0)
			continue
		}
		raw := vec.GetRawBytes(row)
		key = append(key, 1)
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(raw)))
		key = append(key, lenBuf[:]...)
		key = append(key, raw...)
	}
	itr.scratch = key
	return key
}

func (itr *strHashMapIterator) Insert(start, count int, vecs []*vector.Vector, sels []int64) ([]uint64, error) {
	if count > UnitLimit {
		return nil, moerr.NewInvalidArg(context.Background(), "insert count", count)
	}
	m := itr.mp
	for i := 0; i < count; i++ {
		row := start + i
		if sels != nil {
			row = int(sels[start+i])
		}
		v, isNew, err := m.hashMap.Insert(m.mp, itr.encodeRow(vecs, row), m.rows+1)
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

func (itr *strHashMapIterator) Find(start, count int, vecs []*vector.Vector, sels []int64) []uint64 {
	m := itr.mp
	for i := 0; i < count; i++ {
		row := start + i
		if sels != nil {
			row = int(sels[start+i])
		}
		itr.vals[i] = m.hashMap.Find(itr.encodeRow(vecs, row))
	}
	return itr.vals[:count]
}
