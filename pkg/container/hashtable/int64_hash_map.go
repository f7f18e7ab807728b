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

// Package hashtable implements the raw open-addressing tables underneath
// the grouping hash maps. Mapped values are 1-based; 0 marks an empty cell.
package hashtable

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/vexecdb/vexec/pkg/common/mpool"
	"github.com/vexecdb/vexec/pkg/container/types"
)

const (
	kInitialCellCnt  = 1 << 10
	kLoadFactorNumer = 3
	kLoadFactorDenom = 4
)

type Int64HashMapCell struct {
	Key    uint64
	Mapped uint64
}

// Int64HashMap maps 8-byte keys to dense 1-based ids.
type Int64HashMap struct {
	cellCnt  uint64
	elemCnt  uint64
	rawData  []byte
	cells    []Int64HashMapCell
	hashSeed [8]byte
}

func (ht *Int64HashMap) Init(mp *mpool.MPool) error {
	return ht.resize(mp, kInitialCellCnt)
}

func (ht *Int64HashMap) resize(mp *mpool.MPool, cellCnt uint64) error {
	raw, err := mp.Alloc(int(cellCnt) * 16)
	if err != nil {
		return err
	}
	oldCells := ht.cells
	oldRaw := ht.rawData
	ht.rawData = raw
	ht.cells = types.DecodeSlice[Int64HashMapCell](raw)
	ht.cellCnt = cellCnt

	for i := range oldCells {
		if oldCells[i].Mapped != 0 {
			cell := ht.findCell(oldCells[i].Key)
			*cell = oldCells[i]
		}
	}
	if oldRaw != nil {
		mp.Free(oldRaw)
	}
	return nil
}

func (ht *Int64HashMap) findCell(key uint64) *Int64HashMapCell {
	mask := ht.cellCnt - 1
	for idx := hashUint64(key) & mask; ; idx = (idx + 1) & mask {
		cell := &ht.cells[idx]
		if cell.Mapped == 0 || cell.Key == key {
			return cell
		}
	}
}

func hashUint64(key uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], key)
	return xxhash.Sum64(buf[:])
}

// Insert maps key to mapped unless key is already present. The caller owns
// id assignment so it can interleave ids from more than one table.
func (ht *Int64HashMap) Insert(mp *mpool.MPool, key uint64, mapped uint64) (uint64, bool, error) {
	if ht.elemCnt*kLoadFactorDenom >= ht.cellCnt*kLoadFactorNumer {
		if err := ht.resize(mp, ht.cellCnt*2); err != nil {
			return 0, false, err
		}
	}
	cell := ht.findCell(key)
	if cell.Mapped == 0 {
		ht.elemCnt++
		cell.Key = key
		cell.Mapped = mapped
		return mapped, true, nil
	}
	return cell.Mapped, false, nil
}

// InsertValue maps key to a dense id, allocating the next id on first sight.
func (ht *Int64HashMap) InsertValue(mp *mpool.MPool, key uint64) (uint64, error) {
	v, _, err := ht.Insert(mp, key, ht.elemCnt+1)
	return v, err
}

// Find returns the id mapped to key, or 0 when absent.
func (ht *Int64HashMap) Find(key uint64) uint64 {
	if ht.cellCnt == 0 {
		return 0
	}
	return ht.findCell(key).Mapped
}

func (ht *Int64HashMap) Cardinality() uint64 {
	return ht.elemCnt
}

func (ht *Int64HashMap) Free(mp *mpool.MPool) {
	if ht.rawData != nil {
		mp.Free(ht.rawData)
		ht.rawData = nil
		ht.cells = nil
	}
	ht.cellCnt = 0
	ht.elemCnt = 0
}
