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

package hashtable

import (
	"bytes"

	"github.com/cespare/xxhash/v2"

	"github.com/vexecdb/vexec/pkg/common/mpool"
)

type stringHashMapCell struct {
	hash   uint64
	mapped uint64
	key    []byte
}

// StringHashMap maps arbitrary byte keys to dense 1-based ids. Keys are
// copied into the table, so callers may reuse their buffers.
type StringHashMap struct {
	cellCnt uint64
	elemCnt uint64
	cells   []stringHashMapCell

	keyData []byte
}

func (ht *StringHashMap) Init(_ *mpool.MPool) error {
	ht.cells = make([]stringHashMapCell, kInitialCellCnt)
	ht.cellCnt = kInitialCellCnt
	return nil
}

func (ht *StringHashMap) resize() {
	oldCells := ht.cells
	ht.cellCnt *= 2
	ht.cells = make([]stringHashMapCell, ht.cellCnt)
	for i := range oldCells {
		if oldCells[i].mapped != 0 {
			cell := ht.findCellByHash(oldCells[i].hash, oldCells[i].key)
			*cell = oldCells[i]
		}
	}
}

func (ht *StringHashMap) findCellByHash(hash uint64, key []byte) *stringHashMapCell {
	mask := ht.cellCnt - 1
	for idx := hash & mask; ; idx = (idx + 1) & mask {
		cell := &ht.cells[idx]
		if cell.mapped == 0 || (cell.hash == hash && bytes.Equal(cell.key, key)) {
			return cell
		}
	}
}

// Insert maps key to mapped unless key is already present. The caller owns
// id assignment so it can interleave ids from more than one table.
func (ht *StringHashMap) Insert(_ *mpool.MPool, key []byte, mapped uint64) (uint64, bool, error) {
	if ht.elemCnt*kLoadFactorDenom >= ht.cellCnt*kLoadFactorNumer {
		ht.resize()
	}
	hash := xxhash.Sum64(key)
	cell := ht.findCellByHash(hash, key)
	if cell.mapped == 0 {
		ht.elemCnt++
		off := len(ht.keyData)
		ht.keyData = append(ht.keyData, key...)
		cell.hash = hash
		cell.mapped = mapped
		cell.key = ht.keyData[off : off+len(key) : off+len(key)]
		return mapped, true, nil
	}
	return cell.mapped, false, nil
}

// InsertValue maps key to a dense id, allocating the next id on first sight.
func (ht *StringHashMap) InsertValue(mp *mpool.MPool, key []byte) (uint64, error) {
	v, _, err := ht.Insert(mp, key, ht.elemCnt+1)
	return v, err
}

func (ht *StringHashMap) Find(key []byte) uint64 {
	if ht.cellCnt == 0 {
		return 0
	}
	return ht.findCellByHash(xxhash.Sum64(key), key).mapped
}

func (ht *StringHashMap) Cardinality() uint64 {
	return ht.elemCnt
}

func (ht *StringHashMap) Free(_ *mpool.MPool) {
	ht.cells = nil
	ht.keyData = nil
	ht.cellCnt = 0
	ht.elemCnt = 0
}
