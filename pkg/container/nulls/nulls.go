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

// Package nulls tracks the null rows of a vector as a roaring bitmap.
// A nil *Nulls and a Nulls with a nil map both mean "no nulls".
package nulls

import (
	"github.com/RoaringBitmap/roaring"
)

type Nulls struct {
	Np *roaring.Bitmap
}

func NewWithSize(_ int) *Nulls {
	return &Nulls{}
}

func (nsp *Nulls) Clone() *Nulls {
	if nsp == nil {
		return nil
	}
	if nsp.Np == nil {
		return &Nulls{}
	}
	return &Nulls{Np: nsp.Np.Clone()}
}

func (nsp *Nulls) Reset() {
	if nsp != nil && nsp.Np != nil {
		nsp.Np.Clear()
	}
}

// Any reports whether nsp contains any null row.
func Any(nsp *Nulls) bool {
	return nsp != nil && nsp.Np != nil && !nsp.Np.IsEmpty()
}

func Size(nsp *Nulls) int {
	if !Any(nsp) {
		return 0
	}
	return int(nsp.Np.GetCardinality())
}

func Contains(nsp *Nulls, row uint64) bool {
	return nsp != nil && nsp.Np != nil && nsp.Np.Contains(uint32(row))
}

func Add(nsp *Nulls, rows ...uint64) {
	if nsp == nil || len(rows) == 0 {
		return
	}
	if nsp.Np == nil {
		nsp.Np = roaring.New()
	}
	for _, row := range rows {
		nsp.Np.Add(uint32(row))
	}
}

func AddRange(nsp *Nulls, start, end uint64) {
	if nsp == nil || start >= end {
		return
	}
	if nsp.Np == nil {
		nsp.Np = roaring.New()
	}
	nsp.Np.AddRange(start, end)
}

// Or unions a and b into result, shifting b's rows by offset. Used when
// appending one vector's rows behind another's.
func Or(a, b *Nulls, offset uint64, result *Nulls) {
	if Any(a) {
		if result.Np == nil {
			result.Np = roaring.New()
		}
		result.Np.Or(a.Np)
	}
	if Any(b) {
		if result.Np == nil {
			result.Np = roaring.New()
		}
		it := b.Np.Iterator()
		for it.HasNext() {
			result.Np.Add(it.Next() + uint32(offset))
		}
	}
}

// ToArray returns the null rows in ascending order.
func ToArray(nsp *Nulls) []uint32 {
	if !Any(nsp) {
		return nil
	}
	return nsp.Np.ToArray()
}
