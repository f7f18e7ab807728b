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

package mpool

import (
	"context"
	"sync/atomic"

	"github.com/vexecdb/vexec/pkg/common/moerr"
)

const (
	MB = 1 << 20
	GB = 1 << 30

	// NoFixed means the pool has no cap. Used by tests and tools.
	NoFixed int64 = -1
)

// MPool is an accounting allocator. Every byte slice handed out is tracked
// by capacity so leaks show up as a non-zero CurrNB at teardown.
type MPool struct {
	name string
	cap  int64

	currNB  atomic.Int64
	highNB  atomic.Int64
	allocCn atomic.Int64
}

func NewMPool(name string, cap int64) (*MPool, error) {
	if cap == 0 {
		return nil, moerr.NewInvalidArg(context.Background(), "mpool cap", cap)
	}
	return &MPool{name: name, cap: cap}, nil
}

// MustNewZero returns an uncapped pool, panicking on failure. Test helper.
func MustNewZero() *MPool {
	mp, err := NewMPool("zero", NoFixed)
	if err != nil {
		panic(err)
	}
	return mp
}

func MustNewWithCap(cap int64) *MPool {
	mp, err := NewMPool("capped", cap)
	if err != nil {
		panic(err)
	}
	return mp
}

func (mp *MPool) Name() string {
	return mp.name
}

func (mp *MPool) Cap() int64 {
	if mp.cap == NoFixed {
		return int64(MaxCap())
	}
	return mp.cap
}

func MaxCap() int64 {
	return 16 * GB
}

// CurrNB is the number of bytes currently checked out of the pool.
func (mp *MPool) CurrNB() int64 {
	return mp.currNB.Load()
}

func (mp *MPool) HighWaterMark() int64 {
	return mp.highNB.Load()
}

func (mp *MPool) AllocCount() int64 {
	return mp.allocCn.Load()
}

func (mp *MPool) charge(sz int64) error {
	nb := mp.currNB.Add(sz)
	if mp.cap != NoFixed && nb > mp.cap {
		mp.currNB.Add(-sz)
		return moerr.NewOOM(context.Background())
	}
	for {
		high := mp.highNB.Load()
		if nb <= high || mp.highNB.CompareAndSwap(high, nb) {
			return nil
		}
	}
}

// Alloc returns a zeroed slice of exactly sz bytes. The slice's capacity is
// what gets accounted; pass the same slice back to Free.
func (mp *MPool) Alloc(sz int) ([]byte, error) {
	if sz < 0 {
		return nil, moerr.NewInvalidArg(context.Background(), "alloc size", sz)
	}
	if sz == 0 {
		return nil, nil
	}
	bs := make([]byte, sz)
	if err := mp.charge(int64(cap(bs))); err != nil {
		return nil, err
	}
	mp.allocCn.Add(1)
	return bs, nil
}

// Grow returns a slice of at least sz bytes carrying old's content. old is
// released; growth doubles to amortize repeated appends.
func (mp *MPool) Grow(old []byte, sz int) ([]byte, error) {
	if sz <= cap(old) {
		return old[:sz], nil
	}
	newCap := cap(old) * 2
	if newCap < sz {
		newCap = sz
	}
	bs, err := mp.Alloc(newCap)
	if err != nil {
		return nil, err
	}
	copy(bs, old)
	mp.Free(old)
	return bs[:sz], nil
}

func (mp *MPool) Free(bs []byte) {
	if cap(bs) == 0 {
		return
	}
	mp.currNB.Add(-int64(cap(bs)))
}
