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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vexecdb/vexec/pkg/common/moerr"
)

func TestAllocFree(t *testing.T) {
	mp := MustNewZero()

	bs, err := mp.Alloc(100)
	require.NoError(t, err)
	require.Equal(t, 100, len(bs))
	require.Equal(t, int64(cap(bs)), mp.CurrNB())

	mp.Free(bs)
	require.Equal(t, int64(0), mp.CurrNB())
	require.Equal(t, int64(1), mp.AllocCount())
}

func TestAllocZero(t *testing.T) {
	mp := MustNewZero()
	bs, err := mp.Alloc(0)
	require.NoError(t, err)
	require.Nil(t, bs)
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestCap(t *testing.T) {
	mp := MustNewWithCap(1024)

	bs, err := mp.Alloc(1000)
	require.NoError(t, err)

	_, err = mp.Alloc(100)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrOOM))

	mp.Free(bs)
	require.Equal(t, int64(0), mp.CurrNB())

	bs, err = mp.Alloc(100)
	require.NoError(t, err)
	mp.Free(bs)
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestGrow(t *testing.T) {
	mp := MustNewZero()

	bs, err := mp.Alloc(8)
	require.NoError(t, err)
	for i := range bs {
		bs[i] = byte(i)
	}

	bs2, err := mp.Grow(bs, 64)
	require.NoError(t, err)
	require.Equal(t, 64, len(bs2))
	for i := 0; i < 8; i++ {
		require.Equal(t, byte(i), bs2[i])
	}
	require.Equal(t, int64(cap(bs2)), mp.CurrNB())

	// shrink is a reslice, no accounting change
	bs3, err := mp.Grow(bs2, 16)
	require.NoError(t, err)
	require.Equal(t, 16, len(bs3))
	require.Equal(t, int64(cap(bs2)), mp.CurrNB())

	mp.Free(bs3)
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestHighWaterMark(t *testing.T) {
	mp := MustNewZero()

	a, err := mp.Alloc(100)
	require.NoError(t, err)
	b, err := mp.Alloc(200)
	require.NoError(t, err)
	high := mp.CurrNB()
	mp.Free(a)
	mp.Free(b)

	require.Equal(t, high, mp.HighWaterMark())
	require.Equal(t, int64(0), mp.CurrNB())
}
