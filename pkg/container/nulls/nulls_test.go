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

package nulls

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddContains(t *testing.T) {
	var nsp *Nulls
	require.False(t, Any(nsp))
	require.False(t, Contains(nsp, 0))

	nsp = &Nulls{}
	require.False(t, Any(nsp))

	Add(nsp, 3, 7)
	require.True(t, Any(nsp))
	require.True(t, Contains(nsp, 3))
	require.True(t, Contains(nsp, 7))
	require.False(t, Contains(nsp, 4))
	require.Equal(t, 2, Size(nsp))

	AddRange(nsp, 10, 13)
	require.Equal(t, 5, Size(nsp))
	require.Equal(t, []uint32{3, 7, 10, 11, 12}, ToArray(nsp))
}

func TestCloneIsIndependent(t *testing.T) {
	nsp := &Nulls{}
	Add(nsp, 1)

	cl := nsp.Clone()
	Add(cl, 2)
	require.True(t, Contains(cl, 2))
	require.False(t, Contains(nsp, 2))

	nsp.Reset()
	require.False(t, Any(nsp))
	require.True(t, Any(cl))
}

func TestOrWithOffset(t *testing.T) {
	a := &Nulls{}
	Add(a, 0, 2)
	b := &Nulls{}
	Add(b, 1)

	res := &Nulls{}
	Or(a, b, 5, res)
	require.Equal(t, []uint32{0, 2, 6}, ToArray(res))
}
