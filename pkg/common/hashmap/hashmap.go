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
	"github.com/vexecdb/vexec/pkg/common/mpool"
	"github.com/vexecdb/vexec/pkg/container/types"
)

// BuildHashMap picks the map flavor for a key shape: the packed integer
// map when every key column is fixed width and the whole tuple fits in
// 8 bytes, the serializing string map otherwise.
func BuildHashMap(keyTypes []types.Type, mp *mpool.MPool) (HashMap, error) {
	width := 0
	fixed := true
	for _, typ := range keyTypes {
		if typ.IsVarlen() {
			fixed = false
			break
		}
		width += typ.TypeSize()
	}
	if fixed && width <= 8 {
		return NewIntHashMap(mp)
	}
	return NewStrHashMap(mp)
}
