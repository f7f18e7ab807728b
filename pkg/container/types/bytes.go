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

package types

// Bytes is the payload of a var-length column: one shared data area with
// per-row offsets and lengths.
type Bytes struct {
	Data    []byte
	Offsets []uint32
	Lengths []uint32
}

func (b *Bytes) Get(i int64) []byte {
	return b.Data[b.Offsets[i] : b.Offsets[i]+b.Lengths[i]]
}

func (b *Bytes) GetString(i int64) string {
	return string(b.Get(i))
}

func (b *Bytes) Count() int {
	return len(b.Offsets)
}

// Append adds one value to the tail of the column. The data area is plain
// append-grown; callers that need accounting pass through vector.AppendBytes.
func (b *Bytes) Append(v []byte) {
	b.Offsets = append(b.Offsets, uint32(len(b.Data)))
	b.Lengths = append(b.Lengths, uint32(len(v)))
	b.Data = append(b.Data, v...)
}

func (b *Bytes) Reset() {
	b.Data = b.Data[:0]
	b.Offsets = b.Offsets[:0]
	b.Lengths = b.Lengths[:0]
}
