// Copyright 2024 Helicon DB
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

package bitmap

import (
	"math/bits"

	"github.com/helicondb/helicon/pkg/container/types"
)

// Bitmap is a flat, fixed-size bitmap.  In case len is not a multiple of
// 64 the trailing bits of the last word are assumed zero.
type Bitmap struct {
	len  int64
	data []uint64
}

func New() Bitmap {
	return Bitmap{}
}

func (n *Bitmap) InitWithSize(len int64) {
	n.len = len
	n.data = make([]uint64, (len+63)/64)
}

func (n *Bitmap) InitWith(other *Bitmap) {
	n.len = other.len
	n.data = append([]uint64(nil), other.data...)
}

func (n *Bitmap) Clone() *Bitmap {
	if n == nil {
		return nil
	}
	var ret Bitmap
	ret.InitWith(n)
	return &ret
}

func (n *Bitmap) Len() int64 {
	return n.len
}

func (n *Bitmap) Reset() {
	n.len = 0
	n.data = nil
}

func (n *Bitmap) Add(row uint64) {
	n.data[row>>6] |= 1 << (row & 0x3F)
}

func (n *Bitmap) AddMany(rows []uint64) {
	for _, row := range rows {
		n.data[row>>6] |= 1 << (row & 0x3F)
	}
}

func (n *Bitmap) Remove(row uint64) {
	if row >= uint64(n.len) {
		return
	}
	n.data[row>>6] &^= uint64(1) << (row & 0x3F)
}

func (n *Bitmap) Contains(row uint64) bool {
	return (n.data[row>>6] & (1 << (row & 0x3F))) != 0
}

func (n *Bitmap) IsEmpty() bool {
	for i := 0; i < len(n.data); i++ {
		if n.data[i] != 0 {
			return false
		}
	}
	return true
}

// Or folds another bitmap of the same length into this one.
func (n *Bitmap) Or(other *Bitmap) {
	for i := range other.data {
		n.data[i] |= other.data[i]
	}
}

// Count returns the number of set bits.
func (n *Bitmap) Count() int {
	var cnt int
	for i := 0; i < len(n.data); i++ {
		cnt += bits.OnesCount64(n.data[i])
	}
	return cnt
}

func (n *Bitmap) Marshal() []byte {
	var buf []byte
	length := uint64(n.len)
	buf = append(buf, types.EncodeUint64(&length)...)
	buf = append(buf, types.EncodeSlice(n.data)...)
	return buf
}

func (n *Bitmap) Unmarshal(data []byte) {
	n.len = int64(types.DecodeUint64(data[:8]))
	data = data[8:]
	n.data = append([]uint64(nil), types.DecodeSlice[uint64](data)...)
}
