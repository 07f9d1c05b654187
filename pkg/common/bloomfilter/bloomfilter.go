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

package bloomfilter

import (
	"bytes"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/helicondb/helicon/pkg/common/bitmap"
	"github.com/helicondb/helicon/pkg/common/moerr"
	"github.com/helicondb/helicon/pkg/container/types"
	"github.com/helicondb/helicon/pkg/container/vector"
)

// BloomFilter is a probabilistic membership filter over column vectors.
// Each hash seed produces three bit positions per key.
type BloomFilter struct {
	bitmap    bitmap.Bitmap
	hashSeed  []uint64
	valLength int
}

func computeMemAndHashCount(rowCount int64, probability float64) (int64, int) {
	k := 1
	if rowCount < 100_0001 {
		k = 1
	} else if rowCount < 1000_0001 {
		k = 2
	} else if rowCount < 100_0000_0001 {
		k = 3
	} else {
		panic("unsupport rowCount")
	}
	k *= 3
	mFloat := -float64(k) * float64(rowCount) / math.Log(1-math.Pow(probability, 1.0/float64(k)))
	return int64(mFloat), k
}

// New creates a bloom filter with optimal parameters derived from the
// expected number of elements and the desired false positive probability.
func New(rowCount int64, probability float64) *BloomFilter {
	if rowCount <= 0 {
		rowCount = 2
	}
	nbits, k := computeMemAndHashCount(rowCount, probability)
	seedCount := k / 3

	bf := &BloomFilter{
		hashSeed:  make([]uint64, seedCount),
		valLength: seedCount * 3,
	}
	bf.bitmap.InitWithSize(nbits)
	for i := 0; i < seedCount; i++ {
		// fixed odd constants keep sibling instances' filters mergeable
		bf.hashSeed[i] = 0x9E3779B97F4A7C15 * uint64(2*i+1)
	}
	return bf
}

func (bf *BloomFilter) Clean() {
	bf.bitmap.Reset()
	bf.hashSeed = nil
	bf.valLength = 0
}

func (bf *BloomFilter) Valid() bool {
	return bf != nil && bf.bitmap.Len() > 0
}

// Size returns the bitmap size in bits.
func (bf *BloomFilter) Size() int64 {
	return bf.bitmap.Len()
}

func (bf *BloomFilter) Add(v *vector.Vector) {
	bf.AddFrom(v, 0)
}

// AddFrom adds rows [start, length) of the vector.
func (bf *BloomFilter) AddFrom(v *vector.Vector, start int) {
	length := v.Length()
	positions := make([]uint64, 0, bf.valLength)
	for i := start; i < length; i++ {
		positions = bf.rowPositions(v, i, positions[:0])
		bf.bitmap.AddMany(positions)
	}
}

func (bf *BloomFilter) Test(v *vector.Vector, callBack func(exist bool, row int)) {
	length := v.Length()
	positions := make([]uint64, 0, bf.valLength)
	for i := 0; i < length; i++ {
		positions = bf.rowPositions(v, i, positions[:0])
		exist := true
		for _, pos := range positions {
			if !bf.bitmap.Contains(pos) {
				exist = false
				break
			}
		}
		callBack(exist, i)
	}
}

func (bf *BloomFilter) TestAndAdd(v *vector.Vector, callBack func(exist bool, row int)) {
	length := v.Length()
	positions := make([]uint64, 0, bf.valLength)
	for i := 0; i < length; i++ {
		positions = bf.rowPositions(v, i, positions[:0])
		exist := true
		for _, pos := range positions {
			if !bf.bitmap.Contains(pos) {
				bf.bitmap.Add(pos)
				exist = false
			}
		}
		callBack(exist, i)
	}
}

// Merge ORs another filter built with the same parameters into this one.
func (bf *BloomFilter) Merge(other *BloomFilter) error {
	if bf.bitmap.Len() != other.bitmap.Len() || len(bf.hashSeed) != len(other.hashSeed) {
		return moerr.NewInternalErrorNoCtx("merge bloomfilters with different shapes")
	}
	bf.bitmap.Or(&other.bitmap)
	return nil
}

// Marshal encodes the filter for transmission via runtime filter message
// within the same node.  Encoding format:
//
//	[seedCount:uint32][seeds...:uint64][bitmapLen:uint32][bitmapBytes...]
func (bf *BloomFilter) Marshal() ([]byte, error) {
	var buf bytes.Buffer

	seedCount := uint32(len(bf.hashSeed))
	buf.Write(types.EncodeUint32(&seedCount))
	for i := 0; i < int(seedCount); i++ {
		buf.Write(types.EncodeUint64(&bf.hashSeed[i]))
	}

	bmBytes := bf.bitmap.Marshal()
	bmLen := uint32(len(bmBytes))
	buf.Write(types.EncodeUint32(&bmLen))
	buf.Write(bmBytes)

	return buf.Bytes(), nil
}

func (bf *BloomFilter) Unmarshal(data []byte) error {
	if len(data) < 4 {
		return moerr.NewInternalErrorNoCtx("invalid bloomfilter data")
	}

	seedCount := int(types.DecodeUint32(data[:4]))
	data = data[4:]
	if seedCount <= 0 {
		return moerr.NewInternalErrorNoCtx("invalid bloomfilter seed count")
	}

	hashSeed := make([]uint64, seedCount)
	for i := 0; i < seedCount; i++ {
		if len(data) < 8 {
			return moerr.NewInternalErrorNoCtx("invalid bloomfilter data (seed truncated)")
		}
		hashSeed[i] = types.DecodeUint64(data[:8])
		data = data[8:]
	}

	if len(data) < 4 {
		return moerr.NewInternalErrorNoCtx("invalid bloomfilter data (no bitmap length)")
	}
	bmLen := int(types.DecodeUint32(data[:4]))
	data = data[4:]
	if len(data) < bmLen {
		return moerr.NewInternalErrorNoCtx("invalid bloomfilter data (bitmap truncated)")
	}

	var bm bitmap.Bitmap
	bm.Unmarshal(data[:bmLen])

	bf.bitmap = bm
	bf.hashSeed = hashSeed
	bf.valLength = seedCount * 3
	return nil
}

// rowPositions computes the bit positions of row i.  One xxhash digest per
// row, remixed per seed with splitmix64 rounds for the three positions.
func (bf *BloomFilter) rowPositions(v *vector.Vector, i int, positions []uint64) []uint64 {
	bitSize := uint64(bf.bitmap.Len())
	base := xxhash.Sum64(encodeKey(v, i))
	for _, seed := range bf.hashSeed {
		h := base ^ seed
		for j := 0; j < 3; j++ {
			h = splitmix64(h)
			positions = append(positions, h%bitSize)
		}
	}
	return positions
}

func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}

func encodeKey(v *vector.Vector, i int) []byte {
	return v.GetRawBytesAt(i)
}
