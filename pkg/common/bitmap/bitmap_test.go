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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitmapAddRemoveContains(t *testing.T) {
	var bm Bitmap
	bm.InitWithSize(256)
	require.True(t, bm.IsEmpty())

	bm.Add(0)
	bm.Add(63)
	bm.Add(64)
	bm.AddMany([]uint64{100, 200, 255})
	require.False(t, bm.IsEmpty())
	require.Equal(t, 6, bm.Count())

	for _, row := range []uint64{0, 63, 64, 100, 200, 255} {
		require.True(t, bm.Contains(row), "row %d", row)
	}
	require.False(t, bm.Contains(1))

	bm.Remove(100)
	require.False(t, bm.Contains(100))
	require.Equal(t, 5, bm.Count())
}

func TestBitmapOr(t *testing.T) {
	var a, b Bitmap
	a.InitWithSize(128)
	b.InitWithSize(128)
	a.AddMany([]uint64{1, 2, 3})
	b.AddMany([]uint64{3, 64, 127})

	a.Or(&b)
	require.Equal(t, 5, a.Count())
	for _, row := range []uint64{1, 2, 3, 64, 127} {
		require.True(t, a.Contains(row))
	}
	// b unchanged
	require.Equal(t, 3, b.Count())
}

func TestBitmapMarshalRoundTrip(t *testing.T) {
	var bm Bitmap
	bm.InitWithSize(200)
	bm.AddMany([]uint64{0, 17, 63, 64, 199})

	var got Bitmap
	got.Unmarshal(bm.Marshal())
	require.Equal(t, bm.Len(), got.Len())
	require.Equal(t, bm.Count(), got.Count())
	for _, row := range []uint64{0, 17, 63, 64, 199} {
		require.True(t, got.Contains(row))
	}
}

func TestBitmapClone(t *testing.T) {
	var bm Bitmap
	bm.InitWithSize(64)
	bm.Add(5)

	clone := bm.Clone()
	clone.Add(6)
	require.True(t, clone.Contains(5))
	require.False(t, bm.Contains(6))
}
