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

package vector

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/helicondb/helicon/pkg/container/types"
)

func TestFixedAppendAndGet(t *testing.T) {
	vec := NewVec(types.T_int64.ToType())
	require.NoError(t, AppendFixed(vec, int64(7)))
	require.NoError(t, AppendFixedList(vec, []int64{-1, 42}))

	require.Equal(t, 3, vec.Length())
	require.Equal(t, []int64{7, -1, 42}, MustFixedColNoTypeCheck[int64](vec))
	require.Equal(t, int64(-1), GetFixedAtNoTypeCheck[int64](vec, 1))

	// appending bytes to a fixed vector is a type error
	require.Error(t, AppendBytes(vec, []byte("x")))
}

func TestVarlenAppendAndGet(t *testing.T) {
	vec := NewVec(types.T_varchar.ToType())
	require.NoError(t, AppendBytes(vec, []byte("hello")))
	require.NoError(t, AppendStringList(vec, []string{"", "world"}))

	require.Equal(t, 3, vec.Length())
	require.Equal(t, "hello", vec.GetStringAt(0))
	require.Equal(t, "", vec.GetStringAt(1))
	require.Equal(t, "world", vec.GetStringAt(2))

	require.Error(t, AppendFixed(vec, int64(1)))
}

func TestGetRawBytesAt(t *testing.T) {
	fixed := NewVec(types.T_int32.ToType())
	require.NoError(t, AppendFixedList(fixed, []int32{1, 2}))
	require.Equal(t, types.EncodeFixed(int32(2)), fixed.GetRawBytesAt(1))

	varlen := NewVec(types.T_varchar.ToType())
	require.NoError(t, AppendBytes(varlen, []byte("abc")))
	require.Equal(t, []byte("abc"), varlen.GetRawBytesAt(0))
}

func TestUnionOneAndBatch(t *testing.T) {
	src := NewVec(types.T_varchar.ToType())
	require.NoError(t, AppendStringList(src, []string{"a", "b", "c"}))

	dst := NewVec(types.T_varchar.ToType())
	require.NoError(t, dst.UnionOne(src, 2))
	require.NoError(t, dst.UnionBatch(src))
	require.Equal(t, 4, dst.Length())
	require.Equal(t, "c", dst.GetStringAt(0))
	require.Equal(t, "a", dst.GetStringAt(1))
}

func TestInplaceSortAndCompactFixed(t *testing.T) {
	vec := NewVec(types.T_int64.ToType())
	require.NoError(t, AppendFixedList(vec, []int64{5, 3, 5, 1, 3}))

	vec.InplaceSortAndCompact()
	require.True(t, vec.GetSorted())
	require.Equal(t, []int64{1, 3, 5}, MustFixedColNoTypeCheck[int64](vec))
}

func TestInplaceSortAndCompactBytes(t *testing.T) {
	vec := NewVec(types.T_varchar.ToType())
	require.NoError(t, AppendStringList(vec, []string{"pear", "apple", "pear", "fig"}))

	vec.InplaceSortAndCompact()
	require.Equal(t, 3, vec.Length())
	require.Equal(t, "apple", vec.GetStringAt(0))
	require.Equal(t, "fig", vec.GetStringAt(1))
	require.Equal(t, "pear", vec.GetStringAt(2))
}

func TestMarshalRoundTrip(t *testing.T) {
	vec := NewVec(types.T_varchar.ToType())
	require.NoError(t, AppendStringList(vec, []string{"x", "", "yz"}))

	data, err := vec.MarshalBinary()
	require.NoError(t, err)

	got := NewVec(types.T_varchar.ToType())
	require.NoError(t, got.UnmarshalBinary(data))
	require.Equal(t, 3, got.Length())
	require.Equal(t, "x", got.GetStringAt(0))
	require.Equal(t, "", got.GetStringAt(1))
	require.Equal(t, "yz", got.GetStringAt(2))

	require.Error(t, got.UnmarshalBinary(data[:3]))
}

func TestDup(t *testing.T) {
	vec := NewVec(types.T_int32.ToType())
	require.NoError(t, AppendFixedList(vec, []int32{1, 2}))

	dup := vec.Dup()
	require.NoError(t, AppendFixed(dup, int32(3)))
	require.Equal(t, 2, vec.Length())
	require.Equal(t, 3, dup.Length())
}

func TestReset(t *testing.T) {
	vec := NewVec(types.T_varchar.ToType())
	require.NoError(t, AppendBytes(vec, []byte("a")))
	vec.Reset()
	require.Equal(t, 0, vec.Length())
	require.NoError(t, AppendBytes(vec, []byte("bc")))
	require.Equal(t, "bc", vec.GetStringAt(0))
}
