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
	"bytes"
	"fmt"
	"slices"

	"github.com/helicondb/helicon/pkg/common/moerr"
	"github.com/helicondb/helicon/pkg/container/types"
)

// Vector is a typed column of values.
// Fixed-size types live in data directly.  For the varlen string family,
// data holds row offsets into area (length+1 uint32 offsets) and area holds
// the raw bytes.
type Vector struct {
	typ    types.Type
	data   []byte
	area   []byte
	length int

	sorted bool // whether the vector is sorted and deduped
}

func NewVec(typ types.Type) *Vector {
	vec := &Vector{typ: typ}
	if typ.IsVarlen() {
		zero := uint32(0)
		vec.data = append(vec.data, types.EncodeUint32(&zero)...)
	}
	return vec
}

func (v *Vector) GetType() *types.Type {
	return &v.typ
}

func (v *Vector) SetType(typ types.Type) {
	v.typ = typ
}

func (v *Vector) Length() int {
	return v.length
}

func (v *Vector) GetSorted() bool {
	return v.sorted
}

func (v *Vector) SetSorted(b bool) {
	v.sorted = b
}

// Size returns the memory footprint of the vector payload in bytes.
func (v *Vector) Size() int {
	return len(v.data) + len(v.area)
}

func (v *Vector) Reset() {
	v.length = 0
	v.area = v.area[:0]
	v.data = v.data[:0]
	if v.typ.IsVarlen() {
		zero := uint32(0)
		v.data = append(v.data, types.EncodeUint32(&zero)...)
	}
	v.sorted = false
}

// MustFixedColNoTypeCheck views the vector payload as a typed slice.
// The caller owns getting T right.
func MustFixedColNoTypeCheck[T types.FixedSizeT](v *Vector) []T {
	return types.DecodeSlice[T](v.data)[:v.length]
}

func GetFixedAtNoTypeCheck[T types.FixedSizeT](v *Vector, idx int) T {
	return types.DecodeSlice[T](v.data)[idx]
}

func (v *Vector) offsets() []uint32 {
	return types.DecodeSlice[uint32](v.data)
}

func (v *Vector) GetBytesAt(i int) []byte {
	offs := v.offsets()
	return v.area[offs[i]:offs[i+1]]
}

func (v *Vector) GetStringAt(i int) string {
	return string(v.GetBytesAt(i))
}

// GetRawBytesAt returns the raw encoded bytes of row i, regardless of type.
// Used for hashing.
func (v *Vector) GetRawBytesAt(i int) []byte {
	if v.typ.IsVarlen() {
		return v.GetBytesAt(i)
	}
	sz := int(v.typ.Size)
	return v.data[i*sz : (i+1)*sz]
}

func AppendFixed[T types.FixedSizeT](v *Vector, val T) error {
	if v.typ.IsVarlen() {
		return moerr.NewInternalErrorNoCtx("append fixed value to %s vector", v.typ.Oid)
	}
	v.data = append(v.data, types.EncodeFixed(val)...)
	v.length++
	v.sorted = false
	return nil
}

func AppendFixedList[T types.FixedSizeT](v *Vector, vals []T) error {
	if v.typ.IsVarlen() {
		return moerr.NewInternalErrorNoCtx("append fixed values to %s vector", v.typ.Oid)
	}
	v.data = append(v.data, types.EncodeSlice(vals)...)
	v.length += len(vals)
	v.sorted = false
	return nil
}

func AppendBytes(v *Vector, val []byte) error {
	if !v.typ.IsVarlen() {
		return moerr.NewInternalErrorNoCtx("append bytes to %s vector", v.typ.Oid)
	}
	v.area = append(v.area, val...)
	end := uint32(len(v.area))
	v.data = append(v.data, types.EncodeUint32(&end)...)
	v.length++
	v.sorted = false
	return nil
}

func AppendBytesList(v *Vector, vals [][]byte) error {
	for _, val := range vals {
		if err := AppendBytes(v, val); err != nil {
			return err
		}
	}
	return nil
}

func AppendStringList(v *Vector, vals []string) error {
	for _, val := range vals {
		if err := AppendBytes(v, []byte(val)); err != nil {
			return err
		}
	}
	return nil
}

// UnionOne appends row sel of w into v.  Both vectors must share a type.
func (v *Vector) UnionOne(w *Vector, sel int64) error {
	if v.typ.Oid != w.typ.Oid {
		return moerr.NewInternalErrorNoCtx("union %s vector with %s vector", v.typ.Oid, w.typ.Oid)
	}
	if v.typ.IsVarlen() {
		return AppendBytes(v, w.GetBytesAt(int(sel)))
	}
	sz := int(v.typ.Size)
	v.data = append(v.data, w.data[int(sel)*sz:(int(sel)+1)*sz]...)
	v.length++
	v.sorted = false
	return nil
}

func (v *Vector) UnionBatch(w *Vector) error {
	if v.typ.IsVarlen() {
		for i := 0; i < w.length; i++ {
			if err := AppendBytes(v, w.GetBytesAt(i)); err != nil {
				return err
			}
		}
		return nil
	}
	if v.typ.Oid != w.typ.Oid {
		return moerr.NewInternalErrorNoCtx("union %s vector with %s vector", v.typ.Oid, w.typ.Oid)
	}
	v.data = append(v.data, w.data[:w.length*int(w.typ.Size)]...)
	v.length += w.length
	v.sorted = false
	return nil
}

func (v *Vector) Dup() *Vector {
	w := &Vector{
		typ:    v.typ,
		length: v.length,
		sorted: v.sorted,
	}
	w.data = append([]byte(nil), v.data...)
	w.area = append([]byte(nil), v.area...)
	return w
}

func (v *Vector) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer

	buf.Write(types.EncodeType(&v.typ))
	length := uint32(v.length)
	buf.Write(types.EncodeUint32(&length))
	dataLen := uint32(len(v.data))
	buf.Write(types.EncodeUint32(&dataLen))
	buf.Write(v.data)
	areaLen := uint32(len(v.area))
	buf.Write(types.EncodeUint32(&areaLen))
	buf.Write(v.area)

	return buf.Bytes(), nil
}

func (v *Vector) UnmarshalBinary(data []byte) error {
	if len(data) < types.TSize+12 {
		return moerr.NewInternalErrorNoCtx("invalid vector data")
	}
	v.typ = types.DecodeType(data[:types.TSize])
	data = data[types.TSize:]
	v.length = int(types.DecodeUint32(data[:4]))
	data = data[4:]
	dataLen := int(types.DecodeUint32(data[:4]))
	data = data[4:]
	if len(data) < dataLen+4 {
		return moerr.NewInternalErrorNoCtx("invalid vector data (payload truncated)")
	}
	v.data = append([]byte(nil), data[:dataLen]...)
	data = data[dataLen:]
	areaLen := int(types.DecodeUint32(data[:4]))
	data = data[4:]
	if len(data) < areaLen {
		return moerr.NewInternalErrorNoCtx("invalid vector data (area truncated)")
	}
	v.area = append([]byte(nil), data[:areaLen]...)
	v.sorted = false
	return nil
}

// InplaceSortAndCompact sorts the vector and removes adjacent duplicates,
// leaving only distinct values in ascending order.
func (v *Vector) InplaceSortAndCompact() {
	switch v.typ.Oid {
	case types.T_bool, types.T_uint8:
		sortFixed[uint8](v)
	case types.T_int8:
		sortFixed[int8](v)
	case types.T_int16:
		sortFixed[int16](v)
	case types.T_int32:
		sortFixed[int32](v)
	case types.T_int64:
		sortFixed[int64](v)
	case types.T_uint16:
		sortFixed[uint16](v)
	case types.T_uint32:
		sortFixed[uint32](v)
	case types.T_uint64:
		sortFixed[uint64](v)
	case types.T_float32:
		sortFixed[float32](v)
	case types.T_float64:
		sortFixed[float64](v)
	case types.T_char, types.T_varchar:
		v.sortBytes()
	default:
		panic(moerr.NewInternalErrorNoCtx("sort %s vector", v.typ.Oid))
	}
	v.sorted = true
}

func sortFixed[T types.OrderedT](v *Vector) {
	col := types.DecodeSlice[T](v.data)[:v.length]
	slices.Sort(col)
	col = slices.Compact(col)
	v.length = len(col)
	v.data = v.data[:v.length*int(v.typ.Size)]
}

func (v *Vector) sortBytes() {
	vals := make([][]byte, v.length)
	for i := 0; i < v.length; i++ {
		vals[i] = v.GetBytesAt(i)
	}
	slices.SortFunc(vals, bytes.Compare)
	vals = slices.CompactFunc(vals, bytes.Equal)

	w := NewVec(v.typ)
	for _, val := range vals {
		_ = AppendBytes(w, val)
	}
	v.data, v.area, v.length = w.data, w.area, w.length
}

func (v *Vector) String() string {
	return fmt.Sprintf("%s-[len=%d]", v.typ.Oid, v.length)
}
