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

package runtimefilter

import (
	"bytes"
	"cmp"
	"math"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/roaring64"
	"go.uber.org/zap"

	"github.com/helicondb/helicon/pkg/common/bloomfilter"
	"github.com/helicondb/helicon/pkg/common/moerr"
	"github.com/helicondb/helicon/pkg/container/types"
	"github.com/helicondb/helicon/pkg/container/vector"
	"github.com/helicondb/helicon/pkg/vm/message"
	"github.com/helicondb/helicon/pkg/vm/process"
)

type runtimeFilter struct {
	spec    Spec
	keyType types.Type
	realTyp FilterType

	ignored  bool
	disabled bool

	// negotiator merges the size reports of the fragments building this
	// filter, nil when the filter does not need size sync
	negotiator *SizeNegotiator
	dep        FinishDependency

	// the merge callback runs on whichever goroutine delivers the last
	// size report, so the synced fields are atomics
	syncedSize atomic.Uint64
	syncedDone atomic.Bool

	state *SharedState
}

// NewRuntimeFilter creates a filter accumulating build keys of keyType.
// Filters with NeedSizeSync require a negotiator shared by all fragments
// producing the same filter id.
func NewRuntimeFilter(spec Spec, keyType types.Type, negotiator *SizeNegotiator) RuntimeFilter {
	realTyp := spec.Typ
	if realTyp == InOrBloomFilter {
		realTyp = InFilter
	}
	return &runtimeFilter{
		spec:       spec,
		keyType:    keyType,
		realTyp:    realTyp,
		negotiator: negotiator,
		state:      &SharedState{Typ: realTyp},
	}
}

func (f *runtimeFilter) FilterId() int32 {
	return f.spec.FilterId
}

func (f *runtimeFilter) ExprOrder() int32 {
	return f.spec.ExprOrder
}

func (f *runtimeFilter) Type() FilterType {
	return f.spec.Typ
}

func (f *runtimeFilter) RealType() FilterType {
	return f.realTyp
}

func (f *runtimeFilter) NeedSyncFilterSize() bool {
	return f.spec.NeedSizeSync
}

func (f *runtimeFilter) SetFinishDependency(dep FinishDependency) {
	f.dep = dep
	dep.Add(1)
}

// SendFilterSize reports the local build size to the negotiator.  The
// merged size lands via callback, which may run synchronously inside
// this call when every other fragment has already reported.
func (f *runtimeFilter) SendFilterSize(proc *process.Process, localSize uint64) error {
	if !f.spec.NeedSizeSync {
		return nil
	}
	if f.negotiator == nil {
		return moerr.NewInvalidState(proc.Ctx,
			"runtime filter %d needs size sync but has no negotiator", f.spec.FilterId)
	}
	return f.negotiator.Report(localSize, func(mergedSize uint64) {
		f.syncedSize.Store(mergedSize)
		f.syncedDone.Store(true)
		if f.dep != nil {
			f.dep.Sub()
		}
	})
}

func (f *runtimeFilter) GetSyncedSize() uint64 {
	return f.syncedSize.Load()
}

func (f *runtimeFilter) SizeSyncDone() bool {
	if !f.spec.NeedSizeSync {
		return true
	}
	return f.syncedDone.Load()
}

func (f *runtimeFilter) ChangeToBloomFilter() error {
	if f.spec.Typ != InOrBloomFilter {
		return moerr.NewInvalidStateNoCtx(
			"cannot change %s runtime filter %d to bloom filter", f.spec.Typ, f.spec.FilterId)
	}
	if f.realTyp == BloomFilter {
		return nil
	}
	if f.state.Rows > 0 {
		return moerr.NewInvalidStateNoCtx(
			"runtime filter %d already holds %d rows, too late for bloom transition",
			f.spec.FilterId, f.state.Rows)
	}
	f.realTyp = BloomFilter
	f.state.Typ = BloomFilter
	return nil
}

func (f *runtimeFilter) InitBloomFilter(proc *process.Process, size uint64) error {
	if f.realTyp != BloomFilter {
		return moerr.NewInvalidState(proc.Ctx,
			"init bloom filter on %s runtime filter %d", f.realTyp, f.spec.FilterId)
	}
	probability := proc.RuntimeFilterBloomFalsePositive()
	if probability <= 0 {
		probability = bloomFilterProbability(size)
	}
	f.state.Bloom = bloomfilter.New(int64(size), probability)
	return nil
}

// bloomFilterProbability picks a false positive rate from the build
// cardinality, balancing memory against filtering accuracy.
func bloomFilterProbability(rowCount uint64) float64 {
	switch {
	case rowCount < 10_0001:
		return 0.00001
	case rowCount < 100_0001:
		return 0.000003
	case rowCount < 1000_0001:
		return 0.000001
	case rowCount < 1_0000_0001:
		return 0.0000005
	case rowCount < 10_0000_0001:
		return 0.0000002
	default:
		return 0.0000001
	}
}

// InsertBatch accumulates rows [start, length) of the key column.
func (f *runtimeFilter) InsertBatch(vec *vector.Vector, start int) {
	length := vec.Length()
	if start >= length {
		return
	}
	switch f.realTyp {
	case InFilter:
		f.insertIn(vec, start)
	case MinMaxFilter:
		f.insertMinMax(vec, start)
	case BloomFilter:
		if f.state.Bloom == nil {
			panic(moerr.NewInvalidStateNoCtx(
				"runtime filter %d ingests before bloom filter init", f.spec.FilterId))
		}
		f.state.Bloom.AddFrom(vec, start)
	}
	f.state.Rows += uint64(length - start)
}

func (f *runtimeFilter) insertIn(vec *vector.Vector, start int) {
	if f.keyType.Oid.IsInteger() {
		if f.state.InBits == nil {
			f.state.InBits = roaring64.New()
		}
		for i := start; i < vec.Length(); i++ {
			f.state.InBits.Add(integerAt(vec, i))
		}
		return
	}
	if f.state.InKeys == nil {
		f.state.InKeys = vector.NewVec(f.keyType)
	}
	for i := start; i < vec.Length(); i++ {
		// dedup is deferred to publication
		_ = f.state.InKeys.UnionOne(vec, int64(i))
	}
}

func (f *runtimeFilter) insertMinMax(vec *vector.Vector, start int) {
	for i := start; i < vec.Length(); i++ {
		raw := vec.GetRawBytesAt(i)
		if !f.state.HasMinMax {
			f.state.Min = append([]byte(nil), raw...)
			f.state.Max = append([]byte(nil), raw...)
			f.state.HasMinMax = true
			continue
		}
		if compareEncoded(f.keyType.Oid, raw, f.state.Min) < 0 {
			f.state.Min = append(f.state.Min[:0], raw...)
		}
		if compareEncoded(f.keyType.Oid, raw, f.state.Max) > 0 {
			f.state.Max = append(f.state.Max[:0], raw...)
		}
	}
}

// Publish broadcasts the finished filter on the query's message board.
// Ignored and disabled filters publish PASS so probe-side consumers never
// block; an empty build publishes DROP.
func (f *runtimeFilter) Publish(proc *process.Process, publishLocal bool) error {
	msg := message.RuntimeFilterMessage{Tag: f.spec.Tag}

	switch {
	case f.ignored || f.disabled:
		msg.Typ = message.RuntimeFilter_PASS
	case f.state.Rows == 0:
		msg.Typ = message.RuntimeFilter_DROP
	default:
		if err := f.fillContent(&msg); err != nil {
			return err
		}
	}

	message.SendRuntimeFilter(msg, proc.GetMessageBoard())
	proc.Debug("runtime filter published",
		zap.Int32("filter", f.spec.FilterId),
		zap.Int32("typ", msg.Typ),
		zap.Int32("card", msg.Card),
		zap.Bool("local", publishLocal))
	return nil
}

func (f *runtimeFilter) fillContent(msg *message.RuntimeFilterMessage) error {
	switch f.realTyp {
	case InFilter:
		if f.state.InBits != nil {
			data, err := f.state.InBits.ToBytes()
			if err != nil {
				return moerr.NewInternalErrorNoCtx(
					"marshal runtime filter %d bitmap: %s", f.spec.FilterId, err)
			}
			msg.Typ = message.RuntimeFilter_BITMAP
			msg.Card = clampCard(f.state.InBits.GetCardinality())
			msg.Data = data
			return nil
		}
		f.state.InKeys.InplaceSortAndCompact()
		data, err := f.state.InKeys.MarshalBinary()
		if err != nil {
			return err
		}
		msg.Typ = message.RuntimeFilter_IN
		msg.Card = int32(f.state.InKeys.Length())
		msg.Data = data

	case MinMaxFilter:
		msg.Typ = message.RuntimeFilter_MIN_MAX
		msg.Card = clampCard(f.state.Rows)
		msg.Data = encodeMinMax(f.state.Min, f.state.Max)

	case BloomFilter:
		data, err := f.state.Bloom.Marshal()
		if err != nil {
			return err
		}
		msg.Typ = message.RuntimeFilter_BLOOMFILTER
		msg.Card = clampCard(f.state.Rows)
		msg.Data = data
	}
	return nil
}

func (f *runtimeFilter) SetIgnored() {
	f.ignored = true
}

func (f *runtimeFilter) SetDisabled() {
	f.disabled = true
}

func (f *runtimeFilter) GetIgnored() bool {
	return f.ignored
}

func (f *runtimeFilter) GetDisabled() bool {
	return f.disabled
}

func (f *runtimeFilter) SharedState() *SharedState {
	return f.state
}

// SetSharedState replaces the filter's content with a sibling's.  The
// resolved type travels with the state: the owner may have degraded a
// hybrid filter to bloom, and publication must follow the content.
func (f *runtimeFilter) SetSharedState(state *SharedState) {
	f.state = state
	f.realTyp = state.Typ
}

// encodeMinMax packs both bounds with length prefixes:
//
//	[minLen:uint32][minBytes][maxLen:uint32][maxBytes]
func encodeMinMax(min, max []byte) []byte {
	minLen := uint32(len(min))
	maxLen := uint32(len(max))
	data := make([]byte, 0, 8+len(min)+len(max))
	data = append(data, types.EncodeUint32(&minLen)...)
	data = append(data, min...)
	data = append(data, types.EncodeUint32(&maxLen)...)
	data = append(data, max...)
	return data
}

// DecodeMinMax is the inverse of the MIN_MAX message payload encoding.
func DecodeMinMax(data []byte) (min, max []byte, err error) {
	if len(data) < 4 {
		return nil, nil, moerr.NewInternalErrorNoCtx("invalid min/max payload")
	}
	minLen := int(types.DecodeUint32(data[:4]))
	data = data[4:]
	if len(data) < minLen+4 {
		return nil, nil, moerr.NewInternalErrorNoCtx("invalid min/max payload (min truncated)")
	}
	min = data[:minLen]
	data = data[minLen:]
	maxLen := int(types.DecodeUint32(data[:4]))
	data = data[4:]
	if len(data) < maxLen {
		return nil, nil, moerr.NewInternalErrorNoCtx("invalid min/max payload (max truncated)")
	}
	return min, data[:maxLen], nil
}

// integerAt widens any integer value to the uint64 key space of the
// membership bitmap.  Signed values map through their two's complement
// bit pattern, which keeps the mapping injective.
func integerAt(v *vector.Vector, i int) uint64 {
	switch v.GetType().Oid {
	case types.T_int8:
		return uint64(int64(vector.GetFixedAtNoTypeCheck[int8](v, i)))
	case types.T_int16:
		return uint64(int64(vector.GetFixedAtNoTypeCheck[int16](v, i)))
	case types.T_int32:
		return uint64(int64(vector.GetFixedAtNoTypeCheck[int32](v, i)))
	case types.T_int64:
		return uint64(vector.GetFixedAtNoTypeCheck[int64](v, i))
	case types.T_uint8:
		return uint64(vector.GetFixedAtNoTypeCheck[uint8](v, i))
	case types.T_uint16:
		return uint64(vector.GetFixedAtNoTypeCheck[uint16](v, i))
	case types.T_uint32:
		return uint64(vector.GetFixedAtNoTypeCheck[uint32](v, i))
	case types.T_uint64:
		return vector.GetFixedAtNoTypeCheck[uint64](v, i)
	}
	panic(moerr.NewInternalErrorNoCtx("bitmap key on %s column", v.GetType().Oid))
}

func compareEncoded(t types.T, a, b []byte) int {
	switch t {
	case types.T_bool, types.T_uint8:
		return cmp.Compare(types.DecodeFixed[uint8](a), types.DecodeFixed[uint8](b))
	case types.T_int8:
		return cmp.Compare(types.DecodeFixed[int8](a), types.DecodeFixed[int8](b))
	case types.T_int16:
		return cmp.Compare(types.DecodeFixed[int16](a), types.DecodeFixed[int16](b))
	case types.T_int32:
		return cmp.Compare(types.DecodeFixed[int32](a), types.DecodeFixed[int32](b))
	case types.T_int64:
		return cmp.Compare(types.DecodeFixed[int64](a), types.DecodeFixed[int64](b))
	case types.T_uint16:
		return cmp.Compare(types.DecodeFixed[uint16](a), types.DecodeFixed[uint16](b))
	case types.T_uint32:
		return cmp.Compare(types.DecodeFixed[uint32](a), types.DecodeFixed[uint32](b))
	case types.T_uint64:
		return cmp.Compare(types.DecodeFixed[uint64](a), types.DecodeFixed[uint64](b))
	case types.T_float32:
		return cmp.Compare(types.DecodeFixed[float32](a), types.DecodeFixed[float32](b))
	case types.T_float64:
		return cmp.Compare(types.DecodeFixed[float64](a), types.DecodeFixed[float64](b))
	case types.T_char, types.T_varchar:
		return bytes.Compare(a, b)
	}
	panic(moerr.NewInternalErrorNoCtx("compare %s values", t))
}

func clampCard(n uint64) int32 {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(n)
}
