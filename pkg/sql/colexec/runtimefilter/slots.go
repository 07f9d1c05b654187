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
	"github.com/helicondb/helicon/pkg/common/moerr"
	"github.com/helicondb/helicon/pkg/container/batch"
	"github.com/helicondb/helicon/pkg/sql/colexec"
	"github.com/helicondb/helicon/pkg/vm/process"
)

// RuntimeFilterSlots owns the filter group of one hash join build
// instance and drives every filter through the build lifecycle: size
// negotiation, materialization, redundancy pruning, ingestion and
// publication.  The build expression executors are borrowed from the
// join operator, which keeps evaluating them for the hash table anyway.
type RuntimeFilterSlots struct {
	buildExprs []colexec.ExpressionExecutor
	filters    []RuntimeFilter
}

func NewRuntimeFilterSlots(buildExprs []colexec.ExpressionExecutor, filters []RuntimeFilter) *RuntimeFilterSlots {
	return &RuntimeFilterSlots{
		buildExprs: buildExprs,
		filters:    filters,
	}
}

func (slots *RuntimeFilterSlots) Empty() bool {
	return len(slots.filters) == 0
}

func (slots *RuntimeFilterSlots) Filters() []RuntimeFilter {
	return slots.filters
}

// SendFilterSize reports the local build size for every filter that
// negotiates its size globally.  All finish dependencies are armed
// before the first report goes out: a report can complete a negotiation
// synchronously and release the countdown, and an interleaved
// arm-and-send loop would let the count hit zero while later filters
// are still unregistered.
func (slots *RuntimeFilterSlots) SendFilterSize(proc *process.Process, localSize uint64, dep FinishDependency) error {
	for _, f := range slots.filters {
		if f.NeedSyncFilterSize() && dep != nil {
			f.SetFinishDependency(dep)
		}
	}
	for _, f := range slots.filters {
		if !f.NeedSyncFilterSize() {
			continue
		}
		if err := f.SendFilterSize(proc, localSize); err != nil {
			return err
		}
	}
	return nil
}

// GetRealSize resolves the size a filter should be built for: the
// globally merged size when the filter negotiated one, the local build
// size otherwise.
func GetRealSize(f RuntimeFilter, localSize uint64) uint64 {
	if f.NeedSyncFilterSize() {
		return f.GetSyncedSize()
	}
	return localSize
}

// InitFilters materializes the internal structure of every non-ignored
// filter.  Hybrid filters whose resolved size exceeds the configured IN
// limit degrade to bloom filters first.
func (slots *RuntimeFilterSlots) InitFilters(proc *process.Process, localSize uint64) error {
	inLimit := uint64(proc.RuntimeFilterInLimit())
	for _, f := range slots.filters {
		if f.GetIgnored() {
			continue
		}
		realSize := GetRealSize(f, localSize)
		if f.Type() == InOrBloomFilter && realSize > inLimit {
			if err := f.ChangeToBloomFilter(); err != nil {
				return err
			}
		}
		if f.RealType() == BloomFilter {
			if err := f.InitBloomFilter(proc, realSize); err != nil {
				return err
			}
		}
	}
	return nil
}

// DisableMeaninglessFilters prunes redundant filters in two passes.
// First, among IN filters targeting the same expression, the first in
// group order survives and later duplicates are disabled; an IN filter
// still awaiting size negotiation is not countable yet and is skipped.
// Second, any non-IN filter targeting an expression already covered by
// a surviving IN filter is disabled, since exact membership subsumes
// range and approximate checks on the same key.
func (slots *RuntimeFilterSlots) DisableMeaninglessFilters() {
	hasInFilter := make(map[int32]struct{})
	for _, f := range slots.filters {
		if f.GetIgnored() || f.GetDisabled() {
			continue
		}
		if f.RealType() != InFilter {
			continue
		}
		if f.NeedSyncFilterSize() && !f.SizeSyncDone() {
			continue
		}
		if _, ok := hasInFilter[f.ExprOrder()]; ok {
			f.SetDisabled()
			continue
		}
		hasInFilter[f.ExprOrder()] = struct{}{}
	}

	for _, f := range slots.filters {
		if f.GetIgnored() || f.GetDisabled() {
			continue
		}
		if f.RealType() == InFilter {
			continue
		}
		if _, ok := hasInFilter[f.ExprOrder()]; ok {
			f.SetDisabled()
		}
	}
}

// IgnoreAllFilters marks the whole group ignored.  Used when the build
// side decides filters cannot be meaningful, for example when the build
// is known to pass everything.
func (slots *RuntimeFilterSlots) IgnoreAllFilters() {
	for _, f := range slots.filters {
		f.SetIgnored()
	}
}

// DisableAllFilters marks the whole group disabled, for unrecoverable
// build-side conditions such as spilling.
func (slots *RuntimeFilterSlots) DisableAllFilters() {
	for _, f := range slots.filters {
		f.SetDisabled()
	}
}

// Insert ingests one build batch into every active filter.  Each filter
// reads the result column its expression produced for this batch; the
// caller must have evaluated the build expressions against the batch
// first, so a missing result is a programming error and panics.
func (slots *RuntimeFilterSlots) Insert(bat *batch.Batch, start int) {
	for _, f := range slots.filters {
		if f.GetIgnored() || f.GetDisabled() {
			continue
		}
		order := f.ExprOrder()
		if int(order) >= len(slots.buildExprs) {
			panic(moerr.NewInternalErrorNoCtx(
				"runtime filter targets expression %d, build side has %d", order, len(slots.buildExprs)))
		}
		colId := slots.buildExprs[order].LastResultColumnId()
		if colId < 0 || int(colId) >= bat.VectorCount() {
			panic(moerr.NewInternalErrorNoCtx(
				"build expression %d has no result column for this batch", order))
		}
		f.InsertBatch(bat.GetVector(colId), start)
	}
}

// Publish broadcasts every filter of the group in order.  Ignored and
// disabled filters publish too, as PASS, so probe-side consumers always
// receive exactly one message per filter.
func (slots *RuntimeFilterSlots) Publish(proc *process.Process, publishLocal bool) error {
	for _, f := range slots.filters {
		if err := f.Publish(proc, publishLocal); err != nil {
			return err
		}
	}
	return nil
}

// CopyToSharedContext exports each filter's internal state under its
// filter id, so sibling instances sharing the physical hash table can
// import it instead of re-accumulating.
func (slots *RuntimeFilterSlots) CopyToSharedContext(sharedCtx *SharedBuildContext) {
	for _, f := range slots.filters {
		sharedCtx.Set(f.FilterId(), f.SharedState())
	}
}

// CopyFromSharedContext imports the shared state for every filter of
// the group.  A filter id absent from the context means the sharing
// protocol broke down; the error names the missing id.
func (slots *RuntimeFilterSlots) CopyFromSharedContext(proc *process.Process, sharedCtx *SharedBuildContext) error {
	for _, f := range slots.filters {
		state, ok := sharedCtx.Get(f.FilterId())
		if !ok {
			return moerr.NewRuntimeFilterNotFound(proc.Ctx, f.FilterId())
		}
		f.SetSharedState(state)
	}
	return nil
}
