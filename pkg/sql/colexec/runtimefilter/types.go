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

// Package runtimefilter coordinates the runtime filters attached to one
// hash join build side: size negotiation across parallel build fragments,
// filter materialization, redundancy pruning, build batch ingestion,
// publication to probe-side consumers, and state sharing between sibling
// instances that share a physical hash table.
package runtimefilter

import (
	"github.com/helicondb/helicon/pkg/container/vector"
	"github.com/helicondb/helicon/pkg/vm/process"
)

type FilterType int32

const (
	// InFilter tests exact membership in the distinct build key set
	InFilter FilterType = iota
	// MinMaxFilter tests against the build key range
	MinMaxFilter
	// BloomFilter tests approximate membership
	BloomFilter
	// InOrBloomFilter starts as an IN filter and degrades to a bloom
	// filter once the build cardinality passes the configured limit
	InOrBloomFilter
)

func (t FilterType) String() string {
	switch t {
	case InFilter:
		return "IN"
	case MinMaxFilter:
		return "MIN_MAX"
	case BloomFilter:
		return "BLOOM"
	case InOrBloomFilter:
		return "IN_OR_BLOOM"
	}
	return "UNKNOWN"
}

// Spec describes one runtime filter the planner asked the build side to
// produce.
type Spec struct {
	// FilterId identifies the filter within the query, used as the key of
	// the shared build context
	FilterId int32
	// Tag is the message board tag probe-side consumers listen on
	Tag int32
	// ExprOrder is the index of the build expression this filter targets.
	// Several filters may target the same expression.
	ExprOrder int32
	// Typ is the declared strategy
	Typ FilterType
	// NeedSizeSync requires a globally merged build size before the
	// filter may size its internal structure
	NeedSizeSync bool
}

// FinishDependency is the completion barrier armed during size
// negotiation.  It is an opaque countdown: Add arms, Sub releases, the
// owner observes readiness when the count reaches zero.  Sub may be
// called synchronously from inside a size report.
type FinishDependency interface {
	Add(delta int64)
	Sub()
}

// RuntimeFilter is one filter of a build side's filter group.
//
// The ignored and disabled flags are monotonic: once set they stay set
// for the lifetime of the group.  Implementations are not internally
// synchronized; the owning build instance drives all calls sequentially.
type RuntimeFilter interface {
	FilterId() int32
	ExprOrder() int32

	// Type is the declared strategy, RealType the resolved one.  The only
	// transition is IN_OR_BLOOM -> BLOOM; RealType of an undegraded
	// hybrid filter is IN.
	Type() FilterType
	RealType() FilterType

	NeedSyncFilterSize() bool
	SetFinishDependency(dep FinishDependency)
	SendFilterSize(proc *process.Process, localSize uint64) error
	GetSyncedSize() uint64
	// SizeSyncDone reports whether size negotiation has completed for
	// this filter.  Always true for filters without size sync.
	SizeSyncDone() bool

	ChangeToBloomFilter() error
	InitBloomFilter(proc *process.Process, size uint64) error

	InsertBatch(vec *vector.Vector, start int)
	Publish(proc *process.Process, publishLocal bool) error

	SetIgnored()
	SetDisabled()
	GetIgnored() bool
	GetDisabled() bool

	SharedState() *SharedState
	SetSharedState(state *SharedState)
}
