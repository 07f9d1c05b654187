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
	"sync"

	"github.com/RoaringBitmap/roaring/roaring64"

	"github.com/helicondb/helicon/pkg/common/bloomfilter"
	"github.com/helicondb/helicon/pkg/container/vector"
)

// SharedState is the accumulated content of one runtime filter.  When
// sibling build instances share a physical hash table, only the owner
// ingests rows; the others import the owner's state by pointer through
// the SharedBuildContext, so both sides observe the same accumulation.
type SharedState struct {
	// Typ is the resolved filter type that accumulated this state.  A
	// hybrid filter may have degraded to bloom on the owner only, so
	// importers must adopt the owner's resolution along with the content.
	Typ FilterType

	// InKeys holds the build keys of the IN path for non-integer types.
	// Sorted and deduped lazily at publication.
	InKeys *vector.Vector
	// InBits holds the build keys of the IN path for 64-bit-and-under
	// integer types.
	InBits *roaring64.Bitmap

	// Min and Max are raw encoded bounds, valid once HasMinMax is set
	HasMinMax bool
	Min       []byte
	Max       []byte

	Bloom *bloomfilter.BloomFilter

	// Rows counts ingested build rows across all paths
	Rows uint64
}

// SharedBuildContext maps filter id to the shared internal state of that
// filter.  One context serves all sibling instances of one build side.
type SharedBuildContext struct {
	mu             sync.Mutex
	runtimeFilters map[int32]*SharedState
}

func NewSharedBuildContext() *SharedBuildContext {
	return &SharedBuildContext{
		runtimeFilters: make(map[int32]*SharedState),
	}
}

func (sc *SharedBuildContext) Set(filterId int32, state *SharedState) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.runtimeFilters[filterId] = state
}

func (sc *SharedBuildContext) Get(filterId int32) (*SharedState, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	state, ok := sc.runtimeFilters[filterId]
	return state, ok
}
