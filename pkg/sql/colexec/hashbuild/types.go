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

package hashbuild

import (
	"github.com/axiomhq/hyperloglog"

	"github.com/helicondb/helicon/pkg/container/batch"
	"github.com/helicondb/helicon/pkg/sql/colexec"
	"github.com/helicondb/helicon/pkg/sql/colexec/runtimefilter"
	"github.com/helicondb/helicon/pkg/vm/process"
)

const (
	BuildHashTable = iota
	HandleRuntimeFilter
	SendSucceed
)

// BatchSource feeds build-side batches to the operator.  It returns nil
// once the upstream is exhausted.
type BatchSource func(proc *process.Process) (*batch.Batch, error)

type container struct {
	state int

	batches  []*batch.Batch
	rowCount int

	// sketch estimates the distinct build key count, which stands in for
	// the hash table size during filter size negotiation
	sketch *hyperloglog.Sketch

	slots     *runtimefilter.RuntimeFilterSlots
	finishDep *runtimefilter.CountedFinishDependency
}

// HashBuild is the hash join build operator, reduced to batch collection
// and runtime filter production.  Parallel instances of one build side
// share negotiators per filter id; instances sharing a physical hash
// table also share a SharedCtx, with exactly one owner ingesting.
type HashBuild struct {
	ctr container

	// BuildExprs produce the join key columns, indexed by expr order
	BuildExprs []colexec.ExpressionExecutor

	RuntimeFilterSpecs []runtimefilter.Spec

	// Negotiators maps filter id to the size negotiator shared by all
	// fragments building that filter.  Required for size-sync specs.
	Negotiators map[int32]*runtimefilter.SizeNegotiator

	// SharedCtx carries filter state between instances sharing one hash
	// table.  The owner exports after ingestion; importers set
	// ImportSharedState instead of ingesting.
	SharedCtx         *runtimefilter.SharedBuildContext
	ImportSharedState bool

	Input BatchSource
}

func (hashBuild *HashBuild) Slots() *runtimefilter.RuntimeFilterSlots {
	return hashBuild.ctr.slots
}

func (hashBuild *HashBuild) FinishDependency() *runtimefilter.CountedFinishDependency {
	return hashBuild.ctr.finishDep
}

func (hashBuild *HashBuild) Reset() {
	hashBuild.ctr.state = BuildHashTable
	hashBuild.ctr.batches = nil
	hashBuild.ctr.rowCount = 0
	hashBuild.ctr.sketch = nil
	hashBuild.ctr.slots = nil
	hashBuild.ctr.finishDep = nil
}

func (hashBuild *HashBuild) Free() {
	for _, expr := range hashBuild.BuildExprs {
		if expr != nil {
			expr.Free()
		}
	}
	hashBuild.Reset()
}
