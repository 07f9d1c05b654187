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
	"bytes"

	"github.com/axiomhq/hyperloglog"
	"github.com/cespare/xxhash/v2"

	"github.com/helicondb/helicon/pkg/common/moerr"
	"github.com/helicondb/helicon/pkg/container/batch"
	"github.com/helicondb/helicon/pkg/container/vector"
	"github.com/helicondb/helicon/pkg/sql/colexec/runtimefilter"
	"github.com/helicondb/helicon/pkg/vm/process"
)

const opName = "hash_build"

func (hashBuild *HashBuild) String(buf *bytes.Buffer) {
	buf.WriteString(opName)
	buf.WriteString(": hash build ")
}

func (hashBuild *HashBuild) Prepare(proc *process.Process) error {
	if hashBuild.Input == nil {
		return moerr.NewInvalidState(proc.Ctx, "hash build has no input")
	}

	filters := make([]runtimefilter.RuntimeFilter, 0, len(hashBuild.RuntimeFilterSpecs))
	for _, spec := range hashBuild.RuntimeFilterSpecs {
		if int(spec.ExprOrder) < 0 || int(spec.ExprOrder) >= len(hashBuild.BuildExprs) {
			return moerr.NewInvalidInput(proc.Ctx,
				"runtime filter %d targets expression %d, build side has %d",
				spec.FilterId, spec.ExprOrder, len(hashBuild.BuildExprs))
		}
		var negotiator *runtimefilter.SizeNegotiator
		if spec.NeedSizeSync {
			negotiator = hashBuild.Negotiators[spec.FilterId]
			if negotiator == nil {
				return moerr.NewInvalidState(proc.Ctx,
					"runtime filter %d needs size sync but no negotiator was provided", spec.FilterId)
			}
		}
		keyType := hashBuild.BuildExprs[spec.ExprOrder].ResultType()
		filters = append(filters, runtimefilter.NewRuntimeFilter(spec, keyType, negotiator))
	}

	hashBuild.ctr.state = BuildHashTable
	hashBuild.ctr.slots = runtimefilter.NewRuntimeFilterSlots(hashBuild.BuildExprs, filters)
	hashBuild.ctr.finishDep = runtimefilter.NewCountedFinishDependency()
	hashBuild.ctr.sketch = hyperloglog.New14()
	return nil
}

func (hashBuild *HashBuild) Call(proc *process.Process) error {
	ctr := &hashBuild.ctr
	for {
		switch ctr.state {
		case BuildHashTable:
			if err := ctr.build(hashBuild, proc); err != nil {
				return err
			}
			ctr.state = HandleRuntimeFilter

		case HandleRuntimeFilter:
			if err := ctr.handleRuntimeFilter(hashBuild, proc); err != nil {
				return err
			}
			ctr.state = SendSucceed

		case SendSucceed:
			return nil
		}
	}
}

func (ctr *container) build(hashBuild *HashBuild, proc *process.Process) error {
	for {
		bat, err := hashBuild.Input(proc)
		if err != nil {
			return err
		}
		if bat == nil {
			break
		}
		if bat.IsEmpty() {
			continue
		}
		if err := ctr.updateCardinality(hashBuild, proc, bat); err != nil {
			return err
		}
		ctr.rowCount += bat.RowCount()
		ctr.batches = append(ctr.batches, bat)
	}
	return nil
}

// updateCardinality folds each build row's key tuple into the sketch.
// One xxhash digest spans all key columns of the row, so the estimate
// tracks distinct tuples rather than distinct per-column values.
func (ctr *container) updateCardinality(hashBuild *HashBuild, proc *process.Process, bat *batch.Batch) error {
	if ctr.slots.Empty() {
		return nil
	}
	cols := make([]*vector.Vector, len(hashBuild.BuildExprs))
	for i, expr := range hashBuild.BuildExprs {
		vec, err := expr.Eval(proc, bat)
		if err != nil {
			return err
		}
		cols[i] = vec
	}
	var digest xxhash.Digest
	for row := 0; row < bat.RowCount(); row++ {
		digest.Reset()
		for _, vec := range cols {
			_, _ = digest.Write(vec.GetRawBytesAt(row))
		}
		ctr.sketch.InsertHash(digest.Sum64())
	}
	return nil
}

func (ctr *container) handleRuntimeFilter(hashBuild *HashBuild, proc *process.Process) error {
	slots := ctr.slots
	if slots.Empty() {
		return nil
	}

	// consumers still expect one message per filter, hence PASS
	if proc.RuntimeFilterDisabled() {
		slots.IgnoreAllFilters()
		return slots.Publish(proc, false)
	}

	// a sibling instance already accumulated this build side
	if hashBuild.ImportSharedState {
		if hashBuild.SharedCtx == nil {
			return moerr.NewInvalidState(proc.Ctx, "hash build imports shared state without a shared context")
		}
		if err := slots.CopyFromSharedContext(proc, hashBuild.SharedCtx); err != nil {
			return err
		}
		return slots.Publish(proc, true)
	}

	localSize := ctr.sketch.Estimate()
	if err := slots.SendFilterSize(proc, localSize, ctr.finishDep); err != nil {
		return err
	}
	select {
	case <-ctr.finishDep.Done():
	case <-proc.Ctx.Done():
		return proc.Ctx.Err()
	}

	if err := slots.InitFilters(proc, localSize); err != nil {
		return err
	}
	slots.DisableMeaninglessFilters()

	for _, bat := range ctr.batches {
		for _, expr := range hashBuild.BuildExprs {
			if _, err := expr.Eval(proc, bat); err != nil {
				return err
			}
		}
		slots.Insert(bat, 0)
	}

	if hashBuild.SharedCtx != nil {
		slots.CopyToSharedContext(hashBuild.SharedCtx)
	}
	return slots.Publish(proc, false)
}
