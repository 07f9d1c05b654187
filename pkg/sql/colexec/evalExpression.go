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

package colexec

import (
	"github.com/helicondb/helicon/pkg/common/moerr"
	"github.com/helicondb/helicon/pkg/container/batch"
	"github.com/helicondb/helicon/pkg/container/types"
	"github.com/helicondb/helicon/pkg/container/vector"
	"github.com/helicondb/helicon/pkg/vm/process"
)

// ExpressionExecutor evaluates one build-side expression against input
// batches.  The result column of the most recent evaluation stays
// addressable until the next Eval, which is what runtime filter ingestion
// relies on.
type ExpressionExecutor interface {
	Eval(proc *process.Process, bat *batch.Batch) (*vector.Vector, error)

	// LastResult returns the column produced by the most recent Eval,
	// nil if the executor has not run yet.
	LastResult() *vector.Vector

	// LastResultColumnId is the position of the most recent result
	// within the evaluated batch, -1 before the first Eval.
	LastResultColumnId() int32

	ResultType() types.Type

	Free()
}

// ColumnExpressionExecutor projects one column of the input batch.
type ColumnExpressionExecutor struct {
	colPos     int32
	typ        types.Type
	lastResult *vector.Vector
	evaluated  bool
}

func NewColumnExpressionExecutor(colPos int32, typ types.Type) *ColumnExpressionExecutor {
	return &ColumnExpressionExecutor{
		colPos: colPos,
		typ:    typ,
	}
}

func (expr *ColumnExpressionExecutor) Eval(proc *process.Process, bat *batch.Batch) (*vector.Vector, error) {
	if int(expr.colPos) >= bat.VectorCount() {
		return nil, moerr.NewInternalError(proc.Ctx,
			"column position %d out of range, batch has %d columns", expr.colPos, bat.VectorCount())
	}
	vec := bat.GetVector(expr.colPos)
	if vec.GetType().Oid != expr.typ.Oid {
		return nil, moerr.NewInternalError(proc.Ctx,
			"column %d type mismatch: %s vs %s", expr.colPos, vec.GetType().Oid, expr.typ.Oid)
	}
	expr.lastResult = vec
	expr.evaluated = true
	return vec, nil
}

func (expr *ColumnExpressionExecutor) LastResult() *vector.Vector {
	return expr.lastResult
}

func (expr *ColumnExpressionExecutor) LastResultColumnId() int32 {
	if !expr.evaluated {
		return -1
	}
	return expr.colPos
}

func (expr *ColumnExpressionExecutor) ResultType() types.Type {
	return expr.typ
}

func (expr *ColumnExpressionExecutor) Free() {
	expr.lastResult = nil
	expr.evaluated = false
}
