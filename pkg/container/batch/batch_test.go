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

package batch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/helicondb/helicon/pkg/container/types"
	"github.com/helicondb/helicon/pkg/container/vector"
)

func TestBatchBasics(t *testing.T) {
	bat := New([]string{"id", "name"})
	require.Equal(t, 2, bat.VectorCount())
	require.True(t, bat.IsEmpty())

	idVec := vector.NewVec(types.T_int64.ToType())
	require.NoError(t, vector.AppendFixedList(idVec, []int64{1, 2, 3}))
	nameVec := vector.NewVec(types.T_varchar.ToType())
	require.NoError(t, vector.AppendStringList(nameVec, []string{"a", "b", "c"}))

	bat.SetVector(0, idVec)
	bat.SetVector(1, nameVec)
	bat.SetRowCount(3)

	require.False(t, bat.IsEmpty())
	require.Equal(t, 3, bat.RowCount())
	require.Same(t, idVec, bat.GetVector(0))
	require.Positive(t, bat.Size())

	bat.AddRowCount(2)
	require.Equal(t, 5, bat.RowCount())
}

func TestEmptyBatch(t *testing.T) {
	require.True(t, EmptyBatch.IsEmpty())
	require.Equal(t, 0, EmptyBatch.VectorCount())
}
