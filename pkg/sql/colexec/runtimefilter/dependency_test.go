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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountedFinishDependency(t *testing.T) {
	dep := NewCountedFinishDependency()
	require.True(t, dep.Satisfied())

	dep.Add(2)
	require.False(t, dep.Satisfied())
	require.Equal(t, int64(2), dep.Counter())

	select {
	case <-dep.Done():
		t.Fatal("dependency done while still armed")
	default:
	}

	dep.Sub()
	require.False(t, dep.Satisfied())
	dep.Sub()
	require.True(t, dep.Satisfied())

	select {
	case <-dep.Done():
	default:
		t.Fatal("dependency not done after last release")
	}
}

func TestCountedFinishDependencyNeverArmed(t *testing.T) {
	dep := NewCountedFinishDependency()
	select {
	case <-dep.Done():
	default:
		t.Fatal("unarmed dependency must be done")
	}
}
