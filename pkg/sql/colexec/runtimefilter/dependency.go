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
)

// CountedFinishDependency holds the build pipeline open until every
// armed size negotiation has completed.  The count goes up once per
// registered filter and down once per merged size report; zero signals
// the waiters.  Nothing in this package waits on it synchronously.
type CountedFinishDependency struct {
	mu    sync.Mutex
	cnt   int64
	ready chan struct{}
}

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

func NewCountedFinishDependency() *CountedFinishDependency {
	return &CountedFinishDependency{
		ready: make(chan struct{}),
	}
}

func (dep *CountedFinishDependency) Add(delta int64) {
	dep.mu.Lock()
	defer dep.mu.Unlock()
	dep.cnt += delta
}

func (dep *CountedFinishDependency) Sub() {
	dep.mu.Lock()
	defer dep.mu.Unlock()
	dep.cnt--
	if dep.cnt == 0 {
		close(dep.ready)
	}
}

func (dep *CountedFinishDependency) Counter() int64 {
	dep.mu.Lock()
	defer dep.mu.Unlock()
	return dep.cnt
}

func (dep *CountedFinishDependency) Satisfied() bool {
	return dep.Counter() == 0
}

// Done returns a channel closed once the count reaches zero.  A
// dependency that was never armed is always done.
func (dep *CountedFinishDependency) Done() <-chan struct{} {
	dep.mu.Lock()
	defer dep.mu.Unlock()
	if dep.cnt == 0 {
		return closedChan
	}
	return dep.ready
}
