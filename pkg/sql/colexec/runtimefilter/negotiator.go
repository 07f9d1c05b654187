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

	"github.com/helicondb/helicon/pkg/common/moerr"
)

// SizeNegotiator merges the build size reports of all parallel build
// fragments producing one runtime filter.  Each fragment reports once;
// when the last expected report arrives, the merged size (the sum of all
// reports) is delivered to every registered callback.
//
// Delivery happens synchronously inside the final Report call.  A caller
// holding several filters must therefore arm all of their finish
// dependencies before sending the first report, otherwise the countdown
// can hit zero while later filters are still unregistered.
type SizeNegotiator struct {
	mu       sync.Mutex
	expected int32
	received int32
	total    uint64
	pending  []func(mergedSize uint64)
	done     bool
}

func NewSizeNegotiator(expectedReports int32) *SizeNegotiator {
	if expectedReports < 1 {
		expectedReports = 1
	}
	return &SizeNegotiator{expected: expectedReports}
}

// Report records one fragment's local build size.  onMerged fires once
// the expected number of reports has arrived, from inside the goroutine
// that delivered the last report.
func (n *SizeNegotiator) Report(localSize uint64, onMerged func(mergedSize uint64)) error {
	n.mu.Lock()
	if n.done {
		n.mu.Unlock()
		return moerr.NewInternalErrorNoCtx(
			"runtime filter size reported after negotiation finished, expected %d reports", n.expected)
	}
	n.received++
	n.total += localSize
	n.pending = append(n.pending, onMerged)

	if n.received < n.expected {
		n.mu.Unlock()
		return nil
	}
	n.done = true
	callbacks := n.pending
	total := n.total
	n.pending = nil
	n.mu.Unlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(total)
		}
	}
	return nil
}

// Finished reports whether the merged size has been delivered.
func (n *SizeNegotiator) Finished() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.done
}
