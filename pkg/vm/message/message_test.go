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

package message

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSendAndTryReceive(t *testing.T) {
	mb := NewMessageBoard()

	_, ok := TryReceiveMessage(7, mb)
	require.False(t, ok)

	SendRuntimeFilter(RuntimeFilterMessage{Tag: 7, Typ: RuntimeFilter_PASS}, mb)
	SendRuntimeFilter(RuntimeFilterMessage{Tag: 8, Typ: RuntimeFilter_IN, Card: 3}, mb)

	msg, ok := TryReceiveMessage(7, mb)
	require.True(t, ok)
	require.EqualValues(t, RuntimeFilter_PASS, msg.(RuntimeFilterMessage).Typ)

	msg, ok = TryReceiveMessage(8, mb)
	require.True(t, ok)
	require.EqualValues(t, 3, msg.(RuntimeFilterMessage).Card)
}

func TestReceiveBlocksUntilSend(t *testing.T) {
	mb := NewMessageBoard()

	done := make(chan Message, 1)
	go func() {
		msg, err := ReceiveMessage(context.Background(), 5, mb)
		if err == nil {
			done <- msg
		}
	}()

	// nothing on tag 5 yet, the receiver must stay parked
	select {
	case <-done:
		t.Fatal("received before any send")
	case <-time.After(20 * time.Millisecond):
	}

	SendRuntimeFilter(RuntimeFilterMessage{Tag: 4, Typ: RuntimeFilter_DROP}, mb)
	SendRuntimeFilter(RuntimeFilterMessage{Tag: 5, Typ: RuntimeFilter_MIN_MAX}, mb)

	select {
	case msg := <-done:
		require.EqualValues(t, RuntimeFilter_MIN_MAX, msg.(RuntimeFilterMessage).Typ)
	case <-time.After(time.Second):
		t.Fatal("receiver never woke up")
	}
}

func TestReceiveObservesContext(t *testing.T) {
	mb := NewMessageBoard()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReceiveMessage(ctx, 1, mb)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRuntimeFilterMessageContract(t *testing.T) {
	rt := RuntimeFilterMessage{Tag: 9, Typ: RuntimeFilter_BLOOMFILTER}
	require.EqualValues(t, 9, rt.GetMsgTag())
	require.True(t, rt.NeedBlock())
	require.Equal(t, AddrBroadCastOnCurrentNode, rt.GetReceiverAddr())
	require.Panics(t, func() { rt.Serialize() })
	require.Panics(t, func() { rt.Deserialize(nil) })
}

func TestBoardReset(t *testing.T) {
	mb := NewMessageBoard()
	SendRuntimeFilter(RuntimeFilterMessage{Tag: 1}, mb)
	mb.Reset()
	_, ok := TryReceiveMessage(1, mb)
	require.False(t, ok)
}
