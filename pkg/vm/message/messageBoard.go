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
	"sync"
)

type MessageAddress int32

const (
	AddrBroadCastOnCurrentNode MessageAddress = iota
)

func AddrBroadCastOnCurrentCN() MessageAddress {
	return AddrBroadCastOnCurrentNode
}

// Message is anything broadcast between operators of one query through
// the message board.
type Message interface {
	Serialize() []byte
	Deserialize([]byte) Message
	NeedBlock() bool
	GetMsgTag() int32
	GetReceiverAddr() MessageAddress
}

// MessageBoard is the process-local broadcast channel between the
// operators of one query.  Senders append, receivers poll or block on
// the tag they care about.
type MessageBoard struct {
	mu       sync.Mutex
	messages []Message
	updated  chan struct{}
}

func NewMessageBoard() *MessageBoard {
	return &MessageBoard{
		updated: make(chan struct{}),
	}
}

func (mb *MessageBoard) Reset() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.messages = mb.messages[:0]
}

func SendMessage(m Message, mb *MessageBoard) {
	mb.mu.Lock()
	mb.messages = append(mb.messages, m)
	close(mb.updated)
	mb.updated = make(chan struct{})
	mb.mu.Unlock()
}

// ReceiveMessage returns the first message with the given tag, blocking
// until one arrives or ctx is done.
func ReceiveMessage(ctx context.Context, tag int32, mb *MessageBoard) (Message, error) {
	for {
		mb.mu.Lock()
		for _, m := range mb.messages {
			if m.GetMsgTag() == tag {
				mb.mu.Unlock()
				return m, nil
			}
		}
		updated := mb.updated
		mb.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-updated:
		}
	}
}

// TryReceiveMessage is the non-blocking variant of ReceiveMessage.
func TryReceiveMessage(tag int32, mb *MessageBoard) (Message, bool) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	for _, m := range mb.messages {
		if m.GetMsgTag() == tag {
			return m, true
		}
	}
	return nil, false
}
