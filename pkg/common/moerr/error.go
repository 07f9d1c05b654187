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

package moerr

import (
	"context"
	"fmt"
)

const (
	// 0 - 99 is OK.  They do not contain info, and are special handled
	// using a static instance, no alloc.
	Ok uint16 = 0

	OkMax uint16 = 99

	// Group 1: Internal errors
	ErrStart        uint16 = 20100
	ErrInternal     uint16 = 20101
	ErrNYI          uint16 = 20102
	ErrOOM          uint16 = 20103
	ErrNotSupported uint16 = 20105

	// Group 3: invalid input
	ErrBadConfig    uint16 = 20300
	ErrInvalidInput uint16 = 20301
	ErrInvalidArg   uint16 = 20303

	// Group 4: unexpected state
	ErrInvalidState          uint16 = 20400
	ErrEmptyVector           uint16 = 20404
	ErrRuntimeFilterNotFound uint16 = 20450

	ErrEnd uint16 = 65535
)

type moErrorMsgItem struct {
	errorCode        uint16
	errorMsgOrFormat string
}

var errorMsgRefer = map[uint16]moErrorMsgItem{
	Ok: {Ok, "ok"},

	ErrInternal:     {ErrInternal, "internal error: %s"},
	ErrNYI:          {ErrNYI, "%s is not yet implemented"},
	ErrOOM:          {ErrOOM, "out of memory"},
	ErrNotSupported: {ErrNotSupported, "%s is not supported"},

	ErrBadConfig:    {ErrBadConfig, "invalid configuration: %s"},
	ErrInvalidInput: {ErrInvalidInput, "invalid input: %s"},
	ErrInvalidArg:   {ErrInvalidArg, "invalid argument %s, bad value %s"},

	ErrInvalidState:          {ErrInvalidState, "invalid state %s"},
	ErrEmptyVector:           {ErrEmptyVector, "empty vector"},
	ErrRuntimeFilterNotFound: {ErrRuntimeFilterNotFound, "invalid runtime filter id: %d"},
}

// Error is the standard error carried between components.  It holds a
// numeric code so callers can test error kinds without string matching.
type Error struct {
	code    uint16
	message string
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) ErrorCode() uint16 {
	return e.code
}

func (e *Error) Succeeded() bool {
	return e.code <= OkMax
}

// Is implements errors.Is matching on the error code.
func (e *Error) Is(err error) bool {
	me, ok := err.(*Error)
	if !ok {
		return false
	}
	return me.code == e.code
}

func newError(ctx context.Context, code uint16, args ...any) *Error {
	item, has := errorMsgRefer[code]
	if !has {
		panic(fmt.Errorf("not exist MOErrorCode: %d", code))
	}
	var err *Error
	if len(args) == 0 {
		err = &Error{code: code, message: item.errorMsgOrFormat}
	} else {
		err = &Error{code: code, message: fmt.Sprintf(item.errorMsgOrFormat, args...)}
	}
	_ = ctx
	return err
}

// IsMoErrCode returns true if the error is a moerr with the given code.
func IsMoErrCode(e error, rc uint16) bool {
	if e == nil {
		return rc == Ok
	}
	me, ok := e.(*Error)
	if !ok {
		return false
	}
	return me.code == rc
}

func NewInternalError(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrInternal, xmsg)
}

func NewInternalErrorNoCtx(msg string, args ...any) *Error {
	return NewInternalError(context.Background(), msg, args...)
}

func NewNYI(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrNYI, xmsg)
}

func NewOOM(ctx context.Context) *Error {
	return newError(ctx, ErrOOM)
}

func NewNotSupported(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrNotSupported, xmsg)
}

func NewBadConfig(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrBadConfig, xmsg)
}

func NewInvalidInput(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrInvalidInput, xmsg)
}

func NewInvalidInputNoCtx(msg string, args ...any) *Error {
	return NewInvalidInput(context.Background(), msg, args...)
}

func NewInvalidArg(ctx context.Context, arg string, val any) *Error {
	return newError(ctx, ErrInvalidArg, arg, fmt.Sprintf("%v", val))
}

func NewInvalidState(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrInvalidState, xmsg)
}

func NewInvalidStateNoCtx(msg string, args ...any) *Error {
	return NewInvalidState(context.Background(), msg, args...)
}

func NewEmptyVector(ctx context.Context) *Error {
	return newError(ctx, ErrEmptyVector)
}

// NewRuntimeFilterNotFound reports a missing filter identity during
// shared-context import.  The id is part of the message so coordination
// bugs in the sharing protocol are diagnosable from logs.
func NewRuntimeFilterNotFound(ctx context.Context, filterId int32) *Error {
	return newError(ctx, ErrRuntimeFilterNotFound, filterId)
}
