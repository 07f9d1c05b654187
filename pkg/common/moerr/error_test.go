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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorCodeAndMessage(t *testing.T) {
	err := NewInternalError(context.Background(), "something %s", "broke")
	require.Equal(t, ErrInternal, err.ErrorCode())
	require.Contains(t, err.Error(), "something broke")
	require.False(t, err.Succeeded())
}

func TestIsMoErrCode(t *testing.T) {
	err := NewInvalidInputNoCtx("bad value %d", 3)
	require.True(t, IsMoErrCode(err, ErrInvalidInput))
	require.False(t, IsMoErrCode(err, ErrInternal))
	require.False(t, IsMoErrCode(nil, ErrInvalidInput))
	require.True(t, IsMoErrCode(nil, Ok))
	require.False(t, IsMoErrCode(fmt.Errorf("plain"), ErrInvalidInput))
}

func TestErrorIs(t *testing.T) {
	a := NewInvalidStateNoCtx("state a")
	b := NewInvalidStateNoCtx("state b")
	require.ErrorIs(t, a, b)
	require.NotErrorIs(t, a, NewInternalErrorNoCtx("x"))
}

func TestNewRuntimeFilterNotFound(t *testing.T) {
	err := NewRuntimeFilterNotFound(context.Background(), 42)
	require.Equal(t, ErrRuntimeFilterNotFound, err.ErrorCode())
	require.Contains(t, err.Error(), "invalid runtime filter id: 42")
}
