// Copyright 2023 Matrix Origin
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
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	ctx := context.Background()
	err := NewUnknownDatabase(ctx, "Cannot USE '%s', because the '%s' doesn't exist", "db2", "db2")
	require.True(t, IsMoErrCode(err, ErrUnknownDatabase))
	require.Equal(t, "Cannot USE 'db2', because the 'db2' doesn't exist", err.Error())
	require.Equal(t, ER_BAD_DB_ERROR, err.MySQLCode())

	require.Equal(t, "sql parser error: Missing password", NewSyntaxError(ctx, "Missing password").Error())
	require.Equal(t, "Unsupported Function, name: xx", NewUnknownFunction(ctx, "xx").Error())
	require.True(t, IsMoErrCode(nil, Ok))
	require.False(t, IsMoErrCode(io.EOF, ErrInternal))
}

func TestIsMoErrCodeWrapped(t *testing.T) {
	err := fmt.Errorf("read segment: %w", NewNotFound(context.Background(), "x"))
	require.True(t, IsNotFound(err))
	require.False(t, IsAborted(err))
}

func TestConvertGoError(t *testing.T) {
	ctx := context.Background()
	require.Nil(t, ConvertGoError(ctx, nil))

	c, cancel := context.WithCancel(ctx)
	cancel()
	require.True(t, IsAborted(ConvertGoError(ctx, c.Err())))
	require.True(t, IsMoErrCode(ConvertGoError(ctx, io.ErrUnexpectedEOF), ErrUnexpectedEOF))

	_, err := os.Open("/definitely/not/here")
	require.True(t, IsNotFound(ConvertGoError(ctx, err)))

	orig := NewBadArguments(ctx, "bad")
	require.Equal(t, error(orig), ConvertGoError(ctx, orig))
}

func TestConvertPanicError(t *testing.T) {
	ctx := context.Background()
	e := NewAborted(ctx, "killed")
	require.Equal(t, e, ConvertPanicError(ctx, e))
	require.True(t, IsMoErrCode(ConvertPanicError(ctx, "boom"), ErrInternal))
}

func TestWithDetail(t *testing.T) {
	e := NewInternalError(context.Background(), "decode snapshot").WithDetail("1/2/_ss/1_abc")
	require.Equal(t, "internal error: decode snapshot: 1/2/_ss/1_abc", e.Display())
}
