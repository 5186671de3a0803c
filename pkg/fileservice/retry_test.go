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

package fileservice

import (
	"context"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/perfcounter"
)

// flakyFS fails the first failures calls of every operation
type flakyFS struct {
	DataAccessor
	failures int
	err      error
	calls    map[string]int
}

func newFlakyFS(failures int, err error) *flakyFS {
	return &flakyFS{
		DataAccessor: NewMemoryFS(),
		failures:     failures,
		err:          err,
		calls:        make(map[string]int),
	}
}

func (f *flakyFS) fail(op string) error {
	f.calls[op]++
	if f.calls[op] <= f.failures {
		return f.err
	}
	return nil
}

func (f *flakyFS) Get(ctx context.Context, path string) ([]byte, error) {
	if err := f.fail("get"); err != nil {
		return nil, err
	}
	return f.DataAccessor.Get(ctx, path)
}

func (f *flakyFS) GetStream(ctx context.Context, path string, offset, length int64) (io.ReadCloser, error) {
	if err := f.fail("get_stream"); err != nil {
		return nil, err
	}
	return f.DataAccessor.GetStream(ctx, path, offset, length)
}

func (f *flakyFS) Put(ctx context.Context, path string, data []byte) error {
	if err := f.fail("put"); err != nil {
		return err
	}
	return f.DataAccessor.Put(ctx, path, data)
}

func (f *flakyFS) List(ctx context.Context, prefix string) ([]string, error) {
	if err := f.fail("list"); err != nil {
		return nil, err
	}
	return f.DataAccessor.List(ctx, prefix)
}

func TestRetryOnce(t *testing.T) {
	var set perfcounter.CounterSet
	ctx := perfcounter.WithCounterSet(context.Background(), &set)

	flaky := newFlakyFS(1, io.ErrUnexpectedEOF)
	require.NoError(t, flaky.DataAccessor.Put(ctx, "a", []byte("abc")))
	fs := NewRetryAccessor(flaky)

	data, err := fs.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
	assert.Equal(t, 2, flaky.calls["get"])

	r, err := fs.GetStream(ctx, "a", 1, -1)
	require.NoError(t, err)
	r.Close()
	assert.Equal(t, 2, flaky.calls["get_stream"])

	paths, err := fs.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, paths)

	assert.Equal(t, int64(3), set.DataAccess.Retry.Load())
}

func TestRetryGivesUpAfterSecondFailure(t *testing.T) {
	flaky := newFlakyFS(2, &transientError{err: moerr.NewStorageIONoCtx("503")})
	fs := NewRetryAccessor(flaky)
	_, err := fs.Get(context.Background(), "a")
	require.Error(t, err)
	assert.Equal(t, 2, flaky.calls["get"])
}

func TestNoRetryOnPermanentError(t *testing.T) {
	flaky := newFlakyFS(1, moerr.NewNotFoundNoCtx("object a not found"))
	fs := NewRetryAccessor(flaky)
	_, err := fs.Get(context.Background(), "a")
	assert.True(t, moerr.IsNotFound(err))
	assert.Equal(t, 1, flaky.calls["get"])
}

func TestNoRetryOnPut(t *testing.T) {
	flaky := newFlakyFS(1, io.ErrUnexpectedEOF)
	fs := NewRetryAccessor(flaky)
	err := fs.Put(context.Background(), "a", []byte("x"))
	require.Error(t, err)
	assert.Equal(t, 1, flaky.calls["put"])
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var _ net.Error = timeoutError{}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(io.ErrUnexpectedEOF))
	assert.True(t, isTransient(syscall.ECONNRESET))
	assert.True(t, isTransient(&net.OpError{Op: "read", Err: syscall.EPIPE}))
	assert.True(t, isTransient(timeoutError{}))
	assert.True(t, isTransient(moerr.NewUnexpectedEOF(context.Background(), "x")))
	assert.False(t, isTransient(nil))
	assert.False(t, isTransient(io.EOF))
	assert.False(t, isTransient(moerr.NewNotFoundNoCtx("x")))
}
