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
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
)

func testDataAccessor(
	t *testing.T,
	newFS func() DataAccessor,
) {

	t.Run("basic", func(t *testing.T) {
		ctx := context.Background()
		fs := newFS()

		err := fs.Put(ctx, "foo", []byte("123456789ab"))
		require.NoError(t, err)

		data, err := fs.Get(ctx, "foo")
		require.NoError(t, err)
		assert.Equal(t, []byte("123456789ab"), data)

		r, err := fs.GetStream(ctx, "foo", 2, 4)
		require.NoError(t, err)
		data, err = io.ReadAll(r)
		require.NoError(t, err)
		require.NoError(t, r.Close())
		assert.Equal(t, []byte("3456"), data)

		// negative length reads to the end
		r, err = fs.GetStream(ctx, "foo", 7, -1)
		require.NoError(t, err)
		data, err = io.ReadAll(r)
		require.NoError(t, err)
		require.NoError(t, r.Close())
		assert.Equal(t, []byte("89ab"), data)

		size, err := GetSize(ctx, fs, "foo")
		require.NoError(t, err)
		assert.Equal(t, int64(11), size)
	})

	t.Run("overwrite", func(t *testing.T) {
		ctx := context.Background()
		fs := newFS()
		require.NoError(t, fs.Put(ctx, "a/b/c", []byte("old")))
		require.NoError(t, fs.Put(ctx, "a/b/c", []byte("new content")))
		data, err := fs.Get(ctx, "a/b/c")
		require.NoError(t, err)
		assert.Equal(t, []byte("new content"), data)
	})

	t.Run("not found", func(t *testing.T) {
		ctx := context.Background()
		fs := newFS()
		_, err := fs.Get(ctx, "missing")
		assert.True(t, moerr.IsNotFound(err))
		_, err = fs.GetStream(ctx, "dir/missing", 0, 10)
		assert.True(t, moerr.IsNotFound(err))
	})

	t.Run("bad path", func(t *testing.T) {
		ctx := context.Background()
		fs := newFS()
		err := fs.Put(ctx, "../escape", []byte("x"))
		assert.True(t, moerr.IsMoErrCode(err, moerr.ErrBadArguments))
		err = fs.Put(ctx, "", []byte("x"))
		assert.True(t, moerr.IsMoErrCode(err, moerr.ErrBadArguments))
	})

	t.Run("list", func(t *testing.T) {
		ctx := context.Background()
		fs := newFS()
		for _, p := range []string{
			"1/2/_ss/2_b",
			"1/2/_ss/1_a",
			"1/2/_sg/x",
			"1/3/_ss/1_a",
			"github/owner/repo.json",
		} {
			require.NoError(t, fs.Put(ctx, p, []byte(p)))
		}

		paths, err := fs.List(ctx, "1/2/_ss/")
		require.NoError(t, err)
		assert.Equal(t, []string{"1/2/_ss/1_a", "1/2/_ss/2_b"}, paths)

		paths, err = fs.List(ctx, "1/")
		require.NoError(t, err)
		assert.Equal(t, []string{"1/2/_sg/x", "1/2/_ss/1_a", "1/2/_ss/2_b", "1/3/_ss/1_a"}, paths)

		paths, err = fs.List(ctx, "github/own")
		require.NoError(t, err)
		assert.Equal(t, []string{"github/owner/repo.json"}, paths)

		paths, err = fs.List(ctx, "nothing/")
		require.NoError(t, err)
		assert.Empty(t, paths)
	})

	t.Run("delete", func(t *testing.T) {
		ctx := context.Background()
		fs := newFS()
		require.NoError(t, fs.Put(ctx, "t/_b/1", []byte("1")))
		require.NoError(t, fs.Put(ctx, "t/_b/2", []byte("2")))
		require.NoError(t, fs.Delete(ctx, "t/_b/1", "t/_b/never"))
		_, err := fs.Get(ctx, "t/_b/1")
		assert.True(t, moerr.IsNotFound(err))
		paths, err := fs.List(ctx, "t/")
		require.NoError(t, err)
		assert.Equal(t, []string{"t/_b/2"}, paths)
	})

	t.Run("concurrent put", func(t *testing.T) {
		ctx := context.Background()
		fs := newFS()
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, fs.Put(ctx, "shared", []byte(fmt.Sprintf("%04d", i))))
				data, err := fs.Get(ctx, "shared")
				assert.NoError(t, err)
				// readers never see a torn write
				assert.Len(t, data, 4)
			}(i)
		}
		wg.Wait()
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		fs := newFS()
		err := fs.Put(ctx, "x", []byte("x"))
		assert.True(t, moerr.IsAborted(err))
	})
}
