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

package streams

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/container/vector"
)

var numSchema = types.NewSchema(types.NewField("n", types.T_int64, false))

func numBatch(t *testing.T, from, to int64) *batch.Batch {
	col := make([]int64, 0, to-from)
	for i := from; i < to; i++ {
		col = append(col, i)
	}
	bat, err := batch.New(numSchema, []*vector.Vector{vector.NewFromSlice(types.T_int64, col, nil)})
	require.NoError(t, err)
	return bat
}

func rowCount(bats []*batch.Batch) int {
	n := 0
	for _, bat := range bats {
		n += bat.RowCount()
	}
	return n
}

func TestBlocksStream(t *testing.T) {
	ctx := context.Background()
	s := NewBlocksStream(numSchema, numBatch(t, 0, 3), numBatch(t, 3, 5))
	bats, err := Collect(ctx, s)
	require.NoError(t, err)
	require.Len(t, bats, 2)
	require.Equal(t, 5, rowCount(bats))

	// exhausted streams stay exhausted
	bat, err := s.Next(ctx)
	require.NoError(t, err)
	require.Nil(t, bat)

	one, err := CollectOne(ctx, NewBlocksStream(numSchema, numBatch(t, 0, 2), numBatch(t, 2, 4)))
	require.NoError(t, err)
	require.Equal(t, 4, one.RowCount())
}

func TestLimitAndSkipEmpty(t *testing.T) {
	ctx := context.Background()
	s := NewLimitStream(NewSkipEmptyStream(NewBlocksStream(numSchema,
		numBatch(t, 0, 0),
		numBatch(t, 0, 3),
		numBatch(t, 3, 3),
		numBatch(t, 3, 10),
	)), 5)
	bats, err := Collect(ctx, s)
	require.NoError(t, err)
	require.Len(t, bats, 2)
	require.Equal(t, 5, rowCount(bats))
	require.Equal(t, "n\n3\n4", bats[1].String())
}

func TestAbortable(t *testing.T) {
	ctx := context.Background()
	s, handle := NewAbortableStream(NewBlocksStream(numSchema, numBatch(t, 0, 1), numBatch(t, 1, 2)))
	bat, err := s.Next(ctx)
	require.NoError(t, err)
	require.NotNil(t, bat)

	handle.Abort()
	_, err = s.Next(ctx)
	require.True(t, moerr.IsAborted(err))

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	s, _ = NewAbortableStream(NewBlocksStream(numSchema, numBatch(t, 0, 1)))
	_, err = s.Next(cctx)
	require.True(t, moerr.IsAborted(err))
}

func TestProgressAndCast(t *testing.T) {
	ctx := context.Background()
	rows, bytes := 0, 0
	target := types.NewSchema(types.NewField("n", types.T_varchar, false))
	s := NewCastStream(NewProgressStream(NewOneBlockStream(numBatch(t, 0, 4)), func(r, b int) {
		rows += r
		bytes += b
	}), target)
	bat, err := CollectOne(ctx, s)
	require.NoError(t, err)
	require.Equal(t, 4, rows)
	require.Equal(t, 32, bytes)
	require.True(t, bat.Schema().Equal(target))
	require.Equal(t, "3", bat.GetVector(0).Get(3).Str())
}

func TestChannelStream(t *testing.T) {
	ctx := context.Background()
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		for i := int64(0); i < 3; i++ {
			if !Send(ctx, ch, Result{Batch: numBatch(t, i, i+1)}) {
				return
			}
		}
	}()
	bats, err := Collect(ctx, NewChannelStream(numSchema, ch))
	require.NoError(t, err)
	require.Equal(t, 3, rowCount(bats))

	errCh := make(chan Result, 1)
	errCh <- Result{Err: moerr.NewInternalErrorNoCtx("boom")}
	_, err = Collect(ctx, NewChannelStream(numSchema, errCh))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInternal))
}

func TestFuncAndMapStream(t *testing.T) {
	ctx := context.Background()
	n := int64(0)
	src := NewFuncStream(numSchema, func(ctx context.Context) (*batch.Batch, error) {
		if n == 3 {
			return nil, nil
		}
		n++
		return numBatch(t, n-1, n), nil
	})
	odd := NewMapStream(src, numSchema, func(_ context.Context, bat *batch.Batch) (*batch.Batch, error) {
		if bat.GetVector(0).Get(0).Int64()%2 == 0 {
			return nil, nil
		}
		return bat, nil
	})
	bats, err := Collect(ctx, odd)
	require.NoError(t, err)
	require.Len(t, bats, 1)
	require.Equal(t, "n\n1", bats[0].String())
}
