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

package runtime

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lni/goutils/leaktest"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
)

func TestSpawnAndWait(t *testing.T) {
	defer leaktest.AfterTest(t)()
	rt, err := NewRuntime(2)
	require.NoError(t, err)
	defer rt.Release()

	qrt := rt.NewQueryRuntime(context.Background())
	var n atomic.Int32
	var handles []*TaskHandle
	for i := 0; i < 8; i++ {
		h, err := qrt.TrySpawn(func(ctx context.Context) error {
			n.Add(1)
			return nil
		})
		require.NoError(t, err)
		handles = append(handles, h)
	}
	for _, h := range handles {
		require.NoError(t, h.Wait(context.Background()))
	}
	require.Equal(t, int32(8), n.Load())
	qrt.Close()
}

func TestCloseCancelsTasks(t *testing.T) {
	defer leaktest.AfterTest(t)()
	rt, err := NewRuntime(2)
	require.NoError(t, err)
	defer rt.Release()

	qrt := rt.NewQueryRuntime(context.Background())
	started := make(chan struct{})
	h, err := qrt.TrySpawn(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return moerr.ConvertGoError(ctx, ctx.Err())
	})
	require.NoError(t, err)
	<-started
	qrt.Close()

	select {
	case <-h.Done():
	default:
		t.Fatal("Close returned before the task")
	}
	require.True(t, moerr.IsAborted(h.Wait(context.Background())))

	_, err = qrt.TrySpawn(func(ctx context.Context) error { return nil })
	require.True(t, moerr.IsAborted(err))
	qrt.Close()
}

func TestTaskPanic(t *testing.T) {
	defer leaktest.AfterTest(t)()
	rt, err := NewRuntime(1)
	require.NoError(t, err)
	defer rt.Release()

	qrt := rt.NewQueryRuntime(context.Background())
	defer qrt.Close()
	h, err := qrt.TrySpawn(func(ctx context.Context) error {
		panic("boom")
	})
	require.NoError(t, err)
	require.Error(t, h.Wait(context.Background()))

	// the worker survived the panic
	h, err = qrt.TrySpawn(func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	require.NoError(t, h.Wait(context.Background()))
}

func TestWaitTimeout(t *testing.T) {
	rt, err := NewRuntime(1)
	require.NoError(t, err)
	defer rt.Release()

	qrt := rt.NewQueryRuntime(context.Background())
	h, err := qrt.TrySpawn(func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.Error(t, h.Wait(ctx))
	qrt.Close()
}

func TestSpawnOnFullPool(t *testing.T) {
	defer leaktest.AfterTest(t)()
	rt, err := NewRuntime(1)
	require.NoError(t, err)
	defer rt.Release()

	qrt := rt.NewQueryRuntime(context.Background())
	// the only worker is held until the second task signals
	signal := make(chan struct{})
	held, err := qrt.TrySpawn(func(ctx context.Context) error {
		select {
		case <-signal:
		case <-ctx.Done():
		}
		return nil
	})
	require.NoError(t, err)

	spawned := make(chan error, 1)
	go func() {
		_, err := qrt.TrySpawn(func(ctx context.Context) error {
			close(signal)
			return nil
		})
		spawned <- err
	}()
	select {
	case err := <-spawned:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("TrySpawn blocked on a full pool")
	}
	require.NoError(t, held.Wait(context.Background()))
	require.GreaterOrEqual(t, rt.Overflow(), int64(1))

	done := make(chan struct{})
	go func() {
		qrt.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close hung")
	}
}
