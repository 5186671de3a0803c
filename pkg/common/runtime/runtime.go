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
	"errors"
	"fmt"
	goruntime "runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/logutil"
)

// Runtime is the process wide worker pool. Queries never submit to it
// directly; they go through a QueryRuntime so that their tasks can be
// cancelled and waited for together.
type Runtime struct {
	pool     *ants.Pool
	overflow atomic.Int64
}

const releaseTimeout = 5 * time.Second

// NewRuntime sizes the pool to size workers, 0 meaning the number of cpus.
func NewRuntime(size int) (*Runtime, error) {
	if size <= 0 {
		size = goruntime.NumCPU()
	}
	// tasks recover their own panics, this only guards the pool workers
	pool, err := ants.NewPool(size,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(v interface{}) {
			logutil.Error("runtime task panicked", zap.Any("panic", v))
		}))
	if err != nil {
		return nil, moerr.NewInternalErrorNoCtx("create runtime: %v", err)
	}
	return &Runtime{pool: pool}, nil
}

func (r *Runtime) Cap() int {
	return r.pool.Cap()
}

func (r *Runtime) Running() int {
	return r.pool.Running()
}

// Release stops the pool and waits up to releaseTimeout for its workers to
// exit.
func (r *Runtime) Release() {
	if err := r.pool.ReleaseTimeout(releaseTimeout); err != nil {
		logutil.Warn("release runtime", zap.Error(err))
	}
}

// Overflow counts the tasks that ran outside the pool because it was full.
func (r *Runtime) Overflow() int64 {
	return r.overflow.Load()
}

// NewQueryRuntime derives a handle whose tasks see a context cancelled by
// Cancel or Close.
func (r *Runtime) NewQueryRuntime(parent context.Context) *QueryRuntime {
	ctx, cancel := context.WithCancel(parent)
	return &QueryRuntime{
		rt:     r,
		ctx:    ctx,
		cancel: cancel,
	}
}

// TaskHandle tracks one spawned task.
type TaskHandle struct {
	done chan struct{}
	err  error
}

// Done is closed when the task returned.
func (h *TaskHandle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the task returned or ctx is done.
func (h *TaskHandle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return moerr.ConvertGoError(ctx, ctx.Err())
	}
}

// QueryRuntime is the runtime of one query.
type QueryRuntime struct {
	rt     *Runtime
	ctx    context.Context
	cancel context.CancelFunc

	mu struct {
		sync.Mutex
		closed bool
	}
	wg sync.WaitGroup
}

// Context is cancelled when the query aborts or its runtime closes.
func (q *QueryRuntime) Context() context.Context {
	return q.ctx
}

// TrySpawn runs fn on the pool. fn must return once its context is done.
// A panic in fn is recovered and reported through the handle.
//
// TrySpawn never waits for a free worker: tasks may block on channels that
// are drained only after the caller returns, so a full pool hands the task
// to a goroutine of its own.
func (q *QueryRuntime) TrySpawn(fn func(ctx context.Context) error) (*TaskHandle, error) {
	q.mu.Lock()
	if q.mu.closed {
		q.mu.Unlock()
		return nil, moerr.NewAbortedNoCtx("query runtime is closed")
	}
	// added under the lock so Close never waits on a zero counter that grows
	q.wg.Add(1)
	q.mu.Unlock()

	h := &TaskHandle{done: make(chan struct{})}
	task := func() {
		defer q.wg.Done()
		defer close(h.done)
		defer func() {
			if v := recover(); v != nil {
				h.err = moerr.ConvertPanicError(q.ctx, v)
				logutil.Error("query task panicked", zap.String("panic", fmt.Sprint(v)))
			}
		}()
		h.err = fn(q.ctx)
	}
	err := q.rt.pool.Submit(task)
	switch {
	case err == nil:
	case errors.Is(err, ants.ErrPoolOverload):
		q.rt.overflow.Add(1)
		go task()
	default:
		q.wg.Done()
		return nil, moerr.NewInternalErrorNoCtx("spawn task: %v", err)
	}
	return h, nil
}

// Cancel stops the tasks cooperatively; new spawns still succeed until Close.
func (q *QueryRuntime) Cancel() {
	q.cancel()
}

// Close cancels the query context, refuses new tasks and waits for the
// running ones to return. Calling it again is a no-op.
func (q *QueryRuntime) Close() {
	q.mu.Lock()
	if q.mu.closed {
		q.mu.Unlock()
		return
	}
	q.mu.closed = true
	q.mu.Unlock()
	q.cancel()
	q.wg.Wait()
}
