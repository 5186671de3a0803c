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
	"errors"
	"io"
	"net"
	"syscall"

	"go.uber.org/zap"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/logutil"
	"github.com/matrixorigin/fusequery/pkg/perfcounter"
	metric "github.com/matrixorigin/fusequery/pkg/util/metric/v2"
)

// maxReadAttempts counts the first try, so a transient read is retried once
const maxReadAttempts = 2

// transientError marks a backend failure that may succeed when repeated
type transientError struct {
	err error
}

func (t *transientError) Error() string {
	return t.err.Error()
}

func (t *transientError) Unwrap() error {
	return t.err
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *transientError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return moerr.IsMoErrCode(err, moerr.ErrUnexpectedEOF)
}

func doWithRetry[T any](
	ctx context.Context,
	op string,
	path string,
	fn func() (T, error),
) (res T, err error) {
	for i := 0; i < maxReadAttempts; i++ {
		res, err = fn()
		if err == nil || !isTransient(err) || ctx.Err() != nil {
			return
		}
		if i+1 < maxReadAttempts {
			logutil.Warn("retry transient read",
				zap.String("op", op),
				zap.String("path", path),
				zap.Error(err),
			)
			metric.FSRetryCounter.WithLabelValues(op).Inc()
			perfcounter.Update(ctx, func(set *perfcounter.CounterSet) {
				set.DataAccess.Retry.Add(1)
			})
		}
	}
	return
}

// RetryAccessor repeats Get, GetStream and List once on transient failures.
// Writes are never repeated.
type RetryAccessor struct {
	upstream DataAccessor
}

var _ DataAccessor = new(RetryAccessor)

func NewRetryAccessor(upstream DataAccessor) *RetryAccessor {
	return &RetryAccessor{
		upstream: upstream,
	}
}

func (r *RetryAccessor) Name() string {
	return r.upstream.Name()
}

func (r *RetryAccessor) Get(ctx context.Context, path string) ([]byte, error) {
	return doWithRetry(ctx, "get", path, func() ([]byte, error) {
		return r.upstream.Get(ctx, path)
	})
}

func (r *RetryAccessor) GetStream(ctx context.Context, path string, offset int64, length int64) (io.ReadCloser, error) {
	return doWithRetry(ctx, "get_stream", path, func() (io.ReadCloser, error) {
		return r.upstream.GetStream(ctx, path, offset, length)
	})
}

func (r *RetryAccessor) Size(ctx context.Context, path string) (int64, error) {
	return doWithRetry(ctx, "size", path, func() (int64, error) {
		return GetSize(ctx, r.upstream, path)
	})
}

func (r *RetryAccessor) Put(ctx context.Context, path string, data []byte) error {
	return r.upstream.Put(ctx, path, data)
}

func (r *RetryAccessor) List(ctx context.Context, prefix string) ([]string, error) {
	return doWithRetry(ctx, "list", prefix, func() ([]string, error) {
		return r.upstream.List(ctx, prefix)
	})
}

func (r *RetryAccessor) Delete(ctx context.Context, paths ...string) error {
	return r.upstream.Delete(ctx, paths...)
}
