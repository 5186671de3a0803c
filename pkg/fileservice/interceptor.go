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
	"sync/atomic"
	"time"

	"github.com/matrixorigin/fusequery/pkg/perfcounter"
	metric "github.com/matrixorigin/fusequery/pkg/util/metric/v2"
)

// DalMetrics is the storage access summary of one query
type DalMetrics struct {
	ReadCount   atomic.Int64
	ReadBytes   atomic.Int64
	WriteCount  atomic.Int64
	WriteBytes  atomic.Int64
	ListCount   atomic.Int64
	DeleteCount atomic.Int64
	// CostNanos: time spent inside the accessor
	CostNanos atomic.Int64
}

// DalMetricsValue is a point in time copy of DalMetrics
type DalMetricsValue struct {
	ReadCount   int64
	ReadBytes   int64
	WriteCount  int64
	WriteBytes  int64
	ListCount   int64
	DeleteCount int64
	Cost        time.Duration
}

func (d *DalMetrics) Value() DalMetricsValue {
	return DalMetricsValue{
		ReadCount:   d.ReadCount.Load(),
		ReadBytes:   d.ReadBytes.Load(),
		WriteCount:  d.WriteCount.Load(),
		WriteBytes:  d.WriteBytes.Load(),
		ListCount:   d.ListCount.Load(),
		DeleteCount: d.DeleteCount.Load(),
		Cost:        time.Duration(d.CostNanos.Load()),
	}
}

// Interceptor records every operation of the wrapped accessor into the
// counter sets attached to the context, the query DalMetrics and prometheus.
type Interceptor struct {
	upstream DataAccessor
	metrics  *DalMetrics
	backend  string
}

var _ DataAccessor = new(Interceptor)

func NewInterceptor(upstream DataAccessor, metrics *DalMetrics) *Interceptor {
	if metrics == nil {
		metrics = new(DalMetrics)
	}
	return &Interceptor{
		upstream: upstream,
		metrics:  metrics,
		backend:  upstream.Name(),
	}
}

func (i *Interceptor) Name() string {
	return i.upstream.Name()
}

func (i *Interceptor) Metrics() *DalMetrics {
	return i.metrics
}

func (i *Interceptor) Get(ctx context.Context, path string) ([]byte, error) {
	t0 := time.Now()
	data, err := i.upstream.Get(ctx, path)
	i.observe("get", t0)
	if err != nil {
		return nil, err
	}
	n := int64(len(data))
	i.metrics.ReadCount.Add(1)
	i.metrics.ReadBytes.Add(n)
	metric.FSIOCounter.WithLabelValues(i.backend, "get").Inc()
	metric.FSIOBytesCounter.WithLabelValues(i.backend, "get").Add(float64(n))
	perfcounter.Update(ctx, func(set *perfcounter.CounterSet) {
		set.DataAccess.Get.Add(1)
		set.DataAccess.ReadBytes.Add(n)
	})
	return data, nil
}

func (i *Interceptor) GetStream(ctx context.Context, path string, offset int64, length int64) (io.ReadCloser, error) {
	t0 := time.Now()
	r, err := i.upstream.GetStream(ctx, path, offset, length)
	i.observe("get_stream", t0)
	if err != nil {
		return nil, err
	}
	i.metrics.ReadCount.Add(1)
	metric.FSIOCounter.WithLabelValues(i.backend, "get_stream").Inc()
	perfcounter.Update(ctx, func(set *perfcounter.CounterSet) {
		set.DataAccess.GetStream.Add(1)
	})
	return &countingReader{
		upstream: r,
		onRead: func(n int) {
			i.metrics.ReadBytes.Add(int64(n))
			metric.FSIOBytesCounter.WithLabelValues(i.backend, "get_stream").Add(float64(n))
			perfcounter.Update(ctx, func(set *perfcounter.CounterSet) {
				set.DataAccess.ReadBytes.Add(int64(n))
			})
		},
	}, nil
}

func (i *Interceptor) Size(ctx context.Context, path string) (int64, error) {
	return GetSize(ctx, i.upstream, path)
}

func (i *Interceptor) Put(ctx context.Context, path string, data []byte) error {
	t0 := time.Now()
	err := i.upstream.Put(ctx, path, data)
	i.observe("put", t0)
	if err != nil {
		return err
	}
	n := int64(len(data))
	i.metrics.WriteCount.Add(1)
	i.metrics.WriteBytes.Add(n)
	metric.FSIOCounter.WithLabelValues(i.backend, "put").Inc()
	metric.FSIOBytesCounter.WithLabelValues(i.backend, "put").Add(float64(n))
	perfcounter.Update(ctx, func(set *perfcounter.CounterSet) {
		set.DataAccess.Put.Add(1)
		set.DataAccess.WriteBytes.Add(n)
	})
	return nil
}

func (i *Interceptor) List(ctx context.Context, prefix string) ([]string, error) {
	t0 := time.Now()
	ret, err := i.upstream.List(ctx, prefix)
	i.observe("list", t0)
	if err != nil {
		return nil, err
	}
	i.metrics.ListCount.Add(1)
	metric.FSIOCounter.WithLabelValues(i.backend, "list").Inc()
	perfcounter.Update(ctx, func(set *perfcounter.CounterSet) {
		set.DataAccess.List.Add(1)
	})
	return ret, nil
}

func (i *Interceptor) Delete(ctx context.Context, paths ...string) error {
	t0 := time.Now()
	err := i.upstream.Delete(ctx, paths...)
	i.observe("delete", t0)
	if err != nil {
		return err
	}
	n := int64(len(paths))
	i.metrics.DeleteCount.Add(n)
	metric.FSIOCounter.WithLabelValues(i.backend, "delete").Add(float64(n))
	perfcounter.Update(ctx, func(set *perfcounter.CounterSet) {
		set.DataAccess.Delete.Add(n)
	})
	return nil
}

func (i *Interceptor) observe(op string, t0 time.Time) {
	cost := time.Since(t0)
	i.metrics.CostNanos.Add(int64(cost))
	metric.FSIODurationHistogram.WithLabelValues(i.backend, op).Observe(cost.Seconds())
}

type countingReader struct {
	upstream io.ReadCloser
	onRead   func(n int)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.upstream.Read(p)
	if n > 0 {
		c.onRead(n)
	}
	return n, err
}

func (c *countingReader) Close() error {
	return c.upstream.Close()
}
