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

package sessions

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matrixorigin/fusequery/pkg/catalog"
	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/common/runtime"
	"github.com/matrixorigin/fusequery/pkg/config"
	"github.com/matrixorigin/fusequery/pkg/fileservice"
	"github.com/matrixorigin/fusequery/pkg/functions"
	"github.com/matrixorigin/fusequery/pkg/logutil"
	"github.com/matrixorigin/fusequery/pkg/perfcounter"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/streams"
	"github.com/matrixorigin/fusequery/pkg/users"
	v2 "github.com/matrixorigin/fusequery/pkg/util/metric/v2"
)

// ProgressValues is how much a query has read so far.
type ProgressValues struct {
	ReadRows  int64
	ReadBytes int64
}

// QueryContextShared is the state of one query shared by all its
// QueryContexts. It is torn down when the last of them is released.
type QueryContextShared struct {
	id         string
	session    *Session
	start      time.Time
	rt         *runtime.QueryRuntime
	ctx        context.Context
	dalMetrics *fileservice.DalMetrics
	da         fileservice.DataAccessor

	refs      atomic.Int64
	readRows  atomic.Int64
	readBytes atomic.Int64
	// closed once teardown finished
	done chan struct{}

	mu struct {
		sync.Mutex
		aborted      bool
		abortHandles []*streams.AbortHandle
		tables       map[tableKey]catalog.Table
		queryStr     string
	}
}

type tableKey struct {
	database, table string
}

func newQueryContextShared(parent context.Context, s *Session) *QueryContextShared {
	id := uuid.NewString()
	rt := s.mgr.rt.NewQueryRuntime(parent)
	metrics := new(fileservice.DalMetrics)
	shared := &QueryContextShared{
		id:         id,
		session:    s,
		start:      time.Now(),
		rt:         rt,
		ctx:        perfcounter.WithCounterSet(logutil.WithQueryID(rt.Context(), id), &s.mgr.counters),
		dalMetrics: metrics,
		da:         fileservice.NewQueryAccessor(s.mgr.backend, metrics),
		done:       make(chan struct{}),
	}
	shared.mu.tables = make(map[tableKey]catalog.Table)
	logutil.DebugCtx(shared.ctx, "create query context", zap.String("session-id", s.id))
	return shared
}

func (q *QueryContextShared) abort() {
	q.mu.Lock()
	if q.mu.aborted {
		q.mu.Unlock()
		return
	}
	q.mu.aborted = true
	handles := q.mu.abortHandles
	q.mu.Unlock()

	for _, h := range handles {
		h.Abort()
	}
	q.rt.Cancel()
	v2.QueryAbortedCounter.Inc()
	logutil.InfoCtx(q.ctx, "query aborted", zap.Int("sources", len(handles)))
}

func (q *QueryContextShared) isAborted() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.mu.aborted
}

// teardown cancels the query context and waits for the spawned tasks.
func (q *QueryContextShared) teardown() {
	q.rt.Close()
	m := q.dalMetrics.Value()
	logutil.InfoCtx(q.ctx, "destroy query context",
		zap.String("query", q.queryStr()),
		logutil.Elapsed(q.start),
		zap.Int64("read-rows", q.readRows.Load()),
		zap.Int64("dal-read-count", m.ReadCount),
		zap.Int64("dal-read-bytes", m.ReadBytes),
		zap.Int64("dal-write-count", m.WriteCount),
		zap.Int64("dal-write-bytes", m.WriteBytes),
		zap.Duration("dal-cost", m.Cost))
	close(q.done)
}

func (q *QueryContextShared) queryStr() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.mu.queryStr
}

// QueryContext is the handle processors and tables use to reach the
// query. Every Clone must be released exactly once.
type QueryContext struct {
	shared   *QueryContextShared
	released atomic.Bool

	mu    sync.Mutex
	parts []plan.Partition
	stats plan.Statistics
}

var _ catalog.TableContext = new(QueryContext)

func newQueryContext(shared *QueryContextShared) *QueryContext {
	shared.refs.Add(1)
	return &QueryContext{shared: shared}
}

// Clone returns a new reference to the same query with its own
// partition queue.
func (c *QueryContext) Clone() *QueryContext {
	return newQueryContext(c.shared)
}

// Release drops this reference. The last release tears the query down.
func (c *QueryContext) Release() {
	if !c.released.CompareAndSwap(false, true) {
		logutil.ErrorCtx(c.shared.ctx, "query context released twice",
			zap.Error(moerr.NewInternalErrorNoCtx("double release of query context %s", c.shared.id)))
		return
	}
	if c.shared.session.release(c.shared) {
		c.shared.teardown()
	}
}

// Context is cancelled when the query aborts or tears down.
func (c *QueryContext) Context() context.Context { return c.shared.ctx }

func (c *QueryContext) GetID() string                              { return c.shared.id }
func (c *QueryContext) GetSession() *Session                       { return c.shared.session }
func (c *QueryContext) GetConfig() *config.Config                  { return c.shared.session.mgr.conf }
func (c *QueryContext) GetSettings() *Settings                     { return c.shared.session.settings }
func (c *QueryContext) GetCatalog() catalog.Catalog                { return c.shared.session.mgr.catalog }
func (c *QueryContext) GetUserManager() *users.UserMgr             { return c.shared.session.mgr.userMgr }
func (c *QueryContext) GetDataAccessor() fileservice.DataAccessor  { return c.shared.da }
func (c *QueryContext) GetDalMetrics() fileservice.DalMetricsValue { return c.shared.dalMetrics.Value() }
func (c *QueryContext) GetCurrentDatabase() string                 { return c.shared.session.GetCurrentDatabase() }
func (c *QueryContext) GetCurrentUser() *users.UserInfo            { return c.shared.session.GetCurrentUser() }
func (c *QueryContext) GetSettingItems() []catalog.SettingItem     { return c.GetSettings().Items() }
func (c *QueryContext) GetFuseVersion() string                     { return functions.Version }
func (c *QueryContext) IsAborted() bool                            { return c.shared.isAborted() }
func (c *QueryContext) GetMaxThreads() int                         { return int(c.GetSettings().GetMaxThreads()) }
func (c *QueryContext) GetMaxBlockSize() int                       { return int(c.GetSettings().GetMaxBlockSize()) }
func (c *QueryContext) GetStorageReadBufferSize() int              { return int(c.GetSettings().GetStorageReadBufferSize()) }

func (c *QueryContext) AttachQueryStr(query string) {
	c.shared.mu.Lock()
	defer c.shared.mu.Unlock()
	c.shared.mu.queryStr = query
}

func (c *QueryContext) GetQueryStr() string {
	return c.shared.queryStr()
}

// TryGetPartitions pops up to n partitions from the back of the queue.
// Nothing is handed out once the query is aborted.
func (c *QueryContext) TryGetPartitions(n int) []plan.Partition {
	if n <= 0 || c.shared.isAborted() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n = min(n, len(c.parts))
	out := make([]plan.Partition, n)
	for i := 0; i < n; i++ {
		out[i] = c.parts[len(c.parts)-1-i]
	}
	c.parts = c.parts[:len(c.parts)-n]
	return out
}

// TrySetPartitions pushes parts to the back of the queue.
func (c *QueryContext) TrySetPartitions(parts []plan.Partition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parts = append(c.parts, parts...)
}

func (c *QueryContext) TryGetStatistics() plan.Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *QueryContext) TrySetStatistics(stats plan.Statistics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = stats
}

// GetProgressCallback is called by sources after each block, from any
// goroutine.
func (c *QueryContext) GetProgressCallback() func(rows, bytes int) {
	shared := c.shared
	return func(rows, bytes int) {
		shared.readRows.Add(int64(rows))
		shared.readBytes.Add(int64(bytes))
	}
}

func (c *QueryContext) GetProgressValue() ProgressValues {
	return ProgressValues{
		ReadRows:  c.shared.readRows.Load(),
		ReadBytes: c.shared.readBytes.Load(),
	}
}

// TrySpawn runs fn on the query runtime.
func (c *QueryContext) TrySpawn(fn func(ctx context.Context) error) (*runtime.TaskHandle, error) {
	return c.shared.rt.TrySpawn(fn)
}

// TryCreateAbortable registers input so that Abort stops it.
func (c *QueryContext) TryCreateAbortable(input streams.Stream) streams.Stream {
	s, h := streams.NewAbortableStream(input)
	c.shared.mu.Lock()
	c.shared.mu.abortHandles = append(c.shared.mu.abortHandles, h)
	aborted := c.shared.mu.aborted
	c.shared.mu.Unlock()
	if aborted {
		h.Abort()
	}
	return s
}

// Abort stops the sources of the query and cancels its context.
func (c *QueryContext) Abort() {
	c.shared.abort()
}

// GetTable resolves database.table once per query, later calls return
// the same table.
func (c *QueryContext) GetTable(ctx context.Context, database, table string) (catalog.Table, error) {
	key := tableKey{database: database, table: table}
	c.shared.mu.Lock()
	tbl, ok := c.shared.mu.tables[key]
	c.shared.mu.Unlock()
	if ok {
		return tbl, nil
	}
	tbl, err := c.GetCatalog().GetTable(ctx, database, table)
	if err != nil {
		return nil, err
	}
	c.shared.mu.Lock()
	defer c.shared.mu.Unlock()
	if cached, ok := c.shared.mu.tables[key]; ok {
		return cached, nil
	}
	c.shared.mu.tables[key] = tbl
	return tbl, nil
}

// BuildTable opens the table or table function source reads.
func (c *QueryContext) BuildTable(ctx context.Context, source *plan.ReadDataSourcePlan) (catalog.Table, error) {
	if source.IsTableFunction() {
		return c.GetCatalog().GetTableFunction(ctx, source.Table, source.TableArgs)
	}
	return c.GetTable(ctx, source.Database, source.Table)
}

func (c *QueryContext) SetCurrentDatabase(ctx context.Context, name string) error {
	if _, err := c.GetCatalog().GetDatabase(ctx, name); err != nil {
		return moerr.NewUnknownDatabase(ctx, "Cannot USE '%s', because the '%s' doesn't exist", name, name)
	}
	c.shared.session.setCurrentDatabase(name)
	return nil
}
