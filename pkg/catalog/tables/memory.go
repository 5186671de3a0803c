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

package tables

import (
	"context"
	"fmt"
	"sync"

	"github.com/matrixorigin/fusequery/pkg/catalog"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/streams"
)

// MemoryEngine keeps the blocks of its tables in process. Data is shared
// by every open of the same table id and lost on restart.
type MemoryEngine struct {
	mu     sync.Mutex
	tables map[uint64]*memoryData
}

type memoryData struct {
	sync.RWMutex
	blocks []*batch.Batch
}

func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{tables: make(map[uint64]*memoryData)}
}

func (e *MemoryEngine) Description() string {
	return "MEMORY Storage Engine"
}

func (e *MemoryEngine) Open(info *catalog.TableInfo) (catalog.Table, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	data, ok := e.tables[info.ID]
	if !ok {
		data = &memoryData{}
		e.tables[info.ID] = data
	}
	return &MemoryTable{TableBase: catalog.TableBase{Info: info}, data: data}, nil
}

// Forget releases the blocks of a dropped table.
func (e *MemoryEngine) Forget(info *catalog.TableInfo) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.tables, info.ID)
}

type MemoryTable struct {
	catalog.TableBase
	data *memoryData
}

func (t *MemoryTable) snapshot() []*batch.Batch {
	t.data.RLock()
	defer t.data.RUnlock()
	return t.data.blocks
}

func (t *MemoryTable) ReadPartitions(ctx context.Context, tctx catalog.TableContext, push plan.PushDowns) (plan.Statistics, []plan.Partition, error) {
	blocks := t.snapshot()
	stats := plan.Statistics{IsExact: true}
	parts := make([]plan.Partition, 0, len(blocks))
	for i, bat := range blocks {
		if push.Limit > 0 && len(push.Filters) == 0 && stats.ReadRows >= uint64(push.Limit) {
			break
		}
		rows, bytes := uint64(bat.RowCount()), uint64(bat.Size())
		parts = append(parts, plan.Partition{
			Name:     fmt.Sprintf("%s-%d", t.Info.Desc, i),
			Version:  t.Info.Version,
			Begin:    uint64(i),
			End:      uint64(i) + 1,
			ByteSize: bytes,
		})
		stats.ReadRows += rows
		stats.ReadBytes += bytes
	}
	stats.PartitionsScanned = len(parts)
	stats.PartitionsTotal = len(blocks)
	return stats, parts, nil
}

// Read resolves partitions against the blocks visible when the read
// starts. Begin is the block index.
func (t *MemoryTable) Read(ctx context.Context, tctx catalog.TableContext, source *plan.ReadDataSourcePlan) (streams.Stream, error) {
	blocks := t.snapshot()
	projection := source.PushDowns.Projection
	return catalog.NewPartitionStream(tctx, source.Schema(), func(ctx context.Context, part plan.Partition) ([]*batch.Batch, error) {
		if part.Begin >= uint64(len(blocks)) {
			return nil, nil
		}
		bat := blocks[part.Begin]
		if projection != nil {
			bat = bat.Project(projection)
		}
		return []*batch.Batch{bat}, nil
	}), nil
}

// AppendData passes the cast input through. The blocks become visible
// on Commit.
func (t *MemoryTable) AppendData(ctx context.Context, tctx catalog.TableContext, input streams.Stream) (streams.Stream, error) {
	if !input.Schema().Equal(t.Schema()) {
		input = streams.NewCastStream(input, t.Schema())
	}
	return streams.NewSkipEmptyStream(input), nil
}

func (t *MemoryTable) Commit(ctx context.Context, tctx catalog.TableContext, logs []*batch.Batch, overwrite bool) error {
	t.data.Lock()
	defer t.data.Unlock()
	// readers hold the old slice, never append in place
	blocks := make([]*batch.Batch, 0, len(t.data.blocks)+len(logs))
	if !overwrite {
		blocks = append(blocks, t.data.blocks...)
	}
	t.data.blocks = append(blocks, logs...)
	return nil
}

func (t *MemoryTable) Truncate(ctx context.Context, tctx catalog.TableContext, purge bool) error {
	t.data.Lock()
	defer t.data.Unlock()
	t.data.blocks = nil
	return nil
}
