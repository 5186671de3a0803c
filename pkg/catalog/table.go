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

package catalog

import (
	"context"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/streams"
)

// TableBase carries the identity of a table. Embedders get a read only
// table and override what they support.
type TableBase struct {
	Info *TableInfo
}

func (t *TableBase) Name() string             { return t.Info.Name }
func (t *TableBase) Database() string         { return t.Info.Database }
func (t *TableBase) Engine() string           { return t.Info.Engine }
func (t *TableBase) Schema() *types.Schema    { return t.Info.Schema }
func (t *TableBase) GetTableInfo() *TableInfo { return t.Info }

func (t *TableBase) AppendData(ctx context.Context, _ TableContext, _ streams.Stream) (streams.Stream, error) {
	return nil, moerr.NewNYI(ctx, "append operation for table %s", t.Info.Desc)
}

func (t *TableBase) Commit(ctx context.Context, _ TableContext, _ []*batch.Batch, _ bool) error {
	return moerr.NewNYI(ctx, "commit operation for table %s", t.Info.Desc)
}

func (t *TableBase) Truncate(ctx context.Context, _ TableContext, _ bool) error {
	return moerr.NewNYI(ctx, "truncate operation for table %s", t.Info.Desc)
}

// OnePartition describes a table read in a single piece.
func OnePartition(info *TableInfo, rows uint64, bytes uint64) (plan.Statistics, []plan.Partition) {
	part := plan.Partition{
		Name:     info.Desc,
		Version:  info.Version,
		Begin:    0,
		End:      rows,
		ByteSize: bytes,
	}
	stats := plan.Statistics{
		ReadRows:          rows,
		ReadBytes:         bytes,
		PartitionsScanned: 1,
		PartitionsTotal:   1,
		IsExact:           true,
	}
	return stats, []plan.Partition{part}
}

// NewPartitionStream steals one partition at a time from tctx and emits
// the blocks read produces for it.
func NewPartitionStream(
	tctx TableContext,
	schema *types.Schema,
	read func(ctx context.Context, part plan.Partition) ([]*batch.Batch, error),
) streams.Stream {
	var pending []*batch.Batch
	return streams.NewFuncStream(schema, func(ctx context.Context) (*batch.Batch, error) {
		for len(pending) == 0 {
			parts := tctx.TryGetPartitions(1)
			if len(parts) == 0 {
				return nil, nil
			}
			bats, err := read(ctx, parts[0])
			if err != nil {
				return nil, err
			}
			pending = bats
		}
		bat := pending[0]
		pending = pending[1:]
		return bat, nil
	})
}
