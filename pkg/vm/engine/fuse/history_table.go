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

package fuse

import (
	"context"
	"strings"

	"github.com/matrixorigin/fusequery/pkg/catalog"
	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/streams"
)

const HistoryFunctionName = "fuse_history"

var historySchema = types.NewSchema(
	types.NewField("snapshot_id", types.T_varchar, false),
	types.NewField("prev_snapshot_id", types.T_varchar, true),
	types.NewField("segment_count", types.T_uint64, false),
	types.NewField("block_count", types.T_uint64, false),
	types.NewField("row_count", types.T_uint64, false),
	types.NewField("bytes_uncompressed", types.T_uint64, false),
	types.NewField("bytes_compressed", types.T_uint64, false),
	types.NewField("timestamp", types.T_timestamp, false),
)

// historyTable lists the snapshot chain of a fuse table, newest first.
type historyTable struct {
	catalog.TableBase
	database string
	table    string
}

// NewHistoryFunction is the fuse_history('db', 'table') table function.
func NewHistoryFunction(ctx context.Context, args []types.DataValue) (catalog.Table, error) {
	if len(args) != 2 {
		return nil, moerr.NewBadArguments(ctx, "%s expects 2 arguments: database and table, got %d", HistoryFunctionName, len(args))
	}
	for _, a := range args {
		if a.DataType() != types.T_varchar || a.IsNull() {
			return nil, moerr.NewBadArguments(ctx, "%s expects string arguments, got %s", HistoryFunctionName, a.DataType())
		}
	}
	info := catalog.NewTableInfo("system", HistoryFunctionName, historySchema, catalog.TableFuncEngine)
	return &historyTable{
		TableBase: catalog.TableBase{Info: info},
		database:  args[0].Str(),
		table:     args[1].Str(),
	}, nil
}

func (h *historyTable) ReadPartitions(ctx context.Context, tctx catalog.TableContext, push plan.PushDowns) (plan.Statistics, []plan.Partition, error) {
	stats, parts := catalog.OnePartition(h.Info, 0, 0)
	stats.IsExact = false
	return stats, parts, nil
}

func (h *historyTable) Read(ctx context.Context, tctx catalog.TableContext, source *plan.ReadDataSourcePlan) (streams.Stream, error) {
	return catalog.NewPartitionStream(tctx, h.Schema(), func(ctx context.Context, _ plan.Partition) ([]*batch.Batch, error) {
		tbl, err := tctx.GetCatalog().GetTable(ctx, h.database, h.table)
		if err != nil {
			return nil, err
		}
		ft, ok := tbl.(*Table)
		if !ok {
			return nil, moerr.NewBadArguments(ctx, "%s only supports fuse tables, %s.%s is %s",
				HistoryFunctionName, h.database, h.table, strings.ToUpper(tbl.Engine()))
		}
		history, err := ft.History(ctx, tctx.GetDataAccessor())
		if err != nil {
			return nil, err
		}
		rows := make([][]types.DataValue, 0, len(history))
		for _, e := range history {
			ss := e.Snapshot
			prev := types.NewNull(types.T_varchar)
			if ss.PrevSnapshotID != nil && *ss.PrevSnapshotID != "" {
				prev = types.NewString(*ss.PrevSnapshotID)
			}
			var inMemory uint64
			for _, st := range ss.Summary.ColStats {
				inMemory += st.InMemorySize
			}
			rows = append(rows, []types.DataValue{
				types.NewString(e.Location),
				prev,
				types.NewUInt64(uint64(len(ss.Segments))),
				types.NewUInt64(ss.Summary.BlockCount),
				types.NewUInt64(ss.Summary.RowCount),
				types.NewUInt64(inMemory),
				types.NewUInt64(ss.Summary.ByteSize),
				types.NewTimestamp(types.Timestamp(ss.Timestamp)),
			})
		}
		bat, err := batch.FromValues(h.Schema(), rows)
		if err != nil {
			return nil, err
		}
		return []*batch.Batch{bat}, nil
	}), nil
}
