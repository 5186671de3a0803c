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
	"path"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/fusequery/pkg/catalog"
	"github.com/matrixorigin/fusequery/pkg/catalog/metastore"
	mock_catalog "github.com/matrixorigin/fusequery/pkg/catalog/test"
	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/fileservice"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/streams"
	v2 "github.com/matrixorigin/fusequery/pkg/util/metric/v2"
	"github.com/matrixorigin/fusequery/pkg/vm/engine/fuse/blockio"
	"github.com/matrixorigin/fusequery/pkg/vm/engine/fuse/meta"
)

var testSchema = types.NewSchema(
	types.NewField("c1", types.T_int32, true),
	types.NewField("s", types.T_varchar, true),
)

// testContext is a mocked table context over a memory file service and a
// mocked catalog resolving tables through the metastore.
type testContext struct {
	*mock_catalog.MockTableContext
	fs  *fileservice.MemoryFS
	cat *mock_catalog.MockCatalog
}

func newTestTable(t *testing.T) (*testContext, *Table) {
	ctx := context.Background()
	cm := metastore.NewCatalogMeta(metastore.NewMemoryStore())
	_, err := cm.CreateDatabase(ctx, metastore.DatabaseMeta{Name: "db1", Engine: catalog.DefaultDatabaseEngine}, false)
	require.NoError(t, err)
	_, err = cm.CreateTable(ctx, metastore.TableMeta{
		Database: "db1", Name: "t", Schema: testSchema, Engine: catalog.FuseTableEngine,
	}, false)
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	open := func(m *metastore.TableMeta, err error) (catalog.Table, error) {
		if err != nil {
			return nil, err
		}
		return Open(catalog.TableInfoFromMeta(m))
	}
	cat := mock_catalog.NewMockCatalog(ctrl)
	cat.EXPECT().GetTable(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, db, name string) (catalog.Table, error) {
			return open(cm.GetTable(ctx, db, name))
		}).AnyTimes()
	cat.EXPECT().GetTableByID(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, id uint64) (catalog.Table, error) {
			return open(cm.GetTableByID(ctx, id))
		}).AnyTimes()
	cat.EXPECT().UpsertTableOption(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(cm.UpsertTableOption).AnyTimes()

	var (
		mu    sync.Mutex
		queue []plan.Partition
	)
	fs := fileservice.NewMemoryFS()
	tctx := newMockContext(ctrl, fs, cat)
	tctx.EXPECT().TrySetPartitions(gomock.Any()).Do(func(parts []plan.Partition) {
		mu.Lock()
		defer mu.Unlock()
		queue = append(queue, parts...)
	}).AnyTimes()
	tctx.EXPECT().TryGetPartitions(gomock.Any()).DoAndReturn(func(n int) []plan.Partition {
		mu.Lock()
		defer mu.Unlock()
		n = min(n, len(queue))
		out := append([]plan.Partition(nil), queue[len(queue)-n:]...)
		queue = queue[:len(queue)-n]
		return out
	}).AnyTimes()

	env := &testContext{MockTableContext: tctx, fs: fs, cat: cat}
	return env, reload(t, env)
}

func newMockContext(ctrl *gomock.Controller, da fileservice.DataAccessor, cat catalog.Catalog) *mock_catalog.MockTableContext {
	tctx := mock_catalog.NewMockTableContext(ctrl)
	tctx.EXPECT().GetDataAccessor().Return(da).AnyTimes()
	tctx.EXPECT().GetCatalog().Return(cat).AnyTimes()
	tctx.EXPECT().GetMaxThreads().Return(2).AnyTimes()
	tctx.EXPECT().GetMaxBlockSize().Return(0).AnyTimes()
	tctx.EXPECT().GetStorageReadBufferSize().Return(0).AnyTimes()
	return tctx
}

func reload(t *testing.T, tctx *testContext) *Table {
	tbl, err := tctx.cat.GetTable(context.Background(), "db1", "t")
	require.NoError(t, err)
	return tbl.(*Table)
}

func rowsOf(t *testing.T, vals ...any) *batch.Batch {
	rows := make([][]types.DataValue, len(vals))
	for i, v := range vals {
		c1 := types.NewNull(types.T_int32)
		if v != nil {
			c1 = types.NewInt32(int32(v.(int)))
		}
		rows[i] = []types.DataValue{c1, types.NewString("x")}
	}
	bat, err := batch.FromValues(testSchema, rows)
	require.NoError(t, err)
	return bat
}

func appendRows(t *testing.T, tctx *testContext, tbl *Table, bats ...*batch.Batch) *batch.Batch {
	ctx := context.Background()
	out, err := tbl.AppendData(ctx, tctx, streams.NewBlocksStream(testSchema, bats...))
	require.NoError(t, err)
	logs, err := streams.Collect(ctx, out)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	return logs[0]
}

func readAll(t *testing.T, tctx *testContext, tbl *Table, push plan.PushDowns) (plan.Statistics, []*batch.Batch) {
	ctx := context.Background()
	stats, parts, err := tbl.ReadPartitions(ctx, tctx, push)
	require.NoError(t, err)
	// pushed reversed so that popping from the back keeps block order
	tctx.TrySetPartitions(lo.Reverse(append([]plan.Partition(nil), parts...)))
	s, err := tbl.Read(ctx, tctx, &plan.ReadDataSourcePlan{TableSchema: tbl.Schema(), PushDowns: push})
	require.NoError(t, err)
	bats, err := streams.Collect(ctx, s)
	require.NoError(t, err)
	return stats, bats
}

func column(bats []*batch.Batch, idx int) []types.DataValue {
	var out []types.DataValue
	for _, bat := range bats {
		for i := 0; i < bat.RowCount(); i++ {
			out = append(out, bat.GetVector(idx).Get(i))
		}
	}
	return out
}

func TestAppendCommitRead(t *testing.T) {
	ctx := context.Background()
	tctx, tbl := newTestTable(t)

	stats, bats := readAll(t, tctx, tbl, plan.PushDowns{})
	require.Empty(t, bats)
	require.Zero(t, stats.PartitionsTotal)

	log := appendRows(t, tctx, tbl, rowsOf(t, 1, 2, 3))
	require.NoError(t, tbl.Commit(ctx, tctx, []*batch.Batch{log}, false))

	tbl = reload(t, tctx)
	for prefix, want := range map[string]int{blockio.FuseSnapshotPrefix: 1, blockio.FuseSegmentPrefix: 1, blockio.FuseBlockPrefix: 1} {
		paths, err := tctx.fs.List(ctx, path.Join(tbl.Prefix(), prefix))
		require.NoError(t, err)
		require.Len(t, paths, want, prefix)
	}

	ss, _, err := tbl.ReadSnapshot(ctx, tctx.fs)
	require.NoError(t, err)
	seg, err := blockio.ReadSegment(ctx, tctx.fs, ss.Segments[0])
	require.NoError(t, err)
	blk := seg.Blocks[0]
	require.Equal(t, uint64(3), blk.RowCount)
	require.Equal(t, types.NewInt32(1), blk.ColStats[0].Min)
	require.Equal(t, types.NewInt32(3), blk.ColStats[0].Max)

	stats, bats = readAll(t, tctx, tbl, plan.PushDowns{})
	require.Equal(t, uint64(3), stats.ReadRows)
	require.Equal(t, []types.DataValue{types.NewInt32(1), types.NewInt32(2), types.NewInt32(3)}, column(bats, 0))
}

func TestStorageInvariants(t *testing.T) {
	ctx := context.Background()
	tctx, tbl := newTestTable(t)
	logs := []*batch.Batch{
		appendRows(t, tctx, tbl, rowsOf(t, 5, nil, -7), rowsOf(t, nil, nil)),
		appendRows(t, tctx, tbl, rowsOf(t, 100)),
	}
	require.NoError(t, tbl.Commit(ctx, tctx, logs, false))
	tbl = reload(t, tctx)

	ss, _, err := tbl.ReadSnapshot(ctx, tctx.fs)
	require.NoError(t, err)
	var total uint64
	for _, loc := range ss.Segments {
		seg, err := blockio.ReadSegment(ctx, tctx.fs, loc)
		require.NoError(t, err)
		var rows, bytes uint64
		for _, blk := range seg.Blocks {
			// row_count agrees with the parquet footer
			f, err := blockio.OpenBlock(ctx, tctx.fs, blk.Location, int64(blk.ByteSize), 0)
			require.NoError(t, err)
			require.Equal(t, int64(blk.RowCount), f.NumRows())

			r := blockio.NewBlockReader(tctx.fs, testSchema, nil, 0)
			bat, err := r.Read(ctx, blk.Location, int64(blk.ByteSize))
			require.NoError(t, err)
			for id, st := range blk.ColStats {
				require.LessOrEqual(t, st.NullCount, blk.RowCount)
				for _, v := range column([]*batch.Batch{bat}, int(id)) {
					if v.IsNull() {
						continue
					}
					c, err := types.Compare(st.Min, v)
					require.NoError(t, err)
					require.LessOrEqual(t, c, 0)
					c, err = types.Compare(v, st.Max)
					require.NoError(t, err)
					require.LessOrEqual(t, c, 0)
				}
			}
			rows += blk.RowCount
			bytes += blk.ByteSize
		}
		require.Equal(t, rows, seg.Summary.RowCount)
		require.Equal(t, bytes, seg.Summary.ByteSize)
		total += rows
	}
	require.Equal(t, total, ss.Summary.RowCount)
	require.Equal(t, uint64(6), total)
	require.Equal(t, uint64(3), ss.Summary.ColStats[0].NullCount)
}

func TestConcurrentInsert(t *testing.T) {
	ctx := context.Background()
	tctx, tbl := newTestTable(t)

	inputs := []*batch.Batch{rowsOf(t, 1, 2), rowsOf(t, 3)}
	logs := make([]*batch.Batch, len(inputs))
	errs := make([]error, len(inputs))
	var wg sync.WaitGroup
	for i := range inputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := tbl.AppendData(ctx, tctx, streams.NewOneBlockStream(inputs[i]))
			if err == nil {
				logs[i], err = streams.CollectOne(ctx, out)
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	entries := make([]meta.AppendLogEntry, 0, 2)
	for _, log := range logs {
		es, err := meta.AppendLogEntriesFromBatch(log)
		require.NoError(t, err)
		entries = append(entries, es...)
	}
	require.Len(t, entries, 2)
	require.NotEqual(t, entries[0].SegmentLocation, entries[1].SegmentLocation)

	require.NoError(t, tbl.Commit(ctx, tctx, logs, false))
	tbl = reload(t, tctx)
	ss, _, err := tbl.ReadSnapshot(ctx, tctx.fs)
	require.NoError(t, err)
	require.Len(t, ss.Segments, 2)
	require.Equal(t, uint64(3), ss.Summary.RowCount)

	_, bats := readAll(t, tctx, tbl, plan.PushDowns{})
	require.Equal(t, []types.DataValue{types.NewInt32(1), types.NewInt32(2), types.NewInt32(3)}, column(bats, 0))
}

func TestCommitConflictRetry(t *testing.T) {
	ctx := context.Background()
	tctx, stale := newTestTable(t)
	fresh := reload(t, tctx)

	require.NoError(t, fresh.Commit(ctx, tctx, []*batch.Batch{appendRows(t, tctx, fresh, rowsOf(t, 1))}, false))

	conflicts := testutil.ToFloat64(v2.FuseCommitConflictCounter)
	require.NoError(t, stale.Commit(ctx, tctx, []*batch.Batch{appendRows(t, tctx, stale, rowsOf(t, 2))}, false))
	require.Equal(t, conflicts+1, testutil.ToFloat64(v2.FuseCommitConflictCounter))

	tbl := reload(t, tctx)
	ss, _, err := tbl.ReadSnapshot(ctx, tctx.fs)
	require.NoError(t, err)
	// nothing of the first commit is lost
	require.Len(t, ss.Segments, 2)
	require.Equal(t, uint64(2), ss.Summary.RowCount)
}

func TestCommitGivesUp(t *testing.T) {
	ctx := context.Background()
	tctx, tbl := newTestTable(t)
	log := appendRows(t, tctx, tbl, rowsOf(t, 1))
	ctrl := gomock.NewController(t)

	// a stale version on every attempt
	cat := mock_catalog.NewMockCatalog(ctrl)
	cat.EXPECT().UpsertTableOption(gomock.Any(), tbl.Info.ID, gomock.Any(), SnapshotLocationOption, gomock.Any()).
		Return(uint64(0), moerr.NewConflict(ctx, "table version changed")).Times(maxCommitRetries)
	cat.EXPECT().GetTableByID(gomock.Any(), tbl.Info.ID).Return(tbl, nil).Times(maxCommitRetries - 1)
	err := tbl.Commit(ctx, newMockContext(ctrl, tctx.fs, cat), []*batch.Batch{log}, false)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrConflict))

	// other errors are not retried
	cat = mock_catalog.NewMockCatalog(ctrl)
	cat.EXPECT().UpsertTableOption(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(uint64(0), moerr.NewStorageIO(ctx, "meta unavailable"))
	err = tbl.Commit(ctx, newMockContext(ctrl, tctx.fs, cat), []*batch.Batch{log}, false)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrStorageIO))

	// the table still points at no snapshot
	_, bats := readAll(t, tctx, reload(t, tctx), plan.PushDowns{})
	require.Empty(t, bats)
}

func TestHistoryChain(t *testing.T) {
	ctx := context.Background()
	tctx, tbl := newTestTable(t)
	for i := 0; i < 4; i++ {
		require.NoError(t, tbl.Commit(ctx, tctx, []*batch.Batch{appendRows(t, tctx, tbl, rowsOf(t, i))}, false))
		tbl = reload(t, tctx)
	}
	history, err := tbl.History(ctx, tctx.fs)
	require.NoError(t, err)
	require.Len(t, history, 4)
	for i := 1; i < len(history); i++ {
		require.Less(t, history[i].Snapshot.Timestamp, history[i-1].Snapshot.Timestamp)
		require.Equal(t, history[i].Location, *history[i-1].Snapshot.PrevSnapshotID)
	}
	require.Nil(t, history[3].Snapshot.PrevSnapshotID)
	require.Len(t, history[0].Snapshot.Segments, 4)

	// versions order the snapshot names
	v0, err := blockio.SnapshotVersion(history[0].Location)
	require.NoError(t, err)
	require.Equal(t, uint64(4), v0)
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	tctx, tbl := newTestTable(t)
	logs := []*batch.Batch{
		appendRows(t, tctx, tbl, rowsOf(t, 1, 2, 3)),
		appendRows(t, tctx, tbl, rowsOf(t, 20, 30)),
		appendRows(t, tctx, tbl, rowsOf(t, nil)),
	}
	require.NoError(t, tbl.Commit(ctx, tctx, logs, false))
	tbl = reload(t, tctx)

	c1 := &plan.ColumnRef{Name: "c1", Typ: types.T_int32, Null: true}
	cmp := func(op string, v int64, flip bool) plan.Expr {
		args := []plan.Expr{c1, plan.NewLiteral(types.NewInt64(v))}
		if flip {
			args[0], args[1] = args[1], args[0]
		}
		return &plan.ScalarFunction{Name: op, Args: args, Typ: types.T_bool, Null: true}
	}
	for _, c := range []struct {
		filter plan.Expr
		want   int
	}{
		{cmp(">", 10, false), 1},
		{cmp("<", 10, true), 1},
		{cmp("=", 2, false), 1},
		{cmp("<=", 20, false), 2},
		{cmp("<>", 5, false), 2},
		{&plan.ScalarFunction{Name: "is null", Args: []plan.Expr{c1}, Typ: types.T_bool}, 1},
		{&plan.ScalarFunction{Name: "or", Args: []plan.Expr{cmp("=", 1, false), cmp("=", 30, false)}, Typ: types.T_bool}, 2},
		{&plan.ScalarFunction{Name: "upper", Args: []plan.Expr{c1}, Typ: types.T_varchar}, 3},
	} {
		stats, parts, err := tbl.ReadPartitions(ctx, tctx, plan.PushDowns{Filters: []plan.Expr{c.filter}})
		require.NoError(t, err)
		require.Len(t, parts, c.want, c.filter.String())
		require.Equal(t, 3, stats.PartitionsTotal)
		require.Equal(t, c.want, stats.PartitionsScanned)
	}

	// a limit without filters stops once enough rows are planned
	_, parts, err := tbl.ReadPartitions(ctx, tctx, plan.PushDowns{Limit: 2})
	require.NoError(t, err)
	require.Len(t, parts, 1)
}

func TestProjectionRead(t *testing.T) {
	ctx := context.Background()
	tctx, tbl := newTestTable(t)
	require.NoError(t, tbl.Commit(ctx, tctx, []*batch.Batch{appendRows(t, tctx, tbl, rowsOf(t, 1, 2))}, false))
	tbl = reload(t, tctx)

	_, bats := readAll(t, tctx, tbl, plan.PushDowns{Projection: []int{1}})
	require.Len(t, bats, 1)
	require.Equal(t, []string{"s"}, bats[0].Schema().Names())

	_, bats = readAll(t, tctx, tbl, plan.PushDowns{Projection: []int{}})
	require.Equal(t, 2, bats[0].RowCount())
	require.Zero(t, bats[0].ColumnCount())
}

func TestTruncate(t *testing.T) {
	ctx := context.Background()
	tctx, tbl := newTestTable(t)
	require.NoError(t, tbl.Commit(ctx, tctx, []*batch.Batch{appendRows(t, tctx, tbl, rowsOf(t, 1, 2))}, false))
	tbl = reload(t, tctx)

	require.NoError(t, tbl.Truncate(ctx, tctx, false))
	tbl = reload(t, tctx)
	_, bats := readAll(t, tctx, tbl, plan.PushDowns{})
	require.Empty(t, bats)
	history, err := tbl.History(ctx, tctx.fs)
	require.NoError(t, err)
	require.Len(t, history, 2)

	require.NoError(t, tbl.Commit(ctx, tctx, []*batch.Batch{appendRows(t, tctx, tbl, rowsOf(t, 3))}, false))
	tbl = reload(t, tctx)
	require.NoError(t, tbl.Truncate(ctx, tctx, true))
	tbl = reload(t, tctx)

	history, err = tbl.History(ctx, tctx.fs)
	require.NoError(t, err)
	require.Len(t, history, 1)
	paths, err := tctx.fs.List(ctx, tbl.Prefix())
	require.NoError(t, err)
	// only the new empty snapshot survives
	require.Equal(t, []string{history[0].Location}, paths)
}

func TestOverwrite(t *testing.T) {
	ctx := context.Background()
	tctx, tbl := newTestTable(t)
	require.NoError(t, tbl.Commit(ctx, tctx, []*batch.Batch{appendRows(t, tctx, tbl, rowsOf(t, 1, 2))}, false))
	tbl = reload(t, tctx)
	require.NoError(t, tbl.Commit(ctx, tctx, []*batch.Batch{appendRows(t, tctx, tbl, rowsOf(t, 9))}, true))
	tbl = reload(t, tctx)
	_, bats := readAll(t, tctx, tbl, plan.PushDowns{})
	require.Equal(t, []types.DataValue{types.NewInt32(9)}, column(bats, 0))
}

func TestHistoryFunction(t *testing.T) {
	ctx := context.Background()
	tctx, tbl := newTestTable(t)
	for i := 0; i < 2; i++ {
		require.NoError(t, tbl.Commit(ctx, tctx, []*batch.Batch{appendRows(t, tctx, tbl, rowsOf(t, i, i))}, false))
		tbl = reload(t, tctx)
	}

	_, err := NewHistoryFunction(ctx, []types.DataValue{types.NewString("db1")})
	require.Error(t, err)

	fn, err := NewHistoryFunction(ctx, []types.DataValue{types.NewString("db1"), types.NewString("t")})
	require.NoError(t, err)
	_, parts, err := fn.ReadPartitions(ctx, tctx, plan.PushDowns{})
	require.NoError(t, err)
	tctx.TrySetPartitions(parts)
	s, err := fn.Read(ctx, tctx, &plan.ReadDataSourcePlan{})
	require.NoError(t, err)
	bat, err := streams.CollectOne(ctx, s)
	require.NoError(t, err)
	require.Equal(t, 2, bat.RowCount())
	// newest first
	require.Equal(t, uint64(4), bat.GetVector(4).Get(0).Uint64())
	require.Equal(t, uint64(2), bat.GetVector(4).Get(1).Uint64())
	require.True(t, bat.GetVector(1).Get(1).IsNull())
	require.Equal(t, bat.GetVector(0).Get(1), bat.GetVector(1).Get(0))
}
