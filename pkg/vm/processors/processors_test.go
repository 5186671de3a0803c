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

package processors

import (
	"context"
	"errors"
	"testing"

	"github.com/lni/goutils/leaktest"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/fusequery/pkg/catalog"
	"github.com/matrixorigin/fusequery/pkg/config"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/functions"
	"github.com/matrixorigin/fusequery/pkg/sessions"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/streams"
)

var testSchema = types.NewSchema(
	types.NewField("a", types.T_int64, false),
	types.NewField("b", types.T_varchar, true),
)

func newTestContext(t *testing.T) *sessions.QueryContext {
	conf := config.NewDefaultConfig()
	conf.Storage.Type = config.StorageTypeMemory
	conf.Meta.Backend = config.MetaBackendMemory
	conf.Query.NumCPUs = 4
	ctx := context.Background()
	m, err := sessions.NewSessionManager(ctx, conf)
	require.NoError(t, err)
	s, err := m.CreateSession("test")
	require.NoError(t, err)
	qctx := s.CreateQueryContext(ctx)
	t.Cleanup(func() {
		qctx.Release()
		require.NoError(t, m.Shutdown(ctx))
	})
	return qctx
}

func testBatch(t *testing.T, rows ...[]types.DataValue) *batch.Batch {
	bat, err := batch.FromValues(testSchema, rows)
	require.NoError(t, err)
	return bat
}

func row(a int64, b string) []types.DataValue {
	if b == "" {
		return []types.DataValue{types.NewInt64(a), types.NewNull(types.T_varchar)}
	}
	return []types.DataValue{types.NewInt64(a), types.NewString(b)}
}

func blocks(bats ...*batch.Batch) Processor {
	return NewStreamSource(streams.NewBlocksStream(testSchema, bats...))
}

func connect(t *testing.T, procs ...Processor) Processor {
	for i := 1; i < len(procs); i++ {
		require.NoError(t, procs[i].ConnectTo(procs[i-1]))
	}
	return procs[len(procs)-1]
}

func collectRows(t *testing.T, p Processor) [][]types.DataValue {
	ctx := context.Background()
	s, err := p.Execute(ctx)
	require.NoError(t, err)
	bats, err := streams.Collect(ctx, s)
	require.NoError(t, err)
	var rows [][]types.DataValue
	for _, bat := range bats {
		for i := 0; i < bat.RowCount(); i++ {
			rows = append(rows, bat.Row(i))
		}
	}
	return rows
}

func colA() *plan.ColumnRef { return plan.NewColumnRef(testSchema.Field(0)) }
func colB() *plan.ColumnRef { return plan.NewColumnRef(testSchema.Field(1)) }

func TestConnect(t *testing.T) {
	f := NewFilterTransform(plan.NewLiteral(types.NewBool(true)))
	require.NoError(t, f.ConnectTo(blocks()))
	require.Error(t, f.ConnectTo(blocks()))
	require.Len(t, f.Inputs(), 1)

	src := blocks()
	require.Error(t, src.ConnectTo(f))
	require.Nil(t, src.Inputs())

	_, err := NewLimitTransform(1, 0).Execute(context.Background())
	require.Error(t, err)
}

func TestFilterAndExpression(t *testing.T) {
	ctx := context.Background()
	gt, err := functions.BindScalar(ctx, ">", colA(), plan.NewLiteral(types.NewInt64(1)))
	require.NoError(t, err)
	plus, err := functions.BindScalar(ctx, "+", colA(), plan.NewLiteral(types.NewInt64(10)))
	require.NoError(t, err)

	p := connect(t,
		blocks(testBatch(t, row(1, "x"), row(2, "")), testBatch(t, row(0, "y")), testBatch(t, row(3, "z"))),
		NewFilterTransform(gt),
		NewExpressionTransform([]plan.Expr{plus, colB()}),
		NewProjectionTransform([]plan.Expr{&plan.Alias{Name: "c", E: plus}, colB()}),
	)
	rows := collectRows(t, p)
	require.Len(t, rows, 2)
	require.Equal(t, int64(12), rows[0][0].Int64())
	require.True(t, rows[0][1].IsNull())
	require.Equal(t, int64(13), rows[1][0].Int64())
	require.Equal(t, "z", rows[1][1].Str())
}

func TestFilterNullPredicate(t *testing.T) {
	p := connect(t,
		blocks(testBatch(t, row(1, "x"))),
		NewFilterTransform(plan.NewLiteral(types.NewNull(types.T_bool))),
	)
	require.Empty(t, collectRows(t, p))
}

func TestAggregator(t *testing.T) {
	ctx := context.Background()
	count, err := functions.BindAggregate(ctx, "count", false)
	require.NoError(t, err)
	sum, err := functions.BindAggregate(ctx, "sum", false, colA())
	require.NoError(t, err)
	aggs := []*plan.AggregateFunction{count, sum}
	groupBy := []plan.Expr{colB()}

	t.Run("group by", func(t *testing.T) {
		p := connect(t,
			blocks(testBatch(t, row(1, "x"), row(2, "")), testBatch(t, row(3, "x"), row(4, ""))),
			NewAggregatorPartialTransform(&plan.AggregatorPartialPlan{GroupBy: groupBy, Aggs: aggs}),
			NewAggregatorFinalTransform(&plan.AggregatorFinalPlan{GroupBy: groupBy, Aggs: aggs}),
		)
		rows := collectRows(t, p)
		require.Len(t, rows, 2)
		got := map[string][2]int64{}
		for _, r := range rows {
			got[r[2].String()] = [2]int64{int64(r[0].Uint64()), r[1].Int64()}
		}
		require.Equal(t, [2]int64{2, 4}, got["x"])
		require.Equal(t, [2]int64{2, 6}, got[types.NewNull(types.T_varchar).String()])
	})

	t.Run("global over empty input", func(t *testing.T) {
		p := connect(t,
			blocks(),
			NewAggregatorPartialTransform(&plan.AggregatorPartialPlan{Aggs: aggs}),
			NewAggregatorFinalTransform(&plan.AggregatorFinalPlan{Aggs: aggs}),
		)
		rows := collectRows(t, p)
		require.Len(t, rows, 1)
		require.Equal(t, uint64(0), rows[0][0].Uint64())
		require.True(t, rows[0][1].IsNull())
	})

	t.Run("group by over empty input", func(t *testing.T) {
		p := connect(t,
			blocks(),
			NewAggregatorPartialTransform(&plan.AggregatorPartialPlan{GroupBy: groupBy, Aggs: aggs}),
			NewAggregatorFinalTransform(&plan.AggregatorFinalPlan{GroupBy: groupBy, Aggs: aggs}),
		)
		require.Empty(t, collectRows(t, p))
	})
}

func TestSortAndLimit(t *testing.T) {
	items := []plan.SortItem{
		{Expr: colB(), Asc: true, NullsFirst: true},
		{Expr: colA(), Asc: false},
	}
	p := connect(t,
		blocks(testBatch(t, row(1, "b"), row(2, "a")), testBatch(t, row(3, ""), row(4, "b"))),
		NewSortPartialTransform(items),
		NewSortMergeTransform(items),
	)
	rows := collectRows(t, p)
	require.Len(t, rows, 4)
	var as []int64
	for _, r := range rows {
		as = append(as, r[0].Int64())
	}
	require.Equal(t, []int64{3, 2, 4, 1}, as)

	p = connect(t,
		blocks(testBatch(t, row(1, "a"), row(2, "b")), testBatch(t, row(3, "c"), row(4, "d"))),
		NewLimitTransform(2, 1),
	)
	rows = collectRows(t, p)
	require.Len(t, rows, 2)
	require.Equal(t, int64(2), rows[0][0].Int64())
	require.Equal(t, int64(3), rows[1][0].Int64())
}

func TestMerge(t *testing.T) {
	t.Cleanup(leaktest.AfterTest(t))
	qctx := newTestContext(t)

	m := NewMergeProcessor(qctx)
	for i := 0; i < 4; i++ {
		require.NoError(t, m.ConnectTo(blocks(testBatch(t, row(int64(i), "x")), testBatch(t, row(int64(i), "y")))))
	}
	require.Len(t, collectRows(t, m), 8)

	single := NewMergeProcessor(qctx)
	require.NoError(t, single.ConnectTo(blocks(testBatch(t, row(1, "x")))))
	require.Len(t, collectRows(t, single), 1)

	_, err := NewMergeProcessor(qctx).Execute(context.Background())
	require.Error(t, err)
}

func TestMergeError(t *testing.T) {
	t.Cleanup(leaktest.AfterTest(t))
	qctx := newTestContext(t)

	failure := errors.New("broken input")
	m := NewMergeProcessor(qctx)
	require.NoError(t, m.ConnectTo(blocks(testBatch(t, row(1, "x")))))
	require.NoError(t, m.ConnectTo(NewStreamSource(streams.NewFuncStream(testSchema, func(context.Context) (*batch.Batch, error) {
		return nil, failure
	}))))
	ctx := context.Background()
	s, err := m.Execute(ctx)
	require.NoError(t, err)
	_, err = streams.Collect(ctx, s)
	require.ErrorIs(t, err, failure)
}

func TestSourceAndSink(t *testing.T) {
	t.Cleanup(leaktest.AfterTest(t))
	qctx := newTestContext(t)
	ctx := context.Background()

	require.NoError(t, qctx.GetCatalog().CreateTable(ctx, &plan.CreateTablePlan{
		Database: catalog.DefaultDatabaseName, Table: "t", TableSchema: testSchema, Engine: catalog.MemoryTableEngine,
	}))
	tbl, err := qctx.GetTable(ctx, catalog.DefaultDatabaseName, "t")
	require.NoError(t, err)

	input := blocks(testBatch(t, row(1, "x"), row(2, "y")), testBatch(t, row(3, "")))
	commit := connect(t, input, NewSinkTransform(qctx, tbl), NewCommitTransform(qctx, tbl, false))
	require.Empty(t, collectRows(t, commit))

	info := tbl.GetTableInfo()
	source := &plan.ReadDataSourcePlan{
		Database:     info.Database,
		Table:        info.Name,
		TableID:      info.ID,
		TableVersion: info.Version,
		TableSchema:  tbl.Schema(),
	}
	tbl, err = qctx.BuildTable(ctx, source)
	require.NoError(t, err)
	stats, parts, err := tbl.ReadPartitions(ctx, qctx, source.PushDowns)
	require.NoError(t, err)
	source.Statistics, source.Parts = stats, parts
	qctx.TrySetPartitions(parts)

	rows := collectRows(t, NewSourceTransform(qctx, source))
	require.Len(t, rows, 3)
}

func TestNumbersSource(t *testing.T) {
	t.Cleanup(leaktest.AfterTest(t))
	qctx := newTestContext(t)
	ctx := context.Background()

	args := []types.DataValue{types.NewUInt64(100)}
	tbl, err := qctx.GetCatalog().GetTableFunction(ctx, "numbers_mt", args)
	require.NoError(t, err)
	source := &plan.ReadDataSourcePlan{
		Database:    tbl.Database(),
		Table:       tbl.Name(),
		TableSchema: tbl.Schema(),
		TableArgs:   args,
	}
	_, parts, err := tbl.ReadPartitions(ctx, qctx, source.PushDowns)
	require.NoError(t, err)
	source.Parts = parts
	qctx.TrySetPartitions(parts)

	sum, err := functions.BindAggregate(ctx, "sum", false, plan.NewColumnRef(tbl.Schema().Field(0)))
	require.NoError(t, err)
	aggs := []*plan.AggregateFunction{sum}
	p := connect(t,
		NewSourceTransform(qctx, source),
		NewAggregatorPartialTransform(&plan.AggregatorPartialPlan{Aggs: aggs}),
		NewAggregatorFinalTransform(&plan.AggregatorFinalPlan{Aggs: aggs}),
	)
	rows := collectRows(t, p)
	require.Len(t, rows, 1)
	require.Equal(t, uint64(4950), rows[0][0].Uint64())
}
