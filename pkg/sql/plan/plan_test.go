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

package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/fusequery/pkg/container/types"
)

func testSource() *ReadDataSourcePlan {
	return &ReadDataSourcePlan{
		Database: "db1",
		Table:    "t",
		TableSchema: types.NewSchema(
			types.NewField("a", types.T_int32, false),
			types.NewField("b", types.T_varchar, true),
		),
	}
}

func TestExprString(t *testing.T) {
	a := &ColumnRef{Name: "a", Typ: types.T_int32}
	one := NewLiteral(types.NewInt64(1))
	plus := &ScalarFunction{Name: "+", Args: []Expr{a, one}, Typ: types.T_int64}
	require.Equal(t, "(a + 1)", plus.String())
	require.Equal(t, "x", ExprName(&Alias{Name: "x", E: plus}))
	require.Equal(t, "(a + 1)", ExprName(plus))
	require.Equal(t, "'it''s'", NewLiteral(types.NewString("it's")).String())
	require.Equal(t, "(NOT a)", (&ScalarFunction{Name: "not", Args: []Expr{a}}).String())
	require.Equal(t, "(b IS NULL)", (&ScalarFunction{Name: "is null", Args: []Expr{&ColumnRef{Name: "b"}}}).String())
	require.Equal(t, "upper(b)", (&ScalarFunction{Name: "upper", Args: []Expr{&ColumnRef{Name: "b"}}}).String())
	require.Equal(t, "count(*)", (&AggregateFunction{Name: "count"}).String())
	require.Equal(t, "sum(a)", (&AggregateFunction{Name: "sum", Args: []Expr{a}}).String())
	require.Equal(t, "cast(a as Int64)", (&Cast{E: a, Typ: types.T_int64}).String())
}

func TestExprWalkers(t *testing.T) {
	a := &ColumnRef{Name: "a", Typ: types.T_int32}
	b := &ColumnRef{Name: "b", Typ: types.T_varchar}
	sum := &AggregateFunction{Name: "sum", Args: []Expr{a}, Typ: types.T_int64}
	e := &ScalarFunction{Name: "and", Args: []Expr{
		&ScalarFunction{Name: ">", Args: []Expr{a, NewLiteral(types.NewInt64(1))}},
		&ScalarFunction{Name: "=", Args: []Expr{b, a}},
	}}
	require.Equal(t, []string{"a", "b"}, ColumnsOf(e))
	require.Len(t, SplitConjunction(e), 2)
	require.False(t, IsConstant(e))
	require.True(t, IsConstant(&ScalarFunction{Name: "+", Args: []Expr{NewLiteral(types.NewInt64(1)), NewLiteral(types.NewInt64(2))}}))

	aggs := AggregatesOf(&ScalarFunction{Name: "+", Args: []Expr{sum, sum}})
	require.Len(t, aggs, 1)

	// replace the aggregate with its output column
	out, err := RewriteExpr(&ScalarFunction{Name: "+", Args: []Expr{sum, NewLiteral(types.NewInt64(1))}}, func(x Expr) (Expr, error) {
		if agg, ok := x.(*AggregateFunction); ok {
			return &ColumnRef{Name: agg.String(), Typ: agg.Typ}, nil
		}
		return x, nil
	})
	require.NoError(t, err)
	require.Equal(t, "(sum(a) + 1)", out.String())
	require.Equal(t, []string{"sum(a)"}, ColumnsOf(out))
}

func TestPlanTree(t *testing.T) {
	src := testSource()
	require.Equal(t, 2, src.Schema().Len())
	src.PushDowns.Projection = []int{1}
	require.Equal(t, []string{"b"}, src.Schema().Names())

	a := NewColumnRef(src.TableSchema.Field(0))
	filter := &FilterPlan{Predicate: &ScalarFunction{Name: ">", Args: []Expr{a, NewLiteral(types.NewInt64(1))}, Typ: types.T_bool}, Input: src}
	limit := &LimitPlan{Limit: 3, Input: filter}
	sel := &SelectPlan{Input: limit}
	require.Same(t, src, SourceOf(sel))
	require.Equal(t, "Limit: 3\n  Filter: (a > 1)\n    ReadDataSource: scan schema: (b String NULL), table: db1.t, partitions_scanned: 0, partitions_total: 0", sel.String())

	var names []string
	Walk(sel, func(p Plan) { names = append(names, p.Name()) })
	require.Equal(t, []string{"SelectPlan", "LimitPlan", "FilterPlan", "ReadDataSourcePlan"}, names)

	replaced := limit.WithChild(src)
	require.Same(t, src, replaced.Child())
	require.Same(t, filter, limit.Child())
}

func TestAggregatorSchemas(t *testing.T) {
	b := &ColumnRef{Name: "b", Typ: types.T_varchar, Null: true}
	cnt := &AggregateFunction{Name: "count", Typ: types.T_uint64}
	partial := &AggregatorPartialPlan{GroupBy: []Expr{b}, Aggs: []*AggregateFunction{cnt}, Input: testSource()}
	require.Equal(t, []string{"b", "count(*)"}, partial.Schema().Names())
	require.Equal(t, types.T_varchar, partial.Schema().Field(1).Typ)

	final := &AggregatorFinalPlan{GroupBy: []Expr{b}, Aggs: []*AggregateFunction{cnt}, Input: partial}
	require.Equal(t, []string{"count(*)", "b"}, final.Schema().Names())
	require.Equal(t, types.T_uint64, final.Schema().Field(0).Typ)
}
