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

package planner

import (
	"github.com/matrixorigin/fusequery/pkg/catalog"
	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/sql/parsers"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
)

// buildSelect lays a SELECT out as
// Source -> Filter -> [AggregatorPartial -> AggregatorFinal] ->
// Expression -> [Sort] -> [Limit] -> Projection.
func (b *builder) buildSelect(stmt *parsers.Select) (*plan.SelectPlan, error) {
	source, err := b.buildSource(stmt.From)
	if err != nil {
		return nil, err
	}
	var root plan.Plan = source
	input := source.Schema()
	bd := b.newBinder(input, true)

	// select list, * expanded
	var items []plan.Expr
	for _, it := range stmt.Items {
		if it.Expr == nil {
			for _, f := range input.Fields() {
				items = append(items, plan.NewColumnRef(f))
			}
			continue
		}
		e, err := bd.bind(it.Expr)
		if err != nil {
			return nil, err
		}
		if it.Alias != "" {
			e = &plan.Alias{Name: it.Alias, E: e}
		}
		items = append(items, e)
	}

	if stmt.Where != nil {
		pred, err := b.newBinder(input, false).bind(stmt.Where)
		if err != nil {
			return nil, err
		}
		if t := pred.ReturnType(); t != types.T_bool && t != types.T_null {
			return nil, moerr.NewBadArguments(b.ctx, "filter predicate %s has type %s, expected Boolean", pred, t)
		}
		root = &plan.FilterPlan{Predicate: pred, Input: root}
	}

	// order by, resolving aliases of the select list first
	orders := make([]plan.Expr, len(stmt.OrderBy))
	for i, o := range stmt.OrderBy {
		if id, ok := o.Expr.(*parsers.Ident); ok && len(id.Parts) == 1 {
			if item := findByName(items, id.Name()); item != nil {
				orders[i] = item
				continue
			}
		}
		e, err := bd.bind(o.Expr)
		if err != nil {
			return nil, err
		}
		orders[i] = e
	}

	groupBy := make([]plan.Expr, len(stmt.GroupBy))
	for i, g := range stmt.GroupBy {
		e, err := b.newBinder(input, false).bind(g)
		if err != nil {
			return nil, err
		}
		groupBy[i] = e
	}
	aggs := plan.AggregatesOf(append(append([]plan.Expr{}, items...), orders...)...)
	if len(groupBy) > 0 || len(aggs) > 0 {
		root = &plan.AggregatorPartialPlan{GroupBy: groupBy, Aggs: aggs, Input: root}
		root = &plan.AggregatorFinalPlan{GroupBy: groupBy, Aggs: aggs, Input: root}
		for i, e := range items {
			if items[i], err = b.afterAggregation(e, groupBy); err != nil {
				return nil, err
			}
		}
		for i, e := range orders {
			if orders[i], err = b.afterAggregation(e, groupBy); err != nil {
				return nil, err
			}
		}
	}

	// order exprs not in the select list are computed as hidden columns
	exprs := append([]plan.Expr{}, items...)
	sortItems := make([]plan.SortItem, len(orders))
	for i, e := range orders {
		name := plan.ExprName(e)
		if findByName(exprs, name) == nil {
			exprs = append(exprs, e)
		}
		asc := !stmt.OrderBy[i].Desc
		sortItems[i] = plan.SortItem{
			Expr:       &plan.ColumnRef{Name: name, Typ: e.ReturnType(), Null: e.Nullable()},
			Asc:        asc,
			NullsFirst: asc,
		}
	}
	desc := "Before Projection"
	if len(sortItems) > 0 {
		desc = "Before OrderBy"
	}
	root = &plan.ExpressionPlan{Exprs: exprs, Desc: desc, Input: root}
	if len(sortItems) > 0 {
		root = &plan.SortPlan{Items: sortItems, Input: root}
	}

	if stmt.Limit != nil {
		limit, err := b.evalCount(stmt.Limit, "LIMIT")
		if err != nil {
			return nil, err
		}
		offset := 0
		if stmt.Offset != nil {
			if offset, err = b.evalCount(stmt.Offset, "OFFSET"); err != nil {
				return nil, err
			}
		}
		root = &plan.LimitPlan{Limit: limit, Offset: offset, Input: root}
	}

	projection := make([]plan.Expr, len(items))
	for i, e := range items {
		projection[i] = plan.NewColumnRef(plan.ExprField(e))
	}
	root = &plan.ProjectionPlan{Exprs: projection, Input: root}
	return &plan.SelectPlan{Input: root}, nil
}

// buildSource resolves FROM. No FROM reads the one row of system.one.
func (b *builder) buildSource(from *parsers.TableRef) (*plan.ReadDataSourcePlan, error) {
	if from == nil {
		from = &parsers.TableRef{Name: parsers.TableName{Database: catalog.SystemDatabaseName, Table: "one"}}
	}
	var (
		tbl  catalog.Table
		args []types.DataValue
		err  error
	)
	if from.Args != nil {
		args = make([]types.DataValue, len(from.Args))
		for i, a := range from.Args {
			if args[i], err = b.evalConstant(a); err != nil {
				return nil, err
			}
		}
		if tbl, err = b.cc.GetCatalog().GetTableFunction(b.ctx, from.Name.Table, args); err != nil {
			return nil, err
		}
	} else {
		if tbl, err = b.cc.GetTable(b.ctx, b.databaseOf(from.Name), from.Name.Table); err != nil {
			return nil, err
		}
	}
	info := tbl.GetTableInfo()
	return &plan.ReadDataSourcePlan{
		Database:     tbl.Database(),
		Table:        tbl.Name(),
		TableID:      info.ID,
		TableVersion: info.Version,
		TableSchema:  tbl.Schema(),
		TableArgs:    args,
	}, nil
}

// afterAggregation rewrites e to read the output of AggregatorFinal:
// aggregates and group expressions become column references.
func (b *builder) afterAggregation(e plan.Expr, groupBy []plan.Expr) (plan.Expr, error) {
	if a, ok := e.(*plan.AggregateFunction); ok {
		return &plan.ColumnRef{Name: a.String(), Typ: a.Typ, Null: a.Null}, nil
	}
	for _, g := range groupBy {
		if g.String() == e.String() {
			if alias, ok := e.(*plan.Alias); ok {
				return &plan.Alias{Name: alias.Name, E: plan.NewColumnRef(plan.ExprField(g))}, nil
			}
			return plan.NewColumnRef(plan.ExprField(g)), nil
		}
	}
	switch x := e.(type) {
	case *plan.ColumnRef:
		return nil, moerr.NewBadArguments(b.ctx, "column %s is neither aggregated nor in GROUP BY", x.Name)
	case *plan.ScalarFunction:
		args := make([]plan.Expr, len(x.Args))
		for i, a := range x.Args {
			r, err := b.afterAggregation(a, groupBy)
			if err != nil {
				return nil, err
			}
			args[i] = r
		}
		return &plan.ScalarFunction{Name: x.Name, Args: args, Typ: x.Typ, Null: x.Null}, nil
	case *plan.Alias:
		inner, err := b.afterAggregation(x.E, groupBy)
		if err != nil {
			return nil, err
		}
		return &plan.Alias{Name: x.Name, E: inner}, nil
	case *plan.Cast:
		inner, err := b.afterAggregation(x.E, groupBy)
		if err != nil {
			return nil, err
		}
		return &plan.Cast{E: inner, Typ: x.Typ}, nil
	}
	return e, nil
}

func (b *builder) evalCount(e parsers.Expr, clause string) (int, error) {
	v, err := b.evalConstant(e)
	if err != nil {
		return 0, err
	}
	if v.IsNull() || !v.DataType().IsInteger() || (v.DataType().IsSignedInt() && v.Int64() < 0) {
		return 0, moerr.NewBadArguments(b.ctx, "%s expects a non negative integer, got %s", clause, v)
	}
	if v.DataType().IsSignedInt() {
		return int(v.Int64()), nil
	}
	return int(v.Uint64()), nil
}

// findByName returns the expression of es whose output is named name.
func findByName(es []plan.Expr, name string) plan.Expr {
	for _, e := range es {
		if plan.ExprName(e) == name {
			return e
		}
	}
	return nil
}
