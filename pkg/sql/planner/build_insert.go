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
	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/sql/parsers"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
)

func (b *builder) buildInsert(s *parsers.Insert) (plan.Plan, error) {
	db := b.databaseOf(s.Table)
	tbl, err := b.cc.GetTable(b.ctx, db, s.Table.Table)
	if err != nil {
		return nil, err
	}
	schema := tbl.Schema()
	p := &plan.InsertPlan{
		Database:    db,
		Table:       s.Table.Table,
		TableID:     tbl.GetTableInfo().ID,
		TableSchema: schema,
	}

	// positions[i] is the table column the i-th value goes to
	positions := make([]int, schema.Len())
	for i := range positions {
		positions[i] = i
	}
	if len(s.Columns) > 0 {
		positions = positions[:0]
		seen := make(map[int]bool, len(s.Columns))
		for _, c := range s.Columns {
			idx := schema.IndexOf(c)
			if idx < 0 {
				return nil, moerr.NewBadArguments(b.ctx, "Unknown column %s in table %s.%s", c, db, s.Table.Table)
			}
			if seen[idx] {
				return nil, moerr.NewBadArguments(b.ctx, "column %s is listed twice", c)
			}
			seen[idx] = true
			positions = append(positions, idx)
		}
	}

	switch {
	case s.Select != nil:
		sel, err := b.buildSelect(s.Select)
		if err != nil {
			return nil, err
		}
		if len(s.Columns) > 0 && !isIdentity(positions, schema.Len()) {
			return nil, moerr.NewNYI(b.ctx, "INSERT SELECT into a subset of the columns")
		}
		if n := sel.Schema().Len(); n != schema.Len() {
			return nil, moerr.NewBadArguments(b.ctx, "INSERT SELECT returns %d columns, table %s has %d", n, s.Table, schema.Len())
		}
		p.Select = sel
	case len(s.Values) > 0:
		if p.Values, err = b.buildValues(schema, positions, s.Values); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// buildValues folds VALUES rows into a block of the table schema. Columns
// left out are null.
func (b *builder) buildValues(schema *types.Schema, positions []int, values [][]parsers.Expr) (*batch.Batch, error) {
	for _, i := range missing(positions, schema.Len()) {
		if f := schema.Field(i); !f.Nullable {
			return nil, moerr.NewBadArguments(b.ctx, "column %s is not nullable and has no value", f.Name)
		}
	}
	rows := make([][]types.DataValue, len(values))
	for r, exprs := range values {
		if len(exprs) != len(positions) {
			return nil, moerr.NewBadArguments(b.ctx, "row %d has %d values, expected %d", r+1, len(exprs), len(positions))
		}
		row := make([]types.DataValue, schema.Len())
		for i := range row {
			row[i] = types.NewNull(schema.Field(i).Typ)
		}
		for i, e := range exprs {
			f := schema.Field(positions[i])
			v, err := b.evalConstant(e)
			if err != nil {
				return nil, err
			}
			if v.IsNull() && !f.Nullable {
				return nil, moerr.NewBadArguments(b.ctx, "column %s is not nullable", f.Name)
			}
			if row[positions[i]], err = types.Cast(v, f.Typ); err != nil {
				return nil, err
			}
		}
		rows[r] = row
	}
	return batch.FromValues(schema, rows)
}

func isIdentity(positions []int, n int) bool {
	if len(positions) != n {
		return false
	}
	for i, p := range positions {
		if p != i {
			return false
		}
	}
	return true
}

func missing(positions []int, n int) []int {
	present := make([]bool, n)
	for _, p := range positions {
		present[p] = true
	}
	var out []int
	for i, ok := range present {
		if !ok {
			out = append(out, i)
		}
	}
	return out
}
