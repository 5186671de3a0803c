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

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/container/vector"
	"github.com/matrixorigin/fusequery/pkg/functions"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/streams"
)

// ExpressionTransform computes one output column per expression.
type ExpressionTransform struct {
	transform
	exprs  []plan.Expr
	schema *types.Schema
}

func NewExpressionTransform(exprs []plan.Expr) *ExpressionTransform {
	return &ExpressionTransform{exprs: exprs, schema: plan.ExprsSchema(exprs)}
}

func (p *ExpressionTransform) Name() string { return "ExpressionTransform" }

func (p *ExpressionTransform) Execute(ctx context.Context) (streams.Stream, error) {
	input, err := p.executeInput(ctx)
	if err != nil {
		return nil, err
	}
	return mapBlocks(p.Name(), input, p.schema, func(ctx context.Context, bat *batch.Batch) (*batch.Batch, error) {
		return evalExprs(ctx, p.exprs, p.schema, bat)
	}), nil
}

// ProjectionTransform keeps and renames columns.
type ProjectionTransform struct {
	transform
	exprs  []plan.Expr
	schema *types.Schema
}

func NewProjectionTransform(exprs []plan.Expr) *ProjectionTransform {
	return &ProjectionTransform{exprs: exprs, schema: plan.ExprsSchema(exprs)}
}

func (p *ProjectionTransform) Name() string { return "ProjectionTransform" }

func (p *ProjectionTransform) Execute(ctx context.Context) (streams.Stream, error) {
	input, err := p.executeInput(ctx)
	if err != nil {
		return nil, err
	}
	idxs := make([]int, len(p.exprs))
	for i, e := range p.exprs {
		name := plan.ExprName(e)
		if a, ok := e.(*plan.Alias); ok {
			name = plan.ExprName(a.E)
		}
		if idxs[i] = input.Schema().IndexOf(name); idxs[i] < 0 {
			return nil, moerr.NewInternalError(ctx, "projection column %s not found in %s", name, input.Schema())
		}
	}
	return mapBlocks(p.Name(), input, p.schema, func(ctx context.Context, bat *batch.Batch) (*batch.Batch, error) {
		vecs := make([]*vector.Vector, len(idxs))
		for i, idx := range idxs {
			vecs[i] = bat.GetVector(idx)
		}
		return batch.NewWithRowCount(p.schema, vecs, bat.RowCount())
	}), nil
}

// FilterTransform keeps the rows where the predicate is true.
type FilterTransform struct {
	transform
	predicate plan.Expr
}

func NewFilterTransform(predicate plan.Expr) *FilterTransform {
	return &FilterTransform{predicate: predicate}
}

func (p *FilterTransform) Name() string { return "FilterTransform" }

func (p *FilterTransform) Execute(ctx context.Context) (streams.Stream, error) {
	input, err := p.executeInput(ctx)
	if err != nil {
		return nil, err
	}
	return mapBlocks(p.Name(), input, input.Schema(), func(ctx context.Context, bat *batch.Batch) (*batch.Batch, error) {
		vec, err := functions.Eval(ctx, p.predicate, bat)
		if err != nil {
			return nil, err
		}
		rows := bat.RowCount()
		sels := make([]int64, 0, rows)
		for i := 0; i < rows; i++ {
			v := vec.Get(i)
			if !v.IsNull() && v.DataType() == types.T_bool && v.Bool() {
				sels = append(sels, int64(i))
			}
		}
		if len(sels) == rows {
			return bat, nil
		}
		return bat.Shuffle(sels), nil
	}), nil
}

// evalExprs builds a block of schema from exprs evaluated over bat.
// Constant results are materialized.
func evalExprs(ctx context.Context, exprs []plan.Expr, schema *types.Schema, bat *batch.Batch) (*batch.Batch, error) {
	vecs := make([]*vector.Vector, len(exprs))
	for i, e := range exprs {
		vec, err := functions.Eval(ctx, e, bat)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec.ToFlat()
	}
	return batch.NewWithRowCount(schema, vecs, bat.RowCount())
}
