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

package optimizer

import (
	"context"

	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/functions"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
)

// ConstantFold evaluates the sub expressions reading no column. A filter
// folding to true is dropped. Aggregator nodes are left alone since
// their outputs are named after their expressions.
type ConstantFold struct{}

func NewConstantFold() *ConstantFold {
	return &ConstantFold{}
}

func (r *ConstantFold) Name() string {
	return "ConstantFold"
}

func (r *ConstantFold) Apply(ctx context.Context, p plan.Plan) (plan.Plan, error) {
	return transformUp(p, func(n plan.Plan) (plan.Plan, error) {
		switch x := n.(type) {
		case *plan.FilterPlan:
			pred := r.constantFold(ctx, x.Predicate)
			if isTrue(pred) {
				return x.Input, nil
			}
			c := *x
			c.Predicate = pred
			return &c, nil
		case *plan.ExpressionPlan:
			c := *x
			c.Exprs = make([]plan.Expr, len(x.Exprs))
			for i, e := range x.Exprs {
				c.Exprs[i] = r.keepName(e, r.constantFold(ctx, e))
			}
			return &c, nil
		}
		return n, nil
	})
}

// constantFold returns expr unchanged where evaluation fails, the error
// then surfaces when the query runs.
func (r *ConstantFold) constantFold(ctx context.Context, expr plan.Expr) plan.Expr {
	folded, _ := plan.RewriteExpr(expr, func(e plan.Expr) (plan.Expr, error) {
		switch e.(type) {
		case *plan.ScalarFunction, *plan.Cast:
			if !plan.IsConstant(e) {
				return e, nil
			}
			v, err := functions.EvalConstant(ctx, e)
			if err != nil {
				return e, nil
			}
			return plan.NewLiteral(v), nil
		}
		return e, nil
	})
	return folded
}

func (r *ConstantFold) keepName(orig, folded plan.Expr) plan.Expr {
	name := plan.ExprName(orig)
	if plan.ExprName(folded) == name {
		return folded
	}
	if a, ok := folded.(*plan.Alias); ok {
		folded = a.E
	}
	return &plan.Alias{Name: name, E: folded}
}

func isTrue(e plan.Expr) bool {
	l, ok := e.(*plan.Literal)
	return ok && !l.Value.IsNull() && l.Value.DataType() == types.T_bool && l.Value.Bool()
}
