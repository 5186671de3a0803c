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

	"go.uber.org/zap"

	"github.com/matrixorigin/fusequery/pkg/logutil"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
)

// Rule rewrites a SELECT tree. Rules never mutate their input; changed
// nodes are copied.
type Rule interface {
	Name() string
	Apply(ctx context.Context, p plan.Plan) (plan.Plan, error)
}

// DefaultRules run in order: folding first so the push downs see literals.
func DefaultRules() []Rule {
	return []Rule{
		NewConstantFold(),
		NewFilterPushDown(),
		NewProjectionPushDown(),
		NewLimitPushDown(),
	}
}

// Optimize applies DefaultRules to every SELECT tree p holds.
func Optimize(ctx context.Context, p plan.Plan) (plan.Plan, error) {
	return OptimizeWith(ctx, p, DefaultRules()...)
}

func OptimizeWith(ctx context.Context, p plan.Plan, rules ...Rule) (plan.Plan, error) {
	switch x := p.(type) {
	case *plan.SelectPlan:
		return optimizeSelect(ctx, x, rules)
	case *plan.ExplainPlan:
		in, err := OptimizeWith(ctx, x.Input, rules...)
		if err != nil {
			return nil, err
		}
		n := *x
		n.Input = in
		return &n, nil
	case *plan.InsertPlan:
		if x.Select == nil {
			return x, nil
		}
		sel, err := OptimizeWith(ctx, x.Select, rules...)
		if err != nil {
			return nil, err
		}
		n := *x
		n.Select = sel
		return &n, nil
	case *plan.ShowTablesPlan:
		sel, err := optimizeSelect(ctx, x.Select, rules)
		if err != nil {
			return nil, err
		}
		return &plan.ShowTablesPlan{Select: sel}, nil
	case *plan.ShowDatabasesPlan:
		sel, err := optimizeSelect(ctx, x.Select, rules)
		if err != nil {
			return nil, err
		}
		return &plan.ShowDatabasesPlan{Select: sel}, nil
	case *plan.ShowSettingsPlan:
		sel, err := optimizeSelect(ctx, x.Select, rules)
		if err != nil {
			return nil, err
		}
		return &plan.ShowSettingsPlan{Select: sel}, nil
	}
	return p, nil
}

func optimizeSelect(ctx context.Context, p *plan.SelectPlan, rules []Rule) (*plan.SelectPlan, error) {
	var out plan.Plan = p
	for _, r := range rules {
		next, err := r.Apply(ctx, out)
		if err != nil {
			return nil, err
		}
		out = next
	}
	if logutil.GetGlobalLogger().Core().Enabled(zap.DebugLevel) {
		logutil.DebugCtx(ctx, "optimized plan", zap.String("plan", plan.Format(out)))
	}
	return out.(*plan.SelectPlan), nil
}

// transformUp rebuilds the chain under p bottom up, replacing each node
// by fn(node). fn receives nodes whose input was already rebuilt.
func transformUp(p plan.Plan, fn func(plan.Plan) (plan.Plan, error)) (plan.Plan, error) {
	if u, ok := p.(plan.UnaryPlan); ok {
		child, err := transformUp(u.Child(), fn)
		if err != nil {
			return nil, err
		}
		if child != u.Child() {
			p = u.WithChild(child)
		}
	}
	return fn(p)
}

// withSource rebuilds p with its source replaced by a copy edited by fn.
func withSource(p plan.Plan, fn func(*plan.ReadDataSourcePlan)) (plan.Plan, error) {
	return transformUp(p, func(n plan.Plan) (plan.Plan, error) {
		if s, ok := n.(*plan.ReadDataSourcePlan); ok {
			c := *s
			fn(&c)
			return &c, nil
		}
		return n, nil
	})
}
