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
	"sort"

	"github.com/matrixorigin/fusequery/pkg/sql/plan"
)

// FilterPushDown hands the conjuncts of the filters sitting right on the
// source to the table, which uses them to prune partitions. The filters
// stay in the plan.
type FilterPushDown struct{}

func NewFilterPushDown() *FilterPushDown { return &FilterPushDown{} }

func (r *FilterPushDown) Name() string { return "FilterPushDown" }

func (r *FilterPushDown) Apply(_ context.Context, p plan.Plan) (plan.Plan, error) {
	var filters []plan.Expr
	for _, n := range chainUp(p) {
		f, ok := n.(*plan.FilterPlan)
		if !ok {
			break
		}
		filters = append(filters, plan.SplitConjunction(f.Predicate)...)
	}
	if len(filters) == 0 {
		return p, nil
	}
	return withSource(p, func(s *plan.ReadDataSourcePlan) {
		s.PushDowns.Filters = append(append([]plan.Expr{}, s.PushDowns.Filters...), filters...)
	})
}

// ProjectionPushDown narrows the columns the source reads to those the
// first schema changing node and the filters below it use.
type ProjectionPushDown struct{}

func NewProjectionPushDown() *ProjectionPushDown { return &ProjectionPushDown{} }

func (r *ProjectionPushDown) Name() string { return "ProjectionPushDown" }

func (r *ProjectionPushDown) Apply(_ context.Context, p plan.Plan) (plan.Plan, error) {
	source := plan.SourceOf(p)
	if source == nil || source.PushDowns.Projection != nil {
		return p, nil
	}
	var used []plan.Expr
	found := false
loop:
	for _, n := range chainUp(p) {
		switch x := n.(type) {
		case *plan.FilterPlan:
			used = append(used, x.Predicate)
		case *plan.ExpressionPlan:
			used = append(used, x.Exprs...)
			found = true
			break loop
		case *plan.ProjectionPlan:
			used = append(used, x.Exprs...)
			found = true
			break loop
		case *plan.AggregatorPartialPlan:
			used = append(used, x.GroupBy...)
			for _, a := range x.Aggs {
				used = append(used, a.Args...)
			}
			found = true
			break loop
		default:
			// sort or limit right on the source need every column
			return p, nil
		}
	}
	if !found {
		return p, nil
	}

	schema := source.TableSchema
	var idxs []int
	for _, name := range plan.ColumnsOf(used...) {
		if i := schema.IndexOf(name); i >= 0 {
			idxs = append(idxs, i)
		}
	}
	if len(idxs) == schema.Len() {
		return p, nil
	}
	if len(idxs) == 0 {
		// count(*) and constants still need the row count
		idxs = []int{0}
	}
	sort.Ints(idxs)
	return withSource(p, func(s *plan.ReadDataSourcePlan) {
		s.PushDowns.Projection = idxs
	})
}

// LimitPushDown lets the source stop after limit+offset rows when no node
// between the limit and the source drops or reorders rows.
type LimitPushDown struct{}

func NewLimitPushDown() *LimitPushDown { return &LimitPushDown{} }

func (r *LimitPushDown) Name() string { return "LimitPushDown" }

func (r *LimitPushDown) Apply(_ context.Context, p plan.Plan) (plan.Plan, error) {
	var limit *plan.LimitPlan
	plan.Walk(p, func(n plan.Plan) {
		if l, ok := n.(*plan.LimitPlan); ok && limit == nil {
			limit = l
		}
	})
	if limit == nil {
		return p, nil
	}
	for n := limit.Input; ; {
		switch x := n.(type) {
		case *plan.ExpressionPlan:
			n = x.Input
			continue
		case *plan.ProjectionPlan:
			n = x.Input
			continue
		case *plan.ReadDataSourcePlan:
			return withSource(p, func(s *plan.ReadDataSourcePlan) {
				s.PushDowns.Limit = limit.Limit + limit.Offset
			})
		}
		return p, nil
	}
}

// chainUp lists the nodes above the source, nearest first.
func chainUp(p plan.Plan) []plan.Plan {
	var nodes []plan.Plan
	plan.Walk(p, func(n plan.Plan) {
		if _, ok := n.(*plan.ReadDataSourcePlan); !ok {
			nodes = append(nodes, n)
		}
	})
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	return nodes
}
