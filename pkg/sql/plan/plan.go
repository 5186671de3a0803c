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
	"fmt"
	"strings"

	"github.com/matrixorigin/fusequery/pkg/container/types"
)

// Plan is a node of a logical plan or a whole statement.
type Plan interface {
	fmt.Stringer
	Name() string
	Schema() *types.Schema
}

// UnaryPlan is a node of a SELECT tree with one input.
type UnaryPlan interface {
	Plan
	Child() Plan
	WithChild(Plan) UnaryPlan
}

type FilterPlan struct {
	Predicate Expr
	Input     Plan
}

// ExpressionPlan evaluates Exprs over its input; its output has exactly
// one column per expression.
type ExpressionPlan struct {
	Exprs []Expr
	Desc  string
	Input Plan
}

// ProjectionPlan keeps and renames columns. Exprs are column references,
// possibly aliased.
type ProjectionPlan struct {
	Exprs []Expr
	Input Plan
}

// AggregatorPartialPlan folds its input into one state per group. Its
// output has the group columns followed by one String column of
// serialized state per aggregate.
type AggregatorPartialPlan struct {
	GroupBy []Expr
	Aggs    []*AggregateFunction
	Input   Plan
}

// AggregatorFinalPlan merges partial states. Its output has the aggregate
// results followed by the group columns.
type AggregatorFinalPlan struct {
	GroupBy []Expr
	Aggs    []*AggregateFunction
	Input   Plan
}

type SortItem struct {
	Expr       Expr
	Asc        bool
	NullsFirst bool
}

type SortPlan struct {
	Items []SortItem
	Input Plan
}

type LimitPlan struct {
	Limit  int
	Offset int
	Input  Plan
}

// SelectPlan is the statement wrapper of a SELECT tree.
type SelectPlan struct {
	Input Plan
}

func (p *FilterPlan) Name() string            { return "FilterPlan" }
func (p *ExpressionPlan) Name() string        { return "ExpressionPlan" }
func (p *ProjectionPlan) Name() string        { return "ProjectionPlan" }
func (p *AggregatorPartialPlan) Name() string { return "AggregatorPartialPlan" }
func (p *AggregatorFinalPlan) Name() string   { return "AggregatorFinalPlan" }
func (p *SortPlan) Name() string              { return "SortPlan" }
func (p *LimitPlan) Name() string             { return "LimitPlan" }
func (p *SelectPlan) Name() string            { return "SelectPlan" }

func (p *FilterPlan) Schema() *types.Schema     { return p.Input.Schema() }
func (p *ExpressionPlan) Schema() *types.Schema { return ExprsSchema(p.Exprs) }
func (p *ProjectionPlan) Schema() *types.Schema { return ExprsSchema(p.Exprs) }
func (p *SortPlan) Schema() *types.Schema       { return p.Input.Schema() }
func (p *LimitPlan) Schema() *types.Schema      { return p.Input.Schema() }
func (p *SelectPlan) Schema() *types.Schema     { return p.Input.Schema() }

func (p *AggregatorPartialPlan) Schema() *types.Schema {
	fields := make([]types.Field, 0, len(p.GroupBy)+len(p.Aggs))
	for _, g := range p.GroupBy {
		fields = append(fields, ExprField(g))
	}
	for _, a := range p.Aggs {
		fields = append(fields, types.NewField(a.String(), types.T_varchar, false))
	}
	return types.NewSchema(fields...)
}

func (p *AggregatorFinalPlan) Schema() *types.Schema {
	fields := make([]types.Field, 0, len(p.GroupBy)+len(p.Aggs))
	for _, a := range p.Aggs {
		fields = append(fields, ExprField(a))
	}
	for _, g := range p.GroupBy {
		fields = append(fields, ExprField(g))
	}
	return types.NewSchema(fields...)
}

func (p *FilterPlan) Child() Plan            { return p.Input }
func (p *ExpressionPlan) Child() Plan        { return p.Input }
func (p *ProjectionPlan) Child() Plan        { return p.Input }
func (p *AggregatorPartialPlan) Child() Plan { return p.Input }
func (p *AggregatorFinalPlan) Child() Plan   { return p.Input }
func (p *SortPlan) Child() Plan              { return p.Input }
func (p *LimitPlan) Child() Plan             { return p.Input }
func (p *SelectPlan) Child() Plan            { return p.Input }

func (p *FilterPlan) WithChild(c Plan) UnaryPlan {
	n := *p
	n.Input = c
	return &n
}

func (p *ExpressionPlan) WithChild(c Plan) UnaryPlan {
	n := *p
	n.Input = c
	return &n
}

func (p *ProjectionPlan) WithChild(c Plan) UnaryPlan {
	n := *p
	n.Input = c
	return &n
}

func (p *AggregatorPartialPlan) WithChild(c Plan) UnaryPlan {
	n := *p
	n.Input = c
	return &n
}

func (p *AggregatorFinalPlan) WithChild(c Plan) UnaryPlan {
	n := *p
	n.Input = c
	return &n
}

func (p *SortPlan) WithChild(c Plan) UnaryPlan {
	n := *p
	n.Input = c
	return &n
}

func (p *LimitPlan) WithChild(c Plan) UnaryPlan {
	n := *p
	n.Input = c
	return &n
}

func (p *SelectPlan) WithChild(c Plan) UnaryPlan {
	n := *p
	n.Input = c
	return &n
}

func (p *FilterPlan) String() string {
	return fmt.Sprintf("Filter: %s", p.Predicate)
}

func (p *ExpressionPlan) String() string {
	return fmt.Sprintf("Expression: %s (%s)", exprsWithTypes(p.Exprs), p.Desc)
}

func (p *ProjectionPlan) String() string {
	return fmt.Sprintf("Projection: %s", exprsWithTypes(p.Exprs))
}

func (p *AggregatorPartialPlan) String() string {
	return fmt.Sprintf("AggregatorPartial: groupBy=[%s], aggr=[%s]", joinExprs(p.GroupBy), joinAggs(p.Aggs))
}

func (p *AggregatorFinalPlan) String() string {
	return fmt.Sprintf("AggregatorFinal: groupBy=[%s], aggr=[%s]", joinExprs(p.GroupBy), joinAggs(p.Aggs))
}

func (p *SortPlan) String() string {
	parts := make([]string, len(p.Items))
	for i, it := range p.Items {
		dir := "DESC"
		if it.Asc {
			dir = "ASC"
		}
		parts[i] = fmt.Sprintf("%s %s", it.Expr, dir)
	}
	return fmt.Sprintf("Sort: %s", strings.Join(parts, ", "))
}

func (p *LimitPlan) String() string {
	if p.Offset > 0 {
		return fmt.Sprintf("Limit: %d, offset: %d", p.Limit, p.Offset)
	}
	return fmt.Sprintf("Limit: %d", p.Limit)
}

func (p *SelectPlan) String() string {
	return Format(p.Input)
}

func exprsWithTypes(es []Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = fmt.Sprintf("%s:%s", ExprName(e), e.ReturnType())
	}
	return strings.Join(parts, ", ")
}

func joinAggs(aggs []*AggregateFunction) string {
	parts := make([]string, len(aggs))
	for i, a := range aggs {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

// Format renders a SELECT tree one node per line, children indented.
func Format(p Plan) string {
	var b strings.Builder
	depth := 0
	for p != nil {
		if depth > 0 {
			b.WriteString("\n")
			b.WriteString(strings.Repeat("  ", depth))
		}
		b.WriteString(p.String())
		u, ok := p.(UnaryPlan)
		if !ok {
			break
		}
		p = u.Child()
		depth++
	}
	return b.String()
}

// Walk visits p and its inputs top down.
func Walk(p Plan, fn func(Plan)) {
	for p != nil {
		fn(p)
		u, ok := p.(UnaryPlan)
		if !ok {
			return
		}
		p = u.Child()
	}
}

// SourceOf returns the leaf of a SELECT tree.
func SourceOf(p Plan) *ReadDataSourcePlan {
	var src *ReadDataSourcePlan
	Walk(p, func(n Plan) {
		if s, ok := n.(*ReadDataSourcePlan); ok {
			src = s
		}
	})
	return src
}
