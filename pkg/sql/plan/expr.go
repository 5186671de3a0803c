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

// Expr is a bound expression. Columns are referenced by name; a computed
// expression produces a column named by ExprName.
type Expr interface {
	fmt.Stringer
	ReturnType() types.T
	Nullable() bool
}

type ColumnRef struct {
	Name string
	Typ  types.T
	Null bool
}

type Literal struct {
	Value types.DataValue
}

// ScalarFunction covers functions and operators alike, operators being
// named by their symbol.
type ScalarFunction struct {
	Name string
	Args []Expr
	Typ  types.T
	Null bool
}

type AggregateFunction struct {
	Name     string
	Args     []Expr
	Distinct bool
	Typ      types.T
	Null     bool
}

type Alias struct {
	Name string
	E    Expr
}

type Cast struct {
	E   Expr
	Typ types.T
}

func NewColumnRef(f types.Field) *ColumnRef {
	return &ColumnRef{Name: f.Name, Typ: f.Typ, Null: f.Nullable}
}

func NewLiteral(v types.DataValue) *Literal {
	return &Literal{Value: v}
}

func (c *ColumnRef) String() string              { return c.Name }
func (c *ColumnRef) ReturnType() types.T         { return c.Typ }
func (c *ColumnRef) Nullable() bool              { return c.Null }
func (l *Literal) ReturnType() types.T           { return l.Value.DataType() }
func (l *Literal) Nullable() bool                { return l.Value.IsNull() }
func (f *ScalarFunction) ReturnType() types.T    { return f.Typ }
func (f *ScalarFunction) Nullable() bool         { return f.Null }
func (a *AggregateFunction) ReturnType() types.T { return a.Typ }
func (a *AggregateFunction) Nullable() bool      { return a.Null }
func (a *Alias) String() string                  { return a.E.String() }
func (a *Alias) ReturnType() types.T             { return a.E.ReturnType() }
func (a *Alias) Nullable() bool                  { return a.E.Nullable() }
func (c *Cast) ReturnType() types.T              { return c.Typ }
func (c *Cast) Nullable() bool                   { return c.E.Nullable() }

func (l *Literal) String() string {
	v := l.Value
	if v.IsNull() {
		return "NULL"
	}
	if v.DataType() == types.T_varchar || v.DataType().IsTemporal() {
		return "'" + strings.ReplaceAll(v.String(), "'", "''") + "'"
	}
	return v.String()
}

var infixOperators = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"=": true, "<>": true, "<": true, "<=": true, ">": true, ">=": true,
	"and": true, "or": true, "like": true, "not like": true,
}

// IsInfixOperator reports whether name renders between two operands.
func IsInfixOperator(name string) bool {
	return infixOperators[name]
}

func (f *ScalarFunction) String() string {
	switch {
	case len(f.Args) == 2 && infixOperators[f.Name]:
		return fmt.Sprintf("(%s %s %s)", f.Args[0], f.Name, f.Args[1])
	case len(f.Args) == 1 && f.Name == "not":
		return fmt.Sprintf("(NOT %s)", f.Args[0])
	case len(f.Args) == 1 && f.Name == "negate":
		return fmt.Sprintf("(- %s)", f.Args[0])
	case len(f.Args) == 1 && (f.Name == "is null" || f.Name == "is not null"):
		return fmt.Sprintf("(%s %s)", f.Args[0], strings.ToUpper(f.Name))
	}
	return fmt.Sprintf("%s(%s)", f.Name, joinExprs(f.Args))
}

func (a *AggregateFunction) String() string {
	if len(a.Args) == 0 {
		return a.Name + "(*)"
	}
	if a.Distinct {
		return fmt.Sprintf("%s(DISTINCT %s)", a.Name, joinExprs(a.Args))
	}
	return fmt.Sprintf("%s(%s)", a.Name, joinExprs(a.Args))
}

func (c *Cast) String() string {
	return fmt.Sprintf("cast(%s as %s)", c.E, c.Typ)
}

func joinExprs(es []Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// ExprName is the output column name of e.
func ExprName(e Expr) string {
	if a, ok := e.(*Alias); ok {
		return a.Name
	}
	return e.String()
}

// ExprField is the output field of e.
func ExprField(e Expr) types.Field {
	return types.NewField(ExprName(e), e.ReturnType(), e.Nullable())
}

func ExprsSchema(es []Expr) *types.Schema {
	fields := make([]types.Field, len(es))
	for i, e := range es {
		fields[i] = ExprField(e)
	}
	return types.NewSchema(fields...)
}

// RewriteExpr rebuilds e bottom up. fn sees every node after its children
// were rewritten and returns the replacement.
func RewriteExpr(e Expr, fn func(Expr) (Expr, error)) (Expr, error) {
	switch x := e.(type) {
	case *ScalarFunction:
		args, err := rewriteArgs(x.Args, fn)
		if err != nil {
			return nil, err
		}
		e = &ScalarFunction{Name: x.Name, Args: args, Typ: x.Typ, Null: x.Null}
	case *AggregateFunction:
		args, err := rewriteArgs(x.Args, fn)
		if err != nil {
			return nil, err
		}
		e = &AggregateFunction{Name: x.Name, Args: args, Distinct: x.Distinct, Typ: x.Typ, Null: x.Null}
	case *Alias:
		inner, err := RewriteExpr(x.E, fn)
		if err != nil {
			return nil, err
		}
		e = &Alias{Name: x.Name, E: inner}
	case *Cast:
		inner, err := RewriteExpr(x.E, fn)
		if err != nil {
			return nil, err
		}
		e = &Cast{E: inner, Typ: x.Typ}
	}
	return fn(e)
}

func rewriteArgs(args []Expr, fn func(Expr) (Expr, error)) ([]Expr, error) {
	out := make([]Expr, len(args))
	for i, a := range args {
		r, err := RewriteExpr(a, fn)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// WalkExpr visits e top down until fn returns false.
func WalkExpr(e Expr, fn func(Expr) bool) {
	if !fn(e) {
		return
	}
	switch x := e.(type) {
	case *ScalarFunction:
		for _, a := range x.Args {
			WalkExpr(a, fn)
		}
	case *AggregateFunction:
		for _, a := range x.Args {
			WalkExpr(a, fn)
		}
	case *Alias:
		WalkExpr(x.E, fn)
	case *Cast:
		WalkExpr(x.E, fn)
	}
}

// ColumnsOf returns the distinct column names e reads, in first seen order.
func ColumnsOf(es ...Expr) []string {
	var names []string
	seen := make(map[string]bool)
	for _, e := range es {
		WalkExpr(e, func(x Expr) bool {
			if c, ok := x.(*ColumnRef); ok && !seen[c.Name] {
				seen[c.Name] = true
				names = append(names, c.Name)
			}
			return true
		})
	}
	return names
}

// AggregatesOf returns the distinct aggregate calls in es.
func AggregatesOf(es ...Expr) []*AggregateFunction {
	var aggs []*AggregateFunction
	seen := make(map[string]bool)
	for _, e := range es {
		WalkExpr(e, func(x Expr) bool {
			if a, ok := x.(*AggregateFunction); ok {
				if !seen[a.String()] {
					seen[a.String()] = true
					aggs = append(aggs, a)
				}
				return false
			}
			return true
		})
	}
	return aggs
}

// IsConstant reports whether e reads no column and no aggregate.
func IsConstant(e Expr) bool {
	constant := true
	WalkExpr(e, func(x Expr) bool {
		switch x.(type) {
		case *ColumnRef, *AggregateFunction:
			constant = false
		}
		return constant
	})
	return constant
}

// SplitConjunction flattens nested ANDs.
func SplitConjunction(e Expr) []Expr {
	if f, ok := e.(*ScalarFunction); ok && f.Name == "and" && len(f.Args) == 2 {
		return append(SplitConjunction(f.Args[0]), SplitConjunction(f.Args[1])...)
	}
	return []Expr{e}
}
