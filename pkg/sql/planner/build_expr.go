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
	"math"
	"strconv"
	"strings"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/functions"
	"github.com/matrixorigin/fusequery/pkg/sql/parsers"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
	"github.com/matrixorigin/fusequery/pkg/users"
)

// binder resolves parsed expressions against the columns of schema.
type binder struct {
	b        *builder
	schema   *types.Schema
	allowAgg bool
	// set while binding aggregate arguments
	inAgg bool
}

func (b *builder) newBinder(schema *types.Schema, allowAgg bool) *binder {
	return &binder{b: b, schema: schema, allowAgg: allowAgg}
}

func (bd *binder) bind(e parsers.Expr) (plan.Expr, error) {
	ctx := bd.b.ctx
	switch x := e.(type) {
	case *parsers.Ident:
		idx := bd.schema.IndexOf(x.Name())
		if idx < 0 {
			return nil, moerr.NewBadArguments(ctx, "Unknown column %s", x)
		}
		return plan.NewColumnRef(bd.schema.Field(idx)), nil
	case *parsers.Literal:
		v, err := bindLiteral(x)
		if err != nil {
			return nil, moerr.NewBadArguments(ctx, "invalid literal %s", x)
		}
		return plan.NewLiteral(v), nil
	case *parsers.BinaryExpr:
		l, err := bd.bind(x.Left)
		if err != nil {
			return nil, err
		}
		r, err := bd.bind(x.Right)
		if err != nil {
			return nil, err
		}
		return functions.BindScalar(ctx, x.Op, l, r)
	case *parsers.UnaryExpr:
		arg, err := bd.bind(x.Expr)
		if err != nil {
			return nil, err
		}
		name := x.Op
		if name == "-" {
			name = "negate"
		}
		return functions.BindScalar(ctx, name, arg)
	case *parsers.IsNullExpr:
		arg, err := bd.bind(x.Expr)
		if err != nil {
			return nil, err
		}
		if x.Not {
			return functions.BindScalar(ctx, "is not null", arg)
		}
		return functions.BindScalar(ctx, "is null", arg)
	case *parsers.CastExpr:
		arg, err := bd.bind(x.Expr)
		if err != nil {
			return nil, err
		}
		return &plan.Cast{E: arg, Typ: x.Type}, nil
	case *parsers.FuncCall:
		return bd.bindFunction(x)
	}
	return nil, moerr.NewNYI(ctx, "expression %s", e)
}

func (bd *binder) bindArgs(args []parsers.Expr) ([]plan.Expr, error) {
	out := make([]plan.Expr, len(args))
	for i, a := range args {
		bound, err := bd.bind(a)
		if err != nil {
			return nil, err
		}
		out[i] = bound
	}
	return out, nil
}

func (bd *binder) bindFunction(f *parsers.FuncCall) (plan.Expr, error) {
	ctx := bd.b.ctx
	if functions.IsAggregate(f.Name) {
		if !bd.allowAgg {
			return nil, moerr.NewBadArguments(ctx, "aggregate function %s is not allowed here", f)
		}
		if bd.inAgg {
			return nil, moerr.NewBadArguments(ctx, "aggregate function %s is nested in another aggregate", f)
		}
		bd.inAgg = true
		args, err := bd.bindArgs(f.Args)
		bd.inAgg = false
		if err != nil {
			return nil, err
		}
		return functions.BindAggregate(ctx, f.Name, f.Distinct, args...)
	}
	if f.Star || f.Distinct {
		return nil, moerr.NewBadArguments(ctx, "%s is not an aggregate function", f.Name)
	}
	fn, err := functions.GetScalarFunction(ctx, f.Name)
	if err != nil {
		return nil, err
	}
	if fn.Context {
		if len(f.Args) != 0 {
			return nil, moerr.NewBadArguments(ctx, "function %s takes no argument", f.Name)
		}
		v, _ := functions.ContextValue(fn.Name, bd.functionContext())
		// keep the call as the column name, as if it were evaluated
		return &plan.Alias{Name: f.String(), E: plan.NewLiteral(v)}, nil
	}
	args, err := bd.bindArgs(f.Args)
	if err != nil {
		return nil, err
	}
	return functions.BindScalar(ctx, fn.Name, args...)
}

func (bd *binder) functionContext() functions.FunctionContext {
	fctx := functions.FunctionContext{Database: bd.b.cc.GetCurrentDatabase()}
	if u := bd.b.cc.GetCurrentUser(); u != nil {
		fctx.User = users.Identity(u.Name, u.Hostname)
	}
	return fctx
}

// bindLiteral types numbers with the narrowest type holding them:
// unsigned when non-negative, signed when negative, Float64 with a
// fraction or an exponent.
func bindLiteral(l *parsers.Literal) (types.DataValue, error) {
	switch l.Kind {
	case parsers.LiteralString:
		return types.NewString(l.Value), nil
	case parsers.LiteralBool:
		return types.NewBool(strings.EqualFold(l.Value, "true")), nil
	case parsers.LiteralNull:
		return types.NewNull(types.T_null), nil
	}
	if strings.ContainsAny(l.Value, ".eE") {
		f, err := strconv.ParseFloat(l.Value, 64)
		if err != nil {
			return types.DataValue{}, err
		}
		return types.NewFloat64(f), nil
	}
	if strings.HasPrefix(l.Value, "-") {
		i, err := strconv.ParseInt(l.Value, 10, 64)
		if err != nil {
			return parseFloatLiteral(l.Value)
		}
		switch {
		case i >= math.MinInt8:
			return types.NewInt8(int8(i)), nil
		case i >= math.MinInt16:
			return types.NewInt16(int16(i)), nil
		case i >= math.MinInt32:
			return types.NewInt32(int32(i)), nil
		}
		return types.NewInt64(i), nil
	}
	u, err := strconv.ParseUint(l.Value, 10, 64)
	if err != nil {
		return parseFloatLiteral(l.Value)
	}
	switch {
	case u <= math.MaxUint8:
		return types.NewUInt8(uint8(u)), nil
	case u <= math.MaxUint16:
		return types.NewUInt16(uint16(u)), nil
	case u <= math.MaxUint32:
		return types.NewUInt32(uint32(u)), nil
	}
	return types.NewUInt64(u), nil
}

// parseFloatLiteral takes integers out of the 64 bit range.
func parseFloatLiteral(s string) (types.DataValue, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return types.DataValue{}, err
	}
	return types.NewFloat64(f), nil
}
