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

package functions

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/container/vector"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
)

type NullPolicy uint8

const (
	// the result is null iff one argument is null
	NullIfAnyArg NullPolicy = iota
	// the result may be null for non null arguments too
	AlwaysNullable
	NeverNull
)

// ScalarFunction describes one builtin scalar function or operator.
type ScalarFunction struct {
	Name    string
	MinArgs int
	// -1 for variadic
	MaxArgs int
	Nulls   NullPolicy
	// context functions are replaced by literals when planning
	Context bool

	ReturnType func(args []types.T) (types.T, error)
	// Eval computes rows values of type ret
	Eval func(ctx context.Context, args []*vector.Vector, rows int, ret types.T) (*vector.Vector, error)
}

var scalarFunctions = map[string]*ScalarFunction{}

func registerScalar(fns ...*ScalarFunction) {
	for _, fn := range fns {
		scalarFunctions[fn.Name] = fn
	}
}

// GetScalarFunction resolves name case-insensitively.
func GetScalarFunction(ctx context.Context, name string) (*ScalarFunction, error) {
	if fn, ok := scalarFunctions[strings.ToLower(name)]; ok {
		return fn, nil
	}
	return nil, moerr.NewUnknownFunction(ctx, name)
}

// ResolveReturnType checks the arity of fn and infers type and nullability.
func (fn *ScalarFunction) ResolveReturnType(ctx context.Context, args []types.T, nullable []bool) (types.T, bool, error) {
	if len(args) < fn.MinArgs || (fn.MaxArgs >= 0 && len(args) > fn.MaxArgs) {
		return 0, false, moerr.NewBadArguments(ctx, "function %s expects %s arguments, got %d", fn.Name, fn.arity(), len(args))
	}
	typ, err := fn.ReturnType(args)
	if err != nil {
		return 0, false, err
	}
	switch fn.Nulls {
	case AlwaysNullable:
		return typ, true, nil
	case NeverNull:
		return typ, false, nil
	}
	for _, n := range nullable {
		if n {
			return typ, true, nil
		}
	}
	return typ, false, nil
}

func (fn *ScalarFunction) arity() string {
	switch {
	case fn.MaxArgs < 0:
		return fmt.Sprintf("at least %d", fn.MinArgs)
	case fn.MinArgs == fn.MaxArgs:
		return fmt.Sprintf("%d", fn.MinArgs)
	}
	return fmt.Sprintf("%d to %d", fn.MinArgs, fn.MaxArgs)
}

type FunctionInfo struct {
	Name        string
	IsAggregate bool
}

// Functions lists every builtin, operators excluded, ordered by name.
func Functions() []FunctionInfo {
	var infos []FunctionInfo
	for name := range scalarFunctions {
		if plan.IsInfixOperator(name) || strings.Contains(name, " ") || name == "not" || name == "negate" {
			continue
		}
		infos = append(infos, FunctionInfo{Name: name})
	}
	for name := range aggregateFunctions {
		infos = append(infos, FunctionInfo{Name: name, IsAggregate: true})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Eval computes e over every row of bat.
func Eval(ctx context.Context, e plan.Expr, bat *batch.Batch) (*vector.Vector, error) {
	rows := bat.RowCount()
	switch x := e.(type) {
	case *plan.ColumnRef:
		idx := bat.Schema().IndexOf(x.Name)
		if idx < 0 {
			return nil, moerr.NewInternalError(ctx, "column %s not found in %s", x.Name, bat.Schema())
		}
		return bat.GetVector(idx), nil
	case *plan.Literal:
		return vector.NewConst(x.Value, rows), nil
	case *plan.Alias:
		return Eval(ctx, x.E, bat)
	case *plan.Cast:
		vec, err := Eval(ctx, x.E, bat)
		if err != nil {
			return nil, err
		}
		return CastVector(ctx, vec, x.Typ)
	case *plan.ScalarFunction:
		fn, err := GetScalarFunction(ctx, x.Name)
		if err != nil {
			return nil, err
		}
		args := make([]*vector.Vector, len(x.Args))
		for i, a := range x.Args {
			if args[i], err = Eval(ctx, a, bat); err != nil {
				return nil, err
			}
		}
		return fn.Eval(ctx, args, rows, x.Typ)
	case *plan.AggregateFunction:
		return nil, moerr.NewInternalError(ctx, "aggregate %s evaluated as a scalar", x)
	}
	return nil, moerr.NewNYI(ctx, "expression %s", e)
}

// EvalConstant folds an expression reading no column.
func EvalConstant(ctx context.Context, e plan.Expr) (types.DataValue, error) {
	vec, err := Eval(ctx, e, oneRow)
	if err != nil {
		return types.DataValue{}, err
	}
	return vec.Get(0), nil
}

var oneRow = func() *batch.Batch {
	bat, _ := batch.NewWithRowCount(types.NewSchema(), nil, 1)
	return bat
}()

// rowWise applies fn to every row. Constant arguments only yield a
// constant result.
func rowWise(args []*vector.Vector, rows int, ret types.T, fn func(vals []types.DataValue) (types.DataValue, error)) (*vector.Vector, error) {
	allConst := true
	for _, a := range args {
		if !a.IsConst() {
			allConst = false
			break
		}
	}
	n := rows
	if allConst {
		n = 1
	}
	out := vector.NewVec(ret)
	vals := make([]types.DataValue, len(args))
	for i := 0; i < n; i++ {
		for j, a := range args {
			vals[j] = a.Get(i)
		}
		v, err := fn(vals)
		if err != nil {
			return nil, err
		}
		if !v.IsNull() && v.DataType() != ret {
			if v, err = types.Cast(v, ret); err != nil {
				return nil, err
			}
		}
		if v.IsNull() {
			v = types.NewNull(ret)
		}
		if err = out.AppendValue(v); err != nil {
			return nil, err
		}
	}
	if allConst {
		return vector.NewConst(out.Get(0), rows), nil
	}
	return out, nil
}

func anyNull(vals []types.DataValue) bool {
	for _, v := range vals {
		if v.IsNull() {
			return true
		}
	}
	return false
}

// strict wraps fn so that a null argument yields null.
func strict(ret types.T, fn func(vals []types.DataValue) (types.DataValue, error)) func([]types.DataValue) (types.DataValue, error) {
	return func(vals []types.DataValue) (types.DataValue, error) {
		if anyNull(vals) {
			return types.NewNull(ret), nil
		}
		return fn(vals)
	}
}

func fixedType(t types.T) func([]types.T) (types.T, error) {
	return func([]types.T) (types.T, error) {
		return t, nil
	}
}

// BindScalar resolves name over args into a typed call.
func BindScalar(ctx context.Context, name string, args ...plan.Expr) (*plan.ScalarFunction, error) {
	fn, err := GetScalarFunction(ctx, name)
	if err != nil {
		return nil, err
	}
	argTypes := make([]types.T, len(args))
	nullable := make([]bool, len(args))
	for i, a := range args {
		argTypes[i], nullable[i] = a.ReturnType(), a.Nullable()
	}
	typ, null, err := fn.ResolveReturnType(ctx, argTypes, nullable)
	if err != nil {
		return nil, err
	}
	return &plan.ScalarFunction{Name: fn.Name, Args: args, Typ: typ, Null: null}, nil
}
