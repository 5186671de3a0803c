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
	"math"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/container/vector"
)

func init() {
	registerScalar(
		arithmetic("+", plusReturnType, func(a, b int64) (int64, bool) { return a + b, true },
			func(a, b uint64) (uint64, bool) { return a + b, true },
			func(a, b float64) (float64, bool) { return a + b, true }),
		arithmetic("-", minusReturnType, func(a, b int64) (int64, bool) { return a - b, true },
			func(a, b uint64) (uint64, bool) { return a - b, true },
			func(a, b float64) (float64, bool) { return a - b, true }),
		arithmetic("*", plusReturnType, func(a, b int64) (int64, bool) { return a * b, true },
			func(a, b uint64) (uint64, bool) { return a * b, true },
			func(a, b float64) (float64, bool) { return a * b, true }),
		divide,
		arithmetic("%", plusReturnType, func(a, b int64) (int64, bool) {
			if b == 0 {
				return 0, false
			}
			return a % b, true
		}, func(a, b uint64) (uint64, bool) {
			if b == 0 {
				return 0, false
			}
			return a % b, true
		}, func(a, b float64) (float64, bool) {
			if b == 0 {
				return 0, false
			}
			return math.Mod(a, b), true
		}),
		negate,
		&ScalarFunction{
			Name: "abs", MinArgs: 1, MaxArgs: 1,
			ReturnType: func(args []types.T) (types.T, error) {
				return negateReturnType(args)
			},
			Eval: func(ctx context.Context, args []*vector.Vector, rows int, ret types.T) (*vector.Vector, error) {
				return rowWise(args, rows, ret, strict(ret, func(vals []types.DataValue) (types.DataValue, error) {
					v, err := types.Cast(vals[0], ret)
					if err != nil {
						return types.DataValue{}, err
					}
					if ret.IsFloat() {
						return types.NewFloat64(math.Abs(v.Float64())), nil
					}
					if n := v.Int64(); n < 0 {
						return types.NewInt64(-n), nil
					}
					return v, nil
				}))
			},
		},
	)
}

func checkNumeric(name string, args []types.T) error {
	for _, t := range args {
		if !t.IsNumeric() && t != types.T_null {
			return moerr.NewIllegalDataTypeNoCtx("%s does not support %s", name, t)
		}
	}
	return nil
}

// plusReturnType widens two numbers: unsigned pairs stay unsigned, any
// float makes a Float64, anything else is Int64.
func plusReturnType(args []types.T) (types.T, error) {
	if err := checkNumeric("arithmetic", args); err != nil {
		return 0, err
	}
	switch t := types.CommonSuperType(args[0], args[1]); {
	case t == types.T_null:
		return types.T_int64, nil
	case t.IsFloat():
		return types.T_float64, nil
	case t.IsUnsignedInt():
		return types.T_uint64, nil
	}
	return types.T_int64, nil
}

// subtraction of unsigned may go negative
func minusReturnType(args []types.T) (types.T, error) {
	t, err := plusReturnType(args)
	if err == nil && t == types.T_uint64 {
		t = types.T_int64
	}
	return t, err
}

func negateReturnType(args []types.T) (types.T, error) {
	if err := checkNumeric("negate", args); err != nil {
		return 0, err
	}
	if args[0].IsFloat() {
		return types.T_float64, nil
	}
	return types.T_int64, nil
}

func arithmetic(
	name string,
	returnType func([]types.T) (types.T, error),
	ints func(a, b int64) (int64, bool),
	uints func(a, b uint64) (uint64, bool),
	floats func(a, b float64) (float64, bool),
) *ScalarFunction {
	return &ScalarFunction{
		Name: name, MinArgs: 2, MaxArgs: 2,
		ReturnType: returnType,
		// % by zero
		Nulls: AlwaysNullable,
		Eval: func(ctx context.Context, args []*vector.Vector, rows int, ret types.T) (*vector.Vector, error) {
			return rowWise(args, rows, ret, strict(ret, func(vals []types.DataValue) (types.DataValue, error) {
				a, err := types.Cast(vals[0], ret)
				if err != nil {
					return types.DataValue{}, err
				}
				b, err := types.Cast(vals[1], ret)
				if err != nil {
					return types.DataValue{}, err
				}
				switch {
				case ret.IsFloat():
					if r, ok := floats(a.Float64(), b.Float64()); ok {
						return types.NewFloat64(r), nil
					}
				case ret.IsUnsignedInt():
					if r, ok := uints(a.Uint64(), b.Uint64()); ok {
						return types.NewUInt64(r), nil
					}
				default:
					if r, ok := ints(a.Int64(), b.Int64()); ok {
						return types.NewInt64(r), nil
					}
				}
				return types.NewNull(ret), nil
			}))
		},
	}
}

// divide always yields Float64, null on a zero divisor.
var divide = &ScalarFunction{
	Name: "/", MinArgs: 2, MaxArgs: 2,
	Nulls: AlwaysNullable,
	ReturnType: func(args []types.T) (types.T, error) {
		if err := checkNumeric("/", args); err != nil {
			return 0, err
		}
		return types.T_float64, nil
	},
	Eval: func(ctx context.Context, args []*vector.Vector, rows int, ret types.T) (*vector.Vector, error) {
		return rowWise(args, rows, ret, strict(ret, func(vals []types.DataValue) (types.DataValue, error) {
			b := vals[1].AsFloat64()
			if b == 0 {
				return types.NewNull(ret), nil
			}
			return types.NewFloat64(vals[0].AsFloat64() / b), nil
		}))
	},
}

var negate = &ScalarFunction{
	Name: "negate", MinArgs: 1, MaxArgs: 1,
	ReturnType: negateReturnType,
	Eval: func(ctx context.Context, args []*vector.Vector, rows int, ret types.T) (*vector.Vector, error) {
		return rowWise(args, rows, ret, strict(ret, func(vals []types.DataValue) (types.DataValue, error) {
			v, err := types.Cast(vals[0], ret)
			if err != nil {
				return types.DataValue{}, err
			}
			if ret.IsFloat() {
				return types.NewFloat64(-v.Float64()), nil
			}
			return types.NewInt64(-v.Int64()), nil
		}))
	},
}
