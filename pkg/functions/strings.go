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
	"strings"
	"unicode/utf8"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/container/vector"
)

func init() {
	registerScalar(
		&ScalarFunction{
			Name: "ascii", MinArgs: 1, MaxArgs: 1,
			// the empty string has no code
			Nulls:      AlwaysNullable,
			ReturnType: stringArgs("ascii", types.T_uint8),
			Eval: stringFunc(func(s string) (types.DataValue, bool) {
				if len(s) == 0 {
					return types.DataValue{}, false
				}
				return types.NewUInt8(s[0]), true
			}),
		},
		&ScalarFunction{
			Name: "length", MinArgs: 1, MaxArgs: 1,
			ReturnType: stringArgs("length", types.T_uint64),
			Eval: stringFunc(func(s string) (types.DataValue, bool) {
				return types.NewUInt64(uint64(len(s))), true
			}),
		},
		&ScalarFunction{
			Name: "char_length", MinArgs: 1, MaxArgs: 1,
			ReturnType: stringArgs("char_length", types.T_uint64),
			Eval: stringFunc(func(s string) (types.DataValue, bool) {
				return types.NewUInt64(uint64(utf8.RuneCountInString(s))), true
			}),
		},
		&ScalarFunction{
			Name: "upper", MinArgs: 1, MaxArgs: 1,
			ReturnType: stringArgs("upper", types.T_varchar),
			Eval: stringFunc(func(s string) (types.DataValue, bool) {
				return types.NewString(strings.ToUpper(s)), true
			}),
		},
		&ScalarFunction{
			Name: "lower", MinArgs: 1, MaxArgs: 1,
			ReturnType: stringArgs("lower", types.T_varchar),
			Eval: stringFunc(func(s string) (types.DataValue, bool) {
				return types.NewString(strings.ToLower(s)), true
			}),
		},
		&ScalarFunction{
			Name: "reverse", MinArgs: 1, MaxArgs: 1,
			ReturnType: stringArgs("reverse", types.T_varchar),
			Eval: stringFunc(func(s string) (types.DataValue, bool) {
				runes := []rune(s)
				for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
					runes[i], runes[j] = runes[j], runes[i]
				}
				return types.NewString(string(runes)), true
			}),
		},
		&ScalarFunction{
			Name: "concat", MinArgs: 1, MaxArgs: -1,
			ReturnType: fixedType(types.T_varchar),
			Eval: func(ctx context.Context, args []*vector.Vector, rows int, ret types.T) (*vector.Vector, error) {
				return rowWise(args, rows, ret, strict(ret, func(vals []types.DataValue) (types.DataValue, error) {
					var sb strings.Builder
					for _, v := range vals {
						sb.WriteString(v.String())
					}
					return types.NewString(sb.String()), nil
				}))
			},
		},
		&ScalarFunction{
			Name: "substring", MinArgs: 2, MaxArgs: 3,
			ReturnType: func(args []types.T) (types.T, error) {
				if args[0] != types.T_varchar && args[0] != types.T_null {
					return 0, moerr.NewIllegalDataTypeNoCtx("substring expects a string, got %s", args[0])
				}
				if err := checkNumeric("substring", args[1:]); err != nil {
					return 0, err
				}
				return types.T_varchar, nil
			},
			Eval: func(ctx context.Context, args []*vector.Vector, rows int, ret types.T) (*vector.Vector, error) {
				return rowWise(args, rows, ret, strict(ret, func(vals []types.DataValue) (types.DataValue, error) {
					return types.NewString(substring(vals)), nil
				}))
			},
		},
	)
}

// substring positions are 1 based, a negative start counts from the end
func substring(vals []types.DataValue) string {
	s := []rune(vals[0].Str())
	start := int(vals[1].AsFloat64())
	switch {
	case start > 0:
		start--
	case start < 0:
		start = max(len(s)+start, 0)
	}
	if start >= len(s) {
		return ""
	}
	end := len(s)
	if len(vals) == 3 {
		n := int(vals[2].AsFloat64())
		if n <= 0 {
			return ""
		}
		end = min(start+n, len(s))
	}
	return string(s[start:end])
}

func stringArgs(name string, ret types.T) func([]types.T) (types.T, error) {
	return func(args []types.T) (types.T, error) {
		for _, t := range args {
			if t != types.T_varchar && t != types.T_null {
				return 0, moerr.NewIllegalDataTypeNoCtx("%s expects a string, got %s", name, t)
			}
		}
		return ret, nil
	}
}

// stringFunc lifts a unary string function. fn returns false for a null result.
func stringFunc(fn func(string) (types.DataValue, bool)) func(context.Context, []*vector.Vector, int, types.T) (*vector.Vector, error) {
	return func(ctx context.Context, args []*vector.Vector, rows int, ret types.T) (*vector.Vector, error) {
		return rowWise(args, rows, ret, strict(ret, func(vals []types.DataValue) (types.DataValue, error) {
			if v, ok := fn(vals[0].Str()); ok {
				return v, nil
			}
			return types.NewNull(ret), nil
		}))
	}
}
