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
	"regexp"
	"strings"
	"sync"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/container/vector"
)

func init() {
	registerScalar(
		comparison("=", func(c int) bool { return c == 0 }),
		comparison("<>", func(c int) bool { return c != 0 }),
		comparison("<", func(c int) bool { return c < 0 }),
		comparison("<=", func(c int) bool { return c <= 0 }),
		comparison(">", func(c int) bool { return c > 0 }),
		comparison(">=", func(c int) bool { return c >= 0 }),
		logical("and", true),
		logical("or", false),
		not,
		like("like", false),
		like("not like", true),
		isNull("is null", true),
		isNull("is not null", false),
	)
}

func boolReturnType([]types.T) (types.T, error) {
	return types.T_bool, nil
}

func comparison(name string, test func(int) bool) *ScalarFunction {
	return &ScalarFunction{
		Name: name, MinArgs: 2, MaxArgs: 2,
		ReturnType: func(args []types.T) (types.T, error) {
			a, b := args[0], args[1]
			if a == types.T_null || b == types.T_null {
				return types.T_bool, nil
			}
			if _, err := types.Compare(zeroOf(a), zeroOf(b)); err != nil {
				return 0, moerr.NewIllegalDataTypeNoCtx("cannot compare %s with %s", a, b)
			}
			return types.T_bool, nil
		},
		Eval: func(ctx context.Context, args []*vector.Vector, rows int, ret types.T) (*vector.Vector, error) {
			return rowWise(args, rows, ret, strict(ret, func(vals []types.DataValue) (types.DataValue, error) {
				c, err := types.Compare(vals[0], vals[1])
				if err != nil {
					return types.DataValue{}, err
				}
				return types.NewBool(test(c)), nil
			}))
		},
	}
}

// zeroOf is a non null value of t, used to check comparability
func zeroOf(t types.T) types.DataValue {
	switch {
	case t == types.T_varchar:
		return types.NewString("")
	case t == types.T_bool:
		return types.NewBool(false)
	case t.IsUnsignedInt():
		return types.NewUint(t, 0)
	case t.IsFloat():
		return types.NewFloat(t, 0)
	case t == types.T_date:
		return types.NewDate(0)
	case t == types.T_timestamp:
		return types.NewTimestamp(0)
	}
	return types.NewInt(t, 0)
}

func asBool(v types.DataValue) (bool, error) {
	if v.DataType() == types.T_bool {
		return v.Bool(), nil
	}
	b, err := types.Cast(v, types.T_bool)
	if err != nil {
		return false, err
	}
	return b.Bool(), nil
}

// logical implements three valued and/or. The dominant value of and is
// false, of or is true, and it wins over null.
func logical(name string, isAnd bool) *ScalarFunction {
	return &ScalarFunction{
		Name: name, MinArgs: 2, MaxArgs: 2,
		ReturnType: boolReturnType,
		Eval: func(ctx context.Context, args []*vector.Vector, rows int, ret types.T) (*vector.Vector, error) {
			dominant := !isAnd
			return rowWise(args, rows, ret, func(vals []types.DataValue) (types.DataValue, error) {
				sawNull := false
				for _, v := range vals {
					if v.IsNull() {
						sawNull = true
						continue
					}
					b, err := asBool(v)
					if err != nil {
						return types.DataValue{}, err
					}
					if b == dominant {
						return types.NewBool(dominant), nil
					}
				}
				if sawNull {
					return types.NewNull(ret), nil
				}
				return types.NewBool(!dominant), nil
			})
		},
	}
}

var not = &ScalarFunction{
	Name: "not", MinArgs: 1, MaxArgs: 1,
	ReturnType: boolReturnType,
	Eval: func(ctx context.Context, args []*vector.Vector, rows int, ret types.T) (*vector.Vector, error) {
		return rowWise(args, rows, ret, strict(ret, func(vals []types.DataValue) (types.DataValue, error) {
			b, err := asBool(vals[0])
			if err != nil {
				return types.DataValue{}, err
			}
			return types.NewBool(!b), nil
		}))
	},
}

var likePatterns sync.Map

// likeRegexp translates a sql pattern, % and _ being the wildcards and
// backslash the escape.
func likeRegexp(pattern string) (*regexp.Regexp, error) {
	if re, ok := likePatterns.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	var sb strings.Builder
	sb.WriteString("(?s)^")
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			sb.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			sb.WriteString(".*")
		case r == '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	if escaped {
		sb.WriteString(`\\`)
	}
	sb.WriteString("$")
	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, moerr.NewBadArgumentsNoCtx("invalid like pattern %q", pattern)
	}
	likePatterns.Store(pattern, re)
	return re, nil
}

func like(name string, negated bool) *ScalarFunction {
	return &ScalarFunction{
		Name: name, MinArgs: 2, MaxArgs: 2,
		ReturnType: func(args []types.T) (types.T, error) {
			for _, t := range args {
				if t != types.T_varchar && t != types.T_null {
					return 0, moerr.NewIllegalDataTypeNoCtx("%s expects strings, got %s", name, t)
				}
			}
			return types.T_bool, nil
		},
		Eval: func(ctx context.Context, args []*vector.Vector, rows int, ret types.T) (*vector.Vector, error) {
			return rowWise(args, rows, ret, strict(ret, func(vals []types.DataValue) (types.DataValue, error) {
				re, err := likeRegexp(vals[1].Str())
				if err != nil {
					return types.DataValue{}, err
				}
				return types.NewBool(re.MatchString(vals[0].Str()) != negated), nil
			}))
		},
	}
}

func isNull(name string, want bool) *ScalarFunction {
	return &ScalarFunction{
		Name: name, MinArgs: 1, MaxArgs: 1,
		Nulls:      NeverNull,
		ReturnType: boolReturnType,
		Eval: func(ctx context.Context, args []*vector.Vector, rows int, ret types.T) (*vector.Vector, error) {
			return rowWise(args, rows, ret, func(vals []types.DataValue) (types.DataValue, error) {
				return types.NewBool(vals[0].IsNull() == want), nil
			})
		},
	}
}
