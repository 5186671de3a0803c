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
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/sql/plan"
)

func testBatch() *batch.Batch {
	schema := types.NewSchema(
		types.NewField("a", types.T_int32, true),
		types.NewField("s", types.T_varchar, true),
	)
	bat, err := batch.FromValues(schema, [][]types.DataValue{
		{types.NewInt32(1), types.NewString("abc")},
		{types.NewInt32(2), types.NewString("xab")},
		{types.NewNull(types.T_int32), types.NewNull(types.T_varchar)},
	})
	if err != nil {
		panic(err)
	}
	return bat
}

func colA() plan.Expr { return &plan.ColumnRef{Name: "a", Typ: types.T_int32, Null: true} }
func colS() plan.Expr { return &plan.ColumnRef{Name: "s", Typ: types.T_varchar, Null: true} }

func lit(v types.DataValue) plan.Expr { return plan.NewLiteral(v) }

func evalAll(ctx context.Context, e plan.Expr, bat *batch.Batch) []types.DataValue {
	vec, err := Eval(ctx, e, bat)
	convey.So(err, convey.ShouldBeNil)
	convey.So(vec.Length(), convey.ShouldEqual, bat.RowCount())
	vals := make([]types.DataValue, vec.Length())
	for i := range vals {
		vals[i] = vec.Get(i)
	}
	return vals
}

func TestArithmetic(t *testing.T) {
	ctx := context.Background()
	convey.Convey("column plus literal widens to Int64", t, func() {
		e, err := BindScalar(ctx, "+", colA(), lit(types.NewInt64(1)))
		convey.So(err, convey.ShouldBeNil)
		convey.So(e.Typ, convey.ShouldEqual, types.T_int64)
		convey.So(e.String(), convey.ShouldEqual, "(a + 1)")

		vals := evalAll(ctx, e, testBatch())
		convey.So(vals[0].Int64(), convey.ShouldEqual, 2)
		convey.So(vals[1].Int64(), convey.ShouldEqual, 3)
		convey.So(vals[2].IsNull(), convey.ShouldBeTrue)
	})

	convey.Convey("unsigned subtraction may go negative", t, func() {
		e, err := BindScalar(ctx, "-", lit(types.NewUInt8(1)), lit(types.NewUInt8(3)))
		convey.So(err, convey.ShouldBeNil)
		v, err := EvalConstant(ctx, e)
		convey.So(err, convey.ShouldBeNil)
		convey.So(v.DataType(), convey.ShouldEqual, types.T_int64)
		convey.So(v.Int64(), convey.ShouldEqual, -2)
	})

	convey.Convey("division yields float and null on zero", t, func() {
		e, err := BindScalar(ctx, "/", lit(types.NewInt64(7)), lit(types.NewInt64(2)))
		convey.So(err, convey.ShouldBeNil)
		v, err := EvalConstant(ctx, e)
		convey.So(err, convey.ShouldBeNil)
		convey.So(v.Float64(), convey.ShouldEqual, 3.5)

		e, err = BindScalar(ctx, "/", lit(types.NewInt64(7)), lit(types.NewInt64(0)))
		convey.So(err, convey.ShouldBeNil)
		v, err = EvalConstant(ctx, e)
		convey.So(err, convey.ShouldBeNil)
		convey.So(v.IsNull(), convey.ShouldBeTrue)
	})

	convey.Convey("modulo and negate", t, func() {
		e, err := BindScalar(ctx, "%", colA(), lit(types.NewInt64(2)))
		convey.So(err, convey.ShouldBeNil)
		vals := evalAll(ctx, e, testBatch())
		convey.So(vals[0].Int64(), convey.ShouldEqual, 1)
		convey.So(vals[1].Int64(), convey.ShouldEqual, 0)

		n, err := BindScalar(ctx, "negate", colA())
		convey.So(err, convey.ShouldBeNil)
		vals = evalAll(ctx, n, testBatch())
		convey.So(vals[1].Int64(), convey.ShouldEqual, -2)
	})

	convey.Convey("strings are not numbers", t, func() {
		_, err := BindScalar(ctx, "+", colS(), lit(types.NewInt64(1)))
		convey.So(moerr.IsMoErrCode(err, moerr.ErrIllegalDataType), convey.ShouldBeTrue)
	})
}

func TestComparisonAndLogic(t *testing.T) {
	ctx := context.Background()
	convey.Convey("comparison keeps nulls", t, func() {
		e, err := BindScalar(ctx, ">", colA(), lit(types.NewUInt64(1)))
		convey.So(err, convey.ShouldBeNil)
		vals := evalAll(ctx, e, testBatch())
		convey.So(vals[0].Bool(), convey.ShouldBeFalse)
		convey.So(vals[1].Bool(), convey.ShouldBeTrue)
		convey.So(vals[2].IsNull(), convey.ShouldBeTrue)
	})

	convey.Convey("incomparable types fail to bind", t, func() {
		_, err := BindScalar(ctx, "=", colA(), lit(types.NewBool(true)))
		convey.So(err, convey.ShouldNotBeNil)
	})

	convey.Convey("and/or are three valued", t, func() {
		null := lit(types.NewNull(types.T_bool))
		cases := []struct {
			op   string
			a, b plan.Expr
			want string
		}{
			{"and", null, lit(types.NewBool(false)), "false"},
			{"and", null, lit(types.NewBool(true)), "NULL"},
			{"or", null, lit(types.NewBool(true)), "true"},
			{"or", null, lit(types.NewBool(false)), "NULL"},
			{"or", lit(types.NewBool(false)), lit(types.NewBool(false)), "false"},
		}
		for _, c := range cases {
			e, err := BindScalar(ctx, c.op, c.a, c.b)
			convey.So(err, convey.ShouldBeNil)
			v, err := EvalConstant(ctx, e)
			convey.So(err, convey.ShouldBeNil)
			if c.want == "NULL" {
				convey.So(v.IsNull(), convey.ShouldBeTrue)
			} else {
				convey.So(v.Bool(), convey.ShouldEqual, c.want == "true")
			}
		}
	})

	convey.Convey("like and is null", t, func() {
		e, err := BindScalar(ctx, "like", colS(), lit(types.NewString("ab%")))
		convey.So(err, convey.ShouldBeNil)
		vals := evalAll(ctx, e, testBatch())
		convey.So(vals[0].Bool(), convey.ShouldBeTrue)
		convey.So(vals[1].Bool(), convey.ShouldBeFalse)
		convey.So(vals[2].IsNull(), convey.ShouldBeTrue)

		e, err = BindScalar(ctx, "not like", colS(), lit(types.NewString("_ab")))
		convey.So(err, convey.ShouldBeNil)
		vals = evalAll(ctx, e, testBatch())
		convey.So(vals[1].Bool(), convey.ShouldBeFalse)

		e, err = BindScalar(ctx, "is null", colS())
		convey.So(err, convey.ShouldBeNil)
		convey.So(e.Null, convey.ShouldBeFalse)
		vals = evalAll(ctx, e, testBatch())
		convey.So(vals[0].Bool(), convey.ShouldBeFalse)
		convey.So(vals[2].Bool(), convey.ShouldBeTrue)
	})

	convey.Convey("like escapes regexp metacharacters", t, func() {
		re, err := likeRegexp(`a.b\%`)
		convey.So(err, convey.ShouldBeNil)
		convey.So(re.MatchString("a.b%"), convey.ShouldBeTrue)
		convey.So(re.MatchString("axb%"), convey.ShouldBeFalse)
		convey.So(re.MatchString("a.bc"), convey.ShouldBeFalse)
	})
}

func TestStringFunctions(t *testing.T) {
	ctx := context.Background()
	constant := func(name string, args ...plan.Expr) types.DataValue {
		e, err := BindScalar(ctx, name, args...)
		convey.So(err, convey.ShouldBeNil)
		v, err := EvalConstant(ctx, e)
		convey.So(err, convey.ShouldBeNil)
		return v
	}

	convey.Convey("ascii of the empty string is null", t, func() {
		convey.So(constant("ASCII", lit(types.NewString(""))).IsNull(), convey.ShouldBeTrue)
		v := constant("ascii", lit(types.NewString("A")))
		convey.So(v.DataType(), convey.ShouldEqual, types.T_uint8)
		convey.So(v.Uint64(), convey.ShouldEqual, 65)
		convey.So(constant("ascii", lit(types.NewNull(types.T_varchar))).IsNull(), convey.ShouldBeTrue)
	})

	convey.Convey("length upper concat substring", t, func() {
		convey.So(constant("length", lit(types.NewString("héllo"))).Uint64(), convey.ShouldEqual, 6)
		convey.So(constant("char_length", lit(types.NewString("héllo"))).Uint64(), convey.ShouldEqual, 5)
		convey.So(constant("upper", lit(types.NewString("abc"))).Str(), convey.ShouldEqual, "ABC")
		convey.So(constant("reverse", lit(types.NewString("abc"))).Str(), convey.ShouldEqual, "cba")
		convey.So(constant("concat", lit(types.NewString("a")), lit(types.NewInt64(1))).Str(), convey.ShouldEqual, "a1")
		convey.So(constant("substring", lit(types.NewString("hello")), lit(types.NewInt64(2)), lit(types.NewInt64(3))).Str(), convey.ShouldEqual, "ell")
		convey.So(constant("substring", lit(types.NewString("hello")), lit(types.NewInt64(-3))).Str(), convey.ShouldEqual, "llo")
	})

	convey.Convey("arity is checked", t, func() {
		_, err := BindScalar(ctx, "upper")
		convey.So(moerr.IsMoErrCode(err, moerr.ErrBadArguments), convey.ShouldBeTrue)
	})

	convey.Convey("unknown function", t, func() {
		_, err := BindScalar(ctx, "nope", lit(types.NewInt64(1)))
		convey.So(moerr.IsMoErrCode(err, moerr.ErrUnknownFunction), convey.ShouldBeTrue)
	})
}

func TestCast(t *testing.T) {
	ctx := context.Background()
	convey.Convey("to functions and cast expressions", t, func() {
		e, err := BindScalar(ctx, "toInt32", lit(types.NewString("12")))
		convey.So(err, convey.ShouldBeNil)
		v, err := EvalConstant(ctx, e)
		convey.So(err, convey.ShouldBeNil)
		convey.So(v.DataType(), convey.ShouldEqual, types.T_int32)
		convey.So(v.Int64(), convey.ShouldEqual, 12)

		e, err = BindScalar(ctx, "toInt32", lit(types.NewString("x")))
		convey.So(err, convey.ShouldBeNil)
		_, err = EvalConstant(ctx, e)
		convey.So(err, convey.ShouldNotBeNil)

		vals := evalAll(ctx, &plan.Cast{E: colA(), Typ: types.T_varchar}, testBatch())
		convey.So(vals[1].Str(), convey.ShouldEqual, "2")
		convey.So(vals[2].IsNull(), convey.ShouldBeTrue)
	})
}

func TestContextFunctions(t *testing.T) {
	convey.Convey("context functions are resolved by the caller", t, func() {
		fn, err := GetScalarFunction(context.Background(), "DATABASE")
		convey.So(err, convey.ShouldBeNil)
		convey.So(fn.Context, convey.ShouldBeTrue)

		v, ok := ContextValue("database", FunctionContext{Database: "db1", User: "root"})
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(v.Str(), convey.ShouldEqual, "db1")
		v, _ = ContextValue("current_user", FunctionContext{User: "root"})
		convey.So(v.Str(), convey.ShouldEqual, "root")

		e, err := BindScalar(context.Background(), "version")
		convey.So(err, convey.ShouldBeNil)
		_, err = EvalConstant(context.Background(), e)
		convey.So(moerr.IsMoErrCode(err, moerr.ErrInternal), convey.ShouldBeTrue)
	})
}

func TestFunctionsList(t *testing.T) {
	convey.Convey("operators are not listed", t, func() {
		names := map[string]bool{}
		for _, f := range Functions() {
			names[f.Name] = f.IsAggregate
		}
		convey.So(names, convey.ShouldContainKey, "ascii")
		convey.So(names["count"], convey.ShouldBeTrue)
		convey.So(names, convey.ShouldNotContainKey, "+")
		convey.So(names, convey.ShouldNotContainKey, "is null")
		convey.So(names, convey.ShouldNotContainKey, "not")
	})
}
