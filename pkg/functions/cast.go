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

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/container/vector"
)

var castTargets = []types.T{
	types.T_bool,
	types.T_int8, types.T_int16, types.T_int32, types.T_int64,
	types.T_uint8, types.T_uint16, types.T_uint32, types.T_uint64,
	types.T_float32, types.T_float64,
	types.T_varchar, types.T_date, types.T_timestamp,
}

func init() {
	for _, t := range castTargets {
		registerScalar(castFunction(t))
	}
}

// castFunction registers e.g. toInt32 or toString. Names are lowered by
// the registry.
func castFunction(to types.T) *ScalarFunction {
	return &ScalarFunction{
		Name: strings.ToLower("to" + to.String()), MinArgs: 1, MaxArgs: 1,
		ReturnType: fixedType(to),
		Eval: func(ctx context.Context, args []*vector.Vector, rows int, ret types.T) (*vector.Vector, error) {
			return CastVector(ctx, args[0], ret)
		},
	}
}

// CastVector converts every row of vec to typ. A constant stays constant.
func CastVector(ctx context.Context, vec *vector.Vector, typ types.T) (*vector.Vector, error) {
	if vec.GetType() == typ {
		return vec, nil
	}
	if vec.IsConst() {
		v, err := types.Cast(vec.Get(0), typ)
		if err != nil {
			return nil, err
		}
		return vector.NewConst(v, vec.Length()), nil
	}
	out := vector.NewVec(typ)
	for i := 0; i < vec.Length(); i++ {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, moerr.ConvertGoError(ctx, err)
			}
		}
		v, err := types.Cast(vec.Get(i), typ)
		if err != nil {
			return nil, err
		}
		if err = out.AppendValue(v); err != nil {
			return nil, err
		}
	}
	return out, nil
}
