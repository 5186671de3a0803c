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

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/container/vector"
)

// Version is reported by version().
var Version = "fuse-query-v0.1.0"

// FunctionContext carries the session state context functions read.
type FunctionContext struct {
	Database string
	User     string
}

func init() {
	for _, name := range []string{"database", "current_user", "version"} {
		name := name
		registerScalar(&ScalarFunction{
			Name: name, MinArgs: 0, MaxArgs: 0,
			Context:    true,
			Nulls:      NeverNull,
			ReturnType: fixedType(types.T_varchar),
			Eval: func(ctx context.Context, args []*vector.Vector, rows int, ret types.T) (*vector.Vector, error) {
				return nil, moerr.NewInternalError(ctx, "context function %s was not bound", name)
			},
		})
	}
}

// ContextValue returns the value a context function takes in fctx.
func ContextValue(name string, fctx FunctionContext) (types.DataValue, bool) {
	switch name {
	case "database":
		return types.NewString(fctx.Database), true
	case "current_user":
		return types.NewString(fctx.User), true
	case "version":
		return types.NewString(Version), true
	}
	return types.DataValue{}, false
}
