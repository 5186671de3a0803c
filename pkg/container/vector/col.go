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

package vector

import (
	"github.com/matrixorigin/fusequery/pkg/container/types"
)

func makeCol(typ types.T, capacity int) any {
	switch typ {
	case types.T_null, types.T_bool:
		return make([]bool, 0, capacity)
	case types.T_int8:
		return make([]int8, 0, capacity)
	case types.T_int16:
		return make([]int16, 0, capacity)
	case types.T_int32:
		return make([]int32, 0, capacity)
	case types.T_int64:
		return make([]int64, 0, capacity)
	case types.T_uint8:
		return make([]uint8, 0, capacity)
	case types.T_uint16:
		return make([]uint16, 0, capacity)
	case types.T_uint32:
		return make([]uint32, 0, capacity)
	case types.T_uint64:
		return make([]uint64, 0, capacity)
	case types.T_float32:
		return make([]float32, 0, capacity)
	case types.T_float64:
		return make([]float64, 0, capacity)
	case types.T_varchar:
		return make([]string, 0, capacity)
	case types.T_date:
		return make([]types.Date, 0, capacity)
	case types.T_timestamp:
		return make([]types.Timestamp, 0, capacity)
	}
	panic("unsupported column type " + typ.String())
}

func sliceCol(col any, from, to int) any {
	switch c := col.(type) {
	case []bool:
		return c[from:to:to]
	case []int8:
		return c[from:to:to]
	case []int16:
		return c[from:to:to]
	case []int32:
		return c[from:to:to]
	case []int64:
		return c[from:to:to]
	case []uint8:
		return c[from:to:to]
	case []uint16:
		return c[from:to:to]
	case []uint32:
		return c[from:to:to]
	case []uint64:
		return c[from:to:to]
	case []float32:
		return c[from:to:to]
	case []float64:
		return c[from:to:to]
	case []string:
		return c[from:to:to]
	case []types.Date:
		return c[from:to:to]
	case []types.Timestamp:
		return c[from:to:to]
	}
	panic("unsupported column")
}

func dupCol(col any) any {
	switch c := col.(type) {
	case []bool:
		return append([]bool(nil), c...)
	case []int8:
		return append([]int8(nil), c...)
	case []int16:
		return append([]int16(nil), c...)
	case []int32:
		return append([]int32(nil), c...)
	case []int64:
		return append([]int64(nil), c...)
	case []uint8:
		return append([]uint8(nil), c...)
	case []uint16:
		return append([]uint16(nil), c...)
	case []uint32:
		return append([]uint32(nil), c...)
	case []uint64:
		return append([]uint64(nil), c...)
	case []float32:
		return append([]float32(nil), c...)
	case []float64:
		return append([]float64(nil), c...)
	case []string:
		return append([]string(nil), c...)
	case []types.Date:
		return append([]types.Date(nil), c...)
	case []types.Timestamp:
		return append([]types.Timestamp(nil), c...)
	}
	panic("unsupported column")
}
