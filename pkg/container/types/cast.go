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

package types

import (
	"math"
	"strconv"
	"strings"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
)

// Cast converts v to the target type. Null casts to a null of the target.
func Cast(v DataValue, to T) (DataValue, error) {
	if v.IsNull() {
		return NewNull(to), nil
	}
	if v.typ == to {
		return v, nil
	}
	switch {
	case to == T_null:
		return DataValue{}, castError(v, to)
	case to == T_varchar:
		return NewString(v.String()), nil
	case to == T_bool:
		return castToBool(v)
	case to.IsSignedInt():
		return castToInt(v, to)
	case to.IsUnsignedInt():
		return castToUint(v, to)
	case to.IsFloat():
		return castToFloat(v, to)
	case to == T_date:
		return castToDate(v)
	case to == T_timestamp:
		return castToTimestamp(v)
	}
	return DataValue{}, castError(v, to)
}

func castError(v DataValue, to T) error {
	return moerr.NewBadArgumentsNoCtx("cannot cast %s '%s' to %s", v.typ, v.String(), to)
}

func castToBool(v DataValue) (DataValue, error) {
	switch {
	case v.typ.IsSignedInt():
		return NewBool(v.i64 != 0), nil
	case v.typ.IsUnsignedInt():
		return NewBool(v.u64 != 0), nil
	case v.typ.IsFloat():
		return NewBool(v.f64 != 0), nil
	case v.typ == T_varchar:
		b, err := strconv.ParseBool(strings.TrimSpace(v.str))
		if err != nil {
			return DataValue{}, castError(v, T_bool)
		}
		return NewBool(b), nil
	}
	return DataValue{}, castError(v, T_bool)
}

func castToInt(v DataValue, to T) (DataValue, error) {
	var i int64
	switch {
	case v.typ.IsSignedInt(), v.typ == T_bool, v.typ.IsTemporal():
		i = v.i64
	case v.typ.IsUnsignedInt():
		if v.u64 > math.MaxInt64 {
			return DataValue{}, castError(v, to)
		}
		i = int64(v.u64)
	case v.typ.IsFloat():
		if math.IsNaN(v.f64) || v.f64 < math.MinInt64 || v.f64 >= math.MaxInt64 {
			return DataValue{}, castError(v, to)
		}
		i = int64(v.f64)
	case v.typ == T_varchar:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v.str), 10, 64)
		if err != nil {
			return DataValue{}, castError(v, to)
		}
		i = parsed
	default:
		return DataValue{}, castError(v, to)
	}
	bits := to.bitSize()
	if bits < 64 {
		lo, hi := int64(-1)<<(bits-1), int64(1)<<(bits-1)-1
		if i < lo || i > hi {
			return DataValue{}, castError(v, to)
		}
	}
	return NewInt(to, i), nil
}

func castToUint(v DataValue, to T) (DataValue, error) {
	var u uint64
	switch {
	case v.typ.IsSignedInt(), v.typ == T_bool, v.typ.IsTemporal():
		if v.i64 < 0 {
			return DataValue{}, castError(v, to)
		}
		u = uint64(v.i64)
	case v.typ.IsUnsignedInt():
		u = v.u64
	case v.typ.IsFloat():
		if math.IsNaN(v.f64) || v.f64 < 0 || v.f64 >= math.MaxUint64 {
			return DataValue{}, castError(v, to)
		}
		u = uint64(v.f64)
	case v.typ == T_varchar:
		parsed, err := strconv.ParseUint(strings.TrimSpace(v.str), 10, 64)
		if err != nil {
			return DataValue{}, castError(v, to)
		}
		u = parsed
	default:
		return DataValue{}, castError(v, to)
	}
	bits := to.bitSize()
	if bits < 64 && u > uint64(1)<<bits-1 {
		return DataValue{}, castError(v, to)
	}
	return NewUint(to, u), nil
}

func castToFloat(v DataValue, to T) (DataValue, error) {
	var f float64
	switch {
	case v.typ.IsSignedInt(), v.typ == T_bool, v.typ.IsTemporal():
		f = float64(v.i64)
	case v.typ.IsUnsignedInt():
		f = float64(v.u64)
	case v.typ.IsFloat():
		f = v.f64
	case v.typ == T_varchar:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return DataValue{}, castError(v, to)
		}
		f = parsed
	default:
		return DataValue{}, castError(v, to)
	}
	if to == T_float32 && !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
		return DataValue{}, castError(v, to)
	}
	return NewFloat(to, f), nil
}

func castToDate(v DataValue) (DataValue, error) {
	switch {
	case v.typ == T_varchar:
		d, err := ParseDate(v.str)
		if err != nil {
			// accept a full timestamp and drop the time part
			ts, tsErr := ParseTimestamp(v.str)
			if tsErr != nil {
				return DataValue{}, castError(v, T_date)
			}
			d = ts.ToDate()
		}
		return NewDate(d), nil
	case v.typ == T_timestamp:
		return NewDate(v.Timestamp().ToDate()), nil
	case v.typ.IsInteger():
		i, err := castToInt(v, T_int32)
		if err != nil {
			return DataValue{}, castError(v, T_date)
		}
		return NewDate(Date(i.i64)), nil
	}
	return DataValue{}, castError(v, T_date)
}

func castToTimestamp(v DataValue) (DataValue, error) {
	switch {
	case v.typ == T_varchar:
		ts, err := ParseTimestamp(v.str)
		if err != nil {
			return DataValue{}, castError(v, T_timestamp)
		}
		return NewTimestamp(ts), nil
	case v.typ == T_date:
		return NewTimestamp(v.Date().ToTimestamp()), nil
	case v.typ.IsInteger():
		i, err := castToInt(v, T_int64)
		if err != nil {
			return DataValue{}, castError(v, T_timestamp)
		}
		return NewTimestamp(Timestamp(i.i64)), nil
	}
	return DataValue{}, castError(v, T_timestamp)
}

// CommonSuperType is the type two operands are widened to before comparison
// or arithmetic
func CommonSuperType(a, b T) T {
	switch {
	case a == b:
		return a
	case a == T_null:
		return b
	case b == T_null:
		return a
	case a.IsFloat() || b.IsFloat():
		if (a.IsNumeric() || a == T_bool) && (b.IsNumeric() || b == T_bool) {
			return T_float64
		}
	case a.IsUnsignedInt() && b.IsUnsignedInt():
		return T_uint64
	case a.IsInteger() && b.IsInteger():
		return T_int64
	case a.IsTemporal() && b.IsTemporal():
		return T_timestamp
	case a.IsTemporal() && b == T_varchar:
		return a
	case b.IsTemporal() && a == T_varchar:
		return b
	}
	if a == T_varchar || b == T_varchar {
		return T_varchar
	}
	return T_float64
}
