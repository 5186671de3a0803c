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
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
)

// DataValue is a single scalar: null or a payload of its type.
// Nulls keep their type tag.
type DataValue struct {
	typ  T
	null bool
	// signed ints, bool, Date and Timestamp
	i64 int64
	u64 uint64
	f64 float64
	str string
}

func NewNull(typ T) DataValue {
	return DataValue{typ: typ, null: true}
}

func NewBool(v bool) DataValue {
	var i int64
	if v {
		i = 1
	}
	return DataValue{typ: T_bool, i64: i}
}

// NewInt builds a value of a signed integer type
func NewInt(typ T, v int64) DataValue {
	return DataValue{typ: typ, i64: v}
}

// NewUint builds a value of an unsigned integer type
func NewUint(typ T, v uint64) DataValue {
	return DataValue{typ: typ, u64: v}
}

// NewFloat builds a value of a float type
func NewFloat(typ T, v float64) DataValue {
	if typ == T_float32 {
		v = float64(float32(v))
	}
	return DataValue{typ: typ, f64: v}
}

func NewInt8(v int8) DataValue       { return NewInt(T_int8, int64(v)) }
func NewInt16(v int16) DataValue     { return NewInt(T_int16, int64(v)) }
func NewInt32(v int32) DataValue     { return NewInt(T_int32, int64(v)) }
func NewInt64(v int64) DataValue     { return NewInt(T_int64, v) }
func NewUInt8(v uint8) DataValue     { return NewUint(T_uint8, uint64(v)) }
func NewUInt16(v uint16) DataValue   { return NewUint(T_uint16, uint64(v)) }
func NewUInt32(v uint32) DataValue   { return NewUint(T_uint32, uint64(v)) }
func NewUInt64(v uint64) DataValue   { return NewUint(T_uint64, v) }
func NewFloat32(v float32) DataValue { return NewFloat(T_float32, float64(v)) }
func NewFloat64(v float64) DataValue { return NewFloat(T_float64, v) }

func NewString(v string) DataValue {
	return DataValue{typ: T_varchar, str: v}
}

func NewDate(v Date) DataValue {
	return DataValue{typ: T_date, i64: int64(v)}
}

func NewTimestamp(v Timestamp) DataValue {
	return DataValue{typ: T_timestamp, i64: int64(v)}
}

// DataType is total: nulls report the type they were created with
func (v DataValue) DataType() T {
	return v.typ
}

func (v DataValue) IsNull() bool {
	return v.null || v.typ == T_null
}

func (v DataValue) Bool() bool {
	return v.i64 != 0
}

// Int64 is the payload of signed integers, Date and Timestamp
func (v DataValue) Int64() int64 {
	return v.i64
}

func (v DataValue) Uint64() uint64 {
	return v.u64
}

func (v DataValue) Float64() float64 {
	return v.f64
}

func (v DataValue) Str() string {
	return v.str
}

func (v DataValue) Date() Date {
	return Date(v.i64)
}

func (v DataValue) Timestamp() Timestamp {
	return Timestamp(v.i64)
}

// AsFloat64 widens any numeric or temporal payload
func (v DataValue) AsFloat64() float64 {
	switch {
	case v.typ.IsUnsignedInt():
		return float64(v.u64)
	case v.typ.IsFloat():
		return v.f64
	}
	return float64(v.i64)
}

// Size is the in-memory byte size of the payload
func (v DataValue) Size() int {
	if v.typ == T_varchar {
		return len(v.str)
	}
	return v.typ.FixedSize()
}

func (v DataValue) String() string {
	if v.IsNull() {
		return "NULL"
	}
	switch {
	case v.typ == T_bool:
		return strconv.FormatBool(v.Bool())
	case v.typ.IsSignedInt():
		return strconv.FormatInt(v.i64, 10)
	case v.typ.IsUnsignedInt():
		return strconv.FormatUint(v.u64, 10)
	case v.typ == T_float32:
		return strconv.FormatFloat(v.f64, 'g', -1, 32)
	case v.typ == T_float64:
		return strconv.FormatFloat(v.f64, 'g', -1, 64)
	case v.typ == T_varchar:
		return v.str
	case v.typ == T_date:
		return v.Date().String()
	case v.typ == T_timestamp:
		return v.Timestamp().String()
	}
	return ""
}

// Equal compares type, nullness and payload
func (v DataValue) Equal(o DataValue) bool {
	if v.typ != o.typ || v.IsNull() != o.IsNull() {
		return false
	}
	if v.IsNull() {
		return true
	}
	return v.i64 == o.i64 && v.u64 == o.u64 && v.str == o.str &&
		(v.f64 == o.f64 || (math.IsNaN(v.f64) && math.IsNaN(o.f64)))
}

// Compare orders values of comparable types. Null sorts first.
// Numbers of different types compare by value.
func Compare(a, b DataValue) (int, error) {
	switch {
	case a.IsNull() && b.IsNull():
		return 0, nil
	case a.IsNull():
		return -1, nil
	case b.IsNull():
		return 1, nil
	}

	ta, tb := a.typ, b.typ
	switch {
	case ta == T_varchar && tb == T_varchar:
		return strings.Compare(a.str, b.str), nil
	case ta == tb && ta.IsUnsignedInt():
		return compareOrdered(a.u64, b.u64), nil
	case ta == tb && ta.IsFloat():
		return compareOrdered(a.f64, b.f64), nil
	case ta == tb:
		return compareOrdered(a.i64, b.i64), nil
	case (ta.IsSignedInt() || ta.IsTemporal()) && (tb.IsSignedInt() || tb.IsTemporal()):
		if ta.IsTemporal() && tb.IsTemporal() {
			return compareOrdered(int64(a.asTimestamp()), int64(b.asTimestamp())), nil
		}
		return compareOrdered(a.i64, b.i64), nil
	case ta.IsUnsignedInt() && tb.IsUnsignedInt():
		return compareOrdered(a.u64, b.u64), nil
	case ta.IsNumeric() && tb.IsNumeric():
		return compareMixed(a, b), nil
	case ta == T_varchar && tb.IsTemporal(), ta.IsTemporal() && tb == T_varchar:
		// literals against temporal columns
		ca, err := Cast(a, T_timestamp)
		if err != nil {
			return 0, err
		}
		cb, err := Cast(b, T_timestamp)
		if err != nil {
			return 0, err
		}
		return compareOrdered(ca.i64, cb.i64), nil
	}
	return 0, moerr.NewBadArgumentsNoCtx("cannot compare %s with %s", ta, tb)
}

func (v DataValue) asTimestamp() Timestamp {
	if v.typ == T_date {
		return v.Date().ToTimestamp()
	}
	return v.Timestamp()
}

// compareMixed handles signed/unsigned/float pairs without losing int precision
func compareMixed(a, b DataValue) int {
	if !a.typ.IsFloat() && !b.typ.IsFloat() {
		// one signed, one unsigned
		if a.typ.IsSignedInt() {
			if a.i64 < 0 {
				return -1
			}
			return compareOrdered(uint64(a.i64), b.u64)
		}
		if b.i64 < 0 {
			return 1
		}
		return compareOrdered(a.u64, uint64(b.i64))
	}
	return compareOrdered(a.AsFloat64(), b.AsFloat64())
}

type ordered interface {
	~int64 | ~uint64 | ~float64
}

func compareOrdered[O ordered](a, b O) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// MarshalJSON encodes {"<TypeName>": payload}, payload null for nulls
func (v DataValue) MarshalJSON() ([]byte, error) {
	var payload any
	if !v.IsNull() {
		switch {
		case v.typ == T_bool:
			payload = v.Bool()
		case v.typ.IsSignedInt(), v.typ.IsTemporal():
			payload = v.i64
		case v.typ.IsUnsignedInt():
			payload = v.u64
		case v.typ.IsFloat():
			if math.IsNaN(v.f64) || math.IsInf(v.f64, 0) {
				payload = strconv.FormatFloat(v.f64, 'g', -1, 64)
			} else {
				payload = v.f64
			}
		case v.typ == T_varchar:
			payload = v.str
		}
	}
	return json.Marshal(map[string]any{v.typ.String(): payload})
}

func (v *DataValue) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if len(m) != 1 {
		return moerr.NewBadArgumentsNoCtx("invalid data value %s", string(data))
	}
	for name, raw := range m {
		typ, err := ParseType(name)
		if err != nil {
			return err
		}
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) || typ == T_null {
			*v = NewNull(typ)
			return nil
		}
		switch {
		case typ == T_bool:
			var b bool
			err = json.Unmarshal(raw, &b)
			*v = NewBool(b)
		case typ.IsSignedInt(), typ.IsTemporal():
			var i int64
			err = json.Unmarshal(raw, &i)
			*v = DataValue{typ: typ, i64: i}
		case typ.IsUnsignedInt():
			var u uint64
			err = json.Unmarshal(raw, &u)
			*v = NewUint(typ, u)
		case typ.IsFloat():
			var f float64
			if err = json.Unmarshal(raw, &f); err != nil {
				var s string
				if json.Unmarshal(raw, &s) == nil {
					f, err = strconv.ParseFloat(s, 64)
				}
			}
			*v = NewFloat(typ, f)
		case typ == T_varchar:
			var s string
			err = json.Unmarshal(raw, &s)
			*v = NewString(s)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
