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
	"encoding/json"
	"strings"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
)

// T is the data type of a column or a value
type T uint8

const (
	T_null T = iota
	T_bool
	T_int8
	T_int16
	T_int32
	T_int64
	T_uint8
	T_uint16
	T_uint32
	T_uint64
	T_float32
	T_float64
	T_varchar
	T_date
	T_timestamp
)

var typeNames = [...]string{
	T_null:      "Null",
	T_bool:      "Boolean",
	T_int8:      "Int8",
	T_int16:     "Int16",
	T_int32:     "Int32",
	T_int64:     "Int64",
	T_uint8:     "UInt8",
	T_uint16:    "UInt16",
	T_uint32:    "UInt32",
	T_uint64:    "UInt64",
	T_float32:   "Float32",
	T_float64:   "Float64",
	T_varchar:   "String",
	T_date:      "Date",
	T_timestamp: "Timestamp",
}

// sql spellings accepted besides the canonical names
var typeAliases = map[string]T{
	"bool":              T_bool,
	"boolean":           T_bool,
	"tinyint":           T_int8,
	"smallint":          T_int16,
	"int":               T_int32,
	"integer":           T_int32,
	"bigint":            T_int64,
	"tinyint unsigned":  T_uint8,
	"smallint unsigned": T_uint16,
	"int unsigned":      T_uint32,
	"bigint unsigned":   T_uint64,
	"float":             T_float32,
	"double":            T_float64,
	"real":              T_float64,
	"varchar":           T_varchar,
	"char":              T_varchar,
	"text":              T_varchar,
	"string":            T_varchar,
	"datetime":          T_timestamp,
}

func (t T) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// ParseType resolves a canonical type name or a sql spelling, case-insensitively
func ParseType(name string) (T, error) {
	lower := strings.ToLower(strings.Join(strings.Fields(name), " "))
	for i, n := range typeNames {
		if strings.ToLower(n) == lower {
			return T(i), nil
		}
	}
	if t, ok := typeAliases[lower]; ok {
		return t, nil
	}
	return T_null, moerr.NewIllegalDataTypeNoCtx("unknown data type %s", name)
}

func (t T) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *T) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseType(name)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t T) IsSignedInt() bool {
	return t >= T_int8 && t <= T_int64
}

func (t T) IsUnsignedInt() bool {
	return t >= T_uint8 && t <= T_uint64
}

func (t T) IsInteger() bool {
	return t.IsSignedInt() || t.IsUnsignedInt()
}

func (t T) IsFloat() bool {
	return t == T_float32 || t == T_float64
}

func (t T) IsNumeric() bool {
	return t.IsInteger() || t.IsFloat()
}

// IsTemporal: Date and Timestamp are integers on disk
func (t T) IsTemporal() bool {
	return t == T_date || t == T_timestamp
}

// FixedSize is the in-memory width of one value, 0 for var-length types
func (t T) FixedSize() int {
	switch t {
	case T_bool, T_int8, T_uint8:
		return 1
	case T_int16, T_uint16:
		return 2
	case T_int32, T_uint32, T_float32, T_date:
		return 4
	case T_int64, T_uint64, T_float64, T_timestamp:
		return 8
	}
	return 0
}

// bitSize of an integer or float type
func (t T) bitSize() int {
	return t.FixedSize() * 8
}
