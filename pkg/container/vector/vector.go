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
	"fmt"
	"strings"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/nulls"
	"github.com/matrixorigin/fusequery/pkg/container/types"
)

const (
	FLAT     = iota // flat vector represent a uncompressed vector
	CONSTANT        // const vector
)

// Vector represent a column
type Vector struct {
	// vector's class
	class int
	// type represent the type of column
	typ types.T
	nsp *nulls.Nulls // nulls list

	// typed slice, one element for a constant vector
	col    any
	length int
}

func NewVec(typ types.T) *Vector {
	return &Vector{
		class: FLAT,
		typ:   typ,
		nsp:   nulls.New(),
		col:   makeCol(typ, 0),
	}
}

// NewConstNull builds a constant vector whose rows are all null
func NewConstNull(typ types.T, length int) *Vector {
	v := NewVec(typ)
	_ = v.AppendValue(types.NewNull(typ))
	v.class = CONSTANT
	v.length = length
	return v
}

// NewConst repeats val length times
func NewConst(val types.DataValue, length int) *Vector {
	if val.IsNull() {
		return NewConstNull(val.DataType(), length)
	}
	v := NewVec(val.DataType())
	_ = v.AppendValue(val)
	v.class = CONSTANT
	v.length = length
	return v
}

// NewFromValues builds a flat vector, casting every value to typ
func NewFromValues(typ types.T, vals []types.DataValue) (*Vector, error) {
	v := NewVec(typ)
	for _, val := range vals {
		if val.DataType() != typ && !val.IsNull() {
			var err error
			if val, err = types.Cast(val, typ); err != nil {
				return nil, err
			}
		}
		if err := v.AppendValue(val); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// NewFromSlice wraps col as a flat vector. isNull may be nil.
func NewFromSlice[T any](typ types.T, col []T, isNull []bool) *Vector {
	v := &Vector{
		class:  FLAT,
		typ:    typ,
		nsp:    nulls.New(),
		col:    col,
		length: len(col),
	}
	for i, null := range isNull {
		if null {
			v.nsp.Set(uint64(i))
		}
	}
	return v
}

func (v *Vector) Length() int {
	return v.length
}

func (v *Vector) GetType() types.T {
	return v.typ
}

func (v *Vector) GetNulls() *nulls.Nulls {
	return v.nsp
}

func (v *Vector) IsConst() bool {
	return v.class == CONSTANT
}

func (v *Vector) IsConstNull() bool {
	return v.IsConst() && v.nsp.Contains(0)
}

func (v *Vector) IsNull(i int) bool {
	if v.IsConst() {
		i = 0
	}
	return v.nsp.Contains(uint64(i))
}

// NullCount counts null rows
func (v *Vector) NullCount() int {
	if v.IsConst() {
		if v.IsConstNull() {
			return v.length
		}
		return 0
	}
	return v.nsp.Count()
}

// MustFixedCol returns the typed backing slice, one element for a constant
func MustFixedCol[T any](v *Vector) []T {
	return v.col.([]T)
}

func MustStrCol(v *Vector) []string {
	return v.col.([]string)
}

// Get returns row i as a value
func (v *Vector) Get(i int) types.DataValue {
	if v.IsConst() {
		i = 0
	}
	if v.nsp.Contains(uint64(i)) {
		return types.NewNull(v.typ)
	}
	switch col := v.col.(type) {
	case []bool:
		return types.NewBool(col[i])
	case []int8:
		return types.NewInt8(col[i])
	case []int16:
		return types.NewInt16(col[i])
	case []int32:
		return types.NewInt32(col[i])
	case []int64:
		return types.NewInt64(col[i])
	case []uint8:
		return types.NewUInt8(col[i])
	case []uint16:
		return types.NewUInt16(col[i])
	case []uint32:
		return types.NewUInt32(col[i])
	case []uint64:
		return types.NewUInt64(col[i])
	case []float32:
		return types.NewFloat32(col[i])
	case []float64:
		return types.NewFloat64(col[i])
	case []string:
		return types.NewString(col[i])
	case []types.Date:
		return types.NewDate(col[i])
	case []types.Timestamp:
		return types.NewTimestamp(col[i])
	}
	return types.NewNull(v.typ)
}

// Append adds one typed element to a flat vector
func Append[T any](v *Vector, val T, isNull bool) {
	if isNull {
		v.nsp.Set(uint64(v.length))
	}
	v.col = append(v.col.([]T), val)
	v.length++
}

// AppendValue adds val, which must be null or of the vector type
func (v *Vector) AppendValue(val types.DataValue) error {
	if v.IsConst() {
		return moerr.NewInternalErrorNoCtx("append to a constant vector")
	}
	if !val.IsNull() && val.DataType() != v.typ {
		return moerr.NewBadArgumentsNoCtx("cannot append %s value to %s column", val.DataType(), v.typ)
	}
	null := val.IsNull()
	switch v.typ {
	case types.T_null:
		Append(v, false, true)
	case types.T_bool:
		Append(v, val.Bool(), null)
	case types.T_int8:
		Append(v, int8(val.Int64()), null)
	case types.T_int16:
		Append(v, int16(val.Int64()), null)
	case types.T_int32:
		Append(v, int32(val.Int64()), null)
	case types.T_int64:
		Append(v, val.Int64(), null)
	case types.T_uint8:
		Append(v, uint8(val.Uint64()), null)
	case types.T_uint16:
		Append(v, uint16(val.Uint64()), null)
	case types.T_uint32:
		Append(v, uint32(val.Uint64()), null)
	case types.T_uint64:
		Append(v, val.Uint64(), null)
	case types.T_float32:
		Append(v, float32(val.Float64()), null)
	case types.T_float64:
		Append(v, val.Float64(), null)
	case types.T_varchar:
		Append(v, val.Str(), null)
	case types.T_date:
		Append(v, val.Date(), null)
	case types.T_timestamp:
		Append(v, val.Timestamp(), null)
	default:
		return moerr.NewIllegalDataTypeNoCtx("%s", v.typ)
	}
	return nil
}

// Slice returns rows [offset, offset+length) sharing the backing storage
func (v *Vector) Slice(offset, length int) (*Vector, error) {
	if offset < 0 || length < 0 || offset+length > v.length {
		return nil, moerr.NewBadArgumentsNoCtx("slice [%d, %d) out of range of %d rows", offset, offset+length, v.length)
	}
	if v.IsConst() {
		return &Vector{
			class:  CONSTANT,
			typ:    v.typ,
			nsp:    v.nsp,
			col:    v.col,
			length: length,
		}, nil
	}
	return &Vector{
		class:  FLAT,
		typ:    v.typ,
		nsp:    v.nsp.Range(uint64(offset), uint64(offset+length)),
		col:    sliceCol(v.col, offset, offset+length),
		length: length,
	}, nil
}

// Shuffle gathers the rows at sels into a new flat vector
func (v *Vector) Shuffle(sels []int64) *Vector {
	w := NewVec(v.typ)
	w.col = makeCol(v.typ, len(sels))
	for _, sel := range sels {
		_ = w.AppendValue(v.Get(int(sel)))
	}
	return w
}

// ToFlat materializes a constant vector, flat vectors are returned as is
func (v *Vector) ToFlat() *Vector {
	if !v.IsConst() {
		return v
	}
	w := NewVec(v.typ)
	val := v.Get(0)
	for i := 0; i < v.length; i++ {
		_ = w.AppendValue(val)
	}
	return w
}

// Dup deep copies the vector
func (v *Vector) Dup() *Vector {
	w := &Vector{
		class:  v.class,
		typ:    v.typ,
		nsp:    v.nsp.Clone(),
		length: v.length,
	}
	if w.nsp == nil {
		w.nsp = nulls.New()
	}
	w.col = dupCol(v.col)
	return w
}

// Union appends every row of w, which must have the same type
func (v *Vector) Union(w *Vector) error {
	if w.typ != v.typ {
		return moerr.NewBadArgumentsNoCtx("cannot union %s column into %s column", w.typ, v.typ)
	}
	for i := 0; i < w.length; i++ {
		if err := v.AppendValue(w.Get(i)); err != nil {
			return err
		}
	}
	return nil
}

// Size is the in-memory byte size of the values
func (v *Vector) Size() int {
	n := v.length
	if v.IsConst() {
		n = 1
	}
	if v.typ == types.T_varchar {
		total := 0
		for _, s := range v.col.([]string)[:n] {
			total += len(s)
		}
		if v.IsConst() {
			return total * v.length
		}
		return total
	}
	if v.IsConst() {
		return v.typ.FixedSize() * v.length
	}
	return v.typ.FixedSize() * n
}

func (v *Vector) String() string {
	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < v.length; i++ {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(v.Get(i).String())
	}
	b.WriteString("]")
	if v.IsConst() {
		return fmt.Sprintf("const%s", b.String())
	}
	return b.String()
}
