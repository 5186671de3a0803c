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

package batch

import (
	"context"
	"strings"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/container/vector"
)

// Batch is a data block: a schema and one equally long column per field
type Batch struct {
	schema *types.Schema
	vecs   []*vector.Vector
	rows   int
}

// New validates column count, column types and lengths against schema
func New(schema *types.Schema, vecs []*vector.Vector) (*Batch, error) {
	if schema.Len() != len(vecs) {
		return nil, moerr.NewBadArgumentsNoCtx("block has %d columns, schema has %d fields", len(vecs), schema.Len())
	}
	rows := 0
	for i, vec := range vecs {
		field := schema.Field(i)
		if vec.GetType() != field.Typ {
			return nil, moerr.NewBadArgumentsNoCtx("column %s is %s, field type is %s", field.Name, vec.GetType(), field.Typ)
		}
		if i == 0 {
			rows = vec.Length()
		} else if vec.Length() != rows {
			return nil, moerr.NewBadArgumentsNoCtx("column %s has %d rows, expected %d", field.Name, vec.Length(), rows)
		}
	}
	return &Batch{
		schema: schema,
		vecs:   vecs,
		rows:   rows,
	}, nil
}

// NewWithRowCount builds a block that may have no columns, e.g. for count(*)
func NewWithRowCount(schema *types.Schema, vecs []*vector.Vector, rows int) (*Batch, error) {
	b, err := New(schema, vecs)
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		b.rows = rows
	} else if rows != b.rows {
		return nil, moerr.NewBadArgumentsNoCtx("block has %d rows, expected %d", b.rows, rows)
	}
	return b, nil
}

// NewEmpty returns a zero row block of schema
func NewEmpty(schema *types.Schema) *Batch {
	vecs := make([]*vector.Vector, schema.Len())
	for i := range vecs {
		vecs[i] = vector.NewVec(schema.Field(i).Typ)
	}
	return &Batch{schema: schema, vecs: vecs}
}

// FromValues builds a block from rows of values, casting them to the schema
func FromValues(schema *types.Schema, rows [][]types.DataValue) (*Batch, error) {
	vecs := make([]*vector.Vector, schema.Len())
	for i := range vecs {
		vecs[i] = vector.NewVec(schema.Field(i).Typ)
	}
	for r, row := range rows {
		if len(row) != schema.Len() {
			return nil, moerr.NewBadArgumentsNoCtx("row %d has %d values, expected %d", r, len(row), schema.Len())
		}
		for i, val := range row {
			field := schema.Field(i)
			casted, err := types.Cast(val, field.Typ)
			if err != nil {
				return nil, err
			}
			if casted.IsNull() && !field.Nullable {
				return nil, moerr.NewBadArgumentsNoCtx("column %s is not nullable", field.Name)
			}
			if err := vecs[i].AppendValue(casted); err != nil {
				return nil, err
			}
		}
	}
	return NewWithRowCount(schema, vecs, len(rows))
}

func (b *Batch) Schema() *types.Schema {
	return b.schema
}

func (b *Batch) Vecs() []*vector.Vector {
	return b.vecs
}

func (b *Batch) GetVector(i int) *vector.Vector {
	return b.vecs[i]
}

func (b *Batch) RowCount() int {
	return b.rows
}

func (b *Batch) ColumnCount() int {
	return len(b.vecs)
}

func (b *Batch) IsEmpty() bool {
	return b.rows == 0
}

// Row returns the values of row i
func (b *Batch) Row(i int) []types.DataValue {
	row := make([]types.DataValue, len(b.vecs))
	for j, vec := range b.vecs {
		row[j] = vec.Get(i)
	}
	return row
}

// Size is the in-memory size of all columns
func (b *Batch) Size() int {
	size := 0
	for _, vec := range b.vecs {
		size += vec.Size()
	}
	return size
}

// Slice returns a row-range view sharing the column storage
func (b *Batch) Slice(offset, length int) (*Batch, error) {
	if offset < 0 || length < 0 || offset+length > b.rows {
		return nil, moerr.NewBadArgumentsNoCtx("slice [%d, %d) out of range of %d rows", offset, offset+length, b.rows)
	}
	vecs := make([]*vector.Vector, len(b.vecs))
	for i, vec := range b.vecs {
		s, err := vec.Slice(offset, length)
		if err != nil {
			return nil, err
		}
		vecs[i] = s
	}
	return &Batch{schema: b.schema, vecs: vecs, rows: length}, nil
}

// Shuffle keeps the rows at sels, in that order
func (b *Batch) Shuffle(sels []int64) *Batch {
	vecs := make([]*vector.Vector, len(b.vecs))
	for i, vec := range b.vecs {
		vecs[i] = vec.Shuffle(sels)
	}
	return &Batch{schema: b.schema, vecs: vecs, rows: len(sels)}
}

// Project keeps the columns at idxs
func (b *Batch) Project(idxs []int) *Batch {
	vecs := make([]*vector.Vector, len(idxs))
	for i, idx := range idxs {
		vecs[i] = b.vecs[idx]
	}
	return &Batch{schema: b.schema.Project(idxs), vecs: vecs, rows: b.rows}
}

// CastTo converts every column to the matching field of target.
// A value that does not cast becomes null when the field is nullable,
// otherwise the whole cast fails.
func (b *Batch) CastTo(ctx context.Context, target *types.Schema) (*Batch, error) {
	if target.Len() != len(b.vecs) {
		return nil, moerr.NewBadArguments(ctx, "cannot cast a block of %d columns to %d fields", len(b.vecs), target.Len())
	}
	vecs := make([]*vector.Vector, len(b.vecs))
	for i, vec := range b.vecs {
		field := target.Field(i)
		if vec.GetType() == field.Typ && (field.Nullable || vec.NullCount() == 0) {
			vecs[i] = vec
			continue
		}
		out := vector.NewVec(field.Typ)
		for r := 0; r < vec.Length(); r++ {
			if r%1024 == 0 {
				if err := ctx.Err(); err != nil {
					return nil, moerr.ConvertGoError(ctx, err)
				}
			}
			val := vec.Get(r)
			casted, err := types.Cast(val, field.Typ)
			if err != nil {
				if !field.Nullable {
					return nil, moerr.NewBadArguments(ctx, "cast column %s: %s", field.Name, err.Error())
				}
				casted = types.NewNull(field.Typ)
			}
			if casted.IsNull() && !field.Nullable {
				return nil, moerr.NewBadArguments(ctx, "column %s is not nullable", field.Name)
			}
			if err := out.AppendValue(casted); err != nil {
				return nil, err
			}
		}
		vecs[i] = out
	}
	return NewWithRowCount(target, vecs, b.rows)
}

// Concat appends blocks of the same schema into one
func Concat(schema *types.Schema, bats ...*Batch) (*Batch, error) {
	vecs := make([]*vector.Vector, schema.Len())
	for i := range vecs {
		vecs[i] = vector.NewVec(schema.Field(i).Typ)
	}
	rows := 0
	for _, bat := range bats {
		if bat.ColumnCount() != schema.Len() {
			return nil, moerr.NewBadArgumentsNoCtx("cannot concat a block of %d columns to %d fields", bat.ColumnCount(), schema.Len())
		}
		for i, vec := range bat.vecs {
			if err := vecs[i].Union(vec); err != nil {
				return nil, err
			}
		}
		rows += bat.rows
	}
	return NewWithRowCount(schema, vecs, rows)
}

func (b *Batch) String() string {
	var sb strings.Builder
	sb.WriteString(strings.Join(b.schema.Names(), "|"))
	for r := 0; r < b.rows; r++ {
		sb.WriteString("\n")
		for i, vec := range b.vecs {
			if i > 0 {
				sb.WriteString("|")
			}
			sb.WriteString(vec.Get(r).String())
		}
	}
	return sb.String()
}
