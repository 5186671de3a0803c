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

package blockio

import (
	"bytes"

	"github.com/parquet-go/parquet-go"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/batch"
	"github.com/matrixorigin/fusequery/pkg/container/types"
)

const parquetSchemaName = "fuse"

func leafNode(typ types.T) parquet.Node {
	switch typ {
	case types.T_bool, types.T_null:
		return parquet.Leaf(parquet.BooleanType)
	case types.T_int8:
		return parquet.Int(8)
	case types.T_int16:
		return parquet.Int(16)
	case types.T_int32:
		return parquet.Int(32)
	case types.T_int64:
		return parquet.Int(64)
	case types.T_uint8:
		return parquet.Uint(8)
	case types.T_uint16:
		return parquet.Uint(16)
	case types.T_uint32:
		return parquet.Uint(32)
	case types.T_uint64:
		return parquet.Uint(64)
	case types.T_float32:
		return parquet.Leaf(parquet.FloatType)
	case types.T_float64:
		return parquet.Leaf(parquet.DoubleType)
	case types.T_varchar:
		return parquet.String()
	case types.T_date:
		return parquet.Date()
	case types.T_timestamp:
		return parquet.Timestamp(parquet.Microsecond)
	}
	return nil
}

// blockSchema builds the parquet schema of bat, column encodings chosen
// from the content of each column.
func blockSchema(bat *batch.Batch) (*parquet.Schema, error) {
	group := make(parquet.Group, bat.ColumnCount())
	for i, field := range bat.Schema().Fields() {
		node := leafNode(field.Typ)
		if node == nil {
			return nil, moerr.NewIllegalDataTypeNoCtx("cannot store %s column %s", field.Typ, field.Name)
		}
		if field.Typ != types.T_null {
			enc := ChooseEncoding(field.Typ, InspectVector(bat.GetVector(i)))
			node = parquet.Encoded(node, enc)
		}
		node = parquet.Compressed(node, &parquet.Snappy)
		// the null type only ever holds nulls
		if field.Nullable || field.Typ == types.T_null {
			node = parquet.Optional(node)
		} else {
			node = parquet.Required(node)
		}
		group[field.Name] = node
	}
	return parquet.NewSchema(parquetSchemaName, group), nil
}

func toParquetValue(v types.DataValue) parquet.Value {
	if v.IsNull() {
		return parquet.NullValue()
	}
	typ := v.DataType()
	switch typ {
	case types.T_bool:
		return parquet.BooleanValue(v.Bool())
	case types.T_int8, types.T_int16, types.T_int32:
		return parquet.Int32Value(int32(v.Int64()))
	case types.T_int64:
		return parquet.Int64Value(v.Int64())
	case types.T_uint8, types.T_uint16, types.T_uint32:
		return parquet.Int32Value(int32(uint32(v.Uint64())))
	case types.T_uint64:
		return parquet.Int64Value(int64(v.Uint64()))
	case types.T_float32:
		return parquet.FloatValue(float32(v.Float64()))
	case types.T_float64:
		return parquet.DoubleValue(v.Float64())
	case types.T_varchar:
		return parquet.ByteArrayValue([]byte(v.Str()))
	case types.T_date:
		return parquet.Int32Value(int32(v.Date()))
	case types.T_timestamp:
		return parquet.Int64Value(int64(v.Timestamp()))
	}
	return parquet.NullValue()
}

// WriteBlock encodes bat as a parquet file holding one row group.
func WriteBlock(bat *batch.Batch) ([]byte, error) {
	schema, err := blockSchema(bat)
	if err != nil {
		return nil, err
	}
	fields := bat.Schema().Fields()
	// parquet orders the columns of a group by name
	leaves := make([]int, len(fields))
	defLevels := make([]int, len(fields))
	for i, field := range fields {
		leaf, ok := schema.Lookup(field.Name)
		if !ok {
			return nil, moerr.NewInternalErrorNoCtx("column %s missing from parquet schema", field.Name)
		}
		leaves[i] = leaf.ColumnIndex
		defLevels[i] = leaf.MaxDefinitionLevel
	}

	rows := make([]parquet.Row, bat.RowCount())
	for r := range rows {
		row := make(parquet.Row, len(fields))
		for i := range fields {
			v := bat.GetVector(i).Get(r)
			def := defLevels[i]
			if v.IsNull() {
				def = 0
			}
			row[leaves[i]] = toParquetValue(v).Level(0, def, leaves[i])
		}
		rows[r] = row
	}

	var buf bytes.Buffer
	w := parquet.NewWriter(&buf, schema)
	if _, err = w.WriteRows(rows); err != nil {
		return nil, moerr.NewInternalErrorNoCtx("encode block: %v", err)
	}
	if err = w.Close(); err != nil {
		return nil, moerr.NewInternalErrorNoCtx("encode block: %v", err)
	}
	return buf.Bytes(), nil
}
